package appconfig

import (
	"strings"
	"time"

	"github.com/SaiNageswarS/go-api-boot/config"
)

type AppConfig struct {
	config.BootConfig `ini:",extends"`

	// Models
	EmbeddingModel  string `env:"EMBEDDING-MODEL" ini:"embedding_model"`
	GenerationModel string `env:"GENERATION-MODEL" ini:"generation_model"`
	GeminiModel     string `env:"GEMINI-MODEL" ini:"gemini_model"`
	GeminiAPIKeys   string `env:"GEMINI-API-KEYS" ini:"gemini_api_keys"`
	UseGPU          bool   `env:"USE-GPU" ini:"use_gpu"`

	// Storage
	IndexDir        string `env:"INDEX-DIR" ini:"index_dir"`
	StudyDocsDir    string `env:"STUDY-DOCS-DIR" ini:"study_docs_dir"`
	TrainingDataDir string `env:"TRAINING-DATA-DIR" ini:"training_data_dir"`

	// Ingestion
	ChunkSize    int `ini:"chunk_size"`
	ChunkOverlap int `ini:"chunk_overlap"`

	// Retrieval
	ContextResults  int `ini:"context_results"`
	ContextMaxChars int `ini:"context_max_chars"`

	// Generation
	MaxTokens        int     `ini:"max_tokens"`
	Temperature      float64 `ini:"temperature"`
	KeepAliveMinutes int     `ini:"keep_alive_minutes"`
}

// KeepAlive is how long Ollama keeps models resident between calls.
func (c *AppConfig) KeepAlive() time.Duration {
	if c.KeepAliveMinutes <= 0 {
		return 60 * time.Minute
	}
	return time.Duration(c.KeepAliveMinutes) * time.Minute
}

// GeminiKeys splits the configured comma-separated credential list, dropping
// empty entries.
func (c *AppConfig) GeminiKeys() []string {
	var keys []string
	for _, key := range strings.Split(c.GeminiAPIKeys, ",") {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}
