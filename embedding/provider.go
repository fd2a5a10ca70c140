package embedding

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// Provider converts text to fixed-dimension vectors. Implementations load
// their model lazily on first use; calling any method before explicit
// initialization is safe.
type Provider interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
	Dimension(ctx context.Context) (int, error)
	IsReady() bool
}

// OllamaEmbedder embeds text through a locally hosted Ollama model.
type OllamaEmbedder struct {
	client    *api.Client
	model     string
	keepAlive time.Duration

	mu    sync.Mutex
	dim   int
	ready bool
}

func ProvideOllamaEmbedder(client *api.Client, model string, keepAlive time.Duration) *OllamaEmbedder {
	return &OllamaEmbedder{
		client:    client,
		model:     model,
		keepAlive: keepAlive,
	}
}

func (e *OllamaEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	req := &api.EmbeddingRequest{
		Model:     e.model,
		Prompt:    text,
		KeepAlive: &api.Duration{Duration: e.keepAlive},
	}

	resp, err := e.client.Embeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	emb64 := resp.Embedding
	emb32 := make([]float32, len(emb64))
	for i, v := range emb64 {
		emb32[i] = float32(v)
	}

	e.mu.Lock()
	if !e.ready {
		e.dim = len(emb32)
		e.ready = true
		logger.Info("Embedding model ready",
			zap.String("model", e.model),
			zap.Int("dimensions", e.dim))
	}
	e.mu.Unlock()

	return emb32, nil
}

func (e *OllamaEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	tasks := make([]<-chan async.Result[[]float32], 0, len(texts))
	for _, text := range texts {
		tasks = append(tasks, async.Go(func() ([]float32, error) {
			return e.EmbedOne(ctx, text)
		}))
	}
	return async.AwaitAll(tasks...)
}

// Dimension reports the vector width, probing the model once if no embedding
// has been produced yet. The probe is single-flight: concurrent first calls
// serialize on the provider mutex.
func (e *OllamaEmbedder) Dimension(ctx context.Context) (int, error) {
	e.mu.Lock()
	if e.ready {
		dim := e.dim
		e.mu.Unlock()
		return dim, nil
	}
	e.mu.Unlock()

	vec, err := e.EmbedOne(ctx, "dimension probe")
	if err != nil {
		return 0, err
	}
	return len(vec), nil
}

func (e *OllamaEmbedder) IsReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

// Similarity computes the cosine similarity between two vectors. Returns 0
// for mismatched or zero-norm inputs.
func Similarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
