package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/SaiNageswarS/go-api-boot/config"
	"github.com/SaiNageswarS/go-api-boot/dotenv"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"studybuddy-backend/appconfig"
	"studybuddy-backend/embedding"
	"studybuddy-backend/index"
	"studybuddy-backend/ingestion"
)

func main() {
	dotenv.LoadEnv()

	cfg := &appconfig.AppConfig{}
	if err := config.LoadConfig("config.ini", cfg); err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ollamaClient, err := api.ClientFromEnvironment()
	if err != nil {
		logger.Fatal("Failed to create Ollama client", zap.Error(err))
	}

	ctx := getCancellableContext()

	embedder := embedding.ProvideOllamaEmbedder(ollamaClient, cfg.EmbeddingModel, cfg.KeepAlive())
	vectorIndex := index.ProvideVectorIndex(cfg.IndexDir, embedder)
	defer vectorIndex.Close()

	processor := ingestion.ProvideProcessor(cfg.ChunkSize, cfg.ChunkOverlap, cfg.TrainingDataDir)

	summary, err := processor.ProcessDirectory(ctx, cfg.StudyDocsDir)
	if err != nil {
		logger.Fatal("Ingestion batch failed", zap.Error(err))
	}

	indexed, err := processor.LoadChunks(ctx, vectorIndex)
	if err != nil {
		logger.Fatal("Failed to load chunks into vector index", zap.Error(err))
	}

	stats, err := vectorIndex.Stats()
	if err != nil {
		logger.Fatal("Failed to read index stats", zap.Error(err))
	}

	logger.Info("Ingestion finished",
		zap.String("runId", summary.RunID),
		zap.Int("filesProcessed", summary.FilesTotal),
		zap.Int("filesFailed", summary.FilesFailed),
		zap.Int("chunksIndexed", indexed),
		zap.Int("documentsInIndex", stats.DocumentCount))
}

func getCancellableContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		cancel()
	}()

	return ctx
}
