package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/SaiNageswarS/go-api-boot/config"
	"github.com/SaiNageswarS/go-api-boot/dotenv"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"studybuddy-backend/appconfig"
	"studybuddy-backend/embedding"
	"studybuddy-backend/index"
	"studybuddy-backend/llm"
	"studybuddy-backend/rag"
	"studybuddy-backend/services"
)

func main() {
	question := flag.String("q", "", "question to ask")
	stream := flag.Bool("stream", false, "print the answer as streamed word groups")
	timeout := flag.Duration("timeout", 2*time.Minute, "generation deadline")
	flag.Parse()

	if *question == "" {
		fmt.Fprintln(os.Stderr, "usage: chat -q \"your question\" [-stream] [-timeout 2m]")
		os.Exit(2)
	}

	dotenv.LoadEnv()

	cfg := &appconfig.AppConfig{}
	if err := config.LoadConfig("config.ini", cfg); err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ollamaClient, err := api.ClientFromEnvironment()
	if err != nil {
		logger.Fatal("Failed to create Ollama client", zap.Error(err))
	}

	embedder := embedding.ProvideOllamaEmbedder(ollamaClient, cfg.EmbeddingModel, cfg.KeepAlive())
	vectorIndex := index.ProvideVectorIndex(cfg.IndexDir, embedder)
	defer vectorIndex.Close()

	retriever := rag.ProvideRetriever(vectorIndex, cfg.ContextResults, cfg.ContextMaxChars)
	primary := llm.ProvideOllamaClient(ollamaClient, cfg.GenerationModel, cfg.UseGPU, cfg.KeepAlive())

	var fallback llm.LLMClient
	if keys := cfg.GeminiKeys(); len(keys) > 0 {
		fallback = llm.ProvideGeminiClient(keys, cfg.GeminiModel)
	} else {
		logger.Info("No Gemini API keys configured, fallback tier disabled")
	}

	chatService := services.ProvideChatService(retriever, primary, fallback, cfg.MaxTokens, cfg.Temperature)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	req := services.AnswerRequest{Question: *question}

	if *stream {
		answer, fragments, err := chatService.StreamAnswer(ctx, req)
		if err != nil {
			logger.Fatal("Failed to answer question", zap.Error(err))
		}
		for fragment := range fragments {
			fmt.Print(fragment)
		}
		fmt.Println()
		logUsage(answer)
		return
	}

	answer, err := chatService.Answer(ctx, req)
	if err != nil {
		logger.Fatal("Failed to answer question", zap.Error(err))
	}

	fmt.Println(answer.Text)
	logUsage(answer)
}

func logUsage(answer *services.Answer) {
	logger.Info("Answer generated",
		zap.String("model", answer.Model),
		zap.Int("inputTokens", answer.Usage.Input),
		zap.Int("outputTokens", answer.Usage.Output))
}
