package services

import (
	"context"
	"errors"
	"iter"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"

	"studybuddy-backend/llm"
	"studybuddy-backend/prompts"
)

// ErrServiceUnavailable is returned when every generation tier has failed or
// none is configured. All intermediate degradations stay invisible to the
// caller; this is the only user-visible failure.
var ErrServiceUnavailable = errors.New("ai service unavailable")

// streamGroupSize is the number of words per streamed fragment.
const streamGroupSize = 5

// ContextProvider supplies retrieved study-material context for a query.
// Satisfied by *rag.Retriever.
type ContextProvider interface {
	GetContext(ctx context.Context, query string) (string, error)
}

// AnswerRequest is one question to answer. SessionID is a prior-context
// identifier carried for the caller's bookkeeping, the core does not use it.
type AnswerRequest struct {
	Question    string
	SessionID   string
	MaxTokens   int
	Temperature float64
}

// Answer is the generated response. Model discloses which tier answered.
type Answer struct {
	Text  string         `json:"text"`
	Usage llm.TokenUsage `json:"tokenUsage"`
	Model string         `json:"model"`
}

// ChatService runs the tiered generation cascade: best-effort context
// retrieval, the local primary model, then the hosted fallback.
type ChatService struct {
	retriever   ContextProvider
	primary     llm.LLMClient
	fallback    llm.LLMClient
	maxTokens   int
	temperature float64
}

func ProvideChatService(retriever ContextProvider, primary, fallback llm.LLMClient, maxTokens int, temperature float64) *ChatService {
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	if temperature <= 0 {
		temperature = 0.7
	}
	return &ChatService{
		retriever:   retriever,
		primary:     primary,
		fallback:    fallback,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Answer runs the cascade for one question. Retrieval failures degrade to an
// empty context; primary failures fall through to the fallback; the request
// fails only when both tiers are exhausted or unconfigured.
func (s *ChatService) Answer(ctx context.Context, req AnswerRequest) (*Answer, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.maxTokens
	}
	temperature := req.Temperature
	if temperature <= 0 {
		temperature = s.temperature
	}

	retrievedContext := ""
	if s.retriever != nil {
		c, err := s.retriever.GetContext(ctx, req.Question)
		if err != nil {
			logger.Error("Context retrieval failed, continuing without context", zap.Error(err))
		} else {
			retrievedContext = c
			if c != "" {
				logger.Info("Retrieved context for query", zap.Int("characters", len(c)))
			}
		}
	}

	systemPrompt, err := prompts.RenderStudyBuddySystemPrompt(retrievedContext)
	if err != nil {
		return nil, err
	}

	messages := []llm.Message{{Role: "user", Content: req.Question}}
	opts := []llm.LLMOption{
		llm.WithMaxTokens(maxTokens),
		llm.WithTemperature(temperature),
		llm.WithSystemPrompt(systemPrompt),
	}

	if s.primary != nil {
		result, err := s.primary.GenerateInference(ctx, messages, opts...)
		if err == nil {
			logger.Info("Response generated by primary model", zap.String("model", result.Model))
			return &Answer{Text: result.Text, Usage: result.Usage, Model: result.Model}, nil
		}
		logger.Error("Primary generation failed, trying fallback", zap.Error(err))
	}

	if s.fallback == nil {
		return nil, ErrServiceUnavailable
	}

	result, err := s.fallback.GenerateInference(ctx, messages, opts...)
	if err != nil {
		logger.Error("Fallback generation failed", zap.Error(err))
		return nil, errors.Join(ErrServiceUnavailable, err)
	}

	logger.Info("Response generated by fallback model",
		zap.String("model", result.Model),
		zap.Int("attempts", result.Attempts))
	return &Answer{Text: result.Text, Usage: result.Usage, Model: result.Model}, nil
}

// StreamAnswer runs the full cascade and returns the answer alongside a lazy
// sequence replaying the text in fixed word groups. This is a chunked replay
// of the final text, not token-level incremental decoding.
func (s *ChatService) StreamAnswer(ctx context.Context, req AnswerRequest) (*Answer, iter.Seq[string], error) {
	answer, err := s.Answer(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	return answer, streamWordGroups(answer.Text, streamGroupSize), nil
}

func streamWordGroups(text string, groupSize int) iter.Seq[string] {
	words := strings.Fields(text)
	return func(yield func(string) bool) {
		for i := 0; i < len(words); i += groupSize {
			end := min(i+groupSize, len(words))
			if !yield(strings.Join(words[i:end], " ") + " ") {
				return
			}
		}
	}
}
