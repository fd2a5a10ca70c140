package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ErrNoCredentials is returned when the fallback tier has no API keys
// configured at all. The cascade must not retry against an empty set.
var ErrNoCredentials = errors.New("no fallback credentials configured")

// generateFunc performs one generation attempt against one credential.
// Injectable so tests can exercise rotation without network calls.
type generateFunc func(ctx context.Context, apiKey, model string, settings LLMSettings, prompt string) (string, TokenUsage, error)

// GeminiClient is the secondary generation tier: the hosted Gemini API with
// rotation across multiple credentials. The rotation cursor is owned by the
// client instance and deliberately sticky across requests: once a key is
// exhausted, subsequent callers start from the next one.
type GeminiClient struct {
	keys  []string
	model string
	call  generateFunc

	mu     sync.Mutex
	cursor int
}

func ProvideGeminiClient(apiKeys []string, model string) *GeminiClient {
	return &GeminiClient{
		keys:  apiKeys,
		model: model,
		call:  generateWithGemini,
	}
}

func (c *GeminiClient) GetModel() string {
	return c.model
}

// GenerateInference tries each configured credential at most once, rotating
// (with wrap-around) on failure, and fails only after all credentials have
// been tried.
func (c *GeminiClient) GenerateInference(ctx context.Context, messages []Message, opts ...LLMOption) (*GenerationResult, error) {
	if len(c.keys) == 0 {
		return nil, ErrNoCredentials
	}

	settings := ResolveSettings(opts...)
	prompt := buildConversationPrompt(messages)

	var lastErr error
	for attempt := 1; attempt <= len(c.keys); attempt++ {
		text, usage, err := c.call(ctx, c.currentKey(), c.model, settings, prompt)
		if err != nil {
			logger.Error("Fallback generation failed, rotating credential",
				zap.Int("attempt", attempt),
				zap.Error(err))
			c.rotate()
			lastErr = err
			continue
		}

		return &GenerationResult{
			Text:     text,
			Usage:    usage,
			Model:    c.model,
			Attempts: attempt,
		}, nil
	}

	return nil, fmt.Errorf("all %d fallback credentials exhausted: %w", len(c.keys), lastErr)
}

func (c *GeminiClient) currentKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keys[c.cursor]
}

func (c *GeminiClient) rotate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cursor = (c.cursor + 1) % len(c.keys)
}

func buildConversationPrompt(messages []Message) string {
	var sb strings.Builder
	for _, m := range messages {
		switch m.Role {
		case "assistant":
			sb.WriteString("Assistant: ")
		default:
			sb.WriteString("User: ")
		}
		sb.WriteString(m.Content)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Assistant:")
	return sb.String()
}

func generateWithGemini(ctx context.Context, apiKey, model string, settings LLMSettings, prompt string) (string, TokenUsage, error) {
	var usage TokenUsage

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", usage, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	m := client.GenerativeModel(model)
	m.SetMaxOutputTokens(int32(settings.maxTokens))
	m.SetTemperature(float32(settings.temperature))
	if settings.system != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(settings.system)}}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", usage, fmt.Errorf("generation request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", usage, errors.New("no candidates in response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	text := sb.String()
	if text == "" {
		return "", usage, errors.New("empty response content")
	}

	usage = TokenUsage{
		Input:  ApproxTokens(settings.system) + ApproxTokens(prompt),
		Output: ApproxTokens(text),
	}
	if resp.UsageMetadata != nil {
		usage.Input = int(resp.UsageMetadata.PromptTokenCount)
		usage.Output = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return text, usage, nil
}
