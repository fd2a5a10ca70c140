package llm

import (
	"context"
	"strings"
)

// Message is one turn of a chat-formatted prompt.
type Message struct {
	Role    string `json:"role"`    // "user", "assistant", "system"
	Content string `json:"content"` // the message content
}

// TokenUsage is an approximate per-request token accounting.
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// GenerationResult is the outcome of one generation call. Attempts counts
// how many provider invocations it took; 1 unless credentials rotated.
type GenerationResult struct {
	Text     string     `json:"text"`
	Usage    TokenUsage `json:"tokenUsage"`
	Model    string     `json:"model"`
	Attempts int        `json:"-"`
}

// LLMClient is the uniform generation interface both cascade tiers implement.
type LLMClient interface {
	GenerateInference(ctx context.Context, messages []Message, opts ...LLMOption) (*GenerationResult, error)

	GetModel() string
}

type LLMSettings struct {
	temperature float64 // randomness (0.0 to 1.0)
	maxTokens   int     // maximum tokens to generate
	system      string  // system prompt
}

type LLMOption func(*LLMSettings)

// Common options for all LLM providers
func WithTemperature(temp float64) LLMOption {
	return func(s *LLMSettings) { s.temperature = temp }
}

func WithMaxTokens(tokens int) LLMOption {
	return func(s *LLMSettings) { s.maxTokens = tokens }
}

func WithSystemPrompt(prompt string) LLMOption {
	return func(s *LLMSettings) { s.system = prompt }
}

func defaultSettings() LLMSettings {
	return LLMSettings{
		temperature: 0.7,
		maxTokens:   1000,
	}
}

// ResolveSettings applies opts over the defaults. LLMClient implementations
// outside this package use it to read their effective settings.
func ResolveSettings(opts ...LLMOption) LLMSettings {
	settings := defaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}
	return settings
}

func (s LLMSettings) Temperature() float64 { return s.temperature }
func (s LLMSettings) MaxTokens() int       { return s.maxTokens }
func (s LLMSettings) SystemPrompt() string { return s.system }

// ApproxTokens estimates a token count as word count x 1.3, used when the
// provider does not report exact numbers.
func ApproxTokens(text string) int {
	return int(float64(len(strings.Fields(text))) * 1.3)
}
