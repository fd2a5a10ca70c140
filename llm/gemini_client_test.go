package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyBackend fails for every key in failing and succeeds otherwise,
// recording the order keys were tried.
type flakyBackend struct {
	failing map[string]bool
	tried   []string
}

func (f *flakyBackend) generate(_ context.Context, apiKey, _ string, _ LLMSettings, _ string) (string, TokenUsage, error) {
	f.tried = append(f.tried, apiKey)
	if f.failing[apiKey] {
		return "", TokenUsage{}, errors.New("quota exceeded")
	}
	return "fallback answer", TokenUsage{Input: 10, Output: 5}, nil
}

func newTestGeminiClient(keys []string, backend *flakyBackend) *GeminiClient {
	return &GeminiClient{keys: keys, model: "gemini-2.0-flash", call: backend.generate}
}

func TestGenerateInference_NoCredentials(t *testing.T) {
	backend := &flakyBackend{}
	c := newTestGeminiClient(nil, backend)

	_, err := c.GenerateInference(context.Background(), []Message{{Role: "user", Content: "hi"}})
	assert.ErrorIs(t, err, ErrNoCredentials)
	assert.Empty(t, backend.tried)
}

func TestGenerateInference_FirstKeySucceeds(t *testing.T) {
	backend := &flakyBackend{}
	c := newTestGeminiClient([]string{"key-a", "key-b"}, backend)

	result, err := c.GenerateInference(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)

	assert.Equal(t, "fallback answer", result.Text)
	assert.Equal(t, "gemini-2.0-flash", result.Model)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, []string{"key-a"}, backend.tried)
}

func TestGenerateInference_RotatesOnFailure(t *testing.T) {
	backend := &flakyBackend{failing: map[string]bool{"key-a": true, "key-b": true}}
	c := newTestGeminiClient([]string{"key-a", "key-b", "key-c"}, backend)

	result, err := c.GenerateInference(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, []string{"key-a", "key-b", "key-c"}, backend.tried)
}

func TestGenerateInference_AllKeysExhausted(t *testing.T) {
	wantErr := errors.New("quota exceeded")
	backend := &flakyBackend{failing: map[string]bool{"key-a": true, "key-b": true}}
	c := newTestGeminiClient([]string{"key-a", "key-b"}, backend)

	_, err := c.GenerateInference(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 fallback credentials exhausted")
	assert.Equal(t, wantErr.Error(), errors.Unwrap(err).Error())
	assert.Len(t, backend.tried, 2)
}

func TestGenerateInference_CursorStickyAcrossRequests(t *testing.T) {
	backend := &flakyBackend{failing: map[string]bool{"key-a": true}}
	c := newTestGeminiClient([]string{"key-a", "key-b"}, backend)

	// First request burns key-a and lands on key-b.
	result, err := c.GenerateInference(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempts)

	// Second request starts from key-b directly.
	result, err = c.GenerateInference(context.Background(), []Message{{Role: "user", Content: "hi again"}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, []string{"key-a", "key-b", "key-b"}, backend.tried)
}

func TestBuildConversationPrompt(t *testing.T) {
	prompt := buildConversationPrompt([]Message{
		{Role: "user", Content: "What is osmosis?"},
		{Role: "assistant", Content: "Movement of water."},
		{Role: "user", Content: "Across what?"},
	})

	want := "User: What is osmosis?\n\n" +
		"Assistant: Movement of water.\n\n" +
		"User: Across what?\n\n" +
		"Assistant:"
	assert.Equal(t, want, prompt)
}
