package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ollama/ollama/api"
)

// Chat-template markers some instruct models leak into their output.
const (
	turnStartMarker = "<|im_start|>"
	turnEndMarker   = "<|im_end|>"
)

// OllamaClient is the primary generation tier: a locally hosted model served
// by Ollama.
type OllamaClient struct {
	client    *api.Client
	model     string
	useGPU    bool
	keepAlive time.Duration

	mu       sync.Mutex
	verified bool
}

func ProvideOllamaClient(client *api.Client, model string, useGPU bool, keepAlive time.Duration) *OllamaClient {
	return &OllamaClient{
		client:    client,
		model:     model,
		useGPU:    useGPU,
		keepAlive: keepAlive,
	}
}

func (c *OllamaClient) GetModel() string {
	return c.model
}

// ensureModel verifies once that the configured model is present. The check
// is single-flight: concurrent first calls serialize on the client mutex and
// later calls are free.
func (c *OllamaClient) ensureModel(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.verified {
		return nil
	}

	if _, err := c.client.Show(ctx, &api.ShowRequest{Model: c.model}); err != nil {
		return fmt.Errorf("model %s is not available: %w", c.model, err)
	}

	c.verified = true
	return nil
}

func (c *OllamaClient) GenerateInference(ctx context.Context, messages []Message, opts ...LLMOption) (*GenerationResult, error) {
	settings := ResolveSettings(opts...)

	if err := c.ensureModel(ctx); err != nil {
		return nil, err
	}

	chatMessages := make([]api.Message, 0, len(messages)+1)
	if settings.system != "" {
		chatMessages = append(chatMessages, api.Message{Role: "system", Content: settings.system})
	}
	for _, m := range messages {
		chatMessages = append(chatMessages, api.Message{Role: m.Role, Content: m.Content})
	}

	// Nucleus + top-k sampling with a repetition penalty to reduce loops.
	options := map[string]any{
		"temperature":    settings.temperature,
		"num_predict":    settings.maxTokens,
		"top_p":          0.95,
		"top_k":          50,
		"repeat_penalty": 1.1,
	}
	if !c.useGPU {
		options["num_gpu"] = 0
	}

	stream := false
	req := &api.ChatRequest{
		Model:     c.model,
		Messages:  chatMessages,
		Stream:    &stream,
		Options:   options,
		KeepAlive: &api.Duration{Duration: c.keepAlive},
	}

	var content strings.Builder
	var metrics api.Metrics

	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		if resp.Done {
			metrics = resp.Metrics
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("local generation failed: %w", err)
	}

	text := extractAssistantTurn(content.String())

	usage := TokenUsage{Input: metrics.PromptEvalCount, Output: metrics.EvalCount}
	if usage.Input == 0 && usage.Output == 0 {
		usage = TokenUsage{
			Input:  approxMessagesTokens(settings.system, messages),
			Output: ApproxTokens(text),
		}
	}

	return &GenerationResult{
		Text:     text,
		Usage:    usage,
		Model:    c.model,
		Attempts: 1,
	}, nil
}

// extractAssistantTurn isolates the assistant turn from chat-formatted model
// output and strips any leaked end-of-turn markers.
func extractAssistantTurn(output string) string {
	if idx := strings.LastIndex(output, turnStartMarker+"assistant"); idx >= 0 {
		output = output[idx+len(turnStartMarker+"assistant"):]
		if end := strings.Index(output, turnEndMarker); end >= 0 {
			output = output[:end]
		}
	}

	output = strings.ReplaceAll(output, turnEndMarker, "")
	output = strings.ReplaceAll(output, turnStartMarker, "")
	return strings.TrimSpace(output)
}

func approxMessagesTokens(system string, messages []Message) int {
	total := ApproxTokens(system)
	for _, m := range messages {
		total += ApproxTokens(m.Content)
	}
	return total
}
