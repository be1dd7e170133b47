package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/config"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/models"
)

// Provider identifiers accepted in a Call.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Call describes one structured inference request against a named backend
// model. The schema is the contract the response is validated against.
type Call struct {
	Task        models.TaskKind
	Provider    string
	Model       string
	Temperature float32
	System      string
	Prompt      string
	MaxTokens   int
	Schema      models.Schema
}

// Client sends structured prompts to AI backends and returns schema-validated
// payloads or typed failures. It performs no retries; retry and timeout
// policy belong to the dispatcher.
type Client struct {
	openai    *openai.Client
	anthropic anthropic.Client
	cfg       config.InferenceConfig
	logger    *slog.Logger
	callLog   *Logger
}

// NewClient constructs a Client for the configured backends. callLog may be
// nil when call auditing is disabled.
func NewClient(cfg config.InferenceConfig, logger *slog.Logger, callLog *Logger) *Client {
	oaCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		oaCfg.BaseURL = cfg.OpenAIBaseURL
	}

	return &Client{
		openai:    openai.NewClientWithConfig(oaCfg),
		anthropic: anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey)),
		cfg:       cfg,
		logger:    logger,
		callLog:   callLog,
	}
}

// Invoke sends the call to its backend and parses the response against the
// call's schema. All failures are returned as *models.TaskFailure so the
// dispatcher can treat them uniformly.
func (c *Client) Invoke(ctx context.Context, call Call) (map[string]any, *models.TaskFailure) {
	if err := c.validateCall(call); err != nil {
		return nil, &models.TaskFailure{Kind: models.FailureBackendError, Message: err.Error()}
	}

	start := time.Now()

	var content string
	var tokens tokenUsage
	var err error

	switch call.Provider {
	case ProviderAnthropic:
		content, tokens, err = c.callAnthropic(ctx, call)
	default:
		content, tokens, err = c.callOpenAI(ctx, call)
	}

	latency := time.Since(start)

	if c.callLog != nil {
		c.callLog.LogCall(ctx, LogCallParams{
			Provider:     providerOrDefault(call.Provider),
			Model:        call.Model,
			Task:         string(call.Task),
			InputTokens:  tokens.input,
			OutputTokens: tokens.output,
			Latency:      latency,
			Err:          err,
		})
	}

	if err != nil {
		return nil, classifyError(ctx, err)
	}

	payload, perr := ParseStructured(content, call.Schema)
	if perr != nil {
		c.logger.Warn("response failed schema validation",
			"task", call.Task,
			"model", call.Model,
			"error", perr)
		return nil, &models.TaskFailure{Kind: models.FailureSchemaMismatch, Message: perr.Error()}
	}

	return payload, nil
}

func (c *Client) validateCall(call Call) error {
	if call.Model == "" {
		return fmt.Errorf("model identifier is required")
	}
	if call.Temperature < 0 || call.Temperature > 1 {
		return fmt.Errorf("temperature %v outside [0,1]", call.Temperature)
	}
	if c.cfg.MaxPromptChars > 0 && len(call.Prompt) > c.cfg.MaxPromptChars {
		return fmt.Errorf("prompt length %d exceeds limit %d", len(call.Prompt), c.cfg.MaxPromptChars)
	}
	return nil
}

type tokenUsage struct {
	input  int
	output int
}

func (c *Client) callOpenAI(ctx context.Context, call Call) (string, tokenUsage, error) {
	req := openai.ChatCompletionRequest{
		Model:       call.Model,
		Temperature: call.Temperature,
		MaxTokens:   c.maxTokens(call),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: call.System},
			{Role: openai.ChatMessageRoleUser, Content: call.Prompt},
		},
	}

	resp, err := c.openai.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", tokenUsage{}, err
	}

	if len(resp.Choices) == 0 {
		return "", tokenUsage{}, fmt.Errorf("no completion choices returned from model %s", call.Model)
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", tokenUsage{}, fmt.Errorf("empty response from model %s (finish_reason: %s)", call.Model, resp.Choices[0].FinishReason)
	}

	usage := tokenUsage{input: resp.Usage.PromptTokens, output: resp.Usage.CompletionTokens}
	return content, usage, nil
}

func (c *Client) callAnthropic(ctx context.Context, call Call) (string, tokenUsage, error) {
	req := anthropic.MessageNewParams{
		Model:       anthropic.Model(call.Model),
		MaxTokens:   int64(c.maxTokens(call)),
		Temperature: anthropic.Float(float64(call.Temperature)),
		System: []anthropic.TextBlockParam{
			{Text: call.System},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(call.Prompt)),
		},
	}

	resp, err := c.anthropic.Messages.New(ctx, req)
	if err != nil {
		return "", tokenUsage{}, err
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content = block.Text
			break
		}
	}
	if content == "" {
		return "", tokenUsage{}, fmt.Errorf("no text content in response from model %s", call.Model)
	}

	usage := tokenUsage{input: int(resp.Usage.InputTokens), output: int(resp.Usage.OutputTokens)}
	return content, usage, nil
}

func (c *Client) maxTokens(call Call) int {
	if call.MaxTokens > 0 {
		return call.MaxTokens
	}
	return c.cfg.MaxOutputTokens
}

func classifyError(ctx context.Context, err error) *models.TaskFailure {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &models.TaskFailure{Kind: models.FailureTimeout, Message: err.Error()}
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return &models.TaskFailure{Kind: models.FailureTimeout, Message: "analysis canceled: " + err.Error()}
	}
	return &models.TaskFailure{Kind: models.FailureBackendError, Message: err.Error()}
}

func providerOrDefault(provider string) string {
	if provider == "" {
		return ProviderOpenAI
	}
	return provider
}
