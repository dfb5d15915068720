package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/chadayu1004/smart-apartment-ai/internal/platform/envutil"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

// ErrNotConfigured is returned when no backend URL or key is set.
var ErrNotConfigured = errors.New("openai: backend not configured")

// Client talks to any OpenAI-compatible chat completion endpoint
// (OpenAI itself, or a local Ollama server under /v1).
type Client interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL: envutil.String("AI_PROVIDER_URL", ""),
		APIKey:  envutil.String("AI_API_KEY", ""),
		Model:   envutil.String("AI_MODEL", "llama3.1"),
		Timeout: envutil.Seconds("AI_TIMEOUT_SECONDS", 60*time.Second),
	}
}

type client struct {
	log     *logger.Logger
	api     *goopenai.Client
	model   string
	timeout time.Duration
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" && strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	oc := goopenai.DefaultConfig(cfg.APIKey)
	if base := normalizeBaseURL(cfg.BaseURL); base != "" {
		oc.BaseURL = base
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &client{
		log:     log.With("client", "OpenAIClient"),
		api:     goopenai.NewClientWithConfig(oc),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}, nil
}

func (c *client) Chat(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msgs := make([]goopenai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(system) != "" {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: system})
	}
	msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: user})

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:    c.model,
		Messages: msgs,
	})
	if err != nil {
		c.log.Warn("Chat completion failed", "model", c.model, "error", err, "elapsed", time.Since(start))
		return "", fmt.Errorf("chat completion: %w", err)
	}
	c.log.Debug("Chat completion finished", "model", c.model, "elapsed", time.Since(start))
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// normalizeBaseURL accepts either a base (".../v1") or a full
// ".../chat/completions" URL and returns the base the SDK expects.
func normalizeBaseURL(u string) string {
	u = strings.TrimRight(strings.TrimSpace(u), "/")
	u = strings.TrimSuffix(u, "/chat/completions")
	if strings.HasSuffix(u, "/api/chat") {
		// Ollama's native endpoint; its OpenAI-compatible surface lives under /v1.
		u = strings.TrimSuffix(u, "/api/chat") + "/v1"
	}
	return u
}
