package services

import (
	"context"
	"strings"
	"time"

	"github.com/chadayu1004/smart-apartment-ai/internal/observability"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/openai"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/promptstyle"
)

// AIResponder answers tenant messages with one model call. It never fails:
// backend problems come back as the prompt's fallback text.
type AIResponder struct {
	log    *logger.Logger
	client openai.Client
	prompt promptstyle.Assistant
}

// NewAIResponder accepts a nil client; every reply is then the unavailable fallback.
func NewAIResponder(log *logger.Logger, client openai.Client, prompt promptstyle.Assistant) *AIResponder {
	return &AIResponder{
		log:    log.With("service", "AIResponder"),
		client: client,
		prompt: prompt,
	}
}

func (r *AIResponder) Reply(ctx context.Context, utterance string) string {
	if r.client == nil {
		return r.prompt.Fallbacks.Unavailable
	}
	start := time.Now()
	out, err := r.client.Chat(ctx, r.prompt.System, utterance)
	if err != nil {
		observability.Current().ObserveAIReply("unavailable", time.Since(start))
		r.log.Warn("AI backend call failed", "error", err)
		return r.prompt.Fallbacks.Unavailable
	}
	out = strings.TrimSpace(out)
	if out == "" {
		observability.Current().ObserveAIReply("empty", time.Since(start))
		return r.prompt.Fallbacks.Empty
	}
	observability.Current().ObserveAIReply("ok", time.Since(start))
	return out
}
