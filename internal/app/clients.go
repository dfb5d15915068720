package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chadayu1004/smart-apartment-ai/internal/platform/gcp"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/openai"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/sendgrid"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/twilio"
	"github.com/chadayu1004/smart-apartment-ai/internal/realtime/bus"
)

// Clients holds the optional external integrations. A nil field means the
// integration is not configured and the feature degrades.
type Clients struct {
	Bus      bus.Bus
	AI       openai.Client
	Vision   gcp.Vision
	SendGrid sendgrid.Client
	Twilio   twilio.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	// Redis
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		b, err := bus.NewRedisBus(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis bus: %w", err)
		}
		c.Bus = b
	}

	// AI backend
	ai, err := openai.NewFromEnv(log)
	switch {
	case err == nil:
		c.AI = ai
	case errors.Is(err, openai.ErrNotConfigured):
		log.Warn("AI backend not configured, chat replies will use the fallback text")
	default:
		c.Close()
		return Clients{}, fmt.Errorf("init ai client: %w", err)
	}

	// Gcp
	if cfg.OCREnabled {
		v, err := gcp.NewVision(log)
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init vision client: %w", err)
		}
		c.Vision = v
	}

	// Delivery channels are optional; a misconfiguration only disables the channel.
	if sg, err := sendgrid.NewFromEnv(log); err == nil {
		c.SendGrid = sg
	} else {
		log.Info("SendGrid disabled", "reason", err)
	}
	if tw, err := twilio.NewFromEnv(log); err == nil {
		c.Twilio = tw
	} else {
		log.Info("Twilio disabled", "reason", err)
	}

	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
	if c.Vision != nil {
		_ = c.Vision.Close()
	}
}
