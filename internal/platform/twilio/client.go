package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chadayu1004/smart-apartment-ai/internal/platform/ctxutil"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/envutil"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/httpx"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

type Client interface {
	SendSMS(ctx context.Context, to string, body string) (*Message, error)
}

type Config struct {
	AccountSID  string
	AuthToken   string
	BaseURL     string
	DefaultFrom string
	// CountryCode replaces a leading 0 in local numbers, e.g. "+66".
	CountryCode string
	Timeout     time.Duration
	MaxRetries  int
}

func ConfigFromEnv() Config {
	return Config{
		AccountSID:  envutil.String("TWILIO_ACCOUNT_SID", ""),
		AuthToken:   envutil.String("TWILIO_AUTH_TOKEN", ""),
		BaseURL:     envutil.String("TWILIO_BASE_URL", ""),
		DefaultFrom: envutil.String("TWILIO_FROM_NUMBER", ""),
		CountryCode: envutil.String("TWILIO_COUNTRY_CODE", "+66"),
		Timeout:     envutil.Seconds("TWILIO_TIMEOUT_SECONDS", 30*time.Second),
		MaxRetries:  envutil.Int("TWILIO_MAX_RETRIES", 3),
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg.AccountSID = strings.TrimSpace(cfg.AccountSID)
	if cfg.AccountSID == "" {
		return nil, fmt.Errorf("missing TWILIO_ACCOUNT_SID")
	}
	if strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, fmt.Errorf("missing TWILIO_AUTH_TOKEN")
	}
	if strings.TrimSpace(cfg.DefaultFrom) == "" {
		return nil, fmt.Errorf("missing TWILIO_FROM_NUMBER")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.twilio.com/2010-04-01"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &client{
		log:        log.With("client", "TwilioClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type Message struct {
	SID    string `json:"sid,omitempty"`
	To     string `json:"to,omitempty"`
	Status string `json:"status,omitempty"`
}

// NormalizePhone turns a local number ("0812345678") into E.164 using countryCode.
func NormalizePhone(phone, countryCode string) string {
	p := strings.TrimSpace(phone)
	p = strings.NewReplacer(" ", "", "-", "").Replace(p)
	if strings.HasPrefix(p, "0") && countryCode != "" {
		return countryCode + p[1:]
	}
	return p
}

func (c *client) SendSMS(ctx context.Context, to string, body string) (*Message, error) {
	to = NormalizePhone(to, c.cfg.CountryCode)
	body = strings.TrimSpace(body)
	if to == "" {
		return nil, fmt.Errorf("twilio: To required")
	}
	if body == "" {
		return nil, fmt.Errorf("twilio: Body required")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.cfg.DefaultFrom)
	form.Set("Body", body)

	var out Message
	_, err := httpx.Retry(ctxutil.Default(ctx), c.log, "twilio.messages", c.cfg.MaxRetries, time.Second, func(ctx context.Context) (*http.Response, error) {
		return c.doOnce(ctx, form, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type HTTPError struct {
	StatusCode int
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("twilio http %d (code %d): %s", e.StatusCode, e.Code, e.Message)
}

func (e *HTTPError) HTTPStatusCode() int { return e.StatusCode }

func (c *client) doOnce(ctx context.Context, form url.Values, out *Message) (*http.Response, error) {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.cfg.BaseURL, url.PathEscape(c.cfg.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		he := &HTTPError{}
		_ = json.Unmarshal(raw, he)
		he.StatusCode = resp.StatusCode
		if he.Message == "" {
			he.Message = strings.TrimSpace(string(raw))
		}
		return resp, he
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp, fmt.Errorf("twilio: decode response: %w", err)
	}
	return resp, nil
}
