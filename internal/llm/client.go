// Package llm provides the chat-completion client used to voice a twin.
//
// The client talks to any OpenAI-compatible endpoint (Groq by default)
// through langchaingo. A nil *Client is valid and reports Enabled() == false,
// so callers can treat "no API key" and "provider configured" uniformly.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Defaults match the hosted Groq endpoint.
const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama-3.1-8b-instant"
	DefaultTimeout     = 10 * time.Second
	DefaultMaxTokens   = 150
	DefaultTemperature = 0.7
)

var requestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "echome_llm_request_duration_seconds",
		Help:    "Duration of chat-completion requests in seconds.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(requestDuration)
}

// Config holds provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	// MaxRetries is the number of extra attempts after a retryable failure.
	MaxRetries int
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(c.Model) == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature < 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.MaxRetries > 1 {
		c.MaxRetries = 1
	}
	return c
}

// Turn is one prior exchange passed as conversation context.
type Turn struct {
	User      string
	Assistant string
}

// UpstreamError reports a failed or unusable provider response.
type UpstreamError struct {
	Op     string
	Status int // HTTP status when known, else 0
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("llm %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("llm %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt may succeed.
func (e *UpstreamError) Retryable() bool {
	if errors.Is(e.Err, context.Canceled) {
		return false
	}
	return e.Status == 0 || e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// ErrEmptyCompletion is wrapped when the provider returns no text.
var ErrEmptyCompletion = errors.New("empty completion")

// Client sends chat-completion requests.
type Client struct {
	model llms.Model
	cfg   Config
}

// New builds a client for cfg. It returns (nil, nil) when no API key is set,
// which disables the provider.
func New(cfg Config, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, nil
	}
	cfg = cfg.withDefaults()
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	m, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("creating completion client: %w", err)
	}
	return &Client{model: m, cfg: cfg}, nil
}

// Enabled reports whether the client can make requests.
func (c *Client) Enabled() bool {
	return c != nil && c.model != nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.cfg.Model
}

// Complete sends system, the prior turns and user as one chat request and
// returns the trimmed reply. Failures are *UpstreamError.
func (c *Client) Complete(ctx context.Context, system string, history []Turn, user string) (string, error) {
	if !c.Enabled() {
		return "", &UpstreamError{Op: "complete", Err: errors.New("client not configured")}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	msgs := make([]llms.MessageContent, 0, 2+2*len(history))
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, system))
	for _, t := range history {
		msgs = append(msgs,
			llms.TextParts(llms.ChatMessageTypeHuman, t.User),
			llms.TextParts(llms.ChatMessageTypeAI, t.Assistant),
		)
	}
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, user))

	var lastErr *UpstreamError
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		start := time.Now()
		text, err := c.once(ctx, msgs)
		if err == nil {
			requestDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
			return text, nil
		}
		requestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		lastErr = err
		if !err.Retryable() || ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

func (c *Client) once(ctx context.Context, msgs []llms.MessageContent) (string, *UpstreamError) {
	resp, err := c.model.GenerateContent(ctx, msgs,
		llms.WithMaxTokens(c.cfg.MaxTokens),
		llms.WithTemperature(c.cfg.Temperature),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", &UpstreamError{Op: "complete", Err: ctxErr}
		}
		return "", &UpstreamError{Op: "complete", Status: statusFrom(err), Err: err}
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", &UpstreamError{Op: "complete", Err: ErrEmptyCompletion}
	}
	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", &UpstreamError{Op: "complete", Err: ErrEmptyCompletion}
	}
	return text, nil
}

var statusRE = regexp.MustCompile(`status code:? (\d{3})`)

// statusFrom extracts the HTTP status from a provider error message.
func statusFrom(err error) int {
	m := statusRE.FindStringSubmatch(err.Error())
	if len(m) != 2 {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
