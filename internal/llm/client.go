// Package llm is the single gateway to hosted and local chat-completion
// APIs. Groq, OpenAI and Ollama all speak the OpenAI wire protocol, so one
// client configured with an explicit base URL and key serves all three.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/datafog/datafog-go/internal/logging"
)

// Backend names an OpenAI-compatible provider.
type Backend string

const (
	BackendGroq   Backend = "groq"
	BackendOpenAI Backend = "openai"
	BackendOllama Backend = "ollama"
)

const (
	groqBaseURL   = "https://api.groq.com/openai/v1/"
	openAIBaseURL = "https://api.openai.com/v1/"
	ollamaBaseURL = "http://localhost:11434/v1/"

	defaultTimeout = 60 * time.Second
)

// DefaultModel returns the model used when none is configured.
func DefaultModel(b Backend) string {
	switch b {
	case BackendGroq:
		return "mixtral-8x7b-32768"
	case BackendOpenAI:
		return "gpt-4"
	case BackendOllama:
		return "phi3"
	}
	return ""
}

// ParseBackend validates a backend name (case-insensitive).
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendGroq, BackendOpenAI, BackendOllama:
		return b, nil
	}
	return "", fmt.Errorf("%w: %q (supported: groq, openai, ollama)", ErrUnknownBackend, s)
}

// Config is everything a Client needs; nothing is read from the environment.
type Config struct {
	Backend Backend
	APIKey  string
	// BaseURL overrides the backend's default endpoint.
	BaseURL string
	Model   string
	Timeout time.Duration
	// RequestsPerSecond throttles calls client-side; 0 disables throttling.
	RequestsPerSecond float64
	MaxRetries        int
}

func (c Config) validate() error {
	if _, err := ParseBackend(string(c.Backend)); err != nil {
		return err
	}
	if c.Backend != BackendOllama && strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w for backend %s", ErrMissingAPIKey, c.Backend)
	}
	if strings.TrimSpace(c.Model) == "" {
		return ErrMissingModel
	}
	return nil
}

func (c Config) baseURL() string {
	u := c.BaseURL
	if u == "" {
		switch c.Backend {
		case BackendGroq:
			u = groqBaseURL
		case BackendOllama:
			u = ollamaBaseURL
		default:
			u = openAIBaseURL
		}
	}
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u
}

// Completer sends a conversation and returns the assistant's reply.
type Completer interface {
	Complete(ctx context.Context, msgs ...Message) (string, error)
}

// Client is safe for concurrent use.
type Client struct {
	api     openai.Client
	cfg     Config
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New validates cfg and builds a Client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	key := cfg.APIKey
	if key == "" {
		// Ollama ignores the key but the SDK always sends one.
		key = "ollama"
	}
	api := openai.NewClient(
		option.WithAPIKey(key),
		option.WithBaseURL(cfg.baseURL()),
		option.WithMaxRetries(cfg.MaxRetries),
	)
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Client{
		api:     api,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logging.OrNop(logger),
	}, nil
}

func (c *Client) Backend() Backend { return c.cfg.Backend }

func (c *Client) Model() string { return c.cfg.Model }

func (c *Client) Endpoint() string { return c.cfg.baseURL() }

// Complete sends msgs to the configured model at temperature 0 and returns
// the content of the first choice.
func (c *Client) Complete(ctx context.Context, msgs ...Message) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.cfg.Model),
		Messages:    toParams(msgs),
		Temperature: openai.Float(0),
	}
	start := time.Now()
	c.logger.Debug("llm request",
		zap.String("backend", string(c.cfg.Backend)),
		zap.String("model", c.cfg.Model),
		zap.Int("messages", len(msgs)))

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: status %d: %v", ErrRequestFailed, apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	choice := resp.Choices[0]
	if choice.FinishReason == "length" {
		c.logger.Warn("llm response truncated by token limit", zap.String("model", c.cfg.Model))
	}
	c.logger.Debug("llm response",
		zap.Duration("took", time.Since(start)),
		zap.Int("content_len", len(choice.Message.Content)))
	return choice.Message.Content, nil
}
