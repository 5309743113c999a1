package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/datafog/datafog-go/internal/files"
	"github.com/datafog/datafog-go/internal/llm"
)

const (
	DefaultBackend        = llm.BackendGroq
	DefaultTimeout        = 60 * time.Second
	DefaultConcurrency    = 4
	DefaultEntityEndpoint = "http://localhost:11434/v1/"
	DefaultEntityModel    = "phi3"
)

// Settings is the fully resolved configuration.
type Settings struct {
	Backend           llm.Backend
	APIKey            string
	Endpoint          string
	Model             string
	VisionModel       string
	EntityEndpoint    string
	EntityModel       string
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxRetries        int
	Cache             bool
	Audit             bool
	Concurrency       int
	Include           string
	Exclude           string
	MaxBytes          int64
	DefaultExcludes   bool
	NoColor           bool
	SentryDSN         string
	EntityTypes       map[string]string

	env Env
}

// Resolve merges configuration sources. For each field the environment wins
// over the local file, which wins over the global file, which wins over the
// built-in default. CLI flags are applied afterwards by the caller.
func Resolve(local, global FileConfig, env Env) (Settings, error) {
	s := Settings{
		Endpoint:          firstNonEmpty(env.Endpoint, str(local.Endpoint), str(global.Endpoint)),
		Model:             firstNonEmpty(env.Model, str(local.Model), str(global.Model)),
		VisionModel:       firstNonEmpty(str(local.VisionModel), str(global.VisionModel)),
		EntityEndpoint:    firstNonEmpty(env.EntityEndpoint, str(local.EntityEndpoint), str(global.EntityEndpoint), DefaultEntityEndpoint),
		EntityModel:       firstNonEmpty(env.EntityModel, str(local.EntityModel), str(global.EntityModel), DefaultEntityModel),
		RequestsPerSecond: pick(local.RequestsPerSecond, global.RequestsPerSecond, 0),
		MaxRetries:        pick(local.MaxRetries, global.MaxRetries, 2),
		Cache:             pick(local.Cache, global.Cache, true),
		Audit:             pick(local.Audit, global.Audit, true),
		Concurrency:       pick(local.Concurrency, global.Concurrency, DefaultConcurrency),
		Include:           firstNonEmpty(str(local.Include), str(global.Include)),
		Exclude:           firstNonEmpty(str(local.Exclude), str(global.Exclude)),
		MaxBytes:          pick(local.MaxBytes, global.MaxBytes, files.DefaultMaxBytes),
		DefaultExcludes:   pick(local.DefaultExcludes, global.DefaultExcludes, true),
		NoColor:           pick(local.NoColor, global.NoColor, false),
		SentryDSN:         firstNonEmpty(env.SentryDSN, str(local.SentryDSN), str(global.SentryDSN)),
		EntityTypes:       mergeMaps(global.EntityTypes, local.EntityTypes),
		env:               env,
	}

	backend := firstNonEmpty(env.Backend, str(local.Backend), str(global.Backend), string(DefaultBackend))
	if err := s.SetBackend(backend); err != nil {
		return Settings{}, err
	}

	s.Timeout = DefaultTimeout
	if t := firstNonEmpty(str(local.Timeout), str(global.Timeout)); t != "" {
		if err := s.SetTimeout(t); err != nil {
			return Settings{}, err
		}
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// SetBackend switches backend and picks the matching API key from the
// environment.
func (s *Settings) SetBackend(name string) error {
	b, err := llm.ParseBackend(name)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	s.Backend = b
	switch b {
	case llm.BackendGroq:
		s.APIKey = s.env.GroqAPIKey
	case llm.BackendOpenAI:
		s.APIKey = s.env.OpenAIAPIKey
	default:
		s.APIKey = ""
	}
	return nil
}

// SetTimeout parses a Go duration such as "30s".
func (s *Settings) SetTimeout(v string) error {
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil || d <= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidTimeout, v)
	}
	s.Timeout = d
	return nil
}

// Validate checks numeric ranges. It does not require an API key; see
// RequireLLM.
func (s Settings) Validate() error {
	switch {
	case s.RequestsPerSecond < 0:
		return fmt.Errorf("%w: requests_per_second must be >= 0", ErrInvalidValue)
	case s.MaxRetries < 0:
		return fmt.Errorf("%w: max_retries must be >= 0", ErrInvalidValue)
	case s.Concurrency < 1:
		return fmt.Errorf("%w: concurrency must be >= 1", ErrInvalidValue)
	case s.MaxBytes < 1:
		return fmt.Errorf("%w: max_bytes must be >= 1", ErrInvalidValue)
	}
	return nil
}

// RequireLLM reports a missing API key for backends that need one.
func (s Settings) RequireLLM() error {
	if s.Backend != llm.BackendOllama && strings.TrimSpace(s.APIKey) == "" {
		return fmt.Errorf("%w: set %s", ErrMissingAPIKey, keyVar(s.Backend))
	}
	return nil
}

// LLMConfig is the configuration for text extraction and classification.
func (s Settings) LLMConfig() llm.Config {
	model := s.Model
	if model == "" {
		model = llm.DefaultModel(s.Backend)
	}
	return llm.Config{
		Backend:           s.Backend,
		APIKey:            s.APIKey,
		BaseURL:           s.Endpoint,
		Model:             model,
		Timeout:           s.Timeout,
		RequestsPerSecond: s.RequestsPerSecond,
		MaxRetries:        s.MaxRetries,
	}
}

// VisionConfig is LLMConfig with the vision model substituted.
func (s Settings) VisionConfig() llm.Config {
	cfg := s.LLMConfig()
	cfg.Model = s.VisionModel
	if cfg.Model == "" {
		cfg.Model = defaultVisionModel(s.Backend)
	}
	return cfg
}

// EntityConfig targets the local Ollama server used for entity detection.
func (s Settings) EntityConfig() llm.Config {
	return llm.Config{
		Backend:           llm.BackendOllama,
		BaseURL:           s.EntityEndpoint,
		Model:             s.EntityModel,
		Timeout:           s.Timeout,
		RequestsPerSecond: s.RequestsPerSecond,
		MaxRetries:        s.MaxRetries,
	}
}

func defaultVisionModel(b llm.Backend) string {
	switch b {
	case llm.BackendGroq:
		return "llama-3.2-90b-vision-preview"
	case llm.BackendOllama:
		return "llava"
	}
	return "gpt-4o"
}

func keyVar(b llm.Backend) string {
	if b == llm.BackendOpenAI {
		return "OPENAI_API_KEY"
	}
	return "GROQ_API_KEY"
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func pick[T any](local, global *T, def T) T {
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return def
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// mergeMaps returns the union of ms; later maps win.
func mergeMaps(ms ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, m := range ms {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
