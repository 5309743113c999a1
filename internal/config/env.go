package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// Env holds the environment variables datafog reads.
type Env struct {
	GroqAPIKey     string
	OpenAIAPIKey   string
	Backend        string
	Endpoint       string
	Model          string
	EntityEndpoint string
	EntityModel    string
	SentryDSN      string
}

var envKeys = []string{
	"GROQ_API_KEY",
	"OPENAI_API_KEY",
	"DATAFOG_LLM_BACKEND",
	"DATAFOG_LLM_ENDPOINT",
	"DATAFOG_LLM_MODEL",
	"DATAFOG_ENTITY_ENDPOINT",
	"DATAFOG_ENTITY_MODEL",
	"SENTRY_DSN",
}

// LoadEnv reads the given .env files (missing ones are skipped) and overlays
// the process environment, which wins. The process environment is not
// modified.
func LoadEnv(paths ...string) (Env, error) {
	vals := map[string]string{}
	for _, p := range paths {
		m, err := godotenv.Read(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return Env{}, err
		}
		for k, v := range m {
			if _, seen := vals[k]; !seen {
				vals[k] = v
			}
		}
	}
	for _, k := range envKeys {
		if v, ok := os.LookupEnv(k); ok && v != "" {
			vals[k] = v
		}
	}
	return Env{
		GroqAPIKey:     vals["GROQ_API_KEY"],
		OpenAIAPIKey:   vals["OPENAI_API_KEY"],
		Backend:        vals["DATAFOG_LLM_BACKEND"],
		Endpoint:       vals["DATAFOG_LLM_ENDPOINT"],
		Model:          vals["DATAFOG_LLM_MODEL"],
		EntityEndpoint: vals["DATAFOG_ENTITY_ENDPOINT"],
		EntityModel:    vals["DATAFOG_ENTITY_MODEL"],
		SentryDSN:      vals["SENTRY_DSN"],
	}, nil
}
