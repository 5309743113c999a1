package llm

import "errors"

var (
	ErrMissingAPIKey  = errors.New("missing API key")
	ErrMissingModel   = errors.New("missing model name")
	ErrUnknownBackend = errors.New("unknown LLM backend")
	ErrRequestFailed  = errors.New("LLM request failed")
	ErrEmptyResponse  = errors.New("LLM returned no choices")
)
