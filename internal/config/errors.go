package config

import "errors"

var (
	ErrNoLocalConfig  = errors.New("no local config")
	ErrNoGlobalConfig = errors.New("no global config")

	ErrMissingAPIKey  = errors.New("missing API key")
	ErrUnknownBackend = errors.New("unknown LLM backend")
	ErrInvalidTimeout = errors.New("invalid timeout")
	ErrInvalidValue   = errors.New("invalid configuration value")
)
