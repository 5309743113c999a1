package datafog

import (
	"errors"

	"github.com/datafog/datafog-go/internal/classify"
	"github.com/datafog/datafog-go/internal/config"
	"github.com/datafog/datafog-go/internal/entities"
	"github.com/datafog/datafog-go/internal/extract"
	"github.com/datafog/datafog-go/internal/llm"
	"github.com/datafog/datafog-go/internal/llmjson"
	"github.com/datafog/datafog-go/internal/redaction"
)

const (
	exitOK = iota
	exitNoFindings
	exitError
	exitInvalidDetection
	exitSpan
	exitLLM
	exitConfig
)

var errUsage = errors.New("usage")

func isNoFindings(err error) bool { return errors.Is(err, extract.ErrNoFindings) }

// exitCode maps an error returned by a command to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case isNoFindings(err):
		return exitNoFindings
	case errors.Is(err, redaction.ErrOffsetOutOfRange),
		errors.Is(err, redaction.ErrOverlappingSpans),
		errors.Is(err, redaction.ErrSpanMismatch):
		return exitSpan
	case errors.Is(err, redaction.ErrInvalidDetection),
		errors.Is(err, redaction.ErrEmptyDetectionSet):
		return exitInvalidDetection
	case errors.Is(err, config.ErrMissingAPIKey),
		errors.Is(err, config.ErrUnknownBackend),
		errors.Is(err, config.ErrInvalidTimeout),
		errors.Is(err, config.ErrInvalidValue),
		errors.Is(err, llm.ErrMissingAPIKey),
		errors.Is(err, llm.ErrMissingModel),
		errors.Is(err, llm.ErrUnknownBackend):
		return exitConfig
	case errors.Is(err, llm.ErrRequestFailed),
		errors.Is(err, llm.ErrEmptyResponse),
		errors.Is(err, llmjson.ErrEmptyResponse),
		errors.Is(err, llmjson.ErrMalformedResponse),
		errors.Is(err, classify.ErrInvalidClassification),
		errors.Is(err, entities.ErrUnexpectedResponse):
		return exitLLM
	}
	return exitError
}
