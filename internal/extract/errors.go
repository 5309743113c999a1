package extract

import "errors"

var (
	// ErrEmptyDocument is returned for blank input; nothing is sent to the model.
	ErrEmptyDocument = errors.New("document must be a non-empty string")

	// ErrNoFindings is the distinct "no PII found" result. It is not a failure
	// of the model; callers usually report it and exit cleanly.
	ErrNoFindings = errors.New("no PII found")
)
