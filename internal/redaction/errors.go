package redaction

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDetection is returned when a detection record is malformed:
	// blank category or value, a lone start/end offset, or start >= end.
	ErrInvalidDetection = errors.New("invalid detection")

	// ErrEmptyDetectionSet is returned when a set is built from zero detections.
	// Callers treat this as "no findings", which is not a valid set.
	ErrEmptyDetectionSet = errors.New("empty detection set")

	// ErrEmptyDocument is returned when asked to redact an empty document.
	ErrEmptyDocument = errors.New("empty document")

	// ErrOffsetOutOfRange is returned when an offset-bearing detection points
	// outside the document being redacted.
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrOverlappingSpans is returned when two offset-bearing detections
	// overlap, since applying both would corrupt neighboring text.
	ErrOverlappingSpans = errors.New("overlapping detection spans")

	// ErrSpanMismatch is returned under span verification when the text at
	// [start:end) is not the detection value.
	ErrSpanMismatch = errors.New("span does not match detection value")

	// ErrFingerprintComputation marks a hashing failure. It never escapes
	// ComputeFingerprint; the fallback string is returned instead.
	ErrFingerprintComputation = errors.New("fingerprint computation failed")
)

// OffsetError reports the detection whose span could not be applied.
type OffsetError struct {
	Detection Detection
	// Length is the rune length of the document at the time of the failure.
	Length int
	Err    error
}

func (e *OffsetError) Error() string {
	start, end, _ := e.Detection.Offsets()
	return fmt.Sprintf("%v: %s span [%d:%d) in document of length %d",
		e.Err, e.Detection.Category(), start, end, e.Length)
}

func (e *OffsetError) Unwrap() error { return e.Err }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDetection, fmt.Sprintf(format, args...))
}
