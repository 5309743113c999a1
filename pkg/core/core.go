package core

import (
	"github.com/datafog/datafog-go/internal/redaction"
)

// Re-export the redaction types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
type Detection = redaction.Detection
type DetectionSet = redaction.DetectionSet
type Result = redaction.Result

var (
	ErrInvalidDetection  = redaction.ErrInvalidDetection
	ErrEmptyDetectionSet = redaction.ErrEmptyDetectionSet
	ErrEmptyDocument     = redaction.ErrEmptyDocument
	ErrOffsetOutOfRange  = redaction.ErrOffsetOutOfRange
	ErrOverlappingSpans  = redaction.ErrOverlappingSpans
	ErrSpanMismatch      = redaction.ErrSpanMismatch
)

// NewDetection validates a detection. Offsets are rune offsets and must be
// given together or not at all.
func NewDetection(category, value string, start, end *int) (Detection, error) {
	return redaction.NewDetection(category, value, start, end)
}

// NewDetectionSet builds a non-empty set and computes its fingerprint.
func NewDetectionSet(ds ...Detection) (*DetectionSet, error) {
	return redaction.NewDetectionSet(ds...)
}

// ComputeFingerprint returns the order-independent SHA-256 fingerprint of ds.
func ComputeFingerprint(ds []Detection) string { return redaction.ComputeFingerprint(ds) }

// Redact replaces every detection in document with its placeholder.
func Redact(document string, set *DetectionSet) (string, error) {
	return redaction.Redact(document, set)
}
