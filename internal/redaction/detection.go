package redaction

import (
	"strings"
	"unicode/utf8"
)

// Detection is one PII finding inside a document. It is immutable once built.
//
// Offsets, when present, are half-open rune (code point) offsets into the
// source document.
type Detection struct {
	category   string
	value      string
	start, end int
	hasOffsets bool
}

// NewDetection validates and builds a Detection. start and end must be both
// nil or both set; when set, 0 <= start < end.
func NewDetection(category, value string, start, end *int) (Detection, error) {
	if strings.TrimSpace(category) == "" {
		return Detection{}, invalid("category must not be empty")
	}
	if strings.TrimSpace(value) == "" {
		return Detection{}, invalid("value must not be empty")
	}
	if (start == nil) != (end == nil) {
		return Detection{}, invalid("start and end must both be set or both be absent")
	}
	d := Detection{category: category, value: value}
	if start == nil {
		return d, nil
	}
	if *start < 0 || *end < 0 {
		return Detection{}, invalid("offsets must be non-negative (start=%d end=%d)", *start, *end)
	}
	if *start >= *end {
		return Detection{}, invalid("start must be less than end (start=%d end=%d)", *start, *end)
	}
	d.start, d.end, d.hasOffsets = *start, *end, true
	return d, nil
}

// ValueDetection builds an offset-free detection.
func ValueDetection(category, value string) (Detection, error) {
	return NewDetection(category, value, nil, nil)
}

// SpanDetection builds a detection located at [start:end).
func SpanDetection(category, value string, start, end int) (Detection, error) {
	return NewDetection(category, value, &start, &end)
}

func (d Detection) Category() string { return d.category }

func (d Detection) Value() string { return d.value }

// Offsets returns the span and whether the detection carries one.
func (d Detection) Offsets() (start, end int, ok bool) {
	return d.start, d.end, d.hasOffsets
}

func (d Detection) HasOffsets() bool { return d.hasOffsets }

// OffsetsConsistent reports whether end-start equals the rune length of the
// value. Detections without offsets are always consistent.
func (d Detection) OffsetsConsistent() bool {
	if !d.hasOffsets {
		return true
	}
	return d.end-d.start == utf8.RuneCountInString(d.value)
}

// Placeholder is the text that replaces the detection, e.g. "[EMAIL]".
func (d Detection) Placeholder() string {
	return "[" + strings.ToUpper(d.category) + "]"
}

// trustedSpan reports whether redaction should slice by offsets rather than
// search for the value.
func (d Detection) trustedSpan() bool {
	return d.hasOffsets && d.OffsetsConsistent()
}
