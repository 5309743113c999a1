package redaction

import (
	"sort"
	"strings"
)

// Result is a redacted document and the number of detections applied.
//
// Replacements counts detections, not matches: an offset-free detection that
// replaces three occurrences counts once, and one whose value does not occur
// at all still counts once.
type Result struct {
	Text         string
	Replacements int
}

type redactOptions struct {
	verifySpans bool
}

// Option tunes a single Redact call.
type Option func(*redactOptions)

// WithSpanVerification rejects offset-based detections whose span text is not
// the detection value. By default offsets are trusted as reported.
func WithSpanVerification() Option {
	return func(o *redactOptions) { o.verifySpans = true }
}

// Redact returns the redacted text of document for set.
func Redact(document string, set *DetectionSet) (string, error) {
	res, err := set.Redact(document)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Redact replaces every detection in document with its placeholder.
//
// Any detection whose offsets run past the end of document fails with
// ErrOffsetOutOfRange before anything is replaced. Detections with
// consistent offsets are then applied first, from the highest
// start to the lowest, so earlier splices never shift later spans. The rest
// are applied afterwards in set order by replacing every occurrence of the
// value. Any offset failure aborts the call and no text is returned.
//
// Redaction is not idempotent: running it again over its own output either
// fails with ErrOffsetOutOfRange or finds nothing left to replace.
func (s *DetectionSet) Redact(document string, opts ...Option) (Result, error) {
	if document == "" {
		return Result{}, ErrEmptyDocument
	}
	var o redactOptions
	for _, opt := range opts {
		opt(&o)
	}

	text := []rune(document)
	n := len(text)
	// Every offset is checked against the original document, including
	// offsets that later fall back to value replacement.
	for _, d := range s.detections {
		if d.hasOffsets && d.end > n {
			return Result{}, &OffsetError{Detection: d, Length: n, Err: ErrOffsetOutOfRange}
		}
	}

	spans, values := s.redactionOrder()
	count := 0

	// lowest is the start of the leftmost span already rewritten. Spans are
	// applied right to left, so offsets below it still index the original.
	lowest := n
	prevStart, prevEnd := -1, -1
	for _, d := range spans {
		if d.start == prevStart && d.end == prevEnd {
			count++
			continue
		}
		if d.end > lowest {
			return Result{}, &OffsetError{Detection: d, Length: n, Err: ErrOverlappingSpans}
		}
		if o.verifySpans && string(text[d.start:d.end]) != d.value {
			return Result{}, &OffsetError{Detection: d, Length: n, Err: ErrSpanMismatch}
		}
		out := make([]rune, 0, len(text)-(d.end-d.start)+len(d.Placeholder()))
		out = append(out, text[:d.start]...)
		out = append(out, []rune(d.Placeholder())...)
		out = append(out, text[d.end:]...)
		text = out
		lowest, prevStart, prevEnd = d.start, d.start, d.end
		count++
	}

	redacted := string(text)
	for _, d := range values {
		redacted = strings.ReplaceAll(redacted, d.value, d.Placeholder())
		count++
	}
	return Result{Text: redacted, Replacements: count}, nil
}

// redactionOrder splits the set into offset-driven detections sorted by
// descending start and value-driven detections in set order.
func (s *DetectionSet) redactionOrder() (spans, values []Detection) {
	for _, d := range s.detections {
		if d.trustedSpan() {
			spans = append(spans, d)
		} else {
			values = append(values, d)
		}
	}
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start > spans[j].start
		}
		return spans[i].end > spans[j].end
	})
	return spans, values
}
