package redaction

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"
	"strings"
)

// FallbackPrefix starts the placeholder fingerprint returned when hashing fails.
const FallbackPrefix = "hash_generation_error:"

// newHash is swapped in tests to exercise the fallback path.
var newHash = sha256.New

// DetectionSet is the non-empty collection of detections for one document.
// It is read-only after construction and safe for concurrent use.
type DetectionSet struct {
	detections  []Detection
	fingerprint string
}

// NewDetectionSet copies ds into a new set and computes its fingerprint.
func NewDetectionSet(ds ...Detection) (*DetectionSet, error) {
	if len(ds) == 0 {
		return nil, ErrEmptyDetectionSet
	}
	cp := make([]Detection, len(ds))
	copy(cp, ds)
	return &DetectionSet{detections: cp, fingerprint: ComputeFingerprint(cp)}, nil
}

// Detections returns a copy of the detections in their original order.
func (s *DetectionSet) Detections() []Detection {
	out := make([]Detection, len(s.detections))
	copy(out, s.detections)
	return out
}

func (s *DetectionSet) Len() int { return len(s.detections) }

// Fingerprint returns the digest computed when the set was built.
func (s *DetectionSet) Fingerprint() string { return s.fingerprint }

// Categories counts detections per category.
func (s *DetectionSet) Categories() map[string]int {
	out := make(map[string]int)
	for _, d := range s.detections {
		out[d.category]++
	}
	return out
}

// ComputeFingerprint returns the hex SHA-256 of the detections sorted by
// (start or +inf, category, value) and joined as "category:value" with no
// separator. Permutations of the same detections yield the same digest.
//
// If hashing fails the result is FallbackPrefix followed by the error text;
// see IsFallbackFingerprint.
func ComputeFingerprint(ds []Detection) string {
	fp, err := computeFingerprint(ds, newHash())
	if err != nil {
		return FallbackPrefix + " " + err.Error()
	}
	return fp
}

// IsFallbackFingerprint reports whether fp is the non-cryptographic
// placeholder produced by a hashing failure.
func IsFallbackFingerprint(fp string) bool {
	return strings.HasPrefix(fp, FallbackPrefix)
}

func computeFingerprint(ds []Detection, h hash.Hash) (string, error) {
	sorted := make([]Detection, len(ds))
	copy(sorted, ds)
	sort.SliceStable(sorted, func(i, j int) bool {
		return fingerprintLess(sorted[i], sorted[j])
	})
	var b strings.Builder
	for _, d := range sorted {
		b.WriteString(d.category)
		b.WriteByte(':')
		b.WriteString(d.value)
	}
	if _, err := h.Write([]byte(b.String())); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFingerprintComputation, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func fingerprintLess(a, b Detection) bool {
	switch {
	case a.hasOffsets && !b.hasOffsets:
		return true
	case !a.hasOffsets && b.hasOffsets:
		return false
	case a.hasOffsets && a.start != b.start:
		return a.start < b.start
	}
	if a.category != b.category {
		return a.category < b.category
	}
	return a.value < b.value
}
