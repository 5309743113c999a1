// Package redaction is the core of datafog: it validates PII detections,
// fingerprints a detection set independent of order, and produces a redacted
// copy of a document by replacing each detection with a "[CATEGORY]"
// placeholder.
//
// Detections with trustworthy offsets are applied by slicing the document;
// detections without offsets (or whose in-range offsets disagree with the
// value length) fall back to replacing every occurrence of the value. Offsets
// past the end of the document are always an error. The package
// performs no I/O and holds no shared mutable state.
package redaction
