// Package core provides a small, stable facade over DataFog's redaction
// engine for programs that embed it. It re-exports the detection and
// redaction types without exposing the internal packages.
//
// Example:
//
//	set, err := core.NewDetectionSet(dets...)
//	if err != nil { /* handle */ }
//	res, err := set.Redact(doc)
//	if err != nil { /* handle */ }
//	fmt.Println(res.Text, set.Fingerprint())
package core
