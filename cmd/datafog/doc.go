// Package datafog provides the command-line interface for DataFog. It wires
// configuration, logging and the LLM clients into the redaction, extraction,
// classification and entity detection packages.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/datafog/datafog-go/cmd/datafog"
//	func main() { datafog.Execute() }
package datafog
