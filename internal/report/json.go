package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/alecthomas/chroma/v2/quick"
)

// WriteJSON encodes v as indented JSON. With highlight set the output is
// colourised for a 256-colour terminal.
func WriteJSON(w io.Writer, v any, highlight bool) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	if !highlight {
		_, err := w.Write(buf.Bytes())
		return err
	}
	return quick.Highlight(w, buf.String(), "json", "terminal256", "monokai")
}
