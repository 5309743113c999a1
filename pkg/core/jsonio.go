package core

import (
	"encoding/json"
	"io"

	"github.com/datafog/datafog-go/internal/types"
)

// MarshalDetections pretty-prints a set in the {"private_data": [...]} shape
// accepted by the CLI.
func MarshalDetections(w io.Writer, set *DetectionSet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		PrivateData []types.DetectionRecord `json:"private_data"`
	}{types.Records(set)})
}

// UnmarshalDetections decodes either a bare array of detections or the
// {"private_data": [...]} envelope.
func UnmarshalDetections(r io.Reader) (*DetectionSet, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	var recs []types.DetectionRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		var env struct {
			PrivateData []types.DetectionRecord `json:"private_data"`
		}
		if err2 := json.Unmarshal(raw, &env); err2 != nil {
			return nil, err
		}
		recs = env.PrivateData
	}
	return types.RecordsToSet(recs)
}
