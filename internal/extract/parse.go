package extract

import (
	"encoding/json"
	"fmt"

	"github.com/datafog/datafog-go/internal/llmjson"
	"github.com/datafog/datafog-go/internal/redaction"
	"github.com/datafog/datafog-go/internal/types"
)

// listKeys are the object keys under which models put the detection list.
var listKeys = []string{"private_data", "detections", "pii", "items"}

// ParseRecords decodes a model reply into detection records. The reply may
// be a bare array or an object holding the array under one of listKeys.
// An empty list returns ErrNoFindings.
func ParseRecords(raw string) ([]types.DetectionRecord, error) {
	content := llmjson.Clean(raw)
	if content == "" {
		return nil, llmjson.ErrEmptyResponse
	}
	var recs []types.DetectionRecord
	if content[0] == '[' {
		if err := json.Unmarshal([]byte(content), &recs); err != nil {
			return nil, fmt.Errorf("%w: %v", llmjson.ErrMalformedResponse, err)
		}
	} else {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(content), &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", llmjson.ErrMalformedResponse, err)
		}
		found := false
		for _, k := range listKeys {
			v, ok := obj[k]
			if !ok {
				continue
			}
			if err := json.Unmarshal(v, &recs); err != nil {
				return nil, fmt.Errorf("%w: %q: %v", llmjson.ErrMalformedResponse, k, err)
			}
			found = true
			break
		}
		if !found {
			return nil, fmt.Errorf("%w: no detection list in response", llmjson.ErrMalformedResponse)
		}
	}
	if len(recs) == 0 {
		return nil, ErrNoFindings
	}
	return recs, nil
}

// ParseDetections is ParseRecords followed by validation of every record.
// Any malformed record fails the whole reply with
// redaction.ErrInvalidDetection.
func ParseDetections(raw string) ([]redaction.Detection, error) {
	recs, err := ParseRecords(raw)
	if err != nil {
		return nil, err
	}
	out := make([]redaction.Detection, 0, len(recs))
	for i, r := range recs {
		d, err := r.ToDetection()
		if err != nil {
			return nil, fmt.Errorf("detection %d: %w", i, err)
		}
		out = append(out, d)
	}
	return out, nil
}
