package types

import (
	"encoding/json"
	"fmt"

	"github.com/datafog/datafog-go/internal/redaction"
)

// DetectionRecord is the JSON shape of a detection as exchanged with files,
// caches and LLM responses. Offsets are rune offsets and may be absent.
type DetectionRecord struct {
	Category string `json:"category"`
	Value    string `json:"value"`
	Start    *int   `json:"start,omitempty"`
	End      *int   `json:"end,omitempty"`
}

// UnmarshalJSON accepts the canonical keys plus the aliases LLMs tend to
// produce (data_type, type, label, pii_value, text, start_index, end_index).
func (r *DetectionRecord) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var err error
	if r.Category, err = firstString(raw, "category", "data_type", "type", "label", "entity_type"); err != nil {
		return err
	}
	if r.Value, err = firstString(raw, "value", "pii_value", "text"); err != nil {
		return err
	}
	if r.Start, err = firstInt(raw, "start", "start_index"); err != nil {
		return err
	}
	if r.End, err = firstInt(raw, "end", "end_index"); err != nil {
		return err
	}
	return nil
}

func firstString(raw map[string]json.RawMessage, keys ...string) (string, error) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || string(v) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", fmt.Errorf("field %q: %w", k, err)
		}
		return s, nil
	}
	return "", nil
}

func firstInt(raw map[string]json.RawMessage, keys ...string) (*int, error) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || string(v) == "null" {
			continue
		}
		var n int
		if err := json.Unmarshal(v, &n); err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		return &n, nil
	}
	return nil, nil
}

// ToDetection validates the record.
func (r DetectionRecord) ToDetection() (redaction.Detection, error) {
	return redaction.NewDetection(r.Category, r.Value, r.Start, r.End)
}

// RecordFromDetection is the inverse of ToDetection.
func RecordFromDetection(d redaction.Detection) DetectionRecord {
	rec := DetectionRecord{Category: d.Category(), Value: d.Value()}
	if start, end, ok := d.Offsets(); ok {
		rec.Start, rec.End = &start, &end
	}
	return rec
}

// Records converts every detection in set.
func Records(set *redaction.DetectionSet) []DetectionRecord {
	ds := set.Detections()
	out := make([]DetectionRecord, len(ds))
	for i, d := range ds {
		out[i] = RecordFromDetection(d)
	}
	return out
}

// RecordsToSet validates every record and builds a set. The first invalid
// record fails the whole conversion.
func RecordsToSet(records []DetectionRecord) (*redaction.DetectionSet, error) {
	ds := make([]redaction.Detection, 0, len(records))
	for i, r := range records {
		d, err := r.ToDetection()
		if err != nil {
			return nil, fmt.Errorf("detection %d: %w", i, err)
		}
		ds = append(ds, d)
	}
	return redaction.NewDetectionSet(ds...)
}
