// Package entities is an experimental named-entity detector backed by a
// local chat model, typically served by Ollama.
package entities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/datafog/datafog-go/internal/llm"
	"github.com/datafog/datafog-go/internal/llmjson"
	"github.com/datafog/datafog-go/internal/logging"
	"github.com/datafog/datafog-go/internal/redaction"
)

// ErrUnexpectedResponse wraps any model reply that cannot be turned into
// entities. The error text carries the raw reply.
var ErrUnexpectedResponse = errors.New("unexpected entity response")

const notSet = "Not set"

type DetectedEntity struct {
	Text  string `json:"text"`
	Start *int   `json:"start,omitempty"`
	End   *int   `json:"end,omitempty"`
	Type  string `json:"type"`
}

type DetectedEntities struct {
	Entities []DetectedEntity `json:"entities"`
}

// Detections converts the entities into redaction detections, one per
// entity, with the entity type as category. Offsets are kept only when both
// are present.
func (d DetectedEntities) Detections() ([]redaction.Detection, error) {
	out := make([]redaction.Detection, 0, len(d.Entities))
	for i, e := range d.Entities {
		start, end := e.Start, e.End
		if start == nil || end == nil {
			start, end = nil, nil
		}
		det, err := redaction.NewDetection(e.Type, e.Text, start, end)
		if err != nil {
			return nil, fmt.Errorf("entity %d: %w", i, err)
		}
		out = append(out, det)
	}
	return out, nil
}

// ModelInfo describes the backend a Detector talks to. Unset fields read
// "Not set".
type ModelInfo struct {
	Backend  string `json:"backend"`
	Endpoint string `json:"endpoint"`
	Model    string `json:"model"`
	Pattern  string `json:"default_pattern"`
}

type Detector struct {
	client   llm.Completer
	registry *Registry
	backend  string
	endpoint string
	model    string
	logger   *zap.Logger
}

type Option func(*Detector)

func WithLogger(l *zap.Logger) Option { return func(d *Detector) { d.logger = l } }

func WithRegistry(r *Registry) Option { return func(d *Detector) { d.registry = r } }

// WithModel records the backend, endpoint and model name reported by
// ModelInfo.
func WithModel(backend, endpoint, model string) Option {
	return func(d *Detector) {
		d.backend, d.endpoint, d.model = backend, endpoint, model
	}
}

func New(client llm.Completer, opts ...Option) *Detector {
	d := &Detector{client: client}
	for _, o := range opts {
		o(d)
	}
	if d.registry == nil {
		d.registry = NewRegistry()
	}
	d.logger = logging.OrNop(d.logger)
	return d
}

func (d *Detector) Registry() *Registry { return d.registry }

func (d *Detector) ModelInfo() ModelInfo {
	or := func(s string) string {
		if s == "" {
			return notSet
		}
		return s
	}
	return ModelInfo{
		Backend:  or(d.backend),
		Endpoint: or(d.endpoint),
		Model:    or(d.model),
		Pattern:  d.registry.pattern(),
	}
}

// Detect asks the model to identify and classify named entities in text.
func (d *Detector) Detect(ctx context.Context, text string) (DetectedEntities, error) {
	if strings.TrimSpace(text) == "" {
		return DetectedEntities{}, redaction.ErrEmptyDocument
	}
	raw, err := d.client.Complete(ctx,
		llm.System(d.systemPrompt()),
		llm.User(fmt.Sprintf("Identify and classify named entities in the following text: '%s'", text)))
	if err != nil {
		return DetectedEntities{}, fmt.Errorf("detect entities: %w", err)
	}
	ents, err := d.parse(raw)
	if err != nil {
		d.logger.Warn("unusable entity response", zap.Error(err))
		return DetectedEntities{}, err
	}
	d.logger.Debug("entities detected", zap.Int("count", len(ents.Entities)))
	return ents, nil
}

func (d *Detector) systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are a named entity recognition system. Respond ONLY with JSON of the form ")
	b.WriteString(`{"entities": [{"text": "...", "start": 0, "end": 4, "type": "PERSON"}]}`)
	b.WriteString(". start and end are character offsets into the text, end exclusive. type must be one of:\n")
	for _, t := range d.registry.Types() {
		fmt.Fprintf(&b, "- %s (%s)\n", t.Name, t.Label)
	}
	return b.String()
}

// parse accepts either {"entities": [...]} or an object keyed by entity text
// whose values carry entity_type/text/start/end.
func (d *Detector) parse(raw string) (DetectedEntities, error) {
	unexpected := func(cause error) error {
		return fmt.Errorf("%w: %v. Raw response: %s", ErrUnexpectedResponse, cause, raw)
	}
	var obj map[string]json.RawMessage
	if err := llmjson.Decode(raw, &obj); err != nil {
		return DetectedEntities{}, unexpected(err)
	}
	if list, ok := obj["entities"]; ok && len(list) > 0 && list[0] == '[' {
		var direct DetectedEntities
		if err := json.Unmarshal(list, &direct.Entities); err != nil {
			return DetectedEntities{}, unexpected(err)
		}
		for i := range direct.Entities {
			e := &direct.Entities[i]
			name, ok := d.registry.Resolve(e.Type)
			if !ok {
				return DetectedEntities{}, unexpected(fmt.Errorf("entity %d: unknown type %q", i, e.Type))
			}
			e.Type = name
		}
		return direct, nil
	}
	return d.preprocess(obj), nil
}

type looseEntity struct {
	EntityType string `json:"entity_type"`
	Text       string `json:"text"`
	Start      *int   `json:"start"`
	End        *int   `json:"end"`
}

func (d *Detector) preprocess(obj map[string]json.RawMessage) DetectedEntities {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := DetectedEntities{Entities: []DetectedEntity{}}
	for _, name := range keys {
		v := obj[name]
		if len(v) == 0 || v[0] != '{' {
			continue
		}
		var le looseEntity
		if err := json.Unmarshal(v, &le); err != nil {
			continue
		}
		typ, ok := d.registry.Resolve(le.EntityType)
		if !ok {
			typ = Fallback
		}
		text := le.Text
		if text == "" {
			text = name
		}
		out.Entities = append(out.Entities, DetectedEntity{Text: text, Start: le.Start, End: le.End, Type: typ})
	}
	return out
}
