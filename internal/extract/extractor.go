// Package extract asks an LLM to find PII in a document and turns the reply
// into a validated redaction.DetectionSet.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/datafog/datafog-go/internal/cache"
	"github.com/datafog/datafog-go/internal/llm"
	"github.com/datafog/datafog-go/internal/logging"
	"github.com/datafog/datafog-go/internal/redaction"
	"github.com/datafog/datafog-go/internal/types"
)

const systemPrompt = `You are a world class PII extraction model. Extract every piece of personally identifiable information from the document the user sends.

Return ONLY a JSON object of the form:
{"private_data": [{"category": "email", "value": "john@example.com", "start": 9, "end": 25}]}

Rules:
- category is a short lowercase label such as email, phone, name, address, ssn, credit_card, ip_address, date_of_birth.
- value is the exact substring as it appears in the document.
- start and end are zero-based character offsets with end exclusive. Omit both if unsure.
- Return {"private_data": []} when the document contains no PII.`

// Extractor is safe for concurrent use when its cache is.
type Extractor struct {
	client   llm.Completer
	logger   *zap.Logger
	cache    *cache.DB
	modelKey string
}

type Option func(*Extractor)

func WithLogger(l *zap.Logger) Option { return func(e *Extractor) { e.logger = l } }

// WithCache stores and reuses extraction results keyed by modelKey and the
// document text.
func WithCache(db *cache.DB, modelKey string) Option {
	return func(e *Extractor) {
		e.cache = db
		e.modelKey = modelKey
	}
}

func New(client llm.Completer, opts ...Option) *Extractor {
	e := &Extractor{client: client}
	for _, o := range opts {
		o(e)
	}
	e.logger = logging.OrNop(e.logger)
	return e
}

// Extract returns the PII found in document. ErrNoFindings is returned when
// the model reports nothing.
func (e *Extractor) Extract(ctx context.Context, document string) (*redaction.DetectionSet, error) {
	if strings.TrimSpace(document) == "" {
		e.logger.Warn("empty document provided for PII extraction")
		return nil, ErrEmptyDocument
	}

	key := ""
	if e.cache != nil {
		key = cache.Key(e.modelKey, document)
		if recs, ok := e.cache.Get(key); ok {
			e.logger.Debug("extraction cache hit", zap.String("key", key), zap.Int("items", len(recs)))
			if len(recs) == 0 {
				return nil, ErrNoFindings
			}
			return types.RecordsToSet(recs)
		}
	}

	e.logger.Info("starting PII extraction", zap.Int("document_len", len(document)))
	raw, err := e.client.Complete(ctx, llm.System(systemPrompt), llm.User(document))
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	ds, err := ParseDetections(raw)
	if errors.Is(err, ErrNoFindings) {
		e.remember(key, nil)
		return nil, ErrNoFindings
	}
	if err != nil {
		e.logger.Error("could not parse extraction response", zap.Error(err))
		return nil, fmt.Errorf("extract: %w", err)
	}
	set, err := redaction.NewDetectionSet(ds...)
	if err != nil {
		return nil, err
	}
	e.remember(key, types.Records(set))
	e.logger.Info("PII extraction completed",
		zap.Int("items", set.Len()),
		zap.String("fingerprint", set.Fingerprint()))
	return set, nil
}

func (e *Extractor) remember(key string, recs []types.DetectionRecord) {
	if e.cache == nil || key == "" {
		return
	}
	if recs == nil {
		recs = []types.DetectionRecord{}
	}
	e.cache.Put(key, recs)
}
