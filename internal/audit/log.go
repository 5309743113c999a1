// Package audit keeps an append-only JSONL history of redactions. Records
// describe what was redacted (categories, counts, fingerprint) but never the
// detected values themselves.
package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/datafog/datafog-go/internal/redaction"
)

// ErrInvalidIndex is returned by DeleteRecord for an index outside the
// history.
var ErrInvalidIndex = errors.New("invalid history index")

type Record struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	Source       string         `json:"source"`
	Fingerprint  string         `json:"fingerprint"`
	Detections   int            `json:"detections"`
	Replacements int            `json:"replacements"`
	Categories   map[string]int `json:"categories"`
	Extracted    bool           `json:"extracted,omitempty"`
	Model        string         `json:"model,omitempty"`
	Repo         string         `json:"repo,omitempty"`
	Commit       string         `json:"commit,omitempty"`
	Branch       string         `json:"branch,omitempty"`
}

// Meta is optional provenance attached to a record.
type Meta struct {
	Extracted bool
	Model     string
	Repo      string
	Commit    string
	Branch    string
}

type Log struct {
	path string
}

// DefaultPath places the log inside .git when root is a repository.
func DefaultPath(root string) string {
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return filepath.Join(gitDir, "datafog_audit.jsonl")
	}
	return filepath.Join(root, ".datafog_audit.jsonl")
}

func New(root string) *Log { return &Log{path: DefaultPath(root)} }

// Open uses an explicit file path.
func Open(path string) *Log { return &Log{path: path} }

func (l *Log) Path() string { return l.path }

// NewRecord summarises a completed redaction of source.
func NewRecord(source string, set *redaction.DetectionSet, res redaction.Result, meta Meta) Record {
	return Record{
		ID:           uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Source:       source,
		Fingerprint:  set.Fingerprint(),
		Detections:   set.Len(),
		Replacements: res.Replacements,
		Categories:   set.Categories(),
		Extracted:    meta.Extracted,
		Model:        meta.Model,
		Repo:         meta.Repo,
		Commit:       meta.Commit,
		Branch:       meta.Branch,
	}
}

// LoadHistory returns all records, newest first. A missing log is an empty
// history. Undecodable lines are skipped.
func (l *Log) LoadHistory() ([]Record, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []Record
	dec := json.NewDecoder(f)
	for dec.More() {
		var r Record
		if err := dec.Decode(&r); err != nil {
			var syn *json.SyntaxError
			if errors.As(err, &syn) {
				break
			}
			continue
		}
		records = append(records, r)
	}
	reverse(records)
	return records, nil
}

// LogRedaction appends r. The file is created owner-only.
func (l *Log) LogRedaction(r Record) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(r); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// DeleteRecord removes the record at index in LoadHistory order.
func (l *Log) DeleteRecord(index int) error {
	records, err := l.LoadHistory()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(records) {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	records = append(records[:index], records[index+1:]...)
	reverse(records)

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to rewrite audit log: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to write audit record: %w", err)
		}
	}
	return nil
}

func reverse(rs []Record) {
	for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
		rs[i], rs[j] = rs[j], rs[i]
	}
}
