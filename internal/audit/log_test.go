package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/datafog/datafog-go/internal/redaction"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSet(t *testing.T) *redaction.DetectionSet {
	t.Helper()
	email, err := redaction.SpanDetection("email", "john@example.com", 12, 28)
	require.NoError(t, err)
	phone, err := redaction.ValueDetection("phone", "555-1234")
	require.NoError(t, err)
	set, err := redaction.NewDetectionSet(email, phone)
	require.NoError(t, err)
	return set
}

func TestDefaultPath(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, ".datafog_audit.jsonl"), DefaultPath(dir))
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	assert.Equal(t, filepath.Join(dir, ".git", "datafog_audit.jsonl"), DefaultPath(dir))
}

func TestNewRecord_NoValues(t *testing.T) {
	set := sampleSet(t)
	rec := NewRecord("contact.txt", set, redaction.Result{Replacements: 2}, Meta{Model: "gpt-4", Extracted: true})
	_, err := uuid.Parse(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, set.Fingerprint(), rec.Fingerprint)
	assert.Equal(t, map[string]int{"email": 1, "phone": 1}, rec.Categories)
	assert.Equal(t, 2, rec.Detections)

	log := New(t.TempDir())
	require.NoError(t, log.LogRedaction(rec))
	b, err := os.ReadFile(log.Path())
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(b), "john@example.com"))
	assert.False(t, strings.Contains(string(b), "555-1234"))

	st, err := os.Stat(log.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), st.Mode().Perm())
}

func TestHistory_OrderAndDelete(t *testing.T) {
	log := Open(filepath.Join(t.TempDir(), "audit.jsonl"))
	hist, err := log.LoadHistory()
	require.NoError(t, err)
	assert.Empty(t, hist)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, src := range []string{"a.txt", "b.txt", "c.txt"} {
		require.NoError(t, log.LogRedaction(Record{Source: src, Timestamp: base.Add(time.Duration(i) * time.Hour)}))
	}
	hist, err = log.LoadHistory()
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, "c.txt", hist[0].Source)
	assert.NotEmpty(t, hist[0].ID)

	require.NoError(t, log.DeleteRecord(1))
	hist, err = log.LoadHistory()
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "c.txt", hist[0].Source)
	assert.Equal(t, "a.txt", hist[1].Source)

	assert.ErrorIs(t, log.DeleteRecord(5), ErrInvalidIndex)
	assert.ErrorIs(t, log.DeleteRecord(-1), ErrInvalidIndex)
}
