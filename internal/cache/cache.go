// Package cache persists LLM extraction results so re-running the same
// document through the same model does not call the API again. Entries are
// keyed by an xxhash of the model and document text.
//
// Entries hold the detected values themselves, since value-only detections
// cannot be replayed without them. The file is written with mode 0600, is
// listed by files.LocalArtifacts for .gitignore, and can be bypassed with
// --no-cache or cache: false.
package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/datafog/datafog-go/internal/types"
)

// DB maps a content key to the detection records extracted for it.
type DB struct {
	path string

	mu      sync.Mutex
	entries map[string][]types.DetectionRecord
	dirty   bool
}

type fileFormat struct {
	Entries map[string][]types.DetectionRecord `json:"entries"`
}

// DefaultPath prefers the .git directory so the cache is never committed,
// falling back to the root itself.
func DefaultPath(root string) string {
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return filepath.Join(gitDir, "datafog_cache.json")
	}
	return filepath.Join(root, ".datafog_cache.json")
}

// Key returns the hex xxhash of parts joined with a NUL separator.
func Key(parts ...string) string {
	d := xxhash.New()
	for i, p := range parts {
		if i > 0 {
			_, _ = d.Write([]byte{0})
		}
		_, _ = d.WriteString(p)
	}
	sum := d.Sum64()
	var buf [16]byte
	const hex = "0123456789abcdef"
	for i := 15; i >= 0; i-- {
		buf[i] = hex[sum&0xF]
		sum >>= 4
	}
	return string(buf[:])
}

// Load reads the cache at path. A missing file yields an empty cache and no
// error; a corrupt one yields an empty cache and the decode error.
func Load(path string) (*DB, error) {
	db := &DB{path: path, entries: map[string][]types.DetectionRecord{}}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return db, nil
	}
	if err != nil {
		return db, err
	}
	var f fileFormat
	if err := json.Unmarshal(b, &f); err != nil {
		return db, err
	}
	if f.Entries != nil {
		db.entries = f.Entries
	}
	return db, nil
}

// Get returns a copy of the records stored under key.
func (db *DB) Get(key string) ([]types.DetectionRecord, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	recs, ok := db.entries[key]
	if !ok {
		return nil, false
	}
	out := make([]types.DetectionRecord, len(recs))
	copy(out, recs)
	return out, true
}

func (db *DB) Put(key string, recs []types.DetectionRecord) {
	db.mu.Lock()
	defer db.mu.Unlock()
	cp := make([]types.DetectionRecord, len(recs))
	copy(cp, recs)
	db.entries[key] = cp
	db.dirty = true
}

func (db *DB) Len() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.entries)
}

// Save writes the cache if anything changed since Load.
func (db *DB) Save() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if !db.dirty {
		return nil
	}
	b, err := json.MarshalIndent(fileFormat{Entries: db.entries}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(db.path, b, 0600); err != nil {
		return err
	}
	db.dirty = false
	return nil
}
