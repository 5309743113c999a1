package files

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string][]byte) string {
	t.Helper()
	root := t.TempDir()
	for rel, b := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, b, 0o644))
	}
	return root
}

func collect(t *testing.T, opts Options) []string {
	t.Helper()
	var got []string
	require.NoError(t, Walk(context.Background(), opts, func(rel string, _ []byte) error {
		got = append(got, rel)
		return nil
	}))
	sort.Strings(got)
	return got
}

func TestWalk_DefaultExcludes(t *testing.T) {
	root := writeTree(t, map[string][]byte{
		"notes.txt":            []byte("patient John"),
		"docs/report.md":       []byte("PTO request"),
		"node_modules/x/a.js":  []byte("ignored"),
		".git/config":          []byte("ignored"),
		"img/photo.png":        []byte("\x89PNG\r\n\x1a\nxxxx"),
		"bin.dat":              []byte{'a', 0, 'b'},
		"empty.txt":            {},
		".datafog_audit.jsonl": []byte("{}"),
		"package-lock.json":    []byte("{}"),
	})
	got := collect(t, Options{Root: root, DefaultExcludes: true})
	assert.Equal(t, []string{"docs/report.md", "notes.txt"}, got)
}

func TestWalk_Globs(t *testing.T) {
	root := writeTree(t, map[string][]byte{
		"a/one.txt":  []byte("1"),
		"a/two.md":   []byte("2"),
		"b/three.md": []byte("3"),
	})
	got := collect(t, Options{Root: root, Include: []string{"**/*.md"}})
	assert.Equal(t, []string{"a/two.md", "b/three.md"}, got)

	got = collect(t, Options{Root: root, Include: []string{"*.md"}, Exclude: []string{"b/**"}})
	assert.Equal(t, []string{"a/two.md"}, got)
}

func TestWalk_MaxBytes(t *testing.T) {
	root := writeTree(t, map[string][]byte{
		"small.txt": []byte("ok"),
		"large.txt": []byte("this one is too large"),
	})
	got := collect(t, Options{Root: root, MaxBytes: 5})
	assert.Equal(t, []string{"small.txt"}, got)
}

func TestWalk_StopsOnCallbackError(t *testing.T) {
	root := writeTree(t, map[string][]byte{"a.txt": []byte("a"), "b.txt": []byte("b")})
	stop := errors.New("stop")
	calls := 0
	err := Walk(context.Background(), Options{Root: root}, func(string, []byte) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestWalk_Cancelled(t *testing.T) {
	root := writeTree(t, map[string][]byte{"a.txt": []byte("a")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Walk(ctx, Options{Root: root}, func(string, []byte) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWalk_MissingRoot(t *testing.T) {
	err := Walk(context.Background(), Options{Root: filepath.Join(t.TempDir(), "nope")}, func(string, []byte) error { return nil })
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSplitGlobs(t *testing.T) {
	assert.Equal(t, []string{"*.md", "docs/**"}, SplitGlobs(" *.md, ,docs/** "))
	assert.Nil(t, SplitGlobs(""))
}

func TestAppendIgnore_IdempotentAndCreates(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".gitignore")
	require.NoError(t, AppendIgnore(dir, ".datafog_cache.json"))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, ".datafog_cache.json\n", string(b))

	require.NoError(t, AppendIgnore(dir, ".datafog_cache.json"))
	b, _ = os.ReadFile(p)
	assert.Equal(t, ".datafog_cache.json\n", string(b))
}

func TestAppendIgnore_MissingTrailingNewline(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".gitignore")
	require.NoError(t, os.WriteFile(p, []byte("dist/"), 0o644))
	require.NoError(t, AppendIgnore(dir, ".env"))
	b, _ := os.ReadFile(p)
	assert.Equal(t, "dist/\n.env\n", string(b))
}
