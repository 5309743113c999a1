// Package files selects the text files under a directory that datafog
// should process.
package files

import (
	"context"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxBytes caps the size of a single file handed to the model.
const DefaultMaxBytes int64 = 256 << 10

type Options struct {
	Root            string
	Include         []string
	Exclude         []string
	DefaultExcludes bool
	MaxBytes        int64
}

// Walk calls fn with the slash-separated relative path and contents of every
// eligible text file under opts.Root. Unreadable entries are skipped. An
// error from fn or a cancelled ctx stops the walk and is returned.
func Walk(ctx context.Context, opts Options, fn func(rel string, data []byte) error) error {
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return filepath.WalkDir(opts.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == opts.Root {
				return err
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if p != opts.Root && opts.DefaultExcludes && isDefaultDirExcluded(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, _ := filepath.Rel(opts.Root, p)
		rel = filepath.ToSlash(rel)
		if !allowedByGlobs(rel, opts.Include, opts.Exclude) {
			return nil
		}
		if opts.DefaultExcludes && isDefaultFileExcluded(strings.ToLower(rel)) {
			return nil
		}
		if info, _ := d.Info(); info != nil && info.Size() > maxBytes {
			return nil
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return nil
		}
		if len(b) == 0 || looksBinary(b) || looksNonTextMIME(rel, b) {
			return nil
		}
		return fn(rel, b)
	})
}

func looksBinary(b []byte) bool {
	const sniff = 800
	n := min(len(b), sniff)
	for i := 0; i < n; i++ {
		if b[i] == 0 {
			return true
		}
	}
	return false
}

func looksNonTextMIME(path string, b []byte) bool {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		if strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/") || strings.HasPrefix(ct, "audio/") {
			return true
		}
		if strings.Contains(ct, "zip") || strings.Contains(ct, "tar") || strings.Contains(ct, "gzip") {
			return true
		}
	}
	if len(b) >= 8 && string(b[:8]) == "\x89PNG\r\n\x1a\n" {
		return true
	}
	return len(b) >= 4 && b[0] == 'P' && b[1] == 'K'
}
