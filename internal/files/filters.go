package files

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var defaultExcludeDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	"coverage":     true,
	"bin":          true,
	"obj":          true,
}

var defaultExcludeFileSuffixes = []string{
	".min.js", ".map",
	".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".bmp", ".tiff",
	".pdf", ".zip", ".gz", ".tar", ".tgz", ".7z",
	".jar", ".class", ".exe", ".dll", ".so",
	".wasm", ".pyc",
}

var defaultExcludeFileNames = map[string]bool{
	"yarn.lock":            true,
	"package-lock.json":    true,
	"pnpm-lock.yaml":       true,
	"go.sum":               true,
	".ds_store":            true,
	".datafog_cache.json":  true,
	".datafog_audit.jsonl": true,
}

func isDefaultDirExcluded(name string) bool {
	return defaultExcludeDirs[name] || strings.HasPrefix(name, ".git")
}

func isDefaultFileExcluded(lowerRel string) bool {
	if strings.HasSuffix(lowerRel, ".lock") {
		return true
	}
	for _, s := range defaultExcludeFileSuffixes {
		if strings.HasSuffix(lowerRel, s) {
			return true
		}
	}
	return defaultExcludeFileNames[filepath.Base(lowerRel)]
}

// allowedByGlobs applies include globs first, then exclude globs. Patterns
// match either the slash-separated relative path or its base name.
func allowedByGlobs(relPath string, include, exclude []string) bool {
	rp := filepath.ToSlash(relPath)
	if len(include) > 0 && !matchAnyGlob(rp, include) {
		return false
	}
	return !(len(exclude) > 0 && matchAnyGlob(rp, exclude))
}

func matchAnyGlob(p string, globs []string) bool {
	for _, g := range globs {
		g = trimGlobPrefix(strings.TrimSpace(g))
		if g == "" {
			continue
		}
		if ok, _ := doublestar.Match(g, p); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, filepath.Base(p)); ok {
			return true
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}

// SplitGlobs parses a comma separated flag value into patterns.
func SplitGlobs(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
