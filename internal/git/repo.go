// Package git reads provenance metadata from the repository enclosing a
// working directory.
package git

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

// validateRoot cleans root and checks that it is an accessible directory.
func validateRoot(root string) (string, error) {
	if strings.ContainsRune(root, 0) {
		return "", fmt.Errorf("invalid path: contains null byte")
	}
	abs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access path %q: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", root)
	}
	return abs, nil
}

// RepoMetadata returns (repo, commit, branch) best-effort for the repository
// containing root. Any part that cannot be determined is empty. repo is the
// origin remote shortened to owner/name where possible.
func RepoMetadata(root string) (repo, commit, branch string) {
	validRoot, err := validateRoot(root)
	if err != nil {
		return "", "", ""
	}
	r, err := gogit.PlainOpenWithOptions(validRoot, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", "", ""
	}
	if rem, err := r.Remote("origin"); err == nil {
		if urls := rem.Config().URLs; len(urls) > 0 {
			repo = ShortRemote(urls[0])
		}
	}
	if head, err := r.Head(); err == nil {
		commit = head.Hash().String()
		if head.Name().IsBranch() {
			branch = head.Name().Short()
		} else {
			branch = "HEAD"
		}
	}
	return repo, commit, branch
}

// ShortRemote trims a remote URL to owner/name for the common hosting forms.
func ShortRemote(url string) string {
	s := strings.TrimSuffix(strings.TrimSpace(url), ".git")
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
		if j := strings.Index(s, "/"); j >= 0 {
			return s[j+1:]
		}
		return s
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	return s
}
