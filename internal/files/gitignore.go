package files

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// AppendIgnore adds pattern to repoRoot/.gitignore unless an identical line
// is already there. The file is created if missing.
func AppendIgnore(repoRoot, pattern string) error {
	path := filepath.Join(repoRoot, ".gitignore")
	existing := map[string]bool{}
	endsWithNewline := true
	if b, err := os.ReadFile(path); err == nil {
		sc := bufio.NewScanner(strings.NewReader(string(b)))
		for sc.Scan() {
			existing[strings.TrimSpace(sc.Text())] = true
		}
		endsWithNewline = len(b) == 0 || b[len(b)-1] == '\n'
	}
	if existing[pattern] {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	line := pattern + "\n"
	if !endsWithNewline {
		line = "\n" + line
	}
	_, err = f.WriteString(line)
	return err
}

// LocalArtifacts lists the files datafog may write next to a working tree
// when no .git directory is present.
func LocalArtifacts() []string {
	return []string{
		".datafog_cache.json",
		".datafog_audit.jsonl",
		".env",
	}
}
