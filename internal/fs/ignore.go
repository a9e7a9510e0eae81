package fs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreFileName is the per-installation file of extra ignore patterns,
// read from the instance base directory.
const IgnoreFileName = ".custodyignore"

// defaultIgnorePatterns cover ignore files and the metadata archivers and
// desktops leave behind. They apply to every ingest.
var defaultIgnorePatterns = []string{IgnoreFileName, ".DS_Store", "Thumbs.db", "__MACOSX/", "._*"}

type matchScope int

const (
	scopeBase matchScope = iota // basename of the entry
	scopePath                   // whole slash-separated relative path
	scopeDir                    // any directory component of the path
)

type ignorePattern struct {
	glob  string
	scope matchScope
}

func parsePattern(raw string) (ignorePattern, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return ignorePattern{}, false
	}
	if dir, ok := strings.CutSuffix(raw, "/"); ok && !strings.Contains(dir, "/") {
		return ignorePattern{glob: dir, scope: scopeDir}, true
	}
	if strings.Contains(raw, "/") {
		return ignorePattern{glob: raw, scope: scopePath}, true
	}
	return ignorePattern{glob: raw, scope: scopeBase}, true
}

// IgnoreMatcher decides which entries of an ingested tree are skipped.
//
// A pattern without '/' matches the entry's basename. A pattern ending in
// a single trailing '/' matches any directory component, so "__MACOSX/"
// drops everything under such a folder at any depth. Any other pattern
// containing '/' matches the full relative path. Globs use path.Match
// syntax; malformed globs never match.
type IgnoreMatcher struct {
	patterns []ignorePattern
}

// NewIgnoreMatcher compiles raw pattern lines. Blank lines and '#'
// comments are dropped.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, raw := range rawPatterns {
		if p, ok := parsePattern(raw); ok {
			m.patterns = append(m.patterns, p)
		}
	}
	return m
}

// Match reports whether relativePath, relative to the ingest root, is ignored.
func (m *IgnoreMatcher) Match(relativePath string) bool {
	if len(m.patterns) == 0 {
		return false
	}
	rel := filepath.ToSlash(relativePath)
	parts := strings.Split(rel, "/")

	for _, p := range m.patterns {
		if p.matches(rel, parts) {
			return true
		}
	}
	return false
}

func (p ignorePattern) matches(rel string, parts []string) bool {
	switch p.scope {
	case scopePath:
		return globMatch(p.glob, rel)
	case scopeDir:
		for _, dir := range parts[:len(parts)-1] {
			if globMatch(p.glob, dir) {
				return true
			}
		}
		// The directory entry itself.
		return globMatch(p.glob, parts[len(parts)-1])
	default:
		return globMatch(p.glob, parts[len(parts)-1])
	}
}

func globMatch(glob, name string) bool {
	ok, err := filepath.Match(glob, name)
	return err == nil && ok
}

// ParseIgnoreFile returns the raw lines of an ignore file. A missing file
// yields no patterns and no error.
func ParseIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file %s: %w", path, err)
	}
	return lines, nil
}
