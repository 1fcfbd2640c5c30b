package scan

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Locator walks a resource tree and yields the files worth scanning.
type Locator struct {
	extensions []string
	skipDirs   []string
}

func NewLocator(extensions, skipDirs []string) *Locator {
	l := &Locator{}
	for _, ext := range extensions {
		l.extensions = append(l.extensions, strings.ToLower(strings.TrimSpace(ext)))
	}
	for _, dir := range skipDirs {
		l.skipDirs = append(l.skipDirs, strings.ToLower(strings.TrimSpace(dir)))
	}
	return l
}

// Walk visits every candidate file under root in lexical order. Unreadable
// directories are reported through warn and skipped, never fatal.
func (l *Locator) Walk(root string, visit func(path string) error, warn func(path string, err error)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if warn != nil {
				warn(path, err)
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && l.skipDir(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if !l.wantFile(d.Name()) {
			return nil
		}
		return visit(path)
	})
}

// Directory exclusion matches by substring, so "cache" also skips
// "resource_cache" and "cachedir".
func (l *Locator) skipDir(name string) bool {
	lower := strings.ToLower(name)
	for _, skip := range l.skipDirs {
		if strings.Contains(lower, skip) {
			return true
		}
	}
	return false
}

func (l *Locator) wantFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range l.extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
