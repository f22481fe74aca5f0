package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ajkachnic/bliss/pkg/modules"
)

// SourceExt is the extension of bliss source files. Import paths may omit it.
const SourceExt = ".bl"

// Locator resolves source-module import paths to files.
//
// A path starting with "./" or "../" is relative to the importing file only.
// Otherwise a path whose first segment names a package resolves inside that
// package, and any other path is tried against the importing file's
// directory and then each search root in order.
type Locator struct {
	roots    []string
	packages map[string]string
}

func NewLocator(roots []string, packages map[string]string) *Locator {
	l := &Locator{packages: make(map[string]string, len(packages))}
	seen := make(map[string]struct{}, len(roots))
	for _, root := range roots {
		if root == "" {
			continue
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		l.roots = append(l.roots, abs)
	}
	for name, dir := range packages {
		l.packages[name] = dir
	}
	return l
}

// Roots lists the search roots in the order they are tried.
func (l *Locator) Roots() []string {
	return append([]string(nil), l.roots...)
}

// Locate returns the absolute file for path imported from importer, or an
// error wrapping modules.ErrNotFound.
func (l *Locator) Locate(path, importer string) (string, error) {
	rel := filepath.FromSlash(path)
	if filepath.Ext(rel) != SourceExt {
		rel += SourceExt
	}

	var candidates []string
	base := ""
	if importer != "" {
		if abs, err := filepath.Abs(importer); err == nil {
			base = filepath.Dir(abs)
		}
	}
	switch {
	case filepath.IsAbs(rel):
		candidates = append(candidates, rel)
	case strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../"):
		if base == "" {
			base, _ = os.Getwd()
		}
		candidates = append(candidates, filepath.Join(base, rel))
	default:
		if pkg, rest, ok := l.packageFile(path); ok {
			candidates = append(candidates, filepath.Join(pkg, rest))
			break
		}
		if base != "" {
			candidates = append(candidates, filepath.Join(base, rel))
		}
		for _, root := range l.roots {
			candidates = append(candidates, filepath.Join(root, rel))
		}
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return filepath.Clean(candidate), nil
		}
	}
	return "", fmt.Errorf("%w: %s (searched %s)", modules.ErrNotFound, path, strings.Join(candidates, ", "))
}

// packageFile maps "pkg" to the package's main module and "pkg/a/b" to
// a/b inside it.
func (l *Locator) packageFile(path string) (string, string, bool) {
	name, rest, _ := strings.Cut(path, "/")
	dir, ok := l.packages[name]
	if !ok {
		return "", "", false
	}
	if rest == "" {
		rest = "main"
	}
	rest = filepath.FromSlash(rest)
	if filepath.Ext(rest) != SourceExt {
		rest += SourceExt
	}
	return dir, rest, true
}

func (l *Locator) ReadSource(file string) ([]byte, error) {
	return os.ReadFile(file)
}
