package driver

import (
	"errors"
	"io/fs"
	"path/filepath"
)

// Project is the manifest governing a program together with its installed
// dependencies. Programs outside any project get a Project with a nil
// Manifest.
type Project struct {
	Manifest *Manifest
	Lock     *Lockfile
}

// OpenProject finds the manifest enclosing dir and reads its lockfile, if
// one has been written.
func OpenProject(dir string) (*Project, error) {
	path, err := FindManifest(dir)
	if errors.Is(err, ErrNoManifest) {
		return &Project{}, nil
	}
	if err != nil {
		return nil, err
	}
	m, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	lock, err := LoadLockfile(filepath.Join(m.Dir(), LockfileName))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return &Project{Manifest: m, Lock: lock}, nil
}

// MaxCallDepth is the manifest's runtime.max_call_depth, or 0 when unset.
func (p *Project) MaxCallDepth() int {
	if p.Manifest == nil {
		return 0
	}
	return p.Manifest.Runtime.MaxCallDepth
}

// Locator builds the import locator for programs in the project. Manifest
// search roots are tried before extra.
func (p *Project) Locator(extra []string) *Locator {
	var roots []string
	if p.Manifest != nil {
		roots = append(roots, p.Manifest.SearchRoots()...)
	}
	roots = append(roots, extra...)
	var packages map[string]string
	if p.Lock != nil {
		packages = p.Lock.PackageDirs()
	}
	return NewLocator(roots, packages)
}

// SplitSearchPath splits a BLISS_PATH style list of directories.
func SplitSearchPath(value string) []string {
	var out []string
	for _, dir := range filepath.SplitList(value) {
		if dir != "" {
			out = append(out, dir)
		}
	}
	return out
}
