package driver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// Fetcher installs one remote dependency.
type Fetcher interface {
	Fetch(ctx context.Context, name string, spec *DependencySpec) (*LockedPackage, error)
}

// Installer resolves every dependency of a manifest and records the result
// in a lockfile.
type Installer struct {
	Git  Fetcher
	Tool string
	// Progress, if set, is called after each dependency is installed.
	Progress func(pkg *LockedPackage)
}

// Install installs the dependencies of m and writes bliss.lock next to it.
func (in *Installer) Install(ctx context.Context, m *Manifest) (*Lockfile, error) {
	lock := NewLockfile(m.Name, in.Tool)
	lock.Path = filepath.Join(m.Dir(), LockfileName)
	for _, name := range m.DependencyNames() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		spec := m.Dependencies[name]
		var (
			pkg *LockedPackage
			err error
		)
		switch {
		case spec.Path != "":
			pkg, err = lockPathDependency(m.Dir(), name, spec)
		case in.Git == nil:
			err = fmt.Errorf("dependency %q: git dependencies need a cache directory", name)
		default:
			pkg, err = in.Git.Fetch(ctx, name, spec)
		}
		if err != nil {
			return nil, err
		}
		lock.Packages = append(lock.Packages, pkg)
		if in.Progress != nil {
			in.Progress(pkg)
		}
	}
	if err := WriteLockfile(lock, ""); err != nil {
		return nil, err
	}
	return lock, nil
}

func lockPathDependency(root, name string, spec *DependencySpec) (*LockedPackage, error) {
	dir := spec.Path
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("dependency %q: %w", name, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dependency %q: %s is not a directory", name, dir)
	}
	checksum, err := dirChecksum(dir)
	if err != nil {
		return nil, fmt.Errorf("dependency %q: checksum: %w", name, err)
	}
	return &LockedPackage{
		Name:     name,
		Source:   "path:" + filepath.ToSlash(spec.Path),
		Checksum: checksum,
		Dir:      dir,
	}, nil
}

// dirChecksum hashes the names and contents of every regular file under
// path in lexical order.
func dirChecksum(path string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" && p != path {
				return filepath.SkipDir
			}
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}
