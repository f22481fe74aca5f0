package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestInstallPathDependencies(t *testing.T) {
	base := t.TempDir()
	app := filepath.Join(base, "app")
	writeFile(t, filepath.Join(base, "strings", "main.bl"), "upper = fn (s) -> s\n")
	writeFile(t, filepath.Join(app, ManifestName), "name: app\nentry: main.bl\ndependencies:\n  strings: ../strings\n")
	writeFile(t, filepath.Join(app, "main.bl"), "import s from 'strings'\ns.upper('x')\n")

	manifest, err := LoadManifest(filepath.Join(app, ManifestName))
	if err != nil {
		t.Fatal(err)
	}
	var installed []string
	in := &Installer{Tool: "bliss test", Progress: func(pkg *LockedPackage) {
		installed = append(installed, pkg.Name)
	}}
	lock, err := in.Install(context.Background(), manifest)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if strings.Join(installed, ",") != "strings" {
		t.Fatalf("progress reported %v", installed)
	}
	pkg, ok := lock.Package("strings")
	if !ok || pkg.Source != "path:../strings" || !strings.HasPrefix(pkg.Checksum, "sha256:") {
		t.Fatalf("unexpected lock entry %+v", pkg)
	}

	project, err := OpenProject(app)
	if err != nil {
		t.Fatalf("OpenProject: %v", err)
	}
	if project.Lock == nil {
		t.Fatalf("install should write %s", LockfileName)
	}
	got, err := project.Locator(nil).Locate("strings", filepath.Join(app, "main.bl"))
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if want := filepath.Join(base, "strings", "main.bl"); got != want {
		t.Fatalf("Locate = %q, want %q", got, want)
	}
}

func TestInstallGitWithoutCacheFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ManifestName), "name: app\ndependencies:\n  remote:\n    git: https://example.com/r.git\n    rev: abc\n")
	manifest, err := LoadManifest(filepath.Join(dir, ManifestName))
	if err != nil {
		t.Fatal(err)
	}
	in := &Installer{Git: NewGitFetcher("")}
	if _, err := in.Install(context.Background(), manifest); err == nil {
		t.Fatalf("expected failure without a cache directory")
	}
	if _, err := os.Stat(filepath.Join(dir, LockfileName)); !os.IsNotExist(err) {
		t.Fatalf("failed install must not write a lockfile")
	}
}

func TestDirChecksumIgnoresGitMetadata(t *testing.T) {
	a := t.TempDir()
	b := t.TempDir()
	writeFile(t, filepath.Join(a, "main.bl"), "x = 1\n")
	writeFile(t, filepath.Join(b, "main.bl"), "x = 1\n")
	writeFile(t, filepath.Join(b, ".git", "HEAD"), "ref: refs/heads/master\n")
	sumA, err := dirChecksum(a)
	if err != nil {
		t.Fatal(err)
	}
	sumB, err := dirChecksum(b)
	if err != nil {
		t.Fatal(err)
	}
	if sumA != sumB {
		t.Fatalf("checksums differ: %s vs %s", sumA, sumB)
	}
	writeFile(t, filepath.Join(b, "main.bl"), "x = 2\n")
	if sumB2, _ := dirChecksum(b); sumB2 == sumB {
		t.Fatalf("content change should change the checksum")
	}
}

func TestGitFetcherChecksOutRevision(t *testing.T) {
	remote := t.TempDir()
	repo, err := git.PlainInit(remote, false)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	writeFile(t, filepath.Join(remote, "main.bl"), "greeting = 'hi'\n")
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("main.bl"); err != nil {
		t.Fatal(err)
	}
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "bliss", Email: "bliss@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	fetcher := NewGitFetcher(filepath.Join(t.TempDir(), "cache"))
	spec := &DependencySpec{Git: remote, Rev: hash.String()}
	pkg, err := fetcher.Fetch(context.Background(), "greet", spec)
	if err != nil {
		t.Skipf("local git transport unavailable: %v", err)
	}
	if pkg.Version != hash.String() || pkg.Source != "git+"+remote+"@"+hash.String() {
		t.Fatalf("unexpected lock entry %+v", pkg)
	}
	if _, err := os.Stat(filepath.Join(pkg.Dir, "main.bl")); err != nil {
		t.Fatalf("checkout missing main.bl: %v", err)
	}
	if _, err := os.Stat(filepath.Join(pkg.Dir, ".git")); !os.IsNotExist(err) {
		t.Fatalf("checkout should not keep git metadata")
	}

	again, err := fetcher.Fetch(context.Background(), "greet", spec)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if again.Dir != pkg.Dir || again.Checksum != pkg.Checksum {
		t.Fatalf("pinned revision should reuse the checkout: %+v vs %+v", again, pkg)
	}
}
