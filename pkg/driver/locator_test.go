package driver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ajkachnic/bliss/pkg/interpreter"
	"github.com/ajkachnic/bliss/pkg/modules"
	"github.com/ajkachnic/bliss/pkg/runtime"
)

type fixture struct {
	root, lib, pkg string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	base := t.TempDir()
	f := fixture{
		root: filepath.Join(base, "app"),
		lib:  filepath.Join(base, "lib"),
		pkg:  filepath.Join(base, "pkg"),
	}
	writeFile(t, filepath.Join(f.root, "main.bl"), "import u from 'util'\nimport s from 'shared'\nimport t from 'text/fmt'\nt.wrap(u.double(s.base))\n")
	writeFile(t, filepath.Join(f.root, "util.bl"), "double = fn (x) -> x * 2\n")
	writeFile(t, filepath.Join(f.root, "sub", "helper.bl"), "import u from '../util'\nquad = fn (x) -> u.double(u.double(x))\n")
	writeFile(t, filepath.Join(f.lib, "shared.bl"), "base = 21\n")
	writeFile(t, filepath.Join(f.lib, "util.bl"), "double = fn (x) -> 0\n")
	writeFile(t, filepath.Join(f.pkg, "main.bl"), "name = 'pkg'\n")
	writeFile(t, filepath.Join(f.pkg, "text", "fmt.bl"), "wrap = fn (x) -> '<' + x + '>'\n")
	return f
}

func TestLocatorSearchOrder(t *testing.T) {
	f := newFixture(t)
	l := NewLocator([]string{f.lib, f.lib}, map[string]string{"text": filepath.Join(f.pkg, "text"), "pkg": f.pkg})
	if len(l.Roots()) != 1 {
		t.Fatalf("duplicate roots should collapse: %v", l.Roots())
	}
	importer := filepath.Join(f.root, "main.bl")

	cases := []struct {
		path, importer, want string
	}{
		{"util", importer, filepath.Join(f.root, "util.bl")},
		{"util.bl", importer, filepath.Join(f.root, "util.bl")},
		{"shared", importer, filepath.Join(f.lib, "shared.bl")},
		{"./helper", filepath.Join(f.root, "sub", "x.bl"), filepath.Join(f.root, "sub", "helper.bl")},
		{"../util", filepath.Join(f.root, "sub", "x.bl"), filepath.Join(f.root, "util.bl")},
		{"pkg", importer, filepath.Join(f.pkg, "main.bl")},
		{"pkg/text/fmt", importer, filepath.Join(f.pkg, "text", "fmt.bl")},
		{"shared", "", filepath.Join(f.lib, "shared.bl")},
	}
	for _, tc := range cases {
		got, err := l.Locate(tc.path, tc.importer)
		if err != nil {
			t.Errorf("Locate(%q): %v", tc.path, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Locate(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}

	for _, path := range []string{"./shared", "missing", "pkg/missing"} {
		if _, err := l.Locate(path, importer); !errors.Is(err, modules.ErrNotFound) {
			t.Errorf("Locate(%q) should not be found, got %v", path, err)
		}
	}
}

func TestInterpreterImportsThroughLocator(t *testing.T) {
	f := newFixture(t)
	l := NewLocator([]string{f.lib}, map[string]string{"text": filepath.Join(f.pkg, "text")})
	interp := interpreter.New(interpreter.Options{Stdout: &bytes.Buffer{}, Sources: l})

	main := filepath.Join(f.root, "main.bl")
	src, err := os.ReadFile(main)
	if err != nil {
		t.Fatal(err)
	}
	res, err := interp.Exec(context.Background(), main, string(src))
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if !runtime.Equal(res.Value, runtime.String("<42>")) {
		t.Fatalf("got %s", runtime.Inspect(res.Value))
	}

	helper := filepath.Join(f.root, "sub", "helper.bl")
	res, err = interp.Exec(context.Background(), filepath.Join(f.root, "sub", "run.bl"), "import h from './helper'\nh.quad(3)")
	if err != nil {
		t.Fatalf("Exec relative import: %v", err)
	}
	if !runtime.Equal(res.Value, runtime.Number(12)) {
		t.Fatalf("got %s", runtime.Inspect(res.Value))
	}
	loaded := interp.Registry().Loaded()
	found := false
	for _, key := range loaded {
		if key == helper {
			found = true
		}
	}
	if !found {
		t.Fatalf("helper should be loaded under its file name, loaded %v", loaded)
	}
}
