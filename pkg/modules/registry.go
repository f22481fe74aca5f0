// Package modules resolves import paths to module values. Every module is
// loaded at most once per registry; concurrent importers of a module that is
// still loading wait for the same result.
package modules

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ajkachnic/bliss/pkg/runtime"
)

// NativePrefix marks paths reserved for host-provided modules.
const NativePrefix = "std:"

// ErrNotFound is returned by finders that do not know a path.
var ErrNotFound = errors.New("module not found")

// Loader produces a module the first time it is imported. ctx carries the
// chain of imports in progress and must be passed to any nested import.
type Loader func(ctx context.Context) (*runtime.ModuleValue, error)

// Finder locates modules that were not registered up front. Find returns a
// canonical key (imports of the same key share one load) and its loader, or
// ErrNotFound. importer is the name of the importing program, if any.
type Finder interface {
	Find(path, importer string) (key string, load Loader, err error)
}

// FinderFunc adapts a function to Finder.
type FinderFunc func(path, importer string) (string, Loader, error)

func (f FinderFunc) Find(path, importer string) (string, Loader, error) {
	return f(path, importer)
}

// LoadEvent describes one completed module load.
type LoadEvent struct {
	Key      string
	Duration time.Duration
	Err      error
}

type entry struct {
	done   chan struct{}
	module *runtime.ModuleValue
	err    error
}

// Registry maps module paths to loaded modules. The zero value is not
// usable; call NewRegistry.
type Registry struct {
	mu      sync.Mutex
	loaders map[string]Loader
	entries map[string]*entry
	finders []Finder
	onLoad  func(LoadEvent)
}

func NewRegistry() *Registry {
	return &Registry{
		loaders: make(map[string]Loader),
		entries: make(map[string]*entry),
	}
}

// Register installs a loader for path, replacing any previous loader that
// has not run yet.
func (r *Registry) Register(path string, load Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[path] = load
}

// RegisterModule installs an already built module under its own path.
func (r *Registry) RegisterModule(mod *runtime.ModuleValue) {
	done := make(chan struct{})
	close(done)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[mod.Path] = &entry{done: done, module: mod}
}

// AddFinder appends a finder consulted, in order, for paths with no
// registered loader. Finders never see NativePrefix paths.
func (r *Registry) AddFinder(f Finder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finders = append(r.finders, f)
}

// OnLoad sets a callback invoked after each load completes.
func (r *Registry) OnLoad(fn func(LoadEvent)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onLoad = fn
}

// Loaded lists the keys of modules that finished loading successfully.
func (r *Registry) Loaded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for key, e := range r.entries {
		select {
		case <-e.done:
			if e.err == nil {
				out = append(out, key)
			}
		default:
		}
	}
	return out
}

// Resolve imports path with no importing program.
func (r *Registry) Resolve(ctx context.Context, path string) (*runtime.ModuleValue, error) {
	return r.Import(ctx, path, "")
}

// Import returns the module for path, loading it on first use. Failures are
// reported as runtime ImportErrors naming path. A load abandoned because its
// importer was cancelled is forgotten, so other importers load it again.
func (r *Registry) Import(ctx context.Context, path, importer string) (*runtime.ModuleValue, error) {
	for {
		key, load, err := r.locate(path, importer)
		if err != nil {
			return nil, runtime.NewImportError(path, err)
		}

		chain := chainFrom(ctx)
		for i, k := range chain {
			if k == key {
				cycle := append(append([]string{}, chain[i:]...), key)
				return nil, runtime.NewImportError(path, fmt.Errorf("import cycle: %s", strings.Join(cycle, " -> ")))
			}
		}

		r.mu.Lock()
		e, exists := r.entries[key]
		if !exists && load == nil {
			// the entry locate saw was dropped in the meantime
			r.mu.Unlock()
			continue
		}
		if !exists {
			e = &entry{done: make(chan struct{})}
			r.entries[key] = e
		}
		onLoad := r.onLoad
		r.mu.Unlock()

		if !exists {
			next := append(append([]string(nil), chain...), key)
			r.load(withChain(ctx, next), key, load, e, onLoad)
		} else {
			select {
			case <-e.done:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			if cancelled(e.err) && ctx.Err() == nil {
				continue
			}
		}
		if e.err != nil {
			var rerr *runtime.Error
			if errors.As(e.err, &rerr) && rerr.Kind == runtime.ImportError {
				return nil, rerr
			}
			return nil, runtime.NewImportError(path, e.err)
		}
		return e.module, nil
	}
}

func cancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (r *Registry) load(ctx context.Context, key string, load Loader, e *entry, onLoad func(LoadEvent)) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			e.err = fmt.Errorf("loader panicked: %v", p)
		}
		if e.err == nil && e.module == nil {
			e.err = fmt.Errorf("loader returned no module")
		}
		if cancelled(e.err) {
			r.mu.Lock()
			if r.entries[key] == e {
				delete(r.entries, key)
			}
			r.mu.Unlock()
		}
		close(e.done)
		if onLoad != nil {
			onLoad(LoadEvent{Key: key, Duration: time.Since(start), Err: e.err})
		}
	}()
	e.module, e.err = load(ctx)
}

// locate finds the canonical key and loader for path. It does not hold the
// lock while finders run.
func (r *Registry) locate(path, importer string) (string, Loader, error) {
	if path == "" {
		return "", nil, fmt.Errorf("empty module path")
	}
	r.mu.Lock()
	if _, ok := r.entries[path]; ok {
		r.mu.Unlock()
		return path, nil, nil
	}
	if load, ok := r.loaders[path]; ok {
		r.mu.Unlock()
		return path, load, nil
	}
	finders := append([]Finder(nil), r.finders...)
	r.mu.Unlock()

	if strings.HasPrefix(path, NativePrefix) {
		return "", nil, ErrNotFound
	}
	for _, f := range finders {
		key, load, err := f.Find(path, importer)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return "", nil, err
		}
		return key, load, nil
	}
	return "", nil, ErrNotFound
}

type chainKey struct{}

func chainFrom(ctx context.Context) []string {
	chain, _ := ctx.Value(chainKey{}).([]string)
	return chain
}

func withChain(ctx context.Context, chain []string) context.Context {
	return context.WithValue(ctx, chainKey{}, chain)
}
