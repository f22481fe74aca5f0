package modules

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ajkachnic/bliss/pkg/runtime"
)

func constModule(path string) *runtime.ModuleValue {
	return runtime.NewModule(path, map[string]runtime.Value{"answer": runtime.Number(42)})
}

func TestConcurrentFirstLoadRunsOnce(t *testing.T) {
	reg := NewRegistry()
	var calls atomic.Int32
	release := make(chan struct{})
	reg.Register("std:slow", func(ctx context.Context) (*runtime.ModuleValue, error) {
		calls.Add(1)
		<-release
		return constModule("std:slow"), nil
	})

	const importers = 8
	results := make([]*runtime.ModuleValue, importers)
	errs := make([]error, importers)
	var wg sync.WaitGroup
	for i := 0; i < importers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = reg.Resolve(context.Background(), "std:slow")
		}(i)
	}
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("expected one load, got %d", calls.Load())
	}
	for i := range results {
		if errs[i] != nil {
			t.Fatalf("importer %d failed: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Fatalf("importers must share one module value")
		}
	}
}

func TestUnknownPathIsImportError(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Resolve(context.Background(), "std:nope")
	var rerr *runtime.Error
	if !errors.As(err, &rerr) || rerr.Kind != runtime.ImportError || rerr.Path != "std:nope" {
		t.Fatalf("expected ImportError naming the path, got %v", err)
	}
	if !strings.Contains(err.Error(), "std:nope") {
		t.Fatalf("message should name the path: %v", err)
	}
}

func TestFindersSkipNativePaths(t *testing.T) {
	reg := NewRegistry()
	var asked []string
	reg.AddFinder(FinderFunc(func(path, importer string) (string, Loader, error) {
		asked = append(asked, path)
		if path != "./util" {
			return "", nil, ErrNotFound
		}
		return "/src/util.bl", func(ctx context.Context) (*runtime.ModuleValue, error) {
			return constModule("/src/util.bl"), nil
		}, nil
	}))

	if _, err := reg.Resolve(context.Background(), "std:missing"); err == nil {
		t.Fatalf("expected std:missing to fail")
	}
	mod, err := reg.Import(context.Background(), "./util", "/src/main.bl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mod.Path != "/src/util.bl" {
		t.Fatalf("unexpected module %s", mod.Path)
	}
	if len(asked) != 1 || asked[0] != "./util" {
		t.Fatalf("finder should only see the source path, saw %v", asked)
	}
	if loaded := reg.Loaded(); len(loaded) != 1 || loaded[0] != "/src/util.bl" {
		t.Fatalf("unexpected loaded set %v", loaded)
	}
}

func TestImportCycleIsReported(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", func(ctx context.Context) (*runtime.ModuleValue, error) {
		if _, err := reg.Resolve(ctx, "b"); err != nil {
			return nil, err
		}
		return constModule("a"), nil
	})
	reg.Register("b", func(ctx context.Context) (*runtime.ModuleValue, error) {
		if _, err := reg.Resolve(ctx, "a"); err != nil {
			return nil, err
		}
		return constModule("b"), nil
	})

	_, err := reg.Resolve(context.Background(), "a")
	if !errors.Is(err, runtime.ErrImport) {
		t.Fatalf("expected import error, got %v", err)
	}
	if !strings.Contains(err.Error(), "import cycle: a -> b -> a") {
		t.Fatalf("expected cycle description, got %v", err)
	}
}

func TestFailedLoadIsCachedAndObserved(t *testing.T) {
	reg := NewRegistry()
	var calls atomic.Int32
	var events []LoadEvent
	reg.OnLoad(func(ev LoadEvent) { events = append(events, ev) })
	reg.Register("std:broken", func(ctx context.Context) (*runtime.ModuleValue, error) {
		calls.Add(1)
		return nil, errors.New("boom")
	})
	for i := 0; i < 2; i++ {
		_, err := reg.Resolve(context.Background(), "std:broken")
		var rerr *runtime.Error
		if !errors.As(err, &rerr) || rerr.Path != "std:broken" || !strings.Contains(rerr.Message, "boom") {
			t.Fatalf("expected wrapped load failure, got %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("failed load should not be retried, ran %d times", calls.Load())
	}
	if len(events) != 1 || events[0].Key != "std:broken" || events[0].Err == nil {
		t.Fatalf("unexpected load events %+v", events)
	}
}

func TestCancelledLoadIsNotCached(t *testing.T) {
	reg := NewRegistry()
	var calls atomic.Int32
	reg.Register("lib", func(ctx context.Context) (*runtime.ModuleValue, error) {
		calls.Add(1)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return constModule("lib"), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := reg.Resolve(ctx, "lib"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	mod, err := reg.Resolve(context.Background(), "lib")
	if err != nil {
		t.Fatalf("a later import should load again, got %v", err)
	}
	if v, ok := mod.Export("answer"); !ok || !runtime.Equal(v, runtime.Number(42)) {
		t.Fatalf("unexpected export %v", v)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected two loads, got %d", calls.Load())
	}
}

func TestWaiterRetriesAfterCancelledLoad(t *testing.T) {
	reg := NewRegistry()
	var calls atomic.Int32
	started := make(chan struct{})
	reg.Register("lib", func(ctx context.Context) (*runtime.ModuleValue, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return constModule("lib"), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := reg.Resolve(ctx, "lib")
		firstErr <- err
	}()
	<-started

	second := make(chan error, 1)
	go func() {
		_, err := reg.Resolve(context.Background(), "lib")
		second <- err
	}()
	cancel()

	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the cancelled importer to fail, got %v", err)
	}
	if err := <-second; err != nil {
		t.Fatalf("independent importer should succeed, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected two loads, got %d", calls.Load())
	}
}

func TestRegisterModuleIsImmediatelyAvailable(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterModule(constModule("std:const"))
	mod, err := reg.Resolve(context.Background(), "std:const")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := mod.Export("answer"); !ok || !runtime.Equal(v, runtime.Number(42)) {
		t.Fatalf("unexpected export %v", v)
	}
}
