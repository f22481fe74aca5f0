package interpreter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ajkachnic/bliss/pkg/diagnostics"
	"github.com/ajkachnic/bliss/pkg/modules"
	"github.com/ajkachnic/bliss/pkg/runtime"
)

const handlerSource = `
handle = fn (req, res) -> [req.method, req.path] :: {
  [:GET, '/'] -> res.send('hello world'),
  [method, '/'] -> {
    res.status(405);
    res.send("method #{method} not allowed")
  },
}
`

type recorder struct {
	status int
	body   string
}

func (r *recorder) record() *runtime.RecordValue {
	return runtime.NewRecordBuilder(2).
		Set(runtime.StringKey("status"), &runtime.NativeFunctionValue{
			Name:  "status",
			Arity: 1,
			Impl: func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				n, ok := args[0].(runtime.NumberValue)
				if !ok {
					return nil, ctx.TypeError("number", args[0])
				}
				r.status = int(n.Val)
				return runtime.Null, nil
			},
		}).
		Set(runtime.StringKey("send"), &runtime.NativeFunctionValue{
			Name:  "send",
			Arity: 1,
			Impl: func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				r.body = runtime.ToString(args[0])
				return nil, nil
			},
		}).
		Build()
}

func TestHostCallsScriptHandler(t *testing.T) {
	interp := quiet()
	res := mustExec(t, interp, handlerSource)
	handle, ok := res.Globals["handle"]
	if !ok {
		t.Fatalf("handle not exported, globals %v", res.Globals)
	}

	cases := []struct {
		method string
		status int
		body   string
	}{
		{"GET", 200, "hello world"},
		{"POST", 405, "method POST not allowed"},
	}
	for _, tc := range cases {
		req := runtime.NewRecordBuilder(2).
			Set(runtime.StringKey("method"), interp.Atoms().Intern(tc.method)).
			Set(runtime.StringKey("path"), runtime.String("/")).
			Build()
		rec := &recorder{status: 200}
		if _, err := interp.Call(context.Background(), handle, req, rec.record()); err != nil {
			t.Fatalf("%s: unexpected error %v", tc.method, err)
		}
		if rec.status != tc.status || rec.body != tc.body {
			t.Errorf("%s: got %d %q, want %d %q", tc.method, rec.status, rec.body, tc.status, tc.body)
		}
	}

	req := runtime.NewRecordBuilder(2).
		Set(runtime.StringKey("method"), interp.Atoms().Intern("GET")).
		Set(runtime.StringKey("path"), runtime.String("/missing")).
		Build()
	_, err := interp.Call(context.Background(), handle, req, (&recorder{}).record())
	if !errors.Is(err, runtime.ErrMatch) {
		t.Fatalf("unrouted request should fail to match, got %v", err)
	}
}

func TestCallArityAndNonFunction(t *testing.T) {
	interp := quiet()
	res := mustExec(t, interp, "inc = fn (x) -> x + 1")
	inc := res.Globals["inc"]

	v, err := interp.Call(context.Background(), inc, runtime.Number(1))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	expectValue(t, v, runtime.Number(2))

	if _, err := interp.Call(context.Background(), inc); !errors.Is(err, runtime.ErrArity) {
		t.Fatalf("expected arity error, got %v", err)
	}
	if _, err := interp.Call(context.Background(), runtime.Number(1)); !errors.Is(err, runtime.ErrTypeError) {
		t.Fatalf("expected type error, got %v", err)
	}
}

func TestImportFailureStopsProgram(t *testing.T) {
	var out bytes.Buffer
	interp := New(Options{Stdout: &out})
	_, err := interp.Exec(context.Background(), "main.bl", "log('before')\nimport m from 'std:missing'\nlog('after')")
	var rerr *runtime.Error
	if !errors.As(err, &rerr) || rerr.Kind != runtime.ImportError {
		t.Fatalf("expected import error, got %v", err)
	}
	if rerr.Path != "std:missing" || rerr.Pos.Line != 2 {
		t.Fatalf("import error should name the path and line, got %+v", rerr)
	}
	if out.String() != "before\n" {
		t.Fatalf("statements after the failed import must not run, output %q", out.String())
	}
}

func TestCapturedFrameOutlivesCall(t *testing.T) {
	heap := runtime.NewHeap()
	interp := New(Options{Stdout: &bytes.Buffer{}, Heap: heap})
	res := mustExec(t, interp, `
make = fn () -> {
  secret = 42
  fn () -> secret
}
reveal = make()
other = make()
[reveal(), other(), reveal == other]
`)
	expectValue(t, res.Value, runtime.NewTuple(runtime.Number(42), runtime.Number(42), runtime.False))
	stats := heap.Stats()
	if stats.Released < 2 {
		t.Fatalf("frames of the inner calls should return to the heap, stats %+v", stats)
	}
	if stats.Allocated+stats.Reused != 4 {
		t.Fatalf("expected four call frames, stats %+v", stats)
	}
}

func TestConcurrentCalls(t *testing.T) {
	interp := quiet()
	res := mustExec(t, interp, "sum = fn (n, acc) -> if n == 0 { acc } else { sum(n - 1, acc + n) }")
	sum := res.Globals["sum"]

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := interp.Call(context.Background(), sum, runtime.Number(1000), runtime.Number(0))
			if err != nil {
				errs <- err
				return
			}
			if !runtime.Equal(v, runtime.Number(500500)) {
				errs <- fmt.Errorf("got %s", runtime.Inspect(v))
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestHostErrorsKeepTheirCause(t *testing.T) {
	errBoom := errors.New("boom")
	interp := quiet()
	interp.Registry().RegisterModule(runtime.NativeModule("std:boom",
		&runtime.NativeFunctionValue{
			Name: "explode",
			Impl: func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				return nil, fmt.Errorf("explode: %w", errBoom)
			},
		},
		&runtime.NativeFunctionValue{
			Name:  "count",
			Arity: 1,
			Impl: func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				return nil, ctx.TypeError("list", args[0])
			},
		},
	))

	rerr := execErr(t, interp, "import boom from 'std:boom'\nx = 1\nboom.explode()")
	if rerr.Kind != runtime.HostError || rerr.Pos.Line != 3 {
		t.Fatalf("expected host error on line 3, got %+v", rerr)
	}
	if !errors.Is(rerr, errBoom) || !errors.Is(rerr, runtime.ErrHost) {
		t.Fatalf("host error should wrap its cause, got %v", rerr)
	}

	rerr = execErr(t, interp, "import boom from 'std:boom'\nboom.count(1)")
	if rerr.Kind != runtime.TypeError || rerr.Pos.Line != 2 {
		t.Fatalf("native type errors keep their kind, got %+v", rerr)
	}

	rerr = execErr(t, interp, "import boom from 'std:boom'\nboom.nothing")
	if rerr.Kind != runtime.TypeError || rerr.Name != "nothing" {
		t.Fatalf("missing export should be a type error naming it, got %+v", rerr)
	}
}

func TestNativeCallbacks(t *testing.T) {
	interp := quiet()
	interp.Registry().RegisterModule(runtime.NativeModule("std:each",
		&runtime.NativeFunctionValue{
			Name:  "map",
			Arity: 2,
			Impl: func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
				list, ok := args[0].(*runtime.ListValue)
				if !ok {
					return nil, ctx.TypeError("list", args[0])
				}
				out := make([]runtime.Value, len(list.Elements))
				for i, el := range list.Elements {
					v, err := ctx.Call(args[1], el)
					if err != nil {
						return nil, err
					}
					out[i] = v
				}
				return runtime.NewList(out...), nil
			},
		},
	))
	res := mustExec(t, interp, `
import each from 'std:each'
double = fn (x) -> x * 2
#[1, 2, 3] |> each.map(double)
`)
	expectValue(t, res.Value, runtime.NewList(runtime.Number(2), runtime.Number(4), runtime.Number(6)))

	rerr := execErr(t, interp, "import each from 'std:each'\neach.map(#[1, 'a'], fn (x) -> x * 2)")
	if rerr.Kind != runtime.TypeError {
		t.Fatalf("errors inside callbacks should surface, got %v", rerr)
	}
}

func TestSessionKeepsBindings(t *testing.T) {
	ctx := context.Background()
	s := quiet().NewSession("repl")

	if _, _, err := s.Eval(ctx, "x = 40"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	v, _, err := s.Eval(ctx, "x + 2")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	expectValue(t, v, runtime.Number(42))

	if _, _, err := s.Eval(ctx, "x - 'a'"); !errors.Is(err, runtime.ErrTypeError) {
		t.Fatalf("expected type error, got %v", err)
	}
	var derr *diagnostics.Error
	if _, _, err := s.Eval(ctx, "nope"); !errors.As(err, &derr) {
		t.Fatalf("expected static error, got %v", err)
	}

	v, _, err = s.Eval(ctx, "y = x * 2\ny")
	if err != nil {
		t.Fatalf("session should continue after errors, got %v", err)
	}
	expectValue(t, v, runtime.Number(80))
	if y, ok := s.Lookup("y"); !ok || !runtime.Equal(y, runtime.Number(80)) {
		t.Fatalf("lookup y = %v, %v", y, ok)
	}
	if _, ok := s.Lookup("z"); ok {
		t.Fatalf("z was never declared")
	}
}

type mapSources map[string]string

func (m mapSources) Locate(path, importer string) (string, error) {
	name := path + ".bl"
	if _, ok := m[name]; !ok {
		return "", fmt.Errorf("%s: %w", path, modules.ErrNotFound)
	}
	return name, nil
}

func (m mapSources) ReadSource(file string) ([]byte, error) {
	return []byte(m[file]), nil
}

func TestSourceModules(t *testing.T) {
	var out bytes.Buffer
	interp := New(Options{Stdout: &out, Sources: mapSources{
		"geometry.bl": "log('loading geometry')\nsquare = fn (x) -> x * x\nside = 3",
		"a.bl":        "import b from 'b'\nx = 1",
		"b.bl":        "import a from 'a'\ny = 2",
	}})

	for range 2 {
		res := mustExec(t, interp, "import g from 'geometry'\ng.square(g.side)")
		expectValue(t, res.Value, runtime.Number(9))
	}
	if out.String() != "loading geometry\n" {
		t.Fatalf("module body should run once, output %q", out.String())
	}

	rerr := execErr(t, interp, "import a from 'a'")
	if rerr.Kind != runtime.ImportError || !strings.Contains(rerr.Error(), "import cycle: a.bl -> b.bl -> a.bl") {
		t.Fatalf("expected import cycle, got %v", rerr)
	}

	rerr = execErr(t, interp, "import nothing from 'nowhere'")
	if rerr.Path != "nowhere" || !errors.Is(rerr, modules.ErrNotFound) {
		t.Fatalf("expected not found, got %v", rerr)
	}
}
