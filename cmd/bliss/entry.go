package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/ajkachnic/bliss/pkg/diagnostics"
	"github.com/ajkachnic/bliss/pkg/driver"
	"github.com/ajkachnic/bliss/pkg/interpreter"
	"github.com/ajkachnic/bliss/pkg/modules"
	"github.com/ajkachnic/bliss/pkg/runtime"
)

// maxTraceLines bounds the call trace printed for a runtime error.
const maxTraceLines = 10

// resolveTarget picks the program a command works on: the file named in
// args, or the entry of the enclosing project.
func resolveTarget(args []string, command string) (string, *driver.Project, error) {
	switch len(args) {
	case 0:
		project, err := driver.OpenProject(".")
		if err != nil {
			return "", nil, err
		}
		if project.Manifest == nil {
			return "", nil, fmt.Errorf("bliss %s: no file given and %w", command, errManifestNotFound)
		}
		entry := project.Manifest.EntryPath()
		if entry == "" {
			return "", nil, fmt.Errorf("bliss %s: %s has no entry", command, project.Manifest.Path)
		}
		return entry, project, nil
	case 1:
		project, err := driver.OpenProject(filepath.Dir(args[0]))
		if err != nil {
			return "", nil, err
		}
		return args[0], project, nil
	}
	return "", nil, fmt.Errorf("bliss %s: expected at most one file, got %d", command, len(args))
}

func maxCallDepth(project *driver.Project) (int, error) {
	if value := os.Getenv("BLISS_MAX_DEPTH"); value != "" {
		depth, err := strconv.Atoi(value)
		if err != nil || depth <= 0 {
			return 0, fmt.Errorf("BLISS_MAX_DEPTH must be a positive integer, got %q", value)
		}
		return depth, nil
	}
	return project.MaxCallDepth(), nil
}

func newInterpreter(project *driver.Project) (*interpreter.Interpreter, error) {
	depth, err := maxCallDepth(project)
	if err != nil {
		return nil, err
	}
	registry := modules.NewRegistry()
	registerStdlib(registry)
	if os.Getenv("BLISS_TRACE") != "" {
		registry.OnLoad(func(ev modules.LoadEvent) {
			if ev.Err != nil {
				fmt.Fprintf(os.Stderr, "trace: failed to load %s after %s: %v\n", ev.Key, ev.Duration, ev.Err)
				return
			}
			fmt.Fprintf(os.Stderr, "trace: loaded %s in %s\n", ev.Key, ev.Duration)
		})
	}
	return interpreter.New(interpreter.Options{
		MaxCallDepth: depth,
		Stdout:       os.Stdout,
		Registry:     registry,
		Sources:      project.Locator(driver.SplitSearchPath(os.Getenv("BLISS_PATH"))),
	}), nil
}

// load reads and resolves the target, printing diagnostics on failure.
func load(args []string, command string) (*interpreter.Interpreter, *interpreter.Program, string, bool) {
	path, project, err := resolveTarget(args, command)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, "", false
	}
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bliss %s: %v\n", command, err)
		return nil, nil, "", false
	}
	interp, err := newInterpreter(project)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, "", false
	}
	prog, err := interp.Load(path, string(src))
	if err != nil {
		reportError(path, string(src), err)
		return nil, nil, "", false
	}
	if len(prog.Warnings) > 0 {
		fmt.Fprint(os.Stderr, diagnostics.Render(path, string(src), prog.Warnings))
	}
	return interp, prog, string(src), true
}

func runEntry(args []string) int {
	interp, prog, src, ok := load(args, "run")
	if !ok {
		return 1
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if _, err := interp.Run(ctx, prog); err != nil {
		reportError(prog.Name, src, err)
		return 1
	}
	return 0
}

func runCheck(args []string) int {
	_, prog, _, ok := load(args, "check")
	if !ok {
		return 1
	}
	fmt.Fprintf(os.Stdout, "%s: ok\n", prog.Name)
	return 0
}

// reportError prints err for the program at path, with a source snippet
// when the error points into src.
func reportError(path, src string, err error) {
	var rerr *runtime.Error
	var derr *diagnostics.Error
	switch {
	case errors.As(err, &rerr):
		fmt.Fprintln(os.Stderr, rerr.Error())
		if rerr.Source == path && rerr.Pos.IsValid() {
			fmt.Fprint(os.Stderr, diagnostics.Snippet(src, rerr.Pos))
		}
		for i, entry := range rerr.Trace {
			if i == maxTraceLines {
				fmt.Fprintf(os.Stderr, "  ... %d more calls\n", len(rerr.Trace)-i)
				break
			}
			fmt.Fprintf(os.Stderr, "  in %s called at %s\n", entry.Function, entry.Pos)
		}
	case errors.As(err, &derr):
		if derr.Path != path {
			src = ""
		}
		fmt.Fprint(os.Stderr, diagnostics.Render(derr.Path, src, derr.Diagnostics.Errors()))
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr, "interrupted")
	default:
		fmt.Fprintln(os.Stderr, err)
	}
}
