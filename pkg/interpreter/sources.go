package interpreter

import (
	"context"
	"fmt"

	"github.com/ajkachnic/bliss/pkg/modules"
	"github.com/ajkachnic/bliss/pkg/runtime"
)

// SourceLocator maps import paths to source files. Locate returns a
// canonical file name for path as imported from importer, or an error
// wrapping modules.ErrNotFound.
type SourceLocator interface {
	Locate(path, importer string) (string, error)
	ReadSource(file string) ([]byte, error)
}

// sourceFinder loads a source module by running it; its exports are its
// top-level bindings.
type sourceFinder struct {
	interp  *Interpreter
	sources SourceLocator
}

func (f sourceFinder) Find(path, importer string) (string, modules.Loader, error) {
	file, err := f.sources.Locate(path, importer)
	if err != nil {
		return "", nil, err
	}
	return file, func(ctx context.Context) (*runtime.ModuleValue, error) {
		src, err := f.sources.ReadSource(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		prog, err := f.interp.Load(file, string(src))
		if err != nil {
			return nil, err
		}
		res, err := f.interp.Run(ctx, prog)
		if err != nil {
			return nil, err
		}
		return runtime.NewModule(file, res.Globals), nil
	}, nil
}
