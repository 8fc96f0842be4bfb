package metagen

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"pmeta/internal/meta"
	"pmeta/internal/trace"
)

// Driver runs generators over one module at a time.
type Driver struct {
	Jobs               int // <= 0 means GOMAXPROCS
	ReferenceIDVersion int
	Elements           ElementGenerator
	Sources            SourceGenerator // optional
}

func (d *Driver) jobs(n int) int {
	jobs := d.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	return max(1, min(jobs, n))
}

// GenerateModule generates every element and source of module concurrently
// and folds the results in the order the graph listed them.
func (d *Driver) GenerateModule(ctx context.Context, g Graph, module string) (*meta.Module, error) {
	if d.Elements == nil {
		return nil, fmt.Errorf("metagen: no element generator")
	}
	ctx, span := trace.Start(ctx, trace.ScopeModule, "generate:"+module)

	mod, err := d.generate(ctx, g, module)
	if err != nil {
		trace.Failure(ctx, "generate:"+module, err)
		span.End("failed")
		return nil, err
	}
	span.WithExtra("elements", strconv.Itoa(mod.Manifest().ElementCount())).End("")
	return mod, nil
}

func (d *Driver) generate(ctx context.Context, g Graph, module string) (*meta.Module, error) {
	paths, err := g.ModuleElements(module)
	if err != nil {
		return nil, fmt.Errorf("list elements of %s: %w", module, err)
	}
	sourceIDs, err := g.ModuleSources(module)
	if err != nil {
		return nil, fmt.Errorf("list sources of %s: %w", module, err)
	}
	deps, err := g.ModuleDependencies(module)
	if err != nil {
		return nil, fmt.Errorf("list dependencies of %s: %w", module, err)
	}

	// каждый слот пишет ровно одна горутина, мьютекс не нужен
	elements := make([]ElementResult, len(paths))
	var sources []meta.SourceMetadata
	if d.Sources != nil {
		sources = make([]meta.SourceMetadata, len(sourceIDs))
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(d.jobs(len(paths) + len(sources)))
	for i, path := range paths {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, s := trace.Start(gctx, trace.ScopeElement, path)
			res, err := d.Elements.Generate(gctx, g, path)
			s.End("")
			if err != nil {
				return fmt.Errorf("generate %s: %w", path, err)
			}
			elements[i] = res
			return nil
		})
	}
	for i, id := range sourceIDs {
		if d.Sources == nil {
			break
		}
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := d.Sources.Source(gctx, g, id)
			if err != nil {
				return fmt.Errorf("generate source %s: %w", id, err)
			}
			sources[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	b := meta.NewModuleBuilder(module).
		WithReferenceIDVersion(d.ReferenceIDVersion).
		WithDependencies(deps...).
		WithSources(sources...)
	indexer, _ := d.Elements.(FunctionIndexer)
	for _, res := range elements {
		b.WithElement(res.Element)
		if len(res.ExternalReferences) > 0 {
			b.WithExternalReferences(res.Element.Path(), res.ExternalReferences...)
		}
		for _, ebr := range res.BackReferences {
			b.WithElementBackReferences(ebr)
		}
		if indexer != nil {
			if name, ok := indexer.FunctionName(res.Element); ok {
				b.WithFunctionByName(name, res.Element.Path())
			}
		}
	}
	return b.Build()
}

// GenerateModules runs GenerateModule for each name in order.
func (d *Driver) GenerateModules(ctx context.Context, g Graph, modules ...string) ([]*meta.Module, error) {
	out := make([]*meta.Module, 0, len(modules))
	for _, name := range modules {
		m, err := d.GenerateModule(ctx, g, name)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
