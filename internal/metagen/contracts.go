// Package metagen describes the producers that walk a compiled graph and
// feed module metadata builders, plus a driver that runs them concurrently.
//
// The graph and the generators live outside this module; only their
// contracts are here.
package metagen

import (
	"context"

	"pmeta/internal/meta"
)

// Graph is a read-only view of a compiled program. Implementations must allow
// concurrent calls while the graph is not being mutated.
type Graph interface {
	// ModuleElements lists the packageable elements of module in a stable
	// order.
	ModuleElements(module string) ([]string, error)
	// ModuleSources lists the source ids of module.
	ModuleSources(module string) ([]string, error)
	// ModuleDependencies lists the modules module depends on.
	ModuleDependencies(module string) ([]string, error)
}

// ElementResult is what one element contributes to its module.
type ElementResult struct {
	Element meta.Element
	// ExternalReferences are paths the element points to outside itself.
	ExternalReferences []string
	// BackReferences are keyed by the referenced element, not by Element.
	BackReferences []meta.ElementBackReferences
}

// ElementGenerator computes the metadata of one element.
type ElementGenerator interface {
	Generate(ctx context.Context, g Graph, path string) (ElementResult, error)
}

// SourceGenerator computes the section metadata of one source.
type SourceGenerator interface {
	Source(ctx context.Context, g Graph, sourceID string) (meta.SourceMetadata, error)
}

// FunctionIndexer is optionally implemented by an ElementGenerator whose
// elements include functions.
type FunctionIndexer interface {
	FunctionName(e meta.Element) (name string, ok bool)
}

type ElementGeneratorFunc func(ctx context.Context, g Graph, path string) (ElementResult, error)

func (f ElementGeneratorFunc) Generate(ctx context.Context, g Graph, path string) (ElementResult, error) {
	return f(ctx, g, path)
}

type SourceGeneratorFunc func(ctx context.Context, g Graph, sourceID string) (meta.SourceMetadata, error)

func (f SourceGeneratorFunc) Source(ctx context.Context, g Graph, sourceID string) (meta.SourceMetadata, error) {
	return f(ctx, g, sourceID)
}
