// Package metaindex собирает манифесты многих модулей в единый индекс только
// для чтения: модули, элементы, источники, классификаторы и дерево пакетов.
package metaindex

import (
	"maps"
	"slices"
	"strings"

	"pmeta/internal/meta"
)

type moduleEntry struct {
	manifest *meta.Manifest
	module   *meta.Module // nil when only the manifest was registered
}

type elementEntry struct {
	element meta.Element
	module  *moduleEntry
}

// Index is immutable once built and safe for concurrent readers.
type Index struct {
	modules      []*moduleEntry // registration order
	moduleByName map[string]*moduleEntry
	elements     map[string]elementEntry
	sources      map[string][]meta.Element // span order
	classifiers  map[string][]meta.Element // path order
	packages     map[string]meta.Packageable
	children     map[string][]meta.Packageable
	referrers    map[string][]string
}

// Modules

func (idx *Index) HasModule(name string) bool {
	_, ok := idx.moduleByName[name]
	return ok
}

// Module returns the manifest registered under name, or nil.
func (idx *Index) Module(name string) *meta.Manifest {
	if e, ok := idx.moduleByName[name]; ok {
		return e.manifest
	}
	return nil
}

// ModuleMetadata returns the full module registered under name, or nil when
// only a manifest was registered.
func (idx *Index) ModuleMetadata(name string) *meta.Module {
	if e, ok := idx.moduleByName[name]; ok {
		return e.module
	}
	return nil
}

// ModuleNames returns module names in registration order.
func (idx *Index) ModuleNames() []string {
	out := make([]string, 0, len(idx.modules))
	for _, e := range idx.modules {
		out = append(out, e.manifest.ModuleName())
	}
	return out
}

func (idx *Index) Modules() []*meta.Manifest {
	out := make([]*meta.Manifest, 0, len(idx.modules))
	for _, e := range idx.modules {
		out = append(out, e.manifest)
	}
	return out
}

// Elements

func (idx *Index) ElementCount() int { return len(idx.elements) }

func (idx *Index) HasElement(path string) bool {
	_, ok := idx.elements[path]
	return ok
}

func (idx *Index) Element(path string) (meta.Element, bool) {
	e, ok := idx.elements[path]
	return e.element, ok
}

// ElementModule returns the name of the module declaring path.
func (idx *Index) ElementModule(path string) (string, bool) {
	e, ok := idx.elements[path]
	if !ok {
		return "", false
	}
	return e.module.manifest.ModuleName(), true
}

func (idx *Index) ElementPaths() []string {
	return slices.SortedFunc(maps.Keys(idx.elements), meta.ComparePaths)
}

func (idx *Index) Elements() []meta.Element {
	paths := idx.ElementPaths()
	out := make([]meta.Element, len(paths))
	for i, p := range paths {
		out[i] = idx.elements[p].element
	}
	return out
}

// TopLevelElements returns concrete elements whose path has no package prefix.
func (idx *Index) TopLevelElements() []meta.Element {
	out := []meta.Element{}
	for _, p := range idx.ElementPaths() {
		if meta.IsTopLevel(p) {
			out = append(out, idx.elements[p].element)
		}
	}
	return out
}

// Sources

func (idx *Index) HasSource(id string) bool {
	_, ok := idx.sources[id]
	return ok
}

func (idx *Index) Sources() []string {
	return slices.Sorted(maps.Keys(idx.sources))
}

// SourceElements returns the elements of source id in position order, nil
// for an unknown source.
func (idx *Index) SourceElements(id string) []meta.Element {
	elems, ok := idx.sources[id]
	if !ok {
		return nil
	}
	return slices.Clone(elems)
}

// Classifiers

func (idx *Index) HasClassifier(path string) bool {
	_, ok := idx.classifiers[path]
	return ok
}

func (idx *Index) Classifiers() []string {
	return slices.SortedFunc(maps.Keys(idx.classifiers), meta.ComparePaths)
}

// ClassifierElements never returns nil.
func (idx *Index) ClassifierElements(classifier string) []meta.Element {
	elems := idx.classifiers[classifier]
	if elems == nil {
		return []meta.Element{}
	}
	return slices.Clone(elems)
}

// Packages

func (idx *Index) HasPackage(path string) bool {
	_, ok := idx.packages[path]
	return ok
}

// Package returns a concrete package element or a virtual package.
func (idx *Index) Package(path string) (meta.Packageable, bool) {
	p, ok := idx.packages[path]
	return p, ok
}

func (idx *Index) PackagePaths() []string {
	return slices.SortedFunc(maps.Keys(idx.packages), meta.ComparePaths)
}

func (idx *Index) Packages() []meta.Packageable {
	paths := idx.PackagePaths()
	out := make([]meta.Packageable, len(paths))
	for i, p := range paths {
		out[i] = idx.packages[p]
	}
	return out
}

// PackageChildren returns the direct children of a package in path order:
// nil for an unknown package, empty for a package without children.
func (idx *Index) PackageChildren(path string) []meta.Packageable {
	kids, ok := idx.children[path]
	if !ok {
		return nil
	}
	return slices.Clone(kids)
}

// References

// BackReferences merges the back references every registered module holds
// for the target element path.
func (idx *Index) BackReferences(path string) (meta.ElementBackReferences, bool) {
	var b *meta.ElementBackReferencesBuilder
	for _, e := range idx.modules {
		if e.module == nil {
			continue
		}
		ebr, ok := e.module.BackReferences().Element(path)
		if !ok {
			continue
		}
		if b == nil {
			b = meta.ElementBackReferencesBuilderFrom(ebr)
			continue
		}
		b.Merge(ebr)
	}
	if b == nil {
		return meta.ElementBackReferences{}, false
	}
	// пути совпадают, ошибки слияния невозможны
	ebr, err := b.Build()
	return ebr, err == nil
}

// ExternalReferences returns what the element at path points to outside of
// itself, as recorded by its declaring module.
func (idx *Index) ExternalReferences(path string) []string {
	e, ok := idx.elements[path]
	if !ok || e.module.module == nil {
		return nil
	}
	return e.module.module.ExternalReferences().References(path)
}

// Referrers returns the elements whose external references contain ref.
func (idx *Index) Referrers(ref string) []string {
	return slices.Clone(idx.referrers[ref])
}

// FunctionPaths collects the declaring paths of a function short name across
// modules.
func (idx *Index) FunctionPaths(name string) []string {
	var out []string
	for _, e := range idx.modules {
		if e.module == nil {
			continue
		}
		out = append(out, e.module.FunctionNames().Paths(name)...)
	}
	slices.SortFunc(out, strings.Compare)
	return slices.Compact(out)
}
