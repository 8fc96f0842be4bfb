package metaindex

import (
	"context"
	"maps"
	"slices"
	"strconv"

	"pmeta/internal/meta"
	"pmeta/internal/metaerr"
	"pmeta/internal/trace"
)

// Builder accumulates manifests and module metadata. It is single-owner.
type Builder struct {
	manifests []*meta.Manifest
	modules   map[*meta.Manifest]*meta.Module
}

func NewBuilder() *Builder {
	return &Builder{modules: make(map[*meta.Manifest]*meta.Module)}
}

// WithModule registers a manifest. Nil manifests are ignored.
func (b *Builder) WithModule(m *meta.Manifest) *Builder {
	if m != nil {
		b.manifests = append(b.manifests, m)
	}
	return b
}

func (b *Builder) WithModules(ms ...*meta.Manifest) *Builder {
	for _, m := range ms {
		b.WithModule(m)
	}
	return b
}

// WithModuleMetadata registers a module together with its sources, external
// and back references.
func (b *Builder) WithModuleMetadata(ms ...*meta.Module) *Builder {
	for _, m := range ms {
		if m == nil {
			continue
		}
		b.manifests = append(b.manifests, m.Manifest())
		b.modules[m.Manifest()] = m
	}
	return b
}

func (b *Builder) Build() (*Index, error) {
	return b.BuildContext(context.Background())
}

// BuildContext builds the index and traces the build under ctx.
func (b *Builder) BuildContext(ctx context.Context) (*Index, error) {
	ctx, span := trace.Start(ctx, trace.ScopeStage, "index.build")
	idx, err := b.build(ctx)
	if err != nil {
		trace.Failure(ctx, "index.build", err)
		span.End("failed")
		return nil, err
	}
	span.WithExtra("modules", strconv.Itoa(len(idx.modules))).
		WithExtra("elements", strconv.Itoa(len(idx.elements))).
		End("")
	return idx, nil
}

func (b *Builder) build(ctx context.Context) (*Index, error) {
	idx := &Index{
		moduleByName: make(map[string]*moduleEntry, len(b.manifests)),
		elements:     make(map[string]elementEntry),
		sources:      make(map[string][]meta.Element),
		classifiers:  make(map[string][]meta.Element),
		packages:     make(map[string]meta.Packageable),
		children:     make(map[string][]meta.Packageable),
	}

	// 1. модули в порядке регистрации
	for _, m := range b.manifests {
		if _, dup := idx.moduleByName[m.ModuleName()]; dup {
			return nil, metaerr.ModuleConflict(m.ModuleName())
		}
		entry := &moduleEntry{manifest: m, module: b.modules[m]}
		idx.modules = append(idx.modules, entry)
		idx.moduleByName[m.ModuleName()] = entry
		trace.Point(ctx, trace.ScopeModule, "index.module", m.ModuleName())
	}

	// 2. элементы, источники, классификаторы
	for _, entry := range idx.modules {
		for _, e := range entry.manifest.Elements() {
			if prev, dup := idx.elements[e.Path()]; dup {
				return nil, metaerr.PathConflict(e.Path(), prev.element.Describe(), e.Describe())
			}
			idx.elements[e.Path()] = elementEntry{element: e, module: entry}
			idx.sources[e.Source().SourceID()] = append(idx.sources[e.Source().SourceID()], e)
			idx.classifiers[e.ClassifierPath()] = append(idx.classifiers[e.ClassifierPath()], e)
		}
		if entry.module != nil {
			for _, s := range entry.module.Sources().Sources() {
				if _, ok := idx.sources[s.SourceID()]; !ok {
					idx.sources[s.SourceID()] = []meta.Element{}
				}
			}
		}
	}
	for id := range idx.sources {
		slices.SortStableFunc(idx.sources[id], func(a, c meta.Element) int {
			return a.Source().Compare(c.Source())
		})
	}
	for cls := range idx.classifiers {
		slices.SortFunc(idx.classifiers[cls], comparePackageable[meta.Element])
	}

	if err := idx.buildPackages(); err != nil {
		return nil, err
	}
	idx.buildReferences()
	return idx, nil
}

// buildPackages восстанавливает дерево пакетов из префиксов путей.
func (idx *Index) buildPackages() error {
	if len(idx.elements) == 0 {
		return nil
	}
	implied := map[string]struct{}{meta.RootPath: {}}
	for path := range idx.elements {
		for _, prefix := range meta.PackagePrefixes(path) {
			implied[prefix] = struct{}{}
		}
	}
	for _, path := range slices.SortedFunc(maps.Keys(implied), meta.ComparePaths) {
		if entry, ok := idx.elements[path]; ok {
			e := entry.element
			if e.ClassifierPath() != meta.PackageClassifier {
				return metaerr.PathConflict(path, e.Describe(), "instance of Package")
			}
			idx.packages[path] = e
			continue
		}
		idx.packages[path] = meta.NewVirtualPackage(path)
	}
	// конкретные пакеты без потомков тоже пакеты
	for path, entry := range idx.elements {
		if entry.element.ClassifierPath() == meta.PackageClassifier {
			idx.packages[path] = entry.element
		}
	}

	for path := range idx.packages {
		idx.children[path] = nil
	}
	for path, pkg := range idx.packages {
		parent, ok := meta.ParentPath(path)
		if !ok {
			continue
		}
		idx.children[parent] = append(idx.children[parent], pkg)
	}
	for path, entry := range idx.elements {
		if _, isPkg := idx.packages[path]; isPkg {
			continue
		}
		if parent, ok := meta.ParentPath(path); ok {
			idx.children[parent] = append(idx.children[parent], entry.element)
		}
	}
	for path, kids := range idx.children {
		if kids == nil {
			idx.children[path] = []meta.Packageable{}
			continue
		}
		slices.SortFunc(kids, comparePackageable[meta.Packageable])
	}
	return nil
}

func (idx *Index) buildReferences() {
	referrers := make(map[string][]string)
	for _, entry := range idx.modules {
		if entry.module == nil {
			continue
		}
		for _, ext := range entry.module.ExternalReferences().Elements() {
			for _, ref := range ext.ExternalReferences() {
				referrers[ref] = append(referrers[ref], ext.ElementPath())
			}
		}
	}
	for ref, paths := range referrers {
		slices.SortFunc(paths, meta.ComparePaths)
		referrers[ref] = slices.Compact(paths)
	}
	idx.referrers = referrers
}

func comparePackageable[T meta.Packageable](a, b T) int {
	return meta.ComparePaths(a.Path(), b.Path())
}
