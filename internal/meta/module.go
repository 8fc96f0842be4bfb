package meta

import (
	"pmeta/internal/metaerr"
)

// Module aggregates all metadata generated for one module.
type Module struct {
	manifest *Manifest
	sources  *ModuleSources
	extRefs  *ModuleExternalReferences
	backRefs *ModuleBackReferences
	funcs    *ModuleFunctionNames
}

// AssembleModule joins separately stored parts. All parts must name the
// module of the manifest; nil parts other than the manifest are empty.
func AssembleModule(manifest *Manifest, sources *ModuleSources, extRefs *ModuleExternalReferences,
	backRefs *ModuleBackReferences, funcs *ModuleFunctionNames) (*Module, error) {
	if manifest == nil {
		return nil, metaerr.MissingName()
	}
	name := manifest.name
	if sources == nil {
		sources = &ModuleSources{name: name}
	}
	if extRefs == nil {
		extRefs = &ModuleExternalReferences{name: name}
	}
	if backRefs == nil {
		backRefs = &ModuleBackReferences{name: name, refIDVersion: extRefs.refIDVersion}
	}
	if funcs == nil {
		funcs = &ModuleFunctionNames{name: name}
	}
	for _, part := range []struct {
		kind string
		name string
	}{
		{"source metadata", sources.name},
		{"external reference metadata", extRefs.name},
		{"back reference metadata", backRefs.name},
		{"function name metadata", funcs.name},
	} {
		if part.name != name {
			return nil, metaerr.PartsMismatch(name, part.name, part.kind)
		}
	}
	return &Module{manifest: manifest, sources: sources, extRefs: extRefs, backRefs: backRefs, funcs: funcs}, nil
}

func (m *Module) ModuleName() string      { return m.manifest.name }
func (m *Module) ReferenceIDVersion() int { return m.extRefs.refIDVersion }
func (m *Module) Dependencies() []string  { return m.manifest.Dependencies() }

func (m *Module) Manifest() *Manifest                          { return m.manifest }
func (m *Module) Sources() *ModuleSources                      { return m.sources }
func (m *Module) ExternalReferences() *ModuleExternalReferences { return m.extRefs }
func (m *Module) BackReferences() *ModuleBackReferences         { return m.backRefs }
func (m *Module) FunctionNames() *ModuleFunctionNames           { return m.funcs }

func (m *Module) Equal(other *Module) bool {
	if m == other {
		return true
	}
	if m == nil || other == nil {
		return false
	}
	return m.manifest.Equal(other.manifest) &&
		m.sources.Equal(other.sources) &&
		m.extRefs.Equal(other.extRefs) &&
		m.backRefs.Equal(other.backRefs) &&
		m.funcs.Equal(other.funcs)
}

// ModuleBuilder is the target of metadata generators. Not safe for concurrent use.
type ModuleBuilder struct {
	name     string
	manifest *ManifestBuilder
	sources  *ModuleSourcesBuilder
	extRefs  *ModuleExternalReferencesBuilder
	backRefs *ModuleBackReferencesBuilder
	funcs    *ModuleFunctionNamesBuilder
}

func NewModuleBuilder(name string) *ModuleBuilder {
	return &ModuleBuilder{
		name:     name,
		manifest: NewManifestBuilder(name),
		sources:  NewModuleSourcesBuilder(name),
		extRefs:  NewModuleExternalReferencesBuilder(name),
		backRefs: NewModuleBackReferencesBuilder(name),
		funcs:    NewModuleFunctionNamesBuilder(name),
	}
}

func (b *ModuleBuilder) WithReferenceIDVersion(v int) *ModuleBuilder {
	b.extRefs.WithReferenceIDVersion(v)
	b.backRefs.WithReferenceIDVersion(v)
	return b
}

func (b *ModuleBuilder) WithDependencies(deps ...string) *ModuleBuilder {
	b.manifest.WithDependencies(deps...)
	return b
}

func (b *ModuleBuilder) WithElement(e Element) *ModuleBuilder {
	b.manifest.WithElement(e)
	return b
}

func (b *ModuleBuilder) WithElements(elements ...Element) *ModuleBuilder {
	b.manifest.WithElements(elements...)
	return b
}

func (b *ModuleBuilder) WithSource(s SourceMetadata) *ModuleBuilder {
	b.sources.WithSource(s)
	return b
}

func (b *ModuleBuilder) WithSources(sources ...SourceMetadata) *ModuleBuilder {
	b.sources.WithSources(sources...)
	return b
}

func (b *ModuleBuilder) WithExternalReferences(elementPath string, refs ...string) *ModuleBuilder {
	b.extRefs.WithExternalReferences(elementPath, refs...)
	return b
}

// WithBackReferences records refs into elementPath, grouped under instanceRefID.
func (b *ModuleBuilder) WithBackReferences(elementPath, instanceRefID string, refs ...BackReference) *ModuleBuilder {
	b.backRefs.WithBackReferences(elementPath, instanceRefID, refs...)
	return b
}

func (b *ModuleBuilder) WithElementBackReferences(m ElementBackReferences) *ModuleBuilder {
	b.backRefs.WithElement(m)
	return b
}

func (b *ModuleBuilder) WithFunctionByName(name, path string) *ModuleBuilder {
	b.funcs.WithFunction(name, path)
	return b
}

func (b *ModuleBuilder) WithFunctionsByName(name string, paths ...string) *ModuleBuilder {
	b.funcs.WithFunction(name, paths...)
	return b
}

func (b *ModuleBuilder) Build() (*Module, error) {
	if b.name == "" {
		return nil, metaerr.MissingName()
	}
	manifest, err := b.manifest.Build()
	if err != nil {
		return nil, err
	}
	sources, err := b.sources.Build()
	if err != nil {
		return nil, err
	}
	extRefs, err := b.extRefs.Build()
	if err != nil {
		return nil, err
	}
	backRefs, err := b.backRefs.Build()
	if err != nil {
		return nil, err
	}
	funcs, err := b.funcs.Build()
	if err != nil {
		return nil, err
	}
	return &Module{manifest: manifest, sources: sources, extRefs: extRefs, backRefs: backRefs, funcs: funcs}, nil
}
