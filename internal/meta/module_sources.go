package meta

import (
	"slices"
	"strings"

	"pmeta/internal/metaerr"
	"pmeta/internal/source"
)

var sourceKeys = keyed[SourceMetadata]{
	key:      SourceMetadata.SourceID,
	equal:    SourceMetadata.Equal,
	isZero:   SourceMetadata.IsZero,
	null:     func() error { return metaerr.NilSource() },
	conflict: func(a, _ SourceMetadata) error { return metaerr.SourceConflict(a.id) },
}

// ModuleSources is the source table of one module, sorted by source id.
type ModuleSources struct {
	name    string
	sources []SourceMetadata
}

func (m *ModuleSources) ModuleName() string { return m.name }

func (m *ModuleSources) SourceCount() int { return len(m.sources) }

func (m *ModuleSources) Sources() []SourceMetadata { return slices.Clone(m.sources) }

func (m *ModuleSources) Source(id string) (SourceMetadata, bool) {
	i, ok := slices.BinarySearchFunc(m.sources, id, func(s SourceMetadata, id string) int {
		return strings.Compare(s.id, id)
	})
	if !ok {
		return SourceMetadata{}, false
	}
	return m.sources[i], true
}

func (m *ModuleSources) Equal(other *ModuleSources) bool {
	if m == other {
		return true
	}
	if m == nil || other == nil {
		return false
	}
	return m.name == other.name && slices.EqualFunc(m.sources, other.sources, SourceMetadata.Equal)
}

func (m *ModuleSources) String() string {
	var sb strings.Builder
	sb.WriteString("<ModuleSources moduleName='")
	sb.WriteString(m.name)
	sb.WriteString("' sources=[")
	for i, s := range m.sources {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(s.String())
	}
	sb.WriteString("]>")
	return sb.String()
}

func (m *ModuleSources) WithSource(s SourceMetadata) (*ModuleSources, error) {
	return m.WithSources(s)
}

// WithSources upserts sources by id.
func (m *ModuleSources) WithSources(sources ...SourceMetadata) (*ModuleSources, error) {
	return ModuleSourcesBuilderFrom(m).UpdateSources(sources...).Build()
}

// WithoutSources removes sources by id, returning the receiver if none match.
func (m *ModuleSources) WithoutSources(ids ...string) *ModuleSources {
	return m.WithoutSourcesFunc(keySetPredicate(ids, SourceMetadata.SourceID))
}

func (m *ModuleSources) WithoutSourcesFunc(pred func(SourceMetadata) bool) *ModuleSources {
	if pred == nil || !slices.ContainsFunc(m.sources, pred) {
		return m
	}
	return &ModuleSources{name: m.name, sources: slices.DeleteFunc(slices.Clone(m.sources), pred)}
}

// Update removes the sources in removals, then upserts upserts.
func (m *ModuleSources) Update(upserts []SourceMetadata, removals []string) (*ModuleSources, error) {
	return m.UpdateFunc(upserts, keySetPredicate(removals, SourceMetadata.SourceID))
}

func (m *ModuleSources) UpdateFunc(upserts []SourceMetadata, remove func(SourceMetadata) bool) (*ModuleSources, error) {
	byID, order, err := sourceKeys.index(upserts)
	if err != nil {
		return nil, err
	}
	if len(byID) > 0 {
		b := ModuleSourcesBuilderFrom(m)
		b.sources, _ = removeFunc(b.sources, remove)
		b.sources = sourceKeys.upsert(b.sources, byID, order)
		return b.Build()
	}
	return m.WithoutSourcesFunc(remove), nil
}

// ModuleSourcesBuilder accumulates ModuleSources. Not safe for concurrent use.
type ModuleSourcesBuilder struct {
	name    string
	sources []SourceMetadata
	err     error
}

func NewModuleSourcesBuilder(name string) *ModuleSourcesBuilder {
	return &ModuleSourcesBuilder{name: name}
}

func ModuleSourcesBuilderFrom(m *ModuleSources) *ModuleSourcesBuilder {
	return &ModuleSourcesBuilder{name: m.name, sources: slices.Clone(m.sources)}
}

func (b *ModuleSourcesBuilder) WithModuleName(name string) *ModuleSourcesBuilder {
	b.name = name
	return b
}

func (b *ModuleSourcesBuilder) WithSource(s SourceMetadata) *ModuleSourcesBuilder {
	return b.WithSources(s)
}

func (b *ModuleSourcesBuilder) WithSources(sources ...SourceMetadata) *ModuleSourcesBuilder {
	for _, s := range sources {
		if s.IsZero() {
			b.fail(metaerr.NilSource())
			return b
		}
	}
	b.sources = append(b.sources, sources...)
	return b
}

func (b *ModuleSourcesBuilder) UpdateSources(sources ...SourceMetadata) *ModuleSourcesBuilder {
	byID, order, err := sourceKeys.index(sources)
	if err != nil {
		b.fail(err)
		return b
	}
	b.sources = sourceKeys.upsert(b.sources, byID, order)
	return b
}

func (b *ModuleSourcesBuilder) WithoutSources(ids ...string) *ModuleSourcesBuilder {
	b.sources, _ = removeFunc(b.sources, keySetPredicate(ids, SourceMetadata.SourceID))
	return b
}

func (b *ModuleSourcesBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build validates the sources: unique ids, and each id inside the module.
func (b *ModuleSourcesBuilder) Build() (*ModuleSources, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.name == "" {
		return nil, metaerr.MissingName()
	}
	sources, err := sourceKeys.sortUnique(slices.Clone(b.sources))
	if err != nil {
		return nil, err
	}
	var outside []string
	for _, s := range sources {
		if !source.InModule(s.id, b.name) {
			outside = append(outside, s.id)
		}
	}
	if len(outside) > 0 {
		return nil, metaerr.SourcesOutsideModule(b.name, outside)
	}
	if len(sources) == 0 {
		sources = nil
	}
	return &ModuleSources{name: b.name, sources: sources}, nil
}
