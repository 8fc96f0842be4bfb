package meta

import (
	"slices"
	"strings"

	"pmeta/internal/metaerr"
)

// ModuleBackReferences holds the back references contributed by one module,
// per target element, sorted by element path.
type ModuleBackReferences struct {
	name         string
	refIDVersion int
	elements     []ElementBackReferences
}

func (m *ModuleBackReferences) ModuleName() string      { return m.name }
func (m *ModuleBackReferences) ReferenceIDVersion() int { return m.refIDVersion }

func (m *ModuleBackReferences) Elements() []ElementBackReferences { return slices.Clone(m.elements) }

func (m *ModuleBackReferences) Element(path string) (ElementBackReferences, bool) {
	i, ok := slices.BinarySearchFunc(m.elements, path, func(e ElementBackReferences, p string) int {
		return strings.Compare(e.path, p)
	})
	if !ok {
		return ElementBackReferences{}, false
	}
	return m.elements[i], true
}

func (m *ModuleBackReferences) Equal(other *ModuleBackReferences) bool {
	if m == other {
		return true
	}
	if m == nil || other == nil {
		return false
	}
	return m.name == other.name &&
		m.refIDVersion == other.refIDVersion &&
		slices.EqualFunc(m.elements, other.elements, ElementBackReferences.Equal)
}

// ModuleBackReferencesBuilder merges contributions per target element.
type ModuleBackReferencesBuilder struct {
	name         string
	refIDVersion int
	byPath       map[string]*ElementBackReferencesBuilder
	err          error
}

func NewModuleBackReferencesBuilder(name string) *ModuleBackReferencesBuilder {
	return &ModuleBackReferencesBuilder{name: name, byPath: make(map[string]*ElementBackReferencesBuilder)}
}

func (b *ModuleBackReferencesBuilder) WithReferenceIDVersion(v int) *ModuleBackReferencesBuilder {
	b.refIDVersion = v
	return b
}

func (b *ModuleBackReferencesBuilder) element(path string) *ElementBackReferencesBuilder {
	eb, ok := b.byPath[path]
	if !ok {
		eb = NewElementBackReferencesBuilder(path)
		b.byPath[path] = eb
	}
	return eb
}

func (b *ModuleBackReferencesBuilder) WithBackReferences(elementPath, instanceRefID string, refs ...BackReference) *ModuleBackReferencesBuilder {
	if elementPath == "" {
		b.fail(metaerr.MissingPath())
		return b
	}
	b.element(elementPath).WithBackReferences(instanceRefID, refs...)
	return b
}

func (b *ModuleBackReferencesBuilder) WithElement(m ElementBackReferences) *ModuleBackReferencesBuilder {
	if m.path == "" {
		b.fail(metaerr.MissingPath())
		return b
	}
	b.element(m.path).Merge(m)
	return b
}

func (b *ModuleBackReferencesBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build drops elements without back references.
func (b *ModuleBackReferencesBuilder) Build() (*ModuleBackReferences, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.name == "" {
		return nil, metaerr.MissingName()
	}
	paths := make([]string, 0, len(b.byPath))
	for p := range b.byPath {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	var elements []ElementBackReferences
	for _, p := range paths {
		ebr, err := b.byPath[p].WithReferenceIDVersion(b.refIDVersion).Build()
		if err != nil {
			return nil, err
		}
		if !ebr.IsEmpty() {
			elements = append(elements, ebr)
		}
	}
	return &ModuleBackReferences{name: b.name, refIDVersion: b.refIDVersion, elements: elements}, nil
}
