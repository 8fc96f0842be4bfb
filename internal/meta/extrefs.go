package meta

import (
	"slices"
	"strings"

	"pmeta/internal/metaerr"
)

// ElementExternalReferences lists the reference ids an element points to
// outside its own declaration, sorted and unique.
type ElementExternalReferences struct {
	path string
	refs []string
}

func NewElementExternalReferences(path string, refs ...string) ElementExternalReferences {
	return ElementExternalReferences{path: path, refs: sortedUnique(refs)}
}

func (e ElementExternalReferences) ElementPath() string          { return e.path }
func (e ElementExternalReferences) ExternalReferences() []string { return slices.Clone(e.refs) }

func (e ElementExternalReferences) Equal(other ElementExternalReferences) bool {
	return e.path == other.path && slices.Equal(e.refs, other.refs)
}

// ModuleExternalReferences holds external references per element, sorted by path.
type ModuleExternalReferences struct {
	name         string
	refIDVersion int
	elements     []ElementExternalReferences
}

func (m *ModuleExternalReferences) ModuleName() string      { return m.name }
func (m *ModuleExternalReferences) ReferenceIDVersion() int { return m.refIDVersion }

func (m *ModuleExternalReferences) Elements() []ElementExternalReferences {
	return slices.Clone(m.elements)
}

// References returns the external references of path, or nil.
func (m *ModuleExternalReferences) References(path string) []string {
	i, ok := slices.BinarySearchFunc(m.elements, path, func(e ElementExternalReferences, p string) int {
		return strings.Compare(e.path, p)
	})
	if !ok {
		return nil
	}
	return m.elements[i].ExternalReferences()
}

func (m *ModuleExternalReferences) Equal(other *ModuleExternalReferences) bool {
	if m == other {
		return true
	}
	if m == nil || other == nil {
		return false
	}
	return m.name == other.name &&
		m.refIDVersion == other.refIDVersion &&
		slices.EqualFunc(m.elements, other.elements, ElementExternalReferences.Equal)
}

// ModuleExternalReferencesBuilder merges references of the same element.
type ModuleExternalReferencesBuilder struct {
	name         string
	refIDVersion int
	refs         map[string][]string
	err          error
}

func NewModuleExternalReferencesBuilder(name string) *ModuleExternalReferencesBuilder {
	return &ModuleExternalReferencesBuilder{name: name, refs: make(map[string][]string)}
}

func (b *ModuleExternalReferencesBuilder) WithReferenceIDVersion(v int) *ModuleExternalReferencesBuilder {
	b.refIDVersion = v
	return b
}

func (b *ModuleExternalReferencesBuilder) WithExternalReferences(path string, refs ...string) *ModuleExternalReferencesBuilder {
	if path == "" {
		if b.err == nil {
			b.err = metaerr.MissingPath()
		}
		return b
	}
	b.refs[path] = append(b.refs[path], refs...)
	return b
}

func (b *ModuleExternalReferencesBuilder) WithElement(e ElementExternalReferences) *ModuleExternalReferencesBuilder {
	return b.WithExternalReferences(e.path, e.refs...)
}

func (b *ModuleExternalReferencesBuilder) Build() (*ModuleExternalReferences, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.name == "" {
		return nil, metaerr.MissingName()
	}
	paths := make([]string, 0, len(b.refs))
	for p := range b.refs {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	var elements []ElementExternalReferences
	for _, p := range paths {
		elements = append(elements, NewElementExternalReferences(p, b.refs[p]...))
	}
	return &ModuleExternalReferences{name: b.name, refIDVersion: b.refIDVersion, elements: elements}, nil
}
