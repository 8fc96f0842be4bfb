package meta

import (
	"slices"
	"strings"

	"pmeta/internal/metaerr"
)

var elementKeys = keyed[Element]{
	key:    Element.Path,
	equal:  Element.Equal,
	isZero: Element.IsZero,
	null:   func() error { return metaerr.NilElement() },
	conflict: func(a, b Element) error {
		return metaerr.ElementConflict(a.path, a.Describe(), b.Describe())
	},
}

// Manifest is the element table of one module: dependencies and element
// metadata, sorted by path. A Manifest is immutable.
type Manifest struct {
	name         string
	dependencies []string
	elements     []Element
}

func (m *Manifest) ModuleName() string { return m.name }

func (m *Manifest) Dependencies() []string { return slices.Clone(m.dependencies) }

func (m *Manifest) ElementCount() int { return len(m.elements) }

// Elements returns the elements in ordinal path order.
func (m *Manifest) Elements() []Element { return slices.Clone(m.elements) }

// Element looks up an element by exact path.
func (m *Manifest) Element(path string) (Element, bool) {
	i, ok := slices.BinarySearchFunc(m.elements, path, func(e Element, p string) int {
		return strings.Compare(e.path, p)
	})
	if !ok {
		return Element{}, false
	}
	return m.elements[i], true
}

func (m *Manifest) Equal(other *Manifest) bool {
	if m == other {
		return true
	}
	if m == nil || other == nil {
		return false
	}
	return m.name == other.name &&
		slices.Equal(m.dependencies, other.dependencies) &&
		slices.Equal(m.elements, other.elements)
}

func (m *Manifest) String() string {
	var sb strings.Builder
	sb.WriteString("<Manifest moduleName='")
	sb.WriteString(m.name)
	sb.WriteString("' dependencies=[")
	sb.WriteString(strings.Join(m.dependencies, ", "))
	sb.WriteString("] elements=[")
	for i, e := range m.elements {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.String())
	}
	sb.WriteString("]>")
	return sb.String()
}

// WithElement upserts one element by path.
func (m *Manifest) WithElement(e Element) (*Manifest, error) {
	return m.WithElements(e)
}

// WithElements upserts elements by path: a different element replaces the
// existing one, an identical one is a no-op.
func (m *Manifest) WithElements(elements ...Element) (*Manifest, error) {
	return ManifestBuilderFrom(m).UpdateElements(elements...).Build()
}

// WithoutElements removes elements by path. The receiver is returned when
// nothing matches.
func (m *Manifest) WithoutElements(paths ...string) *Manifest {
	return m.WithoutElementsFunc(keySetPredicate(paths, Element.Path))
}

// WithoutElementsFunc removes the elements matching pred. The receiver is
// returned when nothing matches.
func (m *Manifest) WithoutElementsFunc(pred func(Element) bool) *Manifest {
	if pred == nil || !slices.ContainsFunc(m.elements, pred) {
		return m
	}
	kept := slices.DeleteFunc(slices.Clone(m.elements), pred)
	return &Manifest{name: m.name, dependencies: m.dependencies, elements: kept}
}

// Update removes the elements at removals, then upserts upserts.
// With nothing to do it returns the receiver.
func (m *Manifest) Update(upserts []Element, removals []string) (*Manifest, error) {
	return m.UpdateFunc(upserts, keySetPredicate(removals, Element.Path))
}

// UpdateFunc is Update with a removal predicate.
func (m *Manifest) UpdateFunc(upserts []Element, remove func(Element) bool) (*Manifest, error) {
	byPath, order, err := elementKeys.index(upserts)
	if err != nil {
		return nil, err
	}
	if len(byPath) > 0 {
		b := ManifestBuilderFrom(m)
		b.elements, _ = removeFunc(b.elements, remove)
		b.elements = elementKeys.upsert(b.elements, byPath, order)
		return b.Build()
	}
	return m.WithoutElementsFunc(remove), nil
}

// ManifestBuilder accumulates a Manifest. It is not safe for concurrent use.
type ManifestBuilder struct {
	name         string
	dependencies []string
	elements     []Element
	err          error
}

func NewManifestBuilder(name string) *ManifestBuilder {
	return &ManifestBuilder{name: name}
}

// ManifestBuilderFrom starts a builder holding m's content.
func ManifestBuilderFrom(m *Manifest) *ManifestBuilder {
	return &ManifestBuilder{
		name:         m.name,
		dependencies: slices.Clone(m.dependencies),
		elements:     slices.Clone(m.elements),
	}
}

func (b *ManifestBuilder) WithModuleName(name string) *ManifestBuilder {
	b.name = name
	return b
}

func (b *ManifestBuilder) WithDependency(dep string) *ManifestBuilder {
	return b.WithDependencies(dep)
}

func (b *ManifestBuilder) WithDependencies(deps ...string) *ManifestBuilder {
	for _, d := range deps {
		if d == "" {
			b.fail(metaerr.MissingDependency())
			return b
		}
	}
	b.dependencies = append(b.dependencies, deps...)
	return b
}

// WithElement adds e; duplicates are resolved by Build.
func (b *ManifestBuilder) WithElement(e Element) *ManifestBuilder {
	return b.WithElements(e)
}

func (b *ManifestBuilder) WithElements(elements ...Element) *ManifestBuilder {
	for _, e := range elements {
		if e.IsZero() {
			b.fail(metaerr.NilElement())
			return b
		}
	}
	b.elements = append(b.elements, elements...)
	return b
}

// UpdateElements upserts by path instead of adding.
func (b *ManifestBuilder) UpdateElements(elements ...Element) *ManifestBuilder {
	byPath, order, err := elementKeys.index(elements)
	if err != nil {
		b.fail(err)
		return b
	}
	b.elements = elementKeys.upsert(b.elements, byPath, order)
	return b
}

func (b *ManifestBuilder) WithoutElements(paths ...string) *ManifestBuilder {
	b.elements, _ = removeFunc(b.elements, keySetPredicate(paths, Element.Path))
	return b
}

func (b *ManifestBuilder) WithoutElementsFunc(pred func(Element) bool) *ManifestBuilder {
	b.elements, _ = removeFunc(b.elements, pred)
	return b
}

func (b *ManifestBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build validates and returns the manifest.
func (b *ManifestBuilder) Build() (*Manifest, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.name == "" {
		return nil, metaerr.MissingName()
	}
	elements, err := elementKeys.sortUnique(slices.Clone(b.elements))
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		elements = nil
	}
	return &Manifest{
		name:         b.name,
		dependencies: sortedUnique(b.dependencies),
		elements:     elements,
	}, nil
}
