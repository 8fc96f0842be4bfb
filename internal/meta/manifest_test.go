package meta

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"pmeta/internal/metaerr"
	"pmeta/internal/source"
)

const (
	classesSource      = "/test_module/model/classes.pure"
	associationsSource = "/test_module/model/associations.pure"
	enumsSource        = "/test_module/model/enums.pure"
)

func newClass(path, src string, sl, sc, el, ec int) Element {
	return MustElement(path, ClassClassifier, src, sl, sc, el, ec)
}

func newAssociation(path, src string, sl, sc, el, ec int) Element {
	return MustElement(path, AssociationClassifier, src, sl, sc, el, ec)
}

func newEnumeration(path, src string, sl, sc, el, ec int) Element {
	return MustElement(path, EnumerationClassifier, src, sl, sc, el, ec)
}

var (
	mySimpleClass       = newClass("model::test::classes::MySimpleClass", classesSource, 1, 1, 5, 1)
	myOtherClass        = newClass("model::test::classes::MyOtherClass", classesSource, 6, 1, 10, 1)
	myThirdClass        = newClass("model::test::classes::MyThirdClass", classesSource, 12, 1, 20, 1)
	simpleToOther       = newAssociation("model::test::associations::SimpleToOther", associationsSource, 2, 1, 7, 1)
	simpleToThird       = newAssociation("model::test::associations::SimpleToThird", associationsSource, 9, 1, 16, 1)
	otherToThird        = newAssociation("model::test::associations::OtherToThird", associationsSource, 18, 1, 25, 1)
	myFirstEnumeration  = newEnumeration("model::test::enums::MyFirstEnumeration", enumsSource, 3, 1, 6, 1)
	mySecondEnumeration = newEnumeration("model::test::enums::MySecondEnumeration", enumsSource, 8, 1, 10, 1)
)

func allTestElements() []Element {
	return []Element{mySimpleClass, myOtherClass, myThirdClass, simpleToOther, simpleToThird, otherToThird, myFirstEnumeration, mySecondEnumeration}
}

func sortedByPath(elements []Element) []Element {
	out := slices.Clone(elements)
	slices.SortFunc(out, func(a, b Element) int { return ComparePaths(a.Path(), b.Path()) })
	return out
}

func mustManifest(t *testing.T, b *ManifestBuilder) *Manifest {
	t.Helper()
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return m
}

func TestManifest_Empty(t *testing.T) {
	m := mustManifest(t, NewManifestBuilder("empty_module"))
	if m.ModuleName() != "empty_module" || m.ElementCount() != 0 || len(m.Elements()) != 0 {
		t.Fatalf("unexpected empty manifest: %v", m)
	}
	if !m.Equal(mustManifest(t, NewManifestBuilder("empty_module"))) {
		t.Errorf("equal empty manifests compare unequal")
	}
	if m.Equal(mustManifest(t, NewManifestBuilder("other_module"))) {
		t.Errorf("manifests with different names compare equal")
	}
}

func TestManifest_SortsAndDedupes(t *testing.T) {
	m := mustManifest(t, NewManifestBuilder("test_module").
		WithElements(allTestElements()...).
		WithElement(mySimpleClass).
		WithDependencies("platform", "core", "platform"))

	if got, want := m.Elements(), sortedByPath(allTestElements()); !slices.Equal(got, want) {
		t.Fatalf("Elements() = %v, want %v", got, want)
	}
	if got, want := m.Dependencies(), []string{"core", "platform"}; !slices.Equal(got, want) {
		t.Fatalf("Dependencies() = %v, want %v", got, want)
	}
	if e, ok := m.Element(myThirdClass.Path()); !ok || e != myThirdClass {
		t.Errorf("Element(%q) = %v, %v", myThirdClass.Path(), e, ok)
	}
	if _, ok := m.Element("model::test::classes"); ok {
		t.Errorf("package prefix found as element")
	}
}

func TestManifest_OrdinalOrder(t *testing.T) {
	a := newClass("model::test::X", classesSource, 1, 1, 2, 1)
	b := newClass("model::test2::X", classesSource, 3, 1, 4, 1)
	m := mustManifest(t, NewManifestBuilder("test_module").WithElements(a, b))
	if got := m.Elements(); got[0] != b || got[1] != a {
		t.Fatalf("Elements() = %v, want test2 before test", got)
	}
}

func TestManifest_Errors(t *testing.T) {
	conflicting := newClass(mySimpleClass.Path(), classesSource, 1, 1, 6, 1)
	tests := []struct {
		name    string
		builder *ManifestBuilder
		kind    metaerr.Kind
		msg     string
	}{
		{
			name:    "missing name",
			builder: NewManifestBuilder(""),
			kind:    metaerr.MissingModuleName,
			msg:     "module name may not be null",
		},
		{
			name:    "null element",
			builder: NewManifestBuilder("test_module").WithElements(mySimpleClass, Element{}),
			kind:    metaerr.NullElement,
			msg:     "element metadata may not be null",
		},
		{
			name:    "conflict",
			builder: NewManifestBuilder("test_module").WithElements(mySimpleClass, myOtherClass, conflicting),
			kind:    metaerr.DuplicateElement,
			msg:     "Conflict for element: model::test::classes::MySimpleClass",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			if err == nil {
				t.Fatalf("Build() succeeded, want %v", tt.kind)
			}
			if metaerr.KindOf(err) != tt.kind {
				t.Errorf("kind = %v, want %v", metaerr.KindOf(err), tt.kind)
			}
			if err.Error() != tt.msg {
				t.Errorf("message = %q, want %q", err.Error(), tt.msg)
			}
		})
	}
}

func TestManifest_ConflictNamesBothEntries(t *testing.T) {
	conflicting := newAssociation(mySimpleClass.Path(), associationsSource, 3, 1, 4, 1)
	_, err := NewManifestBuilder("test_module").WithElements(mySimpleClass, conflicting).Build()
	var me *metaerr.Error
	if !errors.As(err, &me) {
		t.Fatalf("error %v is not *metaerr.Error", err)
	}
	if me.Path != mySimpleClass.Path() {
		t.Errorf("Path = %q, want %q", me.Path, mySimpleClass.Path())
	}
	both := strings.Join(me.Entries, " | ")
	for _, want := range []string{ClassClassifier, AssociationClassifier, classesSource + ":1c1-5c1", associationsSource + ":3c1-4c1"} {
		if !strings.Contains(both, want) {
			t.Errorf("conflict details %q missing %q", both, want)
		}
	}
}

func TestManifest_WithElements(t *testing.T) {
	base := mustManifest(t, NewManifestBuilder("test_module").WithElements(mySimpleClass, myOtherClass, simpleToOther))

	same, err := base.WithElements()
	if err != nil || !same.Equal(base) {
		t.Fatalf("WithElements() = %v, %v", same, err)
	}
	same, err = base.WithElements(base.Elements()...)
	if err != nil || !same.Equal(base) {
		t.Fatalf("re-adding identical elements changed the manifest: %v, %v", same, err)
	}

	plus, err := base.WithElement(myThirdClass)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := plus.Elements(), sortedByPath([]Element{mySimpleClass, myOtherClass, simpleToOther, myThirdClass}); !slices.Equal(got, want) {
		t.Fatalf("plus = %v, want %v", got, want)
	}

	replacement := newClass(mySimpleClass.Path(), classesSource, 1, 1, 4, 9)
	replaced, err := base.WithElements(replacement, myThirdClass)
	if err != nil {
		t.Fatal(err)
	}
	if e, _ := replaced.Element(mySimpleClass.Path()); e != replacement {
		t.Fatalf("element not replaced: %v", e)
	}
	if replaced.ElementCount() != 4 {
		t.Fatalf("ElementCount() = %d, want 4", replaced.ElementCount())
	}
	if base.ElementCount() != 3 {
		t.Fatalf("base manifest mutated: %v", base)
	}

	if _, err := base.WithElements(myThirdClass, Element{}); !errors.Is(err, metaerr.ErrNullElement) {
		t.Fatalf("null element error = %v", err)
	}
	conflicting := newClass(myThirdClass.Path(), classesSource, 30, 1, 31, 1)
	if _, err := base.WithElements(myThirdClass, conflicting); !errors.Is(err, metaerr.ErrDuplicateElement) {
		t.Fatalf("conflicting upserts error = %v", err)
	}
}

func TestManifest_WithoutElements(t *testing.T) {
	base := mustManifest(t, NewManifestBuilder("test_module").WithElements(allTestElements()...))

	if base.WithoutElements() != base {
		t.Errorf("WithoutElements() returned a new instance")
	}
	if base.WithoutElements("model::not::There") != base {
		t.Errorf("WithoutElements(unknown) returned a new instance")
	}
	if base.WithoutElementsFunc(func(Element) bool { return false }) != base {
		t.Errorf("WithoutElementsFunc(false) returned a new instance")
	}

	fewer := base.WithoutElements(mySimpleClass.Path(), "model::not::There")
	if fewer == base || fewer.ElementCount() != base.ElementCount()-1 {
		t.Fatalf("WithoutElements = %v", fewer)
	}
	if _, ok := fewer.Element(mySimpleClass.Path()); ok {
		t.Fatalf("removed element still present")
	}

	noClasses := base.WithoutElementsFunc(func(e Element) bool { return e.ClassifierPath() == ClassClassifier })
	want := sortedByPath([]Element{simpleToOther, simpleToThird, otherToThird, myFirstEnumeration, mySecondEnumeration})
	if got := noClasses.Elements(); !slices.Equal(got, want) {
		t.Fatalf("WithoutElementsFunc = %v, want %v", got, want)
	}
}

func TestManifest_Update(t *testing.T) {
	base := mustManifest(t, NewManifestBuilder("test_module").WithElements(allTestElements()...))

	same, err := base.Update(nil, nil)
	if err != nil || same != base {
		t.Fatalf("Update(nil, nil) = %p, %v; want receiver", same, err)
	}
	same, err = base.Update([]Element{}, []string{})
	if err != nil || same != base {
		t.Fatalf("Update(empty, empty) returned a new instance")
	}

	newClassElt := newClass("model::test::classes::NewClass", classesSource, 30, 1, 35, 1)
	replacement := newClass(myOtherClass.Path(), classesSource, 6, 1, 11, 1)
	tests := []struct {
		name     string
		upserts  []Element
		removals []string
		want     []Element
	}{
		{
			name:     "remove only",
			removals: []string{simpleToOther.Path(), myFirstEnumeration.Path()},
			want:     []Element{mySimpleClass, myOtherClass, myThirdClass, simpleToThird, otherToThird, mySecondEnumeration},
		},
		{
			name:    "upsert only",
			upserts: []Element{newClassElt, replacement},
			want:    []Element{mySimpleClass, replacement, myThirdClass, simpleToOther, simpleToThird, otherToThird, myFirstEnumeration, mySecondEnumeration, newClassElt},
		},
		{
			name:     "remove then upsert same path",
			upserts:  []Element{replacement},
			removals: []string{myOtherClass.Path(), myThirdClass.Path()},
			want:     []Element{mySimpleClass, replacement, simpleToOther, simpleToThird, otherToThird, myFirstEnumeration, mySecondEnumeration},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := base.Update(tt.upserts, tt.removals)
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}
			if !slices.Equal(got.Elements(), sortedByPath(tt.want)) {
				t.Errorf("Update() = %v, want %v", got.Elements(), sortedByPath(tt.want))
			}
			reversed := slices.Clone(tt.upserts)
			slices.Reverse(reversed)
			again, err := base.Update(reversed, tt.removals)
			if err != nil || !again.Equal(got) {
				t.Errorf("Update() depends on upsert order: %v vs %v", again, got)
			}
		})
	}
}

func TestNewElement_InvalidSpan(t *testing.T) {
	_, err := NewElementAt("model::Broken", ClassClassifier, classesSource, 5, 1, 4, 1)
	if !errors.Is(err, metaerr.ErrInvalidSourceSpan) {
		t.Fatalf("error = %v, want InvalidSourceSpan", err)
	}
	if !strings.Contains(err.Error(), "model::Broken") {
		t.Errorf("error %q does not name the element", err)
	}
	if _, err := NewElement("model::NoSource", ClassClassifier, source.Span{}); !errors.Is(err, metaerr.ErrInvalidSourceSpan) {
		t.Errorf("missing span error = %v", err)
	}
	if _, err := NewElement("", ClassClassifier, source.MustNew(classesSource, 1, 1, 1, 2)); !errors.Is(err, metaerr.ErrMissingElementPath) {
		t.Errorf("missing path error = %v", err)
	}
	if got := mySimpleClass.Describe(); got != "instance of meta::pure::metamodel::type::Class at /test_module/model/classes.pure:1c1-5c1" {
		t.Errorf("Describe() = %q", got)
	}
}
