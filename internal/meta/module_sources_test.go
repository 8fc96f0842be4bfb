package meta

import (
	"errors"
	"slices"
	"testing"

	"pmeta/internal/metaerr"
)

var (
	classesSourceMeta = MustSource(classesSource,
		NewSourceSection("Pure", mySimpleClass.Path(), myOtherClass.Path(), myThirdClass.Path()))
	associationsSourceMeta = MustSource(associationsSource,
		NewSourceSection("Pure", simpleToOther.Path(), simpleToThird.Path(), otherToThird.Path()))
	enumsSourceMeta = MustSource(enumsSource,
		NewSourceSection("Pure", myFirstEnumeration.Path()),
		NewSourceSection("Pure", mySecondEnumeration.Path()))
)

func TestModuleSources_Build(t *testing.T) {
	m, err := NewModuleSourcesBuilder("test_module").
		WithSources(enumsSourceMeta, classesSourceMeta, associationsSourceMeta, classesSourceMeta).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	if m.SourceCount() != 3 {
		t.Fatalf("SourceCount() = %d, want 3", m.SourceCount())
	}
	got := m.Sources()
	want := []SourceMetadata{associationsSourceMeta, classesSourceMeta, enumsSourceMeta}
	if !slices.EqualFunc(got, want, SourceMetadata.Equal) {
		t.Fatalf("Sources() = %v, want %v", got, want)
	}
	if s, ok := m.Source(enumsSource); !ok || !slices.Equal(s.ElementPaths(), []string{myFirstEnumeration.Path(), mySecondEnumeration.Path()}) {
		t.Fatalf("Source(%q) = %v, %v", enumsSource, s, ok)
	}
}

func TestModuleSources_Errors(t *testing.T) {
	other := MustSource(classesSource, NewSourceSection("Pure", mySimpleClass.Path()))
	tests := []struct {
		name    string
		builder *ModuleSourcesBuilder
		kind    metaerr.Kind
		msg     string
	}{
		{"missing name", NewModuleSourcesBuilder(""), metaerr.MissingModuleName, "module name may not be null"},
		{"null source", NewModuleSourcesBuilder("test_module").WithSources(classesSourceMeta, SourceMetadata{}), metaerr.NullSource, "source metadata may not be null"},
		{"conflict", NewModuleSourcesBuilder("test_module").WithSources(classesSourceMeta, other), metaerr.DuplicateSource, "Conflict for source: " + classesSource},
		{
			"outside module",
			NewModuleSourcesBuilder("other_module").WithSources(classesSourceMeta),
			metaerr.SourceNotInModule,
			"Invalid source in module 'other_module': " + classesSource,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			if metaerr.KindOf(err) != tt.kind {
				t.Fatalf("error = %v, want kind %v", err, tt.kind)
			}
			if err.Error() != tt.msg {
				t.Errorf("message = %q, want %q", err.Error(), tt.msg)
			}
		})
	}
	if _, err := NewSource(""); !errors.Is(err, metaerr.ErrMissingSourceID) {
		t.Errorf("NewSource(\"\") error = %v", err)
	}
}

func TestModuleSources_Updates(t *testing.T) {
	base, err := NewModuleSourcesBuilder("test_module").WithSources(classesSourceMeta, associationsSourceMeta, enumsSourceMeta).Build()
	if err != nil {
		t.Fatal(err)
	}
	otherEnums := MustSource("/test_module/model/other_enums.pure", NewSourceSection("Pure", "model::test::enums::Other"))
	enumsReplacement := MustSource(enumsSource, NewSourceSection("Pure", myFirstEnumeration.Path()))

	plus, err := base.WithSources(otherEnums, enumsReplacement)
	if err != nil {
		t.Fatal(err)
	}
	ids := func(m *ModuleSources) []string {
		var out []string
		for _, s := range m.Sources() {
			out = append(out, s.SourceID())
		}
		return out
	}
	if got, want := ids(plus), []string{associationsSource, classesSource, enumsSource, "/test_module/model/other_enums.pure"}; !slices.Equal(got, want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	if s, _ := plus.Source(enumsSource); !s.Equal(enumsReplacement) {
		t.Fatalf("enums source not replaced: %v", s)
	}

	if base.WithoutSources() != base || base.WithoutSources("/test_module/none.pure") != base {
		t.Errorf("no-op removal returned a new instance")
	}
	if got := base.WithoutSources(enumsSource); got.SourceCount() != 2 {
		t.Errorf("WithoutSources = %v", got)
	}
	same, err := base.Update(nil, nil)
	if err != nil || same != base {
		t.Errorf("Update(nil, nil) returned a new instance")
	}
	updated, err := base.Update([]SourceMetadata{otherEnums}, []string{classesSource})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := ids(updated), []string{associationsSource, enumsSource, "/test_module/model/other_enums.pure"}; !slices.Equal(got, want) {
		t.Fatalf("Update ids = %v, want %v", got, want)
	}
	if _, err := base.WithSources(otherEnums, SourceMetadata{}); !errors.Is(err, metaerr.ErrNullSource) {
		t.Fatalf("null source error = %v", err)
	}
}
