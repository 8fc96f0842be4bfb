package meta

import (
	"errors"
	"slices"
	"testing"

	"pmeta/internal/metaerr"
	"pmeta/internal/source"
)

func TestCompareBackReferences(t *testing.T) {
	span := source.MustNew(classesSource, 3, 5, 3, 9)
	ordered := []BackReference{
		Application{FunctionExpression: "model::f__Integer_1_"},
		Application{FunctionExpression: "model::g__Integer_1_"},
		ModelElement{Element: "model::test::classes::MySimpleClass"},
		PropertyFromAssociation{Property: "model::test::associations::SimpleToOther.other"},
		QualifiedPropertyFromAssociation{QualifiedProperty: "model::test::associations::SimpleToOther.q"},
		ReferenceUsage{Owner: "a", Property: "genericType", Offset: 0},
		ReferenceUsage{Owner: "a", Property: "genericType", Offset: 0, Source: span},
		ReferenceUsage{Owner: "a", Property: "genericType", Offset: 1},
		ReferenceUsage{Owner: "a", Property: "rawType", Offset: 0},
		ReferenceUsage{Owner: "b", Property: "genericType", Offset: 0},
		Specialization{Generalization: "model::test::classes::MyOtherClass.generalizations[0]"},
	}
	for i := range ordered {
		for j := range ordered {
			got := CompareBackReferences(ordered[i], ordered[j])
			want := 0
			if i < j {
				want = -1
			} else if i > j {
				want = 1
			}
			if (got < 0) != (want < 0) || (got > 0) != (want > 0) {
				t.Errorf("Compare(%v, %v) = %d, want sign %d", ordered[i], ordered[j], got, want)
			}
		}
	}
}

func TestElementBackReferencesBuilder(t *testing.T) {
	app := Application{FunctionExpression: "model::caller"}
	usage := ReferenceUsage{Owner: "model::Other", Property: "rawType"}
	spec := Specialization{Generalization: "model::Sub.generalizations"}

	ebr, err := NewElementBackReferencesBuilder("model::Target").
		WithReferenceIDVersion(1).
		WithBackReferences("ref:b", usage, app, usage).
		WithBackReferences("ref:a", spec).
		WithBackReferences("ref:b", app).
		WithBackReferences("ref:c").
		Build()
	if err != nil {
		t.Fatal(err)
	}
	groups := ebr.InstanceBackReferences()
	if len(groups) != 2 {
		t.Fatalf("groups = %v, want 2 (empty groups dropped)", groups)
	}
	if groups[0].InstanceRefID() != "ref:a" || groups[1].InstanceRefID() != "ref:b" {
		t.Fatalf("group order = %q, %q", groups[0].InstanceRefID(), groups[1].InstanceRefID())
	}
	if got, want := groups[1].BackReferences(), []BackReference{app, usage}; !slices.Equal(got, want) {
		t.Fatalf("merged refs = %v, want %v", got, want)
	}
	if got := ebr.BackReferencesFor("ref:a"); !slices.Equal(got, []BackReference{spec}) {
		t.Fatalf("BackReferencesFor(ref:a) = %v", got)
	}
	if ebr.BackReferencesFor("ref:zzz") != nil {
		t.Fatalf("unknown group returned refs")
	}

	rebuilt, err := ElementBackReferencesBuilderFrom(ebr).Build()
	if err != nil || !rebuilt.Equal(ebr) {
		t.Fatalf("round trip through builder: %v, %v", rebuilt, err)
	}
}

func TestElementBackReferencesBuilder_Errors(t *testing.T) {
	other, err := NewElementBackReferencesBuilder("model::Other").
		WithBackReferences("ref:x", ModelElement{Element: "model::X"}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	_, err = NewElementBackReferencesBuilder("model::Target").Merge(other).Build()
	if !errors.Is(err, metaerr.ErrElementMismatch) {
		t.Fatalf("Merge error = %v", err)
	}
	if want := "Cannot add metadata for element 'model::Other' to builder for element 'model::Target'"; err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}

	if _, err := NewElementBackReferencesBuilder("model::Target").WithBackReferences("ref", nil).Build(); !errors.Is(err, metaerr.ErrNullElement) {
		t.Errorf("nil back reference error = %v", err)
	}
	if _, err := NewElementBackReferencesBuilder("").Build(); !errors.Is(err, metaerr.ErrMissingElementPath) {
		t.Errorf("missing path error = %v", err)
	}
}

func TestElementBackReferencesBuilder_NegativeOffset(t *testing.T) {
	bad := ReferenceUsage{Owner: "model::Owner", Property: "items", Offset: -1}
	tests := []struct {
		name  string
		build func() error
	}{
		{"with back references", func() error {
			_, err := NewElementBackReferencesBuilder("model::Target").WithBackReferences("ref:1", bad).Build()
			return err
		}},
		{"after valid refs", func() error {
			_, err := NewElementBackReferencesBuilder("model::Target").
				WithBackReferences("ref:1", ReferenceUsage{Owner: "model::Owner", Property: "items", Offset: 2}, bad).
				Build()
			return err
		}},
		{"instance back references", func() error {
			_, err := NewInstanceBackReferences("ref:1", bad)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build()
			if !errors.Is(err, metaerr.ErrInvalidBackRef) {
				t.Fatalf("error = %v, want ErrInvalidBackRef", err)
			}
		})
	}

	if _, err := NewElementBackReferencesBuilder("model::Target").
		WithBackReferences("ref:1", ReferenceUsage{Owner: "model::Owner", Property: "items", Offset: 0}).
		Build(); err != nil {
		t.Fatalf("zero offset rejected: %v", err)
	}
}
