package metaser

import (
	"bytes"
	"fmt"
	"testing"

	"pmeta/internal/meta"
	"pmeta/internal/source"
)

func TestV2Refs_ReadTag(t *testing.T) {
	tests := []struct {
		tag       uint8
		kind      meta.RefKind
		hasSource bool
		ok        bool
	}{
		{refApplication, meta.RefApplication, false, true},
		{refQualifiedProperty, meta.RefQualifiedPropertyFromAssociation, false, true},
		{refProperty, meta.RefPropertyFromAssociation, false, true},
		{refModelElement, meta.RefModelElement, false, true},
		{refSpecialization, meta.RefSpecialization, false, true},
		{refUsage, meta.RefReferenceUsage, false, true},
		{refUsage | refHasSource, meta.RefReferenceUsage, true, true},

		{0x01, 0, false, false},
		{0x48, 0, false, false},
		{refApplication | refHasSource, 0, false, false},
		{refSpecialization | refHasSource, 0, false, false},
		{refUsage | 0x01, 0, false, false},
		{refUsage | refHasSource | 0x10, 0, false, false},
		{0xE0, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%#02x", tt.tag), func(t *testing.T) {
			var buf bytes.Buffer
			e := NewEncoder(&buf)
			e.Uint8(tt.tag)
			if err := e.Err(); err != nil {
				t.Fatal(err)
			}
			d := NewDecoder(bytes.NewReader(buf.Bytes()))
			kind, hasSource := v2Refs{}.readTag(d)
			if !tt.ok {
				if d.Err() == nil {
					t.Fatalf("tag accepted as %v", kind)
				}
				return
			}
			if err := d.Err(); err != nil {
				t.Fatal(err)
			}
			if kind != tt.kind || hasSource != tt.hasSource {
				t.Errorf("readTag = (%v, %v), want (%v, %v)", kind, hasSource, tt.kind, tt.hasSource)
			}
		})
	}
}

func TestV2Refs_TagRoundTrip(t *testing.T) {
	span := source.MustNew(classesSource, 2, 3, 2, 9)
	refs := []meta.BackReference{
		meta.Application{FunctionExpression: "fe"},
		meta.ModelElement{Element: "model::E"},
		meta.PropertyFromAssociation{Property: "p"},
		meta.QualifiedPropertyFromAssociation{QualifiedProperty: "q"},
		meta.ReferenceUsage{Owner: "model::O", Property: "items", Offset: 1},
		meta.ReferenceUsage{Owner: "model::O", Property: "items", Source: span},
		meta.Specialization{Generalization: "g"},
	}
	for _, ref := range refs {
		t.Run(ref.Kind().String(), func(t *testing.T) {
			var buf bytes.Buffer
			e := NewEncoder(&buf)
			v2Refs{}.writeTag(e, ref)
			d := NewDecoder(bytes.NewReader(buf.Bytes()))
			kind, _ := v2Refs{}.readTag(d)
			if err := d.Err(); err != nil {
				t.Fatal(err)
			}
			if kind != ref.Kind() {
				t.Errorf("kind = %v, want %v", kind, ref.Kind())
			}
		})
	}
}
