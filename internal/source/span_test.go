package source

import (
	"errors"
	"testing"

	"pmeta/internal/metaerr"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		sl, sc  int
		el, ec  int
		wantErr bool
	}{
		{name: "single line", id: "/m/a.pure", sl: 1, sc: 1, el: 1, ec: 10},
		{name: "multi line", id: "/m/a.pure", sl: 2, sc: 1, el: 7, ec: 1},
		{name: "single position", id: "/m/a.pure", sl: 3, sc: 4, el: 3, ec: 4},
		{name: "empty id", id: "", sl: 1, sc: 1, el: 1, ec: 1, wantErr: true},
		{name: "zero line", id: "/m/a.pure", sl: 0, sc: 1, el: 1, ec: 1, wantErr: true},
		{name: "zero column", id: "/m/a.pure", sl: 1, sc: 0, el: 1, ec: 1, wantErr: true},
		{name: "end line before start", id: "/m/a.pure", sl: 5, sc: 1, el: 4, ec: 9, wantErr: true},
		{name: "end column before start", id: "/m/a.pure", sl: 5, sc: 6, el: 5, ec: 5, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.id, tt.sl, tt.sc, tt.el, tt.ec)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("New() = %v, want error", s)
				}
				if !errors.Is(err, metaerr.ErrInvalidSourceSpan) {
					t.Fatalf("error kind = %v, want InvalidSourceSpan", metaerr.KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if s.Line() != tt.sl || s.Column() != tt.sc {
				t.Errorf("anchor = %dc%d, want start %dc%d", s.Line(), s.Column(), tt.sl, tt.sc)
			}
		})
	}
}

func TestNewWithAnchor(t *testing.T) {
	if _, err := NewWithAnchor("/m/a.pure", 1, 1, 3, 5, 6, 1); err != nil {
		t.Fatalf("anchor inside span: %v", err)
	}
	if _, err := NewWithAnchor("/m/a.pure", 2, 1, 1, 5, 6, 1); err == nil {
		t.Fatalf("anchor before start accepted")
	}
	if _, err := NewWithAnchor("/m/a.pure", 2, 1, 6, 2, 6, 1); err == nil {
		t.Fatalf("anchor after end accepted")
	}
}

func TestSpan_Message(t *testing.T) {
	s := MustNew("/test_module/model/associations.pure", 2, 1, 7, 1)
	if got, want := s.Message(), "/test_module/model/associations.pure:2c1-7c1"; got != want {
		t.Fatalf("Message() = %q, want %q", got, want)
	}
	a, _ := NewWithAnchor("/m/a.pure", 1, 1, 2, 3, 4, 1)
	if got, want := a.String(), "/m/a.pure:1c1-4c1@2c3"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	if got := (Span{}).String(); got != "<no source>" {
		t.Fatalf("zero String() = %q", got)
	}
}

func TestSpan_Compare(t *testing.T) {
	tests := []struct {
		name string
		a, b Span
		want int
	}{
		{"equal", MustNew("/m/a.pure", 1, 1, 5, 1), MustNew("/m/a.pure", 1, 1, 5, 1), 0},
		{"source id", MustNew("/m/a.pure", 9, 1, 9, 2), MustNew("/m/b.pure", 1, 1, 1, 2), -1},
		{"start line", MustNew("/m/a.pure", 6, 1, 10, 1), MustNew("/m/a.pure", 1, 1, 5, 1), 1},
		{"start column", MustNew("/m/a.pure", 1, 1, 5, 1), MustNew("/m/a.pure", 1, 2, 5, 1), -1},
		{"end", MustNew("/m/a.pure", 1, 1, 5, 1), MustNew("/m/a.pure", 1, 1, 5, 3), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSpan_SubsumesIntersects(t *testing.T) {
	outer := MustNew("/m/a.pure", 1, 1, 10, 1)
	inner := MustNew("/m/a.pure", 2, 5, 3, 8)
	tail := MustNew("/m/a.pure", 10, 1, 12, 1)
	other := MustNew("/m/b.pure", 2, 5, 3, 8)

	if !outer.Subsumes(inner) || inner.Subsumes(outer) {
		t.Errorf("Subsumes mismatch for outer/inner")
	}
	if outer.Subsumes(other) {
		t.Errorf("spans from different sources must not subsume")
	}
	if !outer.Intersects(tail) || !tail.Intersects(outer) {
		t.Errorf("touching spans should intersect")
	}
	if inner.Intersects(tail) {
		t.Errorf("disjoint spans should not intersect")
	}
	if got := inner.Cover(tail); got.StartLine() != 2 || got.EndLine() != 12 {
		t.Errorf("Cover() = %v", got)
	}
}

func TestModuleOf(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"/test_module/model/classes.pure", "test_module"},
		{"/platform/pure/m3.pure", "platform"},
		{"/root_file.pure", RootModule},
		{"relative/file.pure", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := ModuleOf(tt.id); got != tt.want {
				t.Errorf("ModuleOf(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
	if !InModule("/root_file.pure", "") {
		t.Errorf("root source should be in the root module")
	}
	if InModule("/test_module/a.pure", "test") {
		t.Errorf("module prefix must match a whole path segment")
	}
}
