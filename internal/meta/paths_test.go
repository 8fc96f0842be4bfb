package meta

import (
	"slices"
	"testing"
)

func TestPackagePrefixes(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"a::b::C", []string{RootPath, "a", "a::b"}},
		{"C", []string{RootPath}},
		{RootPath, nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := PackagePrefixes(tt.path); !slices.Equal(got, tt.want) {
				t.Errorf("PackagePrefixes(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestParentPathAndShortName(t *testing.T) {
	tests := []struct {
		path       string
		wantParent string
		wantOK     bool
		wantShort  string
	}{
		{"model::test::classes::MyClass", "model::test::classes", true, "MyClass"},
		{"model", RootPath, true, "model"},
		{RootPath, "", false, RootPath},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			parent, ok := ParentPath(tt.path)
			if parent != tt.wantParent || ok != tt.wantOK {
				t.Errorf("ParentPath(%q) = %q, %v; want %q, %v", tt.path, parent, ok, tt.wantParent, tt.wantOK)
			}
			if got := ShortName(tt.path); got != tt.wantShort {
				t.Errorf("ShortName(%q) = %q, want %q", tt.path, got, tt.wantShort)
			}
		})
	}
}

func TestComparePaths_Ordinal(t *testing.T) {
	paths := []string{
		"model::test::classes::A",
		"model::test2::classes::A",
		"model::Test::classes::A",
	}
	slices.SortFunc(paths, ComparePaths)
	want := []string{
		"model::Test::classes::A",
		"model::test2::classes::A",
		"model::test::classes::A",
	}
	if !slices.Equal(paths, want) {
		t.Fatalf("sorted = %v, want %v", paths, want)
	}
}
