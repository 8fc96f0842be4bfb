package meta

import (
	"cmp"
	"slices"
	"strings"
)

const (
	// Separator joins package path segments.
	Separator = "::"
	// RootPath names the root package.
	RootPath = "Root"

	PackageClassifier     = "meta::pure::metamodel::type::Package"
	ClassClassifier       = "meta::pure::metamodel::type::Class"
	EnumerationClassifier = "meta::pure::metamodel::type::Enumeration"
	AssociationClassifier = "meta::pure::metamodel::relationship::Association"
)

// ComparePaths orders paths by plain byte comparison. "a::test2::X" sorts
// before "a::test::X" because '2' precedes ':'.
func ComparePaths(a, b string) int {
	return cmp.Compare(a, b)
}

// ParentPath returns the package that directly contains path.
// Top-level paths are contained by RootPath; RootPath itself has no parent.
func ParentPath(path string) (string, bool) {
	if path == "" || path == RootPath {
		return "", false
	}
	i := strings.LastIndex(path, Separator)
	if i < 0 {
		return RootPath, true
	}
	return path[:i], true
}

// PackagePrefixes returns the namespace chain implied by path, outermost first,
// starting with RootPath. "a::b::C" yields [Root a a::b].
func PackagePrefixes(path string) []string {
	if path == "" || path == RootPath {
		return nil
	}
	out := []string{RootPath}
	for i := 0; ; {
		j := strings.Index(path[i:], Separator)
		if j < 0 {
			return out
		}
		out = append(out, path[:i+j])
		i += j + len(Separator)
	}
}

// ShortName returns the last segment of path.
func ShortName(path string) string {
	if i := strings.LastIndex(path, Separator); i >= 0 {
		return path[i+len(Separator):]
	}
	return path
}

// IsTopLevel reports whether path has no package prefix.
func IsTopLevel(path string) bool {
	return path != "" && !strings.Contains(path, Separator)
}

// sortedUnique returns a sorted copy of values without duplicates.
func sortedUnique(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}
