package meta

import (
	"slices"
	"strings"

	"pmeta/internal/metaerr"
)

// FunctionName maps a short function name to every declaring path.
type FunctionName struct {
	name  string
	paths []string
}

func NewFunctionName(name string, paths ...string) FunctionName {
	return FunctionName{name: name, paths: sortedUnique(paths)}
}

func (f FunctionName) Name() string    { return f.name }
func (f FunctionName) Paths() []string { return slices.Clone(f.paths) }

func (f FunctionName) Equal(other FunctionName) bool {
	return f.name == other.name && slices.Equal(f.paths, other.paths)
}

// ModuleFunctionNames is the function-name index of one module, sorted by name.
type ModuleFunctionNames struct {
	name      string
	functions []FunctionName
}

func (m *ModuleFunctionNames) ModuleName() string { return m.name }

func (m *ModuleFunctionNames) Functions() []FunctionName { return slices.Clone(m.functions) }

// Paths returns the paths of functions called name, or nil.
func (m *ModuleFunctionNames) Paths(name string) []string {
	i, ok := slices.BinarySearchFunc(m.functions, name, func(f FunctionName, n string) int {
		return strings.Compare(f.name, n)
	})
	if !ok {
		return nil
	}
	return m.functions[i].Paths()
}

func (m *ModuleFunctionNames) Equal(other *ModuleFunctionNames) bool {
	if m == other {
		return true
	}
	if m == nil || other == nil {
		return false
	}
	return m.name == other.name && slices.EqualFunc(m.functions, other.functions, FunctionName.Equal)
}

type ModuleFunctionNamesBuilder struct {
	name   string
	byName map[string][]string
	err    error
}

func NewModuleFunctionNamesBuilder(name string) *ModuleFunctionNamesBuilder {
	return &ModuleFunctionNamesBuilder{name: name, byName: make(map[string][]string)}
}

func (b *ModuleFunctionNamesBuilder) WithFunction(name string, paths ...string) *ModuleFunctionNamesBuilder {
	if name == "" {
		if b.err == nil {
			b.err = metaerr.MissingPath()
		}
		return b
	}
	b.byName[name] = append(b.byName[name], paths...)
	return b
}

func (b *ModuleFunctionNamesBuilder) Build() (*ModuleFunctionNames, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.name == "" {
		return nil, metaerr.MissingName()
	}
	names := make([]string, 0, len(b.byName))
	for n := range b.byName {
		names = append(names, n)
	}
	slices.Sort(names)
	var functions []FunctionName
	for _, n := range names {
		functions = append(functions, NewFunctionName(n, b.byName[n]...))
	}
	return &ModuleFunctionNames{name: b.name, functions: functions}, nil
}
