package metagen

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"pmeta/internal/meta"
)

type fakeGraph struct {
	elements map[string][]string
	sources  map[string][]string
	deps     map[string][]string
}

func (g fakeGraph) ModuleElements(m string) ([]string, error) {
	if _, ok := g.elements[m]; !ok {
		return nil, errors.New("unknown module " + m)
	}
	return g.elements[m], nil
}
func (g fakeGraph) ModuleSources(m string) ([]string, error)      { return g.sources[m], nil }
func (g fakeGraph) ModuleDependencies(m string) ([]string, error) { return g.deps[m], nil }

// fakeGenerator: every element lives in /<module>/model.pure on its own line
// and references the element listed in refs.
type fakeGenerator struct {
	module string
	lines  map[string]int
	refs   map[string]string
	calls  atomic.Int32
}

func (f *fakeGenerator) Generate(_ context.Context, _ Graph, path string) (ElementResult, error) {
	f.calls.Add(1)
	line := f.lines[path]
	cls := meta.ClassClassifier
	if strings.HasSuffix(path, "__String_1_") {
		cls = "meta::pure::metamodel::function::ConcreteFunctionDefinition"
	}
	res := ElementResult{Element: meta.MustElement(path, cls, "/"+f.module+"/model.pure", line, 1, line, 10)}
	if target, ok := f.refs[path]; ok {
		res.ExternalReferences = []string{target}
		ebr, err := meta.NewElementBackReferencesBuilder(target).
			WithBackReferences("ref:"+path, meta.ReferenceUsage{Owner: path, Property: "generalizations"}).
			Build()
		if err != nil {
			return ElementResult{}, err
		}
		res.BackReferences = append(res.BackReferences, ebr)
	}
	return res, nil
}

func (f *fakeGenerator) FunctionName(e meta.Element) (string, bool) {
	short := meta.ShortName(e.Path())
	name, _, ok := strings.Cut(short, "__")
	return name, ok
}

func newFixture() (fakeGraph, *fakeGenerator) {
	paths := []string{"model::B", "model::A", "model::f__String_1_", "model::C"}
	g := fakeGraph{
		elements: map[string][]string{"m": paths},
		sources:  map[string][]string{"m": {"/m/model.pure"}},
		deps:     map[string][]string{"m": {"platform"}},
	}
	gen := &fakeGenerator{
		module: "m",
		lines:  map[string]int{"model::A": 1, "model::B": 2, "model::C": 3, "model::f__String_1_": 4},
		refs:   map[string]string{"model::B": "model::A", "model::C": "model::A"},
	}
	return g, gen
}

func TestDriver_GenerateModule(t *testing.T) {
	g, gen := newFixture()
	sources := SourceGeneratorFunc(func(_ context.Context, _ Graph, id string) (meta.SourceMetadata, error) {
		return meta.NewSource(id, meta.NewSourceSection("Pure", "model::A", "model::B", "model::C", "model::f__String_1_"))
	})
	d := &Driver{Jobs: 3, ReferenceIDVersion: 1, Elements: gen, Sources: sources}

	m, err := d.GenerateModule(context.Background(), g, "m")
	if err != nil {
		t.Fatal(err)
	}
	if gen.calls.Load() != 4 {
		t.Errorf("generator called %d times, want 4", gen.calls.Load())
	}
	var paths []string
	for _, e := range m.Manifest().Elements() {
		paths = append(paths, e.Path())
	}
	if want := []string{"model::A", "model::B", "model::C", "model::f__String_1_"}; !slices.Equal(paths, want) {
		t.Errorf("elements = %v, want %v", paths, want)
	}
	if !slices.Equal(m.Dependencies(), []string{"platform"}) || m.ReferenceIDVersion() != 1 {
		t.Errorf("deps/version = %v/%d", m.Dependencies(), m.ReferenceIDVersion())
	}
	if m.Sources().SourceCount() != 1 {
		t.Errorf("SourceCount() = %d", m.Sources().SourceCount())
	}
	ebr, ok := m.BackReferences().Element("model::A")
	if !ok || len(ebr.InstanceBackReferences()) != 2 || ebr.ReferenceIDVersion() != 1 {
		t.Fatalf("back references of model::A = %v, %v", ebr, ok)
	}
	if got := m.ExternalReferences().References("model::C"); !slices.Equal(got, []string{"model::A"}) {
		t.Errorf("external refs of model::C = %v", got)
	}
	if got := m.FunctionNames().Paths("f"); !slices.Equal(got, []string{"model::f__String_1_"}) {
		t.Errorf("function paths = %v", got)
	}
}

func TestDriver_Deterministic(t *testing.T) {
	var first *meta.Module
	for _, jobs := range []int{1, 2, 8, 0} {
		g, gen := newFixture()
		m, err := (&Driver{Jobs: jobs, Elements: gen}).GenerateModule(context.Background(), g, "m")
		if err != nil {
			t.Fatal(err)
		}
		if first == nil {
			first = m
			continue
		}
		if !m.Equal(first) {
			t.Errorf("jobs=%d produced a different module", jobs)
		}
	}
}

func TestDriver_Errors(t *testing.T) {
	g, _ := newFixture()
	boom := errors.New("boom")
	failing := ElementGeneratorFunc(func(_ context.Context, _ Graph, path string) (ElementResult, error) {
		if path == "model::A" {
			return ElementResult{}, boom
		}
		return ElementResult{Element: meta.MustElement(path, meta.ClassClassifier, "/m/x.pure", 1, 1, 1, 2)}, nil
	})
	_, err := (&Driver{Jobs: 2, Elements: failing}).GenerateModule(context.Background(), g, "m")
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "generate model::A") {
		t.Fatalf("error = %v", err)
	}

	if _, err := (&Driver{Elements: failing}).GenerateModule(context.Background(), g, "missing"); err == nil {
		t.Errorf("unknown module generated")
	}
	if _, err := (&Driver{}).GenerateModule(context.Background(), g, "m"); err == nil {
		t.Errorf("driver without generator succeeded")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, gen := newFixture()
	if _, err := (&Driver{Elements: gen}).GenerateModule(ctx, g, "m"); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled context error = %v", err)
	}
}

func TestDriver_GenerateModules(t *testing.T) {
	g, gen := newFixture()
	g.elements["empty"] = nil
	mods, err := (&Driver{Elements: gen}).GenerateModules(context.Background(), g, "m", "empty")
	if err != nil {
		t.Fatal(err)
	}
	if len(mods) != 2 || mods[1].ModuleName() != "empty" || mods[1].Manifest().ElementCount() != 0 {
		t.Fatalf("modules = %v", mods)
	}
}
