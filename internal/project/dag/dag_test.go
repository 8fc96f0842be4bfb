package dag

import (
	"errors"
	"reflect"
	"slices"
	"testing"
)

func TestBuildIndexIncludesDependencies(t *testing.T) {
	idx := BuildIndex([]Node{
		{Name: "test_module", Dependencies: []string{"platform", "core"}},
		{Name: "core"},
	})
	want := []string{"core", "platform", "test_module"}
	if !slices.Equal(idx.IDToName, want) {
		t.Fatalf("IDToName = %v, want %v", idx.IDToName, want)
	}
	for i, name := range want {
		if id, ok := idx.NameToID[name]; !ok || int(id) != i {
			t.Fatalf("NameToID[%q] = %v, want %d", name, id, i)
		}
	}
}

func TestOrder_DependenciesFirst(t *testing.T) {
	nodes := []Node{
		{Name: "app", Dependencies: []string{"model", "platform"}},
		{Name: "model", Dependencies: []string{"platform"}},
		{Name: "platform"},
		{Name: "extra", Dependencies: []string{"platform"}},
	}
	order, batches, rep, err := Order(nodes)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"platform", "extra", "model", "app"}; !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
	wantBatches := [][]string{{"platform"}, {"extra", "model"}, {"app"}}
	if !reflect.DeepEqual(batches, wantBatches) {
		t.Errorf("batches = %v, want %v", batches, wantBatches)
	}
	if !rep.Empty() {
		t.Errorf("report = %+v, want empty", rep)
	}
}

func TestOrder_MissingAndDuplicate(t *testing.T) {
	nodes := []Node{
		{Name: "test_module", Dependencies: []string{"platform", "test_module"}},
		{Name: "test_module"},
	}
	order, _, rep, err := Order(nodes)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(order, []string{"test_module"}) {
		t.Errorf("order = %v", order)
	}
	if !slices.Equal(rep.Duplicates, []string{"test_module"}) {
		t.Errorf("duplicates = %v", rep.Duplicates)
	}
	if got := rep.Missing["test_module"]; !slices.Equal(got, []string{"platform"}) {
		t.Errorf("missing = %v", rep.Missing)
	}
}

func TestOrder_Cycle(t *testing.T) {
	nodes := []Node{
		{Name: "a", Dependencies: []string{"b"}},
		{Name: "b", Dependencies: []string{"a"}},
		{Name: "c"},
	}
	order, _, _, err := Order(nodes)
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("error = %v, want CycleError", err)
	}
	if !slices.Equal(cycle.Modules, []string{"a", "b"}) {
		t.Errorf("cycle = %v", cycle.Modules)
	}
	if !slices.Equal(order, []string{"c"}) {
		t.Errorf("order = %v", order)
	}
}
