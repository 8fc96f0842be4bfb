package dag

import (
	"fmt"
	"slices"
)

// Graph хранит рёбра от зависимости к зависимому, поэтому порядок Кана
// начинается с модулей без зависимостей.
type Graph struct {
	Edges   [][]ModuleID // Edges[dep] = модули, зависящие от dep
	Indeg   []int        // число присутствующих зависимостей
	Present []bool       // модуль реально есть, а не только упомянут
}

// Report collects what BuildGraph noticed but could still order around.
type Report struct {
	Duplicates []string            // names registered more than once
	Missing    map[string][]string // module -> dependencies that are not present
}

func (r Report) Empty() bool { return len(r.Duplicates) == 0 && len(r.Missing) == 0 }

func BuildGraph(idx ModuleIndex, nodes []Node) (Graph, Report) {
	count := len(idx.IDToName)
	g := Graph{
		Edges:   make([][]ModuleID, count),
		Indeg:   make([]int, count),
		Present: make([]bool, count),
	}
	var rep Report
	deps := make([][]string, count)
	for _, n := range nodes {
		id, ok := idx.NameToID[n.Name]
		if !ok {
			continue
		}
		if g.Present[id] {
			rep.Duplicates = append(rep.Duplicates, n.Name)
			continue
		}
		g.Present[id] = true
		deps[id] = n.Dependencies
	}

	for from := range count {
		if !g.Present[from] {
			continue
		}
		fromID := toModuleID(from)
		seen := make(map[ModuleID]struct{}, len(deps[from]))
		for _, dep := range deps[from] {
			to, ok := idx.NameToID[dep]
			if !ok || to == fromID {
				continue
			}
			if _, dup := seen[to]; dup {
				continue
			}
			seen[to] = struct{}{}
			if !g.Present[to] {
				if rep.Missing == nil {
					rep.Missing = make(map[string][]string)
				}
				name := idx.IDToName[from]
				rep.Missing[name] = append(rep.Missing[name], dep)
				continue
			}
			g.Edges[to] = append(g.Edges[to], fromID)
			g.Indeg[from]++
		}
	}
	for i := range g.Edges {
		slices.Sort(g.Edges[i])
	}
	slices.Sort(rep.Duplicates)
	return g, rep
}

// CycleError describes the modules left over by a cyclic sort.
type CycleError struct {
	Modules []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("module dependency cycle among: %v", e.Modules)
}

// Order sorts nodes so that every module follows its dependencies. Batches
// hold modules that can be processed in parallel.
func Order(nodes []Node) (order []string, batches [][]string, rep Report, err error) {
	idx := BuildIndex(nodes)
	g, rep := BuildGraph(idx, nodes)
	topo := ToposortKahn(g)
	order = idx.Names(topo.Order)
	for _, b := range topo.Batches {
		batches = append(batches, idx.Names(b))
	}
	if topo.Cyclic {
		return order, batches, rep, &CycleError{Modules: idx.Names(topo.Cycles)}
	}
	return order, batches, rep, nil
}
