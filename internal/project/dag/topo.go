package dag

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// Topo is the result of ToposortKahn.
type Topo struct {
	Order   []ModuleID   // только присутствующие модули
	Batches [][]ModuleID // модули одной волны не зависят друг от друга
	Cyclic  bool
	Cycles  []ModuleID // модули, чьи зависимости так и не освободились
}

// ToposortKahn peels the graph in waves of modules whose dependencies are
// already ordered. Each wave is sorted by id.
func ToposortKahn(g Graph) *Topo {
	pending := slices.Clone(g.Indeg)
	topo := &Topo{}
	wave := g.collect(func(i int) bool { return pending[i] == 0 })
	for len(wave) > 0 {
		topo.Batches = append(topo.Batches, wave)
		topo.Order = append(topo.Order, wave...)
		wave = g.release(wave, pending)
	}
	if len(topo.Order) < len(g.collect(func(int) bool { return true })) {
		topo.Cyclic = true
		topo.Cycles = g.collect(func(i int) bool { return pending[i] > 0 })
	}
	return topo
}

// collect returns present modules matching keep, in id order.
func (g Graph) collect(keep func(int) bool) []ModuleID {
	var out []ModuleID
	for i, ok := range g.Present {
		if ok && keep(i) {
			out = append(out, toModuleID(i))
		}
	}
	return out
}

// release drops the wave from the in-degree of its dependents and returns
// the dependents that became free.
func (g Graph) release(wave []ModuleID, pending []int) []ModuleID {
	var next []ModuleID
	for _, id := range wave {
		for _, dependent := range g.Edges[id] {
			if !g.Present[dependent] {
				continue
			}
			pending[dependent]--
			if pending[dependent] == 0 {
				next = append(next, dependent)
			}
		}
	}
	slices.Sort(next)
	return next
}

func toModuleID(i int) ModuleID {
	id, err := safecast.Conv[ModuleID](i)
	if err != nil {
		panic(fmt.Errorf("module id overflow: %w", err))
	}
	return id
}
