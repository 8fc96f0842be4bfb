package dag

import "slices"

type ModuleID uint32

// Node is one module with its declared dependencies.
type Node struct {
	Name         string
	Dependencies []string
}

type ModuleIndex struct {
	NameToID map[string]ModuleID
	IDToName []string
}

// собрать уникальные имена (включая зависимости), отсортировать, раздать ID по порядку
func BuildIndex(nodes []Node) ModuleIndex {
	uniq := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if n.Name != "" {
			uniq[n.Name] = struct{}{}
		}
		for _, dep := range n.Dependencies {
			if dep != "" {
				uniq[dep] = struct{}{}
			}
		}
	}
	names := make([]string, 0, len(uniq))
	for name := range uniq {
		names = append(names, name)
	}
	slices.Sort(names)

	nameToID := make(map[string]ModuleID, len(names))
	for i, name := range names {
		nameToID[name] = toModuleID(i)
	}
	return ModuleIndex{NameToID: nameToID, IDToName: names}
}

func (idx ModuleIndex) Names(ids []ModuleID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = idx.IDToName[int(id)]
	}
	return out
}
