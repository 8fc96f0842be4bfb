package meta

import (
	"fmt"
	"slices"
	"strings"

	"pmeta/internal/metaerr"
)

// InstanceBackReferences groups the back references of one referenced
// instance (identified by its reference id) inside an element.
type InstanceBackReferences struct {
	refID    string
	backRefs []BackReference
}

// NewInstanceBackReferences sorts and deduplicates refs.
func NewInstanceBackReferences(refID string, refs ...BackReference) (InstanceBackReferences, error) {
	for _, r := range refs {
		if err := checkBackRef(r); err != nil {
			return InstanceBackReferences{}, err
		}
	}
	return InstanceBackReferences{refID: refID, backRefs: normalizeBackRefs(refs)}, nil
}

// checkBackRef rejects values the serializer cannot write back.
func checkBackRef(r BackReference) error {
	switch r := r.(type) {
	case nil:
		return metaerr.NilBackReference()
	case ReferenceUsage:
		if r.Offset < 0 {
			return metaerr.NegativeOffset(r.Owner, r.Property, r.Offset)
		}
	}
	return nil
}

func (g InstanceBackReferences) InstanceRefID() string { return g.refID }

func (g InstanceBackReferences) BackReferences() []BackReference { return slices.Clone(g.backRefs) }

func (g InstanceBackReferences) Len() int { return len(g.backRefs) }

func (g InstanceBackReferences) Equal(other InstanceBackReferences) bool {
	return g.refID == other.refID && slices.Equal(g.backRefs, other.backRefs)
}

func normalizeBackRefs(refs []BackReference) []BackReference {
	if len(refs) == 0 {
		return nil
	}
	out := slices.Clone(refs)
	slices.SortStableFunc(out, CompareBackReferences)
	return slices.CompactFunc(out, func(a, b BackReference) bool { return a == b })
}

// ElementBackReferences collects every back reference into one element,
// grouped by referenced instance. Groups are sorted by reference id and
// never empty.
type ElementBackReferences struct {
	path         string
	refIDVersion int
	groups       []InstanceBackReferences
}

func (m ElementBackReferences) ElementPath() string     { return m.path }
func (m ElementBackReferences) ReferenceIDVersion() int { return m.refIDVersion }
func (m ElementBackReferences) IsEmpty() bool           { return len(m.groups) == 0 }

func (m ElementBackReferences) InstanceBackReferences() []InstanceBackReferences {
	return slices.Clone(m.groups)
}

// BackReferencesFor returns the back references of instance refID, or nil.
func (m ElementBackReferences) BackReferencesFor(refID string) []BackReference {
	i, ok := slices.BinarySearchFunc(m.groups, refID, func(g InstanceBackReferences, id string) int {
		return strings.Compare(g.refID, id)
	})
	if !ok {
		return nil
	}
	return m.groups[i].BackReferences()
}

func (m ElementBackReferences) Equal(other ElementBackReferences) bool {
	return m.path == other.path &&
		m.refIDVersion == other.refIDVersion &&
		slices.EqualFunc(m.groups, other.groups, InstanceBackReferences.Equal)
}

func (m ElementBackReferences) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<ElementBackReferences element='%s' referenceIdVersion=%d", m.path, m.refIDVersion)
	sb.WriteString(" instanceBackReferences=[")
	for i, g := range m.groups {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(g.refID)
		sb.WriteString(":[")
		for j, r := range g.backRefs {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(r.String())
		}
		sb.WriteByte(']')
	}
	sb.WriteString("]>")
	return sb.String()
}

// ElementBackReferencesBuilder accumulates back references for one element.
// It is not safe for concurrent use.
type ElementBackReferencesBuilder struct {
	path         string
	refIDVersion int
	groups       map[string][]BackReference
	err          error
}

func NewElementBackReferencesBuilder(path string) *ElementBackReferencesBuilder {
	return &ElementBackReferencesBuilder{path: path, groups: make(map[string][]BackReference)}
}

// ElementBackReferencesBuilderFrom starts a builder holding m's content.
func ElementBackReferencesBuilderFrom(m ElementBackReferences) *ElementBackReferencesBuilder {
	b := NewElementBackReferencesBuilder(m.path)
	b.refIDVersion = m.refIDVersion
	for _, g := range m.groups {
		b.groups[g.refID] = slices.Clone(g.backRefs)
	}
	return b
}

func (b *ElementBackReferencesBuilder) WithReferenceIDVersion(v int) *ElementBackReferencesBuilder {
	b.refIDVersion = v
	return b
}

// WithBackReferences adds refs for instance refID. Groups with the same id merge.
func (b *ElementBackReferencesBuilder) WithBackReferences(refID string, refs ...BackReference) *ElementBackReferencesBuilder {
	for _, r := range refs {
		if err := checkBackRef(r); err != nil {
			b.fail(err)
			return b
		}
	}
	if len(refs) == 0 {
		return b
	}
	b.groups[refID] = append(b.groups[refID], refs...)
	return b
}

func (b *ElementBackReferencesBuilder) WithInstanceBackReferences(groups ...InstanceBackReferences) *ElementBackReferencesBuilder {
	for _, g := range groups {
		b.WithBackReferences(g.refID, g.backRefs...)
	}
	return b
}

// Merge adds all groups of m, which must describe the same element.
func (b *ElementBackReferencesBuilder) Merge(m ElementBackReferences) *ElementBackReferencesBuilder {
	if b.path == "" {
		b.path = m.path
	} else if m.path != b.path {
		b.fail(metaerr.WrongElement(m.path, b.path))
		return b
	}
	return b.WithInstanceBackReferences(m.groups...)
}

func (b *ElementBackReferencesBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *ElementBackReferencesBuilder) Build() (ElementBackReferences, error) {
	if b.err != nil {
		return ElementBackReferences{}, b.err
	}
	if b.path == "" {
		return ElementBackReferences{}, metaerr.MissingPath()
	}
	ids := make([]string, 0, len(b.groups))
	for id, refs := range b.groups {
		if len(refs) > 0 {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	groups := make([]InstanceBackReferences, 0, len(ids))
	for _, id := range ids {
		groups = append(groups, InstanceBackReferences{refID: id, backRefs: normalizeBackRefs(b.groups[id])})
	}
	if len(groups) == 0 {
		groups = nil
	}
	return ElementBackReferences{path: b.path, refIDVersion: b.refIDVersion, groups: groups}, nil
}
