package meta

import (
	"slices"
	"strings"

	"pmeta/internal/metaerr"
)

// SourceSection is one grammar section of a source file and the element
// paths it declares, in declaration order.
type SourceSection struct {
	parser   string
	elements []string
}

func NewSourceSection(parser string, elements ...string) SourceSection {
	return SourceSection{parser: parser, elements: slices.Clone(elements)}
}

func (s SourceSection) Parser() string     { return s.parser }
func (s SourceSection) Elements() []string { return slices.Clone(s.elements) }

func (s SourceSection) Equal(other SourceSection) bool {
	return s.parser == other.parser && slices.Equal(s.elements, other.elements)
}

// SourceMetadata lists the sections of one source file.
type SourceMetadata struct {
	id       string
	sections []SourceSection
}

func NewSource(sourceID string, sections ...SourceSection) (SourceMetadata, error) {
	if sourceID == "" {
		return SourceMetadata{}, metaerr.MissingSource()
	}
	return SourceMetadata{id: sourceID, sections: slices.Clone(sections)}, nil
}

// MustSource is NewSource that panics; intended for fixtures.
func MustSource(sourceID string, sections ...SourceSection) SourceMetadata {
	s, err := NewSource(sourceID, sections...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s SourceMetadata) SourceID() string { return s.id }

func (s SourceMetadata) Sections() []SourceSection { return slices.Clone(s.sections) }

// IsZero reports an unset value; builders treat it as a null payload.
func (s SourceMetadata) IsZero() bool { return s.id == "" && len(s.sections) == 0 }

// ElementPaths returns every declared path across all sections, in order.
func (s SourceMetadata) ElementPaths() []string {
	var out []string
	for _, sec := range s.sections {
		out = append(out, sec.elements...)
	}
	return out
}

func (s SourceMetadata) Equal(other SourceMetadata) bool {
	return s.id == other.id && slices.EqualFunc(s.sections, other.sections, SourceSection.Equal)
}

func (s SourceMetadata) String() string {
	var sb strings.Builder
	sb.WriteString(s.id)
	sb.WriteByte('{')
	for i, sec := range s.sections {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(sec.parser)
		sb.WriteString(":[")
		sb.WriteString(strings.Join(sec.elements, ", "))
		sb.WriteByte(']')
	}
	sb.WriteByte('}')
	return sb.String()
}
