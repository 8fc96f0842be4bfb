package source

import (
	"cmp"
	"fmt"
	"strconv"

	"pmeta/internal/metaerr"
)

// Span locates a declaration inside a source file.
// All lines and columns are 1-based. The anchor (Line, Col) is an optional
// diagnostic position inside the span; it defaults to the start.
type Span struct {
	sourceID  string
	startLine int
	startCol  int
	line      int
	col       int
	endLine   int
	endCol    int
}

// New builds a validated span whose anchor is the start position.
func New(sourceID string, startLine, startCol, endLine, endCol int) (Span, error) {
	return NewWithAnchor(sourceID, startLine, startCol, startLine, startCol, endLine, endCol)
}

// NewWithAnchor builds a validated span with an explicit anchor position.
func NewWithAnchor(sourceID string, startLine, startCol, line, col, endLine, endCol int) (Span, error) {
	s := Span{
		sourceID:  sourceID,
		startLine: startLine,
		startCol:  startCol,
		line:      line,
		col:       col,
		endLine:   endLine,
		endCol:    endCol,
	}
	if err := s.validate(); err != nil {
		return Span{}, err
	}
	return s, nil
}

// MustNew is New for literals in tests and tables; it panics on invalid input.
func MustNew(sourceID string, startLine, startCol, endLine, endCol int) Span {
	s, err := New(sourceID, startLine, startCol, endLine, endCol)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Span) validate() error {
	if s.sourceID == "" {
		return metaerr.InvalidSpan("", "source id may not be empty")
	}
	if s.startLine < 1 || s.startCol < 1 || s.line < 1 || s.col < 1 || s.endLine < 1 || s.endCol < 1 {
		return metaerr.InvalidSpan("", "lines and columns are 1-based: "+s.Message())
	}
	if comparePos(s.startLine, s.startCol, s.endLine, s.endCol) > 0 {
		return metaerr.InvalidSpan("", "end precedes start: "+s.Message())
	}
	if comparePos(s.startLine, s.startCol, s.line, s.col) > 0 || comparePos(s.line, s.col, s.endLine, s.endCol) > 0 {
		return metaerr.InvalidSpan("", "anchor outside of span: "+s.Message())
	}
	return nil
}

// Valid reports whether s satisfies all span invariants.
func (s Span) Valid() bool { return s.validate() == nil }

// IsZero reports whether s is the zero value (no source information).
func (s Span) IsZero() bool { return s == Span{} }

func (s Span) SourceID() string { return s.sourceID }
func (s Span) StartLine() int   { return s.startLine }
func (s Span) StartColumn() int { return s.startCol }
func (s Span) Line() int        { return s.line }
func (s Span) Column() int      { return s.col }
func (s Span) EndLine() int     { return s.endLine }
func (s Span) EndColumn() int   { return s.endCol }

// Message renders the span in diagnostic form: /m/f.pure:2c1-7c1.
func (s Span) Message() string {
	buf := make([]byte, 0, len(s.sourceID)+24)
	buf = append(buf, s.sourceID...)
	buf = append(buf, ':')
	buf = strconv.AppendInt(buf, int64(s.startLine), 10)
	buf = append(buf, 'c')
	buf = strconv.AppendInt(buf, int64(s.startCol), 10)
	buf = append(buf, '-')
	buf = strconv.AppendInt(buf, int64(s.endLine), 10)
	buf = append(buf, 'c')
	buf = strconv.AppendInt(buf, int64(s.endCol), 10)
	return string(buf)
}

func (s Span) String() string {
	if s.IsZero() {
		return "<no source>"
	}
	if s.line == s.startLine && s.col == s.startCol {
		return s.Message()
	}
	return fmt.Sprintf("%s@%dc%d", s.Message(), s.line, s.col)
}

// Compare orders spans by source id, then start, anchor and end position.
func (s Span) Compare(other Span) int {
	if c := cmp.Compare(s.sourceID, other.sourceID); c != 0 {
		return c
	}
	if c := comparePos(s.startLine, s.startCol, other.startLine, other.startCol); c != 0 {
		return c
	}
	if c := comparePos(s.line, s.col, other.line, other.col); c != 0 {
		return c
	}
	return comparePos(s.endLine, s.endCol, other.endLine, other.endCol)
}

// Subsumes reports whether other lies entirely inside s.
func (s Span) Subsumes(other Span) bool {
	return s.sourceID == other.sourceID &&
		comparePos(s.startLine, s.startCol, other.startLine, other.startCol) <= 0 &&
		comparePos(other.endLine, other.endCol, s.endLine, s.endCol) <= 0
}

// Intersects reports whether s and other share at least one position.
func (s Span) Intersects(other Span) bool {
	return s.sourceID == other.sourceID &&
		comparePos(s.startLine, s.startCol, other.endLine, other.endCol) <= 0 &&
		comparePos(other.startLine, other.startCol, s.endLine, s.endCol) <= 0
}

// Cover returns the smallest span containing both s and other.
// Spans from different sources are not merged.
func (s Span) Cover(other Span) Span {
	if s.sourceID != other.sourceID {
		return s
	}
	if comparePos(other.startLine, other.startCol, s.startLine, s.startCol) < 0 {
		s.startLine, s.startCol = other.startLine, other.startCol
	}
	if comparePos(other.endLine, other.endCol, s.endLine, s.endCol) > 0 {
		s.endLine, s.endCol = other.endLine, other.endCol
	}
	return s
}

func comparePos(l1, c1, l2, c2 int) int {
	if c := cmp.Compare(l1, l2); c != 0 {
		return c
	}
	return cmp.Compare(c1, c2)
}
