package source

import "fmt"

// Position is a point in a source file. Line is 1-based, Column is 0-based
// and counts characters (a tab is one column), Offset is a byte offset.
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column+1)
}

// Before reports whether p comes strictly before q.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// Span covers the half-open range [Start, End).
type Span struct {
	Start Position
	End   Position
}

func NewSpan(start, end Position) Span {
	return Span{Start: start, End: end}
}

func (s Span) IsValid() bool {
	return s.Start.IsValid()
}

// Join returns the smallest span covering both s and other.
func (s Span) Join(other Span) Span {
	out := s
	if other.Start.Before(out.Start) {
		out.Start = other.Start
	}
	if out.End.Before(other.End) {
		out.End = other.End
	}
	return out
}

func (s Span) String() string {
	if !s.IsValid() {
		return "span(unknown)"
	}
	return fmt.Sprintf("%s-%s", s.Start, s.End)
}
