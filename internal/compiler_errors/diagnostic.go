package compiler_errors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kievzenit/sonapy/internal/source"
)

type Kind int

const (
	LexError Kind = iota
	ParseError
	ScopeError
	CodeGenError
)

func (k Kind) String() string {
	switch k {
	case LexError:
		return "LexError"
	case ParseError:
		return "ParseError"
	case ScopeError:
		return "ScopeError"
	case CodeGenError:
		return "CodeGenError"
	default:
		panic(fmt.Sprintf("Kind.String(): received illegal diagnostic kind: %d", k))
	}
}

// Diagnostic is an immutable report produced by one pipeline stage.
type Diagnostic struct {
	Kind    Kind
	Message string

	FileName string
	Span     *source.Span
	// Expected describes the construct the parser was looking for.
	Expected string
	Cause    error
}

func New(kind Kind, fileName string, span source.Span, message string) *Diagnostic {
	return &Diagnostic{
		Kind:     kind,
		Message:  message,
		FileName: fileName,
		Span:     &span,
	}
}

func Newf(kind Kind, fileName string, span source.Span, format string, args ...any) *Diagnostic {
	return New(kind, fileName, span, fmt.Sprintf(format, args...))
}

func (d *Diagnostic) location() string {
	var loc string
	if d.Span != nil && d.Span.IsValid() {
		loc = d.Span.Start.String()
	}

	switch {
	case d.FileName != "" && loc != "":
		return d.FileName + ":" + loc
	case d.FileName != "":
		return d.FileName
	default:
		return loc
	}
}

func (d *Diagnostic) Error() string {
	var sb strings.Builder
	if loc := d.location(); loc != "" {
		sb.WriteString(loc)
		sb.WriteString(": ")
	}
	sb.WriteString(d.Kind.String())
	sb.WriteString(": ")
	sb.WriteString(d.Message)
	if d.Expected != "" {
		fmt.Fprintf(&sb, " (expected %s)", d.Expected)
	}
	if d.Cause != nil {
		fmt.Fprintf(&sb, ": %v", d.Cause)
	}
	return sb.String()
}

func (d *Diagnostic) Unwrap() error {
	return d.Cause
}

// Format renders the diagnostic followed by the offending source line and
// a caret under the reported column:
//
//	main.sona:1:9: LexError: unterminated string literal
//	  1 | let s = "abc
//	    |         ^
func Format(d *Diagnostic, src string) string {
	var sb strings.Builder
	sb.WriteString(d.Error())
	sb.WriteByte('\n')

	if d.Span == nil || !d.Span.IsValid() {
		return sb.String()
	}

	lines := strings.Split(src, "\n")
	lineNo := d.Span.Start.Line
	if lineNo > len(lines) {
		return sb.String()
	}
	line := strings.TrimRight(lines[lineNo-1], "\r")

	gutter := strconv.Itoa(lineNo)
	blank := strings.Repeat(" ", len(gutter))
	fmt.Fprintf(&sb, "  %s | %s\n", gutter, line)
	fmt.Fprintf(&sb, "  %s | %s^\n", blank, caretPadding(line, d.Span.Start.Column))

	return sb.String()
}

// caretPadding keeps tabs from the line prefix so the caret lines up with
// the reported column whatever the terminal tab width is.
func caretPadding(line string, column int) string {
	var sb strings.Builder
	i := 0
	for _, r := range line {
		if i == column {
			break
		}
		if r == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}
		i++
	}
	for ; i < column; i++ {
		sb.WriteByte(' ')
	}
	return sb.String()
}

func FormatAll(list List, src string) string {
	var sb strings.Builder
	sb.WriteString("Build failed with errors:\n")
	for _, d := range list {
		sb.WriteString(Format(d, src))
	}
	return sb.String()
}
