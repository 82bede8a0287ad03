package compiler_errors

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

type ErrorHandler interface {
	AddError(d *Diagnostic)
	// FailNow aborts the running stage. It never returns; the stage entry
	// point recovers through Catch.
	FailNow()
	HasErrors() bool
	Errors() List
}

type CompilerErrorHandler struct {
	errors List
	writer io.Writer
}

// NewErrorHandler returns a handler that collects diagnostics in order.
// The writer is only used by Report and may be nil.
func NewErrorHandler(outputWriter io.Writer) *CompilerErrorHandler {
	return &CompilerErrorHandler{
		errors: make(List, 0),
		writer: outputWriter,
	}
}

func (eh *CompilerErrorHandler) AddError(d *Diagnostic) {
	eh.errors = append(eh.errors, d)
}

type bailout struct{}

func (eh *CompilerErrorHandler) FailNow() {
	panic(bailout{})
}

func (eh *CompilerErrorHandler) HasErrors() bool {
	return len(eh.errors) != 0
}

func (eh *CompilerErrorHandler) Errors() List {
	out := make(List, len(eh.errors))
	copy(out, eh.errors)
	return out
}

// Report writes every collected diagnostic with its source excerpt.
func (eh *CompilerErrorHandler) Report(src string) {
	if eh.writer == nil || len(eh.errors) == 0 {
		return
	}
	fmt.Fprint(eh.writer, FormatAll(eh.errors, src))
}

// Catch must be deferred by every stage entry point that may call FailNow.
// It swallows the bailout panic and stores the collected diagnostics in err.
// Any other panic is re-raised.
func Catch(eh ErrorHandler, err *error) {
	if r := recover(); r != nil {
		if _, ok := r.(bailout); !ok {
			panic(r)
		}
	}
	if eh.HasErrors() {
		*err = eh.Errors()
	}
}

// List is an ordered batch of diagnostics reported as one error.
type List []*Diagnostic

func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (and %d more error(s))", l[0].Error(), len(l)-1)
	return sb.String()
}

func (l List) Unwrap() []error {
	out := make([]error, len(l))
	for i, d := range l {
		out[i] = d
	}
	return out
}

// AsList extracts diagnostics from an error returned by a pipeline stage.
// Errors that are not diagnostics are wrapped as CodeGenError so that a
// failing call never yields an empty list.
func AsList(err error) List {
	if err == nil {
		return nil
	}

	var list List
	if errors.As(err, &list) {
		return list
	}

	var d *Diagnostic
	if errors.As(err, &d) {
		return List{d}
	}

	return List{{Kind: CodeGenError, Message: "internal error", Cause: err}}
}
