// Package errors defines the error values produced by every public PJS
// operation (compile, link, execute) and thrown values surfaced from
// running scripts. It is modelled directly on cuelang.org/go/cue/errors:
// position-carrying Error values that aggregate into a sortable List, with
// PJS-specific Kind tagging and backtrace accumulation layered on top.
package errors

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/flomesh-io/pjs/token"
)

// Kind classifies an Error per spec.md §7.
type Kind int

const (
	// Parse errors are syntax errors: missing token, illegal expression,
	// ambiguous precedence, invalid string escape.
	Parse Kind = iota
	// Declare errors are illegal patterns, reserved names, illegal
	// break/continue/return placement, exporting a fiber variable.
	Declare
	// Link errors are unresolved module paths or cyclic re-exports.
	Link
	// Runtime errors are typed failures raised by eval/execute itself:
	// property access on null, calling a non-function, wrong argument
	// count/type, assigning to a non-lvalue.
	Runtime
	// Thrown wraps a user `throw value` that escaped every catch.
	Thrown
)

func (k Kind) String() string {
	switch k {
	case Parse:
		return "parse error"
	case Declare:
		return "declare error"
	case Link:
		return "link error"
	case Runtime:
		return "runtime error"
	case Thrown:
		return "uncaught exception"
	default:
		return "error"
	}
}

// Frame is one entry of a Backtrace: the name of the function/module body
// that was executing, and the call-site position within its caller.
type Frame struct {
	Name string
	Pos  token.Pos
}

func (f Frame) String() string {
	name := f.Name
	if name == "" {
		name = "(anonymous)"
	}
	return fmt.Sprintf("%s (%s)", name, f.Pos.Position())
}

// Handler is the callback signature the scanner and parser report errors
// through as they are discovered, mirroring cue/errors.Handler.
type Handler func(pos token.Pos, msg string, args []interface{})

// Error is the interface satisfied by every error PJS reports to a host.
type Error interface {
	error
	Kind() Kind
	Position() token.Pos
	Backtrace() []Frame
	Msg() (format string, args []interface{})
}

// New creates an Error of the given kind at pos.
func New(kind Kind, pos token.Pos, format string, args ...interface{}) Error {
	return &posError{kind: kind, pos: pos, format: format, args: args}
}

// WithBacktrace returns a copy of err with frame prepended to its backtrace,
// used as the evaluator unwinds the call stack (spec.md §4.7).
func WithBacktrace(err Error, frame Frame) Error {
	if err == nil {
		return nil
	}
	pe, ok := err.(*posError)
	if !ok {
		pe = &posError{kind: err.Kind(), pos: err.Position(), format: "%s", args: []interface{}{err.Error()}, bt: err.Backtrace()}
	}
	cp := *pe
	cp.bt = append(append([]Frame{frame}), pe.bt...)
	return &cp
}

type posError struct {
	kind   Kind
	pos    token.Pos
	format string
	args   []interface{}
	bt     []Frame
}

func (e *posError) Kind() Kind               { return e.kind }
func (e *posError) Position() token.Pos      { return e.pos }
func (e *posError) Backtrace() []Frame       { return e.bt }
func (e *posError) Msg() (string, []interface{}) { return e.format, e.args }

func (e *posError) Error() string {
	return fmt.Sprintf(e.format, e.args...)
}

// List aggregates multiple Errors, e.g. all syntax errors found in one
// parse, or both the linker errors across every unresolved import.
type List []Error

func (p *List) AddNewf(kind Kind, pos token.Pos, format string, args ...interface{}) {
	*p = append(*p, New(kind, pos, format, args...))
}

func (p *List) Add(err Error) {
	if err != nil {
		*p = append(*p, err)
	}
}

// Err returns an error equivalent to the list, or nil if it is empty.
func (p List) Err() error {
	if len(p) == 0 {
		return nil
	}
	return p
}

func (p List) Error() string {
	switch len(p) {
	case 0:
		return "no errors"
	case 1:
		return p[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more errors)", p[0].Error(), len(p)-1)
	}
}

func (p List) Kind() Kind {
	if len(p) == 0 {
		return Parse
	}
	return p[0].Kind()
}

func (p List) Position() token.Pos {
	if len(p) == 0 {
		return token.NoPos
	}
	return p[0].Position()
}

func (p List) Backtrace() []Frame {
	if len(p) == 0 {
		return nil
	}
	return p[0].Backtrace()
}

func (p List) Msg() (string, []interface{}) {
	if len(p) == 0 {
		return "no errors", nil
	}
	return p[0].Msg()
}

// Sort orders the list by source position, stably.
func (p List) Sort() {
	sort.SliceStable(p, func(i, j int) bool {
		return p[i].Position().Compare(p[j].Position()) < 0
	})
}

// Print writes every error in the list to w, one per line, followed by its
// backtrace (if any) indented beneath it.
func Print(w io.Writer, err error) {
	list, ok := err.(List)
	if !ok {
		if e, ok := err.(Error); ok {
			list = List{e}
		} else if err != nil {
			fmt.Fprintf(w, "%v\n", err)
			return
		}
	}
	for _, e := range list {
		fmt.Fprintf(w, "%s: %v\n", e.Kind(), e)
		for _, f := range e.Backtrace() {
			fmt.Fprintf(w, "    at %s\n", f)
		}
	}
}

// Details renders Print's output as a string.
func Details(err error) string {
	var b strings.Builder
	Print(&b, err)
	return b.String()
}
