// Package eval implements the Evaluator Context spec.md §4.7 describes: a
// runtime call stack of frames, the globals/per-instance state a Context
// carries alongside the active Scope, and the shared error/backtrace
// accumulator every eval/execute call reports through. It is grounded on
// cuelang.org/go/internal/core/adt's OpContext (internal/core/adt/context.go)
// for the general shape of "one mutable Context threaded through every
// evaluation step, with a stack of call frames for backtraces", adapted
// from CUE's constraint-evaluation frames to PJS's function-call frames.
package eval

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	pjserrors "github.com/flomesh-io/pjs/errors"
	"github.com/flomesh-io/pjs/token"
	"github.com/flomesh-io/pjs/value"
)

// CompletionKind tags the outcome of executing a statement, spec.md §4.4's
// four-variant Completion record.
type CompletionKind uint8

const (
	Normal CompletionKind = iota
	Return
	Break
	Continue
	Throw
)

// Completion is the discriminated record every Stmt.Execute produces.
type Completion struct {
	Kind  CompletionKind
	Label string
	Value value.Value
}

func (c Completion) IsAbrupt() bool { return c.Kind != Normal }

// Frame is one entry of the runtime call stack: the caller (for error
// propagation and backtrace assembly), the active lexical Scope, the
// arguments the call was made with, and the source position of the call
// site (spec.md §4.7, §4.3 "Call frames push the source line/column before
// dispatch").
type Frame struct {
	Caller *Frame
	Scope  *Scope
	Args   []value.Value
	Name   string
	Pos    token.Pos
}

// Context is the evaluator's per-Instance-execution state: the live call
// stack, the globals object ("g"), fiber storage, the class registry and
// string pool, and the pending error (if any). One Context is created per
// top-level Execute/Call from a host and is not safe for concurrent use
// (spec.md §5: single-threaded, re-entrant per Instance).
type Context struct {
	ID       string
	Reg      *value.Registry
	Pool     *value.StringPool
	Globals  *value.Obj
	Fiber    Fiber
	ModuleID string

	top      *Frame
	depth    int
	maxDepth int
	callSite token.Pos
	err      pjserrors.Error
	log      *logrus.Logger
}

// Options configures a new Context. A zero Options is valid: no max-depth
// guard, a discarding logger.
type Options struct {
	MaxCallDepth int
	Logger       *logrus.Logger
}

// NewContext creates a Context bound to registry/pool/globals, ready to run
// one module or resume a linked import graph. fiber may be nil for scripts
// that declare no "$"-prefixed variables.
func NewContext(registry *value.Registry, pool *value.StringPool, globals *value.Obj, fiber Fiber, opts Options) *Context {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(discardWriter{})
	}
	return &Context{
		ID:       uuid.NewString(),
		Reg:      registry,
		Pool:     pool,
		Globals:  globals,
		Fiber:    fiber,
		maxDepth: opts.MaxCallDepth,
		log:      logger,
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// Log exposes the context's logger for diagnostic tracing: see
// SPEC_FULL.md §10.2. No engine component writes entries to it.
func (c *Context) Log() *logrus.Logger { return c.log }

// PushFrame enters a new call, pushing frame onto the stack and enforcing
// the optional MaxCallDepth guard (spec.md §5 documents unbounded recursion
// as a hazard the core doesn't itself enforce; SPEC_FULL.md §10.3 makes the
// guard an opt-in Runtime option instead of leaving it wholly unbounded).
func (c *Context) PushFrame(name string, pos token.Pos, scope *Scope, args []value.Value) (*Frame, error) {
	c.depth++
	if c.maxDepth > 0 && c.depth > c.maxDepth {
		c.depth--
		return nil, c.Throwf("call stack exceeded max depth %d", c.maxDepth)
	}
	f := &Frame{Caller: c.top, Scope: scope, Args: args, Name: name, Pos: pos}
	c.top = f
	return f, nil
}

// PopFrame leaves the current call. If err is non-nil it is annotated with
// a backtrace Frame for the call that's unwinding (spec.md §4.7).
func (c *Context) PopFrame(f *Frame, err error) error {
	c.depth--
	c.top = f.Caller
	if err == nil {
		return nil
	}
	pe, ok := err.(pjserrors.Error)
	if !ok {
		pe = pjserrors.New(pjserrors.Runtime, f.Pos, "%s", err.Error())
	}
	return pjserrors.WithBacktrace(pe, pjserrors.Frame{Name: f.Name, Pos: f.Pos})
}

// TopFrame returns the innermost active call frame, or nil at module top
// level.
func (c *Context) TopFrame() *Frame { return c.top }

// ScopeOrNil returns f.Scope, or nil if f itself is nil (module top level,
// before any call frame has been pushed).
func (f *Frame) ScopeOrNil() *Scope {
	if f == nil {
		return nil
	}
	return f.Scope
}

// --- value.Context implementation -----------------------------------------

func (c *Context) Intern(s string) *value.Str { return c.Pool.Intern(s) }

func (c *Context) NewString(s string) value.Value { return value.StrValue(c.Pool.Intern(s)) }

func (c *Context) NewObject(cl *value.Class) *value.Obj { return value.NewObj(c.Pool, cl) }

func (c *Context) Registry() *value.Registry { return c.Reg }

// Call invokes a Function value: a Callable bound either to a builtin
// Native (Fn) or a user closure (Closure), per spec.md §4.3's Invocation
// semantics ("evaluate callee, then arguments left-to-right"). It pushes
// one call frame at the last-recorded call site (set via CallAt) for the
// duration of the call, so backtraces see exactly one frame per user-level
// invocation regardless of whether the callee is a builtin or a closure.
func (c *Context) Call(fn value.Value, recv *value.Obj, args []value.Value) (value.Value, error) {
	if fn.Kind() != value.Object || fn.AsObject() == nil {
		return value.UndefinedValue, c.Throwf("not a function")
	}
	callable, ok := fn.AsObject().Native.(*value.Callable)
	if !ok {
		return value.UndefinedValue, c.Throwf("not a function")
	}
	if recv == nil {
		recv = callable.Recv
	}
	if callable.Closure != nil {
		cl := callable.Closure.(*Closure)
		scope := cl.NewScope()
		for i := 0; i < len(args) && i < len(scope.Slots); i++ {
			scope.Slots[i] = args[i]
		}
		f, err := c.PushFrame(callable.Name, c.callSite, scope, args)
		if err != nil {
			return value.UndefinedValue, err
		}
		result, runErr := cl.Run(c, scope, args)
		return result, c.PopFrame(f, runErr)
	}
	if callable.Fn != nil {
		f, err := c.PushFrame(callable.Name, c.callSite, nil, args)
		if err != nil {
			return value.UndefinedValue, err
		}
		result, runErr := callable.Fn(c, recv, args)
		return result, c.PopFrame(f, runErr)
	}
	return value.UndefinedValue, c.Throwf("not a function")
}

// CallAt is Call preceded by recording pos as the call site a pushed frame
// reports (spec.md §4.3: "Call frames push the source line/column before
// dispatch"). ast.Call/ast.New use this instead of Call directly so the
// backtrace frame carries the call expression's own position rather than
// whatever an unrelated prior call last recorded.
func (c *Context) CallAt(pos token.Pos, fn value.Value, recv *value.Obj, args []value.Value) (value.Value, error) {
	saved := c.callSite
	c.callSite = pos
	v, err := c.Call(fn, recv, args)
	c.callSite = saved
	return v, err
}

// Construct implements `new F(...)`: F's bound Callable must carry a
// constructor Class (spec.md §4.3), whose instance is allocated and passed
// as the receiver to the constructor body, then returned unless the body
// itself returns an Object (ECMAScript's "constructor may override the
// allocated instance" rule, preserved here for builtins like Array that
// construct themselves from literal arguments).
func (c *Context) Construct(fn value.Value, args []value.Value) (value.Value, error) {
	if fn.Kind() != value.Object || fn.AsObject() == nil {
		return value.UndefinedValue, c.Throwf("not a constructor")
	}
	callable, ok := fn.AsObject().Native.(*value.Callable)
	if !ok || callable.Ctor == nil {
		return value.UndefinedValue, c.Throwf("not a constructor")
	}
	inst := c.NewObject(callable.Ctor)
	result, err := c.Call(fn, inst, args)
	if err != nil {
		return value.UndefinedValue, err
	}
	if result.Kind() == value.Object {
		return result, nil
	}
	return value.ObjValue(inst), nil
}

// ConstructAt is Construct preceded by recording pos as the call site, the
// `new` counterpart of CallAt.
func (c *Context) ConstructAt(pos token.Pos, fn value.Value, args []value.Value) (value.Value, error) {
	saved := c.callSite
	c.callSite = pos
	v, err := c.Construct(fn, args)
	c.callSite = saved
	return v, err
}

func (c *Context) Throw(v value.Value) error {
	c.err = pjserrors.New(pjserrors.Thrown, c.posOrNoPos(), "%s", describeThrown(v, c))
	return c.err
}

func (c *Context) Throwf(format string, args ...interface{}) error {
	c.err = pjserrors.New(pjserrors.Runtime, c.posOrNoPos(), format, args...)
	return c.err
}

func (c *Context) posOrNoPos() token.Pos {
	if c.top != nil {
		return c.top.Pos
	}
	return token.NoPos
}

func describeThrown(v value.Value, c *Context) string {
	return value.ToStringValue(v, func(o *value.Obj) string {
		if o == nil {
			return "null"
		}
		return fmt.Sprintf("[object %s]", o.Class.Name)
	})
}

// Err returns the last error Throw/Throwf recorded (spec.md §6 "after any
// public call, the host queries ok()").
func (c *Context) Err() pjserrors.Error { return c.err }

// ClearErr clears the pending error, used by a catch clause that has
// bound the thrown value (spec.md §4.4).
func (c *Context) ClearErr() { c.err = nil }

// Ok reports whether the context currently holds no pending error.
func (c *Context) Ok() bool { return c.err == nil }
