// Package pjs assembles the scanner/parser/ast/eval/module/builtin/value
// packages into the embeddable engine spec.md §6 describes: a Runtime a
// host constructs once, then repeatedly compiles, links and executes
// Sources against, querying ok()/error()/where() after each call. Grounded
// on cuelang.org/go/cue.Context/Runtime (cue/context.go), which plays the
// identical "single entry point owning a shared Registry/Instance,
// constructed via functional Option" role for the CUE evaluator.
package pjs

import (
	"github.com/sirupsen/logrus"

	"github.com/flomesh-io/pjs/builtin"
	pjserrors "github.com/flomesh-io/pjs/errors"
	"github.com/flomesh-io/pjs/eval"
	"github.com/flomesh-io/pjs/module"
	"github.com/flomesh-io/pjs/token"
	"github.com/flomesh-io/pjs/value"
)

// Option configures a Runtime at construction time (SPEC_FULL.md §10.3).
type Option func(*Runtime)

// WithLogger replaces the Runtime's default discarding logrus.Logger
// (SPEC_FULL.md §10.2) with one the host controls.
func WithLogger(log *logrus.Logger) Option {
	return func(r *Runtime) {
		if log != nil {
			r.logger = log
		}
	}
}

// WithDebugLogging raises the Runtime's logger to logrus.DebugLevel. The
// logger is reachable through eval.Context.Log; the engine itself writes
// no entries to it.
func WithDebugLogging() Option {
	return func(r *Runtime) { r.logger.SetLevel(logrus.DebugLevel) }
}

// WithModuleResolver installs the host callback spec.md §4.6/§6 describes:
// `(importer_module, path_string) -> module_or_null`, consulted once per
// Import during linking.
func WithModuleResolver(resolve module.Resolver) Option {
	return func(r *Runtime) { r.resolve = resolve }
}

// WithMaxCallDepth bounds recursion (spec.md §5 flags unbounded recursion
// as a hazard the core itself doesn't enforce; this makes the guard an
// opt-in Runtime setting instead).
func WithMaxCallDepth(n int) Option {
	return func(r *Runtime) { r.maxCallDepth = n }
}

// Runtime is one embeddable PJS engine instance: its own class registry,
// string pool, globals object and module table (spec.md §5: "multiple
// Instances in the same process are independent").
type Runtime struct {
	Registry *value.Registry
	Pool     *value.StringPool
	Globals  *value.Obj

	logger       *logrus.Logger
	resolve      module.Resolver
	maxCallDepth int

	instance *module.Instance
	fiber    *fiberStore

	err pjserrors.Error
}

// New constructs a Runtime: a fresh string pool and class registry with
// every builtin.Register class wired in, an empty globals object, and a
// module.Instance bound to the (optional) resolver an Option supplies.
func New(opts ...Option) *Runtime {
	pool := value.NewStringPool()
	registry := value.NewRegistry(pool)
	builtin.Register(registry, pool)

	r := &Runtime{
		Registry: registry,
		Pool:     pool,
		logger:   discardingLogger(),
		fiber:    newFiberStore(),
	}
	r.Globals = value.NewObj(pool, registry.ObjectClass)
	for _, opt := range opts {
		opt(r)
	}
	r.instance = module.NewInstance(registry, pool, r.Globals, r.resolve)
	return r
}

func discardingLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = discardWriter{}
	return l
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// Compile parses src into a Module (spec.md §4.6's Compilation step),
// recording any Parse/Declare error as this Runtime's pending error.
func (r *Runtime) Compile(path string, src []byte) (*module.Module, error) {
	m, err := r.instance.Compile(path, src)
	r.record(err)
	return m, err
}

// Link resolves m's import graph (spec.md §4.6's Linking step).
func (r *Runtime) Link(m *module.Module) error {
	err := r.instance.Link(m)
	r.record(err)
	return err
}

// Execute links m if needed, primes fiber-variable storage for it and
// every module it (transitively) imports, runs it, and returns its result
// (spec.md §8's end-to-end scenarios read back a script's outcome this
// way: the last top-level expression's value, or an explicit `export
// default`). A failure leaves ok() false; the returned Value is then
// meaningless and should be ignored in favour of Error().
func (r *Runtime) Execute(m *module.Module) (value.Value, error) {
	if err := r.instance.Link(m); err != nil {
		r.record(err)
		return value.UndefinedValue, err
	}
	r.primeFibers(m, make(map[string]bool, 4))

	ctx := eval.NewContext(r.Registry, r.Pool, r.Globals, r.fiber, eval.Options{
		MaxCallDepth: r.maxCallDepth,
		Logger:       r.logger,
	})
	if err := r.instance.Execute(ctx, m); err != nil {
		r.record(err)
		return value.UndefinedValue, err
	}
	r.err = nil
	return m.Result(), nil
}

// SetFiber seeds one "$"-prefixed fiber variable m declared, ahead of
// Execute, with a host-supplied value (spec.md §3: fiber variables are
// "external host-owned token[s]" the script reads/writes but does not
// itself initialize). Reports false if m declared no variable by that
// name.
func (r *Runtime) SetFiber(m *module.Module, name string, v value.Value) bool {
	idx, ok := m.FiberIndex(name)
	if !ok {
		return false
	}
	r.fiber.ensure(m.ID(), m.FiberCount())
	r.fiber.set(m.ID(), idx, v)
	return true
}

func (r *Runtime) primeFibers(m *module.Module, seen map[string]bool) {
	if seen[m.ID()] {
		return
	}
	seen[m.ID()] = true
	r.fiber.ensure(m.ID(), m.FiberCount())
	for _, imp := range m.Imports {
		if imp.Module != nil {
			r.primeFibers(imp.Module, seen)
		}
	}
}

func (r *Runtime) record(err error) {
	if err == nil {
		return
	}
	if pe, ok := err.(pjserrors.Error); ok {
		r.err = pe
		return
	}
	r.err = pjserrors.New(pjserrors.Runtime, token.NoPos, "%s", err.Error())
}

// Ok reports whether the Runtime's last compile/link/execute call
// succeeded (spec.md §6).
func (r *Runtime) Ok() bool { return r.err == nil }

// ErrorInfo is the host-facing error record spec.md §6 promises:
// `{message, backtrace: Vec<{name, line, column}>}`.
type ErrorInfo struct {
	Kind      string
	Message   string
	Backtrace []BacktraceFrame
}

// BacktraceFrame is one Vec entry of ErrorInfo.Backtrace.
type BacktraceFrame struct {
	Name   string
	Line   int
	Column int
}

// Error returns the last pending error's host-facing form, or nil if ok().
func (r *Runtime) Error() *ErrorInfo {
	if r.err == nil {
		return nil
	}
	info := &ErrorInfo{Kind: r.err.Kind().String(), Message: r.err.Error()}
	for _, f := range r.err.Backtrace() {
		pos := f.Pos.Position()
		info.Backtrace = append(info.Backtrace, BacktraceFrame{Name: f.Name, Line: pos.Line, Column: pos.Column})
	}
	return info
}

// Where returns the first backtrace frame with a nonzero line/column
// (spec.md §6), and false if there is no pending error or every frame's
// position is unknown (token.NoPos, e.g. a Link error with no source
// site).
func (r *Runtime) Where() (BacktraceFrame, bool) {
	if r.err == nil {
		return BacktraceFrame{}, false
	}
	pos := r.err.Position()
	if p := pos.Position(); p.Line != 0 || p.Column != 0 {
		return BacktraceFrame{Name: "", Line: p.Line, Column: p.Column}, true
	}
	for _, f := range r.err.Backtrace() {
		p := f.Pos.Position()
		if p.Line != 0 || p.Column != 0 {
			return BacktraceFrame{Name: f.Name, Line: p.Line, Column: p.Column}, true
		}
	}
	return BacktraceFrame{}, false
}

// Inspect renders v as a host-facing display string (SPEC_FULL.md §10.5's
// `cmd/pjs` output): a String value is quoted, matching how the end-to-end
// scenarios in spec.md §8 describe a script's output (`"A-B-C"` vs a bare
// `4`); everything else goes through ToStringValue's valueOf/toString
// dispatch, which needs a live Context to invoke those methods.
func (r *Runtime) Inspect(v value.Value) string {
	if v.Kind() == value.String {
		return `"` + v.AsStr().String() + `"`
	}
	ctx := eval.NewContext(r.Registry, r.Pool, r.Globals, r.fiber, eval.Options{
		MaxCallDepth: r.maxCallDepth,
		Logger:       r.logger,
	})
	return ctx.ToStringValue(v)
}

// Details renders the pending error (message plus indented backtrace) the
// way a CLI host would print it (SPEC_FULL.md §10.5).
func (r *Runtime) Details() string {
	if r.err == nil {
		return ""
	}
	return pjserrors.Details(r.err)
}
