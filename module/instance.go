package module

import (
	"github.com/google/uuid"

	"github.com/flomesh-io/pjs/ast"
	pjserrors "github.com/flomesh-io/pjs/errors"
	"github.com/flomesh-io/pjs/eval"
	"github.com/flomesh-io/pjs/token"
	"github.com/flomesh-io/pjs/value"
)

// Resolver is the host-supplied module resolver callback spec.md §4.6/§6
// describes: `(importer_module, path_string) -> module_or_null`. Returning
// a nil Module and nil error means "unresolved", which Link reports as a
// fatal Link-kind error; Resolver may also return its own error (e.g. a
// filesystem read failure) to surface a more specific message.
type Resolver func(importer *Module, path string) (*Module, error)

// Instance is spec.md §3's Instance: "container for modules and
// per-execution global state; owns the module table indexed by id." Its
// own ID is a fresh UUID per spec.md §5's "multiple Instances in the same
// process are independent" and SPEC_FULL.md §11's google/uuid wiring.
type Instance struct {
	ID string

	Registry *value.Registry
	Pool     *value.StringPool
	Globals  *value.Obj
	Resolve  Resolver

	modules map[string]*Module
}

// NewInstance creates an Instance bound to a class registry, string pool
// and globals object (all supplied by the host's Runtime, spec.md §4.8),
// and a module resolver callback.
func NewInstance(reg *value.Registry, pool *value.StringPool, globals *value.Obj, resolve Resolver) *Instance {
	return &Instance{
		ID:       uuid.NewString(),
		Registry: reg,
		Pool:     pool,
		Globals:  globals,
		Resolve:  resolve,
		modules:  make(map[string]*Module, 8),
	}
}

// Compile parses src into a new Module, declares and resolves its AST
// against a fresh module-kind Tree, and builds its exports object
// (spec.md §4.6's "Compilation" step). It does not link imports; call
// Link (or Execute, which links lazily) before reading from another
// module's export bindings.
func (in *Instance) Compile(path string, src []byte) (*Module, error) {
	if existing, ok := in.modules[path]; ok {
		return existing, nil
	}
	m, err := compile(in, path, src)
	if err != nil {
		return nil, err
	}
	in.modules[path] = m
	return m, nil
}

// Module looks up a previously compiled module by id/path.
func (in *Instance) Module(id string) (*Module, bool) {
	m, ok := in.modules[id]
	return m, ok
}

// Link resolves every Import in m's (transitive) import graph against the
// Instance's Resolver and runs cycle detection over forwarding re-exports
// (spec.md §4.6 steps 2-3). Linking the same Module twice is a no-op.
func (in *Instance) Link(m *Module) error {
	if m.linked {
		return nil
	}
	if m.linking {
		// A module being linked depends (directly or through a chain of
		// plain imports) on itself. Plain import cycles are tolerated
		// (spec.md §4.6): the dependency's exports object already exists
		// (built at Compile time, independent of Link), so the cycle just
		// resolves lazily through it.
		return nil
	}
	m.linking = true
	defer func() { m.linking = false }()

	var errs pjserrors.List
	for _, imp := range m.Imports {
		target, ok := in.modules[imp.Path]
		if !ok {
			if in.Resolve == nil {
				errs.AddNewf(pjserrors.Link, imp.Pos, "unresolved module %q: no resolver configured", imp.Path)
				continue
			}
			resolved, err := in.Resolve(m, imp.Path)
			if err != nil {
				errs.AddNewf(pjserrors.Link, imp.Pos, "resolving module %q: %s", imp.Path, err)
				continue
			}
			if resolved == nil {
				errs.AddNewf(pjserrors.Link, imp.Pos, "unresolved module %q", imp.Path)
				continue
			}
			target = resolved
			in.modules[imp.Path] = target
		}
		imp.Module = target
		if err := in.Link(target); err != nil {
			errs.Add(err.(pjserrors.Error))
		}
	}
	if err := errs.Err(); err != nil {
		return err
	}

	if err := checkCyclicImport(m, nil); err != nil {
		return err
	}
	m.linked = true
	return nil
}

// checkCyclicImport implements spec.md §4.6 step 3: a DFS over
// *forwarding* re-exports (Export.Forward) that returns to the module it
// started from is a "cyclic import" Link error. Direct (non-forwarding)
// import cycles are deliberately not checked here; they're tolerated
// per-spec by resolving lazily through the exports object.
func checkCyclicImport(start *Module, path []*Module) error {
	for _, p := range path {
		if p == start {
			return pjserrors.New(pjserrors.Link, token.NoPos, "cyclic import: %s", describeCycle(append(path, start)))
		}
	}
	path = append(path, start)
	for _, e := range start.Exports {
		if e.Forward == nil || e.Forward.Module == nil {
			continue
		}
		if err := checkCyclicImport(e.Forward.Module, path); err != nil {
			return err
		}
	}
	return nil
}

func describeCycle(path []*Module) string {
	s := ""
	for i, m := range path {
		if i > 0 {
			s += " -> "
		}
		s += m.id
	}
	return s
}

// Execute links m if needed, ensures every module it (transitively and
// tolerant-of-cycles) imports has run first, binds each Import's local
// slot from its target's current export value, then runs m's own body
// (spec.md §4.6's "Execution" step). Calling Execute twice on the same
// Module is a no-op returning the earlier result.
func (in *Instance) Execute(ctx *eval.Context, m *Module) error {
	if m.executed {
		return nil
	}
	if m.executing {
		// Cyclic value import: the dependency is mid-execution: read
		// whatever it has exported so far (spec.md §4.6).
		return nil
	}
	if err := in.Link(m); err != nil {
		return err
	}
	m.executing = true
	defer func() { m.executing = false }()

	savedModuleID := ctx.ModuleID
	ctx.ModuleID = m.id
	defer func() { ctx.ModuleID = savedModuleID }()

	for _, imp := range m.Imports {
		if err := in.Execute(ctx, imp.Module); err != nil {
			return err
		}
		binding, ok := imp.Module.ResolveName(imp.Name)
		if !ok {
			return pjserrors.New(pjserrors.Link, imp.Pos, "module %q has no export %q", imp.Path, imp.Name)
		}
		v, err := binding.Get(ctx)
		if err != nil {
			return err
		}
		m.scope.SetAt(0, imp.slot, v.(value.Value))
	}

	f, err := ctx.PushFrame("(root)", token.NoPos, m.scope, nil)
	if err != nil {
		return err
	}
	var runErr error
	for _, s := range m.Stmts {
		if exp, ok := s.(*ast.Export); ok && exp.Default != nil && exp.Decl == nil {
			v, err := exp.Default.Eval(ctx)
			if err != nil {
				runErr = err
				break
			}
			m.defaultValue = v
			continue
		}
		c := s.Execute(ctx)
		if c.Kind == eval.Throw {
			runErr = ctx.Err()
			break
		}
		if c.Kind == eval.Normal {
			// A bare top-level expression statement's value becomes the
			// module's result (spec.md §8's end-to-end scenarios report a
			// script's outcome this way, REPL-style, with no explicit
			// `export default`).
			m.lastValue = c.Value
		}
	}
	// PopFrame appends a "(root)" backtrace frame to runErr itself (spec.md
	// §4.6: "An uncaught throw becomes the module's runtime error with a
	// (root) frame appended").
	if err := ctx.PopFrame(f, runErr); err != nil {
		return err
	}
	m.executed = true
	return nil
}
