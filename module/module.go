// Package module implements spec.md §3/§4.6's Module & Linker: the
// compile unit that owns a parsed AST, its module-kind ast.Tree, its
// resolved import/export tables, and the exports object other modules
// read through. Grounded on cuelang.org/go/cue/build's build.Instance /
// cue/internal/core/runtime's "one compiled unit, linked against others
// resolved by a host-supplied callback" shape, adapted from CUE's package
// import graph to PJS's single-file ECMAScript-subset modules.
package module

import (
	"github.com/flomesh-io/pjs/ast"
	pjserrors "github.com/flomesh-io/pjs/errors"
	"github.com/flomesh-io/pjs/eval"
	"github.com/flomesh-io/pjs/parser"
	"github.com/flomesh-io/pjs/token"
	"github.com/flomesh-io/pjs/value"
)

// Import is one `import {a, b as c} from 'path'` specifier, resolved
// against its target Module at link time (spec.md §3: "Import
// {alias, name?, path, module?, exports_object?}").
type Import struct {
	Alias string
	Name  string
	Path  string
	Pos   token.Pos

	Module *Module // set by Link

	slot int // this module's own Tree slot backing Alias
}

// Export is one module-level export (spec.md §3: "Export {id, alias,
// name?, value_expr?, import?}"). Forward is non-nil for a forwarding
// re-export (`export {x} from 'path'`); the grammar described by
// spec.md §4.2 doesn't include that form (only `export <decl>` and
// `export default`), so Forward is always nil today, but
// checkCyclicImport walks it generically so the field only needs wiring,
// not new cycle-detection logic, the day that syntax is added.
type Export struct {
	Alias   string // local slot name ("" for a default export with no decl)
	Name    string // name visible to importers ("default" for `export default`)
	Forward *Import
	Pos     token.Pos

	isDefault bool
	slot      int
	hasSlot   bool
}

// Module is spec.md §3's Module record: a parsed, declared AST plus the
// bookkeeping the linker needs. A Module's exports object is built eagerly
// at Compile time (it only depends on the module's own declarations), so
// reading across an import cycle yields whatever the target has executed
// so far instead of deadlocking (spec.md §4.6: "direct cycles in value
// imports ... resolve lazily through the exports object").
type Module struct {
	id   string
	Path string

	Instance *Instance
	Stmts    []ast.Stmt
	Tree     *ast.Tree

	Imports []*Import
	Exports []*Export

	ExportsClass  *value.Class
	ExportsObject *value.Obj

	defaultValue value.Value
	lastValue    value.Value

	fiberNames []string
	fiberIndex map[string]int

	scope *eval.Scope

	linked    bool
	linking   bool
	executed  bool
	executing bool
}

// compile parses src and runs the declare pass, building the module's
// exports_class (spec.md §4.6 step 1) but not yet resolving its imports
// (that's Link's job, since it needs the Instance's resolver callback).
func compile(in *Instance, path string, src []byte) (*Module, error) {
	stmts, err := parser.ParseModule(path, src)
	if err != nil {
		return nil, err
	}
	m := &Module{
		id:           path,
		Path:         path,
		Instance:     in,
		Stmts:        stmts,
		fiberIndex:   make(map[string]int, 4),
		defaultValue: value.UndefinedValue,
		lastValue:    value.UndefinedValue,
	}
	m.Tree = ast.NewTree(ast.ModuleScopeKind, nil, token.NoPos)
	m.Tree.Module = m

	var errs pjserrors.List
	for _, s := range stmts {
		s.Declare(m.Tree, &errs)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	m.collectImportsExports()

	var rerrs pjserrors.List
	for _, s := range stmts {
		s.Resolve(m.Tree, &rerrs)
	}
	if err := rerrs.Err(); err != nil {
		return nil, err
	}

	m.scope = eval.NewScope(m.Tree.Shape(), nil)
	m.buildExportsClass(in)
	return m, nil
}

// collectImportsExports walks the module's top-level statements for
// *ast.Import and *ast.Export, recording each specifier's already-declared
// Tree slot (ast.Import.Declare/ast.Export.Declare ran during compile's
// declare pass above; Tree.Declare is idempotent, so re-calling it here
// just returns the same index rather than creating a second slot).
func (m *Module) collectImportsExports() {
	for _, s := range m.Stmts {
		switch n := s.(type) {
		case *ast.Import:
			for _, spec := range n.Specifiers {
				m.Imports = append(m.Imports, &Import{
					Alias: spec.Alias,
					Name:  spec.Name,
					Path:  n.Path,
					Pos:   n.Pos(),
					slot:  m.Tree.Declare(spec.Alias),
				})
			}
		case *ast.Export:
			m.Exports = append(m.Exports, exportsOf(m.Tree, n)...)
		}
	}
}

// exportsOf extracts the one-or-more export records a single `export`
// statement produces: `export default expr` yields one unnamed-slot
// export named "default"; `export var a = 1, b = 2` yields one export per
// declarator, each named after its declared identifier.
func exportsOf(t *ast.Tree, n *ast.Export) []*Export {
	if n.Default != nil {
		return []*Export{{Name: "default", Pos: n.Pos(), isDefault: true}}
	}
	var names []string
	// `export function f() {...}` also arrives here as *ast.Var:
	// parser.parseFunctionDecl desugars a named function declaration into
	// a single Var declarator (Target: the function's name, Init: the
	// function literal), so both forms share this one case.
	if decl, ok := n.Decl.(*ast.Var); ok {
		for _, d := range decl.Declarators {
			if id, ok := d.Target.(*ast.Identifier); ok {
				names = append(names, id.Name)
			}
		}
	}
	exports := make([]*Export, 0, len(names))
	for _, name := range names {
		exports = append(exports, &Export{
			Alias:   name,
			Name:    name,
			Pos:     n.Pos(),
			slot:    t.Declare(name),
			hasSlot: true,
		})
	}
	return exports
}

// buildExportsClass constructs the one-off Class backing this module's
// exports object (spec.md §4.6 step 1): one Accessor field per export,
// reading the module's persistent top-level Scope so a reader always
// observes the exporter's current value, not a value snapshotted at link
// time (spec.md §4.5's Scope-by-reference closure semantics extended to
// cross-module reads).
func (m *Module) buildExportsClass(in *Instance) {
	c := value.NewClass("Module<"+m.id+">", in.Registry.ObjectClass)
	for _, e := range m.Exports {
		e := e
		c.AddField(&value.Field{
			Name:  in.Pool.Intern(e.Name),
			Kind:  value.AccessorField,
			Flags: value.Enumerable,
			Get:   m.exportGetter(e),
		})
	}
	c.Freeze(in.Pool)
	m.ExportsClass = c
	m.ExportsObject = value.NewObj(in.Pool, c)
}

func (m *Module) exportGetter(e *Export) value.Getter {
	return func(ctx value.Context, recv *value.Obj) (value.Value, error) {
		if e.isDefault {
			return m.defaultValue, nil
		}
		return m.scope.At(0, e.slot), nil
	}
}

// --- ast.ModuleScope -------------------------------------------------------

func (m *Module) ID() string { return m.id }

// Result returns this module's completion value: the last top-level
// expression statement's value, or the explicit `export default` value if
// one was evaluated (spec.md §8's end-to-end scenarios describe running a
// script and reading back "the" result this way).
func (m *Module) Result() value.Value {
	if !m.defaultValue.IsUndefined() {
		return m.defaultValue
	}
	return m.lastValue
}

// FiberCount reports how many "$"-prefixed fiber variables this module
// declared (spec.md §3's Module.fiber_variable_count), so a host's Fiber
// implementation can size per-module storage correctly instead of growing
// it reactively (ast.Identifier's fiberIdent Assign path silently drops a
// write whose index is out of bounds).
func (m *Module) FiberCount() int { return len(m.fiberNames) }

func (m *Module) DeclareFiber(name string) int {
	if i, ok := m.fiberIndex[name]; ok {
		return i
	}
	i := len(m.fiberNames)
	m.fiberNames = append(m.fiberNames, name)
	m.fiberIndex[name] = i
	return i
}

// FiberIndex looks up the slot a "$"-prefixed name was assigned during
// declare/resolve without creating one, so a host can seed fiber storage
// (spec.md §3) before Execute runs using names gathered from its own
// configuration rather than by guessing indices.
func (m *Module) FiberIndex(name string) (int, bool) {
	i, ok := m.fiberIndex[name]
	return i, ok
}

// ResolveName implements spec.md §4.5's module-level fallback lookup:
// first this module's own exports, then its own import aliases. In the
// current grammar every Import/Export also gets a local Tree slot (see
// ast.Import.Declare/ast.Export.Declare), so an Identifier inside this
// module resolves as localIdent long before reaching here; ResolveName's
// real callers are the linker itself (building an importer's snapshot
// from a target module's export binding) and, once forwarding exports are
// parsed, the exportedIdent/importedIdent path in ast.resolveName.
func (m *Module) ResolveName(name string) (ast.Binding, bool) {
	for _, e := range m.Exports {
		if e.Name == name {
			e := e
			return ast.Binding{
				Kind: ast.ExportedBinding,
				Get: func(ctx *eval.Context) (interface{}, error) {
					if e.isDefault {
						return m.defaultValue, nil
					}
					return m.scope.At(0, e.slot), nil
				},
				Set: func(ctx *eval.Context, v interface{}) error {
					if !e.hasSlot {
						return ctx.Throwf("cannot assign to export %q", name)
					}
					m.scope.SetAt(0, e.slot, v.(value.Value))
					return nil
				},
			}, true
		}
	}
	for _, imp := range m.Imports {
		if imp.Alias == name {
			imp := imp
			return ast.Binding{
				Kind: ast.ImportedBinding,
				Get: func(ctx *eval.Context) (interface{}, error) {
					return m.scope.At(0, imp.slot), nil
				},
			}, true
		}
	}
	return ast.Binding{}, false
}
