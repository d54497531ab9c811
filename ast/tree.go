// Package ast implements the PJS AST spec.md §4.3-§4.5 describes: sum-typed
// Expr/Stmt nodes with a uniform declare/resolve/eval-or-execute/assign
// contract, built over a two-phase compile-time Tree::Scope and the eval
// package's runtime Scope. Grounded on cuelang.org/go/cue/ast's flat,
// Position-carrying node shapes (ast_ast.go, ast_ident.go) and on
// cue/parser's bottom-up-declare/top-down-resolve scope walk
// (parser_resolve.go), adapted from CUE's single comma-separated-fields
// scope kind to PJS's seven Tree::Scope kinds and three extra binding kinds
// (imported/exported/fiber) spec.md §3 requires.
package ast

import (
	"github.com/flomesh-io/pjs/eval"
	pjserrors "github.com/flomesh-io/pjs/errors"
	"github.com/flomesh-io/pjs/token"
)

// ScopeKind tags which of spec.md §3's seven Tree::Scope shapes a Tree is.
type ScopeKind uint8

const (
	ModuleScopeKind ScopeKind = iota
	FunctionScopeKind
	CatchScopeKind
	BlockScopeKind
	LabelScopeKind
	SwitchScopeKind
	LoopScopeKind
)

// frameOwning reports whether this scope kind allocates its own runtime
// Scope frame. Module, Function and Catch do (Catch is modeled as a
// one-argument function per spec.md §4.4); Block/Label/Switch/Loop are
// purely lexical markers that declare()'s hoisting climbs past.
func (k ScopeKind) frameOwning() bool {
	return k == ModuleScopeKind || k == FunctionScopeKind || k == CatchScopeKind
}

// ModuleScope is the surface a module-kind Tree needs from its owning
// Module (package module) to resolve imports, exports and fiber variables,
// kept as an interface here so ast never imports module (module already
// imports ast for Module.Root). Mirrors value.Context's role for the value
// package.
type ModuleScope interface {
	// ID is the module identifier fiber.Data(moduleID) is keyed by.
	ID() string
	// ResolveName looks up name among this module's imports then exports,
	// per spec.md §4.3's resolve search order. ok is false if name is
	// neither.
	ResolveName(name string) (Binding, bool)
	// DeclareFiber registers (or finds) the module-wide fiber-table index
	// for a "$"-prefixed variable name (spec.md §3, §4.4).
	DeclareFiber(name string) int
}

// BindingKind tags what an imported/exported module-level name resolves
// to, for diagnostics only (the Get/Set closures do the actual work).
type BindingKind uint8

const (
	ImportedBinding BindingKind = iota
	ExportedBinding
)

// Binding is a module-level (import or export) name binding, constructed
// by the module package's linker and handed back through ModuleScope so
// Identifier.Resolve/Eval/Assign never need to know about module.Module,
// module.Import or module.Export directly.
type Binding struct {
	Kind BindingKind
	Get  func(ctx *eval.Context) (interface{}, error)
	Set  func(ctx *eval.Context, v interface{}) error // nil if read-only
}

// slot describes one declared name's storage within a frame-owning Tree.
type slot struct {
	name      string
	isArg     bool
	isClosure bool
}

// Tree is the compile-time scope spec.md §3 calls Tree::Scope: one per
// lexical region, holding ordered arg/local name lists, a name->index map
// for its own frame (only meaningful when Kind.frameOwning()), and a
// back-pointer to the lexically enclosing Tree.
type Tree struct {
	Kind   ScopeKind
	Parent *Tree
	Pos    token.Pos // scope-opening position, for diagnostics

	Label string // LabelScopeKind only: the label name

	Module ModuleScope // non-nil only on the root Module-kind Tree

	slots []slot
	index map[string]int
}

// NewTree creates a child scope of parent with the given kind.
func NewTree(kind ScopeKind, parent *Tree, pos token.Pos) *Tree {
	return &Tree{Kind: kind, Parent: parent, Pos: pos, index: make(map[string]int, 4)}
}

// frameOwner returns the nearest Module/Function/Catch ancestor (inclusive)
// that owns a runtime Scope frame — the hoisting target for Var spec.md
// §4.4/§4.5 describes.
func (t *Tree) frameOwner() *Tree {
	o := t
	for !o.Kind.frameOwning() {
		o = o.Parent
	}
	return o
}

// moduleTree walks to the root Module-kind Tree, for fiber/import/export
// lookups that are always module-wide regardless of nesting depth.
func (t *Tree) moduleTree() *Tree {
	m := t
	for m.Kind != ModuleScopeKind {
		m = m.Parent
	}
	return m
}

// DeclareArg appends name as an argument slot on this Tree's own frame
// (FunctionLiteral/Catch parameters only — Module never has args).
func (t *Tree) DeclareArg(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	i := len(t.slots)
	t.slots = append(t.slots, slot{name: name, isArg: true})
	t.index[name] = i
	return i
}

// Declare registers name as a local var in the nearest frame-owning
// ancestor, hoisting past Block/Label/Switch/Loop scopes (spec.md §4.4's
// "Var declarations register their names in the nearest module or
// function scope"). Duplicate declarations in the same frame are merged
// silently (spec.md §9's documented "later initializer wins" behaviour):
// the existing slot index is returned unchanged.
func (t *Tree) Declare(name string) int {
	owner := t.frameOwner()
	if i, ok := owner.index[name]; ok {
		return i
	}
	i := len(owner.slots)
	owner.slots = append(owner.slots, slot{name: name})
	owner.index[name] = i
	return i
}

// DeclareFiber registers a "$"-prefixed name in the module-wide fiber
// table (spec.md §3: fiber indices are module-scoped, not per-function),
// regardless of which nested function scope the Var declaring it lives in.
func (t *Tree) DeclareFiber(name string) int {
	return t.moduleTree().Module.DeclareFiber(name)
}

// lookupLocal searches this Tree's own frame (if frame-owning) for name.
func (t *Tree) lookupLocal(name string) (int, bool) {
	if !t.Kind.frameOwning() {
		return 0, false
	}
	i, ok := t.index[name]
	return i, ok
}

// markClosure flags slot i of this (frame-owning) Tree as surviving
// Scope.Clear across calls, because resolve() found it accessed from a
// nested function scope (spec.md §4.5).
func (t *Tree) markClosure(i int) {
	t.slots[i].isClosure = true
}

// Shape finalizes this Tree's frame layout into the eval package's runtime
// allocation blueprint. Only meaningful for frame-owning Trees.
func (t *Tree) Shape() *eval.FrameShape {
	argc := 0
	descs := make([]eval.SlotDesc, len(t.slots))
	for i, s := range t.slots {
		if s.isArg {
			argc++
		}
		descs[i] = eval.SlotDesc{Name: s.name, IsClosure: s.isClosure}
	}
	return &eval.FrameShape{ArgCount: argc, Slots: descs}
}

// identKind tags which of spec.md §4.3's five resolved-identifier variants
// an Identifier became.
type identKind uint8

const (
	unresolvedIdent identKind = iota
	localIdent
	importedIdent
	exportedIdent
	globalIdent
	fiberIdent
)

// resolved is the concrete accessor an Identifier's resolve() pass
// computes once and Eval/Assign replay on every visit.
type resolved struct {
	kind    identKind
	level   int     // function-boundary crossings, localIdent only
	index   int     // frame slot (localIdent) or fiber-table index (fiberIdent)
	binding Binding // importedIdent / exportedIdent
	key     string  // globalIdent: the property name on Context.Globals
}

// resolveName implements spec.md §4.5's top-down resolution walk for one
// identifier name, starting at Tree t: walk child scopes upward searching
// each Tree::Scope's variables (the first match wins); if not found, try
// the module's imports, then its exports, then the instance-global
// object. A local found in a frame-owning Tree above t's own enclosing
// function is marked as a closure slot, since its value must survive that
// function's Scope.Clear (spec.md §4.5).
func resolveName(t *Tree, name string) resolved {
	if len(name) > 1 && name[0] == '$' {
		return resolved{kind: fiberIdent, index: t.moduleTree().Module.DeclareFiber(name)}
	}
	owner := t.frameOwner()
	frame := owner
	level := 0
	for cur := t; cur != nil; cur = cur.Parent {
		if cur.Kind.frameOwning() && cur != frame {
			level++
			frame = cur
		}
		if i, ok := cur.lookupLocal(name); ok {
			if cur != owner {
				cur.markClosure(i)
			}
			return resolved{kind: localIdent, level: level, index: i}
		}
	}
	mod := t.moduleTree()
	if mod.Module != nil {
		if b, ok := mod.Module.ResolveName(name); ok {
			if b.Kind == ImportedBinding {
				return resolved{kind: importedIdent, binding: b}
			}
			return resolved{kind: exportedIdent, binding: b}
		}
	}
	return resolved{kind: globalIdent, key: name}
}

func newErrf(errs *pjserrors.List, pos token.Pos, format string, args ...interface{}) bool {
	errs.AddNewf(pjserrors.Declare, pos, format, args...)
	return false
}
