package ast

import (
	"github.com/flomesh-io/pjs/eval"
	pjserrors "github.com/flomesh-io/pjs/errors"
	"github.com/flomesh-io/pjs/token"
	"github.com/flomesh-io/pjs/value"
)

func normal() eval.Completion { return eval.Completion{Kind: eval.Normal} }

// --- Block -----------------------------------------------------------------

// Block is `{ stmts... }`. It propagates non-Normal completions to its
// caller and stops iterating; a Normal completion carries forward the
// last executed statement's value, so a catch/if/for body ending in a
// bare expression statement still yields that value to whatever executes
// the Block (spec.md §4.4, and §8 end-to-end scenario 4's
// `catch(e) { e.code }`).
type Block struct {
	pos
	Stmts []Stmt
}

func (n *Block) Declare(t *Tree, errs *pjserrors.List) bool {
	child := NewTree(BlockScopeKind, t, n.P)
	return declareAll(n.Stmts, child, errs)
}

func (n *Block) Resolve(t *Tree, errs *pjserrors.List) bool {
	return resolveAll(n.Stmts, t, errs)
}

func (n *Block) Execute(ctx *eval.Context) eval.Completion {
	result := normal()
	for _, s := range n.Stmts {
		c := s.Execute(ctx)
		if c.IsAbrupt() {
			return c
		}
		if c.Kind == eval.Normal {
			result = c
		}
	}
	return result
}

// NOTE: Block.Declare above opens a fresh lexical Tree per block, but that
// Tree is only used to host the new Tree node in the resolve chain. Since
// Go doesn't let Declare change what Resolve later walks without storing
// the child, Block instead keeps declare/resolve symmetric by
// re-synthesising an equivalent child scope in Resolve. Both passes use
// the *same* BlockScopeKind Tree shape (stateless markers, per spec.md
// §4.5: hoisting climbs past Block scopes regardless), so this is safe:
// the child Tree carries no identity that must survive between passes.
func declareAll(stmts []Stmt, t *Tree, errs *pjserrors.List) bool {
	ok := true
	for _, s := range stmts {
		ok = s.Declare(t, errs) && ok
	}
	return ok
}

func resolveAll(stmts []Stmt, t *Tree, errs *pjserrors.List) bool {
	child := NewTree(BlockScopeKind, t, token.NoPos)
	ok := true
	for _, s := range stmts {
		ok = s.Resolve(child, errs) && ok
	}
	return ok
}

// --- ExpressionStatement -----------------------------------------------

type ExpressionStatement struct {
	pos
	Expr Expr
}

func (n *ExpressionStatement) Declare(t *Tree, errs *pjserrors.List) bool {
	return n.Expr.Declare(t, errs, false)
}
func (n *ExpressionStatement) Resolve(t *Tree, errs *pjserrors.List) bool {
	return n.Expr.Resolve(t, errs)
}
func (n *ExpressionStatement) Execute(ctx *eval.Context) eval.Completion {
	v, err := n.Expr.Eval(ctx)
	if err != nil {
		return eval.Completion{Kind: eval.Throw}
	}
	// Carrying the value on an otherwise-Normal completion costs nothing
	// mid-block (every caller but the module's top-level runner ignores
	// it) and lets a bare top-level expression serve as a script's result,
	// REPL-style (spec.md §8's end-to-end scenarios report outcomes this
	// way with no explicit `export default`).
	return eval.Completion{Kind: eval.Normal, Value: v}
}

// --- Var (also backs `let`/`const`, spec.md's supplemented alias) -------

// VarDeclarator is one `name = init` (or destructuring `pattern = init`)
// binding within a Var statement.
type VarDeclarator struct {
	Target Expr // Identifier, or ArrayLit/ObjectLit destructuring pattern
	Init   Expr // nil if uninitialized
}

// Var is `var`/`let`/`const` (spec.md §4.4 supplemented: let/const are
// declaration-keyword aliases for var, carrying no distinct scoping or
// reassignment-checking semantics in this engine). Names register in the
// nearest module/function scope (hoisting); initializer assignments fire
// in declaration order at execution time (spec.md §4.4).
type Var struct {
	pos
	Declarators []VarDeclarator
}

func (n *Var) Declare(t *Tree, errs *pjserrors.List) bool {
	ok := true
	for _, d := range n.Declarators {
		ok = d.Target.Declare(t, errs, true) && ok
		if d.Init != nil {
			ok = d.Init.Declare(t, errs, false) && ok
		}
	}
	return ok
}

func (n *Var) Resolve(t *Tree, errs *pjserrors.List) bool {
	ok := true
	for _, d := range n.Declarators {
		ok = d.Target.Resolve(t, errs) && ok
		if d.Init != nil {
			ok = d.Init.Resolve(t, errs) && ok
		}
	}
	return ok
}

func (n *Var) Execute(ctx *eval.Context) eval.Completion {
	for _, d := range n.Declarators {
		var v value.Value = value.UndefinedValue
		if d.Init != nil {
			iv, err := d.Init.Eval(ctx)
			if err != nil {
				return eval.Completion{Kind: eval.Throw}
			}
			v = iv
		}
		if err := d.Target.Assign(ctx, v); err != nil {
			return eval.Completion{Kind: eval.Throw}
		}
	}
	return normal()
}

// --- If ----------------------------------------------------------------

type If struct {
	pos
	Test       Expr
	Cons, Alt  Stmt // Alt is nil when there is no else clause
}

func (n *If) Declare(t *Tree, errs *pjserrors.List) bool {
	ok := n.Test.Declare(t, errs, false)
	ok = n.Cons.Declare(t, errs) && ok
	if n.Alt != nil {
		ok = n.Alt.Declare(t, errs) && ok
	}
	return ok
}

func (n *If) Resolve(t *Tree, errs *pjserrors.List) bool {
	ok := n.Test.Resolve(t, errs)
	ok = n.Cons.Resolve(t, errs) && ok
	if n.Alt != nil {
		ok = n.Alt.Resolve(t, errs) && ok
	}
	return ok
}

func (n *If) Execute(ctx *eval.Context) eval.Completion {
	v, err := n.Test.Eval(ctx)
	if err != nil {
		return eval.Completion{Kind: eval.Throw}
	}
	if value.ToBoolean(v) {
		return n.Cons.Execute(ctx)
	}
	if n.Alt != nil {
		return n.Alt.Execute(ctx)
	}
	return normal()
}

// --- loops: For / While / DoWhile ---------------------------------------

// For is `for(init; cond; step) body`. init may be a Var or an
// ExpressionStatement or nil; cond/step may be nil (spec.md §4.4).
type For struct {
	pos
	Label        string
	Init         Stmt
	Cond         Expr
	Step         Expr
	Body         Stmt
}

func (n *For) Declare(t *Tree, errs *pjserrors.List) bool {
	loop := NewTree(LoopScopeKind, t, n.P)
	ok := true
	if n.Init != nil {
		ok = n.Init.Declare(loop, errs) && ok
	}
	if n.Cond != nil {
		ok = n.Cond.Declare(loop, errs, false) && ok
	}
	if n.Step != nil {
		ok = n.Step.Declare(loop, errs, false) && ok
	}
	return n.Body.Declare(loop, errs) && ok
}

func (n *For) Resolve(t *Tree, errs *pjserrors.List) bool {
	loop := NewTree(LoopScopeKind, t, n.P)
	ok := true
	if n.Init != nil {
		ok = n.Init.Resolve(loop, errs) && ok
	}
	if n.Cond != nil {
		ok = n.Cond.Resolve(loop, errs) && ok
	}
	if n.Step != nil {
		ok = n.Step.Resolve(loop, errs) && ok
	}
	return n.Body.Resolve(loop, errs) && ok
}

func (n *For) Execute(ctx *eval.Context) eval.Completion {
	if n.Init != nil {
		if c := n.Init.Execute(ctx); c.IsAbrupt() {
			return c
		}
	}
	for {
		if n.Cond != nil {
			v, err := n.Cond.Eval(ctx)
			if err != nil {
				return eval.Completion{Kind: eval.Throw}
			}
			if !value.ToBoolean(v) {
				break
			}
		}
		c := n.Body.Execute(ctx)
		if c.Kind == eval.Break && matchesLabel(c.Label, n.Label) {
			break
		}
		if c.Kind == eval.Continue && matchesLabel(c.Label, n.Label) {
			// fall through to step
		} else if c.IsAbrupt() {
			return c
		}
		if n.Step != nil {
			if _, err := n.Step.Eval(ctx); err != nil {
				return eval.Completion{Kind: eval.Throw}
			}
		}
	}
	return normal()
}

// matchesLabel reports whether an unlabeled break/continue (label=="")
// or one matching this loop's own label applies here.
func matchesLabel(breakLabel, loopLabel string) bool {
	return breakLabel == "" || breakLabel == loopLabel
}

// While is the supplemented `while(cond) body` loop (SPEC_FULL.md §12).
type While struct {
	pos
	Label string
	Cond  Expr
	Body  Stmt
}

func (n *While) Declare(t *Tree, errs *pjserrors.List) bool {
	loop := NewTree(LoopScopeKind, t, n.P)
	ok := n.Cond.Declare(loop, errs, false)
	return n.Body.Declare(loop, errs) && ok
}

func (n *While) Resolve(t *Tree, errs *pjserrors.List) bool {
	loop := NewTree(LoopScopeKind, t, n.P)
	ok := n.Cond.Resolve(loop, errs)
	return n.Body.Resolve(loop, errs) && ok
}

func (n *While) Execute(ctx *eval.Context) eval.Completion {
	for {
		v, err := n.Cond.Eval(ctx)
		if err != nil {
			return eval.Completion{Kind: eval.Throw}
		}
		if !value.ToBoolean(v) {
			break
		}
		c := n.Body.Execute(ctx)
		if c.Kind == eval.Break && matchesLabel(c.Label, n.Label) {
			break
		}
		if c.Kind == eval.Continue && matchesLabel(c.Label, n.Label) {
			continue
		}
		if c.IsAbrupt() {
			return c
		}
	}
	return normal()
}

// DoWhile is the supplemented `do body while(cond);` loop, which runs
// body once before the first test (SPEC_FULL.md §12).
type DoWhile struct {
	pos
	Label string
	Body  Stmt
	Cond  Expr
}

func (n *DoWhile) Declare(t *Tree, errs *pjserrors.List) bool {
	loop := NewTree(LoopScopeKind, t, n.P)
	ok := n.Body.Declare(loop, errs)
	return n.Cond.Declare(loop, errs, false) && ok
}

func (n *DoWhile) Resolve(t *Tree, errs *pjserrors.List) bool {
	loop := NewTree(LoopScopeKind, t, n.P)
	ok := n.Body.Resolve(loop, errs)
	return n.Cond.Resolve(loop, errs) && ok
}

func (n *DoWhile) Execute(ctx *eval.Context) eval.Completion {
	for {
		c := n.Body.Execute(ctx)
		if c.Kind == eval.Break && matchesLabel(c.Label, n.Label) {
			break
		}
		if c.IsAbrupt() && !(c.Kind == eval.Continue && matchesLabel(c.Label, n.Label)) {
			return c
		}
		v, err := n.Cond.Eval(ctx)
		if err != nil {
			return eval.Completion{Kind: eval.Throw}
		}
		if !value.ToBoolean(v) {
			break
		}
	}
	return normal()
}

// --- Break / Continue ----------------------------------------------------

type Break struct {
	pos
	Label string
}

func (n *Break) Declare(t *Tree, errs *pjserrors.List) bool { return true }
func (n *Break) Resolve(t *Tree, errs *pjserrors.List) bool { return true }
func (n *Break) Execute(ctx *eval.Context) eval.Completion {
	return eval.Completion{Kind: eval.Break, Label: n.Label}
}

type Continue struct {
	pos
	Label string
}

func (n *Continue) Declare(t *Tree, errs *pjserrors.List) bool { return true }
func (n *Continue) Resolve(t *Tree, errs *pjserrors.List) bool { return true }
func (n *Continue) Execute(ctx *eval.Context) eval.Completion {
	return eval.Completion{Kind: eval.Continue, Label: n.Label}
}

// --- Return --------------------------------------------------------------

type Return struct {
	pos
	Value Expr // nil for a bare `return;`
}

func (n *Return) Declare(t *Tree, errs *pjserrors.List) bool {
	if t.frameOwner().Kind != FunctionScopeKind && t.frameOwner().Kind != CatchScopeKind {
		return newErrf(errs, n.P, "return outside of function")
	}
	if n.Value != nil {
		return n.Value.Declare(t, errs, false)
	}
	return true
}

func (n *Return) Resolve(t *Tree, errs *pjserrors.List) bool {
	if n.Value != nil {
		return n.Value.Resolve(t, errs)
	}
	return true
}

func (n *Return) Execute(ctx *eval.Context) eval.Completion {
	if n.Value == nil {
		return eval.Completion{Kind: eval.Return, Value: value.UndefinedValue}
	}
	v, err := n.Value.Eval(ctx)
	if err != nil {
		return eval.Completion{Kind: eval.Throw}
	}
	return eval.Completion{Kind: eval.Return, Value: v}
}

// --- Throw ---------------------------------------------------------------

type Throw struct {
	pos
	Value Expr
}

func (n *Throw) Declare(t *Tree, errs *pjserrors.List) bool { return n.Value.Declare(t, errs, false) }
func (n *Throw) Resolve(t *Tree, errs *pjserrors.List) bool { return n.Value.Resolve(t, errs) }
func (n *Throw) Execute(ctx *eval.Context) eval.Completion {
	v, err := n.Value.Eval(ctx)
	if err != nil {
		return eval.Completion{Kind: eval.Throw}
	}
	ctx.Throw(v)
	return eval.Completion{Kind: eval.Throw, Value: v}
}

// --- Try/Catch/Finally -----------------------------------------------------

// Try implements spec.md §4.4: the catch clause is modeled as a
// one-argument function whose parameter is the thrown value; a throwing
// catch is not re-caught by its own finally, but finally executes
// unconditionally before the throw propagates upward.
type Try struct {
	pos
	Block        Stmt
	CatchParam   Expr // nil if there is no catch clause
	CatchBody    Stmt
	Finally      Stmt // nil if there is no finally clause

	catchTree *Tree
}

func (n *Try) Declare(t *Tree, errs *pjserrors.List) bool {
	ok := n.Block.Declare(t, errs)
	if n.CatchBody != nil {
		n.catchTree = NewTree(CatchScopeKind, t, n.P)
		if n.CatchParam != nil {
			ok = n.CatchParam.Declare(n.catchTree, errs, true) && ok
		}
		ok = n.CatchBody.Declare(n.catchTree, errs) && ok
	}
	if n.Finally != nil {
		ok = n.Finally.Declare(t, errs) && ok
	}
	return ok
}

func (n *Try) Resolve(t *Tree, errs *pjserrors.List) bool {
	ok := n.Block.Resolve(t, errs)
	if n.CatchBody != nil {
		if n.CatchParam != nil {
			ok = n.CatchParam.Resolve(n.catchTree, errs) && ok
		}
		ok = n.CatchBody.Resolve(n.catchTree, errs) && ok
	}
	if n.Finally != nil {
		ok = n.Finally.Resolve(t, errs) && ok
	}
	return ok
}

func (n *Try) Execute(ctx *eval.Context) eval.Completion {
	c := n.Block.Execute(ctx)
	if c.Kind == eval.Throw && n.CatchBody != nil {
		thrown := ctx.Err()
		var thrownValue value.Value = value.UndefinedValue
		if thrown != nil {
			thrownValue = c.Value
		}
		ctx.ClearErr()
		scope := eval.NewScope(n.catchTree.Shape(), ctx.TopFrame().ScopeOrNil())
		f, err := ctx.PushFrame("(catch)", n.P, scope, nil)
		if err != nil {
			c = eval.Completion{Kind: eval.Throw}
		} else {
			if n.CatchParam != nil {
				if err := n.CatchParam.Assign(ctx, thrownValue); err != nil {
					c = eval.Completion{Kind: eval.Throw}
				} else {
					c = n.CatchBody.Execute(ctx)
				}
			} else {
				c = n.CatchBody.Execute(ctx)
			}
			ctx.PopFrame(f, nil)
		}
	}
	if n.Finally != nil {
		fc := n.Finally.Execute(ctx)
		if fc.IsAbrupt() {
			return fc
		}
	}
	return c
}

// --- Switch ----------------------------------------------------------------

// SwitchCase is one `case expr: stmts...` or (Test == nil) `default:
// stmts...` clause.
type SwitchCase struct {
	Test  Expr // nil for default
	Stmts []Stmt
}

// Switch linearly matches case expressions against the scrutinee with
// loose equality; falls through to subsequent case bodies until break or
// end; default is taken only when no case matches (spec.md §4.4).
type Switch struct {
	pos
	Label      string
	Discriminant Expr
	Cases      []SwitchCase
}

func (n *Switch) Declare(t *Tree, errs *pjserrors.List) bool {
	sw := NewTree(SwitchScopeKind, t, n.P)
	ok := n.Discriminant.Declare(sw, errs, false)
	seenDefault := false
	for _, c := range n.Cases {
		if c.Test == nil {
			if seenDefault {
				ok = newErrf(errs, n.P, "multiple default clauses in switch") && ok
			}
			seenDefault = true
		} else {
			ok = c.Test.Declare(sw, errs, false) && ok
		}
		ok = declareAll(c.Stmts, sw, errs) && ok
	}
	return ok
}

func (n *Switch) Resolve(t *Tree, errs *pjserrors.List) bool {
	sw := NewTree(SwitchScopeKind, t, n.P)
	ok := n.Discriminant.Resolve(sw, errs)
	for _, c := range n.Cases {
		if c.Test != nil {
			ok = c.Test.Resolve(sw, errs) && ok
		}
		ok = resolveAll(c.Stmts, sw, errs) && ok
	}
	return ok
}

func (n *Switch) Execute(ctx *eval.Context) eval.Completion {
	dv, err := n.Discriminant.Eval(ctx)
	if err != nil {
		return eval.Completion{Kind: eval.Throw}
	}
	matched := -1
	defaultIdx := -1
	for i, c := range n.Cases {
		if c.Test == nil {
			defaultIdx = i
			continue
		}
		cv, err := c.Test.Eval(ctx)
		if err != nil {
			return eval.Completion{Kind: eval.Throw}
		}
		if value.LooseEqual(dv, cv) {
			matched = i
			break
		}
	}
	if matched == -1 {
		matched = defaultIdx
	}
	if matched == -1 {
		return normal()
	}
	for i := matched; i < len(n.Cases); i++ {
		for _, s := range n.Cases[i].Stmts {
			c := s.Execute(ctx)
			if c.Kind == eval.Break && matchesLabel(c.Label, n.Label) {
				return normal()
			}
			if c.IsAbrupt() {
				return c
			}
		}
	}
	return normal()
}

// --- Label -----------------------------------------------------------------

// Label wraps a statement; a matching `break label` collapses to Done
// (spec.md §4.4).
type Label struct {
	pos
	Name string
	Stmt Stmt
}

func (n *Label) Declare(t *Tree, errs *pjserrors.List) bool {
	lt := NewTree(LabelScopeKind, t, n.P)
	lt.Label = n.Name
	return n.Stmt.Declare(lt, errs)
}

func (n *Label) Resolve(t *Tree, errs *pjserrors.List) bool {
	lt := NewTree(LabelScopeKind, t, n.P)
	lt.Label = n.Name
	return n.Stmt.Resolve(lt, errs)
}

func (n *Label) Execute(ctx *eval.Context) eval.Completion {
	c := n.Stmt.Execute(ctx)
	if c.Kind == eval.Break && c.Label == n.Name {
		return normal()
	}
	return c
}

// --- Import / Export (module-scope only) -----------------------------------

// Import is `import {a, b as c} from 'path'` or `import d from 'path'`,
// legal only at module scope (spec.md §4.4).
type Import struct {
	pos
	Specifiers []ImportSpecifier
	Path       string
}

// ImportSpecifier binds Alias locally to Name exported from the module at
// Path (Name == Alias for non-renamed imports).
type ImportSpecifier struct {
	Name  string
	Alias string
}

func (n *Import) Declare(t *Tree, errs *pjserrors.List) bool {
	if t.Kind != ModuleScopeKind {
		return newErrf(errs, n.P, "import is only legal at module scope")
	}
	for _, s := range n.Specifiers {
		t.Declare(s.Alias)
	}
	return true
}

func (n *Import) Resolve(t *Tree, errs *pjserrors.List) bool { return true }

func (n *Import) Execute(ctx *eval.Context) eval.Completion { return normal() }

// Export is `export <decl>` or `export default <expr>` (spec.md §4.4).
// ExportedDecl wraps the declaration (Var/FunctionLiteral-as-statement);
// ExportedName/ExportedValue back a bare `export {name}` or `export
// default expr` form.
type Export struct {
	pos
	Decl    Stmt // non-nil for `export var/let/const/function ...`
	Default Expr // non-nil for `export default expr`
}

func (n *Export) Declare(t *Tree, errs *pjserrors.List) bool {
	if t.Kind != ModuleScopeKind {
		return newErrf(errs, n.P, "export is only legal at module scope")
	}
	if n.Decl != nil {
		return n.Decl.Declare(t, errs)
	}
	if n.Default != nil {
		return n.Default.Declare(t, errs, false)
	}
	return true
}

func (n *Export) Resolve(t *Tree, errs *pjserrors.List) bool {
	if n.Decl != nil {
		return n.Decl.Resolve(t, errs)
	}
	if n.Default != nil {
		return n.Default.Resolve(t, errs)
	}
	return true
}

func (n *Export) Execute(ctx *eval.Context) eval.Completion {
	if n.Decl != nil {
		return n.Decl.Execute(ctx)
	}
	return normal()
}
