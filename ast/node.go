package ast

import (
	"github.com/flomesh-io/pjs/eval"
	pjserrors "github.com/flomesh-io/pjs/errors"
	"github.com/flomesh-io/pjs/token"
	"github.com/flomesh-io/pjs/value"
)

// Node is embedded by every Expr/Stmt node: every node carries
// (source_id, line, column) for backtraces (spec.md §4.2 "Every AST node
// carries (source_id, line, column)").
type Node interface {
	Pos() token.Pos
}

// pos is the embeddable Position field every concrete node type carries.
type pos struct {
	P token.Pos
}

func (p pos) Pos() token.Pos { return p.P }

// SetPos fixes the node's recorded source position, used by the parser
// once a node's span is fully known (e.g. after parsing a prefix operator
// but before its operand, so the node's Pos is the operator's position).
func (p *pos) SetPos(at token.Pos) { p.P = at }

// Expr is the uniform contract spec.md §4.3 assigns every expression node.
type Expr interface {
	Node
	// Declare is the bottom-up compile-time pass: recursively walks
	// children to populate the enclosing Tree with args/vars. isLVal is
	// true when this node appears on the left of `=` or inside a
	// destructuring pattern. Returns false (having appended to errs) on
	// illegal patterns or reserved names.
	Declare(t *Tree, errs *pjserrors.List, isLVal bool) bool
	// Resolve is the top-down pass wiring every Identifier descendant to
	// a concrete accessor.
	Resolve(t *Tree, errs *pjserrors.List) bool
	// Eval is the run-time operation.
	Eval(ctx *eval.Context) (value.Value, error)
	// Assign is only valid for left-values; everything else returns a
	// "cannot assign to a right-value" error (spec.md §4.3).
	Assign(ctx *eval.Context, v value.Value) error
}

// Stmt is the uniform contract spec.md §4.4 assigns every statement node.
type Stmt interface {
	Node
	Declare(t *Tree, errs *pjserrors.List) bool
	Resolve(t *Tree, errs *pjserrors.List) bool
	Execute(ctx *eval.Context) eval.Completion
}

// notLValue is the Assign implementation every non-lvalue Expr embeds.
type notLValue struct{}

func (notLValue) Assign(ctx *eval.Context, v value.Value) error {
	return ctx.Throwf("cannot assign to a right-value")
}
