package ast

import (
	"math"

	"github.com/flomesh-io/pjs/eval"
	pjserrors "github.com/flomesh-io/pjs/errors"
	"github.com/flomesh-io/pjs/token"
	"github.com/flomesh-io/pjs/value"
)

// --- literals ---------------------------------------------------------

// NumberLit is a numeric literal (spec.md §4.1: decimal/hex/octal/binary,
// already decoded by literal.ParseNumber during scanning).
type NumberLit struct {
	pos
	notLValue
	Value float64
}

func (n *NumberLit) Declare(t *Tree, errs *pjserrors.List, isLVal bool) bool { return !isLVal }
func (n *NumberLit) Resolve(t *Tree, errs *pjserrors.List) bool             { return true }
func (n *NumberLit) Eval(ctx *eval.Context) (value.Value, error)            { return value.Num(n.Value), nil }

// StringLit is a string literal, already unescaped by literal.Unquote.
type StringLit struct {
	pos
	notLValue
	Value string
}

func (n *StringLit) Declare(t *Tree, errs *pjserrors.List, isLVal bool) bool { return !isLVal }
func (n *StringLit) Resolve(t *Tree, errs *pjserrors.List) bool             { return true }
func (n *StringLit) Eval(ctx *eval.Context) (value.Value, error) {
	return value.StrValue(ctx.Intern(n.Value)), nil
}

// BoolLit is `true`/`false`.
type BoolLit struct {
	pos
	notLValue
	Value bool
}

func (n *BoolLit) Declare(t *Tree, errs *pjserrors.List, isLVal bool) bool { return !isLVal }
func (n *BoolLit) Resolve(t *Tree, errs *pjserrors.List) bool             { return true }
func (n *BoolLit) Eval(ctx *eval.Context) (value.Value, error)            { return value.Bool(n.Value), nil }

// NullLit is the `null` literal.
type NullLit struct {
	pos
	notLValue
}

func (n *NullLit) Declare(t *Tree, errs *pjserrors.List, isLVal bool) bool { return !isLVal }
func (n *NullLit) Resolve(t *Tree, errs *pjserrors.List) bool             { return true }
func (n *NullLit) Eval(ctx *eval.Context) (value.Value, error)            { return value.NullValue, nil }

// UndefinedLit is the `undefined` literal.
type UndefinedLit struct {
	pos
	notLValue
}

func (n *UndefinedLit) Declare(t *Tree, errs *pjserrors.List, isLVal bool) bool { return !isLVal }
func (n *UndefinedLit) Resolve(t *Tree, errs *pjserrors.List) bool              { return true }
func (n *UndefinedLit) Eval(ctx *eval.Context) (value.Value, error) {
	return value.UndefinedValue, nil
}

// --- Identifier ---------------------------------------------------------

// Identifier is the central node spec.md §4.3 describes: after Declare its
// Name is known; after Resolve its resolved accessor is known. Re-Resolve
// is idempotent, permitting lazy re-resolution at Eval time for contexts
// that never ran Resolve (e.g. a REPL single expression) — Eval resolves
// on first use if r.kind is still unresolvedIdent.
type Identifier struct {
	pos
	Name string

	tree *Tree // captured at Resolve time, for lazy re-resolution
	r    resolved
}

func (id *Identifier) Declare(t *Tree, errs *pjserrors.List, isLVal bool) bool {
	// "$"-prefixed names are fiber variables (spec.md §4.4): they live in
	// the module's fiber table, not a Scope slot, so hoisting skips them
	// here — resolveName routes them to DeclareFiber lazily at Resolve
	// time regardless of whether a frame slot exists.
	if isLVal && !(len(id.Name) > 1 && id.Name[0] == '$') {
		t.Declare(id.Name)
	}
	return true
}

func (id *Identifier) Resolve(t *Tree, errs *pjserrors.List) bool {
	id.tree = t
	id.r = resolveName(t, id.Name)
	return true
}

func (id *Identifier) Eval(ctx *eval.Context) (value.Value, error) {
	id.ensureResolved(ctx)
	switch id.r.kind {
	case localIdent:
		f := ctx.TopFrame()
		if f == nil || f.Scope == nil {
			return value.UndefinedValue, ctx.Throwf("%s is not defined", id.Name)
		}
		return f.Scope.At(id.r.level, id.r.index), nil
	case importedIdent, exportedIdent:
		v, err := id.r.binding.Get(ctx)
		if err != nil {
			return value.UndefinedValue, err
		}
		return v.(value.Value), nil
	case fiberIdent:
		slots := ctx.Fiber.Data(ctx.ModuleID)
		if id.r.index >= len(slots) {
			return value.UndefinedValue, nil
		}
		return slots[id.r.index], nil
	case globalIdent:
		if ctx.Globals == nil {
			return value.UndefinedValue, nil
		}
		v, _, err := ctx.Globals.Get(ctx, ctx.Intern(id.r.key))
		return v, err
	default:
		return value.UndefinedValue, ctx.Throwf("%s is not defined", id.Name)
	}
}

func (id *Identifier) Assign(ctx *eval.Context, v value.Value) error {
	id.ensureResolved(ctx)
	switch id.r.kind {
	case localIdent:
		f := ctx.TopFrame()
		if f == nil || f.Scope == nil {
			return ctx.Throwf("%s is not defined", id.Name)
		}
		f.Scope.SetAt(id.r.level, id.r.index, v)
		return nil
	case importedIdent:
		return ctx.Throwf("cannot assign to imported binding %q", id.Name)
	case exportedIdent:
		if id.r.binding.Set == nil {
			return ctx.Throwf("cannot assign to %q", id.Name)
		}
		return id.r.binding.Set(ctx, v)
	case fiberIdent:
		slots := ctx.Fiber.Data(ctx.ModuleID)
		if id.r.index < len(slots) {
			slots[id.r.index] = v
		}
		return nil
	case globalIdent:
		if ctx.Globals == nil {
			return ctx.Throwf("no global object bound")
		}
		return ctx.Globals.Set(ctx, ctx.Intern(id.r.key), v)
	default:
		return ctx.Throwf("%s is not defined", id.Name)
	}
}

// ensureResolved re-runs Resolve against the last-seen Tree if Eval is
// reached before Resolve ever ran (spec.md §4.3's "lazy re-resolution at
// eval time is permitted").
func (id *Identifier) ensureResolved(ctx *eval.Context) {
	if id.r.kind == unresolvedIdent && id.tree != nil {
		id.r = resolveName(id.tree, id.Name)
	}
}

// --- Template literal ---------------------------------------------------

// TemplateLit is a backtick template literal decomposed into alternating
// string fragments and embedded expressions (spec.md §4.2: "joined by
// runtime string concatenation").
type TemplateLit struct {
	pos
	notLValue
	Fragments []string // len(Fragments) == len(Exprs)+1
	Exprs     []Expr
}

func (n *TemplateLit) Declare(t *Tree, errs *pjserrors.List, isLVal bool) bool {
	if isLVal {
		return newErrf(errs, n.P, "template literal is not a valid assignment target")
	}
	ok := true
	for _, e := range n.Exprs {
		ok = e.Declare(t, errs, false) && ok
	}
	return ok
}

func (n *TemplateLit) Resolve(t *Tree, errs *pjserrors.List) bool {
	ok := true
	for _, e := range n.Exprs {
		ok = e.Resolve(t, errs) && ok
	}
	return ok
}

func (n *TemplateLit) Eval(ctx *eval.Context) (value.Value, error) {
	var sb []byte
	sb = append(sb, n.Fragments[0]...)
	for i, e := range n.Exprs {
		v, err := e.Eval(ctx)
		if err != nil {
			return value.UndefinedValue, err
		}
		sb = append(sb, ctx.ToStringValue(v)...)
		sb = append(sb, n.Fragments[i+1]...)
	}
	return value.StrValue(ctx.Intern(string(sb))), nil
}

// --- Array literal / destructuring pattern ------------------------------

// ArrayElement is one slot of an ArrayLit: either a plain Expr, or (when
// Spread is true) a `...expr` rest/spread element (spec.md §4.2/§4.3).
type ArrayElement struct {
	Expr   Expr // nil for an elided hole
	Spread bool
}

// ArrayLit is both an array-literal expression and (in lvalue position) an
// array-destructuring pattern. Top-level rest is not supported in pattern
// position (spec.md §4.3: "Rest is not supported at the top level of
// destructuring in this spec").
type ArrayLit struct {
	pos
	notLValue
	Elements []ArrayElement
}

func (n *ArrayLit) Declare(t *Tree, errs *pjserrors.List, isLVal bool) bool {
	ok := true
	for _, el := range n.Elements {
		if el.Expr == nil {
			continue
		}
		if isLVal && el.Spread {
			ok = newErrf(errs, n.P, "rest element is not supported in array destructuring") && ok
			continue
		}
		ok = el.Expr.Declare(t, errs, isLVal) && ok
	}
	return ok
}

func (n *ArrayLit) Resolve(t *Tree, errs *pjserrors.List) bool {
	ok := true
	for _, el := range n.Elements {
		if el.Expr != nil {
			ok = el.Expr.Resolve(t, errs) && ok
		}
	}
	return ok
}

func (n *ArrayLit) Eval(ctx *eval.Context) (value.Value, error) {
	arrClass := ctx.Registry().ArrayClass
	arr := ctx.NewObject(arrClass)
	values := make([]value.Value, 0, len(n.Elements))
	for _, el := range n.Elements {
		if el.Expr == nil {
			values = append(values, value.UndefinedValue)
			continue
		}
		v, err := el.Expr.Eval(ctx)
		if err != nil {
			return value.UndefinedValue, err
		}
		if el.Spread {
			values = append(values, spreadValues(ctx, v)...)
			continue
		}
		values = append(values, v)
	}
	SetArrayBacking(arr, values)
	return value.ObjValue(arr), nil
}

// Assign destructures v (expected to be an Array-like object) into this
// pattern's element targets, spec.md §4.3's array-destructuring contract.
func (n *ArrayLit) Assign(ctx *eval.Context, v value.Value) error {
	items := ArrayBackingOf(v)
	for i, el := range n.Elements {
		if el.Expr == nil {
			continue
		}
		var item value.Value
		if i < len(items) {
			item = items[i]
		} else {
			item = value.UndefinedValue
		}
		if err := el.Expr.Assign(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// --- Object literal / destructuring pattern -----------------------------

// ObjectProperty is one `{k: v}` / `{k}` / `{[expr]: v}` member.
type ObjectProperty struct {
	Key       Expr // StringLit/Identifier for plain keys; any Expr if Computed
	Value     Expr // defaults to Key (an Identifier) when Shorthand
	Computed  bool
	Shorthand bool
	Spread    bool // `...rest` in object literal/pattern position
}

// ObjectLit is both an object-literal expression and (in lvalue position)
// an object-destructuring pattern.
type ObjectLit struct {
	pos
	notLValue
	Properties []ObjectProperty
}

func (n *ObjectLit) Declare(t *Tree, errs *pjserrors.List, isLVal bool) bool {
	ok := true
	for _, p := range n.Properties {
		if p.Computed {
			ok = p.Key.Declare(t, errs, false) && ok
		}
		ok = p.Value.Declare(t, errs, isLVal) && ok
	}
	return ok
}

func (n *ObjectLit) Resolve(t *Tree, errs *pjserrors.List) bool {
	ok := true
	for _, p := range n.Properties {
		if p.Computed {
			ok = p.Key.Resolve(t, errs) && ok
		}
		ok = p.Value.Resolve(t, errs) && ok
	}
	return ok
}

func (n *ObjectLit) Eval(ctx *eval.Context) (value.Value, error) {
	obj := ctx.NewObject(ctx.Registry().ObjectClass)
	for _, p := range n.Properties {
		key, err := n.propKey(ctx, p)
		if err != nil {
			return value.UndefinedValue, err
		}
		v, err := p.Value.Eval(ctx)
		if err != nil {
			return value.UndefinedValue, err
		}
		if p.Spread {
			spreadInto(ctx, obj, v)
			continue
		}
		if err := obj.Set(ctx, key, v); err != nil {
			return value.UndefinedValue, err
		}
	}
	return value.ObjValue(obj), nil
}

func (n *ObjectLit) Assign(ctx *eval.Context, v value.Value) error {
	if v.Kind() != value.Object || v.AsObject() == nil {
		return ctx.Throwf("cannot destructure null or undefined")
	}
	src := v.AsObject()
	for _, p := range n.Properties {
		key, err := n.propKey(ctx, p)
		if err != nil {
			return err
		}
		item, _, err := src.Get(ctx, key)
		if err != nil {
			return err
		}
		if err := p.Value.Assign(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (n *ObjectLit) propKey(ctx *eval.Context, p ObjectProperty) (*value.Str, error) {
	if p.Computed {
		v, err := p.Key.Eval(ctx)
		if err != nil {
			return nil, err
		}
		return ctx.Intern(ctx.ToStringValue(v)), nil
	}
	switch k := p.Key.(type) {
	case *Identifier:
		return ctx.Intern(k.Name), nil
	case *StringLit:
		return ctx.Intern(k.Value), nil
	default:
		return ctx.Intern(""), nil
	}
}

// --- Assignment pattern defaults (`{c=20}={}`, `a=1`) -------------------

// DefaultExpr wraps a binding target with a default value used when the
// assigned value is `undefined` (spec.md §4.3 default-parameter rule,
// reused for destructuring defaults).
type DefaultExpr struct {
	pos
	notLValue
	Target  Expr
	Default Expr
}

func (n *DefaultExpr) Declare(t *Tree, errs *pjserrors.List, isLVal bool) bool {
	ok := n.Default.Declare(t, errs, false)
	return n.Target.Declare(t, errs, isLVal) && ok
}

func (n *DefaultExpr) Resolve(t *Tree, errs *pjserrors.List) bool {
	ok := n.Default.Resolve(t, errs)
	return n.Target.Resolve(t, errs) && ok
}

func (n *DefaultExpr) Eval(ctx *eval.Context) (value.Value, error) { return n.Target.Eval(ctx) }

func (n *DefaultExpr) Assign(ctx *eval.Context, v value.Value) error {
	if v.IsUndefined() {
		dv, err := n.Default.Eval(ctx)
		if err != nil {
			return err
		}
		v = dv
	}
	return n.Target.Assign(ctx, v)
}

// --- Spread (call args / array elements) --------------------------------

// Spread wraps `...expr`; ArrayLit/Call/New inspect it directly rather
// than evaluating it as a standalone node (it has no independent value).
type Spread struct {
	pos
	notLValue
	Expr Expr
}

func (n *Spread) Declare(t *Tree, errs *pjserrors.List, isLVal bool) bool {
	return n.Expr.Declare(t, errs, isLVal)
}
func (n *Spread) Resolve(t *Tree, errs *pjserrors.List) bool { return n.Expr.Resolve(t, errs) }
func (n *Spread) Eval(ctx *eval.Context) (value.Value, error) { return n.Expr.Eval(ctx) }

// --- Unary / update ------------------------------------------------------

// Unary covers `!` `~` unary `+`/`-` `void` `typeof` `delete` and prefix
// `++`/`--` (spec.md §4.2 precedence 17, right-associative).
type Unary struct {
	pos
	notLValue
	Op      token.Token
	Operand Expr
}

func (n *Unary) Declare(t *Tree, errs *pjserrors.List, isLVal bool) bool {
	if isLVal {
		return newErrf(errs, n.P, "unary expression is not a valid assignment target")
	}
	return n.Operand.Declare(t, errs, false)
}
func (n *Unary) Resolve(t *Tree, errs *pjserrors.List) bool { return n.Operand.Resolve(t, errs) }

func (n *Unary) Eval(ctx *eval.Context) (value.Value, error) {
	if n.Op == token.TYPEOF {
		if id, ok := n.Operand.(*Identifier); ok {
			id.ensureResolved(ctx)
			if id.r.kind == globalIdent {
				v, err := n.Operand.Eval(ctx)
				if err != nil {
					return value.StrValue(ctx.Intern("undefined")), nil
				}
				return value.StrValue(ctx.Intern(value.TypeOf(v, ctx.Registry()))), nil
			}
		}
	}
	if n.Op == token.DELETE {
		return n.evalDelete(ctx)
	}
	v, err := n.Operand.Eval(ctx)
	if err != nil {
		return value.UndefinedValue, err
	}
	switch n.Op {
	case token.NOT:
		return value.Bool(!value.ToBoolean(v)), nil
	case token.BITNOT:
		return value.Num(float64(^toInt32(ctx.ToNumber(v)))), nil
	case token.ADD:
		return value.Num(ctx.ToNumber(v)), nil
	case token.SUB:
		return value.Num(-ctx.ToNumber(v)), nil
	case token.VOID:
		return value.UndefinedValue, nil
	case token.TYPEOF:
		return value.StrValue(ctx.Intern(value.TypeOf(v, ctx.Registry()))), nil
	case token.INC, token.DEC:
		n1 := ctx.ToNumber(v)
		if n.Op == token.INC {
			n1++
		} else {
			n1--
		}
		nv := value.Num(n1)
		if err := n.Operand.Assign(ctx, nv); err != nil {
			return value.UndefinedValue, err
		}
		return nv, nil
	default:
		return value.UndefinedValue, ctx.Throwf("unsupported unary operator %s", n.Op)
	}
}

func (n *Unary) evalDelete(ctx *eval.Context) (value.Value, error) {
	p, ok := n.Operand.(*Property)
	if !ok {
		return value.Bool(true), nil
	}
	objV, err := p.Object.Eval(ctx)
	if err != nil {
		return value.UndefinedValue, err
	}
	if objV.Kind() != value.Object || objV.AsObject() == nil {
		return value.Bool(true), nil
	}
	key, err := p.keyStr(ctx)
	if err != nil {
		return value.UndefinedValue, err
	}
	delete(objV.AsObject().Overflow, key)
	return value.Bool(true), nil
}

// --- Postfix update (`x++`, `x--`) --------------------------------------

// Postfix implements postfix `++`/`--` (precedence 18), returning the
// pre-update value.
type Postfix struct {
	pos
	notLValue
	Op      token.Token
	Operand Expr
}

func (n *Postfix) Declare(t *Tree, errs *pjserrors.List, isLVal bool) bool {
	return n.Operand.Declare(t, errs, false)
}
func (n *Postfix) Resolve(t *Tree, errs *pjserrors.List) bool { return n.Operand.Resolve(t, errs) }

func (n *Postfix) Eval(ctx *eval.Context) (value.Value, error) {
	v, err := n.Operand.Eval(ctx)
	if err != nil {
		return value.UndefinedValue, err
	}
	old := ctx.ToNumber(v)
	next := old
	if n.Op == token.INC {
		next++
	} else {
		next--
	}
	if err := n.Operand.Assign(ctx, value.Num(next)); err != nil {
		return value.UndefinedValue, err
	}
	return value.Num(old), nil
}

// --- Binary --------------------------------------------------------------

// Binary covers the arithmetic/relational/bitwise/`in`/`instanceof`
// operator families (spec.md §4.2 precedence 8-16).
type Binary struct {
	pos
	notLValue
	Op          token.Token
	Left, Right Expr
}

func (n *Binary) Declare(t *Tree, errs *pjserrors.List, isLVal bool) bool {
	if isLVal {
		return newErrf(errs, n.P, "binary expression is not a valid assignment target")
	}
	ok := n.Left.Declare(t, errs, false)
	return n.Right.Declare(t, errs, false) && ok
}

func (n *Binary) Resolve(t *Tree, errs *pjserrors.List) bool {
	ok := n.Left.Resolve(t, errs)
	return n.Right.Resolve(t, errs) && ok
}

func (n *Binary) Eval(ctx *eval.Context) (value.Value, error) {
	l, err := n.Left.Eval(ctx)
	if err != nil {
		return value.UndefinedValue, err
	}
	r, err := n.Right.Eval(ctx)
	if err != nil {
		return value.UndefinedValue, err
	}
	return evalBinaryOp(ctx, n.Op, l, r, n.P)
}

func evalBinaryOp(ctx *eval.Context, op token.Token, l, r value.Value, p token.Pos) (value.Value, error) {
	switch op {
	case token.ADD:
		if l.Kind() == value.String || r.Kind() == value.String {
			return value.StrValue(ctx.Intern(ctx.ToStringValue(l) + ctx.ToStringValue(r))), nil
		}
		if li, ri, ok := bothInt(l, r); ok {
			return boxInt(ctx, li.Add(ri)), nil
		}
		return value.Num(ctx.ToNumber(l) + ctx.ToNumber(r)), nil
	case token.SUB:
		if li, ri, ok := bothInt(l, r); ok {
			return boxInt(ctx, li.Sub(ri)), nil
		}
		return value.Num(ctx.ToNumber(l) - ctx.ToNumber(r)), nil
	case token.MUL:
		if li, ri, ok := bothInt(l, r); ok {
			return boxInt(ctx, li.Mul(ri)), nil
		}
		return value.Num(ctx.ToNumber(l) * ctx.ToNumber(r)), nil
	case token.QUO:
		if li, ri, ok := bothInt(l, r); ok {
			return boxInt(ctx, li.Quo(ri)), nil
		}
		return value.Num(ctx.ToNumber(l) / ctx.ToNumber(r)), nil // IEEE-754: div-by-zero yields Inf/NaN, not an error
	case token.REM:
		if li, ri, ok := bothInt(l, r); ok {
			return boxInt(ctx, li.Rem(ri)), nil
		}
		return value.Num(math.Mod(ctx.ToNumber(l), ctx.ToNumber(r))), nil
	case token.POW:
		return value.Num(math.Pow(ctx.ToNumber(l), ctx.ToNumber(r))), nil
	case token.SHL:
		return value.Num(float64(toInt32(ctx.ToNumber(l)) << (uint32(toInt32(ctx.ToNumber(r))) & 31))), nil
	case token.SHR:
		return value.Num(float64(toInt32(ctx.ToNumber(l)) >> (uint32(toInt32(ctx.ToNumber(r))) & 31))), nil
	case token.USHR:
		return value.Num(float64(uint32(toInt32(ctx.ToNumber(l))) >> (uint32(toInt32(ctx.ToNumber(r))) & 31))), nil
	case token.AND:
		return value.Num(float64(toInt32(ctx.ToNumber(l)) & toInt32(ctx.ToNumber(r)))), nil
	case token.OR:
		return value.Num(float64(toInt32(ctx.ToNumber(l)) | toInt32(ctx.ToNumber(r)))), nil
	case token.XOR:
		return value.Num(float64(toInt32(ctx.ToNumber(l)) ^ toInt32(ctx.ToNumber(r)))), nil
	case token.LSS, token.LEQ, token.GTR, token.GEQ:
		return evalRelational(ctx, op, l, r), nil
	case token.EQL:
		return value.Bool(value.LooseEqual(l, r)), nil
	case token.NEQ:
		return value.Bool(!value.LooseEqual(l, r)), nil
	case token.SEQL:
		return value.Bool(value.Identity(l, r)), nil
	case token.SNEQ:
		return value.Bool(!value.Identity(l, r)), nil
	case token.INSTANCEOF:
		return evalInstanceOf(ctx, l, r)
	case token.IN:
		return evalIn(ctx, l, r)
	default:
		return value.UndefinedValue, ctx.Throwf("unsupported binary operator %s", op)
	}
}

// evalRelational implements spec.md §4.3's "comparisons on mixed undefined
// always yield false" rule, then falls back to string or numeric compare.
func evalRelational(ctx *eval.Context, op token.Token, l, r value.Value) value.Value {
	if l.IsUndefined() || r.IsUndefined() {
		return value.Bool(false)
	}
	var cmp int
	if l.Kind() == value.String && r.Kind() == value.String {
		ls, rs := l.AsStr().String(), r.AsStr().String()
		switch {
		case ls < rs:
			cmp = -1
		case ls > rs:
			cmp = 1
		default:
			cmp = 0
		}
	} else {
		ln, rn := ctx.ToNumber(l), ctx.ToNumber(r)
		if math.IsNaN(ln) || math.IsNaN(rn) {
			return value.Bool(false)
		}
		switch {
		case ln < rn:
			cmp = -1
		case ln > rn:
			cmp = 1
		default:
			cmp = 0
		}
	}
	switch op {
	case token.LSS:
		return value.Bool(cmp < 0)
	case token.LEQ:
		return value.Bool(cmp <= 0)
	case token.GTR:
		return value.Bool(cmp > 0)
	default: // GEQ
		return value.Bool(cmp >= 0)
	}
}

func evalInstanceOf(ctx *eval.Context, l, r value.Value) (value.Value, error) {
	if r.Kind() != value.Object || r.AsObject() == nil {
		return value.UndefinedValue, ctx.Throwf("right-hand side of instanceof is not callable")
	}
	callable, ok := r.AsObject().Native.(*value.Callable)
	if !ok || callable.Ctor == nil {
		return value.Bool(false), nil
	}
	if l.Kind() != value.Object || l.AsObject() == nil {
		return value.Bool(false), nil
	}
	return value.Bool(l.AsObject().Class.IsInstance(callable.Ctor)), nil
}

// evalIn preserves the original engine's documented limitation spec.md §9
// flags: indexed-accessor classes (arrays) throw rather than silently
// reinterpreting `in` as a bounds check.
func evalIn(ctx *eval.Context, l, r value.Value) (value.Value, error) {
	if r.Kind() != value.Object || r.AsObject() == nil {
		return value.UndefinedValue, ctx.Throwf("cannot use 'in' operator on a non-object")
	}
	o := r.AsObject()
	if o.Class.Geti != nil {
		return value.UndefinedValue, ctx.Throwf("in: indexed property test not supported") // spec.md §9 open question
	}
	key := ctx.Intern(ctx.ToStringValue(l))
	if _, _, ok := o.Class.FindField(key); ok {
		return value.Bool(true), nil
	}
	_, ok := o.Overflow[key]
	return value.Bool(ok), nil
}

func toInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(int64(f))
}

// --- Logical (short-circuit) ---------------------------------------------

// Logical covers `&&` `||` `??` (spec.md §4.2 precedence 5-6,
// short-circuiting per ECMAScript).
type Logical struct {
	pos
	notLValue
	Op          token.Token
	Left, Right Expr
}

func (n *Logical) Declare(t *Tree, errs *pjserrors.List, isLVal bool) bool {
	if isLVal {
		return newErrf(errs, n.P, "logical expression is not a valid assignment target")
	}
	ok := n.Left.Declare(t, errs, false)
	return n.Right.Declare(t, errs, false) && ok
}

func (n *Logical) Resolve(t *Tree, errs *pjserrors.List) bool {
	ok := n.Left.Resolve(t, errs)
	return n.Right.Resolve(t, errs) && ok
}

func (n *Logical) Eval(ctx *eval.Context) (value.Value, error) {
	l, err := n.Left.Eval(ctx)
	if err != nil {
		return value.UndefinedValue, err
	}
	switch n.Op {
	case token.LAND:
		if !value.ToBoolean(l) {
			return l, nil
		}
	case token.LOR:
		if value.ToBoolean(l) {
			return l, nil
		}
	case token.NULLSH:
		if !l.IsNullish() {
			return l, nil
		}
	}
	return n.Right.Eval(ctx)
}

// --- Conditional (`?:`) ---------------------------------------------------

type Conditional struct {
	pos
	notLValue
	Test, Cons, Alt Expr
}

func (n *Conditional) Declare(t *Tree, errs *pjserrors.List, isLVal bool) bool {
	if isLVal {
		return newErrf(errs, n.P, "conditional expression is not a valid assignment target")
	}
	ok := n.Test.Declare(t, errs, false)
	ok = n.Cons.Declare(t, errs, false) && ok
	return n.Alt.Declare(t, errs, false) && ok
}

func (n *Conditional) Resolve(t *Tree, errs *pjserrors.List) bool {
	ok := n.Test.Resolve(t, errs)
	ok = n.Cons.Resolve(t, errs) && ok
	return n.Alt.Resolve(t, errs) && ok
}

func (n *Conditional) Eval(ctx *eval.Context) (value.Value, error) {
	t, err := n.Test.Eval(ctx)
	if err != nil {
		return value.UndefinedValue, err
	}
	if value.ToBoolean(t) {
		return n.Cons.Eval(ctx)
	}
	return n.Alt.Eval(ctx)
}

// --- Assignment ------------------------------------------------------------

// Assignment covers the assignment-family operators (spec.md §4.2
// precedence 3, right-associative): plain `=` and the compound
// arithmetic/bitwise/logical forms.
type Assignment struct {
	pos
	notLValue
	Op     token.Token
	Target Expr
	Value  Expr
}

func (n *Assignment) Declare(t *Tree, errs *pjserrors.List, isLVal bool) bool {
	ok := n.Target.Declare(t, errs, true)
	return n.Value.Declare(t, errs, false) && ok
}

func (n *Assignment) Resolve(t *Tree, errs *pjserrors.List) bool {
	ok := n.Target.Resolve(t, errs)
	return n.Value.Resolve(t, errs) && ok
}

func (n *Assignment) Eval(ctx *eval.Context) (value.Value, error) {
	if n.Op == token.ASSIGN {
		v, err := n.Value.Eval(ctx)
		if err != nil {
			return value.UndefinedValue, err
		}
		if err := n.Target.Assign(ctx, v); err != nil {
			return value.UndefinedValue, err
		}
		return v, nil
	}
	if n.Op == token.LAND_ASSIGN || n.Op == token.LOR_ASSIGN || n.Op == token.NULLSH_ASSIGN {
		cur, err := n.Target.Eval(ctx)
		if err != nil {
			return value.UndefinedValue, err
		}
		switch n.Op {
		case token.LAND_ASSIGN:
			if !value.ToBoolean(cur) {
				return cur, nil
			}
		case token.LOR_ASSIGN:
			if value.ToBoolean(cur) {
				return cur, nil
			}
		case token.NULLSH_ASSIGN:
			if !cur.IsNullish() {
				return cur, nil
			}
		}
		v, err := n.Value.Eval(ctx)
		if err != nil {
			return value.UndefinedValue, err
		}
		return v, n.Target.Assign(ctx, v)
	}
	op, _ := token.BinaryOp(n.Op)
	cur, err := n.Target.Eval(ctx)
	if err != nil {
		return value.UndefinedValue, err
	}
	rv, err := n.Value.Eval(ctx)
	if err != nil {
		return value.UndefinedValue, err
	}
	result, err := evalBinaryOp(ctx, op, cur, rv, n.P)
	if err != nil {
		return value.UndefinedValue, err
	}
	return result, n.Target.Assign(ctx, result)
}

// --- Sequence (comma operator) -------------------------------------------

type Sequence struct {
	pos
	notLValue
	Exprs []Expr
}

func (n *Sequence) Declare(t *Tree, errs *pjserrors.List, isLVal bool) bool {
	ok := true
	for _, e := range n.Exprs {
		ok = e.Declare(t, errs, false) && ok
	}
	return ok
}

func (n *Sequence) Resolve(t *Tree, errs *pjserrors.List) bool {
	ok := true
	for _, e := range n.Exprs {
		ok = e.Resolve(t, errs) && ok
	}
	return ok
}

func (n *Sequence) Eval(ctx *eval.Context) (value.Value, error) {
	var last value.Value
	for _, e := range n.Exprs {
		v, err := e.Eval(ctx)
		if err != nil {
			return value.UndefinedValue, err
		}
		last = v
	}
	return last, nil
}

// --- Property access (member expression) ---------------------------------

// Property is `obj.key` / `obj[key]` and their optional-chaining variants
// (spec.md §4.3).
type Property struct {
	pos
	Object   Expr
	Key      Expr // StringLit/Identifier for `.key`; any Expr for `[key]`
	Computed bool
	Optional bool

	cache value.PropertyCache
}

func (n *Property) Declare(t *Tree, errs *pjserrors.List, isLVal bool) bool {
	ok := n.Object.Declare(t, errs, false)
	if n.Computed {
		ok = n.Key.Declare(t, errs, false) && ok
	}
	return ok
}

func (n *Property) Resolve(t *Tree, errs *pjserrors.List) bool {
	ok := n.Object.Resolve(t, errs)
	if n.Computed {
		ok = n.Key.Resolve(t, errs) && ok
	}
	return ok
}

func (n *Property) keyStr(ctx *eval.Context) (*value.Str, error) {
	if !n.Computed {
		switch k := n.Key.(type) {
		case *Identifier:
			return ctx.Intern(k.Name), nil
		case *StringLit:
			return ctx.Intern(k.Value), nil
		}
	}
	v, err := n.Key.Eval(ctx)
	if err != nil {
		return nil, err
	}
	return ctx.Intern(ctx.ToStringValue(v)), nil
}

func (n *Property) Eval(ctx *eval.Context) (value.Value, error) {
	objV, err := n.Object.Eval(ctx)
	if err != nil {
		return value.UndefinedValue, err
	}
	if n.Optional && objV.IsNullish() {
		return value.UndefinedValue, nil
	}
	if objV.IsNullish() {
		return value.UndefinedValue, ctx.Throwf("cannot read property of null/undefined")
	}
	o := objV.AsObject()
	if objV.Kind() != value.Object || o == nil {
		if o = autobox(ctx, objV); o == nil {
			return value.UndefinedValue, ctx.Throwf("cannot read property of null/undefined")
		}
	}
	if n.Computed && o.Class.Geti != nil {
		if idx, ok := numericIndex(ctx, n.Key); ok {
			return o.Class.Geti(ctx, o, idx)
		}
	}
	key, err := n.keyStr(ctx)
	if err != nil {
		return value.UndefinedValue, err
	}
	if idx, kind, ok := n.cache.Lookup(o.Class, key); ok && kind == value.VariableField {
		if idx < len(o.Slots) {
			return o.Slots[idx], nil
		}
	}
	v, _, err := o.Get(ctx, key)
	if err != nil {
		return value.UndefinedValue, err
	}
	if f, idx, ok := o.Class.FindField(key); ok {
		n.cache.Store(o.Class, key, idx, f.Kind)
	}
	return v, nil
}

func (n *Property) Assign(ctx *eval.Context, v value.Value) error {
	objV, err := n.Object.Eval(ctx)
	if err != nil {
		return err
	}
	if objV.IsNullish() {
		return ctx.Throwf("cannot set property of null/undefined")
	}
	o := objV.AsObject()
	if objV.Kind() != value.Object || o == nil {
		// Assigning onto a primitive's autoboxed wrapper is a silent no-op
		// (the box is discarded immediately after): matches non-strict
		// ECMAScript, where `"x".y = 1` neither throws nor persists.
		o = autobox(ctx, objV)
		if o == nil {
			return ctx.Throwf("cannot set property of null/undefined")
		}
		return nil
	}
	if n.Computed && o.Class.Seti != nil {
		if idx, ok := numericIndex(ctx, n.Key); ok {
			return o.Class.Seti(ctx, o, idx, v)
		}
	}
	key, err := n.keyStr(ctx)
	if err != nil {
		return err
	}
	return o.Set(ctx, key, v)
}

func numericIndex(ctx *eval.Context, key Expr) (int, bool) {
	v, err := key.Eval(ctx)
	if err != nil {
		return 0, false
	}
	n := ctx.ToNumber(v)
	if math.IsNaN(n) || n < 0 || n != math.Trunc(n) {
		return 0, false
	}
	return int(n), true
}

// --- Invocation / Construction --------------------------------------------

// Call is a function invocation, optionally optional-chained (spec.md
// §4.3: "evaluate callee, then arguments left-to-right").
type Call struct {
	pos
	notLValue
	Callee   Expr
	Args     []Expr
	Optional bool
}

func (n *Call) Declare(t *Tree, errs *pjserrors.List, isLVal bool) bool {
	if isLVal {
		return newErrf(errs, n.P, "call expression is not a valid assignment target")
	}
	ok := n.Callee.Declare(t, errs, false)
	for _, a := range n.Args {
		ok = a.Declare(t, errs, false) && ok
	}
	return ok
}

func (n *Call) Resolve(t *Tree, errs *pjserrors.List) bool {
	ok := n.Callee.Resolve(t, errs)
	for _, a := range n.Args {
		ok = a.Resolve(t, errs) && ok
	}
	return ok
}

func (n *Call) Eval(ctx *eval.Context) (value.Value, error) {
	var recv *value.Obj
	fnV, err := n.evalCallee(ctx, &recv)
	if err != nil {
		return value.UndefinedValue, err
	}
	if n.Optional && fnV.IsNullish() {
		return value.UndefinedValue, nil
	}
	args, err := evalArgs(ctx, n.Args)
	if err != nil {
		return value.UndefinedValue, err
	}
	return ctx.CallAt(n.P, fnV, recv, args)
}

// evalCallee evaluates the callee expression, filling recv with the
// receiver object when the callee is a Property access (`obj.method()`),
// so Context.Call binds it as `this`.
func (n *Call) evalCallee(ctx *eval.Context, recv **value.Obj) (value.Value, error) {
	if p, ok := n.Callee.(*Property); ok {
		objV, err := p.Object.Eval(ctx)
		if err != nil {
			return value.UndefinedValue, err
		}
		if p.Optional && objV.IsNullish() {
			return value.UndefinedValue, nil
		}
		if objV.IsNullish() {
			return value.UndefinedValue, ctx.Throwf("cannot read property of null/undefined")
		}
		o := objV.AsObject()
		if objV.Kind() != value.Object || o == nil {
			o = autobox(ctx, objV)
		}
		if o == nil {
			return value.UndefinedValue, ctx.Throwf("cannot read property of null/undefined")
		}
		*recv = o
		key, err := p.keyStr(ctx)
		if err != nil {
			return value.UndefinedValue, err
		}
		v, _, err := o.Get(ctx, key)
		return v, err
	}
	return n.Callee.Eval(ctx)
}

func evalArgs(ctx *eval.Context, exprs []Expr) ([]value.Value, error) {
	args := make([]value.Value, 0, len(exprs))
	for _, a := range exprs {
		if sp, ok := a.(*Spread); ok {
			v, err := sp.Expr.Eval(ctx)
			if err != nil {
				return nil, err
			}
			args = append(args, spreadValues(ctx, v)...)
			continue
		}
		v, err := a.Eval(ctx)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// New is `new Callee(args)`: optional chains cannot combine with `new`
// (enforced at parse time), so New has no Optional field (spec.md §4.2).
type New struct {
	pos
	notLValue
	Callee Expr
	Args   []Expr
}

func (n *New) Declare(t *Tree, errs *pjserrors.List, isLVal bool) bool {
	if isLVal {
		return newErrf(errs, n.P, "new expression is not a valid assignment target")
	}
	ok := n.Callee.Declare(t, errs, false)
	for _, a := range n.Args {
		ok = a.Declare(t, errs, false) && ok
	}
	return ok
}

func (n *New) Resolve(t *Tree, errs *pjserrors.List) bool {
	ok := n.Callee.Resolve(t, errs)
	for _, a := range n.Args {
		ok = a.Resolve(t, errs) && ok
	}
	return ok
}

func (n *New) Eval(ctx *eval.Context) (value.Value, error) {
	fnV, err := n.Callee.Eval(ctx)
	if err != nil {
		return value.UndefinedValue, err
	}
	args, err := evalArgs(ctx, n.Args)
	if err != nil {
		return value.UndefinedValue, err
	}
	return ctx.ConstructAt(n.P, fnV, args)
}

// --- FunctionLiteral -------------------------------------------------------

// Param is one formal parameter: a plain Identifier, a DefaultExpr, or an
// ArrayLit/ObjectLit destructuring pattern (spec.md §4.3).
type Param = Expr

// FunctionLiteral owns its own Tree::Scope (kind=Function) plus an inner
// body (spec.md §4.3). Arrow marks an arrow function (no semantic
// difference here since PJS has no `this`/`arguments` binding rules to
// suppress, per spec.md §1's non-goals).
type FunctionLiteral struct {
	pos
	notLValue
	Name   string // "" for anonymous function expressions and all arrows
	Params []Param
	Body   []Stmt
	Arrow  bool

	tree  *Tree
	shape *eval.FrameShape
}

func (n *FunctionLiteral) Declare(t *Tree, errs *pjserrors.List, isLVal bool) bool {
	if isLVal {
		return newErrf(errs, n.P, "function literal is not a valid assignment target")
	}
	n.tree = NewTree(FunctionScopeKind, t, n.P)
	ok := true
	for _, p := range n.Params {
		ok = declareParam(n.tree, p, errs) && ok
	}
	for _, s := range n.Body {
		ok = s.Declare(n.tree, errs) && ok
	}
	return ok
}

// declareParam declares a parameter's bound names as args of fn, handling
// plain identifiers, defaulted params, and destructuring patterns.
func declareParam(fn *Tree, p Param, errs *pjserrors.List) bool {
	switch x := p.(type) {
	case *Identifier:
		fn.DeclareArg(x.Name)
		return true
	case *DefaultExpr:
		ok := declareParam(fn, x.Target, errs)
		return x.Default.Declare(fn, errs, false) && ok
	default:
		// destructuring parameter: declare a synthetic arg slot, then
		// declare the pattern's bound names as ordinary locals.
		fn.DeclareArg("")
		return p.Declare(fn, errs, true)
	}
}

func (n *FunctionLiteral) Resolve(t *Tree, errs *pjserrors.List) bool {
	ok := true
	for _, p := range n.Params {
		ok = p.Resolve(n.tree, errs) && ok
	}
	for _, s := range n.Body {
		ok = s.Resolve(n.tree, errs) && ok
	}
	n.shape = n.tree.Shape()
	return ok
}

// Eval constructs a Function object binding this literal's Method to the
// current Scope (spec.md §4.3: "this is how closures work"). The actual
// frame push/pop and argument-slot fill happen centrally in
// eval.Context.Call; NewScope/Run here only allocate the frame and run
// the body against it.
func (n *FunctionLiteral) Eval(ctx *eval.Context) (value.Value, error) {
	lexical := ctx.TopFrame().ScopeOrNil()
	closure := &eval.Closure{
		Lexical: lexical,
		Name:    n.Name,
		NewScope: func() *eval.Scope {
			return eval.NewScope(n.shape, lexical)
		},
		Run: n.run,
	}
	fn := ctx.NewObject(ctx.Registry().FunctionClass)
	fn.Native = &value.Callable{Closure: closure, Name: n.Name}
	return value.ObjValue(fn), nil
}

// run executes the function body against scope, which Context.Call has
// already filled with the positional arguments and pushed as the active
// frame. It unpacks defaults/destructuring per spec.md §4.5, runs the
// body statements in order, and returns the Return completion's value (or
// undefined on a normal fall-through).
func (n *FunctionLiteral) run(ctx *eval.Context, scope *eval.Scope, args []value.Value) (value.Value, error) {
	if err := bindParams(ctx, n.Params, args); err != nil {
		return value.UndefinedValue, err
	}
	result := value.UndefinedValue
	for _, s := range n.Body {
		c := s.Execute(ctx)
		if c.Kind == eval.Throw {
			return value.UndefinedValue, ctx.Err()
		}
		if c.Kind == eval.Return {
			result = c.Value
			break
		}
	}
	scope.Clear()
	return result, nil
}

// bindParams evaluates defaults/destructuring for each declared parameter
// against the already-filled leading argument slots (spec.md §4.5:
// "argument values fill the leading slots, defaults evaluate for missing
// or undefined arguments, destructuring patterns unpack").
func bindParams(ctx *eval.Context, params []Param, args []value.Value) error {
	for i, p := range params {
		var v value.Value
		if i < len(args) {
			v = args[i]
		} else {
			v = value.UndefinedValue
		}
		if id, ok := p.(*Identifier); ok {
			if err := id.Assign(ctx, v); err != nil {
				return err
			}
			continue
		}
		if err := p.Assign(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

// --- helpers shared across array/spread/object literal evaluation --------

// ArrayBacking is the dense Value slice a builtin Array's Native field
// holds (see builtin.Array), exported so the builtin package can read and
// grow it from Array.prototype methods without ast needing to import
// builtin back.
type ArrayBacking struct {
	Items []value.Value
}

// SetArrayBacking installs a freshly built backing slice on an Array
// instance (used by ArrayLit.Eval and by builtin's Array constructor).
func SetArrayBacking(o *value.Obj, items []value.Value) {
	o.Native = &ArrayBacking{Items: items}
}

// ArrayBackingOf returns v's backing slice, or nil if v isn't an
// Array-backed object.
func ArrayBackingOf(v value.Value) []value.Value {
	if v.Kind() != value.Object || v.AsObject() == nil {
		return nil
	}
	if b, ok := v.AsObject().Native.(*ArrayBacking); ok {
		return b.Items
	}
	return nil
}

// spreadValues expands an iterable (array-backed object, or string) into
// a flat Value slice for array-literal/call-argument spread.
func spreadValues(ctx *eval.Context, v value.Value) []value.Value {
	if items := ArrayBackingOf(v); items != nil {
		return items
	}
	if v.Kind() == value.String {
		s := v.AsStr().String()
		out := make([]value.Value, 0, len(s))
		for _, r := range s {
			out = append(out, value.StrValue(ctx.Intern(string(r))))
		}
		return out
	}
	return nil
}

// spreadInto copies v's own enumerable properties into dst (object-spread,
// `{...other}`).
func spreadInto(ctx *eval.Context, dst *value.Obj, v value.Value) {
	if v.Kind() != value.Object || v.AsObject() == nil {
		return
	}
	src := v.AsObject()
	for _, f := range src.Class.Fields {
		if f.Kind == value.VariableField && f.Flags&value.Enumerable != 0 {
			val, _, err := src.Get(ctx, f.Name)
			if err == nil {
				dst.Set(ctx, f.Name, val)
			}
		}
	}
	for k, val := range src.Overflow {
		dst.Set(ctx, k, val)
	}
}

// bothInt reports whether l or r boxes a value.Int and, if so, returns both
// as Ints (converting the non-Int operand from its number value) for
// arithmetic dispatch (spec.md §4.3: "Arithmetic honours a BigInt-like
// Int object type if either operand is of that type").
func bothInt(l, r value.Value) (*value.Int, *value.Int, bool) {
	li, lok := asInt(l)
	ri, rok := asInt(r)
	if !lok && !rok {
		return nil, nil, false
	}
	if !lok {
		li = value.NewIntFromFloat(l.AsNumber())
	}
	if !rok {
		ri = value.NewIntFromFloat(r.AsNumber())
	}
	return li, ri, true
}

func asInt(v value.Value) (*value.Int, bool) {
	if v.Kind() != value.Object || v.AsObject() == nil {
		return nil, false
	}
	i, ok := v.AsObject().Native.(*value.Int)
	return i, ok
}

func boxInt(ctx *eval.Context, i *value.Int) value.Value {
	o := ctx.NewObject(ctx.Registry().NumberClass)
	o.Native = i
	return value.ObjValue(o)
}

// autobox wraps a String/Number/Boolean primitive in a fresh instance of its
// class registry's boxed class (spec.md §12.4's autoboxing), so `"abc".length`
// and `(5).toString()` can dispatch through Obj.Get like any other member
// access. The box is transient: it is never interned or retained beyond the
// access that created it. Object values and nullish values pass through
// unboxed (nil), since those are the caller's existing code paths.
func autobox(ctx *eval.Context, v value.Value) *value.Obj {
	var class *value.Class
	switch v.Kind() {
	case value.String:
		class = ctx.Registry().StringClass
	case value.Number:
		class = ctx.Registry().NumberClass
	case value.Boolean:
		class = ctx.Registry().BooleanClass
	default:
		return nil
	}
	if class == nil {
		return nil
	}
	o := ctx.NewObject(class)
	o.Native = &value.Boxed{V: v}
	return o
}
