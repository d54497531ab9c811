package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/flomesh-io/pjs/ast"
	"github.com/flomesh-io/pjs/literal"
	"github.com/flomesh-io/pjs/token"
)

// parseExpr parses the comma operator: the lowest-precedence production
// (spec.md §4.2 precedence 1).
func (p *parser) parseExpr() ast.Expr {
	first := p.parseAssign()
	if p.tok != token.COMMA {
		return first
	}
	exprs := []ast.Expr{first}
	for p.tok == token.COMMA {
		p.next()
		exprs = append(exprs, p.parseAssign())
	}
	return &ast.Sequence{Exprs: exprs}
}

// parseAssign parses the right-associative assignment family (spec.md
// §4.2 precedence 3): `=`, compound arithmetic/bitwise, and the
// short-circuit logical-assign trio.
func (p *parser) parseAssign() ast.Expr {
	left := p.parseConditional()
	if !token.IsAssignment(p.tok) {
		return left
	}
	pos, op := p.pos, p.tok
	p.next()
	right := p.parseAssign()
	_ = pos
	return &ast.Assignment{Op: op, Target: left, Value: right}
}

// parseConditional parses the ternary `?:` (precedence 4, right
// associative).
func (p *parser) parseConditional() ast.Expr {
	test := p.parseBinary(5)
	if p.tok != token.QUESTION {
		return test
	}
	p.next()
	savedLev := p.exprLev
	p.exprLev = -1
	cons := p.parseAssign()
	p.exprLev = savedLev
	p.expect(token.COLON)
	alt := p.parseAssign()
	return &ast.Conditional{Test: test, Cons: cons, Alt: alt}
}

// parseBinary is precedence-climbing over spec.md §4.2's binary-operator
// table (precedence 5-16): `??`/`||`, `&&`, `|`, `^`, `&`, equality,
// relational/in/instanceof, shift, additive, multiplicative, `**`.
// Right-associative levels (only `**` in this range) recurse at the same
// precedence instead of prec+1.
func (p *parser) parseBinary(prec1 int) ast.Expr {
	left := p.parseUnary()
	for {
		op := p.tok
		prec, rightAssoc := op.Precedence()
		if prec < prec1 || prec == 0 {
			return left
		}
		if op == token.IN && p.exprLev < 0 {
			// `in` is ambiguous inside a for(;;) header's init clause;
			// spec.md §4.2 reserves that context for for-in-less PJS, so
			// exprLev < 0 (set while parsing a paren-free control clause)
			// suppresses it here the same way CUE suppresses IN.
			return left
		}
		p.next()
		if op == token.POW {
			switch p.tok {
			case token.NOT, token.BITNOT, token.ADD, token.SUB, token.TYPEOF, token.VOID, token.DELETE:
				p.errf(p.pos, "unary expression cannot be the exponent of '**'; wrap it in parentheses")
			}
		}
		next := prec + 1
		if rightAssoc {
			next = prec
		}
		right := p.parseBinary(next)
		if op == token.LAND || op == token.LOR || op == token.NULLSH {
			left = &ast.Logical{Op: op, Left: left, Right: right}
		} else {
			left = &ast.Binary{Op: op, Left: left, Right: right}
		}
	}
}

// parseUnary handles prefix `!` `~` `+` `-` `typeof` `void` `delete` and
// prefix `++`/`--` (spec.md §4.2 precedence 17, right-associative). A
// unary expression on either side of `**` is a syntax error: this function
// rejects `-a ** b`, and parseBinary rejects `a ** -b`.
func (p *parser) parseUnary() ast.Expr {
	switch p.tok {
	case token.NOT, token.BITNOT, token.ADD, token.SUB, token.TYPEOF, token.VOID, token.DELETE:
		op := p.tok
		p.next()
		operand := p.parseUnary()
		if p.tok == token.POW {
			p.errf(p.pos, "unary expression cannot be the base of '**'; wrap it in parentheses")
		}
		return &ast.Unary{Op: op, Operand: operand}
	case token.INC, token.DEC:
		op := p.tok
		p.next()
		return &ast.Unary{Op: op, Operand: p.parseUnary()}
	}
	return p.parsePostfix()
}

// parsePostfix handles postfix `++`/`--` (precedence 18): only legal with
// no intervening newline, per the scanner's NewlineBefore signal.
func (p *parser) parsePostfix() ast.Expr {
	x := p.parseCallExpr()
	if (p.tok == token.INC || p.tok == token.DEC) && !p.newlineBefore {
		op := p.tok
		p.next()
		return &ast.Postfix{Op: op, Operand: x}
	}
	return x
}

// parseCallExpr parses `new`, member access (`.`/`[]`), optional chaining
// (`?.`/`?.[`/`?.(`), and call-argument lists, left-to-right postfix on a
// primary expression (spec.md §4.3). `new` binds tighter than a trailing
// call so `new Foo().bar()` parses as `(new Foo()).bar()`.
func (p *parser) parseCallExpr() ast.Expr {
	if p.tok == token.NEW {
		pos := p.pos
		p.next()
		callee := p.parseCallExprNoCall()
		var args []ast.Expr
		if p.tok == token.LPAREN {
			args = p.parseArgs()
		}
		n := &ast.New{Callee: callee, Args: args}
		n.SetPos(pos)
		return p.parseCallTail(n)
	}
	return p.parseCallTail(p.parsePrimary())
}

// parseCallExprNoCall parses a `new` callee: member access only, no call
// parens (so `new a.b.c(...)` binds the parens to the outermost `new`).
func (p *parser) parseCallExprNoCall() ast.Expr {
	if p.tok == token.NEW {
		pos := p.pos
		p.next()
		callee := p.parseCallExprNoCall()
		var args []ast.Expr
		if p.tok == token.LPAREN {
			args = p.parseArgs()
		}
		n := &ast.New{Callee: callee, Args: args}
		n.SetPos(pos)
		return p.parseMemberTail(n)
	}
	return p.parseMemberTail(p.parsePrimary())
}

// parseMemberTail consumes only `.`/`[]` accesses, not calls (used while
// parsing a `new` callee, per spec.md §4.2: "`new`'s callee extends only
// through member access, not through a call").
func (p *parser) parseMemberTail(x ast.Expr) ast.Expr {
	for {
		switch p.tok {
		case token.PERIOD:
			pos := p.pos
			p.next()
			name := p.parseIdentName()
			prop := &ast.Property{Object: x, Key: &ast.Identifier{Name: name}}
			prop.SetPos(pos)
			x = prop
		case token.LBRACK:
			pos := p.pos
			p.next()
			key := p.parseExpr()
			p.expect(token.RBRACK)
			prop := &ast.Property{Object: x, Key: key, Computed: true}
			prop.SetPos(pos)
			x = prop
		default:
			return x
		}
	}
}

// parseCallTail consumes member access, calls, and optional-chain variants
// following a primary/new expression (spec.md §4.3).
func (p *parser) parseCallTail(x ast.Expr) ast.Expr {
	for {
		switch p.tok {
		case token.PERIOD:
			pos := p.pos
			p.next()
			name := p.parseIdentName()
			prop := &ast.Property{Object: x, Key: &ast.Identifier{Name: name}}
			prop.SetPos(pos)
			x = prop
		case token.LBRACK:
			pos := p.pos
			p.next()
			key := p.parseExpr()
			p.expect(token.RBRACK)
			prop := &ast.Property{Object: x, Key: key, Computed: true}
			prop.SetPos(pos)
			x = prop
		case token.LPAREN:
			pos := p.pos
			args := p.parseArgs()
			call := &ast.Call{Callee: x, Args: args}
			call.SetPos(pos)
			x = call
		case token.OPTDOT:
			pos := p.pos
			p.next()
			name := p.parseIdentName()
			prop := &ast.Property{Object: x, Key: &ast.Identifier{Name: name}, Optional: true}
			prop.SetPos(pos)
			x = prop
		case token.OPTIDX:
			pos := p.pos
			p.next()
			key := p.parseExpr()
			p.expect(token.RBRACK)
			prop := &ast.Property{Object: x, Key: key, Computed: true, Optional: true}
			prop.SetPos(pos)
			x = prop
		case token.OPTCALL:
			pos := p.pos
			p.next()
			args := p.parseArgList(token.RPAREN)
			p.expect(token.RPAREN)
			call := &ast.Call{Callee: x, Args: args, Optional: true}
			call.SetPos(pos)
			x = call
		default:
			return x
		}
	}
}

func (p *parser) parseIdentName() string {
	name := p.lit
	if p.tok != token.IDENT && !p.tok.IsKeyword() {
		p.errorExpected(p.pos, "property name")
	}
	p.next()
	return name
}

func (p *parser) parseArgs() []ast.Expr {
	p.expect(token.LPAREN)
	args := p.parseArgList(token.RPAREN)
	p.expect(token.RPAREN)
	return args
}

func (p *parser) parseArgList(end token.Token) []ast.Expr {
	savedLev := p.exprLev
	p.exprLev = 0
	defer func() { p.exprLev = savedLev }()
	var args []ast.Expr
	for p.tok != end && p.tok != token.EOF {
		if p.tok == token.ELLIPSIS {
			pos := p.pos
			p.next()
			sp := &ast.Spread{Expr: p.parseAssign()}
			sp.SetPos(pos)
			args = append(args, sp)
		} else {
			args = append(args, p.parseAssign())
		}
		if p.tok != token.COMMA {
			break
		}
		p.next()
	}
	return args
}

// parsePrimary parses literals, identifiers, parenthesized expressions
// (including arrow-function parameter lists), array/object
// literals, template literals, and function expressions.
func (p *parser) parsePrimary() ast.Expr {
	pos := p.pos
	switch p.tok {
	case token.IDENT:
		name := p.lit
		p.next()
		if p.tok == token.ARROW {
			return p.parseArrowFromIdent(pos, name)
		}
		id := &ast.Identifier{Name: name}
		id.SetPos(pos)
		return id
	case token.NUMBER:
		v, err := literal.ParseNumber(p.lit)
		if err != nil {
			p.errf(pos, "invalid number literal %q: %s", p.lit, err)
		}
		p.next()
		n := &ast.NumberLit{Value: v}
		n.SetPos(pos)
		return n
	case token.STRING:
		s, err := literal.Unquote(p.lit)
		if err != nil {
			p.errf(pos, "invalid string literal: %s", err)
		}
		p.next()
		n := &ast.StringLit{Value: s}
		n.SetPos(pos)
		return n
	case token.TRUE, token.FALSE:
		v := p.tok == token.TRUE
		p.next()
		n := &ast.BoolLit{Value: v}
		n.SetPos(pos)
		return n
	case token.NULL:
		p.next()
		n := &ast.NullLit{}
		n.SetPos(pos)
		return n
	case token.UNDEFINED:
		p.next()
		n := &ast.UndefinedLit{}
		n.SetPos(pos)
		return n
	case token.BACKTICK:
		return p.parseTemplate()
	case token.LPAREN:
		return p.parseParenOrArrow()
	case token.LBRACK:
		return p.parseArrayLit()
	case token.LBRACE:
		return p.parseObjectLit()
	case token.FUNCTION:
		return p.parseFunctionExpr()
	default:
		unexpected(p, "expression")
		p.next()
		n := &ast.UndefinedLit{}
		n.SetPos(pos)
		return n
	}
}

// parseTemplate decomposes a backtick template literal into alternating
// raw-text fragments and embedded expressions (spec.md §4.2), toggling the
// scanner's template mode around each `${...}`.
func (p *parser) parseTemplate() ast.Expr {
	pos := p.pos
	// p.tok is the opening '`'; the scanner already switched itself into
	// template-text mode when it scanned that token.
	p.next()
	var fragments []string
	var exprs []ast.Expr
	for {
		switch p.tok {
		case token.STRING:
			lit := p.lit
			closed := strings.HasSuffix(lit, "`")
			if closed {
				lit = lit[:len(lit)-1]
			}
			text, err := decodeTemplateText(lit)
			if err != nil {
				p.errf(p.pos, "invalid template literal: %s", err)
			}
			fragments = append(fragments, text)
			if closed {
				p.scanner.ExitTemplate()
				p.next()
				n := &ast.TemplateLit{Fragments: fragments, Exprs: exprs}
				n.SetPos(pos)
				return n
			}
			p.next()
		case token.LBRACE:
			p.next()
			exprs = append(exprs, p.parseExpr())
			if p.tok != token.RBRACE {
				p.errorExpected(p.pos, "'}'")
			}
			p.scanner.EnterTemplate()
			p.next()
		case token.BACKTICK:
			// Empty fragment immediately following a closing '}'.
			fragments = append(fragments, "")
			p.scanner.ExitTemplate()
			p.next()
			n := &ast.TemplateLit{Fragments: fragments, Exprs: exprs}
			n.SetPos(pos)
			return n
		default:
			p.errorExpected(p.pos, "template text")
			n := &ast.TemplateLit{Fragments: fragments, Exprs: exprs}
			n.SetPos(pos)
			return n
		}
	}
}

// decodeTemplateText decodes backslash escapes in a raw template-literal
// text fragment the way literal.Unquote does for ordinary quoted strings;
// Unquote itself can't be reused here since it treats a backtick-delimited
// body as already-raw text and skips escape processing entirely.
func decodeTemplateText(raw string) (string, error) {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); {
		c := raw[i]
		if c != '\\' {
			r, size := utf8.DecodeRuneInString(raw[i:])
			b.WriteRune(r)
			i += size
			continue
		}
		r, n, err := literal.DecodeEscape(raw[i+1:])
		if err != nil {
			return "", err
		}
		b.WriteRune(r)
		i += 1 + n
	}
	return b.String(), nil
}

// parseParenOrArrow disambiguates `(expr)` from an arrow function's
// parameter list by speculatively scanning ahead: on `(params) =>` it
// builds an ArrowFunction FunctionLiteral, otherwise a parenthesized
// expression (spec.md §4.2's documented arrow-function lookahead).
func (p *parser) parseParenOrArrow() ast.Expr {
	pos := p.pos
	save := p.snapshot()
	if params, ok := p.tryParseArrowParams(); ok {
		return p.parseArrowBody(pos, params)
	}
	p.restore(save)
	p.expect(token.LPAREN)
	savedLev := p.exprLev
	p.exprLev = 0
	x := p.parseExpr()
	p.exprLev = savedLev
	p.expect(token.RPAREN)
	return x
}

// parseArrowFromIdent handles the single-identifier arrow shorthand `x =>
// body`, reached after parsePrimary has already consumed the identifier
// and seen `=>` next.
func (p *parser) parseArrowFromIdent(pos token.Pos, name string) ast.Expr {
	id := &ast.Identifier{Name: name}
	id.SetPos(pos)
	p.expect(token.ARROW)
	return p.parseArrowBody(pos, []ast.Param{id})
}

func (p *parser) parseArrowBody(pos token.Pos, params []ast.Param) ast.Expr {
	var body []ast.Stmt
	if p.tok == token.LBRACE {
		body = p.parseBlockStmts()
	} else {
		savedLev := p.exprLev
		p.exprLev = 0
		e := p.parseAssign()
		p.exprLev = savedLev
		ret := &ast.Return{Value: e}
		ret.SetPos(pos)
		body = []ast.Stmt{ret}
	}
	fn := &ast.FunctionLiteral{Params: params, Body: body, Arrow: true}
	fn.SetPos(pos)
	return fn
}

// tryParseArrowParams attempts to parse `(` ... `)` `=>` as an arrow
// function's parameter list, returning ok=false (with no side effect the
// caller must undo via restore) if the shape doesn't match.
func (p *parser) tryParseArrowParams() (params []ast.Param, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	if p.tok != token.LPAREN {
		return nil, false
	}
	p.next()
	for p.tok != token.RPAREN {
		if p.tok == token.EOF {
			return nil, false
		}
		params = append(params, p.parseParam())
		if p.tok == token.COMMA {
			p.next()
			continue
		}
		break
	}
	if p.tok != token.RPAREN {
		return nil, false
	}
	p.next()
	if p.tok != token.ARROW {
		return nil, false
	}
	p.next()
	return params, true
}

// parseParam parses one formal parameter: a plain identifier, a
// destructuring pattern, optionally followed by `= default` (spec.md
// §4.3). It does not handle a `...` prefix: parseFunctionTail skips a
// leading `...` before calling it, so such a parameter binds one argument
// like any other (see DESIGN.md).
func (p *parser) parseParam() ast.Param {
	var target ast.Expr
	switch p.tok {
	case token.LBRACK:
		target = p.parseArrayLit()
	case token.LBRACE:
		target = p.parseObjectLit()
	default:
		pos := p.pos
		name := p.lit
		p.expect(token.IDENT)
		id := &ast.Identifier{Name: name}
		id.SetPos(pos)
		target = id
	}
	if p.tok == token.ASSIGN {
		p.next()
		def := p.parseAssign()
		d := &ast.DefaultExpr{Target: target, Default: def}
		d.SetPos(target.Pos())
		return d
	}
	return target
}

func (p *parser) parseArrayLit() ast.Expr {
	pos := p.pos
	p.expect(token.LBRACK)
	savedLev := p.exprLev
	p.exprLev = 0
	var elems []ast.ArrayElement
	for p.tok != token.RBRACK && p.tok != token.EOF {
		if p.tok == token.COMMA {
			elems = append(elems, ast.ArrayElement{})
			p.next()
			continue
		}
		if p.tok == token.ELLIPSIS {
			p.next()
			elems = append(elems, ast.ArrayElement{Expr: p.parseAssign(), Spread: true})
		} else {
			elems = append(elems, ast.ArrayElement{Expr: p.parseAssign()})
		}
		if p.tok == token.COMMA {
			p.next()
			continue
		}
		break
	}
	p.exprLev = savedLev
	p.expect(token.RBRACK)
	n := &ast.ArrayLit{Elements: elems}
	n.SetPos(pos)
	return n
}

func (p *parser) parseObjectLit() ast.Expr {
	pos := p.pos
	p.expect(token.LBRACE)
	savedLev := p.exprLev
	p.exprLev = 0
	var props []ast.ObjectProperty
	for p.tok != token.RBRACE && p.tok != token.EOF {
		props = append(props, p.parseObjectProperty())
		if p.tok == token.COMMA {
			p.next()
			continue
		}
		break
	}
	p.exprLev = savedLev
	p.expect(token.RBRACE)
	n := &ast.ObjectLit{Properties: props}
	n.SetPos(pos)
	return n
}

func (p *parser) parseObjectProperty() ast.ObjectProperty {
	if p.tok == token.ELLIPSIS {
		p.next()
		return ast.ObjectProperty{Value: p.parseAssign(), Spread: true}
	}
	var key ast.Expr
	computed := false
	if p.tok == token.LBRACK {
		p.next()
		key = p.parseAssign()
		p.expect(token.RBRACK)
		computed = true
	} else {
		pos := p.pos
		name := p.lit
		if p.tok == token.STRING {
			s, err := literal.Unquote(p.lit)
			if err != nil {
				p.errf(pos, "invalid string literal: %s", err)
			}
			p.next()
			sl := &ast.StringLit{Value: s}
			sl.SetPos(pos)
			key = sl
		} else {
			p.next()
			id := &ast.Identifier{Name: name}
			id.SetPos(pos)
			key = id
		}
	}
	if p.tok == token.COLON {
		p.next()
		return ast.ObjectProperty{Key: key, Value: p.parseAssign(), Computed: computed}
	}
	if p.tok == token.LPAREN {
		// shorthand method syntax `{ f(a,b) { ... } }`
		fn := p.parseFunctionTail(false)
		return ast.ObjectProperty{Key: key, Value: fn, Computed: computed}
	}
	// shorthand `{x}` / `{x = default}` (destructuring-pattern default)
	id, ok := key.(*ast.Identifier)
	if !ok {
		p.errf(key.Pos(), "shorthand property must be an identifier")
		return ast.ObjectProperty{Key: key, Value: key, Shorthand: true}
	}
	ref := &ast.Identifier{Name: id.Name}
	ref.SetPos(id.Pos())
	var val ast.Expr = ref
	if p.tok == token.ASSIGN {
		p.next()
		def := p.parseAssign()
		de := &ast.DefaultExpr{Target: val, Default: def}
		de.SetPos(val.Pos())
		val = de
	}
	return ast.ObjectProperty{Key: key, Value: val, Shorthand: true}
}

func (p *parser) parseFunctionExpr() ast.Expr {
	pos := p.pos
	p.expect(token.FUNCTION)
	name := ""
	if p.tok == token.IDENT {
		name = p.lit
		p.next()
	}
	fn := p.parseFunctionTail(false).(*ast.FunctionLiteral)
	fn.Name = name
	fn.SetPos(pos)
	return fn
}

// parseFunctionTail parses `(params) { body }`, shared by function
// expressions/declarations and object-literal method shorthand.
func (p *parser) parseFunctionTail(arrow bool) ast.Expr {
	p.expect(token.LPAREN)
	var params []ast.Param
	for p.tok != token.RPAREN && p.tok != token.EOF {
		if p.tok == token.ELLIPSIS {
			p.next()
		}
		params = append(params, p.parseParam())
		if p.tok == token.COMMA {
			p.next()
			continue
		}
		break
	}
	p.expect(token.RPAREN)
	body := p.parseBlockStmts()
	return &ast.FunctionLiteral{Params: params, Body: body, Arrow: arrow}
}
