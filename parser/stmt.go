package parser

import (
	"github.com/flomesh-io/pjs/ast"
	"github.com/flomesh-io/pjs/literal"
	"github.com/flomesh-io/pjs/token"
)

// parseStmtList parses statements until end (RBRACE for a block body, EOF
// for a whole module).
func (p *parser) parseStmtList(end token.Token) []ast.Stmt {
	var stmts []ast.Stmt
	for p.tok != end && p.tok != token.EOF {
		stmts = append(stmts, p.parseStatement())
	}
	return stmts
}

func (p *parser) parseBlockStmts() []ast.Stmt {
	p.expect(token.LBRACE)
	stmts := p.parseStmtList(token.RBRACE)
	p.expect(token.RBRACE)
	return stmts
}

// parseStatement dispatches on the leading token per spec.md §4.4's
// statement grammar.
func (p *parser) parseStatement() ast.Stmt {
	switch p.tok {
	case token.LBRACE:
		pos := p.pos
		b := &ast.Block{Stmts: p.parseBlockStmts()}
		b.SetPos(pos)
		return b
	case token.VAR, token.LET, token.CONST:
		v := p.parseVar()
		p.semi()
		return v
	case token.IF:
		return p.parseIf()
	case token.FOR:
		return p.parseFor()
	case token.WHILE:
		return p.parseWhile()
	case token.DO:
		return p.parseDoWhile()
	case token.BREAK:
		return p.parseBreak()
	case token.CONTINUE:
		return p.parseContinue()
	case token.RETURN:
		return p.parseReturn()
	case token.THROW:
		return p.parseThrow()
	case token.TRY:
		return p.parseTry()
	case token.SWITCH:
		return p.parseSwitch()
	case token.FUNCTION:
		return p.parseFunctionDecl()
	case token.IMPORT:
		return p.parseImport()
	case token.EXPORT:
		return p.parseExport()
	case token.SEMI:
		pos := p.pos
		p.next()
		b := &ast.Block{}
		b.SetPos(pos)
		return b
	case token.IDENT:
		if label, ok := p.tryParseLabel(); ok {
			return label
		}
		fallthrough
	default:
		pos := p.pos
		e := p.parseExpr()
		p.semi()
		es := &ast.ExpressionStatement{Expr: e}
		es.SetPos(pos)
		return es
	}
}

// tryParseLabel consumes `ident:` and the statement it labels, or (if no
// colon follows the identifier) leaves the scanner untouched and reports
// ok=false so the caller falls back to ordinary expression-statement
// parsing.
func (p *parser) tryParseLabel() (ast.Stmt, bool) {
	save := p.snapshot()
	pos := p.pos
	name := p.lit
	p.next()
	if p.tok != token.COLON {
		p.restore(save)
		return nil, false
	}
	p.next()
	inner := p.parseStatement()
	switch s := inner.(type) {
	case *ast.For:
		s.Label = name
		return s, true
	case *ast.While:
		s.Label = name
		return s, true
	case *ast.DoWhile:
		s.Label = name
		return s, true
	case *ast.Switch:
		s.Label = name
		return s, true
	default:
		l := &ast.Label{Name: name, Stmt: inner}
		l.SetPos(pos)
		return l, true
	}
}

// parseVar parses `var`/`let`/`const` as interchangeable hoisting
// declarations (spec.md §4.4 supplemented: no distinct scoping semantics
// in this engine — see DESIGN.md's Open Question decision).
func (p *parser) parseVar() *ast.Var {
	pos := p.pos
	p.next() // consume var/let/const
	var decls []ast.VarDeclarator
	for {
		target := p.parseBindingTarget()
		var init ast.Expr
		if p.tok == token.ASSIGN {
			p.next()
			init = p.parseAssign()
		}
		decls = append(decls, ast.VarDeclarator{Target: target, Init: init})
		if p.tok != token.COMMA {
			break
		}
		p.next()
	}
	v := &ast.Var{Declarators: decls}
	v.SetPos(pos)
	return v
}

func (p *parser) parseBindingTarget() ast.Expr {
	switch p.tok {
	case token.LBRACK:
		return p.parseArrayLit()
	case token.LBRACE:
		return p.parseObjectLit()
	default:
		pos := p.pos
		name := p.lit
		p.expect(token.IDENT)
		id := &ast.Identifier{Name: name}
		id.SetPos(pos)
		return id
	}
}

func (p *parser) parseIf() ast.Stmt {
	pos := p.pos
	p.expect(token.IF)
	p.expect(token.LPAREN)
	test := p.parseExpr()
	p.expect(token.RPAREN)
	cons := p.parseStatement()
	var alt ast.Stmt
	if p.tok == token.ELSE {
		p.next()
		alt = p.parseStatement()
	}
	n := &ast.If{Test: test, Cons: cons, Alt: alt}
	n.SetPos(pos)
	return n
}

// parseFor parses `for(init; cond; step) body`, with init being a Var
// declaration, an expression statement, or absent (spec.md §4.4).
func (p *parser) parseFor() ast.Stmt {
	pos := p.pos
	p.expect(token.FOR)
	p.expect(token.LPAREN)
	savedLev := p.exprLev
	p.exprLev = -1

	var init ast.Stmt
	switch p.tok {
	case token.SEMI:
	case token.VAR, token.LET, token.CONST:
		init = p.parseVar()
	default:
		e := p.parseExpr()
		es := &ast.ExpressionStatement{Expr: e}
		es.SetPos(e.Pos())
		init = es
	}
	p.expect(token.SEMI)

	var cond ast.Expr
	if p.tok != token.SEMI {
		cond = p.parseExpr()
	}
	p.expect(token.SEMI)

	var step ast.Expr
	if p.tok != token.RPAREN {
		step = p.parseExpr()
	}
	p.exprLev = savedLev
	p.expect(token.RPAREN)

	body := p.parseStatement()
	n := &ast.For{Init: init, Cond: cond, Step: step, Body: body}
	n.SetPos(pos)
	return n
}

func (p *parser) parseWhile() ast.Stmt {
	pos := p.pos
	p.expect(token.WHILE)
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	body := p.parseStatement()
	n := &ast.While{Cond: cond, Body: body}
	n.SetPos(pos)
	return n
}

func (p *parser) parseDoWhile() ast.Stmt {
	pos := p.pos
	p.expect(token.DO)
	body := p.parseStatement()
	p.expect(token.WHILE)
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	p.semi()
	n := &ast.DoWhile{Body: body, Cond: cond}
	n.SetPos(pos)
	return n
}

// parseOptionalLabelRef parses a break/continue's optional target label,
// which must be on the same line (no ASI-inserted newline may intervene).
func (p *parser) parseOptionalLabelRef() string {
	if p.tok == token.IDENT && !p.newlineBefore {
		name := p.lit
		p.next()
		return name
	}
	return ""
}

func (p *parser) parseBreak() ast.Stmt {
	pos := p.pos
	p.expect(token.BREAK)
	label := p.parseOptionalLabelRef()
	p.semi()
	n := &ast.Break{Label: label}
	n.SetPos(pos)
	return n
}

func (p *parser) parseContinue() ast.Stmt {
	pos := p.pos
	p.expect(token.CONTINUE)
	label := p.parseOptionalLabelRef()
	p.semi()
	n := &ast.Continue{Label: label}
	n.SetPos(pos)
	return n
}

// parseReturn implements the limited ASI spec.md §4.4 calls for: `return`
// followed by a newline yields a bare `return;`, never consuming an
// expression that starts on the next line.
func (p *parser) parseReturn() ast.Stmt {
	pos := p.pos
	p.expect(token.RETURN)
	var val ast.Expr
	if p.tok != token.SEMI && p.tok != token.RBRACE && p.tok != token.EOF && !p.newlineBefore {
		val = p.parseExpr()
	}
	p.semi()
	n := &ast.Return{Value: val}
	n.SetPos(pos)
	return n
}

func (p *parser) parseThrow() ast.Stmt {
	pos := p.pos
	p.expect(token.THROW)
	val := p.parseExpr()
	p.semi()
	n := &ast.Throw{Value: val}
	n.SetPos(pos)
	return n
}

// parseTry parses `try {} catch(e) {} finally {}`, where both catch and
// finally are optional but at least one must be present (spec.md §4.4);
// the catch binding itself is optional (`catch {}`).
func (p *parser) parseTry() ast.Stmt {
	pos := p.pos
	p.expect(token.TRY)
	block := &ast.Block{Stmts: p.parseBlockStmts()}

	var catchParam ast.Expr
	var catchBody ast.Stmt
	if p.tok == token.CATCH {
		p.next()
		if p.tok == token.LPAREN {
			p.next()
			catchParam = p.parseBindingTarget()
			p.expect(token.RPAREN)
		}
		catchBody = &ast.Block{Stmts: p.parseBlockStmts()}
	}

	var finally ast.Stmt
	if p.tok == token.FINALLY {
		p.next()
		finally = &ast.Block{Stmts: p.parseBlockStmts()}
	}

	if catchBody == nil && finally == nil {
		p.errf(pos, "missing catch or finally after try")
	}

	n := &ast.Try{Block: block, CatchParam: catchParam, CatchBody: catchBody, Finally: finally}
	n.SetPos(pos)
	return n
}

// parseSwitch parses `switch(disc) { case e: stmts... default: stmts... }`
// (spec.md §4.4: loose-equality case matching, fallthrough, one default).
func (p *parser) parseSwitch() ast.Stmt {
	pos := p.pos
	p.expect(token.SWITCH)
	p.expect(token.LPAREN)
	disc := p.parseExpr()
	p.expect(token.RPAREN)
	p.expect(token.LBRACE)

	var cases []ast.SwitchCase
	for p.tok == token.CASE || p.tok == token.DEFAULT {
		var test ast.Expr
		if p.tok == token.CASE {
			p.next()
			test = p.parseExpr()
		} else {
			p.next()
		}
		p.expect(token.COLON)
		var stmts []ast.Stmt
		for p.tok != token.CASE && p.tok != token.DEFAULT && p.tok != token.RBRACE && p.tok != token.EOF {
			stmts = append(stmts, p.parseStatement())
		}
		cases = append(cases, ast.SwitchCase{Test: test, Stmts: stmts})
	}
	p.expect(token.RBRACE)

	n := &ast.Switch{Discriminant: disc, Cases: cases}
	n.SetPos(pos)
	return n
}

// parseFunctionDecl parses a named `function f(...) {...}` declaration
// statement (spec.md §4.3/§4.4): structurally a FunctionLiteral wrapped in
// an ExpressionStatement-like Var binding so the name is hoisted and
// assigned once at its declaration point.
func (p *parser) parseFunctionDecl() ast.Stmt {
	pos := p.pos
	fn := p.parseFunctionExpr().(*ast.FunctionLiteral)
	fn.SetPos(pos)
	id := &ast.Identifier{Name: fn.Name}
	id.SetPos(pos)
	v := &ast.Var{Declarators: []ast.VarDeclarator{{Target: id, Init: fn}}}
	v.SetPos(pos)
	return v
}

// parseImport parses `import {a, b as c} from 'path'` and the default-
// import shorthand `import d from 'path'` (spec.md §4.4, module scope
// only — enforced by ast.Import.Declare).
func (p *parser) parseImport() ast.Stmt {
	pos := p.pos
	p.expect(token.IMPORT)
	var specs []ast.ImportSpecifier
	if p.tok == token.IDENT {
		name := p.lit
		p.next()
		specs = append(specs, ast.ImportSpecifier{Name: "default", Alias: name})
		if p.tok == token.COMMA {
			p.next()
		}
	}
	if p.tok == token.LBRACE {
		p.next()
		for p.tok != token.RBRACE && p.tok != token.EOF {
			name := p.lit
			p.expect(token.IDENT)
			alias := name
			if p.tok == token.IDENT && p.lit == "as" {
				p.next()
				alias = p.lit
				p.expect(token.IDENT)
			}
			specs = append(specs, ast.ImportSpecifier{Name: name, Alias: alias})
			if p.tok != token.COMMA {
				break
			}
			p.next()
		}
		p.expect(token.RBRACE)
	}
	if p.tok != token.IDENT || p.lit != "from" {
		p.errorExpected(p.pos, "'from'")
	} else {
		p.next()
	}
	path := ""
	if p.tok == token.STRING {
		s, err := literal.Unquote(p.lit)
		if err != nil {
			p.errf(p.pos, "invalid string literal: %s", err)
		}
		path = s
		p.next()
	} else {
		p.errorExpected(p.pos, "module path string")
	}
	p.semi()
	n := &ast.Import{Specifiers: specs, Path: path}
	n.SetPos(pos)
	return n
}

// parseExport parses `export var/let/const/function ...` and `export
// default expr` (spec.md §4.4, module scope only).
func (p *parser) parseExport() ast.Stmt {
	pos := p.pos
	p.expect(token.EXPORT)
	if p.tok == token.DEFAULT {
		p.next()
		val := p.parseAssign()
		p.semi()
		n := &ast.Export{Default: val}
		n.SetPos(pos)
		return n
	}
	var decl ast.Stmt
	switch p.tok {
	case token.VAR, token.LET, token.CONST:
		decl = p.parseVar()
		p.semi()
	case token.FUNCTION:
		decl = p.parseFunctionDecl()
	default:
		p.errorExpected(p.pos, "declaration after 'export'")
		decl = p.parseStatement()
	}
	n := &ast.Export{Decl: decl}
	n.SetPos(pos)
	return n
}
