// Package parser implements the PJS recursive-descent/precedence-climbing
// parser: scanner tokens in, ast.Expr/ast.Stmt trees out. It is grounded on
// cuelang.org/go/cue/parser's structure (the parser struct's pos/tok/lit
// one-token lookahead, next()/expect()/errorExpected() error recovery with
// an error cap plus panic-based bailout, and parseBinaryExpr's precedence
// climbing driven by token.Precedence()), adapted from CUE's grammar to
// the ECMAScript-subset grammar spec.md §4.2 describes.
package parser

import (
	"fmt"

	"github.com/flomesh-io/pjs/ast"
	pjserrors "github.com/flomesh-io/pjs/errors"
	"github.com/flomesh-io/pjs/scanner"
	"github.com/flomesh-io/pjs/token"
)

// maxErrors bounds how many syntax errors accumulate before parsing bails
// out via panic/recover, mirroring cue/parser's "too many errors" guard.
const maxErrors = 64

type parser struct {
	file    *token.File
	errors  pjserrors.List
	scanner scanner.Scanner

	panicking bool

	pos token.Pos
	tok token.Token
	lit string

	newlineBefore bool

	// exprLev is set to -1 while parsing a for(;;) header or the middle
	// operand of a conditional, so that parseBinary does not treat `in` as
	// a binary operator there; groups, argument lists and literals reset
	// it to 0.
	exprLev int
}

func (p *parser) init(filename string, src []byte) {
	p.file = token.NewFile(filename, len(src))
	eh := func(pos token.Pos, msg string, args []interface{}) {
		p.errors.AddNewf(pjserrors.Parse, pos, msg, args...)
	}
	p.scanner.Init(p.file, src, eh, 0)
	p.next()
}

func (p *parser) next() {
	p.pos, p.tok, p.lit = p.scanner.Scan()
	p.newlineBefore = p.scanner.NewlineBefore()
}

func (p *parser) errf(pos token.Pos, format string, args ...interface{}) {
	n := len(p.errors)
	if n > 0 && p.errors[n-1].Position().Compare(pos) == 0 {
		return
	}
	p.errors.AddNewf(pjserrors.Parse, pos, format, args...)
	if len(p.errors) > maxErrors {
		p.panicking = true
		panic("too many syntax errors")
	}
}

func (p *parser) errorExpected(pos token.Pos, want string) {
	if pos != p.pos {
		p.errf(pos, "expected %s", want)
		return
	}
	if p.tok.IsLiteral() {
		p.errf(pos, "expected %s, found %s %q", want, p.tok, p.lit)
	} else {
		p.errf(pos, "expected %s, found %q", want, p.tok.String())
	}
}

// expect consumes tok, reporting an error and not consuming if the current
// token doesn't match.
func (p *parser) expect(tok token.Token) token.Pos {
	pos := p.pos
	if p.tok != tok {
		p.errorExpected(pos, "'"+tok.String()+"'")
		return pos
	}
	p.next()
	return pos
}

// semi consumes a statement terminator: an explicit ';', or nothing at all
// before '}'/EOF/a token that began on a new line (spec.md §4.4's limited
// automatic semicolon insertion).
func (p *parser) semi() {
	if p.tok == token.SEMI {
		p.next()
		return
	}
	if p.tok == token.RBRACE || p.tok == token.EOF || p.newlineBefore {
		return
	}
	p.errorExpected(p.pos, "';'")
}

// ParseModule parses a complete source file/module body (spec.md §4.4:
// import/export are legal only at this top level).
func ParseModule(filename string, src []byte) ([]ast.Stmt, error) {
	var p parser
	defer func() {
		if p.panicking {
			recover()
		}
	}()
	p.init(filename, src)
	stmts := p.parseStmtList(token.EOF)
	p.errors.Sort()
	return stmts, p.errors.Err()
}

// ParseExpr parses src as a single standalone expression, used by hosts
// that evaluate one-off expressions (spec.md §6's REPL-style entry point).
func ParseExpr(filename string, src []byte) (ast.Expr, error) {
	var p parser
	defer func() {
		if p.panicking {
			recover()
		}
	}()
	p.init(filename, src)
	e := p.parseExpr()
	if p.tok != token.EOF {
		p.errorExpected(p.pos, "end of expression")
	}
	p.errors.Sort()
	return e, p.errors.Err()
}

// parserState is a speculative-parse checkpoint: Scanner has no internal
// pointers to mutable per-call state beyond plain offsets, so copying it by
// value gives an independent cursor snapshot/restore pairs can rewind to
// (used by parseParenOrArrow's arrow-function lookahead).
type parserState struct {
	scanner scanner.Scanner
	pos     token.Pos
	tok     token.Token
	lit     string
	newlineBefore bool
	errLen  int
}

func (p *parser) snapshot() parserState {
	return parserState{
		scanner:       p.scanner,
		pos:           p.pos,
		tok:           p.tok,
		lit:           p.lit,
		newlineBefore: p.newlineBefore,
		errLen:        len(p.errors),
	}
}

func (p *parser) restore(s parserState) {
	p.scanner = s.scanner
	p.pos = s.pos
	p.tok = s.tok
	p.lit = s.lit
	p.newlineBefore = s.newlineBefore
	p.errors = p.errors[:s.errLen]
}

func unexpected(p *parser, where string) {
	p.errf(p.pos, "unexpected %s in %s", describe(p.tok, p.lit), where)
}

func describe(tok token.Token, lit string) string {
	if tok.IsLiteral() {
		return fmt.Sprintf("%s %q", tok, lit)
	}
	return "'" + tok.String() + "'"
}
