// Package scanner implements the PJS lexer: a stateful single-pass scanner
// producing a lookahead token plus its line/column, grounded directly on
// cuelang.org/go/cue/scanner's structure (next/Init/error/Scan shape, the
// offset/rdOffset read-ahead pair, switch2 for two-character operators) and
// adapted to PJS's operator alphabet, reserved words and template-literal
// mode (spec.md §4.1).
package scanner

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/flomesh-io/pjs/errors"
	"github.com/flomesh-io/pjs/token"
)

// Mode is a set of scanner option flags.
type Mode uint

const (
	// ScanComments causes comments to be returned as COMMENT tokens
	// instead of being skipped.
	ScanComments Mode = 1 << iota
)

const bom = 0xFEFF

// A Scanner tokenizes one source file. It must be initialized with Init
// before use.
type Scanner struct {
	file *token.File
	src  []byte
	err  errors.Handler
	mode Mode

	ch         rune
	offset     int
	rdOffset   int
	lineOffset int

	// newlineBefore is set when skipWhitespace crossed at least one '\n'
	// before the returned token; it backs the limited automatic-semicolon
	// insertion spec.md §4.4 requires for `return`/`break`/`continue`.
	newlineBefore bool

	// template > 0 means the scanner is inside a template literal: Scan
	// returns raw text runs as STRING tokens until '`' or '${' is seen.
	// Scan itself raises it on an opening '`' and lowers it on "${"; the
	// parser raises it again with EnterTemplate after the '}' that closes
	// an embedded expression and lowers it with ExitTemplate after the
	// closing '`'.
	template int

	ErrorCount int
}

// Init prepares s to scan src, whose position information is recorded in
// file. err, if non-nil, is invoked for every lexical error encountered.
func (s *Scanner) Init(file *token.File, src []byte, err errors.Handler, mode Mode) {
	if file.Size() != len(src) {
		panic(fmt.Sprintf("scanner: file size (%d) does not match src len (%d)", file.Size(), len(src)))
	}
	s.file = file
	s.src = src
	s.err = err
	s.mode = mode
	s.ch = ' '
	s.offset = 0
	s.rdOffset = 0
	s.lineOffset = 0
	s.ErrorCount = 0
	s.template = 0

	s.next()
	if s.ch == bom {
		s.next()
	}
}

func (s *Scanner) next() {
	if s.rdOffset < len(s.src) {
		s.offset = s.rdOffset
		if s.ch == '\n' {
			s.lineOffset = s.offset
			s.file.AddLine(s.offset)
		}
		r, w := rune(s.src[s.rdOffset]), 1
		switch {
		case r == 0:
			s.error(s.offset, "illegal character NUL")
		case r >= utf8.RuneSelf:
			r, w = utf8.DecodeRune(s.src[s.rdOffset:])
			if r == utf8.RuneError && w == 1 {
				s.error(s.offset, "illegal UTF-8 encoding")
			} else if r == bom && s.offset > 0 {
				s.error(s.offset, "illegal byte order mark")
			}
		}
		s.rdOffset += w
		s.ch = r
	} else {
		s.offset = len(s.src)
		if s.ch == '\n' {
			s.lineOffset = s.offset
			s.file.AddLine(s.offset)
		}
		s.ch = -1
	}
}

// peek returns the byte following the current character without consuming
// it, or 0 at end of input.
func (s *Scanner) peek() byte {
	if s.rdOffset < len(s.src) {
		return s.src[s.rdOffset]
	}
	return 0
}

func (s *Scanner) error(offs int, msg string, args ...interface{}) {
	if s.err != nil {
		s.err(s.file.Pos(offs), msg, args)
	}
	s.ErrorCount++
}

func isLetter(ch rune) bool {
	return ch == '_' || ch == '$' || 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' ||
		ch >= utf8.RuneSelf && unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9' || ch >= utf8.RuneSelf && unicode.IsDigit(ch)
}

func (s *Scanner) scanIdentifier() string {
	offs := s.offset
	for isLetter(s.ch) || isDigit(s.ch) {
		s.next()
	}
	return string(s.src[offs:s.offset])
}

func digitVal(ch rune) int {
	switch {
	case '0' <= ch && ch <= '9':
		return int(ch - '0')
	case ch == '_':
		return 0
	case 'a' <= ch && ch <= 'f':
		return int(ch-'a') + 10
	case 'A' <= ch && ch <= 'F':
		return int(ch-'A') + 10
	}
	return 16
}

func (s *Scanner) scanMantissa(base int) {
	for digitVal(s.ch) < base || s.ch == '_' {
		s.next()
	}
}

func (s *Scanner) scanNumber(seenDecimalPoint bool) string {
	offs := s.offset
	if seenDecimalPoint {
		offs--
		s.scanMantissa(10)
		s.scanExponent()
		return string(s.src[offs:s.offset])
	}

	if s.ch == '0' && (s.peek() == 'x' || s.peek() == 'X') {
		s.next()
		s.next()
		s.scanMantissa(16)
		return string(s.src[offs:s.offset])
	}
	if s.ch == '0' && s.peek() == 'o' {
		s.next()
		s.next()
		s.scanMantissa(8)
		return string(s.src[offs:s.offset])
	}
	if s.ch == '0' && s.peek() == 'b' {
		s.next()
		s.next()
		s.scanMantissa(2)
		return string(s.src[offs:s.offset])
	}

	s.scanMantissa(10)
	if s.ch == '.' {
		s.next()
		s.scanMantissa(10)
	}
	s.scanExponent()
	return string(s.src[offs:s.offset])
}

func (s *Scanner) scanExponent() {
	if s.ch == 'e' || s.ch == 'E' {
		s.next()
		if s.ch == '+' || s.ch == '-' {
			s.next()
		}
		s.scanMantissa(10)
	}
}

// scanEscape consumes one escape sequence after a backslash already
// consumed by the caller, reporting malformed escapes but always making
// forward progress.
func (s *Scanner) scanEscape(quote rune) {
	switch s.ch {
	case 'a', 'b', 'f', 'n', 'r', 't', 'v', '\\', quote, '`':
		s.next()
		return
	case '0', '1', '2', '3', '4', '5', '6', '7':
		s.scanDigits(3, 8)
		return
	case 'x':
		s.next()
		s.scanDigits(2, 16)
		return
	case 'u':
		s.next()
		if s.ch == '{' {
			s.next()
			for s.ch != '}' && s.ch >= 0 {
				s.next()
			}
			if s.ch == '}' {
				s.next()
			} else {
				s.error(s.offset, "escape sequence not terminated")
			}
			return
		}
		s.scanDigits(4, 16)
		return
	default:
		msg := "unknown escape sequence"
		if s.ch < 0 {
			msg = "escape sequence not terminated"
		}
		s.error(s.offset, msg)
	}
}

func (s *Scanner) scanDigits(n, base int) {
	for i := 0; i < n; i++ {
		if digitVal(s.ch) >= base {
			s.error(s.offset, "illegal character in escape sequence")
			return
		}
		s.next()
	}
}

func (s *Scanner) scanString(quote rune) (token.Token, string) {
	offs := s.offset - 1
	for {
		ch := s.ch
		if ch == '\n' || ch < 0 {
			s.error(offs, "string literal not terminated")
			break
		}
		s.next()
		if ch == quote {
			break
		}
		if ch == '\\' {
			s.scanEscape(quote)
		}
	}
	return token.STRING, string(s.src[offs:s.offset])
}

// scanTemplateChunk scans raw template text up to (and consuming) a
// terminating backtick, or up to (but not consuming) a "${" that starts an
// embedded expression. The returned literal carries no opening delimiter;
// it ends with the terminating backtick when the template closes, so the
// parser can tell which case it got from the trailing byte.
func (s *Scanner) scanTemplateChunk() (token.Token, string) {
	offs := s.offset
	for {
		ch := s.ch
		if ch < 0 {
			s.error(offs, "template literal not terminated")
			break
		}
		if ch == '`' {
			s.next()
			break
		}
		if ch == '$' && s.peek() == '{' {
			break
		}
		s.next()
		if ch == '\\' {
			s.scanEscape('`')
		}
	}
	return token.STRING, string(s.src[offs:s.offset])
}

// EnterTemplate switches the scanner into template-text mode: the next
// Scan call returns a raw template chunk rather than tokenizing normally.
// The parser calls this right after consuming the '}' that closes an
// embedded expression inside `${...}`; an opening '`' enters template mode
// inside Scan itself.
func (s *Scanner) EnterTemplate() { s.template++ }

// ExitTemplate pops one level of template mode, called by the parser after
// consuming a template's closing '`'. Scan pops a level by itself when it
// returns "${", so the embedded expression is scanned in ordinary token mode.
func (s *Scanner) ExitTemplate() {
	if s.template > 0 {
		s.template--
	}
}

func (s *Scanner) skipWhitespace() {
	s.newlineBefore = false
	for {
		switch s.ch {
		case ' ', '\t', '\r':
		case '\n':
			s.newlineBefore = true
		default:
			return
		}
		s.next()
	}
}

func (s *Scanner) scanComment() {
	// '/' already consumed; s.ch is '/' or '*'.
	if s.ch == '/' {
		for s.ch != '\n' && s.ch >= 0 {
			s.next()
		}
		return
	}
	s.next()
	for s.ch >= 0 {
		ch := s.ch
		s.next()
		if ch == '*' && s.ch == '/' {
			s.next()
			return
		}
	}
	s.error(s.offset, "comment not terminated")
}

func (s *Scanner) switch2(tok0, tok1 token.Token) token.Token {
	if s.ch == '=' {
		s.next()
		return tok1
	}
	return tok0
}

// Scan returns the position, kind and literal text of the next token.
// NewlineBefore reports whether a newline appeared in the whitespace this
// token followed, the only signal the parser needs for return/break/
// continue's limited automatic-semicolon insertion (spec.md §4.4).
func (s *Scanner) Scan() (pos token.Pos, tok token.Token, lit string) {
	if s.template > 0 {
		offs := s.offset
		pos = s.file.Pos(offs)
		if s.ch == '`' {
			s.next()
			return pos, token.BACKTICK, "`"
		}
		if s.ch == '$' && s.peek() == '{' {
			s.next()
			s.next()
			s.template--
			return pos, token.LBRACE, "${"
		}
		tok, lit = s.scanTemplateChunk()
		return pos, tok, lit
	}

	var nlCarry bool
scanAgain:
	s.skipWhitespace()
	s.newlineBefore = s.newlineBefore || nlCarry
	offset := s.offset
	pos = s.file.Pos(offset)

	switch ch := s.ch; {
	case isLetter(ch):
		lit = s.scanIdentifier()
		tok = token.Lookup(lit)
	case isDigit(ch):
		tok = token.NUMBER
		lit = s.scanNumber(false)
	default:
		s.next()
		switch ch {
		case -1:
			tok = token.EOF
		case '"', '\'':
			tok, lit = s.scanString(ch)
		case '`':
			s.template++
			tok = token.BACKTICK
			lit = "`"
		case '.':
			if isDigit(s.ch) {
				tok = token.NUMBER
				lit = s.scanNumber(true)
			} else if s.ch == '.' && s.peek() == '.' {
				s.next()
				s.next()
				tok = token.ELLIPSIS
			} else {
				tok = token.PERIOD
			}
		case ',':
			tok = token.COMMA
		case ';':
			tok = token.SEMI
		case ':':
			tok = token.COLON
		case '?':
			switch {
			case s.ch == '.':
				s.next()
				switch s.ch {
				case '(':
					s.next()
					tok = token.OPTCALL
				case '[':
					s.next()
					tok = token.OPTIDX
				default:
					tok = token.OPTDOT
				}
			case s.ch == '?':
				s.next()
				tok = s.switch2(token.NULLSH, token.NULLSH_ASSIGN)
			default:
				tok = token.QUESTION
			}
		case '(':
			tok = token.LPAREN
		case ')':
			tok = token.RPAREN
		case '[':
			tok = token.LBRACK
		case ']':
			tok = token.RBRACK
		case '{':
			tok = token.LBRACE
		case '}':
			tok = token.RBRACE
		case '+':
			switch s.ch {
			case '+':
				s.next()
				tok = token.INC
			default:
				tok = s.switch2(token.ADD, token.ADD_ASSIGN)
			}
		case '-':
			switch s.ch {
			case '-':
				s.next()
				tok = token.DEC
			default:
				tok = s.switch2(token.SUB, token.SUB_ASSIGN)
			}
		case '*':
			if s.ch == '*' {
				s.next()
				tok = s.switch2(token.POW, token.POW_ASSIGN)
			} else {
				tok = s.switch2(token.MUL, token.MUL_ASSIGN)
			}
		case '/':
			if s.ch == '/' || s.ch == '*' {
				s.scanComment()
				if s.mode&ScanComments == 0 {
					nlCarry = s.newlineBefore
					for _, b := range s.src[offset:s.offset] {
						nlCarry = nlCarry || b == '\n'
					}
					goto scanAgain
				}
				tok = token.COMMENT
			} else {
				tok = s.switch2(token.QUO, token.QUO_ASSIGN)
			}
		case '%':
			tok = s.switch2(token.REM, token.REM_ASSIGN)
		case '<':
			switch s.ch {
			case '<':
				s.next()
				tok = s.switch2(token.SHL, token.SHL_ASSIGN)
			default:
				tok = s.switch2(token.LSS, token.LEQ)
			}
		case '>':
			switch {
			case s.ch == '>' && s.peek() == '>':
				s.next()
				s.next()
				tok = s.switch2(token.USHR, token.USHR_ASSIGN)
			case s.ch == '>':
				s.next()
				tok = s.switch2(token.SHR, token.SHR_ASSIGN)
			default:
				tok = s.switch2(token.GTR, token.GEQ)
			}
		case '=':
			switch s.ch {
			case '=':
				s.next()
				tok = s.switch2(token.EQL, token.SEQL)
			case '>':
				s.next()
				tok = token.ARROW
			default:
				tok = token.ASSIGN
			}
		case '!':
			switch s.ch {
			case '=':
				s.next()
				tok = s.switch2(token.NEQ, token.SNEQ)
			default:
				tok = token.NOT
			}
		case '~':
			tok = token.BITNOT
		case '&':
			switch s.ch {
			case '&':
				s.next()
				tok = s.switch2(token.LAND, token.LAND_ASSIGN)
			default:
				tok = s.switch2(token.AND, token.AND_ASSIGN)
			}
		case '|':
			switch s.ch {
			case '|':
				s.next()
				tok = s.switch2(token.LOR, token.LOR_ASSIGN)
			default:
				tok = s.switch2(token.OR, token.OR_ASSIGN)
			}
		case '^':
			tok = s.switch2(token.XOR, token.XOR_ASSIGN)
		default:
			s.error(offset, fmt.Sprintf("illegal character %#U", ch))
			tok = token.ILLEGAL
			lit = string(ch)
		}
	}
	if lit == "" && tok.IsOperator() {
		lit = tok.String()
	}
	return pos, tok, lit
}

// NewlineBefore reports whether the most recently scanned token was
// preceded by at least one newline in the whitespace/comments it followed.
func (s *Scanner) NewlineBefore() bool { return s.newlineBefore }
