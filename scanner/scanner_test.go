package scanner

import (
	"fmt"
	"testing"

	"github.com/flomesh-io/pjs/token"
)

type elt struct {
	tok token.Token
	lit string
}

// testTokens mirrors cue/scanner's table-driven convention
// (source fragment -> expected (token, literal) pairs), adapted to PJS's
// operator/keyword alphabet.
var testTokens = []elt{
	{token.IDENT, "x"},
	{token.IDENT, "$fiber"},
	{token.NUMBER, "3.14"},
	{token.NUMBER, "0x1f"},
	{token.STRING, "abc"},
	{token.VAR, "var"},
	{token.LET, "let"},
	{token.CONST, "const"},
	{token.FUNCTION, "function"},
	{token.ARROW, "=>"},
	{token.ADD_ASSIGN, "+="},
	{token.POW, "**"},
	{token.POW_ASSIGN, "**="},
	{token.USHR, ">>>"},
	{token.USHR_ASSIGN, ">>>="},
	{token.NULLSH, "??"},
	{token.NULLSH_ASSIGN, "??="},
	{token.ELLIPSIS, "..."},
	{token.SEQL, "==="},
	{token.SNEQ, "!=="},
}

func scanOne(t *testing.T, src string) (token.Token, string) {
	t.Helper()
	var gotErr error
	file := token.NewFile("test", len(src))
	var s Scanner
	s.Init(file, []byte(src), func(pos token.Pos, msg string, args []interface{}) {
		gotErr = fmt.Errorf(msg, args...)
	}, 0)
	_, tok, lit := s.Scan()
	if gotErr != nil {
		t.Fatalf("scanning %q: %v", src, gotErr)
	}
	return tok, lit
}

func TestScanTokens(t *testing.T) {
	for _, e := range testTokens {
		src := e.lit
		if e.tok == token.STRING {
			src = `"abc"`
		}
		tok, lit := scanOne(t, src)
		if tok != e.tok {
			t.Errorf("scan(%q): token = %s, want %s", src, tok, e.tok)
		}
		// scanString keeps the surrounding quotes in the raw literal (the
		// parser/literal package does escape decoding, not the scanner).
		if e.tok != token.STRING && lit != e.lit {
			t.Errorf("scan(%q): literal = %q, want %q", src, lit, e.lit)
		}
	}
}

func TestScanSequence(t *testing.T) {
	const src = `let x = 1 + 2;`
	want := []token.Token{
		token.LET, token.IDENT, token.ASSIGN, token.NUMBER,
		token.ADD, token.NUMBER, token.SEMI, token.EOF,
	}

	file := token.NewFile("test", len(src))
	var s Scanner
	s.Init(file, []byte(src), nil, 0)

	for i, w := range want {
		_, tok, _ := s.Scan()
		if tok != w {
			t.Fatalf("token %d: got %s, want %s", i, tok, w)
		}
	}
}

func TestScanStringEscapes(t *testing.T) {
	// The scanner only validates escape sequences and records raw source
	// text (quotes included); decoding is literal.Unquote's job.
	tests := []string{
		`"a\tb"`,
		`"a\x41b"`,
		`"aAb"`,
	}
	for _, src := range tests {
		tok, lit := scanOne(t, src)
		if tok != token.STRING {
			t.Fatalf("scan(%q): token = %s, want STRING", src, tok)
		}
		if lit != src {
			t.Errorf("scan(%q): literal = %q, want %q", src, lit, src)
		}
	}
}

func TestScanPositions(t *testing.T) {
	const src = "let\nx = 1;"
	file := token.NewFile("test", len(src))
	var s Scanner
	s.Init(file, []byte(src), nil, 0)

	pos, tok, _ := s.Scan()
	if tok != token.LET {
		t.Fatalf("first token = %s, want LET", tok)
	}
	if p := pos.Position(); p.Line != 1 || p.Column != 1 {
		t.Errorf("LET position = %+v, want line 1 col 1", p)
	}

	pos, tok, _ = s.Scan()
	if tok != token.IDENT {
		t.Fatalf("second token = %s, want IDENT", tok)
	}
	if p := pos.Position(); p.Line != 2 || p.Column != 1 {
		t.Errorf("IDENT position = %+v, want line 2 col 1", p)
	}
}
