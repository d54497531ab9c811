package parser

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/flomesh-io/pjs/ast"
	"github.com/flomesh-io/pjs/token"
)

// TestParseModuleRoundTrip exercises spec §8 Testable Property 4: parsing a
// source twice yields structurally equal ASTs. go-cmp needs an Exporter to
// see into ast's unexported fields (pos.P, Identifier.tree/r) from outside
// the package; that's fine here since the only thing under test is
// structural equality, not encapsulation.
func TestParseModuleRoundTrip(t *testing.T) {
	const src = `
let total = 0;
function add(a, b = 1) {
	return a + b;
}
for (let i = 0; i < 10; i++) {
	total = add(total, i);
}
export default total;
`
	a, errA := ParseModule("test.pjs", []byte(src))
	if errA != nil {
		t.Fatalf("first parse: %v", errA)
	}
	b, errB := ParseModule("test.pjs", []byte(src))
	if errB != nil {
		t.Fatalf("second parse: %v", errB)
	}

	exportAll := cmp.Exporter(func(reflect.Type) bool { return true })
	if diff := cmp.Diff(a, b, exportAll); diff != "" {
		t.Errorf("parsing the same source twice produced different ASTs (-first +second):\n%s", diff)
	}
}

// TestBinaryPrecedence exercises spec §8 Testable Property 2: the
// precedence table in spec.md §4.2. `1 + 2 * 3` must parse as
// `1 + (2 * 3)`, not `(1 + 2) * 3`.
func TestBinaryPrecedence(t *testing.T) {
	e, err := ParseExpr("test.pjs", []byte("1 + 2 * 3"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	add, ok := e.(*ast.Binary)
	if !ok || add.Op != token.ADD {
		t.Fatalf("top node = %#v, want *ast.Binary{Op: ADD}", e)
	}
	lhs, ok := add.Left.(*ast.NumberLit)
	if !ok || lhs.Value != 1 {
		t.Fatalf("left = %#v, want NumberLit{1}", add.Left)
	}
	rhs, ok := add.Right.(*ast.Binary)
	if !ok || rhs.Op != token.MUL {
		t.Fatalf("right = %#v, want *ast.Binary{Op: MUL}", add.Right)
	}
}

// TestPowRightAssociative exercises the one right-associative binary
// operator in the table: `2 ** 3 ** 2` must parse as `2 ** (3 ** 2)`.
func TestPowRightAssociative(t *testing.T) {
	e, err := ParseExpr("test.pjs", []byte("2 ** 3 ** 2"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	outer, ok := e.(*ast.Binary)
	if !ok || outer.Op != token.POW {
		t.Fatalf("top node = %#v, want *ast.Binary{Op: POW}", e)
	}
	if _, ok := outer.Left.(*ast.NumberLit); !ok {
		t.Fatalf("left = %#v, want NumberLit", outer.Left)
	}
	if inner, ok := outer.Right.(*ast.Binary); !ok || inner.Op != token.POW {
		t.Fatalf("right = %#v, want nested *ast.Binary{Op: POW}", outer.Right)
	}
}

// TestArrowFunctionDisambiguation exercises parseParenOrArrow's
// lookahead/backtrack between a parenthesized expression and an arrow
// function's parameter list (spec.md §4.2).
func TestArrowFunctionDisambiguation(t *testing.T) {
	tests := []struct {
		src     string
		isArrow bool
	}{
		{"(a, b) => a + b", true},
		{"(a)", false},
		{"(a + b)", false},
		{"() => 1", true},
	}
	for _, tt := range tests {
		e, err := ParseExpr("test.pjs", []byte(tt.src))
		if err != nil {
			t.Fatalf("parse(%q): %v", tt.src, err)
		}
		_, gotArrow := e.(*ast.FunctionLiteral)
		if gotArrow != tt.isArrow {
			t.Errorf("parse(%q): arrow = %v, want %v (got %T)", tt.src, gotArrow, tt.isArrow, e)
		}
	}
}

// TestDefaultParam exercises SPEC_FULL.md §12's restored default-parameter
// syntax (spec.md §4.3).
func TestDefaultParam(t *testing.T) {
	e, err := ParseExpr("test.pjs", []byte("function f(a, b = 10) { return a + b; }"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fn, ok := e.(*ast.FunctionLiteral)
	if !ok {
		t.Fatalf("got %T, want *ast.FunctionLiteral", e)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("got %d params, want 2", len(fn.Params))
	}
	if _, ok := fn.Params[0].(*ast.Identifier); !ok {
		t.Errorf("param 0 = %#v, want *ast.Identifier", fn.Params[0])
	}
	def, ok := fn.Params[1].(*ast.DefaultExpr)
	if !ok {
		t.Fatalf("param 1 = %#v, want *ast.DefaultExpr", fn.Params[1])
	}
	if lit, ok := def.Default.(*ast.NumberLit); !ok || lit.Value != 10 {
		t.Errorf("default = %#v, want NumberLit{10}", def.Default)
	}
}

// TestCompoundAssignmentOperators exercises SPEC_FULL.md §12.2's full
// compound-assignment family.
func TestCompoundAssignmentOperators(t *testing.T) {
	ops := []string{"+=", "-=", "*=", "/=", "%=", "**=", "<<=", ">>=", ">>>=",
		"&=", "^=", "|=", "&&=", "||=", "??="}
	for _, op := range ops {
		src := "x " + op + " 1"
		e, err := ParseExpr("test.pjs", []byte(src))
		if err != nil {
			t.Errorf("parse(%q): %v", src, err)
			continue
		}
		if _, ok := e.(*ast.Assignment); !ok {
			t.Errorf("parse(%q) = %T, want *ast.Assignment", src, e)
		}
	}
}

// TestWhileDoWhile exercises SPEC_FULL.md §12's restored while/do-while
// loops.
func TestWhileDoWhile(t *testing.T) {
	stmts, err := ParseModule("test.pjs", []byte(`
while (x < 10) { x++; }
do { x++; } while (x < 10);
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(stmts) != 2 {
		t.Fatalf("got %d statements, want 2", len(stmts))
	}
	if _, ok := stmts[0].(*ast.While); !ok {
		t.Errorf("stmt 0 = %T, want *ast.While", stmts[0])
	}
	if _, ok := stmts[1].(*ast.DoWhile); !ok {
		t.Errorf("stmt 1 = %T, want *ast.DoWhile", stmts[1])
	}
}

// TestLetConstDeclarations exercises SPEC_FULL.md §12's let/const as
// declaration keywords, both desugaring into *ast.Var.
func TestLetConstDeclarations(t *testing.T) {
	stmts, err := ParseModule("test.pjs", []byte(`
var a = 1;
let b = 2;
const c = 3;
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(stmts) != 3 {
		t.Fatalf("got %d statements, want 3", len(stmts))
	}
	for i, s := range stmts {
		if _, ok := s.(*ast.Var); !ok {
			t.Errorf("stmt %d = %T, want *ast.Var", i, s)
		}
	}
}
