package interp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karnkaul/toylang/interp"
)

func parseExpr(t *testing.T, src string) interp.Expr {
	t.Helper()
	p := interp.NewParser(interp.Source{Filename: "t.tl", Text: src}, nil)
	exprs := p.ParseExpressions()
	require.Len(t, exprs, 1)
	return exprs[0]
}

func TestExprStringFullyParenthesizes(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "(((1 + 2)) * 3)"},
		{"-x", "(-x)"},
		{"!done", "(!done)"},
		{`a = b + 1`, "(a = (b + 1))"},
		{"f(1, 2)", "f(1, 2)"},
		{"p.x", "p.x"},
		{"p.x = 1", "p.x = 1"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			assert.Equal(t, c.want, interp.ExprString(parseExpr(t, c.src)))
		})
	}
}

// TestExprStringRoundTripsToEquivalentShape pins the Round-trip property:
// parsing an expression and printing it via the AST printer yields a fully-
// parenthesized form that re-parses to an equivalent AST (same tree shape
// ignoring Group).
func TestExprStringRoundTripsToEquivalentShape(t *testing.T) {
	cases := []string{
		`1 + 2 * 3`,
		`(1 + 2) * 3`,
		`a = b + 1`,
		`f(1, 2).x`,
		`obj.field = 1 + 2`,
		`-x + !y`,
		`a or b and c`,
		`"hi" + name`,
	}
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			orig := parseExpr(t, src)
			printed := interp.ExprString(orig)
			reparsed := parseExpr(t, printed)
			assert.True(t, exprShapeEqual(orig, reparsed), "printed form %q did not re-parse to an equivalent shape", printed)
		})
	}
}

// exprShapeEqual compares two expression trees for equivalent shape,
// unwrapping ExprGroup on both sides first (the Round-trip property is
// defined "ignoring Group").
func exprShapeEqual(a, b interp.Expr) bool {
	a, b = unwrapGroup(a), unwrapGroup(b)
	switch av := a.(type) {
	case *interp.ExprLiteral:
		bv, ok := b.(*interp.ExprLiteral)
		return ok && av.Value.Kind == bv.Value.Kind && av.Value.String() == bv.Value.String()
	case *interp.ExprVar:
		bv, ok := b.(*interp.ExprVar)
		return ok && av.Name.Lexeme == bv.Name.Lexeme
	case *interp.ExprUnary:
		bv, ok := b.(*interp.ExprUnary)
		return ok && av.Op.Lexeme == bv.Op.Lexeme && exprShapeEqual(av.RHS, bv.RHS)
	case *interp.ExprBinary:
		bv, ok := b.(*interp.ExprBinary)
		return ok && av.Op.Lexeme == bv.Op.Lexeme && exprShapeEqual(av.LHS, bv.LHS) && exprShapeEqual(av.RHS, bv.RHS)
	case *interp.ExprLogical:
		bv, ok := b.(*interp.ExprLogical)
		return ok && av.Op.Lexeme == bv.Op.Lexeme && exprShapeEqual(av.LHS, bv.LHS) && exprShapeEqual(av.RHS, bv.RHS)
	case *interp.ExprAssign:
		bv, ok := b.(*interp.ExprAssign)
		return ok && av.Name.Lexeme == bv.Name.Lexeme && exprShapeEqual(av.Value, bv.Value)
	case *interp.ExprInvoke:
		bv, ok := b.(*interp.ExprInvoke)
		if !ok || len(av.Args) != len(bv.Args) || !exprShapeEqual(av.Callee, bv.Callee) {
			return false
		}
		for i := range av.Args {
			if !exprShapeEqual(av.Args[i], bv.Args[i]) {
				return false
			}
		}
		return true
	case *interp.ExprGet:
		bv, ok := b.(*interp.ExprGet)
		return ok && av.Name.Lexeme == bv.Name.Lexeme && exprShapeEqual(av.Obj, bv.Obj)
	case *interp.ExprSet:
		bv, ok := b.(*interp.ExprSet)
		return ok && av.Name.Lexeme == bv.Name.Lexeme && exprShapeEqual(av.Obj, bv.Obj) && exprShapeEqual(av.Value, bv.Value)
	default:
		return false
	}
}

func unwrapGroup(e interp.Expr) interp.Expr {
	for {
		g, ok := e.(*interp.ExprGroup)
		if !ok {
			return e
		}
		e = g.Inner
	}
}
