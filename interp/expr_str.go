package interp

import "strings"

// ExprString renders e as a fully-parenthesized expression: every group,
// unary, binary, logical and assignment node is wrapped in "( ... )" with
// its operator/operands space-separated, while a bare identifier or literal
// is printed with no wrapping. Invoke, get and set nodes are printed in
// call/dot form ("f(a, b)", "obj.name", "obj.name = value") with no
// wrapping of their own. Grounded
// on the original's ExprStr visitor
// (original_source/toylang/include/toylang/util/expr_str.hpp and
// original_source/toylang/lib/src/util/expr_str.cpp), which exists solely to
// produce this round-trippable debug form.
func ExprString(e Expr) string {
	var b strings.Builder
	writeExprString(&b, e)
	return b.String()
}

func writeExprString(b *strings.Builder, e Expr) {
	switch ex := e.(type) {
	case *ExprLiteral:
		b.WriteString(literalString(ex.Value))
	case *ExprGroup:
		b.WriteByte('(')
		writeExprString(b, ex.Inner)
		b.WriteByte(')')
	case *ExprUnary:
		b.WriteByte('(')
		b.WriteString(ex.Op.Lexeme)
		writeExprString(b, ex.RHS)
		b.WriteByte(')')
	case *ExprBinary:
		writeInfix(b, ex.LHS, ex.Op.Lexeme, ex.RHS)
	case *ExprVar:
		b.WriteString(ex.Name.Lexeme)
	case *ExprAssign:
		b.WriteByte('(')
		b.WriteString(ex.Name.Lexeme)
		b.WriteString(" = ")
		writeExprString(b, ex.Value)
		b.WriteByte(')')
	case *ExprLogical:
		writeInfix(b, ex.LHS, ex.Op.Lexeme, ex.RHS)
	case *ExprInvoke:
		writeExprString(b, ex.Callee)
		b.WriteByte('(')
		for i, arg := range ex.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExprString(b, arg)
		}
		b.WriteByte(')')
	case *ExprGet:
		writeExprString(b, ex.Obj)
		b.WriteByte('.')
		b.WriteString(ex.Name.Lexeme)
	case *ExprSet:
		writeExprString(b, ex.Obj)
		b.WriteByte('.')
		b.WriteString(ex.Name.Lexeme)
		b.WriteString(" = ")
		writeExprString(b, ex.Value)
	}
}

func writeInfix(b *strings.Builder, lhs Expr, op string, rhs Expr) {
	b.WriteByte('(')
	writeExprString(b, lhs)
	b.WriteByte(' ')
	b.WriteString(op)
	b.WriteByte(' ')
	writeExprString(b, rhs)
	b.WriteByte(')')
}

// literalString renders a literal's Value the way it appeared in source:
// strings keep their surrounding quotes (their content can never itself
// contain a '"', since the scanner has no escape for one), every other kind
// uses the same rendering as Value.String.
func literalString(v Value) string {
	if v.Kind == KindString {
		return "\"" + v.Str + "\""
	}
	return v.String()
}
