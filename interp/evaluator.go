package interp

import "strconv"

// Non-local control transfers are modeled as panics carrying one of the
// following signal types instead of Go error returns, so break/return can
// unwind through arbitrarily nested statement evaluation in one throw.
// breakSignal is recovered at the nearest enclosing while loop (execWhile),
// returnSignal at the nearest enclosing function call (the callback built
// by execFn), and evalError at the statement boundary (execStmt).
type (
	breakSignal  struct{ token Token }
	returnSignal struct {
		token Token
		value Value
	}
	evalError struct{}
)

// diagnose emits a Diagnostic through the Interpreter's notifier chain.
func (it *Interpreter) diagnose(typ DiagnosticType, tok Token, message, expected string) {
	it.notifier.Notify(Diagnostic{
		Type:     typ,
		Message:  message,
		Location: tok.Location,
		Marked:   tok.Lexeme,
		Expected: expected,
	})
}

// runtimeError emits a RuntimeError Diagnostic anchored at tok and unwinds
// evaluation to the nearest statement boundary.
func (it *Interpreter) runtimeError(tok Token, message string) {
	it.runtimeErrorExpected(tok, message, "")
}

func (it *Interpreter) runtimeErrorExpected(tok Token, message, expected string) {
	it.diagnose(DiagRuntimeError, tok, message, expected)
	panic(evalError{})
}

// evalExpr evaluates an expression node. It panics with evalError on any
// runtime error, breakSignal/returnSignal never originate here.
func (it *Interpreter) evalExpr(e Expr) Value {
	switch ex := e.(type) {
	case *ExprLiteral:
		return ex.Value
	case *ExprGroup:
		return it.evalExpr(ex.Inner)
	case *ExprUnary:
		return it.evalUnary(ex)
	case *ExprBinary:
		return it.evalBinary(ex)
	case *ExprVar:
		v, ok := it.env.Find(ex.Name.Lexeme)
		if !ok {
			it.runtimeError(ex.Name, "Undefined variable")
		}
		return v
	case *ExprAssign:
		return it.evalAssign(ex)
	case *ExprLogical:
		return it.evalLogical(ex)
	case *ExprInvoke:
		return it.evalInvoke(ex)
	case *ExprGet:
		return it.evalGet(ex)
	case *ExprSet:
		return it.evalSet(ex)
	default:
		it.diagnose(DiagInternalError, Token{}, "Unexpected expression node", "")
		panic(evalError{})
	}
}

func (it *Interpreter) evalUnary(ex *ExprUnary) Value {
	v := it.evalExpr(ex.RHS)
	switch ex.Op.Type {
	case TokMinus:
		if v.Kind != KindNumber {
			it.runtimeErrorExpected(ex.Op, "Invalid operand to unary expression", "number")
		}
		return NumberVal(-v.Number)
	case TokBang:
		return BoolVal(!v.Truthy())
	default:
		it.diagnose(DiagInternalError, ex.Op, "Unexpected unary operator", "")
		panic(evalError{})
	}
}

func (it *Interpreter) evalBinary(ex *ExprBinary) Value {
	lhs := it.evalExpr(ex.LHS)
	rhs := it.evalExpr(ex.RHS)

	switch ex.Op.Type {
	case TokMinus, TokStar, TokSlash:
		it.expectNumbers(ex.Op, lhs, rhs)
		switch ex.Op.Type {
		case TokMinus:
			return NumberVal(lhs.Number - rhs.Number)
		case TokStar:
			return NumberVal(lhs.Number * rhs.Number)
		default:
			return NumberVal(lhs.Number / rhs.Number)
		}
	case TokPlus:
		if lhs.Kind == KindNumber && rhs.Kind == KindNumber {
			return NumberVal(lhs.Number + rhs.Number)
		}
		if lhs.Kind == KindString && rhs.Kind == KindString {
			return StringVal(lhs.Str + rhs.Str)
		}
		it.runtimeError(ex.Op, "Invalid operands to binary expression")
	case TokEqualEqual:
		return BoolVal(lhs.Equals(rhs))
	case TokBangEqual:
		return BoolVal(!lhs.Equals(rhs))
	case TokGreater, TokGreaterEqual, TokLess, TokLessEqual:
		return it.compare(ex.Op, lhs, rhs)
	}
	it.diagnose(DiagInternalError, ex.Op, "Unexpected binary operator", "")
	panic(evalError{})
}

func (it *Interpreter) expectNumbers(op Token, lhs, rhs Value) {
	if lhs.Kind != KindNumber || rhs.Kind != KindNumber {
		it.runtimeErrorExpected(op, "Invalid operands to binary expression", "number")
	}
}

func (it *Interpreter) compare(op Token, lhs, rhs Value) Value {
	switch {
	case lhs.Kind == KindString && rhs.Kind == KindString:
		return BoolVal(stringCompare(op.Type, lhs.Str, rhs.Str))
	case lhs.Kind == KindNumber && rhs.Kind == KindNumber:
		return BoolVal(numberCompare(op.Type, lhs.Number, rhs.Number))
	default:
		it.runtimeError(op, "Invalid operands to binary expression")
		return Null()
	}
}

func stringCompare(op TokenType, a, b string) bool {
	switch op {
	case TokGreater:
		return a > b
	case TokGreaterEqual:
		return a >= b
	case TokLess:
		return a < b
	default:
		return a <= b
	}
}

func numberCompare(op TokenType, a, b float64) bool {
	switch op {
	case TokGreater:
		return a > b
	case TokGreaterEqual:
		return a >= b
	case TokLess:
		return a < b
	default:
		return a <= b
	}
}

func (it *Interpreter) evalAssign(ex *ExprAssign) Value {
	if _, ok := it.env.Find(ex.Name.Lexeme); !ok {
		it.runtimeError(ex.Name, "Undefined variable")
	}
	val := it.evalExpr(ex.Value)
	if val.Kind == KindStructDef {
		it.runtimeError(ex.Name, "Cannot initialize variable as a struct")
	}
	it.env.Assign(ex.Name.Lexeme, val)
	return val
}

func (it *Interpreter) evalLogical(ex *ExprLogical) Value {
	lhs := it.evalExpr(ex.LHS)
	if ex.Op.Type == TokOr {
		if lhs.Truthy() {
			return lhs
		}
		return it.evalExpr(ex.RHS)
	}
	// and
	if !lhs.Truthy() {
		return lhs
	}
	return it.evalExpr(ex.RHS)
}

func (it *Interpreter) evalInvoke(ex *ExprInvoke) Value {
	callee := it.evalExpr(ex.Callee)
	if callee.Kind != KindInvocable && callee.Kind != KindStructDef {
		it.runtimeError(ex.CloseParen, "Invalid callee")
	}

	args := make([]Value, len(ex.Args))
	for i, a := range ex.Args {
		args[i] = it.evalExpr(a)
	}

	if callee.Kind == KindStructDef {
		return StructInstanceVal(callee.StructDef.Instance())
	}
	return callee.Invocable.Callback(it, CallContext{CalleeToken: ex.CloseParen, Args: args})
}

func (it *Interpreter) evalGet(ex *ExprGet) Value {
	obj := it.evalExpr(ex.Obj)
	if obj.Kind != KindStructInstance {
		it.runtimeError(ex.Name, "Only instances have properties")
	}
	v, ok := obj.StructInstance.Fields.Get(ex.Name.Lexeme)
	if !ok {
		it.runtimeError(ex.Name, "Undefined property")
	}
	return v
}

func (it *Interpreter) evalSet(ex *ExprSet) Value {
	obj := it.evalExpr(ex.Obj)
	if obj.Kind != KindStructInstance {
		it.runtimeError(ex.Name, "Only instances have fields")
	}
	val := it.evalExpr(ex.Value)
	if !obj.StructInstance.Fields.Set(ex.Name.Lexeme, val) {
		it.runtimeError(ex.Name, "Undefined property")
	}
	return val
}

// execStmt executes one statement. Errors raised beneath it are caught here
// and turned into the interpreter's latched error state; break/return
// signals propagate to their respective handlers (execWhile, execFn's
// callback).
func (it *Interpreter) execStmt(s Stmt) {
	if it.reporter.Errored() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(evalError); ok {
				return
			}
			panic(r)
		}
	}()
	it.execStmtInner(s)
}

func (it *Interpreter) execStmtInner(s Stmt) {
	switch st := s.(type) {
	case *StmtExpr:
		v := it.evalExpr(st.Expr)
		if it.Debug&DebugPrintStmtExprs != 0 {
			it.printf("[Debug] %s\n", v.String())
		}
	case *StmtVar:
		var v Value
		if st.Initializer != nil {
			v = it.evalExpr(st.Initializer)
		} else {
			v = Null()
		}
		if v.Kind == KindStructDef {
			it.runtimeError(st.Name, "Cannot initialize variable as a struct")
		}
		it.env.Define(st.Name.Lexeme, v)
	case *StmtBlock:
		it.execBlock(st.Stmts)
	case *StmtIf:
		if it.evalExpr(st.Cond).Truthy() {
			if st.Then != nil {
				it.execStmtInner(st.Then)
			}
		} else if st.Else != nil {
			it.execStmtInner(st.Else)
		}
	case *StmtWhile:
		it.execWhile(st)
	case *StmtBreak:
		panic(breakSignal{token: st.Token})
	case *StmtFn:
		it.execFn(st)
	case *StmtReturn:
		var v Value
		if st.Value != nil {
			v = it.evalExpr(st.Value)
		} else {
			v = Null()
		}
		panic(returnSignal{token: st.Token, value: v})
	case *StmtStruct:
		it.execStruct(st)
	default:
		it.diagnose(DiagInternalError, Token{}, "Unexpected statement node", "")
		panic(evalError{})
	}
}

// execBlock pushes a scope for the duration of stmts, releasing it on every
// exit path (normal, break, return, or error).
func (it *Interpreter) execBlock(stmts []Stmt) {
	it.env.BeginScope()
	defer it.env.EndScope()
	for _, s := range stmts {
		it.execStmtInner(s)
	}
}

func (it *Interpreter) execWhile(st *StmtWhile) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(breakSignal); ok {
				return
			}
			panic(r)
		}
	}()
	for it.evalExpr(st.Cond).Truthy() {
		it.execStmtInner(st.Body)
	}
}

func (it *Interpreter) execFn(st *StmtFn) {
	decl := st
	callback := func(in *Interpreter, ctx CallContext) (result Value) {
		in.env.PushFrame()
		defer in.env.PopFrame()

		if len(decl.Params) != len(ctx.Args) {
			in.diagnose(DiagRuntimeError, ctx.CalleeToken,
				"Mismatched argument count: expected "+strconv.Itoa(len(decl.Params))+" passed: "+strconv.Itoa(len(ctx.Args)), "")
			return Null()
		}
		for i, p := range decl.Params {
			in.env.Define(p.Lexeme, ctx.Args[i])
		}

		result = Null()
		func() {
			defer func() {
				if r := recover(); r != nil {
					if rs, ok := r.(returnSignal); ok {
						result = rs.value
						return
					}
					panic(r)
				}
			}()
			for _, bodyStmt := range decl.Body {
				in.execStmtInner(bodyStmt)
			}
		}()
		return result
	}
	it.env.Define(st.Name.Lexeme, InvocableVal(&Invocable{DefToken: st.Name, Callback: callback}))
}

func (it *Interpreter) execStruct(st *StmtStruct) {
	names := make([]string, len(st.FieldDecls))
	for i, f := range st.FieldDecls {
		names[i] = f.Name.Lexeme
	}
	def := &StructDef{Name: st.Name.Lexeme, Fields: names}
	it.env.Define(st.Name.Lexeme, StructDefVal(def))
}
