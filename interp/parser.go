package interp

import (
	"strconv"
	"strings"
)

// parseError is panicked to unwind to the nearest recovery point
// (declaration/importStmt/parseOneExpr), then recovered and swallowed by
// synchronize so one bad statement doesn't abort the whole parse.
type parseError struct{}

// Parser is a recursive-descent producer of AST nodes over a Scanner's
// token stream, with one token of lookahead (current) and one of pushback
// (previous, set by advance). It drives the Scanner lazily.
type Parser struct {
	scanner  *Scanner
	notifier Notifier

	current  Token
	previous Token

	depth int // >0 while inside any block/fn/struct body; 0 at global scope
}

// NewParser returns a Parser over source, reporting diagnostics to notifier
// (which may be nil to discard them, as used by IsExpression).
func NewParser(source Source, notifier Notifier) *Parser {
	p := &Parser{scanner: NewScanner(source, notifier), notifier: notifier}
	p.current = p.scanner.Next()
	return p
}

// ParseProgram consumes the import prologue, then parses statements until
// eof. Parse errors are recorded via the notifier and recovered by
// synchronize; the returned stmts never contain a nil entry.
func (p *Parser) ParseProgram() (imports []*StmtImport, stmts []Stmt) {
	for p.check(TokImport) {
		if imp := p.importStmt(); imp != nil {
			imports = append(imports, imp)
		}
	}
	for !p.isAtEnd() {
		if s := p.declaration(); s != nil {
			stmts = append(stmts, s)
		}
	}
	return imports, stmts
}

// ParseExpressions parses a stream of expressions (each optionally followed
// by ';') until eof, used by Interpreter.Evaluate.
func (p *Parser) ParseExpressions() []Expr {
	var exprs []Expr
	for !p.isAtEnd() {
		if e := p.parseOneExpr(); e != nil {
			exprs = append(exprs, e)
		}
		p.match(TokSemicolon)
	}
	return exprs
}

// IsExpression reports whether text parses, in isolation, as a single
// expression followed by eof. Diagnostics raised during the attempt are
// discarded; used by the REPL to decide between Execute and Evaluate.
func IsExpression(text string) (result bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseError); ok {
				result = false
				return
			}
			panic(r)
		}
	}()
	p := NewParser(Source{Filename: "<repl>", Text: text}, nil)
	p.expression()
	result = p.isAtEnd()
	return result
}

// --- token cursor ---

func (p *Parser) isAtEnd() bool { return p.current.Type == TokEOF }

func (p *Parser) advance() Token {
	p.previous = p.current
	if !p.isAtEnd() {
		p.current = p.scanner.Next()
	}
	return p.previous
}

func (p *Parser) check(t TokenType) bool { return p.current.Type == t }

func (p *Parser) match(types ...TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

// consume advances past the expected token type or raises a parse error.
func (p *Parser) consume(t TokenType, message string) Token {
	if p.check(t) {
		return p.advance()
	}
	p.errorAt(p.current, message, t.String())
	panic(parseError{})
}

func (p *Parser) notify(typ DiagnosticType, tok Token, message string) {
	if p.notifier == nil {
		return
	}
	p.notifier.Notify(Diagnostic{
		Type:     typ,
		Message:  message,
		Location: tok.Location,
		Marked:   tok.Lexeme,
	})
}

// errorAt records a SyntaxError without unwinding; callers needing recovery
// follow up with `panic(parseError{})`.
func (p *Parser) errorAt(tok Token, message, expected string) {
	if p.notifier == nil {
		return
	}
	p.notifier.Notify(Diagnostic{
		Type:     DiagSyntaxError,
		Message:  message,
		Location: tok.Location,
		Marked:   tok.Lexeme,
		Expected: expected,
	})
}

// synchronize discards tokens until a ';' is consumed or eof is reached.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.previous.Type == TokSemicolon {
			return
		}
		p.advance()
	}
}

// --- declarations ---

func (p *Parser) declaration() (stmt Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseError); ok {
				p.synchronize()
				stmt = nil
				return
			}
			panic(r)
		}
	}()

	if p.match(TokStruct) {
		return p.structDecl()
	}
	if p.match(TokFn) {
		fnTok := p.previous
		if p.depth > 0 {
			p.errorAt(fnTok, "Function declarations are only allowed at global scope", "")
			p.fnDecl()
			return nil
		}
		return p.fnDecl()
	}
	if p.match(TokVar) {
		return p.varDecl()
	}
	return p.statement()
}

func (p *Parser) varDecl() Stmt {
	name := p.consume(TokIdentifier, "Expect variable name.")
	reserved := strings.HasPrefix(name.Lexeme, "_")

	var init Expr
	if p.match(TokEqual) {
		init = p.expression()
	}
	p.consume(TokSemicolon, "Expect ';' after variable declaration.")

	if reserved {
		p.errorAt(name, "Identifiers beginning with '_' are reserved for intrinsics", "")
		return nil
	}
	return &StmtVar{Name: name, Initializer: init}
}

func (p *Parser) fnDecl() *StmtFn {
	name := p.consume(TokIdentifier, "Expect function name.")
	p.consume(TokLeftParen, "Expect '(' after function name.")

	var params []Token
	if !p.check(TokRightParen) {
		for {
			if len(params) >= 64 {
				p.errorAt(p.current, "Can't have more than 64 parameters", "")
			}
			params = append(params, p.consume(TokIdentifier, "Expect parameter name."))
			if !p.match(TokComma) {
				break
			}
		}
	}
	p.consume(TokRightParen, "Expect ')' after parameters.")
	p.consume(TokLeftBrace, "Expect '{' before function body.")
	body := p.blockBody()
	return &StmtFn{Name: name, Params: params, Body: body}
}

func (p *Parser) structDecl() *StmtStruct {
	name := p.consume(TokIdentifier, "Expect struct name.")
	p.consume(TokLeftBrace, "Expect '{' before struct body.")

	p.depth++
	var fields []*StmtVar
	for !p.check(TokRightBrace) && !p.isAtEnd() {
		switch {
		case p.match(TokFn):
			p.notify(DiagWarning, p.previous, "fn declared inside a struct body is ignored")
			p.fnDecl()
		case p.match(TokVar):
			if v, ok := p.varDecl().(*StmtVar); ok {
				fields = append(fields, v)
			}
		default:
			p.errorAt(p.current, "Expect field declaration inside struct body", "")
			panic(parseError{})
		}
	}
	p.depth--
	p.consume(TokRightBrace, "Expect '}' after struct body.")
	return &StmtStruct{Name: name, FieldDecls: fields}
}

// blockBody parses decl* up to (and consuming) the closing '}'. The opening
// '{' must already have been consumed by the caller.
func (p *Parser) blockBody() []Stmt {
	p.depth++
	defer func() { p.depth-- }()

	var stmts []Stmt
	for !p.check(TokRightBrace) && !p.isAtEnd() {
		if s := p.declaration(); s != nil {
			stmts = append(stmts, s)
		}
	}
	p.consume(TokRightBrace, "Expect '}' after block.")
	return stmts
}

// --- statements ---

func (p *Parser) statement() Stmt {
	switch {
	case p.match(TokFor):
		return p.forStmt()
	case p.match(TokIf):
		return p.ifStmt()
	case p.match(TokWhile):
		return p.whileStmt()
	case p.match(TokLeftBrace):
		return &StmtBlock{Stmts: p.blockBody()}
	case p.match(TokBreak):
		return p.breakStmt()
	case p.match(TokReturn):
		return p.returnStmt()
	default:
		return p.exprStmt()
	}
}

func (p *Parser) ifStmt() Stmt {
	p.consume(TokLeftParen, "Expect '(' after 'if'.")
	cond := p.expression()
	p.consume(TokRightParen, "Expect ')' after if condition.")
	p.consume(TokLeftBrace, "Expect '{' before if body.")
	thenBlock := &StmtBlock{Stmts: p.blockBody()}

	var elseBlock Stmt
	if p.match(TokElse) {
		p.consume(TokLeftBrace, "Expect '{' before else body.")
		elseBlock = &StmtBlock{Stmts: p.blockBody()}
	}
	return &StmtIf{Cond: cond, Then: thenBlock, Else: elseBlock}
}

func (p *Parser) whileStmt() Stmt {
	p.consume(TokLeftParen, "Expect '(' after 'while'.")
	cond := p.expression()
	p.consume(TokRightParen, "Expect ')' after while condition.")
	p.consume(TokLeftBrace, "Expect '{' before while body.")
	body := &StmtBlock{Stmts: p.blockBody()}
	return &StmtWhile{Cond: cond, Body: body}
}

// forStmt desugars `for (init; cond; incr) body` into
// `{ init; while (cond) { body; incr; } }`.
func (p *Parser) forStmt() Stmt {
	p.consume(TokLeftParen, "Expect '(' after 'for'.")

	var init Stmt
	switch {
	case p.match(TokSemicolon):
		init = nil
	case p.match(TokVar):
		init = p.varDecl()
	default:
		init = p.exprStmt()
	}

	var cond Expr
	if !p.check(TokSemicolon) {
		cond = p.expression()
	}
	p.consume(TokSemicolon, "Expect ';' after loop condition.")

	var incr Expr
	if !p.check(TokRightParen) {
		incr = p.expression()
	}
	p.consume(TokRightParen, "Expect ')' after for clauses.")

	body := p.statement()
	if incr != nil {
		body = &StmtBlock{Stmts: []Stmt{body, &StmtExpr{Expr: incr}}}
	}
	if cond == nil {
		cond = &ExprLiteral{Value: BoolVal(true)}
	}
	body = &StmtWhile{Cond: cond, Body: body}
	if init != nil {
		body = &StmtBlock{Stmts: []Stmt{init, body}}
	}
	return body
}

func (p *Parser) breakStmt() Stmt {
	tok := p.previous
	p.consume(TokSemicolon, "Expect ';' after 'break'.")
	return &StmtBreak{Token: tok}
}

func (p *Parser) returnStmt() Stmt {
	tok := p.previous
	var value Expr
	if !p.check(TokSemicolon) {
		value = p.expression()
	}
	p.consume(TokSemicolon, "Expect ';' after return value.")
	return &StmtReturn{Token: tok, Value: value}
}

func (p *Parser) exprStmt() Stmt {
	e := p.expression()
	p.consume(TokSemicolon, "Expect ';' after expression.")
	return &StmtExpr{Expr: e}
}

// --- import prologue ---

func (p *Parser) importStmt() (imp *StmtImport) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseError); ok {
				p.synchronize()
				imp = nil
				return
			}
			panic(r)
		}
	}()

	p.advance() // 'import'
	path := p.consume(TokString, "Expect import path string.")
	p.consume(TokSemicolon, "Expect ';' after import path.")
	return &StmtImport{PathToken: path}
}

// --- expressions (assignment -> or -> and -> equality -> comparison ->
// term -> factor -> unary -> invoke -> primary) ---

func (p *Parser) parseOneExpr() (e Expr) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseError); ok {
				p.synchronize()
				e = nil
				return
			}
			panic(r)
		}
	}()
	return p.expression()
}

func (p *Parser) expression() Expr { return p.assignment() }

func (p *Parser) assignment() Expr {
	expr := p.or()
	if p.match(TokEqual) {
		equals := p.previous
		value := p.assignment()
		switch t := expr.(type) {
		case *ExprVar:
			return &ExprAssign{Name: t.Name, Value: value}
		case *ExprGet:
			return &ExprSet{Obj: t.Obj, Name: t.Name, Value: value}
		default:
			p.errorAt(equals, "Invalid assignment target", "")
			return expr
		}
	}
	return expr
}

func (p *Parser) or() Expr {
	expr := p.and()
	for p.match(TokOr) {
		op := p.previous
		rhs := p.and()
		expr = &ExprLogical{LHS: expr, Op: op, RHS: rhs}
	}
	return expr
}

func (p *Parser) and() Expr {
	expr := p.equality()
	for p.match(TokAnd) {
		op := p.previous
		rhs := p.equality()
		expr = &ExprLogical{LHS: expr, Op: op, RHS: rhs}
	}
	return expr
}

func (p *Parser) equality() Expr {
	expr := p.comparison()
	for p.match(TokBangEqual, TokEqualEqual) {
		op := p.previous
		rhs := p.comparison()
		expr = &ExprBinary{LHS: expr, Op: op, RHS: rhs}
	}
	return expr
}

func (p *Parser) comparison() Expr {
	expr := p.term()
	for p.match(TokGreater, TokGreaterEqual, TokLess, TokLessEqual) {
		op := p.previous
		rhs := p.term()
		expr = &ExprBinary{LHS: expr, Op: op, RHS: rhs}
	}
	return expr
}

func (p *Parser) term() Expr {
	expr := p.factor()
	for p.match(TokMinus, TokPlus) {
		op := p.previous
		rhs := p.factor()
		expr = &ExprBinary{LHS: expr, Op: op, RHS: rhs}
	}
	return expr
}

func (p *Parser) factor() Expr {
	expr := p.unary()
	for p.match(TokSlash, TokStar) {
		op := p.previous
		rhs := p.unary()
		expr = &ExprBinary{LHS: expr, Op: op, RHS: rhs}
	}
	return expr
}

func (p *Parser) unary() Expr {
	if p.match(TokBang, TokMinus) {
		op := p.previous
		rhs := p.unary()
		return &ExprUnary{Op: op, RHS: rhs}
	}
	return p.invoke()
}

func (p *Parser) invoke() Expr {
	expr := p.primary()
	for {
		switch {
		case p.match(TokLeftParen):
			expr = p.finishCall(expr)
		case p.match(TokDot):
			name := p.consume(TokIdentifier, "Expect property name after '.'.")
			expr = &ExprGet{Obj: expr, Name: name}
		default:
			return expr
		}
	}
}

func (p *Parser) finishCall(callee Expr) Expr {
	var args []Expr
	if !p.check(TokRightParen) {
		for {
			if len(args) >= 64 {
				p.errorAt(p.current, "Can't have more than 64 arguments", "")
			}
			args = append(args, p.assignment())
			if !p.match(TokComma) {
				break
			}
		}
	}
	paren := p.consume(TokRightParen, "Expect ')' after arguments.")
	return &ExprInvoke{Callee: callee, CloseParen: paren, Args: args}
}

func (p *Parser) primary() Expr {
	switch {
	case p.match(TokFalse):
		return &ExprLiteral{Value: BoolVal(false), SelfToken: p.previous}
	case p.match(TokTrue):
		return &ExprLiteral{Value: BoolVal(true), SelfToken: p.previous}
	case p.match(TokNull):
		return &ExprLiteral{Value: Null(), SelfToken: p.previous}
	case p.match(TokNumber):
		tok := p.previous
		n, _ := strconv.ParseFloat(tok.Lexeme, 64)
		return &ExprLiteral{Value: NumberVal(n), SelfToken: tok}
	case p.match(TokString):
		tok := p.previous
		return &ExprLiteral{Value: StringVal(unescape(tok.Lexeme)), SelfToken: tok}
	case p.match(TokIdentifier):
		return &ExprVar{Name: p.previous}
	case p.match(TokLeftParen):
		inner := p.expression()
		p.consume(TokRightParen, "Expect ')' after expression.")
		return &ExprGroup{Inner: inner}
	default:
		p.errorAt(p.current, "Expect expression", "")
		panic(parseError{})
	}
}

// unescape implements the language's two recognized string escapes: \n and
// \t. Any other \X drops the backslash and keeps X verbatim.
func unescape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
