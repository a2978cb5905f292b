package ast

import (
	"fmt"

	"github.com/tsl-lang/tsl/types"
)

// Parser is a recursive-descent parser for TSL tokens.
type Parser struct {
	tokens  []Token
	current int
	errors  []ParseError
}

// NewParser creates a new parser for the given token stream.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses the token stream into a Module.
func (p *Parser) Parse() (*Module, error) {
	module := &Module{}

	for !p.isAtEnd() {
		before := p.current
		decl, err := p.declaration()
		if err != nil {
			p.errors = append(p.errors, *err)
			p.synchronize()
			if p.current == before {
				p.advance()
			}
			continue
		}
		if decl == nil {
			continue
		}
		switch d := decl.(type) {
		case *FunctionDecl:
			module.Functions = append(module.Functions, d)
		case *StructDecl:
			module.Structs = append(module.Structs, d)
		case *VarDecl:
			module.GlobalVars = append(module.GlobalVars, d)
		case *ResourceDecl:
			if d.IsTexture {
				module.TextureDecls = append(module.TextureDecls, d)
			} else {
				module.ResourceDecls = append(module.ResourceDecls, d)
			}
		}
	}

	if len(p.errors) > 0 {
		return module, fmt.Errorf("parsing failed with %d error(s): %w", len(p.errors), p.errors[0])
	}
	return module, nil
}

// declaration parses one top-level declaration (spec §4.1 grammar obligations).
func (p *Parser) declaration() (Decl, *ParseError) {
	switch {
	case p.check(TokenStruct):
		return p.structDecl()
	case p.check(TokenTexture2D):
		return p.resourceDecl(true)
	case p.check(TokenShaderResource):
		return p.resourceDecl(false)
	case p.check(TokenEOF):
		return nil, nil
	default:
		return p.functionOrGlobalVar()
	}
}

func (p *Parser) resourceDecl(isTexture bool) (Decl, *ParseError) {
	start := p.peek()
	p.advance() // texture2d / shader_resource
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenSemicolon, "expected ';' after resource declaration"); err != nil {
		return nil, err
	}
	return &ResourceDecl{Name: name, IsTexture: isTexture, Span: spanOf(start)}, nil
}

func (p *Parser) structDecl() (Decl, *ParseError) {
	start := p.peek()
	p.advance() // struct
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenLeftBrace, "expected '{' after struct name"); err != nil {
		return nil, err
	}
	var members []*StructMember
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		mStart := p.peek()
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		mName, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenSemicolon, "expected ';' after struct member"); err != nil {
			return nil, err
		}
		members = append(members, &StructMember{Name: mName, Type: typ, Span: spanOf(mStart)})
	}
	if err := p.expect(TokenRightBrace, "expected '}' to close struct"); err != nil {
		return nil, err
	}
	p.match(TokenSemicolon)
	return &StructDecl{Name: name, Members: members, Span: spanOf(start)}, nil
}

// functionOrGlobalVar parses a function prototype/definition or a global
// variable/array declaration; both begin with [shader] type name. A
// shader root may omit its return type (`shader f(...)`), which is void.
func (p *Parser) functionOrGlobalVar() (Decl, *ParseError) {
	start := p.peek()
	isShader := p.match(TokenShader)

	var typ *TypeExpr
	var err *ParseError
	if isShader && p.check(TokenIdent) && p.checkAt(1, TokenLeftParen) {
		typ = &TypeExpr{Name: "void", Span: spanOf(start)}
	} else if typ, err = p.parseType(); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	if p.check(TokenLeftParen) {
		return p.functionDecl(start, isShader, typ, name)
	}

	// Global variable or array.
	var arrSize Expr
	if p.match(TokenLeftBracket) {
		arrSize, err = p.expression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRightBracket, "expected ']' after array size"); err != nil {
			return nil, err
		}
	}
	var init Expr
	if p.match(TokenEqual) {
		init, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expect(TokenSemicolon, "expected ';' after global variable declaration"); err != nil {
		return nil, err
	}
	return &VarDecl{Name: name, Type: typ, ArrSize: arrSize, Init: init, Span: spanOf(start)}, nil
}

func (p *Parser) functionDecl(start Token, isShader bool, retType *TypeExpr, name string) (Decl, *ParseError) {
	if err := p.expect(TokenLeftParen, "expected '(' after function name"); err != nil {
		return nil, err
	}
	var params []*Parameter
	for !p.check(TokenRightParen) {
		param, err := p.parameter()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
		if !p.match(TokenComma) {
			break
		}
	}
	if err := p.expect(TokenRightParen, "expected ')' after parameters"); err != nil {
		return nil, err
	}

	var body *BlockStmt
	if p.check(TokenLeftBrace) {
		b, err := p.block()
		if err != nil {
			return nil, err
		}
		body = b
	} else if err := p.expect(TokenSemicolon, "expected ';' or body after prototype"); err != nil {
		return nil, err
	}

	return &FunctionDecl{
		Name: name, Params: params, ReturnType: retType,
		IsShader: isShader, Body: body, Span: spanOf(start),
	}, nil
}

func (p *Parser) parameter() (*Parameter, *ParseError) {
	start := p.peek()
	var flags types.VarFlags
	switch {
	case p.match(TokenOut):
		flags |= types.FlagOutput
	case p.match(TokenIn):
		flags |= types.FlagInput
	}
	if p.match(TokenConst) {
		flags |= types.FlagConst
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	var meta *Metadata
	if p.check(TokenLessLessLess) {
		raw, err := p.skipMetadata()
		if err != nil {
			return nil, err
		}
		meta = &Metadata{Raw: raw}
	}
	return &Parameter{Name: name, Type: typ, Flags: flags, Metadata: meta, Span: spanOf(start)}, nil
}

// skipMetadata consumes a <<< ... >>> marker and returns its raw text
// (spec §4.1: syntactically consumed and discarded, no runtime semantics).
func (p *Parser) skipMetadata() (string, *ParseError) {
	p.advance() // <<<
	raw := ""
	for !p.check(TokenGreaterGreaterGreater) && !p.isAtEnd() {
		raw += p.peek().Lexeme + " "
		p.advance()
	}
	if err := p.expect(TokenGreaterGreaterGreater, "expected '>>>' to close metadata"); err != nil {
		return "", err
	}
	return raw, nil
}

func (p *Parser) parseType() (*TypeExpr, *ParseError) {
	tok := p.peek()
	var name string
	switch tok.Kind {
	case TokenInt:
		name = "int"
	case TokenFloat:
		name = "float"
	case TokenDouble:
		name = "double"
	case TokenBool:
		name = "bool"
	case TokenVector, TokenColor:
		name = types.Float3Name
	case TokenMatrix:
		name = "matrix"
	case TokenClosureType:
		name = "closure"
	case TokenVoid:
		name = "void"
	case TokenIdent:
		name = tok.Lexeme
	default:
		return nil, &ParseError{Message: fmt.Sprintf("expected type, got %s", tok.Kind), Token: tok}
	}
	p.advance()
	return &TypeExpr{Name: name, Span: spanOf(tok)}, nil
}

func (p *Parser) block() (*BlockStmt, *ParseError) {
	start := p.peek()
	if err := p.expect(TokenLeftBrace, "expected '{'"); err != nil {
		return nil, err
	}
	var stmts []Stmt
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if err := p.expect(TokenRightBrace, "expected '}' to close block"); err != nil {
		return nil, err
	}
	return &BlockStmt{Statements: stmts, Span: spanOf(start)}, nil
}

func (p *Parser) statement() (Stmt, *ParseError) {
	switch {
	case p.check(TokenLeftBrace):
		return p.block()
	case p.check(TokenReturn):
		return p.returnStmt()
	case p.check(TokenIf):
		return p.ifStmt()
	case p.check(TokenWhile):
		return p.whileStmt()
	case p.check(TokenDo):
		return p.doWhileStmt()
	case p.check(TokenFor):
		return p.forStmt()
	case p.check(TokenBreak):
		start := p.peek()
		p.advance()
		if err := p.expect(TokenSemicolon, "expected ';' after break"); err != nil {
			return nil, err
		}
		return &BreakStmt{Span: spanOf(start)}, nil
	case p.check(TokenContinue):
		start := p.peek()
		p.advance()
		if err := p.expect(TokenSemicolon, "expected ';' after continue"); err != nil {
			return nil, err
		}
		return &ContinueStmt{Span: spanOf(start)}, nil
	case p.check(TokenTexture2D):
		d, err := p.resourceDecl(true)
		if err != nil {
			return nil, err
		}
		return d.(*ResourceDecl), nil
	case p.check(TokenShaderResource):
		d, err := p.resourceDecl(false)
		if err != nil {
			return nil, err
		}
		return d.(*ResourceDecl), nil
	case p.isTypeStart():
		return p.localVarDecl()
	default:
		return p.exprStmt()
	}
}

// isTypeStart reports whether the next token begins a variable declaration.
// A bare identifier starts a declaration only when immediately followed by
// another identifier (struct-typed local variable); otherwise it is the
// start of an expression statement.
func (p *Parser) isTypeStart() bool {
	switch p.peek().Kind {
	case TokenInt, TokenFloat, TokenDouble, TokenBool, TokenVector, TokenColor, TokenMatrix, TokenConst:
		return true
	case TokenIdent:
		return p.checkAt(1, TokenIdent)
	default:
		return false
	}
}

func (p *Parser) localVarDecl() (Stmt, *ParseError) {
	start := p.peek()
	var flags types.VarFlags
	if p.match(TokenConst) {
		flags |= types.FlagConst
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	var arrSize Expr
	if p.match(TokenLeftBracket) {
		arrSize, err = p.expression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRightBracket, "expected ']' after array size"); err != nil {
			return nil, err
		}
	}
	var init Expr
	if p.match(TokenEqual) {
		init, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expect(TokenSemicolon, "expected ';' after variable declaration"); err != nil {
		return nil, err
	}
	return &VarDecl{Name: name, Type: typ, ArrSize: arrSize, Init: init, Flags: flags, Span: spanOf(start)}, nil
}

func (p *Parser) returnStmt() (Stmt, *ParseError) {
	start := p.peek()
	p.advance()
	var value Expr
	if !p.check(TokenSemicolon) {
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		value = v
	}
	if err := p.expect(TokenSemicolon, "expected ';' after return"); err != nil {
		return nil, err
	}
	return &ReturnStmt{Value: value, Span: spanOf(start)}, nil
}

func (p *Parser) ifStmt() (Stmt, *ParseError) {
	start := p.peek()
	p.advance()
	if err := p.expect(TokenLeftParen, "expected '(' after if"); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenRightParen, "expected ')' after condition"); err != nil {
		return nil, err
	}
	var then *BlockStmt
	if p.check(TokenLeftBrace) {
		then, err = p.block()
	} else {
		// A single unbraced statement is wrapped in its own block.
		thenStart := p.peek()
		var s Stmt
		s, err = p.statement()
		then = &BlockStmt{Statements: []Stmt{s}, Span: spanOf(thenStart)}
	}
	if err != nil {
		return nil, err
	}
	var elseStmt Stmt
	if p.match(TokenElse) {
		if p.check(TokenIf) {
			elseStmt, err = p.ifStmt()
		} else {
			elseStmt, err = p.block()
		}
		if err != nil {
			return nil, err
		}
	}
	return &IfStmt{Condition: cond, Then: then, Else: elseStmt, Span: spanOf(start)}, nil
}

func (p *Parser) whileStmt() (Stmt, *ParseError) {
	start := p.peek()
	p.advance()
	if err := p.expect(TokenLeftParen, "expected '(' after while"); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenRightParen, "expected ')' after condition"); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{Condition: cond, Body: body, Span: spanOf(start)}, nil
}

func (p *Parser) doWhileStmt() (Stmt, *ParseError) {
	start := p.peek()
	p.advance()
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenWhile, "expected 'while' after do block"); err != nil {
		return nil, err
	}
	if err := p.expect(TokenLeftParen, "expected '(' after while"); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenRightParen, "expected ')' after condition"); err != nil {
		return nil, err
	}
	if err := p.expect(TokenSemicolon, "expected ';' after do-while"); err != nil {
		return nil, err
	}
	return &DoWhileStmt{Body: body, Condition: cond, Span: spanOf(start)}, nil
}

func (p *Parser) forStmt() (Stmt, *ParseError) {
	start := p.peek()
	p.advance()
	if err := p.expect(TokenLeftParen, "expected '(' after for"); err != nil {
		return nil, err
	}

	var initStmt Stmt
	if !p.check(TokenSemicolon) {
		var err *ParseError
		if p.isTypeStart() {
			initStmt, err = p.localVarDecl()
		} else {
			initStmt, err = p.exprStmt()
		}
		if err != nil {
			return nil, err
		}
	} else {
		p.advance()
	}

	var cond Expr
	if !p.check(TokenSemicolon) {
		c, err := p.expression()
		if err != nil {
			return nil, err
		}
		cond = c
	}
	if err := p.expect(TokenSemicolon, "expected ';' after for condition"); err != nil {
		return nil, err
	}

	var update Stmt
	if !p.check(TokenRightParen) {
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		update = &ExprStmt{X: e, Span: e.Pos()}
	}
	if err := p.expect(TokenRightParen, "expected ')' after for clauses"); err != nil {
		return nil, err
	}

	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ForStmt{Init: initStmt, Condition: cond, Update: update, Body: body, Span: spanOf(start)}, nil
}

func (p *Parser) exprStmt() (Stmt, *ParseError) {
	start := p.peek()
	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenSemicolon, "expected ';' after expression"); err != nil {
		return nil, err
	}
	return &ExprStmt{X: e, Span: spanOf(start)}, nil
}

// Expression grammar, precedence low to high:
//
//	assignment > ternary > logicalOr > logicalAnd > bitOr > bitXor >
//	bitAnd > equality > relational > shift > additive > multiplicative >
//	unary > postfix (call/index/member/incdec) > primary

func (p *Parser) expression() (Expr, *ParseError) { return p.assignment() }

var assignOps = map[TokenKind]bool{
	TokenEqual: true, TokenPlusEqual: true, TokenMinusEqual: true,
	TokenStarEqual: true, TokenSlashEqual: true, TokenPercentEqual: true,
	TokenAmpEqual: true, TokenPipeEqual: true, TokenCaretEqual: true,
	TokenLessLessEqual: true, TokenGreaterGreaterEqual: true,
}

func (p *Parser) assignment() (Expr, *ParseError) {
	left, err := p.ternary()
	if err != nil {
		return nil, err
	}
	if assignOps[p.peek().Kind] {
		op := p.advance()
		lv, ok := left.(Lvalue)
		if !ok {
			return nil, &ParseError{Message: "left side of assignment is not an lvalue", Token: op}
		}
		right, err := p.assignment() // right-associative
		if err != nil {
			return nil, err
		}
		return &AssignExpr{Op: op.Kind, Left: lv, Right: right, Span: spanOf(op)}, nil
	}
	return left, nil
}

func (p *Parser) ternary() (Expr, *ParseError) {
	cond, err := p.logicalOr()
	if err != nil {
		return nil, err
	}
	if p.match(TokenQuestion) {
		start := p.previous()
		then, err := p.assignment()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenColon, "expected ':' in ternary expression"); err != nil {
			return nil, err
		}
		els, err := p.ternary() // right-associative
		if err != nil {
			return nil, err
		}
		return &TernaryExpr{Cond: cond, Then: then, Else: els, Span: spanOf(start)}, nil
	}
	return cond, nil
}

func (p *Parser) logicalOr() (Expr, *ParseError) {
	return p.leftAssocBinary(p.logicalAnd, TokenPipePipe)
}
func (p *Parser) logicalAnd() (Expr, *ParseError) {
	return p.leftAssocBinary(p.bitOr, TokenAmpAmp)
}
func (p *Parser) bitOr() (Expr, *ParseError) { return p.leftAssocBinary(p.bitXor, TokenPipe) }
func (p *Parser) bitXor() (Expr, *ParseError) { return p.leftAssocBinary(p.bitAnd, TokenCaret) }
func (p *Parser) bitAnd() (Expr, *ParseError) { return p.leftAssocBinary(p.equality, TokenAmpersand) }
func (p *Parser) equality() (Expr, *ParseError) {
	return p.leftAssocBinary(p.relational, TokenEqualEqual, TokenBangEqual)
}
func (p *Parser) relational() (Expr, *ParseError) {
	return p.leftAssocBinary(p.shift, TokenLess, TokenGreater, TokenLessEqual, TokenGreaterEqual)
}
func (p *Parser) shift() (Expr, *ParseError) {
	return p.leftAssocBinary(p.additive, TokenLessLess, TokenGreaterGreater)
}
func (p *Parser) additive() (Expr, *ParseError) {
	return p.leftAssocBinary(p.multiplicative, TokenPlus, TokenMinus)
}
func (p *Parser) multiplicative() (Expr, *ParseError) {
	return p.leftAssocBinary(p.unary, TokenStar, TokenSlash, TokenPercent)
}

func (p *Parser) leftAssocBinary(next func() (Expr, *ParseError), ops ...TokenKind) (Expr, *ParseError) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for p.matchAny(ops...) {
		op := p.previous()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op.Kind, Left: left, Right: right, Span: spanOf(op)}
	}
	return left, nil
}

func (p *Parser) unary() (Expr, *ParseError) {
	if p.matchAny(TokenPlus, TokenMinus, TokenBang, TokenTilde) {
		op := p.previous()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op.Kind, Operand: operand, Span: spanOf(op)}, nil
	}
	if p.matchAny(TokenPlusPlus, TokenMinusMinus) {
		op := p.previous()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		lv, ok := operand.(Lvalue)
		if !ok {
			return nil, &ParseError{Message: "operand of prefix ++/-- is not an lvalue", Token: op}
		}
		return &IncDecExpr{Op: op.Kind, Operand: lv, Prefix: true, Span: spanOf(op)}, nil
	}
	return p.postfix()
}

// postfix binds post-increment/decrement tighter than prefix forms (spec §4.1).
func (p *Parser) postfix() (Expr, *ParseError) {
	e, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.match(TokenDot):
			name, perr := p.expectIdent()
			if perr != nil {
				return nil, perr
			}
			e = &MemberExpr{Base: e, Member: name, Span: e.Pos()}
		case p.match(TokenLeftBracket):
			idx, perr := p.expression()
			if perr != nil {
				return nil, perr
			}
			if perr := p.expect(TokenRightBracket, "expected ']' after index"); perr != nil {
				return nil, perr
			}
			e = &IndexExpr{Base: e, Index: idx, Span: e.Pos()}
		case p.matchAny(TokenPlusPlus, TokenMinusMinus):
			op := p.previous()
			lv, ok := e.(Lvalue)
			if !ok {
				return nil, &ParseError{Message: "operand of postfix ++/-- is not an lvalue", Token: op}
			}
			e = &IncDecExpr{Op: op.Kind, Operand: lv, Prefix: false, Span: e.Pos()}
		default:
			return e, nil
		}
	}
}

func (p *Parser) primary() (Expr, *ParseError) {
	tok := p.peek()
	switch tok.Kind {
	case TokenIntLiteral:
		p.advance()
		return &IntLit{Value: parseInt32(tok.Lexeme), Span: spanOf(tok)}, nil
	case TokenFloatLiteral:
		p.advance()
		return &FloatLit{Value: parseFloat32(tok.Lexeme), Span: spanOf(tok)}, nil
	case TokenDoubleLiteral:
		p.advance()
		return &DoubleLit{Value: parseFloat64(tok.Lexeme), Span: spanOf(tok)}, nil
	case TokenBoolLiteral:
		p.advance()
		return &BoolLit{Value: tok.Lexeme == "true", Span: spanOf(tok)}, nil
	case TokenLeftParen:
		p.advance()
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRightParen, "expected ')'"); err != nil {
			return nil, err
		}
		return e, nil
	case TokenVector, TokenColor:
		p.advance()
		return p.float3Ctor(tok)
	case TokenInt, TokenFloat, TokenDouble, TokenBool:
		p.advance()
		return p.castExpr(tok)
	case TokenMakeClosure:
		return p.makeClosureExpr()
	case TokenGlobalValue:
		return p.globalValueExpr()
	case TokenTexture2DSample, TokenTexture2DSampleAlpha:
		return p.textureSampleExpr()
	case TokenIdent:
		p.advance()
		if tok.Lexeme == types.Float3Name {
			return p.float3Ctor(tok)
		}
		if p.check(TokenLeftParen) {
			return p.callExpr(tok)
		}
		return &VarRef{Name: tok.Lexeme, Span: spanOf(tok)}, nil
	default:
		return nil, &ParseError{Message: fmt.Sprintf("unexpected token %s in expression", tok.Kind), Token: tok}
	}
}

func (p *Parser) float3Ctor(start Token) (Expr, *ParseError) {
	if err := p.expect(TokenLeftParen, "expected '(' after float3"); err != nil {
		return nil, err
	}
	args, err := p.argList()
	if err != nil {
		return nil, err
	}
	return &Float3Expr{Args: args, Span: spanOf(start)}, nil
}

func (p *Parser) castExpr(start Token) (Expr, *ParseError) {
	name := map[TokenKind]string{TokenInt: "int", TokenFloat: "float", TokenDouble: "double", TokenBool: "bool"}[start.Kind]
	if err := p.expect(TokenLeftParen, "expected '(' after cast type"); err != nil {
		return nil, err
	}
	x, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenRightParen, "expected ')' after cast expression"); err != nil {
		return nil, err
	}
	return &CastExpr{Target: &TypeExpr{Name: name, Span: spanOf(start)}, X: x, Span: spanOf(start)}, nil
}

func (p *Parser) callExpr(start Token) (Expr, *ParseError) {
	if err := p.expect(TokenLeftParen, "expected '(' in call"); err != nil {
		return nil, err
	}
	args, err := p.argList()
	if err != nil {
		return nil, err
	}
	return &CallExpr{Name: start.Lexeme, Args: args, Span: spanOf(start)}, nil
}

func (p *Parser) makeClosureExpr() (Expr, *ParseError) {
	start := p.peek()
	p.advance() // make_closure
	if err := p.expect(TokenLess, "expected '<' after make_closure"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenGreater, "expected '>' after closure name"); err != nil {
		return nil, err
	}
	if err := p.expect(TokenLeftParen, "expected '(' after make_closure<name>"); err != nil {
		return nil, err
	}
	args, err := p.argList()
	if err != nil {
		return nil, err
	}
	return &MakeClosureExpr{Name: name, Args: args, Span: spanOf(start)}, nil
}

func (p *Parser) globalValueExpr() (Expr, *ParseError) {
	start := p.peek()
	p.advance() // global_value
	if err := p.expect(TokenLess, "expected '<' after global_value"); err != nil {
		return nil, err
	}
	field, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenGreater, "expected '>' after global_value field"); err != nil {
		return nil, err
	}
	return &GlobalValueExpr{Field: field, Span: spanOf(start)}, nil
}

func (p *Parser) textureSampleExpr() (Expr, *ParseError) {
	start := p.peek()
	alpha := start.Kind == TokenTexture2DSampleAlpha
	p.advance()
	if err := p.expect(TokenLess, "expected '<' after texture2d_sample"); err != nil {
		return nil, err
	}
	handle, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenGreater, "expected '>' after texture handle"); err != nil {
		return nil, err
	}
	if err := p.expect(TokenLeftParen, "expected '(' after texture2d_sample<handle>"); err != nil {
		return nil, err
	}
	u, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenComma, "expected ',' between u and v"); err != nil {
		return nil, err
	}
	v, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenRightParen, "expected ')' after texture sample args"); err != nil {
		return nil, err
	}
	return &TextureSampleExpr{Handle: handle, Alpha: alpha, U: u, V: v, Span: spanOf(start)}, nil
}

func (p *Parser) argList() ([]Expr, *ParseError) {
	var args []Expr
	for !p.check(TokenRightParen) {
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if !p.match(TokenComma) {
			break
		}
	}
	if err := p.expect(TokenRightParen, "expected ')' after arguments"); err != nil {
		return nil, err
	}
	return args, nil
}

// --- token-stream helpers ---

func (p *Parser) peek() Token  { return p.tokens[p.current] }
func (p *Parser) previous() Token {
	if p.current == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.current-1]
}
func (p *Parser) isAtEnd() bool { return p.peek().Kind == TokenEOF }
func (p *Parser) advance() Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}
func (p *Parser) check(k TokenKind) bool { return p.peek().Kind == k }
func (p *Parser) checkAt(offset int, k TokenKind) bool {
	idx := p.current + offset
	if idx >= len(p.tokens) {
		return false
	}
	return p.tokens[idx].Kind == k
}
func (p *Parser) match(k TokenKind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}
func (p *Parser) matchAny(ks ...TokenKind) bool {
	for _, k := range ks {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}
func (p *Parser) expect(k TokenKind, msg string) *ParseError {
	if p.check(k) {
		p.advance()
		return nil
	}
	return &ParseError{Message: msg, Token: p.peek()}
}
func (p *Parser) expectIdent() (string, *ParseError) {
	if !p.check(TokenIdent) {
		return "", &ParseError{Message: fmt.Sprintf("expected identifier, got %s", p.peek().Kind), Token: p.peek()}
	}
	tok := p.advance()
	return tok.Lexeme, nil
}

// synchronize skips tokens until a plausible declaration boundary, so
// parsing can continue and surface multiple errors in one pass.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.previous().Kind == TokenSemicolon {
			return
		}
		switch p.peek().Kind {
		case TokenStruct, TokenShader, TokenTexture2D, TokenShaderResource,
			TokenInt, TokenFloat, TokenDouble, TokenBool, TokenVector, TokenColor, TokenVoid:
			return
		}
		p.advance()
	}
}

func spanOf(t Token) Span {
	return Span{Start: Position{Line: t.Line, Column: t.Column}, End: Position{Line: t.Line, Column: t.Column}}
}
