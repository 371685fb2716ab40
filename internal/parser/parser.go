// Package parser implements the recursive-descent, precedence-climbing
// parser described in spec §4.2. Grounded on tawago's parser.go: one
// token of lookahead via Peek, LexExpecting-style "consume or panic"
// helpers, and a single top-level recover() that turns a panicked
// error back into a returned one (tawago's Parser.Parse does the same
// around its own production loop).
package parser

import (
	"strconv"

	"github.com/nanoc-lang/nanoc/internal/ast"
	"github.com/nanoc-lang/nanoc/internal/lexer"
	"github.com/nanoc-lang/nanoc/internal/token"
)

const maxIdentifierBytes = 32

// Parser consumes a token stream and produces a Program.
type Parser struct {
	toks []token.Token
	pos  int
}

// New constructs a Parser over src's token stream.
func New(src string) *Parser {
	return &Parser{toks: lexer.Lex(src)}
}

// Parse runs the full grammar and returns a Program, or a ParseError
// at the first syntactic problem encountered.
func Parse(src string) (prog ast.Program, err error) {
	p := New(src)
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(ParseError); ok {
				err = pe
				return
			}
			panic(r)
		}
	}()
	prog = p.parseProgram()
	return prog, nil
}

func (p *Parser) cur() token.Token {
	return p.toks[p.pos]
}

func (p *Parser) peekIs(k token.Kind) bool {
	return p.cur().Kind == k
}

func (p *Parser) advance() token.Token {
	tok := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it has kind k, else panics
// with a ParseError built from lexeme ("<lexeme>") and an optional
// context describing what preceded it.
func (p *Parser) expect(k token.Kind, lexeme, context string) token.Token {
	if p.cur().Kind != k {
		if context != "" {
			panic(errExpectedAfter(lexeme, context, p.cur()))
		}
		panic(errExpected(lexeme, p.cur()))
	}
	return p.advance()
}

func (p *Parser) expectIdentifier(context string) token.Token {
	tok := p.expect(token.Identifier, "identifier", context)
	if len(tok.Lexeme) > maxIdentifierBytes {
		panic(errIdentifierTooLong(tok.Lexeme, tok))
	}
	return tok
}

func (p *Parser) parseProgram() ast.Program {
	var funcs []ast.Function
	for !p.peekIs(token.EndOfFile) {
		funcs = append(funcs, p.parseFunction())
	}
	return ast.Program{Functions: funcs}
}

func (p *Parser) parseFunction() ast.Function {
	p.expect(token.IntType, "int", "")
	name := p.expectIdentifier("'int'").Lexeme

	p.expect(token.LParen, "(", "function name")
	var params []string
	if p.peekIs(token.IntType) {
		for {
			p.expect(token.IntType, "int", "")
			params = append(params, p.expectIdentifier("'int'").Lexeme)
			if !p.peekIs(token.Comma) {
				break
			}
			p.advance()
		}
	}
	p.expect(token.RParen, ")", "parameter list")

	body := p.parseBlock()
	return ast.Function{Name: name, Params: params, Body: body}
}

func (p *Parser) parseBlock() ast.Block {
	p.expect(token.LBrace, "{", "")
	var stmts []ast.Stmt
	for !p.peekIs(token.RBrace) && !p.peekIs(token.EndOfFile) {
		stmts = append(stmts, p.parseStatement())
	}
	p.expect(token.RBrace, "}", "block")
	return ast.Block{Statements: stmts}
}

func (p *Parser) parseStatement() ast.Stmt {
	switch p.cur().Kind {
	case token.IntType:
		return p.parseVarDecl()
	case token.Return:
		return p.parseReturn()
	case token.If:
		return p.parseIf()
	case token.While:
		return p.parseWhile()
	case token.LBrace:
		return p.parseBlock()
	default:
		return p.parseAssignmentOrExpr()
	}
}

func (p *Parser) parseVarDecl() ast.Stmt {
	p.expect(token.IntType, "int", "")
	name := p.expectIdentifier("'int'").Lexeme

	var init ast.Expr
	if p.peekIs(token.Eq) {
		p.advance()
		init = p.parseExpression()
	}
	p.expect(token.Semicolon, ";", "variable declaration")
	return ast.VarDecl{Name: name, Init: init}
}

func (p *Parser) parseReturn() ast.Stmt {
	p.expect(token.Return, "return", "")
	value := p.parseExpression()
	p.expect(token.Semicolon, ";", "return value")
	return ast.ReturnStmt{Value: value}
}

func (p *Parser) parseIf() ast.Stmt {
	p.expect(token.If, "if", "")
	p.expect(token.LParen, "(", "'if'")
	cond := p.parseExpression()
	p.expect(token.RParen, ")", "if condition")
	then := p.parseBlock()
	return ast.IfStmt{Condition: cond, Then: then}
}

func (p *Parser) parseWhile() ast.Stmt {
	p.expect(token.While, "while", "")
	p.expect(token.LParen, "(", "'while'")
	cond := p.parseExpression()
	p.expect(token.RParen, ")", "while condition")
	body := p.parseBlock()
	return ast.WhileStmt{Condition: cond, Body: body}
}

// parseAssignmentOrExpr disambiguates with exactly one token of
// lookahead: Identifier followed by '=' is an assignment, else an
// expression statement.
func (p *Parser) parseAssignmentOrExpr() ast.Stmt {
	if p.peekIs(token.Identifier) && p.toks[p.pos+1].Kind == token.Eq {
		name := p.expectIdentifier("").Lexeme
		p.advance() // '='
		value := p.parseExpression()
		p.expect(token.Semicolon, ";", "assignment")
		return ast.Assignment{Name: name, Value: value}
	}

	expr := p.parseExpression()
	p.expect(token.Semicolon, ";", "expression")
	return ast.ExprStmt{Expression: expr}
}

func (p *Parser) parseExpression() ast.Expr {
	return p.parseLogicOr()
}

func (p *Parser) parseLogicOr() ast.Expr {
	left := p.parseLogicAnd()
	for p.peekIs(token.OrCmp) {
		p.advance()
		right := p.parseLogicAnd()
		left = ast.BinaryOp{Op: ast.Or, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseLogicAnd() ast.Expr {
	left := p.parseComparison()
	for p.peekIs(token.AndCmp) {
		p.advance()
		right := p.parseComparison()
		left = ast.BinaryOp{Op: ast.And, Left: left, Right: right}
	}
	return left
}

var comparisonOps = map[token.Kind]ast.BinOp{
	token.EqCmp: ast.Eq,
	token.NeCmp: ast.Ne,
	token.LtCmp: ast.Lt,
	token.GtCmp: ast.Gt,
}

func (p *Parser) parseComparison() ast.Expr {
	left := p.parseAddition()
	for {
		op, ok := comparisonOps[p.cur().Kind]
		if !ok {
			return left
		}
		p.advance()
		right := p.parseAddition()
		left = ast.BinaryOp{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseAddition() ast.Expr {
	left := p.parseMultiplication()
	for p.peekIs(token.Add) || p.peekIs(token.Sub) {
		op := ast.Add
		if p.cur().Kind == token.Sub {
			op = ast.Sub
		}
		p.advance()
		right := p.parseMultiplication()
		left = ast.BinaryOp{Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplication() ast.Expr {
	left := p.parseUnary()
	for p.peekIs(token.Mult) || p.peekIs(token.Div) {
		op := ast.Mul
		if p.cur().Kind == token.Div {
			op = ast.Div
		}
		p.advance()
		right := p.parseUnary()
		left = ast.BinaryOp{Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.cur().Kind {
	case token.Sub:
		p.advance()
		return ast.UnaryOp{Op: ast.Negate, Operand: p.parseUnary()}
	case token.Not:
		p.advance()
		return ast.UnaryOp{Op: ast.Not, Operand: p.parseUnary()}
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur()
	switch tok.Kind {
	case token.IntLiteral:
		p.advance()
		v, err := strconv.ParseInt(tok.Lexeme, 10, 32)
		if err != nil {
			panic(ParseError{Message: "expected expression", Location: tok.Location})
		}
		return ast.IntLiteral{Value: int32(v)}

	case token.Identifier:
		name := tok.Lexeme
		if len(name) > maxIdentifierBytes {
			panic(errIdentifierTooLong(name, tok))
		}
		p.advance()
		if p.peekIs(token.LParen) {
			p.advance()
			var args []ast.Expr
			if !p.peekIs(token.RParen) {
				for {
					args = append(args, p.parseExpression())
					if !p.peekIs(token.Comma) {
						break
					}
					p.advance()
				}
			}
			p.expect(token.RParen, ")", "call arguments")
			return ast.FuncCall{Name: name, Args: args}
		}
		return ast.Identifier{Name: name}

	case token.LParen:
		p.advance()
		expr := p.parseExpression()
		p.expect(token.RParen, ")", "parenthesized expression")
		return expr

	default:
		panic(errExpectedExpression(tok))
	}
}
