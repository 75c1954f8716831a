// Package parser implements the recursive-descent, precedence-climbing
// grammar that turns a preprocessed token vector into an *ast.Program.
package parser

import (
	"strconv"

	"github.com/nodeware/lumen/internal/ast"
	"github.com/nodeware/lumen/internal/diagnostics"
	"github.com/nodeware/lumen/internal/token"
)

// Parser walks a pre-tokenized vector with a single cursor. The entire
// vector is materialised by the caller before parsing starts; there is no
// token-at-a-time re-entry into the lexer.
type Parser struct {
	tokens []token.Token
	pos    int
	diag   *diagnostics.Collector
}

// New returns a Parser over tokens, reporting through diag.
func New(tokens []token.Token, diag *diagnostics.Collector) *Parser {
	return &Parser{tokens: tokens, diag: diag}
}

// Parse consumes the token vector and returns the resulting program. It
// stops at the first diagnostic, matching every other stage's fail-fast
// contract.
func (p *Parser) Parse() *ast.Program {
	prog := &ast.Program{}
	for !p.atEOF() && p.diag.Empty() {
		prog.Statements = append(prog.Statements, p.parseStatement())
	}
	return prog
}

func (p *Parser) atEOF() bool {
	return p.current().Kind == token.Eof
}

func (p *Parser) current() token.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() token.Token {
	t := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) is(k token.Kind) bool {
	return p.current().Kind == k
}

func (p *Parser) isAny(ks ...token.Kind) bool {
	return p.current().IsAny(ks...)
}

func (p *Parser) curLexemeIs(lexeme string) bool {
	return p.current().Kind == token.Keyword && p.current().Lexeme == lexeme
}

func (p *Parser) isTypeKeyword() bool {
	if p.current().Kind != token.Keyword {
		return false
	}
	switch p.current().Lexeme {
	case "int", "real", "char", "string", "bool":
		return true
	}
	return false
}

func (p *Parser) parseStatement() ast.Statement {
	return p.parseVarDeclaration()
}

// parseVarDeclaration parses the type qualifiers of a declaration, then
// falls through to the full expression grammar if none were present —
// "var-decl" is one production in a ladder that a bare expression also
// passes through.
func (p *Parser) parseVarDeclaration() ast.Statement {
	expr := p.parseTypeOrExpr()
	te, ok := expr.(*ast.TypeExpr)
	if !ok {
		return expr
	}

	var name string
	if p.is(token.Identifier) {
		name = p.advance().Lexeme
	} else {
		p.diag.Insert(diagnostics.ExpectedIdentifierVarDecl)
	}

	var body ast.Expression = &ast.NullLit{}
	switch {
	case p.is(token.Semicolon):
		p.advance()
		if te.IsAuto {
			p.diag.Insert(diagnostics.AutoMustHaveBody)
		} else if !te.IsMut {
			p.diag.Insert(diagnostics.ExpectedVarBody)
		}
	case p.is(token.Equals):
		p.advance()
		body, _ = p.parseVarDeclaration().(ast.Expression)
		if p.is(token.Semicolon) {
			p.advance()
		} else {
			p.diag.Insert(diagnostics.StatementSemicolon)
		}
	default:
		p.diag.Insert(diagnostics.ExpectedEqualsOrSemicolon)
	}

	return &ast.VarDecl{Type: te, Name: name, Body: body}
}

// parseTypeOrExpr recognises the "mut"/"con"/"let"/type-keyword prefix of
// a declaration; with none present it falls straight through to the
// expression ladder.
func (p *Parser) parseTypeOrExpr() ast.Expression {
	startsDecl := p.curLexemeIs("mut") || p.curLexemeIs("con") || p.curLexemeIs("let") || p.isTypeKeyword()
	if !startsDecl {
		return p.parseCompoundBitwiseAssign()
	}

	te := &ast.TypeExpr{}
	if p.curLexemeIs("mut") {
		te.IsMut = true
		p.advance()
	}
	if p.curLexemeIs("con") {
		te.IsCon = true
		p.advance()
	}
	if p.curLexemeIs("let") {
		te.IsAuto = true
		p.advance()
	} else if p.isTypeKeyword() {
		te.TypeName = p.advance().Lexeme
	} else {
		p.diag.Insert(diagnostics.ExpectedType)
	}
	return te
}

func (p *Parser) parseCompoundBitwiseAssign() ast.Expression {
	left := p.parseCompoundShiftAssign()
	for p.isAny(token.BitwiseAndEquals, token.BitwiseXorEquals, token.BitwiseOrEquals) {
		op := p.advance().Lexeme
		right := p.parseCompoundShiftAssign()
		left = &ast.Assignment{Op: op, Lhs: left, Rhs: right}
	}
	return left
}

func (p *Parser) parseCompoundShiftAssign() ast.Expression {
	left := p.parseCompoundAdditiveAssign()
	for p.isAny(token.ShiftLeftEquals, token.ShiftRightEquals) {
		op := p.advance().Lexeme
		right := p.parseCompoundAdditiveAssign()
		left = &ast.Assignment{Op: op, Lhs: left, Rhs: right}
	}
	return left
}

func (p *Parser) parseCompoundAdditiveAssign() ast.Expression {
	left := p.parseCompoundMultiplicativeAssign()
	for p.isAny(token.PlusEquals, token.MinusEquals) {
		op := p.advance().Lexeme
		right := p.parseCompoundMultiplicativeAssign()
		left = &ast.Assignment{Op: op, Lhs: left, Rhs: right}
	}
	return left
}

func (p *Parser) parseCompoundMultiplicativeAssign() ast.Expression {
	left := p.parseCompoundExponentiationAssign()
	for p.isAny(token.StarEquals, token.SlashEquals, token.PercentEquals) {
		op := p.advance().Lexeme
		right := p.parseCompoundExponentiationAssign()
		left = &ast.Assignment{Op: op, Lhs: left, Rhs: right}
	}
	return left
}

func (p *Parser) parseCompoundExponentiationAssign() ast.Expression {
	left := p.parseSimpleAssign()
	for p.is(token.StarStarEquals) {
		op := p.advance().Lexeme
		right := p.parseSimpleAssign()
		left = &ast.Assignment{Op: op, Lhs: left, Rhs: right}
	}
	return left
}

func (p *Parser) parseSimpleAssign() ast.Expression {
	left := p.parseTernary()
	for p.is(token.Equals) {
		op := p.advance().Lexeme
		right := p.parseTernary()
		left = &ast.Assignment{Op: op, Lhs: left, Rhs: right}
	}
	return left
}

func (p *Parser) parseTernary() ast.Expression {
	cond := p.parseLogicalOr()
	if !p.is(token.Question) {
		return cond
	}
	p.advance()
	// Ternary branches re-enter the assignment ladder, not a lower
	// ternary level, so an assignment is legal inside either branch.
	then := p.parseCompoundBitwiseAssign()
	if p.is(token.Colon) {
		p.advance()
	} else {
		p.diag.Insert(diagnostics.ExpectedColonTernary)
	}
	els := p.parseCompoundBitwiseAssign()
	return &ast.Ternary{Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseLogicalOr() ast.Expression {
	left := p.parseLogicalAnd()
	for p.is(token.LogicalOr) {
		op := p.advance().Lexeme
		right := p.parseLogicalAnd()
		left = &ast.Binary{Op: op, Lhs: left, Rhs: right}
	}
	return left
}

func (p *Parser) parseLogicalAnd() ast.Expression {
	left := p.parseBitwiseOr()
	for p.is(token.LogicalAnd) {
		op := p.advance().Lexeme
		right := p.parseBitwiseOr()
		left = &ast.Binary{Op: op, Lhs: left, Rhs: right}
	}
	return left
}

func (p *Parser) parseBitwiseOr() ast.Expression {
	left := p.parseBitwiseXor()
	for p.is(token.BitwiseOr) {
		op := p.advance().Lexeme
		right := p.parseBitwiseXor()
		left = &ast.Binary{Op: op, Lhs: left, Rhs: right}
	}
	return left
}

func (p *Parser) parseBitwiseXor() ast.Expression {
	left := p.parseBitwiseAnd()
	for p.is(token.BitwiseXor) {
		op := p.advance().Lexeme
		right := p.parseBitwiseAnd()
		left = &ast.Binary{Op: op, Lhs: left, Rhs: right}
	}
	return left
}

func (p *Parser) parseBitwiseAnd() ast.Expression {
	left := p.parseEquality()
	for p.is(token.BitwiseAnd) {
		op := p.advance().Lexeme
		right := p.parseEquality()
		left = &ast.Binary{Op: op, Lhs: left, Rhs: right}
	}
	return left
}

func (p *Parser) parseEquality() ast.Expression {
	left := p.parseRelational()
	for p.isAny(token.EqualsEquals, token.NotEquals) {
		op := p.advance().Lexeme
		right := p.parseRelational()
		left = &ast.Binary{Op: op, Lhs: left, Rhs: right}
	}
	return left
}

func (p *Parser) parseRelational() ast.Expression {
	left := p.parseShift()
	for p.isAny(token.Smaller, token.SmallerEquals, token.Bigger, token.BiggerEquals) {
		op := p.advance().Lexeme
		right := p.parseShift()
		left = &ast.Binary{Op: op, Lhs: left, Rhs: right}
	}
	return left
}

func (p *Parser) parseShift() ast.Expression {
	left := p.parseAdditive()
	for p.isAny(token.ShiftLeft, token.ShiftRight) {
		op := p.advance().Lexeme
		right := p.parseAdditive()
		left = &ast.Binary{Op: op, Lhs: left, Rhs: right}
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expression {
	left := p.parseMultiplicative()
	for p.isAny(token.Plus, token.Minus) {
		op := p.advance().Lexeme
		right := p.parseMultiplicative()
		left = &ast.Binary{Op: op, Lhs: left, Rhs: right}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expression {
	left := p.parseExponentiation()
	for p.isAny(token.Star, token.Slash, token.Percent) {
		op := p.advance().Lexeme
		right := p.parseExponentiation()
		left = &ast.Binary{Op: op, Lhs: left, Rhs: right}
	}
	return left
}

// parseExponentiation recurses into itself for the right operand rather
// than looping, making ** right-associative: a ** b ** c ≡ a ** (b ** c).
func (p *Parser) parseExponentiation() ast.Expression {
	left := p.parseUnary()
	if p.is(token.StarStar) {
		op := p.advance().Lexeme
		right := p.parseExponentiation()
		return &ast.Binary{Op: op, Lhs: left, Rhs: right}
	}
	return left
}

var unaryOps = map[token.Kind]bool{
	token.Minus: true, token.Plus: true, token.LogicalNot: true, token.BitwiseNot: true,
	token.BitwiseAnd: true, token.Star: true, token.PlusPlus: true, token.MinusMinus: true,
}

func (p *Parser) parseUnary() ast.Expression {
	if unaryOps[p.current().Kind] {
		op := p.advance().Lexeme
		operand := p.parseUnary()
		return &ast.Unary{Op: op, Operand: operand}
	}
	return p.parsePrimaryWithPostfix()
}

func (p *Parser) parsePrimaryWithPostfix() ast.Expression {
	primary := p.parsePrimary()
	if p.isAny(token.PlusPlus, token.MinusMinus) {
		op := p.advance().Lexeme
		primary = &ast.Unary{Op: op, Operand: primary, Postfix: true}
	}
	return primary
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.current()
	switch tok.Kind {
	case token.Identifier:
		p.advance()
		return &ast.Identifier{Name: tok.Lexeme}
	case token.Integer:
		p.advance()
		v, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			p.diag.Insert(diagnostics.CouldNotConvertNumber)
			return &ast.NullLit{}
		}
		return &ast.IntLit{Value: v}
	case token.Real:
		p.advance()
		v, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			p.diag.Insert(diagnostics.CouldNotConvertNumber)
			return &ast.NullLit{}
		}
		return &ast.RealLit{Value: v}
	case token.String:
		p.advance()
		return &ast.StringLit{Value: tok.Lexeme}
	case token.Character:
		p.advance()
		var v byte
		if len(tok.Lexeme) > 0 {
			v = tok.Lexeme[0]
		}
		return &ast.CharLit{Value: v}
	case token.LParen:
		p.advance()
		inner := p.parseStatement()
		if p.is(token.RParen) {
			p.advance()
		} else {
			p.diag.Insert(diagnostics.MismatchedParentheses)
		}
		expr, ok := inner.(ast.Expression)
		if !ok {
			return &ast.NullLit{}
		}
		return expr
	default:
		p.diag.Insert(diagnostics.ExpectedPrimaryExpression)
		return &ast.NullLit{}
	}
}
