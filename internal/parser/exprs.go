package parser

import (
	"github.com/kievzenit/sonapy/internal/ast"
	"github.com/kievzenit/sonapy/internal/lexer"
)

// Binary operator precedence, lowest first. All levels are left-associative.
var bindingPowerLookup = map[lexer.TokenKind]int{
	lexer.LOR:      10,
	lexer.OR:       10,
	lexer.LAND:     20,
	lexer.AND:      20,
	lexer.EQ:       30,
	lexer.NEQ:      30,
	lexer.LT:       40,
	lexer.LEQ:      40,
	lexer.GT:       40,
	lexer.GEQ:      40,
	lexer.IN:       40,
	lexer.PLUS:     50,
	lexer.MINUS:    50,
	lexer.ASTERISK: 60,
	lexer.SLASH:    60,
	lexer.PERCENT:  60,
}

// normalizeOp folds keyword spellings onto their symbolic equivalents.
func normalizeOp(kind lexer.TokenKind) lexer.TokenKind {
	switch kind {
	case lexer.AND:
		return lexer.LAND
	case lexer.OR:
		return lexer.LOR
	case lexer.NOT:
		return lexer.XMARK
	}
	return kind
}

func (p *Parser) parseExpr() ast.Expr {
	return p.parseConditionalExpr()
}

// parseConditionalExpr parses `cond ? then : else`, right-associative.
func (p *Parser) parseConditionalExpr() ast.Expr {
	cond := p.parseBinaryExpr(0)
	if p.curr.Kind != lexer.QMARK {
		return cond
	}
	p.read()
	p.skipNewlines()

	then := p.parseConditionalExpr()
	if p.nextSignificant().Kind == lexer.COLON {
		p.skipNewlines()
	}
	p.expect(lexer.COLON)
	p.skipNewlines()
	els := p.parseConditionalExpr()

	return ast.NewConditionalExpr(cond.Span().Join(els.Span()), cond, then, els)
}

func (p *Parser) parseBinaryExpr(minPower int) ast.Expr {
	left := p.parseUnaryExpr()

	for {
		op := p.curr.Kind
		power, ok := bindingPowerLookup[op]
		if !ok || power < minPower {
			return left
		}
		p.read()
		p.skipNewlines()

		right := p.parseBinaryExpr(power + 1)
		left = ast.NewBinaryExpr(left.Span().Join(right.Span()), normalizeOp(op), left, right)
	}
}

func (p *Parser) parseUnaryExpr() ast.Expr {
	switch p.curr.Kind {
	case lexer.MINUS, lexer.PLUS, lexer.XMARK, lexer.NOT:
		op := p.read()
		x := p.parseUnaryExpr()
		return ast.NewUnaryExpr(op.Span().Join(x.Span()), normalizeOp(op.Kind), x)
	}

	return p.parsePostfixExpr()
}

// parsePostfixExpr parses calls, member accesses and index expressions.
func (p *Parser) parsePostfixExpr() ast.Expr {
	x := p.parsePrimaryExpr()
	start := x.Span().Start

	for {
		switch p.curr.Kind {
		case lexer.LPAREN:
			args := p.parseArgs()
			x = ast.NewCallExpr(p.spanFrom(start), x, args)

		case lexer.DOT:
			p.read()
			name := p.expect(lexer.IDENT)
			x = ast.NewMemberExpr(p.spanFrom(start), x, name.Value)

		case lexer.LBRACKET:
			p.read()
			index := p.parseExpr()
			p.expect(lexer.RBRACKET)
			x = ast.NewIndexExpr(p.spanFrom(start), x, index)

		default:
			return x
		}
	}
}

func (p *Parser) parseArgs() []ast.Expr {
	p.expect(lexer.LPAREN)

	args := make([]ast.Expr, 0)
	for p.curr.Kind != lexer.RPAREN {
		args = append(args, p.parseExpr())
		if p.curr.Kind != lexer.COMMA {
			break
		}
		p.read()
	}
	p.expect(lexer.RPAREN)

	return args
}

func (p *Parser) parsePrimaryExpr() ast.Expr {
	tok := p.curr

	switch tok.Kind {
	case lexer.NUMBER:
		p.read()
		return ast.NewNumberLit(tok.Span(), tok.Value)

	case lexer.STRING:
		p.read()
		return ast.NewStringLit(tok.Span(), tok.Literal)

	case lexer.INTERP_STRING:
		p.read()
		return p.parseInterpString(tok)

	case lexer.TRUE, lexer.FALSE:
		p.read()
		return ast.NewBoolLit(tok.Span(), tok.Kind == lexer.TRUE)

	case lexer.NULL:
		p.read()
		return ast.NewNullLit(tok.Span())

	case lexer.IDENT:
		return p.parseIdent()

	case lexer.SUPER:
		p.read()
		if p.curr.Kind != lexer.DOT {
			p.fail(p.curr, lexer.DOT.Symbol(), "'super' must be followed by a member access")
		}
		return ast.NewSuperExpr(tok.Span())

	case lexer.LPAREN:
		p.read()
		x := p.parseExpr()
		p.expect(lexer.RPAREN)
		return x

	case lexer.LBRACKET:
		return p.parseArrayLit()

	case lexer.LBRACE:
		return p.parseDictLit()
	}

	p.fail(tok, "expression", "unexpected %s", tok.Describe())
	panic("unreachable")
}

func (p *Parser) parseArrayLit() *ast.ArrayLit {
	start := p.expect(lexer.LBRACKET).Pos()

	elems := make([]ast.Expr, 0)
	for p.curr.Kind != lexer.RBRACKET {
		elems = append(elems, p.parseExpr())
		if p.curr.Kind != lexer.COMMA {
			break
		}
		p.read()
	}
	p.expect(lexer.RBRACKET)

	return ast.NewArrayLit(p.spanFrom(start), elems)
}

// parseDictLit parses `{key: value, ...}`. Newlines are insignificant
// between the braces.
func (p *Parser) parseDictLit() *ast.DictLit {
	start := p.expect(lexer.LBRACE).Pos()

	entries := make([]*ast.DictEntry, 0)
	for {
		p.skipNewlines()
		if p.curr.Kind == lexer.RBRACE {
			break
		}

		key := p.parseDictKey()
		p.skipNewlines()
		p.expect(lexer.COLON)
		p.skipNewlines()
		value := p.parseExpr()
		entries = append(entries, ast.NewDictEntry(key.Span().Join(value.Span()), key, value))

		p.skipNewlines()
		if p.curr.Kind != lexer.COMMA {
			break
		}
		p.read()
	}
	p.expect(lexer.RBRACE)

	return ast.NewDictLit(p.spanFrom(start), entries)
}

// parseDictKey turns a bare identifier key into a string key.
func (p *Parser) parseDictKey() ast.Expr {
	tok := p.curr

	switch tok.Kind {
	case lexer.IDENT:
		p.read()
		return ast.NewStringLit(tok.Span(), tok.Value)
	case lexer.STRING:
		p.read()
		return ast.NewStringLit(tok.Span(), tok.Literal)
	case lexer.NUMBER:
		p.read()
		return ast.NewNumberLit(tok.Span(), tok.Value)
	case lexer.TRUE, lexer.FALSE:
		p.read()
		return ast.NewBoolLit(tok.Span(), tok.Kind == lexer.TRUE)
	}

	p.fail(tok, "identifier, string or number", "unexpected %s as dictionary key", tok.Describe())
	panic("unreachable")
}

// parseInterpString parses every embedded expression of an interpolated
// string token with a sub-parser over the part's own tokens.
func (p *Parser) parseInterpString(tok lexer.Token) *ast.InterpString {
	parts := make([]ast.InterpPart, 0, len(tok.Parts))

	for _, part := range tok.Parts {
		if !part.IsExpr() {
			parts = append(parts, ast.InterpPart{Text: part.Text})
			continue
		}

		sub := &Parser{
			fileName:  p.fileName,
			scanner:   lexer.NewTokenScanner(part.Tokens),
			eh:        p.eh,
			funcDepth: p.funcDepth,
			loopDepth: p.loopDepth,
		}
		sub.read()

		x := sub.parseExpr()
		if sub.curr.Kind != lexer.EOF {
			sub.fail(sub.curr, "'}'", "interpolation must contain a single expression, found %s", sub.curr.Describe())
		}
		parts = append(parts, ast.InterpPart{X: x})
	}

	return ast.NewInterpString(tok.Span(), parts)
}
