package parser

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kievzenit/sonapy/internal/ast"
	"github.com/kievzenit/sonapy/internal/compiler_errors"
	"github.com/kievzenit/sonapy/internal/lexer"
	"github.com/kievzenit/sonapy/internal/source"
)

// Parser builds an *ast.Program from a token sequence. It stops at the
// first syntax error.
type Parser struct {
	fileName string

	scanner lexer.TokenScanner
	eh      compiler_errors.ErrorHandler

	curr    lexer.Token
	prevEnd source.Position

	funcDepth int
	loopDepth int
}

func NewParser(fileName string, scanner lexer.TokenScanner) *Parser {
	p := &Parser{
		fileName: fileName,
		scanner:  scanner,
		eh:       compiler_errors.NewErrorHandler(nil),
	}
	p.read()

	return p
}

// Parse parses a whole program. The returned error is a
// compiler_errors.List holding a single ParseError.
func (p *Parser) Parse() (prog *ast.Program, err error) {
	defer compiler_errors.Catch(p.eh, &err)

	start := p.curr.Pos()
	stmts := make([]ast.Stmt, 0)
	for {
		p.skipTerminators()
		if p.curr.Kind == lexer.EOF {
			break
		}

		stmts = append(stmts, p.parseStmt())
		p.endStmt()
	}

	end := p.curr.Pos()
	if len(stmts) > 0 {
		end = stmts[len(stmts)-1].Span().End
	} else {
		start = end
	}

	return ast.NewProgram(source.NewSpan(start, end), p.fileName, stmts), nil
}

// ParseTokens is a convenience wrapper around NewParser and Parse.
func ParseTokens(fileName string, tokens []lexer.Token) (*ast.Program, error) {
	return NewParser(fileName, lexer.NewTokenScanner(tokens)).Parse()
}

func (p *Parser) read() lexer.Token {
	prev := p.curr
	p.curr = p.scanner.Read()
	if prev.Metadata.Line != 0 {
		p.prevEnd = prev.End()
	}

	return prev
}

// spanFrom covers everything from start to the end of the last consumed
// token.
func (p *Parser) spanFrom(start source.Position) source.Span {
	return source.NewSpan(start, p.prevEnd)
}

func (p *Parser) skipNewlines() {
	for p.curr.Kind == lexer.NEWLINE {
		p.read()
	}
}

func (p *Parser) skipTerminators() {
	for p.isCurrAny(lexer.NEWLINE, lexer.SEMICOLON) {
		p.read()
	}
}

// nextSignificant returns the first token at or after curr that is not a
// NEWLINE, without consuming anything.
func (p *Parser) nextSignificant() lexer.Token {
	if p.curr.Kind != lexer.NEWLINE {
		return p.curr
	}
	for i := 0; ; i++ {
		if tok := p.scanner.Peek(i); tok.Kind != lexer.NEWLINE {
			return tok
		}
	}
}

// endStmt enforces the statement terminator: a newline, a semicolon, a
// closing brace or the end of input.
func (p *Parser) endStmt() {
	switch p.curr.Kind {
	case lexer.NEWLINE, lexer.SEMICOLON:
		p.read()
	case lexer.RBRACE, lexer.EOF:
	default:
		p.fail(p.curr, "end of statement", "unexpected %s", p.curr.Describe())
	}
}

func (p *Parser) fail(tok lexer.Token, expected string, format string, args ...any) {
	d := compiler_errors.Newf(compiler_errors.ParseError, p.fileName, tok.Span(), format, args...)
	d.Expected = expected
	p.eh.AddError(d)
	p.eh.FailNow()
}

func (p *Parser) failAt(node ast.Node, expected string, format string, args ...any) {
	d := compiler_errors.Newf(compiler_errors.ParseError, p.fileName, node.Span(), format, args...)
	d.Expected = expected
	p.eh.AddError(d)
	p.eh.FailNow()
}

func (p *Parser) expect(kind lexer.TokenKind) lexer.Token {
	if p.curr.Kind != kind {
		p.fail(p.curr, kind.Symbol(), "unexpected %s", p.curr.Describe())
	}

	return p.read()
}

func (p *Parser) expectAny(kinds ...lexer.TokenKind) lexer.Token {
	if !p.isCurrAny(kinds...) {
		expected := make([]string, len(kinds))
		for i, kind := range kinds {
			expected[i] = kind.Symbol()
		}
		p.fail(p.curr, fmt.Sprintf("one of %s", strings.Join(expected, ", ")), "unexpected %s", p.curr.Describe())
	}

	return p.read()
}

func (p *Parser) isCurrAny(kinds ...lexer.TokenKind) bool {
	return slices.Contains(kinds, p.curr.Kind)
}

func (p *Parser) parseIdent() *ast.Ident {
	tok := p.expect(lexer.IDENT)
	return ast.NewIdent(tok.Span(), tok.Value)
}
