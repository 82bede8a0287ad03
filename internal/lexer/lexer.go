package lexer

import (
	"iter"
	"strings"
	"unicode"

	"github.com/tdewolff/parse/v2"

	"github.com/kievzenit/sonapy/internal/compiler_errors"
	"github.com/kievzenit/sonapy/internal/source"
)

var twoCharOps = map[string]TokenKind{
	"==": EQ,
	"!=": NEQ,
	"<=": LEQ,
	">=": GEQ,
	"&&": LAND,
	"||": LOR,
	"+=": ADD_ASSIGN,
	"-=": SUB_ASSIGN,
	"*=": MUL_ASSIGN,
	"/=": DIV_ASSIGN,
	"%=": MOD_ASSIGN,
}

var oneCharOps = map[byte]TokenKind{
	'+': PLUS,
	'-': MINUS,
	'*': ASTERISK,
	'/': SLASH,
	'%': PERCENT,
	'=': ASSIGN,
	'<': LT,
	'>': GT,
	'!': XMARK,
	'?': QMARK,
	'(': LPAREN,
	')': RPAREN,
	'[': LBRACKET,
	']': RBRACKET,
	'{': LBRACE,
	'}': RBRACE,
	',': COMMA,
	'.': DOT,
	';': SEMICOLON,
	':': COLON,
}

// Lexer turns Sona source into tokens on demand. It stops at the first
// lexical error; every later call to Next returns the same error.
type Lexer struct {
	fileName string
	src      string
	r        *parse.Input

	// base is the position of src[0] in the file. It is only non-zero for
	// the sub-lexers that scan interpolation expressions.
	base      source.Position
	line, col int

	depth   int
	last    TokenKind
	emitted bool
	done    bool
	err     error

	eh compiler_errors.ErrorHandler
}

func NewLexer(fileName, src string) *Lexer {
	return newLexerAt(fileName, src, source.Position{Line: 1})
}

func newLexerAt(fileName, src string, base source.Position) *Lexer {
	l := &Lexer{
		fileName: fileName,
		src:      src,
		base:     base,
	}
	l.Reset()

	return l
}

// Reset rewinds the lexer to the beginning of its input.
func (l *Lexer) Reset() {
	l.r = parse.NewInputString(l.src)
	l.line = l.base.Line
	l.col = l.base.Column
	l.depth = 0
	l.last = EOF
	l.emitted = false
	l.done = false
	l.err = nil
	l.eh = compiler_errors.NewErrorHandler(nil)
}

// Next returns the next token. After EOF it keeps returning EOF.
func (l *Lexer) Next() (tok Token, err error) {
	if l.err != nil {
		return Token{}, l.err
	}
	defer func() {
		if err != nil {
			l.err = err
		}
	}()
	defer compiler_errors.Catch(l.eh, &err)

	return l.next(), nil
}

// All yields tokens up to and including EOF, or stops after the first error.
func (l *Lexer) All() iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		for {
			tok, err := l.Next()
			if !yield(tok, err) || err != nil || tok.Kind == EOF {
				return
			}
		}
	}
}

// Tokenize collects the whole token sequence, EOF included.
func (l *Lexer) Tokenize() ([]Token, error) {
	tokens := make([]Token, 0)
	for tok, err := range l.All() {
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}

	return tokens, nil
}

func (l *Lexer) tokenize() []Token {
	tokens := make([]Token, 0)
	for {
		tok := l.next()
		tokens = append(tokens, tok)
		if tok.Kind == EOF {
			return tokens
		}
	}
}

func (l *Lexer) next() Token {
	if l.done {
		return l.eofToken()
	}

	nl, sawNewline := l.skipTrivia()
	if sawNewline && l.depth == 0 && l.emitted && l.last != NEWLINE {
		return l.emit(Token{
			Kind:  NEWLINE,
			Value: "\n",
			Metadata: Metadata{
				FileName:  l.fileName,
				Line:      nl.Line,
				Column:    nl.Column,
				EndColumn: nl.Column + 1,
				Offset:    nl.Offset,
				Length:    1,
			},
		})
	}

	l.r.Skip()
	start := l.pos()

	if l.atEOF() {
		l.done = true
		return l.emit(l.eofToken())
	}

	c := l.r.Peek(0)
	r, _ := l.r.PeekRune(0)
	switch {
	case isDigit(c):
		return l.processNumber(start)

	case c == 'f' && (l.peekAt(1) == '"' || l.peekAt(1) == '\''):
		return l.processInterpString(start)

	case isIdentStart(r):
		return l.processIdentifier(start)

	case c == '"' || c == '\'':
		return l.processString(start)

	default:
		return l.processPunctuation(start)
	}
}

func (l *Lexer) emit(tok Token) Token {
	l.last = tok.Kind
	l.emitted = true
	return tok
}

func (l *Lexer) eofToken() Token {
	p := l.pos()
	return Token{
		Kind: EOF,
		Metadata: Metadata{
			FileName:  l.fileName,
			Line:      p.Line,
			Column:    p.Column,
			EndColumn: p.Column,
			Offset:    p.Offset,
		},
	}
}

// token builds a token of the given kind from the current lexeme.
func (l *Lexer) token(kind TokenKind, start source.Position) Token {
	value := string(l.r.Lexeme())
	return Token{
		Kind:  kind,
		Value: value,
		Metadata: Metadata{
			FileName:  l.fileName,
			Line:      start.Line,
			Column:    start.Column,
			EndColumn: l.col,
			Offset:    start.Offset,
			Length:    len(value),
		},
	}
}

func (l *Lexer) pos() source.Position {
	return source.Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.base.Offset + l.r.Offset(),
	}
}

func (l *Lexer) atEOF() bool {
	return l.r.Err() != nil
}

// peekAt is Peek that returns 0 past the end of input instead of panicking.
func (l *Lexer) peekAt(i int) byte {
	if l.r.PeekErr(i) != nil {
		return 0
	}
	return l.r.Peek(i)
}

func (l *Lexer) advance() rune {
	r, n := l.r.PeekRune(0)
	l.r.Move(n)
	if r == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}

	return r
}

func (l *Lexer) fail(span source.Span, format string, args ...any) {
	l.eh.AddError(compiler_errors.Newf(compiler_errors.LexError, l.fileName, span, format, args...))
	l.eh.FailNow()
}

func spanAt(p source.Position, width int) source.Span {
	return source.NewSpan(p, source.Position{
		Line:   p.Line,
		Column: p.Column + width,
		Offset: p.Offset + width,
	})
}

// skipTrivia consumes whitespace and comments and reports the position of
// the first newline it crossed.
func (l *Lexer) skipTrivia() (source.Position, bool) {
	var nl source.Position
	sawNewline := false
	markNewline := func() {
		if !sawNewline {
			nl = l.pos()
			sawNewline = true
		}
	}

	for !l.atEOF() {
		switch c := l.r.Peek(0); {
		case c == '\n':
			markNewline()
			l.advance()

		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			l.advance()

		case c == '/' && l.peekAt(1) == '/':
			for !l.atEOF() && l.r.Peek(0) != '\n' {
				l.advance()
			}

		case c == '/' && l.peekAt(1) == '*':
			l.skipBlockComment(markNewline)

		default:
			return nl, sawNewline
		}
	}

	return nl, sawNewline
}

func (l *Lexer) skipBlockComment(onNewline func()) {
	start := l.pos()
	l.advance()
	l.advance()

	for {
		if l.atEOF() {
			l.fail(spanAt(start, 2), "unterminated block comment")
		}

		c := l.r.Peek(0)
		if c == '*' && l.peekAt(1) == '/' {
			l.advance()
			l.advance()
			return
		}
		if c == '\n' {
			onNewline()
		}
		l.advance()
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r > unicode.MaxASCII && unicode.IsLetter(r))
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9') || (r > unicode.MaxASCII && unicode.IsDigit(r))
}

func (l *Lexer) skipDigits() {
	for isDigit(l.r.Peek(0)) {
		l.advance()
	}
}

func (l *Lexer) processNumber(start source.Position) Token {
	l.skipDigits()

	if l.r.Peek(0) == '.' && isDigit(l.peekAt(1)) {
		l.advance()
		l.skipDigits()
	}

	if c := l.r.Peek(0); c == 'e' || c == 'E' {
		exp := l.pos()
		l.advance()
		if c := l.r.Peek(0); c == '+' || c == '-' {
			l.advance()
		}
		if !isDigit(l.r.Peek(0)) {
			l.fail(source.NewSpan(exp, l.pos()), "malformed exponent in number literal")
		}
		l.skipDigits()
	}

	if r, _ := l.r.PeekRune(0); isIdentPart(r) {
		l.fail(spanAt(l.pos(), 1), "invalid character %q in number literal", r)
	}

	return l.emit(l.token(NUMBER, start))
}

func (l *Lexer) processIdentifier(start source.Position) Token {
	for {
		r, _ := l.r.PeekRune(0)
		if !isIdentPart(r) {
			break
		}
		l.advance()
	}

	tok := l.token(IDENT, start)
	tok.Kind = LookupKeyword(tok.Value)

	return l.emit(tok)
}

func (l *Lexer) processString(start source.Position) Token {
	quote := l.r.Peek(0)
	l.advance()

	var sb strings.Builder
	for {
		c := l.r.Peek(0)
		switch {
		case l.atEOF() || c == '\n':
			l.fail(spanAt(start, 1), "unterminated string literal")

		case c == quote:
			l.advance()
			tok := l.token(STRING, start)
			tok.Literal = sb.String()
			return l.emit(tok)

		case c == '\\':
			sb.WriteRune(l.processEscape(start))

		default:
			sb.WriteRune(l.advance())
		}
	}
}

// processEscape decodes one escape sequence. quote is the position of the
// opening quote of the enclosing string.
func (l *Lexer) processEscape(quote source.Position) rune {
	at := l.pos()
	l.advance()
	if l.atEOF() || l.r.Peek(0) == '\n' {
		l.fail(spanAt(quote, 1), "unterminated string literal")
	}

	switch r := l.advance(); r {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	case '\\', '"', '\'', '{', '}':
		return r
	default:
		l.fail(spanAt(at, 2), "unknown escape sequence '\\%c'", r)
		panic("unreachable")
	}
}

func (l *Lexer) processInterpString(start source.Position) Token {
	l.advance()
	quotePos := l.pos()
	quote := l.r.Peek(0)
	l.advance()

	parts := make([]InterpPart, 0)
	var text strings.Builder
	textStart := l.pos()
	flush := func() {
		if text.Len() == 0 {
			return
		}
		parts = append(parts, InterpPart{
			Text: text.String(),
			Span: source.NewSpan(textStart, l.pos()),
		})
		text.Reset()
	}

	for {
		c := l.r.Peek(0)
		switch {
		case l.atEOF() || c == '\n':
			l.fail(spanAt(quotePos, 1), "unterminated string literal")

		case c == quote:
			flush()
			l.advance()
			tok := l.token(INTERP_STRING, start)
			tok.Parts = parts
			return l.emit(tok)

		case c == '\\':
			text.WriteRune(l.processEscape(quotePos))

		case c == '{' && l.peekAt(1) == '{', c == '}' && l.peekAt(1) == '}':
			l.advance()
			l.advance()
			text.WriteByte(c)

		case c == '}':
			l.fail(spanAt(l.pos(), 1), "single '}' is not allowed in interpolated string")

		case c == '{':
			flush()
			parts = append(parts, l.processInterpolation(quotePos))
			textStart = l.pos()

		default:
			text.WriteRune(l.advance())
		}
	}
}

// processInterpolation scans one {expr} of an interpolated string and lexes
// the expression with a sub-lexer whose positions point into this file.
func (l *Lexer) processInterpolation(quotePos source.Position) InterpPart {
	open := l.pos()
	l.advance()
	exprStart := l.pos()
	from := l.r.Offset()

	depth := 0
scan:
	for {
		c := l.r.Peek(0)
		switch {
		case l.atEOF() || c == '\n':
			l.fail(spanAt(quotePos, 1), "unterminated string literal")

		case c == '"' || c == '\'':
			l.skipNestedString(quotePos)

		case c == '{':
			depth++
			l.advance()

		case c == '}':
			if depth == 0 {
				break scan
			}
			depth--
			l.advance()

		default:
			l.advance()
		}
	}

	exprEnd := l.pos()
	expr := l.src[from:l.r.Offset()]
	l.advance()

	if strings.TrimSpace(expr) == "" {
		l.fail(source.NewSpan(open, l.pos()), "empty expression in interpolated string")
	}

	sub := newLexerAt(l.fileName, expr, exprStart)
	sub.eh = l.eh

	return InterpPart{
		Tokens: sub.tokenize(),
		Span:   source.NewSpan(exprStart, exprEnd),
	}
}

func (l *Lexer) skipNestedString(quotePos source.Position) {
	quote := l.r.Peek(0)
	l.advance()

	for {
		c := l.r.Peek(0)
		switch {
		case l.atEOF() || c == '\n':
			l.fail(spanAt(quotePos, 1), "unterminated string literal")

		case c == '\\':
			l.advance()
			if !l.atEOF() && l.r.Peek(0) != '\n' {
				l.advance()
			}

		case c == quote:
			l.advance()
			return

		default:
			l.advance()
		}
	}
}

func (l *Lexer) processPunctuation(start source.Position) Token {
	c := l.r.Peek(0)

	if kind, ok := twoCharOps[string([]byte{c, l.peekAt(1)})]; ok {
		l.advance()
		l.advance()
		return l.emit(l.token(kind, start))
	}

	kind, ok := oneCharOps[c]
	if !ok {
		r, _ := l.r.PeekRune(0)
		l.fail(spanAt(start, 1), "unexpected character %q", r)
	}
	l.advance()

	switch kind {
	case LPAREN, LBRACKET:
		l.depth++
	case RPAREN, RBRACKET:
		if l.depth > 0 {
			l.depth--
		}
	}

	return l.emit(l.token(kind, start))
}
