package lexer

type TokenScanner interface {
	Read() Token
	Unread()
	Peek(n int) Token
	HasTokens() bool
}

// SimpleTokenScanner walks a token slice that ends with EOF. Reading past
// the end keeps yielding the final EOF token.
type SimpleTokenScanner struct {
	tokens []Token

	pos int
}

func NewTokenScanner(tokens []Token) TokenScanner {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != EOF {
		var eof Token
		if len(tokens) > 0 {
			last := tokens[len(tokens)-1]
			eof.Metadata = last.Metadata
			eof.Metadata.Column = last.Metadata.EndColumn
			eof.Metadata.Offset += last.Metadata.Length
			eof.Metadata.Length = 0
		}
		tokens = append(tokens[:len(tokens):len(tokens)], eof)
	}

	return &SimpleTokenScanner{
		tokens: tokens,
	}
}

func (s *SimpleTokenScanner) Read() Token {
	token := s.Peek(0)
	if s.pos < len(s.tokens) {
		s.pos++
	}

	return token
}

func (s *SimpleTokenScanner) Unread() {
	if s.pos > 0 {
		s.pos--
	}
}

// Peek returns the token n positions ahead without consuming it.
func (s *SimpleTokenScanner) Peek(n int) Token {
	i := s.pos + n
	if i >= len(s.tokens) {
		i = len(s.tokens) - 1
	}

	return s.tokens[i]
}

func (s *SimpleTokenScanner) HasTokens() bool {
	return s.Peek(0).Kind != EOF
}
