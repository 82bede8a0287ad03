package lexer

import (
	"fmt"

	"github.com/kievzenit/sonapy/internal/source"
)

type TokenKind int

const (
	EOF TokenKind = iota
	NEWLINE

	NUMBER
	STRING
	INTERP_STRING

	IDENT

	PLUS     // +
	MINUS    // -
	ASTERISK // *
	SLASH    // /
	PERCENT  // %

	ASSIGN // =

	ADD_ASSIGN // +=
	SUB_ASSIGN // -=
	MUL_ASSIGN // *=
	DIV_ASSIGN // /=
	MOD_ASSIGN // %=

	LAND // &&
	LOR  // ||

	EQ  // ==
	NEQ // !=
	LT  // <
	LEQ // <=
	GT  // >
	GEQ // >=

	XMARK // !
	QMARK // ?

	LPAREN   // (
	LBRACKET // [
	LBRACE   // {

	RPAREN   // )
	RBRACKET // ]
	RBRACE   // }

	COLON     // :
	SEMICOLON // ;
	DOT       // .
	COMMA     // ,

	LET
	CONST
	FUNC
	CLASS
	EXTENDS
	IF
	ELSE
	WHILE
	FOR
	IN
	RETURN
	BREAK
	CONTINUE
	IMPORT
	FROM
	AS
	TRY
	CATCH
	FINALLY
	TRUE
	FALSE
	NULL
	AND
	OR
	NOT
	SUPER
)

// keywords is the fixed reserved-word set.
var keywords = map[string]TokenKind{
	"let":      LET,
	"const":    CONST,
	"func":     FUNC,
	"class":    CLASS,
	"extends":  EXTENDS,
	"if":       IF,
	"else":     ELSE,
	"while":    WHILE,
	"for":      FOR,
	"in":       IN,
	"return":   RETURN,
	"break":    BREAK,
	"continue": CONTINUE,
	"import":   IMPORT,
	"from":     FROM,
	"as":       AS,
	"try":      TRY,
	"catch":    CATCH,
	"finally":  FINALLY,
	"true":     TRUE,
	"false":    FALSE,
	"null":     NULL,
	"and":      AND,
	"or":       OR,
	"not":      NOT,
	"super":    SUPER,
}

// LookupKeyword returns the keyword kind for word, or IDENT.
func LookupKeyword(word string) TokenKind {
	if kind, ok := keywords[word]; ok {
		return kind
	}
	return IDENT
}

func (tk TokenKind) String() string {
	switch tk {
	case EOF:
		return "EOF"
	case NEWLINE:
		return "NEWLINE"
	case NUMBER:
		return "NUMBER"
	case STRING:
		return "STRING"
	case INTERP_STRING:
		return "INTERP_STRING"
	case IDENT:
		return "IDENT"
	case PLUS:
		return "PLUS"
	case MINUS:
		return "MINUS"
	case ASTERISK:
		return "ASTERISK"
	case SLASH:
		return "SLASH"
	case PERCENT:
		return "PERCENT"
	case ASSIGN:
		return "ASSIGN"
	case ADD_ASSIGN:
		return "ADD_ASSIGN"
	case SUB_ASSIGN:
		return "SUB_ASSIGN"
	case MUL_ASSIGN:
		return "MUL_ASSIGN"
	case DIV_ASSIGN:
		return "DIV_ASSIGN"
	case MOD_ASSIGN:
		return "MOD_ASSIGN"
	case LAND:
		return "LAND"
	case LOR:
		return "LOR"
	case EQ:
		return "EQ"
	case NEQ:
		return "NEQ"
	case LT:
		return "LT"
	case LEQ:
		return "LEQ"
	case GT:
		return "GT"
	case GEQ:
		return "GEQ"
	case XMARK:
		return "XMARK"
	case QMARK:
		return "QMARK"
	case LPAREN:
		return "LPAREN"
	case LBRACKET:
		return "LBRACKET"
	case LBRACE:
		return "LBRACE"
	case RPAREN:
		return "RPAREN"
	case RBRACKET:
		return "RBRACKET"
	case RBRACE:
		return "RBRACE"
	case COLON:
		return "COLON"
	case SEMICOLON:
		return "SEMICOLON"
	case DOT:
		return "DOT"
	case COMMA:
		return "COMMA"
	case LET:
		return "LET"
	case CONST:
		return "CONST"
	case FUNC:
		return "FUNC"
	case CLASS:
		return "CLASS"
	case EXTENDS:
		return "EXTENDS"
	case IF:
		return "IF"
	case ELSE:
		return "ELSE"
	case WHILE:
		return "WHILE"
	case FOR:
		return "FOR"
	case IN:
		return "IN"
	case RETURN:
		return "RETURN"
	case BREAK:
		return "BREAK"
	case CONTINUE:
		return "CONTINUE"
	case IMPORT:
		return "IMPORT"
	case FROM:
		return "FROM"
	case AS:
		return "AS"
	case TRY:
		return "TRY"
	case CATCH:
		return "CATCH"
	case FINALLY:
		return "FINALLY"
	case TRUE:
		return "TRUE"
	case FALSE:
		return "FALSE"
	case NULL:
		return "NULL"
	case AND:
		return "AND"
	case OR:
		return "OR"
	case NOT:
		return "NOT"
	case SUPER:
		return "SUPER"
	default:
		panic(fmt.Sprintf("TokenKind.String(): received illegal token kind: %d", tk))
	}
}

// Class is the coarse category of a token kind.
type Class int

const (
	NumberClass Class = iota
	StringClass
	IdentClass
	KeywordClass
	OperatorClass
	PunctuationClass
	EOFClass
)

func (c Class) String() string {
	switch c {
	case NumberClass:
		return "number"
	case StringClass:
		return "string"
	case IdentClass:
		return "identifier"
	case KeywordClass:
		return "keyword"
	case OperatorClass:
		return "operator"
	case PunctuationClass:
		return "punctuation"
	case EOFClass:
		return "end of input"
	default:
		panic(fmt.Sprintf("Class.String(): received illegal token class: %d", c))
	}
}

func (tk TokenKind) Class() Class {
	switch {
	case tk == EOF:
		return EOFClass
	case tk == NUMBER:
		return NumberClass
	case tk == STRING || tk == INTERP_STRING:
		return StringClass
	case tk == IDENT:
		return IdentClass
	case tk >= PLUS && tk <= QMARK:
		return OperatorClass
	case tk >= LET:
		return KeywordClass
	default:
		return PunctuationClass
	}
}

type Metadata struct {
	FileName string

	Line      int
	Column    int
	EndColumn int
	Offset    int
	Length    int
}

// InterpPart is one piece of an interpolated string: either decoded text or
// the tokens of a single embedded expression (terminated by EOF).
type InterpPart struct {
	Text   string
	Tokens []Token
	Span   source.Span
}

func (p InterpPart) IsExpr() bool {
	return p.Tokens != nil
}

type Token struct {
	Kind  TokenKind
	Value string
	// Literal holds the decoded contents of a STRING token.
	Literal string
	// Parts holds the pieces of an INTERP_STRING token.
	Parts []InterpPart

	Metadata Metadata
}

func (t Token) Pos() source.Position {
	return source.Position{
		Line:   t.Metadata.Line,
		Column: t.Metadata.Column,
		Offset: t.Metadata.Offset,
	}
}

func (t Token) End() source.Position {
	return source.Position{
		Line:   t.Metadata.Line,
		Column: t.Metadata.EndColumn,
		Offset: t.Metadata.Offset + t.Metadata.Length,
	}
}

func (t Token) Span() source.Span {
	return source.NewSpan(t.Pos(), t.End())
}

func (t Token) hasActualValue() bool {
	switch t.Kind {
	case NUMBER, STRING, INTERP_STRING, IDENT:
		return true
	}

	return false
}

func (t Token) String() string {
	if !t.hasActualValue() {
		return fmt.Sprintf("%s() at %d:%d", t.Kind, t.Metadata.Line, t.Metadata.Column+1)
	}

	return fmt.Sprintf("%s(%s) at %d:%d", t.Kind, t.Value, t.Metadata.Line, t.Metadata.Column+1)
}

// Describe renders the token for "unexpected ..." messages.
func (t Token) Describe() string {
	switch t.Kind {
	case EOF:
		return "end of input"
	case NEWLINE:
		return "newline"
	}
	if t.Kind.Class() == KeywordClass {
		return fmt.Sprintf("keyword '%s'", t.Value)
	}
	return fmt.Sprintf("'%s'", t.Value)
}

var symbols = map[TokenKind]string{
	PLUS:       "+",
	MINUS:      "-",
	ASTERISK:   "*",
	SLASH:      "/",
	PERCENT:    "%",
	ASSIGN:     "=",
	ADD_ASSIGN: "+=",
	SUB_ASSIGN: "-=",
	MUL_ASSIGN: "*=",
	DIV_ASSIGN: "/=",
	MOD_ASSIGN: "%=",
	LAND:       "&&",
	LOR:        "||",
	EQ:         "==",
	NEQ:        "!=",
	LT:         "<",
	LEQ:        "<=",
	GT:         ">",
	GEQ:        ">=",
	XMARK:      "!",
	QMARK:      "?",
	LPAREN:     "(",
	LBRACKET:   "[",
	LBRACE:     "{",
	RPAREN:     ")",
	RBRACKET:   "]",
	RBRACE:     "}",
	COLON:      ":",
	SEMICOLON:  ";",
	DOT:        ".",
	COMMA:      ",",
}

// Symbol is the source spelling of a kind, quoted, or a description for
// kinds without a fixed spelling.
func (tk TokenKind) Symbol() string {
	if s, ok := symbols[tk]; ok {
		return "'" + s + "'"
	}
	for word, kind := range keywords {
		if kind == tk {
			return "'" + word + "'"
		}
	}

	switch tk {
	case EOF:
		return "end of input"
	case NEWLINE:
		return "newline"
	case NUMBER:
		return "number"
	case STRING, INTERP_STRING:
		return "string"
	default:
		return "identifier"
	}
}
