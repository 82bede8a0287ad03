package emitter

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kievzenit/sonapy/internal/ast"
	"github.com/kievzenit/sonapy/internal/lexer"
	"github.com/kievzenit/sonapy/internal/source"
)

// Python operator precedence, lowest first.
const (
	precLowest = iota
	precConditional
	precOr
	precAnd
	precNot
	precCompare
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
	precAtom
)

type binaryOp struct {
	text string
	prec int
}

var binaryOps = map[lexer.TokenKind]binaryOp{
	lexer.LOR:      {"or", precOr},
	lexer.LAND:     {"and", precAnd},
	lexer.EQ:       {"==", precCompare},
	lexer.NEQ:      {"!=", precCompare},
	lexer.LT:       {"<", precCompare},
	lexer.LEQ:      {"<=", precCompare},
	lexer.GT:       {">", precCompare},
	lexer.GEQ:      {">=", precCompare},
	lexer.IN:       {"in", precCompare},
	lexer.PLUS:     {"+", precAdditive},
	lexer.MINUS:    {"-", precAdditive},
	lexer.ASTERISK: {"*", precMultiplicative},
	lexer.SLASH:    {"/", precMultiplicative},
	lexer.PERCENT:  {"%", precMultiplicative},
}

func nodeSpan(node ast.Node) source.Span {
	if node == nil {
		return source.Span{}
	}
	return node.Span()
}

// emitForExpr returns the Python text of x, parenthesised when its own
// precedence is below minPrec.
func (e *Emitter) emitForExpr(x ast.Expr, minPrec int) string {
	code, prec := e.emitForExprPrec(x)
	if prec < minPrec {
		return "(" + code + ")"
	}
	return code
}

func (e *Emitter) emitForExprPrec(expr ast.Expr) (string, int) {
	switch x := expr.(type) {
	case *ast.NumberLit:
		return pythonNumber(x.Raw), precAtom
	case *ast.StringLit:
		return e.stringLit(x.Value), precAtom
	case *ast.InterpString:
		return e.emitForInterpString(x)
	case *ast.BoolLit:
		if x.Value {
			return "True", precAtom
		}
		return "False", precAtom
	case *ast.NullLit:
		return "None", precAtom
	case *ast.Ident:
		return e.info.Name(x), precAtom
	case *ast.BinaryExpr:
		return e.emitForBinaryExpr(x)
	case *ast.UnaryExpr:
		return e.emitForUnaryExpr(x)
	case *ast.ConditionalExpr:
		then := e.emitForExpr(x.Then, precConditional+1)
		cond := e.emitForExpr(x.Cond, precConditional+1)
		els := e.emitForExpr(x.Else, precConditional)
		return then + " if " + cond + " else " + els, precConditional
	case *ast.CallExpr:
		return e.emitForExpr(x.Callee, precPostfix) + "(" + e.emitForExprList(x.Args) + ")", precPostfix
	case *ast.MemberExpr:
		return e.emitForMemberExpr(x), precPostfix
	case *ast.IndexExpr:
		return e.emitForExpr(x.X, precPostfix) + "[" + e.emitForExpr(x.Index, precLowest) + "]", precPostfix
	case *ast.ArrayLit:
		return "[" + e.emitForExprList(x.Elems) + "]", precAtom
	case *ast.DictLit:
		entries := make([]string, len(x.Entries))
		for i, entry := range x.Entries {
			entries[i] = e.emitForExpr(entry.Key, precLowest) + ": " + e.emitForExpr(entry.Value, precLowest)
		}
		return "{" + strings.Join(entries, ", ") + "}", precAtom
	case *ast.SuperExpr:
		return "super()", precPostfix
	default:
		e.fail(expr, "no generation rule for expression %T", expr)
		return "", precAtom
	}
}

func (e *Emitter) emitForExprList(list []ast.Expr) string {
	parts := make([]string, len(list))
	for i, x := range list {
		parts[i] = e.emitForExpr(x, precLowest)
	}
	return strings.Join(parts, ", ")
}

func (e *Emitter) emitForBinaryExpr(x *ast.BinaryExpr) (string, int) {
	op, ok := binaryOps[x.Op]
	if !ok {
		e.fail(x, "no generation rule for binary operator %s", x.Op)
	}

	// Python comparisons chain, so neither operand may be a comparison.
	leftMin := op.prec
	if op.prec == precCompare {
		leftMin = op.prec + 1
	}

	left := e.emitForExpr(x.Left, leftMin)
	right := e.emitForExpr(x.Right, op.prec+1)

	return left + " " + op.text + " " + right, op.prec
}

func (e *Emitter) emitForUnaryExpr(x *ast.UnaryExpr) (string, int) {
	switch x.Op {
	case lexer.XMARK:
		return "not " + e.emitForExpr(x.X, precNot), precNot
	case lexer.MINUS:
		return "-" + e.emitForExpr(x.X, precUnary), precUnary
	case lexer.PLUS:
		return "+" + e.emitForExpr(x.X, precUnary), precUnary
	default:
		e.fail(x, "no generation rule for unary operator %s", x.Op)
		return "", precAtom
	}
}

func (e *Emitter) emitForMemberExpr(x *ast.MemberExpr) string {
	if _, ok := x.X.(*ast.SuperExpr); ok {
		return "super()." + e.memberName(x.Name)
	}

	receiver := e.emitForExpr(x.X, precPostfix)
	if _, ok := x.X.(*ast.NumberLit); ok {
		// `1.real` would lex as a float in Python.
		receiver = "(" + receiver + ")"
	}
	return receiver + "." + e.memberName(x.Name)
}

// memberName spells an attribute. `init` always names the constructor.
func (e *Emitter) memberName(name string) string {
	if name == "init" {
		return "__init__"
	}
	return e.info.PythonName(name)
}

// pythonNumber drops the leading zeros of the integer part, which Python
// rejects in integer literals.
func pythonNumber(raw string) string {
	digits := strings.TrimLeft(raw, "0")
	if digits == "" || !isDigit(digits[0]) {
		return "0" + digits
	}
	return digits
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

// emitForInterpString generates an f-string. Before Python 3.12 an f-string
// expression cannot hold a backslash, a comment character or the enclosing
// quote, so nested strings use single quotes and the whole literal falls
// back to str.format when an expression still contains a forbidden
// character. Inside an f-string expression a nested interpolation always
// uses str.format.
func (e *Emitter) emitForInterpString(s *ast.InterpString) (string, int) {
	if !hasExprParts(s) {
		var sb strings.Builder
		for _, part := range s.Parts {
			sb.WriteString(part.Text)
		}
		return e.stringLit(sb.String()), precAtom
	}

	if e.inFString {
		return e.emitForFormatCall(s, '\''), precPostfix
	}

	var sb strings.Builder
	sb.WriteString(`f"`)

	e.inFString = true
	for _, part := range s.Parts {
		if part.X == nil {
			writeEscaped(&sb, doubleBraces(part.Text), '"')
			continue
		}

		code := e.emitForExpr(part.X, precLowest)
		if strings.ContainsAny(code, `\#`) {
			e.inFString = false
			return e.emitForFormatCall(s, '"'), precPostfix
		}
		if strings.HasPrefix(code, "{") {
			code = " " + code
		}
		sb.WriteString("{" + code + "}")
	}
	e.inFString = false

	sb.WriteByte('"')
	return sb.String(), precAtom
}

func (e *Emitter) emitForFormatCall(s *ast.InterpString, q byte) string {
	var sb strings.Builder
	args := make([]ast.Expr, 0, len(s.Parts))

	sb.WriteByte(q)
	for _, part := range s.Parts {
		if part.X == nil {
			writeEscaped(&sb, doubleBraces(part.Text), q)
			continue
		}
		sb.WriteString("{}")
		args = append(args, part.X)
	}
	sb.WriteByte(q)

	return sb.String() + ".format(" + e.emitForExprList(args) + ")"
}

func hasExprParts(s *ast.InterpString) bool {
	for _, part := range s.Parts {
		if part.X != nil {
			return true
		}
	}
	return false
}

func doubleBraces(text string) string {
	return strings.NewReplacer("{", "{{", "}", "}}").Replace(text)
}

// stringLit returns a string literal, single-quoted inside f-string expressions.
func (e *Emitter) stringLit(s string) string {
	if e.inFString {
		return quote(s, '\'')
	}
	return quote(s, '"')
}

func quote(s string, q byte) string {
	var sb strings.Builder
	sb.WriteByte(q)
	writeEscaped(&sb, s, q)
	sb.WriteByte(q)
	return sb.String()
}

func writeEscaped(sb *strings.Builder, s string, q byte) {
	for _, r := range s {
		switch {
		case r == '\\':
			sb.WriteString(`\\`)
		case r == rune(q):
			sb.WriteByte('\\')
			sb.WriteByte(q)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(sb, `\x%02x`, r)
		case r > 0x7f && !unicode.IsPrint(r):
			if r <= 0xffff {
				fmt.Fprintf(sb, `\u%04x`, r)
			} else {
				fmt.Fprintf(sb, `\U%08x`, r)
			}
		default:
			sb.WriteRune(r)
		}
	}
}
