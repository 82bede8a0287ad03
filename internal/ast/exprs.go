package ast

import (
	"github.com/kievzenit/sonapy/internal/lexer"
	"github.com/kievzenit/sonapy/internal/source"
)

type NumberLit struct {
	expr

	Raw string
}

func NewNumberLit(span source.Span, raw string) *NumberLit {
	return &NumberLit{expr: expr{node{span}}, Raw: raw}
}

type StringLit struct {
	expr

	// Value is the decoded string.
	Value string
}

func NewStringLit(span source.Span, value string) *StringLit {
	return &StringLit{expr: expr{node{span}}, Value: value}
}

// InterpPart is literal text when X is nil, otherwise an embedded expression.
type InterpPart struct {
	Text string
	X    Expr
}

type InterpString struct {
	expr

	Parts []InterpPart
}

func NewInterpString(span source.Span, parts []InterpPart) *InterpString {
	return &InterpString{expr: expr{node{span}}, Parts: parts}
}

type BoolLit struct {
	expr

	Value bool
}

func NewBoolLit(span source.Span, value bool) *BoolLit {
	return &BoolLit{expr: expr{node{span}}, Value: value}
}

type NullLit struct{ expr }

func NewNullLit(span source.Span) *NullLit {
	return &NullLit{expr{node{span}}}
}

// Ident is a name occurrence, either a reference or a binding position.
type Ident struct {
	expr

	Name string
}

func NewIdent(span source.Span, name string) *Ident {
	return &Ident{expr: expr{node{span}}, Name: name}
}

type BinaryExpr struct {
	expr

	// Op is normalised: `and`/`or` are stored as LAND/LOR.
	Op    lexer.TokenKind
	Left  Expr
	Right Expr
}

func NewBinaryExpr(span source.Span, op lexer.TokenKind, left, right Expr) *BinaryExpr {
	return &BinaryExpr{expr: expr{node{span}}, Op: op, Left: left, Right: right}
}

type UnaryExpr struct {
	expr

	// Op is MINUS, PLUS or XMARK (`not` is stored as XMARK).
	Op lexer.TokenKind
	X  Expr
}

func NewUnaryExpr(span source.Span, op lexer.TokenKind, x Expr) *UnaryExpr {
	return &UnaryExpr{expr: expr{node{span}}, Op: op, X: x}
}

// ConditionalExpr is `cond ? then : els`.
type ConditionalExpr struct {
	expr

	Cond Expr
	Then Expr
	Else Expr
}

func NewConditionalExpr(span source.Span, cond, then, els Expr) *ConditionalExpr {
	return &ConditionalExpr{expr: expr{node{span}}, Cond: cond, Then: then, Else: els}
}

type CallExpr struct {
	expr

	Callee Expr
	Args   []Expr
}

func NewCallExpr(span source.Span, callee Expr, args []Expr) *CallExpr {
	return &CallExpr{expr: expr{node{span}}, Callee: callee, Args: args}
}

// MemberExpr is `x.name`. Name is a plain attribute name, never resolved.
type MemberExpr struct {
	expr

	X    Expr
	Name string
}

func NewMemberExpr(span source.Span, x Expr, name string) *MemberExpr {
	return &MemberExpr{expr: expr{node{span}}, X: x, Name: name}
}

type IndexExpr struct {
	expr

	X     Expr
	Index Expr
}

func NewIndexExpr(span source.Span, x, index Expr) *IndexExpr {
	return &IndexExpr{expr: expr{node{span}}, X: x, Index: index}
}

type ArrayLit struct {
	expr

	Elems []Expr
}

func NewArrayLit(span source.Span, elems []Expr) *ArrayLit {
	return &ArrayLit{expr: expr{node{span}}, Elems: elems}
}

// DictLit keys are expressions; a bare identifier key is stored as a
// StringLit by the parser.
type DictLit struct {
	expr

	Entries []*DictEntry
}

func NewDictLit(span source.Span, entries []*DictEntry) *DictLit {
	return &DictLit{expr: expr{node{span}}, Entries: entries}
}

// SuperExpr only appears as the receiver of a MemberExpr.
type SuperExpr struct{ expr }

func NewSuperExpr(span source.Span) *SuperExpr {
	return &SuperExpr{expr{node{span}}}
}
