package ast

import (
	"github.com/kievzenit/sonapy/internal/lexer"
	"github.com/kievzenit/sonapy/internal/source"
)

// Block is a braced statement list. It is used both for bodies and for
// nested standalone blocks.
type Block struct {
	stmt

	Stmts []Stmt
}

func NewBlock(span source.Span, stmts []Stmt) *Block {
	return &Block{stmt: stmt{node{span}}, Stmts: stmts}
}

// VarDecl is a let or const declaration.
type VarDecl struct {
	stmt

	Const bool
	Name  *Ident
	// Value is nil for a bare `let x`.
	Value Expr
}

func NewVarDecl(span source.Span, isConst bool, name *Ident, value Expr) *VarDecl {
	return &VarDecl{stmt: stmt{node{span}}, Const: isConst, Name: name, Value: value}
}

// AssignStmt is `t1 = t2 = value` or a single compound assignment.
// Targets are identifiers, member or index expressions.
type AssignStmt struct {
	stmt

	Targets []Expr
	// Op is ASSIGN or one of the compound assignment kinds.
	Op    lexer.TokenKind
	Value Expr
}

func NewAssignStmt(span source.Span, targets []Expr, op lexer.TokenKind, value Expr) *AssignStmt {
	return &AssignStmt{stmt: stmt{node{span}}, Targets: targets, Op: op, Value: value}
}

type FuncDecl struct {
	stmt

	Name   *Ident
	Params []*Param
	Body   *Block
	// Method is set for functions declared directly in a class body.
	Method bool
}

func NewFuncDecl(span source.Span, name *Ident, params []*Param, body *Block, method bool) *FuncDecl {
	return &FuncDecl{stmt: stmt{node{span}}, Name: name, Params: params, Body: body, Method: method}
}

type ReturnStmt struct {
	stmt

	Value Expr
}

func NewReturnStmt(span source.Span, value Expr) *ReturnStmt {
	return &ReturnStmt{stmt: stmt{node{span}}, Value: value}
}

type IfStmt struct {
	stmt

	Cond Expr
	Then *Block
	// Else is nil, an *IfStmt (else if) or a *Block.
	Else Stmt
}

func NewIfStmt(span source.Span, cond Expr, then *Block, els Stmt) *IfStmt {
	return &IfStmt{stmt: stmt{node{span}}, Cond: cond, Then: then, Else: els}
}

type WhileStmt struct {
	stmt

	Cond Expr
	Body *Block
}

func NewWhileStmt(span source.Span, cond Expr, body *Block) *WhileStmt {
	return &WhileStmt{stmt: stmt{node{span}}, Cond: cond, Body: body}
}

type ForStmt struct {
	stmt

	Var  *Ident
	Iter Expr
	Body *Block
}

func NewForStmt(span source.Span, v *Ident, iter Expr, body *Block) *ForStmt {
	return &ForStmt{stmt: stmt{node{span}}, Var: v, Iter: iter, Body: body}
}

type BreakStmt struct{ stmt }

func NewBreakStmt(span source.Span) *BreakStmt {
	return &BreakStmt{stmt{node{span}}}
}

type ContinueStmt struct{ stmt }

func NewContinueStmt(span source.Span) *ContinueStmt {
	return &ContinueStmt{stmt{node{span}}}
}

type ClassDecl struct {
	stmt

	Name  *Ident
	Super *Ident
	// Members holds *FuncDecl methods and *VarDecl fields in source order.
	Members []Stmt
}

func NewClassDecl(span source.Span, name, super *Ident, members []Stmt) *ClassDecl {
	return &ClassDecl{stmt: stmt{node{span}}, Name: name, Super: super, Members: members}
}

// ImportStmt is either `import a.b [as c]` or `from a.b import x [as y], ...`.
type ImportStmt struct {
	stmt

	// Module holds the dotted path components.
	Module []*Ident
	Alias  *Ident
	Names  []*ImportName
}

func NewImportStmt(span source.Span, module []*Ident, alias *Ident, names []*ImportName) *ImportStmt {
	return &ImportStmt{stmt: stmt{node{span}}, Module: module, Alias: alias, Names: names}
}

func (s *ImportStmt) IsFrom() bool {
	return s.Names != nil
}

// ModulePath joins the module path components with dots.
func (s *ImportStmt) ModulePath() string {
	path := ""
	for i, part := range s.Module {
		if i > 0 {
			path += "."
		}
		path += part.Name
	}
	return path
}

type TryStmt struct {
	stmt

	Body    *Block
	Catch   *CatchClause
	Finally *Block
}

func NewTryStmt(span source.Span, body *Block, catch *CatchClause, finally *Block) *TryStmt {
	return &TryStmt{stmt: stmt{node{span}}, Body: body, Catch: catch, Finally: finally}
}

type ExprStmt struct {
	stmt

	X Expr
}

func NewExprStmt(span source.Span, x Expr) *ExprStmt {
	return &ExprStmt{stmt: stmt{node{span}}, X: x}
}
