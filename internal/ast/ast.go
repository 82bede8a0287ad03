package ast

import "github.com/kievzenit/sonapy/internal/source"

// Node is implemented by every syntax tree node. The set of node kinds is
// closed: the marker methods are unexported, so only this package can add
// kinds, and a node can only be built through its constructor, which takes
// the span as an argument.
type Node interface {
	Span() source.Span
	astNode()
}

type Stmt interface {
	Node
	stmtNode()
}

type Expr interface {
	Node
	exprNode()
}

type node struct {
	span source.Span
}

func (n node) Span() source.Span { return n.span }
func (node) astNode()            {}

type stmt struct{ node }

func (stmt) stmtNode() {}

type expr struct{ node }

func (expr) exprNode() {}

// Program is the root of a parsed file.
type Program struct {
	node

	FileName string
	Body     []Stmt
}

func NewProgram(span source.Span, fileName string, body []Stmt) *Program {
	return &Program{node: node{span}, FileName: fileName, Body: body}
}

// Param is a function parameter with an optional default value.
type Param struct {
	node

	Name    *Ident
	Default Expr
}

func NewParam(span source.Span, name *Ident, def Expr) *Param {
	return &Param{node: node{span}, Name: name, Default: def}
}

// ImportName is one entry of a from-import list.
type ImportName struct {
	node

	Name  *Ident
	Alias *Ident
}

func NewImportName(span source.Span, name, alias *Ident) *ImportName {
	return &ImportName{node: node{span}, Name: name, Alias: alias}
}

// Bound returns the identifier the import binds in the importing scope.
func (n *ImportName) Bound() *Ident {
	if n.Alias != nil {
		return n.Alias
	}
	return n.Name
}

type CatchClause struct {
	node

	// Var is nil for a bare catch.
	Var  *Ident
	Body *Block
}

func NewCatchClause(span source.Span, v *Ident, body *Block) *CatchClause {
	return &CatchClause{node: node{span}, Var: v, Body: body}
}

type DictEntry struct {
	node

	Key   Expr
	Value Expr
}

func NewDictEntry(span source.Span, key, value Expr) *DictEntry {
	return &DictEntry{node: node{span}, Key: key, Value: value}
}
