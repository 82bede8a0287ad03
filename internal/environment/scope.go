package environment

import (
	"fmt"

	"github.com/kievzenit/sonapy/internal/ast"
)

type ScopeKind int

const (
	BuiltinScope ScopeKind = iota
	ModuleScope
	FunctionScope
	BlockScope
	ClassScope
)

func (k ScopeKind) String() string {
	switch k {
	case BuiltinScope:
		return "builtin"
	case ModuleScope:
		return "module"
	case FunctionScope:
		return "function"
	case BlockScope:
		return "block"
	case ClassScope:
		return "class"
	default:
		panic(fmt.Sprintf("ScopeKind.String(): received illegal scope kind: %d", k))
	}
}

type BindingKind int

const (
	LetBinding BindingKind = iota
	ConstBinding
	FuncBinding
	ClassBinding
	ParamBinding
	ImportBinding
	SelfBinding
	LoopBinding
	CatchBinding
	BuiltinBinding
)

func (k BindingKind) String() string {
	switch k {
	case LetBinding:
		return "let"
	case ConstBinding:
		return "const"
	case FuncBinding:
		return "func"
	case ClassBinding:
		return "class"
	case ParamBinding:
		return "param"
	case ImportBinding:
		return "import"
	case SelfBinding:
		return "self"
	case LoopBinding:
		return "loop variable"
	case CatchBinding:
		return "catch variable"
	case BuiltinBinding:
		return "builtin"
	default:
		panic(fmt.Sprintf("BindingKind.String(): received illegal binding kind: %d", k))
	}
}

// Binding is a declared name.
type Binding struct {
	Name string
	Kind BindingKind
	// EmitName is the Python identifier used for the binding. For builtin
	// constants it is the literal text that replaces the name.
	EmitName string

	Scope *Scope
	// Ident is the declaring occurrence; nil for builtins and self.
	Ident *ast.Ident

	declared bool
}

// Scope is one level of the lexical scope chain.
type Scope struct {
	Kind   ScopeKind
	Parent *Scope
	// Node is the syntax node that opened the scope; nil for the builtin scope.
	Node ast.Node

	bindings map[string]*Binding

	// unit is the scope owning the Python namespace this scope's bindings
	// live in: the scope itself, or for blocks the nearest enclosing
	// module, function or class scope.
	unit  *Scope
	names map[string]bool
}

func newScope(kind ScopeKind, parent *Scope, node ast.Node) *Scope {
	s := &Scope{
		Kind:     kind,
		Parent:   parent,
		Node:     node,
		bindings: make(map[string]*Binding),
	}

	if kind == BlockScope {
		s.unit = parent.unit
	} else {
		s.unit = s
		s.names = make(map[string]bool)
	}

	return s
}

// Lookup finds a binding declared directly in s.
func (s *Scope) Lookup(name string) (*Binding, bool) {
	b, ok := s.bindings[name]
	return b, ok
}

// Unit returns the scope owning s's Python namespace.
func (s *Scope) Unit() *Scope {
	return s.unit
}

func (s *Scope) define(b *Binding) {
	b.Scope = s
	s.bindings[b.Name] = b
	s.unit.names[b.EmitName] = true
}
