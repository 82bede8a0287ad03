package environment

import (
	"fmt"
	"sort"

	"github.com/kievzenit/sonapy/internal/ast"
	"github.com/kievzenit/sonapy/internal/builtins"
	"github.com/kievzenit/sonapy/internal/compiler_errors"
	"github.com/kievzenit/sonapy/internal/source"
)

type ResolutionKind int

const (
	Unresolved ResolutionKind = iota
	// Resolved names a binding whose declaration has already been visited.
	Resolved
	// Deferred names a binding declared later in an enclosing block and
	// referenced from a function body, which only runs after the declaration.
	Deferred
)

func (k ResolutionKind) String() string {
	switch k {
	case Unresolved:
		return "unresolved"
	case Resolved:
		return "resolved"
	case Deferred:
		return "deferred"
	default:
		panic(fmt.Sprintf("ResolutionKind.String(): received illegal resolution kind: %d", k))
	}
}

// Resolution is the result of looking up one identifier occurrence. Depth
// counts the scopes walked from the innermost one.
type Resolution struct {
	Kind    ResolutionKind
	Binding *Binding
	Depth   int
}

// Info is the side table produced by the builder. The syntax tree itself is
// never modified.
type Info struct {
	Uses map[*ast.Ident]Resolution
	Defs map[*ast.Ident]*Binding
	// Scopes maps the node that opened a scope to it. A function body block
	// maps to the function scope.
	Scopes map[ast.Node]*Scope
	// Globals and Nonlocals list, per function, the emitted names of outer
	// bindings the function assigns to.
	Globals   map[*ast.FuncDecl][]string
	Nonlocals map[*ast.FuncDecl][]string

	Universe *Scope

	// escapes spells the reserved names of the program.
	escapes map[string]string
}

func newInfo() *Info {
	return &Info{
		Uses:      make(map[*ast.Ident]Resolution),
		Defs:      make(map[*ast.Ident]*Binding),
		Scopes:    make(map[ast.Node]*Scope),
		Globals:   make(map[*ast.FuncDecl][]string),
		Nonlocals: make(map[*ast.FuncDecl][]string),
	}
}

// BindingOf returns the binding an identifier declares or refers to.
func (info *Info) BindingOf(id *ast.Ident) *Binding {
	if b, ok := info.Defs[id]; ok {
		return b
	}
	if r, ok := info.Uses[id]; ok {
		return r.Binding
	}
	return nil
}

// Name returns the Python text for an identifier occurrence.
func (info *Info) Name(id *ast.Ident) string {
	if b := info.BindingOf(id); b != nil {
		return b.EmitName
	}
	return info.PythonName(id.Name)
}

type funcContext struct {
	decl  *ast.FuncDecl
	scope *Scope
	// class is set when decl is a method.
	class  *ast.ClassDecl
	parent *funcContext
}

// Builder resolves every identifier of a program. It reports all scope
// errors it finds rather than stopping at the first.
type Builder struct {
	fileName string
	registry *builtins.Registry
	eh       compiler_errors.ErrorHandler

	info  *Info
	scope *Scope
	fn    *funcContext
	class *ast.ClassDecl

	// sourceNames and generated keep fresh and escaped names from capturing
	// a name used anywhere in the program.
	sourceNames map[string]bool
	generated   map[string]bool
}

func NewBuilder(fileName string, registry *builtins.Registry) *Builder {
	if registry == nil {
		registry = builtins.Default()
	}

	return &Builder{
		fileName: fileName,
		registry: registry,
		eh:       compiler_errors.NewErrorHandler(nil),
	}
}

// Resolve builds the environment of prog with the given builtins (the
// default set when nil).
func Resolve(prog *ast.Program, registry *builtins.Registry) (*Info, error) {
	return NewBuilder(prog.FileName, registry).Build(prog)
}

// Build returns the side table and, if any scope error was found, a
// compiler_errors.List holding all of them in source order.
func (b *Builder) Build(prog *ast.Program) (*Info, error) {
	b.info = newInfo()
	b.sourceNames = make(map[string]bool)
	b.generated = make(map[string]bool)
	ast.Inspect(prog, func(n ast.Node) {
		switch n := n.(type) {
		case *ast.Ident:
			b.sourceNames[n.Name] = true
		case *ast.MemberExpr:
			b.sourceNames[n.Name] = true
		}
	})

	universe := newScope(BuiltinScope, nil, nil)
	for _, name := range b.registry.Names() {
		builtin, _ := b.registry.Lookup(name)
		universe.define(&Binding{
			Name:     name,
			Kind:     BuiltinBinding,
			EmitName: builtin.Python,
			declared: true,
		})
		b.sourceNames[name] = true
	}
	b.info.Universe = universe
	b.info.escapes = escapeReserved(b.sourceNames)

	b.scope = universe
	b.enter(ModuleScope, prog)
	b.visitStmts(prog.Body)
	b.leave()

	if b.eh.HasErrors() {
		// The declaration pass of a block reports before its statements do.
		errs := b.eh.Errors()
		sort.SliceStable(errs, func(i, j int) bool {
			return errs[i].Span.Start.Before(errs[j].Span.Start)
		})
		return b.info, errs
	}
	return b.info, nil
}

func (b *Builder) errorf(span source.Span, format string, args ...any) {
	b.eh.AddError(compiler_errors.Newf(compiler_errors.ScopeError, b.fileName, span, format, args...))
}

func (b *Builder) enter(kind ScopeKind, node ast.Node) *Scope {
	b.scope = newScope(kind, b.scope, node)
	b.info.Scopes[node] = b.scope
	return b.scope
}

func (b *Builder) leave() {
	b.scope = b.scope.Parent
}

// declare adds a binding for id to the current scope.
func (b *Builder) declare(id *ast.Ident, kind BindingKind) *Binding {
	if prev, ok := b.scope.bindings[id.Name]; ok {
		if prev.Ident != nil {
			b.errorf(id.Span(), "'%s' is already declared in this scope (previous declaration at %s)", id.Name, prev.Ident.Span().Start)
		} else {
			b.errorf(id.Span(), "'%s' is already declared in this scope", id.Name)
		}
		b.info.Defs[id] = prev
		return prev
	}

	bind := &Binding{
		Name:     id.Name,
		Kind:     kind,
		EmitName: b.emitName(id.Name),
		Ident:    id,
	}
	b.scope.define(bind)
	b.info.Defs[id] = bind

	return bind
}

// emitName picks the Python identifier for a new binding in the current
// scope. A block binding is renamed when its name is already taken in the
// enclosing Python namespace or would hide a visible outer binding, since
// Python has no block scopes.
func (b *Builder) emitName(name string) string {
	base := b.info.PythonName(name)
	if b.scope.Kind != BlockScope {
		return base
	}

	unit := b.scope.unit
	if !unit.names[base] && !b.visibleFrom(b.scope.Parent, name) {
		return base
	}

	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if !unit.names[candidate] && !b.sourceNames[candidate] && !b.generated[candidate] {
			b.generated[candidate] = true
			return candidate
		}
	}
}

func (b *Builder) visibleFrom(s *Scope, name string) bool {
	for ; s != nil; s = s.Parent {
		if _, ok := s.bindings[name]; ok {
			return true
		}
	}
	return false
}

// lookup walks the scope chain. Class scopes are skipped once a function
// boundary has been crossed. tdz reports a binding of the same execution
// unit whose declaration has not been reached yet.
func (b *Builder) lookup(name string) (res Resolution, tdz bool) {
	crossed := false
	depth := 0
	for s := b.scope; s != nil; s = s.Parent {
		if s.Kind == ClassScope && crossed {
			depth++
			continue
		}

		if bind, ok := s.bindings[name]; ok {
			switch {
			case bind.declared:
				return Resolution{Kind: Resolved, Binding: bind, Depth: depth}, false
			case crossed:
				return Resolution{Kind: Deferred, Binding: bind, Depth: depth}, false
			default:
				return Resolution{Kind: Unresolved, Binding: bind, Depth: depth}, true
			}
		}

		if s.Kind == FunctionScope {
			crossed = true
		}
		depth++
	}

	return Resolution{Kind: Unresolved}, false
}

func (b *Builder) resolve(id *ast.Ident) Resolution {
	res, tdz := b.lookup(id.Name)
	b.info.Uses[id] = res

	switch {
	case tdz:
		b.errorf(id.Span(), "'%s' is used before its declaration", id.Name)
	case res.Kind != Unresolved:
	case id.Name == "self":
		b.errorf(id.Span(), "'self' used outside a method")
	default:
		b.errorf(id.Span(), "undefined name '%s'", id.Name)
	}

	return res
}

func (b *Builder) markDeclared(id *ast.Ident) {
	if bind, ok := b.info.Defs[id]; ok {
		bind.declared = true
	}
}

// collect is the declaration pass of a block: every name declared directly
// in stmts is bound before any statement is resolved.
func (b *Builder) collect(stmts []ast.Stmt) {
	for _, s := range stmts {
		switch s := s.(type) {
		case *ast.VarDecl:
			kind := LetBinding
			if s.Const {
				kind = ConstBinding
			}
			if b.scope.Kind == ClassScope && s.Name.Name == "init" {
				b.errorf(s.Name.Span(), "'init' is reserved for the class constructor")
			}
			b.declare(s.Name, kind)

		case *ast.FuncDecl:
			bind := b.declare(s.Name, FuncBinding)
			if s.Method && s.Name.Name == "init" && bind.Ident == s.Name {
				bind.EmitName = "__init__"
			}

		case *ast.ClassDecl:
			b.declare(s.Name, ClassBinding)

		case *ast.ImportStmt:
			for _, id := range importedNames(s) {
				b.declare(id, ImportBinding)
			}
		}
	}
}

// importedNames returns the identifiers an import binds.
func importedNames(s *ast.ImportStmt) []*ast.Ident {
	if s.IsFrom() {
		ids := make([]*ast.Ident, len(s.Names))
		for i, name := range s.Names {
			ids[i] = name.Bound()
		}
		return ids
	}
	if s.Alias != nil {
		return []*ast.Ident{s.Alias}
	}
	return []*ast.Ident{s.Module[0]}
}

func (b *Builder) visitStmts(stmts []ast.Stmt) {
	b.collect(stmts)
	for _, s := range stmts {
		b.visitStmt(s)
	}
}

func (b *Builder) visitBlock(block *ast.Block) {
	b.enter(BlockScope, block)
	b.visitStmts(block.Stmts)
	b.leave()
}

func (b *Builder) visitStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		if s.Value != nil {
			b.visitExpr(s.Value)
		}
		b.markDeclared(s.Name)

	case *ast.AssignStmt:
		b.visitExpr(s.Value)
		for _, target := range s.Targets {
			b.visitTarget(target)
		}

	case *ast.FuncDecl:
		b.visitFunc(s)

	case *ast.ClassDecl:
		b.visitClass(s)

	case *ast.ReturnStmt:
		if s.Value != nil {
			b.visitExpr(s.Value)
		}

	case *ast.IfStmt:
		b.visitExpr(s.Cond)
		b.visitBlock(s.Then)
		switch els := s.Else.(type) {
		case *ast.IfStmt:
			b.visitStmt(els)
		case *ast.Block:
			b.visitBlock(els)
		}

	case *ast.WhileStmt:
		b.visitExpr(s.Cond)
		b.visitBlock(s.Body)

	case *ast.ForStmt:
		b.visitExpr(s.Iter)
		b.enter(BlockScope, s)
		b.declare(s.Var, LoopBinding).declared = true
		b.visitBlock(s.Body)
		b.leave()

	case *ast.TryStmt:
		b.visitBlock(s.Body)
		if s.Catch != nil {
			b.enter(BlockScope, s.Catch)
			if s.Catch.Var != nil {
				b.declare(s.Catch.Var, CatchBinding).declared = true
			}
			b.visitBlock(s.Catch.Body)
			b.leave()
		}
		if s.Finally != nil {
			b.visitBlock(s.Finally)
		}

	case *ast.ImportStmt:
		for _, id := range importedNames(s) {
			b.markDeclared(id)
		}

	case *ast.ExprStmt:
		b.visitExpr(s.X)

	case *ast.Block:
		b.visitBlock(s)

	case *ast.BreakStmt, *ast.ContinueStmt:

	default:
		panic(fmt.Sprintf("environment: unexpected statement %T", stmt))
	}
}

func (b *Builder) visitFunc(fn *ast.FuncDecl) {
	b.markDeclared(fn.Name)

	// Defaults are evaluated where the function is defined.
	for _, p := range fn.Params {
		if p.Default != nil {
			b.visitExpr(p.Default)
		}
	}

	scope := b.enter(FunctionScope, fn)
	b.info.Scopes[fn.Body] = scope

	ctx := &funcContext{decl: fn, scope: scope, parent: b.fn}
	if fn.Method {
		ctx.class = b.class
		scope.define(&Binding{Name: "self", Kind: SelfBinding, EmitName: "self", declared: true})
	}
	for _, p := range fn.Params {
		b.declare(p.Name, ParamBinding).declared = true
	}

	class := b.class
	b.fn = ctx
	b.class = nil
	b.visitStmts(fn.Body.Stmts)
	b.class = class
	b.fn = ctx.parent

	b.leave()
}

func (b *Builder) visitClass(c *ast.ClassDecl) {
	if c.Super != nil {
		b.resolve(c.Super)
	}

	b.enter(ClassScope, c)
	b.collect(c.Members)

	class := b.class
	b.class = c
	for _, member := range c.Members {
		b.visitStmt(member)
	}
	b.class = class

	b.leave()
	b.markDeclared(c.Name)
}

func (b *Builder) visitTarget(target ast.Expr) {
	switch t := target.(type) {
	case *ast.Ident:
		res, tdz := b.lookup(t.Name)
		b.info.Uses[t] = res
		if tdz {
			b.errorf(t.Span(), "'%s' is used before its declaration", t.Name)
			return
		}
		if res.Kind == Unresolved {
			b.errorf(t.Span(), "cannot assign to undeclared name '%s'", t.Name)
			return
		}

		switch res.Binding.Kind {
		case ConstBinding:
			b.errorf(t.Span(), "cannot assign to constant '%s'", t.Name)
		case BuiltinBinding:
			b.errorf(t.Span(), "cannot assign to builtin '%s'", t.Name)
		case SelfBinding:
			b.errorf(t.Span(), "cannot assign to 'self'")
		default:
			b.recordOuterAssign(res.Binding)
		}

	case *ast.MemberExpr:
		b.visitExpr(t.X)

	case *ast.IndexExpr:
		b.visitExpr(t.X)
		b.visitExpr(t.Index)

	default:
		b.visitExpr(target)
	}
}

// recordOuterAssign notes a global or nonlocal declaration when the current
// function assigns a binding owned by another Python namespace.
func (b *Builder) recordOuterAssign(bind *Binding) {
	if b.fn == nil {
		return
	}
	owner := bind.Scope.unit
	if owner == b.scope.unit {
		return
	}

	decl := b.fn.decl
	switch owner.Kind {
	case ModuleScope:
		b.info.Globals[decl] = appendUnique(b.info.Globals[decl], bind.EmitName)
	case FunctionScope:
		b.info.Nonlocals[decl] = appendUnique(b.info.Nonlocals[decl], bind.EmitName)
	}
}

func appendUnique(list []string, name string) []string {
	for _, n := range list {
		if n == name {
			return list
		}
	}
	return append(list, name)
}

func (b *Builder) visitExpr(expr ast.Expr) {
	switch x := expr.(type) {
	case *ast.Ident:
		b.resolve(x)

	case *ast.NumberLit, *ast.StringLit, *ast.BoolLit, *ast.NullLit:

	case *ast.InterpString:
		for _, part := range x.Parts {
			if part.X != nil {
				b.visitExpr(part.X)
			}
		}

	case *ast.BinaryExpr:
		b.visitExpr(x.Left)
		b.visitExpr(x.Right)

	case *ast.UnaryExpr:
		b.visitExpr(x.X)

	case *ast.ConditionalExpr:
		b.visitExpr(x.Cond)
		b.visitExpr(x.Then)
		b.visitExpr(x.Else)

	case *ast.CallExpr:
		b.visitExpr(x.Callee)
		for _, arg := range x.Args {
			b.visitExpr(arg)
		}

	case *ast.MemberExpr:
		b.visitExpr(x.X)

	case *ast.IndexExpr:
		b.visitExpr(x.X)
		b.visitExpr(x.Index)

	case *ast.ArrayLit:
		for _, elem := range x.Elems {
			b.visitExpr(elem)
		}

	case *ast.DictLit:
		for _, entry := range x.Entries {
			b.visitExpr(entry.Key)
			b.visitExpr(entry.Value)
		}

	case *ast.SuperExpr:
		switch {
		case b.fn == nil || b.fn.class == nil:
			b.errorf(x.Span(), "'super' used outside a method")
		case b.fn.class.Super == nil:
			b.errorf(x.Span(), "'super' used in class '%s' which has no superclass", b.fn.class.Name.Name)
		}

	default:
		panic(fmt.Sprintf("environment: unexpected expression %T", expr))
	}
}
