package emitter

import (
	"strings"

	"github.com/kievzenit/sonapy/internal/ast"
	"github.com/kievzenit/sonapy/internal/compiler_errors"
	"github.com/kievzenit/sonapy/internal/environment"
	"github.com/kievzenit/sonapy/internal/lexer"
	"github.com/kievzenit/sonapy/internal/sourcemap"
)

const DefaultIndentWidth = 4

type Options struct {
	// IndentWidth is the number of spaces per indentation level. Zero
	// selects DefaultIndentWidth.
	IndentWidth int
	// Header is written verbatim before the program. Header lines get no
	// source map entries.
	Header string
}

// Emitter generates Python source from a resolved program.
type Emitter struct {
	fileName string
	info     *environment.Info
	indent   string
	header   string

	eh compiler_errors.ErrorHandler

	sb     strings.Builder
	line   int
	level  int
	srcMap *sourcemap.Map

	// inFString is set while an expression part of an f-string is generated.
	inFString bool
}

func NewEmitter(fileName string, info *environment.Info, opts Options) *Emitter {
	width := opts.IndentWidth
	if width <= 0 {
		width = DefaultIndentWidth
	}

	return &Emitter{
		fileName: fileName,
		info:     info,
		indent:   strings.Repeat(" ", width),
		header:   opts.Header,
	}
}

// Emit returns the Python text of prog with one source map entry per
// generated line. The emitter can be reused; every call starts fresh.
func (e *Emitter) Emit(prog *ast.Program) (code string, srcMap *sourcemap.Map, err error) {
	e.reset()
	defer compiler_errors.Catch(e.eh, &err)

	e.emitForHeader()
	e.emitForProgram(prog)

	return e.sb.String(), e.srcMap, nil
}

func (e *Emitter) reset() {
	e.eh = compiler_errors.NewErrorHandler(nil)
	e.sb.Reset()
	e.line = 0
	e.level = 0
	e.srcMap = sourcemap.New()
	e.inFString = false
}

// fail reports a node without a generation rule. It never returns.
func (e *Emitter) fail(node ast.Node, format string, args ...any) {
	d := compiler_errors.Newf(compiler_errors.CodeGenError, e.fileName, nodeSpan(node), format, args...)
	if node == nil {
		d.Span = nil
	}
	e.eh.AddError(d)
	e.eh.FailNow()
}

func (e *Emitter) emitForHeader() {
	if e.header == "" {
		return
	}

	for _, line := range strings.Split(strings.TrimSuffix(e.header, "\n"), "\n") {
		e.line++
		e.sb.WriteString(line)
		e.sb.WriteByte('\n')
	}
}

// emitLine writes one indented line and maps it to the start of node.
func (e *Emitter) emitLine(node ast.Node, code string) {
	e.line++
	column := 0
	for i := 0; i < e.level; i++ {
		e.sb.WriteString(e.indent)
		column += len(e.indent)
	}
	e.sb.WriteString(code)
	e.sb.WriteByte('\n')

	start := node.Span().Start
	if start.IsValid() {
		e.srcMap.Add(sourcemap.Entry{
			GenLine:    e.line,
			GenColumn:  column,
			OrigLine:   start.Line,
			OrigColumn: start.Column,
		})
	}
}

// emitForBody writes an indented suite. prologue lines come first; a suite
// that produces no line at all gets `pass`.
func (e *Emitter) emitForBody(owner ast.Node, prologue []string, stmts []ast.Stmt) {
	e.level++
	start := e.line

	for _, line := range prologue {
		e.emitLine(owner, line)
	}
	for _, stmt := range stmts {
		e.emitForStmt(stmt)
	}

	if e.line == start {
		e.emitLine(owner, "pass")
	}
	e.level--
}

func (e *Emitter) emitForProgram(prog *ast.Program) {
	for _, stmt := range prog.Body {
		e.emitForStmt(stmt)
	}
}

func (e *Emitter) emitForStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		e.emitForVarDecl(s)
	case *ast.AssignStmt:
		e.emitForAssignStmt(s)
	case *ast.FuncDecl:
		e.emitForFuncDecl(s)
	case *ast.ClassDecl:
		e.emitForClassDecl(s)
	case *ast.ReturnStmt:
		e.emitForReturnStmt(s)
	case *ast.IfStmt:
		e.emitForIfStmt(s, "if")
	case *ast.WhileStmt:
		e.emitLine(s, "while "+e.emitForExpr(s.Cond, precLowest)+":")
		e.emitForBody(s, nil, s.Body.Stmts)
	case *ast.ForStmt:
		e.emitLine(s, "for "+e.info.Name(s.Var)+" in "+e.emitForExpr(s.Iter, precLowest)+":")
		e.emitForBody(s, nil, s.Body.Stmts)
	case *ast.BreakStmt:
		e.emitLine(s, "break")
	case *ast.ContinueStmt:
		e.emitLine(s, "continue")
	case *ast.ImportStmt:
		e.emitForImportStmt(s)
	case *ast.TryStmt:
		e.emitForTryStmt(s)
	case *ast.ExprStmt:
		e.emitLine(s, e.emitForExpr(s.X, precLowest))
	case *ast.Block:
		// Python has no block scope; the environment renamed whatever the
		// block would have shadowed.
		for _, inner := range s.Stmts {
			e.emitForStmt(inner)
		}
	default:
		e.fail(stmt, "no generation rule for statement %T", stmt)
	}
}

func (e *Emitter) emitForVarDecl(s *ast.VarDecl) {
	value := "None"
	if s.Value != nil {
		value = e.emitForExpr(s.Value, precLowest)
	}
	e.emitLine(s, e.info.Name(s.Name)+" = "+value)
}

var compoundAssignOps = map[lexer.TokenKind]string{
	lexer.ADD_ASSIGN: "+=",
	lexer.SUB_ASSIGN: "-=",
	lexer.MUL_ASSIGN: "*=",
	lexer.DIV_ASSIGN: "/=",
	lexer.MOD_ASSIGN: "%=",
}

func (e *Emitter) emitForAssignStmt(s *ast.AssignStmt) {
	var sb strings.Builder
	for _, target := range s.Targets {
		sb.WriteString(e.emitForExpr(target, precPostfix))
		if s.Op == lexer.ASSIGN {
			sb.WriteString(" = ")
			continue
		}

		op, ok := compoundAssignOps[s.Op]
		if !ok {
			e.fail(s, "no generation rule for assignment operator %s", s.Op)
		}
		sb.WriteString(" " + op + " ")
	}
	sb.WriteString(e.emitForExpr(s.Value, precLowest))

	e.emitLine(s, sb.String())
}

func (e *Emitter) emitForFuncDecl(fn *ast.FuncDecl) {
	params := make([]string, 0, len(fn.Params)+1)
	if fn.Method {
		params = append(params, "self")
	}
	for _, p := range fn.Params {
		param := e.info.Name(p.Name)
		if p.Default != nil {
			param += "=" + e.emitForExpr(p.Default, precLowest)
		}
		params = append(params, param)
	}

	e.emitLine(fn, "def "+e.info.Name(fn.Name)+"("+strings.Join(params, ", ")+"):")

	var prologue []string
	if names := e.info.Globals[fn]; len(names) > 0 {
		prologue = append(prologue, "global "+strings.Join(names, ", "))
	}
	if names := e.info.Nonlocals[fn]; len(names) > 0 {
		prologue = append(prologue, "nonlocal "+strings.Join(names, ", "))
	}
	e.emitForBody(fn, prologue, fn.Body.Stmts)
}

func (e *Emitter) emitForClassDecl(c *ast.ClassDecl) {
	head := "class " + e.info.Name(c.Name)
	if c.Super != nil {
		head += "(" + e.info.Name(c.Super) + ")"
	}
	e.emitLine(c, head+":")
	e.emitForBody(c, nil, c.Members)
}

func (e *Emitter) emitForReturnStmt(s *ast.ReturnStmt) {
	if s.Value == nil {
		e.emitLine(s, "return")
		return
	}
	e.emitLine(s, "return "+e.emitForExpr(s.Value, precLowest))
}

// emitForIfStmt flattens else-if chains into elif clauses.
func (e *Emitter) emitForIfStmt(s *ast.IfStmt, keyword string) {
	e.emitLine(s, keyword+" "+e.emitForExpr(s.Cond, precLowest)+":")
	e.emitForBody(s, nil, s.Then.Stmts)

	switch els := s.Else.(type) {
	case nil:
	case *ast.IfStmt:
		e.emitForIfStmt(els, "elif")
	case *ast.Block:
		e.emitLine(els, "else:")
		e.emitForBody(els, nil, els.Stmts)
	default:
		e.fail(els, "no generation rule for else branch %T", els)
	}
}

func (e *Emitter) emitForTryStmt(s *ast.TryStmt) {
	e.emitLine(s, "try:")
	e.emitForBody(s, nil, s.Body.Stmts)

	if s.Catch != nil {
		if s.Catch.Var != nil {
			e.emitLine(s.Catch, "except Exception as "+e.info.Name(s.Catch.Var)+":")
		} else {
			e.emitLine(s.Catch, "except Exception:")
		}
		e.emitForBody(s.Catch, nil, s.Catch.Body.Stmts)
	}

	if s.Finally != nil {
		e.emitLine(s.Finally, "finally:")
		e.emitForBody(s.Finally, nil, s.Finally.Stmts)
	}
}

func (e *Emitter) emitForImportStmt(s *ast.ImportStmt) {
	path := s.ModulePath()

	if s.IsFrom() {
		names := make([]string, len(s.Names))
		for i, n := range s.Names {
			bound := e.info.Name(n.Bound())
			if bound == n.Name.Name {
				names[i] = bound
			} else {
				names[i] = n.Name.Name + " as " + bound
			}
		}
		e.emitLine(s, "from "+path+" import "+strings.Join(names, ", "))
		return
	}

	if s.Alias != nil {
		e.emitLine(s, "import "+path+" as "+e.info.Name(s.Alias))
		return
	}

	head := s.Module[0]
	bound := e.info.Name(head)
	switch {
	case bound == head.Name:
		e.emitLine(s, "import "+path)
	case len(s.Module) == 1:
		e.emitLine(s, "import "+path+" as "+bound)
	default:
		// `import a.b as x` would bind the submodule; __import__ binds the
		// top-level package like a plain `import a.b` does.
		e.emitLine(s, bound+" = __import__("+quote(path, '"')+")")
	}
}
