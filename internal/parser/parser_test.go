package parser

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/kievzenit/sonapy/internal/ast"
	"github.com/kievzenit/sonapy/internal/compiler_errors"
	"github.com/kievzenit/sonapy/internal/lexer"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	tokens, err := lexer.NewLexer("test.sona", src).Tokenize()
	if err != nil {
		t.Fatalf("tokenize %q: %v", src, err)
	}
	prog, err := ParseTokens("test.sona", tokens)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return prog
}

func parseError(t *testing.T, src string) *compiler_errors.Diagnostic {
	t.Helper()
	tokens, err := lexer.NewLexer("test.sona", src).Tokenize()
	if err != nil {
		t.Fatalf("tokenize %q: %v", src, err)
	}
	prog, err := ParseTokens("test.sona", tokens)
	if err == nil {
		t.Fatalf("parse %q succeeded, expected an error:\n%s", src, ast.Sdump(prog))
	}
	list := compiler_errors.AsList(err)
	if len(list) != 1 || list[0].Kind != compiler_errors.ParseError {
		t.Fatalf("expected a single ParseError, got %v", err)
	}
	return list[0]
}

func single(t *testing.T, src string) ast.Stmt {
	t.Helper()
	prog := parse(t, src)
	if len(prog.Body) != 1 {
		t.Fatalf("expected 1 statement, got %d:\n%s", len(prog.Body), ast.Sdump(prog))
	}
	return prog.Body[0]
}

func op(kind lexer.TokenKind) string {
	return strings.Trim(kind.Symbol(), "'")
}

// sexpr renders an expression as a fully parenthesised prefix form.
func sexpr(n ast.Node) string {
	switch n := n.(type) {
	case *ast.NumberLit:
		return n.Raw
	case *ast.StringLit:
		return strconv.Quote(n.Value)
	case *ast.BoolLit:
		return strconv.FormatBool(n.Value)
	case *ast.NullLit:
		return "null"
	case *ast.Ident:
		return n.Name
	case *ast.SuperExpr:
		return "super"
	case *ast.BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", op(n.Op), sexpr(n.Left), sexpr(n.Right))
	case *ast.UnaryExpr:
		return fmt.Sprintf("(%s %s)", op(n.Op), sexpr(n.X))
	case *ast.ConditionalExpr:
		return fmt.Sprintf("(? %s %s %s)", sexpr(n.Cond), sexpr(n.Then), sexpr(n.Else))
	case *ast.CallExpr:
		parts := []string{"call", sexpr(n.Callee)}
		for _, arg := range n.Args {
			parts = append(parts, sexpr(arg))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case *ast.MemberExpr:
		return fmt.Sprintf("(. %s %s)", sexpr(n.X), n.Name)
	case *ast.IndexExpr:
		return fmt.Sprintf("(index %s %s)", sexpr(n.X), sexpr(n.Index))
	case *ast.ArrayLit:
		parts := make([]string, len(n.Elems))
		for i, elem := range n.Elems {
			parts[i] = sexpr(elem)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case *ast.DictLit:
		parts := make([]string, len(n.Entries))
		for i, entry := range n.Entries {
			parts[i] = sexpr(entry.Key) + ":" + sexpr(entry.Value)
		}
		return "{" + strings.Join(parts, " ") + "}"
	default:
		return fmt.Sprintf("%T", n)
	}
}

func TestExpressionPrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3", "(+ 1 (* 2 3))"},
		{"(1 + 2) * 3", "(* (+ 1 2) 3)"},
		{"a - b - c", "(- (- a b) c)"},
		{"a / b * c % d", "(% (* (/ a b) c) d)"},
		{"a < b == c > d", "(== (< a b) (> c d))"},
		{"a in b == c", "(== (in a b) c)"},
		{"a && b || c && d", "(|| (&& a b) (&& c d))"},
		{"a and b or not c", "(|| (&& a b) (! c))"},
		{"-a * b", "(* (- a) b)"},
		{"!a && b", "(&& (! a) b)"},
		{"- -a", "(- (- a))"},
		{"a ? b : c ? d : e", "(? a b (? c d e))"},
		{"a || b ? c + 1 : d", "(? (|| a b) (+ c 1) d)"},
		{"a.b(c)[d]", "(index (call (. a b) c) d)"},
		{"f(g(1, 2), [3, 4])", "(call f (call g 1 2) [3 4])"},
		{"super.init(x)", "(call (. super init) x)"},
		{"{name: 'A', \"k\": 1}", "{\"name\":\"A\" \"k\":1}"},
		{"true != null", "(!= true null)"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			src := tt.src
			if strings.HasPrefix(src, "super") {
				src = "class A extends B { func f() { " + src + " } }"
				class := single(t, src).(*ast.ClassDecl)
				stmt := class.Members[0].(*ast.FuncDecl).Body.Stmts[0]
				if got := sexpr(stmt.(*ast.ExprStmt).X); got != tt.want {
					t.Fatalf("got %s, want %s", got, tt.want)
				}
				return
			}
			if strings.HasPrefix(src, "{") {
				src = "x = " + src
				assign := single(t, src).(*ast.AssignStmt)
				if got := sexpr(assign.Value); got != tt.want {
					t.Fatalf("got %s, want %s", got, tt.want)
				}
				return
			}

			stmt, ok := single(t, src).(*ast.ExprStmt)
			if !ok {
				t.Fatalf("expected an expression statement")
			}
			if got := sexpr(stmt.X); got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestVarDecl(t *testing.T) {
	decl := single(t, "const pi = 3.14").(*ast.VarDecl)
	if !decl.Const || decl.Name.Name != "pi" || sexpr(decl.Value) != "3.14" {
		t.Fatalf("unexpected declaration:\n%s", ast.Sdump(decl))
	}

	bare := single(t, "let x").(*ast.VarDecl)
	if bare.Const || bare.Value != nil {
		t.Fatalf("bare let should have no value:\n%s", ast.Sdump(bare))
	}

	span := decl.Span()
	if span.Start.Line != 1 || span.Start.Column != 0 || span.End.Column != 15 {
		t.Fatalf("unexpected span %s", span)
	}
}

func TestAssignments(t *testing.T) {
	chain := single(t, "a = b.c = d[0] = 1").(*ast.AssignStmt)
	if len(chain.Targets) != 3 || chain.Op != lexer.ASSIGN {
		t.Fatalf("expected 3 targets, got:\n%s", ast.Sdump(chain))
	}
	if sexpr(chain.Targets[1]) != "(. b c)" || sexpr(chain.Value) != "1" {
		t.Fatalf("unexpected chain:\n%s", ast.Sdump(chain))
	}

	compound := single(t, "x += 2 * y").(*ast.AssignStmt)
	if compound.Op != lexer.ADD_ASSIGN || sexpr(compound.Value) != "(* 2 y)" {
		t.Fatalf("unexpected compound assignment:\n%s", ast.Sdump(compound))
	}
}

func TestFuncDecl(t *testing.T) {
	fn := single(t, `func greet(name, greeting = "Hello") {
	return greeting + ", " + name
}`).(*ast.FuncDecl)

	if fn.Name.Name != "greet" || len(fn.Params) != 2 || fn.Method {
		t.Fatalf("unexpected function:\n%s", ast.Sdump(fn))
	}
	if fn.Params[0].Default != nil || sexpr(fn.Params[1].Default) != `"Hello"` {
		t.Fatalf("unexpected defaults:\n%s", ast.Sdump(fn.Params))
	}
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	if sexpr(ret.Value) != `(+ (+ greeting ", ") name)` {
		t.Fatalf("unexpected return value %s", sexpr(ret.Value))
	}
	if fn.Span().End.Line != 3 {
		t.Fatalf("function span should end on line 3, got %s", fn.Span())
	}
}

func TestIfElseChain(t *testing.T) {
	stmt := single(t, `if x > 0 {
	y = 1
}
else if x < 0 {
	y = -1
} else {
	y = 0
}`).(*ast.IfStmt)

	elif, ok := stmt.Else.(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected else-if, got:\n%s", ast.Sdump(stmt.Else))
	}
	if _, ok := elif.Else.(*ast.Block); !ok {
		t.Fatalf("expected final else block")
	}
}

func TestLoops(t *testing.T) {
	prog := parse(t, `for i in range(5) {
	if i == 2 { continue }
	print(i)
}
while true { break }`)

	loop := prog.Body[0].(*ast.ForStmt)
	if loop.Var.Name != "i" || sexpr(loop.Iter) != "(call range 5)" || len(loop.Body.Stmts) != 2 {
		t.Fatalf("unexpected for loop:\n%s", ast.Sdump(loop))
	}
	if _, ok := prog.Body[1].(*ast.WhileStmt).Body.Stmts[0].(*ast.BreakStmt); !ok {
		t.Fatalf("expected break in while body")
	}
}

func TestClassDecl(t *testing.T) {
	class := single(t, `class Dog extends Animal {
	let legs = 4
	func init(name) { self.name = name }
	func speak() { return self.name + " barks" }
}`).(*ast.ClassDecl)

	if class.Name.Name != "Dog" || class.Super == nil || class.Super.Name != "Animal" {
		t.Fatalf("unexpected class header:\n%s", ast.Sdump(class))
	}
	if len(class.Members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(class.Members))
	}
	if _, ok := class.Members[0].(*ast.VarDecl); !ok {
		t.Fatalf("first member should be a field")
	}
	for _, m := range class.Members[1:] {
		if fn := m.(*ast.FuncDecl); !fn.Method {
			t.Fatalf("%s should be a method", fn.Name.Name)
		}
	}
}

func TestTryCatch(t *testing.T) {
	tests := []struct {
		src      string
		catchVar string
		catch    bool
		finally  bool
	}{
		{"try { a() } catch (e) { b(e) }", "e", true, false},
		{"try { a() } catch err { b() }", "err", true, false},
		{"try { a() } catch { b() }", "", true, false},
		{"try { a() }\ncatch (e) { b() }\nfinally { c() }", "e", true, true},
		{"try { a() } finally { c() }", "", false, true},
	}

	for _, tt := range tests {
		stmt := single(t, tt.src).(*ast.TryStmt)
		if (stmt.Catch != nil) != tt.catch || (stmt.Finally != nil) != tt.finally {
			t.Fatalf("%q: unexpected clauses:\n%s", tt.src, ast.Sdump(stmt))
		}
		if tt.catch {
			got := ""
			if stmt.Catch.Var != nil {
				got = stmt.Catch.Var.Name
			}
			if got != tt.catchVar {
				t.Fatalf("%q: catch variable %q, want %q", tt.src, got, tt.catchVar)
			}
		}
	}
}

func TestImports(t *testing.T) {
	prog := parse(t, "import os.path as p\nfrom math import sqrt, pi as PI_")

	imp := prog.Body[0].(*ast.ImportStmt)
	if imp.IsFrom() || imp.ModulePath() != "os.path" || imp.Alias.Name != "p" {
		t.Fatalf("unexpected import:\n%s", ast.Sdump(imp))
	}

	from := prog.Body[1].(*ast.ImportStmt)
	if !from.IsFrom() || from.ModulePath() != "math" || len(from.Names) != 2 {
		t.Fatalf("unexpected from-import:\n%s", ast.Sdump(from))
	}
	if from.Names[0].Bound().Name != "sqrt" || from.Names[1].Bound().Name != "PI_" {
		t.Fatalf("unexpected bound names")
	}
}

func TestInterpolation(t *testing.T) {
	stmt := single(t, `print(f"sum={a + b}!")`).(*ast.ExprStmt)
	str := stmt.X.(*ast.CallExpr).Args[0].(*ast.InterpString)

	if len(str.Parts) != 3 {
		t.Fatalf("expected 3 parts:\n%s", ast.Sdump(str))
	}
	if str.Parts[0].Text != "sum=" || sexpr(str.Parts[1].X) != "(+ a b)" || str.Parts[2].Text != "!" {
		t.Fatalf("unexpected parts:\n%s", ast.Sdump(str))
	}
	if col := str.Parts[1].X.Span().Start.Column; col != 13 {
		t.Fatalf("interpolated expression should keep its file column, got %d", col)
	}
}

func TestStatementTerminators(t *testing.T) {
	tests := []struct {
		src   string
		count int
	}{
		{"let a = 1; let b = 2", 2},
		{"let a = 1\n\n\nlet b = 2\n", 2},
		{"let a = 1 +\n  2", 1},
		{"let d = {\n  a: 1,\n  b: 2\n}", 1},
		{"f(1,\n  2)", 1},
		{"{ let a = 1 }", 1},
		{";;", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := len(parse(t, tt.src).Body); got != tt.count {
			t.Errorf("%q: got %d statements, want %d", tt.src, got, tt.count)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		message string
	}{
		{"missing terminator", "let a = 1 let b = 2", "unexpected keyword 'let'"},
		{"return outside function", "return 1", "'return' outside function"},
		{"break outside loop", "break", "'break' outside loop"},
		{"continue in nested function", "while x { func f() { continue } }", "'continue' outside loop"},
		{"parameter order", "func f(a = 1, b) {}", "without a default"},
		{"const without value", "const x", "requires an initializer"},
		{"class body", "class A { x = 1 }", "in class body"},
		{"try without handlers", "try { a() }", "without catch or finally"},
		{"bad target", "1 = 2", "invalid assignment target"},
		{"chained compound", "a += b += c", "cannot be chained"},
		{"missing name", "let = 5", "unexpected '='"},
		{"unclosed call", "f(", "unexpected end of input"},
		{"unclosed block", "{ let a = 1", "unexpected end of input"},
		{"two interpolated expressions", `f"{a b}"`, "single expression"},
		{"bare super", "class A extends B { func f() { super } }", "'super' must be followed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := parseError(t, tt.src)
			if !strings.Contains(d.Message, tt.message) {
				t.Fatalf("message %q does not contain %q", d.Message, tt.message)
			}
			if d.Span == nil || !d.Span.IsValid() {
				t.Fatalf("diagnostic without a valid span: %v", d)
			}
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	d := parseError(t, "let x = 1\nlet = 5")
	if d.Span.Start.Line != 2 || d.Span.Start.Column != 4 {
		t.Fatalf("error at %s, want 2:5", d.Span.Start)
	}
	if d.Expected != "identifier" {
		t.Fatalf("expected description %q", d.Expected)
	}
}
