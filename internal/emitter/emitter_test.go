package emitter

import (
	"reflect"
	"strings"
	"testing"

	"github.com/kievzenit/sonapy/internal/ast"
	"github.com/kievzenit/sonapy/internal/builtins"
	"github.com/kievzenit/sonapy/internal/compiler_errors"
	"github.com/kievzenit/sonapy/internal/environment"
	"github.com/kievzenit/sonapy/internal/lexer"
	"github.com/kievzenit/sonapy/internal/parser"
	"github.com/kievzenit/sonapy/internal/sourcemap"
)

func resolve(t *testing.T, src string) (*ast.Program, *environment.Info) {
	t.Helper()
	tokens, err := lexer.NewLexer("test.sona", src).Tokenize()
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	prog, err := parser.ParseTokens("test.sona", tokens)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	info, err := environment.Resolve(prog, builtins.Default())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return prog, info
}

func emitWith(t *testing.T, src string, opts Options) (string, *sourcemap.Map) {
	t.Helper()
	prog, info := resolve(t, src)
	code, srcMap, err := NewEmitter("test.sona", info, opts).Emit(prog)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	return code, srcMap
}

func emit(t *testing.T, src string) string {
	t.Helper()
	code, _ := emitWith(t, src, Options{})
	return code
}

func lastLine(code string) string {
	lines := strings.Split(strings.TrimSuffix(code, "\n"), "\n")
	return lines[len(lines)-1]
}

func TestStatements(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"let", "let x = 42", "x = 42\n"},
		{"leading zeros", "let x = 007", "x = 7\n"},
		{"zero", "let x = 000", "x = 0\n"},
		{"leading zeros in float", "let x = 00.5 + 0e3", "x = 0.5 + 0e3\n"},
		{
			"constructor called on self",
			"class A {\n  func init() {}\n  func reset() { self.init() }\n}",
			"class A:\n    def __init__(self):\n        pass\n    def reset(self):\n        self.__init__()\n",
		},
		{"bare let", "let x", "x = None\n"},
		{"const", "const greeting = \"hi\"", "greeting = \"hi\"\n"},
		{
			"function",
			"func add(a, b) {\n  return a + b\n}",
			"def add(a, b):\n    return a + b\n",
		},
		{
			"default parameter",
			"func greet(name = \"World\") { print(\"Hello, \" + name) }",
			"def greet(name=\"World\"):\n    print(\"Hello, \" + name)\n",
		},
		{"empty function", "func f() {}", "def f():\n    pass\n"},
		{"bare return", "func f() { return }", "def f():\n    return\n"},
		{
			"if chain",
			"let x = 1\nif x > 0 { print(\"pos\") } else if x < 0 { print(\"neg\") } else { print(\"zero\") }",
			"x = 1\nif x > 0:\n    print(\"pos\")\nelif x < 0:\n    print(\"neg\")\nelse:\n    print(\"zero\")\n",
		},
		{"for", "for i in range(5) { print(i) }", "for i in range(5):\n    print(i)\n"},
		{
			"while",
			"let x = 0\nwhile x < 10 { x += 1 }",
			"x = 0\nwhile x < 10:\n    x += 1\n",
		},
		{
			"break and continue",
			"while true {\n  if false { continue }\n  break\n}",
			"while True:\n    if False:\n        continue\n    break\n",
		},
		{
			"chained assignment",
			"let a = 0\nlet b = 0\na = b = 5",
			"a = 0\nb = 0\na = b = 5\n",
		},
		{
			"member and index targets",
			"let d = {}\nlet o = d\nd[\"k\"] = 1\no.v *= 2",
			"d = {}\no = d\nd[\"k\"] = 1\no.v *= 2\n",
		},
		{
			"class",
			"class Person {\n  func init(name) { self.name = name }\n  func greet() { return \"Hi \" + self.name }\n}",
			"class Person:\n    def __init__(self, name):\n        self.name = name\n    def greet(self):\n        return \"Hi \" + self.name\n",
		},
		{
			"class field",
			"class Counter {\n  let count = 0\n}",
			"class Counter:\n    count = 0\n",
		},
		{"empty class", "class Empty {}", "class Empty:\n    pass\n"},
		{
			"subclass and super",
			"class Animal { func init(name) { self.name = name } }\nclass Dog extends Animal {\n  func init(name) { super.init(name) }\n  func speak() { return super.speak() }\n}",
			"class Animal:\n    def __init__(self, name):\n        self.name = name\nclass Dog(Animal):\n    def __init__(self, name):\n        super().__init__(name)\n    def speak(self):\n        return super().speak()\n",
		},
		{"array", "let items = [1, 2, 3, 4, 5]", "items = [1, 2, 3, 4, 5]\n"},
		{
			"dict and index",
			"let person = {name: \"Alice\", \"age\": 30}\nprint(person[\"name\"])",
			"person = {\"name\": \"Alice\", \"age\": 30}\nprint(person[\"name\"])\n",
		},
		{
			"try catch finally",
			"func risky() {}\nfunc done() {}\ntry { risky() } catch (e) { print(e) } finally { done() }",
			"def risky():\n    pass\ndef done():\n    pass\ntry:\n    risky()\nexcept Exception as e:\n    print(e)\nfinally:\n    done()\n",
		},
		{
			"bare catch",
			"try { print(1) } catch { }",
			"try:\n    print(1)\nexcept Exception:\n    pass\n",
		},
		{
			"nested block",
			"let x = 1\n{\n  let y = 2\n  print(x + y)\n}",
			"x = 1\ny = 2\nprint(x + y)\n",
		},
		{"empty program", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := emit(t, tt.src); got != tt.want {
				t.Fatalf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestCallsAndConcatenation(t *testing.T) {
	code := emit(t, `func add(a, b) { return a + b }
func multiply(a, b) { return a * b }
print(add(multiply(2, 3), 4))
let name = "Sona"
let version = "1.0"
print("Welcome to " + name + " v" + version)`)

	for _, want := range []string{
		"print(add(multiply(2, 3), 4))\n",
		`print("Welcome to " + name + " v" + version)` + "\n",
	} {
		if !strings.Contains(code, want) {
			t.Fatalf("missing %q in:\n%s", want, code)
		}
	}
}

func TestMinimalParentheses(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"a + b * c", "a + b * c"},
		{"(a + b) * c", "(a + b) * c"},
		{"a - (b - c)", "a - (b - c)"},
		{"(a - b) - c", "a - b - c"},
		{"a / b % c", "a / b % c"},
		{"a % (b * c)", "a % (b * c)"},
		{"-a * b", "-a * b"},
		{"-(a + b)", "-(a + b)"},
		{"a < b == true", "(a < b) == True"},
		{"a == (b < c)", "a == (b < c)"},
		{"!(a == b)", "not a == b"},
		{"!a == b", "(not a) == b"},
		{"a && b || c", "a and b or c"},
		{"a && (b || c)", "a and (b or c)"},
		{"!a && b", "not a and b"},
		{"!(a && b)", "not (a and b)"},
		{"a and not b", "a and not b"},
		{"a in [1, 2]", "a in [1, 2]"},
		{"a > 0 ? a : -a", "a if a > 0 else -a"},
		{"a ? b : c ? a : b", "b if a else a if c else b"},
		{"(a ? b : c) + 1", "(b if a else c) + 1"},
		{"(a ? b : c) ? 1 : 2", "1 if (b if a else c) else 2"},
		{"[a, b][0]", "[a, b][0]"},
		{"(a + b).real", "(a + b).real"},
		{"null == null", "None == None"},
		{"PI * 2", "3.141592653589793 * 2"},
	}

	for _, tt := range tests {
		code := emit(t, "let a = 1\nlet b = 2\nlet c = 3\nlet r = "+tt.expr)
		if got := lastLine(code); got != "r = "+tt.want {
			t.Errorf("%s: got %q, want %q", tt.expr, got, "r = "+tt.want)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	code := emit(t, `let s = "say \"hi\"\n\ttab \\ done"`)
	if want := `s = "say \"hi\"\n\ttab \\ done"` + "\n"; code != want {
		t.Fatalf("got %q, want %q", code, want)
	}
}

func TestInterpolatedStrings(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{"simple", `f"Hello {name}!"`, `f"Hello {name}!"`},
		{"expression", `f"sum={1 + 2}"`, `f"sum={1 + 2}"`},
		{"literal braces", `f"{{x}} {name}"`, `f"{{x}} {name}"`},
		{"nested string", `f"{name + "!"}"`, `f"{name + '!'}"`},
		{"escape in expression", `f"{name + "\n"}"`, `"{}".format(name + "\n")`},
		{"dict expression", `f"{ {k: 1}["k"] }"`, `f"{ {'k': 1}['k']}"`},
		{"nested interpolation", `f"a {f"b {name}"}"`, `f"a {'b {}'.format(name)}"`},
		{"text only", `f"plain"`, `"plain"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := emit(t, "let name = \"x\"\nlet s = "+tt.expr)
			if got := lastLine(code); got != "s = "+tt.want {
				t.Fatalf("got %q, want %q", got, "s = "+tt.want)
			}
		})
	}
}

func TestGlobalAndNonlocal(t *testing.T) {
	got := emit(t, `let count = 0
func inc() { count += 1 }
func outer() {
  let n = 0
  func inner() { n = n + 1 }
  inner()
  return n
}`)

	want := `count = 0
def inc():
    global count
    count += 1
def outer():
    n = 0
    def inner():
        nonlocal n
        n = n + 1
    inner()
    return n
`
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenamedBindings(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"block shadowing",
			"let x = 1\nif true {\n  let x = 2\n  print(x)\n}\nprint(x)",
			"x = 1\nif True:\n    x_1 = 2\n    print(x_1)\nprint(x)\n",
		},
		{
			"python keyword",
			"let pass = 1\nprint(pass)",
			"pass_ = 1\nprint(pass_)\n",
		},
		{
			"python keyword method",
			"class A { func pass() {} }\nA().pass()",
			"class A:\n    def pass_(self):\n        pass\nA().pass_()\n",
		},
		{
			"python keyword next to its escape",
			"let pass = 1\nlet pass_ = 2\nprint(pass, pass_)",
			"pass__ = 1\npass_ = 2\nprint(pass__, pass_)\n",
		},
		{
			"method keyword next to attribute escape",
			"class A { func pass() { return self.pass_ } }",
			"class A:\n    def pass__(self):\n        return self.pass_\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := emit(t, tt.src); got != tt.want {
				t.Fatalf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestImports(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"import math", "import math"},
		{"import os.path", "import os.path"},
		{"import os.path as p", "import os.path as p"},
		{"from math import sqrt, pi as PI_", "from math import sqrt, pi as PI_"},
		{"let json = 1\nif true {\n  import json\n  print(json)\n}", "    import json as json_1"},
		{"let os = 1\nif true {\n  import os.path\n  print(os)\n}", "    os_1 = __import__(\"os.path\")"},
	}

	for _, tt := range tests {
		code := emit(t, tt.src)
		if !strings.Contains(code, tt.want+"\n") {
			t.Errorf("%q: missing %q in:\n%s", tt.src, tt.want, code)
		}
	}
}

func TestSourceMap(t *testing.T) {
	code, srcMap := emitWith(t, "let x = 1\nfunc f(a) {\n  return a\n}", Options{})

	if code != "x = 1\ndef f(a):\n    return a\n" {
		t.Fatalf("unexpected code:\n%s", code)
	}

	want := []sourcemap.Entry{
		{GenLine: 1, GenColumn: 0, OrigLine: 1, OrigColumn: 0},
		{GenLine: 2, GenColumn: 0, OrigLine: 2, OrigColumn: 0},
		{GenLine: 3, GenColumn: 4, OrigLine: 3, OrigColumn: 2},
	}
	if got := srcMap.Entries(); !reflect.DeepEqual(got, want) {
		t.Fatalf("entries = %+v, want %+v", got, want)
	}
}

func TestSingleLetMapping(t *testing.T) {
	code, srcMap := emitWith(t, "let x = 42", Options{})
	if code != "x = 42\n" {
		t.Fatalf("code = %q", code)
	}
	if srcMap.Len() != 1 {
		t.Fatalf("expected exactly one entry, got %d", srcMap.Len())
	}
	if e := srcMap.Entries()[0]; e.GenLine != 1 || e.OrigLine != 1 {
		t.Fatalf("unexpected entry %+v", e)
	}
}

func TestOptions(t *testing.T) {
	code, srcMap := emitWith(t, "func f() {\n  return 1\n}", Options{IndentWidth: 2, Header: "# generated"})

	if code != "# generated\ndef f():\n  return 1\n" {
		t.Fatalf("unexpected code:\n%s", code)
	}
	entries := srcMap.Entries()
	if len(entries) != 2 || entries[0].GenLine != 2 || entries[1].GenColumn != 2 {
		t.Fatalf("header lines must not be mapped: %+v", entries)
	}
}

func TestDeterministic(t *testing.T) {
	src := `let count = 0
func tick(step = 1) { count += step }
class Clock { func init() { self.t = 0 } }
for i in range(3) { tick() }`
	prog, info := resolve(t, src)
	e := NewEmitter("test.sona", info, Options{})

	first, firstMap, err := e.Emit(prog)
	if err != nil {
		t.Fatal(err)
	}
	second, secondMap, err := e.Emit(prog)
	if err != nil {
		t.Fatal(err)
	}
	if first != second || !reflect.DeepEqual(firstMap.Entries(), secondMap.Entries()) {
		t.Fatalf("output differs between runs:\n%s\n---\n%s", first, second)
	}
}

func TestMissingRuleIsCodeGenError(t *testing.T) {
	prog, info := resolve(t, "let x = 1")
	prog.Body = append(prog.Body, nil)

	code, srcMap, err := NewEmitter("test.sona", info, Options{}).Emit(prog)
	if err == nil {
		t.Fatalf("expected an error, got code %q", code)
	}
	if code != "" || srcMap != nil {
		t.Fatalf("failed emission must not return output")
	}

	list := compiler_errors.AsList(err)
	if len(list) != 1 || list[0].Kind != compiler_errors.CodeGenError {
		t.Fatalf("unexpected diagnostics: %v", list)
	}
}
