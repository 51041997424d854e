package interpreter

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btouchard/gox/internal/compiler/parser"
	gerrors "github.com/btouchard/gox/pkg/errors"
	"github.com/btouchard/gox/pkg/value"
)

func run(t *testing.T, src string) (value.Value, string, error) {
	t.Helper()
	prog, err := parser.Parse("test.gox", src)
	require.NoError(t, err)
	var out bytes.Buffer
	v, err := New(WithStdout(&out)).Eval(prog)
	return v, out.String(), err
}

func eval(t *testing.T, src string) value.Value {
	t.Helper()
	v, _, err := run(t, src)
	require.NoError(t, err)
	return v
}

func runtimeErr(t *testing.T, src string) *gerrors.RuntimeError {
	t.Helper()
	_, _, err := run(t, src)
	require.Error(t, err)
	var rt *gerrors.RuntimeError
	require.ErrorAs(t, err, &rt)
	return rt
}

func TestFibonacci(t *testing.T) {
	v := eval(t, `fn fib(n) { if n < 2 { return n } return fib(n-1) + fib(n-2) }
fib(10)`)
	assert.Equal(t, value.Int(55), v)
}

func TestTemplateGreeting(t *testing.T) {
	_, out, err := run(t, "let name = \"World\"\nprint(`Hello, {name}!`)\n")
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!\n", out)
}

func TestMapFilterPipeline(t *testing.T) {
	v := eval(t, `let nums = [1, 2, 3, 4, 5]
let doubled = map(nums, fn(x) => x * 2)
filter(doubled, fn(x) => x > 5)`)
	assert.Equal(t, "[6, 8, 10]", v.String())
}

func TestExpressions(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"7 / 2", "3"},
		{"-7 / 2", "-3"},
		{"7 % 3", "1"},
		{"1 + 2.5", "3.5"},
		{"2 * 3 + 4", "10"},
		{`"a" + 1`, "a1"},
		{"1 < 2 && 2 < 3", "true"},
		{"0 || null", "false"},
		{"!\"\"", "true"},
		{"[1, 2] == [1, 2]", "true"},
		{"1 == 1.0", "true"},
		{`{"a": 1}["a"]`, "1"},
		{"[1, 2, 3][-1]", "3"},
		{`"héllo"[1]`, "é"},
		{"if false { 1 } else if true { 2 } else { 3 }", "2"},
		{"if false { 1 }", "null"},
		{`"abc".upper()`, "ABC"},
		{"[3, 1, 2].sorted()", "[1, 2, 3]"},
		{"(fn(x) => x + 1)(1)", "2"},
		{"let x = 1\nx = x + 1\nx", "2"},
		{"let a = [1]\na[0] = 5\na", "[5]"},
		{"let m = {}\nm.k = 1\nm[\"j\"] = 2\nm", `{"k": 1, "j": 2}`},
		{"let a = b = 3\na + b", "6"},
		{"len(\"héllo\")", "5"},
		{"type(1.5)", "float"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, eval(t, tt.src).String())
		})
	}
}

func TestShortCircuit(t *testing.T) {
	_, out, err := run(t, `fn loud(x) { print("called") 
 x }
false && loud(true)
true || loud(false)
true && loud(1)`)
	require.NoError(t, err)
	assert.Equal(t, "called\n", out)
}

func TestMutability(t *testing.T) {
	assert.Equal(t, "[3, 1, 2]", eval(t, "a = [3, 1, 2]\nb = sorted(a)\na").String())
	assert.Equal(t, "[3, 1, 2, 9]", eval(t, "a = [3, 1, 2]\npush(a, 9)\na").String())
	assert.Equal(t, "[3, 1, 2]", eval(t, "a = [3, 1, 2]\nb = a.push(9)\na").String())
	assert.Equal(t, "[1, 2, 3]", eval(t, "a = [3, 1, 2]\nsort(a)\na").String())
	assert.Equal(t, "[3, 1, 2]", eval(t, "a = [3, 1, 2]\na.sort()\na").String())
	assert.Equal(t, "[1, 9]", eval(t, "a = [1]\nb = a\npush(b, 9)\na").String(), "arrays are shared by reference")
}

func TestBlockValueStartingWithString(t *testing.T) {
	assert.Equal(t, value.String("ab"), eval(t, "x = { \"a\" + \"b\" }\nx"))
}

func TestSelfReferentialContainers(t *testing.T) {
	v := eval(t, "a = [1]\npush(a, a)\nstr(a)")
	assert.Equal(t, value.String("[1, [...]]"), v)

	v = eval(t, "m = {\"k\": 1}\nm.self = m\nm == m")
	assert.Equal(t, value.Bool(true), v)

	_, out, err := run(t, "m = {}\nset(m, \"me\", m)\nprint(m)")
	require.NoError(t, err)
	assert.Equal(t, "{\"me\": {...}}\n", out)

	rt := runtimeErr(t, "use json\na = []\npush(a, a)\njson.stringify(a)")
	assert.Equal(t, gerrors.TypeMismatch, rt.Kind)
}

func TestWebHandlersAreClosures(t *testing.T) {
	v := eval(t, `use web
let hits = 0
let app = web.app()
app.get("/greet/{name}", fn(req) {
  hits = hits + 1
  let name = req.params.name
  `+"`hi {name} #{hits}`"+`
})
app.post("/size", fn(req) => {"len": len(req.body)})
app`)
	h, ok := v.(*value.NativeHandle)
	require.True(t, ok, "got %s", v.Kind())
	app := h.Ref.(http.Handler)

	for _, want := range []string{"hi ada #1", "hi ada #2"} {
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest("GET", "/greet/ada", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, want, rec.Body.String())
	}

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest("POST", "/size", bytes.NewBufferString("abcd")))
	assert.Equal(t, `{"len":4}`, rec.Body.String())
}

func TestClosures(t *testing.T) {
	v := eval(t, `fn counter() {
  let n = 0
  fn() { n = n + 1
  n }
}
let c = counter()
c()
c()
c()`)
	assert.Equal(t, value.Int(3), v)

	v = eval(t, `fn adder(x) => fn(y) => x + y
let add5 = adder(5)
let x = 100
add5(1)`)
	assert.Equal(t, value.Int(6), v)
}

func TestScoping(t *testing.T) {
	assert.Equal(t, value.Int(10), eval(t, `let x = 1
fn f() { x = 10 }
f()
x`), "assignment updates the enclosing binding")

	assert.Equal(t, value.Int(1), eval(t, `let x = 1
fn f() { let x = 10 }
f()
x`), "let shadows")

	rt := runtimeErr(t, `fn f() { y = 5 }
f()
y`)
	assert.Equal(t, gerrors.UndefinedVariable, rt.Kind, "assignment to an unknown name stays local")

	assert.Equal(t, value.Int(5), eval(t, `let total = 0
for i in range(1, 6) { let step = 1
 total = total + step }
total`))
}

func TestLoops(t *testing.T) {
	_, out, err := run(t, `let i = 0
while i < 3 { print(i)
 i = i + 1 }
for k in {"a": 1, "b": 2} { print(k) }
for ch in "hi" { print(ch) }`)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\na\nb\nh\ni\n", out)
}

func TestReturn(t *testing.T) {
	assert.Equal(t, value.Int(2), eval(t, `fn first_even(xs) {
  for x in xs { if x % 2 == 0 { return x } }
  return null
}
first_even([1, 3, 2, 4])`))
	assert.Equal(t, value.Null{}, eval(t, "fn f() { return }\nf()"))
	assert.Equal(t, value.Int(1), eval(t, "return 1\nprint(\"unreachable\")"))
}

func TestArityMismatch(t *testing.T) {
	rt := runtimeErr(t, "fn add(a, b) => a + b\nadd(1)")
	assert.Equal(t, gerrors.ArgumentError, rt.Kind)
	assert.Equal(t, 2, rt.Pos.Line)
	assert.Contains(t, rt.Message, "add expects 2 argument(s), got 1")

	rt = runtimeErr(t, "let f = fn(a) => a\nf(1, 2)")
	assert.Equal(t, gerrors.ArgumentError, rt.Kind)
}

func TestRuntimeErrorsCarryInnermostPosition(t *testing.T) {
	rt := runtimeErr(t, "fn f(x) {\n  return x / 0\n}\nf(1)")
	assert.Equal(t, gerrors.DivisionByZero, rt.Kind)
	assert.Equal(t, "test.gox", rt.Pos.File)
	assert.Equal(t, 2, rt.Pos.Line)
	assert.Equal(t, 12, rt.Pos.Column)

	rt = runtimeErr(t, "let s = `Hi {who}`")
	assert.Equal(t, gerrors.UndefinedVariable, rt.Kind)
	assert.Equal(t, 1, rt.Pos.Line)
	assert.Equal(t, 13, rt.Pos.Column)
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		src  string
		kind gerrors.RuntimeKind
	}{
		{"[1][5]", gerrors.IndexOutOfBounds},
		{`{"a": 1}["b"]`, gerrors.Generic},
		{`"a".frobnicate()`, gerrors.UnknownMethod},
		{"1 % 0", gerrors.DivisionByZero},
		{"1.5 % 2", gerrors.TypeMismatch},
		{"nope", gerrors.UndefinedVariable},
		{"5()", gerrors.TypeMismatch},
		{"go { func x() {} }", gerrors.FeatureNotSupported},
		{"use http", gerrors.ImportError},
		{"fn f() => f()\nf()", gerrors.Generic},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.kind, runtimeErr(t, tt.src).Kind)
		})
	}
}

func TestUnknownMethodNamesKind(t *testing.T) {
	rt := runtimeErr(t, "[1].explode()")
	assert.Equal(t, "Array has no method 'explode'", rt.Message)
}

func TestRequireIsIgnored(t *testing.T) {
	assert.Equal(t, value.Int(1), eval(t, `require "github.com/google/uuid" = "v1.6.0"
1`))
}

func TestUseModule(t *testing.T) {
	v := eval(t, `use json as j
let data = j.parse("{\"n\": [1, 2]}")
j.stringify(data.n)`)
	assert.Equal(t, value.String("[1,2]"), v)
}

func TestMapHoldingFunction(t *testing.T) {
	v := eval(t, `let ops = {"inc": fn(x) => x + 1}
ops.inc(41)`)
	assert.Equal(t, value.Int(42), v)
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "util.gox"), []byte(`print("loading util")
let base = 10
fn scale(x) => x * base
`), 0o644))
	mainPath := filepath.Join(dir, "main.gox")
	src := `import "util.gox"
import "util.gox" as u2
util.scale(4) + u2.base`
	prog, err := parser.Parse(mainPath, src)
	require.NoError(t, err)

	var out bytes.Buffer
	v, err := New(WithStdout(&out)).Eval(prog)
	require.NoError(t, err)
	assert.Equal(t, value.Int(50), v)
	assert.Equal(t, "loading util\n", out.String(), "imported files run once")
}

func TestErrorInImportedFileNamesThatFile(t *testing.T) {
	dir := t.TempDir()
	libPath := filepath.Join(dir, "lib.gox")
	require.NoError(t, os.WriteFile(libPath, []byte("fn boom() {\n  return 1 / 0\n}\n"), 0o644))
	prog, err := parser.Parse(filepath.Join(dir, "main.gox"), "import \"lib.gox\"\nlib.boom()")
	require.NoError(t, err)

	_, err = New(WithStdout(&bytes.Buffer{})).Eval(prog)
	var rt *gerrors.RuntimeError
	require.ErrorAs(t, err, &rt)
	assert.Equal(t, libPath, rt.Pos.File)
	assert.Equal(t, 2, rt.Pos.Line)
}

func TestGlobalsPersistAcrossEvals(t *testing.T) {
	in := New(WithStdout(&bytes.Buffer{}))
	for _, src := range []string{"let x = 40", "fn inc(n) => n + 1", "inc(x) + 1"} {
		prog, err := parser.Parse("", src)
		require.NoError(t, err)
		v, err := in.Eval(prog)
		require.NoError(t, err)
		if src == "inc(x) + 1" {
			assert.Equal(t, value.Int(42), v)
		}
	}
	assert.Contains(t, in.Globals().Names(), "inc")
}
