package native

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/btouchard/gox/pkg/errors"
	"github.com/btouchard/gox/pkg/value"
)

// moduleRoot is the checkout this test file belongs to.
func moduleRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..")
}

// toolchainRunner builds against the real go command. The workspace
// resolves third-party modules through the proxy, so these tests only run
// when GOX_TOOLCHAIN_TESTS is set.
func toolchainRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	if testing.Short() {
		t.Skip("builds with the go toolchain")
	}
	if os.Getenv("GOX_TOOLCHAIN_TESTS") == "" {
		t.Skip("set GOX_TOOLCHAIN_TESTS=1 to build with the go toolchain")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go command not found")
	}
	var out bytes.Buffer
	return NewRunner(
		WithFilesystem(osfs.New(t.TempDir())),
		WithRuntime(Runtime{Dir: moduleRoot(t)}),
		WithStdio(Stdio{Stdout: &out, Stderr: &out}),
		WithLogger(zerolog.Nop()),
	), &out
}

func TestToolchainNativeBlock(t *testing.T) {
	r, out := toolchainRunner(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	src := "go {\nfunc answer(n int64) int64 { return n * 2 }\n}\nprint(\"computing\")\nanswer(21)\n"
	got, err := r.BuildAndRun(ctx, parse(t, src))
	require.NoError(t, err)
	assert.Equal(t, value.Int(42), value.Unwrap(got))
	assert.Equal(t, "int64", got.(*value.Compiled).Tag)
	assert.Equal(t, "computing\n", out.String())
}

func TestToolchainMatchesInterpreterSemantics(t *testing.T) {
	r, _ := toolchainRunner(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	src := `fn fib(n) {
  if n < 2 { return n }
  return fib(n - 1) + fib(n - 2)
}
let xs = [1, 2, 3, 4, 5].map(fn(x) => x * 2).filter(fn(x) => x > 4)
{"fib": fib(10), "xs": xs, "div": [7 / 2, -7 / 2]}
`
	unit, err := r.Prepare(parse(t, src))
	require.NoError(t, err)
	binary, err := r.Build(ctx, unit)
	require.NoError(t, err)
	got, err := r.Run(ctx, binary)
	require.NoError(t, err)

	want := value.NewMap()
	want.Set("fib", value.Int(55))
	want.Set("xs", value.NewArray(value.Int(6), value.Int(8), value.Int(10)))
	want.Set("div", value.NewArray(value.Int(3), value.Int(-3)))
	assert.True(t, value.Equal(want, got), "got %s", got)
}

func TestToolchainCompileErrorKeepsDiagnostics(t *testing.T) {
	r, _ := toolchainRunner(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	src := "go {\nfunc answer() int64 { return undefinedThing }\n}\nanswer()\n"
	_, err := r.BuildAndRun(ctx, parse(t, src))
	require.Error(t, err)
	be, ok := err.(*gerrors.BuildError)
	require.True(t, ok, "got %T", err)
	assert.Contains(t, be.Diagnostics, "undefinedThing")
}
