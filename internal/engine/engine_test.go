package engine

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btouchard/gox/internal/compiler/parser"
	"github.com/btouchard/gox/internal/native"
	"github.com/btouchard/gox/pkg/bridge"
	gerrors "github.com/btouchard/gox/pkg/errors"
	"github.com/btouchard/gox/pkg/value"
)

// stubToolchain pretends to build and reports a fixed terminal value.
type stubToolchain struct {
	fs     billy.Filesystem
	result value.Value
	runs   int
}

func (s *stubToolchain) Tidy(ctx context.Context, dir string) error { return nil }

func (s *stubToolchain) Build(ctx context.Context, dir, output string) error {
	return util.WriteFile(s.fs, filepath.ToSlash(output), []byte("bin"), 0o755)
}

func (s *stubToolchain) Exec(ctx context.Context, binary string, args, env []string, stdio native.Stdio) error {
	s.runs++
	for _, kv := range env {
		if path := strings.TrimPrefix(kv, bridge.ResultEnv+"="); path != kv {
			var buf bytes.Buffer
			if err := bridge.Write(&buf, s.result, nil); err != nil {
				return err
			}
			return util.WriteFile(s.fs, filepath.ToSlash(path), buf.Bytes(), 0o644)
		}
	}
	return nil
}

func newEngine(t *testing.T, result value.Value, opts ...Option) (*Engine, *stubToolchain, *bytes.Buffer) {
	t.Helper()
	tc := &stubToolchain{fs: memfs.New(), result: result}
	var out bytes.Buffer
	runner := native.NewRunner(
		native.WithFilesystem(tc.fs),
		native.WithToolchain(tc),
		native.WithRuntime(native.Runtime{Version: "v0.3.0"}),
		native.WithStdio(native.Stdio{Stdout: &out, Stderr: &out}),
		native.WithLogger(zerolog.Nop()),
	)
	opts = append([]Option{
		WithStdio(strings.NewReader(""), &out, &out),
		WithRunner(runner),
		WithLogger(zerolog.Nop()),
	}, opts...)
	return New(opts...), tc, &out
}

func TestPlainScriptsAreInterpreted(t *testing.T) {
	e, tc, out := newEngine(t, nil)
	prog, err := parser.Parse("a.gox", "print(\"hi\")\n1 + 2")
	require.NoError(t, err)

	backend, err := e.Backend(prog)
	require.NoError(t, err)
	assert.Equal(t, Interpreted, backend)

	got, err := e.Run(context.Background(), prog)
	require.NoError(t, err)
	assert.Equal(t, value.Int(3), got)
	assert.Equal(t, "hi\n", out.String())
	assert.Zero(t, tc.runs)
}

func TestNativeScriptsUseTheRunner(t *testing.T) {
	e, tc, _ := newEngine(t, value.Int(42))
	prog, err := parser.Parse("d.gox", `require "github.com/google/uuid" = "v1.6.0"
go {
func answer() int64 { return 42 }
}
answer()
`)
	require.NoError(t, err)

	backend, err := e.Backend(prog)
	require.NoError(t, err)
	assert.Equal(t, Native, backend)

	got, err := e.Run(context.Background(), prog)
	require.NoError(t, err)
	assert.Equal(t, value.Int(42), got, "compiled values are unwrapped")
	assert.Equal(t, 1, tc.runs)
}

func TestForceNative(t *testing.T) {
	e, tc, _ := newEngine(t, value.Int(3), ForceNative(true))
	prog, err := parser.Parse("a.gox", "1 + 2")
	require.NoError(t, err)

	got, err := e.Run(context.Background(), prog)
	require.NoError(t, err)
	assert.Equal(t, value.Int(3), got)
	assert.Equal(t, 1, tc.runs)
}

func TestImportedNativeBlockSelectsNativePath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.gox"), []byte("go {\nfunc seven() int64 { return 7 }\n}\n"), 0o644))
	main := filepath.Join(dir, "main.gox")
	require.NoError(t, os.WriteFile(main, []byte("import \"lib.gox\" as lib\nseven()\n"), 0o644))

	e, _, _ := newEngine(t, value.Int(7))
	prog, err := ParseFile(main)
	require.NoError(t, err)
	backend, err := e.Backend(prog)
	require.NoError(t, err)
	assert.Equal(t, Native, backend)
}

func TestRunFileReportsParseErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.gox")
	require.NoError(t, os.WriteFile(path, []byte("let = 1\n"), 0o644))

	e, _, _ := newEngine(t, nil)
	_, err := e.RunFile(context.Background(), path)
	require.Error(t, err)
	assert.True(t, gerrors.IsParse(err))
	assert.Equal(t, 1, gerrors.ExitCode(err))
}
