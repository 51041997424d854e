package resolver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btouchard/gox/internal/compiler/ast"
	"github.com/btouchard/gox/internal/compiler/parser"
	gerrors "github.com/btouchard/gox/pkg/errors"
)

// Helper to parse a .gox file for testing
func parseFile(t *testing.T, path string) *ast.Program {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	prog, err := parser.Parse(path, string(data))
	require.NoError(t, err)
	return prog
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSimpleImport(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "lib", "math.gox"), "fn square(x) => x * x\n")
	mainPath := filepath.Join(tmpDir, "main.gox")
	writeFile(t, mainPath, `import "lib/math.gox" as m
print(m.square(4))
`)

	prog := parseFile(t, mainPath)
	res, err := New().Resolve(prog, mainPath)
	require.NoError(t, err)

	require.Len(t, res.Modules, 1)
	assert.Equal(t, filepath.Join(tmpDir, "lib", "math.gox"), res.Modules[0].Path)

	imp := prog.Statements[0].(*ast.ImportStmt)
	mod, ok := res.Target(imp)
	require.True(t, ok)
	assert.Same(t, res.Modules[0], mod)
	assert.Len(t, res.Programs(), 2)
}

func TestNestedImportsRelativeToImporter(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "pkg", "b.gox"), "let b = 2\n")
	writeFile(t, filepath.Join(tmpDir, "pkg", "a.gox"), "import \"b.gox\"\nlet a = b.b + 1\n")
	mainPath := filepath.Join(tmpDir, "main.gox")
	writeFile(t, mainPath, "import \"pkg/a.gox\"\nimport \"pkg/b.gox\"\n")

	res, err := New().Resolve(parseFile(t, mainPath), mainPath)
	require.NoError(t, err)

	var names []string
	for _, m := range res.Modules {
		names = append(names, filepath.Base(m.Path))
	}
	assert.Equal(t, []string{"b.gox", "a.gox"}, names, "dependencies first, each file once")
}

func TestCircularImport(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "a.gox"), "import \"b.gox\"\n")
	writeFile(t, filepath.Join(tmpDir, "b.gox"), "import \"a.gox\"\n")
	mainPath := filepath.Join(tmpDir, "main.gox")
	writeFile(t, mainPath, "import \"a.gox\"\n")

	_, err := New().Resolve(parseFile(t, mainPath), mainPath)
	require.Error(t, err)
	var rt *gerrors.RuntimeError
	require.ErrorAs(t, err, &rt)
	assert.Equal(t, gerrors.ImportError, rt.Kind)
	assert.Contains(t, rt.Message, "circular import: main.gox -> a.gox -> b.gox -> a.gox")
	assert.True(t, strings.HasSuffix(rt.Pos.File, "b.gox"))
}

func TestSelfImport(t *testing.T) {
	tmpDir := t.TempDir()
	mainPath := filepath.Join(tmpDir, "main.gox")
	writeFile(t, mainPath, "import \"main.gox\"\n")

	_, err := New().Resolve(parseFile(t, mainPath), mainPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular import")
}

func TestMissingFile(t *testing.T) {
	tmpDir := t.TempDir()
	mainPath := filepath.Join(tmpDir, "main.gox")
	writeFile(t, mainPath, "\n  import \"nope.gox\"\n")

	_, err := New().Resolve(parseFile(t, mainPath), mainPath)
	require.Error(t, err)
	var rt *gerrors.RuntimeError
	require.ErrorAs(t, err, &rt)
	assert.Equal(t, gerrors.ImportError, rt.Kind)
	assert.Equal(t, 2, rt.Pos.Line)
	assert.Equal(t, 3, rt.Pos.Column)
}

func TestNotAGoxFile(t *testing.T) {
	prog, err := parser.Parse("main.gox", `import "lib.txt" as lib`)
	require.NoError(t, err)
	_, err = New().Resolve(prog, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a .gox file")
}

func TestParseErrorInImportedFileIsReturnedUnchanged(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/src/broken.gox", []byte("let = 1\n"), 0o644))
	prog, err := parser.Parse("/src/main.gox", `import "broken.gox"`)
	require.NoError(t, err)

	_, err = New(WithFilesystem(fs)).Resolve(prog, "/src/main.gox")
	require.Error(t, err)
	assert.True(t, gerrors.IsParse(err))
	assert.Contains(t, err.Error(), "/src/broken.gox:1:5")
}

func TestParsedFilesAreCached(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/src/lib.gox", []byte("let x = 1\n"), 0o644))
	prog, err := parser.Parse("/src/main.gox", "import \"lib.gox\" as a\nimport \"lib.gox\" as b\n")
	require.NoError(t, err)

	r := New(WithFilesystem(fs))
	res, err := r.Resolve(prog, "/src/main.gox")
	require.NoError(t, err)
	require.Len(t, res.Modules, 1)

	a, _ := res.Target(prog.Statements[0].(*ast.ImportStmt))
	b, _ := res.Target(prog.Statements[1].(*ast.ImportStmt))
	assert.Same(t, a, b)
}
