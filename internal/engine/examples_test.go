package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btouchard/gox/pkg/value"
)

func example(name string) string {
	return filepath.Join("..", "..", "examples", name)
}

func TestExamples(t *testing.T) {
	tests := []struct {
		file   string
		output string
		result value.Value
	}{
		{file: "greeting.gox", output: "Hello, World!\n", result: value.Null{}},
		{file: "fib.gox", result: value.Int(55)},
		{
			file:   "pipeline.gox",
			output: "[6, 8, 10]\ntotal: 24\n",
			result: value.NewArray(value.Int(6), value.Int(8), value.Int(10)),
		},
		{
			file: "collections.gox",
			output: "[3, 1, 2] [1, 2, 3]\n" +
				"[3, 1, 2, 9]\n" +
				"[3, 1, 2, 9] [3, 1, 2, 9, 10]\n" +
				"ada: 36\nalan: 41\ngrace: 85\n",
		},
		{file: "imports.gox", output: "HELLO!\n", result: value.String("ababab")},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			e, tc, out := newEngine(t, nil)
			got, err := e.RunFile(context.Background(), example(tt.file))
			require.NoError(t, err)
			assert.Zero(t, tc.runs, "interpreted scripts never reach the toolchain")
			if tt.output != "" {
				assert.Equal(t, tt.output, out.String())
			}
			if tt.result != nil {
				assert.True(t, value.Equal(tt.result, got), "got %s, want %s", got, tt.result)
			}
		})
	}
}

func TestModulesExample(t *testing.T) {
	e, _, out := newEngine(t, nil)
	_, err := e.RunFile(context.Background(), example("modules.gox"))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "script, go")
	assert.Contains(t, out.String(), `"ok":true`)
}

func TestNativeExampleSelectsToolchain(t *testing.T) {
	e, _, _ := newEngine(t, value.Int(42))
	prog, err := ParseFile(example("native_answer.gox"))
	require.NoError(t, err)
	backend, err := e.Backend(prog)
	require.NoError(t, err)
	assert.Equal(t, Native, backend)

	got, err := e.Run(context.Background(), prog)
	require.NoError(t, err)
	assert.Equal(t, value.Int(42), got)
}
