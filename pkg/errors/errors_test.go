package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionString(t *testing.T) {
	tests := []struct {
		name     string
		pos      Position
		expected string
	}{
		{"with file", Position{File: "test.gox", Line: 10, Column: 5}, "test.gox:10:5"},
		{"without file", Position{Line: 10, Column: 5}, "10:5"},
		{"line 1 column 1", Position{Line: 1, Column: 1}, "1:1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.pos.String())
		})
	}
}

func TestCategoryMessages(t *testing.T) {
	pos := Position{File: "a.gox", Line: 2, Column: 7}

	assert.Equal(t, "[lex] a.gox:2:7: unterminated string",
		(&LexError{Pos: pos, Message: "unterminated string"}).Error())
	assert.Equal(t, "[parse] a.gox:2:7: expected ), found EOF",
		(&ParseError{Pos: pos, Expected: ")", Found: "EOF"}).Error())
	assert.Equal(t, "[runtime] a.gox:2:7: undefined variable: x",
		(&RuntimeError{Pos: pos, Kind: UndefinedVariable, Message: "x"}).Error())
	assert.Equal(t, "[runtime] unknown method: String has no method 'frob'",
		NoMethod("String", "frob").Error())
}

func TestBuildErrorKeepsDiagnostics(t *testing.T) {
	diag := "./native_0.go:3:2: undefined: foo\n./native_0.go:4:9: missing return\n"
	err := &BuildError{Stage: "go build", Message: "exit status 1", Diagnostics: diag}

	assert.Contains(t, err.Error(), "./native_0.go:3:2: undefined: foo\n./native_0.go:4:9: missing return")
	assert.True(t, strings.HasPrefix(err.Error(), "[build] go build: exit status 1\n"))
}

func TestWithPos(t *testing.T) {
	pos := Position{Line: 4, Column: 2}

	err := WithPos(Undefined("y"), pos)
	rt, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, pos, rt.Pos)

	// innermost position wins
	again := WithPos(err, Position{Line: 9, Column: 9})
	assert.Equal(t, pos, again.(*RuntimeError).Pos)

	build := Build("go build", "boom")
	assert.Same(t, build, WithPos(build, pos))
	assert.Nil(t, WithPos(nil, pos))
}

func TestCategoryPredicates(t *testing.T) {
	wrapped := fmt.Errorf("running script: %w", Runtime(DivisionByZero, "Division by zero"))

	assert.True(t, IsRuntime(wrapped))
	assert.False(t, IsBuild(wrapped))
	assert.True(t, IsBuild(Build("", "x")))
	assert.True(t, IsLex(&LexError{}))
	assert.True(t, IsParse(&ParseError{}))

	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(&ParseError{}))
	assert.Equal(t, 2, ExitCode(wrapped))
	assert.Equal(t, 3, ExitCode(Build("", "x")))
}

func TestErrorListNew(t *testing.T) {
	el := NewErrorList()
	require.NotNil(t, el)
	assert.False(t, el.HasErrors())
	assert.NoError(t, el.Err())
	assert.Equal(t, "", el.String())
}

func TestErrorListAggregates(t *testing.T) {
	el := NewErrorList()
	el.Add(&ParseError{Pos: Position{Line: 1, Column: 5}, Message: "unexpected ')'"})
	require.Equal(t, el.Errors[0], el.Err())

	el.Add(&ParseError{Pos: Position{Line: 3, Column: 10}, Expected: "}", Found: "EOF"})
	assert.True(t, el.HasErrors())

	err := el.Err()
	require.Error(t, err)
	assert.True(t, IsParse(err))
	assert.Contains(t, err.Error(), "2 errors:")
	assert.Contains(t, err.Error(), "[parse] 1:5: unexpected ')'")
	assert.Contains(t, err.Error(), "[parse] 3:10: expected }, found EOF")
	assert.Contains(t, el.String(), "[parse] 3:10: expected }, found EOF\n")
}
