package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "indentation by depth",
			in:   "fn f(x) {\nif x {\n      return 1\n} else {\nreturn 2\n}\n}\n",
			want: "fn f(x) {\n  if x {\n    return 1\n  } else {\n    return 2\n  }\n}\n",
		},
		{
			name: "multi-line literals",
			in:   "let m = {\n\"a\": [\n1,\n2\n],\n}\n",
			want: "let m = {\n  \"a\": [\n    1,\n    2\n  ],\n}\n",
		},
		{
			name: "blank lines and trailing space",
			in:   "\n\nlet a = 1   \n\n\n\nlet b = 2\n\n",
			want: "let a = 1\n\nlet b = 2\n",
		},
		{
			name: "brackets in strings and comments",
			in:   "let s = \"{[(\" // {\nprint(s)\n/* {\n{ */\nprint(1)\n",
			want: "let s = \"{[(\" // {\nprint(s)\n/* {\n{ */\nprint(1)\n",
		},
		{
			name: "template continuation lines are kept",
			in:   "let s = `a\n   b {`\n  print(s)\n",
			want: "let s = `a\n   b {`\nprint(s)\n",
		},
		{
			name: "native block is gofmt'ed",
			in:   "go {\nfunc answer()   int64 {\nreturn 42\n}\n}\nanswer()\n",
			want: "go {\n  func answer() int64 {\n    return 42\n  }\n}\nanswer()\n",
		},
		{
			name: "native block gofmt rejects is dedented",
			in:   "go {\n    func answer( {}\n}\n",
			want: "go {\n  func answer( {}\n}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Source(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := Source(got)
			require.NoError(t, err)
			assert.Equal(t, got, again, "formatting is not idempotent")
		})
	}
}

func TestSourceThatDoesNotLex(t *testing.T) {
	in := "let s = \"open\n"
	got, err := Source(in)
	require.Error(t, err)
	assert.Equal(t, in, got)
}
