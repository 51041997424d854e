// Package errors defines the error categories reported by Gox: lexing,
// parsing, evaluation and native builds. Each category is a distinct type
// so callers can tell a broken script apart from broken embedded Go.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Position represents a location in source code
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	if p.File != "" {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether the position points somewhere in a source file.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// LexError is a malformed token or unterminated literal.
type LexError struct {
	Pos     Position
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("[lex] %s: %s", e.Pos, e.Message)
}

// ParseError is an unexpected token or structure.
type ParseError struct {
	Pos      Position
	Expected string
	Found    string
	Message  string
}

func (e *ParseError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("expected %s, found %s", e.Expected, e.Found)
	}
	return fmt.Sprintf("[parse] %s: %s", e.Pos, msg)
}

// RuntimeKind classifies a RuntimeError.
type RuntimeKind string

const (
	TypeMismatch        RuntimeKind = "type mismatch"
	UndefinedVariable   RuntimeKind = "undefined variable"
	UnknownMethod       RuntimeKind = "unknown method"
	ArgumentError       RuntimeKind = "argument error"
	IndexOutOfBounds    RuntimeKind = "index out of bounds"
	DivisionByZero      RuntimeKind = "division by zero"
	IOError             RuntimeKind = "io error"
	ImportError         RuntimeKind = "import error"
	FeatureNotSupported RuntimeKind = "feature not supported"
	Generic             RuntimeKind = "error"
)

// RuntimeError is raised while evaluating a script.
type RuntimeError struct {
	Pos     Position
	Kind    RuntimeKind
	Message string
}

func (e *RuntimeError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("[runtime] %s: %s: %s", e.Pos, e.Kind, e.Message)
	}
	return fmt.Sprintf("[runtime] %s: %s", e.Kind, e.Message)
}

// Runtime builds a RuntimeError without position; the evaluator attaches
// one with WithPos when the error crosses a node boundary.
func Runtime(kind RuntimeKind, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Mismatch(expected, found string) *RuntimeError {
	return Runtime(TypeMismatch, "expected %s, found %s", expected, found)
}

func Undefined(name string) *RuntimeError {
	return Runtime(UndefinedVariable, "%s", name)
}

func NoMethod(kind, method string) *RuntimeError {
	return Runtime(UnknownMethod, "%s has no method '%s'", kind, method)
}

func Arity(name string, want, got int) *RuntimeError {
	if name == "" {
		name = "<anonymous>"
	}
	return Runtime(ArgumentError, "%s expects %d argument(s), got %d", name, want, got)
}

// WithPos attaches pos to a RuntimeError that does not have one yet.
// Errors of other categories and positioned runtime errors are returned
// unchanged so the innermost location wins.
func WithPos(err error, pos Position) error {
	var rt *RuntimeError
	if err == nil || !stderrors.As(err, &rt) || rt.Pos.IsValid() || !pos.IsValid() {
		return err
	}
	cp := *rt
	cp.Pos = pos
	return &cp
}

// BuildError reports a failure of the native build path. Diagnostics
// holds the Go toolchain output exactly as it was printed.
type BuildError struct {
	Stage       string
	Message     string
	Diagnostics string
}

func (e *BuildError) Error() string {
	var b strings.Builder
	b.WriteString("[build]")
	if e.Stage != "" {
		b.WriteString(" " + e.Stage + ":")
	}
	b.WriteString(" " + e.Message)
	if e.Diagnostics != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimRight(e.Diagnostics, "\n"))
	}
	return b.String()
}

func Build(stage, format string, args ...interface{}) *BuildError {
	return &BuildError{Stage: stage, Message: fmt.Sprintf(format, args...)}
}

// ErrorList collects multiple compilation errors
type ErrorList struct {
	Errors []error
}

func NewErrorList() *ErrorList {
	return &ErrorList{}
}

func (el *ErrorList) Add(err error) {
	el.Errors = append(el.Errors, err)
}

func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

func (el *ErrorList) String() string {
	s := ""
	for _, e := range el.Errors {
		s += e.Error() + "\n"
	}
	return s
}

// Err returns nil for an empty list, the single error for a list of one,
// and a multierror otherwise.
func (el *ErrorList) Err() error {
	switch len(el.Errors) {
	case 0:
		return nil
	case 1:
		return el.Errors[0]
	}
	return &multierror.Error{Errors: el.Errors, ErrorFormat: listFormat}
}

func listFormat(errs []error) string {
	lines := make([]string, len(errs))
	for i, err := range errs {
		lines[i] = err.Error()
	}
	return fmt.Sprintf("%d errors:\n%s", len(errs), strings.Join(lines, "\n"))
}

func IsLex(err error) bool {
	var e *LexError
	return stderrors.As(err, &e)
}

func IsParse(err error) bool {
	var e *ParseError
	return stderrors.As(err, &e)
}

func IsRuntime(err error) bool {
	var e *RuntimeError
	return stderrors.As(err, &e)
}

func IsBuild(err error) bool {
	var e *BuildError
	return stderrors.As(err, &e)
}

// ExitCode maps an error category to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case IsBuild(err):
		return 3
	case IsRuntime(err):
		return 2
	default:
		return 1
	}
}
