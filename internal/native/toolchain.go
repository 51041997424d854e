package native

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	gerrors "github.com/btouchard/gox/pkg/errors"
)

// Stdio is where a built program reads and writes.
type Stdio struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Toolchain runs the external commands of the native path. Directories
// and binaries are OS paths.
type Toolchain interface {
	Tidy(ctx context.Context, dir string) error
	Build(ctx context.Context, dir, output string) error
	Exec(ctx context.Context, binary string, args, env []string, stdio Stdio) error
}

// GoToolchain drives the go command.
type GoToolchain struct {
	Binary  string   // go executable, "go" when empty
	Flags   []string // extra `go build` flags
	Offline bool     // resolve modules from the local cache only
}

func (t *GoToolchain) Tidy(ctx context.Context, dir string) error {
	return t.run(ctx, "mod tidy", dir, "mod", "tidy")
}

func (t *GoToolchain) Build(ctx context.Context, dir, output string) error {
	args := append([]string{"build", "-o", output}, t.Flags...)
	args = append(args, ".")
	return t.run(ctx, "build", dir, args...)
}

// run executes the go command in dir. A failure becomes a BuildError
// carrying the command's output verbatim.
func (t *GoToolchain) run(ctx context.Context, stage, dir string, args ...string) error {
	bin := t.Binary
	if bin == "" {
		bin = "go"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GOFLAGS=-mod=mod")
	if t.Offline {
		cmd.Env = append(cmd.Env, "GOPROXY=off")
	}
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return gerrors.Build(stage, "go %s cancelled: %v", strings.Join(args, " "), ctx.Err())
		}
		return &gerrors.BuildError{
			Stage:       stage,
			Message:     "go " + strings.Join(args, " ") + ": " + err.Error(),
			Diagnostics: output.String(),
		}
	}
	return nil
}

// Exec runs a built program. Its exit status is not an error: the
// program reports failures through the result file.
func (t *GoToolchain) Exec(ctx context.Context, binary string, args, env []string, stdio Stdio) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdin = stdio.Stdin
	cmd.Stdout = stdio.Stdout
	cmd.Stderr = stdio.Stderr
	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok && ctx.Err() == nil {
			return nil
		}
		return err
	}
	return nil
}
