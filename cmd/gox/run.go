package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/btouchard/gox/internal/compiler/ast"
	"github.com/btouchard/gox/internal/engine"
)

type runOptions struct {
	tokens bool
	ast    bool
	timing bool
	native bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run <input.gox> [args...]",
		Short: "Run a script",
		Long: `Run a script. Scripts with native blocks or require statements are
built with the Go toolchain and cached; everything else is interpreted.
Arguments after the script are available through os.args().

Native builds import the gox runtime. Released binaries require their own
version; development builds use the checkout they were built from. Set
GOX_RUNTIME_DIR (or --runtime-dir) to build against another checkout, or
GOX_RUNTIME_VERSION to pin a released runtime.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd.Context(), args[0], args[1:], opts)
		},
	}
	// Everything after the script belongs to the script.
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVar(&opts.tokens, "tokens", false, "print the token stream to stderr before running")
	cmd.Flags().BoolVar(&opts.ast, "ast", false, "print the syntax tree to stderr before running")
	cmd.Flags().BoolVar(&opts.timing, "time", false, "report the run time on stderr")
	cmd.Flags().BoolVar(&opts.native, "native", false, "build with the Go toolchain even without native code")
	return cmd
}

func runScript(ctx context.Context, inputFile string, scriptArgs []string, opts runOptions) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := readSource(inputFile)
	if err != nil {
		return err
	}
	if opts.tokens {
		if err := printTokens(os.Stderr, inputFile, src); err != nil {
			return err
		}
	}
	prog, err := parseSource(inputFile, src)
	if err != nil {
		return err
	}
	if opts.ast {
		ast.Dump(os.Stderr, prog)
	}

	e := engine.New(
		engine.WithConfig(cfg),
		engine.WithArgs(scriptArgs),
		engine.ForceNative(opts.native),
	)
	defer func() { _ = e.Close() }()

	start := time.Now()
	backend, err := e.Backend(prog)
	if err != nil {
		return err
	}
	_, err = e.Run(ctx, prog)
	if opts.timing {
		_, _ = fmt.Fprintf(os.Stderr, "%s: %s (%s)\n", inputFile, time.Since(start).Round(time.Microsecond), backend)
	}
	return err
}
