package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/btouchard/gox/internal/engine"
)

func newBuildCmd() *cobra.Command {
	var outputBinary string
	cmd := &cobra.Command{
		Use:   "build [-o binary] <input.gox>",
		Short: "Build a script into a standalone executable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			binary := outputBinary
			if binary == "" {
				base := filepath.Base(args[0])
				binary = strings.TrimSuffix(base, filepath.Ext(base))
			}
			if err := buildBinary(cmd.Context(), args[0], binary); err != nil {
				return err
			}
			fmt.Printf("Built %s successfully\n", binary)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputBinary, "output", "o", "", "output binary path (default: input filename without extension)")
	return cmd
}

// buildBinary compiles a .gox file into a Go binary.
func buildBinary(ctx context.Context, inputFile, outputBinary string) error {
	src, err := readSource(inputFile)
	if err != nil {
		return err
	}
	prog, err := parseSource(inputFile, src)
	if err != nil {
		return err
	}

	absBinary, err := filepath.Abs(outputBinary)
	if err != nil {
		return errors.Wrap(err, "resolving output path")
	}

	e := engine.New(engine.WithConfig(cfg))
	defer func() { _ = e.Close() }()
	r, err := e.Runner()
	if err != nil {
		return err
	}
	return r.BuildBinary(ctx, prog, absBinary)
}
