package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/btouchard/gox/internal/formatter"
)

func newFmtCmd() *cobra.Command {
	var diff bool
	cmd := &cobra.Command{
		Use:   "fmt [-d] <files...>",
		Short: "Normalize the layout of scripts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result *multierror.Error
			for _, file := range args {
				if err := fmtFile(file, diff); err != nil {
					result = multierror.Append(result, fmt.Errorf("formatting %s: %w", file, err))
				}
			}
			return result.ErrorOrNil()
		},
	}
	cmd.Flags().BoolVarP(&diff, "diff", "d", false, "display diff instead of writing")
	return cmd
}

func fmtFile(path string, showDiff bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	original := string(data)
	result, err := formatter.Source(original)
	if err != nil {
		return err
	}

	if showDiff {
		if result != original {
			fmt.Printf("--- %s\n+++ %s (formatted)\n", path, path)
			printSimpleDiff(original, result)
		}
		return nil
	}

	if result == original {
		return nil
	}

	return os.WriteFile(path, []byte(result), 0o644)
}

func printSimpleDiff(a, b string) {
	aLines := strings.Split(a, "\n")
	bLines := strings.Split(b, "\n")

	maxLen := max(len(aLines), len(bLines))

	for i := 0; i < maxLen; i++ {
		aLine, bLine := "", ""
		if i < len(aLines) {
			aLine = aLines[i]
		}
		if i < len(bLines) {
			bLine = bLines[i]
		}
		if aLine != bLine {
			if i < len(aLines) {
				fmt.Printf("-%s\n", aLine)
			}
			if i < len(bLines) {
				fmt.Printf("+%s\n", bLine)
			}
		}
	}
}
