package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/btouchard/gox/internal/compiler/ast"
	"github.com/btouchard/gox/internal/compiler/lexer"
	"github.com/btouchard/gox/internal/compiler/parser"
	"github.com/btouchard/gox/internal/compiler/resolver"
	"github.com/btouchard/gox/internal/compiler/token"
	"github.com/btouchard/gox/internal/native"
)

// readSource reads a script; "-" reads standard input.
func readSource(inputFile string) (string, error) {
	var (
		data []byte
		err  error
	)
	if inputFile == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(inputFile)
	}
	if err != nil {
		return "", errors.Wrap(err, "reading file")
	}
	return string(data), nil
}

func parseSource(inputFile, src string) (*ast.Program, error) {
	if inputFile == "-" {
		inputFile = ""
	}
	return parser.Parse(inputFile, src)
}

func newTranspileCmd() *cobra.Command {
	var outputFile string
	cmd := &cobra.Command{
		Use:   "transpile [-o main.go] <input.gox>",
		Short: "Generate the Go program for a script",
		Long: `Generate the Go program for a script. Native blocks are written as
native_N.go next to the output file. "-o -" prints main.go only.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return transpile(args[0], outputFile)
		},
	}
	cmd.Flags().StringVarP(&outputFile, "output", "o", "main.go", "output file path")
	return cmd
}

func transpile(inputFile, outputFile string) error {
	src, err := readSource(inputFile)
	if err != nil {
		return err
	}
	prog, err := parseSource(inputFile, src)
	if err != nil {
		return err
	}
	res, err := resolver.New().Resolve(prog, prog.File)
	if err != nil {
		return err
	}
	unit, err := native.NewUnit(res, "")
	if err != nil {
		return err
	}

	if outputFile == "-" {
		_, err := io.WriteString(os.Stdout, unit.Program.GoCode)
		return err
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputFile)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "creating output directory")
		}
	}
	if err := os.WriteFile(outputFile, []byte(unit.Program.GoCode), 0o644); err != nil {
		return errors.Wrap(err, "writing output file")
	}
	for _, nf := range unit.Program.Natives {
		if err := os.WriteFile(filepath.Join(dir, nf.Name), []byte(nf.Code), 0o644); err != nil {
			return errors.Wrapf(err, "writing %s", nf.Name)
		}
	}

	fmt.Printf("Generated %s successfully\n", outputFile)
	return nil
}

func newTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <input.gox>",
		Short: "Print the token stream of a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			return printTokens(os.Stdout, args[0], src)
		},
	}
}

// printTokens writes one token per line: position, type and literal.
func printTokens(w io.Writer, inputFile, src string) error {
	l := lexer.NewNamed(inputFile, src)
	for {
		tok := l.NextToken()
		if tok.Type == token.EOF {
			break
		}
		nl := ""
		if tok.Newline {
			nl = " ↵"
		}
		_, _ = fmt.Fprintf(w, "%d:%d\t%-8s %q%s\n", tok.Pos.Line, tok.Pos.Column, tok.Type, tok.Literal, nl)
	}
	return l.Err()
}

func newASTCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ast <input.gox>",
		Short: "Print the syntax tree of a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			prog, err := parseSource(args[0], src)
			if err != nil {
				return err
			}
			ast.Dump(os.Stdout, prog)
			return nil
		},
	}
}
