package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/btouchard/gox/internal/compiler/lexer"
	"github.com/btouchard/gox/internal/compiler/parser"
	"github.com/btouchard/gox/internal/compiler/token"
	"github.com/btouchard/gox/internal/engine"
	"github.com/btouchard/gox/internal/interpreter"
	"github.com/btouchard/gox/pkg/value"
)

const replHelp = `Commands:
  :help    show this help
  :vars    list the variables defined in this session
  :clear   clear the screen
  :reset   forget every definition
  :exit    leave the REPL (also Ctrl-D)
Input continues on the next line while brackets or strings are open.`

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return repl(os.Stdout)
		},
	}
}

type session struct {
	out    io.Writer
	engine *engine.Engine
	interp *interpreter.Interpreter
}

func repl(out io.Writer) error {
	historyFile := ""
	if cfg != nil {
		historyFile = filepath.Join(cfg.CacheDir, "repl_history")
		_ = os.MkdirAll(cfg.CacheDir, 0o755)
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       ":exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	s := &session{out: out, engine: engine.New(engine.WithStdio(os.Stdin, out, os.Stderr))}
	s.interp = s.engine.Interpreter()
	if term.IsTerminal(int(os.Stdout.Fd())) {
		_, _ = fmt.Fprintln(out, "gox "+version()+" (:help for commands)")
	}

	for {
		src, err := readInput(rl)
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if s.command(strings.TrimSpace(src)) {
			return nil
		}
	}
}

// readInput reads one entry, prompting for more lines while it is
// incomplete.
func readInput(rl *readline.Instance) (string, error) {
	rl.SetPrompt(">>> ")
	var lines []string
	for {
		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF && len(lines) > 0 {
				return strings.Join(lines, "\n"), nil
			}
			return "", err
		}
		lines = append(lines, line)
		src := strings.Join(lines, "\n")
		if !incomplete(src) {
			return src, nil
		}
		rl.SetPrompt("... ")
	}
}

// incomplete reports whether src ends inside a bracket, string or native
// block.
func incomplete(src string) bool {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return strings.Contains(err.Error(), "unterminated")
	}
	depth := 0
	for _, tok := range toks {
		switch tok.Type {
		case token.LPAREN, token.LBRACE, token.LBRACKET:
			depth++
		case token.RPAREN, token.RBRACE, token.RBRACKET:
			depth--
		}
	}
	return depth > 0
}

// command handles one entry and reports whether the session is over.
func (s *session) command(src string) bool {
	switch src {
	case "":
		return false
	case ":exit", ":quit", ":q":
		return true
	case ":help":
		_, _ = fmt.Fprintln(s.out, replHelp)
		return false
	case ":clear":
		_, _ = fmt.Fprint(s.out, "\033[H\033[2J")
		return false
	case ":reset":
		s.interp = s.engine.Interpreter()
		return false
	case ":vars":
		s.printVars()
		return false
	}
	if strings.HasPrefix(src, ":") {
		_, _ = fmt.Fprintf(s.out, "unknown command %s (try :help)\n", src)
		return false
	}
	s.eval(src)
	return false
}

func (s *session) eval(src string) {
	prog, err := parser.Parse("<repl>", src)
	if err != nil {
		printError(err)
		return
	}
	v, err := s.interp.Eval(prog)
	if err != nil {
		printError(err)
		return
	}
	if v != nil && v.Kind() != value.NullKind {
		_, _ = fmt.Fprintln(s.out, display(v))
	}
}

// display shows strings quoted so they stand apart from other values.
func display(v value.Value) string {
	if s, ok := v.(value.String); ok {
		return fmt.Sprintf("%q", string(s))
	}
	return v.String()
}

func (s *session) printVars() {
	globals := s.interp.Globals()
	for _, name := range globals.Names() {
		v, _ := globals.Get(name)
		if _, ok := v.(*value.Builtin); ok {
			continue
		}
		_, _ = fmt.Fprintf(s.out, "%s = %s\n", name, display(v))
	}
}

func printError(err error) {
	_, _ = fmt.Fprintln(os.Stderr, err)
}
