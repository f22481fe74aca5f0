package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/ajkachnic/bliss/pkg/diagnostics"
	"github.com/ajkachnic/bliss/pkg/driver"
	"github.com/ajkachnic/bliss/pkg/interpreter"
	"github.com/ajkachnic/bliss/pkg/lexer"
	"github.com/ajkachnic/bliss/pkg/runtime"
	"github.com/ajkachnic/bliss/pkg/token"
)

const (
	historyFile = ".bliss_history"
	replName    = "<repl>"
	promptMain  = "bliss> "
	promptCont  = "...    "
)

const replHelp = `REPL commands:
  :help    Show this help
  :quit    Exit the REPL
`

func runRepl(args []string) int {
	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "bliss repl: unexpected arguments %v\n", args)
		return 1
	}
	project, err := driver.OpenProject(".")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	interp, err := newInterpreter(project)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Fprintf(os.Stdout, "%s\nCtrl+C cancels input, Ctrl+D exits. Type :help for commands.\n", cliToolVersion)
	r := &repl{session: interp.NewSession(replName), out: os.Stdout, errOut: os.Stderr}
	r.loop(func(prompt string) (string, error) {
		line, err := ln.Prompt(prompt)
		if err == nil && strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		return line, err
	})
	return 0
}

type repl struct {
	session *interpreter.Session
	out     io.Writer
	errOut  io.Writer
}

func (r *repl) loop(prompt func(string) (string, error)) {
	for {
		src, ok := r.read(prompt)
		if !ok {
			fmt.Fprintln(r.out)
			return
		}
		switch strings.TrimSpace(src) {
		case "":
			continue
		case ":quit", ":q":
			return
		case ":help":
			fmt.Fprint(r.out, replHelp)
			continue
		}
		r.eval(src)
	}
}

// read collects lines until they form a complete input. It reports false
// at end of input.
func (r *repl) read(prompt func(string) (string, error)) (string, bool) {
	var b strings.Builder
	for {
		p := promptMain
		if b.Len() > 0 {
			p = promptCont
		}
		line, err := prompt(p)
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !incomplete(b.String()) {
			return b.String(), true
		}
	}
}

func (r *repl) eval(src string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	v, diags, err := r.session.Eval(ctx, src)
	var derr *diagnostics.Error
	switch {
	case errors.As(err, &derr):
		fmt.Fprint(r.errOut, diagnostics.Render(replName, src, derr.Diagnostics))
		return
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(r.errOut, "interrupted")
		return
	case err != nil:
		fmt.Fprintln(r.errOut, err)
		return
	}
	for _, d := range diags {
		fmt.Fprintln(r.errOut, diagnostics.Describe(replName, d))
	}
	if v != nil && v != runtime.Null {
		fmt.Fprintln(r.out, runtime.Inspect(v))
	}
}

// incomplete reports whether src ends inside brackets or a string, or with
// an operator that needs a right-hand side.
func incomplete(src string) bool {
	lx := lexer.New(src)
	depth := 0
	last := token.EOF
	for {
		tok := lx.Next()
		switch tok.Kind {
		case token.EOF:
			if depth > 0 {
				return true
			}
			switch last {
			case token.Arrow, token.DoubleColon, token.Assign, token.Pipe, token.Comma, token.And, token.Or:
				return true
			}
			return false
		case token.Illegal:
			return strings.HasPrefix(tok.Err, "unterminated")
		case token.LParen, token.LBracket, token.LBrace, token.HashBracket, token.HashBrace:
			depth++
		case token.RParen, token.RBracket, token.RBrace:
			depth--
		}
		last = tok.Kind
	}
}
