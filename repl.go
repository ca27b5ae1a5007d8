package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/nukata/minilisp-in-go/minilisp"
)

const (
	promptMain = "> "
	promptCont = "| "
)

const replHelp = `:quit         leave the interpreter
:reset        forget every top-level definition
:vars         list the top-level definitions
:builtins     list the built-in procedures and the standard library
:load FILE    evaluate FILE
:help         show this message`

// repl reads expressions from the standard input and prints their values.
// Line editing is used only when the standard input is a terminal.
func repl(in *minilisp.Interpreter, cfg *config, out io.Writer) {
	if !isTerminal(os.Stdin.Fd()) {
		in.ReadEvalPrintLoop(os.Stdin, out, "")
		return
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if cfg.history != "" {
		if f, err := os.Open(cfg.history); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(cfg.history); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	for {
		src, ok := readByParseProbe(ln)
		if !ok {
			fmt.Fprintln(out)
			return
		}
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		if strings.HasPrefix(src, ":") {
			if quit := command(in, src, out); quit {
				return
			}
			continue
		}
		in.ReadEvalPrintLoop(strings.NewReader(src), out, "")
	}
}

// readByParseProbe reads lines until they make up complete expressions.
// It returns false at the end of input.
func readByParseProbe(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil { // Ctrl-C discards the pending lines.
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, err := minilisp.ReadAll(src); !minilisp.IsIncomplete(err) {
			return src, true
		}
	}
}

// command carries out a REPL command such as ":reset".
// It returns true if the REPL should end.
func command(in *minilisp.Interpreter, line string, out io.Writer) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q":
		return true
	case ":reset":
		in.Reset()
	case ":vars":
		for _, name := range in.Definitions() {
			fmt.Fprintln(out, name)
		}
	case ":builtins":
		names := in.BaseNames()
		s := make([]string, len(names))
		for i, name := range names {
			s[i] = string(name)
		}
		fmt.Fprintln(out, strings.Join(s, " "))
	case ":load":
		if len(fields) != 2 {
			fmt.Fprintln(out, "usage: :load FILE")
			break
		}
		v, err := in.LoadFile(fields[1])
		if err != nil {
			fmt.Fprintln(out, err)
		} else if _, ok := v.(minilisp.Void); !ok {
			fmt.Fprintln(out, minilisp.Str(v))
		}
	case ":help":
		fmt.Fprintln(out, replHelp)
	default:
		fmt.Fprintf(out, "unknown command %s. Type :help for help.\n", fields[0])
	}
	return false
}
