/*
  MiniLisp in Go: the command-line interpreter.

  Usage: minilisp [flags] [file...]

  Each file is evaluated in order in one interpreter; "-" reads
  expressions from the standard input interactively.  With no file and
  no -e, the interpreter starts interactively.
*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/nukata/minilisp-in-go/journal"
	"github.com/nukata/minilisp-in-go/minilisp"
)

// Environment variables which supply defaults for the flags of the same names.
const (
	historyEnv = "MINILISP_HISTORY"
	journalEnv = "MINILISP_JOURNAL"
)

type config struct {
	expr    string // -e
	history string
	journal string
	watch   bool
	debug   bool
	version bool
	files   []string
}

// parseConfig parses the command-line arguments after the program name.
func parseConfig(args []string, getenv func(string) string, stderr io.Writer) (*config, error) {
	cfg := &config{}
	fs := flag.NewFlagSet("minilisp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: minilisp [flags] [file...]")
		fs.PrintDefaults()
	}
	fs.StringVar(&cfg.expr, "e", "", "evaluate `expression` before any file")
	fs.StringVar(&cfg.history, "history", getenv(historyEnv),
		"keep the interactive history in `file` (default $"+historyEnv+")")
	fs.StringVar(&cfg.journal, "journal", getenv(journalEnv),
		"record every evaluated form in the SQLite database `file` (default $"+journalEnv+")")
	fs.BoolVar(&cfg.watch, "watch", false, "evaluate the files again whenever one of them changes")
	fs.BoolVar(&cfg.debug, "debug", false, "trace definitions and calls on the standard error")
	fs.BoolVar(&cfg.version, "version", false, "print the version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.files = fs.Args()
	if len(cfg.files) == 0 && cfg.expr == "" && !cfg.watch {
		cfg.files = []string{"-"}
	}
	return cfg, nil
}

// newInterpreter constructs an interpreter printing to out as cfg says.
// The returned function closes the journal, if any.
func newInterpreter(cfg *config, out io.Writer) (*minilisp.Interpreter, func(), error) {
	opts := []minilisp.Option{minilisp.WithOutput(out)}
	if cfg.debug {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		opts = append(opts, minilisp.WithLogger(slog.New(handler)))
	}
	closeJournal := func() {}
	if cfg.journal != "" {
		j, err := journal.Open(cfg.journal)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, minilisp.WithObserver(
			func(form *minilisp.Expression, result minilisp.Value, err error) {
				var s string
				if err == nil {
					s = minilisp.Str(result)
				}
				if jerr := j.Record(minilisp.ExprString(form), s, err); jerr != nil {
					log.Println(jerr)
				}
			}))
		closeJournal = func() {
			if err := j.Close(); err != nil {
				log.Println(err)
			}
		}
	}
	in, err := minilisp.NewInterpreter(opts...)
	if err != nil {
		closeJournal()
		return nil, nil, err
	}
	return in, closeJournal, nil
}

// run evaluates cfg.expr and then cfg.files in in, and prints the value
// of the last expression unless it is void.  It returns the exit status.
func run(in *minilisp.Interpreter, cfg *config, out io.Writer) int {
	var result minilisp.Value = minilisp.Void{}
	if cfg.expr != "" {
		v, err := in.EvaluateString(cfg.expr)
		if err != nil {
			fmt.Fprintln(out, err)
			return 1
		}
		result = v
	}
	for _, fileName := range cfg.files {
		if fileName == "-" {
			repl(in, cfg, out)
			fmt.Fprintln(out, "Goodbye")
			result = minilisp.Void{}
			continue
		}
		v, err := in.LoadFile(fileName)
		if err != nil {
			fmt.Fprintln(out, err)
			return 1
		}
		result = v
	}
	if _, ok := result.(minilisp.Void); !ok {
		fmt.Fprintln(out, minilisp.Str(result))
	}
	return 0
}

// Main runs the interpreter with args and returns the exit status.
func Main(args []string) int {
	log.SetFlags(0)
	log.SetPrefix("minilisp: ")
	cfg, err := parseConfig(args[1:], os.Getenv, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}
	if cfg.version {
		fmt.Println("minilisp", minilisp.Version)
		return 0
	}
	if cfg.watch {
		return watch(cfg)
	}
	in, closeJournal, err := newInterpreter(cfg, os.Stdout)
	if err != nil {
		log.Println(err)
		return 1
	}
	defer closeJournal()
	return run(in, cfg, os.Stdout)
}

func main() {
	os.Exit(Main(os.Args))
}
