// Command minilisp-mcp serves a MiniLisp interpreter to MCP clients over
// stdio.  Definitions persist between minilisp_eval calls until
// minilisp_reset.
package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/time/rate"

	"github.com/nukata/minilisp-in-go/journal"
	"github.com/nukata/minilisp-in-go/minilisp"
)

// evalRate bounds how often minilisp_eval may run, with bursts of evalBurst.
const (
	evalRate  = rate.Limit(10)
	evalBurst = 20
)

// session is one interpreter shared by all tool calls.
type session struct {
	mu      sync.Mutex
	in      *minilisp.Interpreter
	out     bytes.Buffer
	limiter *rate.Limiter
	journal *journal.Journal // nil unless MINILISP_JOURNAL is set
}

func newSession(j *journal.Journal) (*session, error) {
	s := &session{limiter: rate.NewLimiter(evalRate, evalBurst), journal: j}
	opts := []minilisp.Option{minilisp.WithOutput(&s.out)}
	if j != nil {
		opts = append(opts, minilisp.WithObserver(
			func(form *minilisp.Expression, result minilisp.Value, err error) {
				var v string
				if err == nil {
					v = minilisp.Str(result)
				}
				if jerr := j.Record(minilisp.ExprString(form), v, err); jerr != nil {
					log.Println(jerr)
				}
			}))
	}
	in, err := minilisp.NewInterpreter(opts...)
	if err != nil {
		return nil, err
	}
	s.in = in
	return s, nil
}

// eval evaluates every expression in src and returns what they printed
// followed by the value of each non-void expression.
func (s *session) eval(src string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out.Reset()
	xx, err := minilisp.ReadAll(src)
	if err != nil {
		return "", err
	}
	var results []string
	for _, x := range xx {
		v, err := s.in.Evaluate(x)
		if err != nil {
			return s.out.String(), err
		}
		if _, ok := v.(minilisp.Void); !ok {
			results = append(results, minilisp.Str(v))
		}
	}
	text := s.out.String()
	if len(results) > 0 {
		if text != "" && !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		text += strings.Join(results, "\n")
	}
	return text, nil
}

func (s *session) handleEval(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := request.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !s.limiter.Allow() {
		return mcp.NewToolResultError("too many evaluations; try again shortly"), nil
	}
	text, err := s.eval(src)
	if err != nil {
		if text != "" {
			return mcp.NewToolResultError(text + "\n" + err.Error()), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *session) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.in.Definitions())
	s.in.Reset()
	return mcp.NewToolResultText(fmt.Sprintf("%d definitions discarded", n)), nil
}

func (s *session) handleBuiltins(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b strings.Builder
	for _, name := range s.in.BaseNames() {
		fmt.Fprintln(&b, name)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *session) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.journal == nil {
		return mcp.NewToolResultError("no journal; set MINILISP_JOURNAL"), nil
	}
	entries, err := s.journal.Entries(s.journal.Session())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var b strings.Builder
	for _, e := range entries {
		if e.Error != "" {
			fmt.Fprintf(&b, "%d. %s\n   error: %s\n", e.Seq, e.Form, e.Error)
		} else {
			fmt.Fprintf(&b, "%d. %s\n   => %s\n", e.Seq, e.Form, e.Result)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("minilisp-mcp: ")

	var j *journal.Journal
	if path := os.Getenv("MINILISP_JOURNAL"); path != "" {
		var err error
		if j, err = journal.Open(path); err != nil {
			log.Fatalf("open journal: %v", err)
		}
		defer j.Close()
		log.Printf("journal session %s in %s", j.Session(), path)
	}
	sess, err := newSession(j)
	if err != nil {
		log.Fatalf("start interpreter: %v", err)
	}

	s := server.NewMCPServer(
		"minilisp",
		minilisp.Version,
		server.WithToolCapabilities(false),
	)

	s.AddTool(
		mcp.NewTool("minilisp_eval",
			mcp.WithDescription("Evaluate MiniLisp source. Returns what it printed and the value of each expression. Definitions persist until minilisp_reset."),
			mcp.WithString("source",
				mcp.Required(),
				mcp.Description("One or more expressions, e.g. (define (square x) (* x x)) (square 4)"),
			),
		),
		sess.handleEval,
	)

	s.AddTool(
		mcp.NewTool("minilisp_reset",
			mcp.WithDescription("Discard every top-level definition."),
		),
		sess.handleReset,
	)

	s.AddTool(
		mcp.NewTool("minilisp_builtins",
			mcp.WithDescription("List the built-in procedures and the standard library."),
		),
		sess.handleBuiltins,
	)

	s.AddTool(
		mcp.NewTool("minilisp_history",
			mcp.WithDescription("List the forms evaluated in this session with their results. Needs MINILISP_JOURNAL."),
		),
		sess.handleHistory,
	)

	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
