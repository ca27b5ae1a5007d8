package main

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nukata/minilisp-in-go/journal"
	"github.com/nukata/minilisp-in-go/minilisp"
)

func TestSessionEval(t *testing.T) {
	s, err := newSession(nil)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		src  string
		want string
	}{
		{"(define (square x) (* x x))", ""},
		{"(square 4) (square 5)", "16\n25"},
		{`(display "hi") (+ 1 2)`, "hi\n3"},
		{`(display "line") (newline)`, "line\n"},
	}
	for _, tt := range tests {
		got, err := s.eval(tt.src)
		if err != nil {
			t.Fatalf("%s: %v", tt.src, err)
		}
		if got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.src, tt.want, got)
		}
	}
}

func TestSessionEvalErrors(t *testing.T) {
	s, err := newSession(nil)
	if err != nil {
		t.Fatal(err)
	}
	text, err := s.eval(`(display "before") (undefined)`)
	if !errors.Is(err, minilisp.ErrUnbound) {
		t.Fatalf("expected unbound identifier, got %v", err)
	}
	if text != "before" {
		t.Fatalf("expected the output before the error, got %q", text)
	}
	if _, err := s.eval("(+ 1"); !minilisp.IsIncomplete(err) {
		t.Fatalf("expected incomplete input, got %v", err)
	}
}

func TestSessionRecordsJournal(t *testing.T) {
	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()
	s, err := newSession(j)
	if err != nil {
		t.Fatal(err)
	}
	s.eval("(define x 2) (* x 21)")
	entries, err := j.Entries(j.Session())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[1].Result != "42" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if !strings.HasPrefix(entries[0].Form, "(define x 2") {
		t.Fatalf("unexpected form %q", entries[0].Form)
	}
}
