package minilisp

import (
	"errors"
	"testing"
)

func TestCheckPragma(t *testing.T) {
	tests := []struct {
		src string
		ok  bool
	}{
		{"(+ 1 2)", true},
		{"", true},
		{";; just a comment\n(+ 1 2)", true},
		{";; minilisp >= 0.1\n(+ 1 2)", true},
		{"\n\n  ; minilisp ~0.5\n", true},
		{";; minilisp >= 0.4, < 1.0", true},
		{";; minilisp >= 9.0", false},
		{";; minilisp < 0.5", false},
		{";; minilisp not a version!", false},
		{"(+ 1 2)\n;; minilisp >= 9.0", true},
	}
	for _, tt := range tests {
		err := CheckPragma(tt.src)
		if tt.ok && err != nil {
			t.Errorf("%q: unexpected error %v", tt.src, err)
		}
		if !tt.ok && !errors.Is(err, ErrVersion) {
			t.Errorf("%q: expected a version error, got %v", tt.src, err)
		}
	}
}

func TestStdlibPragmaMatchesVersion(t *testing.T) {
	if err := CheckPragma(stdlib); err != nil {
		t.Fatal(err)
	}
}
