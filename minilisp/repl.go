package minilisp

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Non-Interactive Read-Eval Loop of the interpreter.
// It returns the value of the last expression and stops at the first error.
func (in *Interpreter) ReadEvalLoop(input io.Reader) (result Value, err error) {
	result = Void{}
	rr := NewReader(input)
	for {
		x, err := rr.Read()
		if errors.Is(err, io.EOF) {
			return result, nil
		}
		if err == nil {
			result, err = in.Evaluate(x)
		}
		if err != nil {
			return nil, err
		}
	}
}

// Read-Eval-Print Loop of the interpreter.
// An error is printed and does not affect the expressions after it.
func (in *Interpreter) ReadEvalPrintLoop(input io.Reader, output io.Writer, prompt string) {
	rr := NewReader(input)
	for {
		io.WriteString(output, prompt)
		x, err := rr.Read()
		if errors.Is(err, io.EOF) {
			return
		}
		var v Value
		if err == nil {
			v, err = in.Evaluate(x)
		}
		if err != nil {
			fmt.Fprintln(output, err)
		} else if _, ok := v.(Void); !ok {
			fmt.Fprintln(output, Str(v))
		}
	}
}

// LoadFile evaluates the script in fileName.
func (in *Interpreter) LoadFile(fileName string) (Value, error) {
	src, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	if err := CheckPragma(string(src)); err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	v, err := in.EvaluateString(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return v, nil
}
