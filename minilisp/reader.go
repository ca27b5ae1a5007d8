package minilisp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

type punct string

const (
	leftParen   punct = "("
	rightParen  punct = ")"
	singleQuote punct = "'"
)

type eof struct{}

// eofToken is a token which represents the end of input.
var eofToken = eof{}

// Reader represents a reader of raw expression trees.
type Reader struct {
	scanner *bufio.Scanner
	token   any      // the current token
	tokens  []string // tokens read from the current line
	index   int      // the next index of tokens
	line    string   // the current line
	lineNo  int      // the current line number
	erred   bool     // a flag if an error has happened
}

// NewReader constructs a reader which will read expressions from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Read reads an expression and returns it and nil.
// If the input runs out, it will return nil and io.EOF.
// If an error happens, it will return nil and the error.
func (rr *Reader) Read() (result *Expression, err error) {
	defer recoverError(&err)
	rr.readToken()
	if rr.token == eofToken {
		return nil, io.EOF
	}
	return shape(rr.parseExpression(), roleExpr), nil
}

// ReadAll reads every expression in src.
func ReadAll(src string) ([]*Expression, error) {
	rr := NewReader(strings.NewReader(src))
	var result []*Expression
	for {
		x, err := rr.Read()
		if errors.Is(err, io.EOF) {
			return result, nil
		}
		if err != nil {
			return result, err
		}
		result = append(result, x)
	}
}

// IsIncomplete returns true if err says the input ended inside an expression.
func IsIncomplete(err error) bool {
	return errors.Is(err, ErrIncomplete)
}

func (rr *Reader) newSyntaxError(msg string, arg any) *EvalError {
	rr.erred = true
	s := fmt.Sprintf("%s -- %d: %s", fmt.Sprintf(msg, arg), rr.lineNo, rr.line)
	return &EvalError{Kind: ErrSyntax, Message: s}
}

// parseExpression parses the current token and what follows it into a
// datum: every parenthesized list becomes a Group.
func (rr *Reader) parseExpression() *Expression {
	switch rr.token {
	case leftParen: // (a b c)
		rr.readToken()
		return NewNode[Element](Group{}, rr.parseListBody()...)
	case singleQuote: // 'a => (quote a)
		rr.readToken()
		return NewNode[Element](Group{}, NewNode[Element](quoteKeyword), rr.parseExpression())
	case rightParen:
		panic(rr.newSyntaxError("unexpected \"%v\"", rr.token))
	case eofToken:
		panic(&EvalError{Kind: ErrIncomplete, Message: "unexpected EOF"})
	}
	return NewNode[Element](rr.token.(Element))
}

func (rr *Reader) parseListBody() []*Expression {
	var items []*Expression
	for {
		switch rr.token {
		case eofToken:
			panic(&EvalError{Kind: ErrIncomplete, Message: "unexpected EOF"})
		case rightParen:
			return items
		}
		items = append(items, rr.parseExpression())
		rr.readToken()
	}
}

// readToken reads the next token and set it to rr.token.
func (rr *Reader) readToken() {
	// Read the next line if the line ends or an error happened last time.
	for len(rr.tokens) <= rr.index || rr.erred {
		rr.erred = false
		if rr.scanner.Scan() {
			rr.line = rr.scanner.Text()
			rr.lineNo++
		} else {
			if err := rr.scanner.Err(); err != nil {
				panic(err)
			}
			rr.token = eofToken
			return
		}
		mm := tokenPat.FindAllStringSubmatch(rr.line, -1)
		tt := make([]string, 0, len(mm)*3/5) // Estimate 40% will be spaces.
		for _, m := range mm {
			if m[1] != "" {
				tt = append(tt, m[1])
			}
		}
		rr.tokens = tt
		rr.index = 0
	}
	// Read the next token.
	s := rr.tokens[rr.index]
	rr.index++
	switch punct(s) {
	case leftParen, rightParen, singleQuote:
		rr.token = punct(s)
		return
	}
	if s[0] == '"' {
		n := len(s) - 1
		if n < 1 || s[n] != '"' {
			panic(rr.newSyntaxError("bad string: '%s'", s))
		}
		s = s[1:n]
		s = escapePat.ReplaceAllStringFunc(s, func(t string) string {
			r, ok := escapes[t]
			if !ok {
				r = t // Leave any invalid escape sequence as it is.
			}
			return r
		})
		rr.token = String(s)
		return
	}
	if looksNumeric(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			panic(rr.newSyntaxError("bad number: %s", s))
		}
		rr.token = Number(f)
		return
	}
	switch s {
	case "#f":
		rr.token = Boolean(false)
	case "#t":
		rr.token = Boolean(true)
	default:
		rr.token = Identifier(s)
	}
}

// looksNumeric keeps names such as inf and nan from being read as numbers.
// A token which looks numeric must parse as a float64.
func looksNumeric(s string) bool {
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	if len(s) > 0 && s[0] == '.' {
		s = s[1:]
	}
	return len(s) > 0 && s[0] >= '0' && s[0] <= '9'
}

// tokenPat is a regular expression to split a line to tokens.
var tokenPat = regexp.MustCompile(`\s+|;.*$|("(\\.?|.)*?"|[^()'"; \t]+|.)`)

// escapePat is a reg. expression to take an escape sequence out of a string.
var escapePat = regexp.MustCompile(`\\(.)`)

// escapes is a mapping from an escape sequence to its string value.
var escapes = map[string]string{
	`\\`: `\`,
	`\"`: `"`,
	`\n`: "\n", `\r`: "\r", `\f`: "\f", `\b`: "\b", `\t`: "\t", `\v`: "\v",
}

//----------------------------------------------------------------------

// role is the syntactic position of a datum.
type role int

const (
	roleExpr     role = iota // an expression; a list is an application
	roleGroup                // a list of expressions, e.g. (x y) in (lambda (x y) ...)
	roleBindings             // a list of groups, as in (let ((x 1) (y 2)) ...)
)

// shape turns the datum d into a raw expression tree according to its role.
// Lists headed by a keyword become form markers.
func shape(d *Expression, r role) *Expression {
	if !isGroup(d) {
		return d
	}
	switch r {
	case roleGroup:
		return NewNode[Element](Group{}, shapeAll(d.Children, roleExpr)...)
	case roleBindings:
		return NewNode[Element](Group{}, shapeAll(d.Children, roleGroup)...)
	}
	if len(d.Children) > 0 {
		if id, ok := d.Children[0].Value.(Identifier); ok {
			if id == quoteKeyword {
				if len(d.Children) != 2 {
					panic(NewEvalError(ErrSyntax, "quote expects one expression", d))
				}
				return valueNode(&Quoted{d.Children[1]})
			}
			if marker, ok := keywords[id]; ok {
				return shapeForm(marker, d.Children[1:])
			}
		}
	}
	return NewNode[Element](Eval{}, shapeAll(d.Children, roleExpr)...)
}

func shapeAll(dd []*Expression, r role) []*Expression {
	result := make([]*Expression, len(dd))
	for i, d := range dd {
		result[i] = shape(d, r)
	}
	return result
}

func shapeForm(marker Element, args []*Expression) *Expression {
	children := make([]*Expression, len(args))
	for i, a := range args {
		r := roleExpr
		switch marker.(type) {
		case Lambda, Define: // (lambda (v...) e...), (define (f v...) e...)
			if i == 0 {
				r = roleGroup
			}
		case Let: // (let ((v e)...) e...)
			if i == 0 {
				r = roleBindings
			}
		case Cond: // (cond (test e...)...)
			r = roleGroup
		}
		children[i] = shape(a, r)
	}
	return NewNode[Element](marker, children...)
}
