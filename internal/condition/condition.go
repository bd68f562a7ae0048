// Package condition compiles achievement conditions stored as text into
// predicates over a finished score.
//
// The language is deliberately small: numbers, score fields, arithmetic,
// bitwise masks (for mods), comparisons (chainable, as in "1 <= sr < 2") and
// boolean connectives. There are no calls, assignments or loops.
package condition

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrDivisionByZero = errors.New("division by zero")

// CompileError describes why a condition could not be compiled.
type CompileError struct {
	Pos int
	Msg string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile condition: %s (at %d)", e.Msg, e.Pos)
}

func errorf(pos int, format string, args ...any) *CompileError {
	return &CompileError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Condition is a compiled predicate. It is immutable and safe for
// concurrent use.
type Condition struct {
	src  string
	root node
}

// Compile parses src once; the returned Condition can be evaluated any
// number of times.
func Compile(src string) (*Condition, error) {
	if strings.TrimSpace(src) == "" {
		return nil, errorf(0, "empty expression")
	}
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.parse()
	if err != nil {
		return nil, err
	}
	return &Condition{src: src, root: root}, nil
}

// MustCompile is Compile for conditions known to be valid (tests, defaults).
func MustCompile(src string) *Condition {
	c, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Condition) String() string { return c.src }

// Eval reports whether the score satisfies the condition.
func (c *Condition) Eval(s ScoreFact) (bool, error) {
	v, err := c.root.eval(&s)
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", c.src, err)
	}
	return v != 0, nil
}

// Matches is Eval with evaluation errors treated as "not satisfied".
func (c *Condition) Matches(s ScoreFact) bool {
	ok, err := c.Eval(s)
	return err == nil && ok
}

type node interface {
	eval(s *ScoreFact) (float64, error)
}

type numberNode float64

func (n numberNode) eval(*ScoreFact) (float64, error) { return float64(n), nil }

type fieldNode struct {
	name string
	get  getter
}

func (n fieldNode) eval(s *ScoreFact) (float64, error) { return n.get(s), nil }

type unaryNode struct {
	op string
	x  node
}

func (n unaryNode) eval(s *ScoreFact) (float64, error) {
	v, err := n.x.eval(s)
	if err != nil {
		return 0, err
	}
	if n.op == "not" {
		return boolNum(v == 0), nil
	}
	return -v, nil
}

type logicalNode struct {
	or   bool
	l, r node
}

func (n logicalNode) eval(s *ScoreFact) (float64, error) {
	l, err := n.l.eval(s)
	if err != nil {
		return 0, err
	}
	// short-circuit
	if n.or && l != 0 {
		return 1, nil
	}
	if !n.or && l == 0 {
		return 0, nil
	}
	r, err := n.r.eval(s)
	if err != nil {
		return 0, err
	}
	return boolNum(r != 0), nil
}

type compareNode struct {
	ops      []string
	operands []node
}

func (n compareNode) eval(s *ScoreFact) (float64, error) {
	left, err := n.operands[0].eval(s)
	if err != nil {
		return 0, err
	}
	for i, op := range n.ops {
		right, err := n.operands[i+1].eval(s)
		if err != nil {
			return 0, err
		}
		if !compare(op, left, right) {
			return 0, nil
		}
		left = right
	}
	return 1, nil
}

func compare(op string, a, b float64) bool {
	switch op {
	case "==":
		return a == b
	case "!=":
		return a != b
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	default:
		return a >= b
	}
}

type binaryNode struct {
	op   string
	l, r node
}

func (n binaryNode) eval(s *ScoreFact) (float64, error) {
	a, err := n.l.eval(s)
	if err != nil {
		return 0, err
	}
	b, err := n.r.eval(s)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	case "//":
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return math.Floor(a / b), nil
	case "%":
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		// result takes the sign of the divisor
		r := math.Mod(a, b)
		if r != 0 && (r < 0) != (b < 0) {
			r += b
		}
		return r, nil
	case "&":
		return float64(int64(a) & int64(b)), nil
	case "|":
		return float64(int64(a) | int64(b)), nil
	default: // "^"
		return float64(int64(a) ^ int64(b)), nil
	}
}
