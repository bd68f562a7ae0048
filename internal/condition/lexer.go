package condition

import (
	"strconv"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokDot
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

// longest operators first so "<=" wins over "<"
var operators = []string{
	"==", "!=", "<=", ">=", "&&", "||", "//",
	"<", ">", "!", "&", "|", "^", "+", "-", "*", "/", "%",
}

func lex(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	i := 0
	for i < len(rs) {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r):
			start := i
			for i < len(rs) && unicode.IsDigit(rs[i]) {
				i++
			}
			if i+1 < len(rs) && rs[i] == '.' && unicode.IsDigit(rs[i+1]) {
				i++
				for i < len(rs) && unicode.IsDigit(rs[i]) {
					i++
				}
			}
			text := string(rs[start:i])
			n, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, errorf(start, "bad number %q", text)
			}
			toks = append(toks, token{kind: tokNumber, text: text, num: n, pos: start})
		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(rs) && (rs[i] == '_' || unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i])) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: string(rs[start:i]), pos: start})
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case r == '.':
			toks = append(toks, token{kind: tokDot, text: ".", pos: i})
			i++
		default:
			op := matchOperator(rs[i:])
			if op == "" {
				return nil, errorf(i, "unexpected character %q", r)
			}
			toks = append(toks, token{kind: tokOp, text: op, pos: i})
			i += len(op)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(rs)})
	return toks, nil
}

func matchOperator(rs []rune) string {
	for _, op := range operators {
		if len(rs) < len(op) {
			continue
		}
		if string(rs[:len(op)]) == op {
			return op
		}
	}
	return ""
}
