package condition

import "strings"

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// accept consumes the next token when it is one of the given operators or
// keywords and returns its text.
func (p *parser) accept(words ...string) (string, bool) {
	t := p.peek()
	if t.kind != tokOp && t.kind != tokIdent {
		return "", false
	}
	for _, w := range words {
		if t.text == w {
			p.next()
			return w, true
		}
	}
	return "", false
}

func (p *parser) parse() (node, error) {
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, errorf(t.pos, "unexpected %q", t.text)
	}
	return n, nil
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept("or", "||"); !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = logicalNode{or: true, l: left, r: right}
	}
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept("and", "&&"); !ok {
			return left, nil
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = logicalNode{l: left, r: right}
	}
}

func (p *parser) parseNot() (node, error) {
	if _, ok := p.accept("not", "!"); ok {
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: "not", x: x}, nil
	}
	return p.parseCompare()
}

func (p *parser) parseCompare() (node, error) {
	first, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	chain := compareNode{operands: []node{first}}
	for {
		op, ok := p.accept("==", "!=", "<", "<=", ">", ">=")
		if !ok {
			break
		}
		operand, err := p.parseBinary(0)
		if err != nil {
			return nil, err
		}
		chain.ops = append(chain.ops, op)
		chain.operands = append(chain.operands, operand)
	}
	if len(chain.ops) == 0 {
		return first, nil
	}
	return chain, nil
}

// binary levels from loosest to tightest
var binaryLevels = [][]string{
	{"|"},
	{"^"},
	{"&"},
	{"+", "-"},
	{"*", "/", "//", "%"},
}

func (p *parser) parseBinary(level int) (node, error) {
	if level == len(binaryLevels) {
		return p.parseUnary()
	}
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.accept(binaryLevels[level]...)
		if !ok {
			return left, nil
		}
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, l: left, r: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	if _, ok := p.accept("-"); ok {
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: "-", x: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return numberNode(t.num), nil
	case tokLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, errorf(closing.pos, "expected ')'")
		}
		return inner, nil
	case tokIdent:
		switch t.text {
		case "true", "True":
			return numberNode(1), nil
		case "false", "False":
			return numberNode(0), nil
		case "and", "or", "not":
			return nil, errorf(t.pos, "unexpected %q", t.text)
		}
		return p.parseField(t)
	case tokEOF:
		return nil, errorf(t.pos, "unexpected end of expression")
	}
	return nil, errorf(t.pos, "unexpected %q", t.text)
}

func (p *parser) parseField(first token) (node, error) {
	parts := []string{first.text}
	for p.peek().kind == tokDot {
		p.next()
		t := p.next()
		if t.kind != tokIdent {
			return nil, errorf(t.pos, "expected field name after '.'")
		}
		parts = append(parts, t.text)
	}
	if len(parts) > 1 && parts[0] == "score" {
		parts = parts[1:]
	}
	name := strings.Join(parts, ".")
	get, ok := fields[name]
	if !ok {
		return nil, errorf(first.pos, "unknown field %q", name)
	}
	return fieldNode{name: name, get: get}, nil
}
