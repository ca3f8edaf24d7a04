package commands

import (
	"fmt"
	"strings"
)

// Declarations describe a single command path on one line:
//
//	ignore add PLAYER
//	price ITEM [AMOUNT]
//
// Lowercase words are literals. Uppercase words are arguments whose type is
// looked up in the types map. The node is named after the lowercased word.
// A final bracketed argument is optional: the executor is attached both to
// it and to the node before it.
//
// Rough grammar:
//
// declaration <- ws element (ws element)* (ws optional)? ws eol
// element <- argument / literal
// optional <- "[" ws argument ws "]"
// argument <- [A-Z][A-Z0-9_]*
// literal <- [a-z][a-z0-9_-]*
// ws <- " "*

type declParser struct {
	s     []rune
	pos   int
	types map[string]ArgumentType
}

// Declare parses decl into a builder chain with exec attached.
func Declare(decl string, types map[string]ArgumentType, exec Executor) (*Builder, error) {
	p := &declParser{s: []rune(decl), types: types}

	path, optional, err := p.parseDeclaration()
	if err != nil {
		return nil, err
	}

	for i := 1; i < len(path); i++ {
		path[i-1].Then(path[i])
	}

	last := path[len(path)-1]
	if optional != nil {
		last.Then(optional)
		optional.Executes(exec)
	}
	last.Executes(exec)

	return path[0], nil
}

// MustDeclare is like Declare but panics on error.
func MustDeclare(decl string, types map[string]ArgumentType, exec Executor) *Builder {
	b, err := Declare(decl, types, exec)
	if err != nil {
		panic(err)
	}

	return b
}

func (p *declParser) parseDeclaration() ([]*Builder, *Builder, error) {
	var path []*Builder
	var optional *Builder

	p.skipWhitespace()

	for !p.isEOL() {
		if optional != nil {
			return nil, nil, p.errorf("optional argument must be last")
		}

		if p.peek() == '[' {
			if len(path) == 0 {
				return nil, nil, p.errorf("declaration cannot start with an optional argument")
			}

			b, err := p.parseOptional()
			if err != nil {
				return nil, nil, err
			}
			optional = b
		} else {
			b, err := p.parseElement()
			if err != nil {
				return nil, nil, err
			}
			path = append(path, b)
		}

		p.skipWhitespace()
	}

	if len(path) == 0 {
		return nil, nil, p.errorf("empty declaration")
	}

	if path[0].kind != kindLiteral {
		return nil, nil, fmt.Errorf("declaration must start with a literal: %q", string(p.s))
	}

	return path, optional, nil
}

func (p *declParser) parseElement() (*Builder, error) {
	switch {
	case isUpper(p.peek()):
		return p.parseArgument()
	case isLower(p.peek()):
		return p.parseLiteral()
	default:
		return nil, p.errorf("unexpected character while parsing element: %c", p.peek())
	}
}

func (p *declParser) parseOptional() (*Builder, error) {
	pos := p.mark()
	p.next() // consume '['

	p.skipWhitespace()

	if !isUpper(p.peek()) {
		return nil, p.errorf("expected argument in optional")
	}

	b, err := p.parseArgument()
	if err != nil {
		return nil, err
	}

	p.skipWhitespace()

	if !p.consume(']') {
		p.reset(pos)
		return nil, p.errorf("expected ']'")
	}

	return b, nil
}

func (p *declParser) parseArgument() (*Builder, error) {
	pos := p.mark()

	runes := []rune{p.next()}
	for isUpper(p.peek()) || isDigit(p.peek()) || p.peek() == '_' {
		runes = append(runes, p.next())
	}

	if !p.isElementEnd() {
		return nil, p.errorf("unexpected character while parsing argument: %c", p.peek())
	}

	word := string(runes)
	t, ok := p.types[word]
	if !ok {
		p.reset(pos)
		return nil, p.errorf("unknown argument type: %s", word)
	}

	return Argument(strings.ToLower(word), t), nil
}

func (p *declParser) parseLiteral() (*Builder, error) {
	runes := []rune{p.next()}
	for isLower(p.peek()) || isDigit(p.peek()) || p.peek() == '_' || p.peek() == '-' {
		runes = append(runes, p.next())
	}

	if !p.isElementEnd() {
		return nil, p.errorf("unexpected character while parsing literal: %c", p.peek())
	}

	return Literal(string(runes)), nil
}

func isUpper(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

func isLower(r rune) bool {
	return r >= 'a' && r <= 'z'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func (p *declParser) isElementEnd() bool {
	return p.isEOL() || p.peek() == ' ' || p.peek() == ']'
}

func (p *declParser) skipWhitespace() {
	for !p.isEOL() && p.peek() == ' ' {
		p.next()
	}
}

func (p *declParser) consume(r rune) bool {
	if !p.isEOL() && p.peek() == r {
		p.pos++
		return true
	}

	return false
}

func (p *declParser) isEOL() bool {
	return p.pos >= len(p.s) || p.s[p.pos] == '\n'
}

func (p *declParser) peek() rune {
	if p.pos >= len(p.s) {
		return 0
	}

	return p.s[p.pos]
}

func (p *declParser) next() rune {
	r := p.peek()
	p.pos++

	return r
}

func (p *declParser) mark() int {
	return p.pos
}

func (p *declParser) reset(pos int) {
	p.pos = pos
}

func (p *declParser) errorf(format string, args ...interface{}) error {
	line := strings.Split(string(p.s), "\n")[0]
	marker := strings.Repeat(" ", p.pos) + "^"

	return fmt.Errorf("%d: %s\n\t%s\n\t%s", p.pos, fmt.Sprintf(format, args...), line, marker)
}
