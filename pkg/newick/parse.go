package newick

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrSyntax is returned for input that is not valid Newick.
var ErrSyntax = errors.New("newick: syntax error")

// Parse reads a single Newick tree such as "(A:0.1,(B:0.2,C:0.3):0.5);".
//
// Names are optional on every node, weights (branch lengths) default to 0.
// Quoted names ('a b') keep their spaces; unquoted names are taken
// verbatim, underscores included, so they match genome names in a graph.
// The trailing semicolon is optional. The root gets id 0 and children
// follow in pre-order.
func Parse(s string) (*Tree, error) {
	p := &parser{src: s}
	t := &Tree{parent: make(map[int]int)}

	p.skipSpace()
	if p.done() {
		return nil, fmt.Errorf("%w: empty input", ErrSyntax)
	}
	if _, err := p.subtree(t, -1); err != nil {
		return nil, err
	}

	p.skipSpace()
	if !p.done() && p.peek() == ';' {
		p.pos++
		p.skipSpace()
	}
	if !p.done() {
		return nil, p.errorf("unexpected %q after tree", p.peek())
	}
	return t, nil
}

// ParseFile reads a Newick tree from the file at path.
func ParseFile(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(string(data))
}

// MustParse is like Parse but panics on error. Intended for tests and
// fixed inputs.
func MustParse(s string) *Tree {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	src string
	pos int
}

func (p *parser) done() bool { return p.pos >= len(p.src) }
func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) skipSpace() {
	for !p.done() && strings.IndexByte(" \t\r\n", p.peek()) >= 0 {
		p.pos++
	}
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, p.pos, fmt.Sprintf(format, args...))
}

// subtree parses "(children)name:weight" or "name:weight" and returns the
// new node id.
func (p *parser) subtree(t *Tree, parent int) (int, error) {
	id := t.add(parent)

	p.skipSpace()
	if !p.done() && p.peek() == '(' {
		p.pos++
		for {
			if _, err := p.subtree(t, id); err != nil {
				return 0, err
			}
			p.skipSpace()
			if p.done() {
				return 0, p.errorf("unterminated group")
			}
			c := p.peek()
			p.pos++
			if c == ')' {
				break
			}
			if c != ',' {
				return 0, p.errorf("unexpected %q in group", c)
			}
		}
	}

	name, err := p.name()
	if err != nil {
		return 0, err
	}
	t.Nodes[id].Name = name

	p.skipSpace()
	if !p.done() && p.peek() == ':' {
		p.pos++
		w, err := p.weight()
		if err != nil {
			return 0, err
		}
		t.Nodes[id].Weight = w
	}
	return id, nil
}

func (p *parser) name() (string, error) {
	p.skipSpace()
	if p.done() {
		return "", nil
	}
	if p.peek() == '\'' {
		p.pos++
		end := strings.IndexByte(p.src[p.pos:], '\'')
		if end < 0 {
			return "", p.errorf("unterminated quoted name")
		}
		name := p.src[p.pos : p.pos+end]
		p.pos += end + 1
		return name, nil
	}
	start := p.pos
	for !p.done() && strings.IndexByte("(),:; \t\r\n", p.peek()) < 0 {
		p.pos++
	}
	return p.src[start:p.pos], nil
}

func (p *parser) weight() (float64, error) {
	p.skipSpace()
	start := p.pos
	for !p.done() && strings.IndexByte("(),:; \t\r\n", p.peek()) < 0 {
		p.pos++
	}
	raw := p.src[start:p.pos]
	if raw == "" {
		return 0, p.errorf("missing branch length")
	}
	w, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, p.errorf("branch length %q: %v", raw, err)
	}
	return w, nil
}
