// Package parser turns preprocessed funky source into an executable call
// tree in a single pass. There is no token stream: the parser reads the
// source cursor directly and builds evaluator nodes and literals as it goes.
package parser

import (
	"strconv"

	"github.com/sambeau/funky/pkg/funky/errors"
	"github.com/sambeau/funky/pkg/funky/evaluator"
	"github.com/sambeau/funky/pkg/funky/lexer"
)

// Parser builds one program from one source.
type Parser struct {
	src      *lexer.Source
	heap     *evaluator.Heap
	literals []*evaluator.Data
}

// New creates a parser allocating literals from heap.
func New(src *lexer.Source, heap *evaluator.Heap) *Parser {
	return &Parser{src: src, heap: heap}
}

// Parse reads the whole source, which must hold exactly one call: the root.
// On failure no literals stay allocated.
func Parse(src *lexer.Source, heap *evaluator.Heap) (*evaluator.Node, error) {
	root, err := New(src, heap).ParseProgram()
	if err != nil {
		return nil, err
	}
	return root, nil
}

// ParseProgram parses the root call and rejects anything after it.
func (p *Parser) ParseProgram() (*evaluator.Node, *errors.ScriptError) {
	p.src.Reset()
	last := len(p.src.Text) - 1

	expr, err := p.parseValue(last)
	if err != nil {
		p.discard()
		return nil, err
	}

	root, ok := expr.(*evaluator.Node)
	if !ok {
		tok := p.src.Token()
		if expr != nil {
			tok = expr.Token()
		}
		p.discard()
		return nil, tok.Locate(errors.New("SYNTAX-0007", nil))
	}

	if err := p.skipBlank(last); err != nil {
		p.discard()
		return nil, err
	}
	if !p.src.AtEnd() {
		tok := p.src.Token()
		p.discard()
		return nil, tok.Locate(errors.New("SYNTAX-0008", nil))
	}
	return root, nil
}

func (p *Parser) discard() {
	for _, d := range p.literals {
		d.Free()
	}
	p.literals = nil
}

func (p *Parser) literal(kind evaluator.Kind, tok lexer.Token) *evaluator.Data {
	d := p.heap.New(kind, true, tok)
	p.literals = append(p.literals, d)
	return d
}

// skipBlank moves past whitespace and comments up to limit.
func (p *Parser) skipBlank(limit int) *errors.ScriptError {
	s := p.src
	for !s.AtEnd() && s.Index() <= limit {
		switch {
		case lexer.IsWhitespace(s.CurrentChar()):
			s.NextChar()
		case s.BeginsWith("//"):
			for s.NextChar() && s.CurrentChar() != '\n' {
			}
		case s.BeginsWith("/*"):
			tok := s.Token()
			s.MoveAlong(2)
			for !s.AtEnd() && !s.BeginsWith("*/") {
				s.NextChar()
			}
			if s.AtEnd() {
				return tok.Locate(errors.New("SYNTAX-0005", nil))
			}
			s.MoveAlong(2)
		default:
			return nil
		}
	}
	return nil
}

// parseValue returns the next literal or call at or before limit, or nil when
// only blanks remain.
func (p *Parser) parseValue(limit int) (evaluator.Expr, *errors.ScriptError) {
	if err := p.skipBlank(limit); err != nil {
		return nil, err
	}

	s := p.src
	if s.AtEnd() || s.Index() > limit {
		return nil, nil
	}

	c := s.CurrentChar()
	switch {
	case c == '"':
		return p.parseString()
	case c == '-' || lexer.IsDigit(c):
		return p.parseNumber()
	case lexer.IsIdentStart(c):
		return p.parseName(limit)
	default:
		return nil, unexpected(s.Token(), c)
	}
}

func unexpected(tok lexer.Token, c byte) *errors.ScriptError {
	return tok.Locate(errors.New("SYNTAX-0002", map[string]any{"Char": string(c)}))
}

func (p *Parser) parseString() (evaluator.Expr, *errors.ScriptError) {
	s := p.src
	tok := s.Token()
	start := s.Index() + 1

	for s.NextChar() && s.CurrentChar() != '"' {
	}
	if s.AtEnd() {
		return nil, tok.Locate(errors.New("SYNTAX-0004", nil))
	}

	d := p.literal(evaluator.KindString, tok)
	d.SetString(s.Substring(start, s.Index()-1))
	s.NextChar()
	return d, nil
}

func (p *Parser) parseNumber() (evaluator.Expr, *errors.ScriptError) {
	s := p.src
	tok := s.Token()
	start := s.Index()
	isFloat := false

	for s.NextChar() {
		c := s.CurrentChar()
		if c == '.' {
			if isFloat {
				return nil, unexpected(s.Token(), c)
			}
			isFloat = true
			continue
		}
		if lexer.IsDigit(c) {
			continue
		}
		if !lexer.IsDelimiter(c) {
			return nil, unexpected(s.Token(), c)
		}
		break
	}

	text := s.Text[start:s.Index()]
	malformed := func() *errors.ScriptError {
		return tok.Locate(errors.New("SYNTAX-0006", map[string]any{"Literal": text}))
	}

	if isFloat {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil || !hasDigit(text) {
			return nil, malformed()
		}
		d := p.literal(evaluator.KindFloat, tok)
		d.SetFloat(v)
		return d, nil
	}

	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, malformed()
	}
	d := p.literal(evaluator.KindInt, tok)
	d.SetInt(v)
	return d, nil
}

func hasDigit(s string) bool {
	for i := 0; i < len(s); i++ {
		if lexer.IsDigit(s[i]) {
			return true
		}
	}
	return false
}

// parseName reads an identifier: a keyword literal, or a builtin call.
func (p *Parser) parseName(limit int) (evaluator.Expr, *errors.ScriptError) {
	s := p.src
	tok := s.Token()
	start := s.Index()
	for s.NextChar() && lexer.IsIdentChar(s.CurrentChar()) {
	}
	name := s.Text[start:s.Index()]

	if !s.AtEnd() && !lexer.IsDelimiter(s.CurrentChar()) {
		return nil, unexpected(s.Token(), s.CurrentChar())
	}

	switch name {
	case "true", "false":
		d := p.literal(evaluator.KindBool, tok)
		d.SetBool(name == "true")
		return d, nil
	case "list", "map":
		// a bare keyword is the const empty literal; list(...) and map(...)
		// are constructor calls
		if !p.opensCall(limit) {
			kind := evaluator.KindList
			if name == "map" {
				kind = evaluator.KindMap
			}
			d := p.literal(kind, tok)
			d.Init()
			return d, nil
		}
	}

	op, ok := evaluator.LookupBuiltin(name)
	if !ok {
		return nil, tok.Locate(errors.NewUndefinedBuiltin(name, evaluator.BuiltinNames()))
	}
	return p.parseCall(evaluator.NewNode(name, op, tok))
}

// opensCall reports whether the next non-blank character before limit is
// '(' without moving the cursor.
func (p *Parser) opensCall(limit int) bool {
	text := p.src.Text
	for i := p.src.Index(); i < len(text) && i <= limit; i++ {
		if lexer.IsWhitespace(text[i]) {
			continue
		}
		return text[i] == '('
	}
	return false
}

// parseCall requires '(' after the call name, finds its matching ')' and
// parses the arguments in between.
func (p *Parser) parseCall(node *evaluator.Node) (evaluator.Expr, *errors.ScriptError) {
	s := p.src
	for !s.AtEnd() && lexer.IsWhitespace(s.CurrentChar()) {
		s.NextChar()
	}
	if s.AtEnd() {
		return nil, s.Token().Locate(errors.New("SYNTAX-0009", map[string]any{"Text": "end of input"}))
	}
	if s.CurrentChar() != '(' {
		return nil, unexpected(s.Token(), s.CurrentChar())
	}

	open := s.Token()
	closing := matchingParen(s.Text, s.Index())
	if closing < 0 {
		return nil, open.Locate(errors.New("SYNTAX-0003", nil))
	}

	s.NextChar()
	for {
		arg, err := p.parseValue(closing - 1)
		if err != nil {
			return nil, err
		}
		if arg == nil {
			break
		}
		node.AddArgument(arg)
	}

	for s.Index() < closing && s.NextChar() {
	}
	s.NextChar()
	return node, nil
}

// matchingParen returns the index of the ')' closing the '(' at open, or -1.
// Parentheses inside string literals and comments do not count.
func matchingParen(text string, open int) int {
	depth := 0
	for i := open; i < len(text); i++ {
		switch c := text[i]; {
		case c == '"':
			end := indexByteFrom(text, i+1, '"')
			if end < 0 {
				return -1
			}
			i = end
		case c == '/' && i+1 < len(text) && text[i+1] == '/':
			end := indexByteFrom(text, i, '\n')
			if end < 0 {
				return -1
			}
			i = end
		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			end := indexFrom(text, i+2, "*/")
			if end < 0 {
				return -1
			}
			i = end + 1
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func indexByteFrom(s string, from int, c byte) int {
	for i := from; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

func indexFrom(s string, from int, sub string) int {
	for i := from; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
