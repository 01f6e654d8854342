// Package lexer holds the source buffer and the character-level cursor the
// funky parser reads from, plus the Token positions used in diagnostics.
package lexer

import (
	"strings"

	"github.com/sambeau/funky/pkg/funky/errors"
)

// Source is a named buffer of script text with a read cursor. Row and column
// are 1-based and track the cursor as it advances.
type Source struct {
	Path string
	Text string

	index int
	row   int
	col   int
}

// NewSource creates a source positioned at its first character.
func NewSource(path, text string) *Source {
	return &Source{Path: path, Text: text, row: 1, col: 1}
}

// Reset moves the cursor back to the first character.
func (s *Source) Reset() {
	s.index, s.row, s.col = 0, 1, 1
}

// Index returns the cursor's byte offset.
func (s *Source) Index() int { return s.index }

// AtEnd reports whether the cursor has run past the text.
func (s *Source) AtEnd() bool { return s.index >= len(s.Text) }

// CurrentChar returns the byte under the cursor, or 0 past the end.
func (s *Source) CurrentChar() byte {
	if s.index >= len(s.Text) {
		return 0
	}
	return s.Text[s.index]
}

// NextChar advances the cursor by one byte. It returns false, leaving the
// cursor just past the last character, once the text is exhausted.
func (s *Source) NextChar() bool {
	if s.index >= len(s.Text) {
		return false
	}
	if s.Text[s.index] == '\n' {
		s.row++
		s.col = 1
	} else {
		s.col++
	}
	s.index++
	return s.index < len(s.Text)
}

// MoveAlong advances the cursor up to steps bytes.
func (s *Source) MoveAlong(steps int) {
	for i := 0; i < steps && s.NextChar(); i++ {
	}
}

// BeginsWith reports whether the text at the cursor starts with prefix.
func (s *Source) BeginsWith(prefix string) bool {
	return strings.HasPrefix(s.Text[min(s.index, len(s.Text)):], prefix)
}

// Substring returns the text between first and last, both inclusive.
func (s *Source) Substring(first, last int) string {
	if first > last {
		return ""
	}
	return s.Text[first : last+1]
}

// Token captures the cursor position.
func (s *Source) Token() Token {
	return Token{Row: s.row, Col: s.col, Index: s.index, Src: s}
}

// Token is a position inside a Source. It is carried by every literal and call
// node purely so diagnostics can point at the offending text.
type Token struct {
	Row   int
	Col   int
	Index int
	Src   *Source
}

// IsZero reports whether the token has no source attached.
func (t Token) IsZero() bool { return t.Src == nil }

// Line returns the text of the line holding the token and the token's byte
// offset inside that line.
func (t Token) Line() (string, int) {
	if t.Src == nil {
		return "", 0
	}
	text := t.Src.Text
	idx := min(t.Index, len(text))
	start := strings.LastIndexByte(text[:idx], '\n') + 1
	end := len(text)
	if i := strings.IndexByte(text[idx:], '\n'); i >= 0 {
		end = idx + i
	}
	return text[start:end], idx - start
}

// Locate positions err at the token. Tokens without a source leave err as is.
func (t Token) Locate(err *errors.ScriptError) *errors.ScriptError {
	if t.Src == nil {
		return err
	}
	line, offset := t.Line()
	return err.At(t.Src.Path, t.Row, t.Col, line, offset)
}

// IsWhitespace reports the bytes skipped between arguments.
func IsWhitespace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r'
}

// IsDigit reports ASCII decimal digits.
func IsDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// IsDelimiter reports the bytes that end an identifier or number.
func IsDelimiter(c byte) bool {
	return IsWhitespace(c) || c == '(' || c == ')'
}

// IsIdentStart reports bytes that may begin a name: letters and underscore.
func IsIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// IsIdentChar reports bytes that may continue a name.
func IsIdentChar(c byte) bool {
	return IsIdentStart(c) || IsDigit(c)
}
