// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package json

import (
	"io"
	"strings"

	"github.com/streamyson/yson"
	"github.com/streamyson/yson/internal/numparse"
)

// Tokenizer scans a yson.ByteSource into Tokens one at a time. Because
// ByteSource blocks synchronously until bytes are available (or EOF),
// the tokenizer itself needs no suspend/resume state machine: a token
// spanning a chunk boundary is handled transparently by the source's
// buffering, the same way bufio.Scanner never notices where the
// underlying Reader happened to split its reads.
type Tokenizer struct {
	src    yson.ByteSource
	line   int
	col    int
	peeked *Token
}

// NewTokenizer returns a Tokenizer reading from src.
func NewTokenizer(src yson.ByteSource) *Tokenizer {
	return &Tokenizer{src: src, line: 1, col: 1}
}

func (t *Tokenizer) pos() yson.Pos {
	return yson.Pos{Line: t.line, Column: t.col, Offset: t.src.Position()}
}

// advance consumes exactly one byte and updates the line/column
// counters. Column counts UTF-8 characters, so continuation bytes
// (10xxxxxx) do not themselves advance the column.
func (t *Tokenizer) advance() (byte, error) {
	b, err := t.src.Next(1)
	if err != nil {
		return 0, err
	}
	c := b[0]
	if c == '\n' {
		t.line++
		t.col = 1
	} else if c&0xC0 != 0x80 {
		t.col++
	}
	return c, nil
}

func (t *Tokenizer) peekByte() (byte, error) {
	return t.src.PeekByte()
}

// Peek returns the next token without consuming it.
func (t *Tokenizer) Peek() (Token, error) {
	if t.peeked != nil {
		return *t.peeked, nil
	}
	tok, err := t.next()
	if err != nil {
		return Token{}, err
	}
	t.peeked = &tok
	return tok, nil
}

// Next returns and consumes the next token.
func (t *Tokenizer) Next() (Token, error) {
	if t.peeked != nil {
		tok := *t.peeked
		t.peeked = nil
		return tok, nil
	}
	return t.next()
}

func (t *Tokenizer) next() (Token, error) {
	if err := t.skipInsignificant(); err != nil {
		if err == io.EOF {
			return Token{Kind: EndOfFile, Pos: t.pos()}, nil
		}
		return Token{}, err
	}
	start := t.pos()
	c, err := t.peekByte()
	if err != nil {
		if err == io.EOF {
			return Token{Kind: EndOfFile, Pos: start}, nil
		}
		return Token{}, err
	}
	switch {
	case c == '{':
		t.advance()
		return Token{Kind: StartObject, Text: "{", Pos: start}, nil
	case c == '}':
		t.advance()
		return Token{Kind: EndObject, Text: "}", Pos: start}, nil
	case c == '[':
		t.advance()
		return Token{Kind: StartArray, Text: "[", Pos: start}, nil
	case c == ']':
		t.advance()
		return Token{Kind: EndArray, Text: "]", Pos: start}, nil
	case c == ':':
		t.advance()
		return Token{Kind: Colon, Text: ":", Pos: start}, nil
	case c == ',':
		t.advance()
		return Token{Kind: Comma, Text: ",", Pos: start}, nil
	case c == '"' || c == '\'':
		return t.scanString(c, start)
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return t.scanNumber(start)
	default:
		return t.scanIdentifier(start)
	}
}

// skipInsignificant consumes whitespace, '//' and '#' line comments,
// and '/* */' block comments, stopping just before the next
// significant byte. It returns io.EOF once the source is exhausted.
func (t *Tokenizer) skipInsignificant() error {
	for {
		c, err := t.peekByte()
		if err != nil {
			return err
		}
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			t.advance()
		case c == '#':
			if err := t.skipLineComment(); err != nil {
				return err
			}
		case c == '/':
			prefix, err := t.src.PeekN(2)
			if err != nil {
				return err
			}
			if len(prefix) < 2 {
				return nil
			}
			switch prefix[1] {
			case '/':
				if err := t.skipLineComment(); err != nil {
					return err
				}
			case '*':
				if err := t.skipBlockComment(); err != nil {
					return err
				}
			default:
				return nil
			}
		default:
			return nil
		}
	}
}

func (t *Tokenizer) skipLineComment() error {
	for {
		c, err := t.peekByte()
		if err != nil {
			return nil // unterminated line comment at EOF is fine
		}
		if c == '\n' {
			return nil
		}
		t.advance()
	}
}

func (t *Tokenizer) skipBlockComment() error {
	t.advance() // '/'
	t.advance() // '*'
	for {
		c, err := t.peekByte()
		if err != nil {
			return yson.NewSyntaxError(yson.ErrUnexpectedEOF, t.pos(), "unterminated block comment")
		}
		t.advance()
		if c == '*' {
			c2, err := t.peekByte()
			if err == nil && c2 == '/' {
				t.advance()
				return nil
			}
		}
	}
}

// scanString handles single- and double-quoted strings, including the
// triple-quoted block-string form. Inside a block string, the first
// run of three or more quote characters terminates it: the whole run
// is consumed, and any quotes in it beyond three are appended to the
// string body.
func (t *Tokenizer) scanString(quote byte, start yson.Pos) (Token, error) {
	prefix, _ := t.src.PeekN(3)
	block := len(prefix) == 3 && prefix[0] == quote && prefix[1] == quote && prefix[2] == quote
	if block {
		t.src.Skip(3)
		t.col += 3 // Skip bypasses advance(), so count the three quotes here
		return t.scanBlockString(quote, start)
	}
	t.advance() // opening quote
	var b strings.Builder
	for {
		c, err := t.peekByte()
		if err != nil {
			return Token{}, yson.NewSyntaxError(yson.ErrInvalidToken, t.pos(), "unterminated string")
		}
		if c == quote {
			t.advance()
			return Token{Kind: Value, Text: b.String(), Quoted: true, Type: yson.DString, Pos: start}, nil
		}
		if c == '\\' {
			t.advance()
			c2, err := t.peekByte()
			if err != nil {
				return Token{}, yson.NewSyntaxError(yson.ErrInvalidToken, t.pos(), "unterminated escape")
			}
			if c2 == '\n' || c2 == '\r' {
				// line continuation inside a quoted string: the
				// backslash and the newline are both elided.
				t.advance()
				if c3, err := t.peekByte(); err == nil && c2 == '\r' && c3 == '\n' {
					t.advance()
				}
				continue
			}
			b.WriteByte('\\')
			b.WriteByte(c2)
			t.advance()
			continue
		}
		if c == '\n' {
			return Token{}, yson.NewSyntaxError(yson.ErrInvalidToken, t.pos(), "unescaped newline in string")
		}
		b.WriteByte(c)
		t.advance()
	}
}

// scanBlockString scans up to the terminating run of quote
// characters, having already consumed the opening "'''" or `"""`.
func (t *Tokenizer) scanBlockString(quote byte, start yson.Pos) (Token, error) {
	var b strings.Builder
	for {
		c, err := t.peekByte()
		if err != nil {
			return Token{}, yson.NewSyntaxError(yson.ErrInvalidToken, t.pos(), "unterminated block string")
		}
		if c != quote {
			if c == '\\' {
				t.advance()
				c2, err := t.peekByte()
				if err == nil {
					b.WriteByte('\\')
					b.WriteByte(c2)
					t.advance()
					continue
				}
			}
			b.WriteByte(c)
			t.advance()
			continue
		}
		run := t.countQuoteRun(quote)
		if run < 3 {
			for i := 0; i < run; i++ {
				b.WriteByte(quote)
			}
			t.src.Skip(run)
			t.col += run
			continue
		}
		// Close on the first three quotes; fold any extra quotes in
		// the run (beyond the closing triplet) back into the body, so
		// e.g. a 5-quote run closes the string and leaves two literal
		// quotes appended to it.
		extra := run - 3
		for i := 0; i < extra; i++ {
			b.WriteByte(quote)
		}
		t.src.Skip(run)
		t.col += run
		return Token{Kind: Value, Text: b.String(), Quoted: true, Type: yson.DString, Pos: start}, nil
	}
}

func (t *Tokenizer) countQuoteRun(quote byte) int {
	n := 0
	for {
		b, _ := t.src.PeekN(n + 1)
		if len(b) <= n || b[n] != quote {
			return n
		}
		n++
	}
}

// scanNumber scans a number lexeme per the permissive grammar: an
// optional sign, an optional 0x/0o/0b base prefix (integers only),
// digits with optional '_' group separators, and for base-10 lexemes
// an optional fractional part and exponent.
func (t *Tokenizer) scanNumber(start yson.Pos) (Token, error) {
	var b strings.Builder
	peekDigitish := func(c byte) bool {
		return c >= '0' && c <= '9' ||
			c >= 'a' && c <= 'z' ||
			c >= 'A' && c <= 'Z' ||
			c == '_' || c == '.' || c == '+' || c == '-'
	}
	for {
		c, err := t.peekByte()
		if err != nil || !peekDigitish(c) {
			break
		}
		// '+'/'-' are only part of the lexeme at the start or right
		// after an 'e'/'E' exponent marker.
		if (c == '+' || c == '-') && b.Len() > 0 {
			last := b.String()[b.Len()-1]
			if last != 'e' && last != 'E' {
				break
			}
		}
		b.WriteByte(c)
		t.advance()
	}
	lexeme := b.String()
	if lexeme == "" {
		return Token{}, yson.NewSyntaxError(yson.ErrInvalidToken, start, "empty number literal")
	}
	typ := yson.DFloat64
	if numparse.LooksLikeInteger(lexeme) && !numparse.IsFloatLexeme(lexeme) {
		if i, err := numparse.ParseInt64(lexeme); err == nil {
			typ = yson.ClassifyInt(i)
		} else if u, err := numparse.ParseUint64(lexeme); err == nil {
			typ = yson.ClassifyUint(u)
		} else {
			typ = yson.DBigInt
		}
	}
	return Token{Kind: Value, Text: lexeme, Quoted: false, Type: typ, Pos: start}, nil
}

// scanIdentifier scans an unquoted word: a keyword literal (true,
// false, null, NaN, Infinity, +Infinity, -Infinity) or, in object-key
// position, a bare identifier used as a key.
func (t *Tokenizer) scanIdentifier(start yson.Pos) (Token, error) {
	var b strings.Builder
	for {
		c, err := t.peekByte()
		if err != nil {
			break
		}
		if isIdentByte(c) {
			b.WriteByte(c)
			t.advance()
			continue
		}
		break
	}
	lexeme := b.String()
	if lexeme == "" {
		return Token{}, yson.NewSyntaxError(yson.ErrInvalidToken, start, "unexpected character")
	}
	switch lexeme {
	case "true", "false":
		return Token{Kind: Value, Text: lexeme, Type: yson.DBoolean, Pos: start}, nil
	case "null":
		return Token{Kind: Value, Text: lexeme, Type: yson.DNull, Pos: start}, nil
	case "NaN", "Infinity", "+Infinity", "-Infinity":
		return Token{Kind: Value, Text: lexeme, Type: yson.DFloat64, Pos: start}, nil
	default:
		return Token{Kind: Value, Text: lexeme, Quoted: false, Type: yson.DString, Pos: start}, nil
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c == '+' || c == '-' ||
		c >= '0' && c <= '9' ||
		c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= 0x80
}
