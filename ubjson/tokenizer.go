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

package ubjson

import (
	"io"

	"github.com/streamyson/yson"
)

// Tokenizer scans a yson.ByteSource one UBJSON value at a time. Like
// the JSON Tokenizer, it relies on ByteSource's synchronous blocking
// reads rather than a hand-rolled suspend/resume loop: a value split
// across two chunks of the underlying stream is invisible to the
// tokenizer, exactly as it would be to any code reading from a
// bufio.Reader.
type Tokenizer struct {
	src yson.ByteSource
}

// NewTokenizer returns a Tokenizer reading from src.
func NewTokenizer(src yson.ByteSource) *Tokenizer {
	return &Tokenizer{src: src}
}

func (t *Tokenizer) pos() yson.Pos {
	return yson.Pos{Offset: t.src.Position()}
}

// peekMarker returns the next significant marker byte, silently
// filtering any run of NoOp ('N') padding bytes in front of it. NoOp
// may appear before any value or container-end marker at any nesting
// level, per the format.
func (t *Tokenizer) peekMarker() (byte, error) {
	for {
		b, err := t.src.PeekByte()
		if err != nil {
			return 0, err
		}
		if b != 'N' {
			return b, nil
		}
		t.src.Next(1)
	}
}

// Next reads and decodes the next value-level token: a container
// start (with its optimized header, if any), a container end, a
// scalar value, or EndOfFile.
func (t *Tokenizer) Next() (Token, error) {
	marker, err := t.peekMarker()
	if err != nil {
		if err == io.EOF {
			return Token{Kind: EndOfFile, Pos: t.pos()}, nil
		}
		return Token{}, err
	}
	start := t.pos()
	switch marker {
	case ']':
		t.src.Next(1)
		return Token{Kind: EndArray, Pos: start}, nil
	case '}':
		t.src.Next(1)
		return Token{Kind: EndObject, Pos: start}, nil
	case '[':
		t.src.Next(1)
		return t.readContainerHeader(StartArray, start)
	case '{':
		t.src.Next(1)
		return t.readContainerHeader(StartObject, start)
	default:
		t.src.Next(1)
		return t.readScalar(marker, start)
	}
}

// readContainerHeader parses the optional $<type> and #<count>
// optimized-container prefix following a '[' or '{' marker that has
// already been consumed.
func (t *Tokenizer) readContainerHeader(kind TokenKind, start yson.Pos) (Token, error) {
	tok := Token{Kind: kind, Count: -1, ElemType: yson.UBJsonUnknown, Pos: start}
	b, err := t.src.PeekByte()
	if err != nil {
		if err == io.EOF {
			return Token{}, yson.NewSyntaxError(yson.ErrUnexpectedEOF, t.pos(), "unterminated container")
		}
		return Token{}, err
	}
	if b == '$' {
		t.src.Next(1)
		typeMarker, err := t.src.Next(1)
		if err != nil {
			return Token{}, err
		}
		tok.ElemType = yson.UBJsonValueTypeFromMarker(typeMarker[0])
		hash, err := t.src.Next(1)
		if err != nil {
			return Token{}, err
		}
		if hash[0] != '#' {
			return Token{}, yson.NewSyntaxError(yson.ErrInvalidToken, t.pos(), "optimized container type with no count")
		}
		count, err := readLength(t.src)
		if err != nil {
			return Token{}, err
		}
		tok.Optimized = true
		tok.Count = count
		return tok, nil
	}
	if b == '#' {
		t.src.Next(1)
		count, err := readLength(t.src)
		if err != nil {
			return Token{}, err
		}
		tok.Optimized = true
		tok.Count = count
		return tok, nil
	}
	return tok, nil
}

// readScalar decodes the payload for a value marker that has already
// been consumed.
func (t *Tokenizer) readScalar(marker byte, start yson.Pos) (Token, error) {
	switch marker {
	case 'Z':
		return Token{Kind: Value, Type: yson.DNull, Pos: start}, nil
	case 'T':
		return Token{Kind: Value, Type: yson.DBoolean, Bool: true, Pos: start}, nil
	case 'F':
		return Token{Kind: Value, Type: yson.DBoolean, Bool: false, Pos: start}, nil
	case 'i':
		v, err := readInt8(t.src)
		return Token{Kind: Value, Type: yson.ClassifyInt(int64(v)), UBType: yson.UBJsonInt8, Int: int64(v), Pos: start}, err
	case 'U':
		v, err := readUint8(t.src)
		return Token{Kind: Value, Type: yson.ClassifyUint(uint64(v)), UBType: yson.UBJsonUInt8, Int: int64(v), Pos: start}, err
	case 'I':
		v, err := readInt16(t.src)
		return Token{Kind: Value, Type: yson.ClassifyInt(int64(v)), UBType: yson.UBJsonInt16, Int: int64(v), Pos: start}, err
	case 'l':
		v, err := readInt32(t.src)
		return Token{Kind: Value, Type: yson.ClassifyInt(int64(v)), UBType: yson.UBJsonInt32, Int: int64(v), Pos: start}, err
	case 'L':
		v, err := readInt64(t.src)
		return Token{Kind: Value, Type: yson.ClassifyInt(v), UBType: yson.UBJsonInt64, Int: v, Pos: start}, err
	case 'd':
		v, err := readFloat32(t.src)
		return Token{Kind: Value, Type: yson.DFloat32, UBType: yson.UBJsonFloat32, Float32: v, Pos: start}, err
	case 'D':
		v, err := readFloat64(t.src)
		return Token{Kind: Value, Type: yson.DFloat64, UBType: yson.UBJsonFloat64, Float64: v, Pos: start}, err
	case 'C':
		b, err := t.src.Next(1)
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: Value, Type: yson.DString, Text: string(rune(b[0])), Pos: start}, nil
	case 'S':
		s, err := t.readLengthPrefixedString()
		return Token{Kind: Value, Type: yson.DString, Text: s, Pos: start}, err
	case 'H':
		s, err := t.readLengthPrefixedString()
		if err != nil {
			return Token{}, err
		}
		// The decimal lexeme is kept verbatim (spec: high-precision
		// numbers are stored as text and only parsed to float on
		// demand, so precision the wire format carries isn't lost
		// before a caller actually asks for a float).
		typ := yson.DBigFloat
		if looksLikeInteger(s) {
			typ = yson.DBigInt
		}
		return Token{Kind: Value, Type: typ, Text: s, Pos: start}, nil
	default:
		return Token{}, yson.NewSyntaxError(yson.ErrInvalidToken, start, "unrecognized type marker %q", marker)
	}
}

// readLengthPrefixedString reads a length (as an integer value) and
// then that many raw bytes, used for 'S' strings and object keys
// (which omit the 'S' marker since a key is always a string).
func (t *Tokenizer) readLengthPrefixedString() (string, error) {
	n, err := readLength(t.src)
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", yson.NewSyntaxError(yson.ErrInvalidToken, t.pos(), "negative string length")
	}
	b, err := t.src.Next(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// PeekKeyMarker returns the next raw byte in object-key position
// without filtering NoOp padding: unlike every other position in a
// UBJSON document, NoOp is illegal directly before an object key (spec
// §4.4), so the caller must be able to see it and reject it rather
// than have the tokenizer silently skip it.
func (t *Tokenizer) PeekKeyMarker() (byte, error) {
	return t.src.PeekByte()
}

// ReadKey reads a bare object key: a length prefix and payload, with
// no leading type marker. It does not filter NoOp; callers must reject
// a NoOp marker in key position themselves (see PeekKeyMarker).
func (t *Tokenizer) ReadKey() (string, error) {
	return t.readLengthPrefixedString()
}

// NextTyped reads one element of an optimized container whose header
// declared a shared elemType: every element's marker byte is omitted
// on the wire, so the payload is decoded directly from elemType
// rather than peeked. For container element types ('[' / '{') the
// marker is omitted too, and only the container header is read.
func (t *Tokenizer) NextTyped(elemType yson.UBJsonValueType) (Token, error) {
	start := t.pos()
	switch elemType {
	case yson.UBJsonArray:
		return t.readContainerHeader(StartArray, start)
	case yson.UBJsonObject:
		return t.readContainerHeader(StartObject, start)
	default:
		return t.readScalar(elemType.Marker(), start)
	}
}

func looksLikeInteger(s string) bool {
	if s != "" && (s[0] == '-' || s[0] == '+') {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
