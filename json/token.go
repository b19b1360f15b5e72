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

// Package json implements the permissive textual JSON dialect: a
// resumable tokenizer, scope-tracking Reader, and a formatting-aware
// Writer, all built against the yson package's shared Item, Reader,
// and Writer contracts.
package json

import "github.com/streamyson/yson"

// TokenKind names the lexical category of a Token.
type TokenKind int

const (
	Invalid TokenKind = iota
	StartArray
	EndArray
	StartObject
	EndObject
	Colon
	Comma
	// Value covers every scalar: string, number, true, false, null,
	// and an unquoted identifier used as an object key.
	Value
	EndOfFile
)

func (k TokenKind) String() string {
	switch k {
	case StartArray:
		return "["
	case EndArray:
		return "]"
	case StartObject:
		return "{"
	case EndObject:
		return "}"
	case Colon:
		return ":"
	case Comma:
		return ","
	case Value:
		return "value"
	case EndOfFile:
		return "eof"
	default:
		return "invalid"
	}
}

// Token is one lexical unit produced by the Tokenizer.
type Token struct {
	Kind TokenKind
	// Text is the token's lexeme. For a quoted string it is the raw
	// text between (and excluding) the quotes, not yet unescaped. For
	// an unquoted identifier or a number/keyword it is the literal
	// text as it appeared in the source.
	Text string
	// Quoted reports whether a Value token was written with quotes
	// (single, double, or block); an unquoted Value is a number, one of
	// the keyword literals, or a bare identifier used as an object key.
	Quoted bool
	// Type is the detailed value type of a Value token (DString,
	// DBoolean, DNull, or one of the numeric types). It is DInvalid
	// for every other Kind.
	Type yson.DetailedValueType
	Pos  yson.Pos
}
