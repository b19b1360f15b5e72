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

import "github.com/streamyson/yson"

// TokenKind names the lexical category of a Token.
type TokenKind int

const (
	Invalid TokenKind = iota
	StartArray
	EndArray
	StartObject
	EndObject
	Value
	EndOfFile
)

// Token is one value-level unit produced by the Tokenizer: either a
// container start/end marker or a fully-decoded scalar.
type Token struct {
	Kind TokenKind

	// Type is the detailed value type of a Value token.
	Type yson.DetailedValueType
	// UBType is the exact wire marker the value was read with (Int8,
	// UInt8, Int16, Int32, or Int64 for integers; Float32/Float64 for
	// floats). It is not carried into an Item, so WriteItem picks the
	// width afresh.
	UBType yson.UBJsonValueType

	Bool    bool
	Int     int64
	Float32 float32
	Float64 float64
	// Text holds a String or HighPrecision value's payload.
	Text string

	// Optimized, Count, and ElemType describe a StartArray/StartObject
	// token's declared optimized-container header, if any. Count is -1
	// when the container is not optimized (it is closed by an
	// explicit EndArray/EndObject token instead of a declared count).
	// ElemType is UBJsonUnknown when the container declares only a
	// count (a type marker still precedes each individual value)
	// rather than a single shared element type.
	Optimized bool
	Count     int64
	ElemType  yson.UBJsonValueType

	Pos yson.Pos
}
