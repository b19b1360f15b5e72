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

package yson

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// kind discriminates the three Item variants.
type kind int

const (
	kindValue kind = iota
	kindArray
	kindObject
)

// Field is one key/value pair of an Object, in insertion order.
type Field struct {
	Key   string
	Value Item
}

// Item is an in-memory document node: exactly one of a scalar value,
// an ordered array, or an insertion-ordered object. The zero Item is
// an invalid value; use Null(), Bool(), Int64(), NewArray(), or
// NewObject() to build one.
//
// Unlike the C++ original this library was distilled from, Item does
// not need a separate owned-string arena: Go strings already own
// their backing storage independently of any Item that references
// them, so a Field's Key outlives the Object exactly as a plain map
// key would.
type Item struct {
	k    kind
	typ  DetailedValueType // meaningful when k == kindValue
	text string            // lexeme, meaningful when k == kindValue
	arr  []Item
	obj  *object
}

// object is the insertion-ordered backing store for an ObjectValue
// Item. index maps a key to its slot in fields; re-assigning an
// existing key overwrites the slot in place so the original insertion
// position is preserved, per the format's object semantics.
type object struct {
	fields []Field
	index  map[string]int
}

// NewArray builds an ArrayValue Item from a slice of elements. The
// slice is copied defensively.
func NewArray(items []Item) Item {
	return Item{k: kindArray, arr: slices.Clone(items)}
}

// NewObject builds an ObjectValue Item from fields given in the order
// they should be written or iterated. Duplicate keys keep only the
// last value but the position of the first occurrence.
func NewObject(fields []Field) Item {
	o := &object{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		o.set(f.Key, f.Value)
	}
	return Item{k: kindObject, obj: o}
}

func (o *object) set(key string, value Item) {
	if i, ok := o.index[key]; ok {
		o.fields[i].Value = value
		return
	}
	o.index[key] = len(o.fields)
	o.fields = append(o.fields, Field{Key: key, Value: value})
}

// value builds a scalar Item from a lexeme and its detailed type. The
// lexeme is the exact text that will be re-emitted on write (modulo
// the writer's own numeric/string formatting rules), which is how
// Item achieves round-trip fidelity without needing to know which
// format produced it.
func value(typ DetailedValueType, text string) Item {
	return Item{k: kindValue, typ: typ, text: text}
}

func Null() Item                { return value(DNull, "null") }
func Bool(b bool) Item          { return value(DBoolean, map[bool]string{true: "true", false: "false"}[b]) }
func Int64(i int64) Item        { return value(ClassifyInt(i), formatInt(i)) }
func Uint64(u uint64) Item      { return value(ClassifyUint(u), formatUint(u)) }
func Float64(f float64) Item    { return value(DFloat64, formatFloat(f, 64)) }
func Float32(f float32) Item    { return value(DFloat32, formatFloat(float64(f), 32)) }
func String(s string) Item      { return value(DString, s) }
func BigInt(lexeme string) Item { return value(DBigInt, lexeme) }

// BigFloat builds an Item for a high-precision decimal lexeme that
// does not fit (or should not be rounded into) a float64, preserving
// its exact text until a caller asks for a numeric value.
func BigFloat(lexeme string) Item { return value(DBigFloat, lexeme) }

// Type reports the coarse type of the Item.
func (it Item) Type() ValueType {
	switch it.k {
	case kindArray:
		return ArrayValue
	case kindObject:
		return ObjectValue
	default:
		return it.typ.Coarsen()
	}
}

// DetailedType reports the narrowest numeric type for a scalar Item,
// or DArray/DObject for containers.
func (it Item) DetailedType() DetailedValueType {
	switch it.k {
	case kindArray:
		return DArray
	case kindObject:
		return DObject
	default:
		return it.typ
	}
}

// Text returns the raw lexeme of a scalar Item. It panics if called
// on an array or object; check Type() first.
func (it Item) Text() string {
	if it.k != kindValue {
		panic("yson: Item.Text called on a container")
	}
	return it.text
}

// Elements returns the elements of an ArrayValue Item, or nil for any
// other kind.
func (it Item) Elements() []Item {
	if it.k != kindArray {
		return nil
	}
	return it.arr
}

// Fields returns the fields of an ObjectValue Item in insertion
// order, or nil for any other kind.
func (it Item) Fields() []Field {
	if it.k != kindObject {
		return nil
	}
	return it.obj.fields
}

// Field looks up a key in an ObjectValue Item.
func (it Item) Field(key string) (Item, bool) {
	if it.k != kindObject {
		return Item{}, false
	}
	i, ok := it.obj.index[key]
	if !ok {
		return Item{}, false
	}
	return it.obj.fields[i].Value, true
}

// Len returns the number of elements or fields in a container Item,
// or 0 for a scalar.
func (it Item) Len() int {
	switch it.k {
	case kindArray:
		return len(it.arr)
	case kindObject:
		return len(it.obj.fields)
	default:
		return 0
	}
}

// Clone returns a deep copy of it.
func (it Item) Clone() Item {
	switch it.k {
	case kindArray:
		out := make([]Item, len(it.arr))
		for i := range it.arr {
			out[i] = it.arr[i].Clone()
		}
		return Item{k: kindArray, arr: out}
	case kindObject:
		o := &object{
			fields: make([]Field, len(it.obj.fields)),
			index:  maps.Clone(it.obj.index),
		}
		for i := range it.obj.fields {
			o.fields[i] = Field{Key: it.obj.fields[i].Key, Value: it.obj.fields[i].Value.Clone()}
		}
		return Item{k: kindObject, obj: o}
	default:
		return it
	}
}

// Equal reports whether two Items are structurally and numerically
// equivalent: object field order does not matter for equality (only
// for iteration/serialization), but array order does.
func (it Item) Equal(other Item) bool {
	if it.Type() != other.Type() {
		return false
	}
	switch it.k {
	case kindArray:
		if len(it.arr) != len(other.arr) {
			return false
		}
		for i := range it.arr {
			if !it.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case kindObject:
		if len(it.obj.fields) != len(other.obj.fields) {
			return false
		}
		for _, f := range it.obj.fields {
			v, ok := other.Field(f.Key)
			if !ok || !f.Value.Equal(v) {
				return false
			}
		}
		return true
	default:
		if it.typ == DString || other.typ == DString {
			return it.typ == other.typ && it.text == other.text
		}
		return it.text == other.text || numericEqual(it, other)
	}
}

func numericEqual(a, b Item) bool {
	af, aok := a.asFloat()
	bf, bok := b.asFloat()
	return aok && bok && af == bf
}

func (it Item) asFloat() (float64, bool) {
	switch it.typ {
	case DBoolean, DString, DArray, DObject, DInvalid:
		return 0, false
	case DNull:
		return 0, it.text == "null"
	default:
		f, ok := parseFloatLexeme(it.text)
		return f, ok
	}
}
