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
	"encoding/base64"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/streamyson/yson"
)

func init() {
	yson.RegisterFormat(yson.UBJSON, func(src yson.ByteSource) yson.Reader {
		return NewReader(src)
	})
}

type scopeKind int

const (
	scopeDocument scopeKind = iota
	scopeArray
	scopeObject
)

type frame struct {
	kind      scopeKind
	optimized bool
	remaining int64 // elements left, meaningful when optimized
	elemType  yson.UBJsonValueType
	afterKey  bool
	key       string
	keyValid  bool
	done      bool // document: root value read; array/object: closing marker consumed
}

// Reader implements yson.Reader over the UBJSON wire format.
type Reader struct {
	tok   *Tokenizer
	stack []frame
	cur   Token
	have  bool
}

// NewReader returns a Reader over src.
func NewReader(src yson.ByteSource) *Reader {
	return &Reader{
		tok:   NewTokenizer(src),
		stack: []frame{{kind: scopeDocument}},
	}
}

func (r *Reader) top() *frame { return &r.stack[len(r.stack)-1] }

// nextToken reads the next value-level token for the current frame,
// honoring an optimized container's declared element type and count
// instead of looking for comma/end markers.
func (r *Reader) nextToken() (Token, bool, error) {
	f := r.top()
	if f.optimized && f.kind != scopeDocument {
		if f.remaining <= 0 {
			return Token{}, false, nil
		}
		f.remaining--
		if f.elemType != yson.UBJsonUnknown {
			tok, err := r.tok.NextTyped(f.elemType)
			return tok, err == nil, err
		}
		tok, err := r.tok.Next()
		return tok, err == nil, err
	}
	tok, err := r.tok.Next()
	if err != nil {
		return Token{}, false, err
	}
	switch f.kind {
	case scopeArray:
		if tok.Kind == EndArray {
			f.done = true
			return Token{}, false, nil
		}
	case scopeObject:
		if tok.Kind == EndObject {
			f.done = true
			return Token{}, false, nil
		}
	case scopeDocument:
		if tok.Kind == EndOfFile {
			return Token{}, false, nil
		}
	}
	return tok, true, nil
}

func (r *Reader) NextValue() (bool, error) {
	f := r.top()
	switch f.kind {
	case scopeObject:
		if !f.afterKey {
			// nextValue called before nextKey: read the key silently,
			// then fall through to read the value that follows it.
			ok, err := r.readKey()
			if err != nil || !ok {
				return ok, err
			}
		}
	case scopeDocument:
		if f.done {
			return false, nil
		}
	}
	tok, ok, err := r.nextToken()
	if err != nil || !ok {
		return ok, err
	}
	if tok.Kind != Value && tok.Kind != StartArray && tok.Kind != StartObject {
		return false, yson.NewSyntaxError(yson.ErrUnexpectedToken, tok.Pos, "expected a value")
	}
	r.cur = tok
	r.have = true
	if f.kind == scopeObject {
		f.afterKey = false
		f.keyValid = false
	}
	if f.kind == scopeDocument {
		f.done = true
	}
	return true, nil
}

func (r *Reader) NextKey() (bool, error) {
	if r.top().kind != scopeObject {
		return false, yson.ErrWrongState
	}
	return r.readKey()
}

// readKey reads the next object key (honoring optimized-container
// counts) and records it on the current frame. Shared by NextKey and
// by NextValue's "skip straight to the value" path (spec §4.5: the
// UBJSON scope readers are structurally parallel to the JSON ones,
// where nextValue from AtStart reads the key silently).
func (r *Reader) readKey() (bool, error) {
	f := r.top()
	if f.optimized {
		if f.remaining <= 0 {
			return false, nil
		}
	} else {
		b, err := r.tok.PeekKeyMarker()
		if err != nil {
			return false, err
		}
		if b == '}' {
			r.tok.src.Next(1)
			f.done = true
			return false, nil
		}
		if b == 'N' {
			return false, yson.NewSyntaxError(yson.ErrUnexpectedToken, r.tok.pos(), "NoOp marker is not a legal object key")
		}
	}
	key, err := r.tok.ReadKey()
	if err != nil {
		return false, err
	}
	f.key = key
	f.afterKey = true
	f.keyValid = true
	return true, nil
}

func (r *Reader) Key() (string, error) {
	f := r.top()
	if f.kind != scopeObject || !f.keyValid {
		return "", yson.ErrWrongState
	}
	return f.key, nil
}

func (r *Reader) NextDocument() (bool, error) {
	for len(r.stack) > 1 {
		if err := r.Leave(); err != nil {
			return false, err
		}
	}
	if _, err := r.tok.peekMarker(); err != nil {
		if err == io.EOF {
			return false, nil
		}
		return false, err
	}
	r.stack[0] = frame{kind: scopeDocument}
	r.have = false
	return true, nil
}

func (r *Reader) Enter() error {
	if !r.have {
		return yson.ErrWrongState
	}
	switch r.cur.Kind {
	case StartArray:
		nf := frame{kind: scopeArray, optimized: r.cur.Optimized, elemType: r.cur.ElemType}
		if r.cur.Optimized {
			nf.remaining = r.cur.Count
		} else {
			nf.remaining = -1
		}
		r.stack = append(r.stack, nf)
	case StartObject:
		nf := frame{kind: scopeObject, optimized: r.cur.Optimized, elemType: r.cur.ElemType}
		if r.cur.Optimized {
			nf.remaining = r.cur.Count
		} else {
			nf.remaining = -1
		}
		r.stack = append(r.stack, nf)
	default:
		return yson.ErrWrongState
	}
	r.have = false
	return nil
}

func (r *Reader) Leave() error {
	if len(r.stack) <= 1 {
		return yson.ErrWrongState
	}
	f := r.top()
	for !f.done {
		if f.kind == scopeObject && !f.afterKey {
			ok, err := r.NextKey()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			continue
		}
		ok, err := r.skipValue()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	// nextToken/NextKey already consumed the closing marker (or, for
	// an optimized container, simply ran out of declared elements).
	r.stack = r.stack[:len(r.stack)-1]
	r.have = false
	return nil
}

func (r *Reader) skipValue() (bool, error) {
	ok, err := r.NextValue()
	if err != nil || !ok {
		return ok, err
	}
	if r.cur.Kind == StartArray || r.cur.Kind == StartObject {
		if err := r.Enter(); err != nil {
			return false, err
		}
		if err := r.Leave(); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (r *Reader) ValueType() (yson.ValueType, error) {
	dt, err := r.DetailedValueType()
	if err != nil {
		return yson.Invalid, err
	}
	return dt.Coarsen(), nil
}

func (r *Reader) DetailedValueType() (yson.DetailedValueType, error) {
	if !r.have {
		return yson.DInvalid, yson.ErrWrongState
	}
	switch r.cur.Kind {
	case StartArray:
		return yson.DArray, nil
	case StartObject:
		return yson.DObject, nil
	default:
		return r.cur.Type, nil
	}
}

func (r *Reader) IsNull() (bool, error) {
	dt, err := r.DetailedValueType()
	if err != nil {
		return false, err
	}
	return dt == yson.DNull, nil
}

func (r *Reader) ReadBool() (bool, bool, error) {
	if !r.have || r.cur.Kind != Value {
		return false, false, yson.ErrWrongState
	}
	switch r.cur.Type {
	case yson.DBoolean:
		return r.cur.Bool, true, nil
	case yson.DNull:
		return false, true, nil
	default:
		if r.cur.Int == 0 || r.cur.Int == 1 {
			return r.cur.Int == 1, true, nil
		}
		return false, false, nil
	}
}

func (r *Reader) ReadInt64() (int64, bool, error) {
	if !r.have || r.cur.Kind != Value {
		return 0, false, yson.ErrWrongState
	}
	if r.cur.Type.Coarsen() != yson.IntegerValue || r.cur.Type == yson.DBigInt {
		return 0, false, nil
	}
	return r.cur.Int, true, nil
}

func (r *Reader) ReadUint64() (uint64, bool, error) {
	i, ok, err := r.ReadInt64()
	if !ok || err != nil || i < 0 {
		return 0, false, err
	}
	return uint64(i), true, nil
}

func (r *Reader) ReadFloat64() (float64, bool, error) {
	if !r.have || r.cur.Kind != Value {
		return 0, false, yson.ErrWrongState
	}
	switch r.cur.Type {
	case yson.DFloat32:
		return float64(r.cur.Float32), true, nil
	case yson.DFloat64:
		return r.cur.Float64, true, nil
	case yson.DBigFloat, yson.DBigInt:
		f, ok := parseBigLexeme(r.cur.Text)
		return f, ok, nil
	case yson.DNull:
		// Common UBJSON convention: a null where a float is expected
		// reads as positive infinity.
		return math.Inf(1), true, nil
	default:
		if r.cur.Type.Coarsen() == yson.IntegerValue {
			return float64(r.cur.Int), true, nil
		}
		return 0, false, nil
	}
}

func (r *Reader) ReadFloat32() (float32, bool, error) {
	f, ok, err := r.ReadFloat64()
	return float32(f), ok, err
}

func (r *Reader) ReadString() (string, bool, error) {
	if !r.have || r.cur.Kind != Value || r.cur.Type != yson.DString {
		return "", false, nil
	}
	return r.cur.Text, true, nil
}

func (r *Reader) ReadBinary() ([]byte, error) {
	if !r.have {
		return nil, yson.ErrWrongState
	}
	if r.cur.Kind == StartArray && r.cur.Optimized && r.cur.ElemType == yson.UBJsonUInt8 {
		data := make([]byte, 0, r.cur.Count)
		if err := r.Enter(); err != nil {
			return nil, err
		}
		for {
			ok, err := r.NextValue()
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			data = append(data, byte(r.cur.Int))
		}
		if err := r.Leave(); err != nil {
			return nil, err
		}
		return data, nil
	}
	s, ok, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, yson.ErrCoercion
	}
	return []byte(s), nil
}

func (r *Reader) ReadBase64() ([]byte, error) {
	s, ok, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, yson.ErrCoercion
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", yson.ErrCoercion, err)
	}
	return data, nil
}

func (r *Reader) ReadItem() (yson.Item, error) {
	if !r.have {
		return yson.Item{}, yson.ErrWrongState
	}
	switch r.cur.Kind {
	case StartArray:
		if err := r.Enter(); err != nil {
			return yson.Item{}, err
		}
		var elems []yson.Item
		for {
			ok, err := r.NextValue()
			if err != nil {
				return yson.Item{}, err
			}
			if !ok {
				break
			}
			it, err := r.ReadItem()
			if err != nil {
				return yson.Item{}, err
			}
			elems = append(elems, it)
		}
		if err := r.Leave(); err != nil {
			return yson.Item{}, err
		}
		return yson.NewArray(elems), nil
	case StartObject:
		if err := r.Enter(); err != nil {
			return yson.Item{}, err
		}
		var fields []yson.Field
		for {
			ok, err := r.NextKey()
			if err != nil {
				return yson.Item{}, err
			}
			if !ok {
				break
			}
			key, _ := r.Key()
			if _, err := r.NextValue(); err != nil {
				return yson.Item{}, err
			}
			it, err := r.ReadItem()
			if err != nil {
				return yson.Item{}, err
			}
			fields = append(fields, yson.Field{Key: key, Value: it})
		}
		if err := r.Leave(); err != nil {
			return yson.Item{}, err
		}
		return yson.NewObject(fields), nil
	default:
		return r.scalarItem()
	}
}

func (r *Reader) scalarItem() (yson.Item, error) {
	switch r.cur.Type {
	case yson.DNull:
		return yson.Null(), nil
	case yson.DBoolean:
		return yson.Bool(r.cur.Bool), nil
	case yson.DString:
		return yson.String(r.cur.Text), nil
	case yson.DFloat32:
		return yson.Float32(r.cur.Float32), nil
	case yson.DFloat64:
		return yson.Float64(r.cur.Float64), nil
	case yson.DBigInt:
		return yson.BigInt(r.cur.Text), nil
	case yson.DBigFloat:
		return yson.BigFloat(r.cur.Text), nil
	default:
		return yson.Int64(r.cur.Int), nil
	}
}

func (r *Reader) Pos() yson.Pos { return r.cur.Pos }

// IsOptimizedArray reports whether the array frame the reader is
// currently inside (i.e. the container most recently entered) declared
// an optimized header (spec §4.5). It is false for an ordinary array,
// for an optimized object, or at the document/object scope.
func (r *Reader) IsOptimizedArray() bool {
	f := r.top()
	return f.kind == scopeArray && f.optimized
}

// OptimizedElementType reports the shared element type declared by the
// current optimized array's header, or yson.UBJsonUnknown if the
// header declared only a count (each element still carries its own
// marker).
func (r *Reader) OptimizedElementType() yson.UBJsonValueType {
	return r.top().elemType
}

// OptimizedElementCount reports how many elements of the current
// optimized array remain unread.
func (r *Reader) OptimizedElementCount() int64 {
	return r.top().remaining
}

// readOptimizedBatch bulk-reads every remaining element of the current
// optimized array frame as want, bypassing per-element NextValue
// traversal (spec §4.5's "bulk read path"). It returns an error when
// the array's declared element type does not match want. It does not
// track whether elements were already read individually: called after
// per-element traversal, it returns only the elements still unread.
func (r *Reader) readOptimizedBatch(want yson.UBJsonValueType) ([]Token, error) {
	f := r.top()
	if f.kind != scopeArray || !f.optimized {
		return nil, yson.ErrWrongState
	}
	if f.elemType != want {
		return nil, fmt.Errorf("%w: optimized array element type is %v, not %v", yson.ErrCoercion, f.elemType, want)
	}
	n := f.remaining
	toks := make([]Token, 0, n)
	for i := int64(0); i < n; i++ {
		tok, err := r.tok.NextTyped(want)
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
	}
	f.remaining = 0
	return toks, nil
}

// ReadOptimizedUint8s bulk-reads a $U-typed optimized array. This is
// the same wire shape WriteBinary produces, so it doubles as the
// counterpart read path for binary blobs encoded that way.
func (r *Reader) ReadOptimizedUint8s() ([]byte, error) {
	toks, err := r.readOptimizedBatch(yson.UBJsonUInt8)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(toks))
	for i, t := range toks {
		out[i] = byte(t.Int)
	}
	return out, nil
}

// ReadOptimizedInt8s bulk-reads a $i-typed optimized array.
func (r *Reader) ReadOptimizedInt8s() ([]int8, error) {
	toks, err := r.readOptimizedBatch(yson.UBJsonInt8)
	if err != nil {
		return nil, err
	}
	out := make([]int8, len(toks))
	for i, t := range toks {
		out[i] = int8(t.Int)
	}
	return out, nil
}

// ReadOptimizedInt16s bulk-reads a $I-typed optimized array.
func (r *Reader) ReadOptimizedInt16s() ([]int16, error) {
	toks, err := r.readOptimizedBatch(yson.UBJsonInt16)
	if err != nil {
		return nil, err
	}
	out := make([]int16, len(toks))
	for i, t := range toks {
		out[i] = int16(t.Int)
	}
	return out, nil
}

// ReadOptimizedInt32s bulk-reads a $l-typed optimized array.
func (r *Reader) ReadOptimizedInt32s() ([]int32, error) {
	toks, err := r.readOptimizedBatch(yson.UBJsonInt32)
	if err != nil {
		return nil, err
	}
	out := make([]int32, len(toks))
	for i, t := range toks {
		out[i] = int32(t.Int)
	}
	return out, nil
}

// ReadOptimizedInt64s bulk-reads an $L-typed optimized array.
func (r *Reader) ReadOptimizedInt64s() ([]int64, error) {
	toks, err := r.readOptimizedBatch(yson.UBJsonInt64)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(toks))
	for i, t := range toks {
		out[i] = t.Int
	}
	return out, nil
}

// ReadOptimizedFloat32s bulk-reads a $d-typed optimized array.
func (r *Reader) ReadOptimizedFloat32s() ([]float32, error) {
	toks, err := r.readOptimizedBatch(yson.UBJsonFloat32)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(toks))
	for i, t := range toks {
		out[i] = t.Float32
	}
	return out, nil
}

// ReadOptimizedFloat64s bulk-reads a $D-typed optimized array.
func (r *Reader) ReadOptimizedFloat64s() ([]float64, error) {
	toks, err := r.readOptimizedBatch(yson.UBJsonFloat64)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(toks))
	for i, t := range toks {
		out[i] = t.Float64
	}
	return out, nil
}

func parseBigLexeme(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
