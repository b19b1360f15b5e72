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
	"encoding/base64"
	"fmt"

	"github.com/streamyson/yson"
	"github.com/streamyson/yson/internal/escape"
	"github.com/streamyson/yson/internal/numparse"
)

func init() {
	yson.RegisterFormat(yson.JSON, func(src yson.ByteSource) yson.Reader {
		return NewReader(src)
	})
}

type scopeKind int

const (
	scopeDocument scopeKind = iota
	scopeArray
	scopeObject
)

// frame tracks one level of container nesting the cursor is inside.
type frame struct {
	kind     scopeKind
	started  bool // at least one element/field already consumed
	afterKey bool // object only: a key was read, a value is now expected
	key      string
	keyValid bool // object only: key holds a value not yet superseded
	done     bool // document scope only: the single root value was read
}

// Reader implements yson.Reader over the permissive JSON dialect.
type Reader struct {
	tok   *Tokenizer
	stack []frame
	cur   Token
	have  bool // cur holds a value the caller hasn't consumed/entered yet
}

// NewReader returns a Reader over src.
func NewReader(src yson.ByteSource) *Reader {
	return &Reader{
		tok:   NewTokenizer(src),
		stack: []frame{{kind: scopeDocument}},
	}
}

func (r *Reader) top() *frame { return &r.stack[len(r.stack)-1] }

// advance handles the comma/end-marker bookkeeping shared by arrays
// and objects: ok is true if another element follows and should now
// be read; false means the container (or document) is exhausted. The
// closing marker itself is left unconsumed for Leave to take.
func (r *Reader) advance(end TokenKind) (bool, error) {
	f := r.top()
	if f.started {
		tok, err := r.tok.Peek()
		if err != nil {
			return false, err
		}
		if tok.Kind == end {
			return false, nil
		}
		if tok.Kind != Comma {
			return false, yson.NewSyntaxError(yson.ErrUnexpectedToken, tok.Pos, "expected ',' or %s", end)
		}
		r.tok.Next()
	}
	tok, err := r.tok.Peek()
	if err != nil {
		return false, err
	}
	if tok.Kind == end {
		// A trailing comma before the closing marker is permissive JSON:
		// treat it the same as reaching end with no comma at all.
		return false, nil
	}
	f.started = true
	return true, nil
}

func (r *Reader) NextValue() (bool, error) {
	f := r.top()
	switch f.kind {
	case scopeObject:
		if !f.afterKey {
			// nextValue called before nextKey: read the key silently,
			// then fall through to read the colon and the value.
			ok, err := r.readKey()
			if err != nil || !ok {
				return ok, err
			}
		}
	case scopeArray:
		ok, err := r.advance(EndArray)
		if err != nil || !ok {
			return ok, err
		}
	case scopeDocument:
		if f.done {
			return false, nil
		}
		tok, err := r.tok.Peek()
		if err != nil {
			return false, err
		}
		if tok.Kind == EndOfFile {
			return false, nil
		}
	}
	tok, err := r.tok.Next()
	if err != nil {
		return false, err
	}
	if tok.Kind != Value && tok.Kind != StartArray && tok.Kind != StartObject {
		return false, yson.NewSyntaxError(yson.ErrUnexpectedToken, tok.Pos, "expected a value, got %s", tok.Kind)
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

// readKey advances past the comma/end bookkeeping, reads the next
// object key and its colon, and records it on the current frame. It is
// shared by NextKey and by NextValue's "skip straight to the value"
// path (spec: calling nextValue from AtStart reads the key silently).
func (r *Reader) readKey() (bool, error) {
	f := r.top()
	ok, err := r.advance(EndObject)
	if err != nil || !ok {
		return ok, err
	}
	tok, err := r.tok.Next()
	if err != nil {
		return false, err
	}
	if tok.Kind != Value {
		return false, yson.NewSyntaxError(yson.ErrUnexpectedToken, tok.Pos, "expected an object key")
	}
	key := tok.Text
	if tok.Quoted && escape.HasEscapes(key) {
		key, err = escape.Unescape(key)
		if err != nil {
			return false, yson.NewSyntaxError(yson.ErrInvalidToken, tok.Pos, "invalid escape in key: %v", err)
		}
	}
	colon, err := r.tok.Next()
	if err != nil {
		return false, err
	}
	if colon.Kind != Colon {
		return false, yson.NewSyntaxError(yson.ErrUnexpectedToken, colon.Pos, "expected ':' after object key")
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
	tok, err := r.tok.Peek()
	if err != nil {
		return false, err
	}
	if tok.Kind == EndOfFile {
		return false, nil
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
		r.stack = append(r.stack, frame{kind: scopeArray})
	case StartObject:
		r.stack = append(r.stack, frame{kind: scopeObject})
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
	var end TokenKind
	if f.kind == scopeArray {
		end = EndArray
	} else {
		end = EndObject
	}
	// Skip any unread remainder of the container.
	for {
		tok, err := r.tok.Peek()
		if err != nil {
			return err
		}
		if tok.Kind == end {
			r.tok.Next()
			break
		}
		if f.kind == scopeObject && !f.afterKey {
			if _, err := r.NextKey(); err != nil {
				return err
			}
			continue
		}
		if _, err := r.skipValue(); err != nil {
			return err
		}
	}
	r.stack = r.stack[:len(r.stack)-1]
	r.have = false
	return nil
}

// skipValue consumes one complete value (scalar or container) without
// materializing it, used by Leave to discard unread siblings.
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
		return r.cur.Text == "true", true, nil
	case yson.DNull:
		return false, true, nil
	default:
		if i, err := numparse.ParseInt64(r.cur.Text); err == nil && (i == 0 || i == 1) {
			return i == 1, true, nil
		}
		return false, false, nil
	}
}

func (r *Reader) ReadInt64() (int64, bool, error) {
	if !r.have || r.cur.Kind != Value {
		return 0, false, yson.ErrWrongState
	}
	if r.cur.Type.Coarsen() != yson.IntegerValue {
		return 0, false, nil
	}
	i, err := numparse.ParseInt64(r.cur.Text)
	if err != nil {
		return 0, false, nil
	}
	return i, true, nil
}

func (r *Reader) ReadUint64() (uint64, bool, error) {
	if !r.have || r.cur.Kind != Value {
		return 0, false, yson.ErrWrongState
	}
	if r.cur.Type.Coarsen() != yson.IntegerValue {
		return 0, false, nil
	}
	u, err := numparse.ParseUint64(r.cur.Text)
	if err != nil {
		return 0, false, nil
	}
	return u, true, nil
}

func (r *Reader) ReadFloat64() (float64, bool, error) {
	if !r.have || r.cur.Kind != Value {
		return 0, false, yson.ErrWrongState
	}
	switch r.cur.Type.Coarsen() {
	case yson.IntegerValue, yson.FloatValue:
		f, err := numparse.ParseFloat64(r.cur.Text)
		if err != nil {
			return 0, false, nil
		}
		return f, true, nil
	default:
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
	if !r.cur.Quoted {
		return r.cur.Text, true, nil
	}
	if !escape.HasEscapes(r.cur.Text) {
		return r.cur.Text, true, nil
	}
	s, err := escape.Unescape(r.cur.Text)
	if err != nil {
		return "", false, yson.NewSyntaxError(yson.ErrInvalidToken, r.cur.Pos, "invalid string escape: %v", err)
	}
	return s, true, nil
}

func (r *Reader) ReadBinary() ([]byte, error) {
	return r.ReadBase64()
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
			key, err := r.Key()
			if err != nil {
				return yson.Item{}, err
			}
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
		v, _, err := r.ReadBool()
		if err != nil {
			return yson.Item{}, err
		}
		return yson.Bool(v), nil
	case yson.DString:
		s, _, err := r.ReadString()
		if err != nil {
			return yson.Item{}, err
		}
		return yson.String(s), nil
	case yson.DBigInt:
		return yson.BigInt(r.cur.Text), nil
	default:
		if r.cur.Type.Coarsen() == yson.IntegerValue {
			i, err := numparse.ParseInt64(r.cur.Text)
			if err == nil {
				return yson.Int64(i), nil
			}
			u, err := numparse.ParseUint64(r.cur.Text)
			if err == nil {
				return yson.Uint64(u), nil
			}
			return yson.BigInt(r.cur.Text), nil
		}
		f, _, err := r.ReadFloat64()
		if err != nil {
			return yson.Item{}, err
		}
		return yson.Float64(f), nil
	}
}

func (r *Reader) Pos() yson.Pos {
	return r.cur.Pos
}
