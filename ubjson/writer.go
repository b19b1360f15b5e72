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
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/streamyson/yson"
)

func parseUintExact(s string) (uint64, error)  { return strconv.ParseUint(s, 10, 64) }
func parseIntExact(s string) (int64, error)    { return strconv.ParseInt(s, 10, 64) }
func parseFloatExact(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

// WriterParameters configures a Writer for its whole lifetime.
type WriterParameters struct {
	// StrictIntegerSizes disables minimal-width integer selection:
	// WriteInt64/WriteUint64 write the full 'L'/int64 form, except
	// inside an optimized container that declares an integer element
	// type, where that declared type is used. The reader accepts
	// either encoding regardless of this setting.
	StrictIntegerSizes bool
}

type containerState struct {
	isObject  bool
	optimized bool
	elemType  yson.UBJsonValueType
	remaining int64 // elements still expected, when optimized
}

// Writer implements yson.Writer, emitting UBJSON.
type Writer struct {
	w      *bufio.Writer
	params WriterParameters
	stack  []containerState
	closed bool
}

// NewWriter returns a Writer that writes to w.
func NewWriter(w io.Writer, params WriterParameters) *Writer {
	return &Writer{w: bufio.NewWriterSize(w, 64*1024), params: params}
}

func (w *Writer) inOptimizedContainer() *containerState {
	if len(w.stack) == 0 {
		return nil
	}
	top := &w.stack[len(w.stack)-1]
	if top.optimized {
		return top
	}
	return nil
}

// beginValue writes the type marker for a scalar about to be emitted,
// unless the enclosing container is optimized with a declared element
// type (in which case the marker is implied and must be omitted).
func (w *Writer) beginValue(marker byte) error {
	if c := w.inOptimizedContainer(); c != nil {
		if c.elemType == yson.UBJsonUnknown {
			return w.w.WriteByte(marker)
		}
		if c.elemType.Marker() != marker {
			return fmt.Errorf("%w: value type does not match the optimized container's declared element type", yson.ErrConfiguration)
		}
		return nil
	}
	return w.w.WriteByte(marker)
}

func (w *Writer) BeginArray(params yson.StructureParameters) error {
	return w.beginContainer('[', params, false)
}

func (w *Writer) BeginObject(params yson.StructureParameters) error {
	return w.beginContainer('{', params, true)
}

func (w *Writer) beginContainer(marker byte, params yson.StructureParameters, isObject bool) error {
	if c := w.inOptimizedContainer(); c != nil && c.elemType != yson.UBJsonUnknown {
		// marker implied by the declared element type; nothing to write
	} else if err := w.w.WriteByte(marker); err != nil {
		return err
	}
	if err := w.countElement(); err != nil {
		return err
	}
	cs := containerState{isObject: isObject}
	if params.UBJson.Size > 0 {
		cs.optimized = true
		cs.remaining = params.UBJson.Size
		cs.elemType = params.UBJson.ValueType
		if cs.elemType != yson.UBJsonUnknown {
			w.w.WriteByte('$')
			w.w.WriteByte(cs.elemType.Marker())
		}
		w.w.WriteByte('#')
		if err := writeMinimalInt(w.w, cs.remaining); err != nil {
			return err
		}
	}
	w.stack = append(w.stack, cs)
	return nil
}

func (w *Writer) EndArray() error { return w.endContainer(']', false) }

func (w *Writer) EndObject() error { return w.endContainer('}', true) }

func (w *Writer) endContainer(marker byte, isObject bool) error {
	if len(w.stack) == 0 {
		return fmt.Errorf("%w: unbalanced container end", yson.ErrWrongState)
	}
	top := w.stack[len(w.stack)-1]
	if top.isObject != isObject {
		return fmt.Errorf("%w: mismatched container end", yson.ErrUnexpectedToken)
	}
	if top.optimized && top.remaining != 0 {
		return fmt.Errorf("%w: optimized container closed with %d elements still expected", yson.ErrConfiguration, top.remaining)
	}
	w.stack = w.stack[:len(w.stack)-1]
	if top.optimized {
		return nil // declared count closes the container implicitly
	}
	return w.w.WriteByte(marker)
}

func (w *Writer) countElement() error {
	if len(w.stack) == 0 {
		return nil
	}
	top := &w.stack[len(w.stack)-1]
	if top.optimized {
		if top.remaining <= 0 {
			return fmt.Errorf("%w: optimized container received more elements than declared", yson.ErrConfiguration)
		}
		top.remaining--
	}
	return nil
}

func (w *Writer) Key(name string) error {
	if len(w.stack) == 0 || !w.stack[len(w.stack)-1].isObject {
		return yson.ErrWrongState
	}
	if err := writeMinimalInt(w.w, int64(len(name))); err != nil {
		return err
	}
	_, err := w.w.WriteString(name)
	return err
}

func (w *Writer) WriteNull() error {
	if err := w.beginValue('Z'); err != nil {
		return err
	}
	return w.countElement()
}

func (w *Writer) WriteBool(v bool) error {
	marker := byte('F')
	if v {
		marker = 'T'
	}
	if err := w.beginValue(marker); err != nil {
		return err
	}
	return w.countElement()
}

func (w *Writer) WriteInt64(v int64) error {
	marker := byte('L')
	if !w.params.StrictIntegerSizes {
		marker = minimalMarkerForInt64(v)
	}
	if c := w.inOptimizedContainer(); c != nil && c.elemType >= yson.UBJsonInt8 && c.elemType <= yson.UBJsonInt64 {
		// Coerce to the declared element type instead of the chosen marker.
		marker = c.elemType.Marker()
		fits := map[byte]bool{'i': int64(int8(v)) == v, 'U': int64(uint8(v)) == v, 'I': int64(int16(v)) == v, 'l': int64(int32(v)) == v, 'L': true}[marker]
		if !fits {
			return fmt.Errorf("%w: %d does not fit the optimized container's declared element type", yson.ErrConfiguration, v)
		}
	}
	if err := w.beginValue(marker); err != nil {
		return err
	}
	if err := writeIntValue(w.w, marker, v); err != nil {
		return err
	}
	return w.countElement()
}

func (w *Writer) WriteUint64(v uint64) error {
	if v <= math.MaxInt64 {
		return w.WriteInt64(int64(v))
	}
	// UBJSON has no unsigned 64-bit marker; values this large are
	// written as a high-precision decimal lexeme instead of
	// truncating them.
	return w.writeHighPrecision(fmt.Sprintf("%d", v))
}

func (w *Writer) WriteFloat32(v float32) error {
	if err := w.beginValue('d'); err != nil {
		return err
	}
	if err := writeFloat32(w.w, v); err != nil {
		return err
	}
	return w.countElement()
}

func (w *Writer) WriteFloat64(v float64) error {
	if err := w.beginValue('D'); err != nil {
		return err
	}
	if err := writeFloat64(w.w, v); err != nil {
		return err
	}
	return w.countElement()
}

func (w *Writer) WriteString(v string) error {
	if err := w.beginValue('S'); err != nil {
		return err
	}
	if err := writeMinimalInt(w.w, int64(len(v))); err != nil {
		return err
	}
	if _, err := w.w.WriteString(v); err != nil {
		return err
	}
	return w.countElement()
}

func (w *Writer) writeHighPrecision(lexeme string) error {
	if err := w.beginValue('H'); err != nil {
		return err
	}
	if err := writeMinimalInt(w.w, int64(len(lexeme))); err != nil {
		return err
	}
	if _, err := w.w.WriteString(lexeme); err != nil {
		return err
	}
	return w.countElement()
}

// WriteBinary emits data as an optimized uint8 array, UBJSON's native
// binary-blob encoding. The bytes are written directly to the buffer
// rather than through WriteUint64 (so none of them pays for a
// per-element marker or function-call overhead), so the container's
// declared-count bookkeeping is settled by hand instead of via the
// ordinary countElement path each WriteUint64 call would take.
func (w *Writer) WriteBinary(data []byte) error {
	if err := w.BeginArray(yson.Optimized(int64(len(data)), yson.UBJsonUInt8)); err != nil {
		return err
	}
	for _, b := range data {
		if err := w.w.WriteByte(b); err != nil {
			return err
		}
	}
	w.stack[len(w.stack)-1].remaining = 0
	return w.EndArray()
}

func (w *Writer) WriteBase64(data []byte) error {
	return w.WriteString(base64.StdEncoding.EncodeToString(data))
}

func (w *Writer) WriteItem(it yson.Item) error {
	switch it.Type() {
	case yson.NullValue:
		return w.WriteNull()
	case yson.BoolValue:
		return w.WriteBool(it.Text() == "true")
	case yson.StringValue:
		return w.WriteString(it.Text())
	case yson.IntegerValue:
		return w.writeIntegerItem(it)
	case yson.FloatValue:
		return w.writeFloatItem(it)
	case yson.ArrayValue:
		if err := w.BeginArray(yson.Flat()); err != nil {
			return err
		}
		for _, el := range it.Elements() {
			if err := w.WriteItem(el); err != nil {
				return err
			}
		}
		return w.EndArray()
	case yson.ObjectValue:
		if err := w.BeginObject(yson.Flat()); err != nil {
			return err
		}
		for _, f := range it.Fields() {
			if err := w.Key(f.Key); err != nil {
				return err
			}
			if err := w.WriteItem(f.Value); err != nil {
				return err
			}
		}
		return w.EndObject()
	default:
		return fmt.Errorf("%w: cannot write invalid item", yson.ErrConfiguration)
	}
}

func (w *Writer) writeIntegerItem(it yson.Item) error {
	if it.DetailedType() == yson.DBigInt {
		return w.writeHighPrecision(it.Text())
	}
	if u, err := parseUintExact(it.Text()); err == nil {
		return w.WriteUint64(u)
	}
	if i, err := parseIntExact(it.Text()); err == nil {
		return w.WriteInt64(i)
	}
	return w.writeHighPrecision(it.Text())
}

func (w *Writer) writeFloatItem(it yson.Item) error {
	if it.DetailedType() == yson.DBigFloat {
		return w.writeHighPrecision(it.Text())
	}
	f, err := parseFloatExact(it.Text())
	if err != nil {
		return w.writeHighPrecision(it.Text())
	}
	if it.DetailedType() == yson.DFloat32 {
		return w.WriteFloat32(float32(f))
	}
	return w.WriteFloat64(f)
}

func (w *Writer) Flush() error { return w.w.Flush() }

func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	if len(w.stack) > 0 {
		return fmt.Errorf("%w: Close called with an open container", yson.ErrConfiguration)
	}
	w.closed = true
	return w.w.Flush()
}
