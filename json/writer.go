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
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/streamyson/yson"
	"github.com/streamyson/yson/internal/escape"
)

// WriterParameters configures a Writer for its whole lifetime, as
// opposed to yson.JsonParameters which configures a single container.
type WriterParameters struct {
	// IndentWidth is the number of spaces per nesting level under
	// FormatFormatting. Zero selects a single tab.
	IndentWidth int
	// EscapeNonASCII escapes every non-ASCII rune as \uXXXX instead of
	// copying UTF-8 through verbatim.
	EscapeNonASCII bool
	// AllowNonFiniteFloats permits NaN/Infinity/-Infinity to be
	// written at all. When false (the default), WriteFloat32/64
	// returns ErrConfiguration for a non-finite value instead.
	AllowNonFiniteFloats bool
	// QuoteNonFiniteFloats, when AllowNonFiniteFloats is also set,
	// writes a non-finite value as a quoted string ("NaN", "Infinity",
	// "-Infinity") instead of the bare keyword literal. It has no
	// effect when AllowNonFiniteFloats is false.
	QuoteNonFiniteFloats bool
	// UnquotedKeys writes object field names without surrounding
	// quotes whenever the name is a valid bare identifier.
	UnquotedKeys bool
	// MaxStringLineWidth, if > 0, folds long string values (not keys)
	// across multiple lines using "\<newline>" continuations once the
	// escaped line reaches this many bytes.
	MaxStringLineWidth int
}

type containerState struct {
	fmt        yson.Formatting
	valuesPerLine int
	count      int
	isObject   bool
	needKey    bool // isObject: a value is owed before the next ','
}

// Writer implements yson.Writer, emitting the permissive JSON dialect.
type Writer struct {
	w      *bufio.Writer
	params WriterParameters
	stack  []containerState
	depth  int
	closed bool
}

// NewWriter returns a Writer that writes to w.
func NewWriter(w io.Writer, params WriterParameters) *Writer {
	return &Writer{w: bufio.NewWriterSize(w, 64*1024), params: params}
}

func (w *Writer) effectiveFormatting() yson.Formatting {
	for i := len(w.stack) - 1; i >= 0; i-- {
		if w.stack[i].fmt != yson.DefaultFormatting {
			return w.stack[i].fmt
		}
	}
	return yson.NoneFormatting
}

func (w *Writer) indent() {
	mode := w.effectiveFormatting()
	if mode != yson.FormatFormatting {
		return
	}
	w.w.WriteByte('\n')
	width := w.params.IndentWidth
	for i := 0; i < w.depth; i++ {
		if width <= 0 {
			w.w.WriteByte('\t')
			continue
		}
		for j := 0; j < width; j++ {
			w.w.WriteByte(' ')
		}
	}
}

// beginValue emits the separator required before the next value
// (comma, optional formatting whitespace) in the current container.
func (w *Writer) beginValue() error {
	if len(w.stack) == 0 {
		return nil // document root: nothing precedes the first value
	}
	top := &w.stack[len(w.stack)-1]
	mode := w.effectiveFormatting()
	if top.count > 0 {
		w.w.WriteByte(',')
		if mode == yson.FlatFormatting {
			w.w.WriteByte(' ')
		}
		if mode == yson.FormatFormatting && top.valuesPerLine > 1 && top.count%top.valuesPerLine != 0 {
			w.w.WriteByte(' ')
		} else {
			w.indent()
		}
	} else {
		w.indent()
	}
	top.count++
	return nil
}

// formattingRank orders the explicit (non-Default) formatting modes by
// how much whitespace they emit, least to most: None < Flat < Format.
// A child container may inherit its parent's mode (Default) or ask for
// something quieter, but it may never ask for something louder than
// what its parent already resolved to.
func formattingRank(f yson.Formatting) int {
	switch f {
	case yson.NoneFormatting:
		return 0
	case yson.FlatFormatting:
		return 1
	case yson.FormatFormatting:
		return 2
	default:
		return -1
	}
}

// resolveChildFormatting clamps a container's requested formatting mode
// against the mode its parent already resolved to.
func (w *Writer) resolveChildFormatting(requested yson.Formatting) yson.Formatting {
	if requested == yson.DefaultFormatting {
		return yson.DefaultFormatting
	}
	if len(w.stack) == 0 {
		// No enclosing container at the document root to clamp
		// against; the outermost container is free to pick any mode.
		return requested
	}
	parent := w.effectiveFormatting()
	if formattingRank(requested) > formattingRank(parent) {
		return parent
	}
	return requested
}

func (w *Writer) BeginArray(params yson.StructureParameters) error {
	if err := w.enterValuePosition(); err != nil {
		return err
	}
	fmtMode := w.resolveChildFormatting(params.Json.Formatting)
	w.w.WriteByte('[')
	w.stack = append(w.stack, containerState{fmt: fmtMode, valuesPerLine: params.Json.ValuesPerLine})
	w.depth++
	return nil
}

func (w *Writer) EndArray() error {
	return w.endContainer(']', false)
}

func (w *Writer) BeginObject(params yson.StructureParameters) error {
	if err := w.enterValuePosition(); err != nil {
		return err
	}
	fmtMode := w.resolveChildFormatting(params.Json.Formatting)
	w.w.WriteByte('{')
	w.stack = append(w.stack, containerState{fmt: fmtMode, valuesPerLine: params.Json.ValuesPerLine, isObject: true})
	w.depth++
	return nil
}

func (w *Writer) EndObject() error {
	return w.endContainer('}', true)
}

func (w *Writer) endContainer(marker byte, isObject bool) error {
	if len(w.stack) == 0 {
		return fmt.Errorf("%w: unbalanced container end", yson.ErrWrongState)
	}
	top := w.stack[len(w.stack)-1]
	if top.isObject != isObject {
		return fmt.Errorf("%w: mismatched container end", yson.ErrUnexpectedToken)
	}
	w.depth--
	if top.count > 0 {
		w.indent()
	}
	w.w.WriteByte(marker)
	w.stack = w.stack[:len(w.stack)-1]
	return nil
}

func (w *Writer) Key(name string) error {
	if len(w.stack) == 0 || !w.stack[len(w.stack)-1].isObject {
		return yson.ErrWrongState
	}
	top := &w.stack[len(w.stack)-1]
	mode := w.effectiveFormatting()
	if top.count > 0 {
		w.w.WriteByte(',')
		if mode == yson.FlatFormatting {
			w.w.WriteByte(' ')
		}
		w.indent()
	} else {
		w.indent()
	}
	top.count++
	top.needKey = true
	w.writeKey(name)
	w.w.WriteByte(':')
	if mode != yson.NoneFormatting {
		w.w.WriteByte(' ')
	}
	return nil
}

func (w *Writer) writeKey(name string) {
	if w.params.UnquotedKeys && isBareIdentifier(name) {
		w.w.WriteString(name)
		return
	}
	w.w.WriteByte('"')
	w.w.WriteString(escape.Escape(name, escape.EscapeOptions{EscapeNonASCII: w.params.EscapeNonASCII}))
	w.w.WriteByte('"')
}

func isBareIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		ok := c == '_' || c == '$' ||
			c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
			(i > 0 && c >= '0' && c <= '9')
		if !ok {
			return false
		}
	}
	return true
}

// enterValuePosition accounts for the value about to be written,
// whichever of beginValue's separator bookkeeping (array/document
// scope, where each value still needs its own comma/formatting) or
// Key's already-done bookkeeping (object scope, where Key already
// emitted the separator and the colon) applies. Every value-emitting
// call funnels through this, including BeginArray/BeginObject used as
// a container value rather than a scalar.
func (w *Writer) enterValuePosition() error {
	if len(w.stack) > 0 {
		top := &w.stack[len(w.stack)-1]
		if top.isObject {
			if !top.needKey {
				return fmt.Errorf("%w: value written without a preceding Key", yson.ErrWrongState)
			}
			top.needKey = false
			return nil
		}
	}
	return w.beginValue()
}

// writeRawValue emits a value token, handling the comma/formatting
// bookkeeping but not the key (Key must be called first inside an
// object).
func (w *Writer) writeRawValue(fn func()) error {
	if err := w.enterValuePosition(); err != nil {
		return err
	}
	fn()
	return nil
}

func (w *Writer) WriteNull() error {
	return w.writeRawValue(func() { w.w.WriteString("null") })
}

func (w *Writer) WriteBool(v bool) error {
	return w.writeRawValue(func() {
		if v {
			w.w.WriteString("true")
		} else {
			w.w.WriteString("false")
		}
	})
}

func (w *Writer) WriteInt64(v int64) error {
	return w.writeRawValue(func() { w.w.WriteString(strconv.FormatInt(v, 10)) })
}

func (w *Writer) WriteUint64(v uint64) error {
	return w.writeRawValue(func() { w.w.WriteString(strconv.FormatUint(v, 10)) })
}

func (w *Writer) WriteFloat64(v float64) error {
	return w.writeFloat(v, 64)
}

func (w *Writer) WriteFloat32(v float32) error {
	return w.writeFloat(float64(v), 32)
}

func (w *Writer) writeFloat(v float64, bits int) error {
	nonFinite := math.IsNaN(v) || math.IsInf(v, 0)
	if nonFinite && !w.params.AllowNonFiniteFloats {
		return fmt.Errorf("%w: non-finite float written with AllowNonFiniteFloats disabled", yson.ErrConfiguration)
	}
	return w.writeRawValue(func() {
		var lit string
		switch {
		case math.IsNaN(v):
			lit = "NaN"
		case math.IsInf(v, 1):
			lit = "Infinity"
		case math.IsInf(v, -1):
			lit = "-Infinity"
		default:
			w.w.WriteString(strconv.FormatFloat(v, 'g', -1, bits))
			return
		}
		if w.params.QuoteNonFiniteFloats {
			w.w.WriteByte('"')
			w.w.WriteString(lit)
			w.w.WriteByte('"')
			return
		}
		w.w.WriteString(lit)
	})
}

func (w *Writer) WriteString(v string) error {
	return w.writeRawValue(func() {
		w.w.WriteByte('"')
		w.w.WriteString(escape.Escape(v, escape.EscapeOptions{
			EscapeNonASCII: w.params.EscapeNonASCII,
			MaxLineWidth:   w.params.MaxStringLineWidth,
		}))
		w.w.WriteByte('"')
	})
}

func (w *Writer) WriteBinary(data []byte) error {
	return w.WriteBase64(data)
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
	case yson.IntegerValue:
		return w.writeRawValue(func() { w.w.WriteString(it.Text()) })
	case yson.FloatValue:
		return w.writeRawValue(func() { w.w.WriteString(it.Text()) })
	case yson.StringValue:
		return w.WriteString(it.Text())
	case yson.ArrayValue:
		if err := w.BeginArray(yson.StructureParameters{}); err != nil {
			return err
		}
		for _, el := range it.Elements() {
			if err := w.WriteItem(el); err != nil {
				return err
			}
		}
		return w.EndArray()
	case yson.ObjectValue:
		if err := w.BeginObject(yson.StructureParameters{}); err != nil {
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

func (w *Writer) Flush() error {
	return w.w.Flush()
}

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
