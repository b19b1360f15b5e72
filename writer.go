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

// Writer is the common contract implemented by both json.Writer and
// ubjson.Writer: a stateful output engine that tracks container
// nesting, formatting discipline (json.Writer) or optimized-container
// bookkeeping (ubjson.Writer), per spec §3.4/§4.6/§4.7.
//
// Every value-emitting call is preceded by the writer's internal
// beginValue step, which emits whatever separators or type marker the
// current write-position requires. Inside an object, Key has already
// written the field name by then.
type Writer interface {
	// BeginArray/BeginObject open a new container. params.Json
	// controls textual formatting; params.UBJson controls whether
	// (and how) the container is written as an optimized container.
	// A json.Writer ignores params.UBJson and vice versa, so the same
	// params value can be reused against either writer.
	BeginArray(params StructureParameters) error
	EndArray() error
	BeginObject(params StructureParameters) error
	EndObject() error

	// Key writes an object field name. It must be called exactly
	// once before each field's value, and only while inside an
	// object.
	Key(name string) error

	WriteNull() error
	WriteBool(v bool) error
	WriteInt64(v int64) error
	WriteUint64(v uint64) error
	WriteFloat32(v float32) error
	WriteFloat64(v float64) error
	WriteString(v string) error
	// WriteBinary writes raw bytes: UBJSON emits them as an optimized
	// uint8 array whose bytes go straight into the output buffer with
	// no per-element markers; JSON emits them as a
	// base64-encoded string (there is no raw-binary JSON literal).
	WriteBinary(data []byte) error
	// WriteBase64 always emits a base64-encoded text string.
	WriteBase64(data []byte) error

	// WriteItem writes a previously read (or constructed) Item,
	// recursing into arrays and objects.
	WriteItem(it Item) error

	// Flush pushes any buffered output to the underlying sink. It is
	// a no-op for writers with no sink (pure in-memory buffering).
	Flush() error
	// Close flushes and finalizes the writer. If any container is
	// still open it returns ErrConfiguration and leaves the writer
	// open. Otherwise it marks the writer closed and flushes; any
	// later Close (including one after a failed flush) is a no-op.
	Close() error
}
