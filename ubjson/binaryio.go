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

// Package ubjson implements the Universal Binary JSON format: a
// resumable tokenizer with optimized-container lookahead, a
// scope-tracking Reader, and a Writer that selects minimal integer
// widths and optimized containers, all built against the yson
// package's shared Item, Reader, and Writer contracts.
package ubjson

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/streamyson/yson"
)

// UBJSON is defined entirely in big-endian byte order (the wire
// format calls it "network order"). encoding/binary.BigEndian gives
// us a portable codec for free; there is no need to detect host
// endianness and byte-swap by hand.

func readUint8(src yson.ByteSource) (uint8, error) {
	b, err := src.Next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func readInt8(src yson.ByteSource) (int8, error) {
	b, err := readUint8(src)
	return int8(b), err
}

func readInt16(src yson.ByteSource) (int16, error) {
	b, err := src.Next(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

func readInt32(src yson.ByteSource) (int32, error) {
	b, err := src.Next(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func readInt64(src yson.ByteSource) (int64, error) {
	b, err := src.Next(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func readFloat32(src yson.ByteSource) (float32, error) {
	b, err := src.Next(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

func readFloat64(src yson.ByteSource) (float64, error) {
	b, err := src.Next(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// readIntegerValue reads one UBJSON integer-typed value (any of the
// i/U/I/l/L markers) and widens it to int64. It is used both for
// ordinary integer values and for the length prefixes of strings,
// high-precision numbers, and optimized containers, which the format
// encodes the same way as an ordinary integer value.
func readIntegerValue(src yson.ByteSource, marker byte) (int64, error) {
	switch yson.UBJsonValueTypeFromMarker(marker) {
	case yson.UBJsonInt8:
		v, err := readInt8(src)
		return int64(v), err
	case yson.UBJsonUInt8:
		v, err := readUint8(src)
		return int64(v), err
	case yson.UBJsonInt16:
		v, err := readInt16(src)
		return int64(v), err
	case yson.UBJsonInt32:
		v, err := readInt32(src)
		return int64(v), err
	case yson.UBJsonInt64:
		v, err := readInt64(src)
		return v, err
	default:
		return 0, yson.NewSyntaxError(yson.ErrUnexpectedToken, yson.Pos{Offset: src.Position()}, "expected an integer type marker, got %q", marker)
	}
}

// readLength reads a marker byte followed by its integer value, as
// used for string/high-precision lengths and optimized-container
// counts.
func readLength(src yson.ByteSource) (int64, error) {
	b, err := src.Next(1)
	if err != nil {
		return 0, err
	}
	return readIntegerValue(src, b[0])
}

func writeUint8(w io.ByteWriter, v uint8) error { return w.WriteByte(v) }

func writeInt16(w io.Writer, v int16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v))
	_, err := w.Write(b[:])
	return err
}

func writeInt32(w io.Writer, v int32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	_, err := w.Write(b[:])
	return err
}

func writeInt64(w io.Writer, v int64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	_, err := w.Write(b[:])
	return err
}

func writeFloat32(w io.Writer, v float32) error {
	return writeInt32(w, int32(math.Float32bits(v)))
}

func writeFloat64(w io.Writer, v float64) error {
	return writeInt64(w, int64(math.Float64bits(v)))
}

// minimalMarkerForInt64 selects the narrowest signed integer marker
// that can represent v exactly: 'i' (int8), 'U' (uint8, 0..255), 'I'
// (int16), 'l' (int32), or 'L' (int64).
func minimalMarkerForInt64(v int64) byte {
	switch {
	case v >= -128 && v <= 127:
		return 'i'
	case v >= 0 && v <= 255:
		return 'U'
	case v >= -32768 && v <= 32767:
		return 'I'
	case v >= -(1<<31) && v <= (1<<31)-1:
		return 'l'
	default:
		return 'L'
	}
}

type byteWriter interface {
	io.Writer
	io.ByteWriter
}

// writeMinimalInt writes v using the narrowest marker+value encoding
// that represents it exactly.
func writeMinimalInt(w byteWriter, v int64) error {
	marker := minimalMarkerForInt64(v)
	if err := w.WriteByte(marker); err != nil {
		return err
	}
	return writeIntValue(w, marker, v)
}

// writeIntValue writes v's payload bytes for the given integer
// marker, without writing the marker itself.
func writeIntValue(w byteWriter, marker byte, v int64) error {
	switch yson.UBJsonValueTypeFromMarker(marker) {
	case yson.UBJsonInt8, yson.UBJsonUInt8:
		return w.WriteByte(byte(v))
	case yson.UBJsonInt16:
		return writeInt16(w, int16(v))
	case yson.UBJsonInt32:
		return writeInt32(w, int32(v))
	case yson.UBJsonInt64:
		return writeInt64(w, v)
	default:
		return yson.ErrConfiguration
	}
}
