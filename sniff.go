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
	"errors"
	"fmt"
)

// ErrUnknownFormat is returned by Sniff and NewReader when the prefix
// of a byte source matches neither format.
var ErrUnknownFormat = errors.New("yson: input is neither JSON nor UBJSON")

// Format names one of the two data-interchange formats this package
// reads and writes.
type Format int

const (
	UnknownFormat Format = iota
	JSON
	UBJSON
)

func (f Format) String() string {
	switch f {
	case JSON:
		return "JSON"
	case UBJSON:
		return "UBJSON"
	default:
		return "unknown"
	}
}

// constructor is registered by the json and ubjson packages so that
// this package can build a Reader without importing them directly
// (which would create an import cycle, since both packages import
// yson for Item and the Reader/Writer interfaces). This mirrors how
// the standard library's image package lets image/jpeg and image/png
// register themselves via image.RegisterFormat instead of image
// importing its own codecs.
type constructor func(src ByteSource) Reader

var registry = map[Format]constructor{}

// RegisterFormat is called from the json and ubjson packages' init()
// functions to make NewReader's auto-detection able to construct a
// Reader of that format. It is not meant to be called from outside
// this module.
func RegisterFormat(f Format, newReader func(src ByteSource) Reader) {
	registry[f] = newReader
}

// Sniff inspects up to 1 KiB of the front of src (without consuming
// it) and reports which format the stream appears to hold, per spec
// §6.5. '{' and '[' open a container in both formats, so a lone
// opening brace or bracket is not by itself conclusive; Sniff looks
// one token further in that case.
//
//  1. A UTF-8, UTF-16, or UTF-32 byte-order mark selects JSON.
//  2. Skipping leading whitespace, a quote, digit, '-', or the start
//     of a true/false/null literal selects JSON; a valid UBJSON type
//     marker (or the NoOp marker) selects UBJSON.
//  3. A leading '{' or '[' defers to the first byte after it: '$' or
//     '#' (an optimized-container header) selects UBJSON; anything
//     that would itself select JSON under rule 2, or a matching close
//     bracket (an empty container, which both formats encode
//     identically), selects JSON.
//  4. Otherwise the format is unknown.
func Sniff(src ByteSource) (Format, error) {
	prefix, err := src.PeekN(1024)
	if err != nil && len(prefix) == 0 {
		return UnknownFormat, err
	}
	if len(prefix) == 0 {
		return UnknownFormat, ErrUnknownFormat
	}
	if hasBOM(prefix) {
		return JSON, nil
	}
	i := 0
	for i < len(prefix) && isJSONWhitespace(prefix[i]) {
		i++
	}
	if i >= len(prefix) {
		return UnknownFormat, ErrUnknownFormat
	}
	b := prefix[i]
	if b == '{' || b == '[' {
		if i+1 < len(prefix) {
			return sniffAfterOpen(prefix[i+1])
		}
		return JSON, nil
	}
	return sniffByte(b)
}

func sniffAfterOpen(b byte) (Format, error) {
	if b == '$' || b == '#' {
		return UBJSON, nil
	}
	return sniffByte(b)
}

// sniffByte classifies a single byte that is known not to be a
// leading '{'/'[' (those are handled by the caller via one more byte
// of lookahead).
func sniffByte(b byte) (Format, error) {
	switch {
	case isJSONWhitespace(b):
		return JSON, nil
	case b == '"' || b == '-' || b >= '0' && b <= '9':
		return JSON, nil
	case b == 't' || b == 'f' || b == 'n': // true/false/null
		return JSON, nil
	case b == '}' || b == ']': // empty container: identical in both formats
		return JSON, nil
	case UBJsonValueTypeFromMarker(b) != UBJsonUnknown || b == 'N':
		return UBJSON, nil
	default:
		return UnknownFormat, ErrUnknownFormat
	}
}

func isJSONWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func hasBOM(prefix []byte) bool {
	switch {
	case len(prefix) >= 3 && prefix[0] == 0xEF && prefix[1] == 0xBB && prefix[2] == 0xBF:
		return true // UTF-8
	case len(prefix) >= 4 && prefix[0] == 0xFF && prefix[1] == 0xFE && prefix[2] == 0 && prefix[3] == 0:
		return true // UTF-32LE
	case len(prefix) >= 4 && prefix[0] == 0 && prefix[1] == 0 && prefix[2] == 0xFE && prefix[3] == 0xFF:
		return true // UTF-32BE
	case len(prefix) >= 2 && prefix[0] == 0xFF && prefix[1] == 0xFE:
		return true // UTF-16LE
	case len(prefix) >= 2 && prefix[0] == 0xFE && prefix[1] == 0xFF:
		return true // UTF-16BE
	default:
		return false
	}
}

// NewReader sniffs src and constructs the appropriate Reader. This is
// the "auto-detect JSON vs UBJSON from the first bytes" factory the
// spec calls out as boilerplate glue (spec §1); the real detection
// rule lives in Sniff.
func NewReader(src ByteSource) (Reader, error) {
	f, err := Sniff(src)
	if err != nil {
		return nil, err
	}
	newReader, ok := registry[f]
	if !ok {
		return nil, fmt.Errorf("yson: no reader registered for %s (forgot a blank import?)", f)
	}
	return newReader(src), nil
}
