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

// Reader is the common contract implemented by both json.Reader and
// ubjson.Reader: a pull-based traversal API over a stack of container
// scopes (spec §3.3, §4.3).
//
// A freshly constructed Reader starts at the document scope in
// InitialState. Callers normally alternate NextKey/NextValue inside
// an object and call NextValue repeatedly inside an array or at the
// document root; Enter/Leave move into and out of whichever container
// the cursor is currently positioned on.
type Reader interface {
	// NextValue advances to the next value in the current scope. It
	// returns (true, nil) if a value was produced, (false, nil) if
	// the current container (or document) has been exhausted, and a
	// non-nil error for malformed input.
	NextValue() (bool, error)
	// NextKey advances to the next key in the current object scope.
	// Calling it outside an object scope returns ErrWrongState.
	NextKey() (bool, error)
	// Key returns the field name most recently produced by NextKey.
	// It is only valid to call between a successful NextKey and the
	// following NextValue/Leave; otherwise it returns ErrWrongState.
	Key() (string, error)
	// NextDocument advances past the current top-level value (if any)
	// and prepares to read another concatenated document from the
	// same stream. It returns false once the stream is exhausted.
	NextDocument() (bool, error)
	// Enter descends into the container the cursor is currently
	// positioned on. The current value must be a container start;
	// otherwise Enter returns ErrWrongState.
	Enter() error
	// Leave ascends out of the current container, silently skipping
	// any values that were not read.
	Leave() error

	// ValueType reports the coarse type of the value the cursor is
	// currently positioned on.
	ValueType() (ValueType, error)
	// DetailedValueType reports the narrowest numeric type of the
	// current value.
	DetailedValueType() (DetailedValueType, error)

	// IsNull reports whether the current value is the literal null.
	IsNull() (bool, error)
	// ReadBool applies the permissive boolean coercion rules: true,
	// false, null (-> false), and the integers 0/1.
	ReadBool() (value bool, ok bool, err error)
	ReadInt64() (value int64, ok bool, err error)
	ReadUint64() (value uint64, ok bool, err error)
	ReadFloat32() (value float32, ok bool, err error)
	ReadFloat64() (value float64, ok bool, err error)
	// ReadString returns the current value's text, unescaping it if
	// necessary. ok is false if the current value is not a string.
	ReadString() (value string, ok bool, err error)
	// ReadBinary decodes the current string value as raw bytes (the
	// UBJSON reader additionally accepts a typed uint8 array here).
	// It returns ErrCoercion if the current value is not a string.
	ReadBinary() ([]byte, error)
	// ReadBase64 decodes the current string value as base64.
	ReadBase64() ([]byte, error)

	// ReadItem materializes the value at the cursor (and, if it is a
	// container, its full subtree) as an Item. After it returns, the
	// reader is positioned exactly as if the value had been
	// traversed manually: the caller must still advance or Leave.
	ReadItem() (Item, error)

	// Pos reports the reader's current location, for diagnostics.
	Pos() Pos
}
