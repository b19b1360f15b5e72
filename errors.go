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

// Sentinels for the four error categories described by the format.
// Wrap these with fmt.Errorf("...: %w", ErrXxx) or use NewSyntaxError so
// that callers can still errors.Is against the category.
var (
	// ErrInvalidToken covers unterminated strings/comments, bad
	// escapes, and malformed numbers.
	ErrInvalidToken = errors.New("yson: invalid token")
	// ErrUnexpectedToken covers mismatched container-end markers and
	// tokens that cannot occur in the reader's current state.
	ErrUnexpectedToken = errors.New("yson: unexpected token")
	// ErrUnexpectedEOF covers a stream that ends before a value or
	// container is complete.
	ErrUnexpectedEOF = errors.New("yson: unexpected end of document")
	// ErrWrongState covers calling enter/leave/nextKey in a state
	// that does not permit it (e.g. enter() when not positioned on a
	// container value, or leave() at the document root).
	ErrWrongState = errors.New("yson: reader or writer is not in a state that permits this call")
	// ErrCoercion covers readBase64 on a non-string value and other
	// "right state, wrong value kind" failures. Range and precision
	// failures use the (value, ok) return of the typed Read methods
	// instead of this sentinel, per the format's coercion rules.
	ErrCoercion = errors.New("yson: value cannot be coerced to the requested type")
	// ErrConfiguration covers writing a non-finite float with that
	// option disabled, ending an optimized container with the wrong
	// element count, and similar writer misuse.
	ErrConfiguration = errors.New("yson: invalid writer configuration or call sequence")
)

// Pos locates an error in the source. For JSON, Line and Column are
// both populated (1-based, Column counts UTF-8 characters). For
// UBJSON, only Offset is meaningful.
type Pos struct {
	Line   int
	Column int
	Offset int64
}

func (p Pos) String() string {
	if p.Line > 0 {
		return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
	}
	return fmt.Sprintf("byte offset %d", p.Offset)
}

// SyntaxError is returned for format and structural errors. It wraps
// one of the category sentinels above so errors.Is(err, ErrXxx) keeps
// working after it has been annotated with a location.
type SyntaxError struct {
	Pos     Pos
	Path    string // source file name, if known; empty otherwise
	Message string
	Err     error
}

func (e *SyntaxError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s): %s", e.Path, e.Pos, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%s): %s", e.Message, e.Pos, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// NewSyntaxError builds a SyntaxError wrapping sentinel at pos with
// the given message.
func NewSyntaxError(sentinel error, pos Pos, format string, args ...any) *SyntaxError {
	return &SyntaxError{Pos: pos, Message: fmt.Sprintf(format, args...), Err: sentinel}
}
