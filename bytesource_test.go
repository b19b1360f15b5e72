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
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestBufferSourcePeekAndNext(t *testing.T) {
	src := NewBufferSource([]byte("hello"))
	b, err := src.PeekByte()
	if err != nil || b != 'h' {
		t.Fatalf("PeekByte() = %q, %v", b, err)
	}
	got, err := src.Next(5)
	if err != nil || string(got) != "hello" {
		t.Fatalf("Next(5) = %q, %v", got, err)
	}
	if _, err := src.Next(1); err != io.ErrUnexpectedEOF {
		t.Fatalf("Next past EOF = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestStreamSourceMatchesBufferSource(t *testing.T) {
	data := strings.Repeat("abcdefgh", 1000)
	bs := NewBufferSource([]byte(data))
	ss := NewStreamSource(bytes.NewReader([]byte(data)))
	for i := 0; i < len(data); i += 7 {
		a, errA := bs.Next(7)
		b, errB := ss.Next(7)
		if errA != nil || errB != nil {
			break
		}
		if !bytes.Equal(a, b) {
			t.Fatalf("at offset %d: buffer=%q stream=%q", i, a, b)
		}
	}
}

func TestStreamSourcePosition(t *testing.T) {
	ss := NewStreamSource(strings.NewReader("0123456789"))
	ss.Next(4)
	if ss.Position() != 4 {
		t.Fatalf("Position() = %d, want 4", ss.Position())
	}
	ss.Skip(3)
	if ss.Position() != 7 {
		t.Fatalf("Position() = %d, want 7", ss.Position())
	}
}
