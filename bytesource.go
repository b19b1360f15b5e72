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
	"bufio"
	"io"
)

// DefaultBufferSize is the default refill size for a stream-backed
// ByteSource (spec §6.1).
const DefaultBufferSize = 64 * 1024

// ByteSource abstracts over a chunked or in-memory byte stream. Both
// tokenizers are written against this interface rather than directly
// against io.Reader so that file-system opening and path handling
// stay outside this module's scope (spec §1): callers hand in either
// a NewBufferSource(data) or a NewStreamSource(r), and everything
// downstream is agnostic to where the bytes actually came from.
//
// Implementations are not safe for concurrent use, matching the
// single-threaded, synchronous model of the readers and writers built
// on top of them (spec §5).
type ByteSource interface {
	// PeekByte returns the next unread byte without consuming it. It
	// returns io.EOF if the source is exhausted.
	PeekByte() (byte, error)
	// PeekN returns up to n unread bytes without consuming them. It
	// returns fewer than n bytes (with a nil error) when the source
	// has fewer than n bytes left before EOF, or, for a stream source,
	// when n exceeds its DefaultBufferSize buffer; it returns an error
	// only for a genuine I/O failure.
	PeekN(n int) ([]byte, error)
	// Next consumes and returns exactly n bytes. It returns
	// io.ErrUnexpectedEOF if the source is exhausted before n bytes
	// are available.
	Next(n int) ([]byte, error)
	// Skip consumes and discards exactly n bytes.
	Skip(n int) error
	// Position reports the number of bytes consumed so far.
	Position() int64
}

// bufferSource is an in-memory ByteSource over a fixed byte slice.
type bufferSource struct {
	buf []byte
	pos int
}

// NewBufferSource returns a ByteSource that reads from data without
// copying it. The caller must not mutate data while the source is in
// use.
func NewBufferSource(data []byte) ByteSource {
	return &bufferSource{buf: data}
}

func (b *bufferSource) PeekByte() (byte, error) {
	if b.pos >= len(b.buf) {
		return 0, io.EOF
	}
	return b.buf[b.pos], nil
}

func (b *bufferSource) PeekN(n int) ([]byte, error) {
	end := b.pos + n
	if end > len(b.buf) {
		end = len(b.buf)
	}
	return b.buf[b.pos:end], nil
}

func (b *bufferSource) Next(n int) ([]byte, error) {
	if b.pos+n > len(b.buf) {
		return nil, io.ErrUnexpectedEOF
	}
	p := b.buf[b.pos : b.pos+n]
	b.pos += n
	return p, nil
}

func (b *bufferSource) Skip(n int) error {
	if b.pos+n > len(b.buf) {
		b.pos = len(b.buf)
		return io.ErrUnexpectedEOF
	}
	b.pos += n
	return nil
}

func (b *bufferSource) Position() int64 { return int64(b.pos) }

// streamSource is a ByteSource backed by an io.Reader, refilling a
// bufio.Reader-style internal buffer on demand. Bytes are pulled
// synchronously (spec §5: the scheduling model is single-threaded and
// synchronous; "resumption" across chunk boundaries is handled here,
// inside PeekN/Next, rather than by the tokenizers above it having to
// save and restore partial-token state across separate calls).
type streamSource struct {
	r   *bufio.Reader
	pos int64
}

// NewStreamSource returns a ByteSource that pulls from r, buffering
// DefaultBufferSize bytes at a time.
func NewStreamSource(r io.Reader) ByteSource {
	return &streamSource{r: bufio.NewReaderSize(r, DefaultBufferSize)}
}

func (s *streamSource) PeekByte() (byte, error) {
	b, err := s.r.Peek(1)
	if err != nil {
		if len(b) == 0 {
			return 0, err
		}
	}
	if len(b) == 0 {
		return 0, io.EOF
	}
	return b[0], nil
}

func (s *streamSource) PeekN(n int) ([]byte, error) {
	b, err := s.r.Peek(n)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return b, err
	}
	return b, nil
}

func (s *streamSource) Next(n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(s.r, buf)
	s.pos += int64(read)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return buf[:read], io.ErrUnexpectedEOF
		}
		return buf[:read], err
	}
	return buf, nil
}

func (s *streamSource) Skip(n int) error {
	skipped, err := io.CopyN(io.Discard, s.r, int64(n))
	s.pos += skipped
	if err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}

func (s *streamSource) Position() int64 { return s.pos }
