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
	"bytes"
	"testing"

	"github.com/streamyson/yson"
)

func mustReadItem(t *testing.T, src string) yson.Item {
	t.Helper()
	r := NewReader(yson.NewBufferSource([]byte(src)))
	if _, err := r.NextValue(); err != nil {
		t.Fatalf("NextValue: %v", err)
	}
	it, err := r.ReadItem()
	if err != nil {
		t.Fatalf("ReadItem: %v", err)
	}
	return it
}

func TestReaderQuotedKey(t *testing.T) {
	it := mustReadItem(t, `{"a b": 1, "c": [true, false, null]}`)
	if it.Type() != yson.ObjectValue {
		t.Fatalf("Type() = %v, want ObjectValue", it.Type())
	}
	v, ok := it.Field("a b")
	if !ok {
		t.Fatal(`missing field "a b"`)
	}
	if v.Text() != "1" {
		t.Errorf(`field "a b" = %q, want "1"`, v.Text())
	}
}

func TestReaderPermissiveGrammar(t *testing.T) {
	it := mustReadItem(t, `{
		unquoted_key: 0x1F, // line comment
		hex: 0x_DE_AD,
		single: 'quoted with "double" inside',
		nonfinite: NaN,
	}`)
	f, ok := it.Field("unquoted_key")
	if !ok || f.Text() != "0x1F" {
		t.Errorf("unquoted_key = %+v", f)
	}
	f, ok = it.Field("nonfinite")
	if !ok || f.DetailedType() != yson.DFloat64 {
		t.Errorf("nonfinite field = %+v", f)
	}
}

func TestReaderBlockString(t *testing.T) {
	it := mustReadItem(t, "\"\"\"has an embedded \"\" pair\"\"\"")
	s, ok, err := func() (string, bool, error) {
		r := NewReader(yson.NewBufferSource([]byte("\"\"\"has an embedded \"\" pair\"\"\"")))
		r.NextValue()
		return r.ReadString()
	}()
	if err != nil || !ok {
		t.Fatalf("ReadString: ok=%v err=%v", ok, err)
	}
	if s != `has an embedded "" pair` {
		t.Errorf("block string = %q", s)
	}
	_ = it
}

func TestWriterFormatting(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WriterParameters{})
	w.BeginObject(yson.StructureParameters{Json: yson.JsonParameters{Formatting: yson.FlatFormatting}})
	w.Key("a")
	w.WriteInt64(1)
	w.Key("b")
	w.BeginArray(yson.StructureParameters{Json: yson.JsonParameters{Formatting: yson.FlatFormatting}})
	w.WriteInt64(2)
	w.WriteInt64(3)
	w.EndArray()
	w.EndObject()
	w.Close()
	want := `{"a": 1, "b": [2, 3]}`
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestWriterFormatFormattingNestedEmptyObject(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WriterParameters{IndentWidth: 2})
	w.BeginObject(yson.StructureParameters{Json: yson.JsonParameters{Formatting: yson.FormatFormatting}})
	w.Key("name")
	w.BeginObject(yson.StructureParameters{})
	w.EndObject()
	w.EndObject()
	w.Close()
	want := "{\n  \"name\": {}\n}"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestWriterFormattingClampsToParent(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WriterParameters{})
	// The root array is None (the default at document root); a nested
	// array asking for Format must not be allowed to emit newlines.
	w.BeginArray(yson.StructureParameters{})
	w.BeginArray(yson.StructureParameters{Json: yson.JsonParameters{Formatting: yson.FormatFormatting}})
	w.WriteInt64(1)
	w.EndArray()
	w.EndArray()
	w.Close()
	want := `[[1]]`
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestWriterNonFiniteFloatRejectedByDefault(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WriterParameters{})
	if err := w.WriteFloat64(1); err != nil {
		t.Fatalf("finite float should succeed: %v", err)
	}
	w2 := NewWriter(&bytes.Buffer{}, WriterParameters{})
	err := w2.WriteFloat64(1.0 / zero())
	if err == nil {
		t.Error("expected ErrConfiguration for non-finite float with AllowNonFiniteFloats=false")
	}
}

func zero() float64 { return 0 }

func TestWriterNonFiniteFloatQuoting(t *testing.T) {
	negInf := -1.0 / zero()

	var quoted bytes.Buffer
	w := NewWriter(&quoted, WriterParameters{AllowNonFiniteFloats: true, QuoteNonFiniteFloats: true})
	if err := w.WriteFloat64(negInf); err != nil {
		t.Fatal(err)
	}
	w.Close()
	if quoted.String() != `"-Infinity"` {
		t.Errorf("quoted = %q, want %q", quoted.String(), `"-Infinity"`)
	}

	var bare bytes.Buffer
	w2 := NewWriter(&bare, WriterParameters{AllowNonFiniteFloats: true})
	if err := w2.WriteFloat64(negInf); err != nil {
		t.Fatal(err)
	}
	w2.Close()
	if bare.String() != "-Infinity" {
		t.Errorf("bare = %q, want %q", bare.String(), "-Infinity")
	}

	w3 := NewWriter(&bytes.Buffer{}, WriterParameters{})
	if err := w3.WriteFloat64(negInf); err == nil {
		t.Error("expected ErrConfiguration with neither option enabled")
	}
}

func TestRoundTripItemThroughReaderAndWriter(t *testing.T) {
	src := `{"name": "a\tb", "nums": [1, -2, 3.5], "nested": {"x": null}}`
	it := mustReadItem(t, src)

	var buf bytes.Buffer
	w := NewWriter(&buf, WriterParameters{AllowNonFiniteFloats: true})
	if err := w.WriteItem(it); err != nil {
		t.Fatalf("WriteItem: %v", err)
	}
	w.Close()

	it2 := mustReadItem(t, buf.String())
	if !it.Equal(it2) {
		t.Errorf("round trip mismatch; rewritten as: %s", buf.String())
	}
}
