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
	"bytes"
	"math"
	"testing"

	"github.com/streamyson/yson"
)

func TestWriteReadScalarRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WriterParameters{})
	if err := w.WriteInt64(42); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	r := NewReader(yson.NewBufferSource(buf.Bytes()))
	ok, err := r.NextValue()
	if err != nil || !ok {
		t.Fatalf("NextValue: ok=%v err=%v", ok, err)
	}
	v, ok, err := r.ReadInt64()
	if err != nil || !ok || v != 42 {
		t.Fatalf("ReadInt64 = %d, %v, %v", v, ok, err)
	}
}

func TestWriterMinimalIntegerWidth(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WriterParameters{})
	w.WriteInt64(5)
	w.Close()
	if buf.Len() != 2 || buf.Bytes()[0] != 'i' {
		t.Fatalf("expected a 2-byte 'i' encoding, got % x", buf.Bytes())
	}
}

func TestOptimizedArrayRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WriterParameters{})
	if err := w.BeginArray(yson.Optimized(3, yson.UBJsonInt8)); err != nil {
		t.Fatal(err)
	}
	for _, v := range []int64{1, 2, 3} {
		if err := w.WriteInt64(v); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.EndArray(); err != nil {
		t.Fatal(err)
	}
	w.Close()

	r := NewReader(yson.NewBufferSource(buf.Bytes()))
	ok, err := r.NextValue()
	if err != nil || !ok {
		t.Fatalf("NextValue: %v %v", ok, err)
	}
	dt, _ := r.DetailedValueType()
	if dt != yson.DArray {
		t.Fatalf("DetailedValueType = %v, want DArray", dt)
	}
	it, err := r.ReadItem()
	if err != nil {
		t.Fatal(err)
	}
	if it.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", it.Len())
	}
	for i, want := range []int64{1, 2, 3} {
		if it.Elements()[i].Text() != yson.Int64(want).Text() {
			t.Errorf("element %d = %s, want %d", i, it.Elements()[i].Text(), want)
		}
	}
}

func TestWriteBinaryBlob(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WriterParameters{})
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if err := w.WriteBinary(data); err != nil {
		t.Fatal(err)
	}
	w.Close()
	r := NewReader(yson.NewBufferSource(buf.Bytes()))
	r.NextValue()
	got, err := r.ReadBinary()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("ReadBinary = % x, want % x", got, data)
	}
}

func TestObjectRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WriterParameters{})
	w.BeginObject(yson.StructureParameters{})
	w.Key("name")
	w.WriteString("value")
	w.Key("n")
	w.WriteInt64(-7)
	w.EndObject()
	w.Close()

	r := NewReader(yson.NewBufferSource(buf.Bytes()))
	r.NextValue()
	it, err := r.ReadItem()
	if err != nil {
		t.Fatal(err)
	}
	name, ok := it.Field("name")
	if !ok || name.Text() != "value" {
		t.Errorf("name = %+v", name)
	}
	n, ok := it.Field("n")
	if !ok || n.Text() != "-7" {
		t.Errorf("n = %+v", n)
	}
}

func TestOptimizedArrayBulkRead(t *testing.T) {
	// spec §8 scenario 4: [ $ I # U 03 00 02 00 C8 4E 20
	raw := []byte{'[', '$', 'I', '#', 'U', 3, 0, 2, 0, 200, 0x4E, 0x20}
	r := NewReader(yson.NewBufferSource(raw))
	ok, err := r.NextValue()
	if err != nil || !ok {
		t.Fatalf("NextValue: %v %v", ok, err)
	}
	if err := r.Enter(); err != nil {
		t.Fatal(err)
	}
	if !r.IsOptimizedArray() {
		t.Fatal("IsOptimizedArray = false")
	}
	if typ := r.OptimizedElementType(); typ != yson.UBJsonInt16 {
		t.Fatalf("OptimizedElementType = %v", typ)
	}
	if n := r.OptimizedElementCount(); n != 3 {
		t.Fatalf("OptimizedElementCount = %d, want 3", n)
	}
	got, err := r.ReadOptimizedInt16s()
	if err != nil {
		t.Fatal(err)
	}
	want := []int16{2, 200, 20000}
	if len(got) != len(want) {
		t.Fatalf("ReadOptimizedInt16s = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d = %d, want %d", i, got[i], want[i])
		}
	}
	if err := r.Leave(); err != nil {
		t.Fatal(err)
	}
}

func TestOptimizedArrayBulkReadTypeMismatch(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WriterParameters{})
	w.BeginArray(yson.Optimized(2, yson.UBJsonInt32))
	w.WriteInt64(1)
	w.WriteInt64(2)
	w.EndArray()
	w.Close()

	r := NewReader(yson.NewBufferSource(buf.Bytes()))
	r.NextValue()
	if err := r.Enter(); err != nil {
		t.Fatal(err)
	}
	if _, err := r.ReadOptimizedInt16s(); err == nil {
		t.Fatal("expected a type-mismatch error")
	}
}

func TestReadFloat64OfNullIsPositiveInfinity(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WriterParameters{})
	if err := w.WriteNull(); err != nil {
		t.Fatal(err)
	}
	w.Close()

	r := NewReader(yson.NewBufferSource(buf.Bytes()))
	if _, err := r.NextValue(); err != nil {
		t.Fatal(err)
	}
	f, ok, err := r.ReadFloat64()
	if err != nil || !ok {
		t.Fatalf("ReadFloat64: %v %v %v", f, ok, err)
	}
	if !math.IsInf(f, 1) {
		t.Errorf("ReadFloat64(null) = %v, want +Inf", f)
	}

	f32, ok, err := r.ReadFloat32()
	if err != nil || !ok || !math.IsInf(float64(f32), 1) {
		t.Errorf("ReadFloat32(null) = %v, %v, %v, want +Inf", f32, ok, err)
	}
}

func TestHighPrecisionBigInt(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WriterParameters{})
	big := yson.BigInt("123456789012345678901234567890")
	if err := w.WriteItem(big); err != nil {
		t.Fatal(err)
	}
	w.Close()
	r := NewReader(yson.NewBufferSource(buf.Bytes()))
	r.NextValue()
	it, err := r.ReadItem()
	if err != nil {
		t.Fatal(err)
	}
	if it.DetailedType() != yson.DBigInt || it.Text() != "123456789012345678901234567890" {
		t.Errorf("round-tripped bigint = %+v", it)
	}
}
