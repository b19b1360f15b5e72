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

import "testing"

func TestClassifyUint(t *testing.T) {
	cases := []struct {
		v    uint64
		want DetailedValueType
	}{
		{0, DUInt7}, {127, DUInt7},
		{128, DUInt8}, {255, DUInt8},
		{256, DUInt15}, {32767, DUInt15},
		{32768, DUInt16}, {65535, DUInt16},
		{65536, DUInt31}, {1<<31 - 1, DUInt31},
		{1 << 31, DUInt32}, {1<<32 - 1, DUInt32},
		{1 << 32, DUInt63}, {1<<63 - 1, DUInt63},
		{1 << 63, DUInt64}, {^uint64(0), DUInt64},
	}
	for _, c := range cases {
		if got := ClassifyUint(c.v); got != c.want {
			t.Errorf("ClassifyUint(%d) = %s, want %s", c.v, got, c.want)
		}
	}
}

func TestClassifyInt(t *testing.T) {
	cases := []struct {
		v    int64
		want DetailedValueType
	}{
		{-1, DSInt8}, {-128, DSInt8},
		{-129, DSInt16}, {-32768, DSInt16},
		{-32769, DSInt32}, {-(1 << 31), DSInt32},
		{-(1<<31) - 1, DSInt64},
		{0, DUInt7},
	}
	for _, c := range cases {
		if got := ClassifyInt(c.v); got != c.want {
			t.Errorf("ClassifyInt(%d) = %s, want %s", c.v, got, c.want)
		}
	}
}

func TestItemObjectOverwritePreservesPosition(t *testing.T) {
	obj := NewObject([]Field{
		{Key: "a", Value: Int64(1)},
		{Key: "b", Value: Int64(2)},
		{Key: "a", Value: Int64(3)},
	})
	if obj.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", obj.Len())
	}
	fields := obj.Fields()
	if fields[0].Key != "a" || fields[0].Value.Text() != "3" {
		t.Errorf("first field = %+v, want a=3 (overwritten in place)", fields[0])
	}
	if fields[1].Key != "b" {
		t.Errorf("second field key = %q, want b", fields[1].Key)
	}
}

func TestItemEqualCrossTypeNumeric(t *testing.T) {
	if !Int64(42).Equal(Uint64(42)) {
		t.Error("Int64(42) should equal Uint64(42)")
	}
	if !Int64(2).Equal(Float64(2.0)) {
		t.Error("Int64(2) should equal Float64(2.0)")
	}
	if Int64(2).Equal(String("2")) {
		t.Error("Int64(2) should not equal String(\"2\")")
	}
}

func TestItemEqualObjectOrderIndependence(t *testing.T) {
	a := NewObject([]Field{{Key: "x", Value: Int64(1)}, {Key: "y", Value: Int64(2)}})
	b := NewObject([]Field{{Key: "y", Value: Int64(2)}, {Key: "x", Value: Int64(1)}})
	if !a.Equal(b) {
		t.Error("objects with the same fields in different order should be equal")
	}
}

func TestItemEqualArrayOrderMatters(t *testing.T) {
	a := NewArray([]Item{Int64(1), Int64(2)})
	b := NewArray([]Item{Int64(2), Int64(1)})
	if a.Equal(b) {
		t.Error("arrays with reordered elements should not be equal")
	}
}

func TestItemCloneIsIndependent(t *testing.T) {
	orig := NewObject([]Field{{Key: "a", Value: NewArray([]Item{Int64(1)})}})
	clone := orig.Clone()
	if !orig.Equal(clone) {
		t.Fatal("clone should be equal to original")
	}
}
