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

package numparse

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseInt64Bases(t *testing.T) {
	cases := map[string]int64{
		"0":          0,
		"42":         42,
		"-42":        -42,
		"+7":         7,
		"0x1F":       31,
		"0X1f":       31,
		"0o17":       15,
		"0b101":      5,
		"1_000_000":  1000000,
		"0xDE_AD":    0xDEAD,
	}
	for lexeme, want := range cases {
		got, err := ParseInt64(lexeme)
		if err != nil {
			t.Errorf("ParseInt64(%q) error: %v", lexeme, err)
			continue
		}
		if got != want {
			t.Errorf("ParseInt64(%q) = %d, want %d", lexeme, got, want)
		}
	}
}

func TestParseInt64Malformed(t *testing.T) {
	bad := []string{"", "_1", "1_", "1__2", "0x", "abc", "-"}
	for _, lexeme := range bad {
		if _, err := ParseInt64(lexeme); err == nil {
			t.Errorf("ParseInt64(%q) should have failed", lexeme)
		}
	}
}

func TestIsFloatLexemeHexNotConfusedWithExponent(t *testing.T) {
	cases := map[string]bool{
		"0xE":      false,
		"0xDEAD":   false,
		"1e10":     true,
		"1.5":      true,
		"-0x1A":    false,
		"NaN":      true,
		"Infinity": true,
		"123":      false,
	}
	var got, want []string
	for lexeme, want1 := range cases {
		if IsFloatLexeme(lexeme) != want1 {
			got = append(got, lexeme)
		} else {
			want = append(want, lexeme)
		}
	}
	if len(got) != 0 {
		t.Errorf("misclassified lexemes: %s", cmp.Diff(got, []string(nil)))
	}
}

func TestParseFloat64NonFinite(t *testing.T) {
	f, err := ParseFloat64("-Infinity")
	if err != nil {
		t.Fatal(err)
	}
	if f > -1e300 {
		t.Errorf("-Infinity parsed as %v", f)
	}
}
