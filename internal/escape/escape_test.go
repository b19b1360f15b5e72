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

package escape

import "testing"

func TestUnescapeBasic(t *testing.T) {
	cases := map[string]string{
		`hello`:          "hello",
		`a\tb`:           "a\tb",
		`a\nb`:           "a\nb",
		`\"quoted\"`:  `"quoted"`,
		`back\\slash`: `back\slash`,
		`ABC`:         "ABC",
	}
	for in, want := range cases {
		got, err := Unescape(in)
		if err != nil {
			t.Errorf("Unescape(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("Unescape(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUnescapeSurrogatePair(t *testing.T) {
	escaped := "\\u" + "D83D" + "\\u" + "DE00"
	got, err := Unescape(escaped)
	if err != nil {
		t.Fatal(err)
	}
	if got != "\U0001F600" {
		t.Errorf("Unescape(%q) = %q, want the grinning-face emoji", escaped, got)
	}
}

func TestUnescapeBadEscape(t *testing.T) {
	bad := []string{`\`, `\x`, `\u12`}
	for _, in := range bad {
		if _, err := Unescape(in); err == nil {
			t.Errorf("Unescape(%q) should have failed", in)
		}
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	cases := []string{"plain", "has \"quotes\"", "tab\there", "new\nline", "back\\slash"}
	for _, s := range cases {
		escaped := Escape(s, EscapeOptions{})
		got, err := Unescape(escaped)
		if err != nil {
			t.Fatalf("Unescape(Escape(%q)) error: %v", s, err)
		}
		if got != s {
			t.Errorf("round trip: Escape(%q) = %q, Unescape -> %q", s, escaped, got)
		}
	}
}

func TestEscapeNonASCII(t *testing.T) {
	got := Escape("café", EscapeOptions{EscapeNonASCII: true})
	want := "caf\\u00e9"
	if got != want {
		t.Errorf("Escape with EscapeNonASCII = %q, want %q", got, want)
	}
	back, err := Unescape(got)
	if err != nil || back != "café" {
		t.Errorf("Unescape(%q) = %q, %v, want \"café\"", got, back, err)
	}
}

func TestEscapeLineFolding(t *testing.T) {
	got := Escape("abcdefghij", EscapeOptions{MaxLineWidth: 4})
	unescaped, err := Unescape(got)
	if err != nil {
		t.Fatalf("Unescape folded output: %v", err)
	}
	// A folded "\<newline>" continuation must not survive into the
	// decoded text.
	if unescaped != "abcdefghij" {
		t.Errorf("Unescape(%q) = %q, want %q", got, unescaped, "abcdefghij")
	}
}
