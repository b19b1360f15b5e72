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

func TestSniff(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want Format
	}{
		{"object", []byte(`{"a":1}`), JSON},
		{"array", []byte(`[1,2,3]`), JSON},
		{"leading-whitespace", []byte("   \t{}"), JSON},
		{"bare-number", []byte("42"), JSON},
		{"quoted-string", []byte(`"hi"`), JSON},
		{"utf8-bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{}`)...), JSON},
		{"ubjson-object", []byte{'{', 'U', 1, 'a', 'T', '}'}, UBJSON},
		{"ubjson-int8", []byte{'i', 5}, UBJSON},
		{"ubjson-noop", []byte{'N', 'Z'}, UBJSON},
		{"empty", []byte{}, UnknownFormat},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			src := NewBufferSource(c.data)
			got, err := Sniff(src)
			if c.want == UnknownFormat {
				if err == nil {
					t.Fatalf("Sniff() = %s, nil, want an error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Sniff() error: %v", err)
			}
			if got != c.want {
				t.Fatalf("Sniff() = %s, want %s", got, c.want)
			}
		})
	}
}
