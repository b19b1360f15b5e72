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
	"math"
	"strconv"
)

// ParseFloat64 parses a floating-point lexeme, additionally
// recognizing the non-finite literals accepted on read (spec §6.3):
// NaN, Infinity, -Infinity, +Infinity. Digit-group '_' separators are
// accepted here too, for consistency with integer lexemes.
func ParseFloat64(lexeme string) (float64, error) {
	switch lexeme {
	case "NaN":
		return math.NaN(), nil
	case "Infinity", "+Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	}
	digits, ok := stripGroups(lexeme)
	if !ok {
		return 0, ErrSyntax
	}
	f, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, ErrSyntax
	}
	return f, nil
}

// IsFloatLexeme reports whether a lexeme that already passed a value
// classification as "numeric" should be parsed as a float rather than
// an integer: it has a decimal point, an exponent, or is one of the
// non-finite literals.
func IsFloatLexeme(lexeme string) bool {
	switch lexeme {
	case "NaN", "Infinity", "+Infinity", "-Infinity":
		return true
	}
	_, rest := splitSign(lexeme)
	if b, _ := base(rest); b != 10 {
		// 0x/0o/0b integers never have a decimal point or exponent;
		// their digits may legitimately contain 'e'/'E' (hex).
		return false
	}
	for i := 0; i < len(lexeme); i++ {
		switch lexeme[i] {
		case '.', 'e', 'E':
			return true
		}
	}
	return false
}
