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
	"math"
	"strconv"
)

func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

func formatUint(u uint64) string {
	return strconv.FormatUint(u, 10)
}

// formatFloat renders f the way the JSON writer does by default: the
// shortest decimal representation that round-trips at the given bit
// size, falling back to the named non-finite literals.
func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return strconv.FormatFloat(f, 'g', -1, bitSize)
	}
}

// parseFloatLexeme parses a lexeme as a float64, additionally
// recognizing the permissive non-finite literals accepted on read
// (spec 6.3): NaN, Infinity, -Infinity, +Infinity.
func parseFloatLexeme(s string) (float64, bool) {
	switch s {
	case "NaN":
		return math.NaN(), true
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
