// Package similarity scores how alike two field values, and two records, are.
//
// Field comparison is type-aware: numbers are compared by relative
// difference, dates by instant, everything else by normalized edit distance.
// Record scores are a weighted average of field scores in which identity,
// location and financial columns count more than the rest.
package similarity

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// dateLayouts are the calendar formats recognized by Compare. Day-first
// layouts are tried after ISO so "2024-01-02" is never read as 1 Feb.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02-01-2006",
	"02-Jan-2006",
	"02-Jan-06",
	"2-Jan-2006",
}

var folder = cases.Fold()

// Compare returns the similarity of two field values in [0,1]. field names
// the column being compared; it does not change the result.
func Compare(a, b, field string) float64 {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "" && b == "":
		return 1
	case a == "" || b == "":
		return 0
	}

	if x, okA := ParseNumber(a); okA {
		if y, okB := ParseNumber(b); okB {
			return compareNumbers(x, y)
		}
	}

	if strings.Contains(a, "-") && strings.Contains(b, "-") {
		if x, okA := ParseDate(a); okA {
			if y, okB := ParseDate(b); okB {
				if x.Equal(y) {
					return 1
				}
				return 0
			}
		}
	}

	return Text(a, b)
}

func compareNumbers(x, y float64) float64 {
	if x == y {
		return 1
	}
	if x == 0 || y == 0 {
		return 0
	}
	rd := math.Abs(x-y) / ((math.Abs(x) + math.Abs(y)) / 2)
	switch {
	case rd < 0.05:
		return 0.95
	case rd < 0.10:
		return 0.85
	case rd < 0.20:
		return 0.7
	default:
		return math.Max(0, 1-rd)
	}
}

// Text returns 1 - lev(a,b)/max(len(a),len(b)) over case-folded, trimmed
// runes.
func Text(a, b string) float64 {
	ra := []rune(folder.String(strings.TrimSpace(a)))
	rb := []rune(folder.String(strings.TrimSpace(b)))
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// ParseNumber parses s as a decimal number. Thousands separators and a
// trailing percent sign are accepted; anything else must be numeric.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseDate parses s with the recognized calendar layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// levenshtein is the unit-cost edit distance between a and b, using a
// single reused row.
func levenshtein(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cur := row[j]
			if a[i-1] == b[j-1] {
				row[j] = prev
			} else {
				row[j] = 1 + min(prev, row[j], row[j-1])
			}
			prev = cur
		}
	}
	return row[len(b)]
}
