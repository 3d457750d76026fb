// Package amountwords spells amounts in English for printed documents.
package amountwords

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ones = []string{
		"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
		"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
		"seventeen", "eighteen", "nineteen",
	}
	tens   = []string{"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}
	scales = []string{"", "thousand", "million", "billion", "trillion", "quadrillion", "quintillion"}
)

// Spell returns n in words, e.g. 335 -> "three hundred thirty-five".
func Spell(n int64) string {
	if n == 0 {
		return ones[0]
	}
	if n < 0 {
		// -n overflows for MinInt64; spell its magnitude from the unsigned value.
		return "minus " + spellUnsigned(uint64(-(n + 1))+1)
	}
	return spellUnsigned(uint64(n))
}

func spellUnsigned(n uint64) string {
	var groups []string
	for scale := 0; n > 0; scale++ {
		chunk := n % 1000
		n /= 1000
		if chunk == 0 {
			continue
		}
		words := spellHundreds(int(chunk))
		if scales[scale] != "" {
			words += " " + scales[scale]
		}
		groups = append([]string{words}, groups...)
	}
	return strings.Join(groups, " ")
}

func spellHundreds(n int) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, ones[n/100]+" hundred")
		n %= 100
	}
	switch {
	case n == 0:
	case n < 20:
		parts = append(parts, ones[n])
	case n%10 == 0:
		parts = append(parts, tens[n/10])
	default:
		parts = append(parts, tens[n/10]+"-"+ones[n%10])
	}
	return strings.Join(parts, " ")
}

// Money spells a monetary amount rounded to two places.
// Fractions are written as a ratio: 335.5 -> "three hundred thirty-five and 50/100".
func Money(d decimal.Decimal) string {
	rounded := d.Round(2)
	whole := rounded.Truncate(0)
	cents := rounded.Sub(whole).Abs().Shift(2).IntPart()

	words := Spell(whole.IntPart())
	if rounded.IsNegative() && whole.IsZero() {
		words = "minus " + words
	}
	if cents == 0 {
		return words
	}
	return fmt.Sprintf("%s and %02d/100", words, cents)
}
