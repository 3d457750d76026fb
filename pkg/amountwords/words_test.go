package amountwords

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSpell(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "zero"},
		{7, "seven"},
		{13, "thirteen"},
		{40, "forty"},
		{99, "ninety-nine"},
		{100, "one hundred"},
		{335, "three hundred thirty-five"},
		{1000, "one thousand"},
		{1005, "one thousand five"},
		{21000, "twenty-one thousand"},
		{1200450, "one million two hundred thousand four hundred fifty"},
		{-12, "minus twelve"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Spell(tt.in), "Spell(%d)", tt.in)
	}
}

func TestSpell_Extremes(t *testing.T) {
	assert.Contains(t, Spell(math.MaxInt64), "quintillion")
	assert.Contains(t, Spell(math.MinInt64), "minus nine quintillion")
}

func TestMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"335", "three hundred thirty-five"},
		{"335.00", "three hundred thirty-five"},
		{"335.5", "three hundred thirty-five and 50/100"},
		{"10.005", "ten and 01/100"},
		{"0.99", "zero and 99/100"},
		{"-0.25", "minus zero and 25/100"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Money(decimal.RequireFromString(tt.in)), "Money(%s)", tt.in)
	}
}
