package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1234567, "1,234,567"},
		{2500.6, "2,501"},
		{-98765, "-98,765"},
		{math.NaN(), "N/A"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in), "FormatNumber(%v)", tt.in)
	}
}

func TestFormatPercentage(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1.5, "+1.50%"},
		{-2.25, "-2.25%"},
		{0, "0.00%"},
		{12, "+12.00%"},
		{math.NaN(), "N/A"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPercentage(tt.in), "FormatPercentage(%v)", tt.in)
	}
}

func TestFormatChange(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{12.5, "+12.50"},
		{1234.25, "+1,234.25"},
		{-30, "-30.00"},
		{0, "0.00"},
		{math.Inf(1), "N/A"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatChange(tt.in), "FormatChange(%v)", tt.in)
	}
}

func TestFormatEok(t *testing.T) {
	assert.Equal(t, 15.0, eok(1_500_000_000))
	assert.Equal(t, "1.5", formatEok1(1.5))
	assert.Equal(t, "-2.5", formatEok1(-2.5))
	assert.Equal(t, "1,234.5", formatEok1(1234.5))
}
