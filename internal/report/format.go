package report

import (
	"math"

	"github.com/dustin/go-humanize"
)

const notAvailable = "N/A"

func missing(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// FormatNumber rounds to an integer with thousands commas ("N/A" when missing)
func FormatNumber(v float64) string {
	if missing(v) {
		return notAvailable
	}
	return humanize.Comma(int64(math.Round(v)))
}

// FormatPercentage renders a signed percentage with 2 decimals, e.g. "+1.23%"
func FormatPercentage(v float64) string {
	if missing(v) {
		return notAvailable
	}
	return humanize.FormatFloat("+####.##", v) + "%"
}

// FormatChange renders a signed change with commas and 2 decimals, e.g. "+1,234.50"
func FormatChange(v float64) string {
	if missing(v) {
		return notAvailable
	}
	return humanize.FormatFloat("+#,###.##", v)
}

// eok converts 원 to 억원
func eok(v int64) float64 {
	return float64(v) / 1e8
}

// formatEok1 renders an 억 amount with one decimal
func formatEok1(v float64) string {
	return humanize.FormatFloat("#,###.#", v)
}
