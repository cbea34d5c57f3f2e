package krx

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// str stringifies a decoded JSON value (KRX sends numbers as strings, but not always)
func str(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// parseKRXNumber parses KRX number format ("1,459,781", "+3.21", "-") to float64.
// 빈 값, "-" 등 숫자가 아닌 값은 NaN (값 없음)
func parseKRXNumber(s string) float64 {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+")
	if s == "" || s == "-" {
		return math.NaN()
	}

	val, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(val, 0) {
		return math.NaN()
	}
	return val
}

var dateLayouts = []string{"2006/01/02", "20060102", "2006-01-02"}

// parseKRXDate parses TRD_DD style dates
func parseKRXDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse KRX date %q", s)
}

// present returns the column value, NaN when the column is absent
func present(values map[string]float64, name string) float64 {
	v, ok := values[name]
	if !ok {
		return math.NaN()
	}
	return v
}

// sumPresent adds the present (non-NaN) columns; NaN when none is present
func sumPresent(values map[string]float64, names ...string) float64 {
	total := 0.0
	found := false
	for _, name := range names {
		v := present(values, name)
		if math.IsNaN(v) {
			continue
		}
		total += v
		found = true
	}
	if !found {
		return math.NaN()
	}
	return total
}
