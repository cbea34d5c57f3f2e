package contracts

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ErrInvalidDate is returned for dates not in YYYYMMDD form
var ErrInvalidDate = errors.New("invalid date")

// DateLayout is the provider/CLI date form
const DateLayout = "20060102"

// KST is the exchange timezone. 고정 오프셋 사용 (tzdata 의존 없음)
var KST = time.FixedZone("KST", 9*60*60)

// DataKind identifies one of the six time-series kinds.
// 값은 수집 결과 counts 맵의 키로 그대로 사용됨
type DataKind string

const (
	KindDailyPrice   DataKind = "daily_price"
	KindMarketCap    DataKind = "market_cap"
	KindFundamental  DataKind = "fundamental"
	KindTrading      DataKind = "trading"
	KindShortSelling DataKind = "short_selling"
	KindShortBalance DataKind = "short_balance"
)

// AllKinds lists kinds in collection order.
// ⭐ SSOT: 종목 내 수집 순서 (주가 → 시총 → 펀더멘탈 → 투자자 → 공매도 → 공매도 잔고)
var AllKinds = []DataKind{
	KindDailyPrice,
	KindMarketCap,
	KindFundamental,
	KindTrading,
	KindShortSelling,
	KindShortBalance,
}

// Label returns the Korean label used in error strings and logs
func (k DataKind) Label() string {
	switch k {
	case KindDailyPrice:
		return "일별 주가"
	case KindMarketCap:
		return "시가총액"
	case KindFundamental:
		return "펀더멘탈"
	case KindTrading:
		return "투자자별 매매"
	case KindShortSelling:
		return "공매도 거래"
	case KindShortBalance:
		return "공매도 잔고"
	default:
		return string(k)
	}
}

// FetchMode selects the collection window width
type FetchMode string

const (
	ModeToday  FetchMode = "today"
	ModeRecent FetchMode = "recent"
	ModeMonth  FetchMode = "month"
)

// ParseFetchMode validates a mode string
func ParseFetchMode(s string) (FetchMode, error) {
	switch FetchMode(s) {
	case ModeToday, ModeRecent, ModeMonth:
		return FetchMode(s), nil
	default:
		return "", fmt.Errorf("unknown fetch mode %q (today|recent|month)", s)
	}
}

// Window is an inclusive date range
type Window struct {
	From time.Time
	To   time.Time
}

// String formats the window as "YYYYMMDD ~ YYYYMMDD"
func (w Window) String() string {
	return FormatDate(w.From) + " ~ " + FormatDate(w.To)
}

// WindowFor maps a fetch mode to a date window ending at ref.
// today → [ref, ref], recent → [ref-5d, ref], 그 외 → [ref-30d, ref]
func WindowFor(mode FetchMode, ref time.Time) Window {
	ref = DateOf(ref)
	switch mode {
	case ModeToday:
		return Window{From: ref, To: ref}
	case ModeRecent:
		return Window{From: ref.AddDate(0, 0, -5), To: ref}
	default:
		return Window{From: ref.AddDate(0, 0, -30), To: ref}
	}
}

// DateOf truncates t to a calendar date (UTC midnight), keeping t's own Y/M/D.
// 저장소의 DATE 컬럼과 비교 가능한 형태
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current KST calendar date
func Today(now time.Time) time.Time {
	return DateOf(now.In(KST))
}

// ParseDate parses YYYYMMDD. Fails fast on anything else.
func ParseDate(s string) (time.Time, error) {
	if len(s) != len(DateLayout) {
		return time.Time{}, fmt.Errorf("%w: %q (YYYYMMDD 형식이어야 합니다)", ErrInvalidDate, s)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q (YYYYMMDD 형식이어야 합니다)", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate formats a date as YYYYMMDD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Row is one date-indexed provider row with named numeric columns.
// 컬럼이 없거나 NaN이면 "값 없음"으로 취급
type Row struct {
	Date   time.Time
	Values map[string]float64
}

// Value returns the column value; ok is false when the column is absent, NaN or ±Inf
func (r Row) Value(column string) (float64, bool) {
	v, ok := r.Values[column]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Table is a provider result: rows indexed by date. May be empty.
type Table struct {
	Rows []Row
}

// Empty reports whether the table has no rows (nil-safe)
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// Len returns the number of rows (nil-safe)
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Append adds a row for date
func (t *Table) Append(date time.Time, values map[string]float64) {
	t.Rows = append(t.Rows, Row{Date: DateOf(date), Values: values})
}

// SortByDate orders rows ascending by date
func (t *Table) SortByDate() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return t.Rows[i].Date.Before(t.Rows[j].Date)
	})
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
