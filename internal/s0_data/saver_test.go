package s0_data

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/krxdaily/internal/contracts"
	"github.com/wonny/krxdaily/pkg/logger"
)

func day(d int) time.Time {
	return time.Date(2025, 12, d, 0, 0, 0, 0, time.UTC)
}

func priceTable(days ...int) *contracts.Table {
	t := &contracts.Table{}
	for _, d := range days {
		t.Append(day(d), map[string]float64{
			"시가": 70000, "고가": 72000, "저가": 69000, "종가": 71000, "거래량": 1234567,
		})
	}
	return t
}

func newMemorySaver(t *testing.T) (*Saver, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	saver := NewSaver(store, logger.Nop())
	_, err := saver.SaveSecurity(context.Background(), "005930", "삼성전자", "KOSPI")
	require.NoError(t, err)
	return saver, store
}

func TestSaver_EmptyTable(t *testing.T) {
	saver, _ := newMemorySaver(t)

	n, err := saver.Save(context.Background(), contracts.KindDailyPrice, "005930", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = saver.Save(context.Background(), contracts.KindDailyPrice, "005930", &contracts.Table{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSaver_Idempotent(t *testing.T) {
	saver, store := newMemorySaver(t)
	ctx := context.Background()
	table := priceTable(1, 2, 3)

	first, err := saver.Save(ctx, contracts.KindDailyPrice, "005930", table)
	require.NoError(t, err)
	assert.Equal(t, 3, first)

	second, err := saver.Save(ctx, contracts.KindDailyPrice, "005930", table)
	require.NoError(t, err)
	assert.Equal(t, 0, second, "second run must not save anything")
	assert.Equal(t, 3, store.Count(contracts.KindDailyPrice))
}

func TestSaver_PartialDuplicates(t *testing.T) {
	saver, store := newMemorySaver(t)
	ctx := context.Background()

	_, err := saver.Save(ctx, contracts.KindDailyPrice, "005930", priceTable(1, 2))
	require.NoError(t, err)

	// N=2 overlapping + k=3 new
	n, err := saver.Save(ctx, contracts.KindDailyPrice, "005930", priceTable(1, 2, 3, 4, 5))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 5, store.Count(contracts.KindDailyPrice))
}

func TestSaver_MissingRequiredValueFailsRow(t *testing.T) {
	saver, store := newMemorySaver(t)

	table := priceTable(1)
	table.Append(day(2), map[string]float64{"시가": 1, "고가": 1, "저가": 1, "종가": math.NaN(), "거래량": 1})
	table.Append(day(3), map[string]float64{"시가": 1, "고가": 1, "저가": 1, "거래량": 1})

	n, err := saver.Save(context.Background(), contracts.KindDailyPrice, "005930", table)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, store.Count(contracts.KindDailyPrice))
}

func TestSaver_NullableColumns(t *testing.T) {
	saver, store := newMemorySaver(t)
	ctx := context.Background()

	table := &contracts.Table{}
	table.Append(day(4), map[string]float64{"PER": 12.34, "PBR": math.NaN(), "EPS": 5777.9})

	n, err := saver.Save(ctx, contracts.KindFundamental, "005930", table)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	rows, err := store.GetFundamentals(ctx, "005930", nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	f := rows[0]
	require.NotNil(t, f.PER)
	assert.Equal(t, 12.34, *f.PER)
	assert.Nil(t, f.PBR, "NaN must be stored as null, not zero")
	assert.Nil(t, f.BPS, "absent column must be stored as null")
	require.NotNil(t, f.EPS)
	assert.Equal(t, int64(5777), *f.EPS)
}

// fakeWriter scripts an outcome per call
type fakeWriter struct {
	outcomes []contracts.RowOutcome
	calls    int
}

func (f *fakeWriter) EnsureSecurity(_ context.Context, sec contracts.Security) (*contracts.Security, error) {
	return &sec, nil
}

func (f *fakeWriter) InsertRecord(_ context.Context, _ contracts.Record) (contracts.RowOutcome, error) {
	o := f.outcomes[f.calls]
	f.calls++
	if o == contracts.RowFailed {
		return o, errors.New("connection reset")
	}
	return o, nil
}

func TestSaver_FailedRowDoesNotAbortLoop(t *testing.T) {
	w := &fakeWriter{outcomes: []contracts.RowOutcome{
		contracts.RowSaved, contracts.RowFailed, contracts.RowDuplicate, contracts.RowSaved,
	}}
	saver := NewSaver(w, logger.Nop())

	n, err := saver.Save(context.Background(), contracts.KindDailyPrice, "005930", priceTable(1, 2, 3, 4))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 4, w.calls)
}

func TestSaver_CancelledContext(t *testing.T) {
	saver, _ := newMemorySaver(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := saver.Save(ctx, contracts.KindDailyPrice, "005930", priceTable(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSaveSecurity_NeverUpdates(t *testing.T) {
	saver, _ := newMemorySaver(t)

	sec, err := saver.SaveSecurity(context.Background(), "005930", "다른이름", "KOSDAQ")
	require.NoError(t, err)
	assert.Equal(t, "삼성전자", sec.Name)
	assert.Equal(t, "KOSPI", sec.Market)
}

func TestMemoryStore_RequiresStock(t *testing.T) {
	store := NewMemoryStore()
	outcome, err := store.InsertRecord(context.Background(), contracts.DailyPrice{
		RowKey: contracts.RowKey{Ticker: "000660", Date: day(1)},
	})
	assert.Error(t, err)
	assert.Equal(t, contracts.RowFailed, outcome)
}

func TestHasPriceOn(t *testing.T) {
	saver, store := newMemorySaver(t)
	ctx := context.Background()

	exists, err := HasPriceOn(ctx, store, "005930", day(4))
	require.NoError(t, err)
	assert.False(t, exists, "no rows")

	_, err = saver.Save(ctx, contracts.KindDailyPrice, "005930", priceTable(1, 3))
	require.NoError(t, err)

	exists, err = HasPriceOn(ctx, store, "005930", day(4))
	require.NoError(t, err)
	assert.False(t, exists, "latest row is earlier")

	exists, err = HasPriceOn(ctx, store, "005930", day(3))
	require.NoError(t, err)
	assert.True(t, exists)

	// 중간 날짜는 최신 행이 아니므로 false
	exists, err = HasPriceOn(ctx, store, "005930", day(1))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMappers(t *testing.T) {
	row := contracts.Row{Date: day(4), Values: map[string]float64{
		"기관합계": 155, "외국인합계": 152, "개인": -300, "연기금": 40, "사모": math.NaN(),
	}}
	rec, err := Mappers[contracts.KindTrading]("005930", row)
	require.NoError(t, err)

	it := rec.(contracts.InvestorTrading)
	assert.Equal(t, int64(155), *it.InstitutionNet)
	assert.Equal(t, int64(-300), *it.IndividualNet)
	assert.Nil(t, it.PrivateEquityNet)
	assert.Nil(t, it.TrustNet)

	_, err = Mappers[contracts.KindMarketCap]("005930", contracts.Row{Date: day(4), Values: map[string]float64{"시가총액": 1}})
	assert.ErrorIs(t, err, ErrMissingValue)

	for _, kind := range contracts.AllKinds {
		assert.Contains(t, Mappers, kind)
	}
}
