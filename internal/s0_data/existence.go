package s0_data

import (
	"context"
	"time"

	"github.com/wonny/krxdaily/internal/contracts"
)

// HasPriceOn reports whether the ticker's latest DailyPrice is dated exactly date.
// 최신 행만 본다 (중간 누락이나 다른 kind는 확인하지 않음)
func HasPriceOn(ctx context.Context, prices contracts.PriceLookup, ticker string, date time.Time) (bool, error) {
	latest, err := prices.GetLatestPrice(ctx, ticker)
	if err != nil {
		return false, err
	}
	if latest == nil {
		return false, nil
	}
	return contracts.DateOf(latest.Date).Equal(contracts.DateOf(date)), nil
}
