package s0_data

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/krxdaily/internal/contracts"
)

// GetStock returns the stock row, or nil when the ticker is unknown
func (s *Store) GetStock(ctx context.Context, ticker string) (*contracts.Security, error) {
	query := `
		SELECT ticker, name, market, created_at, updated_at
		FROM data.stocks
		WHERE ticker = $1
	`

	var sec contracts.Security
	err := s.pool.QueryRow(ctx, query, ticker).Scan(
		&sec.Ticker, &sec.Name, &sec.Market, &sec.CreatedAt, &sec.UpdatedAt,
	)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query stock %s: %w", ticker, err)
	}
	return &sec, nil
}

// GetAllStocks returns every stored stock ordered by ticker
func (s *Store) GetAllStocks(ctx context.Context) ([]contracts.Security, error) {
	query := `
		SELECT ticker, name, market, created_at, updated_at
		FROM data.stocks
		ORDER BY ticker
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query stocks: %w", err)
	}
	defer rows.Close()

	var stocks []contracts.Security
	for rows.Next() {
		var sec contracts.Security
		if err := rows.Scan(&sec.Ticker, &sec.Name, &sec.Market, &sec.CreatedAt, &sec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		stocks = append(stocks, sec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return stocks, nil
}

// GetLatestPrice returns the most recent price row, or nil when none exists
func (s *Store) GetLatestPrice(ctx context.Context, ticker string) (*contracts.DailyPrice, error) {
	query := `
		SELECT ticker, date, open, high, low, close, volume
		FROM data.daily_price
		WHERE ticker = $1
		ORDER BY date DESC
		LIMIT 1
	`

	var p contracts.DailyPrice
	err := s.pool.QueryRow(ctx, query, ticker).Scan(
		&p.Ticker, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume,
	)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest price %s: %w", ticker, err)
	}
	return &p, nil
}

// rangeQuery appends optional date bounds to a per-ticker SELECT, ascending by date
func rangeQuery(base string, ticker string, from, to *time.Time) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString(" WHERE ticker = $1")
	args := []interface{}{ticker}

	if from != nil {
		args = append(args, contracts.DateOf(*from))
		fmt.Fprintf(&sb, " AND date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, contracts.DateOf(*to))
		fmt.Fprintf(&sb, " AND date <= $%d", len(args))
	}
	sb.WriteString(" ORDER BY date ASC")
	return sb.String(), args
}

// GetDailyPrices returns prices for ticker within the optional range
func (s *Store) GetDailyPrices(ctx context.Context, ticker string, from, to *time.Time) ([]contracts.DailyPrice, error) {
	query, args := rangeQuery(
		`SELECT ticker, date, open, high, low, close, volume FROM data.daily_price`,
		ticker, from, to,
	)
	return collect(ctx, s, query, args, func(row pgx.Rows) (contracts.DailyPrice, error) {
		var p contracts.DailyPrice
		err := row.Scan(&p.Ticker, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume)
		return p, err
	})
}

// GetMarketCaps returns market-cap rows for ticker within the optional range
func (s *Store) GetMarketCaps(ctx context.Context, ticker string, from, to *time.Time) ([]contracts.MarketCap, error) {
	query, args := rangeQuery(
		`SELECT ticker, date, market_cap, trading_volume, trading_value, outstanding_shares FROM data.market_cap`,
		ticker, from, to,
	)
	return collect(ctx, s, query, args, func(row pgx.Rows) (contracts.MarketCap, error) {
		var m contracts.MarketCap
		err := row.Scan(&m.Ticker, &m.Date, &m.MarketCap, &m.TradingVolume, &m.TradingValue, &m.OutstandingShares)
		return m, err
	})
}

// GetFundamentals returns fundamental rows for ticker within the optional range
func (s *Store) GetFundamentals(ctx context.Context, ticker string, from, to *time.Time) ([]contracts.Fundamental, error) {
	query, args := rangeQuery(
		`SELECT ticker, date, bps, per, pbr, eps, div, dps FROM data.fundamental`,
		ticker, from, to,
	)
	return collect(ctx, s, query, args, func(row pgx.Rows) (contracts.Fundamental, error) {
		var f contracts.Fundamental
		err := row.Scan(&f.Ticker, &f.Date, &f.BPS, &f.PER, &f.PBR, &f.EPS, &f.DIV, &f.DPS)
		return f, err
	})
}

const investorColumns = `ticker, date, institution_net, foreigner_net, individual_net,
	financial_net, insurance_net, trust_net, private_equity_net, pension_net`

func scanInvestor(row pgx.Rows) (contracts.InvestorTrading, error) {
	var t contracts.InvestorTrading
	err := row.Scan(
		&t.Ticker, &t.Date, &t.InstitutionNet, &t.ForeignerNet, &t.IndividualNet,
		&t.FinancialNet, &t.InsuranceNet, &t.TrustNet, &t.PrivateEquityNet, &t.PensionNet,
	)
	return t, err
}

// GetTradingByInvestor returns investor flow rows for ticker within the optional range
func (s *Store) GetTradingByInvestor(ctx context.Context, ticker string, from, to *time.Time) ([]contracts.InvestorTrading, error) {
	query, args := rangeQuery(`SELECT `+investorColumns+` FROM data.trading_by_investor`, ticker, from, to)
	return collect(ctx, s, query, args, scanInvestor)
}

// GetForeignNetBuyingDays returns the latest n investor rows, newest first
func (s *Store) GetForeignNetBuyingDays(ctx context.Context, ticker string, days int) ([]contracts.InvestorTrading, error) {
	query := `SELECT ` + investorColumns + `
		FROM data.trading_by_investor
		WHERE ticker = $1
		ORDER BY date DESC
		LIMIT $2`
	return collect(ctx, s, query, []interface{}{ticker, days}, scanInvestor)
}

// DeleteOldData purges DailyPrice and MarketCap rows dated before cutoff.
// 빈 ticker는 전체 종목 대상. ⭐ 파이프라인에서 유일한 삭제 경로
func (s *Store) DeleteOldData(ctx context.Context, ticker string, before time.Time) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var total int64
	for _, table := range []string{"data.daily_price", "data.market_cap"} {
		query := `DELETE FROM ` + table + ` WHERE date < $1`
		args := []interface{}{contracts.DateOf(before)}
		if ticker != "" {
			query += ` AND ticker = $2`
			args = append(args, ticker)
		}

		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("delete from %s: %w", table, err)
		}
		total += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit delete: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"ticker":  ticker,
		"before":  contracts.FormatDate(before),
		"deleted": total,
	}).Info("Deleted old data")

	return total, nil
}

// TableStat is a row count summary for one table
type TableStat struct {
	Table     string
	Rows      int64
	Tickers   int64
	FirstDate *time.Time
	LastDate  *time.Time
}

// statTables lists the time-series tables in collection order
var statTables = []string{
	"daily_price", "market_cap", "fundamental", "trading_by_investor", "short_selling", "short_balance",
}

// TableStats counts rows, tickers and the date span of every time-series table
func (s *Store) TableStats(ctx context.Context) ([]TableStat, error) {
	stats := make([]TableStat, 0, len(statTables))
	for _, table := range statTables {
		st := TableStat{Table: table}
		query := `SELECT COUNT(*), COUNT(DISTINCT ticker), MIN(date), MAX(date) FROM data.` + table
		if err := s.pool.QueryRow(ctx, query).Scan(&st.Rows, &st.Tickers, &st.FirstDate, &st.LastDate); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		stats = append(stats, st)
	}
	return stats, nil
}

// collect runs query and scans every row with scan
func collect[T any](ctx context.Context, s *Store, query string, args []interface{}, scan func(pgx.Rows) (T, error)) ([]T, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}
