package s0_data

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/krxdaily/internal/contracts"
	"github.com/wonny/krxdaily/pkg/logger"
)

// pgUniqueViolation is the SQLSTATE for unique_violation
const pgUniqueViolation = "23505"

var (
	_ contracts.RecordWriter = (*Store)(nil)
	_ contracts.StockReader  = (*Store)(nil)
)

// Store is the PostgreSQL-backed record writer and stock reader
// ⭐ SSOT: data 스키마 읽기/쓰기는 여기서만
type Store struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewStore creates a new Store
func NewStore(pool *pgxpool.Pool, log *logger.Logger) *Store {
	return &Store{
		pool:   pool,
		logger: log.WithField("module", "store"),
	}
}

// Pool returns the underlying database pool
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// EnsureSecurity creates the stock row if absent; never updates an existing one
func (s *Store) EnsureSecurity(ctx context.Context, sec contracts.Security) (*contracts.Security, error) {
	existing, err := s.GetStock(ctx, sec.Ticker)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO data.stocks (ticker, name, market, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (ticker) DO NOTHING
	`
	if _, err := tx.Exec(ctx, query, sec.Ticker, sec.Name, sec.Market); err != nil {
		return nil, fmt.Errorf("insert stock %s: %w", sec.Ticker, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit stock %s: %w", sec.Ticker, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"ticker": sec.Ticker,
		"name":   sec.Name,
		"market": sec.Market,
	}).Info("Registered stock")

	// 동시 생성된 경우에도 저장된 행을 그대로 반환
	stored, err := s.GetStock(ctx, sec.Ticker)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("stock %s missing after insert", sec.Ticker)
	}
	return stored, nil
}

// InsertRecord writes one record in its own transaction.
// (ticker, date) 충돌은 RowDuplicate, 그 외 오류는 롤백 후 RowFailed
func (s *Store) InsertRecord(ctx context.Context, rec contracts.Record) (contracts.RowOutcome, error) {
	query, args, err := insertStatement(rec)
	if err != nil {
		return contracts.RowFailed, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return contracts.RowFailed, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return contracts.RowDuplicate, nil
		}
		return contracts.RowFailed, fmt.Errorf("insert %s: %w", rec.Kind(), err)
	}
	if tag.RowsAffected() == 0 {
		return contracts.RowDuplicate, nil
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return contracts.RowDuplicate, nil
		}
		return contracts.RowFailed, fmt.Errorf("commit %s: %w", rec.Kind(), err)
	}
	return contracts.RowSaved, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// insertStatement builds the INSERT ... ON CONFLICT DO NOTHING for a record
func insertStatement(rec contracts.Record) (string, []interface{}, error) {
	k := rec.Key()
	switch r := rec.(type) {
	case contracts.DailyPrice:
		return `
			INSERT INTO data.daily_price (ticker, date, open, high, low, close, volume)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (ticker, date) DO NOTHING
		`, []interface{}{k.Ticker, k.Date, r.Open, r.High, r.Low, r.Close, r.Volume}, nil

	case contracts.MarketCap:
		return `
			INSERT INTO data.market_cap (ticker, date, market_cap, trading_volume, trading_value, outstanding_shares)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (ticker, date) DO NOTHING
		`, []interface{}{k.Ticker, k.Date, r.MarketCap, r.TradingVolume, r.TradingValue, r.OutstandingShares}, nil

	case contracts.Fundamental:
		return `
			INSERT INTO data.fundamental (ticker, date, bps, per, pbr, eps, div, dps)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (ticker, date) DO NOTHING
		`, []interface{}{k.Ticker, k.Date, r.BPS, r.PER, r.PBR, r.EPS, r.DIV, r.DPS}, nil

	case contracts.InvestorTrading:
		return `
			INSERT INTO data.trading_by_investor (
				ticker, date, institution_net, foreigner_net, individual_net,
				financial_net, insurance_net, trust_net, private_equity_net, pension_net
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (ticker, date) DO NOTHING
		`, []interface{}{
				k.Ticker, k.Date, r.InstitutionNet, r.ForeignerNet, r.IndividualNet,
				r.FinancialNet, r.InsuranceNet, r.TrustNet, r.PrivateEquityNet, r.PensionNet,
			}, nil

	case contracts.ShortSelling:
		return `
			INSERT INTO data.short_selling (ticker, date, short_volume, short_value)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (ticker, date) DO NOTHING
		`, []interface{}{k.Ticker, k.Date, r.ShortVolume, r.ShortValue}, nil

	case contracts.ShortBalance:
		return `
			INSERT INTO data.short_balance (ticker, date, balance_quantity, balance_value, balance_ratio)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (ticker, date) DO NOTHING
		`, []interface{}{k.Ticker, k.Date, r.BalanceQuantity, r.BalanceValue, r.BalanceRatio}, nil
	}

	return "", nil, fmt.Errorf("unsupported record type %T", rec)
}

// noRows reports whether err is pgx.ErrNoRows
func noRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
