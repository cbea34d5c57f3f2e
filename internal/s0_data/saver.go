package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/krxdaily/internal/contracts"
	"github.com/wonny/krxdaily/pkg/logger"
)

// Saver writes provider tables row by row through a RecordWriter.
// 행 단위 커밋: 중복은 건너뛰고, 실패한 행은 로그만 남기고 다음 행으로 진행
type Saver struct {
	writer contracts.RecordWriter
	logger *logger.Logger
}

// NewSaver creates a new saver
func NewSaver(writer contracts.RecordWriter, log *logger.Logger) *Saver {
	return &Saver{
		writer: writer,
		logger: log.WithField("module", "saver"),
	}
}

// SaveSecurity creates the security if absent. An existing row is returned unchanged.
func (s *Saver) SaveSecurity(ctx context.Context, ticker, name, market string) (*contracts.Security, error) {
	sec, err := s.writer.EnsureSecurity(ctx, contracts.Security{
		Ticker: ticker,
		Name:   name,
		Market: market,
	})
	if err != nil {
		return nil, fmt.Errorf("save security %s: %w", ticker, err)
	}
	return sec, nil
}

// Save persists every row of table as a kind record and returns the committed count.
// Empty input yields 0. Only a cancelled context aborts the loop.
func (s *Saver) Save(ctx context.Context, kind contracts.DataKind, ticker string, table *contracts.Table) (int, error) {
	if table.Empty() {
		return 0, nil
	}

	mapper, ok := Mappers[kind]
	if !ok {
		return 0, fmt.Errorf("unknown data kind %q", kind)
	}

	saved, duplicates, failed := 0, 0, 0
	for _, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return saved, fmt.Errorf("save %s for %s: %w", kind, ticker, err)
		}

		switch s.saveRow(ctx, kind, ticker, mapper, row) {
		case contracts.RowSaved:
			saved++
		case contracts.RowDuplicate:
			duplicates++
		default:
			failed++
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"ticker":     ticker,
		"kind":       kind,
		"rows":       table.Len(),
		"saved":      saved,
		"duplicates": duplicates,
		"failed":     failed,
	}).Debug("Saved table")

	return saved, nil
}

func (s *Saver) saveRow(ctx context.Context, kind contracts.DataKind, ticker string, mapper RowMapper, row contracts.Row) contracts.RowOutcome {
	fields := map[string]interface{}{
		"ticker": ticker,
		"kind":   kind,
		"date":   row.Date.Format(time.DateOnly),
	}

	rec, err := mapper(ticker, row)
	if err != nil {
		s.logger.WithFields(fields).WithError(err).Warn("Skipping malformed row")
		return contracts.RowFailed
	}

	outcome, err := s.writer.InsertRecord(ctx, rec)
	switch outcome {
	case contracts.RowDuplicate:
		s.logger.WithFields(fields).Debug("Row already exists")
	case contracts.RowFailed:
		s.logger.WithFields(fields).WithError(err).Warn("Failed to save row")
	}
	return outcome
}
