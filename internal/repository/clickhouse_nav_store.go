package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"FinAdvisor/internal/domain/models"
	domrepo "FinAdvisor/internal/domain/repository"
	pkgch "FinAdvisor/pkg/clickhouse"
	applogger "FinAdvisor/pkg/logger"
)

// CHNavStore implements NavStore backed by ClickHouse.
type CHNavStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var _ domrepo.NavStore = (*CHNavStore)(nil)

func NewCHNavStore(ch *pkgch.Client) *CHNavStore {
	return newCHNavStore(ch.DB(), ch.Database())
}

func newCHNavStore(db *sql.DB, database string) *CHNavStore {
	return &CHNavStore{db: db, table: database + ".nav_history"}
}

// SetLogger injects a structured logger.
func (s *CHNavStore) SetLogger(l *applogger.Logger) { s.l = l }

// GetNavHistory returns daily NAV for fundID since from. FINAL collapses
// re-ingested dates so each date appears once.
func (s *CHNavStore) GetNavHistory(ctx context.Context, fundID string, from time.Time) (models.NavSeries, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT nav_date, nav
        FROM %s FINAL
        WHERE fund_id = ? AND nav_date >= ?
        ORDER BY nav_date ASC
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, fundID, from)
	if err != nil {
		s.logError("clickhouse nav_history query error", fundID, err)
		return models.NavSeries{}, fmt.Errorf("get nav history: %w", err)
	}
	defer rows.Close()

	series := models.NavSeries{FundID: fundID, Points: make([]models.NavPoint, 0, 512)}
	for rows.Next() {
		var p models.NavPoint
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			s.logError("clickhouse nav_history scan error", fundID, err)
			return models.NavSeries{}, fmt.Errorf("scan nav: %w", err)
		}
		p.Date = p.Date.UTC()
		series.Points = append(series.Points, p)
	}
	if err := rows.Err(); err != nil {
		s.logError("clickhouse nav_history rows error", fundID, err)
		return models.NavSeries{}, fmt.Errorf("rows: %w", err)
	}
	if err := series.Validate(); err != nil {
		s.logError("clickhouse nav_history integrity error", fundID, err)
		return models.NavSeries{}, err
	}
	if s.l != nil {
		s.l.Info("clickhouse nav_history ok",
			applogger.String("fund_id", fundID),
			applogger.Int("rows", series.Len()),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return series, nil
}

func (s *CHNavStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHNavStore) logError(msg, fundID string, err error) {
	if s.l != nil {
		s.l.Error(msg,
			applogger.String("table", s.table),
			applogger.String("fund_id", fundID),
			applogger.Error(err),
		)
	}
}
