package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FinAdvisor/internal/domain/models"
	domrepo "FinAdvisor/internal/domain/repository"
	applogger "FinAdvisor/pkg/logger"
	pkgpg "FinAdvisor/pkg/postgres"

	"github.com/jackc/pgx/v5"
)

// pgQuerier is the part of *pgxpool.Pool the store uses.
type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PGFundStore reads the fund catalog and user holdings from Postgres.
type PGFundStore struct {
	pool pgQuerier
	l    *applogger.Logger
}

var (
	_ domrepo.FundStore    = (*PGFundStore)(nil)
	_ domrepo.HoldingStore = (*PGFundStore)(nil)
)

func NewPGFundStore(pg *pkgpg.Client) *PGFundStore {
	return &PGFundStore{pool: pg.Pool()}
}

// SetLogger injects a structured logger.
func (s *PGFundStore) SetLogger(l *applogger.Logger) { s.l = l }

const fundColumns = `scheme_code, scheme_name, COALESCE(amc, ''), COALESCE(category, ''), COALESCE(expense_ratio, 0)`

func (s *PGFundStore) GetFund(ctx context.Context, fundID string) (models.FundMetadata, error) {
	query := `SELECT ` + fundColumns + ` FROM amfi_funds WHERE scheme_code = $1`
	var f models.FundMetadata
	err := s.pool.QueryRow(ctx, query, fundID).Scan(&f.FundID, &f.SchemeName, &f.AMC, &f.Category, &f.ExpenseRatio)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.FundMetadata{}, fmt.Errorf("fund %s: %w", fundID, models.ErrFundNotFound)
	}
	if err != nil {
		s.logError("postgres get_fund error", err, applogger.String("fund_id", fundID))
		return models.FundMetadata{}, fmt.Errorf("get fund: %w", err)
	}
	return f, nil
}

func (s *PGFundStore) ListFunds(ctx context.Context) ([]models.FundMetadata, error) {
	query := `SELECT ` + fundColumns + ` FROM amfi_funds ORDER BY scheme_code`
	return s.queryFunds(ctx, "list_funds", query)
}

func (s *PGFundStore) ListFundIDs(ctx context.Context) ([]string, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT scheme_code FROM amfi_funds ORDER BY scheme_code`)
	if err != nil {
		s.logError("postgres list_fund_ids query error", err)
		return nil, fmt.Errorf("list fund ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		s.logError("postgres list_fund_ids rows error", err)
		return nil, fmt.Errorf("list fund ids: %w", err)
	}
	s.logOK("postgres list_fund_ids ok", len(ids), start)
	return ids, nil
}

// FundsByCategory matches category exactly, ignoring case.
func (s *PGFundStore) FundsByCategory(ctx context.Context, category string, limit int) ([]models.FundMetadata, error) {
	query := `SELECT ` + fundColumns + ` FROM amfi_funds WHERE lower(category) = lower($1) ORDER BY scheme_code LIMIT $2`
	return s.queryFunds(ctx, "funds_by_category", query, category, limit)
}

// PopularFunds ranks funds by the number of distinct users holding them.
func (s *PGFundStore) PopularFunds(ctx context.Context, limit int) ([]models.PopularFund, error) {
	start := time.Now()
	query := `
		SELECT fund_id, COUNT(DISTINCT user_id) AS holders
		FROM user_holdings
		GROUP BY fund_id
		ORDER BY holders DESC, fund_id ASC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		s.logError("postgres popular_funds query error", err)
		return nil, fmt.Errorf("popular funds: %w", err)
	}
	defer rows.Close()

	out := make([]models.PopularFund, 0, limit)
	for rows.Next() {
		var p models.PopularFund
		if err := rows.Scan(&p.FundID, &p.HolderCount); err != nil {
			s.logError("postgres popular_funds scan error", err)
			return nil, fmt.Errorf("scan popular fund: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		s.logError("postgres popular_funds rows error", err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.logOK("postgres popular_funds ok", len(out), start)
	return out, nil
}

func (s *PGFundStore) GetHoldings(ctx context.Context, userID string) ([]models.Holding, error) {
	start := time.Now()
	query := `
		SELECT fund_id, units, COALESCE(invested_amount, 0)
		FROM user_holdings
		WHERE user_id = $1
		ORDER BY fund_id
	`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		s.logError("postgres holdings query error", err, applogger.String("user_id", userID))
		return nil, fmt.Errorf("get holdings: %w", err)
	}
	defer rows.Close()

	var out []models.Holding
	for rows.Next() {
		var h models.Holding
		if err := rows.Scan(&h.FundID, &h.Units, &h.InvestedAmount); err != nil {
			s.logError("postgres holdings scan error", err, applogger.String("user_id", userID))
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		s.logError("postgres holdings rows error", err, applogger.String("user_id", userID))
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.logOK("postgres holdings ok", len(out), start, applogger.String("user_id", userID))
	return out, nil
}

func (s *PGFundStore) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PGFundStore) queryFunds(ctx context.Context, op, query string, args ...any) ([]models.FundMetadata, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		s.logError("postgres "+op+" query error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.FundMetadata
	for rows.Next() {
		var f models.FundMetadata
		if err := rows.Scan(&f.FundID, &f.SchemeName, &f.AMC, &f.Category, &f.ExpenseRatio); err != nil {
			s.logError("postgres "+op+" scan error", err)
			return nil, fmt.Errorf("scan fund: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		s.logError("postgres "+op+" rows error", err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.logOK("postgres "+op+" ok", len(out), start)
	return out, nil
}

func (s *PGFundStore) logError(msg string, err error, fields ...applogger.Field) {
	if s.l != nil {
		s.l.Error(msg, append(fields, applogger.Error(err))...)
	}
}

func (s *PGFundStore) logOK(msg string, rows int, start time.Time, fields ...applogger.Field) {
	if s.l != nil {
		s.l.Info(msg, append(fields,
			applogger.Int("rows", rows),
			applogger.Duration("duration_ms", time.Since(start)),
		)...)
	}
}
