package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FinAdvisor/internal/domain/models"
	domrepo "FinAdvisor/internal/domain/repository"
	domsvc "FinAdvisor/internal/domain/service"

	"golang.org/x/sync/errgroup"
)

// maxBatchConcurrency bounds concurrent model fits in a batch forecast.
const maxBatchConcurrency = 4

// ForecastUseCase fetches NAV history and runs the configured forecaster.
type ForecastUseCase struct {
	history    historyLoader
	forecaster domsvc.Forecaster
	minHistory int
	metrics    domrepo.Metrics
}

func NewForecastUseCase(navs domrepo.NavStore, f domsvc.Forecaster, historyDays, minHistory int, m domrepo.Metrics) *ForecastUseCase {
	return &ForecastUseCase{
		history:    newHistoryLoader(navs, historyDays),
		forecaster: f,
		minHistory: minHistory,
		metrics:    m,
	}
}

type PredictNavParams struct {
	FundID          string
	DaysAhead       int
	ConfidenceLevel float64
	// History, when set, is forecast instead of the stored series.
	History []models.RawNavRecord
}

// PredictNav forecasts one fund. Fewer than minHistory observations is an
// InsufficientDataError.
func (uc *ForecastUseCase) PredictNav(ctx context.Context, p PredictNavParams) (res *models.ForecastResult, err error) {
	defer observe(uc.metrics, "predict_nav", time.Now(), &err)

	if p.FundID == "" {
		return nil, fmt.Errorf("fund_id required")
	}
	var series models.NavSeries
	if len(p.History) > 0 {
		series, err = models.ParseNavRecords(p.FundID, p.History)
	} else {
		series, err = uc.history.load(ctx, p.FundID)
	}
	if err != nil {
		return nil, err
	}
	if err := requireHistory("predict_nav", series, uc.minHistory); err != nil {
		return nil, err
	}
	return uc.forecaster.Predict(ctx, series, p.DaysAhead, p.ConfidenceLevel)
}

// PredictMultiple forecasts several funds concurrently. A failing fund is
// reported in Errors and does not fail the batch.
func (uc *ForecastUseCase) PredictMultiple(ctx context.Context, fundIDs []string, daysAhead int) (res *models.BatchForecast, err error) {
	defer observe(uc.metrics, "predict_multiple", time.Now(), &err)

	out := &models.BatchForecast{
		Results: map[string]*models.ForecastResult{},
		Errors:  map[string]string{},
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxBatchConcurrency)
	for _, id := range dedupe(fundIDs) {
		g.Go(func() error {
			r, err := uc.PredictNav(gctx, PredictNavParams{FundID: id, DaysAhead: daysAhead, ConfidenceLevel: 0.95})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.Errors[id] = err.Error()
				return nil
			}
			out.Results[id] = r
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(out.Errors) == 0 {
		out.Errors = nil
	}
	return out, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
