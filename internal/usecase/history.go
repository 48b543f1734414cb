package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FinAdvisor/internal/domain/models"
	domrepo "FinAdvisor/internal/domain/repository"
	"FinAdvisor/pkg/util"

	"golang.org/x/sync/errgroup"
)

// maxFetchConcurrency bounds parallel NAV queries per request.
const maxFetchConcurrency = 8

// historyLoader fetches a trailing window of NAV history.
type historyLoader struct {
	navs domrepo.NavStore
	days int
	now  func() time.Time
}

func newHistoryLoader(navs domrepo.NavStore, days int) historyLoader {
	return historyLoader{navs: navs, days: days, now: time.Now}
}

func (h historyLoader) load(ctx context.Context, fundID string) (models.NavSeries, error) {
	s, err := h.navs.GetNavHistory(ctx, fundID, util.WindowStart(h.now(), h.days))
	if err != nil {
		return models.NavSeries{}, fmt.Errorf("nav history %s: %w", fundID, err)
	}
	return s, nil
}

// loadMany fetches every id concurrently and fails on the first error.
func (h historyLoader) loadMany(ctx context.Context, ids []string) (map[string]models.NavSeries, error) {
	out := make(map[string]models.NavSeries, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxFetchConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			s, err := h.load(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			out[id] = s
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// requireHistory enforces the minimum series length callers must supply
// before forecasting.
func requireHistory(op string, s models.NavSeries, minPoints int) error {
	if s.Len() < minPoints {
		return &models.InsufficientDataError{Op: op, FundID: s.FundID, Need: minPoints, Got: s.Len()}
	}
	return nil
}
