package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FinAdvisor/internal/domain/models"
	domrepo "FinAdvisor/internal/domain/repository"
	"FinAdvisor/internal/service/cache"
	"FinAdvisor/internal/services/features"
	"FinAdvisor/internal/services/recommend"
	applogger "FinAdvisor/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// RecommendUseCase assembles strategy inputs and runs the engine.
type RecommendUseCase struct {
	engine       *recommend.Engine
	history      historyLoader
	funds        domrepo.FundStore
	holdings     domrepo.HoldingStore
	universe     int
	riskFreeRate float64
	market       *cache.TTLCache[models.MarketTable]
	metrics      domrepo.Metrics
	l            *applogger.Logger
}

func NewRecommendUseCase(engine *recommend.Engine, navs domrepo.NavStore, funds domrepo.FundStore, holdings domrepo.HoldingStore, historyDays, universe int, riskFreeRate float64, m domrepo.Metrics, l *applogger.Logger) *RecommendUseCase {
	return &RecommendUseCase{
		engine:       engine,
		history:      newHistoryLoader(navs, historyDays),
		funds:        funds,
		holdings:     holdings,
		universe:     universe,
		riskFreeRate: riskFreeRate,
		metrics:      m,
		l:            l,
	}
}

// SetMarketCache reuses built market tables until the cache expires them.
func (uc *RecommendUseCase) SetMarketCache(c *cache.TTLCache[models.MarketTable]) { uc.market = c }

type RecommendParams struct {
	UserID        string
	RiskTolerance string
	// Market, when empty, is built from the popular-fund universe.
	Market models.MarketTable
}

func (uc *RecommendUseCase) Recommend(ctx context.Context, p RecommendParams) (res []models.Recommendation, err error) {
	defer observe(uc.metrics, "recommendations", time.Now(), &err)

	holdings, err := uc.holdings.GetHoldings(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("holdings: %w", err)
	}
	market := p.Market
	if len(market) == 0 {
		market, err = uc.BuildMarketTable(ctx)
		if err != nil {
			return nil, err
		}
	}
	profile := models.UserProfile{UserID: p.UserID, RiskTolerance: p.RiskTolerance}
	recs, err := uc.engine.Generate(ctx, profile, holdings, market)
	if err != nil {
		return nil, fmt.Errorf("recommendations: %w", err)
	}
	if recs == nil {
		recs = []models.Recommendation{}
	}
	return recs, nil
}

// BuildMarketTable computes annualized volatility and Sharpe for the market
// universe. Funds whose history cannot be read or is shorter than two
// points are left out.
func (uc *RecommendUseCase) BuildMarketTable(ctx context.Context) (models.MarketTable, error) {
	key := fmt.Sprintf("popular:%d", uc.universe)
	if uc.market != nil {
		if t, ok := uc.market.Get(key); ok {
			return t, nil
		}
	}
	ids, err := uc.marketUniverse(ctx)
	if err != nil {
		return nil, err
	}
	table := make(models.MarketTable, len(ids))
	var mu sync.Mutex
	periodRF := uc.riskFreeRate / features.TradingDaysPerYear

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxFetchConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			s, err := uc.history.load(gctx, id)
			if err != nil {
				if uc.l != nil {
					uc.l.Warn("market table skip fund", applogger.String("fund_id", id), applogger.Error(err))
				}
				return nil
			}
			if s.Len() < 2 {
				return nil
			}
			returns := features.PctChange(s.Values())
			row := models.FactorRow{
				Volatility: features.AnnualizedVolatility(returns, features.TradingDaysPerYear),
				Sharpe:     features.SharpeRatio(returns, periodRF, features.TradingDaysPerYear),
			}
			mu.Lock()
			table[id] = row
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if uc.market != nil {
		uc.market.Set(key, table)
	}
	return table, nil
}

// marketUniverse is the most held funds, or the first catalog ids when no
// holdings exist yet.
func (uc *RecommendUseCase) marketUniverse(ctx context.Context) ([]string, error) {
	popular, err := uc.funds.PopularFunds(ctx, uc.universe)
	if err != nil {
		return nil, fmt.Errorf("market universe: %w", err)
	}
	if len(popular) > 0 {
		ids := make([]string, len(popular))
		for i, p := range popular {
			ids[i] = p.FundID
		}
		return ids, nil
	}
	ids, err := uc.funds.ListFundIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("market universe: %w", err)
	}
	if uc.universe > 0 && len(ids) > uc.universe {
		ids = ids[:uc.universe]
	}
	return ids, nil
}
