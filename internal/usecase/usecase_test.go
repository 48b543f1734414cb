package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"FinAdvisor/internal/domain/models"
	"FinAdvisor/internal/service/cache"
	"FinAdvisor/internal/services/forecast"
	"FinAdvisor/internal/services/optimizer"
	"FinAdvisor/internal/services/recommend"
	"FinAdvisor/internal/services/risk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// series builds a path from 100 whose daily return alternates drift±noise.
func series(id string, n int, drift, noise float64) models.NavSeries {
	pts := make([]models.NavPoint, n)
	v := 100.0
	for i := range pts {
		if i > 0 {
			if i%2 == 0 {
				v *= 1 + drift + noise
			} else {
				v *= 1 + drift - noise
			}
		}
		pts[i] = models.NavPoint{Date: day0.AddDate(0, 0, i), Value: v}
	}
	return models.NavSeries{FundID: id, Points: pts}
}

type fakeNavs struct {
	mu        sync.Mutex
	series    map[string]models.NavSeries
	healthErr error
	calls     int
}

func (f *fakeNavs) GetNavHistory(_ context.Context, id string, _ time.Time) (models.NavSeries, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	s, ok := f.series[id]
	if !ok {
		return models.NavSeries{}, fmt.Errorf("no rows for %s", id)
	}
	return s, nil
}

func (f *fakeNavs) Health(context.Context) error { return f.healthErr }

type fakeFunds struct {
	meta       map[string]models.FundMetadata
	popular    []models.PopularFund
	popularErr error
	healthErr  error
}

func (f *fakeFunds) GetFund(_ context.Context, id string) (models.FundMetadata, error) {
	m, ok := f.meta[id]
	if !ok {
		return models.FundMetadata{}, fmt.Errorf("fund %s: %w", id, models.ErrFundNotFound)
	}
	return m, nil
}

func (f *fakeFunds) ListFunds(context.Context) ([]models.FundMetadata, error) {
	out := make([]models.FundMetadata, 0, len(f.meta))
	for _, m := range f.meta {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeFunds) ListFundIDs(context.Context) ([]string, error) {
	out := make([]string, 0, len(f.meta))
	for id := range f.meta {
		out = append(out, id)
	}
	return out, nil
}

func (f *fakeFunds) FundsByCategory(context.Context, string, int) ([]models.FundMetadata, error) {
	return nil, nil
}

func (f *fakeFunds) PopularFunds(_ context.Context, limit int) ([]models.PopularFund, error) {
	if f.popularErr != nil {
		return nil, f.popularErr
	}
	if limit < len(f.popular) {
		return f.popular[:limit], nil
	}
	return f.popular, nil
}

func (f *fakeFunds) Health(context.Context) error { return f.healthErr }

type fakeHoldings map[string][]models.Holding

func (f fakeHoldings) GetHoldings(_ context.Context, user string) ([]models.Holding, error) {
	return f[user], nil
}

type fakeRegistry struct {
	mu        sync.Mutex
	artifacts map[string]*models.ModelArtifact
	tickets   map[string]models.RetrainTicket
	retrains  int
}

func (r *fakeRegistry) GetModel(name string) (*models.ModelArtifact, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.artifacts[name]
	return a, ok
}

func (r *fakeRegistry) GetModelStatus() map[string]models.ModelStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]models.ModelStatus{}
	for name, a := range r.artifacts {
		out[name] = models.ModelStatus{Version: a.Version, Loaded: true}
	}
	return out
}

func (r *fakeRegistry) RetrainAllModels(context.Context) models.RetrainTicket {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retrains++
	t := models.RetrainTicket{ID: "t-1", State: models.RetrainRunning, StartedAt: day0}
	if r.tickets == nil {
		r.tickets = map[string]models.RetrainTicket{}
	}
	r.tickets[t.ID] = t
	return t
}

func (r *fakeRegistry) Ticket(id string) (models.RetrainTicket, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	return t, ok
}

type recordingForecaster struct {
	mu   sync.Mutex
	seen []models.NavSeries
}

func (f *recordingForecaster) Predict(_ context.Context, s models.NavSeries, days int, conf float64) (*models.ForecastResult, error) {
	f.mu.Lock()
	f.seen = append(f.seen, s)
	f.mu.Unlock()
	last, _ := s.Last()
	return &models.ForecastResult{FundID: s.FundID, Horizon: days, ConfidenceLevel: conf, CurrentNav: last.Value}, nil
}

func newActive(reg ModelRegistry) *ActiveModels {
	return NewActiveModels(reg, risk.NewScorer(risk.DefaultParams()), optimizer.New(optimizer.DefaultParams()), nil)
}

func TestPredictNavRequiresMinimumHistory(t *testing.T) {
	navs := &fakeNavs{series: map[string]models.NavSeries{"F1": series("F1", 10, 0.001, 0.002)}}
	uc := NewForecastUseCase(navs, &recordingForecaster{}, 365, 30, nil)

	_, err := uc.PredictNav(context.Background(), PredictNavParams{FundID: "F1", DaysAhead: 5, ConfidenceLevel: 0.95})
	var insufficient *models.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 30, insufficient.Need)
	assert.Equal(t, 10, insufficient.Got)
	assert.Equal(t, "insufficient_data", ErrorKind(err))
}

func TestPredictNavUsesSuppliedHistory(t *testing.T) {
	navs := &fakeNavs{series: map[string]models.NavSeries{}}
	f := &recordingForecaster{}
	uc := NewForecastUseCase(navs, f, 365, 3, nil)

	raw := []models.RawNavRecord{
		{Date: "03-01-2024", Value: "10.3"},
		{Date: "01-01-2024", Value: "10.1"},
		{Date: "02-01-2024", Value: "10.2"},
	}
	res, err := uc.PredictNav(context.Background(), PredictNavParams{FundID: "F1", DaysAhead: 7, ConfidenceLevel: 0.9, History: raw})
	require.NoError(t, err)
	assert.Zero(t, navs.calls)
	require.Len(t, f.seen, 1)
	assert.Equal(t, 3, f.seen[0].Len())
	assert.Equal(t, 10.3, res.CurrentNav)
	assert.Equal(t, 7, res.Horizon)
}

func TestPredictNavRejectsMalformedHistory(t *testing.T) {
	uc := NewForecastUseCase(&fakeNavs{}, &recordingForecaster{}, 365, 1, nil)
	_, err := uc.PredictNav(context.Background(), PredictNavParams{
		FundID:    "F1",
		DaysAhead: 1,
		History:   []models.RawNavRecord{{Date: "01-01-2024", Value: "abc"}},
	})
	var integrity *models.DataIntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, "value", integrity.Field)
}

func TestPredictMultipleReportsPerFundErrors(t *testing.T) {
	navs := &fakeNavs{series: map[string]models.NavSeries{
		"A": series("A", 60, 0.001, 0.002),
		"B": series("B", 5, 0.001, 0.002),
	}}
	uc := NewForecastUseCase(navs, &recordingForecaster{}, 365, 30, nil)

	res, err := uc.PredictMultiple(context.Background(), []string{"A", "B", "C", "A"}, 10)
	require.NoError(t, err)
	assert.Len(t, res.Results, 1)
	assert.Contains(t, res.Results, "A")
	assert.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors, "B")
	assert.Contains(t, res.Errors, "C")
}

func TestPredictMultipleAllSucceedHasNoErrors(t *testing.T) {
	navs := &fakeNavs{series: map[string]models.NavSeries{"A": series("A", 40, 0.001, 0.002)}}
	uc := NewForecastUseCase(navs, &recordingForecaster{}, 365, 30, nil)

	res, err := uc.PredictMultiple(context.Background(), []string{"A"}, 10)
	require.NoError(t, err)
	assert.Nil(t, res.Errors)
}

func portfolioFixture() (*fakeNavs, *fakeFunds, fakeHoldings) {
	navs := &fakeNavs{series: map[string]models.NavSeries{
		"A":     series("A", 121, 0.0005, 0.004),
		"B":     series("B", 121, 0.0003, 0.002),
		"BENCH": series("BENCH", 121, 0.0004, 0.003),
	}}
	funds := &fakeFunds{meta: map[string]models.FundMetadata{
		"A": {FundID: "A", SchemeName: "Alpha Equity", Category: "Equity Large Cap", ExpenseRatio: 1.2},
		"B": {FundID: "B", SchemeName: "Beta Gilt", Category: "Debt Gilt", ExpenseRatio: 0.5},
	}}
	holdings := fakeHoldings{
		"u1": {{FundID: "A", Units: 10, InvestedAmount: 3000}, {FundID: "B", Units: 5, InvestedAmount: 1000}},
		"u2": {{FundID: "A", Units: 1, InvestedAmount: 100}, {FundID: "GONE", Units: 1, InvestedAmount: 100}},
	}
	return navs, funds, holdings
}

func TestOptimizeForUser(t *testing.T) {
	navs, funds, holdings := portfolioFixture()
	uc := NewPortfolioUseCase(navs, funds, holdings, newActive(&fakeRegistry{}), 365, nil)

	res, err := uc.OptimizeForUser(context.Background(), OptimizeParams{UserID: "u1", Objective: "min_risk"})
	require.NoError(t, err)
	sum := 0.0
	for _, w := range res.Weights {
		assert.GreaterOrEqual(t, w, 0.0)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.InDelta(t, 0.75, res.CurrentWeights["A"], 1e-9)
	assert.InDelta(t, 0.25, res.CurrentWeights["B"], 1e-9)
}

func TestOptimizeForUserErrors(t *testing.T) {
	navs, funds, holdings := portfolioFixture()
	uc := NewPortfolioUseCase(navs, funds, holdings, newActive(&fakeRegistry{}), 365, nil)

	_, err := uc.OptimizeForUser(context.Background(), OptimizeParams{UserID: "u1", Objective: "max_return"})
	var objective *models.InvalidObjectiveError
	require.ErrorAs(t, err, &objective)

	_, err = uc.OptimizeForUser(context.Background(), OptimizeParams{UserID: "nobody", Objective: "max_sharpe"})
	var insufficient *models.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
}

func TestScoreFundWithBenchmark(t *testing.T) {
	navs, funds, holdings := portfolioFixture()
	uc := NewPortfolioUseCase(navs, funds, holdings, newActive(&fakeRegistry{}), 365, nil)

	s, err := uc.ScoreFund(context.Background(), "A", "BENCH")
	require.NoError(t, err)
	assert.Equal(t, "A", s.FundID)
	assert.GreaterOrEqual(t, s.Score, 1.0)
	assert.LessOrEqual(t, s.Score, 10.0)
	assert.InDelta(t, 0.9, s.Breakdown.CategoryRisk, 1e-9)

	_, err = uc.ScoreFund(context.Background(), "MISSING", "")
	assert.ErrorIs(t, err, models.ErrFundNotFound)
}

func TestScorePortfolioSkipsUnknownFunds(t *testing.T) {
	navs, funds, holdings := portfolioFixture()
	uc := NewPortfolioUseCase(navs, funds, holdings, newActive(&fakeRegistry{}), 365, nil)

	res, err := uc.ScorePortfolio(context.Background(), "u2")
	require.NoError(t, err)
	assert.True(t, res.Placeholder)
	assert.Equal(t, risk.PortfolioPlaceholderScore, res.Score)
	require.Len(t, res.Holdings, 1)
	assert.Equal(t, "A", res.Holdings[0].FundID)

	empty, err := uc.ScorePortfolio(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, models.RiskNoHoldings, empty.Label)
	assert.Zero(t, empty.Score)
}

func TestActiveModelsDecodesAndCaches(t *testing.T) {
	p := risk.DefaultParams()
	p.DefaultBeta = 0.8
	state, err := json.Marshal(p)
	require.NoError(t, err)
	reg := &fakeRegistry{artifacts: map[string]*models.ModelArtifact{
		models.ModelRiskScorer:         {Name: models.ModelRiskScorer, Version: "1.0", State: state},
		models.ModelPortfolioOptimizer: {Name: models.ModelPortfolioOptimizer, Version: "1.0", State: []byte("{broken")},
	}}
	active := newActive(reg)

	first := active.RiskScorer()
	assert.Equal(t, 0.8, first.Params().DefaultBeta)
	assert.Same(t, first, active.RiskScorer())

	assert.Same(t, active.optDef, active.Optimizer())

	p.DefaultBeta = 0.3
	state, err = json.Marshal(p)
	require.NoError(t, err)
	reg.mu.Lock()
	reg.artifacts[models.ModelRiskScorer] = &models.ModelArtifact{Name: models.ModelRiskScorer, Version: "1.0", State: state}
	reg.mu.Unlock()
	assert.Equal(t, 0.3, active.RiskScorer().Params().DefaultBeta)
}

func TestActiveModelsFallsBackWhenUnloaded(t *testing.T) {
	active := newActive(&fakeRegistry{})
	assert.Same(t, active.riskDef, active.RiskScorer())
	assert.Same(t, active.optDef, active.Optimizer())
}

func recommendFixture() (*fakeNavs, *fakeFunds) {
	navs := &fakeNavs{series: map[string]models.NavSeries{
		"CALM":  series("CALM", 120, 0.0005, 0.002),
		"WILD":  series("WILD", 120, 0.0005, 0.05),
		"SHORT": series("SHORT", 1, 0, 0),
	}}
	funds := &fakeFunds{popular: []models.PopularFund{
		{FundID: "CALM", HolderCount: 9},
		{FundID: "WILD", HolderCount: 7},
		{FundID: "SHORT", HolderCount: 5},
		{FundID: "NODATA", HolderCount: 3},
	}}
	return navs, funds
}

func TestBuildMarketTableSkipsUnusableFunds(t *testing.T) {
	navs, funds := recommendFixture()
	uc := NewRecommendUseCase(recommend.NewEngine(recommend.NewFactorStrategy()), navs, funds, fakeHoldings{}, 365, 10, 0.05, nil, nil)

	table, err := uc.BuildMarketTable(context.Background())
	require.NoError(t, err)
	assert.Len(t, table, 2)
	assert.Less(t, table["CALM"].Volatility, 0.2)
	assert.Greater(t, table["WILD"].Volatility, 0.2)
	assert.NotContains(t, table, "SHORT")
	assert.NotContains(t, table, "NODATA")
}

func TestBuildMarketTableFallsBackToCatalog(t *testing.T) {
	navs, _ := recommendFixture()
	funds := &fakeFunds{meta: map[string]models.FundMetadata{
		"CALM": {FundID: "CALM", Category: "Debt"},
		"WILD": {FundID: "WILD", Category: "Equity Small Cap"},
	}}
	uc := NewRecommendUseCase(recommend.NewEngine(recommend.NewFactorStrategy()), navs, funds, fakeHoldings{}, 365, 10, 0.05, nil, nil)

	table, err := uc.BuildMarketTable(context.Background())
	require.NoError(t, err)
	assert.Len(t, table, 2)
	assert.Contains(t, table, "CALM")
	assert.Contains(t, table, "WILD")
}

func TestRecommendBuildsMarketWhenMissing(t *testing.T) {
	navs, funds := recommendFixture()
	uc := NewRecommendUseCase(recommend.NewEngine(recommend.NewFactorStrategy()), navs, funds, fakeHoldings{}, 365, 10, 0.05, nil, nil)

	recs, err := uc.Recommend(context.Background(), RecommendParams{UserID: "u1", RiskTolerance: "moderate"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "CALM", recs[0].FundID)
	assert.Equal(t, []string{"factor"}, recs[0].Sources)
}

func TestRecommendUsesSuppliedMarket(t *testing.T) {
	navs, funds := recommendFixture()
	funds.popularErr = errors.New("must not be called")
	uc := NewRecommendUseCase(recommend.NewEngine(recommend.NewFactorStrategy()), navs, funds, fakeHoldings{}, 365, 10, 0.05, nil, nil)

	recs, err := uc.Recommend(context.Background(), RecommendParams{
		UserID:        "u1",
		RiskTolerance: "high",
		Market:        models.MarketTable{"X": {Volatility: 0.3, Sharpe: 1.4}, "Y": {Volatility: 0.1, Sharpe: 0.5}},
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "X", recs[0].FundID)
	assert.Zero(t, navs.calls)
}

func TestRecommendEmptyResultIsNotNil(t *testing.T) {
	navs, funds := recommendFixture()
	uc := NewRecommendUseCase(recommend.NewEngine(recommend.NewFactorStrategy()), navs, funds, fakeHoldings{}, 365, 10, 0.05, nil, nil)

	recs, err := uc.Recommend(context.Background(), RecommendParams{UserID: "u1", Market: models.MarketTable{"Z": {Volatility: 0.9}}})
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func advisorFixture(reg *fakeRegistry) (*AdvisorUseCase, *fakeNavs, *fakeFunds) {
	navs, funds, holdings := portfolioFixture()
	navs.series["CALM"] = series("CALM", 120, 0.0005, 0.002)
	funds.popular = []models.PopularFund{{FundID: "CALM", HolderCount: 4}}
	active := newActive(reg)
	portfolio := NewPortfolioUseCase(navs, funds, holdings, active, 365, nil)
	rec := NewRecommendUseCase(recommend.NewEngine(recommend.NewFactorStrategy()), navs, funds, holdings, 365, 10, 0.05, nil, nil)
	return NewAdvisorUseCase(portfolio, rec, reg, navs, funds, nil), navs, funds
}

func TestDashboardCombinesViews(t *testing.T) {
	reg := &fakeRegistry{artifacts: map[string]*models.ModelArtifact{
		models.ModelNavPredictor: {Name: models.ModelNavPredictor, Version: "1.0"},
	}}
	uc, _, _ := advisorFixture(reg)

	d, err := uc.Dashboard(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", d.UserID)
	require.NotNil(t, d.PortfolioRisk)
	assert.Len(t, d.PortfolioRisk.Holdings, 2)
	require.Len(t, d.Recommendations, 1)
	assert.Equal(t, "CALM", d.Recommendations[0].FundID)
	assert.True(t, d.Models[models.ModelNavPredictor].Loaded)
}

func TestDashboardToleratesHoldingMissingFromCatalog(t *testing.T) {
	navs, funds, holdings := portfolioFixture()
	navs.series["CALM"] = series("CALM", 120, 0.0005, 0.002)
	funds.popular = []models.PopularFund{{FundID: "CALM", HolderCount: 4}}
	reg := &fakeRegistry{}
	engine := recommend.NewEngine(
		recommend.NewContentStrategy(funds, 0),
		recommend.NewPopularityStrategy(funds, 0),
		recommend.NewFactorStrategy(),
	)
	portfolio := NewPortfolioUseCase(navs, funds, holdings, newActive(reg), 365, nil)
	rec := NewRecommendUseCase(engine, navs, funds, holdings, 365, 10, 0.05, nil, nil)
	uc := NewAdvisorUseCase(portfolio, rec, reg, navs, funds, nil)

	recs, err := rec.Recommend(context.Background(), RecommendParams{UserID: "u2", RiskTolerance: "moderate"})
	require.NoError(t, err)
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.FundID
	}
	assert.Contains(t, ids, "B")
	assert.Contains(t, ids, "CALM")
	assert.NotContains(t, ids, "GONE")

	d, err := uc.Dashboard(context.Background(), "u2")
	require.NoError(t, err)
	require.NotNil(t, d.PortfolioRisk)
	assert.Len(t, d.PortfolioRisk.Holdings, 1)
	assert.NotEmpty(t, d.Recommendations)
}

func TestHealthDegradesOnStoreFailure(t *testing.T) {
	uc, navs, _ := advisorFixture(&fakeRegistry{})

	ok := uc.Health(context.Background())
	assert.Equal(t, "healthy", ok.Status)
	assert.Equal(t, "up", ok.Stores["clickhouse"])
	assert.Equal(t, "up", ok.Stores["postgres"])

	navs.healthErr = errors.New("connection refused")
	bad := uc.Health(context.Background())
	assert.Equal(t, "degraded", bad.Status)
	assert.Contains(t, bad.Stores["clickhouse"], "connection refused")
}

func TestRetrainAndTicket(t *testing.T) {
	reg := &fakeRegistry{}
	uc, _, _ := advisorFixture(reg)

	ticket := uc.Retrain(context.Background())
	assert.Equal(t, models.RetrainRunning, ticket.State)
	got, err := uc.Ticket(ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, got.ID)

	_, err = uc.Ticket("missing")
	assert.ErrorIs(t, err, models.ErrTicketNotFound)
}

func TestNavPredictorTrainerSerializesFit(t *testing.T) {
	navs := &fakeNavs{series: map[string]models.NavSeries{"REF": series("REF", 90, 0.0005, 0.003)}}

	for _, kind := range []models.ForecastModel{models.ForecastSeasonal, models.ForecastGBT} {
		t.Run(string(kind), func(t *testing.T) {
			cfg := forecast.Config{Model: kind, Seasonal: forecast.DefaultSeasonalParams(), GBT: forecast.GBTParams{Trees: 5, MaxDepth: 2, LearningRate: 0.1, MinLeaf: 3}}
			tr := NewNavPredictorTrainer(navs, cfg, "REF", 365)
			assert.Equal(t, models.ModelNavPredictor, tr.ModelName())

			state, err := tr.Train(context.Background())
			require.NoError(t, err)
			var decoded map[string]any
			require.NoError(t, json.Unmarshal(state, &decoded))
			assert.Contains(t, decoded, "tail")
		})
	}

	_, err := NewNavPredictorTrainer(navs, forecast.Config{}, "", 365).Train(context.Background())
	assert.Error(t, err)
}

func TestParamsTrainersRoundTrip(t *testing.T) {
	p := risk.DefaultParams()
	p.UnknownCategory = 0.4
	state, err := NewRiskScorerTrainer(risk.NewScorer(p)).Train(context.Background())
	require.NoError(t, err)
	decoded, err := risk.DecodeParams(state)
	require.NoError(t, err)
	assert.Equal(t, p, decoded)

	op := optimizer.DefaultParams()
	op.RiskFreeRate = 0.04
	state, err = NewOptimizerTrainer(optimizer.New(op)).Train(context.Background())
	require.NoError(t, err)
	dop, err := optimizer.DecodeParams(state)
	require.NoError(t, err)
	assert.Equal(t, 0.04, dop.RiskFreeRate)

	names := []string{}
	for _, tr := range Trainers(NewNavPredictorTrainer(&fakeNavs{}, forecast.Config{}, "REF", 30), risk.NewScorer(p), optimizer.New(op)) {
		names = append(names, tr.ModelName())
	}
	assert.ElementsMatch(t, []string{models.ModelNavPredictor, models.ModelRiskScorer, models.ModelPortfolioOptimizer}, names)
}

func TestErrorKind(t *testing.T) {
	cases := map[string]error{
		"insufficient_data": fmt.Errorf("wrap: %w", &models.InsufficientDataError{}),
		"invalid_objective": &models.InvalidObjectiveError{Objective: "x"},
		"optimization":      &models.OptimizationError{},
		"unknown_model":     &models.UnknownModelError{Name: "x"},
		"data_integrity":    &models.DataIntegrityError{Err: errors.New("bad")},
		"model_fit":         &models.ModelFitError{Err: errors.New("singular")},
		"fund_not_found":    fmt.Errorf("x: %w", models.ErrFundNotFound),
		"ticket_not_found":  models.ErrTicketNotFound,
		"internal":          errors.New("boom"),
	}
	for want, err := range cases {
		assert.Equal(t, want, ErrorKind(err), want)
	}
}

func TestBuildMarketTableIsCached(t *testing.T) {
	navs, funds := recommendFixture()
	uc := NewRecommendUseCase(recommend.NewEngine(recommend.NewFactorStrategy()), navs, funds, fakeHoldings{}, 365, 10, 0.05, nil, nil)
	uc.SetMarketCache(cache.NewTTLCache[models.MarketTable](time.Minute))

	first, err := uc.BuildMarketTable(context.Background())
	require.NoError(t, err)
	calls := navs.calls

	funds.popularErr = errors.New("universe must come from cache")
	second, err := uc.BuildMarketTable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, calls, navs.calls)
}
