package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"FinAdvisor/internal/domain/models"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// SeasonalParams tunes the decomposition model.
type SeasonalParams struct {
	WeeklyOrder int     `json:"weekly_order"`
	YearlyOrder int     `json:"yearly_order"`
	Ridge       float64 `json:"ridge"`
}

// DefaultSeasonalParams returns the standard decomposition settings.
func DefaultSeasonalParams() SeasonalParams {
	return SeasonalParams{WeeklyOrder: 3, YearlyOrder: 10, Ridge: 0.1}
}

// SeasonalForecaster fits y(t) = g(t)·(1 + s_week(t) + s_year(t) + β·x(t-1)),
// a linear trend g with multiplicative Fourier seasonality and lagged
// technical regressors x.
type SeasonalForecaster struct {
	p SeasonalParams
}

func NewSeasonal(p SeasonalParams) *SeasonalForecaster {
	d := DefaultSeasonalParams()
	if p.WeeklyOrder < 0 {
		p.WeeklyOrder = d.WeeklyOrder
	}
	if p.YearlyOrder < 0 {
		p.YearlyOrder = d.YearlyOrder
	}
	if p.Ridge <= 0 {
		p.Ridge = d.Ridge
	}
	return &SeasonalForecaster{p: p}
}

// SeasonalModel is the fitted, serializable state.
type SeasonalModel struct {
	Params    SeasonalParams `json:"params"`
	Origin    float64        `json:"origin"` // day number of the first date
	Scale     float64        `json:"scale"`  // days spanned by the series
	Intercept float64        `json:"intercept"`
	Slope     float64        `json:"slope"`
	Coef      []float64      `json:"coef"`
	FeatMean  [3]float64     `json:"feat_mean"`
	FeatStd   [3]float64     `json:"feat_std"`
	Sigma     float64        `json:"sigma"`
	LastDate  time.Time      `json:"last_date"`
	Tail      []float64      `json:"tail"`
}

// Train fits the model to series.
func (f *SeasonalForecaster) Train(ctx context.Context, series models.NavSeries) (*SeasonalModel, error) {
	if err := checkTrainable(string(models.ForecastSeasonal), series); err != nil {
		return nil, err
	}
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	y := series.Values()
	dates := series.Dates()
	n := len(y)

	m := &SeasonalModel{Params: f.p, Origin: dayNumber(dates[0])}
	m.Scale = math.Max(dayNumber(dates[n-1])-m.Origin, 1)
	m.LastDate = dates[n-1]

	t := make([]float64, n)
	for i, d := range dates {
		t[i] = m.trendTime(d)
	}
	m.Intercept, m.Slope = stat.LinearRegression(t, y, nil, false)

	tech := technicals(y)
	cols := [3][]float64{tech.mean, tech.std, tech.ret}
	for j, c := range cols {
		m.FeatMean[j], m.FeatStd[j] = stat.MeanStdDev(c, nil)
		if math.IsNaN(m.FeatStd[j]) {
			m.FeatStd[j] = 0
		}
	}

	k := m.width()
	X := mat.NewDense(n, k, nil)
	r := mat.NewVecDense(n, nil)
	trend := make([]float64, n)
	for i := range y {
		trend[i] = m.Intercept + m.Slope*t[i]
		if trend[i] <= 0 {
			return nil, &models.ModelFitError{Model: string(models.ForecastSeasonal), Err: fmt.Errorf("trend is non-positive at %s", dates[i].Format("2006-01-02"))}
		}
		var lag [3]float64
		if i > 0 {
			lag = [3]float64{cols[0][i-1], cols[1][i-1], cols[2][i-1]}
		}
		X.SetRow(i, m.row(dates[i], lag))
		r.SetVec(i, y[i]/trend[i]-1)
	}

	// Ridge normal equations: (XᵀX + λI)β = Xᵀr.
	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	for j := 0; j < k; j++ {
		xtx.Set(j, j, xtx.At(j, j)+f.p.Ridge)
	}
	var xtr, beta mat.VecDense
	xtr.MulVec(X.T(), r)
	if err := beta.SolveVec(&xtx, &xtr); err != nil {
		return nil, &models.ModelFitError{Model: string(models.ForecastSeasonal), Err: err}
	}
	m.Coef = make([]float64, k)
	for j := range m.Coef {
		m.Coef[j] = beta.AtVec(j)
	}

	sse := 0.0
	for i := range y {
		fit := trend[i] * (1 + mat.Dot(X.RowView(i), &beta))
		sse += (y[i] - fit) * (y[i] - fit)
	}
	m.Sigma = math.Sqrt(sse / float64(n))

	tail := n - FeatureWindow
	if tail < 0 {
		tail = 0
	}
	m.Tail = append([]float64(nil), y[tail:]...)
	return m, nil
}

// Predict retrains on series and projects daysAhead calendar days.
func (f *SeasonalForecaster) Predict(ctx context.Context, series models.NavSeries, daysAhead int, confidenceLevel float64) (*models.ForecastResult, error) {
	m, err := f.Train(ctx, series)
	if err != nil {
		return nil, err
	}
	return buildResult(series, models.ForecastSeasonal, m, daysAhead, confidenceLevel)
}

func (m *SeasonalModel) width() int {
	return 2*m.Params.WeeklyOrder + 2*m.Params.YearlyOrder + 3
}

func (m *SeasonalModel) trendTime(d time.Time) float64 {
	return (dayNumber(d) - m.Origin) / m.Scale
}

// row builds the seasonal and standardized regressor columns for date d.
func (m *SeasonalModel) row(d time.Time, lag [3]float64) []float64 {
	out := make([]float64, 0, m.width())
	day := dayNumber(d)
	for k := 1; k <= m.Params.WeeklyOrder; k++ {
		a := 2 * math.Pi * float64(k) * day / 7
		out = append(out, math.Sin(a), math.Cos(a))
	}
	for k := 1; k <= m.Params.YearlyOrder; k++ {
		a := 2 * math.Pi * float64(k) * day / 365.25
		out = append(out, math.Sin(a), math.Cos(a))
	}
	for j, v := range lag {
		if m.FeatStd[j] > 0 {
			out = append(out, (v-m.FeatMean[j])/m.FeatStd[j])
		} else {
			out = append(out, 0)
		}
	}
	return out
}

// project runs the model forward, feeding each prediction back into the
// regressor window.
func (m *SeasonalModel) project(h int) ([]float64, []float64) {
	path := append([]float64(nil), m.Tail...)
	point := make([]float64, h)
	spread := make([]float64, h)
	for step := 1; step <= h; step++ {
		d := m.LastDate.AddDate(0, 0, step)
		mean, std, ret := tailTechnical(path)
		x := m.row(d, [3]float64{mean, std, ret})
		s := 0.0
		for j, c := range m.Coef {
			s += c * x[j]
		}
		y := (m.Intercept + m.Slope*m.trendTime(d)) * (1 + s)
		point[step-1] = y
		spread[step-1] = m.Sigma * math.Sqrt(float64(step))
		path = append(path, y)
	}
	return point, spread
}

// Marshal serializes the fitted state for the model registry.
func (m *SeasonalModel) Marshal() ([]byte, error) { return json.Marshal(m) }
