package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"FinAdvisor/internal/domain/models"
	domsvc "FinAdvisor/internal/domain/service"
	"FinAdvisor/internal/services/features"

	"gonum.org/v1/gonum/stat/distuv"
)

// FeatureWindow is the rolling window of the technical regressors.
const FeatureWindow = 5

// DefaultConfidence is used when a caller passes a level outside (0,1).
const DefaultConfidence = 0.95

// Config selects and tunes the forecaster.
type Config struct {
	Model    models.ForecastModel
	Seasonal SeasonalParams
	GBT      GBTParams
}

// New returns the forecaster named by cfg.Model; unknown names fall back
// to the seasonal model.
func New(cfg Config) domsvc.Forecaster {
	if cfg.Model == models.ForecastGBT {
		return NewGBT(cfg.GBT)
	}
	return NewSeasonal(cfg.Seasonal)
}

// fittedModel is a trained model that can project forward.
type fittedModel interface {
	project(h int) ([]float64, []float64) // point, half-width per unit z
}

// technical holds the zero-filled technical regressors for a series.
type technical struct {
	mean, std, ret []float64
}

func technicals(values []float64) technical {
	return technical{
		mean: features.RollingMean(values, FeatureWindow),
		std:  features.RollingStd(values, FeatureWindow),
		ret:  features.PctChangeFilled(values),
	}
}

// tailTechnical computes the three regressors at the last index of path.
func tailTechnical(path []float64) (mean, std, ret float64) {
	n := len(path)
	if n >= FeatureWindow {
		w := path[n-FeatureWindow:]
		t := technicals(w)
		mean, std = t.mean[FeatureWindow-1], t.std[FeatureWindow-1]
	}
	if n >= 2 && path[n-2] != 0 {
		ret = path[n-1]/path[n-2] - 1
	}
	return mean, std, ret
}

func checkTrainable(model string, series models.NavSeries) error {
	if series.Len() < 2 {
		return &models.InsufficientDataError{Op: "train " + model, FundID: series.FundID, Need: 2, Got: series.Len()}
	}
	return nil
}

// buildResult turns projections into a ForecastResult with symmetric bounds.
func buildResult(series models.NavSeries, model models.ForecastModel, fit fittedModel, daysAhead int, confidenceLevel float64) (*models.ForecastResult, error) {
	if daysAhead < 1 {
		return nil, fmt.Errorf("days ahead must be positive, got %d", daysAhead)
	}
	if !(confidenceLevel > 0 && confidenceLevel < 1) {
		confidenceLevel = DefaultConfidence
	}
	z := distuv.UnitNormal.Quantile(0.5 + confidenceLevel/2)

	last, _ := series.Last()
	point, spread := fit.project(daysAhead)
	res := &models.ForecastResult{
		FundID:          series.FundID,
		Model:           model,
		Horizon:         daysAhead,
		ConfidenceLevel: confidenceLevel,
		CurrentNav:      last.Value,
		Points:          make([]models.ForecastPoint, daysAhead),
	}
	for h := 0; h < daysAhead; h++ {
		p, hw := point[h], z*spread[h]
		if math.IsNaN(p) || math.IsInf(p, 0) || math.IsNaN(hw) {
			return nil, &models.ModelFitError{Model: string(model), Err: fmt.Errorf("non-finite projection at step %d", h+1)}
		}
		res.Points[h] = models.ForecastPoint{
			Date:  last.Date.AddDate(0, 0, h+1),
			Point: p,
			Lower: p - hw,
			Upper: p + hw,
		}
	}
	return res, nil
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}

func dayNumber(t time.Time) float64 {
	return float64(t.Unix()) / 86400
}
