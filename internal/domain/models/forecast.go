package models

import "time"

// ForecastModel names a forecaster implementation.
type ForecastModel string

const (
	ForecastSeasonal ForecastModel = "seasonal"
	ForecastGBT      ForecastModel = "gbt"
)

// ForecastPoint is one projected day.
type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Point float64   `json:"predicted_nav"`
	Lower float64   `json:"lower_bound"`
	Upper float64   `json:"upper_bound"`
}

// ForecastResult holds exactly Horizon points with Lower <= Point <= Upper.
type ForecastResult struct {
	FundID          string          `json:"fund_id"`
	Model           ForecastModel   `json:"model"`
	Horizon         int             `json:"horizon"`
	ConfidenceLevel float64         `json:"confidence_level"`
	CurrentNav      float64         `json:"current_nav"`
	Points          []ForecastPoint `json:"predictions"`
}

// BatchForecast collects per-fund results; failed funds are listed in Errors.
type BatchForecast struct {
	Results map[string]*ForecastResult `json:"results"`
	Errors  map[string]string          `json:"errors,omitempty"`
}
