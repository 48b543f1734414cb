package models

import (
	"strconv"
	"strings"
	"time"

	"FinAdvisor/pkg/util"
)

// NavPoint is a single (date, value) observation of a fund's NAV.
type NavPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// NavSeries is the ordered NAV history of one fund. Dates are strictly
// increasing and every value is positive once Validate has passed.
type NavSeries struct {
	FundID string     `json:"fund_id"`
	Points []NavPoint `json:"points"`
}

func (s NavSeries) Len() int { return len(s.Points) }

// Values returns the NAV values in date order.
func (s NavSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Dates returns the observation dates in order.
func (s NavSeries) Dates() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Date
	}
	return out
}

// Last returns the most recent observation. ok is false for an empty series.
func (s NavSeries) Last() (NavPoint, bool) {
	if len(s.Points) == 0 {
		return NavPoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Validate checks the ordering and positivity invariants.
func (s NavSeries) Validate() error {
	for i, p := range s.Points {
		if !(p.Value > 0) {
			return &DataIntegrityError{FundID: s.FundID, Field: "value", Value: strconv.FormatFloat(p.Value, 'f', -1, 64)}
		}
		if i > 0 && !p.Date.After(s.Points[i-1].Date) {
			return &DataIntegrityError{FundID: s.FundID, Field: "date", Value: p.Date.Format(util.DateLayout)}
		}
	}
	return nil
}

// RawNavRecord is an unparsed NAV row as supplied by a caller or feed.
type RawNavRecord struct {
	Date  string `json:"date" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// ParseNavRecords converts raw rows into a validated NavSeries. Rows may
// arrive in any order; duplicates and unparsable fields are rejected.
func ParseNavRecords(fundID string, raw []RawNavRecord) (NavSeries, error) {
	pts := make([]NavPoint, 0, len(raw))
	for _, r := range raw {
		d, err := util.ParseNavDate(r.Date)
		if err != nil {
			return NavSeries{}, &DataIntegrityError{FundID: fundID, Field: "date", Value: r.Date, Err: err}
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(r.Value), ",", ""), 64)
		if err != nil {
			return NavSeries{}, &DataIntegrityError{FundID: fundID, Field: "value", Value: r.Value, Err: err}
		}
		pts = append(pts, NavPoint{Date: d, Value: v})
	}
	SortPoints(pts)
	s := NavSeries{FundID: fundID, Points: pts}
	if err := s.Validate(); err != nil {
		return NavSeries{}, err
	}
	return s, nil
}

// SortPoints orders points by date ascending (insertion sort; feeds are nearly sorted).
func SortPoints(pts []NavPoint) {
	for i := 1; i < len(pts); i++ {
		for j := i; j > 0 && pts[j].Date.Before(pts[j-1].Date); j-- {
			pts[j], pts[j-1] = pts[j-1], pts[j]
		}
	}
}
