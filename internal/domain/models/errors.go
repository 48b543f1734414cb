package models

import (
	"errors"
	"fmt"
)

// ErrFundNotFound is returned by stores when a fund id is unknown.
var ErrFundNotFound = errors.New("fund not found")

// ErrTicketNotFound is returned for an unknown or expired retrain ticket.
var ErrTicketNotFound = errors.New("retrain ticket not found")

// InsufficientDataError reports too few observations for a computation.
type InsufficientDataError struct {
	Op     string
	FundID string
	Need   int
	Got    int
}

func (e *InsufficientDataError) Error() string {
	if e.FundID != "" {
		return fmt.Sprintf("%s: insufficient data for fund %s: need %d, got %d", e.Op, e.FundID, e.Need, e.Got)
	}
	return fmt.Sprintf("%s: insufficient data: need %d, got %d", e.Op, e.Need, e.Got)
}

// InvalidObjectiveError reports an unrecognized optimization objective.
type InvalidObjectiveError struct {
	Objective string
}

func (e *InvalidObjectiveError) Error() string {
	return fmt.Sprintf("invalid objective %q: must be one of max_sharpe, min_risk, efficient_risk", e.Objective)
}

// OptimizationError reports solver infeasibility.
type OptimizationError struct {
	Objective Objective
	Reason    string
}

func (e *OptimizationError) Error() string {
	return fmt.Sprintf("optimization %s failed: %s", e.Objective, e.Reason)
}

// UnknownModelError reports a registry operation on an unregistered name.
type UnknownModelError struct {
	Name string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model %q", e.Name)
}

// DataIntegrityError reports a malformed NAV record.
type DataIntegrityError struct {
	FundID string
	Field  string
	Value  string
	Err    error
}

func (e *DataIntegrityError) Error() string {
	msg := fmt.Sprintf("malformed nav record for fund %s: bad %s %q", e.FundID, e.Field, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataIntegrityError) Unwrap() error { return e.Err }

// ModelFitError reports a numeric failure while fitting a model.
type ModelFitError struct {
	Model string
	Err   error
}

func (e *ModelFitError) Error() string {
	return fmt.Sprintf("fit %s: %v", e.Model, e.Err)
}

func (e *ModelFitError) Unwrap() error { return e.Err }
