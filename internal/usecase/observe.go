package usecase

import (
	"errors"
	"time"

	"FinAdvisor/internal/domain/models"
	domrepo "FinAdvisor/internal/domain/repository"
)

// observe records latency for op and classifies *errp when set.
func observe(m domrepo.Metrics, op string, start time.Time, errp *error) {
	if m == nil {
		return
	}
	m.RecordLatency(op, time.Since(start).Seconds())
	if errp != nil && *errp != nil {
		m.RecordError(ErrorKind(*errp))
	}
}

// ErrorKind names the domain error class of err for metrics and logs.
func ErrorKind(err error) string {
	var (
		insufficient *models.InsufficientDataError
		objective    *models.InvalidObjectiveError
		optimization *models.OptimizationError
		unknown      *models.UnknownModelError
		integrity    *models.DataIntegrityError
		fit          *models.ModelFitError
	)
	switch {
	case errors.As(err, &insufficient):
		return "insufficient_data"
	case errors.As(err, &objective):
		return "invalid_objective"
	case errors.As(err, &optimization):
		return "optimization"
	case errors.As(err, &unknown):
		return "unknown_model"
	case errors.As(err, &integrity):
		return "data_integrity"
	case errors.As(err, &fit):
		return "model_fit"
	case errors.Is(err, models.ErrFundNotFound):
		return "fund_not_found"
	case errors.Is(err, models.ErrTicketNotFound):
		return "ticket_not_found"
	default:
		return "internal"
	}
}
