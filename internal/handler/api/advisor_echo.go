package api

import (
	"errors"
	"net/http"

	models "FinAdvisor/internal/domain/models"
	"FinAdvisor/internal/usecase"
	xhttp "FinAdvisor/pkg/http"
	xlogger "FinAdvisor/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AdvisorEchoHandler serves the advisory endpoints.
type AdvisorEchoHandler struct {
	logger    *xlogger.Logger
	forecast  *usecase.ForecastUseCase
	portfolio *usecase.PortfolioUseCase
	recommend *usecase.RecommendUseCase
	advisor   *usecase.AdvisorUseCase
	heavy     echo.MiddlewareFunc
}

func NewAdvisorEchoHandler(
	logger *xlogger.Logger,
	forecast *usecase.ForecastUseCase,
	portfolio *usecase.PortfolioUseCase,
	recommend *usecase.RecommendUseCase,
	advisor *usecase.AdvisorUseCase,
	heavy echo.MiddlewareFunc,
) *AdvisorEchoHandler {
	return &AdvisorEchoHandler{
		logger:    logger,
		forecast:  forecast,
		portfolio: portfolio,
		recommend: recommend,
		advisor:   advisor,
		heavy:     heavy,
	}
}

func (h *AdvisorEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	var limited []echo.MiddlewareFunc
	if h.heavy != nil {
		limited = append(limited, h.heavy)
	}

	g := e.Group("/api")
	g.POST("/predict-nav", h.PredictNav, limited...)
	g.POST("/predict-multiple-funds", h.PredictMultiple, limited...)
	g.POST("/optimize-portfolio", h.OptimizePortfolio, limited...)
	g.POST("/risk-score", h.RiskScore)
	g.POST("/risk-score-portfolio", h.RiskScorePortfolio)
	g.POST("/recommendations", h.Recommendations)
	g.GET("/dashboard/:user_id", h.Dashboard)
	g.GET("/models", h.Models)
	g.POST("/models/retrain", h.Retrain)
	g.GET("/models/retrain/:id", h.RetrainTicket)
}

func (h *AdvisorEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.advisor.Health(c.Request().Context()))
}

func (h *AdvisorEchoHandler) PredictNav(c echo.Context) error {
	req := &models.PredictNavRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.forecast.PredictNav(c.Request().Context(), usecase.PredictNavParams{
		FundID:          req.FundID,
		DaysAhead:       req.DaysAhead,
		ConfidenceLevel: req.ConfidenceLevel,
		History:         req.History,
	})
	if err != nil {
		return h.fail(c, "predict nav", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AdvisorEchoHandler) PredictMultiple(c echo.Context) error {
	req := &models.PredictMultipleRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.forecast.PredictMultiple(c.Request().Context(), req.FundIDs, req.DaysAhead)
	if err != nil {
		return h.fail(c, "predict multiple", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AdvisorEchoHandler) OptimizePortfolio(c echo.Context) error {
	req := &models.OptimizePortfolioRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.portfolio.OptimizeForUser(c.Request().Context(), usecase.OptimizeParams{
		UserID:        req.UserID,
		Objective:     req.OptimizationType,
		RiskTolerance: req.RiskTolerance,
	})
	if err != nil {
		return h.fail(c, "optimize portfolio", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AdvisorEchoHandler) RiskScore(c echo.Context) error {
	req := &models.RiskScoreRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.portfolio.ScoreFund(c.Request().Context(), req.FundID, req.BenchmarkID)
	if err != nil {
		return h.fail(c, "risk score", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AdvisorEchoHandler) RiskScorePortfolio(c echo.Context) error {
	req := &models.PortfolioRiskRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.portfolio.ScorePortfolio(c.Request().Context(), req.UserID)
	if err != nil {
		return h.fail(c, "portfolio risk", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AdvisorEchoHandler) Recommendations(c echo.Context) error {
	req := &models.RecommendationsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.recommend.Recommend(c.Request().Context(), usecase.RecommendParams{
		UserID:        req.UserID,
		RiskTolerance: req.RiskTolerance,
		Market:        req.MarketData,
	})
	if err != nil {
		return h.fail(c, "recommendations", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AdvisorEchoHandler) Dashboard(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("user_id is required"))
	}

	res, err := h.advisor.Dashboard(c.Request().Context(), userID)
	if err != nil {
		return h.fail(c, "dashboard", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AdvisorEchoHandler) Models(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.advisor.ModelStatus())
}

func (h *AdvisorEchoHandler) Retrain(c echo.Context) error {
	ticket := h.advisor.Retrain(c.Request().Context())
	h.logger.Info("retrain requested", xlogger.String("ticket", ticket.ID), xlogger.String("state", string(ticket.State)))
	return xhttp.AcceptedResponse(c, ticket)
}

func (h *AdvisorEchoHandler) RetrainTicket(c echo.Context) error {
	res, err := h.advisor.Ticket(c.Param("id"))
	if err != nil {
		return h.fail(c, "retrain ticket", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AdvisorEchoHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(op+" usecase error", xlogger.Error(err))
	} else {
		h.logger.Warn(op+" rejected", xlogger.String("kind", usecase.ErrorKind(err)), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// toAppError maps domain errors onto HTTP statuses.
func toAppError(err error) *xhttp.AppError {
	var (
		insufficient *models.InsufficientDataError
		objective    *models.InvalidObjectiveError
		integrity    *models.DataIntegrityError
		unknown      *models.UnknownModelError
		optimization *models.OptimizationError
		fit          *models.ModelFitError
	)
	switch {
	case errors.As(err, &insufficient):
		return xhttp.NewAppError("ERR_INSUFFICIENT_DATA", "", insufficient.Error(), http.StatusBadRequest).
			WithParams(map[string]interface{}{"need": insufficient.Need, "got": insufficient.Got}).
			WithError(err)
	case errors.As(err, &objective):
		return xhttp.NewAppError("ERR_INVALID_OBJECTIVE", "optimization_type", objective.Error(), http.StatusBadRequest).WithError(err)
	case errors.As(err, &integrity):
		return xhttp.NewAppError("ERR_DATA_INTEGRITY", integrity.Field, integrity.Error(), http.StatusBadRequest).WithError(err)
	case errors.As(err, &unknown):
		return xhttp.NotFoundErrorf("model %q is not registered", unknown.Name).WithError(err)
	case errors.Is(err, models.ErrFundNotFound), errors.Is(err, models.ErrTicketNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.As(err, &optimization):
		return xhttp.UnprocessableError(optimization.Error()).WithError(err)
	case errors.As(err, &fit):
		return xhttp.UnprocessableError(fit.Error()).WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}
