package api

import (
	"context"
	"errors"
	"net/http"

	models "IntraCast/internal/domain/models"
	domrepo "IntraCast/internal/domain/repository"
	"IntraCast/internal/handler/ws"
	"IntraCast/internal/service/ratelimit"
	"IntraCast/internal/usecase"
	xhttp "IntraCast/pkg/http"
	xlogger "IntraCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ModelHealth reports reachability of the model serving dependency.
type ModelHealth interface {
	Health(ctx context.Context) error
}

// ForecastEchoHandler exposes the engine's read and on-demand endpoints.
// All routes are GET: the pipeline is the only writer, and it runs on its
// own schedule.
type ForecastEchoHandler struct {
	logger  *xlogger.Logger
	pipe    *usecase.Pipeline
	queries *usecase.Queries
	hub     *ws.Hub
	bars    domrepo.BarStore
	model   ModelHealth
	limiter *ratelimit.Limiter
	symbol  string
	window  int
}

// Per-client allowance for on-demand predictions: a small burst,
// refilling one request every two seconds.
const (
	predictBurst  = 5
	predictRefill = 0.5
)

func NewForecastEchoHandler(
	logger *xlogger.Logger,
	pipe *usecase.Pipeline,
	queries *usecase.Queries,
	hub *ws.Hub,
	bars domrepo.BarStore,
	model ModelHealth,
	symbol string,
	window int,
) *ForecastEchoHandler {
	return &ForecastEchoHandler{
		logger:  logger,
		pipe:    pipe,
		queries: queries,
		hub:     hub,
		bars:    bars,
		model:   model,
		limiter: ratelimit.New(),
		symbol:  symbol,
		window:  window,
	}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.HealthCheck)
	e.GET("/predict", h.Predict)
	e.GET("/signals", h.Signals)
	e.GET("/historical", h.Historical)
	e.GET("/performance", h.Performance)
	if h.hub != nil {
		e.GET("/ws", h.hub.Serve)
	}
}

// Root confirms the engine is up.
func (h *ForecastEchoHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "Forecast Engine Running"})
}

// HealthCheck reports the engine plus its persistence and model serving
// dependencies.
func (h *ForecastEchoHandler) HealthCheck(c echo.Context) error {
	ctx := c.Request().Context()
	status := map[string]string{"engine": "ok", "store": "ok", "models": "ok"}
	healthy := true

	if err := h.bars.Health(ctx); err != nil {
		status["store"] = err.Error()
		healthy = false
	}
	if err := h.model.Health(ctx); err != nil {
		status["models"] = err.Error()
		healthy = false
	}

	if !healthy {
		return c.JSON(http.StatusServiceUnavailable, status)
	}
	return c.JSON(http.StatusOK, status)
}

// Predict recomputes a signal from the latest persisted bars. Nothing is
// written: on-demand predictions never enter the signal history.
func (h *ForecastEchoHandler) Predict(c echo.Context) error {
	if !h.limiter.Allow(c.RealIP(), predictBurst, predictRefill) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("prediction rate limit exceeded"))
	}

	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := req.Symbol
	if symbol == "" {
		symbol = h.symbol
	}

	sig, err := h.pipe.PredictNow(c.Request().Context(), symbol, h.window)
	if err != nil {
		h.logger.Error("predict usecase error", xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainErr(err))
	}
	return xhttp.SuccessResponse(c, sig)
}

// Signals returns the persisted signal history, oldest first.
func (h *ForecastEchoHandler) Signals(c echo.Context) error {
	sigs, err := h.queries.Signals(c.Request().Context())
	if err != nil {
		h.logger.Error("signals usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainErr(err))
	}
	return xhttp.SuccessResponse(c, sigs)
}

// Historical returns the last N persisted bars for a symbol.
func (h *ForecastEchoHandler) Historical(c echo.Context) error {
	req := &models.HistoricalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := req.Symbol
	if symbol == "" {
		symbol = h.symbol
	}

	bars, err := h.queries.Historical(c.Request().Context(), symbol, req.Limit)
	if err != nil {
		h.logger.Error("historical usecase error", xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainErr(err))
	}
	return xhttp.SuccessResponse(c, bars)
}

// Performance returns the cumulative PnL series and annualized Sharpe
// ratio over the signal history.
func (h *ForecastEchoHandler) Performance(c echo.Context) error {
	report, err := h.queries.Performance(c.Request().Context())
	if err != nil {
		h.logger.Error("performance usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainErr(err))
	}
	if report.Empty() {
		return c.JSON(http.StatusOK, map[string]string{"error": "No signals yet"})
	}
	return xhttp.SuccessResponse(c, report)
}

// mapDomainErr translates pipeline errors into HTTP application errors.
func mapDomainErr(err error) error {
	switch {
	case errors.Is(err, models.ErrInsufficientData):
		return xhttp.UnprocessableError("not enough bars to build a feature window").WithError(err)
	case errors.Is(err, models.ErrNoData):
		return xhttp.NotFoundError("no bars persisted for symbol").WithError(err)
	case errors.Is(err, models.ErrModelUnavailable):
		return xhttp.ServiceUnavailableError("model service unavailable").WithError(err)
	case errors.Is(err, models.ErrStoreUnavailable):
		return xhttp.ServiceUnavailableError("store unavailable").WithError(err)
	default:
		return err
	}
}
