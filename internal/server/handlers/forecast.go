package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-forecast-service/internal/forecast"
	"github.com/vzahanych/weather-forecast-service/internal/geo"
	"github.com/vzahanych/weather-forecast-service/internal/server/utils"
	"go.uber.org/zap"
)

type ForecastHandler struct {
	engine *forecast.Engine
	logger *zap.Logger
}

func NewForecastHandler(engine *forecast.Engine, logger *zap.Logger) *ForecastHandler {
	return &ForecastHandler{
		engine: engine,
		logger: logger,
	}
}

// Current handles GET /current?country=&city=&day=.
func (h *ForecastHandler) Current(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	reqLogger := h.logger.With(zap.String("request_id", utils.GetRequestIDFromGinContext(c)))

	var req CurrentRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.invalidParams(c, reqLogger, err)
		return
	}
	if verrs := utils.ValidateStruct(req); verrs != nil {
		h.validationFailed(c, reqLogger, verrs)
		return
	}

	day := 0
	if req.Day != nil {
		day = *req.Day
	}

	result, err := h.engine.Current(ctx, req.Country, req.City, day)
	if err != nil {
		h.writeError(c, reqLogger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Forecast handles GET /forecast?country=&city=.
func (h *ForecastHandler) Forecast(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	reqLogger := h.logger.With(zap.String("request_id", utils.GetRequestIDFromGinContext(c)))

	var req ForecastRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.invalidParams(c, reqLogger, err)
		return
	}
	if verrs := utils.ValidateStruct(req); verrs != nil {
		h.validationFailed(c, reqLogger, verrs)
		return
	}

	days, err := h.engine.Forecast(ctx, req.Country, req.City)
	if err != nil {
		h.writeError(c, reqLogger, err)
		return
	}

	c.JSON(http.StatusOK, ForecastResponse{
		City: days[0].City,
		Days: days,
	})
}

func (h *ForecastHandler) invalidParams(c *gin.Context, logger *zap.Logger, err error) {
	logger.Warn("Invalid request parameters", zap.Error(err))
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: "Invalid request parameters",
		Code:  "INVALID_PARAMS",
	})
}

func (h *ForecastHandler) validationFailed(c *gin.Context, logger *zap.Logger, verrs []utils.ValidationError) {
	logger.Warn("Request validation failed", zap.Any("errors", verrs))
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "Invalid request parameters",
		Code:    "INVALID_PARAMS",
		Details: verrs,
	})
}

// writeError maps engine errors to status codes. Upstream provider error
// bodies are never relayed; the response names the failure kind only.
func (h *ForecastHandler) writeError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, forecast.ErrInvalidDayOffset):
		logger.Warn("Invalid day offset", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "can't see further than 5 days",
			Code:  "INVALID_DAY_OFFSET",
		})
	case errors.Is(err, geo.ErrUnknownCity):
		logger.Warn("Unknown city", zap.Error(err))
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "City not found",
			Code:  "UNKNOWN_CITY",
		})
	case errors.Is(err, forecast.ErrAllProvidersFailed):
		logger.Error("All providers failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error: "Weather data is currently unavailable",
			Code:  "ALL_PROVIDERS_FAILED",
		})
	default:
		logger.Error("Forecast request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Internal error",
			Code:  "INTERNAL",
		})
	}
}
