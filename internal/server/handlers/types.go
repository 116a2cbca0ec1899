package handlers

import "github.com/vzahanych/weather-forecast-service/internal/forecast"

// CurrentRequest is the query for a single-day forecast. Day defaults to 0
// (today) when omitted; the engine owns range validation.
type CurrentRequest struct {
	Country string `form:"country" binding:"required" validate:"required,iso3166_1_alpha2"`
	City    string `form:"city" binding:"required" validate:"required,min=1,max=100"`
	Day     *int   `form:"day"`
}

// ForecastRequest is the query for the full 5-day forecast.
type ForecastRequest struct {
	Country string `form:"country" binding:"required" validate:"required,iso3166_1_alpha2"`
	City    string `form:"city" binding:"required" validate:"required,min=1,max=100"`
}

// ForecastResponse is the ordered 5-day forecast for one city.
type ForecastResponse struct {
	City string                `json:"city"`
	Days []forecast.Aggregated `json:"days"`
}

// ErrorResponse is the error payload returned for every failed request.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp,omitempty"`
}
