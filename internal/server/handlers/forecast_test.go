package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-forecast-service/internal/forecast"
	"github.com/vzahanych/weather-forecast-service/internal/geo"
	"github.com/vzahanych/weather-forecast-service/internal/provider"
	"github.com/vzahanych/weather-forecast-service/pkg/telemetry"
	"go.uber.org/zap/zaptest"
)

type stubProvider struct {
	name  string
	base  float64
	err   error
	calls atomic.Int32
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(ctx context.Context, loc geo.Location, day int) (provider.Reading, error) {
	s.calls.Add(1)
	if s.err != nil {
		return provider.Reading{}, s.err
	}
	return provider.Reading{
		Provider:     s.name,
		Day:          day,
		TemperatureC: s.base + float64(day),
	}, nil
}

func newTestRouter(t *testing.T, providers ...provider.Provider) *gin.Engine {
	resolver, err := geo.NewResolver()
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	engine := forecast.NewEngine(resolver, providers, logger, &telemetry.Telemetry{})

	gin.SetMode(gin.TestMode)
	router := gin.New()

	fh := NewForecastHandler(engine, logger)
	router.GET("/current", fh.Current)
	router.GET("/forecast", fh.Forecast)

	return router
}

func doRequest(router *gin.Engine, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestForecastEndpoint(t *testing.T) {
	router := newTestRouter(t,
		&stubProvider{name: "a", base: 2.0},
		&stubProvider{name: "b", base: 4.0},
	)

	w := doRequest(router, "/forecast?country=RU&city=Moscow")
	require.Equal(t, http.StatusOK, w.Code)

	var resp ForecastResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "Moscow", resp.City)
	require.Len(t, resp.Days, 5)
	for day, got := range resp.Days {
		assert.Equal(t, day, got.Day)
		assert.Equal(t, 3.0+float64(day), got.TemperatureC)
		assert.Equal(t, 2, got.Samples)
	}
}

func TestCurrentEndpoint(t *testing.T) {
	router := newTestRouter(t,
		&stubProvider{name: "a", base: 2.0},
		&stubProvider{name: "b", base: 4.0},
	)

	w := doRequest(router, "/current?country=RU&city=Moscow")
	require.Equal(t, http.StatusOK, w.Code)

	var resp forecast.Aggregated
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3.0, resp.TemperatureC)
	assert.Equal(t, 0, resp.Day)

	w = doRequest(router, "/current?country=RU&city=Moscow&day=1")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4.0, resp.TemperatureC)
}

func TestCurrentSixthDay(t *testing.T) {
	stub := &stubProvider{name: "a", base: 2.0}
	router := newTestRouter(t, stub)

	w := doRequest(router, "/current?country=RU&city=Moscow&day=5")
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_DAY_OFFSET", resp.Code)
	assert.Equal(t, "can't see further than 5 days", resp.Error)

	assert.Equal(t, int32(0), stub.calls.Load())
}

func TestForecastUnknownCity(t *testing.T) {
	stub := &stubProvider{name: "a", base: 2.0}
	router := newTestRouter(t, stub)

	w := doRequest(router, "/forecast?country=US&city=Sanity")
	require.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "UNKNOWN_CITY", resp.Code)
	assert.Equal(t, "City not found", resp.Error)

	assert.Equal(t, int32(0), stub.calls.Load())
}

func TestAllProvidersFailed(t *testing.T) {
	router := newTestRouter(t,
		&stubProvider{name: "a", err: provider.ErrUnavailable},
		&stubProvider{name: "b", err: provider.ErrParse},
	)

	w := doRequest(router, "/current?country=DE&city=Berlin")
	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ALL_PROVIDERS_FAILED", resp.Code)
	// Upstream details must not leak into the response body.
	assert.NotContains(t, resp.Error, "provider unavailable")
}

func TestMissingParams(t *testing.T) {
	router := newTestRouter(t, &stubProvider{name: "a", base: 2.0})

	for _, url := range []string{
		"/current?city=Moscow",
		"/current?country=RU",
		"/forecast",
	} {
		w := doRequest(router, url)
		assert.Equal(t, http.StatusBadRequest, w.Code, url)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "INVALID_PARAMS", resp.Code, url)
	}
}

func TestInvalidCountryCode(t *testing.T) {
	router := newTestRouter(t, &stubProvider{name: "a", base: 2.0})

	w := doRequest(router, "/forecast?country=RUS&city=Moscow")
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_PARAMS", resp.Code)
}
