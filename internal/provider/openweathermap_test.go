package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-forecast-service/internal/config"
	"github.com/vzahanych/weather-forecast-service/internal/geo"
	"go.uber.org/zap/zaptest"
)

func owmConfig(baseURL string) config.ProviderConfig {
	return config.ProviderConfig{
		Type:    "openweathermap",
		Enabled: true,
		BaseURL: baseURL,
		APIKey:  "test-token",
		Timeout: 2,
	}
}

func chicago() geo.Location {
	return geo.Location{Country: "US", City: "Chicago", Lat: 41.85003, Lon: -87.65005}
}

func TestOpenWeatherMapFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/onecall", r.URL.Path)
		assert.Equal(t, "test-token", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "41.850030", r.URL.Query().Get("lat"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"daily":[
			{"temp":{"day":10.0,"night":20.0}},
			{"temp":{"day":5.0,"night":7.0}},
			{"temp":{"day":1.0,"night":3.0}},
			{"temp":{"day":0.0,"night":2.0}},
			{"temp":{"day":-1.0,"night":1.0}},
			{"temp":{"day":-2.0,"night":0.0}}
		]}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherMap(owmConfig(srv.URL), zaptest.NewLogger(t))

	reading, err := p.Fetch(context.Background(), chicago(), 0)
	require.NoError(t, err)
	assert.Equal(t, "openweathermap", reading.Provider)
	assert.Equal(t, 0, reading.Day)
	assert.Equal(t, 15.0, reading.TemperatureC)

	reading, err = p.Fetch(context.Background(), chicago(), 1)
	require.NoError(t, err)
	assert.Equal(t, 6.0, reading.TemperatureC)
}

func TestOpenWeatherMapUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewOpenWeatherMap(owmConfig(srv.URL), zaptest.NewLogger(t))

	_, err := p.Fetch(context.Background(), chicago(), 0)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestOpenWeatherMapUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	p := NewOpenWeatherMap(owmConfig(srv.URL), zaptest.NewLogger(t))

	_, err := p.Fetch(context.Background(), chicago(), 0)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestOpenWeatherMapMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	p := NewOpenWeatherMap(owmConfig(srv.URL), zaptest.NewLogger(t))

	_, err := p.Fetch(context.Background(), chicago(), 0)
	assert.True(t, errors.Is(err, ErrParse))
}

func TestOpenWeatherMapTooFewDays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"daily":[{"temp":{"day":10.0,"night":20.0}}]}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherMap(owmConfig(srv.URL), zaptest.NewLogger(t))

	_, err := p.Fetch(context.Background(), chicago(), 4)
	assert.True(t, errors.Is(err, ErrParse))
}
