package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"github.com/vzahanych/weather-forecast-service/internal/config"
	"github.com/vzahanych/weather-forecast-service/internal/geo"
	"go.uber.org/zap"
)

// OpenWeatherMap wraps the One Call API.
// https://openweathermap.org/api/one-call-api
type OpenWeatherMap struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewOpenWeatherMap(cfg config.ProviderConfig, logger *zap.Logger) *OpenWeatherMap {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &OpenWeatherMap{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		breaker: newBreaker("openweathermap"),
		logger:  logger,
	}
}

func (p *OpenWeatherMap) Name() string {
	return "openweathermap"
}

type owmResponse struct {
	Daily []struct {
		Temp struct {
			Day   float64 `json:"day"`
			Night float64 `json:"night"`
		} `json:"temp"`
	} `json:"daily"`
}

// Fetch requests the daily forecast window and picks the entry at the
// requested offset. Upstream reports day and night temperatures; their mean
// is the reading for the day.
func (p *OpenWeatherMap) Fetch(ctx context.Context, loc geo.Location, day int) (Reading, error) {
	u, err := url.Parse(p.baseURL + "/onecall")
	if err != nil {
		return Reading{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	q := u.Query()
	q.Set("lat", fmt.Sprintf("%.6f", loc.Lat))
	q.Set("lon", fmt.Sprintf("%.6f", loc.Lon))
	q.Set("exclude", "current,minutely,hourly,alerts")
	q.Set("units", "metric")
	q.Set("appid", p.apiKey)
	u.RawQuery = q.Encode()

	p.logger.Debug("Fetching OpenWeatherMap forecast",
		zap.String("city", loc.City),
		zap.Int("day", day))

	var resp owmResponse
	if err := doJSON(ctx, p.client, p.breaker, u.String(), &resp); err != nil {
		return Reading{}, err
	}

	if day >= len(resp.Daily) {
		return Reading{}, fmt.Errorf("%w: only %d daily entries, need day %d", ErrParse, len(resp.Daily), day)
	}

	temp := resp.Daily[day].Temp
	return Reading{
		Provider:     p.Name(),
		Day:          day,
		TemperatureC: (temp.Day + temp.Night) / 2,
	}, nil
}
