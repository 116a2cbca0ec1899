package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"github.com/vzahanych/weather-forecast-service/internal/config"
	"github.com/vzahanych/weather-forecast-service/internal/geo"
	"go.uber.org/zap"
)

// AccuWeather wraps the AccuWeather daily forecast API. Forecasts are keyed
// by an upstream location ID, so each fetch first translates coordinates to
// a key via the geoposition search endpoint. Keys are memoized per
// coordinate because city positions never change within a process.
// https://developer.accuweather.com/
type AccuWeather struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger

	keys sync.Map // "lat,lon" -> location key
}

func NewAccuWeather(cfg config.ProviderConfig, logger *zap.Logger) *AccuWeather {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &AccuWeather{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		breaker: newBreaker("accuweather"),
		logger:  logger,
	}
}

func (p *AccuWeather) Name() string {
	return "accuweather"
}

type accuSearchResponse struct {
	Key string `json:"Key"`
}

type accuForecastResponse struct {
	DailyForecasts []struct {
		Temperature struct {
			Minimum struct {
				Value float64 `json:"Value"`
			} `json:"Minimum"`
			Maximum struct {
				Value float64 `json:"Value"`
			} `json:"Maximum"`
		} `json:"Temperature"`
	} `json:"DailyForecasts"`
}

func (p *AccuWeather) Fetch(ctx context.Context, loc geo.Location, day int) (Reading, error) {
	key, err := p.locationKey(ctx, loc)
	if err != nil {
		return Reading{}, err
	}

	p.logger.Debug("Fetching AccuWeather forecast",
		zap.String("city", loc.City),
		zap.String("location_key", key),
		zap.Int("day", day))

	u, err := url.Parse(fmt.Sprintf("%s/forecasts/v1/daily/5day/%s", p.baseURL, key))
	if err != nil {
		return Reading{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	q := u.Query()
	q.Set("metric", "true")
	q.Set("apikey", p.apiKey)
	u.RawQuery = q.Encode()

	var resp accuForecastResponse
	if err := doJSON(ctx, p.client, p.breaker, u.String(), &resp); err != nil {
		return Reading{}, err
	}

	if day >= len(resp.DailyForecasts) {
		return Reading{}, fmt.Errorf("%w: only %d daily forecasts, need day %d", ErrParse, len(resp.DailyForecasts), day)
	}

	temp := resp.DailyForecasts[day].Temperature
	return Reading{
		Provider:     p.Name(),
		Day:          day,
		TemperatureC: (temp.Minimum.Value + temp.Maximum.Value) / 2,
	}, nil
}

func (p *AccuWeather) locationKey(ctx context.Context, loc geo.Location) (string, error) {
	cacheKey := fmt.Sprintf("%.6f,%.6f", loc.Lat, loc.Lon)
	if key, ok := p.keys.Load(cacheKey); ok {
		return key.(string), nil
	}

	u, err := url.Parse(p.baseURL + "/locations/v1/cities/geoposition/search")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	q := u.Query()
	q.Set("apikey", p.apiKey)
	q.Set("q", fmt.Sprintf("%.6f,%.6f", loc.Lat, loc.Lon))
	u.RawQuery = q.Encode()

	var resp accuSearchResponse
	if err := doJSON(ctx, p.client, p.breaker, u.String(), &resp); err != nil {
		return "", err
	}

	if resp.Key == "" {
		return "", fmt.Errorf("%w: empty location key for %s", ErrParse, loc.City)
	}

	p.keys.Store(cacheKey, resp.Key)
	return resp.Key, nil
}
