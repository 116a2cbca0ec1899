// Package provider contains the upstream weather source clients. Each
// provider turns a resolved location and a day offset into one normalized
// Celsius reading.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/vzahanych/weather-forecast-service/internal/config"
	"github.com/vzahanych/weather-forecast-service/internal/geo"
	"go.uber.org/zap"
)

// Failure classes. Unavailable covers transport errors, timeouts and non-2xx
// statuses; a caller may decide to retry. Parse covers responses that do not
// match the expected schema and will not fix themselves on retry.
var (
	ErrUnavailable = errors.New("provider unavailable")
	ErrParse       = errors.New("provider response malformed")
)

// Reading is a single provider's data point for one day.
type Reading struct {
	Provider     string
	Day          int
	TemperatureC float64
}

// Provider fetches the forecast for one location and day offset. Day 0 is
// today; implementations translate the offset into their upstream's own
// date or index convention.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc geo.Location, day int) (Reading, error)
}

// New builds a provider from configuration.
func New(cfg config.ProviderConfig, logger *zap.Logger) (Provider, error) {
	switch cfg.Type {
	case "openweathermap":
		return NewOpenWeatherMap(cfg, logger), nil
	case "accuweather":
		return NewAccuWeather(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}

// FromConfig builds all enabled providers. Unknown types are skipped with a
// warning so that one bad config entry does not take the service down.
func FromConfig(cfg config.ForecastConfig, logger *zap.Logger) []Provider {
	providers := make([]Provider, 0, len(cfg.Providers))

	for name, pc := range cfg.Providers {
		if !pc.Enabled {
			continue
		}

		p, err := New(pc, logger)
		if err != nil {
			logger.Warn("Skipping provider", zap.String("provider", name), zap.Error(err))
			continue
		}

		providers = append(providers, p)
		logger.Info("Registered weather provider", zap.String("provider", p.Name()))
	}

	return providers
}
