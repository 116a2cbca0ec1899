package forecast

import (
	"context"
	"fmt"
	"sync"

	"github.com/vzahanych/weather-forecast-service/internal/geo"
	"github.com/vzahanych/weather-forecast-service/internal/provider"
	"github.com/vzahanych/weather-forecast-service/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Engine answers forecast queries. It resolves the city, serves from the
// day cache when possible and falls back to aggregating fresh provider data.
type Engine struct {
	resolver *geo.Resolver
	agg      *aggregator
	cache    *dayCache
	logger   *zap.Logger
	tele     *telemetry.Telemetry
}

func NewEngine(resolver *geo.Resolver, providers []provider.Provider, logger *zap.Logger, tele *telemetry.Telemetry) *Engine {
	return &Engine{
		resolver: resolver,
		agg: &aggregator{
			providers: providers,
			logger:    logger,
			tele:      tele,
		},
		cache:  newDayCache(),
		logger: logger,
		tele:   tele,
	}
}

// SetMetricsRecorder wires in the metrics sink; nil disables recording.
func (e *Engine) SetMetricsRecorder(m MetricsRecorder) {
	e.agg.metrics = m
	e.cache.metrics = m
}

// Current returns the averaged forecast for one city and day offset. The
// offset is validated before anything else happens, so an out-of-range day
// never touches the resolver or the network.
func (e *Engine) Current(ctx context.Context, country, city string, day int) (Aggregated, error) {
	tracer := e.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "forecast.Current")
	defer span.End()

	span.SetAttributes(
		attribute.String("city", city),
		attribute.Int("day", day),
	)

	if day < 0 || day >= Days {
		return Aggregated{}, fmt.Errorf("day %d: %w", day, ErrInvalidDayOffset)
	}

	loc, err := e.resolver.Resolve(country, city)
	if err != nil {
		return Aggregated{}, err
	}

	return e.day(ctx, loc, day)
}

// Forecast returns the 5-day forecast for a city, ordered by day offset
// ascending. The days are fetched concurrently; if any single day fails the
// whole request fails, so callers always get either five entries or none.
func (e *Engine) Forecast(ctx context.Context, country, city string) ([]Aggregated, error) {
	tracer := e.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "forecast.Forecast")
	defer span.End()

	span.SetAttributes(attribute.String("city", city))

	loc, err := e.resolver.Resolve(country, city)
	if err != nil {
		return nil, err
	}

	var (
		results [Days]Aggregated
		errs    [Days]error
		wg      sync.WaitGroup
	)

	for day := 0; day < Days; day++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			results[day], errs[day] = e.day(ctx, loc, day)
		}(day)
	}
	wg.Wait()

	for day := 0; day < Days; day++ {
		if errs[day] != nil {
			span.SetAttributes(attribute.Bool("success", false))
			return nil, errs[day]
		}
	}

	span.SetAttributes(attribute.Bool("success", true))

	e.logger.Debug("Forecast completed",
		zap.String("city", loc.City),
		zap.String("country", loc.Country))

	return results[:], nil
}

func (e *Engine) day(ctx context.Context, loc geo.Location, day int) (Aggregated, error) {
	key := cacheKey{city: loc.City, day: day}
	return e.cache.getOrCompute(ctx, key, func(ctx context.Context) (Aggregated, error) {
		return e.agg.aggregate(ctx, loc, day)
	})
}

// CacheSize is exposed for the readiness and stats surface.
func (e *Engine) CacheSize() int {
	return e.cache.size()
}
