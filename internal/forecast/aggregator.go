// Package forecast is the aggregation engine: it fans a forecast query out to
// every configured provider, averages the readings that came back, and caches
// the result for the rest of the calendar day.
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

// Aggregated is the averaged forecast for one city and day. Samples records
// how many providers contributed; it is always at least 1.
type Aggregated struct {
	City         string  `json:"city"`
	Day          int     `json:"day"`
	TemperatureC float64 `json:"temperature_celsius"`
	Samples      int     `json:"sample_count"`
}

// MetricsRecorder receives cache and provider outcome counts.
type MetricsRecorder interface {
	RecordCacheHit(ctx context.Context)
	RecordCacheMiss(ctx context.Context)
	RecordProviderCall(ctx context.Context, provider string, success bool)
}

type aggregator struct {
	providers []provider.Provider
	logger    *zap.Logger
	tele      *telemetry.Telemetry
	metrics   MetricsRecorder
}

// aggregate queries every provider concurrently and averages the successful
// readings. Each goroutine writes into its own slot, so no locking is needed
// on the results. Individual failures are logged and counted but only a total
// failure is returned.
func (a *aggregator) aggregate(ctx context.Context, loc geo.Location, day int) (Aggregated, error) {
	tracer := a.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "forecast.aggregate")
	defer span.End()

	span.SetAttributes(
		attribute.String("city", loc.City),
		attribute.Int("day", day),
		attribute.Int("providers", len(a.providers)),
	)

	readings := make([]provider.Reading, len(a.providers))
	errs := make([]error, len(a.providers))

	var wg sync.WaitGroup
	for i, p := range a.providers {
		wg.Add(1)
		go func(i int, p provider.Provider) {
			defer wg.Done()
			readings[i], errs[i] = p.Fetch(ctx, loc, day)
		}(i, p)
	}
	wg.Wait()

	var sum float64
	samples := 0

	for i, p := range a.providers {
		if err := errs[i]; err != nil {
			a.logger.Warn("Provider fetch failed",
				zap.String("provider", p.Name()),
				zap.String("city", loc.City),
				zap.Int("day", day),
				zap.Error(err))
			if a.metrics != nil {
				a.metrics.RecordProviderCall(ctx, p.Name(), false)
			}
			continue
		}

		sum += readings[i].TemperatureC
		samples++
		if a.metrics != nil {
			a.metrics.RecordProviderCall(ctx, p.Name(), true)
		}
	}

	if samples == 0 {
		span.SetAttributes(attribute.Bool("success", false))
		return Aggregated{}, fmt.Errorf("%s day %d: %w", loc.City, day, ErrAllProvidersFailed)
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("samples", samples),
	)

	return Aggregated{
		City:         loc.City,
		Day:          day,
		TemperatureC: sum / float64(samples),
		Samples:      samples,
	}, nil
}
