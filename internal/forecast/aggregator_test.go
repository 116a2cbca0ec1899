package forecast

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-forecast-service/internal/geo"
	"github.com/vzahanych/weather-forecast-service/internal/provider"
	"github.com/vzahanych/weather-forecast-service/pkg/telemetry"
	"go.uber.org/zap/zaptest"
)

// stubProvider reports its base temperature plus the day offset, mirroring
// how a real forecast climbs across the window. calls counts Fetch
// invocations so tests can assert that no provider was touched.
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

func testAggregator(t *testing.T, providers ...provider.Provider) *aggregator {
	return &aggregator{
		providers: providers,
		logger:    zaptest.NewLogger(t),
		tele:      &telemetry.Telemetry{},
	}
}

func testLocation() geo.Location {
	return geo.Location{Country: "US", City: "Chicago", Lat: 41.85003, Lon: -87.65005}
}

func TestAggregateAveragesAllProviders(t *testing.T) {
	agg := testAggregator(t,
		&stubProvider{name: "a", base: 10.0},
		&stubProvider{name: "b", base: 20.0},
	)

	result, err := agg.aggregate(context.Background(), testLocation(), 0)
	require.NoError(t, err)

	assert.Equal(t, 15.0, result.TemperatureC)
	assert.Equal(t, 2, result.Samples)
	assert.Equal(t, "Chicago", result.City)
	assert.Equal(t, 0, result.Day)
}

func TestAggregateToleratesPartialFailure(t *testing.T) {
	agg := testAggregator(t,
		&stubProvider{name: "a", base: 12.0},
		&stubProvider{name: "b", err: provider.ErrUnavailable},
	)

	result, err := agg.aggregate(context.Background(), testLocation(), 0)
	require.NoError(t, err)

	assert.Equal(t, 12.0, result.TemperatureC)
	assert.Equal(t, 1, result.Samples)
}

func TestAggregateAllFailed(t *testing.T) {
	agg := testAggregator(t,
		&stubProvider{name: "a", err: provider.ErrUnavailable},
		&stubProvider{name: "b", err: provider.ErrParse},
	)

	_, err := agg.aggregate(context.Background(), testLocation(), 2)
	assert.True(t, errors.Is(err, ErrAllProvidersFailed))
}

func TestAggregateSampleBounds(t *testing.T) {
	providers := []provider.Provider{
		&stubProvider{name: "a", base: 1.0},
		&stubProvider{name: "b", base: 2.0},
		&stubProvider{name: "c", err: provider.ErrUnavailable},
	}
	agg := testAggregator(t, providers...)

	for day := 0; day < Days; day++ {
		result, err := agg.aggregate(context.Background(), testLocation(), day)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.Samples, 1)
		assert.LessOrEqual(t, result.Samples, len(providers))
	}
}
