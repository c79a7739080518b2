package forecast

import (
	"context"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covidtrends/internal/config"
	apperrors "covidtrends/internal/errors"
	"covidtrends/pkg/contracts/domain"
)

// weeklySeries builds a synthetic daily series with trend and weekly
// seasonality, long enough for a period-7 fit.
func weeklySeries(n int) []domain.DailyTotal {
	daily := make([]domain.DailyTotal, n)
	start := time.Date(2020, 1, 22, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		value := 100 + 2*float64(i) +
			15*math.Sin(2*math.Pi*float64(i)/7) +
			float64(i%5-2)/2
		daily[i] = domain.DailyTotal{
			Date:  start.AddDate(0, 0, i),
			Cases: int64(value),
		}
	}
	return daily
}

func weeklyConfig() config.ForecastConfig {
	return config.ForecastConfig{
		Horizon:        30,
		SeasonalPeriod: 7,
		Confidence:     0.95,
	}
}

func TestFit_SeriesTooShort(t *testing.T) {
	f := New(slog.Default(), config.ForecastConfig{
		Horizon:        30,
		SeasonalPeriod: 365,
		Confidence:     0.95,
	})

	_, err := f.Fit(context.Background(), weeklySeries(100))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeModelFit))
	assert.Contains(t, err.Error(), "730")
}

func TestFitAndForecast(t *testing.T) {
	f := New(slog.Default(), weeklyConfig())

	daily := weeklySeries(150)
	model, err := f.Fit(context.Background(), daily)
	require.NoError(t, err)
	require.NotNil(t, model)

	points, err := model.Forecast(30)
	require.NoError(t, err)
	require.Len(t, points, 30)

	lastObserved := daily[len(daily)-1].Date
	prev := lastObserved
	for i, p := range points {
		assert.Equal(t, i+1, p.Step)
		assert.True(t, p.Date.After(prev), "dates must be strictly increasing")
		assert.Equal(t, prev.AddDate(0, 0, 1), p.Date)
		assert.LessOrEqual(t, p.Lower, p.Value, "step %d", p.Step)
		assert.GreaterOrEqual(t, p.Upper, p.Value, "step %d", p.Step)
		assert.False(t, math.IsNaN(p.Value), "step %d", p.Step)
		prev = p.Date
	}
}

func TestForecast_InvalidHorizon(t *testing.T) {
	f := New(slog.Default(), weeklyConfig())
	model, err := f.Fit(context.Background(), weeklySeries(150))
	require.NoError(t, err)

	_, err = model.Forecast(0)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeModelFit))
}

func TestModelSummary(t *testing.T) {
	f := New(slog.Default(), weeklyConfig())
	model, err := f.Fit(context.Background(), weeklySeries(150))
	require.NoError(t, err)

	summary := model.Summary()
	assert.NotEmpty(t, summary.Order)
	assert.Greater(t, summary.ModelsEvaluated, 0)
}

func TestNormalQuantile(t *testing.T) {
	tests := []struct {
		p    float64
		want float64
	}{
		{0.975, 1.96},
		{0.95, 1.645},
		{0.5, 0},
		{0.025, -1.96},
	}

	for _, tt := range tests {
		got := normalQuantile(tt.p)
		assert.InDelta(t, tt.want, got, 0.01, "p=%g", tt.p)
	}
}

func TestResidualStd(t *testing.T) {
	assert.InDelta(t, 1.0, residualStd([]float64{-1, 0, 1}), 1e-9)
	assert.Equal(t, 0.0, residualStd([]float64{5}))
	assert.Equal(t, 0.0, residualStd(nil))
}
