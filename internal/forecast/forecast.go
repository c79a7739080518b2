// Package forecast fits a seasonal ARIMA model to the daily series
// and produces the fixed-horizon forecast.
//
// Model-order selection is delegated entirely to the auto-ARIMA
// search; this package only validates the input series, runs the
// search, and maps the output onto forecast points with calendar
// dates and prediction intervals.
package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sartorproj/goarima/autoarima"
	"github.com/sartorproj/goarima/timeseries"

	"covidtrends/internal/config"
	apperrors "covidtrends/internal/errors"
	"covidtrends/pkg/contracts/domain"
)

// Forecaster fits models over daily-total series.
type Forecaster struct {
	logger *slog.Logger
	cfg    config.ForecastConfig
}

// New creates a forecaster with the given configuration.
func New(logger *slog.Logger, cfg config.ForecastConfig) *Forecaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forecaster{logger: logger, cfg: cfg}
}

// Model is a fitted model bound to the series it was fitted on.
type Model struct {
	result     *autoarima.Result
	lastDate   time.Time
	confidence float64
}

// Fit validates the daily series and runs the auto-ARIMA search. The
// series must span at least two full seasonal cycles and contain only
// finite values; otherwise a MODEL_FIT_FAILURE error is returned.
func (f *Forecaster) Fit(ctx context.Context, daily []domain.DailyTotal) (*Model, error) {
	if len(daily) < 2*f.cfg.SeasonalPeriod {
		return nil, apperrors.ModelFit(
			fmt.Sprintf("series has %d points, need %d (two seasonal cycles of %d)",
				len(daily), 2*f.cfg.SeasonalPeriod, f.cfg.SeasonalPeriod), nil)
	}

	timestamps := make([]time.Time, len(daily))
	values := make([]float64, len(daily))
	for i, d := range daily {
		timestamps[i] = d.Date
		values[i] = float64(d.Cases)
		if math.IsNaN(values[i]) || math.IsInf(values[i], 0) {
			return nil, apperrors.ModelFit(
				fmt.Sprintf("non-finite value at %s", d.Date.Format("2006-01-02")), nil)
		}
	}

	series, err := timeseries.NewWithTimestamps(timestamps, values)
	if err != nil {
		return nil, apperrors.ModelFit("cannot build series", err)
	}

	searchCfg := autoarima.DefaultConfig()
	searchCfg.Seasonal = true
	searchCfg.SeasonalM = f.cfg.SeasonalPeriod

	f.logger.InfoContext(ctx, "starting auto-ARIMA search",
		slog.Int("points", len(daily)),
		slog.Int("seasonal_period", f.cfg.SeasonalPeriod))

	result, err := autoarima.AutoARIMA(series, searchCfg)
	if err != nil {
		return nil, apperrors.ModelFit("auto-ARIMA search failed", err)
	}
	if result == nil || (result.Model == nil && result.SeasonalModel == nil) {
		return nil, apperrors.ModelFit("auto-ARIMA search found no fittable model", nil)
	}

	f.logger.InfoContext(ctx, "model selected",
		slog.String("order", orderString(result)),
		slog.Float64("aic", result.AIC),
		slog.Int("models_evaluated", result.ModelsEvaluated))

	return &Model{
		result:     result,
		lastDate:   daily[len(daily)-1].Date,
		confidence: f.cfg.Confidence,
	}, nil
}

// Forecast produces the fixed-horizon forecast: one point per future
// day, dates strictly increasing from the day after the last observed
// date, with lower <= value <= upper at every step.
func (m *Model) Forecast(horizon int) ([]domain.ForecastPoint, error) {
	if horizon < 1 {
		return nil, apperrors.ModelFit(fmt.Sprintf("horizon must be positive, got %d", horizon), nil)
	}

	var values, lower, upper []float64
	var err error

	if m.result.IsSeasonal && m.result.SeasonalModel != nil {
		values, lower, upper, err = m.result.SeasonalModel.PredictWithInterval(horizon, m.confidence)
		if err != nil {
			return nil, apperrors.ModelFit("prediction failed", err)
		}
	} else {
		// The search settled on a non-seasonal ARIMA, which only
		// produces point forecasts. Derive intervals from the residual
		// standard error widened by sqrt(h).
		values, err = m.result.Model.Predict(horizon)
		if err != nil {
			return nil, apperrors.ModelFit("prediction failed", err)
		}
		sigma := residualStd(m.result.Model.Residuals())
		z := normalQuantile(1 - (1-m.confidence)/2)
		lower = make([]float64, horizon)
		upper = make([]float64, horizon)
		for h := 0; h < horizon; h++ {
			margin := z * sigma * math.Sqrt(float64(h+1))
			lower[h] = values[h] - margin
			upper[h] = values[h] + margin
		}
	}

	points := make([]domain.ForecastPoint, horizon)
	for h := 0; h < horizon; h++ {
		points[h] = domain.ForecastPoint{
			Step:  h + 1,
			Date:  m.lastDate.AddDate(0, 0, h+1),
			Value: values[h],
			Lower: lower[h],
			Upper: upper[h],
		}
	}
	return points, nil
}

// Summary describes the selected model for the report.
func (m *Model) Summary() domain.ModelSummary {
	return domain.ModelSummary{
		Order:           orderString(m.result),
		Seasonal:        m.result.IsSeasonal,
		SeasonalPeriod:  m.result.M,
		AIC:             m.result.AIC,
		BIC:             m.result.BIC,
		ModelsEvaluated: m.result.ModelsEvaluated,
	}
}

func orderString(r *autoarima.Result) string {
	if r.IsSeasonal {
		return fmt.Sprintf("SARIMA(%d,%d,%d)(%d,%d,%d)[%d]", r.P, r.D, r.Q, r.SP, r.SD, r.SQ, r.M)
	}
	return fmt.Sprintf("ARIMA(%d,%d,%d)", r.P, r.D, r.Q)
}

func residualStd(residuals []float64) float64 {
	if len(residuals) < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range residuals {
		mean += r
	}
	mean /= float64(len(residuals))

	sumSq := 0.0
	for _, r := range residuals {
		diff := r - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(residuals)-1))
}

// normalQuantile returns the z-value for a given probability
// (Abramowitz & Stegun 26.2.23).
func normalQuantile(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}
	if p < 0.5 {
		return -normalQuantile(1 - p)
	}

	t := math.Sqrt(-2 * math.Log(1-p))
	c0, c1, c2 := 2.515517, 0.802853, 0.010328
	d1, d2, d3 := 1.432788, 0.189269, 0.001308

	return t - (c0+c1*t+c2*t*t)/(1+d1*t+d2*t*t+d3*t*t*t)
}
