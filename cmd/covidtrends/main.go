// Command covidtrends runs the case-trends pipeline once: fetch the
// wide CSV, reshape it, derive the report series, fit the forecast
// model, and render the report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"covidtrends/internal/aggregate"
	"covidtrends/internal/config"
	apperrors "covidtrends/internal/errors"
	"covidtrends/internal/forecast"
	"covidtrends/internal/infrastructure"
	"covidtrends/internal/loader"
	"covidtrends/internal/report"
	"covidtrends/internal/reshape"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file (optional)")
	source := flag.String("source", "", "source CSV URL or path (overrides config)")
	outputDir := flag.String("out", "", "output directory for the report (overrides config)")
	horizon := flag.Int("horizon", 0, "forecast horizon in days (overrides config)")
	skipForecast := flag.Bool("skip-forecast", false, "skip the forecast stage")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *source != "" {
		cfg.Source.URL = *source
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *horizon > 0 {
		cfg.Forecast.Horizon = *horizon
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	ctx := infrastructure.WithRunID(context.Background(), uuid.NewString())

	if err := run(ctx, logger, cfg, *skipForecast); err != nil {
		logger.ErrorContext(ctx, "Pipeline failed",
			"error", err,
			"error_type", string(apperrors.TypeOf(err)))
		os.Exit(1)
	}
}

// run executes the five stages in order. A model-fit failure degrades
// the run to a report without the forecast section; every other stage
// failure aborts.
func run(ctx context.Context, logger *slog.Logger, cfg *config.Config, skipForecast bool) error {
	start := time.Now()

	// Stage 1: load
	df, err := loader.New(logger, cfg.Source).Fetch(ctx)
	if err != nil {
		return fmt.Errorf("loader: %w", err)
	}

	// Stage 2: reshape
	observations, err := reshape.New(logger, cfg.Source).Melt(df)
	if err != nil {
		return fmt.Errorf("reshaper: %w", err)
	}
	logger.InfoContext(ctx, "reshaped source table",
		slog.Int("observations", len(observations)))

	// Stage 3: aggregate
	derived := aggregate.Derive(observations, cfg.Forecast.SmoothingWindow)
	logger.InfoContext(ctx, "derived report series",
		slog.Int("days", len(derived.Daily)),
		slog.Int("months", len(derived.Monthly)),
		slog.Int("cross_tab_cells", len(derived.CrossTab)))

	// Stage 4: forecast (degradable)
	data := report.Data{
		RunID:           infrastructure.GetRunID(ctx),
		Source:          cfg.Source.URL,
		GeneratedAt:     time.Now(),
		SmoothingWindow: cfg.Forecast.SmoothingWindow,
		Derived:         derived,
	}
	if skipForecast {
		logger.InfoContext(ctx, "forecast stage skipped by flag")
	} else {
		model, err := forecast.New(logger, cfg.Forecast).Fit(ctx, derived.Daily)
		if err == nil {
			points, ferr := model.Forecast(cfg.Forecast.Horizon)
			if ferr != nil {
				err = ferr
			} else {
				summary := model.Summary()
				data.Forecast = points
				data.Model = &summary
			}
		}
		if err != nil {
			if !apperrors.IsType(err, apperrors.ErrTypeModelFit) {
				return fmt.Errorf("forecaster: %w", err)
			}
			logger.WarnContext(ctx, "forecast unavailable, continuing without it",
				"error", err)
		}
	}

	// Stage 5: render
	reportPath, err := report.New(logger, cfg.Output).Render(ctx, data)
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}

	logger.InfoContext(ctx, "pipeline complete",
		slog.String("report", reportPath),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}
