package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covidtrends/internal/config"
)

// TestRun_ShortSeriesDegrades drives the whole pipeline over a tiny
// fixture. The series is far shorter than two seasonal cycles, so the
// forecast stage must degrade and the report must still be written.
func TestRun_ShortSeriesDegrades(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "confirmed.csv")
	fixture := `Province/State,Country/Region,Lat,Long,1/22/20,1/23/20,1/24/20,1/25/20
,Afghanistan,33.0,65.0,0,0,0,1
Hubei,China,30.97,112.27,444,444,549,761
,Italy,41.87,12.56,0,0,0,0
`
	require.NoError(t, os.WriteFile(csvPath, []byte(fixture), 0644))

	outDir := filepath.Join(dir, "report")
	cfg := &config.Config{
		Source: config.SourceConfig{
			URL:               csvPath,
			FetchTimeout:      10 * time.Second,
			DateLayout:        "1/2/06",
			EntityColumn:      "Country/Region",
			SubEntityColumn:   "Province/State",
			IdentifierColumns: []string{"Province/State", "Country/Region", "Lat", "Long"},
		},
		Output: config.OutputConfig{
			Dir:          outDir,
			ReportName:   "covid_trends.md",
			WorkbookName: "covid_trends.xlsx",
		},
		Forecast: config.ForecastConfig{
			Horizon:         30,
			SeasonalPeriod:  365,
			Confidence:      0.95,
			SmoothingWindow: 2,
		},
	}

	require.NoError(t, run(context.Background(), slog.Default(), cfg, false))

	assert.FileExists(t, filepath.Join(outDir, "covid_trends.md"))
	assert.FileExists(t, filepath.Join(outDir, "covid_trends.xlsx"))
	assert.NoFileExists(t, filepath.Join(outDir, "charts", "forecast.png"))

	content, err := os.ReadFile(filepath.Join(outDir, "covid_trends.md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "No forecast")
}

// TestRun_LoaderFailureAborts ensures a missing source fails the run.
func TestRun_LoaderFailureAborts(t *testing.T) {
	cfg := &config.Config{
		Source: config.SourceConfig{
			URL:               filepath.Join(t.TempDir(), "absent.csv"),
			DateLayout:        "1/2/06",
			EntityColumn:      "Country/Region",
			IdentifierColumns: []string{"Country/Region"},
		},
		Output: config.OutputConfig{
			Dir:        t.TempDir(),
			ReportName: "covid_trends.md",
		},
		Forecast: config.ForecastConfig{
			Horizon:         30,
			SeasonalPeriod:  365,
			Confidence:      0.95,
			SmoothingWindow: 7,
		},
	}

	err := run(context.Background(), slog.Default(), cfg, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loader")
}
