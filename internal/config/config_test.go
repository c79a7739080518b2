package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultSourceURL, cfg.Source.URL)
	assert.Equal(t, "1/2/06", cfg.Source.DateLayout)
	assert.Equal(t, "Country/Region", cfg.Source.EntityColumn)
	assert.Equal(t, "Province/State", cfg.Source.SubEntityColumn)
	assert.Equal(t, 60*time.Second, cfg.Source.FetchTimeout)
	assert.Equal(t, 30, cfg.Forecast.Horizon)
	assert.Equal(t, 365, cfg.Forecast.SeasonalPeriod)
	assert.Equal(t, 0.95, cfg.Forecast.Confidence)
	assert.Equal(t, 7, cfg.Forecast.SmoothingWindow)
	assert.Equal(t, "report", cfg.Output.Dir)
	assert.False(t, cfg.Output.SkipXLSX)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
source:
  url: file:///tmp/confirmed.csv
forecast:
  horizon: 14
  seasonal_period: 7
output:
  dir: out
  skip_xlsx: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file:///tmp/confirmed.csv", cfg.Source.URL)
	assert.Equal(t, 14, cfg.Forecast.Horizon)
	assert.Equal(t, 7, cfg.Forecast.SeasonalPeriod)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.True(t, cfg.Output.SkipXLSX)
	// Fields the file omitted keep their defaults.
	assert.Equal(t, 0.95, cfg.Forecast.Confidence)
	assert.Equal(t, "1/2/06", cfg.Source.DateLayout)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("COVID_FORECAST_HORIZON", "60")
	t.Setenv("COVID_SOURCE_ENTITY_COLUMN", "Country")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Forecast.Horizon)
	assert.Equal(t, "Country", cfg.Source.EntityColumn)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "negative horizon",
			env:     map[string]string{"COVID_FORECAST_HORIZON": "-5"},
			wantErr: "horizon",
		},
		{
			name:    "confidence out of range",
			env:     map[string]string{"COVID_FORECAST_CONFIDENCE": "1.5"},
			wantErr: "confidence",
		},
		{
			name:    "seasonal period too small",
			env:     map[string]string{"COVID_FORECAST_SEASONAL_PERIOD": "1"},
			wantErr: "seasonal period",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
