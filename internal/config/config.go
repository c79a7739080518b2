package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// DefaultSourceURL is the JHU CSSE global confirmed-case time series,
// wide format, one column per date starting 2020-01-22.
const DefaultSourceURL = "https://raw.githubusercontent.com/CSSEGISandData/COVID-19/master/csse_covid_19_data/csse_covid_19_time_series/time_series_covid19_confirmed_global.csv"

// Config represents the complete application configuration
type Config struct {
	Source   SourceConfig   `yaml:"source" envconfig:"SOURCE"`
	Output   OutputConfig   `yaml:"output" envconfig:"OUTPUT"`
	Forecast ForecastConfig `yaml:"forecast" envconfig:"FORECAST"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

// SourceConfig describes the wide CSV input and how to reshape it.
type SourceConfig struct {
	URL          string        `yaml:"url" envconfig:"URL"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT"`
	// DateLayout is the Go layout for wide date headers. The JHU CSV
	// uses m/d/yy without zero padding.
	DateLayout string `yaml:"date_layout" envconfig:"DATE_LAYOUT"`
	// EntityColumn identifies the administrative region in each row.
	EntityColumn string `yaml:"entity_column" envconfig:"ENTITY_COLUMN"`
	// SubEntityColumn, when present and non-empty in a row, is prefixed
	// to the entity identifier (e.g. "Hubei, China").
	SubEntityColumn string `yaml:"sub_entity_column" envconfig:"SUB_ENTITY_COLUMN"`
	// IdentifierColumns are all non-date columns expected in the input;
	// their presence is the loader's schema check.
	IdentifierColumns []string `yaml:"identifier_columns" envconfig:"IDENTIFIER_COLUMNS"`
}

// OutputConfig describes where the report artifacts land.
type OutputConfig struct {
	Dir string `yaml:"dir" envconfig:"DIR"`
	// SkipXLSX and SkipCharts suppress the workbook and chart artifacts;
	// the Markdown report is always written.
	SkipXLSX     bool   `yaml:"skip_xlsx" envconfig:"SKIP_XLSX"`
	SkipCharts   bool   `yaml:"skip_charts" envconfig:"SKIP_CHARTS"`
	ReportName   string `yaml:"report_name" envconfig:"REPORT_NAME"`
	WorkbookName string `yaml:"workbook_name" envconfig:"WORKBOOK_NAME"`
}

// ForecastConfig drives the auto-ARIMA stage.
type ForecastConfig struct {
	Horizon int `yaml:"horizon" envconfig:"HORIZON"`
	// SeasonalPeriod is 365 for a daily series with annual seasonality.
	SeasonalPeriod int     `yaml:"seasonal_period" envconfig:"SEASONAL_PERIOD"`
	Confidence     float64 `yaml:"confidence" envconfig:"CONFIDENCE"`
	// SmoothingWindow is the moving-average window applied to the
	// daily-delta series for the smoothed new-cases chart.
	SmoothingWindow int `yaml:"smoothing_window" envconfig:"SMOOTHING_WINDOW"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// Load loads configuration from environment variables and an optional
// YAML config file. Environment variables take precedence.
func Load(configFile string) (*Config, error) {
	var cfg Config

	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configFile, err)
		}
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = *fileCfg
	}

	if err := envconfig.Process("COVID", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults fills fields envconfig leaves empty when a YAML file
// supplied a partial config.
func (c *Config) applyDefaults() {
	if c.Source.URL == "" {
		c.Source.URL = DefaultSourceURL
	}
	if c.Source.DateLayout == "" {
		c.Source.DateLayout = "1/2/06"
	}
	if c.Source.EntityColumn == "" {
		c.Source.EntityColumn = "Country/Region"
	}
	if c.Source.SubEntityColumn == "" {
		c.Source.SubEntityColumn = "Province/State"
	}
	if len(c.Source.IdentifierColumns) == 0 {
		c.Source.IdentifierColumns = []string{"Province/State", "Country/Region", "Lat", "Long"}
	}
	if c.Source.FetchTimeout == 0 {
		c.Source.FetchTimeout = 60 * time.Second
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "report"
	}
	if c.Output.ReportName == "" {
		c.Output.ReportName = "covid_trends.md"
	}
	if c.Output.WorkbookName == "" {
		c.Output.WorkbookName = "covid_trends.xlsx"
	}
	if c.Forecast.Horizon == 0 {
		c.Forecast.Horizon = 30
	}
	if c.Forecast.SeasonalPeriod == 0 {
		c.Forecast.SeasonalPeriod = 365
	}
	if c.Forecast.Confidence == 0 {
		c.Forecast.Confidence = 0.95
	}
	if c.Forecast.SmoothingWindow == 0 {
		c.Forecast.SmoothingWindow = 7
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// validate checks configuration invariants
func (c *Config) validate() error {
	if c.Forecast.Horizon < 1 {
		return fmt.Errorf("forecast horizon must be positive, got %d", c.Forecast.Horizon)
	}
	if c.Forecast.SeasonalPeriod < 2 {
		return fmt.Errorf("seasonal period must be at least 2, got %d", c.Forecast.SeasonalPeriod)
	}
	if c.Forecast.Confidence <= 0 || c.Forecast.Confidence >= 1 {
		return fmt.Errorf("confidence must be in (0, 1), got %g", c.Forecast.Confidence)
	}
	if c.Forecast.SmoothingWindow < 1 {
		return fmt.Errorf("smoothing window must be positive, got %d", c.Forecast.SmoothingWindow)
	}
	if c.Source.FetchTimeout < 0 {
		return fmt.Errorf("fetch timeout must not be negative, got %s", c.Source.FetchTimeout)
	}
	return nil
}
