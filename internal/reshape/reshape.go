// Package reshape converts the wide source table (one column per
// date) into long observations (one row per entity per date).
package reshape

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	gotaseries "github.com/go-gota/gota/series"

	"covidtrends/internal/config"
	apperrors "covidtrends/internal/errors"
	"covidtrends/pkg/contracts/domain"
)

// Reshaper unpivots the wide table into long observations.
type Reshaper struct {
	logger *slog.Logger
	cfg    config.SourceConfig
}

// New creates a reshaper for the given source configuration.
func New(logger *slog.Logger, cfg config.SourceConfig) *Reshaper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reshaper{logger: logger, cfg: cfg}
}

// Melt emits one observation per (row, date column) pair. Date headers
// are parsed with the configured layout; the first unparseable header
// fails the reshape. Empty numeric cells count as zero.
func (r *Reshaper) Melt(df dataframe.DataFrame) ([]domain.Observation, error) {
	identifier := make(map[string]bool, len(r.cfg.IdentifierColumns))
	for _, col := range r.cfg.IdentifierColumns {
		identifier[col] = true
	}

	type dateColumn struct {
		name string
		date time.Time
	}

	var dateCols []dateColumn
	for _, name := range df.Names() {
		if identifier[name] {
			continue
		}
		date, err := time.Parse(r.cfg.DateLayout, name)
		if err != nil {
			return nil, apperrors.MalformedDate(name, err)
		}
		dateCols = append(dateCols, dateColumn{name: name, date: date})
	}

	entityCol := df.Col(r.cfg.EntityColumn)
	hasSub := r.cfg.SubEntityColumn != "" && contains(df.Names(), r.cfg.SubEntityColumn)
	var subCol gotaseries.Series
	if hasSub {
		subCol = df.Col(r.cfg.SubEntityColumn)
	}

	valueCols := make([]gotaseries.Series, len(dateCols))
	for i, dc := range dateCols {
		valueCols[i] = df.Col(dc.name)
	}

	observations := make([]domain.Observation, 0, df.Nrow()*len(dateCols))
	for row := 0; row < df.Nrow(); row++ {
		entity := strings.TrimSpace(entityCol.Elem(row).String())
		if hasSub {
			if sub := strings.TrimSpace(subCol.Elem(row).String()); sub != "" {
				entity = sub + ", " + entity
			}
		}

		for i, dc := range dateCols {
			raw := strings.TrimSpace(valueCols[i].Elem(row).String())
			cases, err := parseCases(raw)
			if err != nil {
				return nil, apperrors.DataUnavailable(
					fmt.Sprintf("invalid case count %q for %s on %s", raw, entity, dc.name), err)
			}
			observations = append(observations, domain.Observation{
				Entity: entity,
				Date:   dc.date,
				Cases:  cases,
			})
		}
	}

	r.logger.Debug("reshaped wide table",
		slog.Int("rows", df.Nrow()),
		slog.Int("date_columns", len(dateCols)),
		slog.Int("observations", len(observations)))

	return observations, nil
}

// parseCases interprets a wide-table cell. Missing values count as
// zero; anything else must be a non-negative integer.
func parseCases(raw string) (int64, error) {
	if raw == "" || raw == "NA" || raw == "NaN" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative case count %d", n)
	}
	return n, nil
}

func contains(names []string, target string) bool {
	for _, n := range names {
		if n == target {
			return true
		}
	}
	return false
}
