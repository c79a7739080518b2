// Package domain holds the data model shared by the pipeline stages.
//
// Every type is a value produced once by a stage and never mutated;
// derived series are pure functions of the daily series and carry no
// independent lifecycle.
package domain

import "time"

// Observation is one long-format row: the cumulative case count
// reported for one entity on one date.
type Observation struct {
	Entity string    `json:"entity"`
	Date   time.Time `json:"date"`
	Cases  int64     `json:"cases"`
}

// DailyTotal is the case count summed across all entities for one
// date. A daily series is a chronologically ordered slice of these
// with strictly increasing dates.
type DailyTotal struct {
	Date  time.Time `json:"date"`
	Cases int64     `json:"cases"`
}

// MonthlyTotal is the sum of daily totals grouped by the first day of
// their month.
type MonthlyTotal struct {
	Month time.Time `json:"month"`
	Cases int64     `json:"cases"`
}

// DailyDelta is the day-over-day change of the daily series. The
// first delta is defined as zero.
type DailyDelta struct {
	Date  time.Time `json:"date"`
	Delta int64     `json:"delta"`
}

// SmoothedDelta is a trailing moving-average value of the delta
// series; Date is the last day of the averaging window.
type SmoothedDelta struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// CrossTabCell is one tile of the day-of-month × calendar-month
// cross-tabulation. Cases is the sum of already-aggregated daily
// totals across every year sharing (Day, Month); absent combinations
// are omitted rather than zero-filled.
type CrossTabCell struct {
	Day   int        `json:"day"`
	Month time.Month `json:"month"`
	Cases int64      `json:"cases"`
}

// ForecastPoint is one step of the model forecast.
type ForecastPoint struct {
	Step  int       `json:"step"`
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
	Lower float64   `json:"lower"`
	Upper float64   `json:"upper"`
}

// ModelSummary describes the automatically selected model, for the
// report's model section.
type ModelSummary struct {
	Order           string  `json:"order"`
	Seasonal        bool    `json:"seasonal"`
	SeasonalPeriod  int     `json:"seasonal_period,omitempty"`
	AIC             float64 `json:"aic"`
	BIC             float64 `json:"bic"`
	ModelsEvaluated int     `json:"models_evaluated"`
}

// Derived bundles every series computed from the long observations.
// The report renderer consumes this as a whole.
type Derived struct {
	Daily    []DailyTotal    `json:"daily"`
	Monthly  []MonthlyTotal  `json:"monthly"`
	Deltas   []DailyDelta    `json:"deltas"`
	Smoothed []SmoothedDelta `json:"smoothed"`
	CrossTab []CrossTabCell  `json:"cross_tab"`
}
