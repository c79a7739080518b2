// Package aggregate derives the report series from long observations.
//
// All reductions are pure and order-independent with respect to their
// input rows; each produces a freshly allocated, chronologically
// sorted slice.
package aggregate

import (
	"sort"
	"time"

	"github.com/sartorproj/goarima/timeseries"

	"covidtrends/pkg/contracts/domain"
)

// DailyTotals groups observations by date and sums case counts across
// all entities. The result is sorted by date ascending with no
// duplicate dates.
func DailyTotals(observations []domain.Observation) []domain.DailyTotal {
	byDate := make(map[time.Time]int64)
	for _, obs := range observations {
		byDate[obs.Date] += obs.Cases
	}

	daily := make([]domain.DailyTotal, 0, len(byDate))
	for date, cases := range byDate {
		daily = append(daily, domain.DailyTotal{Date: date, Cases: cases})
	}
	sort.Slice(daily, func(i, j int) bool {
		return daily[i].Date.Before(daily[j].Date)
	})
	return daily
}

// MonthlyTotals groups daily totals by the first day of their month
// and sums them.
func MonthlyTotals(daily []domain.DailyTotal) []domain.MonthlyTotal {
	byMonth := make(map[time.Time]int64)
	for _, d := range daily {
		month := time.Date(d.Date.Year(), d.Date.Month(), 1, 0, 0, 0, 0, d.Date.Location())
		byMonth[month] += d.Cases
	}

	monthly := make([]domain.MonthlyTotal, 0, len(byMonth))
	for month, cases := range byMonth {
		monthly = append(monthly, domain.MonthlyTotal{Month: month, Cases: cases})
	}
	sort.Slice(monthly, func(i, j int) bool {
		return monthly[i].Month.Before(monthly[j].Month)
	})
	return monthly
}

// DailyDeltas computes the day-over-day change of the sorted daily
// series. The first delta is defined as zero.
func DailyDeltas(daily []domain.DailyTotal) []domain.DailyDelta {
	deltas := make([]domain.DailyDelta, len(daily))
	for i, d := range daily {
		delta := int64(0)
		if i > 0 {
			delta = d.Cases - daily[i-1].Cases
		}
		deltas[i] = domain.DailyDelta{Date: d.Date, Delta: delta}
	}
	return deltas
}

// Smooth applies a trailing simple moving average to the delta series.
// The result is shorter than the input by window-1 points; each value
// is stamped with the last date of its window.
func Smooth(deltas []domain.DailyDelta, window int) []domain.SmoothedDelta {
	if window < 1 || len(deltas) < window {
		return nil
	}

	timestamps := make([]time.Time, len(deltas))
	values := make([]float64, len(deltas))
	for i, d := range deltas {
		timestamps[i] = d.Date
		values[i] = float64(d.Delta)
	}

	series, err := timeseries.NewWithTimestamps(timestamps, values)
	if err != nil {
		return nil
	}
	ma := series.MovingAverage(window)

	smoothed := make([]domain.SmoothedDelta, ma.Len())
	for i := range ma.Values {
		smoothed[i] = domain.SmoothedDelta{Date: ma.Timestamps[i], Value: ma.Values[i]}
	}
	return smoothed
}

// CrossTab groups the already-aggregated daily totals by (day of
// month, calendar month), summing across years. It intentionally
// groups the summed totals rather than raw observations; the two
// agree, but the report is defined over the former. Combinations with
// no observations are absent from the result.
func CrossTab(daily []domain.DailyTotal) []domain.CrossTabCell {
	type key struct {
		day   int
		month time.Month
	}

	byCell := make(map[key]int64)
	for _, d := range daily {
		byCell[key{day: d.Date.Day(), month: d.Date.Month()}] += d.Cases
	}

	cells := make([]domain.CrossTabCell, 0, len(byCell))
	for k, cases := range byCell {
		cells = append(cells, domain.CrossTabCell{Day: k.day, Month: k.month, Cases: cases})
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Month != cells[j].Month {
			return cells[i].Month < cells[j].Month
		}
		return cells[i].Day < cells[j].Day
	})
	return cells
}

// Derive runs every reduction over the observations and bundles the
// results for the renderer.
func Derive(observations []domain.Observation, smoothingWindow int) domain.Derived {
	daily := DailyTotals(observations)
	deltas := DailyDeltas(daily)
	return domain.Derived{
		Daily:    daily,
		Monthly:  MonthlyTotals(daily),
		Deltas:   deltas,
		Smoothed: Smooth(deltas, smoothingWindow),
		CrossTab: CrossTab(daily),
	}
}
