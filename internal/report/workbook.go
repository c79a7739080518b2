package report

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"covidtrends/pkg/contracts/domain"
)

// writeWorkbook exports every derived table to one Excel workbook,
// one sheet per series.
func (r *Renderer) writeWorkbook(ctx context.Context, data Data) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeDailySheet(f, data.Derived.Daily); err != nil {
		return err
	}
	if err := writeMonthlySheet(f, data.Derived.Monthly); err != nil {
		return err
	}
	if err := writeDeltaSheet(f, data.Derived.Deltas, data.Derived.Smoothed); err != nil {
		return err
	}
	if err := writeCrossTabSheet(f, data.Derived.CrossTab); err != nil {
		return err
	}
	if len(data.Forecast) > 0 {
		if err := writeForecastSheet(f, data.Forecast, data.Model); err != nil {
			return err
		}
	}

	path := filepath.Join(r.cfg.Dir, r.cfg.WorkbookName)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	r.logger.InfoContext(ctx, "workbook written", slog.String("path", path))
	return nil
}

func writeDailySheet(f *excelize.File, daily []domain.DailyTotal) error {
	const sheet = "Daily"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{"Date", "TotalCases"}); err != nil {
		return fmt.Errorf("daily header: %w", err)
	}
	for i, d := range daily {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &[]interface{}{d.Date.Format("2006-01-02"), d.Cases}); err != nil {
			return fmt.Errorf("daily row %d: %w", i, err)
		}
	}
	return nil
}

func writeMonthlySheet(f *excelize.File, monthly []domain.MonthlyTotal) error {
	const sheet = "Monthly"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create monthly sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{"Month", "TotalCases"}); err != nil {
		return fmt.Errorf("monthly header: %w", err)
	}
	for i, m := range monthly {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &[]interface{}{m.Month.Format("2006-01"), m.Cases}); err != nil {
			return fmt.Errorf("monthly row %d: %w", i, err)
		}
	}
	return nil
}

func writeDeltaSheet(f *excelize.File, deltas []domain.DailyDelta, smoothed []domain.SmoothedDelta) error {
	const sheet = "DailyNew"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create delta sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{"Date", "NewCases", "Smoothed"}); err != nil {
		return fmt.Errorf("delta header: %w", err)
	}

	smoothedByDate := make(map[string]float64, len(smoothed))
	for _, s := range smoothed {
		smoothedByDate[s.Date.Format("2006-01-02")] = s.Value
	}

	for i, d := range deltas {
		date := d.Date.Format("2006-01-02")
		row := []interface{}{date, d.Delta}
		if v, ok := smoothedByDate[date]; ok {
			row = append(row, v)
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("delta row %d: %w", i, err)
		}
	}
	return nil
}

func writeCrossTabSheet(f *excelize.File, cells []domain.CrossTabCell) error {
	const sheet = "DayMonth"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create cross-tab sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{"Day", "Month", "TotalCases"}); err != nil {
		return fmt.Errorf("cross-tab header: %w", err)
	}
	for i, c := range cells {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &[]interface{}{c.Day, c.Month.String(), c.Cases}); err != nil {
			return fmt.Errorf("cross-tab row %d: %w", i, err)
		}
	}
	return nil
}

func writeForecastSheet(f *excelize.File, points []domain.ForecastPoint, model *domain.ModelSummary) error {
	const sheet = "Forecast"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create forecast sheet: %w", err)
	}
	if model != nil {
		if err := f.SetSheetRow(sheet, "A1", &[]interface{}{"Model", model.Order}); err != nil {
			return fmt.Errorf("forecast model row: %w", err)
		}
	}
	if err := f.SetSheetRow(sheet, "A3", &[]interface{}{"Step", "Date", "Forecast", "Lower", "Upper"}); err != nil {
		return fmt.Errorf("forecast header: %w", err)
	}
	for i, p := range points {
		cell := fmt.Sprintf("A%d", i+4)
		row := []interface{}{p.Step, p.Date.Format("2006-01-02"), p.Value, p.Lower, p.Upper}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("forecast row %d: %w", i, err)
		}
	}
	return nil
}
