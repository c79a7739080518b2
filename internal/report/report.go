// Package report renders the derived series into the final artifacts:
// individual PNG charts, a combined stacked figure, an Excel workbook
// of the underlying tables, and a Markdown report.
//
// No numeric work happens here; every value plotted or written was
// computed by the aggregate or forecast packages.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"covidtrends/internal/config"
	"covidtrends/pkg/contracts/domain"
)

// Data is everything the renderer needs for one report.
type Data struct {
	RunID           string
	Source          string
	GeneratedAt     time.Time
	SmoothingWindow int
	Derived         domain.Derived
	// Forecast and Model are nil when the forecast stage failed; the
	// report is then generated without the forecast section.
	Forecast []domain.ForecastPoint
	Model    *domain.ModelSummary
}

// Renderer writes the report artifacts.
type Renderer struct {
	logger *slog.Logger
	cfg    config.OutputConfig
}

// New creates a renderer for the given output configuration.
func New(logger *slog.Logger, cfg config.OutputConfig) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{logger: logger, cfg: cfg}
}

const (
	chartWidth  = 8 * vg.Inch
	chartHeight = 5 * vg.Inch

	// forecastHistoryDays is how much observed history the forecast
	// chart shows before the forecast start.
	forecastHistoryDays = 90
)

// Render writes every enabled artifact under the output directory and
// returns the path of the Markdown report.
func (r *Renderer) Render(ctx context.Context, data Data) (string, error) {
	if err := os.MkdirAll(r.cfg.Dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	var chartFiles []string
	if !r.cfg.SkipCharts {
		files, err := r.renderCharts(ctx, data)
		if err != nil {
			return "", err
		}
		chartFiles = files
	}

	if !r.cfg.SkipXLSX {
		if err := r.writeWorkbook(ctx, data); err != nil {
			return "", err
		}
	}

	reportPath := filepath.Join(r.cfg.Dir, r.cfg.ReportName)
	if err := r.writeMarkdown(reportPath, data, chartFiles); err != nil {
		return "", err
	}

	r.logger.InfoContext(ctx, "report written",
		slog.String("path", reportPath),
		slog.Int("charts", len(chartFiles)))
	return reportPath, nil
}

// renderCharts writes the individual chart PNGs plus the combined
// stacked figure, returning the file names relative to the output dir.
func (r *Renderer) renderCharts(ctx context.Context, data Data) ([]string, error) {
	chartsDir := filepath.Join(r.cfg.Dir, "charts")
	if err := os.MkdirAll(chartsDir, 0755); err != nil {
		return nil, fmt.Errorf("create charts directory: %w", err)
	}

	cumulative, err := cumulativeChart(data.Derived.Daily)
	if err != nil {
		return nil, err
	}
	monthly, err := monthlyChart(data.Derived.Monthly)
	if err != nil {
		return nil, err
	}
	delta, err := deltaChart(data.Derived.Deltas)
	if err != nil {
		return nil, err
	}
	smoothed, err := smoothedChart(data.Derived.Deltas, data.Derived.Smoothed, data.SmoothingWindow)
	if err != nil {
		return nil, err
	}
	crossTab, err := crossTabChart(data.Derived.CrossTab)
	if err != nil {
		return nil, err
	}

	charts := []struct {
		name string
		plot *plot.Plot
	}{
		{"cumulative.png", cumulative},
		{"monthly.png", monthly},
		{"daily_new.png", delta},
		{"daily_new_smoothed.png", smoothed},
		{"day_month_crosstab.png", crossTab},
	}

	// The forecast chart is only present when the model fit succeeded.
	fourth := crossTab
	if len(data.Forecast) > 0 {
		fc, err := forecastChart(data.Derived.Daily, data.Forecast, forecastHistoryDays)
		if err != nil {
			return nil, err
		}
		charts = append(charts, struct {
			name string
			plot *plot.Plot
		}{"forecast.png", fc})
		fourth = fc
	}

	files := make([]string, 0, len(charts)+1)
	for _, c := range charts {
		path := filepath.Join(chartsDir, c.name)
		if err := c.plot.Save(chartWidth, chartHeight, path); err != nil {
			return nil, fmt.Errorf("save %s: %w", c.name, err)
		}
		files = append(files, filepath.Join("charts", c.name))
	}

	combined := filepath.Join("charts", "combined.png")
	if err := r.renderCombined(filepath.Join(r.cfg.Dir, combined), [][]*plot.Plot{
		{cumulative, monthly},
		{smoothed, fourth},
	}); err != nil {
		return nil, err
	}
	files = append(files, combined)

	r.logger.DebugContext(ctx, "charts rendered", slog.Int("count", len(files)))
	return files, nil
}

// renderCombined tiles the given plots onto one canvas.
func (r *Renderer) renderCombined(path string, plots [][]*plot.Plot) error {
	rows := len(plots)
	cols := len(plots[0])

	img := vgimg.New(vg.Length(cols)*chartWidth, vg.Length(rows)*chartHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: rows,
		Cols: cols,
		PadX: vg.Millimeter * 2,
		PadY: vg.Millimeter * 2,
	}

	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		for j := range plots[i] {
			if plots[i][j] != nil {
				plots[i][j].Draw(canvases[i][j])
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create combined figure: %w", err)
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("write combined figure: %w", err)
	}
	return nil
}

// The two narrative blocks of the report. The data caveats are fixed
// properties of the source dataset, not of any particular run.
const (
	biasDiscussion = `Reported case counts understate true infections: testing capacity,
reporting lags, and changing case definitions all vary by country and
over time. Cumulative counts also never decrease by construction, so
data corrections show up as artificial single-day spikes or negative
daily deltas. Cross-country comparisons drawn from these charts
should be treated as indicative, not exact.`

	conclusion = `The cumulative series remains the most stable view of the outbreak;
daily deltas are noisy and benefit from the moving-average smoothing
shown above. The seasonal ARIMA forecast extrapolates the recent
trajectory and its interval widens quickly with the horizon - it is a
short-term planning aid, not a long-range prediction.`
)

var reportTemplate = template.Must(template.New("report").Parse(`# COVID-19 case trends

Generated {{.GeneratedAt}} (run {{.RunID}})
Source: {{.Source}}

Observations: {{.Observations}} daily totals from {{.FirstDate}} to {{.LastDate}}.

## Charts

{{range .Charts}}![{{.}}]({{.}})
{{end}}
{{if .Model}}## Forecast model

Selected by AIC search: {{.Model.Order}} over {{.Model.ModelsEvaluated}} candidate models
(AIC {{printf "%.1f" .Model.AIC}}, BIC {{printf "%.1f" .Model.BIC}}).
{{else}}## Forecast model

No forecast: the model fit failed or was skipped for this run.
{{end}}
## Data bias

{{.Bias}}

## Conclusion

{{.Conclusion}}
`))

type reportContext struct {
	GeneratedAt  string
	RunID        string
	Source       string
	Observations int
	FirstDate    string
	LastDate     string
	Charts       []string
	Model        *domain.ModelSummary
	Bias         string
	Conclusion   string
}

func (r *Renderer) writeMarkdown(path string, data Data, chartFiles []string) error {
	rc := reportContext{
		GeneratedAt: data.GeneratedAt.Format(time.RFC3339),
		RunID:       data.RunID,
		Source:      data.Source,
		Charts:      chartFiles,
		Model:       data.Model,
		Bias:        biasDiscussion,
		Conclusion:  conclusion,
	}
	if n := len(data.Derived.Daily); n > 0 {
		rc.Observations = n
		rc.FirstDate = data.Derived.Daily[0].Date.Format("2006-01-02")
		rc.LastDate = data.Derived.Daily[n-1].Date.Format("2006-01-02")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	if err := reportTemplate.Execute(f, rc); err != nil {
		return fmt.Errorf("render report template: %w", err)
	}
	return nil
}
