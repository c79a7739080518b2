package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"covidtrends/pkg/contracts/domain"
)

var (
	colorCumulative = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	colorMonthly    = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	colorDelta      = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	colorSmoothed   = color.RGBA{R: 148, G: 103, B: 189, A: 255}
	colorForecast   = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	colorBound      = color.RGBA{R: 140, G: 140, B: 140, A: 255}
)

// newTimePlot creates a plot with a date-formatted X axis.
func newTimePlot(title, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Date"
	p.Y.Label.Text = yLabel
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Add(plotter.NewGrid())
	return p
}

func dailyXYs(daily []domain.DailyTotal) plotter.XYs {
	xys := make(plotter.XYs, len(daily))
	for i, d := range daily {
		xys[i].X = float64(d.Date.Unix())
		xys[i].Y = float64(d.Cases)
	}
	return xys
}

// cumulativeChart plots the daily total series as a line.
func cumulativeChart(daily []domain.DailyTotal) (*plot.Plot, error) {
	p := newTimePlot("Cumulative confirmed cases", "Total cases")

	line, err := plotter.NewLine(dailyXYs(daily))
	if err != nil {
		return nil, fmt.Errorf("cumulative line: %w", err)
	}
	line.Color = colorCumulative
	line.Width = vg.Points(1.5)
	p.Add(line)
	return p, nil
}

// monthlyChart plots monthly totals as a bar chart with one bar per
// month present in the series.
func monthlyChart(monthly []domain.MonthlyTotal) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Cases by month"
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Y.Label.Text = "Total cases"

	values := make(plotter.Values, len(monthly))
	labels := make([]string, len(monthly))
	for i, m := range monthly {
		values[i] = float64(m.Cases)
		labels[i] = m.Month.Format("2006-01")
	}

	bars, err := plotter.NewBarChart(values, vg.Points(16))
	if err != nil {
		return nil, fmt.Errorf("monthly bars: %w", err)
	}
	bars.Color = colorMonthly
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.YAlign = draw.YCenter
	p.X.Tick.Label.XAlign = draw.XRight
	return p, nil
}

// deltaChart plots the day-over-day new cases as a line.
func deltaChart(deltas []domain.DailyDelta) (*plot.Plot, error) {
	p := newTimePlot("Daily new cases", "New cases")

	xys := make(plotter.XYs, len(deltas))
	for i, d := range deltas {
		xys[i].X = float64(d.Date.Unix())
		xys[i].Y = float64(d.Delta)
	}

	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("delta line: %w", err)
	}
	line.Color = colorDelta
	p.Add(line)
	return p, nil
}

// smoothedChart overlays the moving average on the raw delta series.
func smoothedChart(deltas []domain.DailyDelta, smoothed []domain.SmoothedDelta, window int) (*plot.Plot, error) {
	p := newTimePlot(fmt.Sprintf("Daily new cases, %d-day moving average", window), "New cases")

	raw := make(plotter.XYs, len(deltas))
	for i, d := range deltas {
		raw[i].X = float64(d.Date.Unix())
		raw[i].Y = float64(d.Delta)
	}
	rawLine, err := plotter.NewLine(raw)
	if err != nil {
		return nil, fmt.Errorf("raw delta line: %w", err)
	}
	rawLine.Color = color.RGBA{R: 214, G: 39, B: 40, A: 90}

	ma := make(plotter.XYs, len(smoothed))
	for i, s := range smoothed {
		ma[i].X = float64(s.Date.Unix())
		ma[i].Y = s.Value
	}
	maLine, err := plotter.NewLine(ma)
	if err != nil {
		return nil, fmt.Errorf("smoothed line: %w", err)
	}
	maLine.Color = colorSmoothed
	maLine.Width = vg.Points(2)

	p.Add(rawLine, maLine)
	p.Legend.Add("daily", rawLine)
	p.Legend.Add("smoothed", maLine)
	p.Legend.Top = true
	return p, nil
}

// crossTabGrid adapts the day×month cells to the heat map interface.
// Absent cells carry NaN so they are left unpainted.
type crossTabGrid struct {
	z [12][31]float64
}

func newCrossTabGrid(cells []domain.CrossTabCell) *crossTabGrid {
	g := &crossTabGrid{}
	for m := 0; m < 12; m++ {
		for d := 0; d < 31; d++ {
			g.z[m][d] = math.NaN()
		}
	}
	for _, c := range cells {
		g.z[int(c.Month)-1][c.Day-1] = float64(c.Cases)
	}
	return g
}

func (g *crossTabGrid) Dims() (c, r int)   { return 31, 12 }
func (g *crossTabGrid) Z(c, r int) float64 { return g.z[r][c] }
func (g *crossTabGrid) X(c int) float64    { return float64(c + 1) }
func (g *crossTabGrid) Y(r int) float64    { return float64(r + 1) }

// crossTabChart renders the day-of-month by month heat map.
func crossTabChart(cells []domain.CrossTabCell) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Cases by day of month and month"
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Day of month"
	p.Y.Label.Text = "Month"

	heatMap := plotter.NewHeatMap(newCrossTabGrid(cells), palette.Heat(12, 1))
	p.Add(heatMap)
	return p, nil
}

// forecastChart shows the tail of the observed series followed by the
// point forecast and its prediction interval.
func forecastChart(daily []domain.DailyTotal, points []domain.ForecastPoint, historyDays int) (*plot.Plot, error) {
	p := newTimePlot(fmt.Sprintf("%d-day forecast", len(points)), "Total cases")
	p.X.Tick.Marker = plot.TimeTicks{Format: "01-02"}

	tail := daily
	if len(tail) > historyDays {
		tail = tail[len(tail)-historyDays:]
	}
	history, err := plotter.NewLine(dailyXYs(tail))
	if err != nil {
		return nil, fmt.Errorf("history line: %w", err)
	}
	history.Color = colorCumulative

	fc := make(plotter.XYs, len(points))
	lo := make(plotter.XYs, len(points))
	hi := make(plotter.XYs, len(points))
	for i, pt := range points {
		x := float64(pt.Date.Unix())
		fc[i] = plotter.XY{X: x, Y: pt.Value}
		lo[i] = plotter.XY{X: x, Y: pt.Lower}
		hi[i] = plotter.XY{X: x, Y: pt.Upper}
	}

	fcLine, err := plotter.NewLine(fc)
	if err != nil {
		return nil, fmt.Errorf("forecast line: %w", err)
	}
	fcLine.Color = colorForecast
	fcLine.Width = vg.Points(2)

	loLine, err := plotter.NewLine(lo)
	if err != nil {
		return nil, fmt.Errorf("lower bound line: %w", err)
	}
	hiLine, err := plotter.NewLine(hi)
	if err != nil {
		return nil, fmt.Errorf("upper bound line: %w", err)
	}
	for _, bound := range []*plotter.Line{loLine, hiLine} {
		bound.Color = colorBound
		bound.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	}

	p.Add(history, fcLine, loLine, hiLine)
	p.Legend.Add("observed", history)
	p.Legend.Add("forecast", fcLine)
	p.Legend.Add("interval", loLine)
	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}
