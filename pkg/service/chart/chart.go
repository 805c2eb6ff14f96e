package chart

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/deathweek/pkg/domain/model"
	"github.com/secmon-lab/deathweek/pkg/domain/types"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const curveSamples = 200

// weekdayPalette is indexed by types.Weekday, Monday first
var weekdayPalette = [...]color.Color{
	color.RGBA{R: 0xe4, G: 0x1a, B: 0x1c, A: 0xff},
	color.RGBA{R: 0x37, G: 0x7e, B: 0xb8, A: 0xff},
	color.RGBA{R: 0x4d, G: 0xaf, B: 0x4a, A: 0xff},
	color.RGBA{R: 0x98, G: 0x4e, B: 0xa3, A: 0xff},
	color.RGBA{R: 0xff, G: 0x7f, B: 0x00, A: 0xff},
	color.RGBA{R: 0xa6, G: 0x56, B: 0x28, A: 0xff},
	color.RGBA{R: 0xf7, G: 0x81, B: 0xbf, A: 0xff},
}

var (
	pointColor = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	curveColor = color.RGBA{R: 0x33, G: 0x66, B: 0xff, A: 0xff}
	refColor   = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
)

// WeekdayColor returns the palette colour for a weekday
func WeekdayColor(w types.Weekday) color.Color {
	if !w.IsValid() {
		return pointColor
	}
	return weekdayPalette[w.Index()]
}

// Renderer draws charts into an output directory
type Renderer struct {
	dir    string
	sub    string
	format string
	width  vg.Length
	height vg.Length
	smooth Loess
}

// Option configures Renderer
type Option func(*Renderer)

// WithFormat sets the image format, "png" or "svg"
func WithFormat(format string) Option {
	return func(r *Renderer) {
		r.format = strings.ToLower(strings.TrimPrefix(format, "."))
	}
}

// WithSize sets the image size in inches
func WithSize(width, height float64) Option {
	return func(r *Renderer) {
		r.width = vg.Length(width) * vg.Inch
		r.height = vg.Length(height) * vg.Inch
	}
}

// WithSmoother replaces the default LOESS parameters
func WithSmoother(l Loess) Option {
	return func(r *Renderer) {
		r.smooth = l
	}
}

// New creates a Renderer writing to dir
func New(dir string, opts ...Option) *Renderer {
	r := &Renderer{
		dir:    dir,
		format: "png",
		width:  8 * vg.Inch,
		height: 4.5 * vg.Inch,
		smooth: DefaultLoess(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ForReport returns a copy of the Renderer that writes into <dir>/<id>/, so each report
// keeps its own images.
func (r *Renderer) ForReport(id types.ReportID) *Renderer {
	c := *r
	c.sub = id.String()
	return &c
}

// Path returns the file path a chart is written to
func (r *Renderer) Path(name types.ChartName) string {
	return filepath.Join(r.dir, r.file(name))
}

func (r *Renderer) file(name types.ChartName) string {
	return filepath.Join(r.sub, name.String()+"."+r.format)
}

// RenderDailySeries draws daily counts over report dates with points coloured by weekday
func (r *Renderer) RenderDailySeries(ctx context.Context, records []model.DailyDeathRecord) (model.Chart, error) {
	p := newPlot("Daily deaths by report date", "Report date", "Deaths")

	if len(records) > 0 {
		all := make(plotter.XYs, len(records))
		byDay := make(map[types.Weekday]plotter.XYs)
		for i, rec := range records {
			xy := plotter.XY{X: timeX(rec.ReportDate), Y: float64(rec.DailyCount)}
			all[i] = xy
			byDay[rec.DayOfWeek] = append(byDay[rec.DayOfWeek], xy)
		}

		line, err := plotter.NewLine(all)
		if err != nil {
			return model.Chart{}, goerr.Wrap(err, "failed to build daily line")
		}
		line.LineStyle.Color = refColor
		line.LineStyle.Width = vg.Points(1)
		p.Add(line)

		for _, day := range types.AllWeekdays() {
			xys, ok := byDay[day]
			if !ok {
				continue
			}
			s, err := newScatter(xys, WeekdayColor(day))
			if err != nil {
				return model.Chart{}, err
			}
			p.Add(s)
			p.Legend.Add(day.String(), s)
		}
	}

	return r.save(ctx, p, types.ChartDailySeries)
}

// RenderWeeklyTotals draws complete weekly totals with a smoothing curve. Partial weeks
// are left out.
func (r *Renderer) RenderWeeklyTotals(ctx context.Context, weeks []model.WeeklyAggregate) (model.Chart, error) {
	xys := weeklyTotalsSeries(weeks)

	p := newPlot("Weekly deaths (complete weeks)", "Week starting", "Deaths")
	if err := r.addSmoothedScatter(ctx, p, xys); err != nil {
		return model.Chart{}, err
	}
	return r.save(ctx, p, types.ChartWeeklyTotals)
}

// RenderWeeklyChange draws the week-over-week change of complete weeks with a smoothing
// curve. Weeks without a change value are left out.
func (r *Renderer) RenderWeeklyChange(ctx context.Context, weeks []model.WeeklyAggregate) (model.Chart, error) {
	xys := weeklyChangeSeries(weeks)

	p := newPlot("Week-over-week change in deaths", "Week starting", "Change from previous week")
	if err := r.addSmoothedScatter(ctx, p, xys); err != nil {
		return model.Chart{}, err
	}
	return r.save(ctx, p, types.ChartWeeklyChange)
}

// RenderNationalStats draws weekly Covid deaths from the national statistics table
func (r *Renderer) RenderNationalStats(ctx context.Context, records []model.NationalStatsRecord) (model.Chart, error) {
	xys := make(plotter.XYs, 0, len(records))
	for _, rec := range records {
		xys = append(xys, plotter.XY{X: timeX(rec.WeekEnding), Y: float64(rec.CovidDeaths)})
	}

	p := newPlot("Weekly deaths involving COVID-19 (national statistics)", "Week ending", "Deaths")
	if err := r.addSmoothedScatter(ctx, p, xys); err != nil {
		return model.Chart{}, err
	}
	return r.save(ctx, p, types.ChartNationalStats)
}

func weeklyTotalsSeries(weeks []model.WeeklyAggregate) plotter.XYs {
	complete, _ := model.PartitionComplete(weeks)
	xys := make(plotter.XYs, 0, len(complete))
	for _, w := range complete {
		xys = append(xys, plotter.XY{X: timeX(w.WeekStart), Y: float64(w.TotalDeaths)})
	}
	return xys
}

func weeklyChangeSeries(weeks []model.WeeklyAggregate) plotter.XYs {
	complete, _ := model.PartitionComplete(weeks)
	xys := make(plotter.XYs, 0, len(complete))
	for _, w := range complete {
		if !w.HasChange() {
			continue
		}
		xys = append(xys, plotter.XY{X: timeX(w.WeekStart), Y: float64(*w.Change)})
	}
	return xys
}

// smoothingInput splits points into the x and y slices handed to the smoother
func smoothingInput(xys plotter.XYs) ([]float64, []float64) {
	xs := make([]float64, len(xys))
	ys := make([]float64, len(xys))
	for i, xy := range xys {
		xs[i], ys[i] = xy.X, xy.Y
	}
	return xs, ys
}

func (r *Renderer) addSmoothedScatter(ctx context.Context, p *plot.Plot, xys plotter.XYs) error {
	if len(xys) == 0 {
		return nil
	}

	s, err := newScatter(xys, pointColor)
	if err != nil {
		return err
	}
	p.Add(s)

	if len(xys) >= MinSmoothPoints {
		xs, ys := smoothingInput(xys)
		at := Linspace(xs[0], xs[len(xs)-1], curveSamples)
		fitted, err := r.smooth.Fit(xs, ys, at)
		if err != nil {
			ctxlog.From(ctx).Warn("skipping smoothing curve", "error", err)
		} else {
			curve := make(plotter.XYs, len(at))
			for i := range at {
				curve[i] = plotter.XY{X: at[i], Y: fitted[i]}
			}
			line, err := plotter.NewLine(curve)
			if err != nil {
				return goerr.Wrap(err, "failed to build smoothing curve")
			}
			line.LineStyle.Color = curveColor
			line.LineStyle.Width = vg.Points(1.5)
			p.Add(line)
		}
	}

	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	zero.LineStyle.Color = refColor
	zero.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(zero)
	if p.Y.Min > 0 {
		p.Y.Min = 0
	}
	if p.Y.Max < 0 {
		p.Y.Max = 0
	}
	return nil
}

func (r *Renderer) save(ctx context.Context, p *plot.Plot, name types.ChartName) (model.Chart, error) {
	path := r.Path(name)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return model.Chart{}, goerr.Wrap(err, "failed to create chart directory",
			goerr.T(model.ErrTagIO),
			goerr.V("dir", dir))
	}

	if err := p.Save(r.width, r.height, path); err != nil {
		return model.Chart{}, goerr.Wrap(err, "failed to save chart",
			goerr.T(model.ErrTagIO),
			goerr.V("path", path))
	}

	ctxlog.From(ctx).Info("chart rendered", "chart", name, "path", path)
	return model.Chart{Name: name, Path: path, File: filepath.ToSlash(r.file(name))}, nil
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

func newScatter(xys plotter.XYs, c color.Color) (*plotter.Scatter, error) {
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build scatter")
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(2.5)
	return s, nil
}

func timeX(d time.Time) float64 {
	return float64(d.Unix())
}
