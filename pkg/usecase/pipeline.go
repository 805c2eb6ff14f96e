package usecase

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/deathweek/pkg/domain/interfaces"
	"github.com/secmon-lab/deathweek/pkg/domain/model"
	"github.com/secmon-lab/deathweek/pkg/service/chart"
	"github.com/secmon-lab/deathweek/pkg/service/fetch"
)

// Stage names attached to pipeline errors
const (
	StageConfig       = "config"
	StageFetchDaily   = "fetch_daily"
	StageDecodeDaily  = "decode_daily"
	StageFetchWeekly  = "fetch_weekly"
	StageDecodeWeekly = "decode_weekly"
	StageRender       = "render"
	StageSave         = "save"
	StagePublish      = "publish"
)

// Sources locates the two input tables
type Sources struct {
	DailyURL    string
	WeeklyURL   string
	Spreadsheet fetch.SpreadsheetLayout
	National    NationalLayout
}

// Validate checks that both sources are set
func (s Sources) Validate() error {
	if s.DailyURL == "" {
		return goerr.New("daily deaths URL is required")
	}
	if s.WeeklyURL == "" {
		return goerr.New("weekly deaths URL is required")
	}
	return nil
}

// Fetcher retrieves the source tables
type Fetcher interface {
	FetchCSV(ctx context.Context, url string) (*fetch.Table, error)
	FetchSpreadsheet(ctx context.Context, url string, layout fetch.SpreadsheetLayout) (*fetch.Table, error)
}

// Pipeline runs fetch, aggregation and rendering once per call to Run
type Pipeline struct {
	mu        sync.Mutex
	fetcher   Fetcher
	renderer  *chart.Renderer
	repo      interfaces.ReportRepository
	sources   Sources
	narrator  interfaces.Narrator
	publisher interfaces.Publisher
	out       io.Writer
	now       func() time.Time
}

// PipelineOption is a functional option for configuring Pipeline
type PipelineOption func(*Pipeline)

// WithNarrator adds an LLM narrative to each report
func WithNarrator(n interfaces.Narrator) PipelineOption {
	return func(p *Pipeline) {
		p.narrator = n
	}
}

// WithPublisher publishes each finished report
func WithPublisher(pub interfaces.Publisher) PipelineOption {
	return func(p *Pipeline) {
		p.publisher = pub
	}
}

// WithOutput sets where the excluded partial weeks table is printed
func WithOutput(w io.Writer) PipelineOption {
	return func(p *Pipeline) {
		p.out = w
	}
}

// WithClock overrides the current time
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		p.now = now
	}
}

// NewPipeline creates a new Pipeline
func NewPipeline(fetcher Fetcher, renderer *chart.Renderer, repo interfaces.ReportRepository, sources Sources, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		fetcher:  fetcher,
		renderer: renderer,
		repo:     repo,
		sources:  sources,
		out:      os.Stdout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the pipeline once. Any stage failure aborts the run and is returned with
// the stage name; no charts are rendered unless both sources decoded cleanly. Concurrent
// calls are serialised.
func (p *Pipeline) Run(ctx context.Context) (*model.Report, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	logger := ctxlog.From(ctx)
	if err := p.sources.Validate(); err != nil {
		return nil, stageError(err, StageConfig, "")
	}

	report := model.NewReport(p.now().UTC())
	logger = logger.With("report", report.ID)
	ctx = ctxlog.With(ctx, logger)

	dailyTable, err := p.fetcher.FetchCSV(ctx, p.sources.DailyURL)
	if err != nil {
		return nil, stageError(err, StageFetchDaily, p.sources.DailyURL)
	}
	report.DailySource = model.Source{URL: p.sources.DailyURL, Rows: dailyTable.Len(), FetchedAt: p.now().UTC()}

	daily, err := DecodeDaily(dailyTable)
	if err != nil {
		return nil, stageError(err, StageDecodeDaily, p.sources.DailyURL)
	}

	report.Weeks = model.WithWeekOverWeekChange(model.AggregateByWeek(daily))
	_, report.PartialWeeks = model.PartitionComplete(report.Weeks)
	logger.Info("daily deaths aggregated",
		"days", len(daily),
		"weeks", len(report.Weeks),
		"partial_weeks", len(report.PartialWeeks))

	weeklyTable, err := p.fetcher.FetchSpreadsheet(ctx, p.sources.WeeklyURL, p.sources.Spreadsheet)
	if err != nil {
		return nil, stageError(err, StageFetchWeekly, p.sources.WeeklyURL)
	}
	report.WeeklySource = model.Source{URL: p.sources.WeeklyURL, Rows: weeklyTable.Len(), FetchedAt: p.now().UTC()}

	report.National, err = DecodeNational(weeklyTable, p.sources.National, p.now())
	if err != nil {
		return nil, stageError(err, StageDecodeWeekly, p.sources.WeeklyURL)
	}
	logger.Info("national statistics decoded", "weeks", len(report.National))

	if err := p.render(ctx, report, daily); err != nil {
		return nil, stageError(err, StageRender, "")
	}

	if err := PrintPartialWeeks(p.out, report.PartialWeeks); err != nil {
		return nil, goerr.Wrap(err, "failed to print partial weeks", goerr.T(model.ErrTagIO))
	}

	if p.narrator != nil {
		narrative, err := p.narrator.Narrate(ctx, report)
		if err != nil {
			logger.Warn("narrative generation failed, continuing without it", "error", err)
		} else {
			report.Narrative = narrative
		}
	}

	if err := p.repo.PutReport(ctx, report); err != nil {
		return nil, stageError(err, StageSave, "")
	}

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, report); err != nil {
			return report, stageError(err, StagePublish, "")
		}
	}

	logger.Info("pipeline completed", "charts", len(report.Charts))
	return report, nil
}

func (p *Pipeline) render(ctx context.Context, report *model.Report, daily []model.DailyDeathRecord) error {
	renderer := p.renderer.ForReport(report.ID)
	steps := []func() (model.Chart, error){
		func() (model.Chart, error) { return renderer.RenderDailySeries(ctx, daily) },
		func() (model.Chart, error) { return renderer.RenderWeeklyTotals(ctx, report.Weeks) },
		func() (model.Chart, error) { return renderer.RenderWeeklyChange(ctx, report.Weeks) },
		func() (model.Chart, error) { return renderer.RenderNationalStats(ctx, report.National) },
	}
	for _, step := range steps {
		c, err := step()
		if err != nil {
			return err
		}
		report.Charts = append(report.Charts, c)
	}
	return nil
}

func stageError(err error, stage, url string) error {
	opts := []goerr.Option{goerr.V("stage", stage)}
	if url != "" {
		opts = append(opts, goerr.V("url", url))
	}
	return goerr.Wrap(err, fmt.Sprintf("%s failed", stage), opts...)
}

// PrintPartialWeeks writes a table of weeks excluded from smoothing because they have
// fewer than seven days of data
func PrintPartialWeeks(w io.Writer, weeks []model.WeeklyAggregate) error {
	if len(weeks) == 0 {
		_, err := fmt.Fprintln(w, "No partial weeks excluded.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Excluded partial weeks:")
	fmt.Fprintln(tw, "WEEK START\tDAYS\tDEATHS")
	for _, week := range weeks {
		fmt.Fprintf(tw, "%s\t%d/%d\t%d\n",
			week.WeekStart.Format(time.DateOnly), week.DayCount, model.DaysPerWeek, week.TotalDeaths)
	}
	return tw.Flush()
}
