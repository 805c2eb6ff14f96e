package http

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/deathweek/pkg/domain/interfaces"
	"github.com/secmon-lab/deathweek/pkg/domain/model"
	"github.com/secmon-lab/deathweek/pkg/domain/types"
	"github.com/secmon-lab/deathweek/pkg/utils/async"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

//go:embed templates/index.html
var templateFS embed.FS

var chartTitles = map[types.ChartName]string{
	types.ChartDailySeries:   "Daily deaths by weekday",
	types.ChartWeeklyTotals:  "Weekly deaths, complete weeks",
	types.ChartWeeklyChange:  "Week-over-week change",
	types.ChartNationalStats: "Registered Covid-19 deaths by week ending",
}

// ReportHandler serves stored reports and triggers refreshes
type ReportHandler struct {
	repo      interfaces.ReportRepository
	refresher Refresher
	chartDir  string
	index     *template.Template
	refreshMu sync.Mutex
}

type chartView struct {
	Title string
	URL   string
}

type indexView struct {
	Report *model.Report
	Latest *model.WeeklyAggregate
	Charts []chartView
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(repo interfaces.ReportRepository, refresher Refresher, chartDir string) (*ReportHandler, error) {
	index, err := template.New("index.html").Funcs(template.FuncMap{
		"formatDate": func(t time.Time) string { return t.Format(time.DateOnly) },
		"formatTime": func(t time.Time) string { return t.Format(time.RFC3339) },
		"change":     formatChange,
	}).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse index template")
	}

	return &ReportHandler{
		repo:      repo,
		refresher: refresher,
		chartDir:  chartDir,
		index:     index,
	}, nil
}

// HandleIndex renders the latest report as HTML
func (h *ReportHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	reports, err := h.repo.ListReports(r.Context(), 1)
	if err != nil {
		writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	var view indexView
	if len(reports) > 0 {
		view.Report = reports[0]
		if latest, ok := view.Report.LatestCompleteWeek(); ok {
			view.Latest = &latest
		}
		for _, c := range view.Report.Charts {
			view.Charts = append(view.Charts, chartView{
				Title: chartTitle(c.Name),
				URL:   "/charts/" + c.File,
			})
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.index.Execute(w, view); err != nil {
		ctxlog.From(r.Context()).Error("Failed to render index", "error", err)
	}
}

// HandleList returns stored reports newest first
func (h *ReportHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, r, goerr.New("limit must be a positive integer", goerr.V("limit", v)), http.StatusBadRequest)
			return
		}
		limit = min(n, maxListLimit)
	}

	reports, err := h.repo.ListReports(r.Context(), limit)
	if err != nil {
		writeError(w, r, err, http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []*model.Report{}
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"reports": reports,
	})
}

// HandleGet returns a single report
func (h *ReportHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := types.ReportID(chi.URLParam(r, "id"))

	report, err := h.repo.GetReport(r.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrReportNotFound) {
			writeError(w, r, err, http.StatusNotFound)
			return
		}
		writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusOK, report)
}

// HandleRefresh re-runs the pipeline. Only one refresh runs at a time; a request made
// while another is in flight gets 409. With wait=false the run continues in the background
// and the response is 202.
func (h *ReportHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if !h.refreshMu.TryLock() {
		writeError(w, r, goerr.New("refresh already in progress"), http.StatusConflict)
		return
	}

	if r.URL.Query().Get("wait") == "false" {
		async.Dispatch(r.Context(), func(ctx context.Context) error {
			defer h.refreshMu.Unlock()
			report, err := h.refresher.Run(ctx)
			if err != nil {
				return err
			}
			ctxlog.From(ctx).Info("Background refresh completed", "report", report.ID)
			return nil
		})
		writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "refreshing"})
		return
	}
	defer h.refreshMu.Unlock()

	report, err := h.refresher.Run(r.Context())
	if err != nil {
		writeError(w, r, err, http.StatusBadGateway)
		return
	}

	writeJSON(w, r, http.StatusCreated, report)
}

func chartTitle(name types.ChartName) string {
	if title, ok := chartTitles[name]; ok {
		return title
	}
	return name.String()
}

func formatChange(w model.WeeklyAggregate) string {
	if !w.HasChange() {
		return "n/a"
	}
	return strconv.FormatInt(*w.Change, 10)
}
