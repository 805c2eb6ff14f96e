package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/deathweek/pkg/domain/interfaces"
	"github.com/secmon-lab/deathweek/pkg/domain/model"
)

// Refresher re-runs the pipeline and returns the new report
type Refresher interface {
	Run(ctx context.Context) (*model.Report, error)
}

// Server represents the HTTP server
type Server struct {
	*http.Server
	router  chi.Router
	reports *ReportHandler
}

// NewServer creates the report viewer. chartDir is served under /charts/.
func NewServer(ctx context.Context, addr string, repo interfaces.ReportRepository, refresher Refresher, chartDir string) (*Server, error) {
	if repo == nil {
		return nil, goerr.New("report repository is required")
	}

	reports, err := NewReportHandler(repo, refresher, chartDir)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	router.Get("/health", handleHealth)
	router.Get("/", reports.HandleIndex)

	router.Route("/api", func(r chi.Router) {
		r.Get("/reports", reports.HandleList)
		r.Get("/reports/{id}", reports.HandleGet)
		if refresher != nil {
			r.Post("/refresh", reports.HandleRefresh)
		}
	})

	router.Route("/charts", func(r chi.Router) {
		r.Use(NoCache)
		r.Handle("/*", http.StripPrefix("/charts/", http.FileServer(http.Dir(chartDir))))
	})

	ctxlog.From(ctx).Info("Report viewer routes ready", "chart_dir", chartDir, "refresh", refresher != nil)

	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
		router:  router,
		reports: reports,
	}, nil
}

// handleHealth handles health check requests
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "deathweek",
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ctxlog.From(r.Context()).Error("Failed to encode response", "error", err)
	}
}

// writeError writes an error response
func writeError(w http.ResponseWriter, r *http.Request, err error, status int) {
	var message string
	if goErr := goerr.Unwrap(err); goErr != nil {
		message = goErr.Error()
	} else {
		message = err.Error()
	}

	if status >= http.StatusInternalServerError {
		ctxlog.From(r.Context()).Error("Request failed", "error", err)
	}

	writeJSON(w, r, status, map[string]string{
		"error": message,
	})
}
