package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/deathweek/pkg/domain/interfaces"
	"github.com/secmon-lab/deathweek/pkg/domain/model"
	"github.com/secmon-lab/deathweek/pkg/domain/types"
)

// Memory implements ReportRepository with in-memory storage
type Memory struct {
	mu      sync.RWMutex
	reports map[types.ReportID]*model.Report
}

// NewMemory creates a new memory repository
func NewMemory() interfaces.ReportRepository {
	return &Memory{
		reports: make(map[types.ReportID]*model.Report),
	}
}

// PutReport saves a report to memory
func (m *Memory) PutReport(ctx context.Context, report *model.Report) error {
	if report == nil {
		return goerr.New("report is nil")
	}
	if report.ID == "" {
		return goerr.New("report ID is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *report
	m.reports[report.ID] = &copied
	return nil
}

// GetReport retrieves a report by ID
func (m *Memory) GetReport(ctx context.Context, id types.ReportID) (*model.Report, error) {
	if id == "" {
		return nil, goerr.New("report ID is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	report, ok := m.reports[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrReportNotFound, "failed to get report", goerr.V("id", id))
	}
	copied := *report
	return &copied, nil
}

// ListReports lists reports newest first
func (m *Memory) ListReports(ctx context.Context, limit int) ([]*model.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reports := make([]*model.Report, 0, len(m.reports))
	for _, r := range m.reports {
		copied := *r
		reports = append(reports, &copied)
	}
	sortNewestFirst(reports)

	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}
	return reports, nil
}

// Close is a no-op for the memory repository
func (m *Memory) Close() error {
	return nil
}

func sortNewestFirst(reports []*model.Report) {
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].GeneratedAt.After(reports[j].GeneratedAt)
	})
}
