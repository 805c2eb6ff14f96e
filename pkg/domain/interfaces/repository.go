package interfaces

import (
	"context"

	"github.com/secmon-lab/deathweek/pkg/domain/model"
	"github.com/secmon-lab/deathweek/pkg/domain/types"
)

// ReportRepository stores pipeline reports
type ReportRepository interface {
	PutReport(ctx context.Context, report *model.Report) error
	GetReport(ctx context.Context, id types.ReportID) (*model.Report, error)
	// ListReports returns reports newest first. limit <= 0 returns all.
	ListReports(ctx context.Context, limit int) ([]*model.Report, error)

	// Close closes the repository connection
	Close() error
}
