package repository_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/deathweek/pkg/domain/interfaces"
	"github.com/secmon-lab/deathweek/pkg/domain/model"
	"github.com/secmon-lab/deathweek/pkg/domain/types"
	"github.com/secmon-lab/deathweek/pkg/repository"
)

func newReport(at time.Time) *model.Report {
	r := model.NewReport(at.UTC().Truncate(time.Millisecond))
	change := int64(328)
	prior := int64(3)
	r.Weeks = []model.WeeklyAggregate{
		{WeekStart: model.Date(2020, time.March, 2), TotalDeaths: 3, DayCount: 7},
		{WeekStart: model.Date(2020, time.March, 9), TotalDeaths: 331, DayCount: 7, PriorWeekTotal: &prior, Change: &change},
	}
	r.Charts = []model.Chart{{Name: types.ChartWeeklyTotals, Path: "out/weekly_totals.png"}}
	return r
}

func testRepository(t *testing.T, newRepo func(t *testing.T) interfaces.ReportRepository) {
	t.Run("PutReport and GetReport", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		ctx := context.Background()
		report := newReport(time.Now())
		gt.NoError(t, repo.PutReport(ctx, report))

		retrieved, err := repo.GetReport(ctx, report.ID)
		gt.NoError(t, err)
		gt.Equal(t, retrieved.ID, report.ID)
		gt.A(t, retrieved.Weeks).Length(2)
		gt.V(t, retrieved.Weeks[0].Change).Nil()
		gt.V(t, retrieved.Weeks[1].Change).NotNil()
		gt.Equal(t, *retrieved.Weeks[1].Change, int64(328))
		gt.True(t, retrieved.GeneratedAt.Sub(report.GeneratedAt).Abs() < time.Second)
	})

	t.Run("GetReport not found", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		_, err := repo.GetReport(context.Background(), types.NewReportID())
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrReportNotFound))
	})

	t.Run("PutReport rejects invalid input", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		ctx := context.Background()
		gt.Error(t, repo.PutReport(ctx, nil))
		gt.Error(t, repo.PutReport(ctx, &model.Report{}))
	})

	t.Run("ListReports newest first", func(t *testing.T) {
		repo := newRepo(t)
		defer repo.Close()

		ctx := context.Background()
		base := time.Now()
		older := newReport(base.Add(-2 * time.Hour))
		newer := newReport(base.Add(-1 * time.Hour))
		gt.NoError(t, repo.PutReport(ctx, older))
		gt.NoError(t, repo.PutReport(ctx, newer))

		reports, err := repo.ListReports(ctx, 0)
		gt.NoError(t, err)
		gt.True(t, len(reports) >= 2)
		for i := 1; i < len(reports); i++ {
			gt.False(t, reports[i].GeneratedAt.After(reports[i-1].GeneratedAt))
		}

		limited, err := repo.ListReports(ctx, 1)
		gt.NoError(t, err)
		gt.A(t, limited).Length(1)
	})
}

func TestMemoryRepository(t *testing.T) {
	testRepository(t, func(t *testing.T) interfaces.ReportRepository {
		return repository.NewMemory()
	})
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	repo := repository.NewMemory()
	ctx := context.Background()

	report := newReport(time.Now())
	gt.NoError(t, repo.PutReport(ctx, report))
	report.Narrative = "changed after save"

	retrieved, err := repo.GetReport(ctx, report.ID)
	gt.NoError(t, err)
	gt.Equal(t, retrieved.Narrative, "")
}

func TestFirestoreRepository(t *testing.T) {
	// Skip test if Firestore test environment variables are not set
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE")

	if projectID == "" || databaseID == "" {
		t.Skip("Skipping Firestore test: TEST_FIRESTORE_PROJECT and TEST_FIRESTORE_DATABASE must be set")
	}

	testRepository(t, func(t *testing.T) interfaces.ReportRepository {
		ctx := context.Background()
		logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
		ctx = ctxlog.With(ctx, logger)

		repo, err := repository.NewFirestore(ctx, projectID, databaseID)
		gt.NoError(t, err)
		return repo
	})
}
