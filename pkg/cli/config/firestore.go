package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/deathweek/pkg/domain/interfaces"
	"github.com/secmon-lab/deathweek/pkg/repository"
	"github.com/urfave/cli/v3"
)

// Firestore selects where pipeline reports are stored. Reports go to the "reports"
// collection of the given project and database; with no project they live in memory
// and vanish when the process exits.
type Firestore struct {
	ProjectID  string
	DatabaseID string
}

// Flags returns the report storage flags
func (f *Firestore) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firestore-project",
			Usage:       "GCP project ID for Firestore; reports are kept in memory when unset",
			Category:    "Firestore",
			Sources:     cli.EnvVars("DEATHWEEK_FIRESTORE_PROJECT"),
			Destination: &f.ProjectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database",
			Usage:       "Firestore database ID",
			Category:    "Firestore",
			Value:       "(default)",
			Sources:     cli.EnvVars("DEATHWEEK_FIRESTORE_DATABASE"),
			Destination: &f.DatabaseID,
		},
	}
}

// Configure opens the report repository. Without a project ID the serve command's
// history and the run command's saved report only last for the process lifetime.
func (f *Firestore) Configure(ctx context.Context) (interfaces.ReportRepository, error) {
	if !f.IsConfigured() {
		ctxlog.From(ctx).Info("No Firestore project set, storing reports in memory")
		return repository.NewMemory(), nil
	}

	repo, err := repository.NewFirestore(ctx, f.ProjectID, f.DatabaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open report store",
			goerr.V("project", f.ProjectID),
			goerr.V("database", f.DatabaseID),
		)
	}
	ctxlog.From(ctx).Info("Storing reports in Firestore", "firestore", f)
	return repo, nil
}

// IsConfigured reports whether a Firestore project was given
func (f *Firestore) IsConfigured() bool {
	return f.ProjectID != ""
}

// LogValue implements slog.LogValuer
func (f Firestore) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("project", f.ProjectID),
		slog.String("database", f.DatabaseID),
	)
}
