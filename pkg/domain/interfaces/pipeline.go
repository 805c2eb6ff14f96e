package interfaces

import (
	"context"

	"github.com/secmon-lab/deathweek/pkg/domain/model"
)

// Narrator writes a prose summary of a report
type Narrator interface {
	Narrate(ctx context.Context, report *model.Report) (string, error)
}

// Publisher sends a finished report somewhere people will read it
type Publisher interface {
	Publish(ctx context.Context, report *model.Report) error
}
