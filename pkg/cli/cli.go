package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/deathweek/pkg/cli/config"
	"github.com/secmon-lab/deathweek/pkg/utils/apperr"
	"github.com/urfave/cli/v3"
)

// Run parses args and dispatches to the run (one-shot pipeline) or serve (report
// dashboard with refresh endpoint) command. The logger flags are global so both commands
// log the same way.
func Run(ctx context.Context, args []string) error {
	var loggerCfg config.Logger

	app := &cli.Command{
		Name:    "deathweek",
		Usage:   "Weekly aggregation and trend charts of UK Covid-19 deaths",
		Version: "0.1.0",
		Flags:   loggerCfg.Flags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, err := loggerCfg.Configure()
			if err != nil {
				return nil, err
			}

			slog.SetDefault(logger)
			ctx = ctxlog.With(ctx, logger)
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmdRun(),
			cmdServe(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		// Stage and URL values attached by the pipeline are logged here once
		apperr.Handle(ctxlog.With(ctx, slog.Default()), err)
		return goerr.Wrap(err, "deathweek failed")
	}

	return nil
}
