package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/m-mizutani/ctxlog"
	"github.com/urfave/cli/v3"
)

func cmdRun() *cli.Command {
	var cfg pipelineConfig

	return &cli.Command{
		Name:  "run",
		Usage: "Fetch the sources once, render charts and print excluded partial weeks",
		Flags: cfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			pipeline, _, cleanup, err := cfg.build(ctx, os.Stdout)
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := pipeline.Run(ctx)
			if err != nil {
				return err
			}

			logger.Info("Report generated",
				slog.String("id", report.ID.String()),
				slog.Int("weeks", len(report.Weeks)),
				slog.Int("partial_weeks", len(report.PartialWeeks)),
				slog.Int("national_weeks", len(report.National)),
				slog.String("output_dir", cfg.output.Dir),
			)
			return nil
		},
	}
}
