package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/deathweek/pkg/service/chart"
	"github.com/urfave/cli/v3"
)

// Output holds chart rendering configuration
type Output struct {
	Dir    string
	Format string
	Width  float64
	Height float64
}

// Flags returns CLI flags for Output configuration
func (o *Output) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "output-dir",
			Aliases:     []string{"o"},
			Usage:       "Directory charts are written to",
			Category:    "Output",
			Value:       "charts",
			Sources:     cli.EnvVars("DEATHWEEK_OUTPUT_DIR"),
			Destination: &o.Dir,
		},
		&cli.StringFlag{
			Name:        "chart-format",
			Usage:       "Chart image format (png, svg, pdf)",
			Category:    "Output",
			Value:       "png",
			Sources:     cli.EnvVars("DEATHWEEK_CHART_FORMAT"),
			Destination: &o.Format,
		},
		&cli.FloatFlag{
			Name:        "chart-width",
			Usage:       "Chart width in inches",
			Category:    "Output",
			Value:       8,
			Sources:     cli.EnvVars("DEATHWEEK_CHART_WIDTH"),
			Destination: &o.Width,
		},
		&cli.FloatFlag{
			Name:        "chart-height",
			Usage:       "Chart height in inches",
			Category:    "Output",
			Value:       4.5,
			Sources:     cli.EnvVars("DEATHWEEK_CHART_HEIGHT"),
			Destination: &o.Height,
		},
	}
}

// Configure creates the chart renderer
func (o *Output) Configure() (*chart.Renderer, error) {
	switch o.Format {
	case "png", "svg", "pdf":
	default:
		return nil, goerr.New("invalid chart format", goerr.V("format", o.Format))
	}
	if o.Width <= 0 || o.Height <= 0 {
		return nil, goerr.New("chart size must be positive",
			goerr.V("width", o.Width),
			goerr.V("height", o.Height))
	}

	return chart.New(o.Dir,
		chart.WithFormat(o.Format),
		chart.WithSize(o.Width, o.Height),
	), nil
}

// LogValue returns structured log value
func (o Output) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("dir", o.Dir),
		slog.String("format", o.Format),
		slog.Float64("width", o.Width),
		slog.Float64("height", o.Height),
	)
}
