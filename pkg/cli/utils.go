package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/deathweek/pkg/cli/config"
	"github.com/secmon-lab/deathweek/pkg/domain/interfaces"
	"github.com/secmon-lab/deathweek/pkg/service/llm"
	"github.com/secmon-lab/deathweek/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// joinFlags combines multiple flag slices into one
func joinFlags(flags ...[]cli.Flag) []cli.Flag {
	var result []cli.Flag
	for _, f := range flags {
		result = append(result, f...)
	}
	return result
}

// pipelineConfig groups the configuration shared by run and serve
type pipelineConfig struct {
	sources   config.Sources
	output    config.Output
	firestore config.Firestore
	gemini    config.Gemini
	slack     config.Slack
}

func (p *pipelineConfig) Flags() []cli.Flag {
	return joinFlags(
		p.sources.Flags(),
		p.output.Flags(),
		p.firestore.Flags(),
		p.gemini.Flags(),
		p.slack.Flags(),
	)
}

// build wires the pipeline. The returned cleanup releases the repository and LLM client.
func (p *pipelineConfig) build(ctx context.Context, out io.Writer) (*usecase.Pipeline, interfaces.ReportRepository, func(), error) {
	logger := ctxlog.From(ctx)
	logger.Debug("Pipeline configuration",
		slog.Any("sources", p.sources),
		slog.Any("output", p.output),
		slog.Any("firestore", p.firestore),
		slog.Any("gemini", p.gemini),
		slog.Any("slack", p.slack),
	)

	sources, err := p.sources.Configure()
	if err != nil {
		return nil, nil, nil, err
	}

	renderer, err := p.output.Configure()
	if err != nil {
		return nil, nil, nil, err
	}

	repo, err := p.firestore.Configure(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	cleanup := func() {
		if err := repo.Close(); err != nil {
			logger.Warn("Failed to close report repository", "error", err)
		}
	}

	opts := []usecase.PipelineOption{usecase.WithOutput(out)}

	if llmClient := p.gemini.ConfigureOptional(ctx, logger); llmClient != nil {
		opts = append(opts, usecase.WithNarrator(llm.NewNarrativeService(llmClient)))
		cleanup = chainCleanup(cleanup, llmClient)
	}

	if publisher := p.slack.ConfigureOptional(logger); publisher != nil {
		opts = append(opts, usecase.WithPublisher(publisher))
	}

	pipeline := usecase.NewPipeline(p.sources.NewFetcher(), renderer, repo, sources, opts...)
	return pipeline, repo, cleanup, nil
}

func chainCleanup(cleanup func(), client gollem.LLMClient) func() {
	closer, ok := client.(interface{ Close() error })
	if !ok {
		return cleanup
	}
	return func() {
		_ = closer.Close()
		cleanup()
	}
}
