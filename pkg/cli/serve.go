package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/deathweek/pkg/cli/config"
	controller "github.com/secmon-lab/deathweek/pkg/controller/http"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		cfg       pipelineConfig
		serverCfg config.Server
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the pipeline and serve the reports over HTTP",
		Flags: joinFlags(serverCfg.Flags(), cfg.Flags()),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting deathweek report viewer",
				slog.Any("server", serverCfg),
				slog.Any("sources", cfg.sources),
				slog.Any("firestore", cfg.firestore),
			)

			pipeline, repo, cleanup, err := cfg.build(ctx, os.Stdout)
			if err != nil {
				return err
			}
			defer cleanup()

			// A failed first run leaves earlier reports viewable and can be retried via refresh
			if _, err := pipeline.Run(ctx); err != nil {
				logger.Error("Initial pipeline run failed", slog.Any("error", err))
			}

			server, err := controller.NewServer(ctx, serverCfg.Addr, repo, pipeline, cfg.output.Dir)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			case err := <-errCh:
				return goerr.Wrap(err, "HTTP server failed", goerr.V("addr", serverCfg.Addr))
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
