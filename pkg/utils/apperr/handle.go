package apperr

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Handle logs an error that ended the command. The failed stage and resource are lifted
// out of the error values so they are visible without expanding the error.
func Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	logger := ctxlog.From(ctx)
	attrs := []any{slog.Any("error", err)}

	if gErr := goerr.Unwrap(err); gErr != nil {
		values := gErr.Values()
		for _, key := range []string{"stage", "url"} {
			if v, ok := values[key]; ok {
				attrs = append(attrs, slog.Any(key, v))
			}
		}
	}

	logger.Error("application error", attrs...)
}
