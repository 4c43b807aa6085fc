package errs

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/sanuvia/sanuvia/pkg/utils/logging"
	"github.com/sanuvia/sanuvia/pkg/utils/request_id"
)

// Handle logs err and reports it to Sentry. Errors tagged as transient
// (unavailable, timeout) are logged at warn level and not reported.
func Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "[CRITICAL] slog crashed during error handling: original_error=%s, slog_panic=%v\n",
				err.Error(), r)
		}
	}()

	logger := logging.From(ctx)
	if isTransient(err) {
		logger.Warn("Transient error: "+err.Error(), slog.Any("error", err))
		return
	}

	evID := report(ctx, err)
	logger.Error("Error: "+err.Error(), slog.Any("error", err), slog.Any("sentry.id", evID))
}

func isTransient(err error) bool {
	return goerr.HasTag(err, TagUnavailable) || goerr.HasTag(err, TagTimeout)
}

func report(ctx context.Context, err error) *sentry.EventID {
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		if reqID := request_id.FromContext(ctx); reqID != "" {
			scope.SetTag("request_id", reqID)
		}
		for k, v := range goerr.Values(err) {
			scope.SetExtra(k, v)
		}
	})
	return hub.CaptureException(err)
}
