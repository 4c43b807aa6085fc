package http

import (
	"bufio"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sanuvia/sanuvia/pkg/utils/logging"
	"github.com/sanuvia/sanuvia/pkg/utils/request_id"
)

type statusResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack keeps WebSocket upgrades working through the wrapper.
func (w *statusResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	w.status = http.StatusSwitchingProtocols
	return http.NewResponseController(w.ResponseWriter).Hijack()
}

func (w *statusResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, reqID := request_id.Generate(r.Context())
		logger := logging.From(ctx).With("request_id", reqID)
		ctx = logging.With(ctx, logger)

		started := time.Now()
		sw := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r.WithContext(ctx))

		logger.Info("Access Log",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("query", r.URL.Query()),
			slog.String("remote_addr", r.RemoteAddr),
			slog.Int("status", sw.status),
			slog.Duration("elapsed", time.Since(started)),
		)
	})
}
