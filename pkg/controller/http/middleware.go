package http

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/m-mizutani/goerr/v2"
)

func panicRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				handleError(w, r, goerr.New("panic recovered",
					goerr.V("panic", fmt.Sprintf("%v", rec)),
					goerr.V("stack", string(debug.Stack())),
					goerr.V("method", r.Method),
					goerr.V("path", r.URL.Path),
				))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
