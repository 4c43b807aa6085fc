package safe

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/sanuvia/sanuvia/pkg/utils/logging"
)

// Go runs fn in a new goroutine. A panic in fn is logged with its stack
// and does not crash the process.
func Go(ctx context.Context, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.From(ctx).Error("panic in goroutine",
					slog.String("panic", fmt.Sprintf("%v", r)),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		fn()
	}()
}
