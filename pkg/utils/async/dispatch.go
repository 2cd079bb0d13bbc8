package async

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/pythia/pkg/utils/logging"
)

// Dispatch runs handler on its own goroutine, detached from the caller's
// context so the webhook response can be committed before the work finishes.
// The request-scoped logger is carried over. Errors and panics are logged,
// never propagated: a failed event is an operational signal, not a reason to
// crash the server.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	bgCtx := logging.With(context.Background(), logging.From(ctx))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.From(bgCtx).Error("panic in dispatched handler", "panic", r)
			}
		}()

		if err := handler(bgCtx); err != nil {
			logging.From(bgCtx).Error("dispatched handler failed", "error", goerr.Unwrap(err))
		}
	}()
}
