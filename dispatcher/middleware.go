package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/next-trace/scg-dispatch/contract/dispatch"
	berr "github.com/next-trace/scg-dispatch/contract/errors"
)

// Invocation is what a middleware sees of a broker run.
type Invocation struct {
	Broker  dispatch.ID
	Request dispatch.Request
}

// Handler runs a broker for an invocation.
type Handler func(ctx context.Context, inv Invocation) (any, error)

// Middleware wraps broker execution. Middlewares are executed in registration order.
type Middleware func(next Handler) Handler

// Logging returns middleware that logs broker start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, inv Invocation) (any, error) {
			logger.DebugContext(ctx, "broker started",
				slog.String("path", string(inv.Request.Path)),
				slog.Any("version", inv.Request.Version),
				slog.String("broker_id", string(inv.Broker)),
			)

			start := time.Now()
			res, err := next(ctx, inv)
			elapsed := time.Since(start)

			if err != nil {
				logger.WarnContext(ctx, "broker failed",
					slog.String("path", string(inv.Request.Path)),
					slog.String("broker_id", string(inv.Broker)),
					slog.Duration("elapsed", elapsed),
					slog.String("error", err.Error()),
				)

				return res, err
			}

			logger.DebugContext(ctx, "broker completed",
				slog.String("path", string(inv.Request.Path)),
				slog.String("broker_id", string(inv.Broker)),
				slog.Duration("elapsed", elapsed),
			)

			return res, nil
		}
	}
}

// Recover returns middleware that turns a broker panic into an error wrapping
// berr.ErrBrokerPanicked. The panic is logged with a stack trace.
func Recover(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, inv Invocation) (res any, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorContext(ctx, "broker panicked",
						slog.String("path", string(inv.Request.Path)),
						slog.String("broker_id", string(inv.Broker)),
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())),
					)

					res = nil
					err = fmt.Errorf("broker %s: %w: %v", inv.Broker, berr.ErrBrokerPanicked, r)
				}
			}()

			return next(ctx, inv)
		}
	}
}
