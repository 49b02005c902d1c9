package cron

import (
	"context"
	"time"

	"github.com/dailyyoga/storefront-edge/logger"
	"github.com/dailyyoga/storefront-edge/routine"
	"go.uber.org/zap"
)

// Middleware wraps a Task
type Middleware func(Task) Task

// applyMiddlewares applies mws so that mws[0] is the outermost
func applyMiddlewares(t Task, mws ...Middleware) Task {
	for i := len(mws) - 1; i >= 0; i-- {
		t = mws[i](t)
	}
	return t
}

// recoveryMiddleware turns a task panic into an error
func recoveryMiddleware(log logger.Logger) Middleware {
	return func(next Task) Task {
		return &wrappedTask{
			name: next.Name(),
			exec: func(ctx context.Context) error {
				return routine.Safe(log, next.Name(), func() error {
					return next.Run(ctx)
				})
			},
		}
	}
}

func loggingMiddleware(log logger.Logger) Middleware {
	return func(next Task) Task {
		return &wrappedTask{
			name: next.Name(),
			exec: func(ctx context.Context) error {
				start := time.Now()
				err := next.Run(ctx)

				fields := []zap.Field{
					zap.String("task", next.Name()),
					zap.Duration("duration", time.Since(start)),
				}
				if err != nil {
					log.Error("task failed", append(fields, zap.Error(err))...)
				} else {
					log.Info("task completed", fields...)
				}
				return err
			},
		}
	}
}

// TimeoutMiddleware bounds every task run by d
func TimeoutMiddleware(d time.Duration) Middleware {
	return func(next Task) Task {
		return &wrappedTask{
			name: next.Name(),
			exec: func(ctx context.Context) error {
				ctx, cancel := context.WithTimeout(ctx, d)
				defer cancel()
				return next.Run(ctx)
			},
		}
	}
}

type wrappedTask struct {
	name string
	exec func(ctx context.Context) error
}

func (w *wrappedTask) Name() string {
	return w.name
}

func (w *wrappedTask) Run(ctx context.Context) error {
	return w.exec(ctx)
}
