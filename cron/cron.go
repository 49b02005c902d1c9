// Package cron schedules background tasks, such as warming the region
// mapping, on a seconds-resolution cron spec.
package cron

import (
	"context"

	"github.com/dailyyoga/storefront-edge/logger"
)

// Task is one unit of scheduled work
type Task interface {
	// Name identifies the task in logs
	Name() string
	// Run executes the task. ctx is cancelled when the scheduler closes.
	Run(ctx context.Context) error
}

// TaskFunc adapts a function to Task
type TaskFunc struct {
	TaskName string
	Fn       func(ctx context.Context) error
}

// Name returns the task name
func (f TaskFunc) Name() string { return f.TaskName }

// Run calls Fn
func (f TaskFunc) Run(ctx context.Context) error { return f.Fn(ctx) }

// Chain is a named list of tasks run in order on Spec
type Chain struct {
	Name  string
	Spec  string
	Tasks []Task
}

// Cron manages scheduled chains.
//
// Tasks in a chain run sequentially; the first failing task aborts the rest
// of that run. A chain never overlaps with itself: a run that is still busy
// when the next tick fires makes that tick a no-op.
type Cron interface {
	Start()
	// Close stops scheduling, cancels running tasks and waits for them
	Close()
	// AddTasks schedules tasks on spec (6 fields, seconds first)
	AddTasks(name string, spec string, tasks ...Task) error
	AddChain(chain Chain) error
}

// NewCron creates a cron manager. Recovery and logging middlewares always
// wrap each task; mws are applied inside them, in order.
func NewCron(log logger.Logger, mws ...Middleware) Cron {
	defaultMws := []Middleware{
		recoveryMiddleware(log),
		loggingMiddleware(log),
	}
	return newCronManager(log, append(defaultMws, mws...)...)
}
