package cron

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dailyyoga/storefront-edge/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type chainJob struct {
	ctx    context.Context
	name   string
	tasks  []Task
	logger logger.Logger
}

func (j *chainJob) Run() {
	if j.ctx.Err() != nil {
		return
	}

	j.logger.Debug("chain job started", zap.String("chain_name", j.name))
	for _, task := range j.tasks {
		if err := task.Run(j.ctx); err != nil {
			j.logger.Warn("chain job aborted due to task failure",
				zap.String("chain_name", j.name),
				zap.String("task_name", task.Name()),
				zap.Error(err),
			)
			return
		}
	}
	j.logger.Debug("chain job completed", zap.String("chain_name", j.name))
}

type cronManager struct {
	cron        *cron.Cron
	middlewares []Middleware
	logger      logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

func newCronManager(log logger.Logger, mws ...Middleware) *cronManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &cronManager{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		middlewares: mws,
		logger:      log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (m *cronManager) Start() {
	m.cron.Start()
}

func (m *cronManager) Close() {
	if !m.closed.CompareAndSwap(false, true) {
		return
	}
	m.cancel()
	<-m.cron.Stop().Done()
}

func (m *cronManager) AddTasks(name, spec string, tasks ...Task) error {
	if m.closed.Load() {
		return ErrCronClosed
	}
	if len(tasks) == 0 {
		return ErrNoTasks
	}

	wrapped := make([]Task, len(tasks))
	for i, task := range tasks {
		wrapped[i] = applyMiddlewares(&wrappedTask{
			name: fmt.Sprintf("%s:%s", name, task.Name()),
			exec: task.Run,
		}, m.middlewares...)
	}

	job := &chainJob{
		ctx:    m.ctx,
		name:   name,
		tasks:  wrapped,
		logger: m.logger,
	}
	if _, err := m.cron.AddJob(spec, job); err != nil {
		return ErrInvalidSpec(name, spec, err)
	}

	m.logger.Info("chain added",
		zap.String("chain_name", name),
		zap.String("spec", spec),
		zap.Int("task_count", len(tasks)),
	)
	return nil
}

func (m *cronManager) AddChain(chain Chain) error {
	return m.AddTasks(chain.Name, chain.Spec, chain.Tasks...)
}
