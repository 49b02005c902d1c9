package region

import (
	"context"

	"github.com/dailyyoga/storefront-edge/cron"
)

// WarmTask refreshes the mapping on a schedule so requests rarely pay for a
// fetch. In worker mode it is also what keeps the shared snapshot current.
type WarmTask struct {
	resolver *Resolver
}

var _ cron.Task = (*WarmTask)(nil)

// NewWarmTask creates the warm task for resolver
func NewWarmTask(resolver *Resolver) *WarmTask {
	return &WarmTask{resolver: resolver}
}

// Name returns WarmTaskName
func (t *WarmTask) Name() string {
	return WarmTaskName
}

// Run refreshes the mapping. A fallback still leaves a usable mapping, but
// is reported as an error so the run is logged as failed.
func (t *WarmTask) Run(ctx context.Context) error {
	_, err := t.resolver.Refresh(ctx)
	return err
}

// Schedule adds the warm task to c on the resolver's warm spec
func Schedule(c cron.Cron, resolver *Resolver) error {
	return c.AddChain(cron.Chain{
		Name:  "regions",
		Spec:  resolver.config.WarmSpec,
		Tasks: []cron.Task{NewWarmTask(resolver)},
	})
}
