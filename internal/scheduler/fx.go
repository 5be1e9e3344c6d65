package scheduler

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(New),
	fx.Invoke(register),
)

type registerParam struct {
	fx.In

	Lifecycle fx.Lifecycle
	Scheduler *Scheduler
	Jobs      []Job `group:"schedule.jobs"`
}

func register(p registerParam) {
	p.Scheduler.Add(p.Jobs...)

	// One hook for both sides: a hook appended from inside OnStart is
	// never counted as started, so its OnStop would not run and the job
	// loops would outlive shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			p.Scheduler.Start(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
