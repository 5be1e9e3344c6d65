package singleflight

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("singleflight",
	fx.Provide(NewGuard),
	fx.Invoke(registerHooks),
)

func registerHooks(lc fx.Lifecycle, guard *Guard) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return guard.Acquire(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return guard.Release(ctx)
		},
	})
}
