package dates

import "go.uber.org/fx"

var Module = fx.Module("dates",
	fx.Provide(NewLocation),
)
