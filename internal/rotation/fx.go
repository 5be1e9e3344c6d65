package rotation

import (
	"github.com/ahlabot/ahlabot/internal/rotation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rotation.allocator",
	fx.Provide(service.New),
)
