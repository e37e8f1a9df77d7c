package point

import (
	"milpoint/services/soldier"

	"go.uber.org/fx"
)

var Module = fx.Module("point.service",
	fx.Provide(
		func(s *soldier.Service) Directory { return s },
		NewService,
	),
	fx.Invoke(RegisterRoutes),
)
