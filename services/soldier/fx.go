package soldier

import "go.uber.org/fx"

var Module = fx.Module("soldier.service",
	fx.Provide(
		NewSessionStore,
		NewService,
	),
	fx.Invoke(RegisterRoutes),
)
