package shopstore

import "go.uber.org/fx"

var Module = fx.Module("shopstore",
	fx.Provide(New),
)
