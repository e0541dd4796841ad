package store

import "go.uber.org/fx"

// Module exposes the GORM-backed stores via Fx.
var Module = fx.Options(
	fx.Provide(NewSubscriptionStore),
	fx.Provide(NewUserStore),
	fx.Provide(NewBookStore),
)
