package components

import (
	"grid-reservation/internal/handler"
	"grid-reservation/internal/handler/api"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewReservationHandler,
		api.NewUserHandler,
	),
	fx.Invoke(handler.NewRouter),
)
