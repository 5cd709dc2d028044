package components

import (
	"context"
	"log/slog"

	"grid-reservation/internal/domain/equipment"
	"grid-reservation/internal/domain/reservation"
	"grid-reservation/internal/infra/metrics"
	"grid-reservation/internal/pkg/clock"
	"grid-reservation/internal/pkg/config"
	"grid-reservation/internal/usecase/booking"
	"grid-reservation/internal/usecase/directory"
	"grid-reservation/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseServicesModule,
	fx.Invoke(StartBooking),
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	fx.Annotate(
		reservation.NewDefaultPriceCalculator,
		fx.As(new(reservation.PriceCalculator)),
	),
)

var usecaseServicesModule = fx.Module("usecase/services",
	fx.Provide(
		fx.Annotate(
			NewBookingEngine,
			fx.As(fx.Self()),
			fx.As(new(booking.Service)),
		),
		directory.NewDirectory,
	),
)

func NewBookingEngine(
	ledger shared.Ledger,
	pricing reservation.PriceCalculator,
	clk clock.Clock,
	logger *slog.Logger,
	recorder *metrics.Recorder,
) *booking.Engine {
	return booking.NewEngine(ledger, pricing, clk, logger, booking.WithRecorder(recorder))
}

// StartBooking installs the catalog before the server accepts requests and
// optionally books the demo reservations.
func StartBooking(lc fx.Lifecycle, engine *booking.Engine, cfg config.Config, logger *slog.Logger) error {
	catalog, err := equipment.Load(cfg.Booking.CatalogFile)
	if err != nil {
		return err
	}
	loc, err := cfg.Booking.Location()
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := engine.InstallCatalog(ctx, catalog); err != nil {
				return err
			}
			if !cfg.Booking.SeedDemoReservations {
				return nil
			}
			booked, err := engine.SeedDemo(ctx, booking.DemoReservations(loc))
			if err != nil {
				return err
			}
			logger.Info("デモ予約を投入しました", "booked", booked)
			return nil
		},
	})
	return nil
}
