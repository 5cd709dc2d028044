package booking

import (
	"context"
	"time"

	"grid-reservation/internal/domain/equipment"
	"grid-reservation/internal/domain/reservation"
	"grid-reservation/internal/pkg/errs"
	"grid-reservation/internal/usecase/shared"
)

// InstallCatalog writes the catalog into the ledger. It runs once at start-up
// before the engine serves requests.
func (e *Engine) InstallCatalog(ctx context.Context, catalog []*equipment.Equipment) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.ledger.Within(ctx, func(ctx context.Context, tx shared.LedgerTx) error {
		for _, eq := range catalog {
			if err := tx.UpsertEquipment(ctx, eq); err != nil {
				return errs.Wrapf(err, "install %q", eq.Name())
			}
		}
		return nil
	})
	if err != nil {
		return errs.Mark(err, ErrStoreFailure)
	}

	e.logger.InfoContext(ctx, "catalog installed", "items", len(catalog))
	return nil
}

// DemoReservations are the sample bookings the service has always shipped
// with, interpreted in loc.
func DemoReservations(loc *time.Location) []ReserveParams {
	at := func(month time.Month, d, h int) time.Time {
		return time.Date(2023, month, d, h, 0, 0, 0, loc)
	}
	const (
		harvester = "1.21 gigawatt lightning harvester"
		scanner   = "multi-phasic radiation scanner"
		scooper   = "ore scooper"
	)
	return []ReserveParams{
		{Customer: "John", Equipment: harvester, Start: at(time.April, 14, 9), End: at(time.April, 14, 12), Location: reservation.NewLocation(1, 4)},
		{Customer: "Jane", Equipment: scanner, Start: at(time.April, 7, 10), End: at(time.April, 7, 11), Location: reservation.NewLocation(2, 3)},
		{Customer: "Abhi", Equipment: scanner, Start: at(time.April, 7, 10), End: at(time.April, 7, 11), Location: reservation.NewLocation(7, 7)},
		{Customer: "Pinky", Equipment: scanner, Start: at(time.April, 7, 10), End: at(time.April, 7, 11), Location: reservation.NewLocation(8, 8)},
		{Customer: "krishna", Equipment: scanner, Start: at(time.April, 8, 10), End: at(time.April, 8, 11), Location: reservation.NewLocation(9, 9)},
		{Customer: "Bob", Equipment: scooper, Start: at(time.April, 1, 11), End: at(time.April, 1, 12), Location: reservation.NewLocation(17, 18)},
		{Customer: "Jane", Equipment: scooper, Start: at(time.April, 2, 10), End: at(time.April, 2, 11), Location: reservation.NewLocation(15, 15)},
		{Customer: "Jane", Equipment: harvester, Start: at(time.April, 3, 9), End: at(time.April, 3, 10), Location: reservation.NewLocation(10, 11)},
	}
}

// SeedDemo books the demo reservations when the ledger has no active
// reservations. It returns the number booked.
func (e *Engine) SeedDemo(ctx context.Context, demo []ReserveParams) (int, error) {
	existing, err := e.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		e.logger.InfoContext(ctx, "ledger not empty, skipping demo seed", "active", len(existing))
		return 0, nil
	}

	booked := 0
	for _, p := range demo {
		if _, err := e.Reserve(ctx, p); err != nil {
			if errs.Is(err, ErrStoreFailure) {
				return booked, err
			}
			e.logger.WarnContext(ctx, "demo reservation skipped",
				"customer", p.Customer,
				"equipment", p.Equipment,
				"error", err.Error())
			continue
		}
		booked++
	}
	return booked, nil
}
