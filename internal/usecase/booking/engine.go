// Package booking decides whether a requested slot can be granted, prices it
// and refunds cancellations. It is the only writer of the reservation ledger.
package booking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"grid-reservation/internal/domain/equipment"
	"grid-reservation/internal/domain/reservation"
	"grid-reservation/internal/infra"
	"grid-reservation/internal/pkg/clock"
	"grid-reservation/internal/pkg/errs"
	"grid-reservation/internal/usecase/shared"
)

var (
	ErrEquipmentNotFound   = errs.New("equipment not found")
	ErrCapacityExceeded    = errs.New("reservation not available")
	ErrReservationNotFound = errs.New("reservation not found")
	ErrInvalidInterval     = reservation.ErrInvalidInterval
	ErrInvalidCustomer     = reservation.ErrEmptyCustomer

	// Error markers for categorization
	ErrStoreFailure = errs.New("reservation store failure")
)

type ReserveParams struct {
	Customer  string
	Equipment string
	Start     time.Time
	End       time.Time
	Location  reservation.Location
}

// Receipt is what a caller learns from a successful reservation.
type Receipt struct {
	ReservationID int64
	Cost          float64
	DownPayment   float64
}

type Service interface {
	Reserve(ctx context.Context, params ReserveParams) (*Receipt, error)
	Cancel(ctx context.Context, id int64) (float64, error)
	Reservation(ctx context.Context, id int64) (*reservation.Reservation, error)
	ListInRange(ctx context.Context, start, end time.Time) ([]*reservation.Reservation, error)
	ListByCustomer(ctx context.Context, customer string, start, end time.Time) ([]*reservation.Reservation, error)
	ListByEquipment(ctx context.Context, equipmentName string, start, end time.Time) ([]*reservation.Reservation, error)
	ListAll(ctx context.Context) ([]*reservation.Reservation, error)
	FinancialSummary(ctx context.Context, start, end time.Time) (*FinancialSummary, error)
	Catalog(ctx context.Context) ([]*equipment.Equipment, error)
}

// Engine serializes reserve and cancel with mu so that the capacity check
// and the insert observe the same ledger state. Queries share the read lock.
// SQL ledgers additionally lock the equipment row, which covers several
// processes sharing one database.
type Engine struct {
	mu       sync.RWMutex
	ledger   shared.Ledger
	factory  *reservation.Factory
	pricing  reservation.PriceCalculator
	refunds  reservation.RefundPolicy
	clock    clock.Clock
	recorder Recorder
	logger   *slog.Logger
}

type Option func(*Engine)

func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

func WithRefundPolicy(p reservation.RefundPolicy) Option {
	return func(e *Engine) {
		if p != nil {
			e.refunds = p
		}
	}
}

func NewEngine(
	ledger shared.Ledger,
	pricing reservation.PriceCalculator,
	clk clock.Clock,
	logger *slog.Logger,
	opts ...Option,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		ledger:   ledger,
		factory:  reservation.NewFactory(clk, pricing),
		pricing:  pricing,
		refunds:  reservation.NewTieredRefundPolicy(),
		clock:    clk,
		recorder: NopRecorder{},
		logger:   logger.With("component", "booking"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Reserve(ctx context.Context, params ReserveParams) (*Receipt, error) {
	slot, err := reservation.NewTimeSlot(params.Start, params.End)
	if err != nil {
		e.reject(params, RejectInvalidInterval)
		return nil, ErrInvalidInterval
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var receipt *Receipt
	err = e.ledger.Within(ctx, func(ctx context.Context, tx shared.LedgerTx) error {
		eq, err := tx.LockEquipment(ctx, params.Equipment)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrEquipmentNotFound
			}
			return errs.Mark(err, ErrStoreFailure)
		}

		overlapping, err := tx.CountOverlapping(ctx, eq.Name(), slot)
		if err != nil {
			return errs.Mark(err, ErrStoreFailure)
		}
		if !eq.HasRoomFor(overlapping) {
			return ErrCapacityExceeded
		}

		res, err := e.factory.CreateReservation(eq, params.Customer, slot, params.Location)
		if err != nil {
			return err
		}

		id, err := tx.Insert(ctx, res)
		if err != nil {
			return errs.Mark(err, ErrStoreFailure)
		}
		res.AssignID(id)

		receipt = &Receipt{
			ReservationID: id,
			Cost:          res.Cost(),
			DownPayment:   res.DownPayment(),
		}
		return nil
	})
	if err != nil {
		err = classify(err)
		e.reject(params, rejectReason(err))
		return nil, err
	}

	e.recorder.ReservationCreated(params.Equipment, receipt.DownPayment)
	e.logger.InfoContext(ctx, "reservation created",
		"reservation_id", receipt.ReservationID,
		"customer", params.Customer,
		"equipment", params.Equipment,
		"start", slot.Start(),
		"end", slot.End(),
		"down_payment", receipt.DownPayment)

	return receipt, nil
}

// Cancel is not idempotent: a second cancel of the same id fails with
// ErrReservationNotFound.
func (e *Engine) Cancel(ctx context.Context, id int64) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		refund        float64
		equipmentName string
	)
	err := e.ledger.Within(ctx, func(ctx context.Context, tx shared.LedgerTx) error {
		res, err := tx.FindActive(ctx, id)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrReservationNotFound
			}
			return errs.Mark(err, ErrStoreFailure)
		}

		now := e.clock.Now()
		refund = e.refunds.Refund(res, now)
		equipmentName = res.EquipmentName()

		if err := res.Cancel(now); err != nil {
			return ErrReservationNotFound
		}
		if err := tx.MarkCancelled(ctx, res); err != nil {
			return errs.Mark(err, ErrStoreFailure)
		}
		return nil
	})
	if err != nil {
		err = classify(err)
		if !errs.Is(err, ErrReservationNotFound) {
			e.logger.ErrorContext(ctx, "cancel failed", "reservation_id", id, "error", err.Error())
		}
		return 0, err
	}

	e.recorder.ReservationCancelled(equipmentName, refund)
	e.logger.InfoContext(ctx, "reservation cancelled", "reservation_id", id, "refund", refund)

	return refund, nil
}

func (e *Engine) reject(params ReserveParams, reason string) {
	e.recorder.ReservationRejected(params.Equipment, reason)
	e.logger.Debug("reservation rejected",
		"customer", params.Customer,
		"equipment", params.Equipment,
		"reason", reason)
}

var knownErrors = []error{
	ErrEquipmentNotFound,
	ErrCapacityExceeded,
	ErrReservationNotFound,
	ErrInvalidInterval,
	ErrInvalidCustomer,
	ErrStoreFailure,
}

// classify marks anything that is not an engine error as a store failure.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range knownErrors {
		if errs.Is(err, known) {
			return err
		}
	}
	return errs.Mark(err, ErrStoreFailure)
}

func rejectReason(err error) string {
	switch {
	case errs.Is(err, ErrEquipmentNotFound):
		return RejectEquipmentNotFound
	case errs.Is(err, ErrCapacityExceeded):
		return RejectCapacityExceeded
	case errs.Is(err, ErrInvalidInterval):
		return RejectInvalidInterval
	case errs.Is(err, ErrInvalidCustomer):
		return RejectInvalidCustomer
	default:
		return RejectStoreFailure
	}
}
