package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"grid-reservation/internal/domain/equipment"
	"grid-reservation/internal/domain/reservation"
	"grid-reservation/internal/infra"
	"grid-reservation/internal/infra/uow"
	"grid-reservation/internal/pkg/pgconv"
	"grid-reservation/internal/usecase/shared"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const reservationColumns = `id, username, equipment, start_time, end_time, active, cost, downpayment, location_x, location_y, cancelled_at`

type Ledger struct {
	uow *uow.PostgresUoW
}

func NewLedger(u *uow.PostgresUoW) *Ledger {
	return &Ledger{uow: u}
}

func (l *Ledger) Within(ctx context.Context, fn func(ctx context.Context, tx shared.LedgerTx) error) error {
	return l.uow.Within(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &ledgerTx{ledgerReader{db: tx}})
	})
}

func (l *Ledger) WithinReadOnly(ctx context.Context, fn func(ctx context.Context, r shared.LedgerReader) error) error {
	return l.uow.WithinReadOnly(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, ledgerReader{db: tx})
	})
}

type ledgerReader struct {
	db DBTX
}

func (r ledgerReader) EquipmentByName(ctx context.Context, name string) (*equipment.Equipment, error) {
	return r.equipment(ctx, `SELECT name, capacity, hourly_rate FROM equipment WHERE name = $1`, name)
}

func (r ledgerReader) equipment(ctx context.Context, query, name string) (*equipment.Equipment, error) {
	var (
		eqName   string
		capacity int
		rate     float64
	)
	if err := r.db.QueryRow(ctx, query, name).Scan(&eqName, &capacity, &rate); err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("equipment not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find equipment", err)
	}
	return equipment.ReconstructEquipment(eqName, capacity, rate), nil
}

func (r ledgerReader) ListEquipment(ctx context.Context) ([]*equipment.Equipment, error) {
	rows, err := r.db.Query(ctx, `SELECT name, capacity, hourly_rate FROM equipment ORDER BY seq`)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list equipment", err)
	}
	defer rows.Close()

	out := make([]*equipment.Equipment, 0)
	for rows.Next() {
		var (
			name     string
			capacity int
			rate     float64
		)
		if err := rows.Scan(&name, &capacity, &rate); err != nil {
			return nil, infra.WrapRepoErr("failed to scan equipment", err)
		}
		out = append(out, equipment.ReconstructEquipment(name, capacity, rate))
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to list equipment", err)
	}
	return out, nil
}

func (r ledgerReader) ListActive(ctx context.Context, filter shared.ReservationFilter) ([]*reservation.Reservation, error) {
	where := []string{"active"}
	args := []any{}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if filter.Window != nil {
		add("start_time >= $%d", filter.Window.Start())
		add("end_time <= $%d", filter.Window.End())
	}
	if filter.Customer != "" {
		add("username = $%d", filter.Customer)
	}
	if filter.Equipment != "" {
		add("equipment = $%d", filter.Equipment)
	}

	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id`
	return r.queryReservations(ctx, query, args...)
}

func (r ledgerReader) ListCancelled(ctx context.Context) ([]*reservation.Reservation, error) {
	return r.queryReservations(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE NOT active ORDER BY cancelled_at, id`)
}

func (r ledgerReader) FindReservation(ctx context.Context, id int64) (*reservation.Reservation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
	res, err := scanReservation(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation", err)
	}
	return res, nil
}

func (r ledgerReader) queryReservations(ctx context.Context, query string, args ...any) ([]*reservation.Reservation, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list reservations", err)
	}
	defer rows.Close()

	out := make([]*reservation.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to list reservations", err)
	}
	return out, nil
}

type ledgerTx struct {
	ledgerReader
}

func (t *ledgerTx) UpsertEquipment(ctx context.Context, eq *equipment.Equipment) error {
	_, err := t.db.Exec(ctx, `
		INSERT INTO equipment (name, capacity, hourly_rate) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET capacity = EXCLUDED.capacity, hourly_rate = EXCLUDED.hourly_rate`,
		eq.Name(), eq.Capacity(), eq.HourlyRate())
	if err != nil {
		return infra.WrapRepoErr("failed to upsert equipment", err)
	}
	return nil
}

// LockEquipment takes the row lock that serializes bookings of one
// equipment across connections.
func (t *ledgerTx) LockEquipment(ctx context.Context, name string) (*equipment.Equipment, error) {
	return t.equipment(ctx, `SELECT name, capacity, hourly_rate FROM equipment WHERE name = $1 FOR UPDATE`, name)
}

func (t *ledgerTx) CountOverlapping(ctx context.Context, equipmentName string, slot reservation.TimeSlot) (int, error) {
	var n int
	err := t.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM reservations
		WHERE active AND equipment = $1 AND end_time > $2 AND start_time < $3`,
		equipmentName, slot.Start(), slot.End()).Scan(&n)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to count overlapping reservations", err)
	}
	return n, nil
}

func (t *ledgerTx) FindActive(ctx context.Context, id int64) (*reservation.Reservation, error) {
	row := t.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1 AND active FOR UPDATE`, id)
	res, err := scanReservation(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("active reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation", err)
	}
	return res, nil
}

func (t *ledgerTx) Insert(ctx context.Context, res *reservation.Reservation) (int64, error) {
	var id int64
	err := t.db.QueryRow(ctx, `
		INSERT INTO reservations (username, equipment, start_time, end_time, active, cost, downpayment, location_x, location_y)
		VALUES ($1, $2, $3, $4, TRUE, $5, $6, $7, $8)
		RETURNING id`,
		res.Customer(),
		res.EquipmentName(),
		res.TimeSlot().Start(),
		res.TimeSlot().End(),
		res.Cost(),
		res.DownPayment(),
		res.Location().X(),
		res.Location().Y(),
	).Scan(&id)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to insert reservation", err)
	}
	return id, nil
}

func (t *ledgerTx) MarkCancelled(ctx context.Context, res *reservation.Reservation) error {
	tag, err := t.db.Exec(ctx,
		`UPDATE reservations SET active = FALSE, cancelled_at = $2 WHERE id = $1 AND active`,
		res.ID(), res.CancelledAt())
	if err != nil {
		return infra.WrapRepoErr("failed to cancel reservation", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("active reservation not found", nil, infra.KindNotFound)
	}
	return nil
}

func scanReservation(row pgx.Row) (*reservation.Reservation, error) {
	var (
		id          int64
		customer    string
		eqName      string
		start, end  time.Time
		active      bool
		cost, down  float64
		x, y        int
		cancelledAt *time.Time
	)
	if err := row.Scan(&id, &customer, &eqName, &start, &end, &active, &cost, &down, &x, &y, &cancelledAt); err != nil {
		return nil, err
	}

	slot, err := reservation.NewTimeSlot(start, end)
	if err != nil {
		return nil, fmt.Errorf("reservation %d: %w", id, err)
	}

	status := reservation.StatusActive
	if !active {
		status = reservation.StatusCancelled
	}

	return reservation.ReconstructReservation(id, customer, eqName, slot, cost, down, reservation.NewLocation(x, y), status, cancelledAt), nil
}
