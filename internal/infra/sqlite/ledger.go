package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"grid-reservation/internal/domain/equipment"
	"grid-reservation/internal/domain/reservation"
	"grid-reservation/internal/infra"
	"grid-reservation/internal/usecase/shared"
)

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const reservationColumns = `id, username, equipment, start_time, end_time, active, cost, downpayment, location_x, location_y, cancelled_at`

type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Within holds the only connection for the whole transaction, which makes
// LockEquipment a plain read.
func (l *Ledger) Within(ctx context.Context, fn func(ctx context.Context, tx shared.LedgerTx) error) error {
	sqlTx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return infra.WrapRepoErr("failed to begin transaction", err)
	}

	if err := fn(ctx, &ledgerTx{ledgerReader{db: sqlTx}}); err != nil {
		rollback(sqlTx)
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return infra.WrapRepoErr("failed to commit transaction", err)
	}
	return nil
}

func (l *Ledger) WithinReadOnly(ctx context.Context, fn func(ctx context.Context, r shared.LedgerReader) error) error {
	sqlTx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return infra.WrapRepoErr("failed to begin transaction", err)
	}
	defer rollback(sqlTx)

	return fn(ctx, ledgerReader{db: sqlTx})
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		slog.Warn("rollback failed", "error", err.Error())
	}
}

type ledgerReader struct {
	db DBTX
}

func (r ledgerReader) EquipmentByName(ctx context.Context, name string) (*equipment.Equipment, error) {
	var (
		eqName   string
		capacity int
		rate     float64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT name, capacity, hourly_rate FROM equipment WHERE name = ?`, name,
	).Scan(&eqName, &capacity, &rate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, infra.WrapRepoErr("equipment not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find equipment", err)
	}
	return equipment.ReconstructEquipment(eqName, capacity, rate), nil
}

func (r ledgerReader) ListEquipment(ctx context.Context) ([]*equipment.Equipment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, capacity, hourly_rate FROM equipment ORDER BY seq`)
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
	where := []string{"active = 1"}
	args := []any{}

	if filter.Window != nil {
		where = append(where, "start_time >= ?", "end_time <= ?")
		args = append(args, toMicros(filter.Window.Start()), toMicros(filter.Window.End()))
	}
	if filter.Customer != "" {
		where = append(where, "username = ?")
		args = append(args, filter.Customer)
	}
	if filter.Equipment != "" {
		where = append(where, "equipment = ?")
		args = append(args, filter.Equipment)
	}

	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id`
	return r.queryReservations(ctx, query, args...)
}

func (r ledgerReader) ListCancelled(ctx context.Context) ([]*reservation.Reservation, error) {
	return r.queryReservations(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE active = 0 ORDER BY cancelled_at, id`)
}

func (r ledgerReader) FindReservation(ctx context.Context, id int64) (*reservation.Reservation, error) {
	return r.findOne(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
}

func (r ledgerReader) findOne(ctx context.Context, query string, id int64) (*reservation.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation", err)
	}
	return res, nil
}

func (r ledgerReader) queryReservations(ctx context.Context, query string, args ...any) ([]*reservation.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO equipment (name, capacity, hourly_rate) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET capacity = excluded.capacity, hourly_rate = excluded.hourly_rate`,
		eq.Name(), eq.Capacity(), eq.HourlyRate())
	if err != nil {
		return infra.WrapRepoErr("failed to upsert equipment", err)
	}
	return nil
}

func (t *ledgerTx) LockEquipment(ctx context.Context, name string) (*equipment.Equipment, error) {
	return t.EquipmentByName(ctx, name)
}

func (t *ledgerTx) CountOverlapping(ctx context.Context, equipmentName string, slot reservation.TimeSlot) (int, error) {
	var n int
	err := t.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reservations
		WHERE active = 1 AND equipment = ? AND end_time > ? AND start_time < ?`,
		equipmentName, toMicros(slot.Start()), toMicros(slot.End())).Scan(&n)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to count overlapping reservations", err)
	}
	return n, nil
}

func (t *ledgerTx) FindActive(ctx context.Context, id int64) (*reservation.Reservation, error) {
	return t.findOne(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ? AND active = 1`, id)
}

func (t *ledgerTx) Insert(ctx context.Context, res *reservation.Reservation) (int64, error) {
	result, err := t.db.ExecContext(ctx, `
		INSERT INTO reservations (username, equipment, start_time, end_time, active, cost, downpayment, location_x, location_y)
		VALUES (?, ?, ?, ?, 1, ?, ?, ?, ?)`,
		res.Customer(),
		res.EquipmentName(),
		toMicros(res.TimeSlot().Start()),
		toMicros(res.TimeSlot().End()),
		res.Cost(),
		res.DownPayment(),
		res.Location().X(),
		res.Location().Y(),
	)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to insert reservation", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, infra.WrapRepoErr("failed to read reservation id", err)
	}
	return id, nil
}

func (t *ledgerTx) MarkCancelled(ctx context.Context, res *reservation.Reservation) error {
	var cancelledAt sql.NullInt64
	if at := res.CancelledAt(); at != nil {
		cancelledAt = sql.NullInt64{Int64: toMicros(*at), Valid: true}
	}

	result, err := t.db.ExecContext(ctx,
		`UPDATE reservations SET active = 0, cancelled_at = ? WHERE id = ? AND active = 1`,
		cancelledAt, res.ID())
	if err != nil {
		return infra.WrapRepoErr("failed to cancel reservation", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return infra.WrapRepoErr("failed to cancel reservation", err)
	}
	if n == 0 {
		return infra.WrapRepoErr("active reservation not found", nil, infra.KindNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*reservation.Reservation, error) {
	var (
		id          int64
		customer    string
		eqName      string
		start, end  int64
		active      bool
		cost, down  float64
		x, y        int
		cancelledUs sql.NullInt64
	)
	if err := row.Scan(&id, &customer, &eqName, &start, &end, &active, &cost, &down, &x, &y, &cancelledUs); err != nil {
		return nil, err
	}

	slot, err := reservation.NewTimeSlot(fromMicros(start), fromMicros(end))
	if err != nil {
		return nil, err
	}

	status := reservation.StatusActive
	if !active {
		status = reservation.StatusCancelled
	}

	var cancelledAt *time.Time
	if cancelledUs.Valid {
		at := fromMicros(cancelledUs.Int64)
		cancelledAt = &at
	}

	return reservation.ReconstructReservation(id, customer, eqName, slot, cost, down, reservation.NewLocation(x, y), status, cancelledAt), nil
}

// Unix microseconds match TIMESTAMPTZ precision and stay exact for any
// four digit year, unlike UnixNano which wraps past 2262.
func toMicros(t time.Time) int64 {
	return t.UnixMicro()
}

func fromMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}
