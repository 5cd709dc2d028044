//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"grid-reservation/internal/domain/equipment"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func CreateTestUser(t *testing.T, db DBLike, username, firstName, role string) int64 {
	t.Helper()

	ctx := context.Background()
	var id int64
	err := db.QueryRow(ctx, `
		INSERT INTO users (username, first_name, role, active) VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (username) DO UPDATE SET first_name = EXCLUDED.first_name
		RETURNING id`,
		username, firstName, role).Scan(&id)
	require.NoError(t, err)

	return id
}

func CountReservations(t *testing.T, db DBLike, equipmentName string, active bool) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM reservations WHERE equipment = $1 AND active = $2`, equipmentName, active).Scan(&n)
	require.NoError(t, err)
	return n
}

// inserts the default equipment catalog
func SeedReferenceData(pool *pgxpool.Pool) error {
	ctx := context.Background()

	for _, item := range equipment.DefaultItems() {
		_, err := pool.Exec(ctx, `
			INSERT INTO equipment (name, capacity, hourly_rate) VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE SET capacity = EXCLUDED.capacity, hourly_rate = EXCLUDED.hourly_rate`,
			item.Name, item.Capacity, item.HourlyRate)
		if err != nil {
			return err
		}
	}

	return nil
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// TruncateAll empties every table and restarts the id sequences.
func TruncateAll(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	_, err := pool.Exec(ctx, sqlAny.(string))
	return err
}

// truncates all tables and reseeds reference data
func ResetDB(pool *pgxpool.Pool) error {
	if err := TruncateAll(pool); err != nil {
		return err
	}
	return SeedReferenceData(pool)
}
