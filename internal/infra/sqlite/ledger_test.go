//go:build unit

package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"grid-reservation/internal/domain/user"
	"grid-reservation/internal/infra"
	"grid-reservation/internal/infra/ledgertest"
	"grid-reservation/internal/infra/sqlite"
	"grid-reservation/internal/usecase/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func openDB(t *testing.T) *sqlite.Ledger {
	t.Helper()
	db, cleanup, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return sqlite.NewLedger(db)
}

func TestLedger(t *testing.T) {
	ls := &ledgertest.LedgerSuite{}
	ls.NewLedger = func() shared.Ledger { return openDB(ls.T()) }
	suite.Run(t, ls)
}

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	db, cleanup, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(cleanup)
	store := sqlite.NewUserStore(db)

	jane, err := user.NewUser("jane", "Jane", user.RoleCustomer)
	require.NoError(t, err)

	id, err := store.CreateUser(ctx, jane)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	_, err = store.CreateUser(ctx, jane)
	assert.True(t, infra.IsKind(err, infra.KindDuplicateKey), "got %v", err)

	got, err := store.FindUser(ctx, "jane")
	require.NoError(t, err)
	require.NoError(t, got.ChangeRole(user.RoleScheduler))
	got.Deactivate()
	require.NoError(t, store.UpdateUser(ctx, got))

	updated, err := store.FindUser(ctx, "jane")
	require.NoError(t, err)
	assert.Equal(t, user.RoleScheduler, updated.Role())
	assert.False(t, updated.IsActive())

	list, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = store.FindUser(ctx, "nobody")
	assert.True(t, infra.IsKind(err, infra.KindNotFound))
}
