package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-user-service/internal/domain"
)

func TestSaveChanges_ReturnsAffectedCount(t *testing.T) {
	db := newTestDB(t)
	uow, users := newScope(db)
	ctx := context.Background()

	users.Add(mustNewUser(t, "johndoe", "john@example.com"))
	users.Add(mustNewUser(t, "janedoe", "jane@example.com"))
	n, err := uow.SaveChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Zero(t, uow.Pending())
}

func TestSaveChanges_NothingStaged(t *testing.T) {
	db := newTestDB(t)
	uow, _ := newScope(db)

	n, err := uow.SaveChanges(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSaveChanges_Cancelled(t *testing.T) {
	db := newTestDB(t)
	uow, users := newScope(db)

	users.Add(mustNewUser(t, "johndoe", "john@example.com"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := uow.SaveChanges(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// Nothing was applied; a fresh scope sees no rows.
	_, fresh := newScope(db)
	got, err := fresh.GetByUsername(context.Background(), "johndoe")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveChanges_ConcurrentUpdateConflict(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	setup, setupRepo := newScope(db)
	seeded := mustNewUser(t, "johndoe", "john@example.com")
	setupRepo.Add(seeded)
	_, err := setup.SaveChanges(ctx)
	require.NoError(t, err)

	// Two independent scopes load the same row.
	uow1, repo1 := newScope(db)
	uow2, repo2 := newScope(db)

	u1, err := repo1.GetByID(ctx, seeded.ID())
	require.NoError(t, err)
	u2, err := repo2.GetByID(ctx, seeded.ID())
	require.NoError(t, err)

	require.NoError(t, u1.UpdateProfile("First", "Writer"))
	repo1.Update(u1)
	_, err = uow1.SaveChanges(ctx)
	require.NoError(t, err)

	require.NoError(t, u2.UpdateProfile("Second", "Writer"))
	repo2.Update(u2)
	_, err = uow2.SaveChanges(ctx)
	var cerr *domain.ConcurrencyError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, seeded.ID(), cerr.ID)

	// The loser's changes were not applied.
	_, fresh := newScope(db)
	got, err := fresh.GetByID(ctx, seeded.ID())
	require.NoError(t, err)
	assert.Equal(t, "First", got.FirstName())
	assert.Equal(t, int64(2), got.Version())
}

func TestSaveChanges_UpdateOfVanishedRowIsNoop(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	uow, users := newScope(db)
	u := mustNewUser(t, "johndoe", "john@example.com")
	users.Add(u)
	_, err := uow.SaveChanges(ctx)
	require.NoError(t, err)

	loaded, err := users.GetByID(ctx, u.ID())
	require.NoError(t, err)

	// The row disappears underneath the scope (e.g. out-of-band cleanup).
	require.NoError(t, db.Exec("DELETE FROM users WHERE id = ?", u.ID()).Error)

	require.NoError(t, loaded.UpdateProfile("Jane", "Smith"))
	users.Update(loaded)
	n, err := uow.SaveChanges(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSaveChanges_AtomicAcrossChanges(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	setup, setupRepo := newScope(db)
	setupRepo.Add(mustNewUser(t, "johndoe", "john@example.com"))
	_, err := setup.SaveChanges(ctx)
	require.NoError(t, err)

	// One valid insert plus one uniqueness violation: neither may land.
	uow, users := newScope(db)
	users.Add(mustNewUser(t, "janedoe", "jane@example.com"))
	users.Add(mustNewUser(t, "johndoe", "dup@example.com"))
	_, err = uow.SaveChanges(ctx)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	_, fresh := newScope(db)
	got, err := fresh.GetByUsername(ctx, "janedoe")
	require.NoError(t, err)
	assert.Nil(t, got)

	// The failed flush keeps the changes staged.
	assert.Equal(t, 2, uow.Pending())
}

func TestTransaction_RollbackRestoresState(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	uow, users := newScope(db)
	require.NoError(t, uow.BeginTransaction(ctx))
	users.Add(mustNewUser(t, "johndoe", "john@example.com"))
	_, err := uow.SaveChanges(ctx)
	require.NoError(t, err)

	// Flushed but uncommitted: visible inside the scope only.
	inside, err := users.GetByUsername(ctx, "johndoe")
	require.NoError(t, err)
	require.NotNil(t, inside)

	uow.RollbackTransaction(ctx)

	got, err := users.GetByUsername(ctx, "johndoe")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, uow.Pending())
}

func TestTransaction_CommitAppliesAll(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	uow, users := newScope(db)
	require.NoError(t, uow.BeginTransaction(ctx))
	users.Add(mustNewUser(t, "johndoe", "john@example.com"))
	_, err := uow.SaveChanges(ctx)
	require.NoError(t, err)
	users.Add(mustNewUser(t, "janedoe", "jane@example.com"))
	require.NoError(t, uow.CommitTransaction(ctx))

	_, fresh := newScope(db)
	for _, name := range []string{"johndoe", "janedoe"} {
		got, err := fresh.GetByUsername(ctx, name)
		require.NoError(t, err)
		require.NotNil(t, got, name)
	}
}

func TestTransaction_CommitFailureRollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	setup, setupRepo := newScope(db)
	setupRepo.Add(mustNewUser(t, "johndoe", "john@example.com"))
	_, err := setup.SaveChanges(ctx)
	require.NoError(t, err)

	uow, users := newScope(db)
	require.NoError(t, uow.BeginTransaction(ctx))
	users.Add(mustNewUser(t, "janedoe", "jane@example.com"))
	_, err = uow.SaveChanges(ctx)
	require.NoError(t, err)
	users.Add(mustNewUser(t, "johndoe", "dup@example.com"))
	err = uow.CommitTransaction(ctx)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	// The whole transaction was rolled back, including the earlier flush,
	// and the handle was released.
	_, fresh := newScope(db)
	got, err := fresh.GetByUsername(ctx, "janedoe")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, uow.BeginTransaction(ctx))
	uow.RollbackTransaction(ctx)
}

func TestTransaction_RollbackWithoutOpenTransaction(t *testing.T) {
	db := newTestDB(t)
	uow, users := newScope(db)

	users.Add(mustNewUser(t, "johndoe", "john@example.com"))
	uow.RollbackTransaction(context.Background())

	// No-op: staged changes outside a transaction are untouched.
	assert.Equal(t, 1, uow.Pending())
}

func TestTransaction_DoubleBegin(t *testing.T) {
	db := newTestDB(t)
	uow, _ := newScope(db)
	ctx := context.Background()

	require.NoError(t, uow.BeginTransaction(ctx))
	defer uow.Close()

	var perr *domain.PersistenceError
	err := uow.BeginTransaction(ctx)
	require.ErrorAs(t, err, &perr)
}
