package repo

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-user-service/internal/domain"
)

// newTestDB opens a private in-memory database per test. cache=shared plus a
// single pooled connection keeps the database alive for the test's lifetime.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&UserRecord{}))
	return db
}

// newScope is one request-scoped unit of work plus its repository.
func newScope(db *gorm.DB) (*UnitOfWork, *UserRepo) {
	uow := NewUnitOfWork(db, nil)
	return uow, NewUserRepo(uow)
}

func mustNewUser(t *testing.T, username, email string) *domain.User {
	t.Helper()
	u, err := domain.NewUser(username, email, "John", "Doe", "hash")
	require.NoError(t, err)
	return u
}
