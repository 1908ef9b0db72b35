package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"go-user-service/internal/domain"
)

type UserRepoSuite struct {
	suite.Suite
	db   *gorm.DB
	uow  *UnitOfWork
	repo *UserRepo
	ctx  context.Context
}

func TestUserRepoSuite(t *testing.T) {
	suite.Run(t, new(UserRepoSuite))
}

func (s *UserRepoSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.uow, s.repo = newScope(s.db)
	s.ctx = context.Background()
}

func (s *UserRepoSuite) seed(username, email string) *domain.User {
	u := mustNewUser(s.T(), username, email)
	s.repo.Add(u)
	_, err := s.uow.SaveChanges(s.ctx)
	require.NoError(s.T(), err)
	return u
}

func (s *UserRepoSuite) TestAddAndGetByID() {
	u := s.seed("johndoe", "john@example.com")

	got, err := s.repo.GetByID(s.ctx, u.ID())
	require.NoError(s.T(), err)
	require.NotNil(s.T(), got)
	assert.Equal(s.T(), u.ID(), got.ID())
	assert.Equal(s.T(), "johndoe", got.Username())
	assert.Equal(s.T(), "john@example.com", got.Email())
	assert.True(s.T(), got.IsActive())
	assert.False(s.T(), got.IsDeleted())
	assert.Equal(s.T(), int64(1), got.Version())
}

func (s *UserRepoSuite) TestGetByID_Missing() {
	got, err := s.repo.GetByID(s.ctx, "nope")
	require.NoError(s.T(), err)
	assert.Nil(s.T(), got)
}

func (s *UserRepoSuite) TestGetByUsernameAndEmail() {
	u := s.seed("johndoe", "john@example.com")

	byName, err := s.repo.GetByUsername(s.ctx, "johndoe")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), byName)
	assert.Equal(s.T(), u.ID(), byName.ID())

	byMail, err := s.repo.GetByEmail(s.ctx, "john@example.com")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), byMail)
	assert.Equal(s.T(), u.ID(), byMail.ID())

	missing, err := s.repo.GetByUsername(s.ctx, "janedoe")
	require.NoError(s.T(), err)
	assert.Nil(s.T(), missing)
}

func (s *UserRepoSuite) TestExists() {
	s.seed("johndoe", "john@example.com")

	ok, err := s.repo.ExistsByUsername(s.ctx, "johndoe")
	require.NoError(s.T(), err)
	assert.True(s.T(), ok)

	ok, err = s.repo.ExistsByEmail(s.ctx, "john@example.com")
	require.NoError(s.T(), err)
	assert.True(s.T(), ok)

	ok, err = s.repo.ExistsByUsername(s.ctx, "janedoe")
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)
}

func (s *UserRepoSuite) TestUpdatePersistsAndBumpsVersion() {
	u := s.seed("johndoe", "john@example.com")

	loaded, err := s.repo.GetByID(s.ctx, u.ID())
	require.NoError(s.T(), err)
	require.NoError(s.T(), loaded.UpdateProfile("Jane", "Smith"))
	s.repo.Update(loaded)
	n, err := s.uow.SaveChanges(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, n)

	got, err := s.repo.GetByID(s.ctx, u.ID())
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Jane", got.FirstName())
	assert.Equal(s.T(), "Smith", got.LastName())
	assert.Equal(s.T(), int64(2), got.Version())
	assert.NotNil(s.T(), got.UpdatedAt())
}

func (s *UserRepoSuite) TestSoftDeleteVisibility() {
	u := s.seed("johndoe", "john@example.com")

	loaded, err := s.repo.GetByID(s.ctx, u.ID())
	require.NoError(s.T(), err)
	s.repo.Delete(loaded)
	_, err = s.uow.SaveChanges(s.ctx)
	require.NoError(s.T(), err)

	byID, err := s.repo.GetByID(s.ctx, u.ID())
	require.NoError(s.T(), err)
	assert.Nil(s.T(), byID)

	byName, err := s.repo.GetByUsername(s.ctx, "johndoe")
	require.NoError(s.T(), err)
	assert.Nil(s.T(), byName)

	byMail, err := s.repo.GetByEmail(s.ctx, "john@example.com")
	require.NoError(s.T(), err)
	assert.Nil(s.T(), byMail)

	ok, err := s.repo.ExistsByUsername(s.ctx, "johndoe")
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)

	ok, err = s.repo.ExistsByEmail(s.ctx, "john@example.com")
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)

	all, err := s.repo.GetAll(s.ctx)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), all)

	// The row still physically exists; the admin escape hatch sees it.
	raw, err := s.repo.GetByIDAny(s.ctx, u.ID())
	require.NoError(s.T(), err)
	require.NotNil(s.T(), raw)
	assert.True(s.T(), raw.IsDeleted())
}

func (s *UserRepoSuite) TestUsernameUniqueness() {
	s.seed("johndoe", "john@example.com")

	dup := mustNewUser(s.T(), "johndoe", "other@example.com")
	s.repo.Add(dup)
	_, err := s.uow.SaveChanges(s.ctx)
	var verr *domain.ValidationError
	require.ErrorAs(s.T(), err, &verr)
	assert.Equal(s.T(), domain.InvalidUsername, verr.Kind)
}

func (s *UserRepoSuite) TestEmailUniqueness() {
	s.seed("johndoe", "john@example.com")

	dup := mustNewUser(s.T(), "janedoe", "john@example.com")
	s.repo.Add(dup)
	_, err := s.uow.SaveChanges(s.ctx)
	var verr *domain.ValidationError
	require.ErrorAs(s.T(), err, &verr)
	assert.Equal(s.T(), domain.InvalidEmail, verr.Kind)
}

func (s *UserRepoSuite) TestDeletedUsernameIsReusable() {
	u := s.seed("johndoe", "john@example.com")

	loaded, err := s.repo.GetByID(s.ctx, u.ID())
	require.NoError(s.T(), err)
	s.repo.Delete(loaded)
	_, err = s.uow.SaveChanges(s.ctx)
	require.NoError(s.T(), err)

	// Fresh staged set: the name and address are free again.
	again := mustNewUser(s.T(), "johndoe", "john@example.com")
	s.repo.Add(again)
	_, err = s.uow.SaveChanges(s.ctx)
	require.NoError(s.T(), err)

	got, err := s.repo.GetByUsername(s.ctx, "johndoe")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), got)
	assert.Equal(s.T(), again.ID(), got.ID())
}

func (s *UserRepoSuite) TestDeleteByID_MissingIsNoop() {
	require.NoError(s.T(), s.repo.DeleteByID(s.ctx, "nope"))
	assert.Zero(s.T(), s.uow.Pending())
}

func (s *UserRepoSuite) TestDeleteIsIdempotent() {
	u := s.seed("johndoe", "john@example.com")

	loaded, err := s.repo.GetByID(s.ctx, u.ID())
	require.NoError(s.T(), err)
	s.repo.Delete(loaded)
	assert.Equal(s.T(), 1, s.uow.Pending())

	// Second delete of the same aggregate stages nothing.
	s.repo.Delete(loaded)
	assert.Equal(s.T(), 1, s.uow.Pending())
}

func (s *UserRepoSuite) TestList() {
	s.seed("johndoe", "john@example.com")
	second := s.seed("janedoe", "jane@example.com")

	loaded, err := s.repo.GetByID(s.ctx, second.ID())
	require.NoError(s.T(), err)
	s.repo.Delete(loaded)
	_, err = s.uow.SaveChanges(s.ctx)
	require.NoError(s.T(), err)

	users, total, err := s.repo.List(s.ctx, 0, 20, false)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), total)
	require.Len(s.T(), users, 1)
	assert.Equal(s.T(), "johndoe", users[0].Username())

	users, total, err = s.repo.List(s.ctx, 0, 20, true)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), total)
	assert.Len(s.T(), users, 2)
}
