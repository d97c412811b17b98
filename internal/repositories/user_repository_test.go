package repositories

import (
	"testing"
	"time"

	"finance-tracker/internal/database"
	"finance-tracker/internal/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

func TestUserRepository(t *testing.T) {
	suite.Run(t, new(UserRepositorySuite))
}

type UserRepositorySuite struct {
	suite.Suite
	db   *database.DB
	repo UserRepositoryInterface
}

func (s *UserRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.repo = NewUserRepository(s.db.DB)
}

func (s *UserRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *UserRepositorySuite) newUser(email string) *models.User {
	return &models.User{
		Email:        email,
		PasswordHash: "hashed_password",
		FirstName:    gofakeit.FirstName(),
		LastName:     gofakeit.LastName(),
		Role:         models.RoleMember,
	}
}

func (s *UserRepositorySuite) TestCreate() {
	user := s.newUser("  Member@Example.COM ")

	s.Require().NoError(s.repo.Create(user))
	s.NotEqual(uuid.Nil, user.ID)
	s.Equal("member@example.com", user.Email)
	s.NotZero(user.CreatedAt)
}

func (s *UserRepositorySuite) TestCreate_Nil() {
	s.Error(s.repo.Create(nil))
}

func (s *UserRepositorySuite) TestCreate_DuplicateEmail() {
	s.Require().NoError(s.repo.Create(s.newUser("dup@example.com")))

	err := s.repo.Create(s.newUser("DUP@example.com"))
	s.ErrorIs(err, ErrUserAlreadyExists)
}

func (s *UserRepositorySuite) TestGetByEmail_CaseInsensitive() {
	user := s.newUser("lookup@example.com")
	s.Require().NoError(s.repo.Create(user))

	found, err := s.repo.GetByEmail("LookUp@Example.com")
	s.Require().NoError(err)
	s.Equal(user.ID, found.ID)
}

func (s *UserRepositorySuite) TestGetByEmail_NotFound() {
	_, err := s.repo.GetByEmail("nobody@example.com")
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *UserRepositorySuite) TestGetByID() {
	user := s.newUser(gofakeit.Email())
	s.Require().NoError(s.repo.Create(user))

	found, err := s.repo.GetByID(user.ID)
	s.Require().NoError(err)
	s.Equal(user.Email, found.Email)

	_, err = s.repo.GetByID(uuid.New())
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *UserRepositorySuite) TestUpdate() {
	user := s.newUser(gofakeit.Email())
	s.Require().NoError(s.repo.Create(user))

	user.FirstName = "Renamed"
	s.Require().NoError(s.repo.Update(user))

	found, err := s.repo.GetByID(user.ID)
	s.Require().NoError(err)
	s.Equal("Renamed", found.FirstName)
}

func (s *UserRepositorySuite) TestFailedLoginAttempts() {
	user := s.newUser(gofakeit.Email())
	s.Require().NoError(s.repo.Create(user))

	lockedAt := time.Now()
	user.FailedLoginAttempts = models.MaxFailedLoginAttempts
	user.LockedAt = &lockedAt
	s.Require().NoError(s.repo.UpdateFailedLoginAttempts(user))

	found, err := s.repo.GetByID(user.ID)
	s.Require().NoError(err)
	s.Equal(models.MaxFailedLoginAttempts, found.FailedLoginAttempts)
	s.NotNil(found.LockedAt)

	user.FailedLoginAttempts = 0
	user.LockedAt = nil
	s.Require().NoError(s.repo.UpdateFailedLoginAttempts(user))

	found, err = s.repo.GetByID(user.ID)
	s.Require().NoError(err)
	s.Zero(found.FailedLoginAttempts)
	s.Nil(found.LockedAt)
}
