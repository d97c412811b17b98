package repositories

import (
	"testing"

	"finance-tracker/internal/database"
	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

func TestLinkedAccountRepository(t *testing.T) {
	suite.Run(t, new(LinkedAccountRepositorySuite))
}

type LinkedAccountRepositorySuite struct {
	suite.Suite
	db   *database.DB
	repo LinkedAccountRepositoryInterface
	user *models.User
	item *models.Item
}

func (s *LinkedAccountRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.repo = NewLinkedAccountRepository(s.db.DB)
	s.user = database.CreateTestUser(s.T(), s.db, "linked@example.com")
	s.item = database.CreateTestItem(s.T(), s.db, s.user.ID, "item-linked")
}

func (s *LinkedAccountRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *LinkedAccountRepositorySuite) newAccount(recordID string, itemID *uuid.UUID) *models.LinkedAccount {
	account := &models.LinkedAccount{
		RecordID:      recordID,
		UserID:        s.user.ID,
		ItemID:        itemID,
		Name:          "Demo Bank Account",
		Institution:   "Demo Bank",
		Balance:       decimal.NewFromInt(1000),
		AccountNumber: "****1234",
		Connected:     true,
	}
	s.Require().NoError(s.repo.Create(account))
	return account
}

func (s *LinkedAccountRepositorySuite) TestCreateAndGet() {
	account := s.newAccount("acc_1", nil)
	s.Equal(models.LinkedAccountTypeChecking, account.Type)
	s.Equal("USD", account.Currency)

	found, err := s.repo.GetByRecordID(s.user.ID, "acc_1")
	s.Require().NoError(err)
	s.Equal(account.ID, found.ID)
	s.True(found.Balance.Equal(decimal.NewFromInt(1000)))
}

func (s *LinkedAccountRepositorySuite) TestGetByRecordID_ScopedToUser() {
	s.newAccount("acc_1", nil)

	_, err := s.repo.GetByRecordID(uuid.New(), "acc_1")
	s.ErrorIs(err, ErrLinkedAccountNotFound)
}

func (s *LinkedAccountRepositorySuite) TestCreate_DuplicateRecordID() {
	s.newAccount("acc_dup", nil)

	err := s.repo.Create(&models.LinkedAccount{
		RecordID:      "acc_dup",
		UserID:        s.user.ID,
		Name:          "Other",
		Institution:   "Other Bank",
		AccountNumber: "****9999",
	})
	s.ErrorIs(err, ErrLinkedAccountExists)
}

func (s *LinkedAccountRepositorySuite) TestCreate_Invalid() {
	err := s.repo.Create(&models.LinkedAccount{UserID: s.user.ID, Institution: "Demo Bank"})
	s.ErrorIs(err, models.ErrMissingRecordID)
}

func (s *LinkedAccountRepositorySuite) TestListByUserID_InLinkOrder() {
	s.newAccount("acc_1", nil)
	s.newAccount("acc_2", nil)

	accounts, err := s.repo.ListByUserID(s.user.ID)
	s.Require().NoError(err)
	s.Require().Len(accounts, 2)
	s.Equal("acc_1", accounts[0].RecordID)
	s.Equal("acc_2", accounts[1].RecordID)
}

func (s *LinkedAccountRepositorySuite) TestItemScopedQueries() {
	s.newAccount("acc_1", &s.item.ID)
	s.newAccount("acc_2", &s.item.ID)
	s.newAccount("acc_3", nil)

	count, err := s.repo.CountByItemID(s.item.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), count)

	updated, err := s.repo.SetConnectedByItemID(s.item.ID, false)
	s.Require().NoError(err)
	s.Equal(int64(2), updated)

	found, err := s.repo.GetByRecordID(s.user.ID, "acc_1")
	s.Require().NoError(err)
	s.False(found.Connected)

	untouched, err := s.repo.GetByRecordID(s.user.ID, "acc_3")
	s.Require().NoError(err)
	s.True(untouched.Connected)
}

func (s *LinkedAccountRepositorySuite) TestUpdate() {
	account := s.newAccount("acc_1", nil)

	account.Balance = decimal.RequireFromString("2500.55")
	s.Require().NoError(s.repo.Update(account))

	found, err := s.repo.GetByRecordID(s.user.ID, "acc_1")
	s.Require().NoError(err)
	s.Equal("2500.55", found.Balance.StringFixed(2))
}

func (s *LinkedAccountRepositorySuite) TestDelete() {
	s.newAccount("acc_1", nil)

	s.Require().NoError(s.repo.Delete(s.user.ID, "acc_1"))
	_, err := s.repo.GetByRecordID(s.user.ID, "acc_1")
	s.ErrorIs(err, ErrLinkedAccountNotFound)

	s.ErrorIs(s.repo.Delete(s.user.ID, "acc_1"), ErrLinkedAccountNotFound)
}
