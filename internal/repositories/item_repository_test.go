package repositories

import (
	"testing"
	"time"

	"finance-tracker/internal/database"
	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

func TestItemRepository(t *testing.T) {
	suite.Run(t, new(ItemRepositorySuite))
}

type ItemRepositorySuite struct {
	suite.Suite
	db   *database.DB
	repo ItemRepositoryInterface
	user *models.User
}

func (s *ItemRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.repo = NewItemRepository(s.db.DB)
	s.user = database.CreateTestUser(s.T(), s.db, "items@example.com")
}

func (s *ItemRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *ItemRepositorySuite) newItem(providerItemID string) *models.Item {
	item := &models.Item{
		UserID:          s.user.ID,
		ProviderItemID:  providerItemID,
		AccessToken:     "access-sandbox-" + providerItemID,
		InstitutionName: "First Platypus Bank",
	}
	s.Require().NoError(s.repo.Create(item))
	return item
}

func (s *ItemRepositorySuite) TestCreate_DefaultsActive() {
	item := s.newItem("item-1")
	s.Equal(models.ItemStatusActive, item.Status)
	s.NotEqual(uuid.Nil, item.ID)
}

func (s *ItemRepositorySuite) TestCreate_Duplicate() {
	s.newItem("item-1")

	err := s.repo.Create(&models.Item{UserID: s.user.ID, ProviderItemID: "item-1", AccessToken: "x"})
	s.ErrorIs(err, ErrItemAlreadyExists)
}

func (s *ItemRepositorySuite) TestLookups() {
	item := s.newItem("item-1")

	byID, err := s.repo.GetByID(item.ID)
	s.Require().NoError(err)
	s.Equal("item-1", byID.ProviderItemID)

	byProvider, err := s.repo.GetByProviderItemID("item-1")
	s.Require().NoError(err)
	s.Equal(item.ID, byProvider.ID)

	_, err = s.repo.GetByProviderItemID("item-unknown")
	s.ErrorIs(err, ErrItemNotFound)

	_, err = s.repo.GetByID(uuid.New())
	s.ErrorIs(err, ErrItemNotFound)
}

func (s *ItemRepositorySuite) TestListByUserID() {
	s.newItem("item-1")
	s.newItem("item-2")

	items, err := s.repo.ListByUserID(s.user.ID)
	s.Require().NoError(err)
	s.Len(items, 2)
}

func (s *ItemRepositorySuite) TestUpdateStatus() {
	item := s.newItem("item-1")

	s.Require().NoError(item.ApplyStatus(models.ItemStatusLoginRequired, "ITEM_LOGIN_REQUIRED", "credentials changed", time.Now()))
	s.Require().NoError(s.repo.Update(item))

	found, err := s.repo.GetByID(item.ID)
	s.Require().NoError(err)
	s.Equal(models.ItemStatusLoginRequired, found.Status)
	s.Equal("ITEM_LOGIN_REQUIRED", found.ErrorCode)
	s.False(found.IsUsable())
}

func (s *ItemRepositorySuite) TestDelete() {
	item := s.newItem("item-1")

	s.Require().NoError(s.repo.Delete(item.ID))
	s.ErrorIs(s.repo.Delete(item.ID), ErrItemNotFound)
}
