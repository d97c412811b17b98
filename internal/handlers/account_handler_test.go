package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/models"
	"finance-tracker/internal/services"
	"finance-tracker/internal/services/service_mocks"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

func TestAccountHandler(t *testing.T) {
	suite.Run(t, new(AccountHandlerSuite))
}

type AccountHandlerSuite struct {
	suite.Suite
	ctrl           *gomock.Controller
	accountService *service_mocks.MockLinkedAccountServiceInterface
	handler        *AccountHandler
	e              *echo.Echo
	userID         uuid.UUID
}

func (s *AccountHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.accountService = service_mocks.NewMockLinkedAccountServiceInterface(s.ctrl)
	s.handler = NewAccountHandler(s.accountService, nil)
	s.e = newTestEcho()
	s.userID = uuid.New()
}

func (s *AccountHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AccountHandlerSuite) fakeAccount() models.LinkedAccount {
	institution := gofakeit.Company()
	return models.LinkedAccount{
		RecordID:      fmt.Sprintf("acc_%d", gofakeit.Number(1600000000000, 1800000000000)),
		UserID:        s.userID,
		Name:          institution + " Account",
		Type:          gofakeit.RandomString([]string{"checking", "savings", "credit"}),
		Institution:   institution,
		Balance:       decimal.NewFromFloat(gofakeit.Price(10, 5000)).Round(2),
		Currency:      "USD",
		AccountNumber: "****" + gofakeit.DigitN(4),
		Connected:     true,
		LastUpdated:   time.Now(),
	}
}

// withAccountID sets the :accountId path parameter
func withAccountID(c echo.Context, id string) echo.Context {
	c.SetParamNames("accountId")
	c.SetParamValues(id)
	return c
}

func (s *AccountHandlerSuite) TestListAccounts() {
	accounts := []models.LinkedAccount{s.fakeAccount(), s.fakeAccount()}
	s.accountService.EXPECT().List(s.userID).Return(accounts, nil)

	c, rec := newRequestContext(s.e, http.MethodGet, "/api/v1/accounts", nil, &s.userID)
	s.NoError(s.handler.ListAccounts(c))

	s.Equal(http.StatusOK, rec.Code)
	var body dto.LinkedAccountListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal(2, body.Count)
	s.Equal(accounts[0].RecordID, body.Accounts[0].ID)
	s.Equal(accounts[1].Balance.StringFixed(2), body.Accounts[1].Balance)
}

func (s *AccountHandlerSuite) TestListAccounts_Empty() {
	s.accountService.EXPECT().List(s.userID).Return(nil, nil)

	c, rec := newRequestContext(s.e, http.MethodGet, "/api/v1/accounts", nil, &s.userID)
	s.NoError(s.handler.ListAccounts(c))
	s.Contains(rec.Body.String(), `"accounts":[]`)
}

func (s *AccountHandlerSuite) TestListAccounts_Unauthenticated() {
	c, rec := newRequestContext(s.e, http.MethodGet, "/api/v1/accounts", nil, nil)
	s.NoError(s.handler.ListAccounts(c))
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *AccountHandlerSuite) TestGetAccount_NotFound() {
	s.accountService.EXPECT().Get(s.userID, "acc_missing").Return(nil, services.ErrLinkedAccountNotFound)

	c, rec := newRequestContext(s.e, http.MethodGet, "/api/v1/accounts/acc_missing", nil, &s.userID)
	s.NoError(s.handler.GetAccount(withAccountID(c, "acc_missing")))
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("ACCOUNT_001", decodeError(rec).Error.Code)
}

func (s *AccountHandlerSuite) TestSummary() {
	s.accountService.EXPECT().Summary(s.userID).Return(&models.LinkedAccountSummary{
		TotalBalance:     decimal.RequireFromString("2500.5"),
		CreditBalance:    decimal.RequireFromString("-120"),
		AccountCount:     3,
		ConnectedCount:   2,
		InstitutionCount: 2,
	}, nil)

	c, rec := newRequestContext(s.e, http.MethodGet, "/api/v1/accounts/summary", nil, &s.userID)
	s.NoError(s.handler.Summary(c))

	s.Equal(http.StatusOK, rec.Code)
	var body dto.AccountSummaryResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("2500.50", body.TotalBalance)
	s.Equal("-120.00", body.CreditBalance)
	s.Equal(3, body.AccountCount)
}

func (s *AccountHandlerSuite) TestRefreshAccount() {
	account := s.fakeAccount()
	s.accountService.EXPECT().Refresh(gomock.Any(), s.userID, account.RecordID).Return(&account, nil)

	c, rec := newRequestContext(s.e, http.MethodPost, "/api/v1/accounts/"+account.RecordID+"/refresh", nil, &s.userID)
	s.NoError(s.handler.RefreshAccount(withAccountID(c, account.RecordID)))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), account.RecordID)
}

func (s *AccountHandlerSuite) TestRefreshAccount_Errors() {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"disconnected", services.ErrAccountDisconnected, http.StatusUnprocessableEntity, "ACCOUNT_002"},
		{"breaker open", fmt.Errorf("%w: %w", services.ErrBalanceRefreshFailed, services.ErrProviderUnavailable), http.StatusServiceUnavailable, "LINK_007"},
		{"provider failure", fmt.Errorf("%w: ITEM_LOGIN_REQUIRED", services.ErrBalanceRefreshFailed), http.StatusBadGateway, "ACCOUNT_003"},
		{"database", errors.New("pq: deadlock detected"), http.StatusInternalServerError, "SYSTEM_001"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.accountService.EXPECT().Refresh(gomock.Any(), s.userID, "acc_1").Return(nil, tt.err)

			c, rec := newRequestContext(s.e, http.MethodPost, "/api/v1/accounts/acc_1/refresh", nil, &s.userID)
			s.NoError(s.handler.RefreshAccount(withAccountID(c, "acc_1")))
			s.Equal(tt.status, rec.Code)
			s.Equal(tt.code, decodeError(rec).Error.Code)
		})
	}
}

func (s *AccountHandlerSuite) TestDisconnectAccount() {
	s.accountService.EXPECT().Disconnect(gomock.Any(), s.userID, "acc_2").Return(nil)

	c, rec := newRequestContext(s.e, http.MethodDelete, "/api/v1/accounts/acc_2", nil, &s.userID)
	s.NoError(s.handler.DisconnectAccount(withAccountID(c, "acc_2")))
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *AccountHandlerSuite) TestDisconnectAccount_NotFound() {
	s.accountService.EXPECT().Disconnect(gomock.Any(), s.userID, "acc_3").Return(services.ErrLinkedAccountNotFound)

	c, rec := newRequestContext(s.e, http.MethodDelete, "/api/v1/accounts/acc_3", nil, &s.userID)
	s.NoError(s.handler.DisconnectAccount(withAccountID(c, "acc_3")))
	s.Equal(http.StatusNotFound, rec.Code)
}
