package dto

import (
	"finance-tracker/internal/models"
)

// LinkedAccountResponse is a linked account as the dashboard renders it
type LinkedAccountResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Institution   string `json:"institution"`
	Balance       string `json:"balance"`
	Currency      string `json:"currency"`
	LastUpdated   string `json:"lastUpdated"`
	AccountNumber string `json:"accountNumber"`
	Connected     bool   `json:"connected"`
}

func NewLinkedAccountResponse(account *models.LinkedAccount) LinkedAccountResponse {
	return LinkedAccountResponse{
		ID:            account.RecordID,
		Name:          account.Name,
		Type:          account.Type,
		Institution:   account.Institution,
		Balance:       account.Balance.StringFixed(2),
		Currency:      account.Currency,
		LastUpdated:   account.LastUpdatedDate(),
		AccountNumber: account.AccountNumber,
		Connected:     account.Connected,
	}
}

type LinkedAccountListResponse struct {
	Accounts []LinkedAccountResponse `json:"accounts"`
	Count    int                     `json:"count"`
}

func NewLinkedAccountListResponse(accounts []models.LinkedAccount) LinkedAccountListResponse {
	resp := LinkedAccountListResponse{
		Accounts: make([]LinkedAccountResponse, 0, len(accounts)),
		Count:    len(accounts),
	}
	for i := range accounts {
		resp.Accounts = append(resp.Accounts, NewLinkedAccountResponse(&accounts[i]))
	}
	return resp
}

type AccountSummaryResponse struct {
	TotalBalance     string `json:"totalBalance"`
	CreditBalance    string `json:"creditBalance"`
	AccountCount     int    `json:"accountCount"`
	ConnectedCount   int    `json:"connectedCount"`
	InstitutionCount int    `json:"institutionCount"`
}

func NewAccountSummaryResponse(summary *models.LinkedAccountSummary) AccountSummaryResponse {
	return AccountSummaryResponse{
		TotalBalance:     summary.TotalBalance.StringFixed(2),
		CreditBalance:    summary.CreditBalance.StringFixed(2),
		AccountCount:     summary.AccountCount,
		ConnectedCount:   summary.ConnectedCount,
		InstitutionCount: summary.InstitutionCount,
	}
}

// PaginationResponse describes a page of results
type PaginationResponse struct {
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
	Total  int64 `json:"total"`
}

type LinkEventListResponse struct {
	Events     []models.LinkEvent `json:"events"`
	Pagination PaginationResponse `json:"pagination"`
}
