package dto

import (
	"time"

	"finance-tracker/internal/linkflow"
	"finance-tracker/internal/models"
)

// Link Request DTOs

// StartSessionRequest starts a link attempt. Without a link token the attempt is simulated.
type StartSessionRequest struct {
	LinkToken string `json:"link_token" validate:"omitempty,max=255"`
	Variant   string `json:"variant" validate:"omitempty,link_variant"`
	Loading   bool   `json:"loading"`
}

// CompleteSessionRequest carries the provider's onSuccess payload
type CompleteSessionRequest struct {
	PublicToken string            `json:"public_token" validate:"required,public_token"`
	Metadata    linkflow.Metadata `json:"metadata"`
}

// ExitSessionRequest carries the provider's onExit payload. Error is absent when the user
// simply closed the widget.
type ExitSessionRequest struct {
	Error    *linkflow.ExitError `json:"error"`
	Metadata linkflow.Metadata   `json:"metadata"`
}

// LinkEventRequest forwards an intermediate widget event
type LinkEventRequest struct {
	EventName string            `json:"event_name" validate:"required,max=50"`
	Metadata  linkflow.Metadata `json:"metadata"`
}

// Link Response DTOs

type LinkTokenResponse struct {
	LinkToken  string    `json:"link_token"`
	Expiration time.Time `json:"expiration"`
	RequestID  string    `json:"request_id,omitempty"`
	// Simulated is true when no provider credentials are configured
	Simulated bool `json:"simulated"`
}

// LinkSessionResponse is the externally visible state of a user's link controller
type LinkSessionResponse struct {
	SessionID   string                `json:"session_id"`
	Result      linkflow.StartResult  `json:"result,omitempty"`
	State       linkflow.State        `json:"state"`
	Simulated   bool                  `json:"simulated"`
	LinkToken   string                `json:"link_token,omitempty"`
	View        linkflow.View         `json:"view"`
	StartedAt   time.Time             `json:"started_at"`
	LastAccount *models.LinkedAccount `json:"last_account,omitempty"`
	LastExit    *linkflow.ExitError   `json:"last_exit,omitempty"`
}
