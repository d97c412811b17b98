package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event names recorded for a link attempt. Provider widget events are stored verbatim.
const (
	LinkEventOpen      = "OPEN"
	LinkEventHandoff   = "HANDOFF"
	LinkEventSimulated = "SIMULATED"
	LinkEventExit      = "EXIT"
	LinkEventSuccess   = "SUCCESS"
	LinkEventExchange  = "EXCHANGE"
)

const (
	LinkEventStatusStarted   = "started"
	LinkEventStatusSucceeded = "succeeded"
	LinkEventStatusCancelled = "cancelled"
	LinkEventStatusFailed    = "failed"
	LinkEventStatusInfo      = "info"
)

// LinkEvent is one logged step of a link attempt
type LinkEvent struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	EventName       string    `gorm:"type:varchar(50);not null;index" json:"event_name"`
	Status          string    `gorm:"type:varchar(20);not null" json:"status"`
	LinkSessionID   string    `gorm:"type:varchar(100);index" json:"link_session_id,omitempty"`
	RequestID       string    `gorm:"type:varchar(100)" json:"request_id,omitempty"`
	InstitutionID   string    `gorm:"type:varchar(50)" json:"institution_id,omitempty"`
	InstitutionName string    `gorm:"type:varchar(150)" json:"institution_name,omitempty"`
	ErrorCode       string    `gorm:"type:varchar(100)" json:"error_code,omitempty"`
	ErrorMessage    string    `gorm:"type:text" json:"error_message,omitempty"`
	Metadata        JSONBMap  `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt       time.Time `gorm:"not null;index" json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (e *LinkEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = LinkEventStatusInfo
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	return nil
}

// IsTerminal reports whether the event ended the attempt
func (e *LinkEvent) IsTerminal() bool {
	switch e.Status {
	case LinkEventStatusSucceeded, LinkEventStatusCancelled, LinkEventStatusFailed:
		return true
	}
	return false
}

func (e *LinkEvent) TableName() string {
	return "link_events"
}
