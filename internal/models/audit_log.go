package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AuditActionLogin          = "login"
	AuditActionLogout         = "logout"
	AuditActionRegister       = "register"
	AuditActionFailedLogin    = "failed_login"
	AuditActionAccountLocked  = "account_locked"
	AuditActionTokenRefresh   = "token_refresh"
	AuditActionLinkStarted    = "link_started"
	AuditActionLinkCompleted  = "link_completed"
	AuditActionLinkCancelled  = "link_cancelled"
	AuditActionAccountRemoved = "linked_account_removed"
	AuditActionAccountRefresh = "linked_account_refreshed"
	AuditActionItemStatus     = "item_status_changed"
	AuditActionItemWebhook    = "item_webhook_updated"
	AuditActionTxnSynced      = "transactions_synced"
)

const (
	AuditResourceUser          = "user"
	AuditResourceToken         = "token"
	AuditResourceLinkSession   = "link_session"
	AuditResourceLinkedAccount = "linked_account"
	AuditResourceItem          = "item"
	AuditResourceTransaction   = "transaction"
)

// auditActionResources lists every recordable action with the resource it is filed under
var auditActionResources = map[string]string{
	AuditActionLogin:          AuditResourceUser,
	AuditActionLogout:         AuditResourceUser,
	AuditActionRegister:       AuditResourceUser,
	AuditActionFailedLogin:    AuditResourceUser,
	AuditActionAccountLocked:  AuditResourceUser,
	AuditActionTokenRefresh:   AuditResourceUser,
	AuditActionLinkStarted:    AuditResourceLinkSession,
	AuditActionLinkCancelled:  AuditResourceLinkSession,
	AuditActionLinkCompleted:  AuditResourceLinkedAccount,
	AuditActionAccountRemoved: AuditResourceLinkedAccount,
	AuditActionAccountRefresh: AuditResourceLinkedAccount,
	AuditActionItemStatus:     AuditResourceItem,
	AuditActionItemWebhook:    AuditResourceItem,
	AuditActionTxnSynced:      AuditResourceTransaction,
}

// AuditResourceFor returns the resource an action is filed under, or "" for unknown actions
func AuditResourceFor(action string) string {
	return auditActionResources[action]
}

// AuditActions returns every known action
func AuditActions() []string {
	actions := make([]string, 0, len(auditActionResources))
	for action := range auditActionResources {
		actions = append(actions, action)
	}
	return actions
}

// AuditLog is one append-only activity entry. UserID is nulled if the user is deleted.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action     string     `gorm:"type:varchar(100);not null;index" json:"action"`
	Resource   string     `gorm:"type:varchar(100);not null" json:"resource"`
	ResourceID string     `gorm:"type:varchar(255)" json:"resource_id,omitempty"`
	IPAddress  string     `gorm:"type:varchar(45)" json:"ip_address,omitempty"`
	UserAgent  string     `gorm:"type:text" json:"user_agent,omitempty"`
	Metadata   JSONBMap   `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;index" json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
}

func (al *AuditLog) TableName() string {
	return "audit_logs"
}

func (al *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if al.ID == uuid.Nil {
		al.ID = uuid.New()
	}
	if al.Resource == "" {
		al.Resource = AuditResourceFor(al.Action)
	}
	if al.CreatedAt.IsZero() {
		al.CreatedAt = time.Now()
	}
	return nil
}

// JSONBMap is a free-form JSON object column. It is stored as text so the same model works
// on postgres and sqlite; an empty map is stored as NULL.
type JSONBMap map[string]interface{}

func (m JSONBMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(map[string]interface{}(m))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (m *JSONBMap) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONBMap", value)
	}

	if len(raw) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(raw, (*map[string]interface{})(m))
}
