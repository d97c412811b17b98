package linkflow

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// SandboxLinkToken is used when the caller does not supply a link token
	SandboxLinkToken = "link-sandbox-abc123"

	DemoPublicToken     = "demo_public_token_12345"
	DemoInstitutionName = "Demo Bank"
	DemoInstitutionID   = "ins_demo123"

	DefaultDemoDelay       = 500 * time.Millisecond
	DefaultInstitutionName = "Connected Bank"
	DefaultAccountType     = "checking"

	recordDateLayout = "2006-01-02"
)

// DefaultBalance is assigned to every record produced by a successful link
var DefaultBalance = decimal.NewFromFloat(1000.00)

// State is the controller state. Success and Cancelled are outcomes, not resting states.
type State string

const (
	StateIdle    State = "idle"
	StatePending State = "pending"
)

// StartResult reports which branch a call to Start took
type StartResult string

const (
	StartProvider  StartResult = "provider"
	StartSimulated StartResult = "simulated"
	StartIgnored   StartResult = "ignored"
)

// Outcome is how a link attempt resolved
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeCancelled Outcome = "cancelled"
)

// Variant selects the presentation of the link control. It never affects behavior.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantOutline     Variant = "outline"
	VariantSecondary   Variant = "secondary"
	VariantGhost       Variant = "ghost"
	VariantLink        Variant = "link"
	VariantDestructive Variant = "destructive"
)

// Variants lists every accepted variant in display order
var Variants = []Variant{
	VariantDefault,
	VariantOutline,
	VariantSecondary,
	VariantGhost,
	VariantLink,
	VariantDestructive,
}

// IsValid reports whether v is one of the known variants
func (v Variant) IsValid() bool {
	for _, known := range Variants {
		if v == known {
			return true
		}
	}
	return false
}

// ParseVariant maps an empty string to the default variant and rejects unknown values
func ParseVariant(s string) (Variant, error) {
	if s == "" {
		return VariantDefault, nil
	}
	v := Variant(s)
	if !v.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidVariant, s)
	}
	return v, nil
}

// Institution identifies the financial institution a link attempt connected to
type Institution struct {
	Name          string `json:"name"`
	InstitutionID string `json:"institution_id,omitempty"`
}

// AccountDescriptor describes one account the provider reported
type AccountDescriptor struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Mask    string `json:"mask,omitempty"`
	Type    string `json:"type,omitempty"`
	Subtype string `json:"subtype,omitempty"`
}

// Metadata is the provider payload for a link attempt. Every field is optional.
type Metadata struct {
	Institution   *Institution        `json:"institution,omitempty"`
	Accounts      []AccountDescriptor `json:"accounts,omitempty"`
	LinkSessionID string              `json:"link_session_id,omitempty"`
	RequestID     string              `json:"request_id,omitempty"`
}

// InstitutionName returns the institution name or the default when absent
func (m Metadata) InstitutionName() string {
	if m.Institution == nil || m.Institution.Name == "" {
		return DefaultInstitutionName
	}
	return m.Institution.Name
}

// InstitutionID returns the institution id or an empty string
func (m Metadata) InstitutionID() string {
	if m.Institution == nil {
		return ""
	}
	return m.Institution.InstitutionID
}

// PrimaryAccount returns the first reported account, if any
func (m Metadata) PrimaryAccount() (AccountDescriptor, bool) {
	if len(m.Accounts) == 0 {
		return AccountDescriptor{}, false
	}
	return m.Accounts[0], true
}

// DemoMetadata is the fixed payload emitted by the simulated flow
func DemoMetadata() Metadata {
	return Metadata{
		Institution: &Institution{
			Name:          DemoInstitutionName,
			InstitutionID: DemoInstitutionID,
		},
		Accounts: []AccountDescriptor{
			{
				ID:      "acc_demo123",
				Name:    "Demo Checking",
				Mask:    "1234",
				Type:    "depository",
				Subtype: "checking",
			},
		},
	}
}

// ExitError is the optional error a provider reports when the user leaves the flow
type ExitError struct {
	Code    string `json:"error_code"`
	Message string `json:"error_message"`
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LinkSession is one attempt to connect an account. Owned by a single controller.
type LinkSession struct {
	Token   string `json:"token"`
	Ready   bool   `json:"ready"`
	Pending bool   `json:"pending"`
}

// LinkedAccountRecord is the normalized result of a successful link
type LinkedAccountRecord struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	Institution   string          `json:"institution"`
	Balance       decimal.Decimal `json:"balance"`
	LastUpdated   string          `json:"lastUpdated"`
	AccountNumber string          `json:"accountNumber"`
	Connected     bool            `json:"connected"`
}

// View is the presentation state of the link control
type View struct {
	Label    string  `json:"label"`
	Disabled bool    `json:"disabled"`
	Variant  Variant `json:"variant"`
	State    State   `json:"state"`
}
