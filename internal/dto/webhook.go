package dto

// WebhookAckResponse acknowledges a provider webhook
type WebhookAckResponse struct {
	Received bool   `json:"received"`
	Action   string `json:"action"`
}

// WebhookResult reports what a webhook did to the referenced item
type WebhookResult struct {
	Action    string `json:"action"`
	ItemID    string `json:"item_id"`
	OldStatus string `json:"old_status,omitempty"`
	NewStatus string `json:"new_status,omitempty"`
	Added     int    `json:"added,omitempty"`
	Modified  int    `json:"modified,omitempty"`
	Removed   int    `json:"removed,omitempty"`
}
