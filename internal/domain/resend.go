package domain

import "time"

// ResendRequest is the body posted to the resend webhook
type ResendRequest struct {
	NotificationID   string
	User             User
	NotificationType string
	Campaign         CampaignLabel
	RequestedAt      time.Time
}

type ResendResult struct {
	Success bool
	Stored  bool
}

// ResendAudit is persisted for every resend attempt, reachable webhook or not
type ResendAudit struct {
	NotificationID string
	UserEmail      string
	RequestedAt    time.Time
	WebhookURL     string
	Result         ResendResult
}
