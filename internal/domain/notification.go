package domain

import (
	"fmt"
	"regexp"
	"slices"
	"time"
)

// Notification history is not stored. Each user contributes at most one
// synthetic notification, derived from the most recent last sent column.

type CampaignLabel string

const (
	Label24h          CampaignLabel = "24h_campaign"
	Label30d          CampaignLabel = "30d_campaign"
	Label45d          CampaignLabel = "45d_campaign"
	LabelRegistration CampaignLabel = "registration"
	LabelUnknown      CampaignLabel = "unknown"
)

// ParseCampaignLabel accepts the label itself or the short campaign type (24h, 30d, 45d)
func ParseCampaignLabel(raw string) (CampaignLabel, bool) {
	switch raw {
	case string(Label24h), string(Campaign24h):
		return Label24h, true
	case string(Label30d), string(Campaign30d):
		return Label30d, true
	case string(Label45d), string(Campaign45d):
		return Label45d, true
	}
	return "", false
}

const (
	NotificationPageSize = 25
	NotificationChannel  = "whatsapp"
)

type SentChoice struct {
	Campaign CampaignLabel
	SentAt   time.Time
}

type sendCandidate struct {
	campaign CampaignLabel
	sentAt   *time.Time
}

// Order matters: on equal timestamps the earlier candidate wins
func sendCandidates(user User) []sendCandidate {
	return []sendCandidate{
		{campaign: Label24h, sentAt: user.LastSent24h},
		{campaign: Label30d, sentAt: user.LastSent30d},
		{campaign: Label45d, sentAt: user.LastSent45d},
	}
}

func latestCandidate(user User, accept func(*time.Time) bool) (SentChoice, bool) {
	var best *sendCandidate
	for _, candidate := range sendCandidates(user) {
		if !accept(candidate.sentAt) {
			continue
		}
		if best == nil || candidate.sentAt.After(*best.sentAt) {
			best = &candidate
		}
	}
	if best == nil {
		return SentChoice{}, false
	}
	return SentChoice{Campaign: best.campaign, SentAt: *best.sentAt}, true
}

// LatestSend picks the send used for listings. Users with no send at all
// are not part of the history.
func LatestSend(user User) (SentChoice, bool) {
	return latestCandidate(user, func(t *time.Time) bool {
		return t != nil
	})
}

// DetailSend picks the send shown for a single notification. Unlike
// LatestSend it always produces a valid timestamp, falling back to the
// registration time and finally to now.
func DetailSend(user User, now time.Time) SentChoice {
	if choice, ok := latestCandidate(user, IsValidTimestamp); ok {
		return choice
	}
	if IsValidTimestamp(&user.CreatedAt) {
		return SentChoice{Campaign: LabelRegistration, SentAt: user.CreatedAt}
	}
	return SentChoice{Campaign: LabelUnknown, SentAt: now}
}

// IsValidTimestamp reports whether t is present and representable as RFC 3339
func IsValidTimestamp(t *time.Time) bool {
	if t == nil || t.IsZero() {
		return false
	}
	year := t.Year()
	return year >= 1 && year <= 9999
}

var notificationIDRx = regexp.MustCompile(`^notif_(.+)_\d+$`)

func NotificationID(email string, sentAt time.Time) string {
	return fmt.Sprintf("notif_%s_%d", email, sentAt.Unix())
}

// EmailFromNotificationID extracts the owner of a synthetic notification.
// The timestamp part is not checked against the user row.
func EmailFromNotificationID(id string) (string, bool) {
	match := notificationIDRx.FindStringSubmatch(id)
	if match == nil {
		return "", false
	}
	return match[1], true
}

type SyntheticNotification struct {
	ID       string
	Campaign CampaignLabel
	SentAt   time.Time
	User     User
}

func SynthesizeNotification(user User) (SyntheticNotification, bool) {
	choice, ok := LatestSend(user)
	if !ok {
		return SyntheticNotification{}, false
	}
	return SyntheticNotification{
		ID:       NotificationID(user.Email, choice.SentAt),
		Campaign: choice.Campaign,
		SentAt:   choice.SentAt,
		User:     user,
	}, true
}

type NotificationEventType string

const (
	EventPixGenerated NotificationEventType = "pix_generated"
	EventLastDeposit  NotificationEventType = "last_deposit"
	EventWhatsAppSent NotificationEventType = "whatsapp_sent"
)

type NotificationEvent struct {
	Type NotificationEventType
	At   time.Time

	// Set for pix and deposit events
	Value *string
	// Set for send events
	Campaign CampaignLabel
}

type NotificationDetail struct {
	SyntheticNotification
	Events []NotificationEvent
}

// SynthesizeNotificationDetail builds the detail view for the notification
// with the given id. Events are ordered newest first.
func SynthesizeNotificationDetail(id string, user User, now time.Time) NotificationDetail {
	choice := DetailSend(user, now)

	events := make([]NotificationEvent, 0, 3)
	if IsValidTimestamp(user.PixGeneratedAt) {
		events = append(events, NotificationEvent{
			Type:  EventPixGenerated,
			At:    *user.PixGeneratedAt,
			Value: user.TotalValue,
		})
	}
	if IsValidTimestamp(user.LastDepositAt) {
		events = append(events, NotificationEvent{
			Type:  EventLastDeposit,
			At:    *user.LastDepositAt,
			Value: user.TotalValue,
		})
	}
	events = append(events, NotificationEvent{
		Type:     EventWhatsAppSent,
		At:       choice.SentAt,
		Campaign: choice.Campaign,
	})

	slices.SortStableFunc(events, func(a, b NotificationEvent) int {
		return b.At.Compare(a.At)
	})

	return NotificationDetail{
		SyntheticNotification: SyntheticNotification{
			ID:       id,
			Campaign: choice.Campaign,
			SentAt:   choice.SentAt,
			User:     user,
		},
		Events: events,
	}
}

type NotificationFilter struct {
	// Case insensitive substring of name or email
	Search string
	// Empty matches every campaign
	Campaign CampaignLabel
	// Inclusive bounds on the chosen send time
	From *time.Time
	To   *time.Time
}

type NotificationPage struct {
	Notifications []SyntheticNotification
	Total         int
	Page          int
}

// TemplateName is the message template reported for a campaign
func TemplateName(campaign CampaignLabel) string {
	return "template_" + string(campaign)
}
