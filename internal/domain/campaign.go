package domain

import (
	"fmt"
	"time"
)

type CampaignType string

const (
	Campaign24h      CampaignType = "24h"
	Campaign30d      CampaignType = "30d"
	Campaign45d      CampaignType = "45d"
	CampaignBirthday CampaignType = "birthday"
)

func ParseCampaignType(raw string) (CampaignType, error) {
	switch campaignType := CampaignType(raw); campaignType {
	case Campaign24h, Campaign30d, Campaign45d, CampaignBirthday:
		return campaignType, nil
	}
	return "", fmt.Errorf("%w: '%s'", ErrInvalidCampaignType, raw)
}

// Cooldown is both the resend interval and, for the deposit campaigns, the
// minimum time since the last deposit. Birthday campaigns are keyed on the
// calendar year instead and have no cooldown.
func (c CampaignType) Cooldown() time.Duration {
	switch c {
	case Campaign24h:
		return 24 * time.Hour
	case Campaign30d:
		return 30 * 24 * time.Hour
	case Campaign45d:
		return 45 * 24 * time.Hour
	}
	return 0
}

// IsEligible reports whether the user should receive the campaign at the
// given instant. The Postgres selection implements the same predicate.
func (c CampaignType) IsEligible(user User, now time.Time) bool {
	threshold := now.Add(-c.Cooldown())

	sentBefore := func(sentAt *time.Time) bool {
		return sentAt == nil || sentAt.Before(threshold)
	}

	switch c {
	case Campaign24h:
		return user.IsNewSignup != nil && *user.IsNewSignup && sentBefore(user.LastSent24h)
	case Campaign30d:
		return user.LastDepositAt != nil && user.LastDepositAt.Before(threshold) && sentBefore(user.LastSent30d)
	case Campaign45d:
		return user.LastDepositAt != nil && user.LastDepositAt.Before(threshold) && sentBefore(user.LastSent45d)
	case CampaignBirthday:
		if user.BirthDate == nil {
			return false
		}
		if user.BirthDate.Month() != now.Month() || user.BirthDate.Day() != now.Day() {
			return false
		}
		return user.LastBirthdaySentYear == nil || *user.LastBirthdaySentYear < now.Year()
	}
	return false
}
