package domain

import (
	"fmt"
	"time"
)

type CampaignAction string

const (
	ActionMarkSent24h      CampaignAction = "mark_sent_24h"
	ActionMarkSent30d      CampaignAction = "mark_sent_30d"
	ActionMarkSent45d      CampaignAction = "mark_sent_45d"
	ActionMarkBirthdaySent CampaignAction = "mark_birthday_sent"
	ActionMarkPixGenerated CampaignAction = "mark_pix_generated"
)

func ParseCampaignAction(raw string) (CampaignAction, error) {
	switch action := CampaignAction(raw); action {
	case ActionMarkSent24h, ActionMarkSent30d, ActionMarkSent45d, ActionMarkBirthdaySent, ActionMarkPixGenerated:
		return action, nil
	}
	return "", fmt.Errorf("%w: '%s'", ErrInvalidAction, raw)
}

type ActionPayload struct {
	Year *int
}

// BirthdayYear is the year recorded by mark_birthday_sent
func (p ActionPayload) BirthdayYear(now time.Time) (int, error) {
	if p.Year == nil {
		return now.Year(), nil
	}
	if *p.Year < 1 || *p.Year > 9999 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidYear, *p.Year)
	}
	return *p.Year, nil
}

// Update is the mutation the action applies to the user row
func (a CampaignAction) Update(now time.Time, payload ActionPayload) (UserUpdate, error) {
	switch a {
	case ActionMarkSent24h:
		return UserUpdate{LastSent24h: &now}, nil
	case ActionMarkSent30d:
		return UserUpdate{LastSent30d: &now}, nil
	case ActionMarkSent45d:
		return UserUpdate{LastSent45d: &now}, nil
	case ActionMarkPixGenerated:
		return UserUpdate{PixGeneratedAt: &now}, nil
	case ActionMarkBirthdaySent:
		year, err := payload.BirthdayYear(now)
		if err != nil {
			return UserUpdate{}, err
		}
		return UserUpdate{LastBirthdaySentYear: &year}, nil
	}
	return UserUpdate{}, fmt.Errorf("%w: '%s'", ErrInvalidAction, string(a))
}
