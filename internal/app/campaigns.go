package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Amund211/disparos/internal/domain"
	"github.com/Amund211/disparos/internal/logging"
	"github.com/Amund211/disparos/internal/strutils"
)

type eligibleSelector interface {
	SelectEligible(ctx context.Context, campaignType domain.CampaignType) ([]domain.User, error)
}

type SelectEligible func(ctx context.Context, rawCampaignType string) (domain.CampaignType, []domain.User, error)

func BuildSelectEligible(repo eligibleSelector) SelectEligible {
	return func(ctx context.Context, rawCampaignType string) (domain.CampaignType, []domain.User, error) {
		campaignType, err := domain.ParseCampaignType(rawCampaignType)
		if err != nil {
			return "", nil, err
		}

		users, err := repo.SelectEligible(ctx, campaignType)
		if err != nil {
			return "", nil, fmt.Errorf("could not select users for campaign %s: %w", campaignType, err)
		}
		if users == nil {
			users = []domain.User{}
		}
		return campaignType, users, nil
	}
}

type ApplyCampaignAction func(ctx context.Context, email string, rawAction string, payload domain.ActionPayload) (domain.CampaignAction, error)

// BuildApplyCampaignAction applies actions at the current instant. The default
// birthday year is the calendar year in location.
func BuildApplyCampaignAction(repo userUpdater, location *time.Location, nowFunc func() time.Time) ApplyCampaignAction {
	return func(ctx context.Context, email string, rawAction string, payload domain.ActionPayload) (domain.CampaignAction, error) {
		action, err := domain.ParseCampaignAction(rawAction)
		if err != nil {
			return "", err
		}

		update, err := action.Update(nowFunc().In(location), payload)
		if err != nil {
			return "", err
		}

		email = strutils.NormalizeEmail(email)
		_, err = repo.UpdateUser(ctx, email, update)
		if err != nil {
			return "", err
		}

		logging.FromContext(ctx).InfoContext(ctx, "Applied campaign action",
			slog.String("action", string(action)),
			slog.String("email", email),
		)

		return action, nil
	}
}
