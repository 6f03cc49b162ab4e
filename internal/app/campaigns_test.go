package app

import (
	"context"
	"testing"
	"time"

	"github.com/Amund211/disparos/internal/domain"
	"github.com/Amund211/disparos/internal/domaintest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEligibleSelector struct {
	t *testing.T

	expectedType domain.CampaignType
	users        []domain.User
	err          error
	called       bool
}

func (m *mockEligibleSelector) SelectEligible(ctx context.Context, campaignType domain.CampaignType) ([]domain.User, error) {
	m.t.Helper()
	require.Equal(m.t, m.expectedType, campaignType)
	m.called = true
	return m.users, m.err
}

func TestBuildSelectEligible(t *testing.T) {
	t.Parallel()

	t.Run("valid types reach the store", func(t *testing.T) {
		t.Parallel()

		created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		users := []domain.User{domaintest.NewUserBuilder("a@b.com", created).WithNewSignup(true).Build()}

		for _, campaignType := range []domain.CampaignType{
			domain.Campaign24h,
			domain.Campaign30d,
			domain.Campaign45d,
			domain.CampaignBirthday,
		} {
			repo := &mockEligibleSelector{t: t, expectedType: campaignType, users: users}
			gotType, gotUsers, err := BuildSelectEligible(repo)(t.Context(), string(campaignType))
			require.NoError(t, err)
			require.Equal(t, campaignType, gotType)
			require.Equal(t, users, gotUsers)
			require.True(t, repo.called)
		}
	})

	t.Run("invalid type never queries", func(t *testing.T) {
		t.Parallel()

		for _, raw := range []string{"", "7d", "24H", "birthday "} {
			repo := &mockEligibleSelector{t: t}
			_, _, err := BuildSelectEligible(repo)(t.Context(), raw)
			require.ErrorIs(t, err, domain.ErrInvalidCampaignType)
			require.ErrorIs(t, err, domain.ErrValidation)
			require.False(t, repo.called)
		}
	})

	t.Run("no matches is an empty list", func(t *testing.T) {
		t.Parallel()

		repo := &mockEligibleSelector{t: t, expectedType: domain.Campaign30d}
		_, users, err := BuildSelectEligible(repo)(t.Context(), "30d")
		require.NoError(t, err)
		require.NotNil(t, users)
		require.Empty(t, users)
	})

	t.Run("store error", func(t *testing.T) {
		t.Parallel()

		repo := &mockEligibleSelector{t: t, expectedType: domain.Campaign45d, err: assert.AnError}
		_, _, err := BuildSelectEligible(repo)(t.Context(), "45d")
		require.ErrorIs(t, err, assert.AnError)
	})
}

func TestBuildApplyCampaignAction(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)
	nowFunc := func() time.Time { return now }

	t.Run("mark actions set now", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			action string
			get    func(domain.UserUpdate) *time.Time
		}{
			{"mark_sent_24h", func(u domain.UserUpdate) *time.Time { return u.LastSent24h }},
			{"mark_sent_30d", func(u domain.UserUpdate) *time.Time { return u.LastSent30d }},
			{"mark_sent_45d", func(u domain.UserUpdate) *time.Time { return u.LastSent45d }},
			{"mark_pix_generated", func(u domain.UserUpdate) *time.Time { return u.PixGeneratedAt }},
		}

		for _, c := range cases {
			repo := &mockUserUpdater{
				t:             t,
				expectedEmail: "joao@x.com",
				check: func(update domain.UserUpdate) {
					require.NotNil(t, c.get(update))
					require.True(t, now.Equal(*c.get(update)))
				},
			}
			action, err := BuildApplyCampaignAction(repo, time.UTC, nowFunc)(t.Context(), "joao@x.com", c.action, domain.ActionPayload{})
			require.NoError(t, err)
			require.Equal(t, domain.CampaignAction(c.action), action)
			require.True(t, repo.called)
		}
	})

	t.Run("birthday defaults to the current year", func(t *testing.T) {
		t.Parallel()

		repo := &mockUserUpdater{
			t:             t,
			expectedEmail: "joao@x.com",
			check: func(update domain.UserUpdate) {
				require.Equal(t, 2024, *update.LastBirthdaySentYear)
			},
		}
		_, err := BuildApplyCampaignAction(repo, time.UTC, nowFunc)(t.Context(), "joao@x.com", "mark_birthday_sent", domain.ActionPayload{})
		require.NoError(t, err)
	})

	t.Run("birthday year follows the local calendar", func(t *testing.T) {
		t.Parallel()

		saoPaulo := time.FixedZone("BRT", -3*60*60)
		newYearUTC := time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)
		repo := &mockUserUpdater{
			t:             t,
			expectedEmail: "joao@x.com",
			check: func(update domain.UserUpdate) {
				require.Equal(t, 2024, *update.LastBirthdaySentYear)
			},
		}
		_, err := BuildApplyCampaignAction(repo, saoPaulo, func() time.Time { return newYearUTC })(
			t.Context(), "joao@x.com", "mark_birthday_sent", domain.ActionPayload{},
		)
		require.NoError(t, err)
		require.True(t, repo.called)
	})

	t.Run("birthday with explicit year", func(t *testing.T) {
		t.Parallel()

		year := 2023
		repo := &mockUserUpdater{
			t:             t,
			expectedEmail: "joao@x.com",
			check: func(update domain.UserUpdate) {
				require.Equal(t, 2023, *update.LastBirthdaySentYear)
			},
		}
		_, err := BuildApplyCampaignAction(repo, time.UTC, nowFunc)(t.Context(), "joao@x.com", "mark_birthday_sent", domain.ActionPayload{Year: &year})
		require.NoError(t, err)
	})

	t.Run("unknown action leaves the row alone", func(t *testing.T) {
		t.Parallel()

		repo := &mockUserUpdater{t: t}
		_, err := BuildApplyCampaignAction(repo, time.UTC, nowFunc)(t.Context(), "joao@x.com", "mark_sent_7d", domain.ActionPayload{})
		require.ErrorIs(t, err, domain.ErrInvalidAction)
		require.False(t, repo.called)
	})

	t.Run("invalid year leaves the row alone", func(t *testing.T) {
		t.Parallel()

		year := 0
		repo := &mockUserUpdater{t: t}
		_, err := BuildApplyCampaignAction(repo, time.UTC, nowFunc)(t.Context(), "joao@x.com", "mark_birthday_sent", domain.ActionPayload{Year: &year})
		require.ErrorIs(t, err, domain.ErrInvalidYear)
		require.False(t, repo.called)
	})

	t.Run("missing user", func(t *testing.T) {
		t.Parallel()

		repo := &mockUserUpdater{t: t, expectedEmail: "ghost@x.com", err: domain.ErrUserNotFound}
		_, err := BuildApplyCampaignAction(repo, time.UTC, nowFunc)(t.Context(), "ghost@x.com", "mark_sent_24h", domain.ActionPayload{})
		require.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}
