package domain_test

import (
	"testing"
	"time"

	"github.com/Amund211/disparos/internal/domain"
	"github.com/Amund211/disparos/internal/domaintest"
	"github.com/stretchr/testify/require"
)

func TestLatestSend(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	earlier := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	later := time.Date(2024, time.April, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		user     domain.User
		ok       bool
		expected domain.SentChoice
	}{
		{
			name: "no sends",
			user: domaintest.NewUserBuilder("a@b.com", created).Build(),
			ok:   false,
		},
		{
			name: "only 45d",
			user: domaintest.NewUserBuilder("a@b.com", created).
				WithLastSent45d(earlier).
				Build(),
			ok:       true,
			expected: domain.SentChoice{Campaign: domain.Label45d, SentAt: earlier},
		},
		{
			name: "latest wins",
			user: domaintest.NewUserBuilder("a@b.com", created).
				WithLastSent24h(earlier).
				WithLastSent30d(later).
				WithLastSent45d(earlier).
				Build(),
			ok:       true,
			expected: domain.SentChoice{Campaign: domain.Label30d, SentAt: later},
		},
		{
			name: "24h wins tie with 30d",
			user: domaintest.NewUserBuilder("a@b.com", created).
				WithLastSent24h(later).
				WithLastSent30d(later).
				Build(),
			ok:       true,
			expected: domain.SentChoice{Campaign: domain.Label24h, SentAt: later},
		},
		{
			name: "30d wins tie with 45d",
			user: domaintest.NewUserBuilder("a@b.com", created).
				WithLastSent24h(earlier).
				WithLastSent30d(later).
				WithLastSent45d(later).
				Build(),
			ok:       true,
			expected: domain.SentChoice{Campaign: domain.Label30d, SentAt: later},
		},
		{
			name: "birthday year is not a send time",
			user: domaintest.NewUserBuilder("a@b.com", created).
				WithLastBirthdaySentYear(2099).
				Build(),
			ok: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			choice, ok := domain.LatestSend(tt.user)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.expected, choice)
		})
	}
}

func TestNotificationIDRoundTrip(t *testing.T) {
	t.Parallel()

	sentAt := time.Unix(1700000000, 0)
	id := domain.NotificationID("a@b.com", sentAt)
	require.Equal(t, "notif_a@b.com_1700000000", id)

	email, ok := domain.EmailFromNotificationID(id)
	require.True(t, ok)
	require.Equal(t, "a@b.com", email)
}

func TestEmailFromNotificationID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id    string
		email string
		ok    bool
	}{
		{id: "notif_a@b.com_1700000000", email: "a@b.com", ok: true},
		{id: "notif_first_last@b.com_1", email: "first_last@b.com", ok: true},
		{id: "notif_a@b.com_", ok: false},
		{id: "notif__1700000000", ok: false},
		{id: "a@b.com_1700000000", ok: false},
		{id: "notif_a@b.com_17000x", ok: false},
		{id: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			t.Parallel()

			email, ok := domain.EmailFromNotificationID(tt.id)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.email, email)
		})
	}
}

func TestSynthesizeNotification(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	sentAt := time.Unix(1700000000, 0).UTC()

	t.Run("user with a send", func(t *testing.T) {
		t.Parallel()

		user := domaintest.NewUserBuilder("a@b.com", created).WithLastSent30d(sentAt).Build()
		notification, ok := domain.SynthesizeNotification(user)
		require.True(t, ok)
		require.Equal(t, domain.SyntheticNotification{
			ID:       "notif_a@b.com_1700000000",
			Campaign: domain.Label30d,
			SentAt:   sentAt,
			User:     user,
		}, notification)
	})

	t.Run("user without sends is left out", func(t *testing.T) {
		t.Parallel()

		_, ok := domain.SynthesizeNotification(domaintest.NewUserBuilder("a@b.com", created).Build())
		require.False(t, ok)
	})
}

func TestSynthesizeNotificationDetail(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	created := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	pixAt := time.Date(2024, time.February, 1, 12, 0, 0, 0, time.UTC)
	depositAt := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	sentAt := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	t.Run("falls back to registration", func(t *testing.T) {
		t.Parallel()

		user := domaintest.NewUserBuilder("a@b.com", created).Build()
		detail := domain.SynthesizeNotificationDetail("notif_a@b.com_1", user, now)

		require.Equal(t, domain.LabelRegistration, detail.Campaign)
		require.Equal(t, created, detail.SentAt)
		require.Equal(t, "notif_a@b.com_1", detail.ID)
		require.Equal(t, []domain.NotificationEvent{
			{Type: domain.EventWhatsAppSent, At: created, Campaign: domain.LabelRegistration},
		}, detail.Events)
	})

	t.Run("falls back to now", func(t *testing.T) {
		t.Parallel()

		user := domaintest.NewUserBuilder("a@b.com", time.Time{}).Build()
		before := time.Now()
		detail := domain.SynthesizeNotificationDetail("notif_a@b.com_1", user, time.Now())

		require.Equal(t, domain.LabelUnknown, detail.Campaign)
		require.WithinDuration(t, before, detail.SentAt, time.Second)
	})

	t.Run("invalid send times are ignored", func(t *testing.T) {
		t.Parallel()

		broken := time.Date(10000, time.January, 1, 0, 0, 0, 0, time.UTC)
		user := domaintest.NewUserBuilder("a@b.com", created).
			WithLastSent24h(broken).
			WithLastSent45d(sentAt).
			Build()
		detail := domain.SynthesizeNotificationDetail("notif_a@b.com_1", user, now)

		require.Equal(t, domain.Label45d, detail.Campaign)
		require.Equal(t, sentAt, detail.SentAt)
	})

	t.Run("events sorted newest first", func(t *testing.T) {
		t.Parallel()

		user := domaintest.NewUserBuilder("a@b.com", created).
			WithTotalValue("150.00").
			WithPixGeneratedAt(pixAt).
			WithLastDepositAt(depositAt).
			WithLastSent30d(sentAt).
			Build()
		detail := domain.SynthesizeNotificationDetail("notif_a@b.com_1", user, now)

		require.Len(t, detail.Events, 3)
		require.Equal(t, domain.EventLastDeposit, detail.Events[0].Type)
		require.Equal(t, depositAt, detail.Events[0].At)
		require.Equal(t, "150.00", *detail.Events[0].Value)
		require.Equal(t, domain.EventWhatsAppSent, detail.Events[1].Type)
		require.Equal(t, domain.Label30d, detail.Events[1].Campaign)
		require.Equal(t, domain.EventPixGenerated, detail.Events[2].Type)
		require.Equal(t, pixAt, detail.Events[2].At)
	})
}

func TestIsValidTimestamp(t *testing.T) {
	t.Parallel()

	valid := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	zero := time.Time{}
	tooLate := time.Date(10000, time.January, 1, 0, 0, 0, 0, time.UTC)

	require.True(t, domain.IsValidTimestamp(&valid))
	require.False(t, domain.IsValidTimestamp(nil))
	require.False(t, domain.IsValidTimestamp(&zero))
	require.False(t, domain.IsValidTimestamp(&tooLate))
}

func TestParseCampaignLabel(t *testing.T) {
	t.Parallel()

	for raw, expected := range map[string]domain.CampaignLabel{
		"24h":          domain.Label24h,
		"24h_campaign": domain.Label24h,
		"30d":          domain.Label30d,
		"45d_campaign": domain.Label45d,
	} {
		label, ok := domain.ParseCampaignLabel(raw)
		require.True(t, ok, raw)
		require.Equal(t, expected, label)
	}

	for _, raw := range []string{"", "birthday", "registration", "unknown", "24H"} {
		_, ok := domain.ParseCampaignLabel(raw)
		require.False(t, ok, raw)
	}
}
