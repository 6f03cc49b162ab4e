package ports

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Amund211/disparos/internal/domain"
	"github.com/Amund211/disparos/internal/domaintest"
	"github.com/stretchr/testify/require"
)

func TestNotificationsToCSV(t *testing.T) {
	t.Parallel()

	saoPaulo := time.FixedZone("BRT", -3*60*60)
	created := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)
	sent := time.Date(2024, 6, 15, 13, 5, 0, 0, time.UTC)

	t.Run("embedded quotes are kept once", func(t *testing.T) {
		t.Parallel()

		user := domaintest.NewUserBuilder("jose@x.com", created).
			WithName(`José "Teste"`).
			WithPhone("+5511999999999").
			WithLastSent24h(sent).
			Build()
		notification, ok := domain.SynthesizeNotification(user)
		require.True(t, ok)

		csv := notificationsToCSV([]domain.SyntheticNotification{notification}, saoPaulo)

		require.Equal(t,
			"Nome,Email,Telefone,Tipo de Notificação,Provedor,Status,Data de Envio\n"+
				`"José "Teste"","jose@x.com","+5511999999999","whatsapp","whatsapp_api","delivered","15/06/2024 10:05"`,
			csv,
		)
	})

	t.Run("missing name and phone are empty", func(t *testing.T) {
		t.Parallel()

		user := domaintest.NewUserBuilder("anon@x.com", created).WithLastSent30d(sent).Build()
		notification, ok := domain.SynthesizeNotification(user)
		require.True(t, ok)

		csv := notificationsToCSV([]domain.SyntheticNotification{notification}, time.UTC)
		require.Equal(t,
			"Nome,Email,Telefone,Tipo de Notificação,Provedor,Status,Data de Envio\n"+
				`"","anon@x.com","","whatsapp","whatsapp_api","delivered","15/06/2024 13:05"`,
			csv,
		)
	})

	t.Run("header only", func(t *testing.T) {
		t.Parallel()

		require.Equal(t,
			"Nome,Email,Telefone,Tipo de Notificação,Provedor,Status,Data de Envio",
			notificationsToCSV(nil, time.UTC),
		)
	})
}

func TestExportNotificationsHandler(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 15, 1, 0, 0, 0, time.UTC)
	saoPaulo := time.FixedZone("BRT", -3*60*60)

	var gotFilter domain.NotificationFilter
	export := func(ctx context.Context, filter domain.NotificationFilter) ([]domain.SyntheticNotification, error) {
		gotFilter = filter
		return nil, nil
	}

	handler := MakeExportNotificationsHandler(export, saoPaulo, func() time.Time { return now }, newTestMiddlewares(t, true))

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/notifications/export?type=45d&search=jo&from=2024-06-01&to=2024-06-10", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	require.Equal(t, `attachment; filename="notifications-2024-06-14.csv"`, w.Header().Get("Content-Disposition"))

	require.Equal(t, domain.Label45d, gotFilter.Campaign)
	require.Equal(t, "jo", gotFilter.Search)
	require.True(t, time.Date(2024, 6, 1, 0, 0, 0, 0, saoPaulo).Equal(*gotFilter.From))
	require.True(t, time.Date(2024, 6, 11, 0, 0, 0, 0, saoPaulo).Add(-time.Microsecond).Equal(*gotFilter.To))
}
