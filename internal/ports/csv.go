package ports

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Amund211/disparos/internal/app"
	"github.com/Amund211/disparos/internal/domain"
	"github.com/Amund211/disparos/internal/logging"
)

const csvDateLayout = "02/01/2006 15:04"

var csvHeader = []string{
	"Nome",
	"Email",
	"Telefone",
	"Tipo de Notificação",
	"Provedor",
	"Status",
	"Data de Envio",
}

// quoteCSVField wraps the value in double quotes. Embedded quotes are written
// as they are, so `José "Teste"` becomes `"José "Teste""`.
func quoteCSVField(value string) string {
	return `"` + value + `"`
}

func notificationsToCSV(notifications []domain.SyntheticNotification, location *time.Location) string {
	var b strings.Builder
	b.WriteString(strings.Join(csvHeader, ","))

	for _, notification := range notifications {
		user := notification.User
		fields := []string{
			valueOr(user.Name, ""),
			user.Email,
			valueOr(user.Phone, ""),
			domain.NotificationChannel,
			notificationProvider,
			notificationProviderStatus,
			notification.SentAt.In(location).Format(csvDateLayout),
		}
		for i, field := range fields {
			fields[i] = quoteCSVField(field)
		}

		b.WriteString("\n")
		b.WriteString(strings.Join(fields, ","))
	}

	return b.String()
}

func MakeExportNotificationsHandler(
	exportNotifications app.ExportNotifications,
	location *time.Location,
	nowFunc func() time.Time,
	middlewares Middlewares,
) http.HandlerFunc {
	middleware := middlewares.authenticated("export_notifications")

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		filter, err := parseNotificationFilter(r, location)
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		notifications, err := exportNotifications(ctx, filter)
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		logging.FromContext(ctx).InfoContext(ctx, "Exporting notifications", slog.Int("count", len(notifications)))

		filename := fmt.Sprintf("notifications-%s.csv", nowFunc().In(location).Format(dateLayout))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(notificationsToCSV(notifications, location)))
	}

	return middleware(handler)
}
