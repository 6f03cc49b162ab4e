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
	"github.com/Amund211/disparos/internal/reporting"
)

const (
	notificationProvider       = "whatsapp_api"
	notificationProviderStatus = "delivered"
	defaultName                = "Usuário sem nome"
	defaultPhone               = "Sem telefone"
	chartDateLayout            = "02/01"
)

type notificationContext struct {
	Campaign domain.CampaignLabel `json:"campaign"`
	Template string               `json:"template"`
}

type notificationResponse struct {
	NotificationID    string              `json:"notification_id"`
	UserID            string              `json:"user_id"`
	Name              string              `json:"name"`
	Email             string              `json:"email"`
	Phone             string              `json:"phone"`
	NotificationType  string              `json:"notification_type"`
	SentAt            time.Time           `json:"sent_at"`
	Context           notificationContext `json:"context"`
	Provider          string              `json:"provider"`
	ProviderMessageID string              `json:"provider_message_id"`
	ProviderStatus    string              `json:"provider_status"`
}

func valueOr(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}

func notificationToResponse(notification domain.SyntheticNotification) notificationResponse {
	return notificationResponse{
		NotificationID:   notification.ID,
		UserID:           notification.User.Email,
		Name:             valueOr(notification.User.Name, defaultName),
		Email:            notification.User.Email,
		Phone:            valueOr(notification.User.Phone, defaultPhone),
		NotificationType: domain.NotificationChannel,
		SentAt:           notification.SentAt.UTC(),
		Context: notificationContext{
			Campaign: notification.Campaign,
			Template: domain.TemplateName(notification.Campaign),
		},
		Provider:          notificationProvider,
		ProviderMessageID: "msg_" + notification.ID,
		ProviderStatus:    notificationProviderStatus,
	}
}

type notificationDetailContext struct {
	notificationContext
	IsNewSignup      *bool `json:"is_new_signup"`
	FirstDepositDone *bool `json:"first_deposit_done"`
}

type notificationMetadata struct {
	CreatedAt            *time.Time `json:"created_at"`
	BirthDate            *string    `json:"birth_date"`
	TotalValue           *string    `json:"total_value"`
	LastBirthdaySentYear *int       `json:"last_birthday_sent_year"`
}

type notificationEventResponse struct {
	EventType domain.NotificationEventType `json:"event_type"`
	EventAt   time.Time                    `json:"event_at"`
	Payload   map[string]any               `json:"payload"`
}

type notificationDetailResponse struct {
	notificationResponse
	// Shadows the embedded context
	Context      notificationDetailContext   `json:"context"`
	Metadata     notificationMetadata        `json:"metadata"`
	RecentEvents []notificationEventResponse `json:"recent_events"`
}

func eventToResponse(event domain.NotificationEvent) notificationEventResponse {
	payload := map[string]any{}
	switch event.Type {
	case domain.EventPixGenerated:
		payload["value"] = event.Value
	case domain.EventLastDeposit:
		payload["amount"] = event.Value
	case domain.EventWhatsAppSent:
		payload["campaign"] = event.Campaign
	}
	return notificationEventResponse{
		EventType: event.Type,
		EventAt:   event.At.UTC(),
		Payload:   payload,
	}
}

func notificationDetailToResponse(detail domain.NotificationDetail) notificationDetailResponse {
	base := notificationToResponse(detail.SyntheticNotification)
	user := detail.User

	var createdAt *time.Time
	if domain.IsValidTimestamp(&user.CreatedAt) {
		createdAt = utcPtr(&user.CreatedAt)
	}

	events := make([]notificationEventResponse, 0, len(detail.Events))
	for _, event := range detail.Events {
		events = append(events, eventToResponse(event))
	}

	return notificationDetailResponse{
		notificationResponse: base,
		Context: notificationDetailContext{
			notificationContext: base.Context,
			IsNewSignup:         user.IsNewSignup,
			FirstDepositDone:    user.FirstDepositDone,
		},
		Metadata: notificationMetadata{
			CreatedAt:            createdAt,
			BirthDate:            formatDate(user.BirthDate),
			TotalValue:           user.TotalValue,
			LastBirthdaySentYear: user.LastBirthdaySentYear,
		},
		RecentEvents: events,
	}
}

func parseNotificationFilter(r *http.Request, location *time.Location) (domain.NotificationFilter, error) {
	query := r.URL.Query()

	filter := domain.NotificationFilter{
		Search: strings.TrimSpace(query.Get("search")),
	}

	if rawType := strings.TrimSpace(query.Get("type")); rawType != "" {
		label, ok := domain.ParseCampaignLabel(rawType)
		if !ok {
			return domain.NotificationFilter{}, fmt.Errorf("%w: invalid notification type '%s'", domain.ErrValidation, rawType)
		}
		filter.Campaign = label
	}

	var err error
	if filter.From, err = optionalInstant(query, "from", location, false); err != nil {
		return domain.NotificationFilter{}, err
	}
	if filter.To, err = optionalInstant(query, "to", location, true); err != nil {
		return domain.NotificationFilter{}, err
	}

	return filter, nil
}

func MakeListNotificationsHandler(listNotifications app.ListNotifications, location *time.Location, middlewares Middlewares) http.HandlerFunc {
	middleware := middlewares.authenticated("list_notifications")

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		filter, err := parseNotificationFilter(r, location)
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}
		page, err := positiveInt(r.URL.Query(), "page", 1)
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		result, err := listNotifications(ctx, filter, page)
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		data := make([]notificationResponse, 0, len(result.Notifications))
		for _, notification := range result.Notifications {
			data = append(data, notificationToResponse(notification))
		}

		writeJSON(ctx, w, http.StatusOK, struct {
			Data  []notificationResponse `json:"data"`
			Total int                    `json:"total"`
			Page  int                    `json:"page"`
		}{
			Data:  data,
			Total: result.Total,
			Page:  result.Page,
		})
	}

	return middleware(handler)
}

func withNotificationMeta(r *http.Request) (*http.Request, string) {
	id := r.PathValue("id")
	ctx := logging.AddMetaToContext(r.Context(), slog.String("notificationID", id))
	ctx = reporting.AddExtrasToContext(ctx, map[string]string{"notificationID": id})
	return r.WithContext(ctx), id
}

func MakeGetNotificationHandler(getNotification app.GetNotification, middlewares Middlewares) http.HandlerFunc {
	middleware := middlewares.authenticated("get_notification")

	handler := func(w http.ResponseWriter, r *http.Request) {
		r, id := withNotificationMeta(r)
		ctx := r.Context()

		detail, err := getNotification(ctx, id)
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, notificationDetailToResponse(detail))
	}

	return middleware(handler)
}

func MakeGetNotificationChartHandler(getChart app.GetNotificationChart, middlewares Middlewares) http.HandlerFunc {
	middleware := middlewares.authenticated("notification_chart")

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		points, err := getChart(ctx)
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		type chartPoint struct {
			Date  string `json:"date"`
			Count int    `json:"count"`
		}
		response := make([]chartPoint, 0, len(points))
		for _, point := range points {
			response = append(response, chartPoint{
				Date:  point.Day.Format(chartDateLayout),
				Count: point.Count,
			})
		}

		writeJSON(ctx, w, http.StatusOK, response)
	}

	return middleware(handler)
}

func MakeResendNotificationHandler(resend app.ResendNotification, middlewares Middlewares) http.HandlerFunc {
	middleware := middlewares.authenticated("resend_notification")

	handler := func(w http.ResponseWriter, r *http.Request) {
		r, id := withNotificationMeta(r)
		ctx := r.Context()

		result, err := resend(ctx, id)
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		logging.FromContext(ctx).InfoContext(ctx, "Processed resend request",
			slog.Bool("success", result.Success),
			slog.Bool("stored", result.Stored),
		)

		writeJSON(ctx, w, http.StatusOK, struct {
			Success bool `json:"success"`
			Stored  bool `json:"stored"`
		}{
			Success: result.Success,
			Stored:  result.Stored,
		})
	}

	return middleware(handler)
}
