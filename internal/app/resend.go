package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Amund211/disparos/internal/domain"
	"github.com/Amund211/disparos/internal/logging"
	"github.com/Amund211/disparos/internal/reporting"
)

// ResendSender forwards a resend request to the external sending service
type ResendSender interface {
	Send(ctx context.Context, request domain.ResendRequest) error
	URL() string
}

type resendAuditStore interface {
	StoreResendRequest(ctx context.Context, audit domain.ResendAudit) error
}

type ResendNotification func(ctx context.Context, id string) (domain.ResendResult, error)

// BuildResendNotification resolves the notification and hands it to sender.
// sender may be nil, in which case the request is only recorded.
func BuildResendNotification(
	getNotification GetNotification,
	sender ResendSender,
	auditStore resendAuditStore,
	nowFunc func() time.Time,
) ResendNotification {
	return func(ctx context.Context, id string) (domain.ResendResult, error) {
		detail, err := getNotification(ctx, id)
		if err != nil {
			return domain.ResendResult{}, err
		}

		requestedAt := nowFunc()
		result := domain.ResendResult{Success: true, Stored: true}
		webhookURL := ""

		if sender != nil {
			webhookURL = sender.URL()
			err := sender.Send(ctx, domain.ResendRequest{
				NotificationID:   id,
				User:             detail.User,
				NotificationType: domain.NotificationChannel,
				Campaign:         detail.Campaign,
				RequestedAt:      requestedAt,
			})
			if err != nil {
				reporting.Report(ctx, fmt.Errorf("resend webhook failed: %w", err))
				logging.FromContext(ctx).WarnContext(ctx, "Resend webhook failed", slog.String("error", err.Error()))
			}
			result = domain.ResendResult{Success: err == nil, Stored: false}
		}

		err = auditStore.StoreResendRequest(ctx, domain.ResendAudit{
			NotificationID: id,
			UserEmail:      detail.User.Email,
			RequestedAt:    requestedAt,
			WebhookURL:     webhookURL,
			Result:         result,
		})
		if err != nil {
			return domain.ResendResult{}, fmt.Errorf("could not store resend request: %w", err)
		}

		return result, nil
	}
}
