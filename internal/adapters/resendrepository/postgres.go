package resendrepository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Amund211/disparos/internal/domain"
	"github.com/Amund211/disparos/internal/reporting"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type Postgres struct {
	db     *sqlx.DB
	schema string

	tracer trace.Tracer
}

func NewPostgres(db *sqlx.DB, schema string) *Postgres {
	tracer := otel.Tracer("disparos/resendrepository/postgres")

	return &Postgres{
		db:     db,
		schema: schema,

		tracer: tracer,
	}
}

// Stored in the context column
type dbResendContext struct {
	WebhookURL *string `json:"webhook_url"`
	Success    bool    `json:"success"`
	Stored     bool    `json:"stored"`
}

func (p *Postgres) StoreResendRequest(ctx context.Context, audit domain.ResendAudit) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.StoreResendRequest")
	defer span.End()

	var webhookURL *string
	if audit.WebhookURL != "" {
		webhookURL = &audit.WebhookURL
	}

	resendContext, err := json.Marshal(dbResendContext{
		WebhookURL: webhookURL,
		Success:    audit.Result.Success,
		Stored:     audit.Result.Stored,
	})
	if err != nil {
		err := fmt.Errorf("failed to marshal resend context: %w", err)
		reporting.Report(ctx, err)
		return err
	}

	_, err = p.db.ExecContext(
		ctx,
		fmt.Sprintf(`INSERT INTO %s.resend_requests
		(notification_id, user_email, requested_at, context)
		VALUES ($1, $2, $3, $4)`,
			pq.QuoteIdentifier(p.schema)),
		audit.NotificationID,
		audit.UserEmail,
		audit.RequestedAt,
		string(resendContext),
	)
	if err != nil {
		err := fmt.Errorf("failed to insert resend request: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"notificationID": audit.NotificationID,
		})
		return err
	}

	return nil
}
