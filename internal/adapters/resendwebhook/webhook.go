package resendwebhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Amund211/disparos/internal/constants"
	"github.com/Amund211/disparos/internal/domain"
	"github.com/Amund211/disparos/internal/reporting"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Webhook struct {
	httpClient HttpClient
	url        string

	tracer trace.Tracer
}

func NewWebhook(httpClient HttpClient, url string) *Webhook {
	return &Webhook{
		httpClient: httpClient,
		url:        url,

		tracer: otel.Tracer("disparos/resendwebhook"),
	}
}

func (w *Webhook) URL() string {
	return w.url
}

type webhookUser struct {
	ID    string  `json:"id"`
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	Email string  `json:"email"`
}

type webhookContext struct {
	Campaign string `json:"campaign"`
	Template string `json:"template"`
}

type webhookPayload struct {
	NotificationID   string         `json:"notification_id"`
	User             webhookUser    `json:"user"`
	NotificationType string         `json:"notification_type"`
	Context          webhookContext `json:"context"`
}

func payloadFromRequest(request domain.ResendRequest) webhookPayload {
	return webhookPayload{
		NotificationID: request.NotificationID,
		User: webhookUser{
			ID:    request.User.Email,
			Name:  request.User.Name,
			Phone: request.User.Phone,
			Email: request.User.Email,
		},
		NotificationType: request.NotificationType,
		Context: webhookContext{
			Campaign: string(request.Campaign),
			Template: domain.TemplateName(request.Campaign),
		},
	}
}

// Send posts the resend request. Any non 2xx response is an error wrapping
// domain.ErrUpstream.
func (w *Webhook) Send(ctx context.Context, request domain.ResendRequest) error {
	ctx, span := w.tracer.Start(ctx, "Webhook.Send")
	defer span.End()

	body, err := json.Marshal(payloadFromRequest(request))
	if err != nil {
		err := fmt.Errorf("failed to marshal webhook payload: %w", err)
		reporting.Report(ctx, err)
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		reporting.Report(ctx, err)
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", constants.USER_AGENT)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to send request: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("%w: webhook returned status code %d", domain.ErrUpstream, resp.StatusCode)
		reporting.Report(ctx, err, map[string]string{
			"status": strconv.Itoa(resp.StatusCode),
			"data":   string(data),
		})
		return err
	}

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}
