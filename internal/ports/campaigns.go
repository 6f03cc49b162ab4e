package ports

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Amund211/disparos/internal/app"
	"github.com/Amund211/disparos/internal/domain"
	"github.com/Amund211/disparos/internal/logging"
)

func MakeSelectEligibleHandler(selectEligible app.SelectEligible, middlewares Middlewares) http.HandlerFunc {
	middleware := middlewares.authenticated("campaign_users")

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rawType := r.URL.Query().Get("type")
		ctx = logging.AddMetaToContext(ctx, slog.String("campaignType", rawType))

		campaignType, users, err := selectEligible(ctx, rawType)
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		logging.FromContext(ctx).InfoContext(ctx, "Selected campaign users", slog.Int("count", len(users)))

		writeJSON(ctx, w, http.StatusOK, struct {
			Type  domain.CampaignType `json:"type"`
			Count int                 `json:"count"`
			Users []userResponse      `json:"users"`
		}{
			Type:  campaignType,
			Count: len(users),
			Users: usersToResponse(users),
		})
	}

	return middleware(handler)
}

type campaignActionRequest struct {
	Action string `json:"action"`
	Data   *struct {
		Year *int `json:"year"`
	} `json:"data"`
}

func MakeApplyCampaignActionHandler(applyAction app.ApplyCampaignAction, middlewares Middlewares) http.HandlerFunc {
	middleware := middlewares.authenticated("campaign_action")

	handler := func(w http.ResponseWriter, r *http.Request) {
		r, email := withEmailMeta(r)
		ctx := r.Context()

		var request campaignActionRequest
		if err := decodeJSONBody(w, r, &request); err != nil {
			writeError(ctx, w, http.StatusBadRequest, causeInvalidBody)
			return
		}

		var payload domain.ActionPayload
		if request.Data != nil {
			payload.Year = request.Data.Year
		}

		action, err := applyAction(ctx, email, request.Action, payload)
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, map[string]string{
			"message": fmt.Sprintf("Ação '%s' executada com sucesso para %s", action, email),
		})
	}

	return middleware(handler)
}
