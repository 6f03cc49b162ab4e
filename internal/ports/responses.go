package ports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Amund211/disparos/internal/domain"
	"github.com/Amund211/disparos/internal/logging"
	"github.com/Amund211/disparos/internal/reporting"
)

const (
	causeInternal     = "Erro interno do servidor"
	causeUnauthorized = "Não autorizado"
	causeRateLimited  = "Muitas tentativas, tente novamente mais tarde"
	causeInvalidBody  = "Corpo da requisição inválido"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Cause   string `json:"cause"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	marshalled, err := json.Marshal(data)
	if err != nil {
		reporting.Report(ctx, fmt.Errorf("failed to marshal response: %w", err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"cause":"Erro interno do servidor"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(marshalled)
}

func writeError(ctx context.Context, w http.ResponseWriter, statusCode int, cause string) {
	writeJSON(ctx, w, statusCode, errorResponse{Success: false, Cause: cause})
}

func causeForError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrMissingEmail):
		return http.StatusBadRequest, "Email é obrigatório"
	case errors.Is(err, domain.ErrInvalidEmail):
		return http.StatusBadRequest, "Email inválido"
	case errors.Is(err, domain.ErrEmptyUpdate):
		return http.StatusBadRequest, "Nenhum campo para atualizar"
	case errors.Is(err, domain.ErrInvalidCampaignType):
		return http.StatusBadRequest, "Tipo de campanha inválido. Use: 24h, 30d, 45d ou birthday"
	case errors.Is(err, domain.ErrInvalidAction):
		return http.StatusBadRequest, "Ação inválida"
	case errors.Is(err, domain.ErrInvalidYear):
		return http.StatusBadRequest, "Ano inválido"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "Requisição inválida"

	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "Usuário não encontrado"
	case errors.Is(err, domain.ErrNotificationNotFound):
		return http.StatusNotFound, "Notificação não encontrada"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Não encontrado"

	case errors.Is(err, domain.ErrUserAlreadyExists):
		return http.StatusConflict, "Usuário com este email já existe"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "Conflito"
	}
	return http.StatusInternalServerError, causeInternal
}

// writeDomainError maps err to a status code by its category. Internal errors
// are logged here, the adapters have already reported them.
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	statusCode, cause := causeForError(err)

	logger := logging.FromContext(ctx)
	if statusCode == http.StatusInternalServerError {
		logger.ErrorContext(ctx, "Request failed", slog.Int("statusCode", statusCode), slog.String("error", err.Error()))
	} else {
		logger.InfoContext(ctx, "Request rejected", slog.Int("statusCode", statusCode), slog.String("error", err.Error()))
	}

	writeError(ctx, w, statusCode, cause)
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("failed to parse request body: %w", err)
	}
	return nil
}
