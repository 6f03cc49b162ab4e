package ports

import (
	"encoding/json"
	"net/http"

	"github.com/Amund211/disparos/internal/app"
	"github.com/Amund211/disparos/internal/domain"
)

type statsResponse struct {
	Total             int `json:"total"`
	NewSignups        int `json:"newSignups"`
	FirstDepositCount int `json:"firstDepositCount"`
	HasPhoneCount     int `json:"hasPhoneCount"`
	PixGeneratedCount int `json:"pixGeneratedCount"`
}

func statsToResponse(stats domain.UserStats) statsResponse {
	return statsResponse{
		Total:             stats.Total,
		NewSignups:        stats.NewSignups,
		FirstDepositCount: stats.FirstDepositCount,
		HasPhoneCount:     stats.HasPhoneCount,
		PixGeneratedCount: stats.PixGeneratedCount,
	}
}

type kpisResponse struct {
	TotalUsers          int         `json:"totalUsers"`
	UsersWithoutDeposit int         `json:"usersWithoutDeposit"`
	TotalDepositValue   json.Number `json:"totalDepositValue"`
	AvgDepositValue     json.Number `json:"avgDepositValue"`
	CreatedToday        int         `json:"createdToday"`
}

// Money is rendered as a JSON number with two decimals
func kpisToResponse(kpis domain.KPIs) kpisResponse {
	return kpisResponse{
		TotalUsers:          kpis.TotalUsers,
		UsersWithoutDeposit: kpis.UsersWithoutDeposit,
		TotalDepositValue:   json.Number(kpis.TotalDepositValue.StringFixed(2)),
		AvgDepositValue:     json.Number(kpis.AvgDepositValue.StringFixed(2)),
		CreatedToday:        kpis.CreatedToday,
	}
}

func MakeGetStatsHandler(getStats app.GetStats, middlewares Middlewares) http.HandlerFunc {
	middleware := middlewares.authenticated("user_stats")

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		stats, err := getStats(ctx)
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, statsToResponse(stats))
	}

	return middleware(handler)
}

func MakeGetKPIsHandler(getKPIs app.GetKPIs, middlewares Middlewares) http.HandlerFunc {
	middleware := middlewares.authenticated("dashboard_kpis")

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		kpis, err := getKPIs(ctx)
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, kpisToResponse(kpis))
	}

	return middleware(handler)
}
