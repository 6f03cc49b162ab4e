package ports

import (
	"net/http"

	"github.com/Amund211/disparos/internal/app"
	"github.com/Amund211/disparos/internal/reporting"
)

func MakeHealthHandler(checkHealth app.CheckHealth, middlewares Middlewares) http.HandlerFunc {
	middleware := middlewares.public("health")

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := checkHealth(ctx); err != nil {
			reporting.Report(ctx, err)
			writeError(ctx, w, http.StatusServiceUnavailable, "Banco de dados indisponível")
			return
		}

		writeJSON(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
	}

	return middleware(handler)
}
