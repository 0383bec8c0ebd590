package http

import (
	"net/http"

	"github.com/aussiebroadwan/codegate/internal/gate/store"
	"github.com/aussiebroadwan/codegate/pkg/gatesdk"
	"github.com/aussiebroadwan/codegate/pkg/httpx"
	"github.com/aussiebroadwan/codegate/pkg/slogx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe verifying the backing store is reachable
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	gatesdk.HealthResponse	"status, version"
//	@Failure		503	{object}	gatesdk.HealthResponse	"status, version"
//	@Router			/readyz [get].
func ReadyzHandler(st store.Store, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			slogx.FromContext(r.Context()).Error("readiness check failed", "err", err)
			httpx.WriteJSON(w, http.StatusServiceUnavailable, gatesdk.HealthResponse{
				Status:  "unavailable",
				Version: version,
			})
			return
		}

		httpx.WriteJSON(w, http.StatusOK, gatesdk.HealthResponse{
			Status:  "ok",
			Version: version,
		})
	}
}
