package http

import (
	"net/http"

	"github.com/aussiebroadwan/idpolicy/internal/policy/registry"
	"github.com/aussiebroadwan/idpolicy/pkg/httpx"
	"github.com/aussiebroadwan/idpolicy/pkg/policysdk"
)

// CORSHandler serves GET /v1/cors?origin=. Browsers never call it; the
// gateway in front of the token endpoints asks it before answering a
// preflight.
func CORSHandler(reg *registry.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.URL.Query().Get("origin")
		if origin == "" {
			policysdk.NewOAuth2Error(http.StatusBadRequest, policysdk.ErrorCodeInvalidRequest, "origin is required").WriteError(w)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, policysdk.CORSResponse{
			Origin:  origin,
			Allowed: reg.IsOriginAllowed(origin),
		})
	}
}
