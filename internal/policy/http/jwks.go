package http

import (
	"net/http"

	"github.com/aussiebroadwan/idpolicy/pkg/httpx"
	"github.com/aussiebroadwan/idpolicy/pkg/jwtx"
	"github.com/aussiebroadwan/idpolicy/pkg/policysdk"
)

// JWKSHandler publishes the keys that verify issued tokens.
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, policysdk.JWKSResponse(keys.PublicJWKS()))
	}
}
