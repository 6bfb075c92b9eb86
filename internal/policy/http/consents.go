package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
	"github.com/aussiebroadwan/idpolicy/internal/policy/service"
	"github.com/aussiebroadwan/idpolicy/pkg/httpx"
	"github.com/aussiebroadwan/idpolicy/pkg/policysdk"
)

// ConsentHandler answers and revokes consents.
type ConsentHandler struct {
	DecisionService *service.DecisionService
	TokenService    *service.TokenService
}

// HandleResolve serves POST /v1/consents/{token}.
func (h *ConsentHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, nil)
}

// HandleResolveTokens serves POST /v1/consents/{token}/tokens, which also
// issues tokens for the completed decision.
func (h *ConsentHandler) HandleResolveTokens(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.TokenService)
}

func (h *ConsentHandler) resolve(w http.ResponseWriter, r *http.Request, tokens *service.TokenService) {
	var body policysdk.ConsentAnswer
	if err := httpx.DecodeJSON(w, r, maxBodyBytes, &body); err != nil {
		policysdk.NewOAuth2Error(http.StatusBadRequest, policysdk.ErrorCodeInvalidRequest, err.Error()).WriteError(w)
		return
	}
	// Checked here so a malformed answer does not burn the token.
	switch {
	case body.Subject == nil || body.Subject.ID == "":
		policysdk.NewOAuth2Error(http.StatusBadRequest, policysdk.ErrorCodeInvalidRequest, "subject.sub is required").WriteError(w)
		return
	case body.UpstreamTimeoutMS < 0:
		policysdk.NewOAuth2Error(http.StatusBadRequest, policysdk.ErrorCodeInvalidRequest, "upstream_timeout_ms must not be negative").WriteError(w)
		return
	}

	dec, err := h.DecisionService.ResolveConsent(r.Context(), domain.ConsentAnswer{
		Token:           r.PathValue("token"),
		Approve:         body.Approve,
		Subject:         toPrincipal(body.Subject),
		UpstreamTimeout: time.Duration(body.UpstreamTimeoutMS) * time.Millisecond,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	(&DecisionHandler{DecisionService: h.DecisionService, TokenService: tokens}).respond(w, r, dec)
}

// HandleRevoke serves DELETE /v1/consents?sub=&client_id=[&upstream_timeout_ms=].
func (h *ConsentHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sub, clientID := q.Get("sub"), q.Get("client_id")
	if sub == "" || clientID == "" {
		policysdk.NewOAuth2Error(http.StatusBadRequest, policysdk.ErrorCodeInvalidRequest, "sub and client_id are required").WriteError(w)
		return
	}
	var timeout time.Duration
	if v := q.Get("upstream_timeout_ms"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil || ms < 0 {
			policysdk.NewOAuth2Error(http.StatusBadRequest, policysdk.ErrorCodeInvalidRequest, "upstream_timeout_ms must be a non-negative integer").WriteError(w)
			return
		}
		timeout = time.Duration(ms) * time.Millisecond
	}
	if err := h.DecisionService.RevokeConsent(r.Context(), sub, clientID, timeout); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
