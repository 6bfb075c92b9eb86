package http

import (
	"net/http"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
	"github.com/aussiebroadwan/idpolicy/internal/policy/service"
	"github.com/aussiebroadwan/idpolicy/pkg/httpx"
	"github.com/aussiebroadwan/idpolicy/pkg/policysdk"
)

// DecisionHandler serves POST /v1/decisions and, with Tokens set,
// POST /v1/tokens.
type DecisionHandler struct {
	DecisionService *service.DecisionService
	TokenService    *service.TokenService // nil: decide only
}

func (h *DecisionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body policysdk.DecisionRequest
	if err := httpx.DecodeJSON(w, r, maxBodyBytes, &body); err != nil {
		policysdk.NewOAuth2Error(http.StatusBadRequest, policysdk.ErrorCodeInvalidRequest, err.Error()).WriteError(w)
		return
	}
	if oauthErr := validateDecisionRequest(body); oauthErr != nil {
		oauthErr.WriteError(w)
		return
	}

	dec, err := h.DecisionService.Decide(r.Context(), toDomainRequest(body))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.respond(w, r, dec)
}

func (h *DecisionHandler) respond(w http.ResponseWriter, r *http.Request, dec *domain.AuthorizationDecision) {
	if h.TokenService == nil {
		httpx.WriteJSON(w, http.StatusOK, fromDecision(dec))
		return
	}
	tok, err := h.TokenService.Issue(r.Context(), dec)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, fromIssued(dec, tok))
}

func validateDecisionRequest(req policysdk.DecisionRequest) *policysdk.OAuth2Error {
	switch {
	case req.ClientID == "":
		return policysdk.NewOAuth2Error(http.StatusBadRequest, policysdk.ErrorCodeInvalidRequest, "client_id is required")
	case req.GrantType == "":
		return policysdk.NewOAuth2Error(http.StatusBadRequest, policysdk.ErrorCodeInvalidRequest, "grant_type is required")
	case req.UpstreamTimeoutMS < 0:
		return policysdk.NewOAuth2Error(http.StatusBadRequest, policysdk.ErrorCodeInvalidRequest, "upstream_timeout_ms must not be negative")
	case req.Subject != nil && req.Subject.ID == "":
		return policysdk.NewOAuth2Error(http.StatusBadRequest, policysdk.ErrorCodeInvalidRequest, "subject.sub is required")
	}
	return nil
}
