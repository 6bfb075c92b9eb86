package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/idpolicy/internal/policy/service"
	"github.com/aussiebroadwan/idpolicy/pkg/policysdk"
	"github.com/aussiebroadwan/idpolicy/pkg/slogx"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 64 << 10

var statusByCode = map[string]int{
	policysdk.ErrorCodeInvalidClient:          http.StatusUnauthorized,
	policysdk.ErrorCodeUnauthorizedClient:     http.StatusBadRequest,
	policysdk.ErrorCodeInvalidRequest:         http.StatusBadRequest,
	policysdk.ErrorCodeInvalidScope:           http.StatusBadRequest,
	policysdk.ErrorCodeInvalidGrant:           http.StatusBadRequest,
	policysdk.ErrorCodeAccessDenied:           http.StatusForbidden,
	policysdk.ErrorCodeLoginRequired:          http.StatusUnauthorized,
	policysdk.ErrorCodeTemporarilyUnavailable: http.StatusServiceUnavailable,
	policysdk.ErrorCodeRequestCanceled:        http.StatusServiceUnavailable,
}

// writeServiceError maps a service error onto an OAuth2 error response.
// Consent challenges go out as 409 with the challenge attached; internal
// errors are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var consentErr *service.ConsentRequiredError
	if errors.As(err, &consentErr) {
		(&policysdk.ConsentRequiredError{Challenge: fromChallenge(consentErr.Challenge)}).WriteError(w)
		return
	}

	code := service.ErrorCode(err)
	status, ok := statusByCode[code]
	if !ok {
		slogx.FromContext(r.Context()).Error("request failed", "error", err)
		policysdk.ErrServerError.WriteError(w)
		return
	}
	policysdk.NewOAuth2Error(status, code, err.Error()).WriteError(w)
}
