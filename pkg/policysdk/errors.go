package policysdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/idpolicy/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	// RFC 6749 error codes
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidClient      = "invalid_client"
	ErrorCodeInvalidGrant       = "invalid_grant"
	ErrorCodeUnauthorizedClient = "unauthorized_client"
	ErrorCodeInvalidScope       = "invalid_scope"
	ErrorCodeAccessDenied       = "access_denied"
	ErrorCodeServerError        = "server_error"

	ErrorCodeTemporarilyUnavailable = "temporarily_unavailable"

	// OpenID Connect Core error codes
	ErrorCodeLoginRequired   = "login_required"
	ErrorCodeConsentRequired = "consent_required"

	ErrorCodeRequestCanceled = "request_canceled"
)

// ============================================================================
// OAuth2Error
// ============================================================================

// OAuth2Error is an OAuth2 error response. The server writes it and the
// client returns it.
type OAuth2Error struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *OAuth2Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes e as the response.
func (e *OAuth2Error) WriteError(w http.ResponseWriter) {
	httpx.WriteError(w, e.StatusCode, e.Code, e.Description)
}

// NewOAuth2Error creates an OAuth2Error with a custom description.
func NewOAuth2Error(statusCode int, code, description string) *OAuth2Error {
	return &OAuth2Error{StatusCode: statusCode, Code: code, Description: description}
}

var (
	ErrInvalidRequest = &OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	ErrInvalidClient = &OAuth2Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidClient,
		Description: "invalid client",
	}

	ErrServerError = &OAuth2Error{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}

	ErrTemporarilyUnavailable = &OAuth2Error{
		StatusCode:  http.StatusServiceUnavailable,
		Code:        ErrorCodeTemporarilyUnavailable,
		Description: "the service is temporarily unable to decide",
	}
)

// ============================================================================
// Consent Required
// ============================================================================

// ConsentRequiredError is returned with 409 Conflict when the user has to
// approve the grant before the decision completes.
type ConsentRequiredError struct {
	Challenge ConsentChallenge
}

func (e *ConsentRequiredError) Error() string {
	return fmt.Sprintf("consent required for client %q", e.Challenge.ClientID)
}

type consentRequiredBody struct {
	ErrorResponse
	Challenge *ConsentChallenge `json:"consent"`
}

// WriteError writes the challenge as a 409 Conflict in OAuth2 error format.
func (e *ConsentRequiredError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusConflict, consentRequiredBody{
		ErrorResponse: ErrorResponse{
			Error:            ErrorCodeConsentRequired,
			ErrorDescription: "the user must approve the requested scopes",
		},
		Challenge: &e.Challenge,
	})
}

// ============================================================================
// Error Parsing
// ============================================================================

// parseErrorResponse converts a non-2xx response into a typed error: a
// ConsentRequiredError for consent challenges, an OAuth2Error otherwise.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp consentRequiredBody
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		if resp.StatusCode == http.StatusConflict &&
			errResp.Error == ErrorCodeConsentRequired && errResp.Challenge != nil {
			return &ConsentRequiredError{Challenge: *errResp.Challenge}
		}
		return &OAuth2Error{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &OAuth2Error{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
