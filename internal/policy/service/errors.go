package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
	"github.com/aussiebroadwan/idpolicy/internal/policy/registry"
)

var (
	ErrUnknownClient       = errors.New("unknown client")
	ErrGrantTypeNotAllowed = errors.New("grant type not allowed")
	ErrInvalidClientSecret = errors.New("invalid client secret")
	ErrRedirectURIMismatch = errors.New("redirect uri mismatch")
	ErrNoScopesGranted     = errors.New("no scopes granted")
	ErrAccessDenied        = errors.New("access denied")
	ErrSubjectRequired     = errors.New("subject required")
	ErrUpstreamTimeout     = errors.New("upstream timeout")

	ErrConsentRequired        = errors.New("consent required")
	ErrConsentDenied          = errors.New("consent denied")
	ErrConsentNotFound        = errors.New("consent not found")
	ErrConsentSubjectMismatch = errors.New("consent subject mismatch")
)

// ConsentRequiredError is returned by Decide when the user has to approve
// the grant first. The decision resumes through ResolveConsent with the
// challenge token.
type ConsentRequiredError struct {
	Challenge domain.ConsentChallenge
}

func (e *ConsentRequiredError) Error() string {
	return fmt.Sprintf("consent required for client %q", e.Challenge.ClientID)
}

func (e *ConsentRequiredError) Is(target error) bool {
	return target == ErrConsentRequired
}

// outcome pairs a sentinel with its OAuth2 error code and a short reason
// used for logs and metric labels.
type outcome struct {
	err    error
	code   string
	reason string
}

var outcomes = []outcome{
	{ErrUnknownClient, "invalid_client", "unknown_client"},
	{ErrInvalidClientSecret, "invalid_client", "invalid_client_secret"},
	{ErrGrantTypeNotAllowed, "unauthorized_client", "grant_type_not_allowed"},
	{ErrRedirectURIMismatch, "invalid_request", "redirect_uri_mismatch"},
	{ErrNoScopesGranted, "invalid_scope", "no_scopes_granted"},
	{ErrAccessDenied, "access_denied", "access_denied"},
	{ErrSubjectRequired, "login_required", "subject_required"},
	{ErrConsentRequired, "consent_required", "consent_required"},
	{ErrConsentDenied, "access_denied", "consent_denied"},
	{ErrConsentNotFound, "invalid_grant", "consent_not_found"},
	{ErrConsentSubjectMismatch, "invalid_grant", "consent_subject_mismatch"},
	{ErrUpstreamTimeout, "temporarily_unavailable", "upstream_timeout"},
	{registry.ErrNotLoaded, "temporarily_unavailable", "registry_not_loaded"},
	{context.Canceled, "request_canceled", "canceled"},
}

func lookupOutcome(err error) outcome {
	for _, o := range outcomes {
		if errors.Is(err, o.err) {
			return o
		}
	}
	return outcome{err: err, code: "server_error", reason: "internal"}
}

// ErrorCode maps a service error to its OAuth2 error code.
func ErrorCode(err error) string { return lookupOutcome(err).code }

// Reason maps an error to a short stable reason; nil is "granted".
func Reason(err error) string {
	if err == nil {
		return "granted"
	}
	return lookupOutcome(err).reason
}
