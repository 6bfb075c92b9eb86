package policysdk

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SDKClient is a client for the idpolicy decision service.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a client for the service at baseURL.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Decide asks for an authorization decision without issuing tokens.
// A *ConsentRequiredError is returned when the user must approve first.
func (c *SDKClient) Decide(ctx context.Context, req DecisionRequest) (*DecisionResponse, error) {
	resp, err := c.postJSON(ctx, "/v1/decisions", req)
	if err != nil {
		return nil, err
	}

	var dec DecisionResponse
	if err := decodeJSON(resp, &dec, http.StatusOK); err != nil {
		return nil, err
	}
	return &dec, nil
}

// Token decides and issues the tokens the decision allows.
func (c *SDKClient) Token(ctx context.Context, req DecisionRequest) (*TokenResponse, error) {
	resp, err := c.postJSON(ctx, "/v1/tokens", req)
	if err != nil {
		return nil, err
	}

	var tok TokenResponse
	if err := decodeJSON(resp, &tok, http.StatusOK); err != nil {
		return nil, err
	}
	return &tok, nil
}

// ResolveConsent answers a consent challenge. On approval the completed
// decision is returned; a denial comes back as an access_denied error.
func (c *SDKClient) ResolveConsent(ctx context.Context, token string, answer ConsentAnswer) (*DecisionResponse, error) {
	resp, err := c.postJSON(ctx, "/v1/consents/"+url.PathEscape(token), answer)
	if err != nil {
		return nil, err
	}

	var dec DecisionResponse
	if err := decodeJSON(resp, &dec, http.StatusOK); err != nil {
		return nil, err
	}
	return &dec, nil
}

// ResolveConsentTokens answers a consent challenge and, on approval,
// issues the tokens for the completed decision.
func (c *SDKClient) ResolveConsentTokens(ctx context.Context, token string, answer ConsentAnswer) (*TokenResponse, error) {
	resp, err := c.postJSON(ctx, "/v1/consents/"+url.PathEscape(token)+"/tokens", answer)
	if err != nil {
		return nil, err
	}

	var tok TokenResponse
	if err := decodeJSON(resp, &tok, http.StatusOK); err != nil {
		return nil, err
	}
	return &tok, nil
}

// RevokeConsent forgets the consents subject gave clientID.
func (c *SDKClient) RevokeConsent(ctx context.Context, subject, clientID string) error {
	q := url.Values{"sub": {subject}, "client_id": {clientID}}
	resp, err := c.doRequest(ctx, http.MethodDelete, "/v1/consents?"+q.Encode(), nil, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// CheckCORS reports whether any enabled client allows origin.
func (c *SDKClient) CheckCORS(ctx context.Context, origin string) (bool, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/cors?origin="+url.QueryEscape(origin), nil, nil)
	if err != nil {
		return false, err
	}

	var out CORSResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return false, err
	}
	return out.Allowed, nil
}
