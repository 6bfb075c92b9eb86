/*
Package policysdk is a client for the idpolicy decision service and holds
the wire types its HTTP API speaks.

	client := policysdk.NewSDKClient("https://policy.internal")

	secret := "secret"
	dec, err := client.Decide(ctx, policysdk.DecisionRequest{
		ClientID:     "mvc",
		ClientSecret: &secret,
		GrantType:    "authorization_code",
		Scope:        "openid profile api1",
		RedirectURI:  "https://localhost:44302/signin-oidc",
		Subject:      &policysdk.Subject{ID: "alice"},
	})

When the client requires consent the call fails with a
*ConsentRequiredError. Show the challenge to the user, then answer it:

	var cre *policysdk.ConsentRequiredError
	if errors.As(err, &cre) {
		dec, err = client.ResolveConsent(ctx, cre.Challenge.Token, policysdk.ConsentAnswer{
			Approve: true,
			Subject: &policysdk.Subject{ID: "alice"},
		})
	}

Token behaves like Decide and also returns the signed tokens. Reference
access tokens come back with their payload, which the caller stores.

Every other failure is an *OAuth2Error carrying the HTTP status and the
OAuth2 error code.
*/
package policysdk
