package service

import (
	"context"
	"time"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
	"github.com/aussiebroadwan/idpolicy/pkg/jwtx"
)

//go:generate mockgen -destination=mocks/mock_collaborators.go -package=mocks github.com/aussiebroadwan/idpolicy/internal/policy/service SecretVerifier,TokenSigner

// SecretVerifier checks a presented client secret against a stored hash.
// Implementations must compare in constant time.
type SecretVerifier interface {
	VerifySecret(ctx context.Context, hash, presented string) (bool, error)
}

// TokenSigner turns claims into a signed JWT.
type TokenSigner interface {
	Sign(claims jwtx.Claims) (string, error)
}

// Observer receives one call per finished decision.
type Observer interface {
	DecisionMade(ctx context.Context, grant domain.GrantType, reason string, elapsed time.Duration)
}
