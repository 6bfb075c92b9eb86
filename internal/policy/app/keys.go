package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/idpolicy/pkg/jwtx"
)

// InitKeys generates the ephemeral Ed25519 signing keys. Tokens signed by a
// previous process stop verifying after a restart.
func InitKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Issuer:  cfg.Issuer,
		NumKeys: cfg.NumKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize signing keys: %w", err)
	}

	logger.Info("ephemeral signing keys generated",
		"algorithm", jwtx.AlgorithmEdDSA,
		"num_keys", km.NumSigners(),
		"issuer", cfg.Issuer,
	)
	return km, nil
}
