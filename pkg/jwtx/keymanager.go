package jwtx

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/aussiebroadwan/idpolicy/pkg/cryptox"
)

const (
	DefaultNumKeys = 3
	MaxNumKeys     = 10
)

// KeyManager holds the active signing keys and the KeySet published for
// verification. Keys are ephemeral: they are generated at startup and live
// only in memory.
type KeyManager struct {
	KeySet   *KeySet
	Verifier *Verifier

	mu      sync.RWMutex
	signers []Signer
}

type KeyManagerOptions struct {
	// Issuer is validated by the manager's Verifier.
	Issuer string

	// NumKeys is how many signing keys to generate. Defaults to 3, capped
	// at 10.
	NumKeys int
}

// NewEphemeralKeyManager generates NumKeys Ed25519 signing keys with random
// key ids.
func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, fmt.Errorf("jwtx: Issuer is required")
	}

	numKeys := opts.NumKeys
	if numKeys <= 0 {
		numKeys = DefaultNumKeys
	}
	numKeys = min(numKeys, MaxNumKeys)

	km := &KeyManager{KeySet: NewKeySet()}
	km.Verifier = NewVerifier(km.KeySet, opts.Issuer, nil)

	for i := range numKeys {
		kid, err := generateRandomKeyID()
		if err != nil {
			return nil, err
		}
		signer, err := GenerateSignerEdDSA(kid)
		if err != nil {
			return nil, fmt.Errorf("jwtx: failed to generate signer %d: %w", i+1, err)
		}
		if err := km.AddSigner(signer); err != nil {
			return nil, err
		}
	}
	return km, nil
}

// IsReady returns true if the KeyManager has valid keys loaded.
func (km *KeyManager) IsReady() bool {
	return km.KeySet.IsReady()
}

// GetSigner returns a randomly selected active signer.
func (km *KeyManager) GetSigner() Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()

	switch len(km.signers) {
	case 0:
		return nil
	case 1:
		return km.signers[0]
	default:
		return km.signers[rand.IntN(len(km.signers))]
	}
}

func (km *KeyManager) NumSigners() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.signers)
}

// AddSigner adds a signing key and publishes its public half.
func (km *KeyManager) AddSigner(signer Signer) error {
	if signer == nil {
		return fmt.Errorf("jwtx: signer cannot be nil")
	}
	if err := signer.Validate(); err != nil {
		return err
	}

	km.mu.Lock()
	defer km.mu.Unlock()

	if err := km.KeySet.AddSigner(signer); err != nil {
		return fmt.Errorf("jwtx: failed to add signer to keyset: %w", err)
	}
	km.signers = append(km.signers, signer)
	return nil
}

// Sign signs claims with a randomly selected key.
func (km *KeyManager) Sign(claims Claims) (string, error) {
	signer := km.GetSigner()
	if signer == nil {
		return "", fmt.Errorf("jwtx: no signing keys")
	}
	return signer.Sign(claims)
}

func generateRandomKeyID() (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", fmt.Errorf("jwtx: failed to generate key ID: %w", err)
	}
	return "idpolicy-" + token, nil
}
