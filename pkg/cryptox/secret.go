package cryptox

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"strings"
)

// Sha256 returns the base64 SHA-256 digest of secret. This is the hash form
// used by registry files for client and API secrets.
func Sha256(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Sha512 returns the base64 SHA-512 digest of secret.
func Sha512(secret string) string {
	sum := sha512.Sum512([]byte(secret))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// SecretVerifier checks presented secrets against stored hashes. It accepts
// PHC Argon2id hashes and base64 SHA-256/SHA-512 digests. Comparisons are
// constant time.
type SecretVerifier struct{}

// VerifySecret reports whether presented hashes to hash.
func (SecretVerifier) VerifySecret(ctx context.Context, hash, presented string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	return MatchSecret(hash, presented)
}

// MatchSecret compares presented against hash without a context.
func MatchSecret(hash, presented string) (bool, error) {
	if strings.HasPrefix(hash, argon2Prefix) {
		return verifyArgon2(presented, hash)
	}

	computed := Sha256(presented)
	if len(hash) == base64.StdEncoding.EncodedLen(sha512.Size) {
		computed = Sha512(presented)
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1, nil
}
