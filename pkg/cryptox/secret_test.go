package cryptox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSha256(t *testing.T) {
	// Known digest of "secret" so registry files written elsewhere stay valid.
	require.Equal(t, "K7gNU3sdo+OL0wNhqoVWhr3g6s1xYv72ol/pe/Unols=", Sha256("secret"))
	require.Len(t, Sha512("secret"), 88)
}

func TestSecretVerifier(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	v := SecretVerifier{}

	argonHash, err := HashArgon2("mvc secret")
	require.NoError(t, err)

	tests := []struct {
		name      string
		hash      string
		presented string
		want      bool
	}{
		{"sha256 match", Sha256("511536EF-F270-4058-80CA-1C89C192F69A"), "511536EF-F270-4058-80CA-1C89C192F69A", true},
		{"sha256 mismatch", Sha256("wpf secrect"), "wpf secret", false},
		{"sha512 match", Sha512("api1 secret"), "api1 secret", true},
		{"sha512 mismatch", Sha512("api1 secret"), "api2 secret", false},
		{"argon2 match", argonHash, "mvc secret", true},
		{"argon2 mismatch", argonHash, "hybrid secret", false},
		{"empty presented", Sha256("x"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := v.VerifySecret(ctx, tt.hash, tt.presented)
			require.NoError(t, err)
			require.Equal(t, tt.want, ok)
		})
	}

	t.Run("malformed argon2 hash", func(t *testing.T) {
		_, err := v.VerifySecret(ctx, "$argon2id$v=19$broken", "x")
		require.ErrorIs(t, err, ErrMalformedHash)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := v.VerifySecret(cctx, Sha256("x"), "x")
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestHashArgon2Salted(t *testing.T) {
	a, err := HashArgon2("same")
	require.NoError(t, err)
	b, err := HashArgon2("same")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
