package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/idpolicy/pkg/cryptox"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckCommand(t *testing.T) {
	t.Parallel()

	t.Run("valid file", func(t *testing.T) {
		out, err := run(t, "", "check", filepath.Join("..", "..", "internal", "policy", "config", "testdata", "registry.yaml"))
		require.NoError(t, err)
		require.Contains(t, out, "ok (8 clients, 3 api resources, 7 identity resources)")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := run(t, "", "check", filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestHashSecretCommand(t *testing.T) {
	t.Parallel()

	t.Run("sha256 argument", func(t *testing.T) {
		out, err := run(t, "", "hash-secret", "--algorithm", "sha256", "mvc secret")
		require.NoError(t, err)
		require.Equal(t, cryptox.Sha256("mvc secret")+"\n", out)
	})

	t.Run("argon2id from stdin", func(t *testing.T) {
		out, err := run(t, "mvc secret\n", "hash-secret")
		require.NoError(t, err)

		ok, err := cryptox.MatchSecret(strings.TrimSpace(out), "mvc secret")
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := run(t, "", "hash-secret", "--algorithm", "md5", "x")
		require.ErrorContains(t, err, "unknown algorithm")
	})

	t.Run("empty secret", func(t *testing.T) {
		_, err := run(t, "\n", "hash-secret")
		require.Error(t, err)
	})
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	out, err := run(t, "", "version")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "idpolicy v"))
}
