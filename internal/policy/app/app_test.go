package app

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, registryFile string, watch bool) Config {
	t.Helper()
	return Config{
		RegistryFile:  registryFile,
		WatchRegistry: watch,
		DatabaseFile:  filepath.Join(t.TempDir(), "idpolicy.db"),
		Issuer:        "https://idp.example",
		NumKeys:       1,
		Env:           "test",
		LogLevel:      "error",
		LogFormat:     "text",
	}
}

func TestNewServesLoadedRegistry(t *testing.T) {
	app, err := New(testConfig(t, filepath.Join("..", "config", "testdata", "registry.yaml"), false))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.db.Close() })

	require.Equal(t, uint64(1), app.registry.Generation())
	require.Nil(t, app.watcher)

	srv := httptest.NewServer(app.router)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewMissingRegistry(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "registry.yaml")

	t.Run("fails when not watched", func(t *testing.T) {
		_, err := New(testConfig(t, missing, false))
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("starts empty when watched", func(t *testing.T) {
		app, err := New(testConfig(t, missing, true))
		require.NoError(t, err)
		t.Cleanup(func() { _ = app.db.Close() })

		require.Equal(t, uint64(0), app.registry.Generation())
		require.NotNil(t, app.watcher)
	})
}

func TestNewRejectsInvalidRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte("clients:\n  - client_id: x\n"), 0o600))

	_, err := New(testConfig(t, path, true))
	require.Error(t, err)
}
