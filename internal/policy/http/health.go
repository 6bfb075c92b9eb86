package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/idpolicy/internal/policy/registry"
	"github.com/aussiebroadwan/idpolicy/internal/policy/store"
	"github.com/aussiebroadwan/idpolicy/pkg/httpx"
	"github.com/aussiebroadwan/idpolicy/pkg/jwtx"
	"github.com/aussiebroadwan/idpolicy/pkg/policysdk"
)

// LivezHandler always answers 200 while the process is serving.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, policysdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler reports 503 until the database answers, signing keys exist
// and a registry has been loaded.
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	keys *jwtx.KeySet,
	reg *registry.Store,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &policysdk.HealthChecks{
			Database: "ok",
			Signer:   "ok",
		}
		status := "ok"
		code := http.StatusOK
		degrade := func() {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			degrade()
		}
		if !keys.IsReady() {
			checks.Signer = "error: no keys loaded"
			degrade()
		}
		if gen := reg.Generation(); gen == 0 {
			checks.Registry = "error: not loaded"
			degrade()
		} else {
			checks.Registry = "generation " + strconv.FormatUint(gen, 10)
		}

		httpx.WriteJSON(w, code, policysdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
