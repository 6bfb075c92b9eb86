package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/idpolicy/pkg/httpx"
)

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), tag("outer"), tag("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteError(rec, http.StatusBadRequest, "invalid_scope", "no scopes granted")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.JSONEq(t, `{"error":"invalid_scope","error_description":"no scopes granted"}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}

	decode := func(payload string) (body, error) {
		var v body
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
		err := httpx.DecodeJSON(httptest.NewRecorder(), req, 64, &v)
		return v, err
	}

	v, err := decode(`{"name":"a"}`)
	require.NoError(t, err)
	require.Equal(t, "a", v.Name)

	_, err = decode(`{"name":"a","extra":1}`)
	require.Error(t, err)

	_, err = decode(`{"name":"a"}{"name":"b"}`)
	require.Error(t, err)

	_, err = decode(`{"name":"` + strings.Repeat("x", 100) + `"}`)
	require.Error(t, err)
}

func TestParseSpaceDelimitedFields(t *testing.T) {
	require.Nil(t, httpx.ParseSpaceDelimitedFields("   "))
	require.Equal(t, []string{"openid", "api1"}, httpx.ParseSpaceDelimitedFields(" openid  api1 "))
}
