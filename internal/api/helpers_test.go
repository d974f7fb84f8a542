package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"equipment-registry-backend/internal/auth"
	"equipment-registry-backend/internal/idempotency"
	"equipment-registry-backend/internal/ledger"
	"equipment-registry-backend/internal/model"
	"equipment-registry-backend/internal/registry"
	"equipment-registry-backend/internal/store"
)

const (
	testSecret = "test-secret"

	donor    model.Principal = "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM"
	stranger model.Principal = "ST2CY5V39NHDPWSXMW9QDT3HC3GD6Q6XX4CFRK9AG"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouterConfig() RouterConfig {
	return RouterConfig{
		JWTSecret:       testSecret,
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTL:        time.Minute,
	}
}

// newTestRouter wires a memory-backed registry at height 100 behind the full router.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	idem, err := idempotency.New(filepath.Join(t.TempDir(), "idem.db"))
	require.NoError(t, err)
	t.Cleanup(func() { idem.Close() })

	reg := registry.New(store.NewMemoryStore(), ledger.Fixed(100))
	return NewRouter(NewHandler(reg, nil, nil, idem), testRouterConfig())
}

func tokenFor(t *testing.T, p model.Principal) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, p, time.Hour)
	require.NoError(t, err)
	return token
}

type request struct {
	method  string
	path    string
	body    any
	caller  model.Principal
	headers map[string]string
}

func do(t *testing.T, r http.Handler, req request) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if req.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(req.body))
	}
	httpReq := httptest.NewRequest(req.method, req.path, &body)
	httpReq.Header.Set("Content-Type", "application/json")
	if req.caller != "" {
		httpReq.Header.Set("Authorization", "Bearer "+tokenFor(t, req.caller))
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httpReq)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}
