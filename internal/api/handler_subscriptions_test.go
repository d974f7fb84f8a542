package api

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipment-registry-backend/config"
	"equipment-registry-backend/internal/db"
	"equipment-registry-backend/internal/ledger"
	"equipment-registry-backend/internal/registry"
	"equipment-registry-backend/internal/store"
)

const testEndpoint = "https://push.example.com/send/abc123"

// newSQLRouter backs both the registry and subscriptions with one SQLite file.
func newSQLRouter(t *testing.T) *gin.Engine {
	t.Helper()

	gormDB, err := db.Init(&config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "api.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		sqlDB.Close()
	})

	reg := registry.New(store.NewGormStore(gormDB), ledger.Fixed(7))
	handler := NewHandler(reg, gormDB, &webpush.Options{VAPIDPublicKey: "test-public-key"}, nil)
	return NewRouter(handler, testRouterConfig())
}

func TestPutSubscription_InvalidRequest(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, request{method: http.MethodPut, path: "/api/subscriptions"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request"}`, w.Body.String())
}

func TestSubscriptions_UnavailableWithoutDatabase(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, request{method: http.MethodPut, path: "/api/subscriptions", body: map[string]any{
		"endpoint": testEndpoint, "p256dh": "key", "auth": "secret",
	}})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, router, request{method: http.MethodGet, path: "/api/subscriptions?endpoint=" + testEndpoint})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSubscriptionLifecycle(t *testing.T) {
	router := newSQLRouter(t)

	for i := 0; i < 2; i++ {
		w := do(t, router, request{method: http.MethodPost, path: "/api/equipment", body: mriScanner(), caller: donor})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := do(t, router, request{method: http.MethodGet, path: "/api/subscriptions?endpoint=" + testEndpoint})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, request{method: http.MethodPut, path: "/api/subscriptions", body: map[string]any{
		"endpoint": testEndpoint, "p256dh": "key", "auth": "secret", "subscribed_equipment": []int64{1, 2},
	}})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, router, request{method: http.MethodGet, path: "/api/subscriptions?endpoint=" + testEndpoint})
	require.Equal(t, http.StatusOK, w.Code)
	assert.ElementsMatch(t, []int64{1, 2}, decode[map[string][]int64](t, w)["subscribed_equipment"])

	// Re-subscribing replaces the equipment set.
	w = do(t, router, request{method: http.MethodPut, path: "/api/subscriptions", body: map[string]any{
		"endpoint": testEndpoint, "p256dh": "key2", "auth": "secret2", "subscribed_equipment": []int64{2},
	}})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, router, request{method: http.MethodGet, path: "/api/subscriptions?endpoint=" + testEndpoint})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{2}, decode[map[string][]int64](t, w)["subscribed_equipment"])

	w = do(t, router, request{method: http.MethodDelete, path: "/api/subscriptions", body: map[string]string{"endpoint": testEndpoint}})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, router, request{method: http.MethodGet, path: "/api/subscriptions?endpoint=" + testEndpoint})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSubscription_MissingEndpoint(t *testing.T) {
	router := newSQLRouter(t)

	w := do(t, router, request{method: http.MethodGet, path: "/api/subscriptions"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetVAPIDPublicKey(t *testing.T) {
	w := do(t, newSQLRouter(t), request{method: http.MethodGet, path: "/api/vapid_public_key"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"test-public-key"}`, w.Body.String())

	w = do(t, newTestRouter(t), request{method: http.MethodGet, path: "/api/vapid_public_key"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
