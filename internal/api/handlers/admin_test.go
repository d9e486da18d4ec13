package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ETAnderson/gatehouse/internal/admin"
	"github.com/ETAnderson/gatehouse/internal/gate"
	"github.com/ETAnderson/gatehouse/internal/kv"
)

func adminFixtures() (AdminDedupeKeysHandler, AdminCooldownsHandler, *kv.MemoryStore) {
	primary := kv.NewMemoryStore()
	fallback := kv.NewMemoryStore()
	logger := testHandlerLogger()

	override := admin.Override{Primary: primary, Fallback: fallback, Logger: logger}
	cooldown := gate.NewCooldownGate(primary, fallback, logger)

	dedupe := AdminDedupeKeysHandler{Override: override, Logger: logger}
	cooldowns := AdminCooldownsHandler{Override: override, Cooldown: cooldown, Logger: logger}
	return dedupe, cooldowns, primary
}

func TestAdminDedupeKeysHandler_Delete(t *testing.T) {
	h, _, primary := adminFixtures()
	ctx := context.Background()

	require.NoError(t, primary.Set(ctx, gate.SeenKeyPrefix+"msg:m1", "1", time.Minute))

	req := httptest.NewRequest(http.MethodDelete, "/v1/admin/dedupe-keys/msg:m1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "msg:m1")

	_, ok, err := primary.Get(ctx, gate.SeenKeyPrefix+"msg:m1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdminDedupeKeysHandler_MissingKey(t *testing.T) {
	h, _, _ := adminFixtures()

	req := httptest.NewRequest(http.MethodDelete, "/v1/admin/dedupe-keys/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminDedupeKeysHandler_MethodNotAllowed(t *testing.T) {
	h, _, _ := adminFixtures()

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/dedupe-keys/msg:m1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestAdminCooldownsHandler_GetRemaining(t *testing.T) {
	_, h, primary := adminFixtures()
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/cooldowns/T1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"cooldown_active":false`)

	require.NoError(t, primary.Set(ctx, gate.CooldownKeyPrefix+"T1", "1", 2*time.Minute))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/admin/cooldowns/T1", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"cooldown_active":true`)
}

func TestAdminCooldownsHandler_Delete(t *testing.T) {
	_, h, primary := adminFixtures()
	ctx := context.Background()

	require.NoError(t, primary.Set(ctx, gate.CooldownKeyPrefix+"T1", "1", 2*time.Minute))

	req := httptest.NewRequest(http.MethodDelete, "/v1/admin/cooldowns/T1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	_, ok, err := primary.Get(ctx, gate.CooldownKeyPrefix+"T1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Idempotent: clearing again still succeeds.
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/v1/admin/cooldowns/T1", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
