package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomlab/payrelay/store"
)

type failingPingStore struct {
	*fakeStore
}

func (f *failingPingStore) Ping(ctx context.Context) error {
	return errors.New("connection refused")
}

var _ store.Store = (*failingPingStore)(nil)

func TestHealth_OK(t *testing.T) {
	h := NewHealthHandler(newFakeStore(), true)

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "ok", resp["database"])
	assert.Equal(t, true, resp["audit_logging"])
}

func TestHealth_DatabaseDown(t *testing.T) {
	h := NewHealthHandler(&failingPingStore{newFakeStore()}, false)

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
	assert.Equal(t, "unreachable", resp["database"])
}
