package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	Success(w, http.StatusOK, "done", map[string]string{"key": "value"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "done", resp.Message)
	assert.NotNil(t, resp.Data)
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, http.StatusBadRequest, "Validation error", errors.New("price is required"))

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Validation error", resp.Message)
	assert.Equal(t, "price is required", resp.Error)
}

func TestError_NilError(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, http.StatusNotFound, "not found", nil)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Error)
}

func TestGatewayFailure(t *testing.T) {
	w := httptest.NewRecorder()
	GatewayFailure(w, http.StatusBadRequest, "10051", "Insufficient funds")

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "10051", resp.ErrorCode)
	assert.Equal(t, "Insufficient funds", resp.Message)
}
