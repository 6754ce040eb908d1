package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/ecomlab/payrelay/infra/response"
	"github.com/ecomlab/payrelay/store"
)

// HealthHandler reports service liveness and dependency reachability.
type HealthHandler struct {
	store        store.Store
	auditEnabled bool
}

func NewHealthHandler(st store.Store, auditEnabled bool) *HealthHandler {
	return &HealthHandler{store: st, auditEnabled: auditEnabled}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	dbStatus := "ok"
	statusCode := http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		status = "degraded"
		dbStatus = "unreachable"
		statusCode = http.StatusServiceUnavailable
	}

	response.WriteJSON(w, statusCode, map[string]any{
		"status":        status,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"database":      dbStatus,
		"audit_logging": h.auditEnabled,
	})
}
