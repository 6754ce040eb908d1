package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ecomlab/payrelay/infra/opensearch"
	"github.com/ecomlab/payrelay/infra/response"
)

// AuditSearcher is the audit-log query surface the logs handler needs.
// *opensearch.Logger satisfies it; tests swap in a fake.
type AuditSearcher interface {
	GetConversationLogs(ctx context.Context, conversationID string) ([]opensearch.PaymentLog, error)
	GetRecentErrorLogs(ctx context.Context, hours int) ([]opensearch.PaymentLog, error)
}

// LogsHandler serves read access to the indexed payment audit log.
type LogsHandler struct {
	audit AuditSearcher
}

// NewLogsHandler creates a logs handler. audit is nil when OpenSearch logging
// is disabled; queries then answer 503.
func NewLogsHandler(audit AuditSearcher) *LogsHandler {
	return &LogsHandler{audit: audit}
}

// ListConversationLogs returns the audit trail of a single conversation.
func (h *LogsHandler) ListConversationLogs(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		response.Error(w, http.StatusServiceUnavailable, "Audit log search is not enabled", nil)
		return
	}

	conversationID := r.URL.Query().Get("conversationId")
	if conversationID == "" {
		response.Error(w, http.StatusBadRequest, "conversationId is required", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	logs, err := h.audit.GetConversationLogs(ctx, conversationID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to search logs", err)
		return
	}

	response.Success(w, http.StatusOK, "Logs retrieved", map[string]any{
		"conversationId": conversationID,
		"count":          len(logs),
		"logs":           logs,
	})
}

// ListErrorLogs returns recent failed operations, newest first.
func (h *LogsHandler) ListErrorLogs(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		response.Error(w, http.StatusServiceUnavailable, "Audit log search is not enabled", nil)
		return
	}

	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 168 {
			response.Error(w, http.StatusBadRequest, "hours must be between 1 and 168", nil)
			return
		}
		hours = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	logs, err := h.audit.GetRecentErrorLogs(ctx, hours)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to search logs", err)
		return
	}

	response.Success(w, http.StatusOK, "Logs retrieved", map[string]any{
		"hours": hours,
		"count": len(logs),
		"logs":  logs,
	})
}
