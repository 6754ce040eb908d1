package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ecomlab/payrelay/infra/logger"
	"github.com/ecomlab/payrelay/infra/response"
	"github.com/ecomlab/payrelay/iyzico"
	"github.com/ecomlab/payrelay/store"
)

// SignatureHeader carries the gateway's webhook signature.
const SignatureHeader = "X-Iyz-Signature"

// WebhookHandler processes asynchronous payment notifications from the
// gateway. The signature is the sole acceptance authority; nothing else
// about the request grants trust.
type WebhookHandler struct {
	store     store.Store
	secretKey string
}

func NewWebhookHandler(st store.Store, secretKey string) *WebhookHandler {
	return &WebhookHandler{store: st, secretKey: secretKey}
}

// Handle verifies and applies a gateway webhook. Unknown gateways are 404,
// bad signatures are 400 with no state change, and notifications for unknown
// conversations are acknowledged without side effects.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if gateway := chi.URLParam(r, "gateway"); gateway != "iyzico" {
		response.Error(w, http.StatusNotFound, "Unknown gateway: "+gateway, nil)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Failed to read webhook body", err)
		return
	}

	// Malformed JSON is not an error path of its own. Absent fields stay
	// empty and the signature check rejects the payload.
	var payload iyzico.WebhookPayload
	_ = json.Unmarshal(body, &payload)

	signature := r.Header.Get(SignatureHeader)
	if !iyzico.VerifyWebhook(payload, signature, h.secretKey) {
		logger.Warn("webhook signature rejected", logger.LogContext{
			ConversationID: payload.ConversationID,
			Fields: map[string]any{
				"eventType": payload.EventType,
				"remoteIp":  r.RemoteAddr,
			},
		})
		response.Error(w, http.StatusBadRequest, "Invalid webhook signature", iyzico.ErrSignatureInvalid)
		return
	}

	next, apply := store.NextStatus(payload.Status)
	if !apply {
		logger.Info("webhook status left payment unchanged", logger.LogContext{
			ConversationID: payload.ConversationID,
			Fields:         map[string]any{"status": payload.Status},
		})
		response.Success(w, http.StatusOK, "Webhook processed", map[string]string{
			"conversationId": payload.ConversationID,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	updated, err := h.store.SetStatus(ctx, payload.ConversationID, next)
	if err != nil {
		logger.Error("failed to apply webhook status", err, logger.LogContext{
			ConversationID: payload.ConversationID,
			Fields:         map[string]any{"status": string(next)},
		})
		response.Error(w, http.StatusInternalServerError, "Failed to record payment status", err)
		return
	}
	if !updated {
		// A verified notification for a conversation we never recorded.
		// Acknowledge it so the gateway stops retrying.
		logger.Warn("webhook for unknown conversation", logger.LogContext{
			ConversationID: payload.ConversationID,
			Fields: map[string]any{
				"paymentId": payload.PaymentID,
				"status":    payload.Status,
			},
		})
	} else {
		logger.Info("payment status updated", logger.LogContext{
			ConversationID: payload.ConversationID,
			Fields:         map[string]any{"status": string(next)},
		})
	}

	response.Success(w, http.StatusOK, "Webhook processed", map[string]string{
		"conversationId": payload.ConversationID,
		"status":         string(next),
	})
}
