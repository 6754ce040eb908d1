package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomlab/payrelay/iyzico"
	"github.com/ecomlab/payrelay/store"
)

const webhookSecret = "test-secret-key"

func signPayload(p iyzico.WebhookPayload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(secret + p.EventType + p.PaymentID + p.ConversationID + p.Status))
	return hex.EncodeToString(mac.Sum(nil))
}

func webhookRequest(t *testing.T, gateway string, payload iyzico.WebhookPayload, signature string) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhook/"+gateway, bytes.NewReader(body))
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("gateway", gateway)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func seedPending(t *testing.T, st *fakeStore, conversationID string) {
	t.Helper()
	require.NoError(t, st.CreatePayment(context.Background(), &store.PaymentRecord{
		ConversationID: conversationID,
		Status:         store.StatusPending,
	}))
}

func TestWebhook_SuccessCompletesPayment(t *testing.T) {
	st := newFakeStore()
	seedPending(t, st, "conv-1")
	h := NewWebhookHandler(st, webhookSecret)

	payload := iyzico.WebhookPayload{
		EventType:      "API_AUTH",
		PaymentID:      "12345",
		ConversationID: "conv-1",
		Status:         "SUCCESS",
	}
	req := webhookRequest(t, "iyzico", payload, signPayload(payload, webhookSecret))
	w := httptest.NewRecorder()
	h.Handle(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	rec, err := st.GetByConversationID(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, rec.Status)
}

func TestWebhook_FailureMarksPaymentFailed(t *testing.T) {
	st := newFakeStore()
	seedPending(t, st, "conv-1")
	h := NewWebhookHandler(st, webhookSecret)

	payload := iyzico.WebhookPayload{
		EventType:      "API_AUTH",
		PaymentID:      "12345",
		ConversationID: "conv-1",
		Status:         "FAILURE",
	}
	req := webhookRequest(t, "iyzico", payload, signPayload(payload, webhookSecret))
	w := httptest.NewRecorder()
	h.Handle(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	rec, _ := st.GetByConversationID(context.Background(), "conv-1")
	assert.Equal(t, store.StatusFailed, rec.Status)
}

func TestWebhook_InvalidSignatureChangesNothing(t *testing.T) {
	st := newFakeStore()
	seedPending(t, st, "conv-1")
	h := NewWebhookHandler(st, webhookSecret)

	payload := iyzico.WebhookPayload{
		EventType:      "API_AUTH",
		PaymentID:      "12345",
		ConversationID: "conv-1",
		Status:         "SUCCESS",
	}
	req := webhookRequest(t, "iyzico", payload, "deadbeef")
	w := httptest.NewRecorder()
	h.Handle(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	rec, _ := st.GetByConversationID(context.Background(), "conv-1")
	assert.Equal(t, store.StatusPending, rec.Status, "rejected webhook must not change state")
}

func TestWebhook_MissingSignatureHeader(t *testing.T) {
	// A present header alone grants nothing; an absent one certainly not.
	st := newFakeStore()
	seedPending(t, st, "conv-1")
	h := NewWebhookHandler(st, webhookSecret)

	payload := iyzico.WebhookPayload{ConversationID: "conv-1", Status: "SUCCESS"}
	req := webhookRequest(t, "iyzico", payload, "")
	w := httptest.NewRecorder()
	h.Handle(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhook_UnknownConversationStillAcknowledged(t *testing.T) {
	st := newFakeStore()
	h := NewWebhookHandler(st, webhookSecret)

	payload := iyzico.WebhookPayload{
		EventType:      "API_AUTH",
		PaymentID:      "99999",
		ConversationID: "never-seen",
		Status:         "SUCCESS",
	}
	req := webhookRequest(t, "iyzico", payload, signPayload(payload, webhookSecret))
	w := httptest.NewRecorder()
	h.Handle(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "verified webhook is acknowledged even without a record")
	assert.Empty(t, st.records)
}

func TestWebhook_PendingCreditLeavesStatusUntouched(t *testing.T) {
	st := newFakeStore()
	seedPending(t, st, "conv-1")
	h := NewWebhookHandler(st, webhookSecret)

	payload := iyzico.WebhookPayload{
		EventType:      "BANK_TRANSFER_AUTH",
		PaymentID:      "12345",
		ConversationID: "conv-1",
		Status:         "PENDING_CREDIT",
	}
	req := webhookRequest(t, "iyzico", payload, signPayload(payload, webhookSecret))
	w := httptest.NewRecorder()
	h.Handle(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	rec, _ := st.GetByConversationID(context.Background(), "conv-1")
	assert.Equal(t, store.StatusPending, rec.Status)
}

func TestWebhook_UnknownGateway(t *testing.T) {
	h := NewWebhookHandler(newFakeStore(), webhookSecret)

	payload := iyzico.WebhookPayload{ConversationID: "conv-1", Status: "SUCCESS"}
	req := webhookRequest(t, "stripe", payload, signPayload(payload, webhookSecret))
	w := httptest.NewRecorder()
	h.Handle(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebhook_MalformedBodyRejectedBySignature(t *testing.T) {
	st := newFakeStore()
	h := NewWebhookHandler(st, webhookSecret)

	req := httptest.NewRequest(http.MethodPost, "/webhook/iyzico", bytes.NewReader([]byte("{not json")))
	req.Header.Set(SignatureHeader, "deadbeef")
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("gateway", "iyzico")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	h.Handle(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhook_StorageFailure(t *testing.T) {
	st := newFakeStore()
	seedPending(t, st, "conv-1")
	st.setErr = &store.StorageError{Op: "set status", Err: context.DeadlineExceeded}
	h := NewWebhookHandler(st, webhookSecret)

	payload := iyzico.WebhookPayload{
		EventType:      "API_AUTH",
		PaymentID:      "12345",
		ConversationID: "conv-1",
		Status:         "SUCCESS",
	}
	req := webhookRequest(t, "iyzico", payload, signPayload(payload, webhookSecret))
	w := httptest.NewRecorder()
	h.Handle(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
