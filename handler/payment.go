package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ecomlab/payrelay/infra/config"
	"github.com/ecomlab/payrelay/infra/logger"
	"github.com/ecomlab/payrelay/infra/opensearch"
	"github.com/ecomlab/payrelay/infra/response"
	"github.com/ecomlab/payrelay/iyzico"
	"github.com/ecomlab/payrelay/store"
)

const vatRate = 0.18

// GatewayClient is the gateway surface the handlers need. *iyzico.Client
// satisfies it; tests swap in a fake.
type GatewayClient interface {
	Authorize(ctx context.Context, req iyzico.AuthRequest) (*iyzico.PaymentResult, error)
	Detail(ctx context.Context, req iyzico.DetailRequest) (*iyzico.PaymentResult, error)
	Refund(ctx context.Context, req iyzico.RefundRequest) (*iyzico.PaymentResult, error)
	Cancel(ctx context.Context, req iyzico.CancelRequest) (*iyzico.PaymentResult, error)
}

// PaymentHandler serves the storefront-facing payment operations.
type PaymentHandler struct {
	gateway  GatewayClient
	store    store.Store
	validate *validator.Validate
	cfg      *config.AppConfig
	audit    *opensearch.Logger
}

// NewPaymentHandler creates a payment handler. audit may be nil when
// OpenSearch logging is disabled.
func NewPaymentHandler(gateway GatewayClient, st store.Store, cfg *config.AppConfig, audit *opensearch.Logger) *PaymentHandler {
	return &PaymentHandler{
		gateway:  gateway,
		store:    st,
		validate: newValidator(),
		cfg:      cfg,
		audit:    audit,
	}
}

// newValidator builds a validator that reports field names from json tags so
// error messages match the wire casing.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// missingFieldsMessage turns validator errors into a single "a, b and c are
// required" message.
func missingFieldsMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		names = append(names, fe.Field())
	}
	if len(names) == 1 {
		return names[0] + " is required"
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1] + " are required"
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// writeGatewayError maps the gateway error taxonomy onto HTTP responses.
func writeGatewayError(w http.ResponseWriter, err error) {
	var gwErr *iyzico.GatewayError
	var netErr *iyzico.NetworkError
	var valErr *iyzico.ValidationError
	switch {
	case errors.As(err, &gwErr):
		response.GatewayFailure(w, http.StatusBadRequest, gwErr.Code, gwErr.Message)
	case errors.As(err, &netErr):
		response.Error(w, http.StatusBadGateway, "Payment gateway unreachable", err)
	case errors.As(err, &valErr):
		response.Error(w, http.StatusBadRequest, "Validation error", err)
	default:
		response.Error(w, http.StatusInternalServerError, "Payment processing failed", err)
	}
}

// newAuditEntry assembles a payment audit entry. Request and response bodies
// go through SanitizeForLog before anything reaches the index.
func newAuditEntry(r *http.Request, operation, endpoint, conversationID string, reqBody []byte, result *iyzico.PaymentResult, opErr error, started time.Time) opensearch.PaymentLog {
	entry := opensearch.PaymentLog{
		Timestamp:      time.Now(),
		Operation:      operation,
		Endpoint:       endpoint,
		RequestID:      middleware.GetReqID(r.Context()),
		ConversationID: conversationID,
		ClientIP:       r.RemoteAddr,
		Response: opensearch.ResponseLog{
			ProcessingTimeMs: time.Since(started).Milliseconds(),
		},
	}
	if len(reqBody) > 0 {
		entry.Request = opensearch.RequestLog{
			Body: opensearch.SanitizeForLog(string(reqBody)),
		}
	}
	if result != nil {
		entry.Response.StatusCode = http.StatusOK
		if raw, err := json.Marshal(result.Raw); err == nil {
			entry.Response.Body = opensearch.SanitizeForLog(string(raw))
		}
		entry.PaymentInfo = opensearch.PaymentInfo{
			PaymentID: result.PaymentID,
			Status:    result.Status,
		}
	}
	if opErr != nil {
		entry.Response.StatusCode = http.StatusBadRequest
		entry.Error = opensearch.ErrorInfo{Message: opErr.Error()}
		var gwErr *iyzico.GatewayError
		if errors.As(opErr, &gwErr) {
			entry.Error.Code = gwErr.Code
		}
	}
	return entry
}

// logAudit sends a payment event to OpenSearch without blocking the response.
func (h *PaymentHandler) logAudit(r *http.Request, operation, endpoint, conversationID string, reqBody []byte, result *iyzico.PaymentResult, opErr error, started time.Time) {
	if h.audit == nil {
		return
	}
	entry := newAuditEntry(r, operation, endpoint, conversationID, reqBody, result, opErr, started)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.audit.LogPaymentEvent(ctx, entry); err != nil {
			logger.Warn("failed to index payment log", logger.LogContext{
				ConversationID: conversationID,
				Fields:         map[string]any{"error": err.Error()},
			})
		}
	}()
}

// CreatePayment relays a storefront checkout to the gateway, persists a
// pending record and returns the trimmed authorization result.
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}
	var req iyzico.CreatePaymentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := req.Validate(); err != nil {
		response.Error(w, http.StatusBadRequest, "Validation error", err)
		return
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	}
	basketID := req.BasketID
	if basketID == "" {
		basketID = uuid.New().String()
	}

	total := req.TotalPrice()
	vat := round2(total * vatRate)
	paidPrice := round2(total + vat)

	authReq := iyzico.BuildAuthRequest(req, iyzico.AuthOptions{
		ConversationID:         conversationID,
		BasketID:               basketID,
		Price:                  iyzico.FormatPrice(total),
		PaidPrice:              iyzico.FormatPrice(paidPrice),
		FallbackIP:             h.cfg.FallbackClientIP,
		FallbackIdentityNumber: h.cfg.FallbackIdentity,
	})

	result, err := h.gateway.Authorize(ctx, authReq)
	h.logAudit(r, "authorize", iyzico.EndpointPayment, conversationID, body, result, err, started)
	if err != nil {
		logger.Warn("payment authorization failed", logger.LogContext{
			ConversationID: conversationID,
			Fields:         map[string]any{"error": err.Error()},
		})
		writeGatewayError(w, err)
		return
	}

	raw, _ := json.Marshal(result.Raw)
	rec := &store.PaymentRecord{
		ConversationID:       conversationID,
		Amount:               total,
		PaidAmount:           paidPrice,
		Currency:             req.Currency,
		Status:               store.StatusPending,
		GatewayPaymentID:     result.PaymentID,
		GatewayTransactionID: result.TransactionID,
		RawResponse:          string(raw),
	}
	if err := h.store.CreatePayment(ctx, rec); err != nil {
		// The charge already went through at the gateway. Surface the
		// storage failure instead of hiding it; reconciliation happens
		// out of band from the audit log.
		logger.Error("failed to persist authorized payment", err, logger.LogContext{
			ConversationID: conversationID,
			Fields:         map[string]any{"paymentId": result.PaymentID},
		})
		response.Error(w, http.StatusInternalServerError, "Payment authorized but could not be recorded", err)
		return
	}

	logger.Info("payment authorized", logger.LogContext{
		ConversationID: conversationID,
		Fields: map[string]any{
			"paymentId": result.PaymentID,
			"paidPrice": paidPrice,
		},
	})

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"status":           result.Status,
		"conversationId":   conversationID,
		"price":            total,
		"paidPrice":        paidPrice,
		"installment":      req.Installment,
		"paymentId":        result.PaymentID,
		"itemTransactions": result.ItemTransactions,
	})
}

// GetPayment forwards a payment detail query to the gateway.
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	q := r.URL.Query()
	paymentID := q.Get("paymentId")
	conversationID := q.Get("conversationId")
	if paymentID == "" || conversationID == "" {
		response.Error(w, http.StatusBadRequest, "Validation error",
			&iyzico.ValidationError{Message: "paymentId and conversationId are required"})
		return
	}
	ip := q.Get("ip")
	if ip == "" {
		ip = h.cfg.FallbackClientIP
	}
	locale := q.Get("locale")
	if locale == "" {
		locale = iyzico.DefaultLocale
	}

	result, err := h.gateway.Detail(ctx, iyzico.DetailRequest{
		Locale:                locale,
		ConversationID:        conversationID,
		PaymentID:             paymentID,
		PaymentConversationID: conversationID,
		IP:                    ip,
	})
	h.logAudit(r, "detail", iyzico.EndpointDetail, conversationID, nil, result, err, started)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, result.Raw)
}

type refundParams struct {
	PaymentTransactionID string  `json:"paymentTransactionId" validate:"required"`
	Price                float64 `json:"price" validate:"required,gt=0"`
	ConversationID       string  `json:"conversationId" validate:"required"`
	Locale               string  `json:"locale"`
	IP                   string  `json:"ip"`
}

// RefundPayment relays a transaction-level refund to the gateway.
func (h *PaymentHandler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}
	var params refundParams
	if err := json.Unmarshal(body, &params); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := h.validate.Struct(params); err != nil {
		response.Error(w, http.StatusBadRequest, "Validation error",
			&iyzico.ValidationError{Message: missingFieldsMessage(err)})
		return
	}
	if params.Locale == "" {
		params.Locale = iyzico.DefaultLocale
	}
	if params.IP == "" {
		params.IP = h.cfg.FallbackClientIP
	}

	result, err := h.gateway.Refund(ctx, iyzico.RefundRequest{
		Locale:               params.Locale,
		ConversationID:       params.ConversationID,
		PaymentTransactionID: params.PaymentTransactionID,
		Price:                iyzico.FormatPrice(params.Price),
		IP:                   params.IP,
	})
	h.logAudit(r, "refund", iyzico.EndpointRefund, params.ConversationID, body, result, err, started)
	if err != nil {
		writeGatewayError(w, err)
		return
	}

	logger.Info("payment refunded", logger.LogContext{
		ConversationID: params.ConversationID,
		Fields:         map[string]any{"paymentTransactionId": params.PaymentTransactionID},
	})
	response.WriteJSON(w, http.StatusOK, result.Raw)
}

type cancelParams struct {
	PaymentID      string `json:"paymentId" validate:"required"`
	ConversationID string `json:"conversationId" validate:"required"`
	Locale         string `json:"locale"`
	IP             string `json:"ip"`
}

// CancelPayment relays a full-payment cancellation to the gateway.
func (h *PaymentHandler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}
	var params cancelParams
	if err := json.Unmarshal(body, &params); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := h.validate.Struct(params); err != nil {
		response.Error(w, http.StatusBadRequest, "Validation error",
			&iyzico.ValidationError{Message: missingFieldsMessage(err)})
		return
	}
	if params.Locale == "" {
		params.Locale = iyzico.DefaultLocale
	}
	if params.IP == "" {
		params.IP = h.cfg.FallbackClientIP
	}

	result, err := h.gateway.Cancel(ctx, iyzico.CancelRequest{
		Locale:         params.Locale,
		ConversationID: params.ConversationID,
		PaymentID:      params.PaymentID,
		IP:             params.IP,
	})
	h.logAudit(r, "cancel", iyzico.EndpointCancel, params.ConversationID, body, result, err, started)
	if err != nil {
		writeGatewayError(w, err)
		return
	}

	logger.Info("payment cancelled", logger.LogContext{
		ConversationID: params.ConversationID,
		Fields:         map[string]any{"paymentId": params.PaymentID},
	})
	response.WriteJSON(w, http.StatusOK, result.Raw)
}
