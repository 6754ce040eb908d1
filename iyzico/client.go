package iyzico

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ecomlab/payrelay/infra/config"
)

const defaultTimeout = 10 * time.Second

// Client issues signed HTTP calls to the gateway and classifies the
// response envelope. It performs no retries: a failed call surfaces
// immediately and the caller decides what to do.
type Client struct {
	creds      config.Credentials
	scheme     SigningScheme
	httpClient *http.Client
}

// NewClient creates a gateway client. A zero timeout falls back to 10s so no
// call can block unboundedly.
func NewClient(creds config.Credentials, scheme SigningScheme, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		creds:  creds,
		scheme: scheme,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Authorize makes a non-3D payment authorization call.
func (c *Client) Authorize(ctx context.Context, req AuthRequest) (*PaymentResult, error) {
	resp, err := c.send(ctx, EndpointPayment, req)
	if err != nil {
		return nil, err
	}
	return newPaymentResult(resp), nil
}

// Detail retrieves the current state of a payment.
func (c *Client) Detail(ctx context.Context, req DetailRequest) (*PaymentResult, error) {
	resp, err := c.send(ctx, EndpointDetail, req)
	if err != nil {
		return nil, err
	}
	return newPaymentResult(resp), nil
}

// Refund refunds a single payment transaction.
func (c *Client) Refund(ctx context.Context, req RefundRequest) (*PaymentResult, error) {
	resp, err := c.send(ctx, EndpointRefund, req)
	if err != nil {
		return nil, err
	}
	return newPaymentResult(resp), nil
}

// Cancel voids a same-day payment before settlement.
func (c *Client) Cancel(ctx context.Context, req CancelRequest) (*PaymentResult, error) {
	resp, err := c.send(ctx, EndpointCancel, req)
	if err != nil {
		return nil, err
	}
	return newPaymentResult(resp), nil
}

// send marshals the body once, signs those exact bytes, posts them, and
// classifies the result: transport failure, gateway failure envelope, or
// success.
func (c *Client) send(ctx context.Context, path string, body any) (map[string]any, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("iyzico: failed to marshal request: %w", err)
	}

	nonce, err := GenerateNonce()
	if err != nil {
		return nil, err
	}

	auth, err := c.scheme.Sign(path, jsonData, nonce)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.creds.BaseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("iyzico: failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth.Authorization)
	req.Header.Set("x-iyzi-rnd", auth.RandomKey)
	req.Header.Set("x-iyzi-client-version", clientVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	var responseData map[string]any
	if err := json.Unmarshal(respBody, &responseData); err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("unparseable response: %w", err)}
	}

	if responseData["status"] == StatusFailure {
		return nil, &GatewayError{
			Code:    stringField(responseData, "errorCode"),
			Message: stringField(responseData, "errorMessage"),
		}
	}

	return responseData, nil
}
