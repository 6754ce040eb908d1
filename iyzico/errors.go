package iyzico

import (
	"errors"
	"fmt"
)

// ErrSignatureInvalid is returned when a webhook payload fails verification.
var ErrSignatureInvalid = errors.New("iyzico: webhook signature mismatch")

// ValidationError reports a missing or malformed request field. The message
// enumerates the offending fields so the surface can return it verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// GatewayError is the upstream failure envelope: the gateway answered, but
// with status "failure" and its own error code and message.
type GatewayError struct {
	Code    string
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("iyzico: gateway failure %s: %s", e.Code, e.Message)
}

// NetworkError wraps a transport failure where no usable response arrived.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("iyzico: request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
