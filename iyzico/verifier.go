package iyzico

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// WebhookPayload is the notification body the gateway posts back. It is
// untrusted until VerifyWebhook confirms the signature; absent fields simply
// decode to empty strings, which makes verification fail closed.
type WebhookPayload struct {
	EventType      string `json:"eventType"`
	PaymentID      string `json:"paymentId"`
	ConversationID string `json:"conversationId"`
	Status         string `json:"status"`
}

// VerifyWebhook recomputes the webhook signature from the payload and secret
// key and compares it to the provided one in constant time. It never fails
// with an error: a malformed payload just produces a non-matching digest.
func VerifyWebhook(p WebhookPayload, providedSignature, secretKey string) bool {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(secretKey))
	mac.Write([]byte(p.EventType))
	mac.Write([]byte(p.PaymentID))
	mac.Write([]byte(p.ConversationID))
	mac.Write([]byte(p.Status))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(providedSignature))
}
