package iyzico

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/ecomlab/payrelay/infra/config"
)

const (
	// Signing scheme names, selected via IYZICO_AUTH_SCHEME
	SchemeV2     = "v2"
	SchemeLegacy = "legacy"

	clientVersion = "payrelay-go-1.0"
)

// Auth carries the headers a signed request must attach.
type Auth struct {
	Authorization string
	RandomKey     string
}

// SigningScheme builds the authorization header for an outbound gateway call.
// Implementations are pure: for fixed credentials, path, body and nonce the
// output is byte-for-byte reproducible.
type SigningScheme interface {
	Name() string
	Sign(path string, body []byte, nonce string) (Auth, error)
}

// NewSigningScheme returns the scheme selected by name. The two schemes are
// never merged; the gateway contract decides which one a deployment uses.
func NewSigningScheme(name string, creds config.Credentials) (SigningScheme, error) {
	switch name {
	case SchemeV2, "":
		return &v2Signer{creds: creds}, nil
	case SchemeLegacy:
		return &legacySigner{creds: creds, now: time.Now}, nil
	default:
		return nil, fmt.Errorf("iyzico: unknown signing scheme %q", name)
	}
}

// GenerateNonce returns a fresh 8-byte random token rendered as hex.
func GenerateNonce() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("iyzico: nonce generation failed: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// v2Signer implements the gateway's v2 scheme: the HMAC-SHA256 digest of
// nonce||path||body is rendered as lowercase hex, wrapped into an
// apiKey/randomKey/signature string and base64-encoded under an IYZWSv2 prefix.
type v2Signer struct {
	creds config.Credentials
}

func (s *v2Signer) Name() string { return SchemeV2 }

func (s *v2Signer) Sign(path string, body []byte, nonce string) (Auth, error) {
	if path == "" {
		return Auth{}, &ValidationError{Message: "path is required for signing"}
	}
	if nonce == "" {
		return Auth{}, &ValidationError{Message: "nonce is required for signing"}
	}
	if len(body) == 0 {
		body = []byte("{}")
	}

	mac := hmac.New(sha256.New, []byte(s.creds.SecretKey))
	mac.Write([]byte(nonce))
	mac.Write([]byte(path))
	mac.Write(body)
	digest := hex.EncodeToString(mac.Sum(nil))

	authStr := "apiKey:" + s.creds.APIKey + "&randomKey:" + nonce + "&signature:" + digest
	return Auth{
		Authorization: "IYZWSv2 " + base64.StdEncoding.EncodeToString([]byte(authStr)),
		RandomKey:     nonce,
	}, nil
}

// legacySigner implements the older IYZWS scheme: HMAC-SHA256 over
// apiKey||nonce||timestamp||body, base64-encoded into "IYZWS apiKey:digest".
// The timestamp is part of the signed payload, so the clock is injectable
// for reproducibility in tests.
type legacySigner struct {
	creds config.Credentials
	now   func() time.Time
}

func (s *legacySigner) Name() string { return SchemeLegacy }

func (s *legacySigner) Sign(path string, body []byte, nonce string) (Auth, error) {
	if path == "" {
		return Auth{}, &ValidationError{Message: "path is required for signing"}
	}
	if nonce == "" {
		return Auth{}, &ValidationError{Message: "nonce is required for signing"}
	}
	if len(body) == 0 {
		body = []byte("{}")
	}

	timestamp := strconv.FormatInt(s.now().UnixMilli(), 10)

	mac := hmac.New(sha256.New, []byte(s.creds.SecretKey))
	mac.Write([]byte(s.creds.APIKey))
	mac.Write([]byte(nonce))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	digest := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return Auth{
		Authorization: "IYZWS " + s.creds.APIKey + ":" + digest,
		RandomKey:     nonce,
	}, nil
}
