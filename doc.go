// Package payrelay is a payment relay that sits between merchant storefronts
// and the iyzico payment gateway. It signs outbound gateway requests, verifies
// inbound webhook notifications, and tracks each payment through a small
// pending/completed/failed state machine.
//
// # Overview
//
// Storefronts never talk to iyzico directly. They post simple checkout bodies
// to the relay, which computes totals and VAT, fills in gateway-required
// defaults, authenticates the call with an HMAC-SHA256 signature and records
// the outcome. Asynchronous status changes arrive as signed webhooks; the
// signature is the only thing that makes a webhook trustworthy.
//
// # Architecture
//
//	┌─────────────────┐    ┌─────────────────┐    ┌─────────────────┐
//	│                 │    │                 │    │                 │
//	│   Storefronts   │◄──►│    payrelay     │◄──►│     iyzico      │
//	│                 │    │                 │    │                 │
//	└─────────────────┘    └─────────────────┘    └─────────────────┘
//	                              │
//	                              ▼
//	                       payment store
//	                    (PostgreSQL/SQLite)
//
// # HTTP Surface
//
//	POST /payment            authorize a checkout
//	GET  /payment            query payment detail
//	POST /payment/refund     refund a payment transaction
//	POST /payment/cancel     cancel a same-day payment
//	POST /webhook/{gateway}  receive gateway notifications
//	GET  /health             liveness and dependency status
//	GET  /logs               audit trail of a conversation
//	GET  /logs/errors        recent failed operations
//
// # Configuration
//
// Credentials and behavior come from the environment (a local .env file is
// honored for development):
//
//	IYZICO_API_KEY      gateway API key (required)
//	IYZICO_SECRET_KEY   gateway secret key (required)
//	IYZICO_BASE_URL     gateway base URL, defaults to the sandbox
//	IYZICO_AUTH_SCHEME  "v2" (default) or "legacy"
//	DB_DRIVER           "postgres" (default) or "sqlite3"
//	DATABASE_URL        connection string or SQLite path
//
// The service refuses to start when either credential is missing.
package payrelay
