package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of a payment record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Webhook event statuses as the gateway reports them.
const (
	EventSuccess       = "SUCCESS"
	EventFailure       = "FAILURE"
	EventPendingCredit = "PENDING_CREDIT"
)

// ErrNotFound is returned when no record exists for a conversation ID.
var ErrNotFound = errors.New("store: payment not found")

// StorageError wraps a database failure so the surface can map it to a 500
// without inspecting driver errors.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NextStatus maps a verified webhook event status to the record status it
// sets. The second return is false for events that leave the record alone:
// PENDING_CREDIT is acknowledged but does not move the two-state terminal
// model. Unrecognized terminal statuses count as failed. The transition is
// last-write, so redelivery of the same event is a safe no-op re-application.
func NextStatus(eventStatus string) (Status, bool) {
	switch eventStatus {
	case EventSuccess:
		return StatusCompleted, true
	case EventPendingCredit:
		return "", false
	default:
		return StatusFailed, true
	}
}

// PaymentRecord is the persisted state of a relayed payment, keyed by the
// conversation ID that links the authorization to its webhook.
type PaymentRecord struct {
	ID                   int64
	ConversationID       string
	Amount               float64
	PaidAmount           float64
	Currency             string
	Status               Status
	GatewayPaymentID     string
	GatewayTransactionID string
	RawResponse          string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Store persists payment records. Implementations rely on the database's
// atomic single-row UPDATE for isolation; status transitions are last-write,
// so no extra locking is needed.
type Store interface {
	CreatePayment(ctx context.Context, rec *PaymentRecord) error
	GetByConversationID(ctx context.Context, conversationID string) (*PaymentRecord, error)
	SetStatus(ctx context.Context, conversationID string, status Status) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// New opens a store for the configured driver.
func New(driver, dsn string) (Store, error) {
	switch driver {
	case "postgres":
		return NewPostgresStore(dsn)
	case "sqlite3":
		return NewSQLiteStore(dsn)
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}
}
