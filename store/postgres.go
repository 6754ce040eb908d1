package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore is the production order store backend.
type PostgresStore struct {
	db *sql.DB
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS payments (
	id BIGSERIAL PRIMARY KEY,
	conversation_id TEXT NOT NULL UNIQUE,
	amount NUMERIC(12,2) NOT NULL,
	paid_amount NUMERIC(12,2) NOT NULL,
	currency TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	gateway_payment_id TEXT NOT NULL DEFAULT '',
	gateway_transaction_id TEXT NOT NULL DEFAULT '',
	raw_response TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status);
`

// NewPostgresStore opens a PostgreSQL-backed store and ensures the schema.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: failed to ping database: %w", err)
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: failed to initialize schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) CreatePayment(ctx context.Context, rec *PaymentRecord) error {
	query := `
		INSERT INTO payments (conversation_id, amount, paid_amount, currency, status,
			gateway_payment_id, gateway_transaction_id, raw_response, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		rec.ConversationID, rec.Amount, rec.PaidAmount, rec.Currency, rec.Status,
		rec.GatewayPaymentID, rec.GatewayTransactionID, rec.RawResponse,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return &StorageError{Op: "create payment", Err: err}
	}
	return nil
}

func (s *PostgresStore) GetByConversationID(ctx context.Context, conversationID string) (*PaymentRecord, error) {
	query := `
		SELECT id, conversation_id, amount, paid_amount, currency, status,
			gateway_payment_id, gateway_transaction_id, raw_response, created_at, updated_at
		FROM payments
		WHERE conversation_id = $1
	`
	rec := &PaymentRecord{}
	err := s.db.QueryRowContext(ctx, query, conversationID).Scan(
		&rec.ID, &rec.ConversationID, &rec.Amount, &rec.PaidAmount, &rec.Currency, &rec.Status,
		&rec.GatewayPaymentID, &rec.GatewayTransactionID, &rec.RawResponse, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "get payment", Err: err}
	}
	return rec, nil
}

// SetStatus applies a last-write status update. It reports false when no
// record matches the conversation ID.
func (s *PostgresStore) SetStatus(ctx context.Context, conversationID string, status Status) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE payments SET status = $1, updated_at = NOW() WHERE conversation_id = $2`,
		status, conversationID,
	)
	if err != nil {
		return false, &StorageError{Op: "set status", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, &StorageError{Op: "set status", Err: err}
	}
	return affected > 0, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
