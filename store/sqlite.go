package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is the single-node order store backend, used for local
// development and small deployments without a PostgreSQL instance.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS payments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id TEXT NOT NULL UNIQUE,
	amount REAL NOT NULL,
	paid_amount REAL NOT NULL,
	currency TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	gateway_payment_id TEXT NOT NULL DEFAULT '',
	gateway_transaction_id TEXT NOT NULL DEFAULT '',
	raw_response TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status);
`

// NewSQLiteStore opens a SQLite-backed store in WAL mode and ensures the
// schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && !strings.HasPrefix(dbPath, ":memory:") {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("store: failed to create directory %s: %w", dir, err)
		}
	}

	connStr := dbPath
	if !strings.Contains(dbPath, "?") {
		connStr = dbPath + "?_journal_mode=WAL&_synchronous=NORMAL&_timeout=20000"
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("store: failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

// retryOperation retries an operation that failed with SQLITE_BUSY, with
// exponential backoff.
func (s *SQLiteStore) retryOperation(operation func() error, maxRetries int) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		if strings.Contains(err.Error(), "SQLITE_BUSY") || strings.Contains(err.Error(), "database is locked") {
			lastErr = err
			if attempt < maxRetries {
				backoff := time.Duration(10*(1<<attempt)) * time.Millisecond
				time.Sleep(backoff)
				continue
			}
		} else {
			return err
		}
	}
	return fmt.Errorf("operation failed after %d retries, last error: %w", maxRetries+1, lastErr)
}

func (s *SQLiteStore) CreatePayment(ctx context.Context, rec *PaymentRecord) error {
	now := time.Now().UTC()
	err := s.retryOperation(func() error {
		result, err := s.db.ExecContext(ctx, `
			INSERT INTO payments (conversation_id, amount, paid_amount, currency, status,
				gateway_payment_id, gateway_transaction_id, raw_response, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ConversationID, rec.Amount, rec.PaidAmount, rec.Currency, rec.Status,
			rec.GatewayPaymentID, rec.GatewayTransactionID, rec.RawResponse, now, now,
		)
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		rec.ID = id
		rec.CreatedAt = now
		rec.UpdatedAt = now
		return nil
	}, 3)
	if err != nil {
		return &StorageError{Op: "create payment", Err: err}
	}
	return nil
}

func (s *SQLiteStore) GetByConversationID(ctx context.Context, conversationID string) (*PaymentRecord, error) {
	rec := &PaymentRecord{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, conversation_id, amount, paid_amount, currency, status,
			gateway_payment_id, gateway_transaction_id, raw_response, created_at, updated_at
		FROM payments
		WHERE conversation_id = ?`, conversationID,
	).Scan(
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

func (s *SQLiteStore) SetStatus(ctx context.Context, conversationID string, status Status) (bool, error) {
	var affected int64
	err := s.retryOperation(func() error {
		result, err := s.db.ExecContext(ctx,
			`UPDATE payments SET status = ?, updated_at = ? WHERE conversation_id = ?`,
			status, time.Now().UTC(), conversationID,
		)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	}, 3)
	if err != nil {
		return false, &StorageError{Op: "set status", Err: err}
	}
	return affected > 0, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
