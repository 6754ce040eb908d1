package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "payrelay-test.db")
	st, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NotNil(t, st)
	t.Cleanup(func() { st.Close() })
	return st
}

func pendingRecord(conversationID string) *PaymentRecord {
	return &PaymentRecord{
		ConversationID:       conversationID,
		Amount:               15.0,
		PaidAmount:           17.7,
		Currency:             "TRY",
		Status:               StatusPending,
		GatewayPaymentID:     "12345",
		GatewayTransactionID: "tx-1",
		RawResponse:          `{"status":"success"}`,
	}
}

func TestSQLiteStore_CreateAndGet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rec := pendingRecord("conv-1")
	require.NoError(t, st.CreatePayment(ctx, rec))
	assert.NotZero(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := st.GetByConversationID(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "conv-1", got.ConversationID)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, 15.0, got.Amount)
	assert.Equal(t, 17.7, got.PaidAmount)
	assert.Equal(t, "12345", got.GatewayPaymentID)
	assert.Equal(t, `{"status":"success"}`, got.RawResponse)
}

func TestSQLiteStore_GetUnknownConversation(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetByConversationID(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_DuplicateConversationID(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreatePayment(ctx, pendingRecord("conv-1")))

	err := st.CreatePayment(ctx, pendingRecord("conv-1"))
	require.Error(t, err)
	var serr *StorageError
	assert.ErrorAs(t, err, &serr)
}

func TestSQLiteStore_SetStatus(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreatePayment(ctx, pendingRecord("conv-1")))

	updated, err := st.SetStatus(ctx, "conv-1", StatusCompleted)
	require.NoError(t, err)
	assert.True(t, updated)

	got, err := st.GetByConversationID(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestSQLiteStore_SetStatusUnknownConversation(t *testing.T) {
	st := newTestStore(t)

	updated, err := st.SetStatus(context.Background(), "does-not-exist", StatusCompleted)
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestSQLiteStore_SetStatusIsLastWrite(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreatePayment(ctx, pendingRecord("conv-1")))

	// A replayed webhook lands on the same terminal state.
	for i := 0; i < 2; i++ {
		updated, err := st.SetStatus(ctx, "conv-1", StatusCompleted)
		require.NoError(t, err)
		assert.True(t, updated)
	}
	got, err := st.GetByConversationID(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	// Late conflicting notification still applies; the store keeps the
	// last write and the audit log keeps the history.
	updated, err := st.SetStatus(ctx, "conv-1", StatusFailed)
	require.NoError(t, err)
	assert.True(t, updated)

	got, err = st.GetByConversationID(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
}

func TestSQLiteStore_Ping(t *testing.T) {
	st := newTestStore(t)
	assert.NoError(t, st.Ping(context.Background()))
}

func TestNew_SQLiteDriver(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "factory.db")
	st, err := New("sqlite3", dbPath)
	require.NoError(t, err)
	defer st.Close()

	_, ok := st.(*SQLiteStore)
	assert.True(t, ok)
}
