package worker

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/minhlq/charterdesk/internal/application"
	"github.com/minhlq/charterdesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// txnStore is an in-memory transaction ledger for exercising the sweep.
type txnStore struct {
	transactions map[string]*domain.Transaction
}

func newTxnStore() *txnStore {
	return &txnStore{transactions: make(map[string]*domain.Transaction)}
}

func (s *txnStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, repos application.TxRepos) error) error {
	return fn(ctx, application.TxRepos{Transactions: s})
}

func (s *txnStore) Create(ctx context.Context, txn *domain.Transaction) error {
	copied := *txn
	s.transactions[txn.Ref] = &copied
	return nil
}

func (s *txnStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	for _, t := range s.transactions {
		if t.ID == id {
			copied := *t
			return &copied, nil
		}
	}
	return nil, domain.NewNotFoundError("transaction", id.String())
}

func (s *txnStore) FindByRef(ctx context.Context, ref string) (*domain.Transaction, error) {
	if t, ok := s.transactions[ref]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, domain.NewNotFoundError("transaction", ref)
}

func (s *txnStore) FindByRefForUpdate(ctx context.Context, ref string) (*domain.Transaction, error) {
	return s.FindByRef(ctx, ref)
}

func (s *txnStore) HasPending(ctx context.Context, bookingID uuid.UUID, txnType domain.TransactionType) (bool, error) {
	return false, nil
}

func (s *txnStore) FindExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	for _, t := range s.transactions {
		if t.IsExpired(cutoff) {
			copied := *t
			out = append(out, &copied)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *txnStore) Update(ctx context.Context, txn *domain.Transaction) error {
	if _, ok := s.transactions[txn.Ref]; !ok {
		return domain.NewNotFoundError("transaction", txn.Ref)
	}
	copied := *txn
	s.transactions[txn.Ref] = &copied
	return nil
}

func seedTxn(t *testing.T, store *txnStore, expiresAt time.Time) *domain.Transaction {
	t.Helper()
	now := time.Now()
	txn, err := domain.NewPendingTransaction(uuid.New(), domain.TransactionDeposit, domain.MethodVNPay, 200_000, expiresAt, now)
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), txn))
	return txn
}

func TestExpiryWorkerSweep(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("cancels lapsed pending transactions", func(t *testing.T) {
		store := newTxnStore()
		expired := seedTxn(t, store, time.Now().Add(-time.Minute))
		fresh := seedTxn(t, store, time.Now().Add(15*time.Minute))

		w := NewExpiryWorker(store, time.Minute, 100, logger)
		w.sweep(context.Background())

		assert.Equal(t, domain.TransactionCancelled, store.transactions[expired.Ref].Status)
		require.NotNil(t, store.transactions[expired.Ref].FailureReason)
		assert.Equal(t, "payment window expired", *store.transactions[expired.Ref].FailureReason)

		assert.Equal(t, domain.TransactionPending, store.transactions[fresh.Ref].Status)
	})

	t.Run("leaves transactions finalized mid-sweep alone", func(t *testing.T) {
		store := newTxnStore()
		txn := seedTxn(t, store, time.Now().Add(-time.Minute))

		// A callback beat the sweep to it.
		completed := store.transactions[txn.Ref]
		require.NoError(t, completed.Complete(200_000, "VNP1", nil, time.Now()))

		w := NewExpiryWorker(store, time.Minute, 100, logger)
		w.sweep(context.Background())

		assert.Equal(t, domain.TransactionCompleted, store.transactions[txn.Ref].Status)
	})

	t.Run("respects the batch size", func(t *testing.T) {
		store := newTxnStore()
		for i := 0; i < 5; i++ {
			seedTxn(t, store, time.Now().Add(-time.Minute))
		}

		w := NewExpiryWorker(store, time.Minute, 2, logger)
		w.sweep(context.Background())

		var cancelled int
		for _, txn := range store.transactions {
			if txn.Status == domain.TransactionCancelled {
				cancelled++
			}
		}
		assert.Equal(t, 2, cancelled)
	})
}

func TestExpiryWorkerStartStopsOnContextCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newTxnStore()
	w := NewExpiryWorker(store, 10*time.Millisecond, 10, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
