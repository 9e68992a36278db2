package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/minhlq/charterdesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingTxn(t *testing.T, amount int64) *domain.Transaction {
	t.Helper()
	now := time.Now()
	txn, err := domain.NewPendingTransaction(uuid.New(), domain.TransactionDeposit, domain.MethodVNPay, amount, now.Add(15*time.Minute), now)
	require.NoError(t, err)
	return txn
}

func TestNewPendingTransaction(t *testing.T) {
	now := time.Now()

	t.Run("creates pending transaction", func(t *testing.T) {
		txn := newPendingTxn(t, 200_000)

		assert.Equal(t, domain.TransactionPending, txn.Status)
		assert.Equal(t, int64(200_000), txn.Amount)
		assert.NotEmpty(t, txn.Ref)
		require.NotNil(t, txn.ExpiresAt)
		assert.False(t, txn.IsTerminal())
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := domain.NewPendingTransaction(uuid.New(), domain.TransactionDeposit, domain.MethodVNPay, 0, now, now)
		assert.Error(t, err)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := domain.NewPendingTransaction(uuid.New(), "refund", domain.MethodVNPay, 100, now, now)
		assert.Error(t, err)
	})

	t.Run("rejects unknown method", func(t *testing.T) {
		_, err := domain.NewPendingTransaction(uuid.New(), domain.TransactionDeposit, "paypal", 100, now, now)
		assert.Error(t, err)
	})
}

func TestTransactionComplete(t *testing.T) {
	now := time.Now()

	t.Run("completes with matching amount", func(t *testing.T) {
		txn := newPendingTxn(t, 200_000)

		err := txn.Complete(200_000, "VNP123456", []byte(`{"vnp_ResponseCode":"00"}`), now)

		require.NoError(t, err)
		assert.Equal(t, domain.TransactionCompleted, txn.Status)
		require.NotNil(t, txn.GatewayTxnID)
		assert.Equal(t, "VNP123456", *txn.GatewayTxnID)
		require.NotNil(t, txn.CompletedAt)
		assert.True(t, txn.IsTerminal())
	})

	t.Run("amount mismatch fails the transaction", func(t *testing.T) {
		txn := newPendingTxn(t, 200_000)

		err := txn.Complete(150_000, "VNP123456", []byte(`{}`), now)

		require.Error(t, err)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeAmountMismatch, domainErr.Code)

		assert.Equal(t, domain.TransactionFailed, txn.Status)
		require.NotNil(t, txn.FailureReason)
		assert.Contains(t, *txn.FailureReason, "200000")
		assert.Contains(t, *txn.FailureReason, "150000")
		assert.Nil(t, txn.CompletedAt)
	})

	t.Run("rejects a finalized transaction", func(t *testing.T) {
		txn := newPendingTxn(t, 200_000)
		require.NoError(t, txn.Complete(200_000, "VNP1", []byte(`{}`), now))

		err := txn.Complete(200_000, "VNP2", []byte(`{}`), now)

		require.Error(t, err)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeAlreadyFinalized, domainErr.Code)
		assert.Equal(t, "VNP1", *txn.GatewayTxnID)
	})
}

func TestTransactionFail(t *testing.T) {
	now := time.Now()

	t.Run("records the failure reason", func(t *testing.T) {
		txn := newPendingTxn(t, 200_000)

		require.NoError(t, txn.Fail("vnpay response code 24", []byte(`{"vnp_ResponseCode":"24"}`), now))
		assert.Equal(t, domain.TransactionFailed, txn.Status)
		require.NotNil(t, txn.FailureReason)
		assert.Equal(t, "vnpay response code 24", *txn.FailureReason)
	})

	t.Run("rejects a finalized transaction", func(t *testing.T) {
		txn := newPendingTxn(t, 200_000)
		require.NoError(t, txn.Fail("first", nil, now))

		assert.Error(t, txn.Fail("second", nil, now))
		assert.Equal(t, "first", *txn.FailureReason)
	})
}

func TestTransactionCancel(t *testing.T) {
	now := time.Now()

	t.Run("cancels a pending transaction", func(t *testing.T) {
		txn := newPendingTxn(t, 200_000)

		require.NoError(t, txn.Cancel("payment window expired", now))
		assert.Equal(t, domain.TransactionCancelled, txn.Status)
	})

	t.Run("rejects a completed transaction", func(t *testing.T) {
		txn := newPendingTxn(t, 200_000)
		require.NoError(t, txn.Complete(200_000, "VNP1", nil, now))

		assert.Error(t, txn.Cancel("too late", now))
		assert.Equal(t, domain.TransactionCompleted, txn.Status)
	})
}

func TestTransactionIsExpired(t *testing.T) {
	now := time.Now()
	txn := newPendingTxn(t, 200_000)

	assert.False(t, txn.IsExpired(now))
	assert.True(t, txn.IsExpired(now.Add(16*time.Minute)))

	require.NoError(t, txn.Complete(200_000, "VNP1", nil, now))
	assert.False(t, txn.IsExpired(now.Add(16*time.Minute)))
}
