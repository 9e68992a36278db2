package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType distinguishes what part of the booking amount a payment
// attempt covers.
type TransactionType string

const (
	TransactionDeposit      TransactionType = "deposit"
	TransactionFullPayment  TransactionType = "full_payment"
	TransactionFinalPayment TransactionType = "final_payment"
)

// PaymentMethod identifies the gateway a transaction is routed through.
type PaymentMethod string

const (
	MethodVNPay        PaymentMethod = "vnpay"
	MethodMoMo         PaymentMethod = "momo"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

// TransactionStatus represents the current state of a payment attempt
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
	TransactionCancelled TransactionStatus = "cancelled"
)

// Transaction is one payment attempt against a booking. Records are never
// deleted; they form the audit trail of the ledger.
type Transaction struct {
	ID        uuid.UUID
	Ref       string // unique, used as the gateway order id
	BookingID uuid.UUID
	Amount    int64
	Type      TransactionType
	Method    PaymentMethod
	Status    TransactionStatus

	GatewayTxnID    *string
	GatewayResponse []byte
	FailureReason   *string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
	ExpiresAt   *time.Time
}

func ValidTransactionType(t TransactionType) bool {
	switch t {
	case TransactionDeposit, TransactionFullPayment, TransactionFinalPayment:
		return true
	default:
		return false
	}
}

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodVNPay, MethodMoMo, MethodBankTransfer:
		return true
	default:
		return false
	}
}

// NewPendingTransaction allocates a payment attempt in pending status with a
// fresh reference code.
func NewPendingTransaction(bookingID uuid.UUID, txnType TransactionType, method PaymentMethod, amount int64, expiresAt time.Time, now time.Time) (*Transaction, error) {
	if amount <= 0 {
		return nil, NewValidationError("transaction amount must be positive")
	}
	if !ValidTransactionType(txnType) {
		return nil, NewValidationError("unknown transaction type: " + string(txnType))
	}
	if !ValidPaymentMethod(method) {
		return nil, NewValidationError("unknown payment method: " + string(method))
	}

	return &Transaction{
		ID:        uuid.New(),
		Ref:       NewTransactionRef(now),
		BookingID: bookingID,
		Amount:    amount,
		Type:      txnType,
		Method:    method,
		Status:    TransactionPending,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: &expiresAt,
	}, nil
}

// IsTerminal reports whether no further status transitions are legal.
func (t *Transaction) IsTerminal() bool {
	switch t.Status {
	case TransactionCompleted, TransactionFailed, TransactionCancelled:
		return true
	default:
		return false
	}
}

// Complete finalizes the transaction with the outcome reported by the
// gateway. Replayed callbacks hit the AlreadyFinalized guard and must be
// treated as a no-op by the caller.
//
// If the gateway-reported amount differs from the stored amount, the record
// transitions to failed with a mismatch reason even though the gateway
// reported success, and an AMOUNT_MISMATCH error is returned so the caller
// knows not to credit the booking.
func (t *Transaction) Complete(gatewayAmount int64, gatewayTxnID string, rawResponse []byte, now time.Time) error {
	if t.Status != TransactionPending {
		return NewAlreadyFinalizedError(t.Status)
	}

	if gatewayAmount != t.Amount {
		mismatch := NewAmountMismatchError(t.Amount, gatewayAmount)
		t.Status = TransactionFailed
		reason := mismatch.Message
		t.FailureReason = &reason
		t.GatewayResponse = rawResponse
		t.UpdatedAt = now
		return mismatch
	}

	t.Status = TransactionCompleted
	t.GatewayTxnID = &gatewayTxnID
	t.GatewayResponse = rawResponse
	t.CompletedAt = &now
	t.UpdatedAt = now
	return nil
}

// Fail records a gateway-reported or internal failure.
func (t *Transaction) Fail(reason string, rawResponse []byte, now time.Time) error {
	if t.Status != TransactionPending {
		return NewAlreadyFinalizedError(t.Status)
	}
	t.Status = TransactionFailed
	t.FailureReason = &reason
	t.GatewayResponse = rawResponse
	t.UpdatedAt = now
	return nil
}

// Cancel withdraws a payment attempt that never reached the gateway or has
// expired. Only legal while still pending.
func (t *Transaction) Cancel(reason string, now time.Time) error {
	if t.Status != TransactionPending {
		return NewInvalidStateError("only a pending transaction can be cancelled")
	}
	t.Status = TransactionCancelled
	t.FailureReason = &reason
	t.UpdatedAt = now
	return nil
}

// IsExpired reports whether the payment window has lapsed.
func (t *Transaction) IsExpired(now time.Time) bool {
	return t.Status == TransactionPending && t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}
