package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/minhlq/charterdesk/internal/application"
	"github.com/minhlq/charterdesk/internal/domain"
)

// ReconcileOutcome classifies what a callback did to the ledger.
type ReconcileOutcome string

const (
	OutcomeCompleted      ReconcileOutcome = "completed"
	OutcomeDuplicate      ReconcileOutcome = "duplicate"
	OutcomeFailed         ReconcileOutcome = "failed"
	OutcomeAmountMismatch ReconcileOutcome = "amount_mismatch"
)

// ReconcileResult is returned to the callback handler so it can build the
// provider-specific acknowledgment.
type ReconcileResult struct {
	Outcome          ReconcileOutcome
	Transaction      *domain.Transaction
	Booking          *domain.Booking
	Invoice          *domain.Invoice
	BookingConfirmed bool
}

// ReconcileService atomically brings Transaction, Booking and Invoice into a
// consistent state when a gateway reports a payment outcome.
type ReconcileService struct {
	uow      application.UnitOfWork
	gateways application.GatewayRegistry
	notifier application.Notifier
	logger   *slog.Logger
}

func NewReconcileService(
	uow application.UnitOfWork,
	gateways application.GatewayRegistry,
	notifier application.Notifier,
	logger *slog.Logger,
) *ReconcileService {
	return &ReconcileService{
		uow:      uow,
		gateways: gateways,
		notifier: notifier,
		logger:   logger,
	}
}

// ProcessCallback handles a raw gateway IPN. The signature is verified
// before any state is looked up; an unverifiable payload is rejected
// outright.
func (s *ReconcileService) ProcessCallback(ctx context.Context, method domain.PaymentMethod, raw []byte) (*ReconcileResult, error) {
	adapter, ok := s.gateways.Adapter(method)
	if !ok {
		return nil, domain.NewValidationError("unsupported payment method: " + string(method))
	}
	if !adapter.VerifySignature(raw) {
		s.logger.Warn("rejected callback with invalid signature", "method", method)
		return nil, domain.NewAuthorizationError("gateway signature verification failed")
	}

	callback, err := adapter.ParseCallback(raw)
	if err != nil {
		return nil, domain.NewValidationError("malformed gateway callback: " + err.Error())
	}

	return s.reconcile(ctx, callback, raw)
}

// SimulateSuccess drives the workflow with a synthetic successful callback
// for a pending transaction. Test environments only; the handler is not
// registered in production.
func (s *ReconcileService) SimulateSuccess(ctx context.Context, principal application.Principal, ref string) (*ReconcileResult, error) {
	if !principal.IsStaff() {
		return nil, domain.NewAuthorizationError("only staff can simulate payments")
	}

	var amount int64
	err := s.uow.WithTransaction(ctx, func(ctx context.Context, repos application.TxRepos) error {
		txn, err := repos.Transactions.FindByRef(ctx, ref)
		if err != nil {
			return err
		}
		amount = txn.Amount
		return nil
	})
	if err != nil {
		return nil, err
	}

	callback := &application.CallbackResult{
		ReferenceCode: ref,
		GatewayAmount: amount,
		Success:       true,
		GatewayTxnID:  "SIM-" + ref,
	}
	return s.reconcile(ctx, callback, []byte(`{"simulated":true}`))
}

// reconcile is the state machine per callback. Every write happens inside
// one unit of work: transaction finalization, booking bookkeeping, room
// materialization and invoice creation commit together or not at all. A
// failure aborts the whole unit and the gateway's retry re-drives from the
// lookup, which will find the transaction still pending.
func (s *ReconcileService) reconcile(ctx context.Context, callback *application.CallbackResult, raw []byte) (*ReconcileResult, error) {
	result := &ReconcileResult{}

	err := s.uow.WithTransaction(ctx, func(ctx context.Context, repos application.TxRepos) error {
		txn, err := repos.Transactions.FindByRefForUpdate(ctx, callback.ReferenceCode)
		if err != nil {
			return err
		}
		result.Transaction = txn

		// Duplicate delivery of a finalized outcome is acknowledged without
		// reprocessing. The row lock plus this guard is the concurrency
		// control: two callbacks for the same transaction cannot both
		// observe pending.
		if txn.IsTerminal() {
			result.Outcome = OutcomeDuplicate
			return nil
		}

		now := time.Now()

		if callback.GatewayAmount != txn.Amount {
			reason := domain.NewAmountMismatchError(txn.Amount, callback.GatewayAmount).Message
			if err := txn.Fail(reason, raw, now); err != nil {
				return err
			}
			result.Outcome = OutcomeAmountMismatch
			return repos.Transactions.Update(ctx, txn)
		}

		if !callback.Success {
			reason := callback.FailureReason
			if reason == "" {
				reason = "gateway reported failure"
			}
			if err := txn.Fail(reason, raw, now); err != nil {
				return err
			}
			result.Outcome = OutcomeFailed
			return repos.Transactions.Update(ctx, txn)
		}

		if err := txn.Complete(callback.GatewayAmount, callback.GatewayTxnID, raw, now); err != nil {
			return err
		}
		if err := repos.Transactions.Update(ctx, txn); err != nil {
			return err
		}

		booking, err := repos.Bookings.FindByIDForUpdate(ctx, txn.BookingID)
		if err != nil {
			return err
		}
		result.Booking = booking

		if err := booking.ApplyPayment(txn.Amount, txn.Type, now); err != nil {
			return err
		}
		if booking.ConfirmIfEligible(domain.NewConfirmationCode(now), now) {
			result.BookingConfirmed = true
			if _, err := repos.Reservations.MaterializeRooms(ctx, booking); err != nil {
				return err
			}
		}
		if err := repos.Bookings.Update(ctx, booking); err != nil {
			return err
		}

		invoice, err := generateInvoice(ctx, repos, booking, txn, now)
		if err != nil {
			return err
		}
		result.Invoice = invoice
		result.Outcome = OutcomeCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logResult(callback, result)

	if result.Outcome == OutcomeCompleted && result.BookingConfirmed {
		s.notifyConfirmed(result.Booking, result.Invoice)
	}
	return result, nil
}

func (s *ReconcileService) logResult(callback *application.CallbackResult, result *ReconcileResult) {
	switch result.Outcome {
	case OutcomeCompleted:
		s.logger.Info("payment reconciled",
			"transaction_ref", callback.ReferenceCode,
			"amount", callback.GatewayAmount,
			"booking_confirmed", result.BookingConfirmed,
			"invoice_number", result.Invoice.Number,
		)
	case OutcomeDuplicate:
		s.logger.Info("duplicate callback ignored",
			"transaction_ref", callback.ReferenceCode,
			"status", result.Transaction.Status,
		)
	default:
		s.logger.Warn("payment attempt failed",
			"transaction_ref", callback.ReferenceCode,
			"outcome", result.Outcome,
			"reason", derefString(result.Transaction.FailureReason),
		)
	}
}

// notifyConfirmed is fire-and-forget: a notification failure must never roll
// back, or even delay, the reconciliation.
func (s *ReconcileService) notifyConfirmed(booking *domain.Booking, invoice *domain.Invoice) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.BookingConfirmed(ctx, booking, invoice); err != nil {
			s.logger.Error("confirmation notification failed",
				"booking_code", booking.Code,
				"error", err,
			)
		}
	}()
}

// generateInvoice builds and persists the invoice for a completed
// transaction inside the caller's unit of work. It performs no duplicate
// check; the workflow's pending-only guard prevents double invocation.
func generateInvoice(ctx context.Context, repos application.TxRepos, booking *domain.Booking, txn *domain.Transaction, now time.Time) (*domain.Invoice, error) {
	invoice := domain.NewInvoice(booking, txn, now)
	if err := repos.Invoices.Create(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
