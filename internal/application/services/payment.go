package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/minhlq/charterdesk/internal/application"
	"github.com/minhlq/charterdesk/internal/domain"
)

// PaymentService initiates payment attempts and manages the pending side of
// the ledger. Finalization belongs to the ReconcileService.
type PaymentService struct {
	uow        application.UnitOfWork
	gateways   application.GatewayRegistry
	returnURL  string
	pendingTTL time.Duration
	logger     *slog.Logger
}

func NewPaymentService(
	uow application.UnitOfWork,
	gateways application.GatewayRegistry,
	returnURL string,
	pendingTTL time.Duration,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		uow:        uow,
		gateways:   gateways,
		returnURL:  returnURL,
		pendingTTL: pendingTTL,
		logger:     logger,
	}
}

// InitiatePaymentCommand selects what to pay and through which gateway.
type InitiatePaymentCommand struct {
	BookingID uuid.UUID
	Type      domain.TransactionType
	Method    domain.PaymentMethod
}

// PaymentIntent is the result of a successful initiation: the pending ledger
// record plus what the customer needs to pay.
type PaymentIntent struct {
	Transaction *domain.Transaction
	Instruction *application.PaymentInstruction
}

// Initiate creates a pending transaction for the booking and builds the
// gateway payment request. At most one pending transaction may exist per
// (booking, type); a second initiation of the same type conflicts.
func (s *PaymentService) Initiate(ctx context.Context, principal application.Principal, cmd InitiatePaymentCommand) (*PaymentIntent, error) {
	if !domain.ValidTransactionType(cmd.Type) {
		return nil, domain.NewValidationError("unknown transaction type: " + string(cmd.Type))
	}
	adapter, ok := s.gateways.Adapter(cmd.Method)
	if !ok {
		return nil, domain.NewValidationError("unsupported payment method: " + string(cmd.Method))
	}

	var (
		txn     *domain.Transaction
		booking *domain.Booking
	)
	err := s.uow.WithTransaction(ctx, func(ctx context.Context, repos application.TxRepos) error {
		var err error
		booking, err = repos.Bookings.FindByIDForUpdate(ctx, cmd.BookingID)
		if err != nil {
			return err
		}
		if !principal.CanAccessBooking(booking) {
			return domain.NewAuthorizationError("cannot initiate payment for another customer's booking")
		}
		if booking.Status != domain.BookingPendingPayment {
			return domain.NewInvalidStateError("booking is not awaiting payment")
		}

		amount, err := paymentAmount(booking, cmd.Type)
		if err != nil {
			return err
		}

		exists, err := repos.Transactions.HasPending(ctx, booking.ID, cmd.Type)
		if err != nil {
			return err
		}
		if exists {
			return domain.NewConflictError("a pending " + string(cmd.Type) + " transaction already exists for this booking")
		}

		now := time.Now()
		txn, err = domain.NewPendingTransaction(booking.ID, cmd.Type, cmd.Method, amount, now.Add(s.pendingTTL), now)
		if err != nil {
			return err
		}
		return repos.Transactions.Create(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	// The gateway round trip happens outside the database transaction. If it
	// fails, the pending record is cancelled best-effort; the expiry worker
	// sweeps up anything this misses.
	instruction, err := adapter.BuildPaymentRequest(ctx, txn, booking, s.returnURL)
	if err != nil {
		s.cancelAfterGatewayFailure(ctx, txn.Ref, err)
		return nil, domain.NewInternalError(err)
	}

	s.logger.Info("payment initiated",
		"transaction_ref", txn.Ref,
		"booking_code", booking.Code,
		"type", txn.Type,
		"method", txn.Method,
		"amount", txn.Amount,
	)
	return &PaymentIntent{Transaction: txn, Instruction: instruction}, nil
}

// paymentAmount resolves how much a transaction of the given type covers:
// the deposit amount for deposits, the outstanding remainder otherwise.
func paymentAmount(booking *domain.Booking, txnType domain.TransactionType) (int64, error) {
	if booking.RemainingAmount <= 0 {
		return 0, domain.NewInvalidStateError("booking is already fully paid")
	}
	if txnType == domain.TransactionDeposit {
		if booking.PaymentStatus != domain.PaymentUnpaid {
			return 0, domain.NewInvalidStateError("deposit has already been paid")
		}
		return booking.DepositAmount, nil
	}
	return booking.RemainingAmount, nil
}

func (s *PaymentService) cancelAfterGatewayFailure(ctx context.Context, ref string, cause error) {
	err := s.uow.WithTransaction(ctx, func(ctx context.Context, repos application.TxRepos) error {
		txn, err := repos.Transactions.FindByRefForUpdate(ctx, ref)
		if err != nil {
			return err
		}
		if err := txn.Cancel("gateway request failed: "+cause.Error(), time.Now()); err != nil {
			return err
		}
		return repos.Transactions.Update(ctx, txn)
	})
	if err != nil {
		s.logger.Error("failed to cancel transaction after gateway error",
			"transaction_ref", ref,
			"error", err,
		)
	}
}

// GetTransaction returns a ledger record the principal may see.
func (s *PaymentService) GetTransaction(ctx context.Context, principal application.Principal, id uuid.UUID) (*domain.Transaction, error) {
	var txn *domain.Transaction
	err := s.uow.WithTransaction(ctx, func(ctx context.Context, repos application.TxRepos) error {
		var err error
		txn, err = repos.Transactions.FindByID(ctx, id)
		if err != nil {
			return err
		}
		booking, err := repos.Bookings.FindByID(ctx, txn.BookingID)
		if err != nil {
			return err
		}
		if !principal.CanAccessBooking(booking) {
			return domain.NewAuthorizationError("transaction belongs to another customer")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// CancelTransaction withdraws a still-pending payment attempt.
func (s *PaymentService) CancelTransaction(ctx context.Context, principal application.Principal, id uuid.UUID) (*domain.Transaction, error) {
	var txn *domain.Transaction
	err := s.uow.WithTransaction(ctx, func(ctx context.Context, repos application.TxRepos) error {
		var err error
		txn, err = repos.Transactions.FindByID(ctx, id)
		if err != nil {
			return err
		}
		booking, err := repos.Bookings.FindByID(ctx, txn.BookingID)
		if err != nil {
			return err
		}
		if !principal.CanAccessBooking(booking) {
			return domain.NewAuthorizationError("transaction belongs to another customer")
		}

		txn, err = repos.Transactions.FindByRefForUpdate(ctx, txn.Ref)
		if err != nil {
			return err
		}
		if err := txn.Cancel("cancelled by customer", time.Now()); err != nil {
			return err
		}
		return repos.Transactions.Update(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transaction cancelled", "transaction_ref", txn.Ref)
	return txn, nil
}
