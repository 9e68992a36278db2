package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/minhlq/charterdesk/internal/application"
	"github.com/minhlq/charterdesk/internal/domain"
)

// InvoiceService exposes invoice generation and lookup outside the
// reconciliation workflow (operator tooling, re-issue flows).
type InvoiceService struct {
	uow    application.UnitOfWork
	logger *slog.Logger
}

func NewInvoiceService(uow application.UnitOfWork, logger *slog.Logger) *InvoiceService {
	return &InvoiceService{
		uow:    uow,
		logger: logger,
	}
}

// Generate builds the invoice for a transaction and persists it. The
// transaction and its booking must both exist. No duplicate check is
// performed here; calling it twice for the same transaction yields two
// invoices unless the caller guards against it.
func (s *InvoiceService) Generate(ctx context.Context, transactionID uuid.UUID) (*domain.Invoice, error) {
	var invoice *domain.Invoice
	err := s.uow.WithTransaction(ctx, func(ctx context.Context, repos application.TxRepos) error {
		txn, err := repos.Transactions.FindByID(ctx, transactionID)
		if err != nil {
			return err
		}
		booking, err := repos.Bookings.FindByID(ctx, txn.BookingID)
		if err != nil {
			return err
		}
		invoice, err = generateInvoice(ctx, repos, booking, txn, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice generated",
		"invoice_number", invoice.Number,
		"transaction_id", transactionID,
	)
	return invoice, nil
}

// GetByTransaction returns the invoice generated for a transaction.
func (s *InvoiceService) GetByTransaction(ctx context.Context, principal application.Principal, transactionID uuid.UUID) (*domain.Invoice, error) {
	var invoice *domain.Invoice
	err := s.uow.WithTransaction(ctx, func(ctx context.Context, repos application.TxRepos) error {
		var err error
		invoice, err = repos.Invoices.FindByTransactionID(ctx, transactionID)
		if err != nil {
			return err
		}
		booking, err := repos.Bookings.FindByID(ctx, invoice.BookingID)
		if err != nil {
			return err
		}
		if !principal.CanAccessBooking(booking) {
			return domain.NewAuthorizationError("invoice belongs to another customer")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}
