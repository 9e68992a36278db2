package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minhlq/charterdesk/internal/domain"
)

const invoiceColumns = `
	id, number, booking_id, transaction_id, customer, charter, items,
	subtotal, discount, tax, total, paid_amount, remaining_amount,
	payment_status, issued_at`

type InvoiceRepository struct {
	q Executor
}

func NewInvoiceRepository(pool *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{q: pool}
}

func (r *InvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	m, err := invoiceToModel(invoice)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = r.q.Exec(ctx, query,
		m.ID, m.Number, m.BookingID, m.TransactionID, m.Customer, m.Charter, m.Items,
		m.Subtotal, m.Discount, m.Tax, m.Total, m.PaidAmount, m.RemainingAmount,
		m.PaymentStatus, m.IssuedAt,
	)
	if err != nil {
		// Unique transaction_id: second line of defense behind the
		// workflow's pending-only guard.
		if IsUniqueViolation(err) {
			return domain.NewConflictError("an invoice already exists for this transaction")
		}
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) FindByTransactionID(ctx context.Context, transactionID uuid.UUID) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE transaction_id = $1`

	var m InvoiceModel
	err := r.q.QueryRow(ctx, query, transactionID).Scan(
		&m.ID, &m.Number, &m.BookingID, &m.TransactionID, &m.Customer, &m.Charter, &m.Items,
		&m.Subtotal, &m.Discount, &m.Tax, &m.Total, &m.PaidAmount, &m.RemainingAmount,
		&m.PaymentStatus, &m.IssuedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("invoice for transaction", transactionID.String())
		}
		return nil, fmt.Errorf("failed to scan invoice: %w", err)
	}
	return invoiceToDomain(&m)
}
