package postgres

import (
	"context"
	"fmt"

	"github.com/minhlq/charterdesk/internal/application"
)

// TransactionCoordinator implements application.UnitOfWork over a pgx pool.
// The function receives repository instances bound to the transaction, so
// every write inside fn commits or rolls back as one unit.
type TransactionCoordinator struct {
	db *DB
}

func NewTransactionCoordinator(db *DB) *TransactionCoordinator {
	return &TransactionCoordinator{db: db}
}

func (tc *TransactionCoordinator) WithTransaction(ctx context.Context, fn func(ctx context.Context, repos application.TxRepos) error) error {
	tx, err := tc.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	repos := application.TxRepos{
		Bookings:     &BookingRepository{q: tx},
		Transactions: &TransactionRepository{q: tx},
		Invoices:     &InvoiceRepository{q: tx},
		Reservations: &ReservationRepository{q: tx},
	}

	if err := fn(ctx, repos); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
