package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minhlq/charterdesk/internal/domain"
)

const transactionColumns = `
	id, ref, booking_id, amount, type, method, status,
	gateway_txn_id, gateway_response, failure_reason,
	created_at, updated_at, completed_at, expires_at`

type TransactionRepository struct {
	q Executor
}

func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{q: pool}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	m := transactionToModel(txn)

	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.Ref, m.BookingID, m.Amount, m.Type, m.Method, m.Status,
		m.GatewayTxnID, m.GatewayResponse, m.FailureReason,
		m.CreatedAt, m.UpdatedAt, m.CompletedAt, m.ExpiresAt,
	)
	if err != nil {
		// The partial unique index on (booking_id, type) WHERE pending is
		// the arbiter when two initiations race past the lookup guard.
		if IsUniqueViolation(err) {
			return domain.NewConflictError("a pending transaction of this type already exists for the booking")
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(r.q.QueryRow(ctx, query, id), id.String())
}

func (r *TransactionRepository) FindByRef(ctx context.Context, ref string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ref = $1`
	return scanTransaction(r.q.QueryRow(ctx, query, ref), ref)
}

// FindByRefForUpdate retrieves a transaction with a row-level lock so a
// duplicated callback serializes behind the first delivery.
func (r *TransactionRepository) FindByRefForUpdate(ctx context.Context, ref string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ref = $1 FOR UPDATE`
	return scanTransaction(r.q.QueryRow(ctx, query, ref), ref)
}

// HasPending is the lookup-before-create guard for payment initiation.
func (r *TransactionRepository) HasPending(ctx context.Context, bookingID uuid.UUID, txnType domain.TransactionType) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE booking_id = $1 AND type = $2 AND status = 'pending'
		)
	`
	var exists bool
	if err := r.q.QueryRow(ctx, query, bookingID, string(txnType)).Scan(&exists); err != nil {
		return false, fmt.Errorf("query pending transaction: %w", err)
	}
	return exists, nil
}

// FindExpiredPending returns pending transactions whose payment window
// lapsed before the cutoff, oldest first.
func (r *TransactionRepository) FindExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE status = 'pending' AND expires_at IS NOT NULL AND expires_at < $1
		ORDER BY expires_at ASC
		LIMIT $2
	`
	rows, err := r.q.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("query expired transactions: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Transaction, error) {
		var m TransactionModel
		err := row.Scan(
			&m.ID, &m.Ref, &m.BookingID, &m.Amount, &m.Type, &m.Method, &m.Status,
			&m.GatewayTxnID, &m.GatewayResponse, &m.FailureReason,
			&m.CreatedAt, &m.UpdatedAt, &m.CompletedAt, &m.ExpiresAt,
		)
		return transactionToDomain(&m), err
	})
	if err != nil {
		return nil, fmt.Errorf("scan expired transactions: %w", err)
	}
	return results, nil
}

func (r *TransactionRepository) Update(ctx context.Context, txn *domain.Transaction) error {
	m := transactionToModel(txn)

	query := `
		UPDATE transactions
		SET status = $1, gateway_txn_id = $2, gateway_response = $3,
		    failure_reason = $4, updated_at = $5, completed_at = $6
		WHERE id = $7
	`
	tag, err := r.q.Exec(ctx, query,
		m.Status, m.GatewayTxnID, m.GatewayResponse,
		m.FailureReason, m.UpdatedAt, m.CompletedAt,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("transaction", txn.Ref)
	}
	return nil
}

func scanTransaction(row pgx.Row, ref string) (*domain.Transaction, error) {
	var m TransactionModel
	err := row.Scan(
		&m.ID, &m.Ref, &m.BookingID, &m.Amount, &m.Type, &m.Method, &m.Status,
		&m.GatewayTxnID, &m.GatewayResponse, &m.FailureReason,
		&m.CreatedAt, &m.UpdatedAt, &m.CompletedAt, &m.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("transaction", ref)
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	return transactionToDomain(&m), nil
}
