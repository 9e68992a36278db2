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

const bookingColumns = `
	id, code, customer_id, customer_name, customer_email, customer_phone,
	yacht_id, yacht_name, schedule_id, departure_date, return_date,
	amount, deposit_amount, discount, rooms, services,
	status, payment_status, total_paid, remaining_amount,
	confirmation_code, cancel_reason,
	created_at, updated_at, confirmed_at, cancelled_at`

type BookingRepository struct {
	q Executor
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{q: pool}
}

func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	m, err := bookingToModel(booking)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	`
	_, err = r.q.Exec(ctx, query,
		m.ID, m.Code, m.CustomerID, m.CustomerName, m.CustomerEmail, m.CustomerPhone,
		m.YachtID, m.YachtName, m.ScheduleID, m.DepartureDate, m.ReturnDate,
		m.Amount, m.DepositAmount, m.Discount, m.Rooms, m.Services,
		m.Status, m.PaymentStatus, m.TotalPaid, m.RemainingAmount,
		m.ConfirmationCode, m.CancelReason,
		m.CreatedAt, m.UpdatedAt, m.ConfirmedAt, m.CancelledAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return domain.NewConflictError("booking code already exists")
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return scanBooking(r.q.QueryRow(ctx, query, id), id.String())
}

// FindByIDForUpdate retrieves a booking with a row-level lock.
func (r *BookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	return scanBooking(r.q.QueryRow(ctx, query, id), id.String())
}

func (r *BookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	m, err := bookingToModel(booking)
	if err != nil {
		return err
	}

	query := `
		UPDATE bookings
		SET status = $1, payment_status = $2, total_paid = $3, remaining_amount = $4,
		    confirmation_code = $5, cancel_reason = $6,
		    updated_at = $7, confirmed_at = $8, cancelled_at = $9
		WHERE id = $10
	`
	tag, err := r.q.Exec(ctx, query,
		m.Status, m.PaymentStatus, m.TotalPaid, m.RemainingAmount,
		m.ConfirmationCode, m.CancelReason,
		m.UpdatedAt, m.ConfirmedAt, m.CancelledAt,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("booking", booking.ID.String())
	}
	return nil
}

func scanBooking(row pgx.Row, ref string) (*domain.Booking, error) {
	var m BookingModel
	err := row.Scan(
		&m.ID, &m.Code, &m.CustomerID, &m.CustomerName, &m.CustomerEmail, &m.CustomerPhone,
		&m.YachtID, &m.YachtName, &m.ScheduleID, &m.DepartureDate, &m.ReturnDate,
		&m.Amount, &m.DepositAmount, &m.Discount, &m.Rooms, &m.Services,
		&m.Status, &m.PaymentStatus, &m.TotalPaid, &m.RemainingAmount,
		&m.ConfirmationCode, &m.CancelReason,
		&m.CreatedAt, &m.UpdatedAt, &m.ConfirmedAt, &m.CancelledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("booking", ref)
		}
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}
	return bookingToDomain(&m)
}
