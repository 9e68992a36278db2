// Package domain defines the domain models for the charter booking backend.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents the current state of a booking in its lifecycle
type BookingStatus string

const (
	BookingConsultationRequested BookingStatus = "consultation_requested"
	BookingPendingPayment        BookingStatus = "pending_payment"
	BookingConfirmed             BookingStatus = "confirmed"
	BookingCompleted             BookingStatus = "completed"
	BookingCancelled             BookingStatus = "cancelled"
)

// BookingPaymentStatus tracks how much of the booking amount has been settled
type BookingPaymentStatus string

const (
	PaymentUnpaid      BookingPaymentStatus = "unpaid"
	PaymentDepositPaid BookingPaymentStatus = "deposit_paid"
	PaymentFullyPaid   BookingPaymentStatus = "fully_paid"
)

// DefaultDepositPercent is applied when a consultation is submitted without
// an explicit deposit amount.
const DefaultDepositPercent = 20

// RoomSelection is a snapshot of one room line taken at consultation time.
type RoomSelection struct {
	RoomID    uuid.UUID `json:"room_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
}

// ServiceSelection is a snapshot of one service line taken at consultation time.
type ServiceSelection struct {
	ServiceID uuid.UUID `json:"service_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
}

// CustomerSnapshot freezes the customer contact details used on invoices and
// confirmation notifications.
type CustomerSnapshot struct {
	CustomerID uuid.UUID `json:"customer_id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
}

// CharterSnapshot freezes the yacht and schedule details at consultation time.
type CharterSnapshot struct {
	YachtID       uuid.UUID `json:"yacht_id"`
	YachtName     string    `json:"yacht_name"`
	ScheduleID    uuid.UUID `json:"schedule_id"`
	DepartureDate time.Time `json:"departure_date"`
	ReturnDate    time.Time `json:"return_date"`
}

// Booking represents one customer's request to rent a yacht for a date range.
//
// All amounts are VND, which has no subunit.
type Booking struct {
	ID       uuid.UUID
	Code     string
	Customer CustomerSnapshot
	Charter  CharterSnapshot

	Amount        int64
	DepositAmount int64
	Discount      int64

	Rooms    []RoomSelection
	Services []ServiceSelection

	Status        BookingStatus
	PaymentStatus BookingPaymentStatus

	// TotalPaid and RemainingAmount are bookkeeping owned by ApplyPayment;
	// RemainingAmount is always recomputed, never set directly.
	TotalPaid       int64
	RemainingAmount int64

	ConfirmationCode *string
	CancelReason     *string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	ConfirmedAt *time.Time
	CancelledAt *time.Time
}

// NewBooking creates a consultation-stage booking. The total amount is the
// sum of the selected room and service lines; the deposit defaults to
// DefaultDepositPercent of the total when not given.
func NewBooking(customer CustomerSnapshot, charter CharterSnapshot, rooms []RoomSelection, services []ServiceSelection, depositAmount int64, now time.Time) (*Booking, error) {
	var amount int64
	for _, r := range rooms {
		if r.Quantity <= 0 || r.UnitPrice < 0 {
			return nil, NewValidationError("room selection must have positive quantity and non-negative price")
		}
		amount += int64(r.Quantity) * r.UnitPrice
	}
	for _, s := range services {
		if s.Quantity <= 0 || s.UnitPrice < 0 {
			return nil, NewValidationError("service selection must have positive quantity and non-negative price")
		}
		amount += int64(s.Quantity) * s.UnitPrice
	}
	if amount <= 0 {
		return nil, NewValidationError("booking amount must be positive")
	}
	if depositAmount < 0 || depositAmount > amount {
		return nil, NewValidationError("deposit amount must be between 0 and the booking amount")
	}
	if depositAmount == 0 {
		depositAmount = amount * DefaultDepositPercent / 100
	}

	return &Booking{
		ID:              uuid.New(),
		Code:            NewBookingCode(now),
		Customer:        customer,
		Charter:         charter,
		Amount:          amount,
		DepositAmount:   depositAmount,
		Rooms:           rooms,
		Services:        services,
		Status:          BookingConsultationRequested,
		PaymentStatus:   PaymentUnpaid,
		TotalPaid:       0,
		RemainingAmount: amount,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// RequestPayment moves a consultation into the payable stage.
func (b *Booking) RequestPayment(now time.Time) error {
	if b.Status != BookingConsultationRequested {
		return NewInvalidTransitionError(string(b.Status), string(BookingPendingPayment))
	}
	b.Status = BookingPendingPayment
	b.UpdatedAt = now
	return nil
}

// ApplyPayment credits a completed transaction against the booking.
//
// TotalPaid is clamped so it never exceeds Amount, which protects against an
// over-payment from a duplicated callback that slipped past the ledger guard.
// RemainingAmount is recomputed from scratch on every call.
func (b *Booking) ApplyPayment(amount int64, txnType TransactionType, now time.Time) error {
	if amount <= 0 {
		return NewValidationError("payment amount must be positive")
	}

	b.TotalPaid += amount
	if b.TotalPaid > b.Amount {
		b.TotalPaid = b.Amount
	}
	b.RemainingAmount = b.Amount - b.TotalPaid

	if txnType == TransactionDeposit {
		b.PaymentStatus = PaymentDepositPaid
	}
	if b.RemainingAmount <= 0 {
		b.PaymentStatus = PaymentFullyPaid
	}

	b.UpdatedAt = now
	return nil
}

// ConfirmIfEligible transitions the booking to confirmed when it is awaiting
// payment and at least the deposit has been settled. It reports whether the
// transition happened so the caller can materialize room reservations exactly
// once. Any other state is a no-op.
func (b *Booking) ConfirmIfEligible(confirmationCode string, now time.Time) bool {
	if b.Status != BookingPendingPayment {
		return false
	}
	if b.PaymentStatus != PaymentDepositPaid && b.PaymentStatus != PaymentFullyPaid {
		return false
	}
	b.Status = BookingConfirmed
	b.ConfirmationCode = &confirmationCode
	b.ConfirmedAt = &now
	b.UpdatedAt = now
	return true
}

// Cancel is only legal before any payment has confirmed the booking.
func (b *Booking) Cancel(reason string, now time.Time) error {
	if b.Status != BookingConsultationRequested && b.Status != BookingPendingPayment {
		return NewInvalidTransitionError(string(b.Status), string(BookingCancelled))
	}
	b.Status = BookingCancelled
	b.CancelReason = &reason
	b.CancelledAt = &now
	b.UpdatedAt = now
	return nil
}

func (b *Booking) IsTerminal() bool {
	switch b.Status {
	case BookingCompleted, BookingCancelled:
		return true
	default:
		return false
	}
}
