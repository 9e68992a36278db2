package postgres

import (
	"time"

	"github.com/google/uuid"
)

// BookingModel mirrors the bookings table.
type BookingModel struct {
	ID               uuid.UUID
	Code             string
	CustomerID       uuid.UUID
	CustomerName     string
	CustomerEmail    string
	CustomerPhone    string
	YachtID          uuid.UUID
	YachtName        string
	ScheduleID       uuid.UUID
	DepartureDate    time.Time
	ReturnDate       time.Time
	Amount           int64
	DepositAmount    int64
	Discount         int64
	Rooms            []byte
	Services         []byte
	Status           string
	PaymentStatus    string
	TotalPaid        int64
	RemainingAmount  int64
	ConfirmationCode *string
	CancelReason     *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ConfirmedAt      *time.Time
	CancelledAt      *time.Time
}

// TransactionModel mirrors the transactions table.
type TransactionModel struct {
	ID              uuid.UUID
	Ref             string
	BookingID       uuid.UUID
	Amount          int64
	Type            string
	Method          string
	Status          string
	GatewayTxnID    *string
	GatewayResponse *string
	FailureReason   *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
	ExpiresAt       *time.Time
}

// InvoiceModel mirrors the invoices table.
type InvoiceModel struct {
	ID              uuid.UUID
	Number          string
	BookingID       uuid.UUID
	TransactionID   uuid.UUID
	Customer        []byte
	Charter         []byte
	Items           []byte
	Subtotal        int64
	Discount        int64
	Tax             int64
	Total           int64
	PaidAmount      int64
	RemainingAmount int64
	PaymentStatus   string
	IssuedAt        time.Time
}
