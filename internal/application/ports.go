// Package application holds the ports and orchestration services sitting
// between the HTTP surface and the domain.
package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/minhlq/charterdesk/internal/domain"
)

// BookingRepository is the persistence port for bookings.
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	// FindByIDForUpdate retrieves a booking with a row-level lock so the
	// reconciliation workflow serializes concurrent callbacks.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) error
}

// TransactionRepository is the persistence port for the payment ledger.
type TransactionRepository interface {
	Create(ctx context.Context, txn *domain.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	FindByRef(ctx context.Context, ref string) (*domain.Transaction, error)
	FindByRefForUpdate(ctx context.Context, ref string) (*domain.Transaction, error)
	// HasPending reports whether a pending transaction of the given type
	// already exists for the booking (lookup-before-create guard).
	HasPending(ctx context.Context, bookingID uuid.UUID, txnType domain.TransactionType) (bool, error)
	FindExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Transaction, error)
	Update(ctx context.Context, txn *domain.Transaction) error
}

// InvoiceRepository is the persistence port for invoices.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *domain.Invoice) error
	FindByTransactionID(ctx context.Context, transactionID uuid.UUID) (*domain.Invoice, error)
}

// ReservationRepository materializes confirmed room selections.
type ReservationRepository interface {
	// MaterializeRooms inserts one reservation row per room selection of the
	// booking, skipping rows that already exist. Returns how many rows were
	// inserted. The uniqueness guard lives in the database so a duplicated
	// confirmation can never double-book.
	MaterializeRooms(ctx context.Context, booking *domain.Booking) (int, error)
}

// TxRepos bundles the transaction-scoped repositories handed to a unit of work.
type TxRepos struct {
	Bookings     BookingRepository
	Transactions TransactionRepository
	Invoices     InvoiceRepository
	Reservations ReservationRepository
}

// UnitOfWork runs fn inside one atomic database transaction. Either every
// write made through the supplied repositories commits, or none do.
type UnitOfWork interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repos TxRepos) error) error
}

// PaymentInstruction is what the customer needs to complete a payment:
// a redirect target for hosted gateways, or transfer details for manual
// bank transfer.
type PaymentInstruction struct {
	RedirectURL string
	Metadata    map[string]string
}

// CallbackResult is the normalized shape every provider callback is reduced
// to before entering the reconciliation workflow.
type CallbackResult struct {
	ReferenceCode string
	GatewayAmount int64
	Success       bool
	GatewayTxnID  string
	FailureReason string
}

// GatewayAdapter is the per-provider port: request builder, signature
// verifier and callback parser.
type GatewayAdapter interface {
	Method() domain.PaymentMethod
	BuildPaymentRequest(ctx context.Context, txn *domain.Transaction, booking *domain.Booking, returnURL string) (*PaymentInstruction, error)
	VerifySignature(raw []byte) bool
	ParseCallback(raw []byte) (*CallbackResult, error)
}

// GatewayRegistry maps payment methods to their adapters.
type GatewayRegistry map[domain.PaymentMethod]GatewayAdapter

// Adapter looks up the adapter for a method.
func (r GatewayRegistry) Adapter(method domain.PaymentMethod) (GatewayAdapter, bool) {
	adapter, ok := r[method]
	return adapter, ok
}

// Notifier sends customer-facing notifications. Calls are fire-and-forget;
// a delivery failure never rolls back a reconciliation.
type Notifier interface {
	BookingConfirmed(ctx context.Context, booking *domain.Booking, invoice *domain.Invoice) error
}

// Principal is the authenticated identity supplied by the auth collaborator.
type Principal struct {
	CustomerID uuid.UUID
	Role       string
}

const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// IsStaff reports whether the principal may act on bookings it does not own.
func (p Principal) IsStaff() bool {
	return p.Role == RoleStaff || p.Role == RoleAdmin
}

// CanAccessBooking enforces that customers only touch their own bookings.
func (p Principal) CanAccessBooking(booking *domain.Booking) bool {
	return p.IsStaff() || p.CustomerID == booking.Customer.CustomerID
}
