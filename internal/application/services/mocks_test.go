package services_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/minhlq/charterdesk/internal/application"
	"github.com/minhlq/charterdesk/internal/domain"
)

// memStore is an in-memory stand-in for the persistence layer. Its per-port
// views implement the repository interfaces plus the unit of work, so the
// services under test run against it unchanged. Fn overrides hijack
// individual calls.
type memStore struct {
	bookings     map[uuid.UUID]*domain.Booking
	transactions map[uuid.UUID]*domain.Transaction
	invoices     map[uuid.UUID]*domain.Invoice
	reservations map[string]bool

	FindBookingByIDFn    func(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	CreateTransactionFn  func(ctx context.Context, txn *domain.Transaction) error
	FindByRefForUpdateFn func(ctx context.Context, ref string) (*domain.Transaction, error)
	CreateInvoiceFn      func(ctx context.Context, invoice *domain.Invoice) error
	MaterializeRoomsFn   func(ctx context.Context, booking *domain.Booking) (int, error)
}

func newMemStore() *memStore {
	return &memStore{
		bookings:     make(map[uuid.UUID]*domain.Booking),
		transactions: make(map[uuid.UUID]*domain.Transaction),
		invoices:     make(map[uuid.UUID]*domain.Invoice),
		reservations: make(map[string]bool),
	}
}

func (m *memStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, repos application.TxRepos) error) error {
	return fn(ctx, application.TxRepos{
		Bookings:     &memBookings{m},
		Transactions: &memTransactions{m},
		Invoices:     &memInvoices{m},
		Reservations: &memReservations{m},
	})
}

// seedBooking and seedTransaction store copies so tests keep an unshared
// handle on the original.
func (m *memStore) seedBooking(b *domain.Booking) {
	copied := *b
	m.bookings[b.ID] = &copied
}

func (m *memStore) seedTransaction(t *domain.Transaction) {
	copied := *t
	m.transactions[t.ID] = &copied
}

func (m *memStore) bookingByID(id uuid.UUID) *domain.Booking {
	return m.bookings[id]
}

func (m *memStore) transactionByRef(ref string) *domain.Transaction {
	for _, t := range m.transactions {
		if t.Ref == ref {
			return t
		}
	}
	return nil
}

func (m *memStore) invoiceCount() int {
	return len(m.invoices)
}

type memBookings struct{ store *memStore }

func (r *memBookings) Create(ctx context.Context, booking *domain.Booking) error {
	r.store.seedBooking(booking)
	return nil
}

func (r *memBookings) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	if r.store.FindBookingByIDFn != nil {
		return r.store.FindBookingByIDFn(ctx, id)
	}
	if b, ok := r.store.bookings[id]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, domain.NewNotFoundError("booking", id.String())
}

func (r *memBookings) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r *memBookings) Update(ctx context.Context, booking *domain.Booking) error {
	if _, ok := r.store.bookings[booking.ID]; !ok {
		return domain.NewNotFoundError("booking", booking.ID.String())
	}
	r.store.seedBooking(booking)
	return nil
}

type memTransactions struct{ store *memStore }

func (r *memTransactions) Create(ctx context.Context, txn *domain.Transaction) error {
	if r.store.CreateTransactionFn != nil {
		return r.store.CreateTransactionFn(ctx, txn)
	}
	r.store.seedTransaction(txn)
	return nil
}

func (r *memTransactions) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	if t, ok := r.store.transactions[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, domain.NewNotFoundError("transaction", id.String())
}

func (r *memTransactions) FindByRef(ctx context.Context, ref string) (*domain.Transaction, error) {
	if t := r.store.transactionByRef(ref); t != nil {
		copied := *t
		return &copied, nil
	}
	return nil, domain.NewNotFoundError("transaction", ref)
}

func (r *memTransactions) FindByRefForUpdate(ctx context.Context, ref string) (*domain.Transaction, error) {
	if r.store.FindByRefForUpdateFn != nil {
		return r.store.FindByRefForUpdateFn(ctx, ref)
	}
	return r.FindByRef(ctx, ref)
}

func (r *memTransactions) HasPending(ctx context.Context, bookingID uuid.UUID, txnType domain.TransactionType) (bool, error) {
	for _, t := range r.store.transactions {
		if t.BookingID == bookingID && t.Type == txnType && t.Status == domain.TransactionPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *memTransactions) FindExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	for _, t := range r.store.transactions {
		if t.IsExpired(cutoff) {
			copied := *t
			out = append(out, &copied)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *memTransactions) Update(ctx context.Context, txn *domain.Transaction) error {
	if _, ok := r.store.transactions[txn.ID]; !ok {
		return domain.NewNotFoundError("transaction", txn.Ref)
	}
	r.store.seedTransaction(txn)
	return nil
}

type memInvoices struct{ store *memStore }

func (r *memInvoices) Create(ctx context.Context, invoice *domain.Invoice) error {
	if r.store.CreateInvoiceFn != nil {
		return r.store.CreateInvoiceFn(ctx, invoice)
	}
	for _, inv := range r.store.invoices {
		if inv.TransactionID == invoice.TransactionID {
			return domain.NewConflictError("an invoice already exists for this transaction")
		}
	}
	copied := *invoice
	r.store.invoices[invoice.ID] = &copied
	return nil
}

func (r *memInvoices) FindByTransactionID(ctx context.Context, transactionID uuid.UUID) (*domain.Invoice, error) {
	for _, inv := range r.store.invoices {
		if inv.TransactionID == transactionID {
			copied := *inv
			return &copied, nil
		}
	}
	return nil, domain.NewNotFoundError("invoice", transactionID.String())
}

type memReservations struct{ store *memStore }

func (r *memReservations) MaterializeRooms(ctx context.Context, booking *domain.Booking) (int, error) {
	if r.store.MaterializeRoomsFn != nil {
		return r.store.MaterializeRoomsFn(ctx, booking)
	}
	inserted := 0
	for _, room := range booking.Rooms {
		key := booking.ID.String() + "/" + room.RoomID.String()
		if r.store.reservations[key] {
			continue
		}
		r.store.reservations[key] = true
		inserted++
	}
	return inserted, nil
}

// mockGateway is a scriptable gateway adapter.
type mockGateway struct {
	method domain.PaymentMethod

	BuildPaymentRequestFn func(ctx context.Context, txn *domain.Transaction, booking *domain.Booking, returnURL string) (*application.PaymentInstruction, error)
	VerifySignatureFn     func(raw []byte) bool
	ParseCallbackFn       func(raw []byte) (*application.CallbackResult, error)
}

func (g *mockGateway) Method() domain.PaymentMethod {
	return g.method
}

func (g *mockGateway) BuildPaymentRequest(ctx context.Context, txn *domain.Transaction, booking *domain.Booking, returnURL string) (*application.PaymentInstruction, error) {
	if g.BuildPaymentRequestFn != nil {
		return g.BuildPaymentRequestFn(ctx, txn, booking, returnURL)
	}
	return &application.PaymentInstruction{RedirectURL: "https://pay.example.com/" + txn.Ref}, nil
}

func (g *mockGateway) VerifySignature(raw []byte) bool {
	if g.VerifySignatureFn != nil {
		return g.VerifySignatureFn(raw)
	}
	return true
}

func (g *mockGateway) ParseCallback(raw []byte) (*application.CallbackResult, error) {
	if g.ParseCallbackFn != nil {
		return g.ParseCallbackFn(raw)
	}
	return nil, nil
}

// mockNotifier records confirmation notifications.
type mockNotifier struct {
	confirmed chan string
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{confirmed: make(chan string, 8)}
}

func (n *mockNotifier) BookingConfirmed(ctx context.Context, booking *domain.Booking, invoice *domain.Invoice) error {
	n.confirmed <- booking.Code
	return nil
}
