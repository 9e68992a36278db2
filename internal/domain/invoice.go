package domain

import (
	"time"

	"github.com/google/uuid"
)

// VATPercent is the fixed tax rate applied to (subtotal - discount).
const VATPercent = 5

// InvoicePaymentStatus is derived solely from paid vs total, never stored
// independently.
type InvoicePaymentStatus string

const (
	InvoiceUnpaid  InvoicePaymentStatus = "unpaid"
	InvoicePartial InvoicePaymentStatus = "partial"
	InvoicePaid    InvoicePaymentStatus = "paid"
)

// LineItemKind tags what a line item bills for.
type LineItemKind string

const (
	LineItemRoom    LineItemKind = "room"
	LineItemService LineItemKind = "service"
)

// LineItem is one billed row on an invoice.
type LineItem struct {
	Kind       LineItemKind `json:"kind"`
	RefID      uuid.UUID    `json:"ref_id"`
	Name       string       `json:"name"`
	Quantity   int          `json:"quantity"`
	UnitPrice  int64        `json:"unit_price"`
	TotalPrice int64        `json:"total_price"`
}

// Invoice is a billing snapshot generated once per completed transaction.
// It is immutable after creation; all derived fields are computed here so no
// persistence hook can drift from the invariant.
type Invoice struct {
	ID            uuid.UUID
	Number        string
	BookingID     uuid.UUID
	TransactionID uuid.UUID

	Customer CustomerSnapshot
	Charter  CharterSnapshot
	Items    []LineItem

	Subtotal        int64
	Discount        int64
	Tax             int64
	Total           int64
	PaidAmount      int64
	RemainingAmount int64
	PaymentStatus   InvoicePaymentStatus

	IssuedAt time.Time
}

// NewInvoice builds the invoice for a completed transaction. Line items come
// from the booking's recorded room and service selections; a booking with no
// itemized selection gets a single generic charter line at the booking
// amount. PaidAmount is the triggering transaction's amount.
//
// The generator performs no duplicate check; the reconciliation workflow is
// responsible for invoking it at most once per transaction.
func NewInvoice(booking *Booking, txn *Transaction, now time.Time) *Invoice {
	items := make([]LineItem, 0, len(booking.Rooms)+len(booking.Services))
	for _, r := range booking.Rooms {
		items = append(items, LineItem{
			Kind:       LineItemRoom,
			RefID:      r.RoomID,
			Name:       r.Name,
			Quantity:   r.Quantity,
			UnitPrice:  r.UnitPrice,
			TotalPrice: int64(r.Quantity) * r.UnitPrice,
		})
	}
	for _, s := range booking.Services {
		items = append(items, LineItem{
			Kind:       LineItemService,
			RefID:      s.ServiceID,
			Name:       s.Name,
			Quantity:   s.Quantity,
			UnitPrice:  s.UnitPrice,
			TotalPrice: int64(s.Quantity) * s.UnitPrice,
		})
	}
	if len(items) == 0 {
		items = append(items, LineItem{
			Kind:       LineItemService,
			RefID:      booking.Charter.YachtID,
			Name:       "Yacht charter " + booking.Charter.YachtName,
			Quantity:   1,
			UnitPrice:  booking.Amount,
			TotalPrice: booking.Amount,
		})
	}

	var subtotal int64
	for _, item := range items {
		subtotal += item.TotalPrice
	}

	discount := booking.Discount
	tax := (subtotal - discount) * VATPercent / 100
	total := subtotal - discount + tax
	paid := txn.Amount
	remaining := total - paid

	status := InvoiceUnpaid
	switch {
	case paid >= total:
		status = InvoicePaid
	case paid > 0:
		status = InvoicePartial
	}

	return &Invoice{
		ID:              uuid.New(),
		Number:          NewInvoiceNumber(now),
		BookingID:       booking.ID,
		TransactionID:   txn.ID,
		Customer:        booking.Customer,
		Charter:         booking.Charter,
		Items:           items,
		Subtotal:        subtotal,
		Discount:        discount,
		Tax:             tax,
		Total:           total,
		PaidAmount:      paid,
		RemainingAmount: remaining,
		PaymentStatus:   status,
		IssuedAt:        now,
	}
}
