package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/minhlq/charterdesk/internal/domain"
)

func bookingToModel(b *domain.Booking) (*BookingModel, error) {
	rooms, err := json.Marshal(b.Rooms)
	if err != nil {
		return nil, fmt.Errorf("marshal room selections: %w", err)
	}
	services, err := json.Marshal(b.Services)
	if err != nil {
		return nil, fmt.Errorf("marshal service selections: %w", err)
	}

	return &BookingModel{
		ID:               b.ID,
		Code:             b.Code,
		CustomerID:       b.Customer.CustomerID,
		CustomerName:     b.Customer.FullName,
		CustomerEmail:    b.Customer.Email,
		CustomerPhone:    b.Customer.Phone,
		YachtID:          b.Charter.YachtID,
		YachtName:        b.Charter.YachtName,
		ScheduleID:       b.Charter.ScheduleID,
		DepartureDate:    b.Charter.DepartureDate,
		ReturnDate:       b.Charter.ReturnDate,
		Amount:           b.Amount,
		DepositAmount:    b.DepositAmount,
		Discount:         b.Discount,
		Rooms:            rooms,
		Services:         services,
		Status:           string(b.Status),
		PaymentStatus:    string(b.PaymentStatus),
		TotalPaid:        b.TotalPaid,
		RemainingAmount:  b.RemainingAmount,
		ConfirmationCode: b.ConfirmationCode,
		CancelReason:     b.CancelReason,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
		ConfirmedAt:      b.ConfirmedAt,
		CancelledAt:      b.CancelledAt,
	}, nil
}

func bookingToDomain(m *BookingModel) (*domain.Booking, error) {
	var rooms []domain.RoomSelection
	if err := json.Unmarshal(m.Rooms, &rooms); err != nil {
		return nil, fmt.Errorf("unmarshal room selections: %w", err)
	}
	var services []domain.ServiceSelection
	if err := json.Unmarshal(m.Services, &services); err != nil {
		return nil, fmt.Errorf("unmarshal service selections: %w", err)
	}

	return &domain.Booking{
		ID:   m.ID,
		Code: m.Code,
		Customer: domain.CustomerSnapshot{
			CustomerID: m.CustomerID,
			FullName:   m.CustomerName,
			Email:      m.CustomerEmail,
			Phone:      m.CustomerPhone,
		},
		Charter: domain.CharterSnapshot{
			YachtID:       m.YachtID,
			YachtName:     m.YachtName,
			ScheduleID:    m.ScheduleID,
			DepartureDate: m.DepartureDate,
			ReturnDate:    m.ReturnDate,
		},
		Amount:           m.Amount,
		DepositAmount:    m.DepositAmount,
		Discount:         m.Discount,
		Rooms:            rooms,
		Services:         services,
		Status:           domain.BookingStatus(m.Status),
		PaymentStatus:    domain.BookingPaymentStatus(m.PaymentStatus),
		TotalPaid:        m.TotalPaid,
		RemainingAmount:  m.RemainingAmount,
		ConfirmationCode: m.ConfirmationCode,
		CancelReason:     m.CancelReason,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		ConfirmedAt:      m.ConfirmedAt,
		CancelledAt:      m.CancelledAt,
	}, nil
}

func transactionToModel(t *domain.Transaction) *TransactionModel {
	var raw *string
	if len(t.GatewayResponse) > 0 {
		s := string(t.GatewayResponse)
		raw = &s
	}
	return &TransactionModel{
		ID:              t.ID,
		Ref:             t.Ref,
		BookingID:       t.BookingID,
		Amount:          t.Amount,
		Type:            string(t.Type),
		Method:          string(t.Method),
		Status:          string(t.Status),
		GatewayTxnID:    t.GatewayTxnID,
		GatewayResponse: raw,
		FailureReason:   t.FailureReason,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		CompletedAt:     t.CompletedAt,
		ExpiresAt:       t.ExpiresAt,
	}
}

func transactionToDomain(m *TransactionModel) *domain.Transaction {
	var raw []byte
	if m.GatewayResponse != nil {
		raw = []byte(*m.GatewayResponse)
	}
	return &domain.Transaction{
		ID:              m.ID,
		Ref:             m.Ref,
		BookingID:       m.BookingID,
		Amount:          m.Amount,
		Type:            domain.TransactionType(m.Type),
		Method:          domain.PaymentMethod(m.Method),
		Status:          domain.TransactionStatus(m.Status),
		GatewayTxnID:    m.GatewayTxnID,
		GatewayResponse: raw,
		FailureReason:   m.FailureReason,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		CompletedAt:     m.CompletedAt,
		ExpiresAt:       m.ExpiresAt,
	}
}

func invoiceToModel(inv *domain.Invoice) (*InvoiceModel, error) {
	customer, err := json.Marshal(inv.Customer)
	if err != nil {
		return nil, fmt.Errorf("marshal customer snapshot: %w", err)
	}
	charter, err := json.Marshal(inv.Charter)
	if err != nil {
		return nil, fmt.Errorf("marshal charter snapshot: %w", err)
	}
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return nil, fmt.Errorf("marshal line items: %w", err)
	}

	return &InvoiceModel{
		ID:              inv.ID,
		Number:          inv.Number,
		BookingID:       inv.BookingID,
		TransactionID:   inv.TransactionID,
		Customer:        customer,
		Charter:         charter,
		Items:           items,
		Subtotal:        inv.Subtotal,
		Discount:        inv.Discount,
		Tax:             inv.Tax,
		Total:           inv.Total,
		PaidAmount:      inv.PaidAmount,
		RemainingAmount: inv.RemainingAmount,
		PaymentStatus:   string(inv.PaymentStatus),
		IssuedAt:        inv.IssuedAt,
	}, nil
}

func invoiceToDomain(m *InvoiceModel) (*domain.Invoice, error) {
	var customer domain.CustomerSnapshot
	if err := json.Unmarshal(m.Customer, &customer); err != nil {
		return nil, fmt.Errorf("unmarshal customer snapshot: %w", err)
	}
	var charter domain.CharterSnapshot
	if err := json.Unmarshal(m.Charter, &charter); err != nil {
		return nil, fmt.Errorf("unmarshal charter snapshot: %w", err)
	}
	var items []domain.LineItem
	if err := json.Unmarshal(m.Items, &items); err != nil {
		return nil, fmt.Errorf("unmarshal line items: %w", err)
	}

	return &domain.Invoice{
		ID:              m.ID,
		Number:          m.Number,
		BookingID:       m.BookingID,
		TransactionID:   m.TransactionID,
		Customer:        customer,
		Charter:         charter,
		Items:           items,
		Subtotal:        m.Subtotal,
		Discount:        m.Discount,
		Tax:             m.Tax,
		Total:           m.Total,
		PaidAmount:      m.PaidAmount,
		RemainingAmount: m.RemainingAmount,
		PaymentStatus:   domain.InvoicePaymentStatus(m.PaymentStatus),
		IssuedAt:        m.IssuedAt,
	}, nil
}
