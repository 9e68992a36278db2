package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/minhlq/charterdesk/internal/application/services"
	"github.com/minhlq/charterdesk/internal/domain"
	"github.com/minhlq/charterdesk/internal/interfaces/rest"
)

type initiatePaymentRequest struct {
	BookingID uuid.UUID `json:"booking_id" validate:"required"`
	Type      string    `json:"type" validate:"required,oneof=deposit full_payment final_payment"`
	Method    string    `json:"method" validate:"required,oneof=vnpay momo bank_transfer"`
}

type transactionResponse struct {
	ID            uuid.UUID                `json:"id"`
	Ref           string                   `json:"ref"`
	BookingID     uuid.UUID                `json:"booking_id"`
	Amount        int64                    `json:"amount"`
	Type          domain.TransactionType   `json:"type"`
	Method        domain.PaymentMethod     `json:"method"`
	Status        domain.TransactionStatus `json:"status"`
	GatewayTxnID  *string                  `json:"gateway_txn_id,omitempty"`
	FailureReason *string                  `json:"failure_reason,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	CompletedAt   *time.Time               `json:"completed_at,omitempty"`
	ExpiresAt     *time.Time               `json:"expires_at,omitempty"`
}

type paymentIntentResponse struct {
	Transaction transactionResponse `json:"transaction"`
	RedirectURL string              `json:"redirect_url,omitempty"`
	Metadata    map[string]string   `json:"metadata,omitempty"`
}

type invoiceResponse struct {
	ID              uuid.UUID                   `json:"id"`
	Number          string                      `json:"number"`
	BookingID       uuid.UUID                   `json:"booking_id"`
	TransactionID   uuid.UUID                   `json:"transaction_id"`
	Customer        domain.CustomerSnapshot     `json:"customer"`
	Charter         domain.CharterSnapshot      `json:"charter"`
	Items           []domain.LineItem           `json:"items"`
	Subtotal        int64                       `json:"subtotal"`
	Discount        int64                       `json:"discount"`
	Tax             int64                       `json:"tax"`
	Total           int64                       `json:"total"`
	PaidAmount      int64                       `json:"paid_amount"`
	RemainingAmount int64                       `json:"remaining_amount"`
	PaymentStatus   domain.InvoicePaymentStatus `json:"payment_status"`
	IssuedAt        time.Time                   `json:"issued_at"`
}

func toTransactionResponse(t *domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:            t.ID,
		Ref:           t.Ref,
		BookingID:     t.BookingID,
		Amount:        t.Amount,
		Type:          t.Type,
		Method:        t.Method,
		Status:        t.Status,
		GatewayTxnID:  t.GatewayTxnID,
		FailureReason: t.FailureReason,
		CreatedAt:     t.CreatedAt,
		CompletedAt:   t.CompletedAt,
		ExpiresAt:     t.ExpiresAt,
	}
}

func toInvoiceResponse(inv *domain.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:              inv.ID,
		Number:          inv.Number,
		BookingID:       inv.BookingID,
		TransactionID:   inv.TransactionID,
		Customer:        inv.Customer,
		Charter:         inv.Charter,
		Items:           inv.Items,
		Subtotal:        inv.Subtotal,
		Discount:        inv.Discount,
		Tax:             inv.Tax,
		Total:           inv.Total,
		PaidAmount:      inv.PaidAmount,
		RemainingAmount: inv.RemainingAmount,
		PaymentStatus:   inv.PaymentStatus,
		IssuedAt:        inv.IssuedAt,
	}
}

func (h *Handlers) HandleInitiatePayment(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req initiatePaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	intent, err := h.paymentService.Initiate(r.Context(), principal, services.InitiatePaymentCommand{
		BookingID: req.BookingID,
		Type:      domain.TransactionType(req.Type),
		Method:    domain.PaymentMethod(req.Method),
	})
	if err != nil {
		rest.RespondWithError(w, err)
		return
	}

	rest.RespondWithJSON(w, http.StatusCreated, paymentIntentResponse{
		Transaction: toTransactionResponse(intent.Transaction),
		RedirectURL: intent.Instruction.RedirectURL,
		Metadata:    intent.Instruction.Metadata,
	})
}

func (h *Handlers) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	txn, err := h.paymentService.GetTransaction(r.Context(), principal, id)
	if err != nil {
		rest.RespondWithError(w, err)
		return
	}
	rest.RespondWithJSON(w, http.StatusOK, toTransactionResponse(txn))
}

func (h *Handlers) HandleCancelTransaction(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	txn, err := h.paymentService.CancelTransaction(r.Context(), principal, id)
	if err != nil {
		rest.RespondWithError(w, err)
		return
	}
	rest.RespondWithJSON(w, http.StatusOK, toTransactionResponse(txn))
}

func (h *Handlers) HandleGetInvoice(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetByTransaction(r.Context(), principal, id)
	if err != nil {
		rest.RespondWithError(w, err)
		return
	}
	rest.RespondWithJSON(w, http.StatusOK, toInvoiceResponse(invoice))
}
