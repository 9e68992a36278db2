package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/minhlq/charterdesk/internal/application/services"
	"github.com/minhlq/charterdesk/internal/domain"
	"github.com/minhlq/charterdesk/internal/interfaces/rest"
)

// vnpayAck is VNPay's required IPN acknowledgment body. Returning RspCode 00
// tells VNPay to stop retrying; anything else schedules a redelivery.
type vnpayAck struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

func writeVNPayAck(w http.ResponseWriter, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"RspCode":"` + code + `","Message":"` + message + `"}`))
}

// HandleVNPayIPN processes VNPay's server-to-server notification. The raw
// query string is the signed payload.
func (h *Handlers) HandleVNPayIPN(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconcileService.ProcessCallback(r.Context(), domain.MethodVNPay, []byte(r.URL.RawQuery))
	if err != nil {
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			switch domainErr.Code {
			case domain.ErrCodeAuthorization:
				writeVNPayAck(w, "97", "Invalid signature")
				return
			case domain.ErrCodeNotFound:
				writeVNPayAck(w, "01", "Order not found")
				return
			}
		}
		h.logger.Error("vnpay ipn processing failed", "error", err)
		writeVNPayAck(w, "99", "Unknown error")
		return
	}

	switch result.Outcome {
	case services.OutcomeCompleted, services.OutcomeFailed:
		writeVNPayAck(w, "00", "Confirm success")
	case services.OutcomeDuplicate:
		writeVNPayAck(w, "02", "Order already confirmed")
	case services.OutcomeAmountMismatch:
		writeVNPayAck(w, "04", "Invalid amount")
	default:
		writeVNPayAck(w, "99", "Unknown error")
	}
}

// HandleMoMoIPN processes MoMo's notification. MoMo expects 204 No Content
// as the acknowledgment regardless of outcome; a non-2xx triggers a retry.
func (h *Handlers) HandleMoMoIPN(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	_, err = h.reconcileService.ProcessCallback(r.Context(), domain.MethodMoMo, body)
	if err != nil {
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) && domainErr.Code != domain.ErrCodeInternal {
			// A bad payload will not get better on retry; acknowledge it.
			h.logger.Warn("momo ipn rejected", "code", domainErr.Code, "error", err)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.logger.Error("momo ipn processing failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleBankConfirm records an operator-confirmed manual bank transfer. The
// payload carries its own HMAC signature in place of interactive auth.
func (h *Handlers) HandleBankConfirm(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		rest.RespondWithError(w, domain.NewValidationError("cannot read request body"))
		return
	}

	result, err := h.reconcileService.ProcessCallback(r.Context(), domain.MethodBankTransfer, body)
	if err != nil {
		rest.RespondWithError(w, err)
		return
	}
	rest.RespondWithJSON(w, http.StatusOK, reconcileResponse(result))
}

type simulateSuccessRequest struct {
	TransactionRef string `json:"transaction_ref" validate:"required"`
}

// HandleSimulateSuccess drives the reconciliation workflow with a synthetic
// successful callback. Only mounted outside production.
func (h *Handlers) HandleSimulateSuccess(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req simulateSuccessRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.reconcileService.SimulateSuccess(r.Context(), principal, req.TransactionRef)
	if err != nil {
		rest.RespondWithError(w, err)
		return
	}
	rest.RespondWithJSON(w, http.StatusOK, reconcileResponse(result))
}

type reconcileResponseBody struct {
	Outcome          services.ReconcileOutcome `json:"outcome"`
	Transaction      transactionResponse       `json:"transaction"`
	Booking          *bookingResponse          `json:"booking,omitempty"`
	Invoice          *invoiceResponse          `json:"invoice,omitempty"`
	BookingConfirmed bool                      `json:"booking_confirmed"`
}

func reconcileResponse(result *services.ReconcileResult) reconcileResponseBody {
	body := reconcileResponseBody{
		Outcome:          result.Outcome,
		Transaction:      toTransactionResponse(result.Transaction),
		BookingConfirmed: result.BookingConfirmed,
	}
	if result.Booking != nil {
		b := toBookingResponse(result.Booking)
		body.Booking = &b
	}
	if result.Invoice != nil {
		inv := toInvoiceResponse(result.Invoice)
		body.Invoice = &inv
	}
	return body
}
