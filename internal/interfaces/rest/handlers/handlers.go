// Package handlers wires the application services to the HTTP surface.
package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"github.com/minhlq/charterdesk/internal/application"
	"github.com/minhlq/charterdesk/internal/application/services"
	"github.com/minhlq/charterdesk/internal/domain"
	"github.com/minhlq/charterdesk/internal/interfaces/rest"
	"github.com/minhlq/charterdesk/internal/interfaces/rest/middleware"
)

type Handlers struct {
	bookingService   *services.BookingService
	paymentService   *services.PaymentService
	reconcileService *services.ReconcileService
	invoiceService   *services.InvoiceService
	validate         *validator.Validate
	logger           *slog.Logger
}

func NewHandlers(
	bookingService *services.BookingService,
	paymentService *services.PaymentService,
	reconcileService *services.ReconcileService,
	invoiceService *services.InvoiceService,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		bookingService:   bookingService,
		paymentService:   paymentService,
		reconcileService: reconcileService,
		invoiceService:   invoiceService,
		validate:         validator.New(),
		logger:           logger,
	}
}

// RegisterRoutes mounts the API. Gateway callback endpoints are
// unauthenticated; their payloads are signature-verified instead. The
// simulate endpoint is only mounted outside production.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux, auth func(http.Handler) http.Handler, enableSimulation bool) {
	authed := func(fn http.HandlerFunc) http.Handler {
		return auth(fn)
	}

	mux.Handle("POST /api/v1/bookings", authed(h.HandleSubmitConsultation))
	mux.Handle("GET /api/v1/bookings/{id}", authed(h.HandleGetBooking))
	mux.Handle("POST /api/v1/bookings/{id}/request-payment", authed(h.HandleRequestPayment))
	mux.Handle("POST /api/v1/bookings/{id}/cancel", authed(h.HandleCancelBooking))

	mux.Handle("POST /api/v1/payments", authed(h.HandleInitiatePayment))
	mux.Handle("GET /api/v1/transactions/{id}", authed(h.HandleGetTransaction))
	mux.Handle("POST /api/v1/transactions/{id}/cancel", authed(h.HandleCancelTransaction))
	mux.Handle("GET /api/v1/transactions/{id}/invoice", authed(h.HandleGetInvoice))

	mux.HandleFunc("GET /api/v1/callbacks/vnpay/ipn", h.HandleVNPayIPN)
	mux.HandleFunc("POST /api/v1/callbacks/momo/ipn", h.HandleMoMoIPN)
	mux.HandleFunc("POST /api/v1/callbacks/bank/confirm", h.HandleBankConfirm)

	if enableSimulation {
		mux.Handle("POST /api/v1/payments/simulate-success", authed(h.HandleSimulateSuccess))
	}
}

// principal pulls the authenticated identity or writes a 403.
func (h *Handlers) principal(w http.ResponseWriter, r *http.Request) (application.Principal, bool) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		rest.RespondWithError(w, domain.NewAuthorizationError("not authenticated"))
	}
	return principal, ok
}

// pathID parses the {id} path segment or writes a 400.
func (h *Handlers) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		rest.RespondWithError(w, domain.NewValidationError("invalid id format"))
		return uuid.Nil, false
	}
	return id, true
}

// decode reads and validates a JSON request body.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		rest.RespondWithError(w, domain.NewValidationError("cannot read request body"))
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		rest.RespondWithError(w, domain.NewValidationError("malformed JSON body"))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		rest.RespondWithError(w, domain.NewValidationError(err.Error()))
		return false
	}
	return true
}
