package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/minhlq/charterdesk/internal/application/services"
	"github.com/minhlq/charterdesk/internal/domain"
	"github.com/minhlq/charterdesk/internal/interfaces/rest"
)

type roomSelectionRequest struct {
	RoomID    uuid.UUID `json:"room_id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
	UnitPrice int64     `json:"unit_price" validate:"gte=0"`
}

type serviceSelectionRequest struct {
	ServiceID uuid.UUID `json:"service_id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
	UnitPrice int64     `json:"unit_price" validate:"gte=0"`
}

type submitConsultationRequest struct {
	Customer struct {
		CustomerID uuid.UUID `json:"customer_id" validate:"required"`
		FullName   string    `json:"full_name" validate:"required"`
		Email      string    `json:"email" validate:"required,email"`
		Phone      string    `json:"phone" validate:"required"`
	} `json:"customer" validate:"required"`
	Charter struct {
		YachtID       uuid.UUID `json:"yacht_id" validate:"required"`
		YachtName     string    `json:"yacht_name" validate:"required"`
		ScheduleID    uuid.UUID `json:"schedule_id" validate:"required"`
		DepartureDate time.Time `json:"departure_date" validate:"required"`
		ReturnDate    time.Time `json:"return_date" validate:"required"`
	} `json:"charter" validate:"required"`
	Rooms         []roomSelectionRequest    `json:"rooms" validate:"required,min=1,dive"`
	Services      []serviceSelectionRequest `json:"services" validate:"dive"`
	DepositAmount int64                     `json:"deposit_amount" validate:"gte=0"`
}

type cancelBookingRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type bookingResponse struct {
	ID               uuid.UUID                   `json:"id"`
	Code             string                      `json:"code"`
	Customer         domain.CustomerSnapshot     `json:"customer"`
	Charter          domain.CharterSnapshot      `json:"charter"`
	Amount           int64                       `json:"amount"`
	DepositAmount    int64                       `json:"deposit_amount"`
	Discount         int64                       `json:"discount"`
	Rooms            []domain.RoomSelection      `json:"rooms"`
	Services         []domain.ServiceSelection   `json:"services,omitempty"`
	Status           domain.BookingStatus        `json:"status"`
	PaymentStatus    domain.BookingPaymentStatus `json:"payment_status"`
	TotalPaid        int64                       `json:"total_paid"`
	RemainingAmount  int64                       `json:"remaining_amount"`
	ConfirmationCode *string                     `json:"confirmation_code,omitempty"`
	CancelReason     *string                     `json:"cancel_reason,omitempty"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
	ConfirmedAt      *time.Time                  `json:"confirmed_at,omitempty"`
	CancelledAt      *time.Time                  `json:"cancelled_at,omitempty"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:               b.ID,
		Code:             b.Code,
		Customer:         b.Customer,
		Charter:          b.Charter,
		Amount:           b.Amount,
		DepositAmount:    b.DepositAmount,
		Discount:         b.Discount,
		Rooms:            b.Rooms,
		Services:         b.Services,
		Status:           b.Status,
		PaymentStatus:    b.PaymentStatus,
		TotalPaid:        b.TotalPaid,
		RemainingAmount:  b.RemainingAmount,
		ConfirmationCode: b.ConfirmationCode,
		CancelReason:     b.CancelReason,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
		ConfirmedAt:      b.ConfirmedAt,
		CancelledAt:      b.CancelledAt,
	}
}

func (h *Handlers) HandleSubmitConsultation(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req submitConsultationRequest
	if !h.decode(w, r, &req) {
		return
	}

	cmd := services.ConsultationCommand{
		Customer: domain.CustomerSnapshot{
			CustomerID: req.Customer.CustomerID,
			FullName:   req.Customer.FullName,
			Email:      req.Customer.Email,
			Phone:      req.Customer.Phone,
		},
		Charter: domain.CharterSnapshot{
			YachtID:       req.Charter.YachtID,
			YachtName:     req.Charter.YachtName,
			ScheduleID:    req.Charter.ScheduleID,
			DepartureDate: req.Charter.DepartureDate,
			ReturnDate:    req.Charter.ReturnDate,
		},
		DepositAmount: req.DepositAmount,
	}
	for _, room := range req.Rooms {
		cmd.Rooms = append(cmd.Rooms, domain.RoomSelection(room))
	}
	for _, svc := range req.Services {
		cmd.Services = append(cmd.Services, domain.ServiceSelection(svc))
	}

	booking, err := h.bookingService.SubmitConsultation(r.Context(), principal, cmd)
	if err != nil {
		rest.RespondWithError(w, err)
		return
	}
	rest.RespondWithJSON(w, http.StatusCreated, toBookingResponse(booking))
}

func (h *Handlers) HandleGetBooking(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	booking, err := h.bookingService.Get(r.Context(), principal, id)
	if err != nil {
		rest.RespondWithError(w, err)
		return
	}
	rest.RespondWithJSON(w, http.StatusOK, toBookingResponse(booking))
}

func (h *Handlers) HandleRequestPayment(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	booking, err := h.bookingService.RequestPayment(r.Context(), principal, id)
	if err != nil {
		rest.RespondWithError(w, err)
		return
	}
	rest.RespondWithJSON(w, http.StatusOK, toBookingResponse(booking))
}

func (h *Handlers) HandleCancelBooking(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req cancelBookingRequest
	if !h.decode(w, r, &req) {
		return
	}

	booking, err := h.bookingService.Cancel(r.Context(), principal, id, req.Reason)
	if err != nil {
		rest.RespondWithError(w, err)
		return
	}
	rest.RespondWithJSON(w, http.StatusOK, toBookingResponse(booking))
}
