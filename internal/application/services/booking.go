// Package services contains the application services orchestrating the
// booking, ledger, invoice and reconciliation flows.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/minhlq/charterdesk/internal/application"
	"github.com/minhlq/charterdesk/internal/domain"
)

// BookingService owns the booking lifecycle outside of payment reconciliation.
type BookingService struct {
	uow    application.UnitOfWork
	logger *slog.Logger
}

func NewBookingService(uow application.UnitOfWork, logger *slog.Logger) *BookingService {
	return &BookingService{
		uow:    uow,
		logger: logger,
	}
}

// ConsultationCommand carries a customer's charter request. Room and service
// selections are snapshotted onto the booking as-is.
type ConsultationCommand struct {
	Customer      domain.CustomerSnapshot
	Charter       domain.CharterSnapshot
	Rooms         []domain.RoomSelection
	Services      []domain.ServiceSelection
	DepositAmount int64
}

// SubmitConsultation creates a booking in consultation_requested status.
func (s *BookingService) SubmitConsultation(ctx context.Context, principal application.Principal, cmd ConsultationCommand) (*domain.Booking, error) {
	if !principal.IsStaff() && principal.CustomerID != cmd.Customer.CustomerID {
		return nil, domain.NewAuthorizationError("cannot submit a consultation for another customer")
	}

	booking, err := domain.NewBooking(cmd.Customer, cmd.Charter, cmd.Rooms, cmd.Services, cmd.DepositAmount, time.Now())
	if err != nil {
		return nil, err
	}

	err = s.uow.WithTransaction(ctx, func(ctx context.Context, repos application.TxRepos) error {
		return repos.Bookings.Create(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("consultation submitted",
		"booking_code", booking.Code,
		"customer_id", booking.Customer.CustomerID,
		"amount", booking.Amount,
	)
	return booking, nil
}

// Get returns a booking the principal is allowed to see.
func (s *BookingService) Get(ctx context.Context, principal application.Principal, id uuid.UUID) (*domain.Booking, error) {
	var booking *domain.Booking
	err := s.uow.WithTransaction(ctx, func(ctx context.Context, repos application.TxRepos) error {
		var err error
		booking, err = repos.Bookings.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !principal.CanAccessBooking(booking) {
		return nil, domain.NewAuthorizationError("booking belongs to another customer")
	}
	return booking, nil
}

// RequestPayment moves a consultation into pending_payment after the sales
// consultation has settled the amounts. Staff only.
func (s *BookingService) RequestPayment(ctx context.Context, principal application.Principal, id uuid.UUID) (*domain.Booking, error) {
	if !principal.IsStaff() {
		return nil, domain.NewAuthorizationError("only staff can request payment for a booking")
	}

	var booking *domain.Booking
	err := s.uow.WithTransaction(ctx, func(ctx context.Context, repos application.TxRepos) error {
		var err error
		booking, err = repos.Bookings.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := booking.RequestPayment(time.Now()); err != nil {
			return err
		}
		return repos.Bookings.Update(ctx, booking)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// Cancel withdraws a booking that has not been confirmed yet.
func (s *BookingService) Cancel(ctx context.Context, principal application.Principal, id uuid.UUID, reason string) (*domain.Booking, error) {
	var booking *domain.Booking
	err := s.uow.WithTransaction(ctx, func(ctx context.Context, repos application.TxRepos) error {
		var err error
		booking, err = repos.Bookings.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !principal.CanAccessBooking(booking) {
			return domain.NewAuthorizationError("booking belongs to another customer")
		}
		if err := booking.Cancel(reason, time.Now()); err != nil {
			return err
		}
		return repos.Bookings.Update(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking cancelled",
		"booking_code", booking.Code,
		"reason", reason,
	)
	return booking, nil
}
