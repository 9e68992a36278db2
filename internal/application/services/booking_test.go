package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/minhlq/charterdesk/internal/application/services"
	"github.com/minhlq/charterdesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func consultationCommand(customerID uuid.UUID) services.ConsultationCommand {
	now := time.Now()
	return services.ConsultationCommand{
		Customer: domain.CustomerSnapshot{
			CustomerID: customerID,
			FullName:   "Tran Thi B",
			Email:      "b.tran@example.com",
			Phone:      "+84907654321",
		},
		Charter: domain.CharterSnapshot{
			YachtID:       uuid.New(),
			YachtName:     "Heritage Cruise",
			ScheduleID:    uuid.New(),
			DepartureDate: now.Add(14 * 24 * time.Hour),
			ReturnDate:    now.Add(16 * 24 * time.Hour),
		},
		Rooms: []domain.RoomSelection{
			{RoomID: uuid.New(), Name: "Premium Balcony", Quantity: 1, UnitPrice: 3_500_000},
		},
	}
}

func TestSubmitConsultation(t *testing.T) {
	t.Run("creates a consultation-stage booking", func(t *testing.T) {
		store := newMemStore()
		svc := services.NewBookingService(store, testLogger())
		customerID := uuid.New()

		booking, err := svc.SubmitConsultation(context.Background(), customerPrincipal(customerID), consultationCommand(customerID))

		require.NoError(t, err)
		assert.Equal(t, domain.BookingConsultationRequested, booking.Status)
		assert.Equal(t, int64(3_500_000), booking.Amount)
		assert.NotNil(t, store.bookingByID(booking.ID))
	})

	t.Run("customers cannot book for someone else", func(t *testing.T) {
		store := newMemStore()
		svc := services.NewBookingService(store, testLogger())

		_, err := svc.SubmitConsultation(context.Background(), customerPrincipal(uuid.New()), consultationCommand(uuid.New()))

		require.Error(t, err)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeAuthorization, domainErr.Code)
	})

	t.Run("staff can book on a customer's behalf", func(t *testing.T) {
		store := newMemStore()
		svc := services.NewBookingService(store, testLogger())

		_, err := svc.SubmitConsultation(context.Background(), staffPrincipal(), consultationCommand(uuid.New()))

		require.NoError(t, err)
	})
}

func TestBookingRequestPaymentService(t *testing.T) {
	t.Run("staff moves a consultation to pending payment", func(t *testing.T) {
		store := newMemStore()
		svc := services.NewBookingService(store, testLogger())
		customerID := uuid.New()
		booking, err := svc.SubmitConsultation(context.Background(), customerPrincipal(customerID), consultationCommand(customerID))
		require.NoError(t, err)

		updated, err := svc.RequestPayment(context.Background(), staffPrincipal(), booking.ID)

		require.NoError(t, err)
		assert.Equal(t, domain.BookingPendingPayment, updated.Status)
	})

	t.Run("customers cannot request payment", func(t *testing.T) {
		store := newMemStore()
		svc := services.NewBookingService(store, testLogger())
		customerID := uuid.New()
		booking, err := svc.SubmitConsultation(context.Background(), customerPrincipal(customerID), consultationCommand(customerID))
		require.NoError(t, err)

		_, err = svc.RequestPayment(context.Background(), customerPrincipal(customerID), booking.ID)

		require.Error(t, err)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeAuthorization, domainErr.Code)
	})
}

func TestBookingCancelService(t *testing.T) {
	store := newMemStore()
	svc := services.NewBookingService(store, testLogger())
	customerID := uuid.New()
	booking, err := svc.SubmitConsultation(context.Background(), customerPrincipal(customerID), consultationCommand(customerID))
	require.NoError(t, err)

	t.Run("other customers cannot cancel", func(t *testing.T) {
		_, err := svc.Cancel(context.Background(), customerPrincipal(uuid.New()), booking.ID, "not mine")
		require.Error(t, err)
	})

	t.Run("owner cancels with a reason", func(t *testing.T) {
		cancelled, err := svc.Cancel(context.Background(), customerPrincipal(customerID), booking.ID, "changed plans")

		require.NoError(t, err)
		assert.Equal(t, domain.BookingCancelled, cancelled.Status)
		require.NotNil(t, cancelled.CancelReason)
		assert.Equal(t, "changed plans", *cancelled.CancelReason)
	})

	t.Run("unknown booking", func(t *testing.T) {
		_, err := svc.Cancel(context.Background(), staffPrincipal(), uuid.New(), "whatever")

		require.Error(t, err)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeNotFound, domainErr.Code)
	})
}
