package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/minhlq/charterdesk/internal/application"
	"github.com/minhlq/charterdesk/internal/application/services"
	"github.com/minhlq/charterdesk/internal/application/services/testhelpers"
	"github.com/minhlq/charterdesk/internal/domain"
	"github.com/minhlq/charterdesk/internal/infrastructure/persistence/postgres"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ReconcileIntegrationTestSuite struct {
	suite.Suite
	testDB      *testhelpers.TestDatabase
	coordinator *postgres.TransactionCoordinator
	gateway     *mockGateway
	service     *services.ReconcileService
}

func TestReconcileIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(ReconcileIntegrationTestSuite))
}

func (s *ReconcileIntegrationTestSuite) SetupSuite() {
	s.testDB = testhelpers.SetupTestDatabase(s.T())
	s.coordinator = postgres.NewTransactionCoordinator(s.testDB.DB)
}

func (s *ReconcileIntegrationTestSuite) TearDownSuite() {
	s.testDB.Cleanup(s.T())
}

func (s *ReconcileIntegrationTestSuite) SetupTest() {
	s.testDB.CleanTables(s.T())
	s.gateway = &mockGateway{method: domain.MethodVNPay}
	registry := application.GatewayRegistry{domain.MethodVNPay: s.gateway}
	s.service = services.NewReconcileService(s.coordinator, registry, nil, testLogger())
}

// seedBookingAndTransaction persists a pending_payment booking with a
// pending deposit transaction.
func (s *ReconcileIntegrationTestSuite) seedBookingAndTransaction() (*domain.Booking, *domain.Transaction) {
	t := s.T()
	ctx := context.Background()
	now := time.Now()

	booking, err := domain.NewBooking(
		domain.CustomerSnapshot{CustomerID: uuid.New(), FullName: "Nguyen Van A", Email: "a@example.com", Phone: "+84901234567"},
		domain.CharterSnapshot{YachtID: uuid.New(), YachtName: "Paradise Elegance", ScheduleID: uuid.New(), DepartureDate: now.Add(720 * time.Hour), ReturnDate: now.Add(768 * time.Hour)},
		[]domain.RoomSelection{
			{RoomID: uuid.New(), Name: "Deluxe Ocean View", Quantity: 2, UnitPrice: 400_000},
			{RoomID: uuid.New(), Name: "Suite", Quantity: 1, UnitPrice: 200_000},
		},
		nil, 0, now)
	require.NoError(t, err)
	require.NoError(t, booking.RequestPayment(now))

	txn, err := domain.NewPendingTransaction(booking.ID, domain.TransactionDeposit, domain.MethodVNPay, booking.DepositAmount, now.Add(15*time.Minute), now)
	require.NoError(t, err)

	err = s.coordinator.WithTransaction(ctx, func(ctx context.Context, repos application.TxRepos) error {
		if err := repos.Bookings.Create(ctx, booking); err != nil {
			return err
		}
		return repos.Transactions.Create(ctx, txn)
	})
	require.NoError(t, err)
	return booking, txn
}

func (s *ReconcileIntegrationTestSuite) scriptSuccess(txn *domain.Transaction) {
	callback := &application.CallbackResult{
		ReferenceCode: txn.Ref,
		GatewayAmount: txn.Amount,
		Success:       true,
		GatewayTxnID:  "VNP-" + txn.Ref,
	}
	s.gateway.ParseCallbackFn = func(raw []byte) (*application.CallbackResult, error) {
		return callback, nil
	}
}

func (s *ReconcileIntegrationTestSuite) Test_DepositCallback_ConfirmsBookingEndToEnd() {
	t := s.T()
	ctx := context.Background()
	booking, txn := s.seedBookingAndTransaction()
	s.scriptSuccess(txn)

	result, err := s.service.ProcessCallback(ctx, domain.MethodVNPay, []byte("payload"))
	require.NoError(t, err)
	require.Equal(t, services.OutcomeCompleted, result.Outcome)
	require.True(t, result.BookingConfirmed)

	err = s.coordinator.WithTransaction(ctx, func(ctx context.Context, repos application.TxRepos) error {
		stored, err := repos.Transactions.FindByRef(ctx, txn.Ref)
		require.NoError(t, err)
		require.Equal(t, domain.TransactionCompleted, stored.Status)

		updated, err := repos.Bookings.FindByID(ctx, booking.ID)
		require.NoError(t, err)
		require.Equal(t, domain.BookingConfirmed, updated.Status)
		require.Equal(t, domain.PaymentDepositPaid, updated.PaymentStatus)
		require.Equal(t, int64(200_000), updated.TotalPaid)
		require.NotNil(t, updated.ConfirmationCode)

		invoice, err := repos.Invoices.FindByTransactionID(ctx, stored.ID)
		require.NoError(t, err)
		require.Equal(t, stored.Amount, invoice.PaidAmount)
		return nil
	})
	require.NoError(t, err)

	var rooms int
	err = s.testDB.DB.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM booking_rooms WHERE booking_id = $1", booking.ID).Scan(&rooms)
	require.NoError(t, err)
	require.Equal(t, 2, rooms)
}

func (s *ReconcileIntegrationTestSuite) Test_DuplicateCallback_DoesNotDoubleProcess() {
	t := s.T()
	ctx := context.Background()
	booking, txn := s.seedBookingAndTransaction()
	s.scriptSuccess(txn)

	first, err := s.service.ProcessCallback(ctx, domain.MethodVNPay, []byte("payload"))
	require.NoError(t, err)
	require.Equal(t, services.OutcomeCompleted, first.Outcome)

	second, err := s.service.ProcessCallback(ctx, domain.MethodVNPay, []byte("payload"))
	require.NoError(t, err)
	require.Equal(t, services.OutcomeDuplicate, second.Outcome)

	var invoices int
	err = s.testDB.DB.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM invoices WHERE booking_id = $1", booking.ID).Scan(&invoices)
	require.NoError(t, err)
	require.Equal(t, 1, invoices)

	var rooms int
	err = s.testDB.DB.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM booking_rooms WHERE booking_id = $1", booking.ID).Scan(&rooms)
	require.NoError(t, err)
	require.Equal(t, 2, rooms)
}

// Two identical callbacks race; the row lock serializes them so exactly one
// completes the transaction and the other observes a finalized record.
func (s *ReconcileIntegrationTestSuite) Test_ConcurrentCallbacks_ExactlyOneCompletes() {
	t := s.T()
	ctx := context.Background()
	booking, txn := s.seedBookingAndTransaction()
	s.scriptSuccess(txn)

	const callers = 4
	outcomes := make(chan services.ReconcileOutcome, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.service.ProcessCallback(ctx, domain.MethodVNPay, []byte("payload"))
			if err == nil {
				outcomes <- result.Outcome
			}
		}()
	}
	wg.Wait()
	close(outcomes)

	var completed, duplicate int
	for outcome := range outcomes {
		switch outcome {
		case services.OutcomeCompleted:
			completed++
		case services.OutcomeDuplicate:
			duplicate++
		}
	}
	require.Equal(t, 1, completed)
	require.Equal(t, callers-1, duplicate)

	var invoices int
	err := s.testDB.DB.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM invoices WHERE booking_id = $1", booking.ID).Scan(&invoices)
	require.NoError(t, err)
	require.Equal(t, 1, invoices)

	err = s.coordinator.WithTransaction(ctx, func(ctx context.Context, repos application.TxRepos) error {
		updated, err := repos.Bookings.FindByID(ctx, booking.ID)
		require.NoError(t, err)
		require.Equal(t, int64(200_000), updated.TotalPaid)
		return nil
	})
	require.NoError(t, err)
}

func (s *ReconcileIntegrationTestSuite) Test_SecondPendingDeposit_HitsUniqueIndex() {
	t := s.T()
	ctx := context.Background()
	booking, _ := s.seedBookingAndTransaction()

	now := time.Now()
	another, err := domain.NewPendingTransaction(booking.ID, domain.TransactionDeposit, domain.MethodVNPay, booking.DepositAmount, now.Add(15*time.Minute), now)
	require.NoError(t, err)

	err = s.coordinator.WithTransaction(ctx, func(ctx context.Context, repos application.TxRepos) error {
		return repos.Transactions.Create(ctx, another)
	})
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, domain.ErrCodeConflict, domainErr.Code)
}
