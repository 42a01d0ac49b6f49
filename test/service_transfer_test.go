package test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"givepay/internal/models"
	"givepay/internal/repository"
	"givepay/internal/service"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type mocks struct {
	repo     *MockLedgerRepository
	creds    *MockCredentialVerifier
	notifier *MockMilestoneNotifier
}

func newServiceWithMocks(t *testing.T) (*service.TransferService, mocks, *gomock.Controller) {
	ctrl := gomock.NewController(t)
	m := mocks{
		repo:     NewMockLedgerRepository(ctrl),
		creds:    NewMockCredentialVerifier(ctrl),
		notifier: NewMockMilestoneNotifier(ctrl),
	}
	svc := service.NewTransferService(m.repo, m.creds, m.notifier, testLogger, 5*time.Second)
	return svc, m, ctrl
}

func outcomeFor(amount decimal.Decimal) *models.TransferOutcome {
	return &models.TransferOutcome{
		DonationID: uuid.New(),
		TransferID: uuid.New(),
		Amount:     amount,
		Status:     "COMPLETED",
		CreatedAt:  time.Now().UTC(),
	}
}

func TestExecute_EmptyKey_NoStoreCalls(t *testing.T) {
	svc, _, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	_, err := svc.Execute(context.Background(), uuid.New(), uuid.New(), decimal.NewFromInt(10), "", "1234")
	assert.ErrorIs(t, err, service.ErrInvalidRequest)
}

func TestExecute_ReplayShortCircuits(t *testing.T) {
	svc, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	recorded := outcomeFor(decimal.NewFromInt(1000))
	m.repo.EXPECT().FindTransferByKey(gomock.Any(), "abc").Return(recorded, nil)

	// Self-transfer with a garbage pin: an already-finalized key skips all
	// validation and returns the recorded outcome.
	sender := uuid.New()
	out, err := svc.Execute(context.Background(), sender, sender, decimal.NewFromInt(-1), "abc", "nope")
	assert.NoError(t, err)
	assert.Equal(t, recorded, out)
}

func TestExecute_ValidationStopsBeforeStore(t *testing.T) {
	svc, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	m.repo.EXPECT().FindTransferByKey(gomock.Any(), "k").Return(nil, repository.ErrKeyNotFound).Times(2)

	_, err := svc.Execute(context.Background(), uuid.New(), uuid.New(), decimal.Zero, "k", "1234")
	assert.ErrorIs(t, err, service.ErrInvalidRequest)

	sender := uuid.New()
	_, err = svc.Execute(context.Background(), sender, sender, decimal.NewFromInt(10), "k", "1234")
	assert.ErrorIs(t, err, service.ErrSelfTransfer)
}

func TestExecute_PinMismatch(t *testing.T) {
	svc, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	sender, receiver := uuid.New(), uuid.New()
	m.repo.EXPECT().FindTransferByKey(gomock.Any(), "k").Return(nil, repository.ErrKeyNotFound)
	m.repo.EXPECT().GetUser(gomock.Any(), sender).Return(&models.User{ID: sender}, nil)
	m.repo.EXPECT().GetUser(gomock.Any(), receiver).Return(&models.User{ID: receiver}, nil)
	m.creds.EXPECT().HasPin(gomock.Any(), sender).Return(true, nil)
	m.creds.EXPECT().VerifyPin(gomock.Any(), sender, "0000").Return(false, nil)

	_, err := svc.Execute(context.Background(), sender, receiver, decimal.NewFromInt(10), "k", "0000")
	assert.ErrorIs(t, err, service.ErrInvalidPin)
}

func TestExecute_PinNotConfigured(t *testing.T) {
	svc, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	sender, receiver := uuid.New(), uuid.New()
	m.repo.EXPECT().FindTransferByKey(gomock.Any(), "k").Return(nil, repository.ErrKeyNotFound)
	m.repo.EXPECT().GetUser(gomock.Any(), sender).Return(&models.User{ID: sender}, nil)
	m.repo.EXPECT().GetUser(gomock.Any(), receiver).Return(&models.User{ID: receiver}, nil)
	m.creds.EXPECT().HasPin(gomock.Any(), sender).Return(false, nil)

	_, err := svc.Execute(context.Background(), sender, receiver, decimal.NewFromInt(10), "k", "1234")
	assert.ErrorIs(t, err, repository.ErrPinNotSet)
}

func TestExecute_InsufficientFundsPreCheck(t *testing.T) {
	svc, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	sender, receiver := uuid.New(), uuid.New()
	amount := decimal.NewFromInt(1000)
	// The shortfall triggers one extra key lookup, in case a concurrent
	// duplicate drained the wallet after the first one.
	m.repo.EXPECT().FindTransferByKey(gomock.Any(), "k").Return(nil, repository.ErrKeyNotFound).Times(2)
	m.repo.EXPECT().GetUser(gomock.Any(), sender).Return(&models.User{ID: sender}, nil)
	m.repo.EXPECT().GetUser(gomock.Any(), receiver).Return(&models.User{ID: receiver}, nil)
	m.creds.EXPECT().HasPin(gomock.Any(), sender).Return(true, nil)
	m.creds.EXPECT().VerifyPin(gomock.Any(), sender, "1234").Return(true, nil)
	m.repo.EXPECT().GetWallet(gomock.Any(), sender).Return(&models.Wallet{UserID: sender, Balance: decimal.NewFromInt(500)}, nil)

	// ExecuteTransfer is never reached.
	_, err := svc.Execute(context.Background(), sender, receiver, amount, "k", "1234")
	assert.ErrorIs(t, err, repository.ErrInsufficientFunds)
}

func expectValidationPass(m mocks, sender, receiver uuid.UUID, balance decimal.Decimal) {
	m.repo.EXPECT().FindTransferByKey(gomock.Any(), gomock.Any()).Return(nil, repository.ErrKeyNotFound)
	m.repo.EXPECT().GetUser(gomock.Any(), sender).Return(&models.User{ID: sender}, nil)
	m.repo.EXPECT().GetUser(gomock.Any(), receiver).Return(&models.User{ID: receiver}, nil)
	m.creds.EXPECT().HasPin(gomock.Any(), sender).Return(true, nil)
	m.creds.EXPECT().VerifyPin(gomock.Any(), sender, gomock.Any()).Return(true, nil)
	m.repo.EXPECT().GetWallet(gomock.Any(), sender).Return(&models.Wallet{UserID: sender, Balance: balance}, nil)
}

func TestExecute_Success_SubmitsNotification(t *testing.T) {
	svc, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	sender, receiver := uuid.New(), uuid.New()
	amount := decimal.NewFromInt(1000)
	out := outcomeFor(amount)

	expectValidationPass(m, sender, receiver, decimal.NewFromInt(5000))
	out.SenderDonationCount = 3
	m.repo.EXPECT().ExecuteTransfer(gomock.Any(), sender, receiver, amount, "k").Return(out, nil)
	m.notifier.EXPECT().Submit(sender, int64(3))

	got, err := svc.Execute(context.Background(), sender, receiver, amount, "k", "1234")
	assert.NoError(t, err)
	assert.Equal(t, out, got)
}

func TestExecute_RaceLoserConvergesOnWinner(t *testing.T) {
	svc, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	sender, receiver := uuid.New(), uuid.New()
	amount := decimal.NewFromInt(1000)
	winner := outcomeFor(amount)

	expectValidationPass(m, sender, receiver, decimal.NewFromInt(5000))
	m.repo.EXPECT().ExecuteTransfer(gomock.Any(), sender, receiver, amount, "k").Return(nil, repository.ErrIdempotencyConflict)
	m.repo.EXPECT().FindTransferByKey(gomock.Any(), "k").Return(winner, nil)
	// No notification for the losing execution.

	got, err := svc.Execute(context.Background(), sender, receiver, amount, "k", "1234")
	assert.NoError(t, err)
	assert.Equal(t, winner, got)
}

func TestExecute_TimeoutSurfacesAsTransferTimeout(t *testing.T) {
	svc, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	sender, receiver := uuid.New(), uuid.New()
	amount := decimal.NewFromInt(1000)

	expectValidationPass(m, sender, receiver, decimal.NewFromInt(5000))
	m.repo.EXPECT().ExecuteTransfer(gomock.Any(), sender, receiver, amount, "k").Return(nil, context.DeadlineExceeded)

	_, err := svc.Execute(context.Background(), sender, receiver, amount, "k", "1234")
	assert.ErrorIs(t, err, service.ErrTransferTimeout)
}

func TestExecute_LockTimeoutSurfacesAsTransferTimeout(t *testing.T) {
	svc, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	sender, receiver := uuid.New(), uuid.New()
	amount := decimal.NewFromInt(1000)

	expectValidationPass(m, sender, receiver, decimal.NewFromInt(5000))
	m.repo.EXPECT().ExecuteTransfer(gomock.Any(), sender, receiver, amount, "k").
		Return(nil, &pgconn.PgError{Code: "55P03"})

	_, err := svc.Execute(context.Background(), sender, receiver, amount, "k", "1234")
	assert.ErrorIs(t, err, service.ErrTransferTimeout)
}

func TestExecute_RetriesSerializationFailures(t *testing.T) {
	svc, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	sender, receiver := uuid.New(), uuid.New()
	amount := decimal.NewFromInt(100)
	out := outcomeFor(amount)

	expectValidationPass(m, sender, receiver, decimal.NewFromInt(500))
	gomock.InOrder(
		m.repo.EXPECT().ExecuteTransfer(gomock.Any(), sender, receiver, amount, "k").
			Return(nil, &pgconn.PgError{Code: "40001"}),
		m.repo.EXPECT().ExecuteTransfer(gomock.Any(), sender, receiver, amount, "k").
			Return(out, nil),
	)
	m.notifier.EXPECT().Submit(sender, gomock.Any())

	got, err := svc.Execute(context.Background(), sender, receiver, amount, "k", "1234")
	assert.NoError(t, err)
	assert.Equal(t, out, got)
}

func TestExecute_RetryExhaustionSurfacesAsTransferTimeout(t *testing.T) {
	svc, m, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	sender, receiver := uuid.New(), uuid.New()
	amount := decimal.NewFromInt(100)

	expectValidationPass(m, sender, receiver, decimal.NewFromInt(500))
	m.repo.EXPECT().ExecuteTransfer(gomock.Any(), sender, receiver, amount, "k").
		Return(nil, &pgconn.PgError{Code: "40001"}).
		Times(3)

	// Every attempt hits serialization contention; the caller gets a
	// retryable timeout, not the raw driver error.
	_, err := svc.Execute(context.Background(), sender, receiver, amount, "k", "1234")
	assert.ErrorIs(t, err, service.ErrTransferTimeout)
}
