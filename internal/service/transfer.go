package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"givepay/internal/models"
	"givepay/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=transfer.go -destination=../../test/mock_transfer.go -package=test

var (
	ErrInvalidRequest  = errors.New("invalid transfer request")
	ErrSelfTransfer    = errors.New("self transfer not allowed")
	ErrInvalidPin      = errors.New("invalid transaction pin")
	ErrTransferTimeout = errors.New("transfer timed out")
)

type LedgerRepository interface {
	ExecuteTransfer(ctx context.Context, senderID, receiverID uuid.UUID, amount decimal.Decimal, idempotencyKey string) (*models.TransferOutcome, error)
	FindTransferByKey(ctx context.Context, idempotencyKey string) (*models.TransferOutcome, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	GetWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
}

type CredentialVerifier interface {
	HasPin(ctx context.Context, userID uuid.UUID) (bool, error)
	VerifyPin(ctx context.Context, userID uuid.UUID, rawPin string) (bool, error)
}

// MilestoneNotifier receives the sender of every committed transfer together
// with the donation count captured at commit. Submit must not block and its
// outcome never affects the transfer result.
type MilestoneNotifier interface {
	Submit(senderID uuid.UUID, donationCount int64)
}

type TransferService struct {
	repo        LedgerRepository
	creds       CredentialVerifier
	notifier    MilestoneNotifier
	logger      *slog.Logger
	execTimeout time.Duration
	maxRetries  int
}

func NewTransferService(
	repo LedgerRepository,
	creds CredentialVerifier,
	notifier MilestoneNotifier,
	logger *slog.Logger,
	execTimeout time.Duration,
) *TransferService {
	return &TransferService{
		repo:        repo,
		creds:       creds,
		notifier:    notifier,
		logger:      logger,
		execTimeout: execTimeout,
		maxRetries:  3,
	}
}

// Execute applies a donation transfer at most once per idempotency key.
// A replayed key short-circuits to the recorded outcome without re-validating
// anything; a concurrent duplicate that loses the commit race converges on the
// winner's outcome instead of erroring.
func (s *TransferService) Execute(
	ctx context.Context,
	senderID, receiverID uuid.UUID,
	amount decimal.Decimal,
	idempotencyKey string,
	rawPin string,
) (*models.TransferOutcome, error) {
	if strings.TrimSpace(idempotencyKey) == "" {
		return nil, ErrInvalidRequest
	}

	out, err := s.repo.FindTransferByKey(ctx, idempotencyKey)
	if err == nil {
		s.logger.Info("Replayed transfer served from idempotency record",
			slog.String("idempotency_key", idempotencyKey),
		)
		return out, nil
	}
	if !errors.Is(err, repository.ErrKeyNotFound) {
		s.logger.Error("Idempotency lookup failed",
			slog.String("idempotency_key", idempotencyKey),
			slog.Any("err", err),
		)
		return nil, err
	}

	if !amount.IsPositive() {
		return nil, ErrInvalidRequest
	}
	if senderID == receiverID {
		return nil, ErrSelfTransfer
	}

	if _, err := s.repo.GetUser(ctx, senderID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetUser(ctx, receiverID); err != nil {
		return nil, err
	}

	hasPin, err := s.creds.HasPin(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if !hasPin {
		return nil, repository.ErrPinNotSet
	}
	pinOK, err := s.creds.VerifyPin(ctx, senderID, rawPin)
	if err != nil {
		return nil, err
	}
	if !pinOK {
		s.logger.Warn("Transfer rejected: pin mismatch",
			slog.String("sender_id", senderID.String()),
		)
		return nil, ErrInvalidPin
	}

	// Cheap pre-check; the atomic unit re-verifies under the row lock.
	wallet, err := s.repo.GetWallet(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if wallet.Balance.LessThan(amount) {
		// A drained balance may be the footprint of a concurrent duplicate
		// that already committed this key. Converge on its outcome if so.
		if out, ferr := s.repo.FindTransferByKey(ctx, idempotencyKey); ferr == nil {
			return out, nil
		}
		return nil, repository.ErrInsufficientFunds
	}

	var lastErr error
	for i := 0; i < s.maxRetries; i++ {
		out, err := s.executeOnce(ctx, senderID, receiverID, amount, idempotencyKey)
		if err == nil {
			s.notifier.Submit(senderID, out.SenderDonationCount)
			return out, nil
		}

		if errors.Is(err, repository.ErrIdempotencyConflict) {
			// Another execution with this key committed first; its outcome
			// is the outcome.
			out, ferr := s.repo.FindTransferByKey(ctx, idempotencyKey)
			if ferr != nil {
				s.logger.Error("Failed to re-read transfer after idempotency race",
					slog.String("idempotency_key", idempotencyKey),
					slog.Any("err", ferr),
				)
				return nil, ferr
			}
			return out, nil
		}
		if isTimeoutError(err) {
			s.logger.Warn("Transfer timed out, caller may retry with the same key",
				slog.String("idempotency_key", idempotencyKey),
				slog.Any("err", err),
			)
			return nil, ErrTransferTimeout
		}
		if isRetryableError(err) {
			s.logger.Warn("Retrying transfer",
				slog.String("idempotency_key", idempotencyKey),
				slog.Int("attempt", i+1),
				slog.Any("err", err),
			)
			time.Sleep(time.Duration(1<<i) * 10 * time.Millisecond)
			lastErr = err
			continue
		}
		if errors.Is(err, repository.ErrInsufficientFunds) || errors.Is(err, repository.ErrWalletNotFound) {
			return nil, err
		}
		s.logger.Error("Transfer failed",
			slog.String("sender_id", senderID.String()),
			slog.String("idempotency_key", idempotencyKey),
			slog.Any("err", err),
		)
		return nil, err
	}
	// Exhausted retries on transient store contention: surface as a timeout so
	// the caller knows a retry with the same key is safe.
	s.logger.Error("Transfer failed after retries",
		slog.String("idempotency_key", idempotencyKey),
		slog.Any("err", lastErr),
	)
	return nil, ErrTransferTimeout
}

func (s *TransferService) executeOnce(
	ctx context.Context,
	senderID, receiverID uuid.UUID,
	amount decimal.Decimal,
	idempotencyKey string,
) (*models.TransferOutcome, error) {
	if s.execTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.execTimeout)
		defer cancel()
	}
	return s.repo.ExecuteTransfer(ctx, senderID, receiverID, amount, idempotencyKey)
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// lock_not_available / query_canceled
		return pgErr.Code == "55P03" || pgErr.Code == "57014"
	}
	return false
}
