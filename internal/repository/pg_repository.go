package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"givepay/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrPinNotSet           = errors.New("transaction pin not set")
	ErrDonationNotFound    = errors.New("donation not found")
	ErrKeyNotFound         = errors.New("idempotency key not found")
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrIdempotencyConflict = errors.New("idempotency key already recorded")
)

type LedgerPGRepository struct {
	pool        *pgxpool.Pool
	logger      *slog.Logger
	lockTimeout time.Duration
}

func NewLedgerPGRepository(pool *pgxpool.Pool, logger *slog.Logger, lockTimeout time.Duration) *LedgerPGRepository {
	return &LedgerPGRepository{
		pool:        pool,
		logger:      logger,
		lockTimeout: lockTimeout,
	}
}

// ExecuteTransfer applies the whole transfer as one transaction: debit, credit,
// donation row, ledger entry and idempotency record commit together or not at
// all. Balance sufficiency is re-checked under the row lock, so a stale
// pre-check can never drive a wallet negative. A unique violation on the
// idempotency columns means another execution with the same key already
// committed; that surfaces as ErrIdempotencyConflict and the caller re-reads
// the winner's outcome.
func (r *LedgerPGRepository) ExecuteTransfer(
	ctx context.Context,
	senderID, receiverID uuid.UUID,
	amount decimal.Decimal,
	idempotencyKey string,
) (*models.TransferOutcome, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		r.logger.Error("Failed to begin transfer transaction",
			slog.String("sender_id", senderID.String()),
			slog.Any("err", err),
		)
		return nil, err
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
			r.logger.Error("Failed to rollback transfer transaction",
				slog.String("sender_id", senderID.String()),
				slog.Any("err", err),
			)
		}
	}()

	if r.lockTimeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())); err != nil {
			return nil, err
		}
	}

	// Lock both wallets in a fixed order so two opposing transfers cannot
	// deadlock each other.
	senderBalance, _, err := r.lockWallets(ctx, tx, senderID, receiverID)
	if err != nil {
		return nil, err
	}

	// A concurrent duplicate may have committed while we waited for the wallet
	// locks, possibly draining the balance. The key must be checked before the
	// balance so the loser converges instead of failing with insufficient funds.
	var existingTransfer uuid.UUID
	err = tx.QueryRow(ctx, "SELECT transaction_id FROM idempotency_keys WHERE key = $1", idempotencyKey).Scan(&existingTransfer)
	if err == nil {
		return nil, ErrIdempotencyConflict
	}
	if err != pgx.ErrNoRows {
		r.logger.Error("Failed to check idempotency key",
			slog.String("idempotency_key", idempotencyKey),
			slog.Any("err", err),
		)
		return nil, err
	}

	if senderBalance.LessThan(amount) {
		return nil, ErrInsufficientFunds
	}

	if _, err := tx.Exec(ctx, "UPDATE wallets SET balance = balance - $1 WHERE user_id = $2", amount, senderID); err != nil {
		r.logger.Error("Failed to debit sender wallet",
			slog.String("sender_id", senderID.String()),
			slog.Any("err", err),
		)
		return nil, err
	}
	if _, err := tx.Exec(ctx, "UPDATE wallets SET balance = balance + $1 WHERE user_id = $2", amount, receiverID); err != nil {
		r.logger.Error("Failed to credit receiver wallet",
			slog.String("receiver_id", receiverID.String()),
			slog.Any("err", err),
		)
		return nil, err
	}

	donationID := uuid.New()
	transferID := uuid.New()
	var createdAt time.Time
	err = tx.QueryRow(ctx, `
        INSERT INTO donations (id, sender_id, receiver_id, amount)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at`,
		donationID, senderID, receiverID, amount,
	).Scan(&createdAt)
	if err != nil {
		r.logger.Error("Failed to insert donation",
			slog.String("sender_id", senderID.String()),
			slog.Any("err", err),
		)
		return nil, err
	}

	// The sender's lifetime donation count is captured inside this transaction
	// so the milestone decision reflects this transfer's position, not whatever
	// the count happens to be when the notifier gets around to the event.
	var senderDonations int64
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM donations WHERE sender_id = $1", senderID).Scan(&senderDonations); err != nil {
		r.logger.Error("Failed to count sender donations",
			slog.String("sender_id", senderID.String()),
			slog.Any("err", err),
		)
		return nil, err
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO transactions (id, donation_id, type, status, amount, idempotency_key)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		transferID, donationID, models.TransferTypeDonation, models.TransferStatusCompleted, amount, idempotencyKey,
	)
	if err != nil {
		return nil, r.mapConflict(err, idempotencyKey)
	}

	_, err = tx.Exec(ctx, "INSERT INTO idempotency_keys (key, transaction_id) VALUES ($1, $2)", idempotencyKey, transferID)
	if err != nil {
		return nil, r.mapConflict(err, idempotencyKey)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("Failed to commit transfer",
			slog.String("sender_id", senderID.String()),
			slog.String("idempotency_key", idempotencyKey),
			slog.Any("err", err),
		)
		return nil, err
	}

	return &models.TransferOutcome{
		DonationID:          donationID,
		TransferID:          transferID,
		Amount:              amount,
		Status:              models.TransferStatusCompleted,
		CreatedAt:           createdAt,
		SenderDonationCount: senderDonations,
	}, nil
}

func (r *LedgerPGRepository) lockWallets(
	ctx context.Context,
	tx pgx.Tx,
	senderID, receiverID uuid.UUID,
) (senderBalance, receiverBalance decimal.Decimal, err error) {
	first, second := senderID, receiverID
	if bytes.Compare(first[:], second[:]) > 0 {
		first, second = second, first
	}
	balances := map[uuid.UUID]decimal.Decimal{}
	for _, id := range []uuid.UUID{first, second} {
		var balance decimal.Decimal
		err := tx.QueryRow(ctx, "SELECT balance FROM wallets WHERE user_id = $1 FOR UPDATE", id).Scan(&balance)
		if err == pgx.ErrNoRows {
			return decimal.Zero, decimal.Zero, ErrWalletNotFound
		}
		if err != nil {
			r.logger.Error("Failed to lock wallet",
				slog.String("wallet_user_id", id.String()),
				slog.Any("err", err),
			)
			return decimal.Zero, decimal.Zero, err
		}
		balances[id] = balance
	}
	return balances[senderID], balances[receiverID], nil
}

func (r *LedgerPGRepository) mapConflict(err error, idempotencyKey string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "idempotency") {
		r.logger.Info("Transfer lost idempotency race, converging on existing record",
			slog.String("idempotency_key", idempotencyKey),
		)
		return ErrIdempotencyConflict
	}
	r.logger.Error("Failed to insert ledger records",
		slog.String("idempotency_key", idempotencyKey),
		slog.Any("err", err),
	)
	return err
}

// FindTransferByKey is the idempotency lookup: the outcome originally produced
// for the key, or ErrKeyNotFound if the key was never finalized.
func (r *LedgerPGRepository) FindTransferByKey(ctx context.Context, idempotencyKey string) (*models.TransferOutcome, error) {
	var out models.TransferOutcome
	err := r.pool.QueryRow(ctx, `
        SELECT t.donation_id, t.id, t.amount, t.status, t.created_at
        FROM idempotency_keys k
        JOIN transactions t ON t.id = k.transaction_id
        WHERE k.key = $1`,
		idempotencyKey,
	).Scan(&out.DonationID, &out.TransferID, &out.Amount, &out.Status, &out.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		r.logger.Error("Failed to look up idempotency key",
			slog.String("idempotency_key", idempotencyKey),
			slog.Any("err", err),
		)
		return nil, err
	}
	return &out, nil
}

func (r *LedgerPGRepository) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, "SELECT id, email, name, created_at FROM users WHERE id = $1", userID).
		Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get user",
			slog.String("user_id", userID.String()),
			slog.Any("err", err),
		)
		return nil, err
	}
	return &u, nil
}

func (r *LedgerPGRepository) GetWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	w := models.Wallet{UserID: userID}
	err := r.pool.QueryRow(ctx, "SELECT balance FROM wallets WHERE user_id = $1", userID).Scan(&w.Balance)
	if err == pgx.ErrNoRows {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get wallet",
			slog.String("user_id", userID.String()),
			slog.Any("err", err),
		)
		return nil, err
	}
	return &w, nil
}

func (r *LedgerPGRepository) GetPinHash(ctx context.Context, userID uuid.UUID) (string, error) {
	var hash string
	err := r.pool.QueryRow(ctx, "SELECT pin_hash FROM transaction_pins WHERE user_id = $1", userID).Scan(&hash)
	if err == pgx.ErrNoRows {
		return "", ErrPinNotSet
	}
	if err != nil {
		r.logger.Error("Failed to get pin hash",
			slog.String("user_id", userID.String()),
			slog.Any("err", err),
		)
		return "", err
	}
	return hash, nil
}

func (r *LedgerPGRepository) CountDonationsBySender(ctx context.Context, senderID uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM donations WHERE sender_id = $1", senderID).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count donations",
			slog.String("sender_id", senderID.String()),
			slog.Any("err", err),
		)
		return 0, err
	}
	return count, nil
}

// FindDonationsBySenderInRange returns the caller's donations inside the
// inclusive [start, end] window, newest first, plus the total matching count.
func (r *LedgerPGRepository) FindDonationsBySenderInRange(
	ctx context.Context,
	senderID uuid.UUID,
	start, end time.Time,
	limit, offset int,
) ([]models.Donation, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `
        SELECT COUNT(*) FROM donations
        WHERE sender_id = $1 AND created_at >= $2 AND created_at <= $3`,
		senderID, start, end,
	).Scan(&total)
	if err != nil {
		r.logger.Error("Failed to count donations in range",
			slog.String("sender_id", senderID.String()),
			slog.Any("err", err),
		)
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
        SELECT id, sender_id, receiver_id, amount, created_at
        FROM donations
        WHERE sender_id = $1 AND created_at >= $2 AND created_at <= $3
        ORDER BY created_at DESC
        LIMIT $4 OFFSET $5`,
		senderID, start, end, limit, offset,
	)
	if err != nil {
		r.logger.Error("Failed to query donations in range",
			slog.String("sender_id", senderID.String()),
			slog.Any("err", err),
		)
		return nil, 0, err
	}
	defer rows.Close()

	donations := make([]models.Donation, 0, limit)
	for rows.Next() {
		var d models.Donation
		if err := rows.Scan(&d.ID, &d.SenderID, &d.ReceiverID, &d.Amount, &d.CreatedAt); err != nil {
			return nil, 0, err
		}
		donations = append(donations, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return donations, total, nil
}

func (r *LedgerPGRepository) GetDonationByID(ctx context.Context, donationID uuid.UUID) (*models.DonationDetail, error) {
	var d models.DonationDetail
	err := r.pool.QueryRow(ctx, `
        SELECT d.id, d.sender_id, d.receiver_id, d.amount, d.created_at,
               t.id, t.donation_id, t.type, t.status, t.amount, t.idempotency_key, t.created_at,
               su.id, su.email, su.name,
               ru.id, ru.email, ru.name
        FROM donations d
        JOIN transactions t ON t.donation_id = d.id
        JOIN users su ON su.id = d.sender_id
        JOIN users ru ON ru.id = d.receiver_id
        WHERE d.id = $1`,
		donationID,
	).Scan(
		&d.Donation.ID, &d.Donation.SenderID, &d.Donation.ReceiverID, &d.Donation.Amount, &d.Donation.CreatedAt,
		&d.Transfer.ID, &d.Transfer.DonationID, &d.Transfer.Type, &d.Transfer.Status, &d.Transfer.Amount, &d.Transfer.IdempotencyKey, &d.Transfer.CreatedAt,
		&d.Sender.ID, &d.Sender.Email, &d.Sender.Name,
		&d.Receiver.ID, &d.Receiver.Email, &d.Receiver.Name,
	)
	if err == pgx.ErrNoRows {
		return nil, ErrDonationNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get donation",
			slog.String("donation_id", donationID.String()),
			slog.Any("err", err),
		)
		return nil, err
	}
	return &d, nil
}

// CreateUser registers a user together with an empty wallet. Registration
// itself lives outside the transfer core; tests and seeding go through here.
func (r *LedgerPGRepository) CreateUser(ctx context.Context, email, name string) (uuid.UUID, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return uuid.Nil, err
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
			r.logger.Error("Failed to rollback user creation", slog.Any("err", err))
		}
	}()

	userID := uuid.New()
	if _, err := tx.Exec(ctx, "INSERT INTO users (id, email, name) VALUES ($1, $2, $3)", userID, email, name); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return uuid.Nil, ErrUserAlreadyExists
		}
		r.logger.Error("Failed to create user",
			slog.String("email", email),
			slog.Any("err", err),
		)
		return uuid.Nil, err
	}
	if _, err := tx.Exec(ctx, "INSERT INTO wallets (user_id, balance) VALUES ($1, 0)", userID); err != nil {
		r.logger.Error("Failed to create wallet",
			slog.String("user_id", userID.String()),
			slog.Any("err", err),
		)
		return uuid.Nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, err
	}
	return userID, nil
}

func (r *LedgerPGRepository) SetPin(ctx context.Context, userID uuid.UUID, pinHash string) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO transaction_pins (user_id, pin_hash) VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE SET pin_hash = EXCLUDED.pin_hash`,
		userID, pinHash,
	)
	if err != nil {
		r.logger.Error("Failed to set pin",
			slog.String("user_id", userID.String()),
			slog.Any("err", err),
		)
	}
	return err
}

// TopUp is the external top-up collaborator's write path; the transfer engine
// never calls it.
func (r *LedgerPGRepository) TopUp(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	tag, err := r.pool.Exec(ctx, "UPDATE wallets SET balance = balance + $1 WHERE user_id = $2", amount, userID)
	if err != nil {
		r.logger.Error("Failed to top up wallet",
			slog.String("user_id", userID.String()),
			slog.Any("amount", amount),
			slog.Any("err", err),
		)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWalletNotFound
	}
	return nil
}
