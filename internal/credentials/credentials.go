package credentials

import (
	"context"
	"errors"
	"log/slog"

	"givepay/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// PinStore is the slice of the ledger store the verifier needs.
type PinStore interface {
	GetPinHash(ctx context.Context, userID uuid.UUID) (string, error)
}

// PinVerifier checks raw transaction pins against stored bcrypt hashes.
type PinVerifier struct {
	store  PinStore
	logger *slog.Logger
}

func NewPinVerifier(store PinStore, logger *slog.Logger) *PinVerifier {
	return &PinVerifier{store: store, logger: logger}
}

func (v *PinVerifier) HasPin(ctx context.Context, userID uuid.UUID) (bool, error) {
	_, err := v.store.GetPinHash(ctx, userID)
	if errors.Is(err, repository.ErrPinNotSet) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (v *PinVerifier) VerifyPin(ctx context.Context, userID uuid.UUID, rawPin string) (bool, error) {
	hash, err := v.store.GetPinHash(ctx, userID)
	if err != nil {
		return false, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawPin)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		v.logger.Error("Pin comparison failed",
			slog.String("user_id", userID.String()),
			slog.Any("err", err),
		)
		return false, err
	}
	return true, nil
}

// HashPin is used by the registration collaborator and by tests.
func HashPin(rawPin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(rawPin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
