package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransferTypeDonation    = "DONATION"
	TransferStatusCompleted = "COMPLETED"
)

type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

type Wallet struct {
	UserID  uuid.UUID       `db:"user_id" json:"userId"`
	Balance decimal.Decimal `db:"balance" json:"balance"`
}

// Donation is an immutable fact: once committed it is never updated or deleted.
type Donation struct {
	ID         uuid.UUID       `db:"id" json:"donationId"`
	SenderID   uuid.UUID       `db:"sender_id" json:"senderId"`
	ReceiverID uuid.UUID       `db:"receiver_id" json:"receiverId"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

// Transaction is the ledger entry tied 1:1 to a Donation.
type Transaction struct {
	ID             uuid.UUID       `db:"id" json:"transferId"`
	DonationID     uuid.UUID       `db:"donation_id" json:"donationId"`
	Type           string          `db:"type" json:"type"`
	Status         string          `db:"status" json:"status"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	IdempotencyKey string          `db:"idempotency_key" json:"-"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
}

// TransferOutcome is what a caller gets back for a transfer, whether the
// request was executed now or replayed from an idempotency record.
type TransferOutcome struct {
	DonationID uuid.UUID       `json:"donationId"`
	TransferID uuid.UUID       `json:"transferId"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`

	// SenderDonationCount is the sender's lifetime donation total as of this
	// transfer's commit, including it. Internal to milestone dispatch.
	SenderDonationCount int64 `json:"-"`
}

// DonationDetail is the single-fetch read model: the donation joined with its
// ledger entry and the public identity of both parties.
type DonationDetail struct {
	Donation Donation    `json:"donation"`
	Transfer Transaction `json:"transfer"`
	Sender   User        `json:"sender"`
	Receiver User        `json:"receiver"`
}
