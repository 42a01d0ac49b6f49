package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransferRequest struct {
	ReceiverID     uuid.UUID       `json:"receiverId" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	IdempotencyKey string          `json:"idempotencyKey" binding:"required"`
	Pin            string          `json:"pin" binding:"required"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type DonationPage struct {
	Data       []Donation `json:"data"`
	Pagination Pagination `json:"pagination"`
}
