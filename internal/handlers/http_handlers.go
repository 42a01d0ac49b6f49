package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"givepay/internal/models"
	"givepay/internal/repository"
	"givepay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=http_handlers.go -destination=../../test/mock_services.go -package=test

type TransferService interface {
	Execute(ctx context.Context, senderID, receiverID uuid.UUID, amount decimal.Decimal, idempotencyKey, rawPin string) (*models.TransferOutcome, error)
}

type QueryService interface {
	CountDonations(ctx context.Context, callerID uuid.UUID) (int64, error)
	DonationsByRange(ctx context.Context, callerID uuid.UUID, startDate, endDate string, page, limit int) (*models.DonationPage, error)
	DonationByID(ctx context.Context, callerID, donationID uuid.UUID) (*models.DonationDetail, error)
}

type DonationHTTPHandler struct {
	transfers TransferService
	queries   QueryService
}

func NewDonationHTTPHandler(transfers TransferService, queries QueryService) *DonationHTTPHandler {
	return &DonationHTTPHandler{transfers: transfers, queries: queries}
}

func (h *DonationHTTPHandler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	v1 := r.Group("/api/v1", auth)
	{
		v1.POST("/donations/transfer", h.HandleTransfer)
		v1.GET("/donations/count", h.HandleCount)
		v1.GET("/donations", h.HandleRange)
		v1.GET("/donations/:donation_id", h.HandleGet)
	}
}

func (h *DonationHTTPHandler) HandleTransfer(c *gin.Context) {
	senderID, ok := callerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req models.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	outcome, err := h.transfers.Execute(c.Request.Context(), senderID, req.ReceiverID, req.Amount, req.IdempotencyKey, req.Pin)
	if err != nil {
		status, msg := transferErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func transferErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrSelfTransfer):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, repository.ErrUserNotFound), errors.Is(err, repository.ErrWalletNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, repository.ErrPinNotSet):
		return http.StatusPreconditionFailed, err.Error()
	case errors.Is(err, service.ErrInvalidPin):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, repository.ErrInsufficientFunds):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrTransferTimeout):
		return http.StatusServiceUnavailable, err.Error()
	default:
		// Storage details stay in the logs.
		return http.StatusInternalServerError, "internal error"
	}
}

func (h *DonationHTTPHandler) HandleCount(c *gin.Context) {
	callerID, ok := callerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	count, err := h.queries.CountDonations(c.Request.Context(), callerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *DonationHTTPHandler) HandleRange(c *gin.Context) {
	callerID, ok := callerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.queries.DonationsByRange(
		c.Request.Context(),
		callerID,
		c.Query("startDate"),
		c.Query("endDate"),
		page,
		limit,
	)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDateRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *DonationHTTPHandler) HandleGet(c *gin.Context) {
	callerID, ok := callerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	donationID, err := uuid.Parse(c.Param("donation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donation id"})
		return
	}
	detail, err := h.queries.DonationByID(c.Request.Context(), callerID, donationID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDonationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrAccessDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}
	c.JSON(http.StatusOK, detail)
}
