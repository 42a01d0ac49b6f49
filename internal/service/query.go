package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"givepay/internal/models"

	"github.com/google/uuid"
)

//go:generate mockgen -source=query.go -destination=../../test/mock_query.go -package=test

var (
	ErrAccessDenied     = errors.New("access denied")
	ErrInvalidDateRange = errors.New("invalid date range")
)

const maxPageLimit = 100

type QueryRepository interface {
	CountDonationsBySender(ctx context.Context, senderID uuid.UUID) (int64, error)
	FindDonationsBySenderInRange(ctx context.Context, senderID uuid.UUID, start, end time.Time, limit, offset int) ([]models.Donation, int64, error)
	GetDonationByID(ctx context.Context, donationID uuid.UUID) (*models.DonationDetail, error)
}

type QueryService struct {
	repo   QueryRepository
	logger *slog.Logger
}

func NewQueryService(repo QueryRepository, logger *slog.Logger) *QueryService {
	return &QueryService{repo: repo, logger: logger}
}

func (s *QueryService) CountDonations(ctx context.Context, callerID uuid.UUID) (int64, error) {
	return s.repo.CountDonationsBySender(ctx, callerID)
}

// DonationsByRange lists the caller's donations inside [startDate, endDate],
// newest first. Dates are UTC instants; a bare date is widened to cover the
// whole day on the end bound.
func (s *QueryService) DonationsByRange(
	ctx context.Context,
	callerID uuid.UUID,
	startDate, endDate string,
	page, limit int,
) (*models.DonationPage, error) {
	start, err := parseRangeDate(startDate, false)
	if err != nil {
		return nil, ErrInvalidDateRange
	}
	end, err := parseRangeDate(endDate, true)
	if err != nil {
		return nil, ErrInvalidDateRange
	}
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	donations, total, err := s.repo.FindDonationsBySenderInRange(ctx, callerID, start, end, limit, (page-1)*limit)
	if err != nil {
		s.logger.Error("Range query failed",
			slog.String("caller_id", callerID.String()),
			slog.Any("err", err),
		)
		return nil, err
	}

	pages := int(total / int64(limit))
	if total%int64(limit) != 0 {
		pages++
	}
	return &models.DonationPage{
		Data: donations,
		Pagination: models.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
	}, nil
}

// DonationByID returns the joined donation record. Only the two parties of a
// donation may read it.
func (s *QueryService) DonationByID(ctx context.Context, callerID, donationID uuid.UUID) (*models.DonationDetail, error) {
	detail, err := s.repo.GetDonationByID(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if detail.Donation.SenderID != callerID && detail.Donation.ReceiverID != callerID {
		s.logger.Warn("Donation fetch denied",
			slog.String("caller_id", callerID.String()),
			slog.String("donation_id", donationID.String()),
		)
		return nil, ErrAccessDenied
	}
	return detail, nil
}

func parseRangeDate(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	t = t.UTC()
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
