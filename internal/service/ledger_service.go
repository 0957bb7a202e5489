package service

import (
	"context"
	"log/slog"

	apperrors "github.com/ecoride/ecoride-core/internal/errors"
	"github.com/ecoride/ecoride-core/internal/models"
	"github.com/ecoride/ecoride-core/internal/observability"
	"github.com/ecoride/ecoride-core/internal/repository"
)

const defaultRecentTransactions = 20

// LedgerService is the only writer of wallet transactions.
type LedgerService interface {
	// RecordCompletion credits one participant of one ride. A repeat call for
	// the same pair is absorbed and reports recorded=false.
	RecordCompletion(ctx context.Context, rideID, userID string, carbonSavedGrams, creditsEarned int64) (bool, error)
	WalletFor(ctx context.Context, userID string) (*models.WalletResponse, error)
	CreditsFor(ctx context.Context, userID string) (int64, error)
	CampusSummary(ctx context.Context) (*models.CampusSummary, error)
}

type ledgerService struct {
	ledgerRepo repository.LedgerRepository
	recent     int
	logger     *slog.Logger
}

func NewLedgerService(ledgerRepo repository.LedgerRepository, recent int, logger *slog.Logger) LedgerService {
	if recent <= 0 {
		recent = defaultRecentTransactions
	}
	return &ledgerService{ledgerRepo: ledgerRepo, recent: recent, logger: logger}
}

func (s *ledgerService) RecordCompletion(ctx context.Context, rideID, userID string, carbonSavedGrams, creditsEarned int64) (bool, error) {
	if rideID == "" || userID == "" {
		return false, apperrors.Validation("ride and user are required")
	}
	if carbonSavedGrams < 0 || creditsEarned < 0 {
		return false, apperrors.Validation("carbon saved and credits must not be negative")
	}

	recorded, err := s.ledgerRepo.Record(ctx, &models.WalletTransaction{
		UserID:           userID,
		RideID:           rideID,
		CarbonSavedGrams: carbonSavedGrams,
		CreditsEarned:    creditsEarned,
	})
	if err != nil {
		observability.LedgerWritesTotal.WithLabelValues("error").Inc()
		return false, err
	}
	if !recorded {
		observability.LedgerWritesTotal.WithLabelValues("duplicate").Inc()
		s.logger.Debug("ledger entry already recorded", "ride_id", rideID, "user_id", userID)
		return false, nil
	}
	observability.LedgerWritesTotal.WithLabelValues("recorded").Inc()
	return true, nil
}

func (s *ledgerService) WalletFor(ctx context.Context, userID string) (*models.WalletResponse, error) {
	totals, err := s.ledgerRepo.Totals(ctx, userID)
	if err != nil {
		return nil, err
	}
	txns, err := s.ledgerRepo.Recent(ctx, userID, s.recent)
	if err != nil {
		return nil, err
	}

	recent := make([]*models.TransactionResponse, 0, len(txns))
	for _, t := range txns {
		recent = append(recent, t.ToResponse())
	}
	return &models.WalletResponse{
		TotalCredits:          totals.TotalCredits,
		TotalCarbonSavedGrams: totals.TotalCarbonSavedGrams,
		TotalCarbonSavedKg:    float64(totals.TotalCarbonSavedGrams) / 1000,
		RecentTransactions:    recent,
	}, nil
}

func (s *ledgerService) CreditsFor(ctx context.Context, userID string) (int64, error) {
	totals, err := s.ledgerRepo.Totals(ctx, userID)
	if err != nil {
		return 0, err
	}
	return totals.TotalCredits, nil
}

func (s *ledgerService) CampusSummary(ctx context.Context) (*models.CampusSummary, error) {
	return s.ledgerRepo.CampusSummary(ctx)
}
