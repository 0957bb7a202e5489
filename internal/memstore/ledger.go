package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/ecoride/ecoride-core/internal/models"
	"github.com/google/uuid"
)

type ledgerStore struct {
	s *Store
}

func (l *ledgerStore) Record(ctx context.Context, txn *models.WalletTransaction) (bool, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	key := pairKey{txn.RideID, txn.UserID}
	if _, dup := l.s.ledgerKeys[key]; dup {
		return false, nil
	}
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}
	cp := *txn
	l.s.ledger = append(l.s.ledger, &cp)
	l.s.ledgerKeys[key] = struct{}{}
	return true, nil
}

func (l *ledgerStore) Totals(ctx context.Context, userID string) (*models.WalletTotals, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	totals := &models.WalletTotals{}
	for _, t := range l.s.ledger {
		if t.UserID == userID {
			totals.TotalCredits += t.CreditsEarned
			totals.TotalCarbonSavedGrams += t.CarbonSavedGrams
		}
	}
	return totals, nil
}

func (l *ledgerStore) Recent(ctx context.Context, userID string, limit int) ([]*models.WalletTransaction, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	out := []*models.WalletTransaction{}
	// Walk backwards so equal timestamps still come out newest first.
	for i := len(l.s.ledger) - 1; i >= 0; i-- {
		if t := l.s.ledger[i]; t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (l *ledgerStore) ListByRide(ctx context.Context, rideID string) ([]*models.WalletTransaction, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	out := []*models.WalletTransaction{}
	for _, t := range l.s.ledger {
		if t.RideID == rideID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (l *ledgerStore) CampusSummary(ctx context.Context) (*models.CampusSummary, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	summary := &models.CampusSummary{}
	rides := make(map[string]struct{})
	for _, t := range l.s.ledger {
		summary.TotalCarbonSavedGrams += t.CarbonSavedGrams
		summary.TotalCreditsIssued += t.CreditsEarned
		rides[t.RideID] = struct{}{}
	}
	summary.TotalRides = int64(len(rides))
	return summary, nil
}
