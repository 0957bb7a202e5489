package memstore

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/ecoride/ecoride-core/internal/errors"
	"github.com/ecoride/ecoride-core/internal/models"
	"github.com/google/uuid"
)

type userStore struct {
	s *Store
}

func (u *userStore) Create(ctx context.Context, user *models.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	for _, existing := range u.s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return apperrors.ErrDuplicateEmail
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	cp := *user
	u.s.users[user.ID] = &cp
	return nil
}

func (u *userStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	user, ok := u.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (u *userStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	for _, user := range u.s.users {
		if strings.EqualFold(user.Email, email) {
			cp := *user
			return &cp, nil
		}
	}
	return nil, nil
}

func (u *userStore) GetByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	out := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		if user, ok := u.s.users[id]; ok {
			cp := *user
			out[id] = &cp
		}
	}
	return out, nil
}

func (u *userStore) Update(ctx context.Context, user *models.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	stored, ok := u.s.users[user.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	user.UpdatedAt = time.Now()

	// Trust score and ride count stay as stored.
	cp := *user
	cp.TrustScore = stored.TrustScore
	cp.RidesCompleted = stored.RidesCompleted
	cp.PasswordHash = stored.PasswordHash
	cp.Email = stored.Email
	cp.CreatedAt = stored.CreatedAt
	u.s.users[user.ID] = &cp
	return nil
}
