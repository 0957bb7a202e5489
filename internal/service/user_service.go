package service

import (
	"context"

	apperrors "github.com/ecoride/ecoride-core/internal/errors"
	"github.com/ecoride/ecoride-core/internal/models"
	"github.com/ecoride/ecoride-core/internal/repository"
)

type UserService interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateUserRequest) (*models.UserProfile, error)
}

type userService struct {
	userRepo repository.UserRepository
	trust    TrustService
	ledger   LedgerService
}

func NewUserService(userRepo repository.UserRepository, trust TrustService, ledger LedgerService) UserService {
	return &userService{userRepo: userRepo, trust: trust, ledger: ledger}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("user")
	}
	return s.profile(ctx, user)
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateUserRequest) (*models.UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("user")
	}

	req.Apply(user)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.profile(ctx, user)
}

func (s *userService) profile(ctx context.Context, user *models.User) (*models.UserProfile, error) {
	credits, err := s.ledger.CreditsFor(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return user.ToProfile(s.trust.BadgeFor(user), credits), nil
}
