package services

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"auction-ledger/internal/models"
	"auction-ledger/internal/repository"
)

// UserService covers profile reads and the admin-driven account mutations:
// KYC approval, email verification, soft ban and role promotion.
type UserService struct {
	repo *repository.Repository
}

func NewUserService(repo *repository.Repository) *UserService {
	return &UserService{repo: repo}
}

// GetProfile returns a user with their aggregate stats
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.UserResponse, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats, err := s.repo.GetUserStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.UserResponse{User: *user, Stats: stats}, nil
}

// GetUserBids returns a user's bid history, newest first
func (s *UserService) GetUserBids(ctx context.Context, userID uint, limit, offset int) ([]*models.Bid, error) {
	return s.repo.GetBidsByBidder(ctx, userID, limit, offset)
}

// ListUsers lists users for the admin dashboard
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int64, error) {
	return s.repo.ListUsers(ctx, limit, offset)
}

// VerifyKYC marks a user as KYC-verified
func (s *UserService) VerifyKYC(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.IsKYCVerified = true
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	log.Infof("User %d KYC verified", userID)
	return user, nil
}

// VerifyEmail marks a user's email as verified
func (s *UserService) VerifyEmail(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.IsEmailVerified = true
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// SetBanned soft-bans or reinstates a user. Records are never hard-deleted.
func (s *UserService) SetBanned(ctx context.Context, userID uint, banned bool) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if banned {
		user.Status = models.UserStatusBanned
	} else {
		user.Status = models.UserStatusActive
	}
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	log.Infof("User %d banned=%v", userID, banned)
	return user, nil
}

// PromoteToAdmin grants a user the admin role
func (s *UserService) PromoteToAdmin(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.Role == models.UserRoleAdmin {
		return nil, fmt.Errorf("user %d is already an admin", userID)
	}

	user.Role = models.UserRoleAdmin
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to promote user: %w", err)
	}

	log.Infof("User %d promoted to admin", userID)
	return user, nil
}
