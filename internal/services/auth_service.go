package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"auction-ledger/internal/models"
	"auction-ledger/internal/repository"
)

// AuthService handles wallet-based signup and login
type AuthService struct {
	repo *repository.Repository
}

func NewAuthService(repo *repository.Repository) *AuthService {
	return &AuthService{repo: repo}
}

// WalletLoginRequest carries the signed login payload. Email and name are
// only required on first login, when the account is created.
type WalletLoginRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
	Signature     string `json:"signature" binding:"required"`
	Email         string `json:"email"`
	Name          string `json:"name"`
}

// ProcessWalletLogin finds or creates a user by wallet address. Signature
// verification happens in the handler before this runs.
func (s *AuthService) ProcessWalletLogin(ctx context.Context, req *WalletLoginRequest) (*models.User, error) {
	wallet := models.NormalizeWallet(req.WalletAddress)

	user, err := s.repo.GetUserByWallet(ctx, wallet)
	if err == gorm.ErrRecordNotFound {
		if req.Email == "" {
			return nil, fmt.Errorf("email is required for signup")
		}

		user = &models.User{
			WalletAddress: wallet,
			Email:         strings.ToLower(strings.TrimSpace(req.Email)),
			Name:          strings.TrimSpace(req.Name),
			Role:          models.UserRoleUser,
			Status:        models.UserStatusActive,
		}
		if err := s.repo.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		log.Infof("New user created: wallet=%s (ID: %d)", wallet, user.ID)
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	} else {
		if user.Status == models.UserStatusBanned {
			return nil, fmt.Errorf("account is banned")
		}
		log.Infof("User logged in: wallet=%s (ID: %d)", wallet, user.ID)
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		log.Warnf("Failed to record last login for user %d: %v", user.ID, err)
	}

	return user, nil
}

// GetUserByID retrieves a user by their ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}
