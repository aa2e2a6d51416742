package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActive UserStatus = "active"
	UserStatusBanned UserStatus = "banned"
)

// User represents a marketplace participant. Users are never hard-deleted;
// banning flips Status to "banned" and keeps the record.
type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	WalletAddress   string     `gorm:"uniqueIndex;size:64;not null" json:"wallet_address"`
	Email           string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name            string     `gorm:"size:255" json:"name"`
	IsEmailVerified bool       `gorm:"default:false" json:"is_email_verified"`
	IsKYCVerified   bool       `gorm:"default:false" json:"is_kyc_verified"`
	Role            UserRole   `gorm:"size:20;not null;default:user" json:"role"`
	Status          UserStatus `gorm:"size:20;not null;default:active;index" json:"status"`
	ProfilePicture  string     `gorm:"size:500" json:"profile_picture"`
	Phone           string     `gorm:"size:50" json:"phone"`
	Country         string     `gorm:"size:100" json:"country"`
	LastLogin       *time.Time `json:"last_login"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// NormalizeWallet lowercases a hex wallet address so lookups and uniqueness
// checks are case-insensitive.
func NormalizeWallet(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// UserStats holds aggregate counters per user, maintained with atomic SQL
// increments so concurrent settlements cannot lose updates.
type UserStats struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	AuctionsCreated int64           `gorm:"default:0" json:"auctions_created"`
	AuctionsWon     int64           `gorm:"default:0" json:"auctions_won"`
	TotalBids       int64           `gorm:"default:0" json:"total_bids"`
	TotalSpent      decimal.Decimal `gorm:"type:decimal(24,8);default:0" json:"total_spent"`
	TotalEarned     decimal.Decimal `gorm:"type:decimal(24,8);default:0" json:"total_earned"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (UserStats) TableName() string {
	return "user_stats"
}

// UserResponse is the public view of a user plus their aggregate stats
type UserResponse struct {
	User  User       `json:"user"`
	Stats *UserStats `json:"stats,omitempty"`
}
