package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"auction-ledger/internal/database"
	"auction-ledger/internal/models"
)

// setupTestDB opens a fresh in-memory sqlite database. Each test gets its own
// named shared-cache database so parallel tests never see each other's rows,
// and a single connection so sqlite's write locking stays out of the way.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, wallet string, kycVerified bool) *models.User {
	t.Helper()

	user := &models.User{
		WalletAddress: models.NormalizeWallet(wallet),
		Email:         fmt.Sprintf("%s@example.com", uuid.NewString()),
		Name:          "Test User",
		IsKYCVerified: kycVerified,
		Role:          models.UserRoleUser,
		Status:        models.UserStatusActive,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// testAuctionOpts tweaks the defaults of createTestAuction. The zero value
// yields an active auction that started an hour ago and runs another hour,
// starting at 100 with no reserve.
type testAuctionOpts struct {
	Status        models.AuctionStatus
	StartingPrice decimal.Decimal
	ReservePrice  decimal.Decimal
	StartTime     time.Time
	EndTime       time.Time
}

func createTestAuction(t *testing.T, db *gorm.DB, creator *models.User, opts testAuctionOpts) *models.Auction {
	t.Helper()

	now := time.Now()
	if opts.Status == "" {
		opts.Status = models.AuctionStatusActive
	}
	if opts.StartingPrice.IsZero() {
		opts.StartingPrice = decimal.NewFromInt(100)
	}
	if opts.StartTime.IsZero() {
		opts.StartTime = now.Add(-time.Hour)
	}
	if opts.EndTime.IsZero() {
		opts.EndTime = now.Add(time.Hour)
	}

	auction := &models.Auction{
		ID:                 uuid.New(),
		ContractAddress:    "0x" + uuid.NewString()[:8],
		TransactionHash:    uuid.NewString(),
		BlockNumber:        1,
		CreatorID:          creator.ID,
		CreatorWallet:      creator.WalletAddress,
		ProductName:        "Vintage Camera",
		ProductDescription: "A well-kept vintage camera",
		Category:           models.CategoryElectronics,
		Condition:          models.ConditionGood,
		StartingPrice:      opts.StartingPrice,
		ReservePrice:       opts.ReservePrice,
		StartTime:          opts.StartTime,
		EndTime:            opts.EndTime,
		DurationHours:      int(opts.EndTime.Sub(opts.StartTime).Hours()),
		CurrentHighestBid:  decimal.Zero,
		Status:             opts.Status,
	}
	if err := db.Create(auction).Error; err != nil {
		t.Fatalf("failed to create test auction: %v", err)
	}
	return auction
}

func bidRequest(amount int64) *models.PlaceBidRequest {
	return &models.PlaceBidRequest{
		Amount:          decimal.NewFromInt(amount),
		TransactionHash: uuid.NewString(),
		BlockNumber:     100,
	}
}
