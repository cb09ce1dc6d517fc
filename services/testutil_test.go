package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vehicle-rental-server/database"
	"vehicle-rental-server/models"
)

// newTestDB opens an in-memory sqlite database with the full schema. A single
// connection is used so the memory database survives for the whole test and
// concurrent transactions serialize instead of hitting SQLITE_BUSY.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get underlying database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { sqlDB.Close() })
	return db
}

var testSeq uint64

func createTestUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()

	user := models.User{
		FullName:     name,
		PhoneNumber:  fmt.Sprintf("+1555%07d", atomic.AddUint64(&testSeq, 1)),
		PasswordHash: "x",
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return &user
}

func createTestVehicle(t *testing.T, db *gorm.DB, ownerID uint, dailyRate float64) *models.Vehicle {
	t.Helper()

	vehicle := models.Vehicle{
		OwnerID:      ownerID,
		Make:         "Toyota",
		Model:        "Corolla",
		Year:         2021,
		LicensePlate: fmt.Sprintf("TST-%d", atomic.AddUint64(&testSeq, 1)),
		DailyRate:    dailyRate,
		Available:    true,
	}
	if err := db.Create(&vehicle).Error; err != nil {
		t.Fatalf("failed to create vehicle: %v", err)
	}
	return &vehicle
}

// testDates returns a pickup/return pair n days long, starting tomorrow.
func testDates(days int) (time.Time, time.Time) {
	pickup := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	return pickup, pickup.Add(time.Duration(days) * 24 * time.Hour)
}
