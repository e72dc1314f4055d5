// Package testutil holds fixtures shared by package tests: an in-memory
// database with the production schema and a scripted payment gateway.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"skillswap/internal/infrastructure/database"
	"skillswap/internal/model"
)

// NewTestDB opens a private in-memory SQLite database migrated with the
// service schema. One connection only: every pooled connection to ":memory:"
// would otherwise see its own empty database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// SeedUser inserts a user with the given spendable balance.
func SeedUser(t *testing.T, db *gorm.DB, id string, balance int64) *model.User {
	t.Helper()

	user := &model.User{
		ID:        id,
		Name:      id,
		Email:     id + "@example.com",
		SCBalance: balance,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// SeedSkill inserts a listing owned by providerID.
func SeedSkill(t *testing.T, db *gorm.DB, providerID string, cost int64) *model.Skill {
	t.Helper()

	skill := &model.Skill{
		ProviderID:    providerID,
		Title:         "Guitar basics",
		Category:      "Music",
		Type:          model.SkillTypeOnline,
		DurationHours: 1,
		SCCost:        cost,
	}
	require.NoError(t, db.Create(skill).Error)
	return skill
}

// LoadUser re-reads a user row.
func LoadUser(t *testing.T, db *gorm.DB, id string) *model.User {
	t.Helper()

	var user model.User
	require.NoError(t, db.WithContext(context.Background()).Where("id = ?", id).First(&user).Error)
	return &user
}

// Transactions lists a user's ledger rows oldest first.
func Transactions(t *testing.T, db *gorm.DB, userID string) []model.Transaction {
	t.Helper()

	var rows []model.Transaction
	require.NoError(t, db.Where("user_id = ?", userID).Order("id ASC").Find(&rows).Error)
	return rows
}
