package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fintrack/config"
	"fintrack/database"
	"fintrack/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB 基于临时 sqlite 文件创建已迁移并写入系统类别的数据库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver:   config.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "service.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedSystemCategories(db, "Transferência"))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type fixture struct {
	t   *testing.T
	db  *gorm.DB
	ctx context.Context
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, db: newTestDB(t), ctx: context.Background()}
}

func (f *fixture) user(email string) uint {
	f.t.Helper()
	u := models.User{Name: email, Email: email, Password: "x"}
	require.NoError(f.t, f.db.Create(&u).Error)
	return u.ID
}

func (f *fixture) account(userID uint, name string, initial string) uint {
	f.t.Helper()
	balance := decimal.RequireFromString(initial)
	acc, err := NewAccountService(f.db).Create(f.ctx, userID, AccountInput{
		Name:           name,
		Type:           models.AccountTypeChecking,
		InitialBalance: &balance,
	})
	require.NoError(f.t, err)
	return acc.ID
}

func (f *fixture) category(userID uint, name string, typ models.TransactionType) uint {
	f.t.Helper()
	cat, err := NewCategoryService(f.db).CreateCategory(f.ctx, userID, CategoryInput{Name: name, Type: typ})
	require.NoError(f.t, err)
	return cat.ID
}

func (f *fixture) subcategory(userID, categoryID uint, name string) uint {
	f.t.Helper()
	sub, err := NewCategoryService(f.db).CreateSubcategory(f.ctx, userID, SubcategoryInput{CategoryID: categoryID, Name: name})
	require.NoError(f.t, err)
	return sub.ID
}

func (f *fixture) transferCategoryID() uint {
	f.t.Helper()
	var cat models.Category
	require.NoError(f.t, f.db.Where("system_key = ?", models.SystemKeyTransfer).First(&cat).Error)
	return cat.ID
}

func (f *fixture) tx(userID, accountID, categoryID uint, typ models.TransactionType, amount, date string, desc ...string) *models.Transaction {
	f.t.Helper()
	in := TransactionInput{
		AccountID:  accountID,
		CategoryID: categoryID,
		Type:       typ,
		Amount:     decimal.RequireFromString(amount),
		Date:       day(date),
	}
	if len(desc) > 0 {
		in.Description = &desc[0]
	}
	created, err := NewTransactionService(f.db).Create(f.ctx, userID, in)
	require.NoError(f.t, err)
	return created
}

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}
