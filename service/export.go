package service

import (
	"context"
	"time"

	"fintrack/models"

	"github.com/shopspring/decimal"
)

const maxExportRows = 10000

// ExportRow 导出行，带账户、类别、子类别名称
type ExportRow struct {
	ID              uint
	Date            time.Time
	Type            models.TransactionType
	Amount          decimal.Decimal
	AccountName     string
	CategoryName    string
	SubcategoryName *string
	Description     *string
	Notes           *string
	TransferID      *string
}

// Export 按筛选条件导出交易（忽略分页），按日期倒序
func (s *TransactionService) Export(ctx context.Context, userID uint, f TransactionFilter) ([]ExportRow, error) {
	rows := []ExportRow{}
	err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("transactions.id, transactions.date, transactions.type, transactions.amount, " +
			"accounts.name AS account_name, categories.name AS category_name, subcategories.name AS subcategory_name, " +
			"transactions.description, transactions.notes, transactions.transfer_id").
		Joins("JOIN accounts ON accounts.id = transactions.account_id").
		Joins("JOIN categories ON categories.id = transactions.category_id").
		Joins("LEFT JOIN subcategories ON subcategories.id = transactions.subcategory_id").
		Scopes(f.scope(userID)).
		Order("transactions.date DESC, transactions.id DESC").
		Limit(maxExportRows).
		Scan(&rows).Error
	if err != nil {
		return nil, NewInternalError("failed to export transactions", err)
	}
	return rows, nil
}
