package service

import (
	"context"
	"errors"
	"time"

	"fintrack/logger"
	"fintrack/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransferService 账户间转账服务
type TransferService struct {
	db *gorm.DB
}

// NewTransferService 创建转账服务
func NewTransferService(db *gorm.DB) *TransferService {
	return &TransferService{db: db}
}

// TransferInput 转账参数
type TransferInput struct {
	FromAccountID uint
	ToAccountID   uint
	Amount        decimal.Decimal
	Date          time.Time
	Description   *string
	Notes         *string
}

// TransferResult 转账结果
type TransferResult struct {
	ID          string
	FromAccount *models.Transaction
	ToAccount   *models.Transaction
}

// Create 在一个事务内写入支出腿（转出账户）与收入腿（转入账户）
func (s *TransferService) Create(ctx context.Context, userID uint, in TransferInput) (*TransferResult, error) {
	amount := in.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, NewValidationError("amount must be greater than zero")
	}
	if in.FromAccountID == in.ToAccountID {
		return nil, NewValidationError("source and destination accounts must be different")
	}
	if in.Date.IsZero() {
		return nil, NewValidationError("date is required")
	}

	if _, err := findVisible[models.Account](ctx, s.db, in.FromAccountID, userID, "source account"); err != nil {
		return nil, err
	}
	if _, err := findVisible[models.Account](ctx, s.db, in.ToAccountID, userID, "destination account"); err != nil {
		return nil, err
	}

	category, err := s.transferCategory(ctx)
	if err != nil {
		return nil, err
	}

	transferID := uuid.NewString()
	description := normalizeText(in.Description)
	notes := normalizeText(in.Notes)

	legs := []models.Transaction{
		{
			UserID:      userID,
			AccountID:   in.FromAccountID,
			CategoryID:  category.ID,
			Type:        models.TypeExpense,
			Amount:      amount,
			Date:        in.Date,
			Description: description,
			Notes:       notes,
			TransferID:  &transferID,
		},
		{
			UserID:      userID,
			AccountID:   in.ToAccountID,
			CategoryID:  category.ID,
			Type:        models.TypeIncome,
			Amount:      amount,
			Date:        in.Date,
			Description: description,
			Notes:       notes,
			TransferID:  &transferID,
		},
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range legs {
			if err := tx.Create(&legs[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, NewInternalError("failed to create transfer", err)
	}

	logger.FromContext(ctx).Info().
		Uint("user_id", userID).
		Str("transfer_id", transferID).
		Uint("from_account_id", in.FromAccountID).
		Uint("to_account_id", in.ToAccountID).
		Str("amount", amount.StringFixed(2)).
		Msg("transfer created")

	return &TransferResult{ID: transferID, FromAccount: &legs[0], ToAccount: &legs[1]}, nil
}

// transferCategory 按系统键查找转账类别
func (s *TransferService) transferCategory(ctx context.Context) (*models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).
		Where("is_system = ? AND system_key = ?", true, models.SystemKeyTransfer).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("transfer category not found, run system seed")
		}
		return nil, NewInternalError("failed to load transfer category", err)
	}
	return &category, nil
}
