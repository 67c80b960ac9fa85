package service

import (
	"context"
	"strings"

	"fintrack/logger"
	"fintrack/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountService 账户服务
type AccountService struct {
	db *gorm.DB
}

// NewAccountService 创建账户服务
func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

// AccountInput 创建账户参数
type AccountInput struct {
	Name           string
	Type           models.AccountType
	InitialBalance *decimal.Decimal
	Color          *string
	Icon           *string
}

// AccountPatch 部分更新参数，nil 表示不修改
type AccountPatch struct {
	Name           *string
	Type           *models.AccountType
	InitialBalance *decimal.Decimal
	Color          *string
	Icon           *string
}

// AccountWithBalance 账户及其当前余额（初始余额 + 收入 - 支出）
type AccountWithBalance struct {
	models.Account
	CurrentBalance decimal.Decimal
}

// Create 创建账户
func (s *AccountService) Create(ctx context.Context, userID uint, in AccountInput) (*AccountWithBalance, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, NewValidationError("account name is required")
	}
	if !in.Type.Valid() {
		return nil, NewValidationError("invalid account type")
	}

	acc := models.Account{
		UserID: userID,
		Name:   name,
		Type:   in.Type,
		Color:  in.Color,
		Icon:   in.Icon,
	}
	if in.InitialBalance != nil {
		acc.InitialBalance = in.InitialBalance.Round(2)
	}

	if err := s.db.WithContext(ctx).Create(&acc).Error; err != nil {
		return nil, NewInternalError("failed to create account", err)
	}

	logger.FromContext(ctx).Info().Uint("user_id", userID).Uint("account_id", acc.ID).Msg("account created")
	return &AccountWithBalance{Account: acc, CurrentBalance: acc.InitialBalance}, nil
}

// List 列出用户的账户
func (s *AccountService) List(ctx context.Context, userID uint) ([]AccountWithBalance, error) {
	var accounts []models.Account
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC, id ASC").Find(&accounts).Error; err != nil {
		return nil, NewInternalError("failed to list accounts", err)
	}
	return s.withBalances(ctx, userID, accounts)
}

// GetOne 获取单个账户
func (s *AccountService) GetOne(ctx context.Context, id, userID uint) (*AccountWithBalance, error) {
	acc, err := s.get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	list, err := s.withBalances(ctx, userID, []models.Account{*acc})
	if err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (s *AccountService) get(ctx context.Context, id, userID uint) (*models.Account, error) {
	return findVisible[models.Account](ctx, s.db, id, userID, "account")
}

// Update 更新账户（仅更新传入的字段）
func (s *AccountService) Update(ctx context.Context, id, userID uint, patch AccountPatch) (*AccountWithBalance, error) {
	acc, err := s.get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, NewValidationError("account name is required")
		}
		updates["name"] = name
	}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return nil, NewValidationError("invalid account type")
		}
		updates["type"] = *patch.Type
	}
	if patch.InitialBalance != nil {
		updates["initial_balance"] = patch.InitialBalance.Round(2)
	}
	if patch.Color != nil {
		updates["color"] = *patch.Color
	}
	if patch.Icon != nil {
		updates["icon"] = *patch.Icon
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(acc).Updates(updates).Error; err != nil {
			return nil, NewInternalError("failed to update account", err)
		}
		logger.FromContext(ctx).Info().Uint("user_id", userID).Uint("account_id", id).Msg("account updated")
	}
	return s.GetOne(ctx, id, userID)
}

// Delete 删除账户，存在交易时拒绝删除
func (s *AccountService) Delete(ctx context.Context, id, userID uint) error {
	acc, err := s.get(ctx, id, userID)
	if err != nil {
		return err
	}

	used, err := exists(ctx, s.db, &models.Transaction{}, "account_id = ?", acc.ID)
	if err != nil {
		return NewInternalError("failed to check account transactions", err)
	}
	if used {
		return NewConflictError("account has transactions and cannot be deleted")
	}

	if err := s.db.WithContext(ctx).Delete(acc).Error; err != nil {
		return NewInternalError("failed to delete account", err)
	}
	logger.FromContext(ctx).Info().Uint("user_id", userID).Uint("account_id", id).Msg("account deleted")
	return nil
}

type accountTotal struct {
	AccountID uint
	Type      models.TransactionType
	Total     decimal.NullDecimal
}

// withBalances 一次分组查询计算所有账户的当前余额
func (s *AccountService) withBalances(ctx context.Context, userID uint, accounts []models.Account) ([]AccountWithBalance, error) {
	result := make([]AccountWithBalance, 0, len(accounts))
	if len(accounts) == 0 {
		return result, nil
	}

	ids := make([]uint, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}

	var totals []accountTotal
	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("account_id, type, SUM(amount) AS total").
		Where("user_id = ? AND account_id IN ?", userID, ids).
		Group("account_id, type").
		Scan(&totals).Error; err != nil {
		return nil, NewInternalError("failed to compute balances", err)
	}

	delta := make(map[uint]decimal.Decimal, len(accounts))
	for _, t := range totals {
		if !t.Total.Valid {
			continue
		}
		switch t.Type {
		case models.TypeIncome:
			delta[t.AccountID] = delta[t.AccountID].Add(t.Total.Decimal)
		case models.TypeExpense:
			delta[t.AccountID] = delta[t.AccountID].Sub(t.Total.Decimal)
		}
	}

	for _, a := range accounts {
		result = append(result, AccountWithBalance{
			Account:        a,
			CurrentBalance: a.InitialBalance.Add(delta[a.ID]).Round(2),
		})
	}
	return result, nil
}
