package service

import (
	"context"
	"strings"
	"time"

	"fintrack/logger"
	"fintrack/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	MsgTransactionRemoved = "transaction removed"
	MsgTransferRemoved    = "transfer removed"

	defaultListLimit = 50
	maxListLimit     = 200
)

// TransactionService 交易服务：创建与更新共用同一条校验流水线
type TransactionService struct {
	db *gorm.DB
}

// NewTransactionService 创建交易服务
func NewTransactionService(db *gorm.DB) *TransactionService {
	return &TransactionService{db: db}
}

// TransactionInput 创建交易参数
type TransactionInput struct {
	AccountID     uint
	CategoryID    uint
	SubcategoryID *uint
	Type          models.TransactionType
	Amount        decimal.Decimal
	Date          time.Time
	Description   *string
	Notes         *string
}

// OptionalID 区分“未传”“显式置空”“具体值”三种情况
type OptionalID struct {
	Set   bool
	Value *uint
}

// TransactionPatch 交易部分更新参数，nil / 未 Set 表示沿用原值
type TransactionPatch struct {
	AccountID     *uint
	CategoryID    *uint
	SubcategoryID OptionalID
	Type          *models.TransactionType
	Amount        *decimal.Decimal
	Date          *time.Time
	Description   *string
	Notes         *string
}

// Apply 将补丁合并到已有记录上，得到待校验的候选记录
func (p TransactionPatch) Apply(t models.Transaction) models.Transaction {
	if p.AccountID != nil {
		t.AccountID = *p.AccountID
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.SubcategoryID.Set {
		t.SubcategoryID = p.SubcategoryID.Value
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = p.Amount.Round(2)
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Description != nil {
		t.Description = normalizeText(p.Description)
	}
	if p.Notes != nil {
		t.Notes = normalizeText(p.Notes)
	}
	return t
}

// changesLinkage 补丁是否修改账户、类别、子类别或类型
func (p TransactionPatch) changesLinkage(t *models.Transaction) bool {
	return p.changesAccount(t) ||
		(p.CategoryID != nil && *p.CategoryID != t.CategoryID) ||
		(p.SubcategoryID.Set && !sameID(p.SubcategoryID.Value, t.SubcategoryID)) ||
		(p.Type != nil && *p.Type != t.Type)
}

func (p TransactionPatch) changesAccount(t *models.Transaction) bool {
	return p.AccountID != nil && *p.AccountID != t.AccountID
}

// sharedUpdates 转账两条腿必须保持一致的字段
func (p TransactionPatch) sharedUpdates(candidate *models.Transaction) map[string]interface{} {
	updates := map[string]interface{}{}
	if p.Amount != nil {
		updates["amount"] = candidate.Amount
	}
	if p.Date != nil {
		updates["date"] = candidate.Date
	}
	if p.Description != nil {
		updates["description"] = candidate.Description
	}
	if p.Notes != nil {
		updates["notes"] = candidate.Notes
	}
	return updates
}

// updates 仅包含传入字段的更新集合
func (p TransactionPatch) updates(candidate *models.Transaction) map[string]interface{} {
	updates := p.sharedUpdates(candidate)
	if p.AccountID != nil {
		updates["account_id"] = candidate.AccountID
	}
	if p.CategoryID != nil {
		updates["category_id"] = candidate.CategoryID
	}
	if p.SubcategoryID.Set {
		updates["subcategory_id"] = candidate.SubcategoryID
	}
	if p.Type != nil {
		updates["type"] = candidate.Type
	}
	return updates
}

// TransactionFilter 列表筛选条件
type TransactionFilter struct {
	AccountID     *uint
	CategoryID    *uint
	SubcategoryID *uint
	Type          *models.TransactionType
	StartDate     *time.Time
	EndDate       *time.Time
	Page          int
	Limit         int
}

// Normalize 填充默认分页参数
func (f *TransactionFilter) Normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
}

// scope 将筛选条件应用到查询上（不含分页），列名带表名以便联表查询复用
func (f TransactionFilter) scope(userID uint) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		q = q.Where("transactions.user_id = ?", userID)
		if f.AccountID != nil {
			q = q.Where("transactions.account_id = ?", *f.AccountID)
		}
		if f.CategoryID != nil {
			q = q.Where("transactions.category_id = ?", *f.CategoryID)
		}
		if f.SubcategoryID != nil {
			q = q.Where("transactions.subcategory_id = ?", *f.SubcategoryID)
		}
		if f.Type != nil {
			q = q.Where("transactions.type = ?", *f.Type)
		}
		if f.StartDate != nil {
			q = q.Where("transactions.date >= ?", *f.StartDate)
		}
		if f.EndDate != nil {
			q = q.Where("transactions.date <= ?", *f.EndDate)
		}
		return q
	}
}

// validate 校验流水线：基础字段 → 账户 → 类别 → 子类别归属 → 类型匹配
func (s *TransactionService) validate(ctx context.Context, userID uint, t *models.Transaction) error {
	if !t.Amount.IsPositive() {
		return NewValidationError("amount must be greater than zero")
	}
	if !t.Type.Valid() {
		return NewValidationError("type must be income or expense")
	}
	if t.Date.IsZero() {
		return NewValidationError("date is required")
	}

	if _, err := findVisible[models.Account](ctx, s.db, t.AccountID, userID, "account"); err != nil {
		return err
	}

	cat, err := findVisible[models.Category](ctx, s.db, t.CategoryID, userID, "category")
	if err != nil {
		return err
	}

	if t.SubcategoryID != nil {
		sub, err := findVisible[models.Subcategory](ctx, s.db, *t.SubcategoryID, userID, "subcategory")
		if err != nil {
			return err
		}
		if sub.CategoryID != cat.ID {
			return NewConflictError("subcategory does not belong to category")
		}
	}

	// 转账类别只是占位，收入腿与支出腿共用，不做类型匹配
	if !cat.IsTransfer() && t.Type != cat.Type {
		return NewValidationError("transaction type must match category type")
	}
	return nil
}

// Create 创建交易
func (s *TransactionService) Create(ctx context.Context, userID uint, in TransactionInput) (*models.Transaction, error) {
	t := models.Transaction{
		UserID:        userID,
		AccountID:     in.AccountID,
		CategoryID:    in.CategoryID,
		SubcategoryID: in.SubcategoryID,
		Type:          in.Type,
		Amount:        in.Amount.Round(2),
		Date:          in.Date,
		Description:   normalizeText(in.Description),
		Notes:         normalizeText(in.Notes),
	}
	if err := s.validate(ctx, userID, &t); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, NewInternalError("failed to create transaction", err)
	}

	logger.FromContext(ctx).Info().
		Uint("user_id", userID).
		Uint("transaction_id", t.ID).
		Str("type", string(t.Type)).
		Str("amount", t.Amount.StringFixed(2)).
		Msg("transaction created")
	return &t, nil
}

// GetOne 获取单条交易
func (s *TransactionService) GetOne(ctx context.Context, id, userID uint) (*models.Transaction, error) {
	return findVisible[models.Transaction](ctx, s.db, id, userID, "transaction")
}

// List 按条件分页列出交易，按日期倒序
func (s *TransactionService) List(ctx context.Context, userID uint, f TransactionFilter) ([]models.Transaction, int64, error) {
	f.Normalize()

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).Scopes(f.scope(userID)).Count(&total).Error; err != nil {
		return nil, 0, NewInternalError("failed to count transactions", err)
	}

	list := []models.Transaction{}
	if err := s.db.WithContext(ctx).Scopes(f.scope(userID)).
		Order("transactions.date DESC, transactions.id DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&list).Error; err != nil {
		return nil, 0, NewInternalError("failed to list transactions", err)
	}
	return list, total, nil
}

// Update 合并补丁后重新校验，再仅更新传入的字段
// 转账腿只允许修改共享字段，并同步到另一条腿
func (s *TransactionService) Update(ctx context.Context, id, userID uint, patch TransactionPatch) (*models.Transaction, error) {
	existing, err := s.GetOne(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if existing.IsTransferLeg() {
		return s.updateTransferLeg(ctx, userID, existing, patch)
	}

	candidate := patch.Apply(*existing)
	if err := s.validate(ctx, userID, &candidate); err != nil {
		return nil, err
	}

	updates := patch.updates(&candidate)
	if len(updates) == 0 {
		return existing, nil
	}
	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND user_id = ?", existing.ID, userID).
		Updates(updates).Error; err != nil {
		return nil, NewInternalError("failed to update transaction", err)
	}

	logger.FromContext(ctx).Info().Uint("user_id", userID).Uint("transaction_id", id).Msg("transaction updated")
	return s.GetOne(ctx, id, userID)
}

func (s *TransactionService) updateTransferLeg(ctx context.Context, userID uint, existing *models.Transaction, patch TransactionPatch) (*models.Transaction, error) {
	if patch.changesAccount(existing) {
		return nil, NewValidationError("cannot change account on a transfer")
	}
	if patch.changesLinkage(existing) {
		return nil, NewValidationError("cannot change category or type on a transfer")
	}

	candidate := patch.Apply(*existing)
	if !candidate.Amount.IsPositive() {
		return nil, NewValidationError("amount must be greater than zero")
	}
	if candidate.Date.IsZero() {
		return nil, NewValidationError("date is required")
	}

	shared := patch.sharedUpdates(&candidate)
	if len(shared) == 0 {
		return existing, nil
	}

	transferID := *existing.TransferID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Transaction{}).
			Where("transfer_id = ? AND user_id = ?", transferID, userID).
			Updates(shared)
		if res.Error != nil {
			return NewInternalError("failed to update transfer", res.Error)
		}
		if res.RowsAffected != 2 {
			return NewConflictError("transfer is incomplete: the paired transaction no longer exists")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().Uint("user_id", userID).Str("transfer_id", transferID).Msg("transfer updated")
	return s.GetOne(ctx, existing.ID, userID)
}

// Delete 删除交易；转账腿会连同另一条腿一起删除
func (s *TransactionService) Delete(ctx context.Context, id, userID uint) (string, error) {
	existing, err := s.GetOne(ctx, id, userID)
	if err != nil {
		return "", err
	}

	if !existing.IsTransferLeg() {
		if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", existing.ID, userID).Delete(&models.Transaction{}).Error; err != nil {
			return "", NewInternalError("failed to delete transaction", err)
		}
		logger.FromContext(ctx).Info().Uint("user_id", userID).Uint("transaction_id", id).Msg("transaction deleted")
		return MsgTransactionRemoved, nil
	}

	transferID := *existing.TransferID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("transfer_id = ? AND user_id = ?", transferID, userID).Delete(&models.Transaction{})
		if res.Error != nil {
			return NewInternalError("failed to delete transfer", res.Error)
		}
		if res.RowsAffected == 0 {
			return NewNotFoundError("transaction not found")
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	logger.FromContext(ctx).Info().Uint("user_id", userID).Str("transfer_id", transferID).Msg("transfer deleted")
	return MsgTransferRemoved, nil
}

func normalizeText(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func sameID(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
