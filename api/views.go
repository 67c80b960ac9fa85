package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"fintrack/models"
	"fintrack/service"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// parseDate 解析日期，支持 2006-01-02 与 RFC3339，统一为 UTC 零点
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(dateLayout, s, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// optionalID 区分字段缺省与显式 null
type optionalID struct {
	Set   bool
	Value *uint
}

func (o *optionalID) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v uint
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func (o optionalID) toService() service.OptionalID {
	return service.OptionalID{Set: o.Set, Value: o.Value}
}

// AccountView 账户响应
type AccountView struct {
	ID             uint               `json:"id" example:"1"`
	UserID         uint               `json:"userId" example:"1"`
	Name           string             `json:"name" example:"Nubank"`
	Type           models.AccountType `json:"type" example:"checking"`
	InitialBalance float64            `json:"initialBalance" example:"1000"`
	CurrentBalance float64            `json:"currentBalance" example:"850.5"`
	Color          *string            `json:"color" example:"#8b5cf6"`
	Icon           *string            `json:"icon" example:"wallet"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

func newAccountView(a service.AccountWithBalance) AccountView {
	return AccountView{
		ID:             a.ID,
		UserID:         a.UserID,
		Name:           a.Name,
		Type:           a.Type,
		InitialBalance: a.InitialBalance.InexactFloat64(),
		CurrentBalance: a.CurrentBalance.InexactFloat64(),
		Color:          a.Color,
		Icon:           a.Icon,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// TransactionView 交易响应，金额为数字，日期为 YYYY-MM-DD
type TransactionView struct {
	ID            uint                   `json:"id" example:"10"`
	UserID        uint                   `json:"userId" example:"1"`
	AccountID     uint                   `json:"accountId" example:"1"`
	CategoryID    uint                   `json:"categoryId" example:"3"`
	SubcategoryID *uint                  `json:"subcategoryId" example:"7"`
	Type          models.TransactionType `json:"type" example:"expense"`
	Amount        float64                `json:"amount" example:"89.9"`
	Date          string                 `json:"date" example:"2025-01-15"`
	Description   *string                `json:"description" example:"Mercado"`
	Notes         *string                `json:"notes"`
	TransferID    *string                `json:"transferId"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

func newTransactionView(t *models.Transaction) TransactionView {
	return TransactionView{
		ID:            t.ID,
		UserID:        t.UserID,
		AccountID:     t.AccountID,
		CategoryID:    t.CategoryID,
		SubcategoryID: t.SubcategoryID,
		Type:          t.Type,
		Amount:        t.Amount.InexactFloat64(),
		Date:          t.Date.UTC().Format(dateLayout),
		Description:   t.Description,
		Notes:         t.Notes,
		TransferID:    t.TransferID,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func newTransactionViews(list []models.Transaction) []TransactionView {
	views := make([]TransactionView, 0, len(list))
	for i := range list {
		views = append(views, newTransactionView(&list[i]))
	}
	return views
}

// TransferView 转账响应
type TransferView struct {
	ID          string          `json:"id" example:"5b0f7c9e-3f7a-4c55-9d0e-2c1f3c7b9a10"`
	FromAccount TransactionView `json:"fromAccount"`
	ToAccount   TransactionView `json:"toAccount"`
}

// SummaryView 收支汇总响应
type SummaryView struct {
	Income  float64 `json:"income" example:"4500"`
	Expense float64 `json:"expense" example:"1250.4"`
	Balance float64 `json:"balance" example:"3249.6"`
}

// CategoryTotalView 类别支出占比
type CategoryTotalView struct {
	ID           uint    `json:"id" example:"3"`
	Name         string  `json:"name" example:"Alimentação"`
	TotalAmount  float64 `json:"totalAmount" example:"820.5"`
	Percentage   float64 `json:"percentage" example:"65.62"`
	CategoryID   *uint   `json:"categoryId,omitempty"`
	CategoryName *string `json:"categoryName,omitempty"`
}

func newCategoryTotalViews(list []service.CategoryTotal) []CategoryTotalView {
	views := make([]CategoryTotalView, 0, len(list))
	for _, item := range list {
		views = append(views, CategoryTotalView{
			ID:           item.ID,
			Name:         item.Name,
			TotalAmount:  item.TotalAmount.InexactFloat64(),
			Percentage:   item.Percentage.InexactFloat64(),
			CategoryID:   item.CategoryID,
			CategoryName: item.CategoryName,
		})
	}
	return views
}

// DescriptionsView 描述联想响应
type DescriptionsView struct {
	Items []string `json:"items"`
}

// requireAmount 金额必填
func requireAmount(d *decimal.Decimal) (decimal.Decimal, bool) {
	if d == nil {
		return decimal.Zero, false
	}
	return *d, true
}
