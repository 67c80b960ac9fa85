package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType 账户类型
type AccountType string

const (
	AccountTypeCash       AccountType = "cash"
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCreditCard AccountType = "credit_card"
	AccountTypeInvestment AccountType = "investment"
)

// Valid 是否为合法的账户类型
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeCash, AccountTypeChecking, AccountTypeSavings, AccountTypeCreditCard, AccountTypeInvestment:
		return true
	}
	return false
}

// Account 账户模型
type Account struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	UserID         uint            `json:"userId" gorm:"index;not null"`
	Name           string          `json:"name" gorm:"size:100;not null"`
	Type           AccountType     `json:"type" gorm:"size:20;not null"`
	InitialBalance decimal.Decimal `json:"initialBalance" gorm:"type:decimal(14,2);not null;default:0"`
	Color          *string         `json:"color" gorm:"size:20"`
	Icon           *string         `json:"icon" gorm:"size:50"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (Account) TableName() string {
	return "accounts"
}
