package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction 交易记录模型
// TransferID 非空表示该记录是转账生成的两条记录之一
type Transaction struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	UserID        uint            `json:"userId" gorm:"index;not null"`
	AccountID     uint            `json:"accountId" gorm:"index;not null"`
	CategoryID    uint            `json:"categoryId" gorm:"index;not null"`
	SubcategoryID *uint           `json:"subcategoryId" gorm:"index"`
	Type          TransactionType `json:"type" gorm:"size:10;not null"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(14,2);not null"`
	Date          time.Time       `json:"date" gorm:"type:date;not null;index"`
	Description   *string         `json:"description" gorm:"size:255"`
	Notes         *string         `json:"notes" gorm:"type:text"`
	TransferID    *string         `json:"transferId" gorm:"size:36;index"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// TableName 设置表名
func (Transaction) TableName() string {
	return "transactions"
}

// IsTransferLeg 是否为转账的一条腿
func (t *Transaction) IsTransferLeg() bool {
	return t.TransferID != nil
}
