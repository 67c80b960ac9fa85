package models

import (
	"time"
)

// TransactionType 交易/类别类型
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Valid 是否为合法的收支类型
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// SystemKeyTransfer 系统转账类别的固定标识，不依赖名称匹配
const SystemKeyTransfer = "transfer"

// Category 收支类别
// 系统类别 user_id 为空且 system=true，对所有用户只读可见
type Category struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	UserID    *uint           `json:"userId" gorm:"index"`
	Name      string          `json:"name" gorm:"size:50;not null"`
	Type      TransactionType `json:"type" gorm:"size:10;not null"`
	System    bool            `json:"system" gorm:"column:is_system;not null;default:false;index"`
	SystemKey *string         `json:"-" gorm:"size:30;uniqueIndex"`
	Color     *string         `json:"color" gorm:"size:20"`
	Icon      *string         `json:"icon" gorm:"size:50"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (Category) TableName() string {
	return "categories"
}

// IsTransfer 是否为系统转账类别
func (c *Category) IsTransfer() bool {
	return c.System && c.SystemKey != nil && *c.SystemKey == SystemKeyTransfer
}
