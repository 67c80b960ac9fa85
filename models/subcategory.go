package models

import "time"

// Subcategory 子类别，只能挂在用户自己的非系统类别下
type Subcategory struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"userId" gorm:"index;not null"`
	CategoryID uint      `json:"categoryId" gorm:"index;not null"`
	Name       string    `json:"name" gorm:"size:50;not null"`
	Color      *string   `json:"color" gorm:"size:20"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (Subcategory) TableName() string {
	return "subcategories"
}
