package service

import (
	"context"
	"errors"

	"fintrack/models"

	"gorm.io/gorm"
)

// findVisible 按 ID 读取实体并校验当前用户是否可见
// 不存在返回 NotFound，存在但不属于该用户返回 Forbidden
func findVisible[T any, PT interface {
	*T
	models.Owned
}](ctx context.Context, db *gorm.DB, id, userID uint, label string) (PT, error) {
	var v T
	if err := db.WithContext(ctx).First(&v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError(label + " not found")
		}
		return nil, NewInternalError("failed to load "+label, err)
	}
	p := PT(&v)
	if !p.VisibleTo(userID) {
		return nil, NewForbiddenError("access denied to " + label)
	}
	return p, nil
}

// exists 判断满足条件的记录是否存在
func exists(ctx context.Context, db *gorm.DB, model interface{}, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(model).Where(query, args...).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
