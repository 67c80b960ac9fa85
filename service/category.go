package service

import (
	"context"
	"errors"
	"strings"

	"fintrack/logger"
	"fintrack/models"

	"gorm.io/gorm"
)

// CategoryService 类别与子类别服务
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService 创建类别服务
func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

// CategoryInput 创建类别参数
type CategoryInput struct {
	Name  string
	Type  models.TransactionType
	Color *string
	Icon  *string
}

// CategoryPatch 类别部分更新参数
type CategoryPatch struct {
	Name  *string
	Type  *models.TransactionType
	Color *string
	Icon  *string
}

// SubcategoryInput 创建子类别参数
type SubcategoryInput struct {
	CategoryID uint
	Name       string
	Color      *string
}

// SubcategoryPatch 子类别部分更新参数
type SubcategoryPatch struct {
	Name  *string
	Color *string
}

// CreateCategory 创建用户类别，不允许与系统类别重名
func (s *CategoryService) CreateCategory(ctx context.Context, userID uint, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, NewValidationError("category name is required")
	}
	if !in.Type.Valid() {
		return nil, NewValidationError("category type must be income or expense")
	}

	if err := s.ensureNoSystemName(ctx, name); err != nil {
		return nil, err
	}

	uid := userID
	cat := models.Category{
		UserID: &uid,
		Name:   name,
		Type:   in.Type,
		Color:  in.Color,
		Icon:   in.Icon,
	}
	if err := s.db.WithContext(ctx).Create(&cat).Error; err != nil {
		return nil, NewInternalError("failed to create category", err)
	}

	logger.FromContext(ctx).Info().Uint("user_id", userID).Uint("category_id", cat.ID).Msg("category created")
	return &cat, nil
}

func (s *CategoryService) ensureNoSystemName(ctx context.Context, name string) error {
	taken, err := exists(ctx, s.db, &models.Category{}, "is_system = ? AND name = ?", true, name)
	if err != nil {
		return NewInternalError("failed to check category name", err)
	}
	if taken {
		return NewConflictError("a system category with this name already exists")
	}
	return nil
}

// ListCategories 返回用户自己的类别与全部系统类别
func (s *CategoryService) ListCategories(ctx context.Context, userID uint) ([]models.Category, error) {
	var list []models.Category
	if err := s.db.WithContext(ctx).
		Where("user_id = ? OR is_system = ?", userID, true).
		Order("is_system ASC, type ASC, name ASC, id ASC").
		Find(&list).Error; err != nil {
		return nil, NewInternalError("failed to list categories", err)
	}
	return list, nil
}

// GetOneCategory 获取类别，系统类别对所有用户可见
func (s *CategoryService) GetOneCategory(ctx context.Context, id, userID uint) (*models.Category, error) {
	return findVisible[models.Category](ctx, s.db, id, userID, "category")
}

// UpdateCategory 更新类别，系统类别只读
func (s *CategoryService) UpdateCategory(ctx context.Context, id, userID uint, patch CategoryPatch) (*models.Category, error) {
	cat, err := s.GetOneCategory(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if cat.System {
		return nil, NewForbiddenError("system categories cannot be modified")
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, NewValidationError("category name is required")
		}
		if name != cat.Name {
			if err := s.ensureNoSystemName(ctx, name); err != nil {
				return nil, err
			}
		}
		updates["name"] = name
	}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return nil, NewValidationError("category type must be income or expense")
		}
		if *patch.Type != cat.Type {
			// 已有交易的类别改变类型会破坏交易与类别类型一致的约束
			used, err := exists(ctx, s.db, &models.Transaction{}, "category_id = ?", cat.ID)
			if err != nil {
				return nil, NewInternalError("failed to check category transactions", err)
			}
			if used {
				return nil, NewConflictError("category has transactions and its type cannot be changed")
			}
		}
		updates["type"] = *patch.Type
	}
	if patch.Color != nil {
		updates["color"] = *patch.Color
	}
	if patch.Icon != nil {
		updates["icon"] = *patch.Icon
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(cat).Updates(updates).Error; err != nil {
			return nil, NewInternalError("failed to update category", err)
		}
		logger.FromContext(ctx).Info().Uint("user_id", userID).Uint("category_id", id).Msg("category updated")
	}
	return s.GetOneCategory(ctx, id, userID)
}

// DeleteCategory 删除类别，系统类别不可删除，存在子类别或交易时拒绝
func (s *CategoryService) DeleteCategory(ctx context.Context, id, userID uint) error {
	cat, err := s.GetOneCategory(ctx, id, userID)
	if err != nil {
		return err
	}
	if cat.System {
		return NewForbiddenError("system categories cannot be deleted")
	}

	hasSubs, err := exists(ctx, s.db, &models.Subcategory{}, "category_id = ?", cat.ID)
	if err != nil {
		return NewInternalError("failed to check subcategories", err)
	}
	if hasSubs {
		return NewConflictError("category has subcategories and cannot be deleted")
	}

	used, err := exists(ctx, s.db, &models.Transaction{}, "category_id = ?", cat.ID)
	if err != nil {
		return NewInternalError("failed to check category transactions", err)
	}
	if used {
		return NewConflictError("category has transactions and cannot be deleted")
	}

	if err := s.db.WithContext(ctx).Delete(cat).Error; err != nil {
		return NewInternalError("failed to delete category", err)
	}
	logger.FromContext(ctx).Info().Uint("user_id", userID).Uint("category_id", id).Msg("category deleted")
	return nil
}

// categoryForSubcategories 读取类别用于子类别操作：不存在 404，系统类别交给调用方处理，非所有者 403
func (s *CategoryService) categoryForSubcategories(ctx context.Context, categoryID, userID uint) (*models.Category, error) {
	var cat models.Category
	if err := s.db.WithContext(ctx).First(&cat, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("category not found")
		}
		return nil, NewInternalError("failed to load category", err)
	}
	if !cat.System && !cat.OwnedBy(userID) {
		return nil, NewForbiddenError("access denied to category")
	}
	return &cat, nil
}

// CreateSubcategory 在用户类别下创建子类别，未指定颜色时继承类别颜色
func (s *CategoryService) CreateSubcategory(ctx context.Context, userID uint, in SubcategoryInput) (*models.Subcategory, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, NewValidationError("subcategory name is required")
	}

	cat, err := s.categoryForSubcategories(ctx, in.CategoryID, userID)
	if err != nil {
		return nil, err
	}
	if cat.System {
		return nil, NewValidationError("cannot create subcategories under a system category")
	}

	color := in.Color
	if color == nil || *color == "" {
		color = cat.Color
	}
	sub := models.Subcategory{
		UserID:     userID,
		CategoryID: cat.ID,
		Name:       name,
		Color:      color,
	}
	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		return nil, NewInternalError("failed to create subcategory", err)
	}

	logger.FromContext(ctx).Info().Uint("user_id", userID).Uint("subcategory_id", sub.ID).Msg("subcategory created")
	return &sub, nil
}

// ListSubcategories 列出类别下的子类别，系统类别返回空列表
func (s *CategoryService) ListSubcategories(ctx context.Context, categoryID, userID uint) ([]models.Subcategory, error) {
	cat, err := s.categoryForSubcategories(ctx, categoryID, userID)
	if err != nil {
		return nil, err
	}
	list := []models.Subcategory{}
	if cat.System {
		return list, nil
	}
	if err := s.db.WithContext(ctx).
		Where("category_id = ? AND user_id = ?", cat.ID, userID).
		Order("name ASC, id ASC").
		Find(&list).Error; err != nil {
		return nil, NewInternalError("failed to list subcategories", err)
	}
	return list, nil
}

// GetOneSubcategory 获取子类别
func (s *CategoryService) GetOneSubcategory(ctx context.Context, id, userID uint) (*models.Subcategory, error) {
	return findVisible[models.Subcategory](ctx, s.db, id, userID, "subcategory")
}

// UpdateSubcategory 更新子类别
func (s *CategoryService) UpdateSubcategory(ctx context.Context, id, userID uint, patch SubcategoryPatch) (*models.Subcategory, error) {
	sub, err := s.GetOneSubcategory(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, NewValidationError("subcategory name is required")
		}
		updates["name"] = name
	}
	if patch.Color != nil {
		updates["color"] = *patch.Color
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(sub).Updates(updates).Error; err != nil {
			return nil, NewInternalError("failed to update subcategory", err)
		}
		logger.FromContext(ctx).Info().Uint("user_id", userID).Uint("subcategory_id", id).Msg("subcategory updated")
	}
	return s.GetOneSubcategory(ctx, id, userID)
}

// DeleteSubcategory 删除子类别，仍被交易引用时拒绝
func (s *CategoryService) DeleteSubcategory(ctx context.Context, id, userID uint) error {
	sub, err := s.GetOneSubcategory(ctx, id, userID)
	if err != nil {
		return err
	}

	used, err := exists(ctx, s.db, &models.Transaction{}, "subcategory_id = ?", sub.ID)
	if err != nil {
		return NewInternalError("failed to check subcategory transactions", err)
	}
	if used {
		return NewConflictError("subcategory has transactions and cannot be deleted")
	}

	if err := s.db.WithContext(ctx).Delete(sub).Error; err != nil {
		return NewInternalError("failed to delete subcategory", err)
	}
	logger.FromContext(ctx).Info().Uint("user_id", userID).Uint("subcategory_id", id).Msg("subcategory deleted")
	return nil
}
