package api

import (
	"fintrack/database"
	"fintrack/middleware"
	"fintrack/models"
	"fintrack/service"

	"github.com/gin-gonic/gin"
)

// CategoryHandler 收支类别处理器
type CategoryHandler struct{}

func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

func (h *CategoryHandler) svc() *service.CategoryService {
	return service.NewCategoryService(database.DB)
}

type CategoryCreateRequest struct {
	Name  string                 `json:"name" binding:"required,max=50" example:"Salário"`
	Type  models.TransactionType `json:"type" binding:"required,oneof=income expense" example:"income"`
	Color *string                `json:"color" binding:"omitempty,max=20" example:"#22c55e"`
	Icon  *string                `json:"icon" binding:"omitempty,max=50" example:"briefcase"`
}

type CategoryUpdateRequest struct {
	Name  *string                 `json:"name" binding:"omitempty,max=50"`
	Type  *models.TransactionType `json:"type" binding:"omitempty,oneof=income expense"`
	Color *string                 `json:"color" binding:"omitempty,max=20"`
	Icon  *string                 `json:"icon" binding:"omitempty,max=50"`
}

// Create 创建类别
// @Summary 创建类别
// @Description 创建用户自己的收支类别，不能与系统类别重名
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryCreateRequest true "类别信息"
// @Success 201 {object} models.Category "创建成功"
// @Failure 400 {object} Problem "请求参数错误"
// @Failure 409 {object} Problem "与系统类别重名"
// @Router /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req CategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	cat, err := h.svc().CreateCategory(c.Request.Context(), middleware.GetCurrentUserID(c), service.CategoryInput{
		Name:  req.Name,
		Type:  req.Type,
		Color: req.Color,
		Icon:  req.Icon,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, cat)
}

// List 类别列表
// @Summary 获取类别列表
// @Description 返回用户自己的类别与全部系统类别
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Category "获取成功"
// @Router /categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	list, err := h.svc().ListCategories(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	OK(c, list)
}

// Get 获取类别
// @Summary 获取类别详情
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Success 200 {object} models.Category "获取成功"
// @Failure 403 {object} Problem "无权访问"
// @Failure 404 {object} Problem "类别不存在"
// @Router /categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cat, err := h.svc().GetOneCategory(c.Request.Context(), id, middleware.GetCurrentUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	OK(c, cat)
}

// Update 更新类别
// @Summary 更新类别
// @Description 系统类别只读
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Param request body CategoryUpdateRequest true "类别信息"
// @Success 200 {object} models.Category "更新成功"
// @Failure 403 {object} Problem "无权访问或系统类别"
// @Failure 404 {object} Problem "类别不存在"
// @Failure 409 {object} Problem "与系统类别重名或已有交易"
// @Router /categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req CategoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	cat, err := h.svc().UpdateCategory(c.Request.Context(), id, middleware.GetCurrentUserID(c), service.CategoryPatch{
		Name:  req.Name,
		Type:  req.Type,
		Color: req.Color,
		Icon:  req.Icon,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	OK(c, cat)
}

// Delete 删除类别
// @Summary 删除类别
// @Description 系统类别不可删除；存在子类别或交易时拒绝
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Success 200 {object} MessageResponse "删除成功"
// @Failure 403 {object} Problem "无权访问或系统类别"
// @Failure 404 {object} Problem "类别不存在"
// @Failure 409 {object} Problem "存在子类别或交易"
// @Router /categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc().DeleteCategory(c.Request.Context(), id, middleware.GetCurrentUserID(c)); err != nil {
		HandleError(c, err)
		return
	}
	Message(c, "category removed")
}

// ListSubcategories 类别下的子类别
// @Summary 获取类别下的子类别
// @Description 系统类别返回空列表
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Success 200 {array} models.Subcategory "获取成功"
// @Failure 403 {object} Problem "无权访问"
// @Failure 404 {object} Problem "类别不存在"
// @Router /categories/{id}/subcategories [get]
func (h *CategoryHandler) ListSubcategories(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc().ListSubcategories(c.Request.Context(), id, middleware.GetCurrentUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	OK(c, list)
}
