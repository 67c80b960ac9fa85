package api

import (
	"fintrack/database"
	"fintrack/middleware"
	"fintrack/service"

	"github.com/gin-gonic/gin"
)

// SubcategoryHandler 子类别处理器
type SubcategoryHandler struct{}

func NewSubcategoryHandler() *SubcategoryHandler {
	return &SubcategoryHandler{}
}

func (h *SubcategoryHandler) svc() *service.CategoryService {
	return service.NewCategoryService(database.DB)
}

type SubcategoryCreateRequest struct {
	CategoryID uint    `json:"categoryId" binding:"required" example:"3"`
	Name       string  `json:"name" binding:"required,max=50" example:"Mercado"`
	Color      *string `json:"color" binding:"omitempty,max=20" example:"#f97316"`
}

type SubcategoryUpdateRequest struct {
	Name  *string `json:"name" binding:"omitempty,max=50"`
	Color *string `json:"color" binding:"omitempty,max=20"`
}

// Create 创建子类别
// @Summary 创建子类别
// @Description 只能挂在自己的非系统类别下，未指定颜色时继承类别颜色
// @Tags 子类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SubcategoryCreateRequest true "子类别信息"
// @Success 201 {object} models.Subcategory "创建成功"
// @Failure 400 {object} Problem "请求参数错误或系统类别"
// @Failure 403 {object} Problem "无权访问"
// @Failure 404 {object} Problem "类别不存在"
// @Router /subcategories [post]
func (h *SubcategoryHandler) Create(c *gin.Context) {
	var req SubcategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	sub, err := h.svc().CreateSubcategory(c.Request.Context(), middleware.GetCurrentUserID(c), service.SubcategoryInput{
		CategoryID: req.CategoryID,
		Name:       req.Name,
		Color:      req.Color,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, sub)
}

// Get 获取子类别
// @Summary 获取子类别详情
// @Tags 子类别
// @Produce json
// @Security BearerAuth
// @Param id path int true "子类别ID"
// @Success 200 {object} models.Subcategory "获取成功"
// @Failure 403 {object} Problem "无权访问"
// @Failure 404 {object} Problem "子类别不存在"
// @Router /subcategories/{id} [get]
func (h *SubcategoryHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	sub, err := h.svc().GetOneSubcategory(c.Request.Context(), id, middleware.GetCurrentUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	OK(c, sub)
}

// Update 更新子类别
// @Summary 更新子类别
// @Tags 子类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "子类别ID"
// @Param request body SubcategoryUpdateRequest true "子类别信息"
// @Success 200 {object} models.Subcategory "更新成功"
// @Failure 403 {object} Problem "无权访问"
// @Failure 404 {object} Problem "子类别不存在"
// @Router /subcategories/{id} [put]
func (h *SubcategoryHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req SubcategoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	sub, err := h.svc().UpdateSubcategory(c.Request.Context(), id, middleware.GetCurrentUserID(c), service.SubcategoryPatch{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	OK(c, sub)
}

// Delete 删除子类别
// @Summary 删除子类别
// @Description 仍被交易引用时拒绝删除
// @Tags 子类别
// @Produce json
// @Security BearerAuth
// @Param id path int true "子类别ID"
// @Success 200 {object} MessageResponse "删除成功"
// @Failure 403 {object} Problem "无权访问"
// @Failure 404 {object} Problem "子类别不存在"
// @Failure 409 {object} Problem "存在交易"
// @Router /subcategories/{id} [delete]
func (h *SubcategoryHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc().DeleteSubcategory(c.Request.Context(), id, middleware.GetCurrentUserID(c)); err != nil {
		HandleError(c, err)
		return
	}
	Message(c, "subcategory removed")
}
