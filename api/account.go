package api

import (
	"fintrack/database"
	"fintrack/middleware"
	"fintrack/models"
	"fintrack/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AccountHandler 账户处理器
type AccountHandler struct{}

// NewAccountHandler 创建账户处理器
func NewAccountHandler() *AccountHandler {
	return &AccountHandler{}
}

func (h *AccountHandler) svc() *service.AccountService {
	return service.NewAccountService(database.DB)
}

// AccountCreateRequest 创建账户请求
type AccountCreateRequest struct {
	Name           string             `json:"name" binding:"required,max=100" example:"Nubank"`
	Type           models.AccountType `json:"type" binding:"required,oneof=cash checking savings credit_card investment" example:"checking"`
	InitialBalance *decimal.Decimal   `json:"initialBalance" swaggertype:"number" example:"1000"`
	Color          *string            `json:"color" binding:"omitempty,max=20" example:"#8b5cf6"`
	Icon           *string            `json:"icon" binding:"omitempty,max=50" example:"wallet"`
}

// AccountUpdateRequest 更新账户请求，仅更新传入字段
type AccountUpdateRequest struct {
	Name           *string             `json:"name" binding:"omitempty,max=100"`
	Type           *models.AccountType `json:"type" binding:"omitempty,oneof=cash checking savings credit_card investment"`
	InitialBalance *decimal.Decimal    `json:"initialBalance" swaggertype:"number"`
	Color          *string             `json:"color" binding:"omitempty,max=20"`
	Icon           *string             `json:"icon" binding:"omitempty,max=50"`
}

// Create 创建账户
// @Summary 创建账户
// @Tags 账户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AccountCreateRequest true "账户信息"
// @Success 201 {object} AccountView "创建成功"
// @Failure 400 {object} Problem "请求参数错误"
// @Router /accounts [post]
func (h *AccountHandler) Create(c *gin.Context) {
	var req AccountCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	acc, err := h.svc().Create(c.Request.Context(), middleware.GetCurrentUserID(c), service.AccountInput{
		Name:           req.Name,
		Type:           req.Type,
		InitialBalance: req.InitialBalance,
		Color:          req.Color,
		Icon:           req.Icon,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, newAccountView(*acc))
}

// List 账户列表
// @Summary 获取账户列表
// @Description 返回当前用户的全部账户及当前余额
// @Tags 账户
// @Produce json
// @Security BearerAuth
// @Success 200 {array} AccountView "获取成功"
// @Router /accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	list, err := h.svc().List(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	views := make([]AccountView, 0, len(list))
	for _, a := range list {
		views = append(views, newAccountView(a))
	}
	OK(c, views)
}

// Get 获取账户
// @Summary 获取账户详情
// @Tags 账户
// @Produce json
// @Security BearerAuth
// @Param id path int true "账户ID"
// @Success 200 {object} AccountView "获取成功"
// @Failure 403 {object} Problem "无权访问"
// @Failure 404 {object} Problem "账户不存在"
// @Router /accounts/{id} [get]
func (h *AccountHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	acc, err := h.svc().GetOne(c.Request.Context(), id, middleware.GetCurrentUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	OK(c, newAccountView(*acc))
}

// Update 更新账户
// @Summary 更新账户
// @Tags 账户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "账户ID"
// @Param request body AccountUpdateRequest true "账户信息"
// @Success 200 {object} AccountView "更新成功"
// @Failure 400 {object} Problem "请求参数错误"
// @Failure 403 {object} Problem "无权访问"
// @Failure 404 {object} Problem "账户不存在"
// @Router /accounts/{id} [put]
func (h *AccountHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req AccountUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	acc, err := h.svc().Update(c.Request.Context(), id, middleware.GetCurrentUserID(c), service.AccountPatch{
		Name:           req.Name,
		Type:           req.Type,
		InitialBalance: req.InitialBalance,
		Color:          req.Color,
		Icon:           req.Icon,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	OK(c, newAccountView(*acc))
}

// Delete 删除账户
// @Summary 删除账户
// @Description 账户下存在交易时拒绝删除
// @Tags 账户
// @Produce json
// @Security BearerAuth
// @Param id path int true "账户ID"
// @Success 200 {object} MessageResponse "删除成功"
// @Failure 403 {object} Problem "无权访问"
// @Failure 404 {object} Problem "账户不存在"
// @Failure 409 {object} Problem "账户存在交易"
// @Router /accounts/{id} [delete]
func (h *AccountHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc().Delete(c.Request.Context(), id, middleware.GetCurrentUserID(c)); err != nil {
		HandleError(c, err)
		return
	}
	Message(c, "account removed")
}
