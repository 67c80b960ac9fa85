package api

import (
	"strconv"

	"fintrack/database"
	"fintrack/middleware"
	"fintrack/models"
	"fintrack/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TransactionHandler 交易处理器
type TransactionHandler struct{}

// NewTransactionHandler 创建交易处理器
func NewTransactionHandler() *TransactionHandler {
	return &TransactionHandler{}
}

func (h *TransactionHandler) svc() *service.TransactionService {
	return service.NewTransactionService(database.DB)
}

func (h *TransactionHandler) reports() *service.ReportService {
	return service.NewReportService(database.DB)
}

// TransactionCreateRequest 创建交易请求
type TransactionCreateRequest struct {
	AccountID     uint                   `json:"accountId" binding:"required" example:"1"`
	CategoryID    uint                   `json:"categoryId" binding:"required" example:"3"`
	SubcategoryID *uint                  `json:"subcategoryId" example:"7"`
	Type          models.TransactionType `json:"type" binding:"required,oneof=income expense" example:"expense"`
	Amount        *decimal.Decimal       `json:"amount" swaggertype:"number" example:"89.9"`
	Date          string                 `json:"date" binding:"required" example:"2025-01-15"`
	Description   *string                `json:"description" binding:"omitempty,max=255" example:"Mercado"`
	Notes         *string                `json:"notes" binding:"omitempty,max=2000"`
}

// TransactionUpdateRequest 更新交易请求，仅更新传入字段；subcategoryId 传 null 表示清除
type TransactionUpdateRequest struct {
	AccountID     *uint                   `json:"accountId"`
	CategoryID    *uint                   `json:"categoryId"`
	SubcategoryID optionalID              `json:"subcategoryId" swaggertype:"integer"`
	Type          *models.TransactionType `json:"type" binding:"omitempty,oneof=income expense"`
	Amount        *decimal.Decimal        `json:"amount" swaggertype:"number"`
	Date          *string                 `json:"date" example:"2025-01-16"`
	Description   *string                 `json:"description" binding:"omitempty,max=255"`
	Notes         *string                 `json:"notes" binding:"omitempty,max=2000"`
}

// TransactionQuery 列表与导出的筛选参数
type TransactionQuery struct {
	AccountID     *uint  `form:"accountId"`
	CategoryID    *uint  `form:"categoryId"`
	SubcategoryID *uint  `form:"subcategoryId"`
	Type          string `form:"type" binding:"omitempty,oneof=income expense"`
	StartDate     string `form:"startDate"`
	EndDate       string `form:"endDate"`
	Page          int    `form:"page" binding:"omitempty,min=1"`
	Limit         int    `form:"limit" binding:"omitempty,min=1"`
}

// dateRange 解析起止日期
func dateRange(start, end string) (*service.ReportFilter, error) {
	f := &service.ReportFilter{}
	if start != "" {
		t, err := parseDate(start)
		if err != nil {
			return nil, err
		}
		f.StartDate = &t
	}
	if end != "" {
		t, err := parseDate(end)
		if err != nil {
			return nil, err
		}
		f.EndDate = &t
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return nil, service.NewValidationError("startDate must not be after endDate")
	}
	return f, nil
}

func (q TransactionQuery) filter() (service.TransactionFilter, error) {
	r, err := dateRange(q.StartDate, q.EndDate)
	if err != nil {
		return service.TransactionFilter{}, err
	}
	f := service.TransactionFilter{
		AccountID:     q.AccountID,
		CategoryID:    q.CategoryID,
		SubcategoryID: q.SubcategoryID,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		Page:          q.Page,
		Limit:         q.Limit,
	}
	if q.Type != "" {
		t := models.TransactionType(q.Type)
		f.Type = &t
	}
	return f, nil
}

// badQuery 查询参数错误统一为 400
func badQuery(c *gin.Context, err error) {
	BadRequest(c, err.Error())
}

// Create 创建交易
// @Summary 创建交易
// @Description 校验账户、类别、子类别归属以及类型与类别类型一致
// @Tags 交易
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransactionCreateRequest true "交易信息"
// @Success 201 {object} TransactionView "创建成功"
// @Failure 400 {object} Problem "请求参数错误或类型不匹配"
// @Failure 403 {object} Problem "无权访问引用的实体"
// @Failure 404 {object} Problem "引用的实体不存在"
// @Failure 409 {object} Problem "子类别不属于该类别"
// @Router /transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	var req TransactionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	amount, ok := requireAmount(req.Amount)
	if !ok {
		BadRequest(c, "amount is required")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	t, err := h.svc().Create(c.Request.Context(), middleware.GetCurrentUserID(c), service.TransactionInput{
		AccountID:     req.AccountID,
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID,
		Type:          req.Type,
		Amount:        amount,
		Date:          date,
		Description:   req.Description,
		Notes:         req.Notes,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, newTransactionView(t))
}

// List 交易列表
// @Summary 获取交易列表
// @Description 按日期倒序分页返回，总数在 X-Total-Count 头中
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param accountId query int false "账户ID"
// @Param categoryId query int false "类别ID"
// @Param subcategoryId query int false "子类别ID"
// @Param type query string false "income 或 expense"
// @Param startDate query string false "开始日期 (YYYY-MM-DD)"
// @Param endDate query string false "结束日期 (YYYY-MM-DD)"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量，最大 200" default(50)
// @Success 200 {array} TransactionView "获取成功"
// @Router /transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	var q TransactionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	f, err := q.filter()
	if err != nil {
		badQuery(c, err)
		return
	}

	list, total, err := h.svc().List(c.Request.Context(), middleware.GetCurrentUserID(c), f)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Header("X-Total-Count", strconv.FormatInt(total, 10))
	OK(c, newTransactionViews(list))
}

// Get 获取交易
// @Summary 获取交易详情
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param id path int true "交易ID"
// @Success 200 {object} TransactionView "获取成功"
// @Failure 403 {object} Problem "无权访问"
// @Failure 404 {object} Problem "交易不存在"
// @Router /transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc().GetOne(c.Request.Context(), id, middleware.GetCurrentUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	OK(c, newTransactionView(t))
}

// Update 更新交易
// @Summary 更新交易
// @Description 合并后重新校验；转账交易只能修改金额、日期、描述、备注，并同步到另一条
// @Tags 交易
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "交易ID"
// @Param request body TransactionUpdateRequest true "交易信息"
// @Success 200 {object} TransactionView "更新成功"
// @Failure 400 {object} Problem "请求参数错误或违反约束"
// @Failure 403 {object} Problem "无权访问"
// @Failure 404 {object} Problem "交易不存在"
// @Failure 409 {object} Problem "子类别不属于该类别"
// @Router /transactions/{id} [put]
func (h *TransactionHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req TransactionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	patch := service.TransactionPatch{
		AccountID:     req.AccountID,
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID.toService(),
		Type:          req.Type,
		Amount:        req.Amount,
		Description:   req.Description,
		Notes:         req.Notes,
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		patch.Date = &date
	}

	t, err := h.svc().Update(c.Request.Context(), id, middleware.GetCurrentUserID(c), patch)
	if err != nil {
		HandleError(c, err)
		return
	}
	OK(c, newTransactionView(t))
}

// Delete 删除交易
// @Summary 删除交易
// @Description 删除转账中的任一条会同时删除另一条
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param id path int true "交易ID"
// @Success 200 {object} MessageResponse "transaction removed 或 transfer removed"
// @Failure 403 {object} Problem "无权访问"
// @Failure 404 {object} Problem "交易不存在"
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	msg, err := h.svc().Delete(c.Request.Context(), id, middleware.GetCurrentUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Message(c, msg)
}

// ReportQuery 统计筛选参数
type ReportQuery struct {
	AccountID  *uint  `form:"accountId"`
	CategoryID *uint  `form:"categoryId"`
	StartDate  string `form:"startDate"`
	EndDate    string `form:"endDate"`
	GroupBy    string `form:"groupBy" binding:"omitempty,oneof=category subcategory"`
	Limit      int    `form:"limit" binding:"omitempty,min=1"`

	ExcludeTransfers bool `form:"excludeTransfers"`
}

func (q ReportQuery) filter() (service.ReportFilter, error) {
	r, err := dateRange(q.StartDate, q.EndDate)
	if err != nil {
		return service.ReportFilter{}, err
	}
	r.AccountID = q.AccountID
	r.CategoryID = q.CategoryID
	r.ExcludeTransfers = q.ExcludeTransfers
	return *r, nil
}

// Summary 收支汇总
// @Summary 收支汇总
// @Description 按类型汇总金额，balance = income - expense。默认包含转账
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param accountId query int false "账户ID"
// @Param categoryId query int false "类别ID"
// @Param startDate query string false "开始日期 (YYYY-MM-DD)"
// @Param endDate query string false "结束日期 (YYYY-MM-DD)"
// @Param excludeTransfers query bool false "忽略转账" default(false)
// @Success 200 {object} SummaryView "获取成功"
// @Failure 403 {object} Problem "无权访问账户"
// @Router /transactions/summary [get]
func (h *TransactionHandler) Summary(c *gin.Context) {
	var q ReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	f, err := q.filter()
	if err != nil {
		badQuery(c, err)
		return
	}

	sum, err := h.reports().Summary(c.Request.Context(), middleware.GetCurrentUserID(c), f)
	if err != nil {
		HandleError(c, err)
		return
	}
	OK(c, SummaryView{
		Income:  sum.Income.InexactFloat64(),
		Expense: sum.Expense.InexactFloat64(),
		Balance: sum.Balance.InexactFloat64(),
	})
}

// TopCategories 支出排行
// @Summary 支出类别排行
// @Description 按类别或子类别分组统计支出及占比，金额降序
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param accountId query int false "账户ID"
// @Param startDate query string false "开始日期 (YYYY-MM-DD)"
// @Param endDate query string false "结束日期 (YYYY-MM-DD)"
// @Param groupBy query string false "category 或 subcategory" default(category)
// @Param limit query int false "返回数量，不传返回全部"
// @Param excludeTransfers query bool false "忽略转账" default(false)
// @Success 200 {array} CategoryTotalView "获取成功"
// @Failure 403 {object} Problem "无权访问账户"
// @Router /transactions/top-categories [get]
func (h *TransactionHandler) TopCategories(c *gin.Context) {
	var q ReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	f, err := q.filter()
	if err != nil {
		badQuery(c, err)
		return
	}

	list, err := h.reports().TopCategories(c.Request.Context(), middleware.GetCurrentUserID(c), f, q.GroupBy, q.Limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	OK(c, newCategoryTotalViews(list))
}

// DescriptionQuery 描述联想参数
type DescriptionQuery struct {
	AccountID *uint  `form:"accountId"`
	Q         string `form:"q" binding:"max=100"`
	Limit     int    `form:"limit" binding:"omitempty,min=1"`
}

// Descriptions 描述联想
// @Summary 历史描述联想
// @Description 最近使用过的描述，按日期倒序去重
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param accountId query int false "账户ID"
// @Param q query string false "包含的文本"
// @Param limit query int false "返回数量，最大 50" default(10)
// @Success 200 {object} DescriptionsView "获取成功"
// @Failure 403 {object} Problem "无权访问账户"
// @Router /transactions/descriptions [get]
func (h *TransactionHandler) Descriptions(c *gin.Context) {
	var q DescriptionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	items, err := h.reports().Descriptions(c.Request.Context(), middleware.GetCurrentUserID(c), service.DescriptionQuery{
		AccountID: q.AccountID,
		Query:     q.Q,
		Limit:     q.Limit,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	OK(c, DescriptionsView{Items: items})
}
