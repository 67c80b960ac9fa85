package api

import (
	"fintrack/database"
	"fintrack/middleware"
	"fintrack/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TransferHandler 转账处理器
type TransferHandler struct{}

// NewTransferHandler 创建转账处理器
func NewTransferHandler() *TransferHandler {
	return &TransferHandler{}
}

// TransferCreateRequest 转账请求
type TransferCreateRequest struct {
	FromAccountID uint             `json:"fromAccountId" binding:"required" example:"1"`
	ToAccountID   uint             `json:"toAccountId" binding:"required" example:"2"`
	Amount        *decimal.Decimal `json:"amount" swaggertype:"number" example:"200"`
	Date          string           `json:"date" binding:"required" example:"2025-01-15"`
	Description   *string          `json:"description" binding:"omitempty,max=255" example:"Reserva"`
	Notes         *string          `json:"notes" binding:"omitempty,max=2000"`
}

// Create 账户间转账
// @Summary 账户间转账
// @Description 在一个事务中生成转出账户的支出与转入账户的收入，两条记录共享 transferId
// @Tags 转账
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransferCreateRequest true "转账信息"
// @Success 201 {object} TransferView "转账成功"
// @Failure 400 {object} Problem "请求参数错误或同一账户"
// @Failure 403 {object} Problem "无权访问账户"
// @Failure 404 {object} Problem "账户或转账类别不存在"
// @Router /transfers [post]
func (h *TransferHandler) Create(c *gin.Context) {
	var req TransferCreateRequest
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

	res, err := service.NewTransferService(database.DB).Create(c.Request.Context(), middleware.GetCurrentUserID(c), service.TransferInput{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        amount,
		Date:          date,
		Description:   req.Description,
		Notes:         req.Notes,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, TransferView{
		ID:          res.ID,
		FromAccount: newTransactionView(res.FromAccount),
		ToAccount:   newTransactionView(res.ToAccount),
	})
}
