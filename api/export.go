package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"fintrack/database"
	"fintrack/middleware"
	"fintrack/service"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportHandler 导出处理器
type ExportHandler struct{}

// NewExportHandler 创建导出处理器
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

var exportHeaders = []string{"ID", "Date", "Type", "Amount", "Account", "Category", "Subcategory", "Description", "Notes", "Transfer"}

func exportRecord(r service.ExportRow) []string {
	return []string{
		fmt.Sprintf("%d", r.ID),
		r.Date.UTC().Format(dateLayout),
		string(r.Type),
		r.Amount.StringFixed(2),
		r.AccountName,
		r.CategoryName,
		deref(r.SubcategoryName),
		deref(r.Description),
		deref(r.Notes),
		deref(r.TransferID),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Export 导出交易
// @Summary 导出交易
// @Description 按与列表相同的筛选条件导出 CSV 或 Excel 文件
// @Tags 导出
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param format query string false "csv 或 xlsx" default(csv)
// @Param accountId query int false "账户ID"
// @Param categoryId query int false "类别ID"
// @Param subcategoryId query int false "子类别ID"
// @Param type query string false "income 或 expense"
// @Param startDate query string false "开始日期 (YYYY-MM-DD)"
// @Param endDate query string false "结束日期 (YYYY-MM-DD)"
// @Success 200 {file} file "导出文件"
// @Failure 400 {object} Problem "请求参数错误"
// @Failure 401 {object} Problem "未授权"
// @Router /transactions/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		BadRequest(c, "format must be csv or xlsx")
		return
	}

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

	rows, err := service.NewTransactionService(database.DB).Export(c.Request.Context(), middleware.GetCurrentUserID(c), f)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("transactions_%s.%s", time.Now().UTC().Format("20060102"), format)
	if format == "xlsx" {
		h.writeXLSX(c, filename, rows)
		return
	}
	h.writeCSV(c, filename, rows)
}

func (h *ExportHandler) writeCSV(c *gin.Context, filename string, rows []service.ExportRow) {
	buf := new(bytes.Buffer)
	// BOM，Excel 打开时按 UTF-8 识别
	buf.WriteString("\xEF\xBB\xBF")

	writer := csv.NewWriter(buf)
	if err := writer.Write(exportHeaders); err != nil {
		HandleError(c, service.NewInternalError("failed to write csv", err))
		return
	}
	for _, r := range rows {
		if err := writer.Write(exportRecord(r)); err != nil {
			HandleError(c, service.NewInternalError("failed to write csv", err))
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		HandleError(c, service.NewInternalError("failed to write csv", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *ExportHandler) writeXLSX(c *gin.Context, filename string, rows []service.ExportRow) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Transactions"
	f.SetSheetName("Sheet1", sheetName)

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	amountFormat := "#,##0.00"
	amountStyle, _ := f.NewStyle(&excelize.Style{
		Border:       border,
		CustomNumFmt: &amountFormat,
	})
	dataStyle, _ := f.NewStyle(&excelize.Style{Border: border})

	widths := []float64{8, 12, 10, 14, 18, 18, 18, 30, 30, 38}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, w)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(exportHeaders))
	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}
	f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle)

	for i, r := range rows {
		row := i + 2
		values := []interface{}{
			r.ID,
			r.Date.UTC().Format(dateLayout),
			string(r.Type),
			r.Amount.InexactFloat64(),
			r.AccountName,
			r.CategoryName,
			deref(r.SubcategoryName),
			deref(r.Description),
			deref(r.Notes),
			deref(r.TransferID),
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, start, &values); err != nil {
			HandleError(c, service.NewInternalError("failed to write xlsx", err))
			return
		}
		f.SetCellStyle(sheetName, start, fmt.Sprintf("%s%d", lastCol, row), dataStyle)
		f.SetCellStyle(sheetName, fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), amountStyle)
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	if err := f.Write(c.Writer); err != nil {
		HandleError(c, service.NewInternalError("failed to write xlsx", err))
		return
	}
}
