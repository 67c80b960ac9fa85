package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"fintrack/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	GroupByCategory    = "category"
	GroupBySubcategory = "subcategory"

	defaultDescriptionLimit = 10
	maxDescriptionLimit     = 50
)

// ReportService 统计服务，只读
type ReportService struct {
	db *gorm.DB
}

// NewReportService 创建统计服务
func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// ReportFilter 统计筛选条件
type ReportFilter struct {
	AccountID  *uint
	CategoryID *uint
	StartDate  *time.Time
	EndDate    *time.Time
	// ExcludeTransfers 为 true 时忽略转账生成的交易
	ExcludeTransfers bool
}

func (f ReportFilter) scope(userID uint) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		q = q.Where("transactions.user_id = ?", userID)
		if f.AccountID != nil {
			q = q.Where("transactions.account_id = ?", *f.AccountID)
		}
		if f.CategoryID != nil {
			q = q.Where("transactions.category_id = ?", *f.CategoryID)
		}
		if f.StartDate != nil {
			q = q.Where("transactions.date >= ?", *f.StartDate)
		}
		if f.EndDate != nil {
			q = q.Where("transactions.date <= ?", *f.EndDate)
		}
		if f.ExcludeTransfers {
			q = q.Where("transactions.transfer_id IS NULL")
		}
		return q
	}
}

// checkAccount 按账户筛选时先校验账户归属
func (s *ReportService) checkAccount(ctx context.Context, userID uint, accountID *uint) error {
	if accountID == nil {
		return nil
	}
	_, err := findVisible[models.Account](ctx, s.db, *accountID, userID, "account")
	return err
}

// Summary 收支汇总
type Summary struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
}

type typeTotal struct {
	Type  models.TransactionType
	Total decimal.NullDecimal
}

// Summary 按类型汇总金额，balance = income - expense
func (s *ReportService) Summary(ctx context.Context, userID uint, f ReportFilter) (*Summary, error) {
	if err := s.checkAccount(ctx, userID, f.AccountID); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Model(&models.Transaction{}).Scopes(f.scope(userID))

	var totals []typeTotal
	if err := q.Select("transactions.type AS type, SUM(transactions.amount) AS total").
		Group("transactions.type").
		Scan(&totals).Error; err != nil {
		return nil, NewInternalError("failed to compute summary", err)
	}

	sum := &Summary{Income: decimal.Zero, Expense: decimal.Zero}
	for _, t := range totals {
		if !t.Total.Valid {
			continue
		}
		switch t.Type {
		case models.TypeIncome:
			sum.Income = sum.Income.Add(t.Total.Decimal)
		case models.TypeExpense:
			sum.Expense = sum.Expense.Add(t.Total.Decimal)
		}
	}
	sum.Income = sum.Income.Round(2)
	sum.Expense = sum.Expense.Round(2)
	sum.Balance = sum.Income.Sub(sum.Expense)
	return sum, nil
}

// CategoryTotal 类别或子类别的支出占比
type CategoryTotal struct {
	ID           uint
	Name         string
	TotalAmount  decimal.Decimal
	Percentage   decimal.Decimal
	CategoryID   *uint
	CategoryName *string
}

type groupRow struct {
	ID           uint
	Name         string
	CategoryID   uint
	CategoryName string
	Total        decimal.NullDecimal
}

// TopCategories 按类别或子类别分组统计支出，按金额降序
func (s *ReportService) TopCategories(ctx context.Context, userID uint, f ReportFilter, groupBy string, limit int) ([]CategoryTotal, error) {
	if groupBy == "" {
		groupBy = GroupByCategory
	}
	if groupBy != GroupByCategory && groupBy != GroupBySubcategory {
		return nil, NewValidationError("groupBy must be category or subcategory")
	}
	if err := s.checkAccount(ctx, userID, f.AccountID); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Scopes(f.scope(userID)).
		Where("transactions.type = ?", models.TypeExpense)

	var rows []groupRow
	var err error
	if groupBy == GroupByCategory {
		err = q.Select("categories.id AS id, categories.name AS name, SUM(transactions.amount) AS total").
			Joins("JOIN categories ON categories.id = transactions.category_id").
			Group("categories.id, categories.name").
			Scan(&rows).Error
	} else {
		err = q.Select("subcategories.id AS id, subcategories.name AS name, categories.id AS category_id, categories.name AS category_name, SUM(transactions.amount) AS total").
			Joins("JOIN subcategories ON subcategories.id = transactions.subcategory_id").
			Joins("JOIN categories ON categories.id = subcategories.category_id").
			Group("subcategories.id, subcategories.name, categories.id, categories.name").
			Scan(&rows).Error
	}
	if err != nil {
		return nil, NewInternalError("failed to compute top categories", err)
	}

	return rankGroups(rows, groupBy, limit), nil
}

// rankGroups 计算占比并排序：金额降序，名称、ID 升序
func rankGroups(rows []groupRow, groupBy string, limit int) []CategoryTotal {
	grand := decimal.Zero
	for i := range rows {
		if rows[i].Total.Valid {
			rows[i].Total.Decimal = rows[i].Total.Decimal.Round(2)
			grand = grand.Add(rows[i].Total.Decimal)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Total.Decimal, rows[j].Total.Decimal
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].ID < rows[j].ID
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	hundred := decimal.NewFromInt(100)
	result := make([]CategoryTotal, 0, len(rows))
	for _, r := range rows {
		item := CategoryTotal{
			ID:          r.ID,
			Name:        r.Name,
			TotalAmount: r.Total.Decimal,
			Percentage:  decimal.Zero,
		}
		if grand.IsPositive() {
			item.Percentage = r.Total.Decimal.Mul(hundred).Div(grand).Round(2)
		}
		if groupBy == GroupBySubcategory {
			categoryID, categoryName := r.CategoryID, r.CategoryName
			item.CategoryID = &categoryID
			item.CategoryName = &categoryName
		}
		result = append(result, item)
	}
	return result
}

// DescriptionQuery 描述联想查询参数
type DescriptionQuery struct {
	AccountID *uint
	Query     string
	Limit     int
}

type descriptionRow struct {
	Description string
}

// Descriptions 返回最近使用过的描述，按日期倒序去重（区分大小写）
func (s *ReportService) Descriptions(ctx context.Context, userID uint, dq DescriptionQuery) ([]string, error) {
	if err := s.checkAccount(ctx, userID, dq.AccountID); err != nil {
		return nil, err
	}

	limit := dq.Limit
	if limit <= 0 {
		limit = defaultDescriptionLimit
	}
	if limit > maxDescriptionLimit {
		limit = maxDescriptionLimit
	}

	q := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("description").
		Where("user_id = ? AND description IS NOT NULL AND description <> ''", userID)
	if dq.AccountID != nil {
		q = q.Where("account_id = ?", *dq.AccountID)
	}
	if term := strings.TrimSpace(dq.Query); term != "" {
		q = q.Where("description LIKE ? ESCAPE '!'", "%"+escapeLikeValue(term)+"%")
	}

	rows, err := q.Order("date DESC, id DESC").Rows()
	if err != nil {
		return nil, NewInternalError("failed to list descriptions", err)
	}
	defer rows.Close()

	items := make([]string, 0, limit)
	seen := make(map[string]struct{}, limit)
	for rows.Next() && len(items) < limit {
		var row descriptionRow
		if err := s.db.ScanRows(rows, &row); err != nil {
			return nil, NewInternalError("failed to read descriptions", err)
		}
		if _, ok := seen[row.Description]; ok {
			continue
		}
		seen[row.Description] = struct{}{}
		items = append(items, row.Description)
	}
	if err := rows.Err(); err != nil {
		return nil, NewInternalError("failed to read descriptions", err)
	}
	return items, nil
}

// escapeLikeValue 转义 LIKE 查询中的通配符，转义符为 '!'
func escapeLikeValue(s string) string {
	s = strings.ReplaceAll(s, "!", "!!")
	s = strings.ReplaceAll(s, "%", "!%")
	s = strings.ReplaceAll(s, "_", "!_")
	return s
}
