package service

import (
	"testing"

	"fintrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_Create(t *testing.T) {
	f := newFixture(t)
	svc := NewCategoryService(f.db)
	owner := f.user("ana@example.com")

	cat, err := svc.CreateCategory(f.ctx, owner, CategoryInput{Name: "Salário", Type: models.TypeIncome})
	require.NoError(t, err)
	assert.False(t, cat.System)
	require.NotNil(t, cat.UserID)
	assert.Equal(t, owner, *cat.UserID)

	// 与系统类别重名
	_, err = svc.CreateCategory(f.ctx, owner, CategoryInput{Name: "Transferência", Type: models.TypeExpense})
	assert.True(t, IsKind(err, KindConflict))

	_, err = svc.CreateCategory(f.ctx, owner, CategoryInput{Name: "X", Type: "other"})
	assert.True(t, IsKind(err, KindValidation))
}

func TestCategoryService_ListIncludesSystem(t *testing.T) {
	f := newFixture(t)
	svc := NewCategoryService(f.db)
	ana := f.user("ana@example.com")
	bob := f.user("bob@example.com")
	f.category(ana, "Salário", models.TypeIncome)
	f.category(bob, "Saúde", models.TypeExpense)

	list, err := svc.ListCategories(f.ctx, ana)
	require.NoError(t, err)
	names := []string{}
	for _, c := range list {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"Salário", "Transferência"}, names)
}

func TestCategoryService_Visibility(t *testing.T) {
	f := newFixture(t)
	svc := NewCategoryService(f.db)
	ana := f.user("ana@example.com")
	bob := f.user("bob@example.com")
	health := f.category(ana, "Saúde", models.TypeExpense)

	_, err := svc.GetOneCategory(f.ctx, health, bob)
	assert.True(t, IsKind(err, KindForbidden))

	// 系统类别对所有人可见
	sys, err := svc.GetOneCategory(f.ctx, f.transferCategoryID(), bob)
	require.NoError(t, err)
	assert.True(t, sys.System)

	_, err = svc.GetOneCategory(f.ctx, 9999, bob)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestCategoryService_SystemIsReadOnly(t *testing.T) {
	f := newFixture(t)
	svc := NewCategoryService(f.db)
	ana := f.user("ana@example.com")
	sysID := f.transferCategoryID()

	_, err := svc.UpdateCategory(f.ctx, sysID, ana, CategoryPatch{Name: ptr("Mine")})
	assert.True(t, IsKind(err, KindForbidden))

	err = svc.DeleteCategory(f.ctx, sysID, ana)
	assert.True(t, IsKind(err, KindForbidden))
}

func TestCategoryService_SystemDeleteWithTransfers(t *testing.T) {
	f := newFixture(t)
	svc := NewCategoryService(f.db)
	ana := f.user("ana@example.com")
	a := f.account(ana, "Conta A", "100")
	b := f.account(ana, "Conta B", "0")
	sysID := f.transferCategoryID()

	_, err := NewTransferService(f.db).Create(f.ctx, ana, TransferInput{FromAccountID: a, ToAccountID: b, Amount: dec("10"), Date: day("2025-01-08")})
	require.NoError(t, err)

	// 有交易引用时仍按系统类别拒绝，而不是冲突
	err = svc.DeleteCategory(f.ctx, sysID, ana)
	assert.True(t, IsKind(err, KindForbidden))
	assert.Equal(t, "system categories cannot be deleted", err.Error())

	var count int64
	require.NoError(t, f.db.Model(&models.Category{}).Where("id = ?", sysID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCategoryService_UpdateTypeWithTransactions(t *testing.T) {
	f := newFixture(t)
	svc := NewCategoryService(f.db)
	ana := f.user("ana@example.com")
	acc := f.account(ana, "Nubank", "0")
	food := f.category(ana, "Alimentação", models.TypeExpense)

	cat, err := svc.UpdateCategory(f.ctx, food, ana, CategoryPatch{Name: ptr("Comida"), Color: ptr("#f97316")})
	require.NoError(t, err)
	assert.Equal(t, "Comida", cat.Name)
	require.NotNil(t, cat.Color)
	assert.Equal(t, "#f97316", *cat.Color)

	f.tx(ana, acc, food, models.TypeExpense, "10", "2025-01-06")
	_, err = svc.UpdateCategory(f.ctx, food, ana, CategoryPatch{Type: ptr(models.TypeIncome)})
	assert.True(t, IsKind(err, KindConflict))
}

func TestCategoryService_DeleteBlockedByDependents(t *testing.T) {
	f := newFixture(t)
	svc := NewCategoryService(f.db)
	ana := f.user("ana@example.com")
	acc := f.account(ana, "Nubank", "0")
	withSub := f.category(ana, "Casa", models.TypeExpense)
	withTx := f.category(ana, "Lazer", models.TypeExpense)
	empty := f.category(ana, "Outros", models.TypeExpense)
	f.subcategory(ana, withSub, "Aluguel")
	f.tx(ana, acc, withTx, models.TypeExpense, "10", "2025-01-06")

	err := svc.DeleteCategory(f.ctx, withSub, ana)
	assert.True(t, IsKind(err, KindConflict))
	assert.Contains(t, err.Error(), "subcategories")

	err = svc.DeleteCategory(f.ctx, withTx, ana)
	assert.True(t, IsKind(err, KindConflict))

	require.NoError(t, svc.DeleteCategory(f.ctx, empty, ana))
}

func TestSubcategory_Create(t *testing.T) {
	f := newFixture(t)
	svc := NewCategoryService(f.db)
	ana := f.user("ana@example.com")
	bob := f.user("bob@example.com")

	cat, err := svc.CreateCategory(f.ctx, ana, CategoryInput{Name: "Casa", Type: models.TypeExpense, Color: ptr("#0ea5e9")})
	require.NoError(t, err)

	// 未指定颜色时继承类别颜色
	sub, err := svc.CreateSubcategory(f.ctx, ana, SubcategoryInput{CategoryID: cat.ID, Name: "Aluguel"})
	require.NoError(t, err)
	require.NotNil(t, sub.Color)
	assert.Equal(t, "#0ea5e9", *sub.Color)
	assert.Equal(t, ana, sub.UserID)

	_, err = svc.CreateSubcategory(f.ctx, ana, SubcategoryInput{CategoryID: f.transferCategoryID(), Name: "X"})
	assert.True(t, IsKind(err, KindValidation))

	_, err = svc.CreateSubcategory(f.ctx, bob, SubcategoryInput{CategoryID: cat.ID, Name: "X"})
	assert.True(t, IsKind(err, KindForbidden))

	_, err = svc.CreateSubcategory(f.ctx, ana, SubcategoryInput{CategoryID: 9999, Name: "X"})
	assert.True(t, IsKind(err, KindNotFound))
}

func TestSubcategory_ListGetUpdateDelete(t *testing.T) {
	f := newFixture(t)
	svc := NewCategoryService(f.db)
	ana := f.user("ana@example.com")
	bob := f.user("bob@example.com")
	acc := f.account(ana, "Nubank", "0")
	casa := f.category(ana, "Casa", models.TypeExpense)
	rent := f.subcategory(ana, casa, "Aluguel")
	power := f.subcategory(ana, casa, "Energia")

	list, err := svc.ListSubcategories(f.ctx, casa, ana)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	sysList, err := svc.ListSubcategories(f.ctx, f.transferCategoryID(), ana)
	require.NoError(t, err)
	assert.Empty(t, sysList)

	_, err = svc.ListSubcategories(f.ctx, casa, bob)
	assert.True(t, IsKind(err, KindForbidden))

	_, err = svc.GetOneSubcategory(f.ctx, rent, bob)
	assert.True(t, IsKind(err, KindForbidden))

	sub, err := svc.UpdateSubcategory(f.ctx, rent, ana, SubcategoryPatch{Name: ptr("Aluguel apto")})
	require.NoError(t, err)
	assert.Equal(t, "Aluguel apto", sub.Name)

	in := TransactionInput{AccountID: acc, CategoryID: casa, SubcategoryID: &power, Type: models.TypeExpense, Amount: dec("120"), Date: day("2025-01-10")}
	_, err = NewTransactionService(f.db).Create(f.ctx, ana, in)
	require.NoError(t, err)

	assert.True(t, IsKind(svc.DeleteSubcategory(f.ctx, power, ana), KindConflict))
	require.NoError(t, svc.DeleteSubcategory(f.ctx, rent, ana))
	_, err = svc.GetOneSubcategory(f.ctx, rent, ana)
	assert.True(t, IsKind(err, KindNotFound))
}
