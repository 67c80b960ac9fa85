package service

import (
	"errors"
	"testing"

	"fintrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTransferService_Create(t *testing.T) {
	f := newFixture(t)
	svc := NewTransferService(f.db)
	ana := f.user("ana@example.com")
	a := f.account(ana, "Conta A", "1000")
	b := f.account(ana, "Conta B", "0")

	res, err := svc.Create(f.ctx, ana, TransferInput{
		FromAccountID: a,
		ToAccountID:   b,
		Amount:        dec("200"),
		Date:          day("2025-01-08"),
		Description:   ptr("Reserva"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.ID)

	from, to := res.FromAccount, res.ToAccount
	assert.Equal(t, models.TypeExpense, from.Type)
	assert.Equal(t, models.TypeIncome, to.Type)
	assert.Equal(t, a, from.AccountID)
	assert.Equal(t, b, to.AccountID)
	assert.Equal(t, f.transferCategoryID(), from.CategoryID)
	assert.Equal(t, from.CategoryID, to.CategoryID)
	assert.True(t, from.Amount.Equal(to.Amount))
	assert.Equal(t, res.ID, *from.TransferID)
	assert.Equal(t, res.ID, *to.TransferID)
	assert.Equal(t, "Reserva", *to.Description)

	accounts, err := NewAccountService(f.db).List(f.ctx, ana)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.True(t, accounts[0].CurrentBalance.Equal(dec("800")))
	assert.True(t, accounts[1].CurrentBalance.Equal(dec("200")))

	// 两条腿都计入汇总，余额不变
	sum, err := NewReportService(f.db).Summary(f.ctx, ana, ReportFilter{})
	require.NoError(t, err)
	assert.True(t, sum.Income.Equal(dec("200")))
	assert.True(t, sum.Expense.Equal(dec("200")))
	assert.True(t, sum.Balance.IsZero())
}

func TestTransferService_Create_RollsBackOnSecondLegFailure(t *testing.T) {
	f := newFixture(t)
	svc := NewTransferService(f.db)
	ana := f.user("ana@example.com")
	a := f.account(ana, "Conta A", "1000")
	b := f.account(ana, "Conta B", "0")

	// 第二条腿写入时模拟数据库错误
	inserts := 0
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:fail_second_leg", func(tx *gorm.DB) {
		if tx.Statement.Schema == nil || tx.Statement.Schema.Table != "transactions" {
			return
		}
		inserts++
		if inserts == 2 {
			tx.AddError(errors.New("disk I/O error"))
		}
	}))
	t.Cleanup(func() { _ = f.db.Callback().Create().Remove("test:fail_second_leg") })

	_, err := svc.Create(f.ctx, ana, TransferInput{FromAccountID: a, ToAccountID: b, Amount: dec("200"), Date: day("2025-01-08")})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInternal))
	assert.Equal(t, 2, inserts)

	var count int64
	require.NoError(t, f.db.Model(&models.Transaction{}).Count(&count).Error)
	assert.Zero(t, count)

	accounts, err := NewAccountService(f.db).List(f.ctx, ana)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.True(t, accounts[0].CurrentBalance.Equal(dec("1000")))
	assert.True(t, accounts[1].CurrentBalance.IsZero())
}

func TestTransferService_Create_Validation(t *testing.T) {
	f := newFixture(t)
	svc := NewTransferService(f.db)
	ana := f.user("ana@example.com")
	bob := f.user("bob@example.com")
	a := f.account(ana, "Conta A", "0")
	b := f.account(ana, "Conta B", "0")
	foreign := f.account(bob, "Inter", "0")

	base := TransferInput{FromAccountID: a, ToAccountID: b, Amount: dec("10"), Date: day("2025-01-08")}

	in := base
	in.ToAccountID = a
	_, err := svc.Create(f.ctx, ana, in)
	assert.True(t, IsKind(err, KindValidation))
	assert.Equal(t, "source and destination accounts must be different", err.Error())

	in = base
	in.Amount = dec("0")
	_, err = svc.Create(f.ctx, ana, in)
	assert.True(t, IsKind(err, KindValidation))

	in = base
	in.ToAccountID = foreign
	_, err = svc.Create(f.ctx, ana, in)
	assert.True(t, IsKind(err, KindForbidden))
	assert.Equal(t, "access denied to destination account", err.Error())

	in = base
	in.FromAccountID = 9999
	_, err = svc.Create(f.ctx, ana, in)
	assert.True(t, IsKind(err, KindNotFound))

	var count int64
	require.NoError(t, f.db.Model(&models.Transaction{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTransferService_MissingSystemCategory(t *testing.T) {
	f := newFixture(t)
	ana := f.user("ana@example.com")
	a := f.account(ana, "Conta A", "0")
	b := f.account(ana, "Conta B", "0")
	require.NoError(t, f.db.Where("is_system = ?", true).Delete(&models.Category{}).Error)

	_, err := NewTransferService(f.db).Create(f.ctx, ana, TransferInput{FromAccountID: a, ToAccountID: b, Amount: dec("10"), Date: day("2025-01-08")})
	assert.True(t, IsKind(err, KindNotFound))
	assert.Equal(t, "transfer category not found, run system seed", err.Error())
}

func newTransfer(t *testing.T, f *fixture, userID uint) (*TransferResult, uint, uint) {
	t.Helper()
	a := f.account(userID, "Conta A", "0")
	b := f.account(userID, "Conta B", "0")
	res, err := NewTransferService(f.db).Create(f.ctx, userID, TransferInput{FromAccountID: a, ToAccountID: b, Amount: dec("200"), Date: day("2025-01-08")})
	require.NoError(t, err)
	return res, a, b
}

func TestTransferLeg_UpdateMirrorsSharedFields(t *testing.T) {
	f := newFixture(t)
	svc := NewTransactionService(f.db)
	ana := f.user("ana@example.com")
	res, _, _ := newTransfer(t, f, ana)

	updated, err := svc.Update(f.ctx, res.ToAccount.ID, ana, TransactionPatch{
		Amount:      ptr(dec("250")),
		Date:        ptr(day("2025-01-09")),
		Description: ptr("Reserva ajustada"),
	})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(dec("250")))

	sibling, err := svc.GetOne(f.ctx, res.FromAccount.ID, ana)
	require.NoError(t, err)
	assert.True(t, sibling.Amount.Equal(dec("250")))
	assert.Equal(t, day("2025-01-09"), sibling.Date.UTC())
	require.NotNil(t, sibling.Description)
	assert.Equal(t, "Reserva ajustada", *sibling.Description)
	assert.Equal(t, models.TypeExpense, sibling.Type)
}

func TestTransferLeg_RejectsLinkageChanges(t *testing.T) {
	f := newFixture(t)
	svc := NewTransactionService(f.db)
	ana := f.user("ana@example.com")
	res, a, _ := newTransfer(t, f, ana)
	other := f.account(ana, "Conta C", "0")
	food := f.category(ana, "Alimentação", models.TypeExpense)

	_, err := svc.Update(f.ctx, res.FromAccount.ID, ana, TransactionPatch{AccountID: &other, Amount: ptr(dec("1"))})
	assert.True(t, IsKind(err, KindValidation))
	assert.Equal(t, "cannot change account on a transfer", err.Error())

	_, err = svc.Update(f.ctx, res.FromAccount.ID, ana, TransactionPatch{CategoryID: &food})
	assert.Equal(t, "cannot change category or type on a transfer", err.Error())

	_, err = svc.Update(f.ctx, res.FromAccount.ID, ana, TransactionPatch{Type: ptr(models.TypeIncome)})
	assert.True(t, IsKind(err, KindValidation))

	// 与原值相同的字段不算修改
	_, err = svc.Update(f.ctx, res.FromAccount.ID, ana, TransactionPatch{AccountID: &a, Notes: ptr("ok")})
	require.NoError(t, err)

	for _, id := range []uint{res.FromAccount.ID, res.ToAccount.ID} {
		leg, err := svc.GetOne(f.ctx, id, ana)
		require.NoError(t, err)
		assert.True(t, leg.Amount.Equal(dec("200")))
		assert.Equal(t, f.transferCategoryID(), leg.CategoryID)
		require.NotNil(t, leg.Notes)
		assert.Equal(t, "ok", *leg.Notes)
	}
}

func TestTransferLeg_DeleteRemovesBoth(t *testing.T) {
	f := newFixture(t)
	svc := NewTransactionService(f.db)
	ana := f.user("ana@example.com")
	res, _, _ := newTransfer(t, f, ana)

	msg, err := svc.Delete(f.ctx, res.ToAccount.ID, ana)
	require.NoError(t, err)
	assert.Equal(t, MsgTransferRemoved, msg)

	_, err = svc.GetOne(f.ctx, res.FromAccount.ID, ana)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestTransferLeg_MissingSibling(t *testing.T) {
	f := newFixture(t)
	svc := NewTransactionService(f.db)
	ana := f.user("ana@example.com")
	res, _, _ := newTransfer(t, f, ana)
	require.NoError(t, f.db.Delete(&models.Transaction{}, res.FromAccount.ID).Error)

	_, err := svc.Update(f.ctx, res.ToAccount.ID, ana, TransactionPatch{Amount: ptr(dec("300"))})
	assert.True(t, IsKind(err, KindConflict))

	leg, err := svc.GetOne(f.ctx, res.ToAccount.ID, ana)
	require.NoError(t, err)
	assert.True(t, leg.Amount.Equal(dec("200")))

	msg, err := svc.Delete(f.ctx, res.ToAccount.ID, ana)
	require.NoError(t, err)
	assert.Equal(t, MsgTransferRemoved, msg)
}
