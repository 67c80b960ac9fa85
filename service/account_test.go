package service

import (
	"testing"

	"fintrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountService_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	svc := NewAccountService(f.db)
	owner := f.user("ana@example.com")

	balance := dec("1000.456")
	acc, err := svc.Create(f.ctx, owner, AccountInput{Name: "  Nubank ", Type: models.AccountTypeChecking, InitialBalance: &balance})
	require.NoError(t, err)
	assert.Equal(t, "Nubank", acc.Name)
	assert.True(t, acc.InitialBalance.Equal(dec("1000.46")))

	got, err := svc.GetOne(f.ctx, acc.ID, owner)
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.Equal(dec("1000.46")))
}

func TestAccountService_Create_Validation(t *testing.T) {
	f := newFixture(t)
	svc := NewAccountService(f.db)
	owner := f.user("ana@example.com")

	_, err := svc.Create(f.ctx, owner, AccountInput{Name: " ", Type: models.AccountTypeCash})
	assert.True(t, IsKind(err, KindValidation))

	_, err = svc.Create(f.ctx, owner, AccountInput{Name: "Wallet", Type: "bitcoin"})
	assert.True(t, IsKind(err, KindValidation))
}

func TestAccountService_Ownership(t *testing.T) {
	f := newFixture(t)
	svc := NewAccountService(f.db)
	owner := f.user("ana@example.com")
	other := f.user("bob@example.com")
	accID := f.account(owner, "Nubank", "0")

	_, err := svc.GetOne(f.ctx, accID, other)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindForbidden))
	assert.Equal(t, "access denied to account", err.Error())

	_, err = svc.Update(f.ctx, accID, other, AccountPatch{Name: ptr("Mine")})
	assert.True(t, IsKind(err, KindForbidden))

	assert.True(t, IsKind(svc.Delete(f.ctx, accID, other), KindForbidden))

	_, err = svc.GetOne(f.ctx, 9999, owner)
	assert.True(t, IsKind(err, KindNotFound))
	assert.Equal(t, "account not found", err.Error())

	list, err := svc.List(f.ctx, other)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAccountService_Update(t *testing.T) {
	f := newFixture(t)
	svc := NewAccountService(f.db)
	owner := f.user("ana@example.com")
	accID := f.account(owner, "Nubank", "100")

	acc, err := svc.Update(f.ctx, accID, owner, AccountPatch{Name: ptr("Nu"), InitialBalance: ptr(dec("250.5"))})
	require.NoError(t, err)
	assert.Equal(t, "Nu", acc.Name)
	assert.Equal(t, models.AccountTypeChecking, acc.Type)
	assert.True(t, acc.InitialBalance.Equal(dec("250.5")))
}

func TestAccountService_CurrentBalance(t *testing.T) {
	f := newFixture(t)
	svc := NewAccountService(f.db)
	owner := f.user("ana@example.com")
	accID := f.account(owner, "Nubank", "1000")
	salary := f.category(owner, "Salário", models.TypeIncome)
	food := f.category(owner, "Alimentação", models.TypeExpense)

	f.tx(owner, accID, salary, models.TypeIncome, "4500", "2025-01-05")
	f.tx(owner, accID, food, models.TypeExpense, "89.90", "2025-01-06")
	f.tx(owner, accID, food, models.TypeExpense, "10.10", "2025-01-07")

	list, err := svc.List(f.ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].CurrentBalance.Equal(dec("5400")), list[0].CurrentBalance.String())
}

func TestAccountService_Delete(t *testing.T) {
	f := newFixture(t)
	svc := NewAccountService(f.db)
	owner := f.user("ana@example.com")
	used := f.account(owner, "Nubank", "0")
	empty := f.account(owner, "Wallet", "0")
	food := f.category(owner, "Alimentação", models.TypeExpense)
	f.tx(owner, used, food, models.TypeExpense, "10", "2025-01-06")

	err := svc.Delete(f.ctx, used, owner)
	assert.True(t, IsKind(err, KindConflict))
	_, err = svc.GetOne(f.ctx, used, owner)
	assert.NoError(t, err)

	require.NoError(t, svc.Delete(f.ctx, empty, owner))
	_, err = svc.GetOne(f.ctx, empty, owner)
	assert.True(t, IsKind(err, KindNotFound))
}
