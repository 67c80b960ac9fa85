package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisibleTo(t *testing.T) {
	owner := uint(1)
	other := uint(2)

	acc := &Account{UserID: owner}
	assert.True(t, acc.VisibleTo(owner))
	assert.False(t, acc.VisibleTo(other))

	cat := &Category{UserID: &owner}
	assert.True(t, cat.VisibleTo(owner))
	assert.False(t, cat.VisibleTo(other))

	sys := &Category{System: true}
	assert.True(t, sys.VisibleTo(other))
	assert.False(t, sys.OwnedBy(other))

	sub := &Subcategory{UserID: owner}
	assert.False(t, sub.VisibleTo(other))

	tx := &Transaction{UserID: owner}
	assert.True(t, tx.VisibleTo(owner))
	assert.False(t, tx.VisibleTo(other))
}

func TestCategory_IsTransfer(t *testing.T) {
	key := SystemKeyTransfer
	assert.True(t, (&Category{System: true, SystemKey: &key}).IsTransfer())
	assert.False(t, (&Category{System: true}).IsTransfer())
	// 非系统类别即使同名也不是转账类别
	assert.False(t, (&Category{Name: "Transferência", SystemKey: &key}).IsTransfer())
}

func TestTypes_Valid(t *testing.T) {
	assert.True(t, TypeIncome.Valid())
	assert.True(t, TypeExpense.Valid())
	assert.False(t, TransactionType("transfer").Valid())

	assert.True(t, AccountTypeCreditCard.Valid())
	assert.False(t, AccountType("wallet").Valid())
}
