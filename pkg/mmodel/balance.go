package mmodel

import (
	"github.com/shopspring/decimal"

	"github.com/CroesusLabs/croesus/pkg/constant"
)

// Balance is a struct designed to store one side of an account balance.
// Debit and credit are monotonic counters; amount is the net derived from
// them according to the owning account's normal balance.
type Balance struct {
	Amount decimal.Decimal `json:"amount"`
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
}

// Apply adds amount to the given bookkeeping side and recomputes the net for
// the given normal balance. Counters only ever increase; a reversal applies
// the opposite side.
func (b Balance) Apply(entryType string, amount decimal.Decimal, normalBalance string) Balance {
	switch entryType {
	case constant.DebitEntry:
		b.Debit = b.Debit.Add(amount)
	case constant.CreditEntry:
		b.Credit = b.Credit.Add(amount)
	}

	b.Amount = b.Net(normalBalance)

	return b
}

// Net returns debit minus credit for debit-normal accounts and credit minus
// debit for credit-normal accounts.
func (b Balance) Net(normalBalance string) decimal.Decimal {
	if normalBalance == constant.NormalBalanceCredit {
		return b.Credit.Sub(b.Debit)
	}

	return b.Debit.Sub(b.Credit)
}

// ReverseEntryType returns the opposite bookkeeping side.
func ReverseEntryType(entryType string) string {
	if entryType == constant.DebitEntry {
		return constant.CreditEntry
	}

	return constant.DebitEntry
}
