package mmodel

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/CroesusLabs/croesus/pkg/constant"
)

// Entryable exposes the bookkeeping view of an entry. It is implemented by
// committed Entry rows and by proposed postings alike, so balance validators
// accept either.
type Entryable interface {
	EntryType() string
	EntryAmount() decimal.Decimal
	EntryCurrency() string
	EntryAccountID() string
}

// Entry is a struct designed to store a committed double-entry leg. The
// stored amount is always positive; type carries the side.
type Entry struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transaction_id"`
	AccountID     string          `json:"account_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (e *Entry) EntryType() string {
	return e.Type
}

func (e *Entry) EntryAmount() decimal.Decimal {
	return e.Amount
}

func (e *Entry) EntryCurrency() string {
	return e.Currency
}

func (e *Entry) EntryAccountID() string {
	return e.AccountID
}

// UnbalancedCurrency scans an entry set and returns the first currency whose
// debit and credit totals differ. The second return is false when the set is
// balanced.
func UnbalancedCurrency(entries []Entryable) (string, bool) {
	type totals struct {
		debit  decimal.Decimal
		credit decimal.Decimal
	}

	perCurrency := make(map[string]totals)
	order := make([]string, 0, len(entries))

	for _, e := range entries {
		t, seen := perCurrency[e.EntryCurrency()]
		if !seen {
			order = append(order, e.EntryCurrency())
		}

		if e.EntryType() == constant.DebitEntry {
			t.debit = t.debit.Add(e.EntryAmount())
		} else {
			t.credit = t.credit.Add(e.EntryAmount())
		}

		perCurrency[e.EntryCurrency()] = t
	}

	for _, currency := range order {
		t := perCurrency[currency]
		if !t.debit.Equal(t.credit) {
			return currency, true
		}
	}

	return "", false
}

// BalanceHistoryEntry is an append-only snapshot of an account's balances
// keyed to the entry application that caused the change.
type BalanceHistoryEntry struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	EntryID   string          `json:"entry_id"`
	Posted    Balance         `json:"posted"`
	Pending   Balance         `json:"pending"`
	Available decimal.Decimal `json:"available"`
	CreatedAt time.Time       `json:"created_at"`
}
