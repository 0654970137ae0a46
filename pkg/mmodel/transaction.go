package mmodel

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/CroesusLabs/croesus/pkg/constant"
)

// Transaction is a struct designed to store transaction data.
type Transaction struct {
	ID         string         `json:"id"`
	InstanceID string         `json:"instance_id"`
	Status     string         `json:"status"`
	PostedAt   *time.Time     `json:"posted_at,omitempty"`
	Entries    []*Entry       `json:"entries,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// CanTransitionTo reports whether the stored transaction may move to the
// target status. Posted and archived are terminal; only pending moves, and
// it may stay pending (an edit), post, or archive.
func (t *Transaction) CanTransitionTo(target string) bool {
	if t.Status != constant.TransactionPending {
		return false
	}

	switch target {
	case constant.TransactionPending, constant.TransactionPosted, constant.TransactionArchived:
		return true
	}

	return false
}

// TransactionData is the payload of create_transaction and
// update_transaction commands. Entries are optional on update; a create
// requires at least two.
type TransactionData struct {
	Status  string         `json:"status" validate:"required,oneof=pending posted archived"`
	Entries []EntryData    `json:"entries,omitempty" validate:"omitempty,min=2,dive"`
	Context map[string]any `json:"context,omitempty"`
}

// EntryData is a caller-facing entry intent: a signed amount against an
// account address. The sign resolves to debit or credit against the
// account's normal balance during posting.
type EntryData struct {
	AccountAddress string          `json:"account_address" validate:"required,max=256,ledger_address"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency" validate:"required,currency_code"`
}
