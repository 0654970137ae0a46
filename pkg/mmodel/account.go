package mmodel

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/CroesusLabs/croesus/pkg/constant"
)

// Account is a struct designed to store account data.
type Account struct {
	ID              string          `json:"id"`
	InstanceID      string          `json:"instance_id"`
	Address         string          `json:"address"`
	Name            string          `json:"name,omitempty"`
	Description     string          `json:"description,omitempty"`
	Type            string          `json:"type"`
	NormalBalance   string          `json:"normal_balance"`
	Currency        string          `json:"currency"`
	AllowedNegative bool            `json:"allowed_negative"`
	Posted          Balance         `json:"posted"`
	Pending         Balance         `json:"pending"`
	Available       decimal.Decimal `json:"available"`
	Version         int64           `json:"version"`
	Context         map[string]any  `json:"context,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NormalBalanceForType returns the bookkeeping side that increases accounts
// of the given type. Asset and expense accounts grow on debit, the rest on
// credit.
func NormalBalanceForType(accountType string) string {
	switch accountType {
	case constant.AccountTypeAsset, constant.AccountTypeExpense:
		return constant.NormalBalanceDebit
	default:
		return constant.NormalBalanceCredit
	}
}

// EntryTypeFor assigns the bookkeeping side for a signed caller amount. A
// positive amount increases the account per its normal balance, a negative
// amount decreases it.
func (a *Account) EntryTypeFor(signed decimal.Decimal) string {
	increases := signed.Sign() > 0

	if a.NormalBalance == constant.NormalBalanceCredit {
		if increases {
			return constant.CreditEntry
		}

		return constant.DebitEntry
	}

	if increases {
		return constant.DebitEntry
	}

	return constant.CreditEntry
}

// RecomputeAvailable derives the spendable amount from posted and pending,
// keyed strictly on normal_balance. Pending activity on the decreasing side
// holds funds back; pending activity on the increasing side does not count
// until posted. The hold is the negative pending net, so a fully reversed
// pending entry releases its hold even though the counters only ever grow.
func (a *Account) RecomputeAvailable() {
	held := a.Pending.Net(a.NormalBalance).Neg()
	if held.IsNegative() {
		held = decimal.Zero
	}

	a.Available = a.Posted.Amount.Sub(held)
}

// AccountData is the payload of create_account and update_account commands.
type AccountData struct {
	Address         string         `json:"address" validate:"required,max=256,ledger_address"`
	Name            string         `json:"name,omitempty" validate:"omitempty,max=256"`
	Description     string         `json:"description,omitempty" validate:"omitempty,max=1024"`
	Type            string         `json:"type" validate:"required,oneof=asset liability equity revenue expense"`
	Currency        string         `json:"currency" validate:"required,currency_code"`
	NormalBalance   string         `json:"normal_balance,omitempty" validate:"omitempty,oneof=debit credit"`
	AllowedNegative *bool          `json:"allowed_negative,omitempty"`
	Context         map[string]any `json:"context,omitempty"`
}
