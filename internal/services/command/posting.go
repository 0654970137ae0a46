package command

import (
	"context"
	"sort"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/CroesusLabs/croesus/pkg"
	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

// proposedEntry pairs an entry as it will be written with its resolved
// account. It implements mmodel.Entryable so the balance check accepts
// proposed and committed entries alike.
type proposedEntry struct {
	account   *mmodel.Account
	entryType string
	amount    decimal.Decimal
	currency  string
}

func (p *proposedEntry) EntryType() string            { return p.entryType }
func (p *proposedEntry) EntryAmount() decimal.Decimal { return p.amount }
func (p *proposedEntry) EntryCurrency() string        { return p.currency }
func (p *proposedEntry) EntryAccountID() string       { return p.account.ID }

// resolveEntries normalizes caller entry intents against their resolved
// accounts: the sign picks the bookkeeping side per the account's normal
// balance, and the stored amount is the absolute value. The set must resolve
// completely, match account currencies and balance per currency.
func resolveEntries(accounts map[string]*mmodel.Account, data []mmodel.EntryData) ([]*proposedEntry, error) {
	proposed := make([]*proposedEntry, 0, len(data))

	for _, e := range data {
		acc, found := accounts[e.AccountAddress]
		if !found {
			return nil, pkg.ValidateBusinessError(constant.ErrAccountNotFound, constant.EntityAccount, e.AccountAddress)
		}

		if e.Currency != acc.Currency {
			return nil, pkg.ValidateBusinessError(constant.ErrCurrencyMismatch, constant.EntityTransaction, e.Currency, acc.Currency, acc.Address)
		}

		proposed = append(proposed, &proposedEntry{
			account:   acc,
			entryType: acc.EntryTypeFor(e.Amount),
			amount:    e.Amount.Abs(),
			currency:  e.Currency,
		})
	}

	entryables := make([]mmodel.Entryable, len(proposed))
	for i, p := range proposed {
		entryables[i] = p
	}

	if currency, unbalanced := mmodel.UnbalancedCurrency(entryables); unbalanced {
		return nil, pkg.ValidateBusinessError(constant.ErrUnbalancedTransaction, constant.EntityTransaction, currency)
	}

	return proposed, nil
}

// statusChange is the transaction-row write of an update plan.
type statusChange struct {
	InstanceID    string
	TransactionID string
	Status        string
	PostedAt      *time.Time
}

// postingPlan is the complete write set of one posting transition, computed
// before any repository call so the write order stays fixed. Balance writes
// are sorted by account address; concurrent processors touching the same
// accounts then contend in the same order.
type postingPlan struct {
	transaction    *mmodel.Transaction
	status         *statusChange
	entryInserts   []*mmodel.Entry
	entryUpdates   []*mmodel.Entry
	balanceWrites  []*mmodel.Account
	historyInserts []*mmodel.BalanceHistoryEntry
	historyUpdates []*mmodel.BalanceHistoryEntry
}

// buildCreatePlan turns a resolved entry set into the write set of a
// create transition. Pending creates hold the entries on the pending side,
// posted creates apply them to the posted side directly. Every account gets
// its negative-available check right after its entry applies.
func buildCreatePlan(transactionID, instanceID, status string, proposed []*proposedEntry, now time.Time) (*postingPlan, error) {
	transaction := &mmodel.Transaction{
		ID:         transactionID,
		InstanceID: instanceID,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if status == constant.TransactionPosted {
		postedAt := now
		transaction.PostedAt = &postedAt
	}

	plan := &postingPlan{transaction: transaction}

	for _, p := range proposed {
		entry := &mmodel.Entry{
			ID:            libCommons.GenerateUUIDv7().String(),
			TransactionID: transactionID,
			AccountID:     p.account.ID,
			Type:          p.entryType,
			Amount:        p.amount,
			Currency:      p.currency,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if status == constant.TransactionPending {
			p.account.Pending = p.account.Pending.Apply(p.entryType, p.amount, p.account.NormalBalance)
		} else {
			p.account.Posted = p.account.Posted.Apply(p.entryType, p.amount, p.account.NormalBalance)
		}

		p.account.RecomputeAvailable()

		if err := checkAvailable(p.account); err != nil {
			return nil, err
		}

		plan.entryInserts = append(plan.entryInserts, entry)
		plan.balanceWrites = append(plan.balanceWrites, p.account)
		plan.historyInserts = append(plan.historyInserts, snapshotAfter(p.account, entry.ID, now))
	}

	sortBalanceWrites(plan.balanceWrites)

	return plan, nil
}

// validateUpdateEntries checks an update's entry list against the original:
// same count, same account per position, same currency per position. The
// amounts and sides are the only things an edit may change.
func validateUpdateEntries(updates []mmodel.EntryData, originals []*mmodel.Entry, accounts map[string]*mmodel.Account) error {
	if len(updates) != len(originals) {
		return pkg.ValidateBusinessError(constant.ErrEntryCountMismatch, constant.EntityTransaction, len(updates), len(originals))
	}

	for i, u := range updates {
		original := originals[i]
		acc := accounts[original.AccountID]

		if u.AccountAddress != acc.Address {
			return pkg.ValidateBusinessError(constant.ErrEntryOrderMismatch, constant.EntityTransaction, i, u.AccountAddress, acc.Address)
		}

		if u.Currency != original.Currency {
			return pkg.ValidateBusinessError(constant.ErrEntryCurrencyImmutable, constant.EntityTransaction, i, original.Currency, u.Currency)
		}
	}

	return nil
}

// buildUpdatePlan turns an update of a pending transaction into its write
// set. Every transition first reverses the original entry on the pending
// side; a pending target re-applies the replacement on pending, a posted
// target applies it on posted, an archive stops at the reversal. With no
// entries in the payload the original amounts carry over unchanged.
//
// Each entry's history snapshot is rewritten to the account state right
// after this transition applied it, keeping one snapshot per entry.
func buildUpdatePlan(target *mmodel.Transaction, originals []*mmodel.Entry, accounts map[string]*mmodel.Account, data *mmodel.TransactionData, now time.Time) (*postingPlan, error) {
	if len(data.Entries) > 0 {
		if err := validateUpdateEntries(data.Entries, originals, accounts); err != nil {
			return nil, err
		}

		if currency, unbalanced := proposedBalanceCheck(data.Entries, originals, accounts); unbalanced {
			return nil, pkg.ValidateBusinessError(constant.ErrUnbalancedTransaction, constant.EntityTransaction, currency)
		}
	}

	change := &statusChange{
		InstanceID:    target.InstanceID,
		TransactionID: target.ID,
		Status:        data.Status,
	}

	if data.Status == constant.TransactionPosted {
		postedAt := now
		change.PostedAt = &postedAt
	}

	plan := &postingPlan{status: change}

	// A pending target without entries changes nothing on the books; only
	// the transaction row's updated_at moves.
	if data.Status == constant.TransactionPending && len(data.Entries) == 0 {
		return plan, nil
	}

	for i, original := range originals {
		acc := accounts[original.AccountID]

		newType, newAmount := original.Type, original.Amount
		if len(data.Entries) > 0 {
			newType = acc.EntryTypeFor(data.Entries[i].Amount)
			newAmount = data.Entries[i].Amount.Abs()
		}

		acc.Pending = acc.Pending.Apply(mmodel.ReverseEntryType(original.Type), original.Amount, acc.NormalBalance)

		switch data.Status {
		case constant.TransactionPending:
			acc.Pending = acc.Pending.Apply(newType, newAmount, acc.NormalBalance)
		case constant.TransactionPosted:
			acc.Posted = acc.Posted.Apply(newType, newAmount, acc.NormalBalance)
		}

		acc.RecomputeAvailable()

		if err := checkAvailable(acc); err != nil {
			return nil, err
		}

		if data.Status != constant.TransactionArchived && (newType != original.Type || !newAmount.Equal(original.Amount)) {
			rewritten := *original
			rewritten.Type = newType
			rewritten.Amount = newAmount
			rewritten.UpdatedAt = now

			plan.entryUpdates = append(plan.entryUpdates, &rewritten)
		}

		plan.balanceWrites = append(plan.balanceWrites, acc)
		plan.historyUpdates = append(plan.historyUpdates, snapshotAfter(acc, original.ID, now))
	}

	sortBalanceWrites(plan.balanceWrites)

	return plan, nil
}

// proposedBalanceCheck verifies the replacement entry set balances per
// currency after sign normalization against each original entry's account.
func proposedBalanceCheck(updates []mmodel.EntryData, originals []*mmodel.Entry, accounts map[string]*mmodel.Account) (string, bool) {
	entryables := make([]mmodel.Entryable, len(updates))

	for i, u := range updates {
		acc := accounts[originals[i].AccountID]

		entryables[i] = &proposedEntry{
			account:   acc,
			entryType: acc.EntryTypeFor(u.Amount),
			amount:    u.Amount.Abs(),
			currency:  u.Currency,
		}
	}

	return mmodel.UnbalancedCurrency(entryables)
}

func checkAvailable(acc *mmodel.Account) error {
	if !acc.AllowedNegative && acc.Available.IsNegative() {
		return pkg.ValidateBusinessError(constant.ErrInsufficientAvailable, constant.EntityAccount, acc.Address)
	}

	return nil
}

func snapshotAfter(acc *mmodel.Account, entryID string, now time.Time) *mmodel.BalanceHistoryEntry {
	return &mmodel.BalanceHistoryEntry{
		ID:        libCommons.GenerateUUIDv7().String(),
		AccountID: acc.ID,
		EntryID:   entryID,
		Posted:    acc.Posted,
		Pending:   acc.Pending,
		Available: acc.Available,
		CreatedAt: now,
	}
}

func sortBalanceWrites(accounts []*mmodel.Account) {
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Address < accounts[j].Address
	})
}

// executePlan writes the plan through the caller's transaction: the
// transaction row first, then entries, then balances in address order, then
// history snapshots. A stale balance write surfaces ErrStaleVersion and
// rolls the whole attempt back for the OCC engine.
func (uc *UseCase) executePlan(ctx context.Context, plan *postingPlan) error {
	if plan.transaction != nil {
		if _, err := uc.TransactionRepo.Create(ctx, plan.transaction); err != nil {
			return err
		}
	}

	if plan.status != nil {
		instanceID := uuid.MustParse(plan.status.InstanceID)
		transactionID := uuid.MustParse(plan.status.TransactionID)

		if err := uc.TransactionRepo.UpdateStatus(ctx, instanceID, transactionID, plan.status.Status, plan.status.PostedAt); err != nil {
			return err
		}
	}

	if len(plan.entryInserts) > 0 {
		if _, err := uc.EntryRepo.CreateAll(ctx, plan.entryInserts); err != nil {
			return err
		}
	}

	for _, e := range plan.entryUpdates {
		if err := uc.EntryRepo.Update(ctx, e); err != nil {
			return err
		}
	}

	for _, acc := range plan.balanceWrites {
		if err := uc.AccountRepo.UpdateBalance(ctx, acc); err != nil {
			return err
		}
	}

	for _, h := range plan.historyInserts {
		if err := uc.AccountRepo.CreateBalanceHistory(ctx, h); err != nil {
			return err
		}
	}

	for _, h := range plan.historyUpdates {
		if err := uc.AccountRepo.UpdateBalanceHistoryByEntry(ctx, h); err != nil {
			return err
		}
	}

	return nil
}
