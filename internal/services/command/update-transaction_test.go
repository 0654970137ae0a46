package command

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/CroesusLabs/croesus/internal/adapters/postgres/command"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/idempotency"
	"github.com/CroesusLabs/croesus/internal/services"
	"github.com/CroesusLabs/croesus/pkg"
	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

func transactionUpdateMap(status string) *mmodel.CommandMap {
	m := transactionCreateMap()
	m.Action = constant.ActionUpdateTransaction
	m.UpdateIdemPK = "upd-001"
	m.Transaction = &mmodel.TransactionData{Status: status}

	return m
}

// heldTransaction is a pending transaction holding 100 of cash in favor of
// fees, with account state and entry rows as the create left them.
type heldTransaction struct {
	cash, fees *mmodel.Account
	target     *mmodel.Transaction
	originals  []*mmodel.Entry
	row        *mmodel.PendingTransactionLookup
}

func newHeldTransaction() *heldTransaction {
	cash := usdAccount(uuid.NewString(), "app.cash", constant.AccountTypeAsset)
	cash.Posted = mmodel.Balance{Amount: dec(1000), Debit: dec(1000)}
	cash.Pending = mmodel.Balance{Amount: dec(-100), Credit: dec(100)}
	cash.Available = dec(900)

	fees := usdAccount(uuid.NewString(), "app.fees", constant.AccountTypeRevenue)
	fees.Pending = mmodel.Balance{Amount: dec(100), Credit: dec(100)}

	transactionID := uuid.NewString()

	return &heldTransaction{
		cash: cash,
		fees: fees,
		target: &mmodel.Transaction{
			ID:         transactionID,
			InstanceID: testInstanceID,
			Status:     constant.TransactionPending,
		},
		originals: []*mmodel.Entry{
			{ID: uuid.NewString(), TransactionID: transactionID, AccountID: cash.ID, Type: constant.CreditEntry, Amount: dec(100), Currency: "USD"},
			{ID: uuid.NewString(), TransactionID: transactionID, AccountID: fees.ID, Type: constant.CreditEntry, Amount: dec(100), Currency: "USD"},
		},
		row: &mmodel.PendingTransactionLookup{
			InstanceID:    testInstanceID,
			Source:        "billing",
			SourceIdemPK:  "tx-001",
			CommandID:     uuid.NewString(),
			TransactionID: transactionID,
		},
	}
}

// expectLoad wires the lookup hit and the target's transaction, entry and
// account reads.
func (h *heldTransaction) expectLoad(pm postingMocks) {
	instanceID := uuid.MustParse(testInstanceID)

	pm.lookup.EXPECT().Find(gomock.Any(), instanceID, "billing", "tx-001").Return(h.row, nil)
	pm.transaction.EXPECT().Find(gomock.Any(), instanceID, uuid.MustParse(h.target.ID)).Return(h.target, nil)
	pm.entry.EXPECT().ListByTransaction(gomock.Any(), uuid.MustParse(h.target.ID)).Return(h.originals, nil)
	pm.account.EXPECT().Find(gomock.Any(), instanceID, uuid.MustParse(h.cash.ID)).Return(h.cash, nil)
	pm.account.EXPECT().Find(gomock.Any(), instanceID, uuid.MustParse(h.fees.ID)).Return(h.fees, nil)
}

func TestUpdateTransactionFromCommandPost(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pm := newPostingMocks(ctrl)
	h := newHeldTransaction()
	h.expectLoad(pm)

	var postedAt *time.Time

	pm.transaction.EXPECT().
		UpdateStatus(gomock.Any(), gomock.Any(), uuid.MustParse(h.target.ID), constant.TransactionPosted, gomock.Any()).
		DoAndReturn(func(ctx context.Context, instanceID, id uuid.UUID, status string, at *time.Time) error {
			postedAt = at
			return nil
		})

	pm.account.EXPECT().UpdateBalance(gomock.Any(), h.cash).Return(nil)
	pm.account.EXPECT().UpdateBalance(gomock.Any(), h.fees).Return(nil)

	var snapshotEntryIDs []string

	pm.account.EXPECT().
		UpdateBalanceHistoryByEntry(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, history *mmodel.BalanceHistoryEntry) error {
			snapshotEntryIDs = append(snapshotEntryIDs, history.EntryID)
			return nil
		}).
		Times(2)

	links, _ := passthroughJournal(pm.journal, pm.fanout)

	pm.lookup.EXPECT().Delete(gomock.Any(), uuid.MustParse(testInstanceID), "billing", "tx-001").Return(nil)

	uc := pm.useCase()

	projection, err := uc.UpdateTransactionFromCommand(context.Background(), testCommand(transactionUpdateMap(constant.TransactionPosted)))
	require.NoError(t, err)

	require.NotNil(t, postedAt)
	assert.True(t, h.cash.Available.Equal(dec(900)))
	assert.True(t, h.cash.Posted.Amount.Equal(dec(900)))
	assert.True(t, h.fees.Available.Equal(dec(100)))

	assert.ElementsMatch(t, []string{h.originals[0].ID, h.originals[1].ID}, snapshotEntryIDs)
	assert.Equal(t, h.target.ID, links.TransactionID)

	require.NotNil(t, projection.Transaction)
	assert.Equal(t, constant.TransactionPosted, projection.Transaction.Status)
	assert.Equal(t, postedAt, projection.Transaction.PostedAt)
	assert.Equal(t, h.originals, projection.Transaction.Entries, "no entry rewrites when the payload carries none")
}

func TestUpdateTransactionFromCommandArchive(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pm := newPostingMocks(ctrl)
	h := newHeldTransaction()
	h.expectLoad(pm)

	pm.transaction.EXPECT().
		UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any(), constant.TransactionArchived, nil).
		Return(nil)
	pm.account.EXPECT().UpdateBalance(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	pm.account.EXPECT().UpdateBalanceHistoryByEntry(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	passthroughJournal(pm.journal, pm.fanout)
	pm.lookup.EXPECT().Delete(gomock.Any(), gomock.Any(), "billing", "tx-001").Return(nil)

	uc := pm.useCase()

	projection, err := uc.UpdateTransactionFromCommand(context.Background(), testCommand(transactionUpdateMap(constant.TransactionArchived)))
	require.NoError(t, err)

	assert.True(t, h.cash.Available.Equal(dec(1000)), "archiving releases the hold")
	assert.True(t, h.cash.Posted.Amount.Equal(dec(1000)))
	assert.Nil(t, projection.Transaction.PostedAt)
}

func TestUpdateTransactionFromCommandContextOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pm := newPostingMocks(ctrl)
	h := newHeldTransaction()
	h.expectLoad(pm)

	// A pending target without entries rewrites nothing on the books: no
	// balance writes, no history, and the lookup row survives.
	pm.transaction.EXPECT().
		UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any(), constant.TransactionPending, nil).
		Return(nil)
	passthroughJournal(pm.journal, pm.fanout)

	uc := pm.useCase()

	m := transactionUpdateMap(constant.TransactionPending)
	m.Transaction.Context = map[string]any{"note": "approved"}

	projection, err := uc.UpdateTransactionFromCommand(context.Background(), testCommand(m))
	require.NoError(t, err)

	assert.True(t, h.cash.Available.Equal(dec(900)), "the hold stays")
	assert.Equal(t, constant.TransactionPending, projection.Transaction.Status)
}

func TestUpdateTransactionFromCommandPendingEdit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pm := newPostingMocks(ctrl)
	h := newHeldTransaction()
	h.expectLoad(pm)

	pm.transaction.EXPECT().
		UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any(), constant.TransactionPending, nil).
		Return(nil)

	var rewritten []*mmodel.Entry

	pm.entry.EXPECT().
		Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, e *mmodel.Entry) error {
			rewritten = append(rewritten, e)
			return nil
		}).
		Times(2)

	pm.account.EXPECT().UpdateBalance(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	pm.account.EXPECT().UpdateBalanceHistoryByEntry(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	passthroughJournal(pm.journal, pm.fanout)

	uc := pm.useCase()

	m := transactionUpdateMap(constant.TransactionPending)
	m.Transaction.Entries = []mmodel.EntryData{
		entryData("app.cash", -150),
		entryData("app.fees", 150),
	}

	projection, err := uc.UpdateTransactionFromCommand(context.Background(), testCommand(m))
	require.NoError(t, err)

	assert.True(t, h.cash.Available.Equal(dec(850)), "the hold grows to the new amount")

	require.Len(t, rewritten, 2)
	assert.Equal(t, h.originals[0].ID, rewritten[0].ID)
	assert.True(t, rewritten[0].Amount.Equal(dec(150)))

	require.Len(t, projection.Transaction.Entries, 2)
	assert.True(t, projection.Transaction.Entries[0].Amount.Equal(dec(150)), "the projection carries the rewritten entries")
}

func TestUpdateTransactionFromCommandInvalidTransition(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pm := newPostingMocks(ctrl)
	h := newHeldTransaction()
	h.target.Status = constant.TransactionPosted

	instanceID := uuid.MustParse(testInstanceID)
	pm.lookup.EXPECT().Find(gomock.Any(), instanceID, "billing", "tx-001").Return(h.row, nil)
	pm.transaction.EXPECT().Find(gomock.Any(), instanceID, uuid.MustParse(h.target.ID)).Return(h.target, nil)

	uc := pm.useCase()

	_, err := uc.UpdateTransactionFromCommand(context.Background(), testCommand(transactionUpdateMap(constant.TransactionArchived)))
	require.Error(t, err)
	assert.Equal(t, constant.ErrInvalidStatusTransition.Error(), businessCode(t, err))
}

// missingLookupCase wires the walk back to the create command when no
// pending transaction is registered under the source key.
func missingLookupCase(t *testing.T, pm postingMocks, mockCommandRepo *command.MockRepository, mockIdempotencyRepo *idempotency.MockRepository, createStatus string) *mmodel.Command {
	t.Helper()

	instanceID := uuid.MustParse(testInstanceID)
	createID := uuid.NewString()

	pm.lookup.EXPECT().Find(gomock.Any(), instanceID, "billing", "tx-001").Return(nil, services.ErrDatabaseItemNotFound)

	createHash := pkg.HashIdempotencyKey(constant.ActionCreateTransaction, "billing", "tx-001", "")
	mockIdempotencyRepo.EXPECT().
		FindByHash(gomock.Any(), instanceID, createHash).
		Return(&mmodel.IdempotencyKey{InstanceID: testInstanceID, KeyHash: createHash, CommandID: createID}, nil)

	nextRetry := time.Now().UTC().Add(45 * time.Second)
	create := &mmodel.Command{
		ID:         createID,
		InstanceID: testInstanceID,
		QueueItem: &mmodel.CommandQueueItem{
			ID:             uuid.NewString(),
			Status:         createStatus,
			NextRetryAfter: &nextRetry,
		},
	}

	mockCommandRepo.EXPECT().Find(gomock.Any(), instanceID, uuid.MustParse(createID)).Return(create, nil)

	return create
}

func TestUpdateTransactionFromCommandMissingLookup(t *testing.T) {
	t.Run("create dead lettered", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		pm := newPostingMocks(ctrl)
		mockCommandRepo := command.NewMockRepository(ctrl)
		mockIdempotencyRepo := idempotency.NewMockRepository(ctrl)
		missingLookupCase(t, pm, mockCommandRepo, mockIdempotencyRepo, constant.QueueItemDeadLetter)

		uc := pm.useCase()
		uc.CommandRepo = mockCommandRepo
		uc.IdempotencyRepo = mockIdempotencyRepo

		_, err := uc.UpdateTransactionFromCommand(context.Background(), testCommand(transactionUpdateMap(constant.TransactionPosted)))
		require.Error(t, err)
		assert.Equal(t, constant.ErrCreateCommandDeadLettered.Error(), businessCode(t, err))
	})

	t.Run("create processed means not pending", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		pm := newPostingMocks(ctrl)
		mockCommandRepo := command.NewMockRepository(ctrl)
		mockIdempotencyRepo := idempotency.NewMockRepository(ctrl)
		missingLookupCase(t, pm, mockCommandRepo, mockIdempotencyRepo, constant.QueueItemProcessed)

		uc := pm.useCase()
		uc.CommandRepo = mockCommandRepo
		uc.IdempotencyRepo = mockIdempotencyRepo

		_, err := uc.UpdateTransactionFromCommand(context.Background(), testCommand(transactionUpdateMap(constant.TransactionPosted)))
		require.Error(t, err)
		assert.Equal(t, constant.ErrTransactionNotPending.Error(), businessCode(t, err))
	})

	t.Run("create still in flight defers", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		pm := newPostingMocks(ctrl)
		mockCommandRepo := command.NewMockRepository(ctrl)
		mockIdempotencyRepo := idempotency.NewMockRepository(ctrl)
		create := missingLookupCase(t, pm, mockCommandRepo, mockIdempotencyRepo, constant.QueueItemProcessing)

		uc := pm.useCase()
		uc.CommandRepo = mockCommandRepo
		uc.IdempotencyRepo = mockIdempotencyRepo

		_, err := uc.UpdateTransactionFromCommand(context.Background(), testCommand(transactionUpdateMap(constant.TransactionPosted)))
		require.ErrorIs(t, err, constant.ErrCreateCommandStillPending)

		var deferred *pendingCreateError

		require.ErrorAs(t, err, &deferred)
		assert.Equal(t, create.ID, deferred.createCommandID)
		assert.Equal(t, create.QueueItem.NextRetryAfter, deferred.createNextRetry)
	})

	t.Run("no create under the key", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		pm := newPostingMocks(ctrl)
		mockIdempotencyRepo := idempotency.NewMockRepository(ctrl)

		pm.lookup.EXPECT().Find(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, services.ErrDatabaseItemNotFound)
		mockIdempotencyRepo.EXPECT().FindByHash(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, services.ErrDatabaseItemNotFound)

		uc := pm.useCase()
		uc.IdempotencyRepo = mockIdempotencyRepo

		_, err := uc.UpdateTransactionFromCommand(context.Background(), testCommand(transactionUpdateMap(constant.TransactionPosted)))
		require.Error(t, err)
		assert.Equal(t, constant.ErrCreateCommandNotFound.Error(), businessCode(t, err))
	})
}
