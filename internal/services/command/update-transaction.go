package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	"github.com/google/uuid"

	"github.com/CroesusLabs/croesus/internal/services"
	"github.com/CroesusLabs/croesus/pkg"
	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

// pendingCreateError defers an update command whose create has not finished
// processing. It carries the create's retry gate so the scheduler can line
// the update up behind it.
type pendingCreateError struct {
	createCommandID string
	createNextRetry *time.Time
}

func (e *pendingCreateError) Error() string {
	return fmt.Sprintf("Create command %s is still pending, update deferred", e.createCommandID)
}

func (e *pendingCreateError) Is(target error) bool {
	return target == constant.ErrCreateCommandStillPending
}

// UpdateTransactionFromCommand projects an update_transaction command
// against the pending transaction created under the same source key. When
// no pending transaction is registered for the key, the create command's
// own lifecycle decides the outcome: still in flight defers the update,
// dead-lettered kills it, processed means the transaction already left
// pending.
func (uc *UseCase) UpdateTransactionFromCommand(ctx context.Context, cmd *mmodel.Command) (*Projection, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.update_transaction_from_command")
	defer span.End()

	m := &cmd.CommandMap
	instanceID := uuid.MustParse(cmd.InstanceID)

	row, err := uc.LookupRepo.Find(ctx, instanceID, m.Source, m.SourceIdemPK)
	if err != nil {
		if errors.Is(err, services.ErrDatabaseItemNotFound) {
			return uc.resolveMissingLookup(ctx, cmd)
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to find pending transaction lookup", err)

		return nil, err
	}

	return uc.applyTransactionUpdate(ctx, cmd, row)
}

// resolveMissingLookup decides what a missing lookup row means by walking
// back to the create command behind the same source key.
func (uc *UseCase) resolveMissingLookup(ctx context.Context, cmd *mmodel.Command) (*Projection, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.resolve_missing_lookup")
	defer span.End()

	m := &cmd.CommandMap
	instanceID := uuid.MustParse(cmd.InstanceID)

	createHash := pkg.HashIdempotencyKey(constant.ActionCreateTransaction, m.Source, m.SourceIdemPK, "")

	key, err := uc.IdempotencyRepo.FindByHash(ctx, instanceID, createHash)
	if err != nil {
		if errors.Is(err, services.ErrDatabaseItemNotFound) {
			return nil, pkg.ValidateBusinessError(constant.ErrCreateCommandNotFound, constant.EntityTransaction, m.Source, m.SourceIdemPK)
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to find create command idempotency key", err)

		return nil, err
	}

	create, err := uc.CommandRepo.Find(ctx, instanceID, uuid.MustParse(key.CommandID))
	if err != nil {
		if errors.Is(err, services.ErrDatabaseItemNotFound) {
			return nil, pkg.ValidateBusinessError(constant.ErrCreateCommandNotFound, constant.EntityTransaction, m.Source, m.SourceIdemPK)
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to find create command", err)

		return nil, err
	}

	switch create.QueueItem.Status {
	case constant.QueueItemDeadLetter:
		return nil, pkg.ValidateBusinessError(constant.ErrCreateCommandDeadLettered, constant.EntityTransaction)
	case constant.QueueItemProcessed:
		// The create finished yet left no lookup row: the transaction was
		// created posted, or a prior update already moved it out of pending.
		return nil, pkg.ValidateBusinessError(constant.ErrTransactionNotPending, constant.EntityTransaction)
	}

	logger.Infof("Create command %s still in flight, deferring update command %s", create.ID, cmd.ID)

	return nil, &pendingCreateError{
		createCommandID: create.ID,
		createNextRetry: create.QueueItem.NextRetryAfter,
	}
}

// applyTransactionUpdate loads the target transaction with its entries and
// accounts, validates the transition, and executes the resulting plan.
func (uc *UseCase) applyTransactionUpdate(ctx context.Context, cmd *mmodel.Command, row *mmodel.PendingTransactionLookup) (*Projection, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.apply_transaction_update")
	defer span.End()

	data := cmd.CommandMap.Transaction
	instanceID := uuid.MustParse(cmd.InstanceID)
	transactionID := uuid.MustParse(row.TransactionID)

	target, err := uc.TransactionRepo.Find(ctx, instanceID, transactionID)
	if err != nil {
		if errors.Is(err, services.ErrDatabaseItemNotFound) {
			return nil, pkg.ValidateBusinessError(constant.ErrTransactionNotFound, constant.EntityTransaction)
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to find transaction", err)

		return nil, err
	}

	if !target.CanTransitionTo(data.Status) {
		return nil, pkg.ValidateBusinessError(constant.ErrInvalidStatusTransition, constant.EntityTransaction, target.Status, data.Status)
	}

	originals, err := uc.EntryRepo.ListByTransaction(ctx, transactionID)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to list transaction entries", err)

		return nil, err
	}

	accounts, err := uc.loadEntryAccounts(ctx, instanceID, originals)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	plan, err := buildUpdatePlan(target, originals, accounts, data, now)
	if err != nil {
		return nil, err
	}

	if err := uc.executePlan(ctx, plan); err != nil {
		return nil, err
	}

	journalEventID, err := uc.emitJournal(ctx, cmd, journalTarget{transactionID: target.ID})
	if err != nil {
		return nil, err
	}

	// A transaction that left pending is immutable; its source key is freed
	// up for reuse.
	if data.Status != constant.TransactionPending {
		if err := uc.LookupRepo.Delete(ctx, instanceID, row.Source, row.SourceIdemPK); err != nil {
			libOpentelemetry.HandleSpanError(&span, "Failed to delete pending transaction lookup", err)

			return nil, err
		}
	}

	logger.Infof("Updated transaction %s to status %s", target.ID, data.Status)

	projected := *target
	projected.Status = data.Status
	projected.UpdatedAt = now

	if plan.status != nil {
		projected.PostedAt = plan.status.PostedAt
	}

	projected.Entries = mergeEntryRewrites(originals, plan.entryUpdates)

	return &Projection{Transaction: &projected, JournalEventID: journalEventID}, nil
}

// loadEntryAccounts loads each distinct account referenced by the entries,
// keyed by account id.
func (uc *UseCase) loadEntryAccounts(ctx context.Context, instanceID uuid.UUID, entries []*mmodel.Entry) (map[string]*mmodel.Account, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.load_entry_accounts")
	defer span.End()

	accounts := make(map[string]*mmodel.Account, len(entries))

	for _, entry := range entries {
		if _, loaded := accounts[entry.AccountID]; loaded {
			continue
		}

		account, err := uc.AccountRepo.Find(ctx, instanceID, uuid.MustParse(entry.AccountID))
		if err != nil {
			libOpentelemetry.HandleSpanError(&span, "Failed to find entry account", err)

			return nil, err
		}

		accounts[entry.AccountID] = account
	}

	return accounts, nil
}

func mergeEntryRewrites(originals, rewrites []*mmodel.Entry) []*mmodel.Entry {
	if len(rewrites) == 0 {
		return originals
	}

	byID := make(map[string]*mmodel.Entry, len(rewrites))
	for _, rewrite := range rewrites {
		byID[rewrite.ID] = rewrite
	}

	merged := make([]*mmodel.Entry, len(originals))

	for i, original := range originals {
		if rewrite, found := byID[original.ID]; found {
			merged[i] = rewrite
			continue
		}

		merged[i] = original
	}

	return merged
}
