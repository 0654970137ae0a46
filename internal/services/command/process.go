package command

import (
	"context"
	"errors"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	"github.com/google/uuid"

	"github.com/CroesusLabs/croesus/internal/adapters/postgres"
	"github.com/CroesusLabs/croesus/internal/services"
	"github.com/CroesusLabs/croesus/pkg"
	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

// Projection carries the ledger entity a processed command produced, so
// synchronous callers get the result without a follow-up read.
type Projection struct {
	Account        *mmodel.Account     `json:"account,omitempty"`
	Transaction    *mmodel.Transaction `json:"transaction,omitempty"`
	JournalEventID string              `json:"journal_event_id"`
}

// outcome is the classified result of one claimed run. procErr is nil on
// success and the processing error otherwise; by the time an outcome exists
// the queue item already records it.
type outcome struct {
	projection *Projection
	procErr    error
}

// ProcessNext claims and processes the oldest ready command of an instance.
// The boolean reports whether the caller should keep draining: false means
// no ready work was found or an infrastructure error interrupted the drain.
// A claim lost to a concurrent processor just advances to the next item.
func (uc *UseCase) ProcessNext(ctx context.Context, instanceID uuid.UUID, processorID string) (bool, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.process_next")
	defer span.End()

	cmd, err := uc.CommandRepo.NextReady(ctx, instanceID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, services.ErrDatabaseItemNotFound) {
			return false, nil
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to fetch next ready command", err)

		return false, err
	}

	claimed, err := uc.CommandRepo.Claim(ctx, cmd.QueueItem, processorID, uc.ProcessorVersion)
	if err != nil {
		if errors.Is(err, constant.ErrAlreadyClaimed) {
			logger.Infof("Queue item %s claimed by another processor, advancing", cmd.QueueItem.ID)

			return true, nil
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to claim queue item", err)

		return false, err
	}

	if _, err := uc.processClaimed(ctx, cmd, claimed); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to record processing outcome", err)

		return false, err
	}

	return true, nil
}

// processClaimed runs a claimed command through its action pipeline and
// records the classified result on the queue item. The returned error covers
// only infrastructure failures writing that result; processing errors live
// inside the outcome.
func (uc *UseCase) processClaimed(ctx context.Context, cmd *mmodel.Command, item *mmodel.CommandQueueItem) (*outcome, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.process_claimed")
	defer span.End()

	projection, procErr := uc.executeCommand(ctx, cmd, item)
	if procErr == nil {
		uc.saveContextMetadata(ctx, cmd, projection)

		if err := uc.markProcessed(ctx, item); err != nil {
			return nil, err
		}

		return &outcome{projection: projection}, nil
	}

	logger.Warnf("Command %s failed processing: %v", cmd.ID, procErr)

	if err := uc.classifyFailure(ctx, item, procErr); err != nil {
		return nil, err
	}

	return &outcome{procErr: procErr}, nil
}

// executeCommand dispatches the command's action inside the optimistic
// concurrency engine. Each attempt runs in its own database transaction.
func (uc *UseCase) executeCommand(ctx context.Context, cmd *mmodel.Command, item *mmodel.CommandQueueItem) (*Projection, error) {
	var projection *Projection

	err := uc.runWithOCC(ctx, uuid.MustParse(item.ID), func(ctx context.Context) error {
		var runErr error

		projection, runErr = uc.dispatchAction(ctx, cmd)

		return runErr
	})
	if err != nil {
		return nil, err
	}

	return projection, nil
}

func (uc *UseCase) dispatchAction(ctx context.Context, cmd *mmodel.Command) (*Projection, error) {
	switch cmd.CommandMap.Action {
	case constant.ActionCreateAccount:
		return uc.CreateAccountFromCommand(ctx, cmd)
	case constant.ActionUpdateAccount:
		return uc.UpdateAccountFromCommand(ctx, cmd)
	case constant.ActionCreateTransaction:
		return uc.CreateTransactionFromCommand(ctx, cmd)
	case constant.ActionUpdateTransaction:
		return uc.UpdateTransactionFromCommand(ctx, cmd)
	}

	return nil, pkg.ValidateBusinessError(constant.ErrActionNotSupported, constant.EntityCommand, cmd.CommandMap.Action)
}

// classifyFailure turns a processing error into the queue item's next state.
// Deferred updates go back to pending behind their create command, OCC
// exhaustion parks the item, business errors are terminal, and everything
// else retries with backoff until the retry budget dead-letters it.
func (uc *UseCase) classifyFailure(ctx context.Context, item *mmodel.CommandQueueItem, procErr error) error {
	now := time.Now().UTC()

	var deferred *pendingCreateError

	switch {
	case errors.As(procErr, &deferred):
		return uc.revertPendingGated(ctx, item, deferred, now)
	case errors.Is(procErr, constant.ErrOCCTimeout):
		return uc.markOCCTimeout(ctx, item, now)
	case pkg.IsBusinessError(procErr):
		return uc.markDeadLetter(ctx, item, procErr.Error(), now)
	default:
		return uc.markFailed(ctx, item, procErr, now)
	}
}

func (uc *UseCase) markProcessed(ctx context.Context, item *mmodel.CommandQueueItem) error {
	now := time.Now().UTC()

	return uc.writeOutcome(ctx, &mmodel.CommandQueueItem{
		ID:                    item.ID,
		Status:                constant.QueueItemProcessed,
		ProcessingCompletedAt: &now,
	})
}

func (uc *UseCase) markDeadLetter(ctx context.Context, item *mmodel.CommandQueueItem, message string, now time.Time) error {
	return uc.writeOutcome(ctx, &mmodel.CommandQueueItem{
		ID:                    item.ID,
		Status:                constant.QueueItemDeadLetter,
		ProcessingCompletedAt: &now,
		Errors:                []mmodel.QueueError{{Message: message, InsertedAt: now}},
	})
}

// markFailed schedules a retry with backoff, or dead-letters the item when
// the claim already consumed the retry budget. Transient database errors
// never dead-letter; the command outlives the outage and retries at the
// backoff ceiling.
func (uc *UseCase) markFailed(ctx context.Context, item *mmodel.CommandQueueItem, procErr error, now time.Time) error {
	if !postgres.IsTransient(procErr) && uc.Policy.ShouldDeadLetter(item.RetryCount) {
		return uc.markDeadLetter(ctx, item, uc.Policy.DeadLetterMessage(procErr.Error()), now)
	}

	next := uc.Policy.NextRetryAfter(now, item.RetryCount)

	return uc.writeOutcome(ctx, &mmodel.CommandQueueItem{
		ID:             item.ID,
		Status:         constant.QueueItemFailed,
		NextRetryAfter: &next,
		Errors:         []mmodel.QueueError{{Message: procErr.Error(), InsertedAt: now}},
	})
}

// markOCCTimeout parks the item after optimistic concurrency retries ran
// out. The conflict log is already on the row, so no new diagnostic is
// added unless the retry budget turns this into a dead letter.
func (uc *UseCase) markOCCTimeout(ctx context.Context, item *mmodel.CommandQueueItem, now time.Time) error {
	if uc.Policy.ShouldDeadLetter(item.RetryCount) {
		return uc.markDeadLetter(ctx, item, uc.Policy.DeadLetterMessage(constant.ErrOCCTimeout.Error()), now)
	}

	next := uc.Policy.NextRetryAfter(now, item.RetryCount)

	return uc.writeOutcome(ctx, &mmodel.CommandQueueItem{
		ID:             item.ID,
		Status:         constant.QueueItemOCCTimeout,
		NextRetryAfter: &next,
	})
}

// revertPendingGated sends a deferred update back to pending, scheduled
// behind the create command it is waiting for.
func (uc *UseCase) revertPendingGated(ctx context.Context, item *mmodel.CommandQueueItem, deferred *pendingCreateError, now time.Time) error {
	gate := now
	if deferred.createNextRetry != nil && deferred.createNextRetry.After(now) {
		gate = *deferred.createNextRetry
	}

	next := gate.Add(uc.Policy.Backoff(item.RetryCount))

	return uc.writeOutcome(ctx, &mmodel.CommandQueueItem{
		ID:             item.ID,
		Status:         constant.QueueItemPending,
		NextRetryAfter: &next,
		Errors:         []mmodel.QueueError{{Message: deferred.Error(), InsertedAt: now}},
	})
}

// writeOutcome lands the lifecycle write. A stall sweep that reclaimed the
// item while it processed turns the write into a no-op; the sweep's revert
// is authoritative then.
func (uc *UseCase) writeOutcome(ctx context.Context, item *mmodel.CommandQueueItem) error {
	logger, _, _, _ := libCommons.NewTrackingFromContext(ctx)

	err := uc.CommandRepo.UpdateQueueItem(ctx, item)
	if errors.Is(err, constant.ErrStaleVersion) {
		logger.Warnf("Queue item %s was reclaimed before its outcome landed, dropping status %s", item.ID, item.Status)

		return nil
	}

	return err
}

// journalTarget names the entity a journal event links to besides its
// command.
type journalTarget struct {
	transactionID string
	accountID     string
}

// emitJournal writes the immutable audit event for a projected command,
// links it to the command and its entity, and enqueues the fan-out delivery
// job on the same transaction.
func (uc *UseCase) emitJournal(ctx context.Context, cmd *mmodel.Command, target journalTarget) (string, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.emit_journal")
	defer span.End()

	now := time.Now().UTC()

	event := &mmodel.JournalEvent{
		ID:         libCommons.GenerateUUIDv7().String(),
		InstanceID: cmd.InstanceID,
		CommandMap: cmd.CommandMap,
		CreatedAt:  now,
	}

	links := &mmodel.JournalLinks{
		JournalEventID: event.ID,
		CommandID:      cmd.ID,
		TransactionID:  target.transactionID,
		AccountID:      target.accountID,
	}

	created, err := uc.JournalRepo.CreateWithLinks(ctx, event, links)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to create journal event", err)

		return "", err
	}

	err = uc.Fanout.EnqueueJournalLink(ctx, mmodel.JournalLinkMessage{
		JournalEventID: created.ID,
		InstanceID:     cmd.InstanceID,
		CommandID:      cmd.ID,
		TransactionID:  target.transactionID,
		AccountID:      target.accountID,
		Action:         cmd.CommandMap.Action,
		OccurredAt:     now,
	})
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to enqueue journal link delivery", err)

		return "", err
	}

	return created.ID, nil
}

// saveContextMetadata lands the command's context blob in the metadata store
// after the work transaction committed. The books are already consistent, so
// a failure here is logged and never fails the command.
func (uc *UseCase) saveContextMetadata(ctx context.Context, cmd *mmodel.Command, projection *Projection) {
	logger, _, _, _ := libCommons.NewTrackingFromContext(ctx)

	var (
		entityName string
		entityID   string
		data       map[string]any
	)

	switch {
	case projection.Account != nil && cmd.CommandMap.Account != nil:
		entityName, entityID, data = constant.EntityAccount, projection.Account.ID, cmd.CommandMap.Account.Context
	case projection.Transaction != nil && cmd.CommandMap.Transaction != nil:
		entityName, entityID, data = constant.EntityTransaction, projection.Transaction.ID, cmd.CommandMap.Transaction.Context
	}

	if len(data) == 0 {
		return
	}

	// Upsert keeps reprocessed claims idempotent: creates and updates share
	// the same write.
	if err := uc.MetadataRepo.Update(ctx, entityName, entityID, data); err != nil {
		logger.Warnf("Failed to save context metadata for %s %s: %v", entityName, entityID, err)
	}
}
