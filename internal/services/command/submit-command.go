package command

import (
	"context"
	"errors"
	"fmt"
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

// OnError selects what happens to a synchronously processed command whose
// processing fails.
type OnError string

const (
	// OnErrorRetry persists the command regardless of the processing
	// outcome; failures land on the queue item and the scheduler retries.
	OnErrorRetry OnError = "retry"

	// OnErrorFail wraps submission and processing in one transaction and
	// persists nothing when any part of it fails.
	OnErrorFail OnError = "fail"
)

// submission is a validated command ready to persist.
type submission struct {
	commandMap *mmodel.CommandMap
	instance   *mmodel.Instance
	keyHash    string
}

// SubmitCommand validates a raw command, guards it against duplicate
// submission and persists it atomically with its pending queue item and
// idempotency key. The command is processed later by a queue processor.
//
// Duplicate detection runs in two layers: a Redis reservation as the fast
// path and the Postgres unique index on (instance, key hash) as the
// authority. A Redis outage degrades to the database check.
func (uc *UseCase) SubmitCommand(ctx context.Context, params map[string]any) (*mmodel.Command, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.submit_command")
	defer span.End()

	sub, err := uc.prepareSubmission(ctx, params)
	if err != nil {
		return nil, err
	}

	instanceID := uuid.MustParse(sub.instance.ID)
	redisKey := pkg.IdempotencyRedisKey(sub.instance.ID, sub.keyHash)

	won, redisErr := uc.RedisRepo.SetNX(ctx, redisKey, "", uc.IdempotencyTTL)
	if redisErr != nil {
		logger.Warnf("Idempotency fast path unavailable, falling back to database: %v", redisErr)
	} else if !won {
		// The winner's id is cached next to the reservation once it persists;
		// an empty or unreadable entry falls back to the idempotency table.
		if winnerID, getErr := uc.RedisRepo.Get(ctx, redisKey); getErr == nil && winnerID != "" {
			return nil, pkg.ValidateBusinessError(constant.ErrDuplicateCommand, constant.EntityCommand, winnerID)
		}

		existing, findErr := uc.IdempotencyRepo.FindByHash(ctx, instanceID, sub.keyHash)
		if findErr == nil {
			return nil, pkg.ValidateBusinessError(constant.ErrDuplicateCommand, constant.EntityCommand, existing.CommandID)
		}

		if !errors.Is(findErr, services.ErrDatabaseItemNotFound) {
			libOpentelemetry.HandleSpanError(&span, "Failed to resolve idempotency key", findErr)

			return nil, findErr
		}
		// The reservation has no backing row: a prior submission failed
		// after reserving. The database stays authoritative, proceed.
	}

	created, err := uc.persistSubmission(ctx, sub)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to persist command", err)

		return nil, err
	}

	if err := uc.RedisRepo.Set(ctx, redisKey, created.ID, uc.IdempotencyTTL); err != nil {
		logger.Warnf("Failed to cache idempotency winner %s: %v", created.ID, err)
	}

	logger.Infof("Submitted command %s with action %s", created.ID, created.CommandMap.Action)

	return created, nil
}

// ProcessCommandSync submits a command and processes it in the same call.
//
// With OnErrorRetry the command is persisted first; a processing failure is
// recorded on its queue item, returned to the caller, and retried by the
// scheduler like any queued command. With OnErrorFail nothing survives a
// failure: submission, claim and projection run in one transaction that
// rolls back whole.
//
// When a concurrent processor wins the claim race in retry mode, the command
// is returned without a projection and its queue item carries the
// asynchronous outcome.
func (uc *UseCase) ProcessCommandSync(ctx context.Context, params map[string]any, onError OnError) (*Projection, *mmodel.Command, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.process_command_sync")
	defer span.End()

	if onError == OnErrorFail {
		return uc.processNoSaveOnError(ctx, params)
	}

	cmd, err := uc.SubmitCommand(ctx, params)
	if err != nil {
		return nil, nil, err
	}

	out, err := uc.claimAndProcess(ctx, cmd)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to process submitted command", err)

		return nil, cmd, err
	}

	if refreshed, findErr := uc.CommandRepo.Find(ctx, uuid.MustParse(cmd.InstanceID), uuid.MustParse(cmd.ID)); findErr == nil {
		cmd = refreshed
	}

	if out.procErr != nil {
		return nil, cmd, out.procErr
	}

	return out.projection, cmd, nil
}

// prepareSubmission parses and validates the raw parameters and resolves the
// instance they address.
func (uc *UseCase) prepareSubmission(ctx context.Context, params map[string]any) (*submission, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.prepare_submission")
	defer span.End()

	m, err := mmodel.ParseCommandMap(params)
	if err != nil {
		if errors.Is(err, constant.ErrActionNotSupported) {
			return nil, pkg.ValidateBusinessError(constant.ErrActionNotSupported, constant.EntityCommand, params["action"])
		}

		return nil, pkg.ValidationError{
			EntityType: constant.EntityCommand,
			Title:      "Malformed Command",
			Message:    fmt.Sprintf("The command payload could not be decoded: %v", err),
			Err:        err,
		}
	}

	if err := validateCommandMap(m); err != nil {
		return nil, err
	}

	instance, err := uc.InstanceRepo.FindByAddress(ctx, m.InstanceAddress)
	if err != nil {
		if errors.Is(err, services.ErrDatabaseItemNotFound) {
			return nil, pkg.ValidateBusinessError(constant.ErrInstanceNotFound, constant.EntityInstance, m.InstanceAddress)
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to find instance by address", err)

		return nil, err
	}

	return &submission{
		commandMap: m,
		instance:   instance,
		keyHash:    pkg.HashIdempotencyKey(m.Action, m.Source, m.SourceIdemPK, m.UpdateIdemPK),
	}, nil
}

// persistSubmission inserts the command, its pending queue item and its
// idempotency key in one transaction. A lost duplicate race surfaces as the
// duplicate command conflict pointing at the winner.
func (uc *UseCase) persistSubmission(ctx context.Context, sub *submission) (*mmodel.Command, error) {
	now := time.Now().UTC()

	cmd := &mmodel.Command{
		ID:         libCommons.GenerateUUIDv7().String(),
		InstanceID: sub.instance.ID,
		CommandMap: *sub.commandMap,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var created *mmodel.Command

	err := uc.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var txErr error

		created, txErr = uc.CommandRepo.CreateWithQueueItem(ctx, cmd)
		if txErr != nil {
			return txErr
		}

		return uc.IdempotencyRepo.Create(ctx, &mmodel.IdempotencyKey{
			InstanceID: sub.instance.ID,
			KeyHash:    sub.keyHash,
			CommandID:  created.ID,
			CreatedAt:  now,
		})
	})
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, uc.duplicateCommandError(ctx, uuid.MustParse(sub.instance.ID), sub.keyHash)
		}

		return nil, err
	}

	return created, nil
}

// duplicateCommandError resolves the command owning the key hash and builds
// the conflict callers receive on a duplicate submission.
func (uc *UseCase) duplicateCommandError(ctx context.Context, instanceID uuid.UUID, keyHash string) error {
	existingID := "unknown"

	if existing, err := uc.IdempotencyRepo.FindByHash(ctx, instanceID, keyHash); err == nil {
		existingID = existing.CommandID
	}

	return pkg.ValidateBusinessError(constant.ErrDuplicateCommand, constant.EntityCommand, existingID)
}

// claimAndProcess claims the just-submitted command and runs the normal
// processing pipeline on it synchronously.
func (uc *UseCase) claimAndProcess(ctx context.Context, cmd *mmodel.Command) (*outcome, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.claim_and_process")
	defer span.End()

	claimed, err := uc.CommandRepo.Claim(ctx, cmd.QueueItem, syncProcessorID(), uc.ProcessorVersion)
	if err != nil {
		if errors.Is(err, constant.ErrAlreadyClaimed) {
			logger.Infof("Queue item %s claimed by a queue processor before the synchronous attempt", cmd.QueueItem.ID)

			return &outcome{}, nil
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to claim queue item", err)

		return nil, err
	}

	return uc.processClaimed(ctx, cmd, claimed)
}

// processNoSaveOnError runs submission, claim and projection in a single
// transaction. Optimistic concurrency gets one attempt: a retry loop cannot
// roll back just the work portion of a joined transaction, so a version
// conflict fails the whole call and the caller resubmits.
func (uc *UseCase) processNoSaveOnError(ctx context.Context, params map[string]any) (*Projection, *mmodel.Command, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.process_no_save_on_error")
	defer span.End()

	sub, err := uc.prepareSubmission(ctx, params)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()

	cmd := &mmodel.Command{
		ID:         libCommons.GenerateUUIDv7().String(),
		InstanceID: sub.instance.ID,
		CommandMap: *sub.commandMap,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var (
		created    *mmodel.Command
		projection *Projection
	)

	err = uc.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var txErr error

		created, txErr = uc.CommandRepo.CreateWithQueueItem(ctx, cmd)
		if txErr != nil {
			return txErr
		}

		txErr = uc.IdempotencyRepo.Create(ctx, &mmodel.IdempotencyKey{
			InstanceID: sub.instance.ID,
			KeyHash:    sub.keyHash,
			CommandID:  created.ID,
			CreatedAt:  now,
		})
		if txErr != nil {
			return txErr
		}

		// The row is invisible to other processors until commit, so this
		// claim cannot be contended.
		claimed, txErr := uc.CommandRepo.Claim(ctx, created.QueueItem, syncProcessorID(), uc.ProcessorVersion)
		if txErr != nil {
			return txErr
		}

		projection, txErr = uc.dispatchAction(ctx, created)
		if txErr != nil {
			return txErr
		}

		completedAt := time.Now().UTC()

		return uc.CommandRepo.UpdateQueueItem(ctx, &mmodel.CommandQueueItem{
			ID:                    claimed.ID,
			Status:                constant.QueueItemProcessed,
			ProcessingCompletedAt: &completedAt,
		})
	})
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to process command without save on error", err)

		switch {
		case postgres.IsUniqueViolation(err):
			return nil, nil, uc.duplicateCommandError(ctx, uuid.MustParse(sub.instance.ID), sub.keyHash)
		case errors.Is(err, constant.ErrStaleVersion):
			return nil, nil, pkg.InternalServerError{
				EntityType: constant.EntityCommand,
				Title:      "Concurrent Modification",
				Message:    "The ledger was modified concurrently. Retry the command.",
				Err:        err,
			}
		}

		return nil, nil, err
	}

	uc.saveContextMetadata(ctx, created, projection)

	redisKey := pkg.IdempotencyRedisKey(sub.instance.ID, sub.keyHash)
	if err := uc.RedisRepo.Set(ctx, redisKey, created.ID, uc.IdempotencyTTL); err != nil {
		logger.Warnf("Failed to cache idempotency winner %s: %v", created.ID, err)
	}

	if refreshed, findErr := uc.CommandRepo.Find(ctx, uuid.MustParse(created.InstanceID), uuid.MustParse(created.ID)); findErr == nil {
		created = refreshed
	}

	return projection, created, nil
}

func syncProcessorID() string {
	return fmt.Sprintf("%s:sync:%s", constant.DefaultProcessorName, libCommons.GenerateUUIDv7())
}
