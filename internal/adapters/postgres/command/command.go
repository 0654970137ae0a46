// Package command provides the PostgreSQL adapter for the command log and
// its queue items. Commands are immutable after insert; all lifecycle state
// lives on the 1:1 queue item, whose writes follow two protocols: the claim
// is a lock_version compare-and-set, and every later write by the claiming
// processor is guarded by status = processing so a stall sweep that took the
// item away turns the write into a no-op.
package command

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/CroesusLabs/croesus/internal/adapters/postgres"
	"github.com/CroesusLabs/croesus/internal/scheduler"
	"github.com/CroesusLabs/croesus/internal/services"
	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

// Repository provides an interface for operations related to command entities
// and their queue items.
type Repository interface {
	CreateWithQueueItem(ctx context.Context, command *mmodel.Command) (*mmodel.Command, error)
	Find(ctx context.Context, instanceID, id uuid.UUID) (*mmodel.Command, error)
	FindAll(ctx context.Context, instanceID uuid.UUID, limit, page int) ([]*mmodel.Command, error)
	FindAllByQueueStatus(ctx context.Context, instanceID uuid.UUID, status string, limit, page int) ([]*mmodel.Command, error)
	InstancesWithReadyWork(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	NextReady(ctx context.Context, instanceID uuid.UUID, now time.Time) (*mmodel.Command, error)
	Claim(ctx context.Context, item *mmodel.CommandQueueItem, processorID, processorVersion string) (*mmodel.CommandQueueItem, error)
	UpdateQueueItem(ctx context.Context, item *mmodel.CommandQueueItem) error
	AppendOCCConflict(ctx context.Context, queueItemID uuid.UUID, message string) error
	RevertStalled(ctx context.Context, stalledBefore time.Time, message string) (int64, error)
}

// claimableStatuses are the queue item states a processor may claim from.
var claimableStatuses = []string{
	constant.QueueItemPending,
	constant.QueueItemFailed,
	constant.QueueItemOCCTimeout,
}

// CommandPostgreSQLModel represents the entity Command into SQL context in Database
type CommandPostgreSQLModel struct {
	ID         uuid.UUID
	InstanceID uuid.UUID
	CommandMap mmodel.CommandMap
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ToEntity converts a CommandPostgreSQLModel to entity Command
func (t *CommandPostgreSQLModel) ToEntity() *mmodel.Command {
	return &mmodel.Command{
		ID:         t.ID.String(),
		InstanceID: t.InstanceID.String(),
		CommandMap: t.CommandMap,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

// FromEntity converts an entity Command to CommandPostgreSQLModel
func (t *CommandPostgreSQLModel) FromEntity(command *mmodel.Command) {
	id := libCommons.GenerateUUIDv7()
	if command.ID != "" {
		id = uuid.MustParse(command.ID)
	}

	*t = CommandPostgreSQLModel{
		ID:         id,
		InstanceID: uuid.MustParse(command.InstanceID),
		CommandMap: command.CommandMap,
		CreatedAt:  command.CreatedAt,
		UpdatedAt:  command.UpdatedAt,
	}
}

// CommandQueueItemPostgreSQLModel represents the entity CommandQueueItem into SQL context in Database
type CommandQueueItemPostgreSQLModel struct {
	ID                    uuid.UUID
	CommandID             uuid.UUID
	Status                string
	ProcessorID           *string
	ProcessorVersion      *string
	ProcessingStartedAt   *time.Time
	ProcessingCompletedAt *time.Time
	RetryCount            int
	OCCRetryCount         int
	NextRetryAfter        *time.Time
	Errors                []mmodel.QueueError
	LockVersion           int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// ToEntity converts a CommandQueueItemPostgreSQLModel to entity CommandQueueItem
func (t *CommandQueueItemPostgreSQLModel) ToEntity() *mmodel.CommandQueueItem {
	return &mmodel.CommandQueueItem{
		ID:                    t.ID.String(),
		CommandID:             t.CommandID.String(),
		Status:                t.Status,
		ProcessorID:           t.ProcessorID,
		ProcessorVersion:      t.ProcessorVersion,
		ProcessingStartedAt:   t.ProcessingStartedAt,
		ProcessingCompletedAt: t.ProcessingCompletedAt,
		RetryCount:            t.RetryCount,
		OCCRetryCount:         t.OCCRetryCount,
		NextRetryAfter:        t.NextRetryAfter,
		Errors:                t.Errors,
		Version:               t.LockVersion,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

var commandQueueColumns = []string{
	"c.id", "c.instance_id", "c.command_map", "c.created_at", "c.updated_at",
	"q.id", "q.command_id", "q.status", "q.processor_id", "q.processor_version",
	"q.processing_started_at", "q.processing_completed_at", "q.retry_count",
	"q.occ_retry_count", "q.next_retry_after", "q.errors", "q.lock_version",
	"q.created_at", "q.updated_at",
}

func scanCommandWithQueueItem(row rowScanner) (*mmodel.Command, error) {
	command := &CommandPostgreSQLModel{}
	item := &CommandQueueItemPostgreSQLModel{}

	err := row.Scan(
		&command.ID, &command.InstanceID, &command.CommandMap, &command.CreatedAt, &command.UpdatedAt,
		&item.ID, &item.CommandID, &item.Status, &item.ProcessorID, &item.ProcessorVersion,
		&item.ProcessingStartedAt, &item.ProcessingCompletedAt, &item.RetryCount,
		&item.OCCRetryCount, &item.NextRetryAfter, &item.Errors, &item.LockVersion,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	entity := command.ToEntity()
	entity.QueueItem = item.ToEntity()

	return entity, nil
}

func scanQueueItem(row rowScanner) (*CommandQueueItemPostgreSQLModel, error) {
	item := &CommandQueueItemPostgreSQLModel{}

	err := row.Scan(
		&item.ID, &item.CommandID, &item.Status, &item.ProcessorID, &item.ProcessorVersion,
		&item.ProcessingStartedAt, &item.ProcessingCompletedAt, &item.RetryCount,
		&item.OCCRetryCount, &item.NextRetryAfter, &item.Errors, &item.LockVersion,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return item, nil
}

// CommandPostgreSQLRepository is a Postgres implementation of Repository.
type CommandPostgreSQLRepository struct {
	connection *postgres.Connection
	tableName  string
	queueTable string
}

// NewCommandPostgreSQLRepository returns a new instance of CommandPostgreSQLRepository using the given Postgres connection.
func NewCommandPostgreSQLRepository(pc *postgres.Connection) *CommandPostgreSQLRepository {
	return &CommandPostgreSQLRepository{
		connection: pc,
		tableName:  "commands",
		queueTable: "command_queue_items",
	}
}

// CreateWithQueueItem inserts the immutable command together with its
// pending queue item. Callers run it inside a transaction when the insert
// must be atomic with other writes, such as the idempotency key.
func (r *CommandPostgreSQLRepository) CreateWithQueueItem(ctx context.Context, command *mmodel.Command) (*mmodel.Command, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.create_command")
	defer span.End()

	record := &CommandPostgreSQLModel{}
	record.FromEntity(command)

	query, args, err := squirrel.Insert(r.tableName).
		Columns("id", "instance_id", "command_map", "created_at", "updated_at").
		Values(record.ID, record.InstanceID, record.CommandMap, record.CreatedAt, record.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build insert query", err)

		return nil, err
	}

	if _, err := r.connection.Querier(ctx).Exec(ctx, query, args...); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to insert command", err)

		logger.Errorf("Failed to insert command: %v", err)

		return nil, err
	}

	item := &CommandQueueItemPostgreSQLModel{
		ID:        libCommons.GenerateUUIDv7(),
		CommandID: record.ID,
		Status:    constant.QueueItemPending,
		Errors:    []mmodel.QueueError{},
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}

	query, args, err = squirrel.Insert(r.queueTable).
		Columns("id", "command_id", "status", "retry_count", "occ_retry_count", "errors", "lock_version", "created_at", "updated_at").
		Values(item.ID, item.CommandID, item.Status, item.RetryCount, item.OCCRetryCount, item.Errors, item.LockVersion, item.CreatedAt, item.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build insert query", err)

		return nil, err
	}

	if _, err := r.connection.Querier(ctx).Exec(ctx, query, args...); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to insert command queue item", err)

		logger.Errorf("Failed to insert command queue item: %v", err)

		return nil, err
	}

	entity := record.ToEntity()
	entity.QueueItem = item.ToEntity()

	return entity, nil
}

// Find retrieves a command with its queue item.
func (r *CommandPostgreSQLRepository) Find(ctx context.Context, instanceID, id uuid.UUID) (*mmodel.Command, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.find_command")
	defer span.End()

	query, args, err := squirrel.Select(commandQueueColumns...).
		From(r.tableName + " c").
		Join(r.queueTable + " q ON q.command_id = c.id").
		Where(squirrel.Eq{"c.instance_id": instanceID, "c.id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build select query", err)

		return nil, err
	}

	command, err := scanCommandWithQueueItem(r.connection.Querier(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to scan command", err)

		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrDatabaseItemNotFound
		}

		return nil, err
	}

	return command, nil
}

// FindAll retrieves commands of an instance with their queue items, newest
// first.
func (r *CommandPostgreSQLRepository) FindAll(ctx context.Context, instanceID uuid.UUID, limit, page int) ([]*mmodel.Command, error) {
	return r.findAll(ctx, squirrel.Eq{"c.instance_id": instanceID}, limit, page)
}

// FindAllByQueueStatus retrieves commands of an instance whose queue item is
// in the given state. Used for dead letter inspection.
func (r *CommandPostgreSQLRepository) FindAllByQueueStatus(ctx context.Context, instanceID uuid.UUID, status string, limit, page int) ([]*mmodel.Command, error) {
	return r.findAll(ctx, squirrel.Eq{"c.instance_id": instanceID, "q.status": status}, limit, page)
}

func (r *CommandPostgreSQLRepository) findAll(ctx context.Context, where squirrel.Eq, limit, page int) ([]*mmodel.Command, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.find_all_commands")
	defer span.End()

	query, args, err := squirrel.Select(commandQueueColumns...).
		From(r.tableName + " c").
		Join(r.queueTable + " q ON q.command_id = c.id").
		Where(where).
		OrderBy("c.created_at DESC").
		Limit(libCommons.SafeIntToUint64(limit)).
		Offset(libCommons.SafeIntToUint64((page - 1) * limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build select query", err)

		return nil, err
	}

	rows, err := r.connection.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to query commands", err)

		return nil, err
	}
	defer rows.Close()

	var commands []*mmodel.Command

	for rows.Next() {
		command, err := scanCommandWithQueueItem(rows)
		if err != nil {
			libOpentelemetry.HandleSpanError(&span, "Failed to scan command", err)

			return nil, err
		}

		commands = append(commands, command)
	}

	if err := rows.Err(); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to iterate commands", err)

		return nil, err
	}

	return commands, nil
}

// InstancesWithReadyWork returns the distinct instances holding at least one
// claimable queue item whose retry window has opened. The monitor polls this.
func (r *CommandPostgreSQLRepository) InstancesWithReadyWork(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.instances_with_ready_work")
	defer span.End()

	query, args, err := squirrel.Select("c.instance_id").
		Distinct().
		From(r.tableName + " c").
		Join(r.queueTable + " q ON q.command_id = c.id").
		Where(squirrel.Eq{"q.status": claimableStatuses}).
		Where(squirrel.Or{
			squirrel.Eq{"q.next_retry_after": nil},
			squirrel.LtOrEq{"q.next_retry_after": now},
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build select query", err)

		return nil, err
	}

	rows, err := r.connection.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to query ready instances", err)

		return nil, err
	}
	defer rows.Close()

	var instanceIDs []uuid.UUID

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			libOpentelemetry.HandleSpanError(&span, "Failed to scan instance id", err)

			return nil, err
		}

		instanceIDs = append(instanceIDs, id)
	}

	if err := rows.Err(); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to iterate ready instances", err)

		return nil, err
	}

	return instanceIDs, nil
}

// NextReady returns the oldest claimable command of an instance, or
// ErrDatabaseItemNotFound when the instance has no ready work.
func (r *CommandPostgreSQLRepository) NextReady(ctx context.Context, instanceID uuid.UUID, now time.Time) (*mmodel.Command, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.next_ready_command")
	defer span.End()

	query, args, err := squirrel.Select(commandQueueColumns...).
		From(r.tableName + " c").
		Join(r.queueTable + " q ON q.command_id = c.id").
		Where(squirrel.Eq{"c.instance_id": instanceID, "q.status": claimableStatuses}).
		Where(squirrel.Or{
			squirrel.Eq{"q.next_retry_after": nil},
			squirrel.LtOrEq{"q.next_retry_after": now},
		}).
		OrderBy("c.created_at ASC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build select query", err)

		return nil, err
	}

	command, err := scanCommandWithQueueItem(r.connection.Querier(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrDatabaseItemNotFound
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to scan command", err)

		return nil, err
	}

	return command, nil
}

// Claim moves a queue item to processing with a compare-and-set on
// lock_version. The retry counter increments only when claiming from a
// non-pending state; the OCC counter always resets. A zero row match means
// another processor won the race and returns ErrAlreadyClaimed.
func (r *CommandPostgreSQLRepository) Claim(ctx context.Context, item *mmodel.CommandQueueItem, processorID, processorVersion string) (*mmodel.CommandQueueItem, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.claim_queue_item")
	defer span.End()

	retryCount := item.RetryCount
	if scheduler.ClaimIncrementsRetry(item.Status) {
		retryCount++
	}

	now := time.Now().UTC()

	query, args, err := squirrel.Update(r.queueTable).
		Set("status", constant.QueueItemProcessing).
		Set("processor_id", processorID).
		Set("processor_version", processorVersion).
		Set("processing_started_at", now).
		Set("processing_completed_at", nil).
		Set("retry_count", retryCount).
		Set("occ_retry_count", 0).
		Set("lock_version", squirrel.Expr("lock_version + 1")).
		Set("updated_at", now).
		Where(squirrel.Eq{
			"id":           uuid.MustParse(item.ID),
			"lock_version": item.Version,
			"status":       claimableStatuses,
		}).
		Suffix("RETURNING id, command_id, status, processor_id, processor_version, " +
			"processing_started_at, processing_completed_at, retry_count, " +
			"occ_retry_count, next_retry_after, errors, lock_version, created_at, updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build claim query", err)

		return nil, err
	}

	claimed, err := scanQueueItem(r.connection.Querier(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, constant.ErrAlreadyClaimed
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to claim queue item", err)

		return nil, err
	}

	return claimed.ToEntity(), nil
}

// UpdateQueueItem writes the lifecycle outcome of the in-flight claim:
// status, completion time and retry schedule. Any entries in item.Errors are
// new diagnostics and are prepended to the ones already on the row. The
// retry counters belong to Claim and AppendOCCConflict and are not touched
// here. The write is guarded by status = processing, so a stall sweep that
// reclaimed the item makes it a no-op reported as ErrStaleVersion.
func (r *CommandPostgreSQLRepository) UpdateQueueItem(ctx context.Context, item *mmodel.CommandQueueItem) error {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.update_queue_item")
	defer span.End()

	builder := squirrel.Update(r.queueTable).
		Set("status", item.Status).
		Set("processing_completed_at", item.ProcessingCompletedAt).
		Set("next_retry_after", item.NextRetryAfter).
		Set("lock_version", squirrel.Expr("lock_version + 1")).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{
			"id":     uuid.MustParse(item.ID),
			"status": constant.QueueItemProcessing,
		}).
		PlaceholderFormat(squirrel.Dollar)

	if len(item.Errors) > 0 {
		payload, marshalErr := json.Marshal(item.Errors)
		if marshalErr != nil {
			libOpentelemetry.HandleSpanError(&span, "Failed to marshal queue item errors", marshalErr)

			return marshalErr
		}

		builder = builder.Set("errors", squirrel.Expr("?::jsonb || errors", payload))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build update query", err)

		return err
	}

	tag, err := r.connection.Querier(ctx).Exec(ctx, query, args...)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to update queue item", err)

		logger.Errorf("Failed to update queue item: %v", err)

		return err
	}

	if tag.RowsAffected() == 0 {
		return constant.ErrStaleVersion
	}

	return nil
}

// AppendOCCConflict records an optimistic concurrency conflict directly on
// the pool, bypassing any transaction carried by the context. The work
// transaction that hit the conflict rolls back; this diagnostic must not.
func (r *CommandPostgreSQLRepository) AppendOCCConflict(ctx context.Context, queueItemID uuid.UUID, message string) error {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.append_occ_conflict")
	defer span.End()

	now := time.Now().UTC()

	const query = `
UPDATE command_queue_items
SET occ_retry_count = occ_retry_count + 1,
    errors = jsonb_build_array(jsonb_build_object('message', $1::text, 'inserted_at', $2::text)) || errors,
    updated_at = $3
WHERE id = $4`

	_, err := r.connection.Pool.Exec(ctx, query, message, now.Format(time.RFC3339Nano), now, queueItemID)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to append occ conflict", err)

		return err
	}

	return nil
}

// RevertStalled returns to pending every queue item stuck in processing
// since before the given time, appending a diagnostic and bumping
// lock_version so the lost owner cannot claim or write it again. Returns the
// number of items swept.
func (r *CommandPostgreSQLRepository) RevertStalled(ctx context.Context, stalledBefore time.Time, message string) (int64, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.revert_stalled_queue_items")
	defer span.End()

	now := time.Now().UTC()

	const query = `
UPDATE command_queue_items
SET status = $1,
    processor_id = NULL,
    processor_version = NULL,
    processing_started_at = NULL,
    errors = jsonb_build_array(jsonb_build_object('message', $2::text, 'inserted_at', $3::text)) || errors,
    lock_version = lock_version + 1,
    updated_at = $4
WHERE status = $5
  AND processing_completed_at IS NULL
  AND processing_started_at < $6`

	tag, err := r.connection.Querier(ctx).Exec(ctx, query,
		constant.QueueItemPending, message, now.Format(time.RFC3339Nano), now,
		constant.QueueItemProcessing, stalledBefore,
	)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to revert stalled queue items", err)

		return 0, err
	}

	return tag.RowsAffected(), nil
}
