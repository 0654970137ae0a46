// Package journal provides the PostgreSQL adapter for immutable journal
// events and their link rows. Every event links back to exactly one command
// and to either the transaction or the account it projected; single column
// unique indexes keep duplicate emissions out.
package journal

import (
	"context"
	"errors"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/CroesusLabs/croesus/internal/adapters/postgres"
	"github.com/CroesusLabs/croesus/internal/services"
	"github.com/CroesusLabs/croesus/pkg"
	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

// Repository provides an interface for operations related to journal events.
type Repository interface {
	CreateWithLinks(ctx context.Context, event *mmodel.JournalEvent, links *mmodel.JournalLinks) (*mmodel.JournalEvent, error)
	Find(ctx context.Context, instanceID, id uuid.UUID) (*mmodel.JournalEvent, error)
	FindAll(ctx context.Context, instanceID uuid.UUID, limit, page int) ([]*mmodel.JournalEvent, error)
	FindLinks(ctx context.Context, journalEventID uuid.UUID) (*mmodel.JournalLinks, error)
}

// JournalEventPostgreSQLModel represents the entity JournalEvent into SQL context in Database
type JournalEventPostgreSQLModel struct {
	ID         uuid.UUID
	InstanceID uuid.UUID
	CommandMap mmodel.CommandMap
	CreatedAt  time.Time
}

// ToEntity converts a JournalEventPostgreSQLModel to entity JournalEvent
func (t *JournalEventPostgreSQLModel) ToEntity() *mmodel.JournalEvent {
	return &mmodel.JournalEvent{
		ID:         t.ID.String(),
		InstanceID: t.InstanceID.String(),
		CommandMap: t.CommandMap,
		CreatedAt:  t.CreatedAt,
	}
}

// FromEntity converts an entity JournalEvent to JournalEventPostgreSQLModel
func (t *JournalEventPostgreSQLModel) FromEntity(event *mmodel.JournalEvent) {
	id := libCommons.GenerateUUIDv7()
	if event.ID != "" {
		id = uuid.MustParse(event.ID)
	}

	*t = JournalEventPostgreSQLModel{
		ID:         id,
		InstanceID: uuid.MustParse(event.InstanceID),
		CommandMap: event.CommandMap,
		CreatedAt:  event.CreatedAt,
	}
}

// JournalPostgreSQLRepository is a Postgres implementation of Repository.
type JournalPostgreSQLRepository struct {
	connection *postgres.Connection
	tableName  string
}

// NewJournalPostgreSQLRepository returns a new instance of JournalPostgreSQLRepository using the given Postgres connection.
func NewJournalPostgreSQLRepository(pc *postgres.Connection) *JournalPostgreSQLRepository {
	return &JournalPostgreSQLRepository{
		connection: pc,
		tableName:  "journal_events",
	}
}

// CreateWithLinks inserts the journal event, its command link and the
// transaction or account link, all through the caller's transaction. The
// unique indexes on the link tables reject a second emission for the same
// command or event.
func (r *JournalPostgreSQLRepository) CreateWithLinks(ctx context.Context, event *mmodel.JournalEvent, links *mmodel.JournalLinks) (*mmodel.JournalEvent, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.create_journal_event")
	defer span.End()

	record := &JournalEventPostgreSQLModel{}
	record.FromEntity(event)

	query, args, err := squirrel.Insert(r.tableName).
		Columns("id", "instance_id", "command_map", "created_at").
		Values(record.ID, record.InstanceID, record.CommandMap, record.CreatedAt).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build insert query", err)

		return nil, err
	}

	if _, err := r.connection.Querier(ctx).Exec(ctx, query, args...); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to insert journal event", err)

		logger.Errorf("Failed to insert journal event: %v", err)

		return nil, err
	}

	commandLink := squirrel.Insert("journal_event_command_links").
		Columns("id", "journal_event_id", "command_id", "created_at").
		Values(libCommons.GenerateUUIDv7(), record.ID, uuid.MustParse(links.CommandID), record.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	query, args, err = commandLink.ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build insert query", err)

		return nil, err
	}

	if _, err := r.connection.Querier(ctx).Exec(ctx, query, args...); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to insert journal command link", err)

		if postgres.IsUniqueViolation(err) {
			return nil, pkg.ValidateBusinessError(constant.ErrDuplicateCommand, constant.EntityJournalEvent, links.CommandID)
		}

		return nil, err
	}

	switch {
	case links.TransactionID != "":
		query, args, err = squirrel.Insert("journal_event_transaction_links").
			Columns("id", "journal_event_id", "transaction_id", "created_at").
			Values(libCommons.GenerateUUIDv7(), record.ID, uuid.MustParse(links.TransactionID), record.CreatedAt).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
	case links.AccountID != "":
		query, args, err = squirrel.Insert("journal_event_account_links").
			Columns("id", "journal_event_id", "account_id", "created_at").
			Values(libCommons.GenerateUUIDv7(), record.ID, uuid.MustParse(links.AccountID), record.CreatedAt).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
	default:
		return nil, errors.New("journal event links must carry a transaction or an account")
	}

	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build insert query", err)

		return nil, err
	}

	if _, err := r.connection.Querier(ctx).Exec(ctx, query, args...); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to insert journal target link", err)

		return nil, err
	}

	links.JournalEventID = record.ID.String()

	return record.ToEntity(), nil
}

// Find retrieves a journal event by id within an instance.
func (r *JournalPostgreSQLRepository) Find(ctx context.Context, instanceID, id uuid.UUID) (*mmodel.JournalEvent, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.find_journal_event")
	defer span.End()

	query, args, err := squirrel.Select("id", "instance_id", "command_map", "created_at").
		From(r.tableName).
		Where(squirrel.Eq{"instance_id": instanceID, "id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build select query", err)

		return nil, err
	}

	record := &JournalEventPostgreSQLModel{}

	row := r.connection.Querier(ctx).QueryRow(ctx, query, args...)
	if err := row.Scan(&record.ID, &record.InstanceID, &record.CommandMap, &record.CreatedAt); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to scan journal event", err)

		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrDatabaseItemNotFound
		}

		return nil, err
	}

	return record.ToEntity(), nil
}

// FindAll retrieves journal events of an instance, newest first.
func (r *JournalPostgreSQLRepository) FindAll(ctx context.Context, instanceID uuid.UUID, limit, page int) ([]*mmodel.JournalEvent, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.find_all_journal_events")
	defer span.End()

	query, args, err := squirrel.Select("id", "instance_id", "command_map", "created_at").
		From(r.tableName).
		Where(squirrel.Eq{"instance_id": instanceID}).
		OrderBy("created_at DESC").
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
		libOpentelemetry.HandleSpanError(&span, "Failed to query journal events", err)

		return nil, err
	}
	defer rows.Close()

	var events []*mmodel.JournalEvent

	for rows.Next() {
		record := &JournalEventPostgreSQLModel{}
		if err := rows.Scan(&record.ID, &record.InstanceID, &record.CommandMap, &record.CreatedAt); err != nil {
			libOpentelemetry.HandleSpanError(&span, "Failed to scan journal event", err)

			return nil, err
		}

		events = append(events, record.ToEntity())
	}

	if err := rows.Err(); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to iterate journal events", err)

		return nil, err
	}

	return events, nil
}

// FindLinks retrieves the command link and the transaction or account link
// of a journal event.
func (r *JournalPostgreSQLRepository) FindLinks(ctx context.Context, journalEventID uuid.UUID) (*mmodel.JournalLinks, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.find_journal_links")
	defer span.End()

	const query = `
SELECT cl.command_id, tl.transaction_id, al.account_id
FROM journal_event_command_links cl
LEFT JOIN journal_event_transaction_links tl ON tl.journal_event_id = cl.journal_event_id
LEFT JOIN journal_event_account_links al ON al.journal_event_id = cl.journal_event_id
WHERE cl.journal_event_id = $1`

	var commandID uuid.UUID

	var transactionID, accountID *uuid.UUID

	row := r.connection.Querier(ctx).QueryRow(ctx, query, journalEventID)
	if err := row.Scan(&commandID, &transactionID, &accountID); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to scan journal links", err)

		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrDatabaseItemNotFound
		}

		return nil, err
	}

	links := &mmodel.JournalLinks{
		JournalEventID: journalEventID.String(),
		CommandID:      commandID.String(),
	}

	if transactionID != nil {
		links.TransactionID = transactionID.String()
	}

	if accountID != nil {
		links.AccountID = accountID.String()
	}

	return links, nil
}
