// Package lookup provides the PostgreSQL adapter for the pending
// transaction lookup, the side table that lets an update command find its
// target transaction by (instance, source, source_idempk) without scanning
// the command log. A row exists only while the transaction is pending.
package lookup

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
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

// Repository provides an interface for operations related to pending
// transaction lookups.
type Repository interface {
	Create(ctx context.Context, lookup *mmodel.PendingTransactionLookup) error
	Find(ctx context.Context, instanceID uuid.UUID, source, sourceIdemPK string) (*mmodel.PendingTransactionLookup, error)
	Delete(ctx context.Context, instanceID uuid.UUID, source, sourceIdemPK string) error
}

// LookupPostgreSQLRepository is a Postgres implementation of Repository.
type LookupPostgreSQLRepository struct {
	connection *postgres.Connection
	tableName  string
}

// NewLookupPostgreSQLRepository returns a new instance of LookupPostgreSQLRepository using the given Postgres connection.
func NewLookupPostgreSQLRepository(pc *postgres.Connection) *LookupPostgreSQLRepository {
	return &LookupPostgreSQLRepository{
		connection: pc,
		tableName:  "pending_transaction_lookup",
	}
}

// Create inserts a lookup row in the caller's transaction.
func (r *LookupPostgreSQLRepository) Create(ctx context.Context, lookup *mmodel.PendingTransactionLookup) error {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.create_pending_lookup")
	defer span.End()

	createdAt := lookup.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query, args, err := squirrel.Insert(r.tableName).
		Columns("instance_id", "source", "source_idempk", "command_id", "transaction_id", "journal_event_id", "created_at").
		Values(
			uuid.MustParse(lookup.InstanceID), lookup.Source, lookup.SourceIdemPK,
			uuid.MustParse(lookup.CommandID), uuid.MustParse(lookup.TransactionID),
			uuid.MustParse(lookup.JournalEventID), createdAt,
		).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build insert query", err)

		return err
	}

	if _, err := r.connection.Querier(ctx).Exec(ctx, query, args...); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to insert pending lookup", err)

		logger.Errorf("Failed to insert pending lookup: %v", err)

		return err
	}

	return nil
}

// Find retrieves a lookup row by its composite key.
func (r *LookupPostgreSQLRepository) Find(ctx context.Context, instanceID uuid.UUID, source, sourceIdemPK string) (*mmodel.PendingTransactionLookup, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.find_pending_lookup")
	defer span.End()

	query, args, err := squirrel.Select("instance_id", "source", "source_idempk", "command_id", "transaction_id", "journal_event_id", "created_at").
		From(r.tableName).
		Where(squirrel.Eq{"instance_id": instanceID, "source": source, "source_idempk": sourceIdemPK}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build select query", err)

		return nil, err
	}

	var (
		instID, commandID, transactionID, journalEventID uuid.UUID
		src, idemPK                                      string
		createdAt                                        time.Time
	)

	row := r.connection.Querier(ctx).QueryRow(ctx, query, args...)
	if err := row.Scan(&instID, &src, &idemPK, &commandID, &transactionID, &journalEventID, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrDatabaseItemNotFound
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to scan pending lookup", err)

		return nil, err
	}

	return &mmodel.PendingTransactionLookup{
		InstanceID:     instID.String(),
		Source:         src,
		SourceIdemPK:   idemPK,
		CommandID:      commandID.String(),
		TransactionID:  transactionID.String(),
		JournalEventID: journalEventID.String(),
		CreatedAt:      createdAt,
	}, nil
}

// Delete clears the lookup row once its transaction leaves pending.
func (r *LookupPostgreSQLRepository) Delete(ctx context.Context, instanceID uuid.UUID, source, sourceIdemPK string) error {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.delete_pending_lookup")
	defer span.End()

	query, args, err := squirrel.Delete(r.tableName).
		Where(squirrel.Eq{"instance_id": instanceID, "source": source, "source_idempk": sourceIdemPK}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build delete query", err)

		return err
	}

	tag, err := r.connection.Querier(ctx).Exec(ctx, query, args...)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to delete pending lookup", err)

		return err
	}

	if tag.RowsAffected() == 0 {
		return services.ErrDatabaseItemNotFound
	}

	return nil
}
