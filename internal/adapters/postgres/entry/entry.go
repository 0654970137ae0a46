// Package entry provides the PostgreSQL adapter for double-entry legs.
// Entry rows stay keyed to their account across pending edits; an edit
// rewrites the row in place rather than replacing it, so balance history
// stays attached.
package entry

import (
	"context"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/CroesusLabs/croesus/internal/adapters/postgres"
	"github.com/CroesusLabs/croesus/internal/services"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

// Repository provides an interface for operations related to entry entities.
type Repository interface {
	CreateAll(ctx context.Context, entries []*mmodel.Entry) ([]*mmodel.Entry, error)
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*mmodel.Entry, error)
	Update(ctx context.Context, entry *mmodel.Entry) error
}

// EntryPostgreSQLModel represents the entity Entry into SQL context in Database
type EntryPostgreSQLModel struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	AccountID     uuid.UUID
	Type          string
	Amount        decimal.Decimal
	Currency      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ToEntity converts an EntryPostgreSQLModel to entity Entry
func (t *EntryPostgreSQLModel) ToEntity() *mmodel.Entry {
	return &mmodel.Entry{
		ID:            t.ID.String(),
		TransactionID: t.TransactionID.String(),
		AccountID:     t.AccountID.String(),
		Type:          t.Type,
		Amount:        t.Amount,
		Currency:      t.Currency,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// FromEntity converts an entity Entry to EntryPostgreSQLModel
func (t *EntryPostgreSQLModel) FromEntity(entry *mmodel.Entry) {
	id := libCommons.GenerateUUIDv7()
	if entry.ID != "" {
		id = uuid.MustParse(entry.ID)
	}

	*t = EntryPostgreSQLModel{
		ID:            id,
		TransactionID: uuid.MustParse(entry.TransactionID),
		AccountID:     uuid.MustParse(entry.AccountID),
		Type:          entry.Type,
		Amount:        entry.Amount,
		Currency:      entry.Currency,
		CreatedAt:     entry.CreatedAt,
		UpdatedAt:     entry.UpdatedAt,
	}
}

// EntryPostgreSQLRepository is a Postgres implementation of Repository.
type EntryPostgreSQLRepository struct {
	connection *postgres.Connection
	tableName  string
}

// NewEntryPostgreSQLRepository returns a new instance of EntryPostgreSQLRepository using the given Postgres connection.
func NewEntryPostgreSQLRepository(pc *postgres.Connection) *EntryPostgreSQLRepository {
	return &EntryPostgreSQLRepository{
		connection: pc,
		tableName:  "entries",
	}
}

// CreateAll inserts the entry set of a transaction in one statement and
// returns the entries with their generated ids filled in.
func (r *EntryPostgreSQLRepository) CreateAll(ctx context.Context, entries []*mmodel.Entry) ([]*mmodel.Entry, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.create_entries")
	defer span.End()

	builder := squirrel.Insert(r.tableName).
		Columns("id", "transaction_id", "account_id", "type", "amount", "currency", "created_at", "updated_at").
		PlaceholderFormat(squirrel.Dollar)

	created := make([]*mmodel.Entry, 0, len(entries))

	for _, e := range entries {
		record := &EntryPostgreSQLModel{}
		record.FromEntity(e)

		builder = builder.Values(
			record.ID, record.TransactionID, record.AccountID, record.Type,
			record.Amount, record.Currency, record.CreatedAt, record.UpdatedAt,
		)

		created = append(created, record.ToEntity())
	}

	query, args, err := builder.ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build insert query", err)

		return nil, err
	}

	if _, err := r.connection.Querier(ctx).Exec(ctx, query, args...); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to insert entries", err)

		logger.Errorf("Failed to insert entries: %v", err)

		return nil, err
	}

	return created, nil
}

// ListByTransaction retrieves the entries of a transaction in insertion
// order.
func (r *EntryPostgreSQLRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*mmodel.Entry, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.list_entries_by_transaction")
	defer span.End()

	query, args, err := squirrel.Select("id", "transaction_id", "account_id", "type", "amount", "currency", "created_at", "updated_at").
		From(r.tableName).
		Where(squirrel.Eq{"transaction_id": transactionID}).
		OrderBy("created_at ASC", "id ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build select query", err)

		return nil, err
	}

	rows, err := r.connection.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to query entries", err)

		return nil, err
	}
	defer rows.Close()

	var entries []*mmodel.Entry

	for rows.Next() {
		record := &EntryPostgreSQLModel{}

		err := rows.Scan(
			&record.ID, &record.TransactionID, &record.AccountID, &record.Type,
			&record.Amount, &record.Currency, &record.CreatedAt, &record.UpdatedAt,
		)
		if err != nil {
			libOpentelemetry.HandleSpanError(&span, "Failed to scan entry", err)

			return nil, err
		}

		entries = append(entries, record.ToEntity())
	}

	if err := rows.Err(); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to iterate entries", err)

		return nil, err
	}

	return entries, nil
}

// Update rewrites an entry's side, amount and currency in place. The row id
// and transaction id are stable.
func (r *EntryPostgreSQLRepository) Update(ctx context.Context, entry *mmodel.Entry) error {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.update_entry")
	defer span.End()

	query, args, err := squirrel.Update(r.tableName).
		Set("account_id", uuid.MustParse(entry.AccountID)).
		Set("type", entry.Type).
		Set("amount", entry.Amount).
		Set("currency", entry.Currency).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": uuid.MustParse(entry.ID)}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build update query", err)

		return err
	}

	tag, err := r.connection.Querier(ctx).Exec(ctx, query, args...)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to update entry", err)

		logger.Errorf("Failed to update entry: %v", err)

		return err
	}

	if tag.RowsAffected() == 0 {
		return services.ErrDatabaseItemNotFound
	}

	return nil
}

