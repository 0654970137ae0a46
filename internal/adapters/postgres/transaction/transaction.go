// Package transaction provides the PostgreSQL adapter for transactions. Only
// the status column mutates after insert; entry rows live in their own
// adapter.
package transaction

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

// Repository provides an interface for operations related to transaction entities.
type Repository interface {
	Create(ctx context.Context, transaction *mmodel.Transaction) (*mmodel.Transaction, error)
	Find(ctx context.Context, instanceID, id uuid.UUID) (*mmodel.Transaction, error)
	FindAll(ctx context.Context, instanceID uuid.UUID, limit, page int) ([]*mmodel.Transaction, error)
	UpdateStatus(ctx context.Context, instanceID, id uuid.UUID, status string, postedAt *time.Time) error
}

// TransactionPostgreSQLModel represents the entity Transaction into SQL context in Database
type TransactionPostgreSQLModel struct {
	ID         uuid.UUID
	InstanceID uuid.UUID
	Status     string
	PostedAt   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ToEntity converts a TransactionPostgreSQLModel to entity Transaction
func (t *TransactionPostgreSQLModel) ToEntity() *mmodel.Transaction {
	return &mmodel.Transaction{
		ID:         t.ID.String(),
		InstanceID: t.InstanceID.String(),
		Status:     t.Status,
		PostedAt:   t.PostedAt,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

// FromEntity converts an entity Transaction to TransactionPostgreSQLModel
func (t *TransactionPostgreSQLModel) FromEntity(transaction *mmodel.Transaction) {
	id := libCommons.GenerateUUIDv7()
	if transaction.ID != "" {
		id = uuid.MustParse(transaction.ID)
	}

	*t = TransactionPostgreSQLModel{
		ID:         id,
		InstanceID: uuid.MustParse(transaction.InstanceID),
		Status:     transaction.Status,
		PostedAt:   transaction.PostedAt,
		CreatedAt:  transaction.CreatedAt,
		UpdatedAt:  transaction.UpdatedAt,
	}
}

// TransactionPostgreSQLRepository is a Postgres implementation of Repository.
type TransactionPostgreSQLRepository struct {
	connection *postgres.Connection
	tableName  string
}

// NewTransactionPostgreSQLRepository returns a new instance of TransactionPostgreSQLRepository using the given Postgres connection.
func NewTransactionPostgreSQLRepository(pc *postgres.Connection) *TransactionPostgreSQLRepository {
	return &TransactionPostgreSQLRepository{
		connection: pc,
		tableName:  "transactions",
	}
}

// Create a new transaction row.
func (r *TransactionPostgreSQLRepository) Create(ctx context.Context, transaction *mmodel.Transaction) (*mmodel.Transaction, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.create_transaction")
	defer span.End()

	record := &TransactionPostgreSQLModel{}
	record.FromEntity(transaction)

	query, args, err := squirrel.Insert(r.tableName).
		Columns("id", "instance_id", "status", "posted_at", "created_at", "updated_at").
		Values(record.ID, record.InstanceID, record.Status, record.PostedAt, record.CreatedAt, record.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build insert query", err)

		return nil, err
	}

	if _, err := r.connection.Querier(ctx).Exec(ctx, query, args...); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to insert transaction", err)

		logger.Errorf("Failed to insert transaction: %v", err)

		return nil, err
	}

	return record.ToEntity(), nil
}

// Find retrieves a transaction by id within an instance.
func (r *TransactionPostgreSQLRepository) Find(ctx context.Context, instanceID, id uuid.UUID) (*mmodel.Transaction, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.find_transaction")
	defer span.End()

	query, args, err := squirrel.Select("id", "instance_id", "status", "posted_at", "created_at", "updated_at").
		From(r.tableName).
		Where(squirrel.Eq{"instance_id": instanceID, "id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build select query", err)

		return nil, err
	}

	record := &TransactionPostgreSQLModel{}

	row := r.connection.Querier(ctx).QueryRow(ctx, query, args...)
	if err := row.Scan(&record.ID, &record.InstanceID, &record.Status, &record.PostedAt, &record.CreatedAt, &record.UpdatedAt); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to scan transaction", err)

		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrDatabaseItemNotFound
		}

		return nil, err
	}

	return record.ToEntity(), nil
}

// FindAll retrieves transactions of an instance ordered by creation time,
// newest first.
func (r *TransactionPostgreSQLRepository) FindAll(ctx context.Context, instanceID uuid.UUID, limit, page int) ([]*mmodel.Transaction, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.find_all_transactions")
	defer span.End()

	query, args, err := squirrel.Select("id", "instance_id", "status", "posted_at", "created_at", "updated_at").
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
		libOpentelemetry.HandleSpanError(&span, "Failed to query transactions", err)

		return nil, err
	}
	defer rows.Close()

	var transactions []*mmodel.Transaction

	for rows.Next() {
		record := &TransactionPostgreSQLModel{}
		if err := rows.Scan(&record.ID, &record.InstanceID, &record.Status, &record.PostedAt, &record.CreatedAt, &record.UpdatedAt); err != nil {
			libOpentelemetry.HandleSpanError(&span, "Failed to scan transaction", err)

			return nil, err
		}

		transactions = append(transactions, record.ToEntity())
	}

	if err := rows.Err(); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to iterate transactions", err)

		return nil, err
	}

	return transactions, nil
}

// UpdateStatus moves a transaction through its lifecycle. postedAt is set
// only on the transition to posted.
func (r *TransactionPostgreSQLRepository) UpdateStatus(ctx context.Context, instanceID, id uuid.UUID, status string, postedAt *time.Time) error {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.update_transaction_status")
	defer span.End()

	builder := squirrel.Update(r.tableName).
		Set("status", status).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"instance_id": instanceID, "id": id}).
		PlaceholderFormat(squirrel.Dollar)

	if postedAt != nil {
		builder = builder.Set("posted_at", *postedAt)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build update query", err)

		return err
	}

	tag, err := r.connection.Querier(ctx).Exec(ctx, query, args...)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to update transaction status", err)

		logger.Errorf("Failed to update transaction status: %v", err)

		return err
	}

	if tag.RowsAffected() == 0 {
		return services.ErrDatabaseItemNotFound
	}

	return nil
}
