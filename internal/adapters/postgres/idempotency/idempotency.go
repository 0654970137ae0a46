// Package idempotency provides the PostgreSQL adapter for durable
// idempotency keys. The unique (instance_id, key_hash) pair is the
// authoritative duplicate guard; Redis only fronts it as a fast path.
package idempotency

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

// Repository provides an interface for operations related to idempotency keys.
type Repository interface {
	Create(ctx context.Context, key *mmodel.IdempotencyKey) error
	FindByHash(ctx context.Context, instanceID uuid.UUID, keyHash string) (*mmodel.IdempotencyKey, error)
}

// IdempotencyPostgreSQLRepository is a Postgres implementation of Repository.
type IdempotencyPostgreSQLRepository struct {
	connection *postgres.Connection
	tableName  string
}

// NewIdempotencyPostgreSQLRepository returns a new instance of IdempotencyPostgreSQLRepository using the given Postgres connection.
func NewIdempotencyPostgreSQLRepository(pc *postgres.Connection) *IdempotencyPostgreSQLRepository {
	return &IdempotencyPostgreSQLRepository{
		connection: pc,
		tableName:  "idempotency_keys",
	}
}

// Create inserts an idempotency key in the caller's transaction. A duplicate
// hash for the instance surfaces as the raw unique violation; the submission
// use case resolves the winning command before reporting the conflict.
func (r *IdempotencyPostgreSQLRepository) Create(ctx context.Context, key *mmodel.IdempotencyKey) error {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.create_idempotency_key")
	defer span.End()

	createdAt := key.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query, args, err := squirrel.Insert(r.tableName).
		Columns("instance_id", "key_hash", "command_id", "created_at").
		Values(uuid.MustParse(key.InstanceID), key.KeyHash, uuid.MustParse(key.CommandID), createdAt).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build insert query", err)

		return err
	}

	if _, err := r.connection.Querier(ctx).Exec(ctx, query, args...); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to insert idempotency key", err)

		if !postgres.IsUniqueViolation(err) {
			logger.Errorf("Failed to insert idempotency key: %v", err)
		}

		return err
	}

	return nil
}

// FindByHash retrieves the idempotency key owning a hash, if any.
func (r *IdempotencyPostgreSQLRepository) FindByHash(ctx context.Context, instanceID uuid.UUID, keyHash string) (*mmodel.IdempotencyKey, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.find_idempotency_key")
	defer span.End()

	query, args, err := squirrel.Select("instance_id", "key_hash", "command_id", "created_at").
		From(r.tableName).
		Where(squirrel.Eq{"instance_id": instanceID, "key_hash": keyHash}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build select query", err)

		return nil, err
	}

	var (
		instID, commandID uuid.UUID
		hash              string
		createdAt         time.Time
	)

	row := r.connection.Querier(ctx).QueryRow(ctx, query, args...)
	if err := row.Scan(&instID, &hash, &commandID, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrDatabaseItemNotFound
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to scan idempotency key", err)

		return nil, err
	}

	return &mmodel.IdempotencyKey{
		InstanceID: instID.String(),
		KeyHash:    hash,
		CommandID:  commandID.String(),
		CreatedAt:  createdAt,
	}, nil
}
