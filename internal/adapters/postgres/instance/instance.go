// Package instance provides the PostgreSQL adapter for ledger instances, the
// top level tenancy unit every account, transaction and command hangs off.
package instance

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

// Repository provides an interface for operations related to instance entities.
type Repository interface {
	Create(ctx context.Context, instance *mmodel.Instance) (*mmodel.Instance, error)
	Find(ctx context.Context, id uuid.UUID) (*mmodel.Instance, error)
	FindByAddress(ctx context.Context, address string) (*mmodel.Instance, error)
	FindAll(ctx context.Context, limit, page int) ([]*mmodel.Instance, error)
	Update(ctx context.Context, id uuid.UUID, instance *mmodel.Instance) (*mmodel.Instance, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// InstancePostgreSQLModel represents the entity Instance into SQL context in Database
type InstancePostgreSQLModel struct {
	ID        uuid.UUID
	Address   string
	Config    map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ToEntity converts an InstancePostgreSQLModel to entity Instance
func (t *InstancePostgreSQLModel) ToEntity() *mmodel.Instance {
	return &mmodel.Instance{
		ID:        t.ID.String(),
		Address:   t.Address,
		Config:    t.Config,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// FromEntity converts an entity Instance to InstancePostgreSQLModel
func (t *InstancePostgreSQLModel) FromEntity(instance *mmodel.Instance) {
	id := libCommons.GenerateUUIDv7()
	if instance.ID != "" {
		id = uuid.MustParse(instance.ID)
	}

	*t = InstancePostgreSQLModel{
		ID:        id,
		Address:   instance.Address,
		Config:    instance.Config,
		CreatedAt: instance.CreatedAt,
		UpdatedAt: instance.UpdatedAt,
	}
}

// InstancePostgreSQLRepository is a Postgres implementation of Repository.
type InstancePostgreSQLRepository struct {
	connection *postgres.Connection
	tableName  string
}

// NewInstancePostgreSQLRepository returns a new instance of InstancePostgreSQLRepository using the given Postgres connection.
func NewInstancePostgreSQLRepository(pc *postgres.Connection) *InstancePostgreSQLRepository {
	return &InstancePostgreSQLRepository{
		connection: pc,
		tableName:  "instances",
	}
}

// Create a new instance. The unique index on address turns a duplicate into
// a conflict business error.
func (r *InstancePostgreSQLRepository) Create(ctx context.Context, instance *mmodel.Instance) (*mmodel.Instance, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.create_instance")
	defer span.End()

	record := &InstancePostgreSQLModel{}
	record.FromEntity(instance)

	query, args, err := squirrel.Insert(r.tableName).
		Columns("id", "address", "config", "created_at", "updated_at").
		Values(record.ID, record.Address, record.Config, record.CreatedAt, record.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build insert query", err)

		return nil, err
	}

	if _, err := r.connection.Querier(ctx).Exec(ctx, query, args...); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to insert instance", err)

		if postgres.IsUniqueViolation(err) {
			return nil, pkg.ValidateBusinessError(constant.ErrInstanceAddressConflict, constant.EntityInstance, record.Address)
		}

		logger.Errorf("Failed to insert instance: %v", err)

		return nil, err
	}

	return record.ToEntity(), nil
}

// Find retrieves an instance by id.
func (r *InstancePostgreSQLRepository) Find(ctx context.Context, id uuid.UUID) (*mmodel.Instance, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.find_instance")
	defer span.End()

	query, args, err := squirrel.Select("id", "address", "config", "created_at", "updated_at").
		From(r.tableName).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build select query", err)

		return nil, err
	}

	record := &InstancePostgreSQLModel{}

	row := r.connection.Querier(ctx).QueryRow(ctx, query, args...)
	if err := row.Scan(&record.ID, &record.Address, &record.Config, &record.CreatedAt, &record.UpdatedAt); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to scan instance", err)

		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrDatabaseItemNotFound
		}

		return nil, err
	}

	return record.ToEntity(), nil
}

// FindByAddress retrieves an instance by its unique address.
func (r *InstancePostgreSQLRepository) FindByAddress(ctx context.Context, address string) (*mmodel.Instance, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.find_instance_by_address")
	defer span.End()

	query, args, err := squirrel.Select("id", "address", "config", "created_at", "updated_at").
		From(r.tableName).
		Where(squirrel.Eq{"address": address}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build select query", err)

		return nil, err
	}

	record := &InstancePostgreSQLModel{}

	row := r.connection.Querier(ctx).QueryRow(ctx, query, args...)
	if err := row.Scan(&record.ID, &record.Address, &record.Config, &record.CreatedAt, &record.UpdatedAt); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to scan instance", err)

		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrDatabaseItemNotFound
		}

		return nil, err
	}

	return record.ToEntity(), nil
}

// FindAll retrieves instances ordered by creation time, newest first.
func (r *InstancePostgreSQLRepository) FindAll(ctx context.Context, limit, page int) ([]*mmodel.Instance, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.find_all_instances")
	defer span.End()

	query, args, err := squirrel.Select("id", "address", "config", "created_at", "updated_at").
		From(r.tableName).
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
		libOpentelemetry.HandleSpanError(&span, "Failed to query instances", err)

		return nil, err
	}
	defer rows.Close()

	var instances []*mmodel.Instance

	for rows.Next() {
		record := &InstancePostgreSQLModel{}
		if err := rows.Scan(&record.ID, &record.Address, &record.Config, &record.CreatedAt, &record.UpdatedAt); err != nil {
			libOpentelemetry.HandleSpanError(&span, "Failed to scan instance", err)

			return nil, err
		}

		instances = append(instances, record.ToEntity())
	}

	if err := rows.Err(); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to iterate instances", err)

		return nil, err
	}

	return instances, nil
}

// Update an instance's address and config. Empty fields keep their current
// value.
func (r *InstancePostgreSQLRepository) Update(ctx context.Context, id uuid.UUID, instance *mmodel.Instance) (*mmodel.Instance, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.update_instance")
	defer span.End()

	builder := squirrel.Update(r.tableName).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	if instance.Address != "" {
		builder = builder.Set("address", instance.Address)
	}

	if instance.Config != nil {
		builder = builder.Set("config", instance.Config)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build update query", err)

		return nil, err
	}

	tag, err := r.connection.Querier(ctx).Exec(ctx, query, args...)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to update instance", err)

		if postgres.IsUniqueViolation(err) {
			return nil, pkg.ValidateBusinessError(constant.ErrInstanceAddressConflict, constant.EntityInstance, instance.Address)
		}

		logger.Errorf("Failed to update instance: %v", err)

		return nil, err
	}

	if tag.RowsAffected() == 0 {
		return nil, services.ErrDatabaseItemNotFound
	}

	return r.Find(ctx, id)
}

// Delete removes an instance. Instances still referenced by accounts or
// commands are protected by foreign keys and surface as a business error.
func (r *InstancePostgreSQLRepository) Delete(ctx context.Context, id uuid.UUID) error {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.delete_instance")
	defer span.End()

	query, args, err := squirrel.Delete(r.tableName).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build delete query", err)

		return err
	}

	tag, err := r.connection.Querier(ctx).Exec(ctx, query, args...)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to delete instance", err)

		if postgres.IsForeignKeyViolation(err) {
			return pkg.ValidateBusinessError(constant.ErrInstanceInUse, constant.EntityInstance, id.String())
		}

		logger.Errorf("Failed to delete instance: %v", err)

		return err
	}

	if tag.RowsAffected() == 0 {
		return services.ErrDatabaseItemNotFound
	}

	return nil
}
