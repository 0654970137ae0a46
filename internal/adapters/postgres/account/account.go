// Package account provides the PostgreSQL adapter for accounts and their
// balance history. Balance columns are flattened posted/pending pairs plus
// the derived available amount; every write to them goes through a
// lock_version compare-and-set.
package account

import (
	"context"
	"errors"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/CroesusLabs/croesus/internal/adapters/postgres"
	"github.com/CroesusLabs/croesus/internal/services"
	"github.com/CroesusLabs/croesus/pkg"
	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

// Repository provides an interface for operations related to account entities.
type Repository interface {
	Create(ctx context.Context, account *mmodel.Account) (*mmodel.Account, error)
	Find(ctx context.Context, instanceID, id uuid.UUID) (*mmodel.Account, error)
	FindByAddress(ctx context.Context, instanceID uuid.UUID, address string) (*mmodel.Account, error)
	ListByAddresses(ctx context.Context, instanceID uuid.UUID, addresses []string) ([]*mmodel.Account, error)
	FindAll(ctx context.Context, instanceID uuid.UUID, limit, page int) ([]*mmodel.Account, error)
	Update(ctx context.Context, account *mmodel.Account) error
	UpdateBalance(ctx context.Context, account *mmodel.Account) error
	CreateBalanceHistory(ctx context.Context, history *mmodel.BalanceHistoryEntry) error
	UpdateBalanceHistoryByEntry(ctx context.Context, history *mmodel.BalanceHistoryEntry) error
	ListBalanceHistory(ctx context.Context, accountID uuid.UUID, limit, page int) ([]*mmodel.BalanceHistoryEntry, error)
}

var accountColumns = []string{
	"id", "instance_id", "address", "name", "description", "type",
	"normal_balance", "currency", "allowed_negative",
	"posted_amount", "posted_debit", "posted_credit",
	"pending_amount", "pending_debit", "pending_credit",
	"available", "lock_version", "created_at", "updated_at",
}

// AccountPostgreSQLModel represents the entity Account into SQL context in Database
type AccountPostgreSQLModel struct {
	ID              uuid.UUID
	InstanceID      uuid.UUID
	Address         string
	Name            *string
	Description     *string
	Type            string
	NormalBalance   string
	Currency        string
	AllowedNegative bool
	PostedAmount    decimal.Decimal
	PostedDebit     decimal.Decimal
	PostedCredit    decimal.Decimal
	PendingAmount   decimal.Decimal
	PendingDebit    decimal.Decimal
	PendingCredit   decimal.Decimal
	Available       decimal.Decimal
	LockVersion     int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ToEntity converts an AccountPostgreSQLModel to entity Account
func (t *AccountPostgreSQLModel) ToEntity() *mmodel.Account {
	acc := &mmodel.Account{
		ID:              t.ID.String(),
		InstanceID:      t.InstanceID.String(),
		Address:         t.Address,
		Type:            t.Type,
		NormalBalance:   t.NormalBalance,
		Currency:        t.Currency,
		AllowedNegative: t.AllowedNegative,
		Posted: mmodel.Balance{
			Amount: t.PostedAmount,
			Debit:  t.PostedDebit,
			Credit: t.PostedCredit,
		},
		Pending: mmodel.Balance{
			Amount: t.PendingAmount,
			Debit:  t.PendingDebit,
			Credit: t.PendingCredit,
		},
		Available: t.Available,
		Version:   t.LockVersion,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}

	if t.Name != nil {
		acc.Name = *t.Name
	}

	if t.Description != nil {
		acc.Description = *t.Description
	}

	return acc
}

// FromEntity converts an entity Account to AccountPostgreSQLModel
func (t *AccountPostgreSQLModel) FromEntity(account *mmodel.Account) {
	id := libCommons.GenerateUUIDv7()
	if account.ID != "" {
		id = uuid.MustParse(account.ID)
	}

	*t = AccountPostgreSQLModel{
		ID:              id,
		InstanceID:      uuid.MustParse(account.InstanceID),
		Address:         account.Address,
		Type:            account.Type,
		NormalBalance:   account.NormalBalance,
		Currency:        account.Currency,
		AllowedNegative: account.AllowedNegative,
		PostedAmount:    account.Posted.Amount,
		PostedDebit:     account.Posted.Debit,
		PostedCredit:    account.Posted.Credit,
		PendingAmount:   account.Pending.Amount,
		PendingDebit:    account.Pending.Debit,
		PendingCredit:   account.Pending.Credit,
		Available:       account.Available,
		LockVersion:     account.Version,
		CreatedAt:       account.CreatedAt,
		UpdatedAt:       account.UpdatedAt,
	}

	if account.Name != "" {
		t.Name = &account.Name
	}

	if account.Description != "" {
		t.Description = &account.Description
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*AccountPostgreSQLModel, error) {
	record := &AccountPostgreSQLModel{}

	err := row.Scan(
		&record.ID, &record.InstanceID, &record.Address, &record.Name, &record.Description, &record.Type,
		&record.NormalBalance, &record.Currency, &record.AllowedNegative,
		&record.PostedAmount, &record.PostedDebit, &record.PostedCredit,
		&record.PendingAmount, &record.PendingDebit, &record.PendingCredit,
		&record.Available, &record.LockVersion, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return record, nil
}

// AccountPostgreSQLRepository is a Postgres implementation of Repository.
type AccountPostgreSQLRepository struct {
	connection   *postgres.Connection
	tableName    string
	historyTable string
}

// NewAccountPostgreSQLRepository returns a new instance of AccountPostgreSQLRepository using the given Postgres connection.
func NewAccountPostgreSQLRepository(pc *postgres.Connection) *AccountPostgreSQLRepository {
	return &AccountPostgreSQLRepository{
		connection:   pc,
		tableName:    "accounts",
		historyTable: "balance_history_entries",
	}
}

// Create a new account. The unique index on (instance_id, address) turns a
// duplicate into a conflict business error.
func (r *AccountPostgreSQLRepository) Create(ctx context.Context, account *mmodel.Account) (*mmodel.Account, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.create_account")
	defer span.End()

	record := &AccountPostgreSQLModel{}
	record.FromEntity(account)

	query, args, err := squirrel.Insert(r.tableName).
		Columns(accountColumns...).
		Values(
			record.ID, record.InstanceID, record.Address, record.Name, record.Description, record.Type,
			record.NormalBalance, record.Currency, record.AllowedNegative,
			record.PostedAmount, record.PostedDebit, record.PostedCredit,
			record.PendingAmount, record.PendingDebit, record.PendingCredit,
			record.Available, record.LockVersion, record.CreatedAt, record.UpdatedAt,
		).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build insert query", err)

		return nil, err
	}

	if _, err := r.connection.Querier(ctx).Exec(ctx, query, args...); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to insert account", err)

		if postgres.IsUniqueViolation(err) {
			return nil, pkg.ValidateBusinessError(constant.ErrAccountAddressConflict, constant.EntityAccount, record.Address)
		}

		logger.Errorf("Failed to insert account: %v", err)

		return nil, err
	}

	return record.ToEntity(), nil
}

// Find retrieves an account by id within an instance.
func (r *AccountPostgreSQLRepository) Find(ctx context.Context, instanceID, id uuid.UUID) (*mmodel.Account, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.find_account")
	defer span.End()

	query, args, err := squirrel.Select(accountColumns...).
		From(r.tableName).
		Where(squirrel.Eq{"instance_id": instanceID, "id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build select query", err)

		return nil, err
	}

	record, err := scanAccount(r.connection.Querier(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to scan account", err)

		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrDatabaseItemNotFound
		}

		return nil, err
	}

	return record.ToEntity(), nil
}

// FindByAddress retrieves an account by its address within an instance.
func (r *AccountPostgreSQLRepository) FindByAddress(ctx context.Context, instanceID uuid.UUID, address string) (*mmodel.Account, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.find_account_by_address")
	defer span.End()

	query, args, err := squirrel.Select(accountColumns...).
		From(r.tableName).
		Where(squirrel.Eq{"instance_id": instanceID, "address": address}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build select query", err)

		return nil, err
	}

	record, err := scanAccount(r.connection.Querier(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to scan account", err)

		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrDatabaseItemNotFound
		}

		return nil, err
	}

	return record.ToEntity(), nil
}

// ListByAddresses retrieves the accounts whose addresses appear in the given
// set. Missing addresses are simply absent from the result; callers decide
// whether that is an error.
func (r *AccountPostgreSQLRepository) ListByAddresses(ctx context.Context, instanceID uuid.UUID, addresses []string) ([]*mmodel.Account, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.list_accounts_by_addresses")
	defer span.End()

	query, args, err := squirrel.Select(accountColumns...).
		From(r.tableName).
		Where(squirrel.Eq{"instance_id": instanceID, "address": addresses}).
		OrderBy("address").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build select query", err)

		return nil, err
	}

	rows, err := r.connection.Querier(ctx).Query(ctx, query, args...)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to query accounts", err)

		return nil, err
	}
	defer rows.Close()

	var accounts []*mmodel.Account

	for rows.Next() {
		record, err := scanAccount(rows)
		if err != nil {
			libOpentelemetry.HandleSpanError(&span, "Failed to scan account", err)

			return nil, err
		}

		accounts = append(accounts, record.ToEntity())
	}

	if err := rows.Err(); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to iterate accounts", err)

		return nil, err
	}

	return accounts, nil
}

// FindAll retrieves accounts of an instance ordered by creation time,
// newest first.
func (r *AccountPostgreSQLRepository) FindAll(ctx context.Context, instanceID uuid.UUID, limit, page int) ([]*mmodel.Account, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.find_all_accounts")
	defer span.End()

	query, args, err := squirrel.Select(accountColumns...).
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
		libOpentelemetry.HandleSpanError(&span, "Failed to query accounts", err)

		return nil, err
	}
	defer rows.Close()

	var accounts []*mmodel.Account

	for rows.Next() {
		record, err := scanAccount(rows)
		if err != nil {
			libOpentelemetry.HandleSpanError(&span, "Failed to scan account", err)

			return nil, err
		}

		accounts = append(accounts, record.ToEntity())
	}

	if err := rows.Err(); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to iterate accounts", err)

		return nil, err
	}

	return accounts, nil
}

// Update writes the mutable account fields guarded by the lock_version
// compare-and-set. account.Version carries the version the caller read; a
// zero row match returns ErrStaleVersion for the OCC engine to handle.
func (r *AccountPostgreSQLRepository) Update(ctx context.Context, account *mmodel.Account) error {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.update_account")
	defer span.End()

	var name, description *string
	if account.Name != "" {
		name = &account.Name
	}

	if account.Description != "" {
		description = &account.Description
	}

	query, args, err := squirrel.Update(r.tableName).
		Set("name", name).
		Set("description", description).
		Set("allowed_negative", account.AllowedNegative).
		Set("lock_version", squirrel.Expr("lock_version + 1")).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{
			"id":           uuid.MustParse(account.ID),
			"lock_version": account.Version,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build update query", err)

		return err
	}

	tag, err := r.connection.Querier(ctx).Exec(ctx, query, args...)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to update account", err)

		logger.Errorf("Failed to update account: %v", err)

		return err
	}

	if tag.RowsAffected() == 0 {
		return constant.ErrStaleVersion
	}

	return nil
}

// UpdateBalance writes the posted and pending balances plus the derived
// available amount, guarded by the lock_version compare-and-set. A zero row
// match returns ErrStaleVersion for the OCC engine to handle.
func (r *AccountPostgreSQLRepository) UpdateBalance(ctx context.Context, account *mmodel.Account) error {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.update_account_balance")
	defer span.End()

	query, args, err := squirrel.Update(r.tableName).
		Set("posted_amount", account.Posted.Amount).
		Set("posted_debit", account.Posted.Debit).
		Set("posted_credit", account.Posted.Credit).
		Set("pending_amount", account.Pending.Amount).
		Set("pending_debit", account.Pending.Debit).
		Set("pending_credit", account.Pending.Credit).
		Set("available", account.Available).
		Set("lock_version", squirrel.Expr("lock_version + 1")).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{
			"id":           uuid.MustParse(account.ID),
			"lock_version": account.Version,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build update query", err)

		return err
	}

	tag, err := r.connection.Querier(ctx).Exec(ctx, query, args...)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to update account balance", err)

		logger.Errorf("Failed to update account balance: %v", err)

		return err
	}

	if tag.RowsAffected() == 0 {
		return constant.ErrStaleVersion
	}

	return nil
}

// CreateBalanceHistory inserts the balance snapshot taken right after an
// entry was applied to its account.
func (r *AccountPostgreSQLRepository) CreateBalanceHistory(ctx context.Context, history *mmodel.BalanceHistoryEntry) error {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.create_balance_history")
	defer span.End()

	id := libCommons.GenerateUUIDv7()
	if history.ID != "" {
		id = uuid.MustParse(history.ID)
	} else {
		history.ID = id.String()
	}

	query, args, err := squirrel.Insert(r.historyTable).
		Columns(
			"id", "account_id", "entry_id",
			"posted_amount", "posted_debit", "posted_credit",
			"pending_amount", "pending_debit", "pending_credit",
			"available", "created_at",
		).
		Values(
			id, uuid.MustParse(history.AccountID), uuid.MustParse(history.EntryID),
			history.Posted.Amount, history.Posted.Debit, history.Posted.Credit,
			history.Pending.Amount, history.Pending.Debit, history.Pending.Credit,
			history.Available, history.CreatedAt,
		).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build insert query", err)

		return err
	}

	if _, err := r.connection.Querier(ctx).Exec(ctx, query, args...); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to insert balance history", err)

		return err
	}

	return nil
}

// UpdateBalanceHistoryByEntry rewrites the snapshot attached to an entry.
// Used when a pending transaction edit re-applies an entry in place, so the
// one-snapshot-per-entry shape holds.
func (r *AccountPostgreSQLRepository) UpdateBalanceHistoryByEntry(ctx context.Context, history *mmodel.BalanceHistoryEntry) error {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.update_balance_history")
	defer span.End()

	query, args, err := squirrel.Update(r.historyTable).
		Set("account_id", uuid.MustParse(history.AccountID)).
		Set("posted_amount", history.Posted.Amount).
		Set("posted_debit", history.Posted.Debit).
		Set("posted_credit", history.Posted.Credit).
		Set("pending_amount", history.Pending.Amount).
		Set("pending_debit", history.Pending.Debit).
		Set("pending_credit", history.Pending.Credit).
		Set("available", history.Available).
		Set("created_at", history.CreatedAt).
		Where(squirrel.Eq{"entry_id": uuid.MustParse(history.EntryID)}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to build update query", err)

		return err
	}

	tag, err := r.connection.Querier(ctx).Exec(ctx, query, args...)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to update balance history", err)

		return err
	}

	if tag.RowsAffected() == 0 {
		return services.ErrDatabaseItemNotFound
	}

	return nil
}

// ListBalanceHistory retrieves an account's balance snapshots, newest first.
func (r *AccountPostgreSQLRepository) ListBalanceHistory(ctx context.Context, accountID uuid.UUID, limit, page int) ([]*mmodel.BalanceHistoryEntry, error) {
	_, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "postgres.list_balance_history")
	defer span.End()

	query, args, err := squirrel.Select(
		"id", "account_id", "entry_id",
		"posted_amount", "posted_debit", "posted_credit",
		"pending_amount", "pending_debit", "pending_credit",
		"available", "created_at",
	).
		From(r.historyTable).
		Where(squirrel.Eq{"account_id": accountID}).
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
		libOpentelemetry.HandleSpanError(&span, "Failed to query balance history", err)

		return nil, err
	}
	defer rows.Close()

	var history []*mmodel.BalanceHistoryEntry

	for rows.Next() {
		var (
			id, accID, entryID uuid.UUID
			h                  mmodel.BalanceHistoryEntry
		)

		err := rows.Scan(
			&id, &accID, &entryID,
			&h.Posted.Amount, &h.Posted.Debit, &h.Posted.Credit,
			&h.Pending.Amount, &h.Pending.Debit, &h.Pending.Credit,
			&h.Available, &h.CreatedAt,
		)
		if err != nil {
			libOpentelemetry.HandleSpanError(&span, "Failed to scan balance history", err)

			return nil, err
		}

		h.ID = id.String()
		h.AccountID = accID.String()
		h.EntryID = entryID.String()

		history = append(history, &h)
	}

	if err := rows.Err(); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to iterate balance history", err)

		return nil, err
	}

	return history, nil
}
