// Package postgres carries the relational persistence layer: the pgx
// connection pool, the transaction manager that threads a transaction
// through context, and the embedded schema migrations.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	// Registers the database/sql driver the migration runner uses.
	_ "github.com/lib/pq"

	"github.com/CroesusLabs/croesus/pkg/constant"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Connection wraps the pgx pool plus the schema the core operates in.
type Connection struct {
	Pool   *pgxpool.Pool
	DSN    string
	Schema string
}

// NewConnection opens and pings a pool against dsn. When schema is non
// empty, every session runs with search_path pinned to it; that is how the
// storage namespace option is implemented.
func NewConnection(ctx context.Context, dsn, schema string) (*Connection, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}

	if schema != "" {
		cfg.ConnConfig.RuntimeParams["search_path"] = schema
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())

		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return &Connection{Pool: pool, DSN: dsn, Schema: schema}, nil
}

// Querier is the query surface repositories run against, satisfied by both
// the pool and an in-flight transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Querier returns the in-flight transaction when the context carries one,
// the pool otherwise.
func (c *Connection) Querier(ctx context.Context) Querier {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}

	return c.Pool
}

// RunMigrations applies the embedded migrations. The runner holds a single
// database/sql connection so the search_path set for the storage namespace
// sticks for every statement.
func (c *Connection) RunMigrations(ctx context.Context) error {
	logger, _, _, _ := libCommons.NewTrackingFromContext(ctx)

	db, err := sql.Open("postgres", c.DSN)
	if err != nil {
		return fmt.Errorf("opening migration connection: %w", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(1)

	if c.Schema != "" {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %q", c.Schema)); err != nil {
			return fmt.Errorf("creating schema %s: %w", c.Schema, err)
		}

		if _, err := db.ExecContext(ctx, fmt.Sprintf("SET search_path TO %q", c.Schema)); err != nil {
			return fmt.Errorf("setting search_path to %s: %w", c.Schema, err)
		}
	}

	driver, err := migratepostgres.WithInstance(db, &migratepostgres.Config{SchemaName: c.Schema})
	if err != nil {
		return fmt.Errorf("preparing migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("preparing migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}

	logger.Info("Postgres migrations applied")

	return nil
}

type txKey struct{}

// TxManager begins transactions and threads them through context so every
// repository call inside WithinTx joins the same transaction.
type TxManager struct {
	pool *pgxpool.Pool
}

func NewTxManager(conn *Connection) *TxManager {
	return &TxManager{pool: conn.Pool}
}

// WithinTx runs fn inside a single database transaction, committing when fn
// returns nil and rolling back otherwise. Nested calls join the transaction
// already carried by the context.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback(ctx)

		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// TxFromContext returns the transaction begun by WithinTx, or nil.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)

	return tx
}

// IsUniqueViolation reports whether err is a unique index violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == constant.UniqueViolationCode
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == constant.ForeignKeyViolationCode
}

// IsTransient reports whether err is a connection class, deadlock or
// serialization failure a later retry may clear.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	return strings.HasPrefix(pgErr.Code, constant.ConnectionExceptionClass) ||
		pgErr.Code == constant.DeadlockDetectedCode ||
		pgErr.Code == constant.SerializationFailureCode
}
