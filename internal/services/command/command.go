// Package command implements the Command side of CQRS pattern for the posting core.
//
// This package contains all write operations (commands) for the ledger domain:
//   - Submit operations: Validate and persist caller intent as queued commands
//   - Process operations: Claim queued commands and project them onto the ledger
//   - Posting operations: Apply double-entry transitions to accounts and entries
//   - Instance operations: Manage the tenancy units commands run against
//
// Architecture Pattern: CQRS (Command Query Responsibility Segregation)
//
// The command side is responsible for:
//   - Validating command shape before anything is persisted
//   - Persisting commands atomically with their queue items and idempotency keys
//   - Claiming ready queue items and classifying every processing outcome
//   - Applying balanced entry sets to account balances under optimistic locking
//   - Emitting journal events and fanning them out to downstream consumers
//
// Key Responsibilities:
//   - Command submission with duplicate detection (Redis fast path, Postgres authority)
//   - Account creation and update with immutability checks
//   - Transaction posting through the pending/posted/archived state machine
//   - Balance history maintenance, one snapshot per entry
//   - Context metadata management (MongoDB)
//   - Journal fan-out publishing (River to RabbitMQ)
//
// The UseCase struct aggregates all repositories needed for command operations,
// following the dependency injection pattern. Each command method is a use case
// that orchestrates multiple repository calls and business logic.
//
// Transaction Handling:
//   - Atomic work runs through the TxRunner; repositories join the transaction
//     carried by the context
//   - Each optimistic concurrency attempt is one database transaction
//   - Failures trigger rollback and error propagation
//   - OpenTelemetry spans track operation success/failure
//
// Error Handling:
//   - Business errors are converted using pkg.ValidateBusinessError
//   - Business errors dead-letter the command; everything else retries
//   - All errors are traced via OpenTelemetry spans
package command

import (
	"time"

	"github.com/CroesusLabs/croesus/internal/adapters/mongodb"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/account"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/command"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/entry"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/idempotency"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/instance"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/journal"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/lookup"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/transaction"
	"github.com/CroesusLabs/croesus/internal/adapters/redis"
	"github.com/CroesusLabs/croesus/internal/fanout"
	"github.com/CroesusLabs/croesus/internal/scheduler"
	"github.com/CroesusLabs/croesus/internal/services"
)

// UseCase aggregates all repositories needed for command operations.
//
// This struct follows the dependency injection pattern, where all dependencies
// are injected at construction time. The bootstrap layer instantiates it once
// and shares it between the dispatcher and synchronous callers.
//
// Thread Safety:
//   - UseCase instances are shared across goroutines (queue processors)
//   - Repositories must be thread-safe
//   - No mutable state in UseCase struct
type UseCase struct {
	// InstanceRepo provides an abstraction on top of the instance data source.
	InstanceRepo instance.Repository

	// AccountRepo provides an abstraction on top of the account data source.
	AccountRepo account.Repository

	// TransactionRepo provides an abstraction on top of the transaction data source.
	TransactionRepo transaction.Repository

	// EntryRepo provides an abstraction on top of the entry data source.
	EntryRepo entry.Repository

	// CommandRepo provides an abstraction on top of the command data source.
	CommandRepo command.Repository

	// JournalRepo provides an abstraction on top of the journal event data source.
	JournalRepo journal.Repository

	// LookupRepo provides an abstraction on top of the pending transaction lookup data source.
	LookupRepo lookup.Repository

	// IdempotencyRepo provides an abstraction on top of the idempotency key data source.
	IdempotencyRepo idempotency.Repository

	// MetadataRepo provides an abstraction on top of the metadata data source.
	MetadataRepo mongodb.Repository

	// RedisRepo provides an abstraction on top of the redis consumer.
	RedisRepo redis.RedisRepository

	// Fanout enqueues journal link fan-out jobs inside the work transaction.
	Fanout fanout.Enqueuer

	// Tx runs atomic work; repository calls inside join one database transaction.
	Tx services.TxRunner

	// Policy carries the scheduler retry knobs applied when classifying failures.
	Policy scheduler.Policy

	// OCC carries the optimistic concurrency retry knobs.
	OCC OCCOptions

	// IdempotencyTTL bounds the Redis fast-path reservation. The Postgres key
	// row it fronts never expires.
	IdempotencyTTL time.Duration

	// ProcessorVersion is stamped on queue items claimed by this process.
	ProcessorVersion string
}
