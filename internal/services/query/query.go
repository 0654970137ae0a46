// Package query implements the Query side of CQRS pattern for the posting core.
//
// This package contains all read operations (queries) for the ledger domain:
//   - Instance queries: Resolve tenants by id or address, list them
//   - Account queries: Balances with context metadata, balance history
//   - Transaction queries: Status and entries of posted work
//   - Command queries: The write-ahead log with queue-item lifecycle state
//   - Journal queries: Audit events with their entity links
//
// The query side never mutates ledger state. It reads the projections the
// command side maintains, enriches them with the MongoDB context metadata
// the write path stores out of band, and translates repository misses into
// the business not-found errors callers expect.
//
// Read Consistency:
//   - Queries read committed state only; an in-flight command transaction
//     is invisible until its claim completes
//   - Context metadata lands after the work transaction commits, so a
//     freshly projected entity may briefly read without its context
//
// The UseCase struct aggregates all repositories needed for query
// operations, following the dependency injection pattern. The bootstrap
// layer instantiates it once next to the command-side UseCase.
package query

import (
	"github.com/CroesusLabs/croesus/internal/adapters/mongodb"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/account"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/command"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/entry"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/instance"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/journal"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/transaction"
)

// UseCase aggregates all repositories needed for query operations.
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

	// MetadataRepo provides an abstraction on top of the metadata data source.
	MetadataRepo mongodb.Repository
}
