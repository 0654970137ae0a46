package constant

// Command actions accepted at the submission boundary.
const (
	ActionCreateAccount     = "create_account"
	ActionUpdateAccount     = "update_account"
	ActionCreateTransaction = "create_transaction"
	ActionUpdateTransaction = "update_transaction"
)

// Queue item lifecycle statuses.
const (
	QueueItemPending    = "pending"
	QueueItemProcessing = "processing"
	QueueItemProcessed  = "processed"
	QueueItemFailed     = "failed"
	QueueItemOCCTimeout = "occ_timeout"
	QueueItemDeadLetter = "dead_letter"
)

// Transaction statuses.
const (
	TransactionPending  = "pending"
	TransactionPosted   = "posted"
	TransactionArchived = "archived"
)

// Entry types and account normal balances.
const (
	DebitEntry  = "debit"
	CreditEntry = "credit"

	NormalBalanceDebit  = "debit"
	NormalBalanceCredit = "credit"
)

// Account types.
const (
	AccountTypeAsset     = "asset"
	AccountTypeLiability = "liability"
	AccountTypeEquity    = "equity"
	AccountTypeRevenue   = "revenue"
	AccountTypeExpense   = "expense"
)

// Entity names used for metadata storage and business error payloads.
const (
	EntityInstance     = "Instance"
	EntityAccount      = "Account"
	EntityTransaction  = "Transaction"
	EntityCommand      = "Command"
	EntityJournalEvent = "JournalEvent"
)

// DefaultProcessorName prefixes processor identities recorded on claimed
// queue items.
const DefaultProcessorName = "event_queue"
