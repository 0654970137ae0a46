package mmodel

import (
	"time"
)

// PendingTransactionLookup lets an update command locate the still-pending
// transaction created under the same source key without scanning the command
// log. The row exists only while the transaction is pending.
type PendingTransactionLookup struct {
	InstanceID     string    `json:"instance_id"`
	Source         string    `json:"source"`
	SourceIdemPK   string    `json:"source_idempk"`
	CommandID      string    `json:"command_id"`
	TransactionID  string    `json:"transaction_id"`
	JournalEventID string    `json:"journal_event_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// IdempotencyKey pins a command identity hash per instance. The unique index
// over (instance_id, key_hash) is the authoritative duplicate guard.
type IdempotencyKey struct {
	InstanceID string    `json:"instance_id"`
	KeyHash    string    `json:"key_hash"`
	CommandID  string    `json:"command_id"`
	CreatedAt  time.Time `json:"created_at"`
}
