package mmodel

import (
	"time"
)

// JournalEvent is a struct designed to store the immutable audit record of a
// successfully projected command. The command map is snapshotted at emission
// time. Links is a read-side projection; the write side persists link rows
// separately.
type JournalEvent struct {
	ID         string        `json:"id"`
	InstanceID string        `json:"instance_id"`
	CommandMap CommandMap    `json:"command_map"`
	Links      *JournalLinks `json:"links,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// JournalLinks carries the link rows of one journal event: always a command,
// and exactly one of transaction or account.
type JournalLinks struct {
	JournalEventID string `json:"journal_event_id"`
	CommandID      string `json:"command_id"`
	TransactionID  string `json:"transaction_id,omitempty"`
	AccountID      string `json:"account_id,omitempty"`
}

// JournalLinkMessage is the fan-out wire message published to downstream
// consumers after a journal event commits.
type JournalLinkMessage struct {
	JournalEventID string    `json:"journal_event_id"`
	InstanceID     string    `json:"instance_id"`
	CommandID      string    `json:"command_id"`
	TransactionID  string    `json:"transaction_id,omitempty"`
	AccountID      string    `json:"account_id,omitempty"`
	Action         string    `json:"action"`
	OccurredAt     time.Time `json:"occurred_at"`
}
