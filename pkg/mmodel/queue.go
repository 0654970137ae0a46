package mmodel

import (
	"time"
)

// CommandQueueItem is the mutable lifecycle partner of a Command, one to
// one. Status moves through the scheduler state machine; lock_version
// protects the claim compare-and-set.
type CommandQueueItem struct {
	ID                    string       `json:"id"`
	CommandID             string       `json:"command_id"`
	Status                string       `json:"status"`
	ProcessorID           *string      `json:"processor_id,omitempty"`
	ProcessorVersion      *string      `json:"processor_version,omitempty"`
	ProcessingStartedAt   *time.Time   `json:"processing_started_at,omitempty"`
	ProcessingCompletedAt *time.Time   `json:"processing_completed_at,omitempty"`
	RetryCount            int          `json:"retry_count"`
	OCCRetryCount         int          `json:"occ_retry_count"`
	NextRetryAfter        *time.Time   `json:"next_retry_after,omitempty"`
	Errors                []QueueError `json:"errors,omitempty"`
	Version               int64        `json:"version"`
	CreatedAt             time.Time    `json:"created_at"`
	UpdatedAt             time.Time    `json:"updated_at"`
}

// QueueError is one diagnostic accumulated on a queue item.
type QueueError struct {
	Message    string    `json:"message"`
	InsertedAt time.Time `json:"inserted_at"`
}

// PrependError records a diagnostic, most recent first.
func (q *CommandQueueItem) PrependError(message string, at time.Time) {
	q.Errors = append([]QueueError{{Message: message, InsertedAt: at}}, q.Errors...)
}
