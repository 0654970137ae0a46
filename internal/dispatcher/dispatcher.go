// Package dispatcher drives command processing: a single Monitor polls for
// instances with ready queue items and keeps exactly one Processor per
// instance draining them. Uniqueness per node is enforced by the Registry;
// cross-node safety comes from the queue-item claim, so a second node
// running the same Monitor is wasteful but never incorrect.
package dispatcher

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/CroesusLabs/croesus/pkg/constant"
)

// Driver is the slice of the command side the dispatcher drives. The
// command UseCase implements it.
type Driver interface {
	ProcessNext(ctx context.Context, instanceID uuid.UUID, processorID string) (bool, error)
}

// Options carries the dispatcher knobs, threaded from configuration at
// start-up.
type Options struct {
	// PollInterval is the monitor polling period.
	PollInterval time.Duration

	// StallThreshold is how long a queue item may sit in processing before
	// the sweep reverts it to pending.
	StallThreshold time.Duration

	// CommandTimeout bounds one command's processing, covering all its
	// optimistic concurrency attempts.
	CommandTimeout time.Duration

	// ProcessorName prefixes the processor identities recorded on claimed
	// queue items.
	ProcessorName string
}

// DefaultOptions returns the stock dispatcher knobs.
func DefaultOptions() Options {
	return Options{
		PollInterval:   5 * time.Second,
		StallThreshold: 5 * time.Minute,
		CommandTimeout: 60 * time.Second,
		ProcessorName:  constant.DefaultProcessorName,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()

	if o.PollInterval <= 0 {
		o.PollInterval = def.PollInterval
	}

	if o.StallThreshold <= 0 {
		o.StallThreshold = def.StallThreshold
	}

	if o.CommandTimeout <= 0 {
		o.CommandTimeout = def.CommandTimeout
	}

	if o.ProcessorName == "" {
		o.ProcessorName = def.ProcessorName
	}

	return o
}
