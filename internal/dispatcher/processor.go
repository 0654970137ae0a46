package dispatcher

import (
	"context"
	"fmt"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	"github.com/google/uuid"
)

// Processor drains one instance's ready queue items and retires when none
// remain. "Process next" signals arriving while it runs coalesce into at
// most one extra drain pass.
type Processor struct {
	driver      Driver
	registry    *Registry
	instanceID  uuid.UUID
	processorID string
	options     Options

	// wake is 1-buffered; Wake never blocks and reentrant signals collapse.
	wake chan struct{}
}

func newProcessor(driver Driver, registry *Registry, instanceID uuid.UUID, options Options) *Processor {
	return &Processor{
		driver:      driver,
		registry:    registry,
		instanceID:  instanceID,
		processorID: fmt.Sprintf("%s:%s:%s", options.ProcessorName, instanceID, libCommons.GenerateUUIDv7()),
		options:     options,
		wake:        make(chan struct{}, 1),
	}
}

// Wake signals the processor that new work may be ready. Signals landing
// while a drain pass runs coalesce; a signal lost to a processor that just
// retired is recovered by the next monitor poll.
func (p *Processor) Wake() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// run drains until no ready work remains and no wake is pending, then
// releases the registry slot. Shutdown is honored between commands only;
// the in-flight command finishes on its own timeout.
func (p *Processor) run(ctx context.Context) {
	logger, _, _, _ := libCommons.NewTrackingFromContext(ctx)

	defer func() {
		p.registry.release(p.instanceID, p)

		logger.Infof("Processor %s retired", p.processorID)
	}()

	logger.Infof("Processor %s started for instance %s", p.processorID, p.instanceID)

	for {
		p.drain(ctx)

		select {
		case <-p.wake:
		case <-ctx.Done():
			return
		default:
			return
		}
	}
}

// drain processes ready commands oldest first until the queue is empty, an
// infrastructure error interrupts, or shutdown begins. Each command runs on
// a context detached from cancellation so a shutdown mid-command never
// aborts its database transaction.
func (p *Processor) drain(ctx context.Context) {
	logger, _, _, _ := libCommons.NewTrackingFromContext(ctx)

	for {
		if ctx.Err() != nil {
			return
		}

		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.options.CommandTimeout)
		more, err := p.driver.ProcessNext(runCtx, p.instanceID, p.processorID)

		cancel()

		if err != nil {
			logger.Errorf("Processor %s stopping after error: %v", p.processorID, err)

			return
		}

		if !more {
			return
		}
	}
}
