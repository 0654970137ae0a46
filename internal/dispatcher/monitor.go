package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	"github.com/google/uuid"

	"github.com/CroesusLabs/croesus/internal/adapters/postgres/command"
)

// Monitor is the single long-lived dispatch loop. Each poll cycle it sweeps
// stalled claims back to pending, lists the instances with ready queue
// items, and ensures each has exactly one live processor.
type Monitor struct {
	commandRepo command.Repository
	driver      Driver
	registry    *Registry
	options     Options

	wg sync.WaitGroup
}

// NewMonitor returns a new instance of Monitor using the given command repository and driver.
func NewMonitor(commandRepo command.Repository, driver Driver, options Options) *Monitor {
	return &Monitor{
		commandRepo: commandRepo,
		driver:      driver,
		registry:    &Registry{},
		options:     options.withDefaults(),
	}
}

// Run polls until the context is canceled, then waits for live processors
// to finish their in-flight commands before returning.
func (m *Monitor) Run(ctx context.Context) error {
	logger, _, _, _ := libCommons.NewTrackingFromContext(ctx)

	logger.Infof("Dispatch monitor started, polling every %s", m.options.PollInterval)

	ticker := time.NewTicker(m.options.PollInterval)
	defer ticker.Stop()

	for {
		m.poll(ctx)

		select {
		case <-ctx.Done():
			logger.Infof("Dispatch monitor stopping, waiting for processors to finish")

			m.wg.Wait()

			return nil
		case <-ticker.C:
		}
	}
}

// poll runs one monitor cycle. Infrastructure errors are logged and the
// cycle abandoned; the next tick retries from scratch.
func (m *Monitor) poll(ctx context.Context) {
	logger, _, _, _ := libCommons.NewTrackingFromContext(ctx)

	now := time.Now().UTC()

	m.sweepStalled(ctx, now)

	instanceIDs, err := m.commandRepo.InstancesWithReadyWork(ctx, now)
	if err != nil {
		logger.Errorf("Failed to list instances with ready work: %v", err)

		return
	}

	for _, instanceID := range instanceIDs {
		m.dispatch(ctx, instanceID)
	}
}

// dispatch ensures the instance has a live processor, waking it when one
// already runs.
func (m *Monitor) dispatch(ctx context.Context, instanceID uuid.UUID) {
	processor, started := m.registry.Ensure(instanceID, func() *Processor {
		return newProcessor(m.driver, m.registry, instanceID, m.options)
	})

	if !started {
		processor.Wake()

		return
	}

	m.wg.Add(1)

	go func() {
		defer m.wg.Done()

		processor.run(ctx)
	}()
}

// sweepStalled reverts queue items stuck in processing past the stall
// threshold, releasing claims whose processor died mid-flight.
func (m *Monitor) sweepStalled(ctx context.Context, now time.Time) {
	logger, _, _, _ := libCommons.NewTrackingFromContext(ctx)

	message := fmt.Sprintf("Processing stalled for more than %s, reverted to pending", m.options.StallThreshold)

	reverted, err := m.commandRepo.RevertStalled(ctx, now.Add(-m.options.StallThreshold), message)
	if err != nil {
		logger.Errorf("Failed to sweep stalled queue items: %v", err)

		return
	}

	if reverted > 0 {
		logger.Warnf("Reverted %d stalled queue items to pending", reverted)
	}
}
