package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	"github.com/google/uuid"

	"github.com/CroesusLabs/croesus/pkg/constant"
)

// OCCOptions carries the optimistic concurrency retry knobs, threaded from
// configuration at start-up.
type OCCOptions struct {
	MaxRetries   int
	BaseInterval time.Duration

	// Sleep waits out the backoff between attempts. Tests override it; nil
	// uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (o OCCOptions) sleep(ctx context.Context, d time.Duration) error {
	if o.Sleep != nil {
		return o.Sleep(ctx, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// runWithOCC retries work against stale version conflicts. Each attempt runs
// in its own database transaction, so a conflicting attempt rolls back
// cleanly before the next one. Conflicts are recorded on the queue item
// outside the work transaction and the wait between attempts grows linearly.
// Exhausting the attempts returns ErrOCCTimeout.
func (uc *UseCase) runWithOCC(ctx context.Context, queueItemID uuid.UUID, work func(ctx context.Context) error) error {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.run_with_occ")
	defer span.End()

	for attempt := 1; ; attempt++ {
		if attempt > uc.OCC.MaxRetries {
			return constant.ErrOCCTimeout
		}

		err := uc.Tx.WithinTx(ctx, work)
		if err == nil {
			return nil
		}

		if !errors.Is(err, constant.ErrStaleVersion) {
			return err
		}

		message := fmt.Sprintf("OCC conflict detected, retrying in the background. %d attempts left", uc.OCC.MaxRetries-attempt)

		if appendErr := uc.CommandRepo.AppendOCCConflict(ctx, queueItemID, message); appendErr != nil {
			logger.Warnf("Failed to record occ conflict on queue item %s: %v", queueItemID, appendErr)
		}

		if sleepErr := uc.OCC.sleep(ctx, time.Duration(attempt)*uc.OCC.BaseInterval); sleepErr != nil {
			return sleepErr
		}
	}
}
