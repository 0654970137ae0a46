package query

import (
	"context"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	"github.com/google/uuid"

	"github.com/CroesusLabs/croesus/pkg"
	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

// queueStatuses is the set of valid queue-item lifecycle states a caller may
// filter by.
var queueStatuses = map[string]struct{}{
	constant.QueueItemPending:    {},
	constant.QueueItemProcessing: {},
	constant.QueueItemProcessed:  {},
	constant.QueueItemFailed:     {},
	constant.QueueItemOCCTimeout: {},
	constant.QueueItemDeadLetter: {},
}

// ListCommandsByQueueStatus retrieves a page of an instance's commands whose
// queue items sit in the given lifecycle state, oldest first. Filtering by
// dead_letter is the operator's review queue for commands that exhausted
// their retries.
func (uc *UseCase) ListCommandsByQueueStatus(ctx context.Context, instanceID uuid.UUID, status string, limit, page int) ([]*mmodel.Command, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.list_commands_by_queue_status")
	defer span.End()

	if _, found := queueStatuses[status]; !found {
		return nil, pkg.ValidateBusinessError(constant.ErrInvalidQueueStatus, constant.EntityCommand, status)
	}

	logger.Infof("Retrieving %s commands for instance %s, limit %d page %d", status, instanceID, limit, page)

	commands, err := uc.CommandRepo.FindAllByQueueStatus(ctx, instanceID, status, limit, page)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to list commands by queue status", err)

		return nil, err
	}

	return commands, nil
}
