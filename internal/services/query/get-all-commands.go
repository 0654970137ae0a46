package query

import (
	"context"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	"github.com/google/uuid"

	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

// ListCommands retrieves a page of an instance's commands with their queue
// items, oldest first, matching processing order.
func (uc *UseCase) ListCommands(ctx context.Context, instanceID uuid.UUID, limit, page int) ([]*mmodel.Command, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.list_commands")
	defer span.End()

	logger.Infof("Retrieving commands for instance %s, limit %d page %d", instanceID, limit, page)

	commands, err := uc.CommandRepo.FindAll(ctx, instanceID, limit, page)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to list commands", err)

		return nil, err
	}

	return commands, nil
}
