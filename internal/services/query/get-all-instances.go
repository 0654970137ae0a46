package query

import (
	"context"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"

	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

// ListInstances retrieves a page of instances ordered by creation time,
// newest first.
func (uc *UseCase) ListInstances(ctx context.Context, limit, page int) ([]*mmodel.Instance, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.list_instances")
	defer span.End()

	logger.Infof("Retrieving instances, limit %d page %d", limit, page)

	instances, err := uc.InstanceRepo.FindAll(ctx, limit, page)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to list instances", err)

		return nil, err
	}

	return instances, nil
}
