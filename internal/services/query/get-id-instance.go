package query

import (
	"context"
	"errors"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	"github.com/google/uuid"

	"github.com/CroesusLabs/croesus/internal/services"
	"github.com/CroesusLabs/croesus/pkg"
	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

// GetInstanceByID retrieves an instance by its identifier.
func (uc *UseCase) GetInstanceByID(ctx context.Context, id uuid.UUID) (*mmodel.Instance, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.get_instance_by_id")
	defer span.End()

	logger.Infof("Retrieving instance %s", id)

	instance, err := uc.InstanceRepo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrDatabaseItemNotFound) {
			return nil, pkg.ValidateBusinessError(constant.ErrInstanceNotFound, constant.EntityInstance, id.String())
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to find instance", err)

		return nil, err
	}

	return instance, nil
}
