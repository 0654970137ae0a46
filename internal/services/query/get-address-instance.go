package query

import (
	"context"
	"errors"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"

	"github.com/CroesusLabs/croesus/internal/services"
	"github.com/CroesusLabs/croesus/pkg"
	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

// GetInstanceByAddress resolves an instance by its routing address. This is
// the same resolution the submission path performs on every command.
func (uc *UseCase) GetInstanceByAddress(ctx context.Context, address string) (*mmodel.Instance, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.get_instance_by_address")
	defer span.End()

	logger.Infof("Retrieving instance at address %s", address)

	instance, err := uc.InstanceRepo.FindByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, services.ErrDatabaseItemNotFound) {
			return nil, pkg.ValidateBusinessError(constant.ErrInstanceNotFound, constant.EntityInstance, address)
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to find instance by address", err)

		return nil, err
	}

	return instance, nil
}
