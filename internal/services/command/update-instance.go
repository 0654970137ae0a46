package command

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

// UpdateInstance replaces an instance's config. The address is immutable
// because idempotency keys and command routing hang off it.
func (uc *UseCase) UpdateInstance(ctx context.Context, id uuid.UUID, input *mmodel.UpdateInstanceInput) (*mmodel.Instance, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.update_instance")
	defer span.End()

	updated, err := uc.InstanceRepo.Update(ctx, id, &mmodel.Instance{Config: input.Config})
	if err != nil {
		if errors.Is(err, services.ErrDatabaseItemNotFound) {
			return nil, pkg.ValidateBusinessError(constant.ErrInstanceNotFound, constant.EntityInstance, id.String())
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to update instance", err)

		return nil, err
	}

	logger.Infof("Updated instance %s", updated.ID)

	return updated, nil
}
