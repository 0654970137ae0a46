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
)

// DeleteInstance removes an empty ledger tenant. Foreign keys protect
// instances that still own accounts, transactions or commands.
func (uc *UseCase) DeleteInstance(ctx context.Context, id uuid.UUID) error {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.delete_instance")
	defer span.End()

	if err := uc.InstanceRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, services.ErrDatabaseItemNotFound) {
			return pkg.ValidateBusinessError(constant.ErrInstanceNotFound, constant.EntityInstance, id.String())
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to delete instance", err)

		return err
	}

	logger.Infof("Deleted instance %s", id)

	return nil
}
