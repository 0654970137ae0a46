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

// GetCommandByID retrieves a command with its queue item, so callers can
// inspect lifecycle state and accumulated processing errors.
func (uc *UseCase) GetCommandByID(ctx context.Context, instanceID, id uuid.UUID) (*mmodel.Command, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.get_command_by_id")
	defer span.End()

	logger.Infof("Retrieving command %s", id)

	command, err := uc.CommandRepo.Find(ctx, instanceID, id)
	if err != nil {
		if errors.Is(err, services.ErrDatabaseItemNotFound) {
			return nil, pkg.ValidateBusinessError(constant.ErrCommandNotFound, constant.EntityCommand, id.String())
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to find command", err)

		return nil, err
	}

	return command, nil
}
