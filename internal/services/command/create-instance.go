package command

import (
	"context"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"

	"github.com/CroesusLabs/croesus/pkg"
	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

// CreateInstance provisions a new ledger tenant. Instances are managed
// directly, not through the command queue; an instance must exist before
// any command can address it.
func (uc *UseCase) CreateInstance(ctx context.Context, input *mmodel.CreateInstanceInput) (*mmodel.Instance, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.create_instance")
	defer span.End()

	if err := pkg.ValidatePayloadStruct(input, constant.EntityInstance); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	instance := &mmodel.Instance{
		ID:        libCommons.GenerateUUIDv7().String(),
		Address:   input.Address,
		Config:    input.Config,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := uc.InstanceRepo.Create(ctx, instance)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to create instance", err)

		return nil, err
	}

	logger.Infof("Created instance %s at address %s", created.ID, created.Address)

	return created, nil
}
