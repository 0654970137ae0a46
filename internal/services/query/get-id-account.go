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

// GetAccountByID retrieves an account by its identifier, including the
// context metadata stored alongside it.
func (uc *UseCase) GetAccountByID(ctx context.Context, instanceID, id uuid.UUID) (*mmodel.Account, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.get_account_by_id")
	defer span.End()

	logger.Infof("Retrieving account %s", id)

	account, err := uc.AccountRepo.Find(ctx, instanceID, id)
	if err != nil {
		if errors.Is(err, services.ErrDatabaseItemNotFound) {
			return nil, pkg.ValidateBusinessError(constant.ErrAccountNotFound, constant.EntityAccount, id.String())
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to find account", err)

		return nil, err
	}

	if err := uc.attachAccountContext(ctx, account); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to retrieve account metadata", err)

		return nil, err
	}

	return account, nil
}

// attachAccountContext loads the context metadata of one account. A missing
// document is fine; accounts without context read back with none.
func (uc *UseCase) attachAccountContext(ctx context.Context, account *mmodel.Account) error {
	metadata, err := uc.MetadataRepo.FindByEntity(ctx, constant.EntityAccount, account.ID)
	if err != nil {
		return err
	}

	if metadata != nil {
		account.Context = metadata.Data
	}

	return nil
}
