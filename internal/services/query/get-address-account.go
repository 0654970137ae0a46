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

// GetAccountByAddress retrieves an account by its ledger address, including
// the context metadata stored alongside it. Addresses are how callers name
// accounts in commands, so this is the primary account read.
func (uc *UseCase) GetAccountByAddress(ctx context.Context, instanceID uuid.UUID, address string) (*mmodel.Account, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.get_account_by_address")
	defer span.End()

	logger.Infof("Retrieving account at address %s", address)

	account, err := uc.AccountRepo.FindByAddress(ctx, instanceID, address)
	if err != nil {
		if errors.Is(err, services.ErrDatabaseItemNotFound) {
			return nil, pkg.ValidateBusinessError(constant.ErrAccountNotFound, constant.EntityAccount, address)
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to find account by address", err)

		return nil, err
	}

	if err := uc.attachAccountContext(ctx, account); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to retrieve account metadata", err)

		return nil, err
	}

	return account, nil
}
