package query

import (
	"context"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	"github.com/google/uuid"

	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

// ListAccounts retrieves a page of an instance's accounts with their context
// metadata merged in. The metadata store is read once for the whole page.
func (uc *UseCase) ListAccounts(ctx context.Context, instanceID uuid.UUID, limit, page int) ([]*mmodel.Account, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.list_accounts")
	defer span.End()

	logger.Infof("Retrieving accounts for instance %s, limit %d page %d", instanceID, limit, page)

	accounts, err := uc.AccountRepo.FindAll(ctx, instanceID, limit, page)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to list accounts", err)

		return nil, err
	}

	if len(accounts) == 0 {
		return accounts, nil
	}

	ids := make([]string, len(accounts))
	for i, account := range accounts {
		ids[i] = account.ID
	}

	metadata, err := uc.MetadataRepo.FindList(ctx, constant.EntityAccount, ids)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to retrieve account metadata", err)

		return nil, err
	}

	contextByID := make(map[string]map[string]any, len(metadata))
	for _, meta := range metadata {
		contextByID[meta.EntityID] = meta.Data
	}

	for _, account := range accounts {
		if data, found := contextByID[account.ID]; found {
			account.Context = data
		}
	}

	return accounts, nil
}
