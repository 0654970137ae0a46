package query

import (
	"context"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	"github.com/google/uuid"

	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

// ListTransactions retrieves a page of an instance's transactions with
// context metadata merged in. Entries are not loaded here; GetTransactionByID
// carries the full entry set.
func (uc *UseCase) ListTransactions(ctx context.Context, instanceID uuid.UUID, limit, page int) ([]*mmodel.Transaction, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.list_transactions")
	defer span.End()

	logger.Infof("Retrieving transactions for instance %s, limit %d page %d", instanceID, limit, page)

	transactions, err := uc.TransactionRepo.FindAll(ctx, instanceID, limit, page)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to list transactions", err)

		return nil, err
	}

	if len(transactions) == 0 {
		return transactions, nil
	}

	ids := make([]string, len(transactions))
	for i, transaction := range transactions {
		ids[i] = transaction.ID
	}

	metadata, err := uc.MetadataRepo.FindList(ctx, constant.EntityTransaction, ids)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to retrieve transaction metadata", err)

		return nil, err
	}

	contextByID := make(map[string]map[string]any, len(metadata))
	for _, meta := range metadata {
		contextByID[meta.EntityID] = meta.Data
	}

	for _, transaction := range transactions {
		if data, found := contextByID[transaction.ID]; found {
			transaction.Context = data
		}
	}

	return transactions, nil
}
