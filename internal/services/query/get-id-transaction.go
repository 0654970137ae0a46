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

// GetTransactionByID retrieves a transaction by its identifier with its
// entries and context metadata attached.
func (uc *UseCase) GetTransactionByID(ctx context.Context, instanceID, id uuid.UUID) (*mmodel.Transaction, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.get_transaction_by_id")
	defer span.End()

	logger.Infof("Retrieving transaction %s", id)

	transaction, err := uc.TransactionRepo.Find(ctx, instanceID, id)
	if err != nil {
		if errors.Is(err, services.ErrDatabaseItemNotFound) {
			return nil, pkg.ValidateBusinessError(constant.ErrTransactionNotFound, constant.EntityTransaction, id.String())
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to find transaction", err)

		return nil, err
	}

	entries, err := uc.EntryRepo.ListByTransaction(ctx, id)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to list transaction entries", err)

		return nil, err
	}

	transaction.Entries = entries

	metadata, err := uc.MetadataRepo.FindByEntity(ctx, constant.EntityTransaction, transaction.ID)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to retrieve transaction metadata", err)

		return nil, err
	}

	if metadata != nil {
		transaction.Context = metadata.Data
	}

	return transaction, nil
}
