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

// ListBalanceHistory retrieves a page of an account's balance snapshots,
// one per entry application, newest first. The account is resolved first so
// an unknown id reads as not-found rather than an empty history.
func (uc *UseCase) ListBalanceHistory(ctx context.Context, instanceID, accountID uuid.UUID, limit, page int) ([]*mmodel.BalanceHistoryEntry, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.list_balance_history")
	defer span.End()

	logger.Infof("Retrieving balance history for account %s, limit %d page %d", accountID, limit, page)

	if _, err := uc.AccountRepo.Find(ctx, instanceID, accountID); err != nil {
		if errors.Is(err, services.ErrDatabaseItemNotFound) {
			return nil, pkg.ValidateBusinessError(constant.ErrAccountNotFound, constant.EntityAccount, accountID.String())
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to find account", err)

		return nil, err
	}

	history, err := uc.AccountRepo.ListBalanceHistory(ctx, accountID, limit, page)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to list balance history", err)

		return nil, err
	}

	return history, nil
}
