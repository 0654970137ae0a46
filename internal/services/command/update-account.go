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

// UpdateAccountFromCommand projects an update_account command. The address
// identifies the account; type, currency and normal balance are immutable
// and the payload must restate the stored values. Name, description,
// allowed_negative and context are replaced by the payload.
func (uc *UseCase) UpdateAccountFromCommand(ctx context.Context, cmd *mmodel.Command) (*Projection, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.update_account_from_command")
	defer span.End()

	data := cmd.CommandMap.Account

	account, err := uc.AccountRepo.FindByAddress(ctx, uuid.MustParse(cmd.InstanceID), data.Address)
	if err != nil {
		if errors.Is(err, services.ErrDatabaseItemNotFound) {
			return nil, pkg.ValidateBusinessError(constant.ErrAccountNotFound, constant.EntityAccount, data.Address)
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to find account by address", err)

		return nil, err
	}

	if err := checkImmutableAccountFields(account, data); err != nil {
		return nil, err
	}

	account.Name = data.Name
	account.Description = data.Description

	if data.AllowedNegative != nil {
		account.AllowedNegative = *data.AllowedNegative
	}

	if err := uc.AccountRepo.Update(ctx, account); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to update account", err)

		return nil, err
	}

	logger.Infof("Updated account %s at address %s", account.ID, account.Address)

	journalEventID, err := uc.emitJournal(ctx, cmd, journalTarget{accountID: account.ID})
	if err != nil {
		return nil, err
	}

	return &Projection{Account: account, JournalEventID: journalEventID}, nil
}

func checkImmutableAccountFields(account *mmodel.Account, data *mmodel.AccountData) error {
	if data.Type != account.Type {
		return pkg.ValidateBusinessError(constant.ErrImmutableAccountField, constant.EntityAccount, "type")
	}

	if data.Currency != account.Currency {
		return pkg.ValidateBusinessError(constant.ErrImmutableAccountField, constant.EntityAccount, "currency")
	}

	if data.NormalBalance != "" && data.NormalBalance != account.NormalBalance {
		return pkg.ValidateBusinessError(constant.ErrImmutableAccountField, constant.EntityAccount, "normal_balance")
	}

	return nil
}
