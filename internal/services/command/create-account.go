package command

import (
	"context"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"

	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

// CreateAccountFromCommand projects a create_account command onto the
// ledger: the account row with zeroed balances, the journal event with its
// links, and the fan-out job, all on the work transaction. The normal
// balance defaults from the account type when the caller omits it.
func (uc *UseCase) CreateAccountFromCommand(ctx context.Context, cmd *mmodel.Command) (*Projection, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.create_account_from_command")
	defer span.End()

	data := cmd.CommandMap.Account
	now := time.Now().UTC()

	normalBalance := data.NormalBalance
	if normalBalance == "" {
		normalBalance = mmodel.NormalBalanceForType(data.Type)
	}

	allowedNegative := false
	if data.AllowedNegative != nil {
		allowedNegative = *data.AllowedNegative
	}

	account := &mmodel.Account{
		ID:              libCommons.GenerateUUIDv7().String(),
		InstanceID:      cmd.InstanceID,
		Address:         data.Address,
		Name:            data.Name,
		Description:     data.Description,
		Type:            data.Type,
		NormalBalance:   normalBalance,
		Currency:        data.Currency,
		AllowedNegative: allowedNegative,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	created, err := uc.AccountRepo.Create(ctx, account)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to create account", err)

		return nil, err
	}

	logger.Infof("Created account %s at address %s", created.ID, created.Address)

	journalEventID, err := uc.emitJournal(ctx, cmd, journalTarget{accountID: created.ID})
	if err != nil {
		return nil, err
	}

	return &Projection{Account: created, JournalEventID: journalEventID}, nil
}
