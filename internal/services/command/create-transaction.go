package command

import (
	"context"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	"github.com/google/uuid"

	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

// CreateTransactionFromCommand projects a create_transaction command: the
// transaction with its entries, the balance application on every touched
// account, one history snapshot per entry, the journal event and the
// fan-out job. A transaction created pending also registers the source key
// lookup that later update commands resolve it by.
func (uc *UseCase) CreateTransactionFromCommand(ctx context.Context, cmd *mmodel.Command) (*Projection, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.create_transaction_from_command")
	defer span.End()

	data := cmd.CommandMap.Transaction
	instanceID := uuid.MustParse(cmd.InstanceID)

	addresses := make([]string, 0, len(data.Entries))
	for _, e := range data.Entries {
		addresses = append(addresses, e.AccountAddress)
	}

	accounts, err := uc.AccountRepo.ListByAddresses(ctx, instanceID, addresses)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to list accounts by addresses", err)

		return nil, err
	}

	byAddress := make(map[string]*mmodel.Account, len(accounts))
	for _, account := range accounts {
		byAddress[account.Address] = account
	}

	proposed, err := resolveEntries(byAddress, data.Entries)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	transactionID := libCommons.GenerateUUIDv7().String()

	plan, err := buildCreatePlan(transactionID, cmd.InstanceID, data.Status, proposed, now)
	if err != nil {
		return nil, err
	}

	if err := uc.executePlan(ctx, plan); err != nil {
		return nil, err
	}

	journalEventID, err := uc.emitJournal(ctx, cmd, journalTarget{transactionID: transactionID})
	if err != nil {
		return nil, err
	}

	if data.Status == constant.TransactionPending {
		lookupRow := &mmodel.PendingTransactionLookup{
			InstanceID:     cmd.InstanceID,
			Source:         cmd.CommandMap.Source,
			SourceIdemPK:   cmd.CommandMap.SourceIdemPK,
			CommandID:      cmd.ID,
			TransactionID:  transactionID,
			JournalEventID: journalEventID,
			CreatedAt:      now,
		}

		if err := uc.LookupRepo.Create(ctx, lookupRow); err != nil {
			libOpentelemetry.HandleSpanError(&span, "Failed to create pending transaction lookup", err)

			return nil, err
		}
	}

	logger.Infof("Created transaction %s with status %s and %d entries", transactionID, data.Status, len(plan.entryInserts))

	projected := plan.transaction
	projected.Entries = plan.entryInserts

	return &Projection{Transaction: projected, JournalEventID: journalEventID}, nil
}
