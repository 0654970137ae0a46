// Package fanout delivers journal link messages to downstream consumers.
// Jobs are inserted on the same transaction that commits the journal event,
// so a delivery exists if and only if the event does. Publishing happens
// after commit, retried by the job queue without touching the command row.
package fanout

import (
	"context"
	"errors"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"

	"github.com/CroesusLabs/croesus/internal/adapters/postgres"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

// JournalLinkArgs is the job payload for one journal link delivery.
type JournalLinkArgs struct {
	Message mmodel.JournalLinkMessage `json:"message"`
}

// Kind names the job type in the queue.
func (JournalLinkArgs) Kind() string { return "journal_link" }

// InsertOpts dedupes by payload so a retried posting cannot double-enqueue
// the same journal event.
func (JournalLinkArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		UniqueOpts: river.UniqueOpts{ByArgs: true},
	}
}

// Enqueuer schedules journal link deliveries inside the caller's transaction.
type Enqueuer interface {
	EnqueueJournalLink(ctx context.Context, message mmodel.JournalLinkMessage) error
}

// RiverEnqueuer is a river implementation of Enqueuer.
type RiverEnqueuer struct {
	client *river.Client[pgx.Tx]
}

// NewRiverEnqueuer returns a new instance of RiverEnqueuer using the given river client.
func NewRiverEnqueuer(client *river.Client[pgx.Tx]) *RiverEnqueuer {
	return &RiverEnqueuer{
		client: client,
	}
}

// EnqueueJournalLink inserts a delivery job on the transaction carried by ctx.
func (e *RiverEnqueuer) EnqueueJournalLink(ctx context.Context, message mmodel.JournalLinkMessage) error {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "fanout.enqueue_journal_link")
	defer span.End()

	tx := postgres.TxFromContext(ctx)
	if tx == nil {
		err := errors.New("journal link enqueue requires an open transaction")

		libOpentelemetry.HandleSpanError(&span, "Failed to enqueue journal link", err)

		return err
	}

	if _, err := e.client.InsertTx(ctx, tx, JournalLinkArgs{Message: message}, nil); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to insert journal link job", err)

		logger.Errorf("Failed to insert journal link job: %v", err)

		return err
	}

	return nil
}
