package fanout

import (
	"context"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	"github.com/riverqueue/river"

	"github.com/CroesusLabs/croesus/internal/adapters/rabbitmq"
)

// JournalLinkWorker publishes committed journal link jobs to rabbitmq.
// A failed publish returns the error to the queue, which retries with its
// own backoff; the journal event itself is already durable.
type JournalLinkWorker struct {
	river.WorkerDefaults[JournalLinkArgs]

	producer rabbitmq.ProducerRepository
	exchange string
	key      string
}

// NewJournalLinkWorker returns a new instance of JournalLinkWorker publishing on the given exchange and routing key.
func NewJournalLinkWorker(producer rabbitmq.ProducerRepository, exchange, key string) *JournalLinkWorker {
	return &JournalLinkWorker{
		producer: producer,
		exchange: exchange,
		key:      key,
	}
}

// Work publishes one journal link message.
func (w *JournalLinkWorker) Work(ctx context.Context, job *river.Job[JournalLinkArgs]) error {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "fanout.publish_journal_link")
	defer span.End()

	if err := w.producer.ProducerDefault(ctx, w.exchange, w.key, job.Args.Message); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to publish journal link", err)

		logger.Errorf("Failed to publish journal link %v: %v", job.Args.Message.JournalEventID, err)

		return err
	}

	logger.Infof("Published journal link for event %v", job.Args.Message.JournalEventID)

	return nil
}
