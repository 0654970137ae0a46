package fanout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/CroesusLabs/croesus/internal/adapters/rabbitmq"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

func testLinkMessage() mmodel.JournalLinkMessage {
	return mmodel.JournalLinkMessage{
		JournalEventID: uuid.NewString(),
		InstanceID:     uuid.NewString(),
		CommandID:      uuid.NewString(),
		TransactionID:  uuid.NewString(),
		Action:         "create_transaction",
		OccurredAt:     time.Now().UTC(),
	}
}

func TestJournalLinkWorkerPublishesJobMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockProducer := rabbitmq.NewMockProducerRepository(ctrl)
	worker := NewJournalLinkWorker(mockProducer, "croesus.journal", "journal.link")

	message := testLinkMessage()

	mockProducer.EXPECT().
		ProducerDefault(gomock.Any(), "croesus.journal", "journal.link", message).
		Return(nil).
		Times(1)

	err := worker.Work(context.Background(), &river.Job[JournalLinkArgs]{
		Args: JournalLinkArgs{Message: message},
	})

	assert.NoError(t, err)
}

func TestJournalLinkWorkerReturnsPublishErrorForRetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockProducer := rabbitmq.NewMockProducerRepository(ctrl)
	worker := NewJournalLinkWorker(mockProducer, "croesus.journal", "journal.link")

	message := testLinkMessage()
	publishErr := errors.New("channel/connection is not open")

	mockProducer.EXPECT().
		ProducerDefault(gomock.Any(), "croesus.journal", "journal.link", message).
		Return(publishErr).
		Times(1)

	err := worker.Work(context.Background(), &river.Job[JournalLinkArgs]{
		Args: JournalLinkArgs{Message: message},
	})

	assert.ErrorIs(t, err, publishErr, "the job error drives the queue retry")
}

func TestJournalLinkArgsDedupeByPayload(t *testing.T) {
	args := JournalLinkArgs{Message: testLinkMessage()}

	assert.Equal(t, "journal_link", args.Kind())
	assert.True(t, args.InsertOpts().UniqueOpts.ByArgs,
		"a retried posting must not double-enqueue the same journal event")
}
