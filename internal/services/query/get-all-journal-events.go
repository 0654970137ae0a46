package query

import (
	"context"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	"github.com/google/uuid"

	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

// ListJournalEvents retrieves a page of an instance's journal events, newest
// first. Link rows are not loaded here; GetJournalEventByID carries them.
func (uc *UseCase) ListJournalEvents(ctx context.Context, instanceID uuid.UUID, limit, page int) ([]*mmodel.JournalEvent, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.list_journal_events")
	defer span.End()

	logger.Infof("Retrieving journal events for instance %s, limit %d page %d", instanceID, limit, page)

	events, err := uc.JournalRepo.FindAll(ctx, instanceID, limit, page)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to list journal events", err)

		return nil, err
	}

	return events, nil
}
