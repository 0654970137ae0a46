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

// GetJournalEventByID retrieves a journal event with its link rows, tying
// the audit record back to the command and the entity it projected.
func (uc *UseCase) GetJournalEventByID(ctx context.Context, instanceID, id uuid.UUID) (*mmodel.JournalEvent, error) {
	logger, tracer, _, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.get_journal_event_by_id")
	defer span.End()

	logger.Infof("Retrieving journal event %s", id)

	event, err := uc.JournalRepo.Find(ctx, instanceID, id)
	if err != nil {
		if errors.Is(err, services.ErrDatabaseItemNotFound) {
			return nil, pkg.ValidateBusinessError(constant.ErrJournalEventNotFound, constant.EntityJournalEvent, id.String())
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to find journal event", err)

		return nil, err
	}

	links, err := uc.JournalRepo.FindLinks(ctx, id)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to find journal event links", err)

		return nil, err
	}

	event.Links = links

	return event, nil
}
