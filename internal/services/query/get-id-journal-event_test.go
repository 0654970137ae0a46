package query

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/CroesusLabs/croesus/internal/adapters/postgres/journal"
	"github.com/CroesusLabs/croesus/internal/services"
	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

func TestGetJournalEventByID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockJournalRepo := journal.NewMockRepository(ctrl)

	instanceID := uuid.MustParse(testInstanceID)
	eventID := uuid.New()
	stored := &mmodel.JournalEvent{
		ID:         eventID.String(),
		InstanceID: testInstanceID,
		CommandMap: mmodel.CommandMap{Action: constant.ActionCreateTransaction},
	}

	mockJournalRepo.EXPECT().
		Find(gomock.Any(), instanceID, eventID).
		Return(stored, nil)

	links := &mmodel.JournalLinks{
		JournalEventID: eventID.String(),
		CommandID:      uuid.NewString(),
		TransactionID:  uuid.NewString(),
	}

	mockJournalRepo.EXPECT().
		FindLinks(gomock.Any(), eventID).
		Return(links, nil)

	uc := UseCase{JournalRepo: mockJournalRepo}

	out, err := uc.GetJournalEventByID(context.Background(), instanceID, eventID)
	require.NoError(t, err)
	assert.Same(t, stored, out)
	assert.Same(t, links, out.Links)
}

func TestGetJournalEventByIDNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockJournalRepo := journal.NewMockRepository(ctrl)

	mockJournalRepo.EXPECT().
		Find(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, services.ErrDatabaseItemNotFound)

	uc := UseCase{JournalRepo: mockJournalRepo}

	out, err := uc.GetJournalEventByID(context.Background(), uuid.MustParse(testInstanceID), uuid.New())
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, constant.ErrJournalEventNotFound.Error(), businessCode(t, err))
}

func TestGetJournalEventByIDLinksError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockJournalRepo := journal.NewMockRepository(ctrl)

	instanceID := uuid.MustParse(testInstanceID)
	eventID := uuid.New()

	mockJournalRepo.EXPECT().
		Find(gomock.Any(), instanceID, eventID).
		Return(&mmodel.JournalEvent{ID: eventID.String()}, nil)

	dbErr := errors.New("connection refused")

	mockJournalRepo.EXPECT().
		FindLinks(gomock.Any(), eventID).
		Return(nil, dbErr)

	uc := UseCase{JournalRepo: mockJournalRepo}

	_, err := uc.GetJournalEventByID(context.Background(), instanceID, eventID)
	assert.ErrorIs(t, err, dbErr)
}
