package query

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/CroesusLabs/croesus/internal/adapters/postgres/journal"
	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

func TestListJournalEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockJournalRepo := journal.NewMockRepository(ctrl)

	instanceID := uuid.MustParse(testInstanceID)
	stored := []*mmodel.JournalEvent{
		{ID: uuid.NewString(), InstanceID: testInstanceID, CommandMap: mmodel.CommandMap{Action: constant.ActionCreateAccount}},
		{ID: uuid.NewString(), InstanceID: testInstanceID, CommandMap: mmodel.CommandMap{Action: constant.ActionUpdateTransaction}},
	}

	mockJournalRepo.EXPECT().
		FindAll(gomock.Any(), instanceID, 20, 1).
		Return(stored, nil)

	uc := UseCase{JournalRepo: mockJournalRepo}

	out, err := uc.ListJournalEvents(context.Background(), instanceID, 20, 1)
	require.NoError(t, err)
	assert.Equal(t, stored, out)
	assert.Nil(t, out[0].Links, "list reads do not load link rows")
}
