package query

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/CroesusLabs/croesus/internal/adapters/postgres/command"
	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

func TestListCommands(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCommandRepo := command.NewMockRepository(ctrl)

	instanceID := uuid.MustParse(testInstanceID)
	stored := []*mmodel.Command{
		{
			ID:         uuid.NewString(),
			InstanceID: testInstanceID,
			CommandMap: mmodel.CommandMap{Action: constant.ActionCreateAccount},
			QueueItem:  &mmodel.CommandQueueItem{Status: constant.QueueItemProcessed},
		},
		{
			ID:         uuid.NewString(),
			InstanceID: testInstanceID,
			CommandMap: mmodel.CommandMap{Action: constant.ActionCreateTransaction},
			QueueItem:  &mmodel.CommandQueueItem{Status: constant.QueueItemPending},
		},
	}

	mockCommandRepo.EXPECT().
		FindAll(gomock.Any(), instanceID, 20, 1).
		Return(stored, nil)

	uc := UseCase{CommandRepo: mockCommandRepo}

	out, err := uc.ListCommands(context.Background(), instanceID, 20, 1)
	require.NoError(t, err)
	assert.Equal(t, stored, out)
}
