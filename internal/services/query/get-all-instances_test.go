package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/CroesusLabs/croesus/internal/adapters/postgres/instance"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

func TestListInstances(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockInstanceRepo := instance.NewMockRepository(ctrl)

	stored := []*mmodel.Instance{
		{ID: testInstanceID, Address: "treasury"},
		{ID: "0195f7a2-0000-7000-8000-000000000002", Address: "billing"},
	}

	mockInstanceRepo.EXPECT().
		FindAll(gomock.Any(), 25, 2).
		Return(stored, nil)

	uc := UseCase{InstanceRepo: mockInstanceRepo}

	out, err := uc.ListInstances(context.Background(), 25, 2)
	require.NoError(t, err)
	assert.Equal(t, stored, out)
}

func TestListInstancesRepositoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockInstanceRepo := instance.NewMockRepository(ctrl)

	dbErr := errors.New("connection refused")

	mockInstanceRepo.EXPECT().
		FindAll(gomock.Any(), 10, 1).
		Return(nil, dbErr)

	uc := UseCase{InstanceRepo: mockInstanceRepo}

	_, err := uc.ListInstances(context.Background(), 10, 1)
	assert.ErrorIs(t, err, dbErr)
}
