package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/CroesusLabs/croesus/internal/adapters/postgres/instance"
	"github.com/CroesusLabs/croesus/internal/services"
	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

func TestGetInstanceByAddress(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockInstanceRepo := instance.NewMockRepository(ctrl)

	stored := &mmodel.Instance{ID: testInstanceID, Address: "treasury"}

	mockInstanceRepo.EXPECT().
		FindByAddress(gomock.Any(), "treasury").
		Return(stored, nil)

	uc := UseCase{InstanceRepo: mockInstanceRepo}

	out, err := uc.GetInstanceByAddress(context.Background(), "treasury")
	require.NoError(t, err)
	assert.Same(t, stored, out)
}

func TestGetInstanceByAddressNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockInstanceRepo := instance.NewMockRepository(ctrl)

	mockInstanceRepo.EXPECT().
		FindByAddress(gomock.Any(), "nowhere").
		Return(nil, services.ErrDatabaseItemNotFound)

	uc := UseCase{InstanceRepo: mockInstanceRepo}

	out, err := uc.GetInstanceByAddress(context.Background(), "nowhere")
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, constant.ErrInstanceNotFound.Error(), businessCode(t, err))
	assert.Contains(t, err.Error(), "nowhere")
}
