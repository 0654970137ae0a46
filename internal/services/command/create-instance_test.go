package command

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/CroesusLabs/croesus/internal/adapters/postgres/instance"
	"github.com/CroesusLabs/croesus/internal/services"
	"github.com/CroesusLabs/croesus/pkg"
	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

func TestCreateInstance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockInstanceRepo := instance.NewMockRepository(ctrl)

	var created *mmodel.Instance

	mockInstanceRepo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, inst *mmodel.Instance) (*mmodel.Instance, error) {
			created = inst
			return inst, nil
		})

	uc := UseCase{InstanceRepo: mockInstanceRepo}

	out, err := uc.CreateInstance(context.Background(), &mmodel.CreateInstanceInput{
		Address: "treasury",
		Config:  map[string]any{"base_currency": "USD"},
	})
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "treasury", created.Address)
	assert.Equal(t, map[string]any{"base_currency": "USD"}, created.Config)
	assert.Same(t, created, out)
}

func TestCreateInstanceInvalidAddress(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc := UseCase{InstanceRepo: instance.NewMockRepository(ctrl)}

	_, err := uc.CreateInstance(context.Background(), &mmodel.CreateInstanceInput{Address: "no spaces"})
	require.Error(t, err)

	fields := knownFields(t, err)
	assert.Contains(t, fields, "address")
}

func TestCreateInstanceAddressConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockInstanceRepo := instance.NewMockRepository(ctrl)

	// The adapter maps the unique violation before the service sees it, so
	// the conflict passes through untouched.
	conflict := pkg.ValidateBusinessError(constant.ErrInstanceAddressConflict, constant.EntityInstance, "treasury")
	mockInstanceRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, conflict)

	uc := UseCase{InstanceRepo: mockInstanceRepo}

	_, err := uc.CreateInstance(context.Background(), &mmodel.CreateInstanceInput{Address: "treasury"})
	require.Error(t, err)
	assert.Equal(t, constant.ErrInstanceAddressConflict.Error(), businessCode(t, err))
}

func TestUpdateInstance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	id := uuid.New()
	mockInstanceRepo := instance.NewMockRepository(ctrl)

	mockInstanceRepo.EXPECT().
		Update(gomock.Any(), id, gomock.Any()).
		DoAndReturn(func(ctx context.Context, instanceID uuid.UUID, inst *mmodel.Instance) (*mmodel.Instance, error) {
			assert.Empty(t, inst.Address, "the address is immutable and never sent")
			return &mmodel.Instance{ID: id.String(), Address: "treasury", Config: inst.Config}, nil
		})

	uc := UseCase{InstanceRepo: mockInstanceRepo}

	updated, err := uc.UpdateInstance(context.Background(), id, &mmodel.UpdateInstanceInput{
		Config: map[string]any{"base_currency": "EUR"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"base_currency": "EUR"}, updated.Config)
}

func TestUpdateInstanceNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockInstanceRepo := instance.NewMockRepository(ctrl)
	mockInstanceRepo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, services.ErrDatabaseItemNotFound)

	uc := UseCase{InstanceRepo: mockInstanceRepo}

	_, err := uc.UpdateInstance(context.Background(), uuid.New(), &mmodel.UpdateInstanceInput{})
	require.Error(t, err)
	assert.Equal(t, constant.ErrInstanceNotFound.Error(), businessCode(t, err))
}

func TestDeleteInstance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	id := uuid.New()
	mockInstanceRepo := instance.NewMockRepository(ctrl)
	mockInstanceRepo.EXPECT().Delete(gomock.Any(), id).Return(nil)

	uc := UseCase{InstanceRepo: mockInstanceRepo}

	assert.NoError(t, uc.DeleteInstance(context.Background(), id))
}

func TestDeleteInstanceNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockInstanceRepo := instance.NewMockRepository(ctrl)
	mockInstanceRepo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(services.ErrDatabaseItemNotFound)

	uc := UseCase{InstanceRepo: mockInstanceRepo}

	err := uc.DeleteInstance(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, constant.ErrInstanceNotFound.Error(), businessCode(t, err))
}

func TestDeleteInstanceInUse(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// The adapter maps the foreign key violation before the service sees it.
	inUse := pkg.ValidateBusinessError(constant.ErrInstanceInUse, constant.EntityInstance, uuid.New().String())
	mockInstanceRepo := instance.NewMockRepository(ctrl)
	mockInstanceRepo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(inUse)

	uc := UseCase{InstanceRepo: mockInstanceRepo}

	err := uc.DeleteInstance(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, constant.ErrInstanceInUse.Error(), businessCode(t, err))
}
