package query

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/CroesusLabs/croesus/internal/adapters/mongodb"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/account"
	"github.com/CroesusLabs/croesus/internal/services"
	"github.com/CroesusLabs/croesus/pkg/constant"
)

func TestGetAccountByAddress(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAccountRepo := account.NewMockRepository(ctrl)
	mockMetadataRepo := mongodb.NewMockRepository(ctrl)

	instanceID := uuid.MustParse(testInstanceID)
	stored := usdAccount(uuid.NewString(), "app.cash")

	mockAccountRepo.EXPECT().
		FindByAddress(gomock.Any(), instanceID, "app.cash").
		Return(stored, nil)

	mockMetadataRepo.EXPECT().
		FindByEntity(gomock.Any(), constant.EntityAccount, stored.ID).
		Return(nil, nil)

	uc := UseCase{AccountRepo: mockAccountRepo, MetadataRepo: mockMetadataRepo}

	out, err := uc.GetAccountByAddress(context.Background(), instanceID, "app.cash")
	require.NoError(t, err)
	assert.Same(t, stored, out)
}

func TestGetAccountByAddressNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAccountRepo := account.NewMockRepository(ctrl)
	mockMetadataRepo := mongodb.NewMockRepository(ctrl)

	mockAccountRepo.EXPECT().
		FindByAddress(gomock.Any(), gomock.Any(), "app.missing").
		Return(nil, services.ErrDatabaseItemNotFound)

	uc := UseCase{AccountRepo: mockAccountRepo, MetadataRepo: mockMetadataRepo}

	out, err := uc.GetAccountByAddress(context.Background(), uuid.MustParse(testInstanceID), "app.missing")
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, constant.ErrAccountNotFound.Error(), businessCode(t, err))
	assert.Contains(t, err.Error(), "app.missing")
}
