package query

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/CroesusLabs/croesus/internal/adapters/mongodb"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/account"
	"github.com/CroesusLabs/croesus/internal/services"
	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

func usdAccount(id, address string) *mmodel.Account {
	return &mmodel.Account{
		ID:            id,
		InstanceID:    testInstanceID,
		Address:       address,
		Type:          constant.AccountTypeAsset,
		NormalBalance: constant.NormalBalanceDebit,
		Currency:      "USD",
	}
}

func TestGetAccountByID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAccountRepo := account.NewMockRepository(ctrl)
	mockMetadataRepo := mongodb.NewMockRepository(ctrl)

	instanceID := uuid.MustParse(testInstanceID)
	accountID := uuid.New()
	stored := usdAccount(accountID.String(), "app.cash")

	mockAccountRepo.EXPECT().
		Find(gomock.Any(), instanceID, accountID).
		Return(stored, nil)

	mockMetadataRepo.EXPECT().
		FindByEntity(gomock.Any(), constant.EntityAccount, stored.ID).
		Return(&mongodb.Metadata{EntityID: stored.ID, Data: mongodb.JSON{"team": "payments"}}, nil)

	uc := UseCase{AccountRepo: mockAccountRepo, MetadataRepo: mockMetadataRepo}

	out, err := uc.GetAccountByID(context.Background(), instanceID, accountID)
	require.NoError(t, err)
	assert.Same(t, stored, out)
	assert.Equal(t, map[string]any{"team": "payments"}, out.Context)
}

func TestGetAccountByIDWithoutMetadata(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAccountRepo := account.NewMockRepository(ctrl)
	mockMetadataRepo := mongodb.NewMockRepository(ctrl)

	instanceID := uuid.MustParse(testInstanceID)
	accountID := uuid.New()
	stored := usdAccount(accountID.String(), "app.cash")

	mockAccountRepo.EXPECT().
		Find(gomock.Any(), instanceID, accountID).
		Return(stored, nil)

	mockMetadataRepo.EXPECT().
		FindByEntity(gomock.Any(), constant.EntityAccount, stored.ID).
		Return(nil, nil)

	uc := UseCase{AccountRepo: mockAccountRepo, MetadataRepo: mockMetadataRepo}

	out, err := uc.GetAccountByID(context.Background(), instanceID, accountID)
	require.NoError(t, err)
	assert.Nil(t, out.Context, "an account without stored context reads back with none")
}

func TestGetAccountByIDNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAccountRepo := account.NewMockRepository(ctrl)
	mockMetadataRepo := mongodb.NewMockRepository(ctrl)

	mockAccountRepo.EXPECT().
		Find(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, services.ErrDatabaseItemNotFound)

	uc := UseCase{AccountRepo: mockAccountRepo, MetadataRepo: mockMetadataRepo}

	out, err := uc.GetAccountByID(context.Background(), uuid.MustParse(testInstanceID), uuid.New())
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, constant.ErrAccountNotFound.Error(), businessCode(t, err))
}

func TestGetAccountByIDMetadataError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAccountRepo := account.NewMockRepository(ctrl)
	mockMetadataRepo := mongodb.NewMockRepository(ctrl)

	instanceID := uuid.MustParse(testInstanceID)
	accountID := uuid.New()

	mockAccountRepo.EXPECT().
		Find(gomock.Any(), instanceID, accountID).
		Return(usdAccount(accountID.String(), "app.cash"), nil)

	storeErr := errors.New("server selection timeout")

	mockMetadataRepo.EXPECT().
		FindByEntity(gomock.Any(), constant.EntityAccount, accountID.String()).
		Return(nil, storeErr)

	uc := UseCase{AccountRepo: mockAccountRepo, MetadataRepo: mockMetadataRepo}

	_, err := uc.GetAccountByID(context.Background(), instanceID, accountID)
	assert.ErrorIs(t, err, storeErr)
}
