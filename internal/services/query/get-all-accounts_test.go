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
	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

func TestListAccounts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAccountRepo := account.NewMockRepository(ctrl)
	mockMetadataRepo := mongodb.NewMockRepository(ctrl)

	instanceID := uuid.MustParse(testInstanceID)
	cash := usdAccount(uuid.NewString(), "app.cash")
	fees := usdAccount(uuid.NewString(), "app.fees")

	mockAccountRepo.EXPECT().
		FindAll(gomock.Any(), instanceID, 50, 1).
		Return([]*mmodel.Account{cash, fees}, nil)

	mockMetadataRepo.EXPECT().
		FindList(gomock.Any(), constant.EntityAccount, []string{cash.ID, fees.ID}).
		Return([]*mongodb.Metadata{
			{EntityID: cash.ID, Data: mongodb.JSON{"team": "payments"}},
		}, nil)

	uc := UseCase{AccountRepo: mockAccountRepo, MetadataRepo: mockMetadataRepo}

	out, err := uc.ListAccounts(context.Background(), instanceID, 50, 1)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, map[string]any{"team": "payments"}, out[0].Context)
	assert.Nil(t, out[1].Context, "accounts without stored context stay bare")
}

func TestListAccountsEmptyPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAccountRepo := account.NewMockRepository(ctrl)
	mockMetadataRepo := mongodb.NewMockRepository(ctrl)

	mockAccountRepo.EXPECT().
		FindAll(gomock.Any(), gomock.Any(), 50, 9).
		Return([]*mmodel.Account{}, nil)

	uc := UseCase{AccountRepo: mockAccountRepo, MetadataRepo: mockMetadataRepo}

	out, err := uc.ListAccounts(context.Background(), uuid.MustParse(testInstanceID), 50, 9)
	require.NoError(t, err)
	assert.Empty(t, out, "an empty page skips the metadata store entirely")
}
