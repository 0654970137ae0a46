package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/CroesusLabs/croesus/internal/adapters/postgres/account"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/journal"
	"github.com/CroesusLabs/croesus/internal/fanout"
	"github.com/CroesusLabs/croesus/pkg"
	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

const testCommandID = "0195f7a2-bbbb-7000-8000-000000000002"

func testCommand(m *mmodel.CommandMap) *mmodel.Command {
	return &mmodel.Command{
		ID:         testCommandID,
		InstanceID: testInstanceID,
		CommandMap: *m,
	}
}

// passthroughJournal wires the journal and fan-out expectations of one
// processed command and hands back the captured link rows.
func passthroughJournal(mockJournal *journal.MockRepository, mockFanout *fanout.MockEnqueuer) (*mmodel.JournalLinks, *mmodel.JournalLinkMessage) {
	links := &mmodel.JournalLinks{}
	message := &mmodel.JournalLinkMessage{}

	mockJournal.EXPECT().
		CreateWithLinks(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, event *mmodel.JournalEvent, l *mmodel.JournalLinks) (*mmodel.JournalEvent, error) {
			*links = *l
			return event, nil
		})

	mockFanout.EXPECT().
		EnqueueJournalLink(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, m mmodel.JournalLinkMessage) error {
			*message = m
			return nil
		})

	return links, message
}

func TestCreateAccountFromCommand(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAccountRepo := account.NewMockRepository(ctrl)
	mockJournalRepo := journal.NewMockRepository(ctrl)
	mockFanout := fanout.NewMockEnqueuer(ctrl)

	var created *mmodel.Account

	mockAccountRepo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, acc *mmodel.Account) (*mmodel.Account, error) {
			created = acc
			return acc, nil
		})

	links, message := passthroughJournal(mockJournalRepo, mockFanout)

	uc := UseCase{
		AccountRepo: mockAccountRepo,
		JournalRepo: mockJournalRepo,
		Fanout:      mockFanout,
	}

	cmd := testCommand(accountCreateMap())

	projection, err := uc.CreateAccountFromCommand(context.Background(), cmd)
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, testInstanceID, created.InstanceID)
	assert.Equal(t, "app.cash", created.Address)
	assert.Equal(t, constant.AccountTypeAsset, created.Type)
	assert.Equal(t, constant.NormalBalanceDebit, created.NormalBalance, "normal balance defaults from the type")
	assert.False(t, created.AllowedNegative)
	assert.True(t, created.Posted.Amount.IsZero())

	assert.Same(t, created, projection.Account)
	assert.Equal(t, links.JournalEventID, projection.JournalEventID)
	assert.Equal(t, testCommandID, links.CommandID)
	assert.Equal(t, created.ID, links.AccountID)
	assert.Empty(t, links.TransactionID)

	assert.Equal(t, constant.ActionCreateAccount, message.Action)
	assert.Equal(t, created.ID, message.AccountID)
	assert.Equal(t, projection.JournalEventID, message.JournalEventID)
}

func TestCreateAccountFromCommandExplicitNormalBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAccountRepo := account.NewMockRepository(ctrl)
	mockJournalRepo := journal.NewMockRepository(ctrl)
	mockFanout := fanout.NewMockEnqueuer(ctrl)

	mockAccountRepo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, acc *mmodel.Account) (*mmodel.Account, error) {
			return acc, nil
		})
	passthroughJournal(mockJournalRepo, mockFanout)

	uc := UseCase{
		AccountRepo: mockAccountRepo,
		JournalRepo: mockJournalRepo,
		Fanout:      mockFanout,
	}

	m := accountCreateMap()
	m.Account.NormalBalance = constant.NormalBalanceCredit

	allowed := true
	m.Account.AllowedNegative = &allowed

	projection, err := uc.CreateAccountFromCommand(context.Background(), testCommand(m))
	require.NoError(t, err)

	assert.Equal(t, constant.NormalBalanceCredit, projection.Account.NormalBalance, "an explicit normal balance wins over the type default")
	assert.True(t, projection.Account.AllowedNegative)
}

func TestCreateAccountFromCommandAddressConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAccountRepo := account.NewMockRepository(ctrl)

	conflict := pkg.ValidateBusinessError(constant.ErrAccountAddressConflict, constant.EntityAccount, "app.cash")
	mockAccountRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, conflict)

	uc := UseCase{AccountRepo: mockAccountRepo}

	_, err := uc.CreateAccountFromCommand(context.Background(), testCommand(accountCreateMap()))
	require.Error(t, err)
	assert.Equal(t, constant.ErrAccountAddressConflict.Error(), businessCode(t, err))
	assert.True(t, pkg.IsBusinessError(err))
}
