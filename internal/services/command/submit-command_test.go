package command

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/CroesusLabs/croesus/internal/adapters/postgres/command"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/idempotency"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/instance"
	"github.com/CroesusLabs/croesus/internal/adapters/redis"
	"github.com/CroesusLabs/croesus/internal/services"
	"github.com/CroesusLabs/croesus/pkg"
	"github.com/CroesusLabs/croesus/pkg/constant"
	"github.com/CroesusLabs/croesus/pkg/mmodel"
)

func accountCreateParams() map[string]any {
	return map[string]any{
		"action":           constant.ActionCreateAccount,
		"instance_address": "treasury",
		"source":           "billing",
		"source_idempk":    "acc-001",
		"payload": map[string]any{
			"address":  "app.cash",
			"name":     "Cash",
			"type":     "asset",
			"currency": "USD",
		},
	}
}

func testInstance() *mmodel.Instance {
	return &mmodel.Instance{ID: testInstanceID, Address: "treasury"}
}

type submitMocks struct {
	postingMocks
	instance    *instance.MockRepository
	redis       *redis.MockRedisRepository
	idempotency *idempotency.MockRepository
	command     *command.MockRepository
}

func newSubmitMocks(ctrl *gomock.Controller) submitMocks {
	return submitMocks{
		postingMocks: newPostingMocks(ctrl),
		instance:     instance.NewMockRepository(ctrl),
		redis:        redis.NewMockRedisRepository(ctrl),
		idempotency:  idempotency.NewMockRepository(ctrl),
		command:      command.NewMockRepository(ctrl),
	}
}

func (sm submitMocks) submitUseCase() UseCase {
	uc := processorUseCase(sm.postingMocks, sm.command)
	uc.InstanceRepo = sm.instance
	uc.RedisRepo = sm.redis
	uc.IdempotencyRepo = sm.idempotency
	uc.IdempotencyTTL = 24 * time.Hour

	return uc
}

// expectPersist wires the atomic submission write and hands back the
// captured command and idempotency key.
func (sm submitMocks) expectPersist() (*mmodel.Command, *mmodel.IdempotencyKey) {
	created := &mmodel.Command{}
	key := &mmodel.IdempotencyKey{}

	sm.command.EXPECT().
		CreateWithQueueItem(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, cmd *mmodel.Command) (*mmodel.Command, error) {
			cmd.QueueItem = &mmodel.CommandQueueItem{
				ID:        uuid.NewString(),
				CommandID: cmd.ID,
				Status:    constant.QueueItemPending,
			}
			*created = *cmd

			return cmd, nil
		})

	sm.idempotency.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, k *mmodel.IdempotencyKey) error {
			*key = *k
			return nil
		})

	return created, key
}

func TestSubmitCommand(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sm := newSubmitMocks(ctrl)
	sm.instance.EXPECT().FindByAddress(gomock.Any(), "treasury").Return(testInstance(), nil)

	keyHash := pkg.HashIdempotencyKey(constant.ActionCreateAccount, "billing", "acc-001", "")
	redisKey := pkg.IdempotencyRedisKey(testInstanceID, keyHash)

	sm.redis.EXPECT().SetNX(gomock.Any(), redisKey, "", 24*time.Hour).Return(true, nil)

	created, key := sm.expectPersist()

	sm.redis.EXPECT().
		Set(gomock.Any(), redisKey, gomock.Any(), 24*time.Hour).
		DoAndReturn(func(ctx context.Context, k, value string, ttl time.Duration) error {
			assert.Equal(t, created.ID, value, "the cache points duplicates at the winner")
			return nil
		})

	uc := sm.submitUseCase()

	cmd, err := uc.SubmitCommand(context.Background(), accountCreateParams())
	require.NoError(t, err)

	assert.Equal(t, testInstanceID, cmd.InstanceID)
	assert.Equal(t, constant.ActionCreateAccount, cmd.CommandMap.Action)
	assert.Equal(t, "app.cash", cmd.CommandMap.Account.Address)
	require.NotNil(t, cmd.QueueItem)
	assert.Equal(t, constant.QueueItemPending, cmd.QueueItem.Status)

	assert.Equal(t, keyHash, key.KeyHash)
	assert.Equal(t, cmd.ID, key.CommandID)
	assert.Equal(t, testInstanceID, key.InstanceID)
}

func TestSubmitCommandDuplicateFastPath(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sm := newSubmitMocks(ctrl)
	sm.instance.EXPECT().FindByAddress(gomock.Any(), "treasury").Return(testInstance(), nil)

	winnerID := uuid.NewString()

	// The winner already cached its id, so the duplicate resolves without
	// touching the database.
	sm.redis.EXPECT().SetNX(gomock.Any(), gomock.Any(), "", gomock.Any()).Return(false, nil)
	sm.redis.EXPECT().Get(gomock.Any(), gomock.Any()).Return(winnerID, nil)

	uc := sm.submitUseCase()

	_, err := uc.SubmitCommand(context.Background(), accountCreateParams())
	require.Error(t, err)
	assert.Equal(t, constant.ErrDuplicateCommand.Error(), businessCode(t, err))
	assert.Contains(t, err.Error(), winnerID)
}

func TestSubmitCommandDuplicateFallsBackToDatabase(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sm := newSubmitMocks(ctrl)
	sm.instance.EXPECT().FindByAddress(gomock.Any(), "treasury").Return(testInstance(), nil)

	winnerID := uuid.NewString()

	// The reservation still holds the placeholder: the winner has not cached
	// its id yet, so the idempotency table answers.
	sm.redis.EXPECT().SetNX(gomock.Any(), gomock.Any(), "", gomock.Any()).Return(false, nil)
	sm.redis.EXPECT().Get(gomock.Any(), gomock.Any()).Return("", nil)
	sm.idempotency.EXPECT().
		FindByHash(gomock.Any(), uuid.MustParse(testInstanceID), gomock.Any()).
		Return(&mmodel.IdempotencyKey{CommandID: winnerID}, nil)

	uc := sm.submitUseCase()

	_, err := uc.SubmitCommand(context.Background(), accountCreateParams())
	require.Error(t, err)
	assert.Equal(t, constant.ErrDuplicateCommand.Error(), businessCode(t, err))
	assert.Contains(t, err.Error(), winnerID)
}

func TestSubmitCommandGhostReservationProceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sm := newSubmitMocks(ctrl)
	sm.instance.EXPECT().FindByAddress(gomock.Any(), "treasury").Return(testInstance(), nil)

	// The reservation exists but no key row backs it: a prior submission died
	// between the two writes. The database is authoritative, so this one goes
	// through.
	sm.redis.EXPECT().SetNX(gomock.Any(), gomock.Any(), "", gomock.Any()).Return(false, nil)
	sm.redis.EXPECT().Get(gomock.Any(), gomock.Any()).Return("", services.ErrDatabaseItemNotFound)
	sm.idempotency.EXPECT().
		FindByHash(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, services.ErrDatabaseItemNotFound)

	sm.expectPersist()
	sm.redis.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	uc := sm.submitUseCase()

	cmd, err := uc.SubmitCommand(context.Background(), accountCreateParams())
	require.NoError(t, err)
	assert.NotNil(t, cmd.QueueItem)
}

func TestSubmitCommandRedisOutageDegrades(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sm := newSubmitMocks(ctrl)
	sm.instance.EXPECT().FindByAddress(gomock.Any(), "treasury").Return(testInstance(), nil)

	sm.redis.EXPECT().SetNX(gomock.Any(), gomock.Any(), "", gomock.Any()).Return(false, assert.AnError)
	sm.expectPersist()
	sm.redis.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(assert.AnError)

	uc := sm.submitUseCase()

	_, err := uc.SubmitCommand(context.Background(), accountCreateParams())
	assert.NoError(t, err, "the database unique index still guards duplicates")
}

func TestSubmitCommandInstanceNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sm := newSubmitMocks(ctrl)
	sm.instance.EXPECT().FindByAddress(gomock.Any(), "treasury").Return(nil, services.ErrDatabaseItemNotFound)

	uc := sm.submitUseCase()

	_, err := uc.SubmitCommand(context.Background(), accountCreateParams())
	require.Error(t, err)
	assert.Equal(t, constant.ErrInstanceNotFound.Error(), businessCode(t, err))
}

func TestSubmitCommandUnknownAction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sm := newSubmitMocks(ctrl)
	uc := sm.submitUseCase()

	params := accountCreateParams()
	params["action"] = "mint_money"

	_, err := uc.SubmitCommand(context.Background(), params)
	require.Error(t, err)
	assert.Equal(t, constant.ErrActionNotSupported.Error(), businessCode(t, err))
	assert.Contains(t, err.Error(), "mint_money")
}

func TestSubmitCommandMalformedPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sm := newSubmitMocks(ctrl)
	uc := sm.submitUseCase()

	params := accountCreateParams()
	params["payload"] = map[string]any{"address": 123}

	_, err := uc.SubmitCommand(context.Background(), params)
	require.Error(t, err)

	var validationErr pkg.ValidationError

	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "Malformed Command", validationErr.Title)
}

func TestSubmitCommandLosesUniqueRace(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sm := newSubmitMocks(ctrl)
	sm.instance.EXPECT().FindByAddress(gomock.Any(), "treasury").Return(testInstance(), nil)
	sm.redis.EXPECT().SetNX(gomock.Any(), gomock.Any(), "", gomock.Any()).Return(true, nil)

	// Two submitters passed the fast path at once; this one loses the insert.
	sm.command.EXPECT().
		CreateWithQueueItem(gomock.Any(), gomock.Any()).
		Return(nil, &pgconn.PgError{Code: constant.UniqueViolationCode})

	winnerID := uuid.NewString()
	sm.idempotency.EXPECT().
		FindByHash(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&mmodel.IdempotencyKey{CommandID: winnerID}, nil)

	uc := sm.submitUseCase()

	_, err := uc.SubmitCommand(context.Background(), accountCreateParams())
	require.Error(t, err)
	assert.Equal(t, constant.ErrDuplicateCommand.Error(), businessCode(t, err))
	assert.Contains(t, err.Error(), winnerID)
}

func TestProcessCommandSyncRetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sm := newSubmitMocks(ctrl)
	sm.instance.EXPECT().FindByAddress(gomock.Any(), "treasury").Return(testInstance(), nil)
	sm.redis.EXPECT().SetNX(gomock.Any(), gomock.Any(), "", gomock.Any()).Return(true, nil)
	created, _ := sm.expectPersist()
	sm.redis.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	claimed := &mmodel.CommandQueueItem{ID: uuid.NewString(), Status: constant.QueueItemProcessing}
	sm.command.EXPECT().
		Claim(gomock.Any(), gomock.Any(), gomock.Any(), "1.2.3").
		DoAndReturn(func(ctx context.Context, item *mmodel.CommandQueueItem, processorID, version string) (*mmodel.CommandQueueItem, error) {
			assert.Contains(t, processorID, "event_queue:sync:")
			return claimed, nil
		})

	sm.account.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, acc *mmodel.Account) (*mmodel.Account, error) {
			return acc, nil
		})
	passthroughJournal(sm.journal, sm.fanout)

	written := captureOutcome(sm.command)

	refreshed := &mmodel.Command{ID: "refreshed"}
	sm.command.EXPECT().Find(gomock.Any(), uuid.MustParse(testInstanceID), gomock.Any()).Return(refreshed, nil)

	uc := sm.submitUseCase()

	projection, cmd, err := uc.ProcessCommandSync(context.Background(), accountCreateParams(), OnErrorRetry)
	require.NoError(t, err)

	require.NotNil(t, projection)
	require.NotNil(t, projection.Account)
	assert.Equal(t, "app.cash", projection.Account.Address)
	assert.Equal(t, created.InstanceID, projection.Account.InstanceID)

	assert.Same(t, refreshed, cmd, "the returned command reflects the recorded outcome")
	assert.Equal(t, constant.QueueItemProcessed, written.Status)
}

func TestProcessCommandSyncRetryClaimLost(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sm := newSubmitMocks(ctrl)
	sm.instance.EXPECT().FindByAddress(gomock.Any(), "treasury").Return(testInstance(), nil)
	sm.redis.EXPECT().SetNX(gomock.Any(), gomock.Any(), "", gomock.Any()).Return(true, nil)
	sm.expectPersist()
	sm.redis.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	sm.command.EXPECT().Claim(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, constant.ErrAlreadyClaimed)

	refreshed := &mmodel.Command{ID: "refreshed"}
	sm.command.EXPECT().Find(gomock.Any(), gomock.Any(), gomock.Any()).Return(refreshed, nil)

	uc := sm.submitUseCase()

	projection, cmd, err := uc.ProcessCommandSync(context.Background(), accountCreateParams(), OnErrorRetry)
	require.NoError(t, err)
	assert.Nil(t, projection, "a queue processor owns the outcome now")
	assert.Same(t, refreshed, cmd)
}

func TestProcessCommandSyncRetryBusinessFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sm := newSubmitMocks(ctrl)
	sm.instance.EXPECT().FindByAddress(gomock.Any(), "treasury").Return(testInstance(), nil)
	sm.redis.EXPECT().SetNX(gomock.Any(), gomock.Any(), "", gomock.Any()).Return(true, nil)
	sm.expectPersist()
	sm.redis.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	claimed := &mmodel.CommandQueueItem{ID: uuid.NewString(), Status: constant.QueueItemProcessing}
	sm.command.EXPECT().Claim(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(claimed, nil)

	conflict := pkg.ValidateBusinessError(constant.ErrAccountAddressConflict, constant.EntityAccount, "app.cash")
	sm.account.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, conflict)

	written := captureOutcome(sm.command)

	sm.command.EXPECT().Find(gomock.Any(), gomock.Any(), gomock.Any()).Return(&mmodel.Command{ID: "refreshed"}, nil)

	uc := sm.submitUseCase()

	projection, cmd, err := uc.ProcessCommandSync(context.Background(), accountCreateParams(), OnErrorRetry)
	require.Error(t, err)
	assert.Equal(t, constant.ErrAccountAddressConflict.Error(), businessCode(t, err))
	assert.Nil(t, projection)
	assert.NotNil(t, cmd, "the command survives the failure in retry mode")
	assert.Equal(t, constant.QueueItemDeadLetter, written.Status)
}

func TestProcessCommandSyncFail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sm := newSubmitMocks(ctrl)
	sm.instance.EXPECT().FindByAddress(gomock.Any(), "treasury").Return(testInstance(), nil)

	created, _ := sm.expectPersist()

	claimed := &mmodel.CommandQueueItem{ID: uuid.NewString(), Status: constant.QueueItemProcessing}
	sm.command.EXPECT().Claim(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(claimed, nil)

	sm.account.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, acc *mmodel.Account) (*mmodel.Account, error) {
			return acc, nil
		})
	passthroughJournal(sm.journal, sm.fanout)

	written := captureOutcome(sm.command)

	sm.redis.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	refreshed := &mmodel.Command{ID: "refreshed"}
	sm.command.EXPECT().Find(gomock.Any(), gomock.Any(), gomock.Any()).Return(refreshed, nil)

	uc := sm.submitUseCase()

	projection, cmd, err := uc.ProcessCommandSync(context.Background(), accountCreateParams(), OnErrorFail)
	require.NoError(t, err)

	require.NotNil(t, projection)
	assert.Equal(t, "app.cash", projection.Account.Address)
	assert.NotEmpty(t, created.ID)

	assert.Equal(t, claimed.ID, written.ID)
	assert.Equal(t, constant.QueueItemProcessed, written.Status)
	assert.NotNil(t, written.ProcessingCompletedAt)
	assert.Same(t, refreshed, cmd)
}

func TestProcessCommandSyncFailRollsBackOnBusinessError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sm := newSubmitMocks(ctrl)
	sm.instance.EXPECT().FindByAddress(gomock.Any(), "treasury").Return(testInstance(), nil)
	sm.expectPersist()

	claimed := &mmodel.CommandQueueItem{ID: uuid.NewString(), Status: constant.QueueItemProcessing}
	sm.command.EXPECT().Claim(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(claimed, nil)

	conflict := pkg.ValidateBusinessError(constant.ErrAccountAddressConflict, constant.EntityAccount, "app.cash")
	sm.account.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, conflict)

	uc := sm.submitUseCase()

	// No queue item write, no cache write, no refresh: the transaction rolls
	// back whole and nothing survives.
	projection, cmd, err := uc.ProcessCommandSync(context.Background(), accountCreateParams(), OnErrorFail)
	require.Error(t, err)
	assert.Equal(t, constant.ErrAccountAddressConflict.Error(), businessCode(t, err))
	assert.Nil(t, projection)
	assert.Nil(t, cmd)
}

func TestProcessCommandSyncFailStaleVersion(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sm := newSubmitMocks(ctrl)
	sm.instance.EXPECT().FindByAddress(gomock.Any(), "treasury").Return(testInstance(), nil)
	sm.expectPersist()

	claimed := &mmodel.CommandQueueItem{ID: uuid.NewString(), Status: constant.QueueItemProcessing}
	sm.command.EXPECT().Claim(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(claimed, nil)

	sm.account.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, constant.ErrStaleVersion)

	uc := sm.submitUseCase()

	_, _, err := uc.ProcessCommandSync(context.Background(), accountCreateParams(), OnErrorFail)
	require.Error(t, err)

	var internalErr pkg.InternalServerError

	require.ErrorAs(t, err, &internalErr)
	assert.Equal(t, "Concurrent Modification", internalErr.Title)
}
