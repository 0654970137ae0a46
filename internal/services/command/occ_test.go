package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/CroesusLabs/croesus/internal/adapters/postgres/command"
	"github.com/CroesusLabs/croesus/internal/services"
	"github.com/CroesusLabs/croesus/pkg/constant"
)

func passthroughTx() services.TxRunner {
	return services.TxRunnerFunc(func(ctx context.Context, fn func(ctx context.Context) error) error {
		return fn(ctx)
	})
}

func TestRunWithOCCFirstAttempt(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc := UseCase{
		CommandRepo: command.NewMockRepository(ctrl),
		Tx:          passthroughTx(),
		OCC: OCCOptions{
			MaxRetries:   5,
			BaseInterval: 10 * time.Millisecond,
			Sleep: func(ctx context.Context, d time.Duration) error {
				t.Fatal("no conflict, nothing to wait for")
				return nil
			},
		},
	}

	calls := 0
	err := uc.runWithOCC(context.Background(), uuid.New(), func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunWithOCCConflictThenSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	itemID := uuid.New()
	mockCommandRepo := command.NewMockRepository(ctrl)
	mockCommandRepo.EXPECT().
		AppendOCCConflict(gomock.Any(), itemID, "OCC conflict detected, retrying in the background. 4 attempts left").
		Return(nil).
		Times(1)

	var slept []time.Duration

	uc := UseCase{
		CommandRepo: mockCommandRepo,
		Tx:          passthroughTx(),
		OCC: OCCOptions{
			MaxRetries:   5,
			BaseInterval: 10 * time.Millisecond,
			Sleep: func(ctx context.Context, d time.Duration) error {
				slept = append(slept, d)
				return nil
			},
		},
	}

	calls := 0
	err := uc.runWithOCC(context.Background(), itemID, func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return constant.ErrStaleVersion
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []time.Duration{10 * time.Millisecond}, slept)
}

func TestRunWithOCCExhaustsRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	itemID := uuid.New()
	mockCommandRepo := command.NewMockRepository(ctrl)

	var recorded []string

	mockCommandRepo.EXPECT().
		AppendOCCConflict(gomock.Any(), itemID, gomock.Any()).
		DoAndReturn(func(ctx context.Context, id uuid.UUID, message string) error {
			recorded = append(recorded, message)
			return nil
		}).
		Times(3)

	var slept []time.Duration

	uc := UseCase{
		CommandRepo: mockCommandRepo,
		Tx:          passthroughTx(),
		OCC: OCCOptions{
			MaxRetries:   3,
			BaseInterval: 10 * time.Millisecond,
			Sleep: func(ctx context.Context, d time.Duration) error {
				slept = append(slept, d)
				return nil
			},
		},
	}

	err := uc.runWithOCC(context.Background(), itemID, func(ctx context.Context) error {
		return constant.ErrStaleVersion
	})

	require.ErrorIs(t, err, constant.ErrOCCTimeout)
	assert.Equal(t, []string{
		"OCC conflict detected, retrying in the background. 2 attempts left",
		"OCC conflict detected, retrying in the background. 1 attempts left",
		"OCC conflict detected, retrying in the background. 0 attempts left",
	}, recorded)
	assert.Equal(t, []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		30 * time.Millisecond,
	}, slept, "the wait grows linearly with the attempt number")
}

func TestRunWithOCCOtherErrorsPassThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	boom := errors.New("connection refused")

	uc := UseCase{
		CommandRepo: command.NewMockRepository(ctrl),
		Tx:          passthroughTx(),
		OCC:         OCCOptions{MaxRetries: 5, BaseInterval: 10 * time.Millisecond},
	}

	calls := 0
	err := uc.runWithOCC(context.Background(), uuid.New(), func(ctx context.Context) error {
		calls++
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls, "only stale version conflicts retry")
}

func TestRunWithOCCAppendFailureStillRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	itemID := uuid.New()
	mockCommandRepo := command.NewMockRepository(ctrl)
	mockCommandRepo.EXPECT().
		AppendOCCConflict(gomock.Any(), itemID, gomock.Any()).
		Return(errors.New("queue item gone")).
		Times(1)

	uc := UseCase{
		CommandRepo: mockCommandRepo,
		Tx:          passthroughTx(),
		OCC: OCCOptions{
			MaxRetries:   5,
			BaseInterval: 10 * time.Millisecond,
			Sleep:        func(ctx context.Context, d time.Duration) error { return nil },
		},
	}

	calls := 0
	err := uc.runWithOCC(context.Background(), itemID, func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return constant.ErrStaleVersion
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRunWithOCCSleepAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	itemID := uuid.New()
	mockCommandRepo := command.NewMockRepository(ctrl)
	mockCommandRepo.EXPECT().AppendOCCConflict(gomock.Any(), itemID, gomock.Any()).Return(nil)

	uc := UseCase{
		CommandRepo: mockCommandRepo,
		Tx:          passthroughTx(),
		OCC: OCCOptions{
			MaxRetries:   5,
			BaseInterval: 10 * time.Millisecond,
			Sleep: func(ctx context.Context, d time.Duration) error {
				return context.Canceled
			},
		},
	}

	err := uc.runWithOCC(context.Background(), itemID, func(ctx context.Context) error {
		return constant.ErrStaleVersion
	})

	require.ErrorIs(t, err, context.Canceled)
}
