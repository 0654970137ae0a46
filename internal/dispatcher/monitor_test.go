package dispatcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/CroesusLabs/croesus/internal/adapters/postgres/command"
)

func TestMonitorPollSpawnsProcessor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCommandRepo := command.NewMockRepository(ctrl)

	instanceID := uuid.New()

	mockCommandRepo.EXPECT().
		RevertStalled(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(int64(0), nil)

	mockCommandRepo.EXPECT().
		InstancesWithReadyWork(gomock.Any(), gomock.Any()).
		Return([]uuid.UUID{instanceID}, nil)

	var calls atomic.Int32

	driver := driverFunc(func(ctx context.Context, id uuid.UUID, processorID string) (bool, error) {
		calls.Add(1)

		assert.Equal(t, instanceID, id)
		assert.Contains(t, processorID, "event_queue:"+instanceID.String()+":")

		return false, nil
	})

	monitor := NewMonitor(mockCommandRepo, driver, Options{})

	monitor.poll(context.Background())

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		_, found := monitor.registry.slots.Load(instanceID)
		return !found
	}, time.Second, 5*time.Millisecond, "the drained processor retires and frees its slot")
}

func TestMonitorDispatchWakesLiveProcessor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCommandRepo := command.NewMockRepository(ctrl)

	instanceID := uuid.New()

	mockCommandRepo.EXPECT().
		RevertStalled(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(int64(0), nil).
		Times(2)

	mockCommandRepo.EXPECT().
		InstancesWithReadyWork(gomock.Any(), gomock.Any()).
		Return([]uuid.UUID{instanceID}, nil).
		Times(2)

	driver := newGatedDriver()
	monitor := NewMonitor(mockCommandRepo, driver, Options{})

	monitor.poll(context.Background())

	require.Eventually(t, func() bool { return driver.callCount() == 1 }, time.Second, 5*time.Millisecond)

	// The processor is mid-command; a second poll must wake it, not spawn a
	// twin.
	monitor.poll(context.Background())

	driver.gate <- driverResult{more: false}
	driver.gate <- driverResult{more: false}

	require.Eventually(t, func() bool {
		_, found := monitor.registry.slots.Load(instanceID)
		return !found
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 2, driver.callCount(), "the second poll woke the live processor for one more pass")
}

func TestMonitorSweepRevertsStalled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCommandRepo := command.NewMockRepository(ctrl)

	threshold := 7 * time.Minute

	mockCommandRepo.EXPECT().
		RevertStalled(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, stalledBefore time.Time, message string) (int64, error) {
			expected := time.Now().UTC().Add(-threshold)

			assert.WithinDuration(t, expected, stalledBefore, 2*time.Second)
			assert.Contains(t, message, "stalled")
			assert.Contains(t, message, threshold.String())

			return int64(3), nil
		})

	mockCommandRepo.EXPECT().
		InstancesWithReadyWork(gomock.Any(), gomock.Any()).
		Return(nil, nil)

	monitor := NewMonitor(mockCommandRepo, nil, Options{StallThreshold: threshold})

	monitor.poll(context.Background())
}

func TestMonitorPollSurvivesListError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCommandRepo := command.NewMockRepository(ctrl)

	instanceID := uuid.New()

	mockCommandRepo.EXPECT().
		RevertStalled(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(int64(0), nil).
		Times(2)

	gomock.InOrder(
		mockCommandRepo.EXPECT().
			InstancesWithReadyWork(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("connection refused")),
		mockCommandRepo.EXPECT().
			InstancesWithReadyWork(gomock.Any(), gomock.Any()).
			Return([]uuid.UUID{instanceID}, nil),
	)

	var calls atomic.Int32

	driver := driverFunc(func(ctx context.Context, id uuid.UUID, processorID string) (bool, error) {
		calls.Add(1)

		return false, nil
	})

	monitor := NewMonitor(mockCommandRepo, driver, Options{})

	monitor.poll(context.Background())
	assert.Equal(t, int32(0), calls.Load(), "a failed listing dispatches nothing")

	monitor.poll(context.Background())

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestMonitorRunStopsOnShutdown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCommandRepo := command.NewMockRepository(ctrl)

	mockCommandRepo.EXPECT().
		RevertStalled(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(int64(0), nil).
		AnyTimes()

	mockCommandRepo.EXPECT().
		InstancesWithReadyWork(gomock.Any(), gomock.Any()).
		Return(nil, nil).
		AnyTimes()

	monitor := NewMonitor(mockCommandRepo, nil, Options{PollInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())

	finished := make(chan error, 1)

	go func() {
		finished <- monitor.Run(ctx)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-finished:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop after shutdown")
	}
}
