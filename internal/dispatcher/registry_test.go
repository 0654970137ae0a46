package dispatcher

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnStub(instanceID uuid.UUID) func() *Processor {
	return func() *Processor {
		return newProcessor(nil, nil, instanceID, DefaultOptions())
	}
}

func TestRegistryEnsureIsUniquePerInstance(t *testing.T) {
	var registry Registry

	instanceID := uuid.New()

	const racers = 16

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		returned []*Processor
		started  int
	)

	for i := 0; i < racers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			processor, fresh := registry.Ensure(instanceID, spawnStub(instanceID))

			mu.Lock()
			defer mu.Unlock()

			returned = append(returned, processor)

			if fresh {
				started++
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, started, "exactly one racer wins the slot")

	for _, processor := range returned {
		assert.Same(t, returned[0], processor, "every racer sees the same processor")
	}
}

func TestRegistryEnsureKeepsInstancesApart(t *testing.T) {
	var registry Registry

	firstID, secondID := uuid.New(), uuid.New()

	first, startedFirst := registry.Ensure(firstID, spawnStub(firstID))
	second, startedSecond := registry.Ensure(secondID, spawnStub(secondID))

	assert.True(t, startedFirst)
	assert.True(t, startedSecond)
	assert.NotSame(t, first, second)
}

func TestRegistryReleaseFreesSlot(t *testing.T) {
	var registry Registry

	instanceID := uuid.New()

	first, started := registry.Ensure(instanceID, spawnStub(instanceID))
	require.True(t, started)

	assert.True(t, registry.release(instanceID, first))

	second, started := registry.Ensure(instanceID, spawnStub(instanceID))
	assert.True(t, started, "a released slot accepts a fresh processor")
	assert.NotSame(t, first, second)
}

func TestRegistryReleaseIgnoresReplacedSlot(t *testing.T) {
	var registry Registry

	instanceID := uuid.New()

	first, _ := registry.Ensure(instanceID, spawnStub(instanceID))
	require.True(t, registry.release(instanceID, first))

	second, _ := registry.Ensure(instanceID, spawnStub(instanceID))

	assert.False(t, registry.release(instanceID, first), "a stale release cannot evict the successor")

	current, started := registry.Ensure(instanceID, spawnStub(instanceID))
	assert.False(t, started)
	assert.Same(t, second, current)
}
