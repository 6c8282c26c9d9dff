package vulkan

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeCallSerializesGroup(t *testing.T) {
	pool := NewVulkanLockPool()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.SafeCall(QueueManagement, func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestSafeCallReturnsError(t *testing.T) {
	pool := NewVulkanLockPool()
	boom := errors.New("boom")
	assert.ErrorIs(t, pool.SafeCall(SwapchainManagement, func() error { return boom }), boom)
	// the lock is released after an error
	assert.NoError(t, pool.SafeCall(SwapchainManagement, func() error { return nil }))
}
