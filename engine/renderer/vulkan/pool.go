package vulkan

import "sync"

type LockGroup string

const (
	QueueManagement     LockGroup = "queue_management"
	SwapchainManagement LockGroup = "swapchain_management"
)

// VulkanLockPool serializes access to the handles Vulkan requires external
// synchronization for. WaitForIdle may be called from another goroutine than
// the one presenting frames.
type VulkanLockPool struct {
	locks map[LockGroup]*sync.Mutex
	mu    sync.Mutex // Protects access to the locks map
}

func NewVulkanLockPool() *VulkanLockPool {
	return &VulkanLockPool{
		locks: make(map[LockGroup]*sync.Mutex),
	}
}

// Get or create a mutex for a specific group
func (vs *VulkanLockPool) lock(group LockGroup) *sync.Mutex {
	vs.mu.Lock()
	if _, exists := vs.locks[group]; !exists {
		vs.locks[group] = &sync.Mutex{}
	}
	l := vs.locks[group]
	vs.mu.Unlock()

	l.Lock()
	return l
}

func (vs *VulkanLockPool) SafeCall(group LockGroup, fn func() error) error {
	l := vs.lock(group)
	defer l.Unlock()

	return fn()
}
