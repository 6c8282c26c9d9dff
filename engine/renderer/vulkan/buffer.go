package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// VulkanBuffer is a host visible buffer that stays mapped for its lifetime.
type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   uint64

	mapped unsafe.Pointer
}

func NewStagingBuffer(context *VulkanContext, size uint64) (*VulkanBuffer, error) {
	device := context.Device.LogicalDevice
	b := &VulkanBuffer{Size: size}

	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		SharingMode: vk.SharingModeExclusive,
	}
	if res := vk.CreateBuffer(device, &createInfo, context.Allocator, &b.Handle); res != vk.Success {
		return nil, fmt.Errorf("failed to create staging buffer: %s", VulkanResultString(res, false))
	}

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device, b.Handle, &requirements)
	requirements.Deref()

	flags := uint32(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	index := context.FindMemoryIndex(requirements.MemoryTypeBits, flags)
	if index == -1 {
		b.Destroy(context)
		return nil, fmt.Errorf("no host visible memory type for the staging buffer")
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(index),
	}
	if res := vk.AllocateMemory(device, &allocateInfo, context.Allocator, &b.Memory); res != vk.Success {
		b.Destroy(context)
		return nil, fmt.Errorf("failed to allocate staging memory: %s", VulkanResultString(res, false))
	}
	if res := vk.BindBufferMemory(device, b.Handle, b.Memory, 0); res != vk.Success {
		b.Destroy(context)
		return nil, fmt.Errorf("failed to bind staging memory: %s", VulkanResultString(res, false))
	}
	if res := vk.MapMemory(device, b.Memory, 0, vk.DeviceSize(size), 0, &b.mapped); res != vk.Success {
		b.Destroy(context)
		return nil, fmt.Errorf("failed to map staging memory: %s", VulkanResultString(res, false))
	}
	return b, nil
}

// Write copies data to the start of the mapped memory.
func (b *VulkanBuffer) Write(data []byte) error {
	if uint64(len(data)) > b.Size {
		return fmt.Errorf("staging write of %d bytes exceeds buffer size %d", len(data), b.Size)
	}
	vk.Memcopy(b.mapped, data)
	return nil
}

func (b *VulkanBuffer) Destroy(context *VulkanContext) {
	device := context.Device.LogicalDevice
	if b.mapped != nil {
		vk.UnmapMemory(device, b.Memory)
		b.mapped = nil
	}
	if b.Handle != vk.NullBuffer {
		vk.DestroyBuffer(device, b.Handle, context.Allocator)
		b.Handle = vk.NullBuffer
	}
	if b.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(device, b.Memory, context.Allocator)
		b.Memory = vk.NullDeviceMemory
	}
}
