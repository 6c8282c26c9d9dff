package vulkan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVulkanSafeString(t *testing.T) {
	assert.Equal(t, "\x00", VulkanSafeString(""))
	assert.Equal(t, "lantern\x00", VulkanSafeString("lantern"))
	assert.Equal(t, "lantern\x00", VulkanSafeString("lantern\x00"))
	assert.Equal(t, []string{"a\x00", "b\x00"}, VulkanSafeStrings([]string{"a", "b\x00"}))
}

func TestFindFirstZeroInByteArray(t *testing.T) {
	assert.Equal(t, 3, FindFirstZeroInByteArray([]byte{'a', 'b', 'c', 0, 'd'}))
	assert.Equal(t, 2, FindFirstZeroInByteArray([]byte{'a', 'b'}))
	assert.Equal(t, 0, FindFirstZeroInByteArray([]byte{0}))
}

func TestVulkanResultIsSuccess(t *testing.T) {
	assert.True(t, VulkanResultIsSuccess(0))
	assert.Equal(t, "VK_SUCCESS", VulkanResultString(0, false))
}
