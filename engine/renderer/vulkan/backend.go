package vulkan

import (
	"errors"
	"fmt"
	"image"
	"math"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lantern/engine/core"
	"github.com/spaghettifunk/lantern/engine/platform"
	"github.com/spaghettifunk/lantern/engine/renderer"
)

func init() {
	renderer.Register(renderer.Vulkan, func(opts renderer.DeviceOptions) (renderer.Device, error) {
		return New(opts)
	})
}

// VulkanRenderer presents the composited frame by copying it into the
// swapchain image through a staging buffer.
type VulkanRenderer struct {
	platform   *platform.Platform
	context    *VulkanContext
	compositor *renderer.Compositor
	surface    *renderer.Surface
	pixels     *image.RGBA
	upload     []byte

	FrameNumber uint64
	debug       bool
}

func New(opts renderer.DeviceOptions) (*VulkanRenderer, error) {
	p, ok := opts.Window.(*platform.Platform)
	if !ok || p == nil || p.Window == nil {
		return nil, errors.New("the Vulkan backend needs a platform window")
	}
	fs, err := renderer.LoadFont(opts.FontPath)
	if err != nil {
		core.LogWarn("overlay font %s unavailable, using the default face: %s", opts.FontPath, err)
		fs = renderer.DefaultFont()
	}

	vr := &VulkanRenderer{
		platform:   p,
		compositor: renderer.NewCompositor(fs),
		context: &VulkanContext{
			Allocator: nil,
			Locks:     NewVulkanLockPool(),
		},
		debug: opts.DebugDevice,
	}
	if err := vr.initialize(opts.AppName, uint32(opts.Width), uint32(opts.Height)); err != nil {
		vr.Shutdown()
		return nil, err
	}
	return vr, nil
}

func (vr *VulkanRenderer) initialize(appName string, appWidth, appHeight uint32) error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return fmt.Errorf("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		return fmt.Errorf("failed to initialize vk: %w", err)
	}

	if w, h := vr.platform.FramebufferSize(); w > 0 && h > 0 {
		appWidth, appHeight = uint32(w), uint32(h)
	}
	vr.context.FramebufferWidth = appWidth
	vr.context.FramebufferHeight = appHeight

	if err := vr.createInstance(appName); err != nil {
		return err
	}

	// Surface
	core.LogDebug("Creating Vulkan surface...")
	surface, err := vr.platform.Window.CreateWindowSurface(vr.context.Instance, nil)
	if err != nil {
		return fmt.Errorf("vulkan surface creation failed: %w", err)
	}
	vr.context.Surface = vk.SurfaceFromPointer(surface)
	core.LogDebug("Vulkan surface created.")

	if err := DeviceCreate(vr.context); err != nil {
		return err
	}

	sc, err := SwapchainCreate(vr.context, vr.context.FramebufferWidth, vr.context.FramebufferHeight)
	if err != nil {
		return err
	}
	vr.context.Swapchain = sc

	if err := vr.createFrameResources(); err != nil {
		return err
	}
	if err := vr.createStagingBuffers(); err != nil {
		return err
	}

	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (vr *VulkanRenderer) createInstance(appName string) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("Lantern"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	// Obtain a list of required extensions
	requiredExtensions := vr.platform.RequiredVulkanExtensions()
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		createInfo.Flags |= 1 // VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
	}

	var layers []string
	if vr.debug {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
		// Validation layers are only requested for debug devices.
		if hasInstanceLayer("VK_LAYER_KHRONOS_validation") {
			layers = append(layers, "VK_LAYER_KHRONOS_validation")
			core.LogInfo("Validation layers enabled.")
		} else {
			core.LogWarn("Required validation layer is missing: VK_LAYER_KHRONOS_validation")
		}
	}
	for _, e := range requiredExtensions {
		core.LogDebug("Required extension: %s", e)
	}

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, vr.context.Allocator, &instance); res != vk.Success {
		return fmt.Errorf("failed in creating the Vulkan Instance with error `%s`", VulkanResultString(res, true))
	}
	vr.context.Instance = instance
	if err := vk.InitInstance(vr.context.Instance); err != nil {
		return err
	}
	core.LogInfo("Vulkan Instance created.")

	if vr.debug {
		core.LogDebug("Creating Vulkan debugger...")
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(vr.context.Instance, &debugCreateInfo, nil, &dbg)); err != nil {
			// the device works without it
			core.LogWarn("vk.CreateDebugReportCallback failed with %s", err)
		} else {
			vr.context.debugMessenger = dbg
		}
	}
	return nil
}

func hasInstanceLayer(name string) bool {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return false
	}
	available := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, available); res != vk.Success {
		return false
	}
	for i := range available {
		available[i].Deref()
		end := FindFirstZeroInByteArray(available[i].LayerName[:])
		if string(available[i].LayerName[:end]) == name {
			return true
		}
	}
	return false
}

func (vr *VulkanRenderer) createFrameResources() error {
	ctx := vr.context
	frames := int(ctx.Swapchain.MaxFramesInFlight)

	ctx.GraphicsCommandBuffers = make([]*VulkanCommandBuffer, frames)
	ctx.ImageAvailableSemaphores = make([]vk.Semaphore, frames)
	ctx.QueueCompleteSemaphores = make([]vk.Semaphore, frames)
	ctx.InFlightFences = make([]*VulkanFence, frames)

	for i := 0; i < frames; i++ {
		cb, err := NewVulkanCommandBuffer(ctx, ctx.Device.GraphicsCommandPool, true)
		if err != nil {
			return err
		}
		ctx.GraphicsCommandBuffers[i] = cb

		semaphoreCreateInfo := vk.SemaphoreCreateInfo{
			SType: vk.StructureTypeSemaphoreCreateInfo,
		}
		if res := vk.CreateSemaphore(ctx.Device.LogicalDevice, &semaphoreCreateInfo, ctx.Allocator, &ctx.ImageAvailableSemaphores[i]); res != vk.Success {
			return fmt.Errorf("failed to create semaphore on image available")
		}
		if res := vk.CreateSemaphore(ctx.Device.LogicalDevice, &semaphoreCreateInfo, ctx.Allocator, &ctx.QueueCompleteSemaphores[i]); res != vk.Success {
			return fmt.Errorf("failed to create semaphore on queue complete")
		}

		// Create the fence in a signaled state, so the first frame does not
		// wait on a frame that was never submitted.
		f, err := NewFence(ctx, true)
		if err != nil {
			return err
		}
		ctx.InFlightFences[i] = f
	}

	ctx.ImagesInFlight = make([]*VulkanFence, ctx.Swapchain.ImageCount)
	core.LogDebug("Vulkan frame resources created.")
	return nil
}

func (vr *VulkanRenderer) createStagingBuffers() error {
	ctx := vr.context
	for _, b := range ctx.StagingBuffers {
		b.Destroy(ctx)
	}
	width, height := ctx.Swapchain.Extent.Width, ctx.Swapchain.Extent.Height
	size := uint64(width) * uint64(height) * 4

	ctx.StagingBuffers = make([]*VulkanBuffer, ctx.Swapchain.MaxFramesInFlight)
	for i := range ctx.StagingBuffers {
		b, err := NewStagingBuffer(ctx, size)
		if err != nil {
			return err
		}
		ctx.StagingBuffers[i] = b
	}
	vr.pixels = image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	vr.upload = make([]byte, size)
	ctx.FramebufferWidth, ctx.FramebufferHeight = width, height
	return nil
}

func (vr *VulkanRenderer) recreateSwapchain() error {
	ctx := vr.context
	// If already being recreated, do not try again.
	if ctx.RecreatingSwapchain {
		return nil
	}
	w, h := vr.platform.FramebufferSize()
	// Detect if the window is too small to be drawn to
	if w == 0 || h == 0 {
		return errSwapchainOutOfDate
	}

	ctx.RecreatingSwapchain = true
	defer func() { ctx.RecreatingSwapchain = false }()

	vr.WaitForIdle()
	for i := range ctx.ImagesInFlight {
		ctx.ImagesInFlight[i] = nil
	}

	sc, err := ctx.Swapchain.Recreate(ctx, uint32(w), uint32(h))
	if err != nil {
		return err
	}
	ctx.Swapchain = sc
	ctx.ImagesInFlight = make([]*VulkanFence, sc.ImageCount)

	core.LogInfo("Vulkan renderer backend->resized: w/h: %d/%d", sc.Extent.Width, sc.Extent.Height)
	return vr.createStagingBuffers()
}

func (vr *VulkanRenderer) BeginFrame() *renderer.Surface {
	ctx := vr.context
	w, h := vr.platform.FramebufferSize()
	if w > 0 && h > 0 && (uint32(w) != ctx.FramebufferWidth || uint32(h) != ctx.FramebufferHeight) {
		if err := vr.recreateSwapchain(); err != nil && !errors.Is(err, errSwapchainOutOfDate) {
			core.LogError("failed to recreate the swapchain: %s", err)
		}
	}

	vr.FrameNumber++
	if vr.surface == nil {
		vr.surface = renderer.NewSurface(int(ctx.FramebufferWidth), int(ctx.FramebufferHeight), vr.FrameNumber)
	}
	vr.surface.Reset(vr.FrameNumber)
	vr.surface.Width = int(ctx.FramebufferWidth)
	vr.surface.Height = int(ctx.FramebufferHeight)
	return vr.surface
}

// PresentBegin waits until the resources of the current frame slot are free.
func (vr *VulkanRenderer) PresentBegin(s *renderer.Surface) {
	ctx := vr.context
	if err := ctx.InFlightFences[ctx.CurrentFrame].Wait(ctx, math.MaxUint64); err != nil {
		core.LogWarn("in-flight fence wait failure: %s", err)
	}
}

func (vr *VulkanRenderer) PresentEnd(s *renderer.Surface) {
	if err := vr.present(s); err != nil {
		if errors.Is(err, errSwapchainOutOfDate) {
			if err := vr.recreateSwapchain(); err != nil && !errors.Is(err, errSwapchainOutOfDate) {
				core.LogError("failed to recreate the swapchain: %s", err)
			}
			return
		}
		core.LogError("frame %d: %s", s.Frame, err)
	}
}

func (vr *VulkanRenderer) present(s *renderer.Surface) error {
	ctx := vr.context
	frame := ctx.CurrentFrame

	vr.compositor.RasterizeInto(vr.pixels, s)

	imageIndex, err := ctx.Swapchain.AcquireNextImageIndex(ctx, math.MaxUint64, ctx.ImageAvailableSemaphores[frame], vk.NullFence)
	if err != nil {
		return err
	}
	ctx.ImageIndex = imageIndex

	// Make sure the previous frame is not using this image.
	if inFlight := ctx.ImagesInFlight[imageIndex]; inFlight != nil {
		if err := inFlight.Wait(ctx, math.MaxUint64); err != nil {
			return err
		}
	}
	// Mark the image fence as in-use by this frame.
	ctx.ImagesInFlight[imageIndex] = ctx.InFlightFences[frame]

	if ctx.Swapchain.ImageFormat.Format == vk.FormatB8g8r8a8Unorm {
		renderer.SwizzleRGBAToBGRA(vr.upload, vr.pixels.Pix)
	} else {
		copy(vr.upload, vr.pixels.Pix)
	}
	if err := ctx.StagingBuffers[frame].Write(vr.upload); err != nil {
		return err
	}

	cb := ctx.GraphicsCommandBuffers[frame]
	if err := cb.Reset(); err != nil {
		return err
	}
	if err := cb.Begin(true); err != nil {
		return err
	}
	cb.RecordPresentUpload(ctx.StagingBuffers[frame], ctx.Swapchain.Images[imageIndex], ctx.Swapchain.Extent.Width, ctx.Swapchain.Extent.Height)
	if err := cb.End(); err != nil {
		return err
	}

	// Reset the fence for use on the next frame
	if err := ctx.InFlightFences[frame].Reset(ctx); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{ctx.ImageAvailableSemaphores[frame]},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageTransferBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cb.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{ctx.QueueCompleteSemaphores[frame]},
	}

	return ctx.Locks.SafeCall(QueueManagement, func() error {
		if result := vk.QueueSubmit(ctx.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, ctx.InFlightFences[frame].Handle); result != vk.Success {
			return fmt.Errorf("vkQueueSubmit failed with result: %s", VulkanResultString(result, true))
		}
		cb.UpdateSubmitted()
		// Give the image back to the swapchain.
		return ctx.Swapchain.Present(ctx, ctx.Device.PresentQueue, ctx.QueueCompleteSemaphores[frame], imageIndex)
	})
}

// Snapshot copies the last composited frame.
func (vr *VulkanRenderer) Snapshot() *image.RGBA {
	return renderer.CloneRGBA(vr.pixels)
}

// WaitForIdle blocks until the GPU finished every submitted frame.
func (vr *VulkanRenderer) WaitForIdle() {
	ctx := vr.context
	if ctx.Device == nil || ctx.Device.LogicalDevice == nil {
		return
	}
	ctx.Locks.SafeCall(QueueManagement, func() error {
		if res := vk.DeviceWaitIdle(ctx.Device.LogicalDevice); !VulkanResultIsSuccess(res) {
			core.LogError("vkDeviceWaitIdle failed: '%s'", VulkanResultString(res, true))
		}
		return nil
	})
	// fences were signaled by the wait
	for _, f := range ctx.InFlightFences {
		if f != nil {
			f.IsSignaled = true
		}
	}
}

func (vr *VulkanRenderer) ScreenWidth() int  { return int(vr.context.FramebufferWidth) }
func (vr *VulkanRenderer) ScreenHeight() int { return int(vr.context.FramebufferHeight) }

func (vr *VulkanRenderer) IsDebugDevice() bool {
	return vr.debug
}

func (vr *VulkanRenderer) Kind() renderer.BackendKind {
	return renderer.Vulkan
}

// Shutdown destroys everything in the opposite order of creation. It waits for
// the device to go idle first.
func (vr *VulkanRenderer) Shutdown() error {
	ctx := vr.context
	vr.WaitForIdle()

	if ctx.Device != nil && ctx.Device.LogicalDevice != nil {
		for i := range ctx.InFlightFences {
			if ctx.ImageAvailableSemaphores[i] != vk.NullSemaphore {
				vk.DestroySemaphore(ctx.Device.LogicalDevice, ctx.ImageAvailableSemaphores[i], ctx.Allocator)
			}
			if ctx.QueueCompleteSemaphores[i] != vk.NullSemaphore {
				vk.DestroySemaphore(ctx.Device.LogicalDevice, ctx.QueueCompleteSemaphores[i], ctx.Allocator)
			}
			if ctx.InFlightFences[i] != nil {
				ctx.InFlightFences[i].Destroy(ctx)
			}
		}
		for _, cb := range ctx.GraphicsCommandBuffers {
			if cb != nil {
				cb.Free(ctx, ctx.Device.GraphicsCommandPool)
			}
		}
		for _, b := range ctx.StagingBuffers {
			b.Destroy(ctx)
		}
		if ctx.Swapchain != nil {
			ctx.Swapchain.Destroy(ctx)
		}
	}
	ctx.ImageAvailableSemaphores = nil
	ctx.QueueCompleteSemaphores = nil
	ctx.InFlightFences = nil
	ctx.ImagesInFlight = nil
	ctx.GraphicsCommandBuffers = nil
	ctx.StagingBuffers = nil

	core.LogDebug("Destroying Vulkan device...")
	DeviceDestroy(ctx)

	if ctx.Surface != vk.NullSurface {
		core.LogDebug("Destroying Vulkan surface...")
		vk.DestroySurface(ctx.Instance, ctx.Surface, ctx.Allocator)
		ctx.Surface = vk.NullSurface
	}
	if ctx.debugMessenger != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(ctx.Instance, ctx.debugMessenger, ctx.Allocator)
		ctx.debugMessenger = vk.NullDebugReportCallback
	}
	if ctx.Instance != nil {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(ctx.Instance, ctx.Allocator)
		ctx.Instance = nil
	}
	return nil
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}

var (
	_ renderer.Device      = (*VulkanRenderer)(nil)
	_ renderer.Snapshotter = (*VulkanRenderer)(nil)
)
