// Package webgpu presents frames through a WebGPU surface. The composited
// frame is written straight into the surface texture.
package webgpu

import (
	"errors"
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/spaghettifunk/lantern/engine/core"
	"github.com/spaghettifunk/lantern/engine/platform"
	"github.com/spaghettifunk/lantern/engine/renderer"
)

func init() {
	renderer.Register(renderer.WebGPU, func(opts renderer.DeviceOptions) (renderer.Device, error) {
		return New(opts)
	})
}

type Device struct {
	platform   *platform.Platform
	compositor *renderer.Compositor

	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	format    wgpu.TextureFormat
	alphaMode wgpu.CompositeAlphaMode
	width     int
	height    int

	canvas *renderer.Surface
	pixels *image.RGBA
	upload []byte
	frame  uint64
	debug  bool
}

func New(opts renderer.DeviceOptions) (*Device, error) {
	p, ok := opts.Window.(*platform.Platform)
	if !ok || p == nil || p.Window == nil {
		return nil, errors.New("the WebGPU backend needs a platform window")
	}
	fs, err := renderer.LoadFont(opts.FontPath)
	if err != nil {
		core.LogWarn("overlay font %s unavailable, using the default face: %s", opts.FontPath, err)
		fs = renderer.DefaultFont()
	}

	d := &Device{
		platform:   p,
		compositor: renderer.NewCompositor(fs),
		debug:      opts.DebugDevice,
	}
	if err := d.initialize(opts); err != nil {
		d.Shutdown()
		return nil, err
	}
	return d, nil
}

func (d *Device) initialize(opts renderer.DeviceOptions) error {
	d.instance = wgpu.CreateInstance(nil)
	d.surface = d.instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(d.platform.Window))
	if d.surface == nil {
		return errors.New("failed to create the WebGPU surface")
	}

	adapter, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: d.surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("failed to request a WebGPU adapter: %w", err)
	}
	d.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: opts.AppName + " device",
	})
	if err != nil {
		return fmt.Errorf("failed to request a WebGPU device: %w", err)
	}
	d.device = device
	d.queue = device.GetQueue()

	capabilities := d.surface.GetCapabilities(d.adapter)
	if len(capabilities.Formats) == 0 {
		return errors.New("the WebGPU surface reports no formats")
	}
	d.format = chooseFormat(capabilities.Formats)
	d.alphaMode = wgpu.CompositeAlphaModeAuto
	if len(capabilities.AlphaModes) > 0 {
		d.alphaMode = capabilities.AlphaModes[0]
	}

	w, h := d.platform.FramebufferSize()
	if w <= 0 || h <= 0 {
		w, h = opts.Width, opts.Height
	}
	d.configure(w, h)

	core.LogInfo("WebGPU renderer initialized successfully (format %v).", d.format)
	return nil
}

// chooseFormat prefers the 8 bit layouts the CPU upload can write.
func chooseFormat(formats []wgpu.TextureFormat) wgpu.TextureFormat {
	for _, f := range formats {
		switch f {
		case wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatRGBA8Unorm,
			wgpu.TextureFormatBGRA8UnormSrgb, wgpu.TextureFormatRGBA8UnormSrgb:
			return f
		}
	}
	return formats[0]
}

func isBGRA(f wgpu.TextureFormat) bool {
	return f == wgpu.TextureFormatBGRA8Unorm || f == wgpu.TextureFormatBGRA8UnormSrgb
}

func (d *Device) configure(width, height int) {
	d.surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopyDst,
		Format:      d.format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   d.alphaMode,
	})
	d.width, d.height = width, height
	d.pixels = image.NewRGBA(image.Rect(0, 0, width, height))
	d.upload = make([]byte, len(d.pixels.Pix))
	core.LogDebug("WebGPU surface configured: w/h: %d/%d", width, height)
}

func (d *Device) BeginFrame() *renderer.Surface {
	if w, h := d.platform.FramebufferSize(); w > 0 && h > 0 && (w != d.width || h != d.height) {
		d.WaitForIdle()
		d.configure(w, h)
	}
	d.frame++
	if d.canvas == nil {
		d.canvas = renderer.NewSurface(d.width, d.height, d.frame)
	}
	d.canvas.Reset(d.frame)
	d.canvas.Width = d.width
	d.canvas.Height = d.height
	return d.canvas
}

func (d *Device) PresentBegin(s *renderer.Surface) {}

func (d *Device) PresentEnd(s *renderer.Surface) {
	if err := d.present(s); err != nil {
		core.LogError("frame %d: %s", s.Frame, err)
	}
}

func (d *Device) present(s *renderer.Surface) error {
	d.compositor.RasterizeInto(d.pixels, s)

	texture, err := d.surface.GetCurrentTexture()
	if err != nil {
		// usually an outdated surface, reconfigure on the next frame
		d.width, d.height = 0, 0
		return fmt.Errorf("failed to acquire the surface texture: %w", err)
	}
	defer texture.Release()

	data := d.pixels.Pix
	if isBGRA(d.format) {
		renderer.SwizzleRGBAToBGRA(d.upload, d.pixels.Pix)
		data = d.upload
	}

	d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Aspect:   wgpu.TextureAspectAll,
			Texture:  texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: 0, Y: 0, Z: 0},
		},
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  4 * uint32(d.width),
			RowsPerImage: uint32(d.height),
		},
		&wgpu.Extent3D{
			Width:              uint32(d.width),
			Height:             uint32(d.height),
			DepthOrArrayLayers: 1,
		},
	)

	// queued writes are flushed by the next submission
	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()
	cmdBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer cmdBuffer.Release()
	d.queue.Submit(cmdBuffer)

	d.surface.Present()
	return nil
}

// Snapshot copies the last composited frame.
func (d *Device) Snapshot() *image.RGBA {
	return renderer.CloneRGBA(d.pixels)
}

// WaitForIdle blocks until the queue has drained.
func (d *Device) WaitForIdle() {
	if d.device == nil {
		return
	}
	d.device.Poll(true, nil)
}

func (d *Device) ScreenWidth() int  { return d.width }
func (d *Device) ScreenHeight() int { return d.height }

func (d *Device) IsDebugDevice() bool {
	return d.debug
}

func (d *Device) Kind() renderer.BackendKind {
	return renderer.WebGPU
}

func (d *Device) Shutdown() error {
	d.WaitForIdle()
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.surface != nil {
		d.surface.Release()
		d.surface = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
	core.LogDebug("WebGPU device released.")
	return nil
}

var (
	_ renderer.Device      = (*Device)(nil)
	_ renderer.Snapshotter = (*Device)(nil)
)
