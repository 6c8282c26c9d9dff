package renderer

import (
	"fmt"
	"image"
	"sort"
	"strings"
	"sync"

	"github.com/spaghettifunk/lantern/engine/core"
	"github.com/spaghettifunk/lantern/engine/jobs"
)

// BackendKind names the graphics API a Device was created with. It is fixed at
// creation time.
type BackendKind uint8

const (
	Vulkan BackendKind = iota
	WebGPU
	Headless
)

func (k BackendKind) String() string {
	switch k {
	case Vulkan:
		return "Vulkan"
	case WebGPU:
		return "WebGPU"
	case Headless:
		return "Headless"
	}
	return fmt.Sprintf("BackendKind(%d)", uint8(k))
}

// ParseBackendKind maps a configuration value to a BackendKind.
func ParseBackendKind(name string) (BackendKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "vulkan", "vk":
		return Vulkan, nil
	case "webgpu", "wgpu":
		return WebGPU, nil
	case "headless", "none":
		return Headless, nil
	}
	return 0, fmt.Errorf("%w: %q", core.ErrUnknownBackend, name)
}

// Device is the presentation side of a graphics backend.
type Device interface {
	// BeginFrame hands out the surface the frame is composed into.
	BeginFrame() *Surface
	PresentBegin(s *Surface)
	PresentEnd(s *Surface)
	// WaitForIdle blocks until every submitted frame has been processed.
	WaitForIdle()
	ScreenWidth() int
	ScreenHeight() int
	IsDebugDevice() bool
	Kind() BackendKind
	Shutdown() error
}

type DeviceOptions struct {
	Kind        BackendKind
	AppName     string
	Width       int
	Height      int
	DebugDevice bool
	// Optional overlay font, see LoadFont.
	FontPath string
	// Nil for the headless backend. GPU backends expect a *platform.Platform.
	Window Window
	// Worker pool for background frame work. Backends create their own when nil.
	Jobs *jobs.JobSystem
	// Headless only.
	DumpDir   string
	DumpEvery int
}

// Snapshotter is implemented by devices that can hand out a copy of the last
// presented frame.
type Snapshotter interface {
	Snapshot() *image.RGBA
}

// Window is the part of the platform window the device selection needs.
type Window interface {
	FramebufferSize() (int, int)
}

type Factory func(opts DeviceOptions) (Device, error)

var (
	factoriesMutex sync.RWMutex
	factories      = map[BackendKind]Factory{}
)

// Register makes a backend available to CreateDevice. Backend packages call it
// from their init function.
func Register(kind BackendKind, f Factory) {
	factoriesMutex.Lock()
	defer factoriesMutex.Unlock()
	if f == nil {
		panic("renderer: Register factory is nil")
	}
	if _, dup := factories[kind]; dup {
		panic("renderer: Register called twice for backend " + kind.String())
	}
	factories[kind] = f
}

// Backends lists the registered backend kinds.
func Backends() []BackendKind {
	factoriesMutex.RLock()
	defer factoriesMutex.RUnlock()
	kinds := make([]BackendKind, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// SelectBackend picks the backend from the startup arguments first and falls
// back to the configured name, then to Vulkan.
func SelectBackend(args *core.StartupArguments, configured string) (BackendKind, error) {
	switch {
	case args.Has("vulkan"):
		return Vulkan, nil
	case args.Has("webgpu"):
		return WebGPU, nil
	case args.Has("headless"):
		return Headless, nil
	}
	if configured == "" {
		return Vulkan, nil
	}
	return ParseBackendKind(configured)
}

// CreateDevice builds the device for opts.Kind.
func CreateDevice(opts DeviceOptions) (Device, error) {
	factoriesMutex.RLock()
	f, ok := factories[opts.Kind]
	factoriesMutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s is not compiled in", core.ErrBackendUnavailable, opts.Kind)
	}

	dev, err := f(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrBackendUnavailable, opts.Kind, err)
	}
	core.LogInfo("created %s device (%dx%d, debug=%t)", dev.Kind(), dev.ScreenWidth(), dev.ScreenHeight(), dev.IsDebugDevice())
	return dev, nil
}
