// Package headless is a Device without a window. Frames are rasterized on the
// job system and kept in memory, optionally dumped to PNG files.
package headless

import (
	"fmt"
	"image"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/spaghettifunk/lantern/engine/core"
	"github.com/spaghettifunk/lantern/engine/helper"
	"github.com/spaghettifunk/lantern/engine/jobs"
	"github.com/spaghettifunk/lantern/engine/renderer"
)

func init() {
	renderer.Register(renderer.Headless, func(opts renderer.DeviceOptions) (renderer.Device, error) {
		return New(opts)
	})
}

type Device struct {
	width  int
	height int
	debug  bool

	compositor *renderer.Compositor
	jobs       *jobs.JobSystem
	ownsJobs   bool

	dumpDir   string
	dumpEvery int

	frame     uint64
	presented atomic.Uint64
	mutex     sync.RWMutex
	last      *image.RGBA
	lastFrame uint64
}

func New(opts renderer.DeviceOptions) (*Device, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid headless resolution %dx%d", opts.Width, opts.Height)
	}
	fs, err := renderer.LoadFont(opts.FontPath)
	if err != nil {
		core.LogWarn("overlay font %s unavailable, using the default face: %s", opts.FontPath, err)
		fs = renderer.DefaultFont()
	}

	d := &Device{
		width:      opts.Width,
		height:     opts.Height,
		debug:      opts.DebugDevice,
		compositor: renderer.NewCompositor(fs),
		jobs:       opts.Jobs,
		dumpDir:    opts.DumpDir,
		dumpEvery:  opts.DumpEvery,
	}
	if d.jobs == nil {
		js, err := jobs.NewJobSystem(2, 4)
		if err != nil {
			return nil, err
		}
		d.jobs = js
		d.ownsJobs = true
	}
	return d, nil
}

func (d *Device) BeginFrame() *renderer.Surface {
	d.frame++
	return renderer.NewSurface(d.width, d.height, d.frame)
}

func (d *Device) PresentBegin(s *renderer.Surface) {}

// PresentEnd queues the surface for rasterization. The surface must not be
// modified afterwards.
func (d *Device) PresentEnd(s *renderer.Surface) {
	err := d.jobs.Submit(jobs.JobTask{
		Name: fmt.Sprintf("headless frame %d", s.Frame),
		OnStart: func() error {
			img := d.compositor.Rasterize(s)
			d.store(s.Frame, img)
			d.presented.Add(1)
			if d.dumpEvery > 0 && s.Frame%uint64(d.dumpEvery) == 0 {
				return helper.SavePNG(img, filepath.Join(d.dumpDir, fmt.Sprintf("frame_%06d.png", s.Frame)))
			}
			return nil
		},
	})
	if err != nil {
		core.LogError("failed to submit frame %d: %s", s.Frame, err)
	}
}

func (d *Device) store(frame uint64, img *image.RGBA) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	// jobs may finish out of order
	if frame < d.lastFrame {
		return
	}
	d.last = img
	d.lastFrame = frame
}

// LastFrame returns the most recent rasterized frame and its number.
func (d *Device) LastFrame() (*image.RGBA, uint64) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.last, d.lastFrame
}

// Snapshot copies the most recent rasterized frame. Pending frames are not
// waited for.
func (d *Device) Snapshot() *image.RGBA {
	img, _ := d.LastFrame()
	return renderer.CloneRGBA(img)
}

// PresentedFrames counts the frames that finished rasterizing.
func (d *Device) PresentedFrames() uint64 {
	return d.presented.Load()
}

func (d *Device) WaitForIdle() {
	d.jobs.Wait()
}

func (d *Device) ScreenWidth() int  { return d.width }
func (d *Device) ScreenHeight() int { return d.height }

func (d *Device) IsDebugDevice() bool {
	return d.debug
}

func (d *Device) Kind() renderer.BackendKind {
	return renderer.Headless
}

func (d *Device) Shutdown() error {
	d.WaitForIdle()
	if d.ownsJobs {
		return d.jobs.Shutdown()
	}
	return nil
}

var (
	_ renderer.Device      = (*Device)(nil)
	_ renderer.Snapshotter = (*Device)(nil)
)
