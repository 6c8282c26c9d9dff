// Package renderpath defines the top-level scene driver the application loop
// runs: a title screen, a level, a loading screen.
package renderpath

import (
	"reflect"

	"github.com/spaghettifunk/lantern/engine/core"
	"github.com/spaghettifunk/lantern/engine/renderer"
)

// RenderPath receives the per-frame calls of the application loop while it is
// the active path.
type RenderPath interface {
	// Start is called when the path becomes active.
	Start()
	// Stop is called when the path stops being active.
	Stop()
	Update(dt float64)
	FixedUpdate()
	Render()
	Compose(s *renderer.Surface)
}

// Base implements RenderPath with no-ops and tracks whether the path is
// running. Embed it and override what is needed.
type Base struct {
	Name    string
	running bool
}

func (b *Base) Start()                      { b.running = true }
func (b *Base) Stop()                       { b.running = false }
func (b *Base) Update(float64)              {}
func (b *Base) FixedUpdate()                {}
func (b *Base) Render()                     {}
func (b *Base) Compose(s *renderer.Surface) {}

func (b *Base) IsRunning() bool {
	return b.running
}

func (b *Base) String() string {
	return b.Name
}

// Registry maps names to paths so scripts can activate them.
type Registry struct {
	paths map[string]RenderPath
}

func NewRegistry() *Registry {
	return &Registry{paths: make(map[string]RenderPath)}
}

// IsNil reports whether p is nil or a typed nil pointer.
func IsNil(p RenderPath) bool {
	if p == nil {
		return true
	}
	v := reflect.ValueOf(p)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// Add registers p under name. Nil paths are not registered.
func (r *Registry) Add(name string, p RenderPath) {
	if IsNil(p) {
		core.LogWarn("render path %q is nil, not registered", name)
		return
	}
	r.paths[name] = p
}

func (r *Registry) Get(name string) (RenderPath, bool) {
	p, ok := r.paths[name]
	return p, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.paths))
	for n := range r.paths {
		names = append(names, n)
	}
	return names
}
