package renderpath

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

type title struct {
	Base
	updates int
}

func (t *title) Update(float64) { t.updates++ }

func TestBaseTracksRunning(t *testing.T) {
	p := &title{Base: Base{Name: "title"}}
	var rp RenderPath = p

	assert.False(t, p.IsRunning())
	rp.Start()
	assert.True(t, p.IsRunning())
	rp.Update(0.1)
	assert.Equal(t, 1, p.updates)
	rp.Stop()
	assert.False(t, p.IsRunning())
	assert.Equal(t, "title", p.String())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Add("title", &title{})
	r.Add("level", &Base{Name: "level"})

	_, ok := r.Get("title")
	assert.True(t, ok)
	_, ok = r.Get("credits")
	assert.False(t, ok)

	names := r.Names()
	sort.Strings(names)
	assert.Equal(t, []string{"level", "title"}, names)
}

func TestRegistrySkipsNilPaths(t *testing.T) {
	r := NewRegistry()
	var typed *title
	r.Add("title", typed)
	r.Add("level", nil)

	assert.Empty(t, r.Names())
	assert.True(t, IsNil(typed))
	assert.True(t, IsNil(nil))
	assert.False(t, IsNil(&title{}))
}
