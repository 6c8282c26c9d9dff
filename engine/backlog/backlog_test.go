package backlog

import (
	"fmt"
	"testing"

	"github.com/spaghettifunk/lantern/engine/core"
	"github.com/spaghettifunk/lantern/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSplitsLines(t *testing.T) {
	b := New(8, nil)
	n, err := b.Write([]byte("first\nsecond\nthi"))
	require.NoError(t, err)
	assert.Equal(t, 16, n)
	assert.Equal(t, []string{"first", "second"}, b.Lines())

	b.Write([]byte("rd\n"))
	assert.Equal(t, "first\nsecond\nthird", b.Text())
}

func TestWriteStripsEscapeCodes(t *testing.T) {
	b := New(8, nil)
	b.Write([]byte("\x1b[1;31mERRO\x1b[0m boom\r\n"))
	assert.Equal(t, []string{"ERRO boom"}, b.Lines())
}

func TestCapacityDropsOldest(t *testing.T) {
	b := New(3, nil)
	for i := 0; i < 5; i++ {
		b.Post(fmt.Sprintf("line %d", i))
	}
	assert.Equal(t, []string{"line 2", "line 3", "line 4"}, b.Lines())
}

func TestPostMultiline(t *testing.T) {
	b := New(8, nil)
	b.Post("a\nb\n")
	assert.Equal(t, []string{"a", "b"}, b.Lines())
	b.Clear()
	assert.Empty(t, b.Text())
}

func TestToggleWithHomeKey(t *testing.T) {
	input := core.NewInput(nil)
	b := New(8, input)
	assert.False(t, b.IsActive())

	input.ProcessKey(core.KEY_HOME, true)
	b.Update()
	input.Update()
	assert.True(t, b.IsActive())

	// held key does not toggle again
	b.Update()
	assert.True(t, b.enabled)

	input.ProcessKey(core.KEY_HOME, false)
	input.Update()
	input.ProcessKey(core.KEY_HOME, true)
	b.Update()
	assert.False(t, b.enabled)
	// still sliding out
	assert.True(t, b.IsActive())
	for i := 0; i < 20; i++ {
		b.Update()
	}
	assert.False(t, b.IsActive())
}

func TestScrollIsClamped(t *testing.T) {
	b := New(8, nil)
	b.Post("a\nb\nc")
	b.Scroll(10)
	assert.Equal(t, 2, b.scroll)
	b.Scroll(-10)
	assert.Equal(t, 0, b.scroll)
}

func TestDrawWhenClosed(t *testing.T) {
	b := New(8, nil)
	b.Post("hidden")
	s := renderer.NewSurface(320, 240, 1)
	b.Draw(s)
	assert.Equal(t, 0, s.Len())
}

func TestDrawShowsNewestLines(t *testing.T) {
	b := New(64, nil)
	b.FontSize = 10
	for i := 0; i < 40; i++ {
		b.Post(fmt.Sprintf("line %d", i))
	}
	b.Toggle()
	for i := 0; i < 20; i++ {
		b.Update()
	}

	s := renderer.NewSurface(320, 100, 1)
	b.Draw(s)
	cmds := s.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, renderer.CommandFillRect, cmds[0].Kind)
	assert.Equal(t, 100, cmds[0].Rect.Dy())
	assert.Equal(t, renderer.CommandText, cmds[1].Kind)
	// (100 - 8) / 12 rows fit
	assert.Equal(t, "line 33\nline 34\nline 35\nline 36\nline 37\nline 38\nline 39", cmds[1].Text)

	b.Scroll(3)
	s.Reset(2)
	b.Draw(s)
	assert.Equal(t, "line 30\nline 31\nline 32\nline 33\nline 34\nline 35\nline 36", s.Commands()[1].Text)
}
