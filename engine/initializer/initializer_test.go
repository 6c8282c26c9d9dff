package initializer

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/lantern/engine/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJobs(t *testing.T) *jobs.JobSystem {
	js, err := jobs.NewJobSystem(2, 4)
	require.NoError(t, err)
	t.Cleanup(func() { js.Shutdown() })
	return js
}

func TestNotFinishedBeforeStart(t *testing.T) {
	ini := New(newJobs(t))
	assert.False(t, ini.IsFinished())
}

func TestFinishesAfterTasks(t *testing.T) {
	js := newJobs(t)
	ini := New(js)

	release := make(chan struct{})
	ini.Add("slow", func() error { <-release; return nil })
	ini.Add("broken", func() error { return errors.New("nope") })

	require.NoError(t, ini.Start())
	assert.False(t, ini.IsFinished())

	close(release)
	js.Wait()
	assert.True(t, ini.IsFinished())
	assert.Equal(t, 1, ini.Failures())
}

func TestEmptyInitializerFinishesImmediately(t *testing.T) {
	ini := New(newJobs(t))
	require.NoError(t, ini.Start())
	require.NoError(t, ini.Start())
	assert.True(t, ini.IsFinished())
}

func TestAddAfterStartIsIgnored(t *testing.T) {
	js := newJobs(t)
	ini := New(js)
	require.NoError(t, ini.Start())

	ran := false
	ini.Add("late", func() error { ran = true; return nil })
	js.Wait()
	assert.False(t, ran)
	assert.True(t, ini.IsFinished())
}
