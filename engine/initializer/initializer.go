// Package initializer runs the engine's startup tasks in the background so the
// loop can keep presenting frames while they complete.
package initializer

import (
	"sync"
	"sync/atomic"

	"github.com/spaghettifunk/lantern/engine/core"
	"github.com/spaghettifunk/lantern/engine/jobs"
)

type Task struct {
	Name string
	Run  func() error
}

type Initializer struct {
	jobs  *jobs.JobSystem
	tasks []Task

	once     sync.Once
	started  atomic.Bool
	pending  atomic.Int32
	failures atomic.Int32
	clock    *core.Clock
}

func New(js *jobs.JobSystem) *Initializer {
	return &Initializer{
		jobs:  js,
		clock: core.NewClock(),
	}
}

// Add registers a task. Tasks added after Start are ignored.
func (i *Initializer) Add(name string, run func() error) {
	if i.started.Load() {
		core.LogWarn("initializer already started, task %q ignored", name)
		return
	}
	i.tasks = append(i.tasks, Task{Name: name, Run: run})
}

// Start submits every registered task to the job system. Calling it more than
// once has no effect.
func (i *Initializer) Start() error {
	var err error
	i.once.Do(func() {
		i.started.Store(true)
		i.clock.Start()
		i.pending.Store(int32(len(i.tasks)))
		for _, t := range i.tasks {
			task := t
			err = i.jobs.Submit(jobs.JobTask{
				Name:    task.Name,
				OnStart: task.Run,
				OnComplete: func() {
					core.LogDebug("initialized %s", task.Name)
					i.done()
				},
				OnFailure: func(error) {
					i.failures.Add(1)
					i.done()
				},
			})
			if err != nil {
				return
			}
		}
	})
	return err
}

func (i *Initializer) done() {
	if i.pending.Add(-1) == 0 {
		core.LogInfo("initialization finished in %.2fs (%d failed)", i.clock.Elapsed(), i.failures.Load())
	}
}

// IsFinished reports whether Start ran and every task has returned.
func (i *Initializer) IsFinished() bool {
	return i.started.Load() && i.pending.Load() <= 0
}

func (i *Initializer) Failures() int {
	return int(i.failures.Load())
}
