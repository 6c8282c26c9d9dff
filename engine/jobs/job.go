package jobs

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spaghettifunk/lantern/engine/core"
)

/** Definition for the body of a job. */
type JobStart func() error

/** Definition for completion of a job. */
type JobOnComplete func(err error)

/**
 * @brief Describes a job to be run.
 */
type JobTask struct {
	/** @brief Human readable name, used in logs. */
	Name string
	/** @brief A function to be invoked when the job starts. Required. */
	OnStart JobStart
	/** @brief Invoked when OnStart returned nil. Optional. */
	OnComplete func()
	/** @brief Invoked with the error returned by OnStart. Optional. */
	OnFailure JobOnComplete
}

type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask
	workers    sync.WaitGroup
	inFlight   sync.WaitGroup

	mutex    sync.RWMutex
	isClosed bool
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")
var ErrJobSystemClosed = errors.New("job system is shut down")
var ErrMissingEntryPoint = errors.New("job has no entry point")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan JobTask, channelSize),
	}
	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.workers.Add(1)
		go func() {
			defer js.workers.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job JobTask) {
	defer js.inFlight.Done()

	err := job.OnStart()
	if err != nil {
		core.LogError("job %q failed: %s", job.Name, err)
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
		return
	}
	if job.OnComplete != nil {
		job.OnComplete()
	}
}

/**
 * @brief Submits the provided job to be queued for execution. Blocks when
 * the queue is full.
 */
func (js *JobSystem) Submit(jt JobTask) error {
	if jt.OnStart == nil {
		return ErrMissingEntryPoint
	}
	js.mutex.RLock()
	defer js.mutex.RUnlock()
	if js.isClosed {
		return ErrJobSystemClosed
	}
	js.inFlight.Add(1)
	js.jobQueue <- jt
	return nil
}

/**
 * @brief Blocks until every job submitted so far has finished.
 */
func (js *JobSystem) Wait() {
	js.inFlight.Wait()
}

/**
 * @brief Shuts the job system down. Queued jobs still run.
 */
func (js *JobSystem) Shutdown() error {
	js.mutex.Lock()
	if js.isClosed {
		js.mutex.Unlock()
		return nil
	}
	js.isClosed = true
	close(js.jobQueue)
	js.mutex.Unlock()

	js.workers.Wait()
	return nil
}
