package core

import (
	"errors"
)

var (
	ErrBackendUnavailable   = errors.New("graphics backend unavailable")
	ErrUnknownBackend       = errors.New("unknown graphics backend")
	ErrEngineNotInitialized = errors.New("engine not initialized")
	ErrUnknownRenderPath    = errors.New("unknown render path")
	ErrQueueFull            = errors.New("queue is full")
	ErrQueueEmpty           = errors.New("queue is empty")
)
