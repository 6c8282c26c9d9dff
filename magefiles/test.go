//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs every test with the race detector.
func (Test) All() error {
	_, err := executeCmd("go", withArgs("test", "-race", "./..."), withStream())
	return err
}

// Runs the tests that need neither a window nor a GPU.
func (Test) Unit() error {
	_, err := executeCmd("go", withArgs("test",
		"./engine",
		"./engine/assets/...",
		"./engine/audio/...",
		"./engine/backlog/...",
		"./engine/config/...",
		"./engine/containers/...",
		"./engine/core/...",
		"./engine/fader/...",
		"./engine/helper/...",
		"./engine/initializer/...",
		"./engine/jobs/...",
		"./engine/profiler/...",
		"./engine/renderer",
		"./engine/renderer/headless/...",
		"./engine/renderpath/...",
		"./engine/scripting/...",
		"./testbed/...",
	), withStream())
	return err
}
