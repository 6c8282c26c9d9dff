//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the testbed in a window with the configured backend.
func (Run) Engine() error {
	fmt.Println("Run engine...")
	if _, err := executeCmd("go", withArgs("run", ".", "--config", "lantern.toml"), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs 600 frames of the testbed without a window.
func (Run) Headless() error {
	fmt.Println("Run engine headless...")
	if _, err := executeCmd("go", withArgs("run", ".", "--headless", "--frames", "600"), withStream()); err != nil {
		return err
	}
	return nil
}
