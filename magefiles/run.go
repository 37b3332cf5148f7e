//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Checks the shaders, then runs the viewer with oxyview.toml from the repository root.
func (Run) Viewer() error {
	mg.Deps(Check.Shaders)
	_, err := executeCmd("go", withArgs("run", "./cmd/oxyview", "-config", "oxyview.toml"), withStream())
	return err
}

// Runs the viewer with shader hot reload from the source tree.
func (Run) Dev() error {
	_, err := executeCmd("go", withArgs("run", "./cmd/oxyview", "-config", "oxyview.dev.toml"), withStream())
	return err
}
