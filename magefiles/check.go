//go:build mage

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy-quake/engine/config"
	"github.com/Carmen-Shannon/oxy-quake/engine/renderer/shader"
	"github.com/magefile/mage/mg"
)

type Check mg.Namespace

// Runs every check.
func (Check) All() {
	mg.SerialDeps(Check.Shaders, Check.Vet, Check.Test)
}

// Runs the unit tests with the race detector.
func (Check) Test() error {
	_, err := executeCmd("go", withArgs("test", "-race", "./..."), withStream())
	return err
}

// Runs go vet.
func (Check) Vet() error {
	_, err := executeCmd("go", withArgs("vet", "./..."), withStream())
	return err
}

// Compiles every shader with naga at each supported sample count. Set SHADER_DIR to check
// edited copies instead of the embedded ones.
func (Check) Shaders() error {
	dir := os.Getenv("SHADER_DIR")
	shading := shader.ShadingConstants(config.Default().Shading)

	var errs []error
	for _, samples := range []uint32{1, 4} {
		pp := shader.NewPreProcessor(append([]shader.PreProcessorOption{shader.WithSampleCount(samples)}, shading...)...)
		for _, name := range shader.Assets {
			src, err := shader.LoadSource(dir, name)
			if err == nil {
				err = shader.Validate(src, pp)
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("%s (%dx): %w", name, samples, err))
				continue
			}
			if mg.Verbose() {
				fmt.Printf("ok %s (%dx)\n", name, samples)
			}
		}
	}
	return errors.Join(errs...)
}
