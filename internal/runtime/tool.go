// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"os"

	"github.com/helix-collective/adlgen/internal/container"
	"github.com/helix-collective/adlgen/internal/distribution"
)

// Tool describes a code-generation tool and how to run it on every platform.
type Tool struct {
	// Name is the tool name attached to logged output lines.
	Name string
	// Distribution resolves and caches the tool's binary distributions.
	Distribution *distribution.Service
	// Executable locates the tool binary inside a distribution.
	Executable distribution.ExecutableResolver

	// InstallDir is where the distribution is installed inside images.
	InstallDir string
	// MappedBaseDir is the container directory mapped files are placed under.
	MappedBaseDir string
	// ImageRepository is the image name without a tag; the tool version is the tag.
	ImageRepository string
	// ContainerPrefix starts every container name.
	ContainerPrefix string

	// ImageTransform adjusts the generated image definition. It may be nil.
	ImageTransform func(def *container.ImageDefinition)
	// PostProcess adjusts the container command, executable first. It may be nil.
	PostProcess func(command []string) []string
}

// Validate checks that the descriptor can be used by every runtime.
func (t *Tool) Validate() error {
	var errs []error
	if t.Name == "" {
		errs = append(errs, errors.New("tool name is empty"))
	}
	if t.Distribution == nil {
		errs = append(errs, errors.New("tool has no distribution service"))
	}
	if t.Executable.RelativePath == "" {
		errs = append(errs, errors.New("tool executable path is empty"))
	}
	return errors.Join(errs...)
}

// ImageTag returns the image tag for version.
func (t *Tool) ImageTag(version string) container.ImageTag {
	return container.NewImageTag(t.ImageRepository, version)
}

// ContainerExecutable returns the executable path inside the tool image.
func (t *Tool) ContainerExecutable(version string) string {
	return t.Executable.Resolve(t.InstallDir, distribution.LinuxSpecifier(version))
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
