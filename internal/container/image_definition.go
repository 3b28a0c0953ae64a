// SPDX-License-Identifier: MPL-2.0

package container

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

const (
	// DefaultBaseImage is the base of every generated tool image.
	DefaultBaseImage = "ubuntu:20.04"
	// GeneratorLabel marks images this program built. Its value is the
	// program version, or "unknown".
	GeneratorLabel = "com.github.helix-collective.adlgen.docker"
	// DockerfileName is the build-context path of the generated Dockerfile.
	DockerfileName = "Dockerfile"
)

// ImageDefinition is a minimal Dockerfile: a base image, labels, and raw
// instruction lines.
type ImageDefinition struct {
	BaseImage string
	Labels    map[string]string
	Commands  []string
}

// NewToolImageDefinition returns the definition of an image that installs
// the context's tool/ directory at installDir and runs executable by default.
func NewToolImageDefinition(version, installDir, executable string) *ImageDefinition {
	if version == "" {
		version = "unknown"
	}
	return &ImageDefinition{
		BaseImage: DefaultBaseImage,
		Labels:    map[string]string{GeneratorLabel: version},
		Commands: []string{
			fmt.Sprintf("COPY /%s/ %s", BuildContextToolDir, installDir),
			fmt.Sprintf("CMD [%q]", executable),
		},
	}
}

// Prepend inserts instruction lines before the existing ones.
func (d *ImageDefinition) Prepend(commands ...string) {
	d.Commands = append(slices.Clone(commands), d.Commands...)
}

// Append adds instruction lines after the existing ones.
func (d *ImageDefinition) Append(commands ...string) {
	d.Commands = append(d.Commands, commands...)
}

// Render returns the Dockerfile text. Labels are emitted in key order.
func (d *ImageDefinition) Render() string {
	lines := make([]string, 0, 1+len(d.Labels)+len(d.Commands))
	lines = append(lines, "FROM "+d.BaseImage)
	for _, k := range slices.Sorted(maps.Keys(d.Labels)) {
		lines = append(lines, fmt.Sprintf("LABEL %s=%s", quoteLabel(k), quoteLabel(d.Labels[k])))
	}
	lines = append(lines, d.Commands...)
	return strings.Join(lines, "\n")
}

func quoteLabel(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}
