// SPDX-License-Identifier: MPL-2.0

package container

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// BuildModeUseExisting keeps any local image with the expected tag.
	BuildModeUseExisting ImageBuildMode = "use-existing"
	// BuildModeDiscardLocal removes a local image this program built before pulling.
	BuildModeDiscardLocal ImageBuildMode = "discard-local"
	// BuildModeRebuild always removes and rebuilds the image locally.
	BuildModeRebuild ImageBuildMode = "rebuild"
)

var (
	// ErrInvalidContainerID is the sentinel wrapped by InvalidContainerIDError.
	ErrInvalidContainerID = errors.New("invalid container ID")
	// ErrInvalidImageTag is the sentinel wrapped by InvalidImageTagError.
	ErrInvalidImageTag = errors.New("invalid image tag")
	// ErrInvalidContainerName is the sentinel wrapped by InvalidContainerNameError.
	ErrInvalidContainerName = errors.New("invalid container name")
	// ErrInvalidImageBuildMode is the sentinel wrapped by InvalidImageBuildModeError.
	ErrInvalidImageBuildMode = errors.New("invalid image build mode")
)

type (
	// ContainerID is the engine-assigned identifier of a container.
	ContainerID string

	// ImageTag is an image reference such as "adl/adlc:1.2.3".
	ImageTag string

	// ContainerName is a user-chosen container name. The zero value lets
	// the engine pick one.
	ContainerName string

	// ImageBuildMode controls how cached tool images are reused.
	ImageBuildMode string

	// InvalidContainerIDError is returned for an empty container ID.
	InvalidContainerIDError struct {
		Value ContainerID
	}

	// InvalidImageTagError is returned for an empty image tag.
	InvalidImageTagError struct {
		Value ImageTag
	}

	// InvalidContainerNameError is returned for a blank, non-empty name.
	InvalidContainerNameError struct {
		Value ContainerName
	}

	// InvalidImageBuildModeError is returned for an unknown build mode.
	InvalidImageBuildModeError struct {
		Value ImageBuildMode
	}
)

func (e *InvalidContainerIDError) Error() string {
	return fmt.Sprintf("invalid container ID %q", string(e.Value))
}

func (e *InvalidContainerIDError) Unwrap() error { return ErrInvalidContainerID }

func (e *InvalidImageTagError) Error() string {
	return fmt.Sprintf("invalid image tag %q", string(e.Value))
}

func (e *InvalidImageTagError) Unwrap() error { return ErrInvalidImageTag }

func (e *InvalidContainerNameError) Error() string {
	return fmt.Sprintf("invalid container name %q", string(e.Value))
}

func (e *InvalidContainerNameError) Unwrap() error { return ErrInvalidContainerName }

func (e *InvalidImageBuildModeError) Error() string {
	return fmt.Sprintf("invalid image build mode %q (valid: use-existing, discard-local, rebuild)", string(e.Value))
}

func (e *InvalidImageBuildModeError) Unwrap() error { return ErrInvalidImageBuildMode }

// Validate returns an error if the ID is blank.
func (c ContainerID) Validate() error {
	if strings.TrimSpace(string(c)) == "" {
		return &InvalidContainerIDError{Value: c}
	}
	return nil
}

func (c ContainerID) String() string { return string(c) }

// Validate returns an error if the tag is blank.
func (t ImageTag) Validate() error {
	if strings.TrimSpace(string(t)) == "" {
		return &InvalidImageTagError{Value: t}
	}
	return nil
}

func (t ImageTag) String() string { return string(t) }

// NewImageTag joins an image repository and a tag.
func NewImageTag(repository, tag string) ImageTag {
	return ImageTag(repository + ":" + tag)
}

// Validate returns an error if the name is non-empty but blank.
func (n ContainerName) Validate() error {
	if n != "" && strings.TrimSpace(string(n)) == "" {
		return &InvalidContainerNameError{Value: n}
	}
	return nil
}

func (n ContainerName) String() string { return string(n) }

// Validate returns an error if m is not a known build mode. The empty
// value is accepted and means BuildModeUseExisting.
func (m ImageBuildMode) Validate() error {
	switch m {
	case "", BuildModeUseExisting, BuildModeDiscardLocal, BuildModeRebuild:
		return nil
	default:
		return &InvalidImageBuildModeError{Value: m}
	}
}

func (m ImageBuildMode) String() string {
	if m == "" {
		return string(BuildModeUseExisting)
	}
	return string(m)
}

// ParseImageBuildMode accepts the canonical names case-insensitively, with
// '_' or '-' as separator ("REBUILD", "discard_local").
func ParseImageBuildMode(s string) (ImageBuildMode, error) {
	m := ImageBuildMode(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	if err := m.Validate(); err != nil {
		return "", err
	}
	if m == "" {
		return BuildModeUseExisting, nil
	}
	return m, nil
}
