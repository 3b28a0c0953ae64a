// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrImageNotFound is returned by Engine.InspectImage for a missing image.
	ErrImageNotFound = errors.New("image not found")
	// ErrEngineUnavailable is wrapped by every failure to reach the engine.
	ErrEngineUnavailable = errors.New("docker engine unavailable")
	// ErrImageUnavailable is returned when an image can be neither pulled nor built.
	ErrImageUnavailable = errors.New("tool image unavailable")
)

type (
	// Engine is the subset of the Docker API the tool runtime needs.
	Engine interface {
		// Ping checks that the engine is reachable.
		Ping(ctx context.Context) error

		// InspectImage returns the labels of a local image, or an error
		// wrapping ErrImageNotFound.
		InspectImage(ctx context.Context, image ImageTag) (map[string]string, error)
		// RemoveImage force-removes a local image. A missing image is not an error.
		RemoveImage(ctx context.Context, image ImageTag) error
		// PullImage pulls image, reporting progress lines to progress.
		PullImage(ctx context.Context, image ImageTag, progress func(line string)) error
		// BuildImage builds image from a tar build context holding a Dockerfile.
		BuildImage(ctx context.Context, opts BuildOptions) error

		// CreateContainer creates a stopped container.
		CreateContainer(ctx context.Context, opts CreateOptions) (ContainerID, error)
		// CopyTo unpacks a tar stream at "/" in the container.
		CopyTo(ctx context.Context, id ContainerID, content io.Reader) error
		// CopyFrom returns a tar stream of srcPath in the container.
		CopyFrom(ctx context.Context, id ContainerID, srcPath string) (io.ReadCloser, error)
		// Attach connects to stdout and stderr. The connection is established
		// when it returns, so output produced after a subsequent Start is seen.
		Attach(ctx context.Context, id ContainerID) (*Attachment, error)
		// Start starts a created container.
		Start(ctx context.Context, id ContainerID) error
		// Wait blocks until the container stops and returns its exit status.
		Wait(ctx context.Context, id ContainerID) (int, error)
		// RemoveContainer force-removes a container and its volumes.
		RemoveContainer(ctx context.Context, id ContainerID) error
	}

	// BuildOptions describes an image build.
	BuildOptions struct {
		Tag ImageTag
		// Context is a tar stream with the Dockerfile at its root.
		Context io.Reader
		// Progress receives build output lines. It may be nil.
		Progress func(line string)
	}

	// CreateOptions describes a container to create.
	CreateOptions struct {
		Image   ImageTag
		Name    ContainerName
		Command []string
	}

	// Attachment is an established stdout/stderr attach connection.
	//
	// Demux copies the multiplexed stream into stdout and stderr until the
	// container's output ends. Close releases the connection.
	Attachment struct {
		Demux func(stdout, stderr io.Writer) error
		Close func()
	}

	// EngineError describes a failed engine call.
	EngineError struct {
		Op  string
		Ref string
		Err error
	}
)

func (e *EngineError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("docker %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("docker %s %s: %v", e.Op, e.Ref, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

func engineErr(op, ref string, err error) error {
	return &EngineError{Op: op, Ref: ref, Err: err}
}
