// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/helix-collective/adlgen/internal/console"
)

type (
	// ImageRequest describes the image a tool run needs.
	ImageRequest struct {
		Tag  ImageTag
		Mode ImageBuildMode
		// BuildContext produces the tar build context when a local build is needed.
		BuildContext func(ctx context.Context) (io.Reader, error)
		PullTimeout  time.Duration
		BuildTimeout time.Duration
	}

	// ImageManager resolves tool images according to an ImageBuildMode.
	ImageManager struct {
		engine Engine
		logger console.ToolLogger
	}
)

// NewImageManager creates an ImageManager. Engine messages are logged to
// logger under the "docker" tool name.
func NewImageManager(engine Engine, logger console.ToolLogger) *ImageManager {
	return &ImageManager{engine: engine, logger: logger}
}

// Ensure makes req.Tag available locally.
//
// With BuildModeRebuild an existing image is removed and the image is built
// without pulling. With BuildModeDiscardLocal an existing image carrying
// GeneratorLabel is removed. Any remaining local image is used as is;
// otherwise the image is pulled, and a failed pull falls back to one local
// build.
func (m *ImageManager) Ensure(ctx context.Context, req ImageRequest) error {
	if err := req.Tag.Validate(); err != nil {
		return err
	}
	if err := req.Mode.Validate(); err != nil {
		return err
	}

	labels, err := m.engine.InspectImage(ctx, req.Tag)
	exists := err == nil
	if err != nil && !errors.Is(err, ErrImageNotFound) {
		return err
	}

	switch req.Mode {
	case BuildModeRebuild:
		if exists {
			slog.Debug("removing image for rebuild", "image", req.Tag)
			if err := m.engine.RemoveImage(ctx, req.Tag); err != nil {
				return err
			}
		}
		return m.build(ctx, req)
	case BuildModeDiscardLocal:
		if _, ours := labels[GeneratorLabel]; exists && ours {
			slog.Debug("discarding locally built image", "image", req.Tag)
			if err := m.engine.RemoveImage(ctx, req.Tag); err != nil {
				return err
			}
			exists = false
		}
	}

	if exists {
		slog.Debug("using existing image", "image", req.Tag)
		return nil
	}

	pullErr := m.pull(ctx, req)
	if pullErr == nil {
		return nil
	}
	if ctx.Err() != nil {
		return pullErr
	}
	slog.Debug("image pull failed", "image", req.Tag, "error", pullErr)
	m.logger.Info(console.ToolDocker, fmt.Sprintf("Docker image '%s' not found in repository so it will be built.", req.Tag))
	if err := m.build(ctx, req); err != nil {
		return fmt.Errorf("%w: %s: pull failed (%v), build failed: %w", ErrImageUnavailable, req.Tag, pullErr, err)
	}
	return nil
}

func (m *ImageManager) pull(ctx context.Context, req ImageRequest) error {
	ctx, cancel := WithOptionalTimeout(ctx, req.PullTimeout)
	defer cancel()

	m.logger.Info(console.ToolDocker, fmt.Sprintf("Pulling docker image %s", req.Tag))
	return m.engine.PullImage(ctx, req.Tag, func(line string) {
		slog.Debug("pull progress", "image", req.Tag, "status", line)
	})
}

func (m *ImageManager) build(ctx context.Context, req ImageRequest) error {
	if req.BuildContext == nil {
		return fmt.Errorf("no build context available for image %s", req.Tag)
	}

	ctx, cancel := WithOptionalTimeout(ctx, req.BuildTimeout)
	defer cancel()

	buildCtx, err := req.BuildContext(ctx)
	if err != nil {
		return fmt.Errorf("preparing build context for %s: %w", req.Tag, err)
	}

	m.logger.Info(console.ToolDocker, fmt.Sprintf("Building Docker image %s", req.Tag))
	return m.engine.BuildImage(ctx, BuildOptions{
		Tag:     req.Tag,
		Context: buildCtx,
		Progress: func(line string) {
			m.logger.Info(console.ToolDocker, line)
		},
	})
}

// WithOptionalTimeout applies d as a deadline when it is positive.
func WithOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
