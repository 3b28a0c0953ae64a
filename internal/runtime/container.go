// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/encoding"

	"github.com/helix-collective/adlgen/internal/cmdline"
	"github.com/helix-collective/adlgen/internal/console"
	"github.com/helix-collective/adlgen/internal/container"
	"github.com/helix-collective/adlgen/internal/distribution"
	"github.com/helix-collective/adlgen/internal/transfer"
)

type (
	// EngineFactory connects to a container engine.
	EngineFactory func(ctx context.Context) (container.Engine, error)

	// ContainerOptions configures a ContainerRuntime.
	ContainerOptions struct {
		BuildMode        container.ImageBuildMode
		PullTimeout      time.Duration
		BuildTimeout     time.Duration
		ContainerTimeout time.Duration
		// Charset decodes container output. Nil means UTF-8.
		Charset encoding.Encoding
		// GeneratorVersion is stored in the label of locally built images.
		GeneratorVersion string
	}

	// ContainerRuntime runs tools in throwaway Docker containers. The engine
	// is connected on first use.
	ContainerRuntime struct {
		logger  console.ToolLogger
		opts    ContainerOptions
		connect EngineFactory

		once      sync.Once
		engine    container.Engine
		engineErr error
	}
)

// NewContainerRuntime creates a ContainerRuntime that connects through connect.
func NewContainerRuntime(logger console.ToolLogger, connect EngineFactory, opts ContainerOptions) *ContainerRuntime {
	return &ContainerRuntime{logger: logger, opts: opts, connect: connect}
}

// Platform implements Runtime.
func (r *ContainerRuntime) Platform() Platform { return PlatformDocker }

func (r *ContainerRuntime) getEngine(ctx context.Context) (container.Engine, error) {
	r.once.Do(func() {
		r.engine, r.engineErr = r.connect(ctx)
	})
	return r.engine, r.engineErr
}

// Execute resolves the tool image, then creates a container, copies the
// inputs in, runs the tool, replays its output, copies the outputs back
// and removes the container.
func (r *ContainerRuntime) Execute(ctx context.Context, ex *ExecutionContext) error {
	if err := ex.Validate(); err != nil {
		return err
	}
	tool := ex.Tool

	engine, err := r.getEngine(ctx)
	if err != nil {
		return err
	}

	tag := tool.ImageTag(ex.Version)
	images := container.NewImageManager(engine, r.logger)
	err = images.Ensure(ctx, container.ImageRequest{
		Tag:          tag,
		Mode:         r.opts.BuildMode,
		PullTimeout:  r.opts.PullTimeout,
		BuildTimeout: r.opts.BuildTimeout,
		BuildContext: func(ctx context.Context) (io.Reader, error) {
			return r.buildContext(ctx, tool, ex.Version)
		},
	})
	if err != nil {
		return stepFailed(tool.Name, "preparing image "+tag.String(), err)
	}

	mapper := cmdline.ContainerMapper{BaseDir: tool.MappedBaseDir}
	args, err := ex.CommandLine.Render(mapper)
	if err != nil {
		return stepFailed(tool.Name, "preparing command line", err)
	}
	command := append([]string{tool.ContainerExecutable(ex.Version)}, args...)
	if tool.PostProcess != nil {
		command = tool.PostProcess(command)
	}

	name := container.ContainerName(tool.ContainerPrefix + "-" + uuid.NewString())
	slog.Debug("creating container", "name", name, "image", tag, "command", quoteCommand(command[0], command[1:]))
	id, err := engine.CreateContainer(ctx, container.CreateOptions{Image: tag, Name: name, Command: command})
	if err != nil {
		return stepFailed(tool.Name, "creating container", err)
	}
	defer r.remove(ctx, engine, id)

	if err := copyInputs(ctx, engine, id, mapper, ex.CommandLine); err != nil {
		return stepFailed(tool.Name, "copying inputs", err)
	}

	runErr := r.run(ctx, engine, id, tool.Name)
	if runErr != nil {
		return runErr
	}

	if err := copyOutputs(ctx, engine, id, mapper, ex.CommandLine); err != nil {
		return stepFailed(tool.Name, "copying outputs", err)
	}
	return nil
}

func (r *ContainerRuntime) buildContext(ctx context.Context, tool *Tool, version string) (io.Reader, error) {
	archive, err := tool.Distribution.ResolveArchive(ctx, distribution.LinuxSpecifier(version))
	if err != nil {
		return nil, err
	}
	def := container.NewToolImageDefinition(r.opts.GeneratorVersion, tool.InstallDir, tool.ContainerExecutable(version))
	if tool.ImageTransform != nil {
		tool.ImageTransform(def)
	}
	return container.NewBuildContext(archive, def)
}

// run attaches, starts and waits for the container, then replays its
// output. Attach returns once the connection is established, so nothing
// the tool writes after Start is lost.
func (r *ContainerRuntime) run(ctx context.Context, engine container.Engine, id container.ContainerID, toolName string) error {
	att, err := engine.Attach(ctx, id)
	if err != nil {
		return stepFailed(toolName, "attaching to container", err)
	}
	defer att.Close()

	recorder := console.NewRecorder()
	done := make(chan error, 1)
	go func() {
		done <- att.Demux(recorder.Writer(console.StreamStdout), recorder.Writer(console.StreamStderr))
	}()

	if err := engine.Start(ctx, id); err != nil {
		att.Close()
		<-done
		r.replay(recorder, toolName, true)
		return stepFailed(toolName, "starting container", err)
	}

	waitCtx, cancel := container.WithOptionalTimeout(ctx, r.opts.ContainerTimeout)
	defer cancel()
	code, waitErr := engine.Wait(waitCtx, id)
	if waitErr != nil {
		att.Close()
	}
	if demuxErr := <-done; demuxErr != nil && waitErr == nil {
		slog.Debug("container output stream ended with error", "container", id, "error", demuxErr)
	}

	failed := waitErr != nil || code != 0
	r.replay(recorder, toolName, failed)

	switch {
	case waitErr != nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded):
		return stepFailed(toolName, fmt.Sprintf("timed out after %s", r.opts.ContainerTimeout), waitErr)
	case waitErr != nil:
		return stepFailed(toolName, "waiting for container", waitErr)
	case code != 0:
		return &ExecutionError{Tool: toolName, ExitCode: ExitCode(code)}
	}
	return nil
}

// replay logs recorded output in arrival order. Stdout goes to error
// level when the run failed so diagnostics are visible at any log level.
func (r *ContainerRuntime) replay(recorder *console.Recorder, toolName string, failed bool) {
	for _, rec := range recorder.Records() {
		for _, line := range rec.Lines(r.opts.Charset) {
			if rec.Stream == console.StreamStdout && !failed {
				r.logger.Info(toolName, line)
			} else {
				r.logger.Error(toolName, line)
			}
		}
	}
}

// remove force-removes the container. Failures are logged only.
func (r *ContainerRuntime) remove(ctx context.Context, engine container.Engine, id container.ContainerID) {
	if err := engine.RemoveContainer(context.WithoutCancel(ctx), id); err != nil {
		slog.Warn("failed to remove container", "container", id, "error", err)
	}
}

func copyInputs(ctx context.Context, engine container.Engine, id container.ContainerID, mapper cmdline.ContainerMapper, cl *cmdline.CommandLine) error {
	for _, f := range cl.MappedFiles() {
		target := mapper.Path(f.Label)
		var write func(io.Writer) error
		switch {
		case f.Mode.IsInput() && f.Kind == cmdline.KindDirectory:
			tree := inputTree(f.HostPath)
			write = func(w io.Writer) error { return transfer.WriteTree(w, tree, target) }
		case f.Mode.IsInput():
			write = func(w io.Writer) error { return transfer.WriteFile(w, f.HostPath, target) }
		case f.Kind == cmdline.KindDirectory:
			write = func(w io.Writer) error { return transfer.WriteEmptyDir(w, target) }
		default:
			write = func(w io.Writer) error { return transfer.WriteEmptyDir(w, path.Dir(target)) }
		}
		if err := copyTar(ctx, engine, id, write); err != nil {
			return fmt.Errorf("%s: %w", f.Label, err)
		}
	}
	for _, t := range cl.MappedTrees() {
		target := mapper.Path(t.Label)
		if err := copyTar(ctx, engine, id, func(w io.Writer) error { return transfer.WriteTree(w, t.Tree, target) }); err != nil {
			return fmt.Errorf("%s: %w", t.Label, err)
		}
	}
	return nil
}

// inputTree treats an archive file as the tree of its entries.
func inputTree(hostPath string) cmdline.Tree {
	if distribution.IsArchive(hostPath) && fileExists(hostPath) {
		return cmdline.ArchiveTree{Path: hostPath}
	}
	return cmdline.DirTree{Root: hostPath}
}

// copyTar streams the tar produced by write into the container.
func copyTar(ctx context.Context, engine container.Engine, id container.ContainerID, write func(io.Writer) error) error {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(write(pw))
	}()
	err := engine.CopyTo(ctx, id, pr)
	_ = pr.CloseWithError(err)
	return err
}

func copyOutputs(ctx context.Context, engine container.Engine, id container.ContainerID, mapper cmdline.ContainerMapper, cl *cmdline.CommandLine) error {
	for _, f := range cl.MappedFiles() {
		if !f.Mode.IsOutput() {
			continue
		}
		source := mapper.Path(f.Label)
		rc, err := engine.CopyFrom(ctx, id, source)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Label, err)
		}
		if f.Kind == cmdline.KindDirectory {
			err = transfer.Extract(rc, source, f.HostPath)
		} else {
			err = transfer.ExtractFile(rc, f.HostPath)
		}
		_ = rc.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", f.Label, err)
		}
	}
	return nil
}
