// SPDX-License-Identifier: MPL-2.0

// Package containertest provides an in-memory container.Engine for tests.
package containertest

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/helix-collective/adlgen/internal/console"
	"github.com/helix-collective/adlgen/internal/container"
)

// ErrNoSuchPath is returned by CopyFrom for a path that does not exist.
var ErrNoSuchPath = errors.New("no such container path")

type (
	// Chunk is one piece of container output.
	Chunk struct {
		Stream console.Stream
		Data   string
	}

	// Engine is a fake container.Engine. Containers share a single
	// filesystem map keyed by absolute path; directories end with "/".
	// Zero-value error fields mean success.
	Engine struct {
		mu sync.Mutex

		// Images maps local images to their labels.
		Images map[container.ImageTag]map[string]string
		// Files is the container filesystem.
		Files map[string][]byte
		// Output is delivered to the attached writers while the container runs.
		Output   []Chunk
		ExitCode int
		// OnStart runs when the container starts, before output is delivered.
		OnStart func(e *Engine, cmd []string)

		PingErr            error
		PullErr            error
		BuildErr           error
		StartErr           error
		WaitErr            error
		RemoveContainerErr error

		// Calls records engine calls in order, e.g. "pull adl/adlc:1.0".
		Calls []string
		// Created records every container create request.
		Created []container.CreateOptions
		// BuildContexts holds the raw build context of every build.
		BuildContexts [][]byte

		cmd      []string
		attached chan struct{}
	}
)

// NewEngine returns an Engine with no images and an empty filesystem.
func NewEngine() *Engine {
	return &Engine{
		Images: make(map[container.ImageTag]map[string]string),
		Files:  make(map[string][]byte),
	}
}

func (e *Engine) record(format string, args ...any) {
	e.Calls = append(e.Calls, fmt.Sprintf(format, args...))
}

// CallNames returns the first word of every recorded call.
func (e *Engine) CallNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, 0, len(e.Calls))
	for _, c := range e.Calls {
		name, _, _ := strings.Cut(c, " ")
		out = append(out, name)
	}
	return out
}

// Called reports whether a call with the given name was recorded.
func (e *Engine) Called(name string) bool {
	return slices.Contains(e.CallNames(), name)
}

// Ping implements container.Engine.
func (e *Engine) Ping(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("ping")
	return e.PingErr
}

// InspectImage implements container.Engine.
func (e *Engine) InspectImage(_ context.Context, image container.ImageTag) (map[string]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("inspect %s", image)

	labels, ok := e.Images[image]
	if !ok {
		return nil, fmt.Errorf("%w: %s", container.ErrImageNotFound, image)
	}
	return maps.Clone(labels), nil
}

// RemoveImage implements container.Engine.
func (e *Engine) RemoveImage(_ context.Context, image container.ImageTag) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("remove-image %s", image)
	delete(e.Images, image)
	return nil
}

// PullImage implements container.Engine.
func (e *Engine) PullImage(ctx context.Context, image container.ImageTag, _ func(string)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("pull %s", image)

	if err := ctx.Err(); err != nil {
		return err
	}
	if e.PullErr != nil {
		return e.PullErr
	}
	e.Images[image] = map[string]string{}
	return nil
}

// BuildImage implements container.Engine.
func (e *Engine) BuildImage(_ context.Context, opts container.BuildOptions) error {
	data, err := io.ReadAll(opts.Context)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("build %s", opts.Tag)
	e.BuildContexts = append(e.BuildContexts, data)

	if e.BuildErr != nil {
		return e.BuildErr
	}
	if opts.Progress != nil {
		opts.Progress("Step 1/1 : FROM " + container.DefaultBaseImage)
	}
	e.Images[opts.Tag] = map[string]string{container.GeneratorLabel: "test"}
	return nil
}

// CreateContainer implements container.Engine.
func (e *Engine) CreateContainer(_ context.Context, opts container.CreateOptions) (container.ContainerID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("create %s", opts.Name)

	if _, ok := e.Images[opts.Image]; !ok {
		return "", fmt.Errorf("%w: %s", container.ErrImageNotFound, opts.Image)
	}
	e.Created = append(e.Created, opts)
	e.cmd = slices.Clone(opts.Command)
	e.attached = nil
	return container.ContainerID("fake-" + string(opts.Name)), nil
}

// CopyTo implements container.Engine.
func (e *Engine) CopyTo(_ context.Context, id container.ContainerID, content io.Reader) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("copy-to %s", id)

	tr := tar.NewReader(content)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		name := "/" + strings.TrimPrefix(hdr.Name, "/")
		if hdr.Typeflag == tar.TypeDir {
			e.Files[strings.TrimSuffix(name, "/")+"/"] = nil
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return err
		}
		e.Files[name] = data
	}
}

// CopyFrom implements container.Engine. The stream names entries after
// the leaf of srcPath, as the Docker API does.
func (e *Engine) CopyFrom(_ context.Context, id container.ContainerID, srcPath string) (io.ReadCloser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("copy-from %s %s", id, srcPath)

	srcPath = path.Clean(srcPath)
	leaf := path.Base(srcPath)

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	found := false
	for _, name := range slices.Sorted(maps.Keys(e.Files)) {
		isDir := strings.HasSuffix(name, "/")
		clean := strings.TrimSuffix(name, "/")
		var entry string
		switch {
		case clean == srcPath:
			entry = leaf
		case strings.HasPrefix(clean, srcPath+"/"):
			entry = leaf + strings.TrimPrefix(clean, srcPath)
		default:
			continue
		}
		found = true
		if isDir {
			if err := tw.WriteHeader(&tar.Header{Typeflag: tar.TypeDir, Name: entry + "/", Mode: 0o755}); err != nil {
				return nil, err
			}
			continue
		}
		data := e.Files[name]
		if err := tw.WriteHeader(&tar.Header{Typeflag: tar.TypeReg, Name: entry, Mode: 0o644, Size: int64(len(data))}); err != nil {
			return nil, err
		}
		if _, err := tw.Write(data); err != nil {
			return nil, err
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchPath, srcPath)
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return io.NopCloser(&buf), nil
}

// Attach implements container.Engine. Demux blocks until Start has run.
func (e *Engine) Attach(_ context.Context, id container.ContainerID) (*container.Attachment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("attach %s", id)

	started := make(chan struct{})
	closed := make(chan struct{})
	var closeOnce sync.Once
	e.attached = started
	return &container.Attachment{
		Demux: func(stdout, stderr io.Writer) error {
			select {
			case <-started:
			case <-closed:
				return nil
			}
			e.mu.Lock()
			output := slices.Clone(e.Output)
			e.mu.Unlock()
			for _, c := range output {
				w := stdout
				if c.Stream == console.StreamStderr {
					w = stderr
				}
				if _, err := io.WriteString(w, c.Data); err != nil {
					return err
				}
			}
			return nil
		},
		Close: func() { closeOnce.Do(func() { close(closed) }) },
	}, nil
}

// Start implements container.Engine.
func (e *Engine) Start(_ context.Context, id container.ContainerID) error {
	e.mu.Lock()
	e.record("start %s", id)
	if e.StartErr != nil {
		err := e.StartErr
		e.mu.Unlock()
		return err
	}
	onStart, cmd, started := e.OnStart, e.cmd, e.attached
	e.mu.Unlock()

	if onStart != nil {
		onStart(e, cmd)
	}
	if started != nil {
		close(started)
	}
	return nil
}

// Wait implements container.Engine.
func (e *Engine) Wait(_ context.Context, id container.ContainerID) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("wait %s", id)
	return e.ExitCode, e.WaitErr
}

// RemoveContainer implements container.Engine.
func (e *Engine) RemoveContainer(_ context.Context, id container.ContainerID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("remove-container %s", id)
	return e.RemoveContainerErr
}

// WriteFile stores a file in the container filesystem. It is meant for
// OnStart hooks that simulate a tool writing its outputs.
func (e *Engine) WriteFile(name string, data []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Files[path.Clean(name)] = data
}

// ReadFile returns a file from the container filesystem.
func (e *Engine) ReadFile(name string) ([]byte, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	data, ok := e.Files[path.Clean(name)]
	return data, ok
}
