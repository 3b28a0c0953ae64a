// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	goruntime "runtime"
	"strings"

	"github.com/helix-collective/adlgen/pkg/platform"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// ErrUnsupportedHost is returned for a Docker host URI the current OS cannot use.
var ErrUnsupportedHost = errors.New("unsupported docker host")

type (
	// ClientConfig overrides the connection settings taken from the
	// DOCKER_* environment variables. Zero fields keep the environment value.
	ClientConfig struct {
		Host       string
		TLSVerify  bool
		CertPath   string
		APIVersion string

		RegistryURL      string
		RegistryUsername string
		RegistryPassword string
	}

	// DockerEngine implements Engine on the Docker Engine API.
	DockerEngine struct {
		cli          *client.Client
		registryAuth string
		authConfigs  map[string]registry.AuthConfig
	}
)

// toolPlatform is the platform tool images are pulled, built and run for;
// published tool distributions only target x86_64.
var toolPlatform = ocispec.Platform{OS: "linux", Architecture: "amd64"}

// NewDockerEngine connects to the Docker engine described by the
// environment and cfg, and pings it.
func NewDockerEngine(ctx context.Context, cfg ClientConfig) (*DockerEngine, error) {
	if goruntime.GOOS == platform.Windows && strings.HasPrefix(cfg.Host, "unix://") {
		return nil, fmt.Errorf("%w: %w: %s uses a unix socket, which is not available on Windows; use a tcp:// or npipe:// host",
			ErrEngineUnavailable, ErrUnsupportedHost, cfg.Host)
	}

	opts := []client.Opt{client.FromEnv}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	}
	if cfg.TLSVerify && cfg.CertPath != "" {
		opts = append(opts, client.WithTLSClientConfig(
			filepath.Join(cfg.CertPath, "ca.pem"),
			filepath.Join(cfg.CertPath, "cert.pem"),
			filepath.Join(cfg.CertPath, "key.pem"),
		))
	}
	if cfg.APIVersion != "" {
		opts = append(opts, client.WithVersion(cfg.APIVersion))
	} else {
		opts = append(opts, client.WithAPIVersionNegotiation())
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, engineErr("connect", cfg.Host, err))
	}

	e := &DockerEngine{cli: cli}
	if cfg.RegistryUsername != "" {
		auth := registry.AuthConfig{
			Username:      cfg.RegistryUsername,
			Password:      cfg.RegistryPassword,
			ServerAddress: cfg.RegistryURL,
		}
		encoded, err := registry.EncodeAuthConfig(auth)
		if err != nil {
			_ = cli.Close()
			return nil, engineErr("encode registry credentials", cfg.RegistryURL, err)
		}
		e.registryAuth = encoded
		if cfg.RegistryURL != "" {
			e.authConfigs = map[string]registry.AuthConfig{cfg.RegistryURL: auth}
		}
	}

	if err := e.Ping(ctx); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
	}
	slog.Debug("connected to docker engine", "host", cli.DaemonHost(), "api", cli.ClientVersion())
	return e, nil
}

// Close releases the client's connections.
func (e *DockerEngine) Close() error {
	return e.cli.Close()
}

// Ping implements Engine.
func (e *DockerEngine) Ping(ctx context.Context) error {
	if _, err := e.cli.Ping(ctx); err != nil {
		return engineErr("ping", e.cli.DaemonHost(), err)
	}
	return nil
}

// InspectImage implements Engine.
func (e *DockerEngine) InspectImage(ctx context.Context, ref ImageTag) (map[string]string, error) {
	resp, err := e.cli.ImageInspect(ctx, string(ref))
	if err != nil {
		if cerrdefs.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrImageNotFound, ref)
		}
		return nil, engineErr("inspect image", string(ref), err)
	}
	if resp.Config == nil {
		return map[string]string{}, nil
	}
	return resp.Config.Labels, nil
}

// RemoveImage implements Engine.
func (e *DockerEngine) RemoveImage(ctx context.Context, ref ImageTag) error {
	_, err := e.cli.ImageRemove(ctx, string(ref), image.RemoveOptions{Force: true})
	if err != nil && !cerrdefs.IsNotFound(err) {
		return engineErr("remove image", string(ref), err)
	}
	return nil
}

// PullImage implements Engine.
func (e *DockerEngine) PullImage(ctx context.Context, ref ImageTag, progress func(string)) error {
	rc, err := e.cli.ImagePull(ctx, string(ref), image.PullOptions{
		RegistryAuth: e.registryAuth,
		Platform:     platformString(toolPlatform),
	})
	if err != nil {
		return engineErr("pull", string(ref), err)
	}
	defer rc.Close()

	if err := readMessages(rc, func(msg jsonmessage.JSONMessage) {
		if progress != nil && msg.Status != "" && msg.Progress == nil {
			progress(strings.TrimSpace(msg.ID + " " + msg.Status))
		}
	}); err != nil {
		return engineErr("pull", string(ref), err)
	}
	return nil
}

// BuildImage implements Engine.
func (e *DockerEngine) BuildImage(ctx context.Context, opts BuildOptions) error {
	resp, err := e.cli.ImageBuild(ctx, opts.Context, build.ImageBuildOptions{
		Tags:        []string{string(opts.Tag)},
		Dockerfile:  DockerfileName,
		Remove:      true,
		ForceRemove: true,
		Platform:    platformString(toolPlatform),
		AuthConfigs: e.authConfigs,
	})
	if err != nil {
		return engineErr("build", string(opts.Tag), err)
	}
	defer resp.Body.Close()

	if err := readMessages(resp.Body, func(msg jsonmessage.JSONMessage) {
		if opts.Progress == nil {
			return
		}
		for line := range strings.Lines(msg.Stream) {
			if line = strings.TrimRight(line, "\r\n"); strings.TrimSpace(line) != "" {
				opts.Progress(line)
			}
		}
	}); err != nil {
		return engineErr("build", string(opts.Tag), err)
	}
	return nil
}

// CreateContainer implements Engine.
func (e *DockerEngine) CreateContainer(ctx context.Context, opts CreateOptions) (ContainerID, error) {
	platform := toolPlatform
	resp, err := e.cli.ContainerCreate(ctx,
		&container.Config{
			Image:        string(opts.Image),
			Cmd:          opts.Command,
			AttachStdout: true,
			AttachStderr: true,
		},
		&container.HostConfig{AutoRemove: false},
		nil,
		&platform,
		string(opts.Name),
	)
	if err != nil {
		return "", engineErr("create container", string(opts.Name), err)
	}
	for _, w := range resp.Warnings {
		slog.Warn("docker create warning", "container", opts.Name, "warning", w)
	}
	return ContainerID(resp.ID), nil
}

// CopyTo implements Engine.
func (e *DockerEngine) CopyTo(ctx context.Context, id ContainerID, content io.Reader) error {
	if err := e.cli.CopyToContainer(ctx, string(id), "/", content, container.CopyToContainerOptions{}); err != nil {
		return engineErr("copy to container", string(id), err)
	}
	return nil
}

// CopyFrom implements Engine.
func (e *DockerEngine) CopyFrom(ctx context.Context, id ContainerID, srcPath string) (io.ReadCloser, error) {
	rc, _, err := e.cli.CopyFromContainer(ctx, string(id), srcPath)
	if err != nil {
		return nil, engineErr("copy from container", string(id)+":"+srcPath, err)
	}
	return rc, nil
}

// Attach implements Engine.
func (e *DockerEngine) Attach(ctx context.Context, id ContainerID) (*Attachment, error) {
	resp, err := e.cli.ContainerAttach(ctx, string(id), container.AttachOptions{
		Stream: true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return nil, engineErr("attach", string(id), err)
	}
	return &Attachment{
		Demux: func(stdout, stderr io.Writer) error {
			_, err := stdcopy.StdCopy(stdout, stderr, resp.Reader)
			return err
		},
		Close: resp.Close,
	}, nil
}

// Start implements Engine.
func (e *DockerEngine) Start(ctx context.Context, id ContainerID) error {
	if err := e.cli.ContainerStart(ctx, string(id), container.StartOptions{}); err != nil {
		return engineErr("start", string(id), err)
	}
	return nil
}

// Wait implements Engine.
func (e *DockerEngine) Wait(ctx context.Context, id ContainerID) (int, error) {
	statusCh, errCh := e.cli.ContainerWait(ctx, string(id), container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return 0, engineErr("wait", string(id), err)
	case status := <-statusCh:
		if status.Error != nil && status.Error.Message != "" {
			return int(status.StatusCode), engineErr("wait", string(id), errors.New(status.Error.Message))
		}
		return int(status.StatusCode), nil
	}
}

// RemoveContainer implements Engine.
func (e *DockerEngine) RemoveContainer(ctx context.Context, id ContainerID) error {
	err := e.cli.ContainerRemove(ctx, string(id), container.RemoveOptions{RemoveVolumes: true, Force: true})
	if err != nil && !cerrdefs.IsNotFound(err) {
		return engineErr("remove container", string(id), err)
	}
	return nil
}

// readMessages decodes a JSON message stream, returning the first error
// message the engine reports.
func readMessages(r io.Reader, fn func(jsonmessage.JSONMessage)) error {
	dec := json.NewDecoder(r)
	for {
		var msg jsonmessage.JSONMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if msg.Error != nil {
			return errors.New(msg.Error.Message)
		}
		fn(msg)
	}
}

func platformString(p ocispec.Platform) string {
	return p.OS + "/" + p.Architecture
}
