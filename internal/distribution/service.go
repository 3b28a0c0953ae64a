// SPDX-License-Identifier: MPL-2.0

package distribution

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// archivesDirName is the cache subdirectory holding downloaded archives.
const archivesDirName = "archives"

type (
	// Service resolves distributions of one tool against a cache root.
	// It is safe for concurrent use by multiple processes sharing the
	// cache root: downloads and installs are published by rename.
	Service struct {
		tool      Tool
		cacheRoot string
		client    *ReleaseClient
	}

	// ServiceOption configures a Service during construction.
	ServiceOption func(*Service)
)

// WithReleaseClient overrides the default ReleaseClient used for downloads.
func WithReleaseClient(c *ReleaseClient) ServiceOption {
	return func(s *Service) {
		s.client = c
	}
}

// NewService creates a Service for tool that caches under cacheRoot.
func NewService(tool Tool, cacheRoot string, opts ...ServiceOption) *Service {
	s := &Service{
		tool:      tool,
		cacheRoot: cacheRoot,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = NewReleaseClient()
	}
	return s
}

// Tool returns the tool descriptor the Service resolves.
func (s *Service) Tool() Tool {
	return s.tool
}

// InstallDir returns the directory an unpacked distribution lives in,
// whether or not it exists yet.
func (s *Service) InstallDir(spec Specifier) string {
	return filepath.Join(s.cacheRoot, s.tool.InstallDirName(spec))
}

// ResolveArchive returns the local path of the distribution archive for
// spec, downloading it into the cache on first use. Unsupported OS and
// architecture combinations fail with a NotFoundError before any network
// access.
func (s *Service) ResolveArchive(ctx context.Context, spec Specifier) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}

	classifier, ok := s.tool.Classifier(spec)
	if !ok {
		return "", &NotFoundError{Tool: s.tool.Name, Spec: spec, Reason: "no build is published for this os and architecture"}
	}

	archivesDir := filepath.Join(s.cacheRoot, archivesDirName)
	target := filepath.Join(archivesDir, s.tool.ArchiveName(spec.Version, classifier))
	if fileExists(target) {
		return target, nil
	}

	if err := os.MkdirAll(archivesDir, 0o755); err != nil {
		return "", fmt.Errorf("creating archive cache: %w", err)
	}

	assetURL := s.client.AssetURL(s.tool, spec.Version, classifier)
	slog.Debug("downloading distribution", "tool", s.tool.Name, "spec", spec.String(), "url", redactURL(assetURL))

	body, err := s.client.Download(ctx, assetURL)
	if err != nil {
		if errors.Is(err, ErrAssetNotFound) {
			return "", &NotFoundError{Tool: s.tool.Name, Spec: spec, Reason: "no release asset at " + redactURL(assetURL)}
		}
		return "", err
	}
	defer func() { _ = body.Close() }() // read-only HTTP response body

	tmp, err := downloadToTempFile(body, archivesDir, s.tool.Name)
	if err != nil {
		return "", err
	}

	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		// Another process may have published the same archive first.
		if fileExists(target) {
			return target, nil
		}
		return "", fmt.Errorf("publishing archive %s: %w", target, err)
	}

	return target, nil
}

// ResolveDistribution returns the directory of the unpacked distribution for
// spec. An existing install directory is returned as is. Otherwise the
// archive is resolved, unpacked into a temporary sibling directory and
// renamed into place.
func (s *Service) ResolveDistribution(ctx context.Context, spec Specifier) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}

	dir := s.InstallDir(spec)
	if dirExists(dir) {
		return dir, nil
	}

	archive, err := s.ResolveArchive(ctx, spec)
	if err != nil {
		return "", err
	}

	switch strings.ToLower(filepath.Ext(archive)) {
	case ".zip", ".tar":
	default:
		return "", &UnsupportedArchiveError{Path: archive}
	}

	staging, err := os.MkdirTemp(s.cacheRoot, s.tool.Name+"-install-")
	if err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}

	if err := Unpack(archive, staging); err != nil {
		_ = os.RemoveAll(staging)
		return "", fmt.Errorf("unpacking %s: %w", archive, err)
	}

	if err := os.Rename(staging, dir); err != nil {
		_ = os.RemoveAll(staging)
		if dirExists(dir) {
			return dir, nil
		}
		return "", fmt.Errorf("installing distribution into %s: %w", dir, err)
	}

	slog.Debug("installed distribution", "tool", s.tool.Name, "spec", spec.String(), "dir", dir)
	return dir, nil
}

// downloadToTempFile copies body into a temporary file in dir and returns
// its path. The partial file is removed on error.
func downloadToTempFile(body io.Reader, dir, prefix string) (_ string, err error) {
	tmp, err := os.CreateTemp(dir, prefix+"-download-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if closeErr := tmp.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := io.Copy(tmp, body); err != nil {
		return "", fmt.Errorf("writing to temp file: %w", err)
	}

	return tmp.Name(), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
