// SPDX-License-Identifier: MPL-2.0

package distribution

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
)

// testZip builds a zip archive holding the given slash-separated files.
func testZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
		hdr.SetMode(0o755)
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("creating zip entry: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("writing zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

// releaseServer serves archive for every request path and counts requests.
func releaseServer(t *testing.T, archive []byte) (*httptest.Server, *atomic.Int32, *atomic.Value) {
	t.Helper()

	var requests atomic.Int32
	var lastPath atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		lastPath.Store(r.URL.Path)
		if archive == nil {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(archive)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests, &lastPath
}

func TestResolveArchive_UnsupportedPlatformPerformsNoNetworkAccess(t *testing.T) {
	t.Parallel()

	srv, requests, _ := releaseServer(t, testZip(t, map[string]string{"bin/adlc": "x"}))
	svc := NewService(ADL, t.TempDir(), WithReleaseClient(NewReleaseClient(WithBaseURL(srv.URL))))

	tests := []struct {
		name string
		spec Specifier
	}{
		{name: "windows amd64", spec: NewSpecifier("1.1", "amd64", "windows")},
		{name: "linux arm64", spec: NewSpecifier("1.1", "aarch64", "linux")},
		{name: "osx arm64", spec: NewSpecifier("1.1", "arm64", "darwin")},
		{name: "freebsd amd64", spec: NewSpecifier("1.1", "x86_64", "freebsd")},
		{name: "linux x86", spec: NewSpecifier("1.1", "x86", "linux")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ResolveArchive(context.Background(), tt.spec)
			if !IsNotFound(err) {
				t.Fatalf("expected not found error, got %v", err)
			}
			var nf *NotFoundError
			if !errors.As(err, &nf) {
				t.Fatalf("expected *NotFoundError, got %T", err)
			}
			if nf.Spec != tt.spec {
				t.Errorf("expected spec %v in error, got %v", tt.spec, nf.Spec)
			}
		})
	}

	if got := requests.Load(); got != 0 {
		t.Errorf("expected no HTTP requests, got %d", got)
	}
}

func TestResolveDistribution_IsIdempotent(t *testing.T) {
	t.Parallel()

	srv, requests, lastPath := releaseServer(t, testZip(t, map[string]string{
		"bin/adlc":         "#!/bin/sh\necho adlc\n",
		"lib/adl/sys.adl":  "module sys {};",
		"share/readme.txt": "hello",
	}))
	cacheRoot := t.TempDir()
	svc := NewService(ADL, cacheRoot, WithReleaseClient(NewReleaseClient(WithBaseURL(srv.URL))))
	spec := NewSpecifier("1.1", "x86_64", "linux")

	first, err := svc.ResolveDistribution(context.Background(), spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.ResolveDistribution(context.Background(), spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != second {
		t.Errorf("expected identical directories, got %q and %q", first, second)
	}
	if want := filepath.Join(cacheRoot, "adl-1.1-linux-amd64"); first != want {
		t.Errorf("expected install dir %q, got %q", want, first)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("expected exactly 1 download, got %d", got)
	}
	if got := lastPath.Load(); got != "/v1.1/adl-bindist-1.1-linux.zip" {
		t.Errorf("unexpected download path %v", got)
	}

	content, err := os.ReadFile(filepath.Join(first, "lib", "adl", "sys.adl"))
	if err != nil {
		t.Fatalf("reading unpacked file: %v", err)
	}
	if string(content) != "module sys {};" {
		t.Errorf("unexpected unpacked content %q", content)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(first, "bin", "adlc"))
		if err != nil {
			t.Fatalf("stat executable: %v", err)
		}
		if info.Mode().Perm()&0o100 == 0 {
			t.Errorf("expected executable bit to be preserved, got mode %v", info.Mode())
		}
	}

	entries, err := os.ReadDir(cacheRoot)
	if err != nil {
		t.Fatalf("reading cache root: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "adl-install-") {
			t.Errorf("staging directory %q left behind", e.Name())
		}
	}
}

func TestResolveDistribution_ExistingDirectoryIsReturnedUnconditionally(t *testing.T) {
	t.Parallel()

	srv, requests, _ := releaseServer(t, nil)
	cacheRoot := t.TempDir()
	svc := NewService(HxADL, cacheRoot, WithReleaseClient(NewReleaseClient(WithBaseURL(srv.URL))))
	spec := NewSpecifier("0.31", "amd64", "linux")

	existing := filepath.Join(cacheRoot, "hxadl-0.31-linux-amd64")
	if err := os.MkdirAll(existing, 0o755); err != nil {
		t.Fatalf("creating install dir: %v", err)
	}

	got, err := svc.ResolveDistribution(context.Background(), spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != existing {
		t.Errorf("expected %q, got %q", existing, got)
	}
	if requests.Load() != 0 {
		t.Errorf("expected no HTTP requests, got %d", requests.Load())
	}
}

func TestResolveArchive_MissingReleaseIsNotFound(t *testing.T) {
	t.Parallel()

	srv, _, _ := releaseServer(t, nil)
	svc := NewService(ADL, t.TempDir(), WithReleaseClient(NewReleaseClient(WithBaseURL(srv.URL))))

	_, err := svc.ResolveArchive(context.Background(), NewSpecifier("9.9.9", "amd64", "osx"))
	if !errors.Is(err, ErrDistributionNotFound) {
		t.Fatalf("expected ErrDistributionNotFound, got %v", err)
	}
}

func TestResolveArchive_ReusesCachedArchive(t *testing.T) {
	t.Parallel()

	srv, requests, _ := releaseServer(t, testZip(t, map[string]string{"bin/adlc": "x"}))
	svc := NewService(ADL, t.TempDir(), WithReleaseClient(NewReleaseClient(WithBaseURL(srv.URL))))
	spec := NewSpecifier("1.1", "amd64", "linux")

	for range 3 {
		if _, err := svc.ResolveArchive(context.Background(), spec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("expected 1 download, got %d", got)
	}
}

func TestResolveDistribution_UnsupportedArchiveExtension(t *testing.T) {
	t.Parallel()

	srv, _, _ := releaseServer(t, []byte("not an archive"))
	tool := ADL
	tool.Extension = "tgz"
	svc := NewService(tool, t.TempDir(), WithReleaseClient(NewReleaseClient(WithBaseURL(srv.URL))))

	_, err := svc.ResolveDistribution(context.Background(), NewSpecifier("1.1", "amd64", "linux"))
	if !errors.Is(err, ErrUnsupportedArchive) {
		t.Fatalf("expected ErrUnsupportedArchive, got %v", err)
	}
}

func TestResolveDistribution_InvalidSpecifier(t *testing.T) {
	t.Parallel()

	svc := NewService(ADL, t.TempDir())
	_, err := svc.ResolveDistribution(context.Background(), NewSpecifier("../1.1", "amd64", "linux"))
	if !errors.Is(err, ErrInvalidSpecifier) {
		t.Fatalf("expected ErrInvalidSpecifier, got %v", err)
	}
}

func TestDownload_TokenOnlySentToGitHub(t *testing.T) {
	t.Parallel()

	var gotAuth atomic.Value
	gotAuth.Store("")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := NewReleaseClient(WithToken("secret"))
	body, err := client.Download(context.Background(), srv.URL+"/v1/a.zip?token=x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = body.Close()

	if got := gotAuth.Load(); got != "" {
		t.Errorf("expected no Authorization header for non-GitHub host, got %q", got)
	}
}

func TestAssetURL(t *testing.T) {
	t.Parallel()

	client := NewReleaseClient()
	got := client.AssetURL(ADL, "1.1", "osx")
	want := "https://github.com/timbod7/adl/releases/download/v1.1/adl-bindist-1.1-osx.zip"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	got = client.AssetURL(HxADL, "0.31", "linux")
	want = "https://github.com/helix-collective/helix-adl-tools/releases/download/v0.31/hxadl-bindist-0.31-linux.zip"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestClassifierAssetURL(t *testing.T) {
	t.Parallel()

	client := NewReleaseClient()
	tests := []struct {
		name string
		tool Tool
		spec Specifier
		want string
	}{
		{
			name: "adl linux",
			tool: ADL,
			spec: NewSpecifier("1.1", "amd64", "linux"),
			want: "https://github.com/timbod7/adl/releases/download/v1.1/adl-bindist-1.1-linux.zip",
		},
		{
			name: "adl macos",
			tool: ADL,
			spec: NewSpecifier("1.1", "x86_64", "darwin"),
			want: "https://github.com/timbod7/adl/releases/download/v1.1/adl-bindist-1.1-osx.zip",
		},
		{
			name: "hxadl linux",
			tool: HxADL,
			spec: NewSpecifier("0.31", "x86_64", "linux"),
			want: "https://github.com/helix-collective/helix-adl-tools/releases/download/v0.31/hxadl-bindist-0.31-linux.zip",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			classifier, ok := tt.tool.Classifier(tt.spec)
			if !ok {
				t.Fatalf("expected a classifier for %s", tt.spec)
			}
			if got := client.AssetURL(tt.tool, tt.spec.Version, classifier); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
