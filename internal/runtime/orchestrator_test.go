// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/helix-collective/adlgen/internal/cmdline"
	"github.com/helix-collective/adlgen/internal/testutil"
)

// stubRuntime records the invocations it receives.
type stubRuntime struct {
	platform Platform
	err      error
	calls    int
}

func (s *stubRuntime) Platform() Platform { return s.platform }

func (s *stubRuntime) Execute(context.Context, *ExecutionContext) error {
	s.calls++
	return s.err
}

func newStubOrchestrator(log *testutil.ToolLog) (*Orchestrator, *stubRuntime, *stubRuntime) {
	native := &stubRuntime{platform: PlatformNative}
	docker := &stubRuntime{platform: PlatformDocker}
	reg := NewRegistry()
	reg.Register(native)
	reg.Register(docker)
	return NewOrchestrator(reg, log), native, docker
}

func TestOrchestrator_AutoSelectsNativeWhenInstalled(t *testing.T) {
	t.Parallel()

	srv, _ := missingReleases(t)
	tool := newTestTool(t.TempDir(), srv.URL)
	installHostDistribution(t, tool, "exit 0\n")

	log := testutil.NewToolLog(true)
	orch, native, docker := newStubOrchestrator(log)
	err := orch.Run(context.Background(), PlatformAuto, &ExecutionContext{Tool: tool, Version: testVersion, CommandLine: cmdline.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if native.calls != 1 || docker.calls != 0 {
		t.Errorf("native=%d docker=%d, want native only", native.calls, docker.calls)
	}
	if got := log.Messages("info", "adlc"); !slices.Equal(got, []string{"Selected tool platform: NATIVE"}) {
		t.Errorf("unexpected log %q", got)
	}
}

func TestOrchestrator_AutoFallsBackToDocker(t *testing.T) {
	t.Parallel()

	srv, _ := missingReleases(t)
	tool := newTestTool(t.TempDir(), srv.URL)

	log := testutil.NewToolLog(true)
	orch, native, docker := newStubOrchestrator(log)
	err := orch.Run(context.Background(), "", &ExecutionContext{Tool: tool, Version: testVersion, CommandLine: cmdline.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if native.calls != 0 || docker.calls != 1 {
		t.Errorf("native=%d docker=%d, want docker only", native.calls, docker.calls)
	}
	if got := log.Messages("info", "adlc"); !slices.Equal(got, []string{"Selected tool platform: DOCKER"}) {
		t.Errorf("unexpected log %q", got)
	}
}

func TestOrchestrator_AutoFailsOnOtherErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	tool := newTestTool(t.TempDir(), srv.URL)

	orch, native, docker := newStubOrchestrator(testutil.NewToolLog(true))
	platform, err := orch.Select(context.Background(), PlatformAuto, tool, testVersion)
	if supportedHost() {
		if err == nil {
			t.Fatalf("expected error, got platform %s", platform)
		}
	} else if err != nil || platform != PlatformDocker {
		t.Fatalf("unsupported hosts select docker without network access, got %s, %v", platform, err)
	}
	if native.calls+docker.calls != 0 {
		t.Error("Select must not execute")
	}
}

func TestOrchestrator_ExplicitPlatformSkipsResolution(t *testing.T) {
	t.Parallel()

	srv, requests := missingReleases(t)
	tool := newTestTool(t.TempDir(), srv.URL)

	orch, native, _ := newStubOrchestrator(testutil.NewToolLog(true))
	native.err = errors.New("tool crashed")

	err := orch.Run(context.Background(), PlatformNative, &ExecutionContext{Tool: tool, Version: testVersion, CommandLine: cmdline.New()})
	if !errors.Is(err, native.err) {
		t.Fatalf("expected native error, got %v", err)
	}
	if requests.Load() != 0 {
		t.Error("explicit platform must not resolve distributions")
	}
}

func TestOrchestrator_InvalidPlatform(t *testing.T) {
	t.Parallel()

	srv, _ := missingReleases(t)
	tool := newTestTool(t.TempDir(), srv.URL)

	orch, _, _ := newStubOrchestrator(testutil.NewToolLog(true))
	_, err := orch.Select(context.Background(), "wasm", tool, testVersion)
	if !errors.Is(err, ErrInvalidPlatform) {
		t.Fatalf("expected ErrInvalidPlatform, got %v", err)
	}
}
