// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/helix-collective/adlgen/internal/cmdline"
	"github.com/helix-collective/adlgen/internal/console"
	"github.com/helix-collective/adlgen/internal/container"
	"github.com/helix-collective/adlgen/internal/container/containertest"
	"github.com/helix-collective/adlgen/internal/testutil"
)

type containerFixture struct {
	tool      *Tool
	engine    *containertest.Engine
	log       *testutil.ToolLog
	work      string
	cacheRoot string
}

func newContainerFixture(t *testing.T) *containerFixture {
	t.Helper()

	srv, _ := missingReleases(t)
	cacheRoot := t.TempDir()
	tool := newTestTool(cacheRoot, srv.URL)
	engine := containertest.NewEngine()
	engine.Images[tool.ImageTag(testVersion)] = map[string]string{}
	return &containerFixture{
		tool:      tool,
		engine:    engine,
		log:       testutil.NewToolLog(true),
		work:      t.TempDir(),
		cacheRoot: cacheRoot,
	}
}

func (f *containerFixture) runtime(opts ContainerOptions) *ContainerRuntime {
	return NewContainerRuntime(f.log, func(context.Context) (container.Engine, error) { return f.engine, nil }, opts)
}

func (f *containerFixture) execute(opts ContainerOptions, cl *cmdline.CommandLine) error {
	return f.runtime(opts).Execute(context.Background(), &ExecutionContext{Tool: f.tool, Version: testVersion, CommandLine: cl})
}

func TestContainerRuntime_RoundTrip(t *testing.T) {
	t.Parallel()

	f := newContainerFixture(t)
	src := filepath.Join(f.work, "adl")
	testutil.WriteFiles(t, src, map[string]string{"a.adl": "module a {};", "sub/b.adl": "module sub.b {};"})
	out := filepath.Join(f.work, "out")
	manifest := filepath.Join(f.work, "manifest.txt")

	f.engine.Output = []containertest.Chunk{
		{Stream: console.StreamStdout, Data: "generating\n"},
		{Stream: console.StreamStderr, Data: "warning: x\n"},
		{Stream: console.StreamStdout, Data: "done\n"},
	}
	f.engine.OnStart = func(e *containertest.Engine, _ []string) {
		e.WriteFile("/data/out/A.java", []byte("class A {}"))
		e.WriteFile("/data/out/sub/B.java", []byte("class B {}"))
		e.WriteFile("/data/manifest", []byte("A.java\n"))
	}

	cl := cmdline.New("java").
		File("out", out, cmdline.ModeOutput, cmdline.KindDirectory, cmdline.Prefixed("--outputdir=")).
		File("manifest", manifest, cmdline.ModeOutput, cmdline.KindSingleFile, cmdline.Prefixed("--manifest=")).
		Tree("src", cmdline.DirTree{Root: src}, cmdline.EachFile)

	if err := f.execute(ContainerOptions{BuildMode: container.BuildModeUseExisting}, cl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.engine.Created) != 1 {
		t.Fatalf("expected one container, got %d", len(f.engine.Created))
	}
	created := f.engine.Created[0]
	wantCmd := []string{"/opt/adl/bin/adlc", "java", "--outputdir=/data/out", "--manifest=/data/manifest", "/data/src/a.adl", "/data/src/sub/b.adl"}
	if !slices.Equal(created.Command, wantCmd) {
		t.Errorf("command = %q, want %q", created.Command, wantCmd)
	}
	if !strings.HasPrefix(string(created.Name), "adlgen-adl-") {
		t.Errorf("unexpected container name %q", created.Name)
	}

	if data, ok := f.engine.ReadFile("/data/src/sub/b.adl"); !ok || string(data) != "module sub.b {};" {
		t.Errorf("input not copied into container: %q", data)
	}

	for name, want := range map[string]string{
		filepath.Join(out, "A.java"):        "class A {}",
		filepath.Join(out, "sub", "B.java"): "class B {}",
		manifest:                            "A.java\n",
	} {
		got, err := os.ReadFile(name)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}

	wantLog := []testutil.LogEntry{
		{Level: "info", Tool: "adlc", Message: "generating"},
		{Level: "error", Tool: "adlc", Message: "warning: x"},
		{Level: "info", Tool: "adlc", Message: "done"},
	}
	if got := f.log.Entries(); !slices.Equal(got, wantLog) {
		t.Errorf("log = %v, want %v", got, wantLog)
	}

	if names := f.engine.CallNames(); names[len(names)-1] != "remove-container" {
		t.Errorf("expected container removal last, got %v", names)
	}
}

func TestContainerRuntime_FailureReplaysStdoutAsErrors(t *testing.T) {
	t.Parallel()

	f := newContainerFixture(t)
	f.engine.ExitCode = 2
	f.engine.Output = []containertest.Chunk{
		{Stream: console.StreamStdout, Data: "parsing\n"},
		{Stream: console.StreamStderr, Data: "syntax error\n"},
	}
	out := filepath.Join(f.work, "out")
	cl := cmdline.New().File("out", out, cmdline.ModeOutput, cmdline.KindDirectory, nil)

	err := f.execute(ContainerOptions{}, cl)

	var execErr *ExecutionError
	if !errors.As(err, &execErr) || execErr.ExitCode != 2 {
		t.Fatalf("expected exit code 2, got %v", err)
	}
	if got := f.log.Messages("error", "adlc"); !slices.Equal(got, []string{"parsing", "syntax error"}) {
		t.Errorf("error lines = %q", got)
	}
	if f.engine.Called("copy-from") {
		t.Error("outputs must not be copied after a failed run")
	}
	if !f.engine.Called("remove-container") {
		t.Error("expected container removal after failure")
	}
}

func TestContainerRuntime_RemovalFailureIsNotPropagated(t *testing.T) {
	t.Parallel()

	f := newContainerFixture(t)
	f.engine.RemoveContainerErr = errors.New("engine busy")

	if err := f.execute(ContainerOptions{}, cmdline.New("--version")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestContainerRuntime_MissingOutputFile(t *testing.T) {
	t.Parallel()

	f := newContainerFixture(t)
	cl := cmdline.New().File("manifest", filepath.Join(f.work, "m.txt"), cmdline.ModeOutput, cmdline.KindSingleFile, nil)

	err := f.execute(ContainerOptions{}, cl)
	if !errors.Is(err, ErrExecutionFailed) {
		t.Fatalf("expected execution failure, got %v", err)
	}
}

func TestContainerRuntime_RebuildBuildsFromCachedArchive(t *testing.T) {
	t.Parallel()

	f := newContainerFixture(t)
	cacheLinuxArchive(t, f.tool, f.cacheRoot)
	f.tool.ImageTransform = func(def *container.ImageDefinition) {
		def.Append("RUN echo transformed")
	}

	if err := f.execute(ContainerOptions{BuildMode: container.BuildModeRebuild, GeneratorVersion: "2.0"}, cmdline.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.engine.Called("pull") {
		t.Error("rebuild must not pull")
	}
	if !f.engine.Called("remove-image") || len(f.engine.BuildContexts) != 1 {
		t.Fatalf("expected remove and build, got %v", f.engine.Calls)
	}
	if !strings.Contains(string(f.engine.BuildContexts[0]), "RUN echo transformed") {
		t.Error("build context does not contain the transformed Dockerfile")
	}
	if got := f.log.Messages("info", console.ToolDocker); !slices.Contains(got, "Building Docker image adl/adlc:1.0.0") {
		t.Errorf("docker log = %q", got)
	}
}

func TestContainerRuntime_EngineUnavailable(t *testing.T) {
	t.Parallel()

	f := newContainerFixture(t)
	wantErr := errors.New("cannot connect")
	calls := 0
	rt := NewContainerRuntime(f.log, func(context.Context) (container.Engine, error) {
		calls++
		return nil, wantErr
	}, ContainerOptions{})

	for range 2 {
		err := rt.Execute(context.Background(), &ExecutionContext{Tool: f.tool, Version: testVersion, CommandLine: cmdline.New()})
		if !errors.Is(err, wantErr) {
			t.Fatalf("expected connection error, got %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("expected one connection attempt, got %d", calls)
	}
}
