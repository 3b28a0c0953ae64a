// SPDX-License-Identifier: MPL-2.0

package adl

import (
	"slices"
	"strings"
	"testing"

	"github.com/helix-collective/adlgen/internal/container"
	"github.com/helix-collective/adlgen/internal/distribution"
)

func TestNewADLTool(t *testing.T) {
	t.Parallel()

	tool := NewADLTool(distribution.NewService(distribution.ADL, t.TempDir()))
	if err := tool.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tool.ImageTag("1.1").String(); got != "adl/adlc:1.1" {
		t.Errorf("ImageTag = %q", got)
	}
	if got := tool.ContainerExecutable("1.1"); got != "/opt/adl/bin/adlc" {
		t.Errorf("ContainerExecutable = %q", got)
	}
	if tool.PostProcess != nil || tool.ImageTransform != nil {
		t.Error("adlc needs no container hooks")
	}
}

func TestNewHxADLTool(t *testing.T) {
	t.Parallel()

	tool := NewHxADLTool(distribution.NewService(distribution.HxADL, t.TempDir()))
	if got := tool.ImageTag("0.31").String(); got != "hxadl/hxadl:0.31" {
		t.Errorf("ImageTag = %q", got)
	}

	cmd := tool.PostProcess([]string{"/opt/hx-adl/bin/hx-adl", "sql"})
	if !slices.Equal(cmd, []string{"/bin/bash", "/opt/hx-adl/bin/hx-adl", "sql"}) {
		t.Errorf("PostProcess = %q", cmd)
	}

	def := container.NewToolImageDefinition("1.0", tool.InstallDir, tool.ContainerExecutable("0.31"))
	tool.ImageTransform(def)
	if len(def.Commands) != 4 {
		t.Fatalf("expected 4 commands, got %q", def.Commands)
	}
	if !strings.HasPrefix(def.Commands[0], "RUN apt-get update && ") {
		t.Errorf("first command = %q", def.Commands[0])
	}
	if def.Commands[3] != "RUN yarn install --cwd /opt/hx-adl/lib/js" {
		t.Errorf("last command = %q", def.Commands[3])
	}
}

func TestToolFor(t *testing.T) {
	t.Parallel()

	adlTool := NewADLTool(distribution.NewService(distribution.ADL, t.TempDir()))
	hxTool := NewHxADLTool(distribution.NewService(distribution.HxADL, t.TempDir()))

	if ToolFor(SQL{}, adlTool, hxTool) != hxTool {
		t.Error("sql must run with hx-adl")
	}
	for _, g := range []Generation{Java{}, JavaTables{}, Typescript{}, Javascript{}} {
		if ToolFor(g, adlTool, hxTool) != adlTool {
			t.Errorf("%s must run with adlc", g.Kind())
		}
	}
}
