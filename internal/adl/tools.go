// SPDX-License-Identifier: MPL-2.0

package adl

import (
	"strings"

	"github.com/helix-collective/adlgen/internal/container"
	"github.com/helix-collective/adlgen/internal/distribution"
	"github.com/helix-collective/adlgen/internal/runtime"
)

const (
	// ADLToolName is the name adlc output lines are logged under.
	ADLToolName = "adlc"
	// HxADLToolName is the name hx-adl output lines are logged under.
	HxADLToolName = "hx-adl"

	hxADLInstallDir = "/opt/hx-adl"
)

// NewADLTool describes the ADL compiler, resolved through svc.
func NewADLTool(svc *distribution.Service) *runtime.Tool {
	return &runtime.Tool{
		Name:            ADLToolName,
		Distribution:    svc,
		Executable:      distribution.ExecutableResolver{RelativePath: "bin/adlc"},
		InstallDir:      "/opt/adl",
		MappedBaseDir:   "/data",
		ImageRepository: "adl/adlc",
		ContainerPrefix: "adlgen-adl",
	}
}

// NewHxADLTool describes the Helix ADL tools, resolved through svc.
//
// hx-adl is a shell script without a shebang line, so the container runs
// it through bash. Its image also needs node and yarn.
func NewHxADLTool(svc *distribution.Service) *runtime.Tool {
	return &runtime.Tool{
		Name:            HxADLToolName,
		Distribution:    svc,
		Executable:      distribution.ExecutableResolver{RelativePath: "bin/hx-adl"},
		InstallDir:      hxADLInstallDir,
		MappedBaseDir:   "/data",
		ImageRepository: "hxadl/hxadl",
		ContainerPrefix: "adlgen-hxadl",
		ImageTransform:  installNodeTooling,
		PostProcess: func(command []string) []string {
			return append([]string{"/bin/bash"}, command...)
		},
	}
}

func installNodeTooling(def *container.ImageDefinition) {
	setup := strings.Join([]string{
		"apt-get update",
		"DEBIAN_FRONTEND=noninteractive apt-get -y install nodejs npm",
		"npm install --global yarn",
		"rm -rf /var/lib/apt/lists/* /var/cache/apt/*",
	}, " && ")
	def.Prepend("RUN " + setup)
	def.Append("RUN yarn install --cwd " + hxADLInstallDir + "/lib/js")
}

// ToolFor returns which of the two tools runs g.
func ToolFor(g Generation, adlTool, hxADLTool *runtime.Tool) *runtime.Tool {
	if g.Kind() == KindSQL {
		return hxADLTool
	}
	return adlTool
}
