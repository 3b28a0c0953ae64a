// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	DistributionNotFoundId Id = iota + 1
	DockerNotAvailableId
	ToolExecutionFailedId
	ConfigLoadFailedId
	TransferFailedId
	InvalidPlatformId
	ImagePrepareFailedId
	UnsupportedGenerationId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // catalog key
	mdMsg    MarkdownMsg // rendered with glamour
	docLinks []HttpLink  // project documentation
	extLinks []HttpLink  // upstream tool documentation
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Markdown returns the message followed by a "See also" list of links.
func (i *Issue) Markdown() string {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		sb.WriteString("\n\n## See also\n")
		for _, link := range append(i.DocLinks(), i.extLinks...) {
			sb.WriteString("\n- <" + string(link) + ">")
		}
	}
	return sb.String()
}

func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

var (
	render = glamour.Render

	distributionNotFoundIssue = &Issue{
		id: DistributionNotFoundId,
		mdMsg: `
# No tool distribution for this platform!

There is no published binary of the requested tool version for this
operating system and architecture.

## Things you can try:
- Check the version in your config file:
~~~cue
adl: version: "1.1"
~~~

- Let adlgen run the tool in Docker instead:
~~~
$ adlgen generate --platform docker
~~~`,
		extLinks: []HttpLink{
			"https://github.com/timbod7/adl/releases",
			"https://github.com/helix-collective/helix-adl-tools/releases",
		},
	}

	dockerNotAvailableIssue = &Issue{
		id: DockerNotAvailableId,
		mdMsg: `
# Docker is not available!

The tool has to run in a container but the Docker engine could not be
reached.

## Things you can try:
- Start Docker and check that it responds:
~~~
$ docker info
~~~

- Point adlgen at a remote engine:
~~~cue
docker: host: "tcp://build-host:2376"
docker: tls_verify: true
~~~

- On Windows, use a tcp or npipe host. Unix sockets are not supported there.`,
		extLinks: []HttpLink{"https://docs.docker.com/engine/install/"},
	}

	toolExecutionFailedIssue = &Issue{
		id: ToolExecutionFailedId,
		mdMsg: `
# Code generation failed!

The ADL tool exited with an error. Its output is shown above.

## Things you can try:
- Fix the ADL errors reported by the tool
- Check the search directories for missing imported modules
- Run again with more detail:
~~~
$ adlgen generate --verbose
~~~`,
		extLinks: []HttpLink{"https://github.com/timbod7/adl/tree/master/docs"},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The adlgen configuration file could not be read or is invalid.

## Things you can try:
- Print the effective configuration:
~~~
$ adlgen config show
~~~

- Write a fresh configuration file:
~~~
$ adlgen config init
~~~

- Check the CUE syntax and field names against the schema`,
	}

	transferFailedIssue = &Issue{
		id: TransferFailedId,
		mdMsg: `
# File transfer failed!

Copying files between the host and the tool container failed.

## Things you can try:
- Check that the source and output directories exist and are readable
- Check free disk space on the host and on the Docker engine
- Make sure generated file names do not escape the output directory`,
	}

	invalidPlatformIssue = &Issue{
		id: InvalidPlatformId,
		mdMsg: `
# Invalid platform!

The platform must be one of:
- **auto**: run natively when a distribution exists for this host, otherwise in Docker
- **native**: run the tool as a host process
- **docker**: run the tool in a container

~~~
$ adlgen generate --platform auto
~~~`,
	}

	imagePrepareFailedIssue = &Issue{
		id: ImagePrepareFailedId,
		mdMsg: `
# Failed to prepare the tool image!

The tool image could not be pulled and building it locally also failed.

## Things you can try:
- Check registry credentials in the docker section of your config
- Force a clean build:
~~~
$ adlgen generate --image-build-mode rebuild
~~~`,
	}

	unsupportedGenerationIssue = &Issue{
		id: UnsupportedGenerationId,
		mdMsg: `
# Unsupported generation!

None of the ADL tools can produce this generation. No tool was run.

Java table classes (` + "`generations: java_tables`" + `) have no generator
backend. Use a plain Java generation for the ADL types instead:
~~~cue
generations: java: [{
	output_dir: "build/generated/adl"
	package:    "com.example.adl"
}]
~~~`,
	}

	issues = map[Id]*Issue{
		distributionNotFoundIssue.Id():  distributionNotFoundIssue,
		dockerNotAvailableIssue.Id():    dockerNotAvailableIssue,
		toolExecutionFailedIssue.Id():   toolExecutionFailedIssue,
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		transferFailedIssue.Id():        transferFailedIssue,
		invalidPlatformIssue.Id():       invalidPlatformIssue,
		imagePrepareFailedIssue.Id():    imagePrepareFailedIssue,
		unsupportedGenerationIssue.Id(): unsupportedGenerationIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
