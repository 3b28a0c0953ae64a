// SPDX-License-Identifier: MPL-2.0

package distribution

import "fmt"

var (
	// ADL describes the binary distributions of the ADL compiler (adlc).
	ADL = Tool{
		Name:        "adl",
		ReleaseBase: "https://github.com/timbod7/adl/releases/download/",
		Artifact:    "adl-bindist",
		Extension:   "zip",
	}

	// HxADL describes the binary distributions of the Helix ADL tools (hx-adl).
	HxADL = Tool{
		Name:        "hxadl",
		ReleaseBase: "https://github.com/helix-collective/helix-adl-tools/releases/download/",
		Artifact:    "hxadl-bindist",
		Extension:   "zip",
	}
)

// Tool describes where the releases of one tool are published and how its
// archives are named.
type Tool struct {
	// Name prefixes cache directories, e.g. "adl" in "adl-1.1-linux-amd64".
	Name string
	// ReleaseBase is the URL that version directories are relative to.
	ReleaseBase string
	// Artifact is the archive base name, e.g. "adl-bindist".
	Artifact string
	// Extension is the archive extension without a dot.
	Extension string
}

// Classifier returns the release classifier for a Specifier, or false if the
// tool publishes no build for that OS and architecture.
// Only 64-bit x86 Linux and macOS builds are published, classified by the
// bare OS family name ("linux", "osx").
func (t Tool) Classifier(spec Specifier) (string, bool) {
	if spec.Arch != ArchAMD64 {
		return "", false
	}
	switch spec.OS {
	case OSLinux, OSMac:
		return string(spec.OS), true
	default:
		return "", false
	}
}

// ArchiveName returns the file name of the release archive for a classifier.
func (t Tool) ArchiveName(version, classifier string) string {
	return fmt.Sprintf("%s-%s-%s.%s", t.Artifact, version, classifier, t.Extension)
}

// InstallDirName returns the deterministic cache directory name of an
// unpacked distribution: {tool}-{version}-{osFamily}-{arch}.
func (t Tool) InstallDirName(spec Specifier) string {
	return fmt.Sprintf("%s-%s-%s-%s", t.Name, spec.Version, spec.OS, spec.Arch)
}
