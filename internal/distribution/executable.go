// SPDX-License-Identifier: MPL-2.0

package distribution

import "strings"

// ExecutableResolver maps a distribution directory to the tool executable in it.
type ExecutableResolver struct {
	// RelativePath is the slash-separated executable path inside the
	// distribution, without extension, e.g. "bin/adlc".
	RelativePath string
}

// Resolve returns the executable path for a distribution rooted at baseDir.
// Windows targets get backslash separators and an ".exe" suffix; every other
// target gets forward slashes and no extension. baseDir is used verbatim, so
// the result is valid for the target even when the host differs.
func (r ExecutableResolver) Resolve(baseDir string, spec Specifier) string {
	rel := strings.Trim(r.RelativePath, "/")
	if spec.IsWindows() {
		base := strings.TrimRight(strings.ReplaceAll(baseDir, "/", `\`), `\`)
		return base + `\` + strings.ReplaceAll(rel, "/", `\`) + ".exe"
	}
	base := strings.TrimRight(strings.ReplaceAll(baseDir, `\`, "/"), "/")
	return base + "/" + rel
}
