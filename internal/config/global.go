// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride replaces the result of ConfigDir when set.
// os.UserHomeDir() doesn't reliably respect HOME on every platform, so
// tests pin the directory through SetConfigDirOverride instead.
var configDirOverride string

// Reset clears test overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride makes ConfigDir return dir.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
