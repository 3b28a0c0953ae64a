// SPDX-License-Identifier: MPL-2.0

// Package config loads adlgen settings using Viper with CUE as the file format.
//
// The file is looked up at the --config path, then {ConfigDir}/config.cue
// (XDG_CONFIG_HOME on Linux, ~/Library/Application Support on macOS,
// %APPDATA% on Windows), then ./adlgen.cue. A file is validated against the
// embedded #Config schema (config_schema.cue) before it is merged over the
// defaults. Scalar keys can be overridden with ADLGEN_ environment
// variables, e.g. ADLGEN_DOCKER_IMAGE_BUILD_MODE=rebuild.
package config
