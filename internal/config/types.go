// SPDX-License-Identifier: MPL-2.0

package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultADLVersion is the adlc release used when adl.version is unset.
	DefaultADLVersion = "1.1"
	// DefaultHxADLVersion is the hx-adl release used when hxadl.version is unset.
	DefaultHxADLVersion = "0.31"
	// DefaultCharset decodes tool output when charset is unset.
	DefaultCharset = "UTF-8"
	// DefaultSourceDir is the ADL source directory, relative to the working directory.
	DefaultSourceDir = "src/main/adl"
)

type (
	// Config holds the application configuration.
	Config struct {
		// Platform is auto, native or docker.
		Platform string `json:"platform" mapstructure:"platform"`
		// CacheDir holds downloaded and unpacked tool distributions.
		CacheDir    string            `json:"cache_dir" mapstructure:"cache_dir"`
		Charset     string            `json:"charset" mapstructure:"charset"`
		UI          UIConfig          `json:"ui" mapstructure:"ui"`
		ADL         ToolConfig        `json:"adl" mapstructure:"adl"`
		HxADL       ToolConfig        `json:"hxadl" mapstructure:"hxadl"`
		Source      SourceConfig      `json:"source" mapstructure:"source"`
		Docker      DockerConfig      `json:"docker" mapstructure:"docker"`
		Native      NativeConfig      `json:"native" mapstructure:"native"`
		Generations GenerationsConfig `json:"generations" mapstructure:"generations"`
	}

	// UIConfig controls log verbosity.
	UIConfig struct {
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// Quiet hides tool output below warning level.
		Quiet bool `json:"quiet" mapstructure:"quiet"`
	}

	// ToolConfig selects a tool release.
	ToolConfig struct {
		Version string `json:"version" mapstructure:"version"`
	}

	// SourceConfig describes the ADL inputs shared by every generation.
	SourceConfig struct {
		// Dirs are scanned for files matching Include.
		Dirs    []string `json:"dirs" mapstructure:"dirs"`
		Include []string `json:"include" mapstructure:"include"`
		// SearchDirs are directories, or .zip/.jar/.tar archives, searched for imports.
		SearchDirs []string `json:"search_dirs" mapstructure:"search_dirs"`
		Verbose    bool     `json:"verbose" mapstructure:"verbose"`
	}

	// DockerConfig holds the Docker connection and image settings.
	DockerConfig struct {
		Host             string        `json:"host" mapstructure:"host"`
		TLSVerify        bool          `json:"tls_verify" mapstructure:"tls_verify"`
		CertPath         string        `json:"cert_path" mapstructure:"cert_path"`
		APIVersion       string        `json:"api_version" mapstructure:"api_version"`
		RegistryURL      string        `json:"registry_url" mapstructure:"registry_url"`
		RegistryUsername string        `json:"registry_username" mapstructure:"registry_username"`
		RegistryPassword string        `json:"registry_password" mapstructure:"registry_password"`
		ImageBuildMode   string        `json:"image_build_mode" mapstructure:"image_build_mode"`
		PullTimeout      time.Duration `json:"pull_timeout" mapstructure:"pull_timeout"`
		BuildTimeout     time.Duration `json:"build_timeout" mapstructure:"build_timeout"`
		ContainerTimeout time.Duration `json:"container_timeout" mapstructure:"container_timeout"`
	}

	// NativeConfig holds settings for tools run on the host.
	NativeConfig struct {
		// Timeout bounds one tool run; zero means no limit.
		Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
	}

	// GenerationsConfig lists the configured generations per kind.
	GenerationsConfig struct {
		Java       []JavaGeneration       `json:"java" mapstructure:"java"`
		JavaTables []JavaTablesGeneration `json:"java_tables" mapstructure:"java_tables"`
		Typescript []TypescriptGeneration `json:"typescript" mapstructure:"typescript"`
		Javascript []JavascriptGeneration `json:"javascript" mapstructure:"javascript"`
		SQL        []SQLGeneration        `json:"sql" mapstructure:"sql"`
	}

	JavaGeneration struct {
		OutputDir                  string   `json:"output_dir" mapstructure:"output_dir"`
		Package                    string   `json:"package" mapstructure:"package"`
		RuntimePackage             string   `json:"runtime_package" mapstructure:"runtime_package"`
		IncludeRuntime             bool     `json:"include_runtime" mapstructure:"include_runtime"`
		Transitive                 bool     `json:"transitive" mapstructure:"transitive"`
		SuppressWarningsAnnotation string   `json:"suppress_warnings_annotation" mapstructure:"suppress_warnings_annotation"`
		HeaderComment              string   `json:"header_comment" mapstructure:"header_comment"`
		Manifest                   string   `json:"manifest" mapstructure:"manifest"`
		Args                       []string `json:"args" mapstructure:"args"`
	}

	JavaTablesGeneration struct {
		OutputDir      string   `json:"output_dir" mapstructure:"output_dir"`
		Package        string   `json:"package" mapstructure:"package"`
		RuntimePackage string   `json:"runtime_package" mapstructure:"runtime_package"`
		Manifest       string   `json:"manifest" mapstructure:"manifest"`
		Args           []string `json:"args" mapstructure:"args"`
	}

	TypescriptGeneration struct {
		OutputDir       string   `json:"output_dir" mapstructure:"output_dir"`
		IncludeRuntime  bool     `json:"include_runtime" mapstructure:"include_runtime"`
		Transitive      bool     `json:"transitive" mapstructure:"transitive"`
		IncludeResolver bool     `json:"include_resolver" mapstructure:"include_resolver"`
		GenerateAST     bool     `json:"generate_ast" mapstructure:"generate_ast"`
		RuntimeDir      string   `json:"runtime_dir" mapstructure:"runtime_dir"`
		Manifest        string   `json:"manifest" mapstructure:"manifest"`
		Args            []string `json:"args" mapstructure:"args"`
	}

	JavascriptGeneration struct {
		OutputDir string   `json:"output_dir" mapstructure:"output_dir"`
		Manifest  string   `json:"manifest" mapstructure:"manifest"`
		Args      []string `json:"args" mapstructure:"args"`
	}

	SQLGeneration struct {
		OutputDir string `json:"output_dir" mapstructure:"output_dir"`
	}
)

// DefaultConfig returns the configuration used when no file sets a key.
func DefaultConfig() *Config {
	return &Config{
		Platform: "auto",
		CacheDir: DefaultCacheDir(),
		Charset:  DefaultCharset,
		ADL:      ToolConfig{Version: DefaultADLVersion},
		HxADL:    ToolConfig{Version: DefaultHxADLVersion},
		Source: SourceConfig{
			Dirs:    []string{DefaultSourceDir},
			Include: []string{"*.adl"},
		},
		Docker: DockerConfig{
			ImageBuildMode: "use-existing",
		},
	}
}

// DefaultCacheDir returns {UserCacheDir}/adlgen/distributions, falling back
// to the temp directory when the user cache directory is unknown.
func DefaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, AppName, "distributions")
}

// GenerationCount returns the number of configured generations of every kind.
func (g GenerationsConfig) GenerationCount() int {
	return len(g.Java) + len(g.JavaTables) + len(g.Typescript) + len(g.Javascript) + len(g.SQL)
}
