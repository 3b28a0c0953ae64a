// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"time"

	"github.com/helix-collective/adlgen/internal/container"
	"github.com/helix-collective/adlgen/internal/issue"
	"github.com/helix-collective/adlgen/internal/runtime"
	"github.com/helix-collective/adlgen/pkg/platform"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "adlgen"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// LocalConfigFile is looked up in the working directory when the config
	// directory has no config file.
	LocalConfigFile = AppName + "." + ConfigFileExt
	// EnvPrefix prefixes environment variable overrides.
	EnvPrefix = "ADLGEN"
)

// ErrConfigExists is returned when writing over an existing config file
// without force.
var ErrConfigExists = errors.New("config file already exists")

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the adlgen configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch goruntime.GOOS {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// DefaultConfigPath returns {ConfigDir}/config.cue.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// Load reads the configuration like Provider.Load and also returns the path
// of the file it came from, or "" when only defaults and the environment
// were used.
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	return loadWithOptions(ctx, opts)
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath, err := findConfigFile(opts)
	if err != nil {
		return nil, "", err
	}
	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", loadError(resolvedPath, err,
				"Check that the file contains valid CUE syntax",
				"Verify the configuration values match the expected schema",
				"Run 'adlgen config show' to see the effective configuration")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", loadError(resolvedPath, fmt.Errorf("failed to parse config: %w", err),
			"Durations are Go duration strings such as \"90s\" or \"10m\"")
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", loadError(resolvedPath, err,
			"Check "+EnvPrefix+"_* environment variables as well as the config file")
	}

	return &cfg, resolvedPath, nil
}

// ResolvePath returns the config file opts would load, or "" when none
// exists and defaults apply.
func ResolvePath(opts LoadOptions) (string, error) {
	return findConfigFile(opts)
}

// findConfigFile returns the config file to load, or "" when none exists
// and defaults apply. An explicit path must exist.
func findConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", loadError(opts.ConfigFilePath,
				fmt.Errorf("config file not found: %s", opts.ConfigFilePath),
				"Verify the file path is correct",
				"Check that the file exists and is readable",
				"Run 'adlgen config init' to create a default configuration")
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	if p := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt); fileExists(p) {
		return p, nil
	}
	if fileExists(LocalConfigFile) {
		return LocalConfigFile, nil
	}
	return "", nil
}

func loadError(path string, err error, suggestions ...string) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestions(suggestions...).
		WithIssue(issue.ConfigLoadFailedId).
		Wrap(err).
		BuildError()
}

// setDefaults registers every scalar key so that it can be overridden from
// the environment. List-valued keys only come from files.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("platform", d.Platform)
	v.SetDefault("cache_dir", d.CacheDir)
	v.SetDefault("charset", d.Charset)
	v.SetDefault("ui.verbose", d.UI.Verbose)
	v.SetDefault("ui.quiet", d.UI.Quiet)
	v.SetDefault("adl.version", d.ADL.Version)
	v.SetDefault("hxadl.version", d.HxADL.Version)
	v.SetDefault("source.dirs", d.Source.Dirs)
	v.SetDefault("source.include", d.Source.Include)
	v.SetDefault("source.search_dirs", d.Source.SearchDirs)
	v.SetDefault("source.verbose", d.Source.Verbose)
	v.SetDefault("docker.host", d.Docker.Host)
	v.SetDefault("docker.tls_verify", d.Docker.TLSVerify)
	v.SetDefault("docker.cert_path", d.Docker.CertPath)
	v.SetDefault("docker.api_version", d.Docker.APIVersion)
	v.SetDefault("docker.registry_url", d.Docker.RegistryURL)
	v.SetDefault("docker.registry_username", d.Docker.RegistryUsername)
	v.SetDefault("docker.registry_password", d.Docker.RegistryPassword)
	v.SetDefault("docker.image_build_mode", d.Docker.ImageBuildMode)
	v.SetDefault("docker.pull_timeout", d.Docker.PullTimeout)
	v.SetDefault("docker.build_timeout", d.Docker.BuildTimeout)
	v.SetDefault("docker.container_timeout", d.Docker.ContainerTimeout)
	v.SetDefault("native.timeout", d.Native.Timeout)
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// The file is decoded to map[string]any with Concrete(false) because every
// field is optional and the result is merged over the defaults.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := checkFileSize(data, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// Validate checks the values the schema cannot see, i.e. those that came
// from the environment.
func (c *Config) Validate() error {
	if _, err := runtime.ParsePlatform(c.Platform); err != nil {
		return fmt.Errorf("platform: %w", err)
	}
	if _, err := container.ParseImageBuildMode(c.Docker.ImageBuildMode); err != nil {
		return fmt.Errorf("docker.image_build_mode: %w", err)
	}
	if strings.TrimSpace(c.Charset) == "" {
		return errors.New("charset: must not be empty")
	}
	if strings.TrimSpace(c.ADL.Version) == "" {
		return errors.New("adl.version: must not be empty")
	}
	if strings.TrimSpace(c.HxADL.Version) == "" {
		return errors.New("hxadl.version: must not be empty")
	}
	for name, d := range map[string]time.Duration{
		"docker.pull_timeout":      c.Docker.PullTimeout,
		"docker.build_timeout":     c.Docker.BuildTimeout,
		"docker.container_timeout": c.Docker.ContainerTimeout,
		"native.timeout":           c.Native.Timeout,
	} {
		if d < 0 {
			return fmt.Errorf("%s: must not be negative, got %s", name, d)
		}
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// WriteFile renders cfg to path, creating parent directories. An existing
// file is only replaced when force is set.
func WriteFile(path string, cfg *Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to stat config file: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE generates a CUE representation of the configuration.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// adlgen configuration file\n\n")

	fmt.Fprintf(&sb, "platform:  %q\n", cfg.Platform)
	fmt.Fprintf(&sb, "cache_dir: %q\n", cfg.CacheDir)
	fmt.Fprintf(&sb, "charset:   %q\n", cfg.Charset)

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tquiet:   %v\n", cfg.UI.Quiet)
	sb.WriteString("}\n")

	fmt.Fprintf(&sb, "\nadl: version:   %q\n", cfg.ADL.Version)
	fmt.Fprintf(&sb, "hxadl: version: %q\n", cfg.HxADL.Version)

	sb.WriteString("\nsource: {\n")
	writeList(&sb, "\t", "dirs", cfg.Source.Dirs)
	writeList(&sb, "\t", "include", cfg.Source.Include)
	writeList(&sb, "\t", "search_dirs", cfg.Source.SearchDirs)
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.Source.Verbose)
	sb.WriteString("}\n")

	d := cfg.Docker
	sb.WriteString("\ndocker: {\n")
	writeString(&sb, "\t", "host", d.Host)
	if d.TLSVerify {
		sb.WriteString("\ttls_verify: true\n")
	}
	writeString(&sb, "\t", "cert_path", d.CertPath)
	writeString(&sb, "\t", "api_version", d.APIVersion)
	writeString(&sb, "\t", "registry_url", d.RegistryURL)
	writeString(&sb, "\t", "registry_username", d.RegistryUsername)
	writeString(&sb, "\t", "registry_password", d.RegistryPassword)
	writeString(&sb, "\t", "image_build_mode", d.ImageBuildMode)
	writeDuration(&sb, "\t", "pull_timeout", d.PullTimeout)
	writeDuration(&sb, "\t", "build_timeout", d.BuildTimeout)
	writeDuration(&sb, "\t", "container_timeout", d.ContainerTimeout)
	sb.WriteString("}\n")

	if cfg.Native.Timeout > 0 {
		fmt.Fprintf(&sb, "\nnative: timeout: %q\n", cfg.Native.Timeout.String())
	}

	if cfg.Generations.GenerationCount() > 0 {
		sb.WriteString("\ngenerations: {\n")
		writeGenerations(&sb, &cfg.Generations)
		sb.WriteString("}\n")
	}

	return sb.String()
}

func writeGenerations(sb *strings.Builder, g *GenerationsConfig) {
	const ind = "\t\t\t"
	if len(g.Java) > 0 {
		sb.WriteString("\tjava: [\n")
		for _, j := range g.Java {
			sb.WriteString("\t\t{\n")
			writeString(sb, ind, "output_dir", j.OutputDir)
			writeString(sb, ind, "package", j.Package)
			writeString(sb, ind, "runtime_package", j.RuntimePackage)
			writeBool(sb, ind, "include_runtime", j.IncludeRuntime)
			writeBool(sb, ind, "transitive", j.Transitive)
			writeString(sb, ind, "suppress_warnings_annotation", j.SuppressWarningsAnnotation)
			writeString(sb, ind, "header_comment", j.HeaderComment)
			writeString(sb, ind, "manifest", j.Manifest)
			writeList(sb, ind, "args", j.Args)
			sb.WriteString("\t\t},\n")
		}
		sb.WriteString("\t]\n")
	}
	if len(g.JavaTables) > 0 {
		sb.WriteString("\tjava_tables: [\n")
		for _, j := range g.JavaTables {
			sb.WriteString("\t\t{\n")
			writeString(sb, ind, "output_dir", j.OutputDir)
			writeString(sb, ind, "package", j.Package)
			writeString(sb, ind, "runtime_package", j.RuntimePackage)
			writeString(sb, ind, "manifest", j.Manifest)
			writeList(sb, ind, "args", j.Args)
			sb.WriteString("\t\t},\n")
		}
		sb.WriteString("\t]\n")
	}
	if len(g.Typescript) > 0 {
		sb.WriteString("\ttypescript: [\n")
		for _, ts := range g.Typescript {
			sb.WriteString("\t\t{\n")
			writeString(sb, ind, "output_dir", ts.OutputDir)
			writeBool(sb, ind, "include_runtime", ts.IncludeRuntime)
			writeBool(sb, ind, "transitive", ts.Transitive)
			writeBool(sb, ind, "include_resolver", ts.IncludeResolver)
			fmt.Fprintf(sb, "%sgenerate_ast: %v\n", ind, ts.GenerateAST)
			writeString(sb, ind, "runtime_dir", ts.RuntimeDir)
			writeString(sb, ind, "manifest", ts.Manifest)
			writeList(sb, ind, "args", ts.Args)
			sb.WriteString("\t\t},\n")
		}
		sb.WriteString("\t]\n")
	}
	if len(g.Javascript) > 0 {
		sb.WriteString("\tjavascript: [\n")
		for _, js := range g.Javascript {
			sb.WriteString("\t\t{\n")
			writeString(sb, ind, "output_dir", js.OutputDir)
			writeString(sb, ind, "manifest", js.Manifest)
			writeList(sb, ind, "args", js.Args)
			sb.WriteString("\t\t},\n")
		}
		sb.WriteString("\t]\n")
	}
	if len(g.SQL) > 0 {
		sb.WriteString("\tsql: [\n")
		for _, s := range g.SQL {
			fmt.Fprintf(sb, "\t\t{output_dir: %q},\n", s.OutputDir)
		}
		sb.WriteString("\t]\n")
	}
}

func writeString(sb *strings.Builder, indent, key, value string) {
	if value != "" {
		fmt.Fprintf(sb, "%s%s: %q\n", indent, key, value)
	}
}

func writeBool(sb *strings.Builder, indent, key string, value bool) {
	if value {
		fmt.Fprintf(sb, "%s%s: true\n", indent, key)
	}
}

func writeDuration(sb *strings.Builder, indent, key string, d time.Duration) {
	if d > 0 {
		fmt.Fprintf(sb, "%s%s: %q\n", indent, key, d.String())
	}
}

func writeList(sb *strings.Builder, indent, key string, values []string) {
	if len(values) == 0 {
		return
	}
	quoted := make([]string, len(values))
	for i, s := range values {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	fmt.Fprintf(sb, "%s%s: [%s]\n", indent, key, strings.Join(quoted, ", "))
}
