// Package config provides configuration management for botsync.
// It supports YAML or TOML configuration files, environment variables, and sensible defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/klauern/botsync/internal/model"
	"github.com/klauern/botsync/internal/util"
)

// Sandbox modes.
const (
	// SandboxLocal runs commands with sh on this host.
	SandboxLocal = "local"

	// SandboxExec runs commands through a prefix such as docker exec.
	SandboxExec = "exec"
)

// Config represents the complete botsync configuration.
type Config struct {
	// Storage configures the R2 bucket and how it is mounted
	Storage StorageConfig `yaml:"storage" toml:"storage"`

	// Sandbox configures where sync commands run
	Sandbox SandboxConfig `yaml:"sandbox" toml:"sandbox"`

	// Paths configures the synced directories
	Paths PathsConfig `yaml:"paths" toml:"paths"`

	// Sync configures command timeouts
	Sync SyncConfig `yaml:"sync" toml:"sync"`

	// Schedule configures the serve loop
	Schedule ScheduleConfig `yaml:"schedule" toml:"schedule"`

	// Output configures display preferences
	Output OutputConfig `yaml:"output" toml:"output"`
}

// StorageConfig holds R2 settings. Credentials are normally supplied
// through the environment rather than the file.
type StorageConfig struct {
	AccessKeyID     string `yaml:"access_key_id,omitempty" toml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" toml:"secret_access_key,omitempty"`
	AccountID       string `yaml:"account_id,omitempty" toml:"account_id,omitempty"`
	Bucket          string `yaml:"bucket" toml:"bucket"`
	// Endpoint overrides the account-derived R2 endpoint (host[:port])
	Endpoint string `yaml:"endpoint,omitempty" toml:"endpoint,omitempty"`
	// Insecure talks plain HTTP to Endpoint
	Insecure bool `yaml:"insecure,omitempty" toml:"insecure,omitempty"`
	// VerifyBucket checks the bucket over the S3 API before mounting
	VerifyBucket bool `yaml:"verify_bucket" toml:"verify_bucket"`
	// PasswdFile is where s3fs credentials are written
	PasswdFile string `yaml:"passwd_file" toml:"passwd_file"`
	// MountTimeout bounds the s3fs mount
	MountTimeout time.Duration `yaml:"mount_timeout" toml:"mount_timeout"`
}

// SandboxConfig selects the command runner.
type SandboxConfig struct {
	// Mode is local or exec
	Mode string `yaml:"mode" toml:"mode"`
	// Exec is the command prefix for exec mode, e.g. [docker, exec, -i, bot]
	Exec []string `yaml:"exec,omitempty" toml:"exec,omitempty"`
}

// PathsConfig holds the mount root and local directories.
type PathsConfig struct {
	MountPath    string `yaml:"mount_path" toml:"mount_path"`
	ConfigDir    string `yaml:"config_dir" toml:"config_dir"`
	WorkspaceDir string `yaml:"workspace_dir" toml:"workspace_dir"`
}

// SyncConfig holds engine timeouts.
type SyncConfig struct {
	// ProbeTimeout bounds each existence check
	ProbeTimeout time.Duration `yaml:"probe_timeout" toml:"probe_timeout"`
	// MirrorTimeout bounds the restore and push scripts
	MirrorTimeout time.Duration `yaml:"mirror_timeout" toml:"mirror_timeout"`
}

// ScheduleConfig holds serve loop settings.
type ScheduleConfig struct {
	Interval time.Duration `yaml:"interval" toml:"interval"`
	// RunOnStart syncs immediately when serve starts
	RunOnStart bool `yaml:"run_on_start" toml:"run_on_start"`
}

// OutputConfig holds display preferences.
type OutputConfig struct {
	// Color controls color output (auto, always, never)
	Color string `yaml:"color" toml:"color"`
	// LogJSON switches logs to JSON
	LogJSON bool `yaml:"log_json" toml:"log_json"`
}

// Timeouts groups the bounded-command durations.
type Timeouts struct {
	Probe  time.Duration
	Mirror time.Duration
	Mount  time.Duration
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Bucket:       model.DefaultBucket,
			VerifyBucket: false,
			PasswdFile:   "/etc/passwd-s3fs",
			MountTimeout: 30 * time.Second,
		},
		Sandbox: SandboxConfig{
			Mode: SandboxLocal,
		},
		Paths: PathsConfig{
			MountPath:    model.DefaultMountPath,
			ConfigDir:    model.DefaultConfigDir,
			WorkspaceDir: model.DefaultWorkspaceDir,
		},
		Sync: SyncConfig{
			ProbeTimeout:  5 * time.Second,
			MirrorTimeout: 30 * time.Second,
		},
		Schedule: ScheduleConfig{
			Interval:   5 * time.Minute,
			RunOnStart: true,
		},
		Output: OutputConfig{
			Color: "auto",
		},
	}
}

// Config file names, in lookup order.
const (
	configFileName     = "config.yaml"
	configFileNameTOML = "config.toml"
)

// FilePath returns the path to the config file. A config.toml is used when
// it exists and config.yaml does not.
func FilePath() string {
	dir := util.BotsyncHome()
	yamlPath := filepath.Join(dir, configFileName)
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}
	tomlPath := filepath.Join(dir, configFileNameTOML)
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath
	}
	return yamlPath
}

// Exists returns true if a config file exists.
func Exists() bool {
	_, err := os.Stat(FilePath())
	return err == nil
}

// Load loads the configuration from file, merging with defaults.
// If the config file doesn't exist, returns default configuration.
func Load() (*Config, error) {
	return LoadOptional(FilePath())
}

// LoadOptional loads configuration from path, falling back to defaults with
// environment overrides when the file does not exist.
func LoadOptional(path string) (*Config, error) {
	cfg, err := LoadFromPath(path)
	if errors.Is(err, os.ErrNotExist) {
		// No config file, use defaults with environment overrides
		cfg = Default()
		cfg.applyEnvironment()
		return cfg, nil
	}
	return cfg, err
}

// LoadFromPath loads configuration from a specific path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	// #nosec G304 - path is provided by caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.decode(path, data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.applyEnvironment()
	return cfg, nil
}

func (c *Config) decode(path string, data []byte) error {
	if isTOML(path) {
		_, err := toml.Decode(string(data), c)
		return err
	}
	return yaml.Unmarshal(data, c)
}

// Save writes the configuration to the config file.
func (c *Config) Save() error {
	return c.SaveToPath(FilePath())
}

// SaveToPath writes the configuration to a specific path, as TOML when the
// path ends in .toml and YAML otherwise.
func (c *Config) SaveToPath(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	data, err := c.Encode(path)
	if err != nil {
		return err
	}

	// The file may hold credentials.
	return os.WriteFile(path, data, 0o600)
}

// Encode renders the configuration in the format implied by path.
func (c *Config) Encode(path string) ([]byte, error) {
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return yaml.Marshal(c)
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	cp := *c
	cp.Sandbox.Exec = append([]string(nil), c.Sandbox.Exec...)
	cp.Storage.SecretAccessKey = model.Mask(c.Storage.SecretAccessKey)
	return &cp
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// applyEnvironment applies environment variable overrides.
// Credentials use the names the bot container already exports; everything
// else follows the pattern BOTSYNC_<SECTION>_<KEY>.
func (c *Config) applyEnvironment() {
	// Credentials
	if v := os.Getenv("R2_ACCESS_KEY_ID"); v != "" {
		c.Storage.AccessKeyID = v
	}
	if v := os.Getenv("R2_SECRET_ACCESS_KEY"); v != "" {
		c.Storage.SecretAccessKey = v
	}
	if v := os.Getenv("CF_ACCOUNT_ID"); v != "" {
		c.Storage.AccountID = v
	}
	if v := os.Getenv("R2_BUCKET_NAME"); v != "" {
		c.Storage.Bucket = v
	}
	if v := os.Getenv("BOTSYNC_VERIFY_BUCKET"); v != "" {
		c.Storage.VerifyBucket = parseBool(v)
	}

	// Sandbox
	if v := os.Getenv("BOTSYNC_SANDBOX_MODE"); v != "" {
		c.Sandbox.Mode = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("BOTSYNC_SANDBOX_EXEC"); v != "" {
		c.Sandbox.Exec = strings.Fields(v)
	}

	// Paths
	if v := os.Getenv("BOTSYNC_MOUNT_PATH"); v != "" {
		c.Paths.MountPath = v
	}

	// Timeouts
	if d, ok := envDuration("BOTSYNC_PROBE_TIMEOUT"); ok {
		c.Sync.ProbeTimeout = d
	}
	if d, ok := envDuration("BOTSYNC_MIRROR_TIMEOUT"); ok {
		c.Sync.MirrorTimeout = d
	}
	if d, ok := envDuration("BOTSYNC_SCHEDULE_INTERVAL"); ok {
		c.Schedule.Interval = d
	}

	// Output
	if v := os.Getenv("BOTSYNC_OUTPUT_COLOR"); v != "" {
		c.Output.Color = v
	}
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

// parseBool parses a boolean from common string representations.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch c.Sandbox.Mode {
	case SandboxLocal:
	case SandboxExec:
		if len(c.Sandbox.Exec) == 0 {
			return errors.New("sandbox.exec must name a command in exec mode")
		}
	default:
		return fmt.Errorf("unknown sandbox mode %q (want %s or %s)", c.Sandbox.Mode, SandboxLocal, SandboxExec)
	}

	for name, p := range map[string]string{
		"paths.mount_path":    c.Paths.MountPath,
		"paths.config_dir":    c.Paths.ConfigDir,
		"paths.workspace_dir": c.Paths.WorkspaceDir,
	} {
		if !filepath.IsAbs(p) {
			return fmt.Errorf("%s must be an absolute path, got %q", name, p)
		}
	}

	for name, d := range map[string]time.Duration{
		"sync.probe_timeout":    c.Sync.ProbeTimeout,
		"sync.mirror_timeout":   c.Sync.MirrorTimeout,
		"storage.mount_timeout": c.Storage.MountTimeout,
		"schedule.interval":     c.Schedule.Interval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}

	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("output.color must be auto, always or never, got %q", c.Output.Color)
	}
	return nil
}

// Credentials returns the storage credentials.
func (c *Config) Credentials() model.Credentials {
	return model.Credentials{
		AccessKeyID:     c.Storage.AccessKeyID,
		SecretAccessKey: c.Storage.SecretAccessKey,
		AccountID:       c.Storage.AccountID,
		Bucket:          c.Storage.Bucket,
	}
}

// Layout returns the synced paths.
func (c *Config) Layout() model.Layout {
	return model.Layout{
		MountPath:    c.Paths.MountPath,
		ConfigDir:    c.Paths.ConfigDir,
		WorkspaceDir: c.Paths.WorkspaceDir,
	}.WithDefaults()
}

// Timeouts returns the command timeouts.
func (c *Config) Timeouts() Timeouts {
	return Timeouts{
		Probe:  c.Sync.ProbeTimeout,
		Mirror: c.Sync.MirrorTimeout,
		Mount:  c.Storage.MountTimeout,
	}
}
