package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	constants "smanager/config"
	"smanager/internal/logger"
)

// Config represents the application configuration
type Config struct {
	Monitor MonitorConfig `mapstructure:"monitor" yaml:"monitor"`
	Web     WebConfig     `mapstructure:"web" yaml:"web"`
	Auth    AuthConfig    `mapstructure:"auth" yaml:"auth"`
	Files   FilesConfig   `mapstructure:"files" yaml:"files"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// MonitorConfig controls the sampler
type MonitorConfig struct {
	IntervalMillis int `mapstructure:"intervalMillis" yaml:"intervalMillis"`
}

// WebConfig controls the serving gateway
type WebConfig struct {
	Bind            string `mapstructure:"bind" yaml:"bind"`
	Port            int    `mapstructure:"port" yaml:"port"`
	BroadcastMillis int    `mapstructure:"broadcastMillis" yaml:"broadcastMillis"`
	StaticDir       string `mapstructure:"staticDir" yaml:"staticDir"`
	SelfMetrics     bool   `mapstructure:"selfMetrics" yaml:"selfMetrics"`
}

// AuthConfig holds the shared token. Empty disables authorization.
type AuthConfig struct {
	Token string `mapstructure:"token" yaml:"token"`
}

// FilesConfig controls the optional file facility
type FilesConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Root    string `mapstructure:"root" yaml:"root"`
}

// LogConfig controls the daemon log sink
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		Monitor: MonitorConfig{IntervalMillis: constants.DEFAULT_INTERVAL_MILLIS},
		Web: WebConfig{
			Bind:            constants.DEFAULT_BIND,
			Port:            constants.DEFAULT_PORT,
			BroadcastMillis: constants.DEFAULT_BROADCAST_MILLIS,
		},
		Log: LogConfig{
			Level: constants.DEFAULT_LOG_LEVEL,
			File:  constants.LOG_FILE,
		},
	}
}

// Validate checks the values a start or reload depends on
func (c *Config) Validate() error {
	var errs []error
	if c.Monitor.IntervalMillis <= 0 {
		errs = append(errs, fmt.Errorf("monitor.intervalMillis must be greater than 0, got %d", c.Monitor.IntervalMillis))
	}
	if c.Web.Port < constants.MIN_PORT || c.Web.Port > constants.MAX_PORT {
		errs = append(errs, fmt.Errorf("web.port must be between %d and %d, got %d", constants.MIN_PORT, constants.MAX_PORT, c.Web.Port))
	}
	if c.Web.BroadcastMillis <= 0 {
		errs = append(errs, fmt.Errorf("web.broadcastMillis must be greater than 0, got %d", c.Web.BroadcastMillis))
	}
	if c.Files.Enabled && !filepath.IsAbs(c.Files.Root) {
		errs = append(errs, fmt.Errorf("files.root must be an absolute path when files.enabled is set, got %q", c.Files.Root))
	}
	return errors.Join(errs...)
}

// SampleInterval returns the sampling period
func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.Monitor.IntervalMillis) * time.Millisecond
}

// BroadcastInterval returns the push cadence
func (c *Config) BroadcastInterval() time.Duration {
	return time.Duration(c.Web.BroadcastMillis) * time.Millisecond
}

// ListenAddr returns the host:port the gateway binds
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Web.Bind, strconv.Itoa(c.Web.Port))
}

func (c *Config) normalize() {
	c.Auth.Token = strings.TrimSpace(c.Auth.Token)
	c.Web.Bind = strings.TrimSpace(c.Web.Bind)
	if c.Files.Root != "" {
		c.Files.Root = filepath.Clean(c.Files.Root)
	}
}

// Set assigns one key from the command line. Both the full key and a short
// alias are accepted.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)

	switch strings.ToLower(key) {
	case "interval", "monitor.intervalmillis":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid interval %q: %w", value, err)
		}
		c.Monitor.IntervalMillis = n
	case "port", "web.port":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", value, err)
		}
		c.Web.Port = n
	case "bind", "web.bind":
		c.Web.Bind = value
	case "broadcast", "web.broadcastmillis":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid broadcast interval %q: %w", value, err)
		}
		c.Web.BroadcastMillis = n
	case "static", "web.staticdir":
		c.Web.StaticDir = value
	case "selfmetrics", "web.selfmetrics":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q: %w", value, err)
		}
		c.Web.SelfMetrics = b
	case "token", "auth.token":
		c.Auth.Token = value
	case "files", "files.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q: %w", value, err)
		}
		c.Files.Enabled = b
	case "root", "files.root":
		c.Files.Root = value
	case "loglevel", "log.level":
		c.Log.Level = value
	case "logfile", "log.file":
		c.Log.File = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}

	c.normalize()
	return nil
}

// DefaultPath returns ~/.smanager/config.yaml
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, constants.CONFIG_DIR_NAME, constants.CONFIG_FILE_NAME+"."+constants.CONFIG_FILE_TYPE)
}

// Loader reads configuration through viper. A Loader may be asked to Load
// many times; each call re-reads the file.
type Loader struct {
	v    *viper.Viper
	path string
	mu   sync.Mutex
}

// NewLoader creates a loader for path. An empty path searches
// $HOME/.smanager and the working directory.
func NewLoader(path string) *Loader {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(constants.CONFIG_FILE_NAME)
		v.SetConfigType(constants.CONFIG_FILE_TYPE)
		v.AddConfigPath("$HOME" + constants.CONFIG_DIR_NAME)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(constants.ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("monitor.intervalMillis", d.Monitor.IntervalMillis)
	v.SetDefault("web.bind", d.Web.Bind)
	v.SetDefault("web.port", d.Web.Port)
	v.SetDefault("web.broadcastMillis", d.Web.BroadcastMillis)
	v.SetDefault("web.staticDir", d.Web.StaticDir)
	v.SetDefault("web.selfMetrics", d.Web.SelfMetrics)
	v.SetDefault("auth.token", d.Auth.Token)
	v.SetDefault("files.enabled", d.Files.Enabled)
	v.SetDefault("files.root", d.Files.Root)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)

	return &Loader{v: v, path: path}
}

// Load reads the file (missing file means defaults), applies environment
// overrides and validates the result.
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Path returns the file in use, falling back to the default location
func (l *Loader) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if used := l.v.ConfigFileUsed(); used != "" {
		return used
	}
	if l.path != "" {
		return l.path
	}
	return DefaultPath()
}

// Watch invokes onChange whenever the config file is written or replaced,
// until ctx is done. The watcher never touches the loader's own state, so
// onChange re-reads through Load.
func (l *Loader) Watch(ctx context.Context, onChange func(fsnotify.Event)) error {
	file, err := filepath.Abs(l.Path())
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	// the directory, not the file: editors and SaveConfig replace it by rename
	if err := w.Add(filepath.Dir(file)); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(file), err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(e.Name) == file && e.Has(fsnotify.Write|fsnotify.Create) {
					onChange(e)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warning("Config watcher error: %v", err)
			}
		}
	}()
	return nil
}

// EnsureDefault writes a default config file at path when none exists.
// It reports whether a file was created.
func EnsureDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to stat config: %w", err)
	}

	if err := SaveConfig(path, Default()); err != nil {
		return false, err
	}
	return true, nil
}

// SaveConfig writes cfg to path as YAML. The file is replaced atomically.
func SaveConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}
