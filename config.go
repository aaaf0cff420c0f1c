package filebox

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultTransport is the transport used when Config.Transport is empty.
const DefaultTransport = "rclone"

// Config holds the file manager configuration.
type Config struct {
	// InternalDir is the app-private root. Empty means unavailable.
	InternalDir string `json:"internalDir,omitempty" yaml:"internalDir,omitempty" env:"FILEBOX_INTERNAL_DIR"`

	// ExternalDir is the shared root. Empty means unavailable.
	ExternalDir string `json:"externalDir,omitempty" yaml:"externalDir,omitempty" env:"FILEBOX_EXTERNAL_DIR"`

	// Transport is the registered transport name used for remote operations.
	Transport string `json:"transport,omitempty" yaml:"transport,omitempty" env:"FILEBOX_TRANSPORT" env-default:"rclone"`

	ConnectTimeout time.Duration `json:"connectTimeout,omitempty" yaml:"connectTimeout,omitempty" env:"FILEBOX_CONNECT_TIMEOUT" env-default:"15s"`
	ReadTimeout    time.Duration `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty" env:"FILEBOX_READ_TIMEOUT" env-default:"30s"`

	// RetryTransientOnly restricts the remote retry to timeouts and
	// network faults. By default every failure is retried once.
	RetryTransientOnly bool `json:"retryTransientOnly,omitempty" yaml:"retryTransientOnly,omitempty" env:"FILEBOX_RETRY_TRANSIENT_ONLY"`

	Log LogConfig `json:"log" yaml:"log"`
}

// LogConfig configures the zap logger built by the logging package.
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty" env:"FILEBOX_LOG_LEVEL" env-default:"info"`
	Format string `json:"format,omitempty" yaml:"format,omitempty" env:"FILEBOX_LOG_FORMAT" env-default:"json"` // json, console

	// File switches output from stderr to a rotating file.
	File       string `json:"file,omitempty" yaml:"file,omitempty" env:"FILEBOX_LOG_FILE"`
	MaxSizeMB  int    `json:"maxSizeMB,omitempty" yaml:"maxSizeMB,omitempty" env:"FILEBOX_LOG_MAX_SIZE" env-default:"100"`
	MaxBackups int    `json:"maxBackups,omitempty" yaml:"maxBackups,omitempty" env:"FILEBOX_LOG_MAX_BACKUPS" env-default:"3"`
	MaxAgeDays int    `json:"maxAgeDays,omitempty" yaml:"maxAgeDays,omitempty" env:"FILEBOX_LOG_MAX_AGE" env-default:"7"`
	Compress   bool   `json:"compress,omitempty" yaml:"compress,omitempty" env:"FILEBOX_LOG_COMPRESS"`
}

// LoadConfig reads the configuration from path, then applies environment
// overrides. With an empty path only the environment is read.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("filebox: read env config: %w", err)
		}
		return &cfg, nil
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("filebox: read config %s: %w", path, err)
	}
	return &cfg, nil
}

// RootDir returns the base directory configured for root.
func (c *Config) RootDir(root StorageRoot) string {
	switch root {
	case RootInternal:
		return c.InternalDir
	case RootExternal:
		return c.ExternalDir
	default:
		return ""
	}
}

// TransportFactory builds a [Transport] using the timeouts in cfg.
type TransportFactory func(cfg *Config) (Transport, error)

var (
	transportsMu sync.RWMutex
	transports   = make(map[string]TransportFactory)
)

// RegisterTransport binds name to factory so that Config.Transport can
// select it. Transport packages call it from init; a second registration
// under one name panics.
func RegisterTransport(name string, factory TransportFactory) {
	transportsMu.Lock()
	defer transportsMu.Unlock()

	if _, dup := transports[name]; dup {
		panic(fmt.Sprintf("filebox: transport %q registered twice", name))
	}
	transports[name] = factory
}

// Transports lists the registered transport names in order.
func Transports() []string {
	transportsMu.RLock()
	defer transportsMu.RUnlock()

	names := make([]string, 0, len(transports))
	for name := range transports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OpenTransport builds the transport selected by cfg.Transport, falling
// back to [DefaultTransport]. The rclone transport is only selectable
// once its package has been imported.
func OpenTransport(cfg *Config) (Transport, error) {
	if cfg == nil {
		return nil, fmt.Errorf("filebox: open transport: nil config")
	}
	name := cfg.Transport
	if name == "" {
		name = DefaultTransport
	}

	transportsMu.RLock()
	factory, ok := transports[name]
	transportsMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("filebox: transport %q is not registered; import its package", name)
	}
	return factory(cfg)
}
