package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/xover/internal/domain"
)

// Database drivers.
const (
	DriverRedis = "redis"
	DriverNone  = "none"
)

// SSH column variants of a daily file.
const (
	SSHSmoothed = "smoothed"
	SSHRaw      = "raw"
)

// Config holds the xover service configuration.
type Config struct {
	HTTP       HTTPConfig                 `yaml:"http"`
	Database   DatabaseConfig             `yaml:"database"`
	Auth       AuthConfig                 `yaml:"auth"`
	Crossover  CrossoverConfig            `yaml:"crossover"`
	Storage    StorageConfig              `yaml:"storage"`
	Satellites map[string]SatelliteConfig `yaml:"satellites"`
	Workers    int                        `yaml:"workers"`
	Logging    LoggingConfig              `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, none (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CrossoverConfig holds the search settings.
type CrossoverConfig struct {
	Epoch               string  `yaml:"epoch"` // RFC 3339
	WindowSizeDays      int     `yaml:"window_size_days"`
	WindowPaddingDays   *int    `yaml:"window_padding_days"`
	CycleLengthDays     float64 `yaml:"cycle_length_days"`
	MaxCrossoversPerDay int     `yaml:"max_crossovers_per_day"`
	KMCutoff            float64 `yaml:"km_cutoff"`
	MaxBatchSize        int     `yaml:"max_batch_size"`
}

// StorageConfig holds file and key locations.
type StorageConfig struct {
	DailyFilesDir string `yaml:"daily_files_dir"`
	CrossoversDir string `yaml:"crossovers_dir"`
	KeyPrefix     string `yaml:"key_prefix"`
}

// SatelliteConfig holds per-source input settings.
type SatelliteConfig struct {
	SSHColumn string   `yaml:"ssh_column"` // smoothed (default) | raw
	FillValue *float64 `yaml:"fill_value"`
	UseFlag   bool     `yaml:"use_flag"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	// a batch of days can run for minutes
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 900
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 30
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	def := domain.DefaultOptions()
	if c.Crossover.Epoch == "" {
		c.Crossover.Epoch = def.Epoch.Format(time.RFC3339)
	}
	if c.Crossover.WindowSizeDays <= 0 {
		c.Crossover.WindowSizeDays = def.WindowSizeDays
	}
	if c.Crossover.WindowPaddingDays == nil {
		pad := def.WindowPaddingDays
		c.Crossover.WindowPaddingDays = &pad
	}
	if c.Crossover.CycleLengthDays <= 0 {
		c.Crossover.CycleLengthDays = def.CycleLengthDays
	}
	if c.Crossover.MaxCrossoversPerDay <= 0 {
		c.Crossover.MaxCrossoversPerDay = def.MaxCrossoversPerDay
	}
	if c.Crossover.KMCutoff <= 0 {
		c.Crossover.KMCutoff = def.KMCutoff
	}
	if c.Crossover.MaxBatchSize <= 0 {
		c.Crossover.MaxBatchSize = 1000
	}

	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "xover:"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	for name, s := range c.Satellites {
		if s.SSHColumn == "" {
			s.SSHColumn = SSHSmoothed
			c.Satellites[name] = s
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return errors.New("database.addrs is required")
		}
	case DriverNone:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverRedis, DriverNone, c.Database.Driver)
	}
	if c.Storage.DailyFilesDir == "" {
		return errors.New("storage.daily_files_dir is required")
	}
	if c.Storage.CrossoversDir == "" {
		return errors.New("storage.crossovers_dir is required")
	}
	for name, s := range c.Satellites {
		switch s.SSHColumn {
		case "", SSHSmoothed, SSHRaw:
		default:
			return fmt.Errorf("satellites.%s.ssh_column must be %q or %q, got %q", name, SSHSmoothed, SSHRaw, s.SSHColumn)
		}
	}
	if _, err := c.Crossover.Options(); err != nil {
		return fmt.Errorf("crossover: %w", err)
	}
	return nil
}

// Options converts the crossover section into search options.
func (c CrossoverConfig) Options() (domain.Options, error) {
	opts := domain.DefaultOptions()
	if c.Epoch != "" {
		epoch, err := time.Parse(time.RFC3339, c.Epoch)
		if err != nil {
			return domain.Options{}, fmt.Errorf("epoch %q: %w", c.Epoch, domain.ErrInvalidOptions)
		}
		opts.Epoch = epoch.UTC()
	}
	opts.WindowSizeDays = c.WindowSizeDays
	if c.WindowPaddingDays != nil {
		opts.WindowPaddingDays = *c.WindowPaddingDays
	}
	opts.CycleLengthDays = c.CycleLengthDays
	opts.MaxCrossoversPerDay = c.MaxCrossoversPerDay
	opts.KMCutoff = c.KMCutoff
	if err := opts.Validate(); err != nil {
		return domain.Options{}, err
	}
	return opts, nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// relative to the source file, for tests run from package dirs
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b)))
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
