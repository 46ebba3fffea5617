package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the grclookup service configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Archer  ArcherConfig  `yaml:"archer"`
	Lookup  LookupConfig  `yaml:"lookup"`
	Legacy  LegacyConfig  `yaml:"legacy"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
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

// ArcherConfig holds the platform connection settings.
// Either session_token or username+password is required.
type ArcherConfig struct {
	BaseURL            string `yaml:"base_url"`
	Instance           string `yaml:"instance"`
	Username           string `yaml:"username"`
	UserDomain         string `yaml:"user_domain"`
	Password           string `yaml:"password"`
	SessionToken       string `yaml:"session_token"`
	TimeoutSec         int    `yaml:"timeout_sec"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// LookupConfig holds bulk lookup and fast search settings.
type LookupConfig struct {
	Concurrency  int `yaml:"concurrency"`
	ChunkSize    int `yaml:"chunk_size"`
	PageSize     int `yaml:"page_size"`
	MaxBulkItems int `yaml:"max_bulk_items"` // HTTP API only
}

// LegacyConfig holds content API settings.
type LegacyConfig struct {
	MaxQueryLength int `yaml:"max_query_length"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Archer.TimeoutSec <= 0 {
		c.Archer.TimeoutSec = 30
	}
	if c.Lookup.Concurrency <= 0 {
		c.Lookup.Concurrency = 4
	}
	if c.Lookup.ChunkSize <= 0 {
		c.Lookup.ChunkSize = 50
	}
	if c.Lookup.PageSize <= 0 {
		c.Lookup.PageSize = 2
	}
	if c.Lookup.MaxBulkItems <= 0 {
		c.Lookup.MaxBulkItems = 1000
	}
	if c.Legacy.MaxQueryLength <= 0 {
		c.Legacy.MaxQueryLength = 2000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	return c.Archer.Validate()
}

// Validate checks the platform connection settings.
func (a *ArcherConfig) Validate() error {
	if a.BaseURL == "" {
		return fmt.Errorf("archer.base_url is required")
	}
	u, err := url.Parse(a.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("archer.base_url must be an http(s) url, got %q", a.BaseURL)
	}
	if a.SessionToken != "" {
		return nil
	}
	if a.Username == "" || a.Password == "" {
		return fmt.Errorf("archer.username and archer.password are required without archer.session_token")
	}
	if a.Instance == "" {
		return fmt.Errorf("archer.instance is required for login")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
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
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
