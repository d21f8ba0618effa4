package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Quota       QuotaConfig       `toml:"quota"`
	Stash       StashConfig       `toml:"stash"`
	Planner     PlannerConfig     `toml:"planner"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	YouTube YouTubeConfig `toml:"youtube"`
}

// YouTubeConfig points at the OAuth client secrets downloaded from the Google console
// and the file the authorized token is cached in.
type YouTubeConfig struct {
	ClientSecretsFile string `toml:"client_secrets_file"`
	TokenPath         string `toml:"token_path"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the OAuth callback listener settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// QuotaConfig tunes the local quota ledger and retry policy of the API client.
type QuotaConfig struct {
	DailyLimit        int     `toml:"daily_limit"`
	WarningThreshold  float64 `toml:"warning_threshold"`
	MaxRetries        int     `toml:"max_retries"`
	BackoffBase       float64 `toml:"backoff_base"`
	JitterFraction    float64 `toml:"jitter_fraction"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// StashConfig holds defaults for stash runs. Durations are in seconds.
type StashConfig struct {
	OutputPath      string `toml:"output_path"`
	AudioOnly       bool   `toml:"audio_only"`
	BatchSize       int    `toml:"batch_size"`
	BatchDelay      int    `toml:"batch_delay"`
	SummaryInterval int    `toml:"summary_interval"`
	Concurrency     int    `toml:"concurrency"`
	YtdlpPath       string `toml:"ytdlp_path"`
	AudioQuality    int    `toml:"audio_quality"`
}

// BatchDelayDuration returns the inter-batch delay as a [time.Duration].
func (s StashConfig) BatchDelayDuration() time.Duration {
	return time.Duration(s.BatchDelay) * time.Second
}

// SummaryIntervalDuration returns the summary interval as a [time.Duration].
func (s StashConfig) SummaryIntervalDuration() time.Duration {
	return time.Duration(s.SummaryInterval) * time.Second
}

// PlannerConfig configures the chat-completions endpoint used to plan commands.
type PlannerConfig struct {
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
