package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full bot configuration.
type Config struct {
	Engine   EngineConfig   `yaml:"engine"`
	Terminal TerminalConfig `yaml:"terminal"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// EngineConfig controls the straddle cycle engine.
type EngineConfig struct {
	Instrument           string  `yaml:"instrument"`
	MinMovement          float64 `yaml:"min_movement"`           // minimum |Δmid| to open a cycle
	LotSize              float64 `yaml:"lot_size"`               // base lot per leg
	LotMultiplier        float64 `yaml:"lot_multiplier"`         // scalar applied to lot_size
	MinProfitPerTrade    float64 `yaml:"min_profit_per_trade"`   // reject cycles expected below this
	MaxSpread            float64 `yaml:"max_spread"`             // reject polls with ask-bid above this
	ProfitRatio          float64 `yaml:"profit_ratio"`           // multiplier on the guaranteed-floor estimate
	WaitSeconds          int     `yaml:"wait_seconds"`           // base hold time before closing
	WaitMinSeconds       int     `yaml:"wait_min_seconds"`       // lower bound for the scaled wait
	WaitMaxSeconds       int     `yaml:"wait_max_seconds"`       // upper bound for the scaled wait
	CheckIntervalSeconds int     `yaml:"check_interval_seconds"` // polling interval
	LegDelayMillis       int     `yaml:"leg_delay_ms"`           // pause between the two leg submissions
	CloseRetries         int     `yaml:"close_retries"`          // close attempts per leg before flagging
}

// TerminalConfig points at the authenticated terminal bridge.
type TerminalConfig struct {
	BaseURL string `yaml:"base_url"`
}

// StorageConfig controls where state is persisted.
type StorageConfig struct {
	DSN        string `yaml:"dsn"`         // sqlite file for cycle history, or ":memory:"
	LedgerPath string `yaml:"ledger_path"` // JSON ledger file
}

// LogConfig controls log level and format.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML config and the .env file if present.
// Values from the environment override the YAML for matching keys.
func Load(path string) (*Config, error) {
	// Load .env if present (missing file is fine)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// CheckInterval returns the polling interval as a time.Duration.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.Engine.CheckIntervalSeconds) * time.Second
}

// LegDelay returns the pause between the two leg submissions.
func (c *Config) LegDelay() time.Duration {
	return time.Duration(c.Engine.LegDelayMillis) * time.Millisecond
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("TERMINAL_BASE_URL"); v != "" {
		cfg.Terminal.BaseURL = v
	}
	if v := os.Getenv("INSTRUMENT"); v != "" {
		cfg.Engine.Instrument = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Engine.Instrument == "" {
		cfg.Engine.Instrument = "EURUSD"
	}
	if cfg.Engine.LotSize <= 0 {
		cfg.Engine.LotSize = 0.01
	}
	if cfg.Engine.LotMultiplier <= 0 {
		cfg.Engine.LotMultiplier = 1.0
	}
	if cfg.Engine.ProfitRatio <= 0 {
		cfg.Engine.ProfitRatio = 1.0
	}
	if cfg.Engine.WaitSeconds <= 0 {
		cfg.Engine.WaitSeconds = 30
	}
	if cfg.Engine.WaitMinSeconds <= 0 {
		cfg.Engine.WaitMinSeconds = 5
	}
	if cfg.Engine.WaitMaxSeconds <= 0 {
		cfg.Engine.WaitMaxSeconds = 300
	}
	if cfg.Engine.CheckIntervalSeconds <= 0 {
		cfg.Engine.CheckIntervalSeconds = 5
	}
	if cfg.Engine.LegDelayMillis <= 0 {
		cfg.Engine.LegDelayMillis = 250
	}
	if cfg.Engine.CloseRetries <= 0 {
		cfg.Engine.CloseRetries = 3
	}
	if cfg.Terminal.BaseURL == "" {
		cfg.Terminal.BaseURL = "http://127.0.0.1:5005"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "straddlebot.db"
	}
	if cfg.Storage.LedgerPath == "" {
		cfg.Storage.LedgerPath = "straddle_stats.json"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func validate(cfg *Config) error {
	if cfg.Engine.MinMovement < 0 {
		return fmt.Errorf("min_movement must be >= 0, got %v", cfg.Engine.MinMovement)
	}
	if cfg.Engine.MinProfitPerTrade < 0 {
		return fmt.Errorf("min_profit_per_trade must be >= 0, got %v", cfg.Engine.MinProfitPerTrade)
	}
	if cfg.Engine.MaxSpread < 0 {
		return fmt.Errorf("max_spread must be >= 0, got %v", cfg.Engine.MaxSpread)
	}
	if cfg.Engine.WaitMinSeconds > cfg.Engine.WaitMaxSeconds {
		return fmt.Errorf("wait_min_seconds (%d) > wait_max_seconds (%d)",
			cfg.Engine.WaitMinSeconds, cfg.Engine.WaitMaxSeconds)
	}
	return nil
}
