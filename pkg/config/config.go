package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		SlowThreshold   time.Duration `yaml:"slow_threshold"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Logger struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logger"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		InitSchema       bool          `yaml:"init_schema"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Postgres struct {
		URL            string        `yaml:"url"`
		MaxConns       int32         `yaml:"max_conns"`
		MinConns       int32         `yaml:"min_conns"`
		ConnectTimeout time.Duration `yaml:"connect_timeout"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`
	Kafka struct {
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"kafka"`
	Analytics struct {
		HistoryDays int `yaml:"history_days"`
		MinHistory  int `yaml:"min_history"`
		Forecaster  struct {
			Model       string  `yaml:"model"`
			WeeklyOrder int     `yaml:"weekly_order"`
			YearlyOrder int     `yaml:"yearly_order"`
			Ridge       float64 `yaml:"ridge"`
			GBT         struct {
				Trees        int     `yaml:"trees"`
				Depth        int     `yaml:"depth"`
				LearningRate float64 `yaml:"learning_rate"`
				MinLeaf      int     `yaml:"min_leaf"`
			} `yaml:"gbt"`
		} `yaml:"forecaster"`
		Optimizer struct {
			RiskFreeRate float64 `yaml:"risk_free_rate"`
			TradingDays  int     `yaml:"trading_days"`
		} `yaml:"optimizer"`
		Risk struct {
			RiskFreeRate float64 `yaml:"risk_free_rate"`
		} `yaml:"risk"`
		Recommend struct {
			PopularLimit int           `yaml:"popular_limit"`
			CategoryPool int           `yaml:"category_pool"`
			MarketTTL    time.Duration `yaml:"market_ttl"`
		} `yaml:"recommend"`
	} `yaml:"analytics"`
	Registry struct {
		Store         string            `yaml:"store"` // file or redis
		Dir           string            `yaml:"dir"`
		KeyPrefix     string            `yaml:"key_prefix"`
		ReferenceFund string            `yaml:"reference_fund"`
		Models        map[string]string `yaml:"models"`
	} `yaml:"registry"`
	RateLimit struct {
		Capacity     int     `yaml:"capacity"`
		RefillPerSec float64 `yaml:"refill_per_sec"`
	} `yaml:"ratelimit"`
}

// Load reads, defaults and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	return load(path, nil)
}

// LoadWithEnv loads config from YAML and overrides it with environment
// variables before validating.
func LoadWithEnv(path string) (*Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if getenv != nil {
		c.applyEnv(getenv)
	}
	c.ApplyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := getenv("POSTGRES_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := getenv("MODEL_DIR"); v != "" {
		c.Registry.Dir = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
}

// ApplyDefaults fills zero-valued settings.
func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	setDefault(&c.Server.Host, "0.0.0.0")
	setDefault(&c.Server.Port, 8000)
	setDefault(&c.Server.ReadTimeout, 30*time.Second)
	setDefault(&c.Server.WriteTimeout, 60*time.Second)
	setDefault(&c.Server.ShutdownTimeout, 15*time.Second)
	setDefault(&c.Server.SlowThreshold, 2*time.Second)
	setDefault(&c.Metrics.Path, "/metrics")
	setDefault(&c.Logger.Level, "info")
	setDefault(&c.Logger.Format, "json")
	setDefault(&c.Logger.Output, "stdout")

	setDefault(&c.ClickHouse.Port, 9000)
	setDefault(&c.ClickHouse.Database, "finadvisor")
	setDefault(&c.ClickHouse.User, "default")
	setDefault(&c.ClickHouse.DialTimeout, 5*time.Second)
	setDefault(&c.ClickHouse.ReadTimeout, 30*time.Second)
	setDefault(&c.Postgres.MaxConns, int32(10))
	setDefault(&c.Postgres.MinConns, int32(1))
	setDefault(&c.Postgres.ConnectTimeout, 5*time.Second)
	setDefault(&c.Redis.Addr, "localhost:6379")
	setDefault(&c.Redis.PoolSize, 10)
	setDefault(&c.Kafka.Topic, "finadvisor.model-events")
	setDefault(&c.Kafka.Compression, "gzip")
	setDefault(&c.Kafka.MaxAttempts, 3)
	setDefault(&c.Kafka.WriteTimeout, 10*time.Second)
	setDefault(&c.Kafka.BatchTimeout, 50*time.Millisecond)
	if c.Kafka.RequiredAcks == 0 {
		c.Kafka.RequiredAcks = -1
	}

	a := &c.Analytics
	setDefault(&a.HistoryDays, 365)
	setDefault(&a.MinHistory, 30)
	setDefault(&a.Forecaster.Model, "seasonal")
	setDefault(&a.Forecaster.WeeklyOrder, 3)
	setDefault(&a.Forecaster.YearlyOrder, 10)
	setDefault(&a.Forecaster.Ridge, 0.1)
	setDefault(&a.Forecaster.GBT.Trees, 100)
	setDefault(&a.Forecaster.GBT.Depth, 3)
	setDefault(&a.Forecaster.GBT.LearningRate, 0.1)
	setDefault(&a.Forecaster.GBT.MinLeaf, 3)
	setDefault(&a.Optimizer.RiskFreeRate, 0.02)
	setDefault(&a.Optimizer.TradingDays, 252)
	setDefault(&a.Risk.RiskFreeRate, 0.05)
	setDefault(&a.Recommend.PopularLimit, 20)
	setDefault(&a.Recommend.CategoryPool, 10)
	setDefault(&a.Recommend.MarketTTL, 5*time.Minute)

	setDefault(&c.Registry.Store, "file")
	setDefault(&c.Registry.Dir, "./models")
	setDefault(&c.Registry.KeyPrefix, "finadvisor")
	if len(c.Registry.Models) == 0 {
		c.Registry.Models = map[string]string{
			"nav_predictor":       "1.0",
			"portfolio_optimizer": "1.0",
			"risk_scorer":         "1.0",
		}
	}
	setDefault(&c.RateLimit.Capacity, 10)
	setDefault(&c.RateLimit.RefillPerSec, 2.0)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Environment {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("environment must be one of development, staging, production, test, got '%s'", c.Environment)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.Postgres.URL == "" {
		return fmt.Errorf("postgres.url is required")
	}
	if c.Registry.Store != "file" && c.Registry.Store != "redis" {
		return fmt.Errorf("registry.store must be 'file' or 'redis', got '%s'", c.Registry.Store)
	}
	for name, version := range c.Registry.Models {
		if name == "" || version == "" {
			return fmt.Errorf("registry.models entries need a name and a version")
		}
	}
	a := c.Analytics
	if a.Forecaster.Model != "seasonal" && a.Forecaster.Model != "gbt" {
		return fmt.Errorf("analytics.forecaster.model must be 'seasonal' or 'gbt', got '%s'", a.Forecaster.Model)
	}
	if a.MinHistory < 2 {
		return fmt.Errorf("analytics.min_history must be at least 2")
	}
	if a.HistoryDays < a.MinHistory {
		return fmt.Errorf("analytics.history_days (%d) must cover min_history (%d)", a.HistoryDays, a.MinHistory)
	}
	if a.Forecaster.Ridge < 0 {
		return fmt.Errorf("analytics.forecaster.ridge must be non-negative")
	}
	if a.Forecaster.GBT.LearningRate <= 0 || a.Forecaster.GBT.LearningRate > 1 {
		return fmt.Errorf("analytics.forecaster.gbt.learning_rate must be in (0,1]")
	}
	if a.Optimizer.TradingDays <= 0 {
		return fmt.Errorf("analytics.optimizer.trading_days must be positive")
	}
	if c.RateLimit.RefillPerSec <= 0 {
		return fmt.Errorf("ratelimit.refill_per_sec must be positive")
	}
	return nil
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
