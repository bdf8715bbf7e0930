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
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Market struct {
		BaseURL  string        `yaml:"base_url"`
		APIKey   string        `yaml:"api_key"`
		Symbol   string        `yaml:"symbol"`
		Interval time.Duration `yaml:"interval"`
		Lookback time.Duration `yaml:"lookback"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"market"`
	Calendar struct {
		Timezone string   `yaml:"timezone"`
		Open     string   `yaml:"open"`  // HH:MM local
		Close    string   `yaml:"close"` // HH:MM local
		Holidays []string `yaml:"holidays"`
	} `yaml:"calendar"`
	Models struct {
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"models"`
	Pipeline struct {
		TickInterval time.Duration `yaml:"tick_interval"`
		HistoryLimit int           `yaml:"history_limit"`
	} `yaml:"pipeline"`
	Decision struct {
		BuyProbability  float64 `yaml:"buy_probability"`
		SellProbability float64 `yaml:"sell_probability"`
		BuyReturn       float64 `yaml:"buy_return"`
		SellReturn      float64 `yaml:"sell_return"`
		VolLow          float64 `yaml:"vol_low"`
		VolHigh         float64 `yaml:"vol_high"`
		BlendWeight     float64 `yaml:"blend_weight"`
		BlendPrior      float64 `yaml:"blend_prior"`
	} `yaml:"decision"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"kafka"`
	Cache struct {
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		TTL struct {
			Historical  time.Duration `yaml:"historical"`
			Performance time.Duration `yaml:"performance"`
		} `yaml:"ttl"`
	} `yaml:"cache"`
	Heartbeat struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"heartbeat"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("MARKET_API_KEY"); v != "" {
		c.Market.APIKey = v
	}
	if v := os.Getenv("MARKET_SYMBOL"); v != "" {
		c.Market.Symbol = v
	}
	if v := os.Getenv("MODEL_SERVICE_URL"); v != "" {
		c.Models.ServiceURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}

	return c, nil
}

// applyDefaults fills zero-valued fields with the calibrated defaults.
func (c *Config) applyDefaults() {
	if c.Decision.BuyProbability == 0 {
		c.Decision.BuyProbability = 0.65
	}
	if c.Decision.SellProbability == 0 {
		c.Decision.SellProbability = 0.35
	}
	if c.Decision.BuyReturn == 0 {
		c.Decision.BuyReturn = 0.15
	}
	if c.Decision.SellReturn == 0 {
		c.Decision.SellReturn = -0.15
	}
	if c.Decision.VolLow == 0 {
		c.Decision.VolLow = 15
	}
	if c.Decision.VolHigh == 0 {
		c.Decision.VolHigh = 30
	}
	if c.Decision.BlendWeight == 0 {
		c.Decision.BlendWeight = 0.7
	}
	if c.Decision.BlendPrior == 0 {
		c.Decision.BlendPrior = 0.53
	}
	if c.Market.Interval == 0 {
		c.Market.Interval = 15 * time.Minute
	}
	if c.Market.Lookback == 0 {
		c.Market.Lookback = 30 * 24 * time.Hour
	}
	if c.Pipeline.TickInterval == 0 {
		c.Pipeline.TickInterval = c.Market.Interval
	}
	if c.Pipeline.HistoryLimit == 0 {
		c.Pipeline.HistoryLimit = 100
	}
	if c.Calendar.Timezone == "" {
		c.Calendar.Timezone = "Asia/Kolkata"
	}
	if c.Calendar.Open == "" {
		c.Calendar.Open = "09:30"
	}
	if c.Calendar.Close == "" {
		c.Calendar.Close = "15:30"
	}
	if c.Heartbeat.Interval == 0 {
		c.Heartbeat.Interval = 30 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Market.Symbol == "" {
		return fmt.Errorf("market.symbol is required")
	}
	if c.Market.BaseURL == "" {
		return fmt.Errorf("market.base_url is required")
	}
	if c.Models.ServiceURL == "" {
		return fmt.Errorf("models.service_url is required")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.Decision.SellProbability >= c.Decision.BuyProbability {
		return fmt.Errorf("decision.sell_probability must be below decision.buy_probability")
	}
	if c.Decision.VolLow >= c.Decision.VolHigh {
		return fmt.Errorf("decision.vol_low must be below decision.vol_high")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
