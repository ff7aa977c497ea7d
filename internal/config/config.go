package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Generator GeneratorConfig `yaml:"generator"`
	Pool      PoolConfig      `yaml:"pool"`
	League    LeagueConfig    `yaml:"league"`
	Season    SeasonConfig    `yaml:"season"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxConnections  int           `yaml:"max_connections"`
	MinConnections  int           `yaml:"min_connections"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
}

// ConnectionString returns the PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslMode,
	)
}

// RedisConfig holds Redis connection configuration for the weekly
// leaderboard cache
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// KafkaConfig holds Kafka connection configuration for progress event
// ingestion
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

// GeneratorConfig holds the content generator API configuration
type GeneratorConfig struct {
	APIURL      string        `yaml:"api_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// PoolConfig holds question pool tuning
type PoolConfig struct {
	DefaultCategory string `yaml:"default_category"`
	// MinQuestions is the empty-pool threshold below which generation
	// is triggered.
	MinQuestions  int `yaml:"min_questions"`
	GenerateBatch int `yaml:"generate_batch"`
	Distractors   int `yaml:"distractors"`
}

// LeagueConfig holds league grouping tuning
type LeagueConfig struct {
	GroupCapacity int `yaml:"group_capacity"`
	PromoteCount  int `yaml:"promote_count"`
	DemoteCount   int `yaml:"demote_count"`
	// DemotionMinSize is the group size above which the bottom of the
	// group is demoted.
	DemotionMinSize int `yaml:"demotion_min_size"`
}

// SeasonConfig holds the weekly rotation schedule
type SeasonConfig struct {
	Enabled bool   `yaml:"enabled"`
	Weekday string `yaml:"weekday"` // e.g. "Monday"
	Hour    int    `yaml:"hour"`    // local hour of day, 0-23
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}

	// PostgreSQL defaults
	if c.Postgres.Host == "" {
		c.Postgres.Host = "localhost"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.MaxConnections == 0 {
		c.Postgres.MaxConnections = 50
	}
	if c.Postgres.MinConnections == 0 {
		c.Postgres.MinConnections = 5
	}
	if c.Postgres.MaxConnLifetime == 0 {
		c.Postgres.MaxConnLifetime = 1 * time.Hour
	}
	if c.Postgres.MaxConnIdleTime == 0 {
		c.Postgres.MaxConnIdleTime = 30 * time.Minute
	}

	// Redis defaults
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 50
	}
	if c.Redis.MinIdleConns == 0 {
		c.Redis.MinIdleConns = 5
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}

	// Kafka defaults
	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "progress-events"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "progress-consumer"
	}

	// Generator defaults
	if c.Generator.APIURL == "" {
		c.Generator.APIURL = "https://api.groq.com/openai/v1/chat/completions"
	}
	if c.Generator.Model == "" {
		c.Generator.Model = "llama-3.3-70b-versatile"
	}
	if c.Generator.Temperature == 0 {
		c.Generator.Temperature = 0.8
	}
	if c.Generator.Timeout == 0 {
		c.Generator.Timeout = 60 * time.Second
	}

	// Pool defaults
	if c.Pool.DefaultCategory == "" {
		c.Pool.DefaultCategory = "JavaScript"
	}
	if c.Pool.MinQuestions == 0 {
		c.Pool.MinQuestions = 2
	}
	if c.Pool.GenerateBatch == 0 {
		c.Pool.GenerateBatch = 12
	}
	if c.Pool.Distractors == 0 {
		c.Pool.Distractors = 3
	}

	// League defaults
	if c.League.GroupCapacity == 0 {
		c.League.GroupCapacity = 50
	}
	if c.League.PromoteCount == 0 {
		c.League.PromoteCount = 3
	}
	if c.League.DemoteCount == 0 {
		c.League.DemoteCount = 5
	}
	if c.League.DemotionMinSize == 0 {
		c.League.DemotionMinSize = 10
	}

	// Season defaults: Monday 00:00 local
	if c.Season.Weekday == "" {
		c.Season.Weekday = "Monday"
	}
}

// DefaultConfig returns a configuration with all defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Season.Enabled = true
	return cfg
}
