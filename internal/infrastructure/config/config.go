// Package config provides configuration management using Viper
// Supports environment variables, config files, and sensible defaults
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the pipeline
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Search    SearchConfig    `mapstructure:"search"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Model     ModelConfig     `mapstructure:"model"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Staging   StagingConfig   `mapstructure:"staging"`
	Worker    WorkerConfig    `mapstructure:"worker"`
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	MetricsPort int    `mapstructure:"metricsport"`
	APIPort     int    `mapstructure:"apiport"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig holds relational store configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"maxopenconns"`
	MaxIdleConns    int           `mapstructure:"maxidleconns"`
	ConnMaxLifetime time.Duration `mapstructure:"connmaxlifetime"`
	AutoMigrate     bool          `mapstructure:"automigrate"`
}

// GetDSN returns the PostgreSQL connection string
func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode)
}

// RedisConfig holds the feed dedup cache configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
}

// Addr returns host:port for the redis client
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// KafkaConfig holds message bus configuration
type KafkaConfig struct {
	Brokers  []string `mapstructure:"brokers"`
	Topic    string   `mapstructure:"topic"`
	GroupID  string   `mapstructure:"groupid"`
	ClientID string   `mapstructure:"clientid"`
}

// SearchConfig holds search index configuration
type SearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
	BatchSize int      `mapstructure:"batchsize"`
}

// TemporalConfig holds workflow engine configuration
type TemporalConfig struct {
	HostPort  string `mapstructure:"hostport"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"taskqueue"`
}

// ModelConfig holds language-model provider configuration
type ModelConfig struct {
	Provider          string  `mapstructure:"provider"`
	AnthropicAPIKey   string  `mapstructure:"anthropicapikey"`
	AnthropicModel    string  `mapstructure:"anthropicmodel"`
	OpenAIAPIKey      string  `mapstructure:"openaiapikey"`
	OpenAIModel       string  `mapstructure:"openaimodel"`
	MaxTokens         int     `mapstructure:"maxtokens"`
	RequestsPerSecond float64 `mapstructure:"requestspersecond"`
}

// EmbeddingConfig holds sentence-encoder configuration
type EmbeddingConfig struct {
	Host      string        `mapstructure:"host"`
	Model     string        `mapstructure:"model"`
	Dimension int           `mapstructure:"dimension"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// FeedConfig holds feed poller configuration
type FeedConfig struct {
	Source        string        `mapstructure:"source"`
	Limit         int           `mapstructure:"limit"`
	Interval      time.Duration `mapstructure:"interval"`
	UserAgent     string        `mapstructure:"useragent"`
	CSVSinkPath   string        `mapstructure:"csvsinkpath"`
	SeenSetPrefix string        `mapstructure:"seensetprefix"`
}

// StagingConfig holds staged-file configuration
type StagingConfig struct {
	Dir string `mapstructure:"dir"`
}

// WorkerConfig holds workflow worker configuration
type WorkerConfig struct {
	MaxConcurrentActivities int `mapstructure:"maxconcurrentactivities"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("PIPELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "recipe-pipeline")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.metricsport", 9091)
	v.SetDefault("app.apiport", 8084)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "recipes")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxopenconns", 25)
	v.SetDefault("database.maxidleconns", 5)
	v.SetDefault("database.connmaxlifetime", 30*time.Minute)
	v.SetDefault("database.automigrate", true)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.database", 0)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "recipe-events")
	v.SetDefault("kafka.groupid", "recipe-processors")
	v.SetDefault("kafka.clientid", "recipe-pipeline")

	v.SetDefault("search.addresses", []string{"http://localhost:9200"})
	v.SetDefault("search.index", "recipes")
	v.SetDefault("search.batchsize", 100)

	v.SetDefault("temporal.hostport", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.taskqueue", "recipe-pipeline")

	v.SetDefault("model.provider", "anthropic")
	v.SetDefault("model.anthropicmodel", "claude-3-haiku-20240307")
	v.SetDefault("model.openaimodel", "gpt-4o-mini")
	v.SetDefault("model.maxtokens", 2000)
	v.SetDefault("model.requestspersecond", 0.8)

	v.SetDefault("embedding.host", "http://localhost:11434")
	v.SetDefault("embedding.model", "all-minilm")
	v.SetDefault("embedding.dimension", 384)
	v.SetDefault("embedding.timeout", 30*time.Second)

	v.SetDefault("feed.source", "recipes")
	v.SetDefault("feed.limit", 25)
	v.SetDefault("feed.interval", 5*time.Minute)
	v.SetDefault("feed.useragent", "recipe-pipeline/1.0")
	v.SetDefault("feed.csvsinkpath", "")
	v.SetDefault("feed.seensetprefix", "feed:seen")

	v.SetDefault("staging.dir", "data/staged")

	v.SetDefault("worker.maxconcurrentactivities", 20)
}

// Validate checks that required configuration is present.
// A violation is fatal: the process must not start half-configured.
func (c *Config) Validate() error {
	if c.Database.Host == "" || c.Database.Database == "" {
		return fmt.Errorf("database host and name are required")
	}
	if len(c.Search.Addresses) == 0 {
		return fmt.Errorf("at least one search address is required")
	}
	if c.Temporal.HostPort == "" {
		return fmt.Errorf("temporal host:port is required")
	}
	if c.Embedding.Dimension != 384 {
		return fmt.Errorf("embedding dimension must be 384, got %d", c.Embedding.Dimension)
	}
	switch c.Model.Provider {
	case "anthropic", "openai", "none":
	default:
		return fmt.Errorf("unknown model provider %q", c.Model.Provider)
	}
	return nil
}

// IsDevelopment returns true in development environments
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
