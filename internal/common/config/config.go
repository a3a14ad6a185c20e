package config

import (
	"fmt"
	"time"
)

type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Server        ServerConfig            `mapstructure:"server"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Matching      MatchingConfig          `mapstructure:"matching"`
	Cache         CacheConfig             `mapstructure:"cache"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
	Events        EventsConfig            `mapstructure:"events"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // milliseconds
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	UsePlaintext   bool   `mapstructure:"use_plaintext"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	ProfileIndex string   `mapstructure:"profile_index"`
}

func (e ElasticsearchConfig) Enabled() bool {
	return len(e.Addresses) > 0
}

// RedisConfig is optional. An empty address runs the engine without a cache.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

const (
	CandidateSourcePostgres      = "postgres"
	CandidateSourceElasticsearch = "elasticsearch"
)

type MatchingConfig struct {
	ValuesCompletionThreshold int    `mapstructure:"values_completion_threshold"` // percent
	MaxCandidateCap           int    `mapstructure:"max_candidate_cap"`
	CandidateMultiplier       int    `mapstructure:"candidate_multiplier"`
	DefaultLimit              int    `mapstructure:"default_limit"`
	DailyListLimit            int    `mapstructure:"daily_list_limit"`
	ScoringConcurrency        int    `mapstructure:"scoring_concurrency"`
	CandidateSource           string `mapstructure:"candidate_source"`
	PrecomputeBatchSize       int    `mapstructure:"precompute_batch_size"`
	PrecomputeBatchDelay      int    `mapstructure:"precompute_batch_delay"` // milliseconds
	PrecomputeInterval        int    `mapstructure:"precompute_interval"`    // minutes
	RecomputePollInterval     int    `mapstructure:"recompute_poll_interval"`
	RecomputeBatchSize        int    `mapstructure:"recompute_batch_size"`
	RecomputeQueueKey         string `mapstructure:"recompute_queue_key"`
}

type CacheConfig struct {
	KeyPrefix        string `mapstructure:"key_prefix"`
	ScoreTTL         int    `mapstructure:"score_ttl"` // seconds
	ListTTL          int    `mapstructure:"list_ttl"`  // seconds
	DailyTTL         int    `mapstructure:"daily_ttl"` // seconds
	OperationTimeout int    `mapstructure:"operation_timeout"`
	BreakerFailures  int    `mapstructure:"breaker_failures"`
	BreakerCooldown  int    `mapstructure:"breaker_cooldown"` // milliseconds
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ObservabilityConfig struct {
	ServiceName    string  `mapstructure:"service_name"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}

type EventsConfig struct {
	SNS SNSConfig `mapstructure:"sns"`
}

type SNSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Region   string `mapstructure:"region"`
	TopicARN string `mapstructure:"topic_arn"`
}

// GetDuration converts a millisecond setting.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetSeconds converts a second setting.
func GetSeconds(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
