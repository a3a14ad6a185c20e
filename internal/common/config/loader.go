package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges configs/config.<env>.yaml on top and
// lets environment variables override individual keys.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile reads a single config file.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	paths := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		if expanded := os.ExpandEnv(strVal); expanded != strVal {
			v.Set(key, expanded)
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "compatibility-workers"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15000
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.ProfileIndex == "" {
		cfg.Database.Elasticsearch.ProfileIndex = "profiles"
	}

	m := &cfg.Matching
	if m.ValuesCompletionThreshold == 0 {
		m.ValuesCompletionThreshold = 80
	}
	if m.MaxCandidateCap == 0 {
		m.MaxCandidateCap = 50
	}
	if m.CandidateMultiplier == 0 {
		m.CandidateMultiplier = 3
	}
	if m.DefaultLimit == 0 {
		m.DefaultLimit = 10
	}
	if m.DailyListLimit == 0 {
		m.DailyListLimit = 20
	}
	if m.ScoringConcurrency == 0 {
		m.ScoringConcurrency = 8
	}
	if m.CandidateSource == "" {
		m.CandidateSource = CandidateSourcePostgres
	}
	if m.PrecomputeBatchSize == 0 {
		m.PrecomputeBatchSize = 50
	}
	if m.PrecomputeBatchDelay == 0 {
		m.PrecomputeBatchDelay = 1000
	}
	if m.PrecomputeInterval == 0 {
		m.PrecomputeInterval = 24 * 60
	}
	if m.RecomputePollInterval == 0 {
		m.RecomputePollInterval = 30000
	}
	if m.RecomputeBatchSize == 0 {
		m.RecomputeBatchSize = 20
	}
	if m.RecomputeQueueKey == "" {
		m.RecomputeQueueKey = "compat:recompute"
	}

	c := &cfg.Cache
	if c.KeyPrefix == "" {
		c.KeyPrefix = "compat"
	}
	if c.ScoreTTL == 0 {
		c.ScoreTTL = 3600
	}
	if c.ListTTL == 0 {
		c.ListTTL = 1800
	}
	if c.DailyTTL == 0 {
		c.DailyTTL = 86400
	}
	if c.OperationTimeout == 0 {
		c.OperationTimeout = 250
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerCooldown == 0 {
		c.BreakerCooldown = 30000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}
	if cfg.Observability.SampleRatio == 0 {
		cfg.Observability.SampleRatio = 1
	}

	if cfg.Workers == nil {
		cfg.Workers = make(map[string]WorkerConfig)
	}
	for key, w := range cfg.Workers {
		if w.MaxJobsActive == 0 {
			w.MaxJobsActive = 5
		}
		if w.Timeout == 0 {
			w.Timeout = 30000
		}
		if w.MaxRetries == 0 {
			w.MaxRetries = 3
		}
		cfg.Workers[key] = w
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	switch cfg.Matching.CandidateSource {
	case CandidateSourcePostgres:
	case CandidateSourceElasticsearch:
		if !cfg.Database.Elasticsearch.Enabled() {
			return fmt.Errorf("database.elasticsearch.addresses is required when matching.candidate_source is elasticsearch")
		}
	default:
		return fmt.Errorf("matching.candidate_source must be %q or %q", CandidateSourcePostgres, CandidateSourceElasticsearch)
	}

	if cfg.Matching.ValuesCompletionThreshold < 0 || cfg.Matching.ValuesCompletionThreshold > 100 {
		return fmt.Errorf("matching.values_completion_threshold must be between 0 and 100")
	}

	if cfg.Events.SNS.Enabled && cfg.Events.SNS.TopicARN == "" {
		return fmt.Errorf("events.sns.topic_arn is required when events.sns.enabled is true")
	}

	return nil
}

func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if w, exists := cfg.Workers[workerName]; exists {
		return w
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if w, exists := cfg.Workers[workerName]; exists {
		return w.Enabled
	}
	return true
}
